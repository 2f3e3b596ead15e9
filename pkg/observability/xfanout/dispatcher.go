package xfanout

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/omeyang/xlogkit/pkg/observability/xlog"
	"github.com/omeyang/xlogkit/pkg/observability/xlogdir"
	"github.com/omeyang/xlogkit/pkg/observability/xrotate"
	"github.com/omeyang/xlogkit/pkg/transport/xlive"
	"github.com/omeyang/xlogkit/pkg/util/xpool"
)

// Dispatcher 把记录串行化后按固定顺序分发到各目的地。
//
// 所有方法并发安全。目的地、文件与传输只在 worker goroutine 中访问；
// 同步方法（SetTransport、SetPolicy、Rotate、Sync、Flush）排在已提交的记录之后执行，
// 不能在 Destination.Write 内调用，否则会死锁。
type Dispatcher struct {
	opts    options
	worker  *xpool.Serial[func()]
	metrics *metrics

	enabled atomic.Bool
	outputs atomic.Uint32
	closed  atomic.Bool

	// 以下字段只由 worker 访问（Close 在 worker 退出后访问）
	structured Destination
	file       Destination
	live       Destination
	files      *xlogdir.Manager
	transport  xlive.Transport
}

// New 创建并启动 Dispatcher。
// 通过 WithTransport 指定的传输在 worker 上异步连接，失败时报告到诊断 Logger。
func New(opts ...Option) *Dispatcher {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	d := &Dispatcher{opts: o, files: o.files}
	if o.structured != nil {
		d.structured = NewStructured(o.structured)
	}
	if o.files != nil {
		d.file = NewFile(o.files)
	}
	d.enabled.Store(o.enabled)
	d.outputs.Store(uint32(o.outputs))

	// handler 非 nil，NewSerial 不会失败
	d.worker, _ = xpool.NewSerial(func(task func()) { task() }, xpool.WithName("xfanout"))

	m, err := newMetrics(o.meterProvider, d.QueueLen)
	if err != nil {
		o.diag.Warn(context.Background(), "xfanout: metrics disabled", xlog.Err(err))
	}
	d.metrics = m

	if o.transport != nil {
		t := o.transport
		d.async("set transport", func() error { return d.swapTransport(t) })
	}
	return d
}

// Configure 同时设置输出集合与启用状态。
func (d *Dispatcher) Configure(out Outputs, enabled bool) {
	d.outputs.Store(uint32(out))
	d.enabled.Store(enabled)
}

// SetEnabled 启用或禁用分发。禁用时 Log 在拼接消息和取时间戳之前返回。
func (d *Dispatcher) SetEnabled(enabled bool) { d.enabled.Store(enabled) }

// SetOutputs 设置输出集合。
func (d *Dispatcher) SetOutputs(out Outputs) { d.outputs.Store(uint32(out)) }

// Enabled 返回是否启用。
func (d *Dispatcher) Enabled() bool { return d.enabled.Load() }

// Outputs 返回当前输出集合。
func (d *Dispatcher) Outputs() Outputs { return Outputs(d.outputs.Load()) }

func (d *Dispatcher) updateOutputs(fn func(Outputs) Outputs) {
	for {
		old := d.outputs.Load()
		if d.outputs.CompareAndSwap(old, uint32(fn(Outputs(old)))) {
			return
		}
	}
}

// Log 提交一条记录，不阻塞。禁用或关闭后直接丢弃。
// category 为空时使用 CategoryDefault。
func (d *Dispatcher) Log(level Level, category, msg string) {
	if !d.enabled.Load() || d.closed.Load() {
		return
	}
	if category == "" {
		category = CategoryDefault
	}
	rec := Record{Time: d.opts.clock(), Level: level, Category: category, Message: msg}
	out := d.Outputs()
	_ = d.worker.Submit(func() { d.deliver(rec, out) })
}

// Debug 以空格拼接 items 后记录 Debug 级别日志。
func (d *Dispatcher) Debug(category string, items ...any) { d.logItems(LevelDebug, category, items) }

// Info 以空格拼接 items 后记录 Info 级别日志。
func (d *Dispatcher) Info(category string, items ...any) { d.logItems(LevelInfo, category, items) }

// Warn 以空格拼接 items 后记录 Warning 级别日志。
func (d *Dispatcher) Warn(category string, items ...any) { d.logItems(LevelWarning, category, items) }

// Error 以空格拼接 items 后记录 Error 级别日志。
func (d *Dispatcher) Error(category string, items ...any) { d.logItems(LevelError, category, items) }

func (d *Dispatcher) logItems(level Level, category string, items []any) {
	if !d.enabled.Load() {
		return
	}
	d.Log(level, category, Join(items...))
}

// deliver 在 worker 上执行：格式化一次，按固定顺序写入。
func (d *Dispatcher) deliver(rec Record, out Outputs) {
	e := Entry{Record: rec, Line: Format(rec)}
	d.metrics.recordDelivered(rec.Level)
	for _, k := range deliveryOrder {
		if !out.Has(k) {
			continue
		}
		dest := d.destination(k)
		if dest == nil {
			continue
		}
		if err := write(dest, e); err != nil {
			d.reportDelivery(k, err)
		}
	}
}

func (d *Dispatcher) destination(k Kind) Destination {
	switch k {
	case KindStructured:
		return d.structured
	case KindFile:
		return d.file
	case KindLive:
		return d.live
	default:
		return nil
	}
}

// write 隔离单个目的地的错误与 panic。
func write(dest Destination, e Entry) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	return dest.Write(e)
}

// reportDelivery 文件不可用已由 xlogdir 报告过一次，这里只计数。
func (d *Dispatcher) reportDelivery(k Kind, err error) {
	d.metrics.recordError(k)
	if errors.Is(err, xlogdir.ErrUnavailable) {
		return
	}
	d.opts.diag.Warn(context.Background(), "xfanout: delivery failed",
		xlog.Component(k.String()), xlog.Err(err))
}

// call 在 worker 上执行 fn 并等待结果。
func (d *Dispatcher) call(fn func() error) error {
	if d.closed.Load() {
		return ErrClosed
	}
	res := make(chan error, 1)
	if err := d.worker.Submit(func() { res <- guard(fn) }); err != nil {
		return ErrClosed
	}
	return <-res
}

// async 在 worker 上执行 fn，不等待；错误报告到诊断 Logger。
func (d *Dispatcher) async(op string, fn func() error) {
	_ = d.worker.Submit(func() {
		if err := guard(fn); err != nil {
			d.opts.diag.Warn(context.Background(), "xfanout: background task failed",
				xlog.Operation(op), xlog.Err(err))
		}
	})
}

func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	return fn()
}

// SetTransport 替换实时传输：断开旧连接、连接新传输并加入 KindLive。
//
// 在已提交的记录之后执行。重复设置同一实例为空操作；nil 表示解除并移除 KindLive。
// 连接失败时不挂载该传输，也不会对它调用 Disconnect。
func (d *Dispatcher) SetTransport(t xlive.Transport) error {
	return d.call(func() error { return d.swapTransport(t) })
}

func (d *Dispatcher) swapTransport(t xlive.Transport) error {
	if t == d.transport {
		return nil
	}
	var errs []error
	if d.transport != nil {
		if err := d.transport.Disconnect(); err != nil {
			errs = append(errs, fmt.Errorf("xfanout: disconnect transport: %w", err))
		}
		d.transport, d.live = nil, nil
		d.updateOutputs(func(o Outputs) Outputs { return o.Without(KindLive) })
	}
	if t != nil {
		if err := t.Connect(context.Background()); err != nil {
			errs = append(errs, fmt.Errorf("xfanout: connect transport: %w", err))
		} else {
			d.transport, d.live = t, NewLive(t)
			d.updateOutputs(func(o Outputs) Outputs { return o.With(KindLive) })
		}
	}
	return errors.Join(errs...)
}

// SetPolicy 校验并替换文件行数策略，活动文件在下一次写入时按新策略重新打开。
func (d *Dispatcher) SetPolicy(p xrotate.Policy) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if d.files == nil {
		return ErrNoFile
	}
	return d.call(func() error { return d.files.SetPolicy(p) })
}

// Policy 返回文件目的地的行数策略，没有文件目的地时返回零值。
func (d *Dispatcher) Policy() xrotate.Policy {
	if d.files == nil {
		return xrotate.Policy{}
	}
	return d.files.Policy()
}

// Rotate 立即清理活动文件：保留最后 Keep 行并写入新的打开横幅。
func (d *Dispatcher) Rotate() error {
	if d.files == nil {
		return ErrNoFile
	}
	return d.call(d.files.Rotate)
}

// Sync 在已提交的记录写完后刷盘。没有文件目的地时只等待队列。
func (d *Dispatcher) Sync() error {
	return d.call(func() error {
		if d.files == nil {
			return nil
		}
		return d.files.Sync()
	})
}

// Flush 等待此前提交的记录全部分发完毕。
func (d *Dispatcher) Flush() {
	_ = d.call(func() error { return nil })
}

// QueueLen 返回尚未分发完的任务数。
func (d *Dispatcher) QueueLen() int {
	return d.worker.Len()
}

// Close 处理完队列后断开传输、关闭文件（写入关闭横幅）。
// 多次调用是安全的，之后的调用返回 nil；Close 之后的 Log 被丢弃。
func (d *Dispatcher) Close() error {
	if !d.closed.CompareAndSwap(false, true) {
		return nil
	}
	d.worker.Stop()

	var errs []error
	if d.transport != nil {
		if err := d.transport.Disconnect(); err != nil {
			errs = append(errs, fmt.Errorf("xfanout: disconnect transport: %w", err))
		}
		d.transport, d.live = nil, nil
	}
	if d.files != nil {
		if err := d.files.Close(); err != nil {
			errs = append(errs, fmt.Errorf("xfanout: close file: %w", err))
		}
	}
	if err := d.metrics.close(); err != nil {
		errs = append(errs, err)
	}
	for _, fn := range d.opts.closers {
		if err := fn(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
