package xfanout

import (
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/omeyang/xlogkit/pkg/observability/xlog"
	"github.com/omeyang/xlogkit/pkg/observability/xlogdir"
	"github.com/omeyang/xlogkit/pkg/transport/xlive"
)

type options struct {
	structured    xlog.Logger
	files         *xlogdir.Manager
	transport     xlive.Transport
	diag          xlog.Logger
	outputs       Outputs
	enabled       bool
	clock         func() time.Time
	meterProvider metric.MeterProvider
	closers       []func() error
}

func defaultOptions() options {
	return options{
		diag:    xlog.Discard(),
		outputs: DefaultOutputs,
		enabled: true,
		clock:   time.Now,
	}
}

// Option Dispatcher 配置选项
type Option func(*options)

// WithStructured 设置结构化日志目的地
func WithStructured(l xlog.Logger) Option {
	return func(o *options) { o.structured = l }
}

// WithFile 设置文件目的地，Close 时一并关闭
func WithFile(m *xlogdir.Manager) Option {
	return func(o *options) { o.files = m }
}

// WithTransport 设置初始实时传输，New 之后在 worker 上连接，并在输出集合中加入 KindLive
func WithTransport(t xlive.Transport) Option {
	return func(o *options) { o.transport = t }
}

// WithDiagnostics 设置诊断 Logger，接收目的地错误与 panic
func WithDiagnostics(l xlog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.diag = l
		}
	}
}

// WithOutputs 设置初始输出集合，默认 DefaultOutputs
func WithOutputs(out Outputs) Option {
	return func(o *options) { o.outputs = out }
}

// WithEnabled 设置初始启用状态，默认启用
func WithEnabled(enabled bool) Option {
	return func(o *options) { o.enabled = enabled }
}

// WithClock 设置记录时间戳使用的时钟
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithMeterProvider 启用 OpenTelemetry 指标，nil 表示不采集
func WithMeterProvider(p metric.MeterProvider) Option {
	return func(o *options) { o.meterProvider = p }
}

// withCloser 注册 Close 时额外释放的资源，按注册顺序执行
func withCloser(fn func() error) Option {
	return func(o *options) {
		if fn != nil {
			o.closers = append(o.closers, fn)
		}
	}
}
