package xpool

import (
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// Serial 是单 worker、无界 FIFO 的泛型执行器。
// 所有任务在同一个 goroutine 中按提交顺序执行，因此 handler 内部访问的
// 状态不需要额外加锁。
type Serial[T any] struct {
	handler func(T)
	opts    options

	mu      sync.Mutex
	queue   []T
	stopped bool

	pending atomic.Int64  // 已提交但尚未执行完的任务数
	notify  chan struct{} // 容量 1，唤醒 worker
	done    chan struct{} // worker 退出后关闭

	stopOnce sync.Once
}

// NewSerial 创建并启动串行执行器。
//
// handler 不能为 nil，否则返回 ErrNilHandler。
func NewSerial[T any](handler func(T), opts ...Option) (*Serial[T], error) {
	if handler == nil {
		return nil, ErrNilHandler
	}
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	s := &Serial[T]{
		handler: handler,
		opts:    o,
		notify:  make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	go s.worker()
	return s, nil
}

// Submit 提交任务，永不阻塞。
// 执行器停止后返回 ErrStopped。
func (s *Serial[T]) Submit(task T) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return ErrStopped
	}
	s.queue = append(s.queue, task)
	s.pending.Add(1)
	s.mu.Unlock()

	s.wake()
	return nil
}

// wake 非阻塞地唤醒 worker；通道中已有信号时直接返回。
func (s *Serial[T]) wake() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// worker 每次取走整个队列批量执行，减少锁竞争。
// 停止标记置位后，worker 仍会处理完剩余任务才退出。
func (s *Serial[T]) worker() {
	defer close(s.done)
	for {
		s.mu.Lock()
		for len(s.queue) == 0 {
			if s.stopped {
				s.mu.Unlock()
				return
			}
			s.mu.Unlock()
			<-s.notify
			s.mu.Lock()
		}
		batch := s.queue
		s.queue = nil
		s.mu.Unlock()

		for i := range batch {
			s.run(batch[i])
			var zero T
			batch[i] = zero // 释放引用，便于 GC
			s.pending.Add(-1)
		}
	}
}

// run 安全执行 handler，捕获 panic
func (s *Serial[T]) run(task T) {
	defer func() {
		if r := recover(); r != nil {
			attrs := []any{"panic", r, "stack", string(debug.Stack())}
			if s.opts.name != "" {
				attrs = append(attrs, "name", s.opts.name)
			}
			s.opts.logger.Error("xpool: task panic recovered", attrs...)
		}
	}()
	s.handler(task)
}

// Stop 停止执行器。
// 拒绝新任务，等待队列中所有剩余任务处理完成后返回。多次调用是安全的。
func (s *Serial[T]) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.stopped = true
		s.mu.Unlock()
		s.wake()
	})
	<-s.done
}

// Done 返回一个在 worker 退出后关闭的 channel。
func (s *Serial[T]) Done() <-chan struct{} {
	return s.done
}

// Len 返回已提交但尚未执行完的任务数（包含正在执行的任务）。
func (s *Serial[T]) Len() int {
	return int(s.pending.Load())
}
