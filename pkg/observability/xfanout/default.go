package xfanout

import (
	"sync"
	"sync/atomic"

	"github.com/omeyang/xlogkit/pkg/observability/xlog"
)

// 进程级默认 Dispatcher，面向不方便传递实例的调用点。

var (
	defaultDispatcher atomic.Pointer[Dispatcher]
	defaultOnce       sync.Once
)

// Default 返回默认 Dispatcher，首次调用时创建一个只写结构化日志（stderr）的实例。
func Default() *Dispatcher {
	if d := defaultDispatcher.Load(); d != nil {
		return d
	}
	defaultOnce.Do(func() {
		d := New(WithStructured(xlog.Default()), WithOutputs(Outputs(KindStructured)))
		if !defaultDispatcher.CompareAndSwap(nil, d) {
			_ = d.Close() // SetDefault 抢先设置
		}
	})
	return defaultDispatcher.Load()
}

// SetDefault 替换默认 Dispatcher 并返回旧实例（可能为 nil），由调用方决定是否关闭。
// nil 被忽略。
func SetDefault(d *Dispatcher) *Dispatcher {
	if d == nil {
		return nil
	}
	return defaultDispatcher.Swap(d)
}

// Debug 使用默认 Dispatcher 记录 Debug 级别日志。
func Debug(category string, items ...any) { Default().Debug(category, items...) }

// Info 使用默认 Dispatcher 记录 Info 级别日志。
func Info(category string, items ...any) { Default().Info(category, items...) }

// Warn 使用默认 Dispatcher 记录 Warning 级别日志。
func Warn(category string, items ...any) { Default().Warn(category, items...) }

// Error 使用默认 Dispatcher 记录 Error 级别日志。
func Error(category string, items ...any) { Default().Error(category, items...) }
