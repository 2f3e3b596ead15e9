package xpool

import "errors"

var (
	// ErrNilHandler 表示 handler 参数为 nil。
	ErrNilHandler = errors.New("xpool: handler cannot be nil")

	// ErrStopped 表示执行器已停止，无法提交任务。
	ErrStopped = errors.New("xpool: executor is stopped")
)
