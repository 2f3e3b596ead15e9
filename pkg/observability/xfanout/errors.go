package xfanout

import "errors"

var (
	// ErrClosed Dispatcher 已关闭。
	ErrClosed = errors.New("xfanout: dispatcher closed")

	// ErrNoFile 未配置文件目的地。
	ErrNoFile = errors.New("xfanout: no file destination")

	// ErrPanic 目的地或后台任务发生 panic，已被捕获。
	ErrPanic = errors.New("xfanout: recovered panic")

	// ErrInvalidLevel 无法识别的级别名。
	ErrInvalidLevel = errors.New("xfanout: invalid level")

	// ErrInvalidOutput 无法识别的目的地名。
	ErrInvalidOutput = errors.New("xfanout: invalid output")

	// ErrInvalidConfig 配置校验失败。
	ErrInvalidConfig = errors.New("xfanout: invalid config")
)
