package xlogdir

import "errors"

var (
	// ErrActiveFile 不能删除活动文件
	ErrActiveFile = errors.New("xlogdir: cannot delete active log")

	// ErrUnavailable 活动文件打开失败，文件目的地暂不可用
	ErrUnavailable = errors.New("xlogdir: log file unavailable")

	// ErrClosed Manager 已关闭
	ErrClosed = errors.New("xlogdir: manager is closed")

	// ErrEmptyDir 未指定日志目录
	ErrEmptyDir = errors.New("xlogdir: directory is required")

	// ErrInvalidLayout 未知的文件布局
	ErrInvalidLayout = errors.New("xlogdir: invalid layout")
)
