package xlog

import (
	"log/slog"
	"time"
)

// 常用属性 Key
const (
	KeyError     = "error"
	KeyComponent = "component"
	KeyCategory  = "category"
	KeyOperation = "operation"
	KeyPath      = "path"
	KeyCount     = "count"
	KeyDuration  = "duration"
)

// Err 创建错误属性，err 为 nil 时返回会被 slog 忽略的空属性
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Component 标识日志来源组件
func Component(name string) slog.Attr {
	return slog.String(KeyComponent, name)
}

// Category 日志记录的业务分类（如 default、network）
func Category(name string) slog.Attr {
	return slog.String(KeyCategory, name)
}

// Operation 标识当前执行的操作
func Operation(name string) slog.Attr {
	return slog.String(KeyOperation, name)
}

// Path 文件或请求路径
func Path(p string) slog.Attr {
	return slog.String(KeyPath, p)
}

// Count 计数
func Count(n int64) slog.Attr {
	return slog.Int64(KeyCount, n)
}

// Duration 人类可读的耗时（如 "1m30s"）
func Duration(d time.Duration) slog.Attr {
	return slog.String(KeyDuration, d.String())
}
