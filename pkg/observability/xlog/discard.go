package xlog

import (
	"context"
	"log/slog"
)

// discardLogger 丢弃所有输出
type discardLogger struct{}

var discard Logger = discardLogger{}

// Discard 返回丢弃所有输出的 Logger
func Discard() Logger { return discard }

func (discardLogger) Debug(context.Context, string, ...slog.Attr)      {}
func (discardLogger) Info(context.Context, string, ...slog.Attr)       {}
func (discardLogger) Warn(context.Context, string, ...slog.Attr)       {}
func (discardLogger) Error(context.Context, string, ...slog.Attr)      {}
func (discardLogger) Log(context.Context, Level, string, ...slog.Attr) {}
func (d discardLogger) With(...slog.Attr) Logger                       { return d }
func (d discardLogger) WithGroup(string) Logger                        { return d }
