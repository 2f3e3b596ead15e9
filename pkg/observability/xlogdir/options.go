package xlogdir

import (
	"time"

	"github.com/omeyang/xlogkit/pkg/observability/xlog"
	"github.com/omeyang/xlogkit/pkg/observability/xrotate"
)

type options struct {
	layout   Layout
	fileName string
	policy   xrotate.Policy
	clock    func() time.Time
	fs       xrotate.FS
	diag     xlog.Logger
}

func defaultOptions() options {
	return options{
		layout:   LayoutSingle,
		fileName: DefaultFileName,
		policy:   xrotate.DefaultPolicy,
		clock:    time.Now,
		fs:       xrotate.OSFS{},
		diag:     xlog.Discard(),
	}
}

// Option Manager 配置选项
type Option func(*options)

// WithLayout 设置活动文件布局
func WithLayout(l Layout) Option {
	return func(o *options) { o.layout = l }
}

// WithFileName 设置 LayoutSingle 的文件名，空字符串忽略
func WithFileName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.fileName = name
		}
	}
}

// WithPolicy 设置行数策略
func WithPolicy(p xrotate.Policy) Option {
	return func(o *options) { o.policy = p }
}

// WithClock 设置时钟，用于横幅时间戳和按天选择文件
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithFS 设置写入活动文件使用的文件系统
func WithFS(fs xrotate.FS) Option {
	return func(o *options) {
		if fs != nil {
			o.fs = fs
		}
	}
}

// WithDiagnostics 设置诊断 Logger，接收打开失败、截断失败等内部错误
func WithDiagnostics(l xlog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.diag = l
		}
	}
}
