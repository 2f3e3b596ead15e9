package xrotate

import (
	"fmt"
	"os"
)

// options 两种实现共用的配置
//
// 各选项只作用于相关的实现：WithFS 和 WithOnTruncate 只影响 [OpenLines]，
// WithMaxSize 等大小轮转选项只影响 [NewLumberjack]，其余两者通用。
type options struct {
	// 通用
	fileMode os.FileMode
	onError  func(error)

	// OpenLines
	fs         FS
	onTruncate func(from, to int)

	// NewLumberjack
	maxSizeMB  int
	maxBackups int
	maxAgeDays int
	compress   bool
	localTime  bool
}

func defaultOptions() options {
	return options{
		fs:         OSFS{},
		maxSizeMB:  DefaultMaxSizeMB,
		maxBackups: DefaultMaxBackups,
		maxAgeDays: DefaultMaxAgeDays,
		compress:   DefaultCompress,
		localTime:  DefaultLocalTime,
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// Option 配置选项函数
type Option func(*options)

// LumberjackOption 是 [Option] 的别名，保留给按大小轮转的调用方
type LumberjackOption = Option

// WithFileMode 设置日志文件权限
//
// OpenLines 在创建文件时直接使用该权限（默认 0644）。
// lumberjack v2.2+ 固定以 0600 创建文件，此选项在写入后通过 chmod 调整，
// 存在短暂时间窗口文件权限为 0600。
func WithFileMode(mode os.FileMode) Option {
	return func(o *options) {
		o.fileMode = mode
	}
}

// WithOnError 设置错误回调函数
//
// 接收不影响写入返回值的内部错误：截断失败、权限调整失败等。
// 回调不得向同一 Rotator 写入数据，否则会递归。推荐输出到 os.Stderr
// 或独立的诊断通道。回调 panic 会被隔离。
func WithOnError(fn func(error)) Option {
	return func(o *options) {
		o.onError = fn
	}
}

// WithFS 设置文件系统实现，nil 时忽略
func WithFS(fs FS) Option {
	return func(o *options) {
		if fs != nil {
			o.fs = fs
		}
	}
}

// WithOnTruncate 设置截断成功后的回调，参数为截断前后的行数
func WithOnTruncate(fn func(from, to int)) Option {
	return func(o *options) {
		o.onTruncate = fn
	}
}

// WithMaxSize 设置单个日志文件最大大小（MB）
func WithMaxSize(mb int) Option {
	return func(o *options) {
		o.maxSizeMB = mb
	}
}

// WithMaxBackups 设置保留的备份文件数量
func WithMaxBackups(n int) Option {
	return func(o *options) {
		o.maxBackups = n
	}
}

// WithMaxAge 设置保留备份的天数
func WithMaxAge(days int) Option {
	return func(o *options) {
		o.maxAgeDays = days
	}
}

// WithCompress 设置是否压缩备份文件
func WithCompress(compress bool) Option {
	return func(o *options) {
		o.compress = compress
	}
}

// WithLocalTime 设置备份文件名是否使用本地时间
func WithLocalTime(local bool) Option {
	return func(o *options) {
		o.localTime = local
	}
}

// validateFileMode 仅允许权限位（低 9 位），拒绝文件类型位、setuid/setgid 等
func validateFileMode(mode os.FileMode) error {
	if mode != 0 && mode&^os.FileMode(0o777) != 0 {
		return fmt.Errorf("%w: got %04o, only permission bits (0000~0777) allowed",
			ErrInvalidFileMode, mode)
	}
	return nil
}
