package xrotate

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/omeyang/xlogkit/pkg/util/xfile"
)

// Lumberjack 默认配置值
const (
	// DefaultMaxSizeMB 默认单个诊断日志文件最大大小（MB）
	DefaultMaxSizeMB = 50

	// DefaultMaxBackups 默认保留的备份文件数量
	DefaultMaxBackups = 3

	// DefaultMaxAgeDays 默认保留备份的天数
	DefaultMaxAgeDays = 7

	// DefaultCompress 默认是否压缩备份
	DefaultCompress = true

	// DefaultLocalTime 默认是否使用本地时间（false 表示 UTC）
	DefaultLocalTime = false

	maxSizeMB  = 10240
	maxBackups = 1024
	maxAgeDays = 3650
)

// lumberjackRotator 基于 lumberjack 的按大小轮转实现
//
// 与 [LineRotator] 互补：后者约束用户可见的日志文件行数，
// 本实现承载库自身的诊断输出。
type lumberjackRotator struct {
	mu       sync.Mutex
	logger   *lumberjack.Logger
	path     string
	fileMode os.FileMode
	onError  func(error)
	closed   bool

	// modeApplied 为 true 时跳过权限检查。累计写入超过 maxBytes 时
	// lumberjack 可能已自动轮转，需要重新检查。
	modeApplied bool
	written     int64
	maxBytes    int64
}

// NewLumberjack 创建基于 lumberjack 的日志轮转器
//
// 会对文件路径进行规范化和安全检查，并以 0750 权限创建不存在的父目录。
// 适用的选项：WithMaxSize、WithMaxBackups、WithMaxAge、WithCompress、
// WithLocalTime、WithFileMode、WithOnError。
func NewLumberjack(filename string, opts ...Option) (Rotator, error) {
	if filename == "" {
		return nil, ErrEmptyFilename
	}
	o := applyOptions(opts)
	if err := validateLumberjack(&o); err != nil {
		return nil, err
	}

	safePath, err := xfile.SanitizePath(filename)
	if err != nil {
		return nil, err
	}
	if err := xfile.EnsureDir(safePath); err != nil {
		return nil, err
	}

	return &lumberjackRotator{
		logger: &lumberjack.Logger{
			Filename:   safePath,
			MaxSize:    o.maxSizeMB,
			MaxBackups: o.maxBackups,
			MaxAge:     o.maxAgeDays,
			Compress:   o.compress,
			LocalTime:  o.localTime,
		},
		path:     safePath,
		fileMode: o.fileMode,
		onError:  o.onError,
		maxBytes: int64(o.maxSizeMB) * 1024 * 1024,
	}, nil
}

func validateLumberjack(o *options) error {
	if o.maxSizeMB <= 0 || o.maxSizeMB > maxSizeMB {
		return fmt.Errorf("%w: got %d, want 1~%d", ErrInvalidMaxSize, o.maxSizeMB, maxSizeMB)
	}
	if o.maxBackups < 0 || o.maxBackups > maxBackups {
		return fmt.Errorf("%w: got %d, want 0~%d", ErrInvalidMaxBackups, o.maxBackups, maxBackups)
	}
	if o.maxAgeDays < 0 || o.maxAgeDays > maxAgeDays {
		return fmt.Errorf("%w: got %d, want 0~%d", ErrInvalidMaxAge, o.maxAgeDays, maxAgeDays)
	}
	if o.maxBackups == 0 && o.maxAgeDays == 0 {
		return fmt.Errorf("%w: MaxBackups and MaxAgeDays cannot both be 0", ErrNoCleanupPolicy)
	}
	return validateFileMode(o.fileMode)
}

// Write 实现 io.Writer 接口
func (r *lumberjackRotator) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return 0, ErrClosed
	}
	n, err := r.logger.Write(p)
	if err != nil {
		return n, err
	}
	// 权限调整是尽力而为，不影响写入的返回值
	if r.fileMode != 0 {
		r.written += int64(n)
		if !r.modeApplied || r.written >= r.maxBytes {
			r.reportError(r.ensureFileMode())
		}
	}
	return n, nil
}

// ensureFileMode 确保日志文件具有期望的权限
func (r *lumberjackRotator) ensureFileMode() error {
	info, err := os.Stat(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			// lumberjack 延迟创建文件
			return nil
		}
		return err
	}
	if info.Mode().Perm() != r.fileMode {
		//#nosec G302 -- 日志文件权限由调用方配置决定
		if err := os.Chmod(r.path, r.fileMode); err != nil {
			return err
		}
	}
	r.modeApplied = true
	r.written = 0
	return nil
}

func (r *lumberjackRotator) reportError(err error) {
	if err != nil && r.onError != nil {
		defer func() { recover() }() //nolint:errcheck // recover 返回值无需检查
		r.onError(err)
	}
}

// Close 实现 io.Closer 接口，重复调用返回 nil
func (r *lumberjackRotator) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	return r.logger.Close()
}

// Rotate 手动触发轮转：当前文件重命名为带时间戳的备份，再创建新文件
func (r *lumberjackRotator) Rotate() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	if err := r.logger.Rotate(); err != nil {
		return err
	}
	if r.fileMode != 0 {
		// 新文件使用 lumberjack 默认权限 0600，需要重新调整
		r.modeApplied = false
		r.reportError(r.ensureFileMode())
	}
	return nil
}
