package xrotate

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/omeyang/xlogkit/pkg/util/xfile"
)

// DefaultFileMode OpenLines 创建文件时的默认权限
const DefaultFileMode os.FileMode = 0o644

// TruncateSuffix 截断时临时文件的后缀，临时文件与日志文件位于同一目录
const TruncateSuffix = ".truncating"

// 编译时断言
var _ Rotator = (*LineRotator)(nil)

// LineRotator 按行数约束的单文件写入器
//
// 持有一个以追加模式打开的文件和一个运行中的行数估计。每次写入后
// 按 [Policy] 判断是否截断：行数达到 Trigger 时只保留最后 Keep 行，
// 文件名不变。行数只在截断时重新对齐，外部对文件的修改不会被感知。
//
// 所有方法并发安全。
type LineRotator struct {
	mu     sync.Mutex
	path   string
	mode   os.FileMode
	fs     FS
	policy Policy
	file   File
	lines  int
	closed bool

	// retryAt 截断失败后，行数达到该值才再次尝试
	retryAt int

	onError    func(error)
	onTruncate func(from, to int)
}

// OpenLines 打开（必要时创建）按行数约束的日志文件
//
// 父目录不存在时以 0750 权限创建，文件以 O_RDWR|O_CREATE|O_APPEND 打开。
// 策略启用时从文件尾部反向扫描一次得到初始行数。
// 策略非法、路径非法或文件无法创建时返回错误。
func OpenLines(filename string, policy Policy, opts ...Option) (*LineRotator, error) {
	if filename == "" {
		return nil, ErrEmptyFilename
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	o := applyOptions(opts)
	if err := validateFileMode(o.fileMode); err != nil {
		return nil, err
	}
	mode := o.fileMode
	if mode == 0 {
		mode = DefaultFileMode
	}

	path, err := xfile.SanitizePath(filename)
	if err != nil {
		return nil, err
	}
	if err := xfile.EnsureDirWith(o.fs.MkdirAll, path, xfile.DefaultDirPerm); err != nil {
		return nil, fmt.Errorf("xrotate: create directory for %s: %w", path, err)
	}
	f, err := o.fs.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, mode)
	if err != nil {
		return nil, fmt.Errorf("xrotate: open %s: %w", path, err)
	}

	r := &LineRotator{
		path:       path,
		mode:       mode,
		fs:         o.fs,
		policy:     policy,
		file:       f,
		onError:    o.onError,
		onTruncate: o.onTruncate,
	}
	if policy.Enabled() {
		if err := r.seed(); err != nil {
			_ = f.Close() //nolint:errcheck // 已有更重要的错误返回
			return nil, fmt.Errorf("xrotate: count lines of %s: %w", path, err)
		}
	}
	return r, nil
}

func (r *LineRotator) seed() error {
	info, err := r.file.Stat()
	if err != nil {
		return err
	}
	n, err := countLinesReverse(r.file, info.Size())
	if err != nil {
		return err
	}
	r.lines = n
	return nil
}

// Append 写入 line 并追加换行符
//
// 行内容与换行符在一次写调用中完成。写入失败时返回错误，
// 写入器保持可用；截断失败只通过 OnError 回调上报。
func (r *LineRotator) Append(line string) error {
	buf := make([]byte, 0, len(line)+1)
	buf = append(buf, line...)
	buf = append(buf, '\n')
	_, err := r.Write(buf)
	return err
}

// Write 实现 io.Writer，按 p 中的换行符累计行数
func (r *LineRotator) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return 0, ErrClosed
	}
	n, err := r.file.Write(p)
	r.lines += countNewlines(p[:n])
	if err != nil {
		return n, fmt.Errorf("xrotate: write %s: %w", r.path, err)
	}

	if r.policy.Enabled() && r.lines >= r.policy.Trigger && r.lines >= r.retryAt {
		if err := r.truncateLocked(); err != nil {
			// 持续失败时不在每次写入都重读整个文件
			r.retryAt = r.lines + r.policy.Trigger - r.policy.Keep
			r.reportError(err)
		}
	}
	return n, nil
}

// Rotate 不论当前行数，立即把文件截断为最后 Keep 行
//
// 用于显式的"清空日志"请求。策略禁用时 Keep 为 0，文件被清空。
func (r *LineRotator) Rotate() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	return r.truncateLocked()
}

// truncateLocked 读取整个文件，只保留最后 Keep 行。
// 文件不足 Keep 行时保持字节不变，仅校正行数。
//
// 保留部分先写入同目录的临时文件，再原子替换原文件，之后的写入改用临时文件的句柄。
// 任何一步失败时原文件和原句柄保持不变。
func (r *LineRotator) truncateLocked() error {
	info, err := r.file.Stat()
	if err != nil {
		return fmt.Errorf("%w: stat %s: %w", ErrTruncate, r.path, err)
	}
	buf := make([]byte, info.Size())
	if _, err := r.file.ReadAt(buf, 0); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: read %s: %w", ErrTruncate, r.path, err)
	}

	from := r.lines
	offset, kept := tailStart(buf, r.policy.Keep)
	if offset == 0 {
		r.lines = kept
		return nil
	}

	if err := r.replaceLocked(buf[offset:]); err != nil {
		return fmt.Errorf("%w: rewrite %s: %w", ErrTruncate, r.path, err)
	}
	r.lines = kept
	r.retryAt = 0

	if r.onTruncate != nil {
		func() {
			defer func() { recover() }() //nolint:errcheck // recover 返回值无需检查
			r.onTruncate(from, kept)
		}()
	}
	return nil
}

// replaceLocked 用 tail 替换文件内容
func (r *LineRotator) replaceLocked(tail []byte) error {
	tmp := r.path + TruncateSuffix
	f, err := r.fs.OpenFile(tmp, os.O_RDWR|os.O_CREATE|os.O_TRUNC|os.O_APPEND, r.mode)
	if err != nil {
		return err
	}
	discard := func(err error) error {
		_ = f.Close()        //nolint:errcheck // 已有更重要的错误返回
		_ = r.fs.Remove(tmp) //nolint:errcheck // 同上
		return err
	}
	if _, err := f.Write(tail); err != nil {
		return discard(err)
	}
	if err := f.Sync(); err != nil {
		return discard(err)
	}
	if err := r.fs.Rename(tmp, r.path); err != nil {
		return discard(err)
	}

	old := r.file
	r.file = f
	r.reportError(old.Close())
	return nil
}

// reportError 通过回调上报内部错误
//
// 不使用 slog 等日志库，避免 Rotator 作为日志输出目标时产生递归写入。
// 回调 panic 被 recover 隔离。
func (r *LineRotator) reportError(err error) {
	if err != nil && r.onError != nil {
		defer func() { recover() }() //nolint:errcheck // recover 返回值无需检查
		r.onError(err)
	}
}

// Sync 将文件内容刷到磁盘
func (r *LineRotator) Sync() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	return r.file.Sync()
}

// Close 关闭文件。重复调用返回 nil。
func (r *LineRotator) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	return r.file.Close()
}

// Size 返回当前文件大小
func (r *LineRotator) Size() (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return 0, ErrClosed
	}
	info, err := r.file.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// Lines 返回当前的运行行数。
// 策略禁用时不做初始扫描，只累计打开后写入的换行符。
func (r *LineRotator) Lines() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lines
}

// Path 返回规范化后的文件路径
func (r *LineRotator) Path() string {
	return r.path
}

// Policy 返回打开时使用的策略
func (r *LineRotator) Policy() Policy {
	return r.policy
}
