package xlogdir

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/omeyang/xlogkit/pkg/observability/xlog"
	"github.com/omeyang/xlogkit/pkg/observability/xrotate"
	"github.com/omeyang/xlogkit/pkg/util/xfile"
)

const bannerRule = "----------"

// Manager 日志目录管理器
type Manager struct {
	dir  string
	opts options

	mu       sync.Mutex
	policy   xrotate.Policy
	w        *xrotate.LineRotator
	fileName string // 当前打开的文件名
	failed   bool   // 打开失败后置位，SetPolicy/Reopen 清除
	closed   bool
}

// New 创建日志目录管理器
//
// dir 会被转换为绝对路径；目录和活动文件都在第一次 Append 时才创建。
// 策略非法、布局未知或文件名非法时返回错误。
func New(dir string, opts ...Option) (*Manager, error) {
	if dir == "" {
		return nil, ErrEmptyDir
	}
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.layout != LayoutSingle && o.layout != LayoutDaily {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLayout, int(o.layout))
	}
	if err := o.policy.Validate(); err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("xlogdir: resolve %s: %w", dir, err)
	}
	if _, err := xfile.JoinFileName(abs, o.fileName); err != nil {
		return nil, err
	}

	return &Manager{
		dir:    abs,
		opts:   o,
		policy: o.policy,
	}, nil
}

// Dir 返回日志目录的绝对路径
func (m *Manager) Dir() string {
	return m.dir
}

// Layout 返回文件布局
func (m *Manager) Layout() Layout {
	return m.opts.layout
}

// Policy 返回当前行数策略
func (m *Manager) Policy() xrotate.Policy {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.policy
}

// activeNameLocked 按布局和当前时间选择活动文件名
func (m *Manager) activeNameLocked() string {
	if m.opts.layout == LayoutDaily {
		return DailyFileName(m.opts.clock())
	}
	return m.opts.fileName
}

// ActivePath 返回活动文件路径
//
// 文件尚未打开时返回按当前时间将要使用的路径。
func (m *Manager) ActivePath() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activePathLocked()
}

func (m *Manager) activePathLocked() string {
	name := m.fileName
	if m.w == nil {
		name = m.activeNameLocked()
	}
	return filepath.Join(m.dir, name)
}

// Append 向活动文件追加一行
//
// 按天布局下日期变化时先关闭旧文件再打开新文件。
func (m *Manager) Append(line string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if err := m.ensureOpenLocked(true); err != nil {
		return err
	}
	return m.w.Append(line)
}

// ensureOpenLocked 确保活动文件已打开并且是当前应使用的文件，banner 控制新打开时是否写入打开横幅
func (m *Manager) ensureOpenLocked(banner bool) error {
	name := m.activeNameLocked()
	if m.w != nil && name != m.fileName {
		if err := m.closeWriterLocked(); err != nil {
			m.opts.diag.Warn(context.Background(), "xlogdir: close previous log failed", xlog.Err(err))
		}
	}
	if m.w != nil {
		return nil
	}
	if m.failed {
		return ErrUnavailable
	}

	path := filepath.Join(m.dir, name)
	w, err := xrotate.OpenLines(path, m.policy,
		xrotate.WithFS(m.opts.fs),
		xrotate.WithOnError(m.reportTruncateError),
		xrotate.WithOnTruncate(func(from, to int) {
			m.opts.diag.Debug(context.Background(), "xlogdir: log truncated",
				xlog.Path(path), xlog.Count(int64(from-to)))
		}),
	)
	if err != nil {
		m.failed = true
		m.opts.diag.Error(context.Background(), "xlogdir: open log file failed",
			xlog.Path(path), xlog.Err(err))
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	m.w = w
	m.fileName = name
	if banner {
		m.writeOpenBannerLocked()
	}
	return nil
}

func (m *Manager) reportTruncateError(err error) {
	m.opts.diag.Error(context.Background(), "xlogdir: truncate failed", xlog.Err(err))
}

// writeOpenBannerLocked 写入打开横幅，以一个空行结束；空文件带 File location 段
func (m *Manager) writeOpenBannerLocked() {
	ts := m.opts.clock().Format(TimeLayout)
	var banner string
	if size, err := m.w.Size(); err == nil && size == 0 {
		banner = strings.Join([]string{bannerRule, "File location: " + m.w.Path(), "", "Timestamp: " + ts, bannerRule, ""}, "\n")
	} else {
		banner = strings.Join([]string{bannerRule, "Timestamp: " + ts, bannerRule, ""}, "\n")
	}
	if err := m.w.Append(banner); err != nil {
		m.opts.diag.Warn(context.Background(), "xlogdir: write banner failed",
			xlog.Path(m.w.Path()), xlog.Err(err))
	}
}

// closeWriterLocked 写入关闭横幅并关闭活动文件
func (m *Manager) closeWriterLocked() error {
	if m.w == nil {
		return nil
	}
	ts := m.opts.clock().Format(TimeLayout)
	bannerErr := m.w.Append(strings.Join([]string{"", bannerRule, "File closed: " + ts, bannerRule}, "\n"))
	closeErr := m.w.Close()
	m.w = nil
	m.fileName = ""
	return errors.Join(bannerErr, closeErr)
}

// SetPolicy 替换行数策略
//
// 策略非法时返回错误且不做任何修改。否则关闭活动文件，下一次 Append
// 用新策略重新打开，同时清除打开失败标记。
func (m *Manager) SetPolicy(p xrotate.Policy) error {
	if err := p.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	m.policy = p
	m.failed = false
	return m.closeWriterLocked()
}

// Reopen 关闭活动文件并清除打开失败标记，下一次 Append 重新打开
func (m *Manager) Reopen() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	m.failed = false
	return m.closeWriterLocked()
}

// Rotate 清理日志：把活动文件截断为最后 Keep 行，再写入新的打开横幅
func (m *Manager) Rotate() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	// 截断后统一写一次横幅，打开时不写
	if err := m.ensureOpenLocked(false); err != nil {
		return err
	}
	if err := m.w.Rotate(); err != nil {
		return err
	}
	m.writeOpenBannerLocked()
	return nil
}

// Sync 将活动文件刷到磁盘，文件未打开时什么也不做
func (m *Manager) Sync() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.w == nil {
		return nil
	}
	return m.w.Sync()
}

// Lines 返回活动文件的运行行数，未打开时返回 0
func (m *Manager) Lines() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.w == nil {
		return 0
	}
	return m.w.Lines()
}

// Close 写入关闭横幅并关闭活动文件，重复调用返回 nil
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	return m.closeWriterLocked()
}
