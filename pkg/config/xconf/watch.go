package xconf

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce 默认防抖窗口。
const DefaultDebounce = 100 * time.Millisecond

// OnChange 在配置文件变更并完成 Reload 后调用。
// err 非 nil 表示重载失败（cfg 仍是旧配置）或监视器本身报错。
type OnChange func(cfg *Config, err error)

// WatchOption 监视器选项。
type WatchOption func(*Watcher)

// WithDebounce 设置防抖窗口，d <= 0 时忽略。
func WithDebounce(d time.Duration) WatchOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// Watcher 监视配置文件并自动重载。
type Watcher struct {
	cfg      *Config
	fsw      *fsnotify.Watcher
	onChange OnChange
	debounce time.Duration

	stop       chan struct{}
	done       chan struct{}
	stopOnce   sync.Once
	stopErr    error
	inCallback atomic.Bool
}

// Watch 创建并立即启动监视器，返回后即开始接收变更。
// 只能监视由 New 从文件加载的配置。
func Watch(cfg *Config, onChange OnChange, opts ...WatchOption) (*Watcher, error) {
	if onChange == nil {
		return nil, ErrNilCallback
	}
	if cfg == nil || cfg.path == "" {
		return nil, ErrNotFromFile
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("xconf: create watcher: %w", err)
	}
	dir := filepath.Dir(cfg.path)
	if err := fsw.Add(dir); err != nil {
		return nil, errors.Join(fmt.Errorf("xconf: watch directory %s: %w", dir, err), fsw.Close())
	}

	w := &Watcher{
		cfg:      cfg,
		fsw:      fsw,
		onChange: onChange,
		debounce: DefaultDebounce,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	go w.run()
	return w, nil
}

// Stop 停止监视，多次调用是安全的。
// 在回调之外调用时，Stop 会等待监视 goroutine 退出；在回调中调用不会死锁。
func (w *Watcher) Stop() error {
	w.stopOnce.Do(func() {
		close(w.stop)
		w.stopErr = w.fsw.Close()
	})
	if !w.inCallback.Load() {
		<-w.done
	}
	return w.stopErr
}

func (w *Watcher) run() {
	defer close(w.done)

	name := filepath.Base(w.cfg.path)
	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-w.stop:
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !relevant(ev, name) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.notify(fmt.Errorf("xconf: watch error: %w", err))

		case <-fire:
			fire = nil
			w.notify(w.cfg.Reload())
		}
	}
}

// notify 在 Stop 之后不再回调。
func (w *Watcher) notify(err error) {
	select {
	case <-w.stop:
		return
	default:
	}
	w.inCallback.Store(true)
	defer w.inCallback.Store(false)
	w.onChange(w.cfg, err)
}

// relevant 只关心目标文件的写入、创建与 rename（原子保存）。
func relevant(ev fsnotify.Event, name string) bool {
	if filepath.Base(ev.Name) != name {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename)
}
