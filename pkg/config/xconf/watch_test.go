package xconf

import (
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// TestMain 在所有测试完成后检测 goroutine 泄漏。
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestWatch_Reload(t *testing.T) {
	path := writeFile(t, "xlog.yaml", "enabled: false\n")
	cfg, err := New(path)
	require.NoError(t, err)

	var mu sync.Mutex
	var calls int
	var lastErr error
	w, err := Watch(cfg, func(_ *Config, err error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		lastErr = err
	}, WithDebounce(20*time.Millisecond))
	require.NoError(t, err)
	defer func() { assert.NoError(t, w.Stop()) }()

	require.NoError(t, os.WriteFile(path, []byte("enabled: true\n"), 0600))

	assert.Eventually(t, func() bool {
		return cfg.Client().Bool("enabled")
	}, 3*time.Second, 10*time.Millisecond)

	mu.Lock()
	assert.GreaterOrEqual(t, calls, 1)
	assert.NoError(t, lastErr)
	mu.Unlock()
}

func TestWatch_Debounce(t *testing.T) {
	path := writeFile(t, "xlog.yaml", "file:\n  keep_lines: 0\n")
	cfg, err := New(path)
	require.NoError(t, err)

	var calls atomic.Int32
	w, err := Watch(cfg, func(*Config, error) { calls.Add(1) }, WithDebounce(200*time.Millisecond))
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()

	for i := 1; i <= 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte("file:\n  keep_lines: "+string(rune('0'+i))+"\n"), 0600))
		time.Sleep(10 * time.Millisecond)
	}

	assert.Eventually(t, func() bool { return calls.Load() >= 1 }, 3*time.Second, 10*time.Millisecond)
	assert.Equal(t, 5, cfg.Client().Int("file.keep_lines"))
	// 连续写入被合并，远少于写入次数
	assert.Less(t, calls.Load(), int32(5))
}

func TestWatch_Errors(t *testing.T) {
	_, err := Watch(nil, func(*Config, error) {})
	assert.ErrorIs(t, err, ErrNotFromFile)

	fromBytes, err := NewFromBytes([]byte("a: 1"), FormatYAML)
	require.NoError(t, err)
	_, err = Watch(fromBytes, func(*Config, error) {})
	assert.ErrorIs(t, err, ErrNotFromFile)

	cfg, err := New(writeFile(t, "xlog.yaml", "a: 1"))
	require.NoError(t, err)
	_, err = Watch(cfg, nil)
	assert.ErrorIs(t, err, ErrNilCallback)
}

func TestWatch_StopIdempotent(t *testing.T) {
	cfg, err := New(writeFile(t, "xlog.yaml", "a: 1"))
	require.NoError(t, err)

	w, err := Watch(cfg, func(*Config, error) {})
	require.NoError(t, err)

	assert.NoError(t, w.Stop())
	assert.NoError(t, w.Stop())
}

func TestWatch_StopInsideCallback(t *testing.T) {
	path := writeFile(t, "xlog.yaml", "a: 1")
	cfg, err := New(path)
	require.NoError(t, err)

	stopped := make(chan struct{})
	self := make(chan *Watcher, 1)
	var once sync.Once
	w, err := Watch(cfg, func(*Config, error) {
		once.Do(func() {
			_ = (<-self).Stop()
			close(stopped)
		})
	}, WithDebounce(10*time.Millisecond))
	require.NoError(t, err)
	self <- w

	require.NoError(t, os.WriteFile(path, []byte("a: 2"), 0600))

	select {
	case <-stopped:
	case <-time.After(3 * time.Second):
		_ = w.Stop()
		t.Fatal("回调未触发")
	}
	// 回调返回后 goroutine 退出
	select {
	case <-w.done:
	case <-time.After(3 * time.Second):
		t.Fatal("监视 goroutine 未退出")
	}
}
