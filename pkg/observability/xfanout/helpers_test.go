package xfanout

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/omeyang/xlogkit/pkg/observability/xlog"
	"github.com/omeyang/xlogkit/pkg/observability/xlogdir"
	"github.com/omeyang/xlogkit/pkg/observability/xrotate"
)

// TestMain 在所有测试完成后检测 goroutine 泄漏。
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// 诊断文件经 lumberjack 轮转，其 millRun 在 Close 后不退出
		goleak.IgnoreTopFunction("gopkg.in/natefinch/lumberjack%2ev2.(*Logger).millRun"),
	)
}

func fixedClock() time.Time { return fixedTime }

// lockedBuffer 并发安全的 bytes.Buffer
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// newDiag 返回写入内存的诊断 Logger
func newDiag(t *testing.T) (xlog.Logger, *lockedBuffer) {
	t.Helper()
	buf := &lockedBuffer{}
	l, cleanup, err := xlog.New().SetOutput(buf).SetLevel(xlog.LevelDebug).Build()
	require.NoError(t, err)
	t.Cleanup(func() { _ = cleanup() })
	return l, buf
}

func newFiles(t *testing.T, policy xrotate.Policy) *xlogdir.Manager {
	t.Helper()
	m, err := xlogdir.New(t.TempDir(), xlogdir.WithClock(fixedClock), xlogdir.WithPolicy(policy))
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func newFilesAt(t *testing.T, dir string, diag xlog.Logger) *xlogdir.Manager {
	t.Helper()
	m, err := xlogdir.New(dir, xlogdir.WithClock(fixedClock), xlogdir.WithDiagnostics(diag))
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

// logLines 返回活动文件中去掉横幅后的日志行，文件尚未创建时返回 nil。
// 可能在 worker goroutine 上调用，因此只用 assert。
func logLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if !assert.NoError(t, err) {
		return nil
	}
	var out []string
	for _, line := range strings.Split(string(data), "\n") {
		if strings.HasPrefix(line, fixedTS+" [") {
			out = append(out, line)
		}
	}
	return out
}

// logged 一条结构化日志
type logged struct {
	level    xlog.Level
	msg      string
	category string
}

// recordingLogger 记录收到的结构化日志，可注入回调
type recordingLogger struct {
	mu      sync.Mutex
	entries []logged
	hook    func(msg string)
}

func (l *recordingLogger) Debug(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.Log(ctx, xlog.LevelDebug, msg, attrs...)
}

func (l *recordingLogger) Info(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.Log(ctx, xlog.LevelInfo, msg, attrs...)
}

func (l *recordingLogger) Warn(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.Log(ctx, xlog.LevelWarn, msg, attrs...)
}

func (l *recordingLogger) Error(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.Log(ctx, xlog.LevelError, msg, attrs...)
}

func (l *recordingLogger) Log(_ context.Context, level xlog.Level, msg string, attrs ...slog.Attr) {
	if l.hook != nil {
		l.hook(msg)
	}
	e := logged{level: level, msg: msg}
	for _, a := range attrs {
		if a.Key == xlog.KeyCategory {
			e.category = a.Value.String()
		}
	}
	l.mu.Lock()
	l.entries = append(l.entries, e)
	l.mu.Unlock()
}

func (l *recordingLogger) With(...slog.Attr) xlog.Logger { return l }
func (l *recordingLogger) WithGroup(string) xlog.Logger  { return l }

func (l *recordingLogger) snapshot() []logged {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]logged(nil), l.entries...)
}
