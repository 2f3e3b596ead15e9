package xfanout

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/sync/errgroup"

	"github.com/omeyang/xlogkit/pkg/observability/xlog"
	"github.com/omeyang/xlogkit/pkg/observability/xrotate"
	"github.com/omeyang/xlogkit/pkg/transport/xlive"
)

// =============================================================================
// 分发
// =============================================================================

func TestDispatcher_DeliversToAllDestinations(t *testing.T) {
	structured := &recordingLogger{}
	files := newFiles(t, xrotate.DefaultPolicy)
	d := New(WithStructured(structured), WithFile(files), WithClock(fixedClock))

	d.Warn(CategoryNetwork, "retry", 3)
	d.Log(LevelError, "", "boom")
	require.NoError(t, d.Close())

	assert.Equal(t, []string{
		fixedTS + " [WARNING][network]⚠️ retry 3",
		fixedTS + " [ERROR][default]‼️ boom",
	}, logLines(t, files.ActivePath()))

	assert.Equal(t, []logged{
		{level: xlog.LevelWarn, msg: "retry 3", category: CategoryNetwork},
		{level: xlog.LevelError, msg: "boom", category: CategoryDefault},
	}, structured.snapshot())

	data, err := os.ReadFile(files.ActivePath())
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(data), "File closed: "+fixedTS+"\n----------\n"))
}

func TestDispatcher_ConcurrentProducersKeepOrder(t *testing.T) {
	const producers, perProducer = 8, 300
	files := newFiles(t, xrotate.Policy{})
	d := New(WithFile(files), WithOutputs(Outputs(KindFile)), WithClock(fixedClock))
	defer func() { _ = d.Close() }()

	var g errgroup.Group
	for p := 0; p < producers; p++ {
		g.Go(func() error {
			for i := 0; i < perProducer; i++ {
				d.Info("p"+strconv.Itoa(p), i)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	require.NoError(t, d.Sync())
	assert.Zero(t, d.QueueLen())

	lines := logLines(t, files.ActivePath())
	require.Len(t, lines, producers*perProducer)

	next := make(map[string]int)
	for _, line := range lines {
		var cat string
		var seq int
		// 每行都必须是完整的一条记录
		rest := strings.TrimPrefix(line, fixedTS+" [INFO][")
		_, err := fmt.Sscanf(strings.Replace(rest, "] ", " ", 1), "%s %d", &cat, &seq)
		require.NoError(t, err, line)
		assert.Equal(t, next[cat], seq, "producer %s out of order", cat)
		next[cat] = seq + 1
	}
	assert.Len(t, next, producers)
}

func TestDispatcher_FixedDeliveryOrder(t *testing.T) {
	ctrl := gomock.NewController(t)
	files := newFiles(t, xrotate.DefaultPolicy)

	var seen []string
	structured := &recordingLogger{hook: func(msg string) {
		// 结构化日志先于文件
		for _, l := range logLines(t, files.ActivePath()) {
			if strings.HasSuffix(l, " "+msg) {
				t.Errorf("file written before structured: %s", msg)
			}
		}
		seen = append(seen, "structured:"+msg)
	}}

	live := xlive.NewMockTransport(ctrl)
	live.EXPECT().Connect(gomock.Any()).Return(nil)
	live.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, line string) error {
		// 实时传输晚于文件
		assert.Contains(t, logLines(t, files.ActivePath()), line)
		seen = append(seen, "live:"+line[strings.LastIndex(line, " ")+1:])
		return nil
	}).Times(2)
	live.EXPECT().Disconnect().Return(nil)

	d := New(WithStructured(structured), WithFile(files), WithClock(fixedClock))
	require.NoError(t, d.SetTransport(live))
	d.Info("", "one")
	d.Info("", "two")
	require.NoError(t, d.Close())

	assert.Equal(t, []string{"structured:one", "live:one", "structured:two", "live:two"}, seen)
}

func TestDispatcher_DestinationFailureIsolated(t *testing.T) {
	ctrl := gomock.NewController(t)
	diag, diagBuf := newDiag(t)
	files := newFiles(t, xrotate.DefaultPolicy)

	structured := &recordingLogger{hook: func(msg string) {
		if msg == "explode" {
			panic("structured sink down")
		}
	}}
	live := xlive.NewMockTransport(ctrl)
	live.EXPECT().Connect(gomock.Any()).Return(nil)
	live.EXPECT().Send(gomock.Any(), gomock.Any()).Return(errors.New("peer gone")).Times(2)
	live.EXPECT().Disconnect().Return(nil)

	d := New(WithStructured(structured), WithFile(files), WithDiagnostics(diag), WithClock(fixedClock))
	require.NoError(t, d.SetTransport(live))
	d.Info("", "explode")
	d.Info("", "fine")
	require.NoError(t, d.Close())

	// panic 与发送失败都不影响文件
	assert.Equal(t, []string{
		fixedTS + " [INFO][default] explode",
		fixedTS + " [INFO][default] fine",
	}, logLines(t, files.ActivePath()))

	out := diagBuf.String()
	assert.Contains(t, out, "structured sink down")
	assert.Contains(t, out, "component=structured")
	assert.Equal(t, 2, strings.Count(out, "peer gone"))
}

func TestDispatcher_UnavailableFileReportedOnce(t *testing.T) {
	diag, diagBuf := newDiag(t)

	blocked := filepath.Join(t.TempDir(), "blocked")
	require.NoError(t, os.WriteFile(blocked, []byte("x"), 0600))
	files := newFilesAt(t, blocked, diag)

	d := New(WithFile(files), WithOutputs(Outputs(KindFile)), WithDiagnostics(diag))
	for i := 0; i < 5; i++ {
		d.Info("", i)
	}
	d.Flush()

	out := diagBuf.String()
	assert.Equal(t, 1, strings.Count(out, "open log file failed"))
	assert.NotContains(t, out, "delivery failed")
	require.NoError(t, d.Close())
}

// =============================================================================
// 启用与输出
// =============================================================================

type countingStringer struct{ calls *atomic.Int32 }

func (s countingStringer) String() string {
	s.calls.Add(1)
	return "x"
}

func TestDispatcher_DisabledShortCircuits(t *testing.T) {
	var clockCalls, stringCalls atomic.Int32
	structured := &recordingLogger{}
	d := New(
		WithStructured(structured),
		WithEnabled(false),
		WithClock(func() time.Time {
			clockCalls.Add(1)
			return fixedTime
		}),
	)
	defer func() { _ = d.Close() }()

	d.Info("", countingStringer{&stringCalls})
	d.Log(LevelError, "", "dropped")
	d.Flush()

	assert.Zero(t, clockCalls.Load())
	assert.Zero(t, stringCalls.Load())
	assert.Empty(t, structured.snapshot())

	d.Configure(Outputs(KindStructured), true)
	assert.True(t, d.Enabled())
	d.Info("", countingStringer{&stringCalls})
	d.Flush()
	assert.Equal(t, int32(1), clockCalls.Load())
	assert.Equal(t, int32(1), stringCalls.Load())
	assert.Len(t, structured.snapshot(), 1)
}

func TestDispatcher_OutputsSelectDestinations(t *testing.T) {
	structured := &recordingLogger{}
	files := newFiles(t, xrotate.DefaultPolicy)
	d := New(WithStructured(structured), WithFile(files), WithClock(fixedClock))
	defer func() { _ = d.Close() }()

	d.SetOutputs(Outputs(KindFile))
	d.Info("", "file only")
	d.SetOutputs(Outputs(KindStructured))
	d.Info("", "structured only")
	d.SetOutputs(0)
	d.Info("", "nowhere")
	require.NoError(t, d.Sync())

	assert.Equal(t, []string{fixedTS + " [INFO][default] file only"}, logLines(t, files.ActivePath()))
	require.Len(t, structured.snapshot(), 1)
	assert.Equal(t, "structured only", structured.snapshot()[0].msg)
}

// =============================================================================
// 传输
// =============================================================================

func TestDispatcher_SetTransportConnectsOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	first := xlive.NewMockTransport(ctrl)
	second := xlive.NewMockTransport(ctrl)

	gomock.InOrder(
		first.EXPECT().Connect(gomock.Any()).Return(nil).Times(1),
		first.EXPECT().Disconnect().Return(nil).Times(1),
		second.EXPECT().Connect(gomock.Any()).Return(nil).Times(1),
		second.EXPECT().Disconnect().Return(nil).Times(1),
	)
	second.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil).Times(1)

	d := New(WithOutputs(0), WithClock(fixedClock))

	require.NoError(t, d.SetTransport(first))
	assert.True(t, d.Outputs().Has(KindLive))
	require.NoError(t, d.SetTransport(first)) // 同一实例，无操作
	require.NoError(t, d.SetTransport(second))
	require.NoError(t, d.SetTransport(second))
	d.Info("", "hello")
	require.NoError(t, d.Close())
	require.NoError(t, d.Close())
}

func TestDispatcher_SetTransportNilDetaches(t *testing.T) {
	ctrl := gomock.NewController(t)
	live := xlive.NewMockTransport(ctrl)
	live.EXPECT().Connect(gomock.Any()).Return(nil)
	live.EXPECT().Disconnect().Return(nil)

	d := New(WithOutputs(0))
	defer func() { _ = d.Close() }()

	require.NoError(t, d.SetTransport(live))
	require.NoError(t, d.SetTransport(nil))
	assert.False(t, d.Outputs().Has(KindLive))
	d.Info("", "not sent")
	d.Flush()
}

func TestDispatcher_SetTransportConnectFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	live := xlive.NewMockTransport(ctrl)
	live.EXPECT().Connect(gomock.Any()).Return(xlive.ErrNotConnected)

	d := New(WithOutputs(0))
	defer func() { _ = d.Close() }()

	err := d.SetTransport(live)
	assert.ErrorIs(t, err, xlive.ErrNotConnected)
	assert.False(t, d.Outputs().Has(KindLive))
}

func TestDispatcher_InitialTransport(t *testing.T) {
	ctrl := gomock.NewController(t)
	live := xlive.NewMockTransport(ctrl)
	gomock.InOrder(
		live.EXPECT().Connect(gomock.Any()).Return(nil),
		live.EXPECT().Send(gomock.Any(), fixedTS+" [INFO][default] hi").Return(nil),
		live.EXPECT().Disconnect().Return(nil),
	)

	d := New(WithTransport(live), WithOutputs(0), WithClock(fixedClock))
	d.Flush()
	d.Info("", "hi")
	require.NoError(t, d.Close())
}

// =============================================================================
// 边界操作
// =============================================================================

func TestDispatcher_SetPolicyAndRotate(t *testing.T) {
	files := newFiles(t, xrotate.DefaultPolicy)
	d := New(WithFile(files), WithOutputs(Outputs(KindFile)), WithClock(fixedClock))
	defer func() { _ = d.Close() }()

	assert.ErrorIs(t, d.SetPolicy(xrotate.Policy{Trigger: 5, Keep: 5}), xrotate.ErrThresholdOrder)
	assert.ErrorIs(t, d.SetPolicy(xrotate.Policy{Trigger: -1}), xrotate.ErrInvalidPolicy)
	assert.Equal(t, xrotate.DefaultPolicy, d.Policy())

	p := xrotate.Policy{Trigger: 1000, Keep: 3}
	require.NoError(t, d.SetPolicy(p))
	assert.Equal(t, p, d.Policy())

	for i := 0; i < 10; i++ {
		d.Info("", i)
	}
	require.NoError(t, d.Rotate())

	lines := logLines(t, files.ActivePath())
	assert.Equal(t, []string{
		fixedTS + " [INFO][default] 7",
		fixedTS + " [INFO][default] 8",
		fixedTS + " [INFO][default] 9",
	}, lines)
}

func TestDispatcher_NoFileDestination(t *testing.T) {
	d := New()
	defer func() { _ = d.Close() }()

	assert.ErrorIs(t, d.SetPolicy(xrotate.DefaultPolicy), ErrNoFile)
	assert.ErrorIs(t, d.Rotate(), ErrNoFile)
	assert.NoError(t, d.Sync())
	assert.Equal(t, xrotate.Policy{}, d.Policy())
}

func TestDispatcher_Close(t *testing.T) {
	structured := &recordingLogger{}
	files := newFiles(t, xrotate.DefaultPolicy)
	d := New(WithStructured(structured), WithFile(files))

	d.Info("", "before")
	require.NoError(t, d.Close())
	assert.NoError(t, d.Close())

	d.Info("", "after")
	assert.Len(t, structured.snapshot(), 1)
	assert.ErrorIs(t, d.Sync(), ErrClosed)
	assert.ErrorIs(t, d.Rotate(), ErrClosed)
	assert.ErrorIs(t, d.SetTransport(nil), ErrClosed)
	d.Flush()
}

func TestDispatcher_CloseRunsClosers(t *testing.T) {
	var order []string
	d := New(
		withCloser(func() error { order = append(order, "a"); return nil }),
		withCloser(func() error { order = append(order, "b"); return errors.New("b failed") }),
	)
	err := d.Close()
	assert.EqualError(t, err, "b failed")
	assert.Equal(t, []string{"a", "b"}, order)
}
