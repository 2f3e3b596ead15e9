package xfanout

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedTime = time.Date(2024, 1, 2, 3, 4, 5, 600_000_000, time.UTC)

const fixedTS = "2024-01-02 03:04:05.6000 +0000"

func TestFormat(t *testing.T) {
	tests := []struct {
		name  string
		level Level
		want  string
	}{
		{name: "调试", level: LevelDebug, want: fixedTS + " [DEBUG][network] hello"},
		{name: "信息", level: LevelInfo, want: fixedTS + " [INFO][network] hello"},
		{name: "警告", level: LevelWarning, want: fixedTS + " [WARNING][network]⚠️ hello"},
		{name: "错误", level: LevelError, want: fixedTS + " [ERROR][network]‼️ hello"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Format(Record{Time: fixedTime, Level: tt.level, Category: CategoryNetwork, Message: "hello"})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormat_TimeZone(t *testing.T) {
	loc := time.FixedZone("CST", 8*3600)
	got := Format(Record{Time: fixedTime.In(loc), Level: LevelInfo, Category: "c", Message: "m"})
	assert.Equal(t, "2024-01-02 11:04:05.6000 +0800 [INFO][c] m", got)
}

type point struct{ x, y int }

func (p point) String() string { return "(" + string(rune('0'+p.x)) + "," + string(rune('0'+p.y)) + ")" }

func TestJoin(t *testing.T) {
	tests := []struct {
		name  string
		items []any
		want  string
	}{
		{name: "空", items: nil, want: ""},
		{name: "单个字符串", items: []any{"only"}, want: "only"},
		{name: "混合类型", items: []any{"retry", 3, true, 1.5}, want: "retry 3 true 1.5"},
		{name: "Stringer", items: []any{"at", point{1, 2}}, want: "at (1,2)"},
		{name: "错误", items: []any{"failed:", errors.New("boom")}, want: "failed: boom"},
		{name: "nil", items: []any{nil}, want: "<nil>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Join(tt.items...))
		})
	}
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]Level{
		"debug": LevelDebug, "INFO": LevelInfo, "warn": LevelWarning,
		" Warning ": LevelWarning, "error": LevelError,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLevel("fatal")
	assert.ErrorIs(t, err, ErrInvalidLevel)
	assert.Equal(t, "LEVEL(9)", Level(9).String())
}

func TestOutputs(t *testing.T) {
	assert.Equal(t, "structured,file", DefaultOutputs.String())
	assert.Equal(t, "none", Outputs(0).String())

	o := DefaultOutputs.With(KindLive)
	assert.True(t, o.Has(KindLive))
	assert.Equal(t, "structured,file,live", o.String())
	assert.False(t, o.Without(KindFile).Has(KindFile))

	got, err := ParseOutputs([]string{"Live", " file "})
	require.NoError(t, err)
	assert.Equal(t, Outputs(KindFile|KindLive), got)

	got, err = ParseOutputs([]string{"none"})
	require.NoError(t, err)
	assert.Zero(t, got)

	_, err = ParseOutputs([]string{"syslog"})
	assert.ErrorIs(t, err, ErrInvalidOutput)
}
