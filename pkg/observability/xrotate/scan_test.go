package xrotate

import (
	"bytes"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountLines(t *testing.T) {
	assert.Equal(t, 1, countLines(nil))
	assert.Equal(t, 1, countLines([]byte("no newline")))
	assert.Equal(t, 2, countLines([]byte("a\n")))
	assert.Equal(t, 4, countLines([]byte("a\nb\nc\n")))
}

func TestCountLinesReverse(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
	}{
		{name: "空内容", content: nil},
		{name: "单行无换行", content: []byte("hello")},
		{name: "多行", content: []byte("1\n2\n3\n")},
		{name: "跨多个块", content: bytes.Repeat([]byte("0123456789abcdef\n"), 3*scanChunkSize/17+5)},
		{name: "恰好一个块", content: bytes.Repeat([]byte("\n"), scanChunkSize)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := countLinesReverse(bytes.NewReader(tt.content), int64(len(tt.content)))
			require.NoError(t, err)
			assert.Equal(t, countLines(tt.content), got)
		})
	}
}

func TestTailStart(t *testing.T) {
	twelve := numbered(1, 12)

	tests := []struct {
		name      string
		buf       string
		keep      int
		wantTail  string
		wantLines int
	}{
		{name: "保留最后 5 行", buf: twelve, keep: 5, wantTail: "8\n9\n10\n11\n12\n", wantLines: 5},
		{name: "无末尾换行", buf: "1\n2\n3", keep: 2, wantTail: "2\n3", wantLines: 2},
		{name: "行数恰好等于 keep", buf: "1\n2\n3\n", keep: 3, wantTail: "1\n2\n3\n", wantLines: 3},
		{name: "行数少于 keep", buf: "1\n2\n", keep: 5, wantTail: "1\n2\n", wantLines: 2},
		{name: "keep 为 0", buf: "1\n2\n", keep: 0, wantTail: "", wantLines: 0},
		{name: "空内容", buf: "", keep: 3, wantTail: "", wantLines: 0},
		{name: "保留 1 行", buf: "a\nb\n", keep: 1, wantTail: "b\n", wantLines: 1},
		{name: "空行也算一行", buf: "a\n\n\nb\n", keep: 2, wantTail: "\nb\n", wantLines: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := []byte(tt.buf)
			offset, lines := tailStart(buf, tt.keep)
			assert.Equal(t, tt.wantTail, string(buf[offset:]))
			assert.Equal(t, tt.wantLines, lines)
		})
	}
}

// numbered 生成 from..to 的行，每行以换行结束
func numbered(from, to int) string {
	var sb strings.Builder
	for i := from; i <= to; i++ {
		sb.WriteString(strconv.Itoa(i))
		sb.WriteByte('\n')
	}
	return sb.String()
}
