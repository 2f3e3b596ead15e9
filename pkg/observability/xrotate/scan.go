package xrotate

import (
	"bytes"
	"errors"
	"io"
)

// scanChunkSize 反向扫描时每次读取的块大小
const scanChunkSize = 32 * 1024

// countNewlines 统计 buf 中的换行符数量
func countNewlines(buf []byte) int {
	return bytes.Count(buf, []byte{'\n'})
}

// countLines 统计 buf 的行数：从 1 开始，每个换行符加 1。
// 空 buf 计为 1 行。
func countLines(buf []byte) int {
	return 1 + countNewlines(buf)
}

// countLinesReverse 从尾部反向分块读取 r 的前 size 个字节并统计行数，
// 语义与 countLines 相同，内存占用与文件大小无关。
func countLinesReverse(r io.ReaderAt, size int64) (int, error) {
	lines := 1
	buf := make([]byte, scanChunkSize)
	for end := size; end > 0; {
		start := max(end-scanChunkSize, 0)
		chunk := buf[:end-start]
		if _, err := r.ReadAt(chunk, start); err != nil && !errors.Is(err, io.EOF) {
			return 0, err
		}
		lines += countNewlines(chunk)
		end = start
	}
	return lines, nil
}

// tailStart 在 buf 中定位最后 keep 行的起始偏移。
//
// 末尾的行终止符不算作行边界。找到第 keep 个换行符时返回其后一个字节的偏移
// 和 keep；buf 不足 keep 行时返回 0 和 buf 的实际行数，此时不需要截断。
func tailStart(buf []byte, keep int) (offset, lines int) {
	if len(buf) == 0 {
		return 0, 0
	}
	if keep == 0 {
		return len(buf), 0
	}
	end := len(buf)
	if buf[end-1] == '\n' {
		end--
	}
	found := 0
	for i := end - 1; i >= 0; i-- {
		if buf[i] != '\n' {
			continue
		}
		found++
		if found == keep {
			return i + 1, keep
		}
	}
	return 0, found + 1
}
