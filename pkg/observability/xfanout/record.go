package xfanout

import (
	"fmt"
	"strings"
	"time"

	"github.com/omeyang/xlogkit/pkg/observability/xlog"
	"github.com/omeyang/xlogkit/pkg/observability/xlogdir"
)

// Level 记录级别。
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarning
	LevelError
)

// 常用分类。分类是自由文本，这里只是约定值。
const (
	CategoryDefault = "default"
	CategoryNetwork = "network"
)

// String 返回行格式中使用的大写名称。
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarning:
		return "WARNING"
	case LevelError:
		return "ERROR"
	default:
		return fmt.Sprintf("LEVEL(%d)", int(l))
	}
}

// indicator 警告与错误行在分类后追加的标记。
func (l Level) indicator() string {
	switch l {
	case LevelWarning:
		return "⚠️"
	case LevelError:
		return "‼️"
	default:
		return ""
	}
}

// slogLevel 映射到结构化日志级别。
func (l Level) slogLevel() xlog.Level {
	switch l {
	case LevelDebug:
		return xlog.LevelDebug
	case LevelWarning:
		return xlog.LevelWarn
	case LevelError:
		return xlog.LevelError
	default:
		return xlog.LevelInfo
	}
}

// ParseLevel 解析 debug/info/warn/warning/error，大小写不敏感。
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarning, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("%w: %q", ErrInvalidLevel, s)
	}
}

// Record 一条日志记录，构造后不再修改。
type Record struct {
	Time     time.Time
	Level    Level
	Category string
	Message  string
}

// Entry 记录与其格式化后的单行文本。
type Entry struct {
	Record
	Line string
}

// Format 生成 "<ts> [<LEVEL>][<category>]<indicator> <message>"。
func Format(r Record) string {
	var b strings.Builder
	b.Grow(len(xlogdir.TimeLayout) + len(r.Category) + len(r.Message) + 24)
	b.WriteString(r.Time.Format(xlogdir.TimeLayout))
	b.WriteString(" [")
	b.WriteString(r.Level.String())
	b.WriteString("][")
	b.WriteString(r.Category)
	b.WriteString("]")
	b.WriteString(r.Level.indicator())
	b.WriteByte(' ')
	b.WriteString(r.Message)
	return b.String()
}

// Join 用单个空格拼接各项的默认文本表示。
func Join(items ...any) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		if s, ok := items[0].(string); ok {
			return s
		}
	}
	var b strings.Builder
	for i, it := range items {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprint(&b, it)
	}
	return b.String()
}
