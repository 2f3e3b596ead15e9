package xlogdir

import (
	"fmt"
	"strings"
	"time"
)

// Layout 活动文件的选择方式
type Layout int

const (
	// LayoutSingle 固定文件名
	LayoutSingle Layout = iota
	// LayoutDaily 每天一个文件，文件名为 yyyyMMdd.txt
	LayoutDaily
)

const (
	// DefaultFileName LayoutSingle 的默认文件名
	DefaultFileName = "log.txt"

	// DailyFormat LayoutDaily 文件名中的日期格式
	DailyFormat = "20060102"

	// DailyExt LayoutDaily 文件扩展名
	DailyExt = ".txt"

	// TimeLayout 横幅与日志行使用的时间格式
	TimeLayout = "2006-01-02 15:04:05.0000 -0700"
)

func (l Layout) String() string {
	switch l {
	case LayoutSingle:
		return "single"
	case LayoutDaily:
		return "daily"
	default:
		return fmt.Sprintf("Layout(%d)", int(l))
	}
}

// ParseLayout 解析布局名，空字符串视为 single
func ParseLayout(s string) (Layout, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "single":
		return LayoutSingle, nil
	case "daily":
		return LayoutDaily, nil
	default:
		return LayoutSingle, fmt.Errorf("%w: %q", ErrInvalidLayout, s)
	}
}

// DailyFileName 返回 t 所在本地日期的文件名
func DailyFileName(t time.Time) string {
	return t.Format(DailyFormat) + DailyExt
}
