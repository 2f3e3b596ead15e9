package xrotate

import "fmt"

// Policy 按行数的增长约束策略
//
// Trigger 与 Keep 是一对高低水位：行数达到 Trigger 时截断到 Keep 行。
// 两者拉开差距使截断（读写整个文件，O(文件大小)）只偶尔发生，
// 摊还到每次写入是 O(1)。
type Policy struct {
	// Trigger 触发截断的行数，0 表示禁用截断
	Trigger int `json:"trigger_lines" yaml:"trigger_lines" koanf:"trigger_lines"`

	// Keep 截断后保留的最新行数
	Keep int `json:"keep_lines" yaml:"keep_lines" koanf:"keep_lines"`
}

// DefaultPolicy 默认策略：达到 20000 行时保留最新的 10000 行
var DefaultPolicy = Policy{Trigger: 20000, Keep: 10000}

// MaxLinesPolicy 根据最大行数构造策略
//
// 以 max/3 作为高水位余量：行数超过 max+max/3 时截断回 max 行。
// max <= 0 返回禁用截断的策略。
func MaxLinesPolicy(max int) Policy {
	if max <= 0 {
		return Policy{}
	}
	return Policy{Trigger: max + max/3 + 1, Keep: max}
}

// Enabled 报告策略是否启用截断
func (p Policy) Enabled() bool {
	return p.Trigger > 0
}

// Validate 校验策略
//
// 负数阈值返回 [ErrInvalidPolicy]；Trigger > 0 且 Trigger <= Keep
// 返回 [ErrThresholdOrder]。
func (p Policy) Validate() error {
	if p.Trigger < 0 || p.Keep < 0 {
		return fmt.Errorf("%w: trigger=%d keep=%d", ErrInvalidPolicy, p.Trigger, p.Keep)
	}
	if p.Trigger > 0 && p.Trigger <= p.Keep {
		return fmt.Errorf("%w: trigger=%d keep=%d", ErrThresholdOrder, p.Trigger, p.Keep)
	}
	return nil
}

func (p Policy) String() string {
	if !p.Enabled() {
		return "disabled"
	}
	return fmt.Sprintf("trigger=%d keep=%d", p.Trigger, p.Keep)
}
