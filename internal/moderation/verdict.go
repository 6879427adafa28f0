// Package moderation 将第三方内容安全分类器统一为单一判定入口。
package moderation

import "fmt"

// Outcome 表示一次审核任务的完成状态。
type Outcome string

const (
	// OutcomeCompleted 表示分类器正常给出结论。
	OutcomeCompleted Outcome = "completed"
	// OutcomeFailed 表示提供方调用失败，按拒绝处理。
	OutcomeFailed Outcome = "failed"
	// OutcomeTimedOut 表示等待预算耗尽，按拒绝处理。
	OutcomeTimedOut Outcome = "timed_out"
)

// Label 表示一个越过阈值的违规类别及其置信度（0–100）。
type Label struct {
	Name       string
	Confidence int
}

// String 输出 "Name(Confidence)" 形式，用于拒绝原因与日志。
func (l Label) String() string {
	return fmt.Sprintf("%s(%d)", l.Name, l.Confidence)
}

// Verdict 表示对单个对象的审核结论。
// Flagged 为空且 Outcome 为 Completed 时视为通过。
type Verdict struct {
	Flagged []Label
	Outcome Outcome
}

// Clean 判断结论是否为无违规通过。
func (v Verdict) Clean() bool {
	return v.Outcome == OutcomeCompleted && len(v.Flagged) == 0
}

// likelihoodConfidence 将提供方的五档可能性枚举折算为 0–100 置信度。
// Vision 与 Video Intelligence 的枚举数值一致（0=UNKNOWN…5=VERY_LIKELY）。
func likelihoodConfidence(likelihood int32) int {
	switch likelihood {
	case 1: // VERY_UNLIKELY
		return 10
	case 2: // UNLIKELY
		return 30
	case 3: // POSSIBLE
		return 55
	case 4: // LIKELY
		return 80
	case 5: // VERY_LIKELY
		return 95
	default: // UNKNOWN 不参与判定
		return 0
	}
}
