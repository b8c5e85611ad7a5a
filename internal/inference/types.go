package inference

import "strings"

// QuestionType is the coarse taxonomy scoring defaults key off.
type QuestionType string

const (
	TypeSingleChoice QuestionType = "SINGLE_CHOICE"
	TypeMultiChoice  QuestionType = "MULTIPLE_CHOICE"
	TypeTrueFalse    QuestionType = "TRUE_FALSE"
	TypeFillBlank    QuestionType = "FILL_BLANK"
	TypeShortAnswer  QuestionType = "SHORT_ANSWER"
	TypeEssay        QuestionType = "ESSAY"
	TypeCalculation  QuestionType = "CALCULATION"
	TypeAnalysis     QuestionType = "ANALYSIS"
)

var headerTypeKeywords = []struct {
	kw string
	t  QuestionType
}{
	{"单选", TypeSingleChoice},
	{"多选", TypeMultiChoice},
	{"选择题", TypeSingleChoice},
	{"判断", TypeTrueFalse},
	{"填空", TypeFillBlank},
	{"简答", TypeShortAnswer},
	{"论述", TypeEssay},
	{"作文", TypeEssay},
	{"计算", TypeCalculation},
	{"分析", TypeAnalysis},
}

// DetectType infers the question type from the section header first, then
// from the shape of the question content.
func DetectType(sectionHeader, content string) QuestionType {
	for _, hk := range headerTypeKeywords {
		if strings.Contains(sectionHeader, hk.kw) {
			return hk.t
		}
	}

	hasBlankParen := strings.Contains(content, "（ ）") || strings.Contains(content, "( )") ||
		strings.Contains(content, "（）") || strings.Contains(content, "()")
	switch {
	case hasBlankParen && (strings.Contains(content, "？") || strings.Contains(content, "?")):
		return TypeSingleChoice
	case hasBlankParen:
		return TypeTrueFalse
	case strings.Contains(content, "____") || strings.Contains(content, "＿＿"):
		return TypeFillBlank
	case strings.Contains(content, "计算") || strings.Contains(content, "求"):
		return TypeCalculation
	case len([]rune(content)) > 100:
		return TypeEssay
	default:
		return TypeShortAnswer
	}
}

// defaultScore is the per-type fallback when nothing in the document says
// how much a question is worth.
func defaultScore(t QuestionType) float64 {
	switch t {
	case TypeSingleChoice, TypeMultiChoice:
		return 1
	case TypeTrueFalse:
		return 0.5
	case TypeFillBlank:
		return 2
	case TypeShortAnswer:
		return 4
	case TypeCalculation:
		return 10
	case TypeAnalysis:
		return 12
	case TypeEssay:
		return 15
	default:
		return 5
	}
}
