// Package inference assigns a question type and a max score to each
// segmented answer unit. Score derivation walks a fixed priority ladder:
// cached section context, section header patterns, inline content
// patterns, an optional AI completion, and finally per-type defaults.
package inference

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/uluckystar/teachhelper/internal/ai"
	"github.com/uluckystar/teachhelper/internal/segment"
)

type Inferencer struct {
	completer ai.Completer // nil disables the AI rung
	logger    *slog.Logger
}

type Option func(*Inferencer)

func WithCompleter(c ai.Completer) Option {
	return func(i *Inferencer) { i.completer = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(i *Inferencer) { i.logger = l }
}

func NewInferencer(opts ...Option) *Inferencer {
	inf := &Inferencer{logger: slog.Default()}
	for _, o := range opts {
		o(inf)
	}
	return inf
}

// Result carries the derived max score with its provenance, so imports
// can report how each value was obtained. The segmented unit's Score
// field (the student's obtained score) never enters this ladder; a
// 学生得分 marker left inside the question text does count, as the last
// inline pattern, since a full-credit answer still bounds the worth.
type Result struct {
	Type   QuestionType
	Score  float64
	Source string // "section", "content", "ai", "default"
}

// Infer derives type and max score for one unit. sctx is the
// per-document score context; callers pass the same instance for every
// unit of a document and a fresh one for the next document.
func (i *Inferencer) Infer(ctx context.Context, u segment.Unit, sctx *SectionScoreContext) Result {
	qtype := DetectType(u.SectionHeader, u.QuestionText)

	if s, ok := sctx.headerScore(u.SectionHeader); ok {
		return Result{Type: qtype, Score: s, Source: "section"}
	}
	if s, ok := contentScore(u.QuestionText); ok {
		return Result{Type: qtype, Score: s, Source: "content"}
	}
	if s, ok := i.aiScore(ctx, u, qtype); ok {
		return Result{Type: qtype, Score: s, Source: "ai"}
	}
	return Result{Type: qtype, Score: intelligentDefault(qtype, u.QuestionText), Source: "default"}
}

var contentScorePatterns = []*regexp.Regexp{
	regexp.MustCompile(`[（(]\s*(\d+(?:\.\d+)?)\s*分\s*[)）]`),
	regexp.MustCompile(`本题\s*(\d+(?:\.\d+)?)\s*分`),
	regexp.MustCompile(`每题\s*(\d+(?:\.\d+)?)\s*分`),
	regexp.MustCompile(`学生得分[：:]\s*(\d+(?:\.\d+)?)\s*分`),
}

// contentScore tries the inline patterns in priority order and stops at
// the first that yields a value.
func contentScore(content string) (float64, bool) {
	for _, re := range contentScorePatterns {
		if m := re.FindStringSubmatch(content); m != nil {
			if s, err := strconv.ParseFloat(m[1], 64); err == nil && s > 0 {
				return s, true
			}
		}
	}
	return 0, false
}

const scorePromptTemplate = `你是考试题目分值评估助手。根据题目内容和类型估计该题的满分分值。
常见分值：选择题1分，判断题0.5分，填空题2分，简答题4分，计算题10分，分析题12分，论述题15分。
题目类型：%s
题目内容：%s
只返回JSON，格式：{"score": 数值}`

func (i *Inferencer) aiScore(ctx context.Context, u segment.Unit, qtype QuestionType) (float64, bool) {
	if i.completer == nil || strings.TrimSpace(u.QuestionText) == "" {
		return 0, false
	}
	prompt := fmt.Sprintf(scorePromptTemplate, qtype, truncateRunes(u.QuestionText, 300))
	reply, err := i.completer.Complete(ctx, prompt)
	if err != nil {
		i.logger.Debug("ai score failed", "ordinal", u.Ordinal, "err", err)
		return 0, false
	}
	obj, ok := ai.ExtractJSONObject(reply)
	if !ok {
		return 0, false
	}
	var parsed struct {
		Score float64 `json:"score"`
	}
	if err := json.Unmarshal([]byte(obj), &parsed); err != nil || parsed.Score <= 0 {
		return 0, false
	}
	return parsed.Score, true
}

// intelligentDefault refines the per-type default with content-length
// buckets for the open-ended types.
func intelligentDefault(t QuestionType, content string) float64 {
	if t == TypeShortAnswer || t == TypeEssay {
		switch n := len([]rune(content)); {
		case n > 200:
			return 15
		case n > 100:
			return 10
		case n > 50:
			return 5
		}
	}
	return defaultScore(t)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
