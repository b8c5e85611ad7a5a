// Question resolution: each imported answer unit must end up pointing at
// a persisted question. Preference order is reuse an exam question,
// clone a close bank match into the exam, create a fresh unconfirmed
// question. Two workers importing the same brand-new question can race
// into two creates; that duplicate is tolerated and left for teacher
// review rather than serialized away.
package bank

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Decision says how a unit was resolved.
type Decision string

const (
	DecisionReuse  Decision = "reuse"
	DecisionClone  Decision = "clone"
	DecisionCreate Decision = "create"
)

const (
	// SourceImported marks questions created by the pipeline; they stay
	// unconfirmed until a teacher reviews them.
	SourceImported = "学习通智能导入"

	cloneSourceFmt = "克隆自题目ID: %s"
	titleLimit     = 47
)

type ResolverConfig struct {
	Threshold       float64 // accept reuse/clone at or above
	DirectThreshold float64 // reuse regardless of ordinal
	Weights         SimilarityWeights
	MaxCandidates   int
	SearchPrefix    int // runes of core used as the bank search keyword
}

func DefaultResolverConfig() ResolverConfig {
	return ResolverConfig{
		Threshold:       0.7,
		DirectThreshold: 0.9,
		Weights:         DefaultWeights,
		MaxCandidates:   20,
		SearchPrefix:    30,
	}
}

type Resolver struct {
	store  Store
	cfg    ResolverConfig
	logger *slog.Logger
}

func NewResolver(store Store, cfg ResolverConfig, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Threshold == 0 {
		cfg = DefaultResolverConfig()
	}
	return &Resolver{store: store, cfg: cfg, logger: logger}
}

// Resolve finds or makes the question for one unit. qtype and maxScore
// seed a created or cloned question; an existing question keeps its own.
func (r *Resolver) Resolve(ctx context.Context, fp Fingerprint, examID, bankID, qtype string, maxScore float64) (Question, Decision, error) {
	if q, ok, err := r.findInExam(ctx, fp, examID); err != nil {
		return Question{}, "", err
	} else if ok {
		r.logger.Debug("question reused", "question", q.ID, "ordinal", fp.Ordinal)
		return q, DecisionReuse, nil
	}

	if q, ok, err := r.cloneFromBank(ctx, fp, examID, bankID); err != nil {
		return Question{}, "", err
	} else if ok {
		r.logger.Debug("question cloned", "question", q.ID, "source", q.SourceType)
		return q, DecisionClone, nil
	}

	q, err := r.create(ctx, fp, examID, bankID, qtype, maxScore)
	if err != nil {
		return Question{}, "", err
	}
	r.logger.Debug("question created", "question", q.ID, "ordinal", fp.Ordinal)
	return q, DecisionCreate, nil
}

// findInExam reuses an existing exam question: high similarity alone, or
// ordinal agreement plus acceptable similarity. Ordinal is positional,
// the Nth question attached to the exam. Equal similarity breaks toward
// the candidate at the incoming ordinal's position.
func (r *Resolver) findInExam(ctx context.Context, fp Fingerprint, examID string) (Question, bool, error) {
	if examID == "" {
		return Question{}, false, nil
	}
	qs, err := r.store.ListExamQuestions(ctx, examID)
	if err != nil {
		return Question{}, false, fmt.Errorf("list exam questions: %w", err)
	}
	var best Question
	bestSim := 0.0
	bestOrdinal := false
	for i, q := range qs {
		sim := Similarity(fp, NewFingerprint(i+1, q.Content), r.cfg.Weights)
		ordinalOK := fp.Ordinal > 0 && fp.Ordinal == i+1
		if sim >= r.cfg.DirectThreshold || (ordinalOK && sim >= r.cfg.Threshold) {
			if sim > bestSim || (sim == bestSim && ordinalOK && !bestOrdinal) {
				best, bestSim, bestOrdinal = q, sim, ordinalOK
			}
		}
	}
	return best, bestSim > 0, nil
}

// cloneFromBank searches the bank by a core prefix and clones the best
// candidate at or above the threshold into the exam.
func (r *Resolver) cloneFromBank(ctx context.Context, fp Fingerprint, examID, bankID string) (Question, bool, error) {
	keyword := truncate(fp.Core, r.cfg.SearchPrefix)
	if keyword == "" {
		return Question{}, false, nil
	}
	cands, err := r.store.SearchQuestions(ctx, bankID, keyword, r.cfg.MaxCandidates)
	if err != nil {
		return Question{}, false, fmt.Errorf("search bank: %w", err)
	}
	var src Question
	bestSim := 0.0
	for _, q := range cands {
		if q.ExamID == examID && examID != "" {
			continue // exam pass already considered it
		}
		if sim := Similarity(fp, NewFingerprint(0, q.Content), r.cfg.Weights); sim >= r.cfg.Threshold && sim > bestSim {
			src, bestSim = q, sim
		}
	}
	if bestSim == 0 {
		return Question{}, false, nil
	}

	clone := Question{
		ID:         uuid.NewString(),
		ExamID:     examID,
		BankID:     src.BankID,
		Title:      src.Title,
		Content:    src.Content,
		Type:       src.Type,
		MaxScore:   src.MaxScore,
		SourceType: fmt.Sprintf(cloneSourceFmt, src.ID),
		Confirmed:  src.Confirmed,
		CreatedAt:  time.Now(),
	}
	if err := r.store.InsertQuestion(ctx, clone); err != nil {
		return Question{}, false, fmt.Errorf("insert clone: %w", err)
	}
	return clone, true, nil
}

func (r *Resolver) create(ctx context.Context, fp Fingerprint, examID, bankID, qtype string, maxScore float64) (Question, error) {
	title := fp.Core
	if len([]rune(title)) > titleLimit {
		title = truncate(title, titleLimit) + "..."
	}
	if title == "" {
		title = fmt.Sprintf("第%d题", fp.Ordinal)
	}
	q := Question{
		ID:         uuid.NewString(),
		ExamID:     examID,
		BankID:     bankID,
		Title:      title,
		Content:    fp.Core,
		Type:       qtype,
		MaxScore:   maxScore,
		SourceType: SourceImported,
		Confirmed:  false,
		CreatedAt:  time.Now(),
	}
	if err := r.store.InsertQuestion(ctx, q); err != nil {
		return Question{}, fmt.Errorf("insert question: %w", err)
	}
	return q, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
