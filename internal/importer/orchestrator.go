// Package importer drives batch imports: a folder or archive of answer
// documents goes in, per-file outcomes come out. Files run on a bounded
// worker pool; one bad file fails its own outcome, never the batch.
// Preconditions (exam exists, acting user present) are checked before any
// worker starts and abort the whole batch when unmet.
package importer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/uluckystar/teachhelper/internal/ai"
	"github.com/uluckystar/teachhelper/internal/auth"
	"github.com/uluckystar/teachhelper/internal/bank"
	"github.com/uluckystar/teachhelper/internal/extract"
	"github.com/uluckystar/teachhelper/internal/inference"
	"github.com/uluckystar/teachhelper/internal/segment"
	"github.com/uluckystar/teachhelper/internal/storage"
)

type Orchestrator struct {
	store      bank.Store
	pipeline   *extract.Pipeline
	engine     *segment.Engine
	inferencer *inference.Inferencer
	resolver   *bank.Resolver
	completer  ai.Completer      // filename identity; nil disables
	blobs      storage.BlobStore // raw upload archive; nil disables
	workers    int
	logger     *slog.Logger
}

type Option func(*Orchestrator)

func WithWorkers(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.workers = n
		}
	}
}

func WithCompleter(c ai.Completer) Option {
	return func(o *Orchestrator) { o.completer = c }
}

// WithBlobStore archives every raw upload before processing, keyed by
// exam and filename.
func WithBlobStore(bs storage.BlobStore) Option {
	return func(o *Orchestrator) { o.blobs = bs }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

func New(store bank.Store, pipeline *extract.Pipeline, engine *segment.Engine,
	inf *inference.Inferencer, resolver *bank.Resolver, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:      store,
		pipeline:   pipeline,
		engine:     engine,
		inferencer: inf,
		resolver:   resolver,
		workers:    5,
		logger:     slog.Default(),
	}
	for _, op := range opts {
		op(o)
	}
	return o
}

// FileOutcome records how one document fared.
type FileOutcome struct {
	Filename      string
	StudentNumber string
	StudentName   string
	Success       bool
	Error         string
	ParseMethod   string
	ContentLength int
	Units         int
	Elapsed       time.Duration
}

// Outcome summarizes a batch.
type Outcome struct {
	Total     int
	Succeeded int
	Failed    int
	Details   []FileOutcome
	Summary   string
}

// ImportBatch runs the pipeline over docs for one exam. The acting user
// must already be on ctx; it travels with the context into every worker.
func (o *Orchestrator) ImportBatch(ctx context.Context, examID, bankID string, docs []extract.RawDocument) (Outcome, error) {
	actor, ok := auth.ActorFromContext(ctx)
	if !ok {
		return Outcome{}, errors.New("import: no acting user on context")
	}
	if _, err := o.store.GetExam(ctx, examID); err != nil {
		return Outcome{}, fmt.Errorf("import: exam precondition: %w", err)
	}
	o.logger.Info("import batch start", "exam", examID, "files", len(docs), "actor", actor.ID)

	identities := o.resolveIdentities(ctx, docs)

	outcomes := make([]FileOutcome, len(docs))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for i := range docs {
		g.Go(func() error {
			out := o.processFile(gctx, examID, bankID, docs[i], identities[i])
			mu.Lock()
			outcomes[i] = out
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Outcome{}, err
	}

	res := Outcome{Total: len(docs), Details: outcomes}
	for _, d := range outcomes {
		if d.Success {
			res.Succeeded++
		} else {
			res.Failed++
		}
	}
	res.Summary = fmt.Sprintf("共%d个文件，成功%d个，失败%d个", res.Total, res.Succeeded, res.Failed)
	o.logger.Info("import batch done", "exam", examID, "succeeded", res.Succeeded, "failed", res.Failed)
	return res, nil
}

// resolveIdentities parses filenames, batches the leftovers to the model,
// and fills surrogates last.
func (o *Orchestrator) resolveIdentities(ctx context.Context, docs []extract.RawDocument) []Identity {
	ids := make([]Identity, len(docs))
	var pendingIdx []int
	var pendingNames []string
	for i, d := range docs {
		if id, ok := ParseFilename(d.Filename); ok {
			ids[i] = id
			continue
		}
		pendingIdx = append(pendingIdx, i)
		pendingNames = append(pendingNames, d.Filename)
	}
	if len(pendingIdx) > 0 {
		extracted := ExtractIdentities(ctx, o.completer, pendingNames, o.logger)
		for j, i := range pendingIdx {
			ids[i] = extracted[j]
		}
	}
	now := time.Now()
	for i := range ids {
		if ids[i].Name == "" {
			ids[i].Name = trimExt(docs[i].Filename)
		}
		if ids[i].Number == "" {
			ids[i].Number = SurrogateNumber(ids[i].Name, now)
			ids[i].Source = "surrogate"
		}
	}
	return ids
}

func (o *Orchestrator) processFile(ctx context.Context, examID, bankID string, doc extract.RawDocument, id Identity) FileOutcome {
	start := time.Now()
	out := FileOutcome{Filename: doc.Filename, StudentNumber: id.Number, StudentName: id.Name}
	fail := func(err error) FileOutcome {
		out.Error = err.Error()
		out.Elapsed = time.Since(start)
		o.logger.Warn("file import failed", "file", doc.Filename, "err", err)
		return out
	}

	if o.blobs != nil {
		key := filepath.Join(examID, doc.Filename)
		if _, err := o.blobs.Put(key, bytes.NewReader(doc.Data)); err != nil {
			o.logger.Warn("archive upload failed", "file", doc.Filename, "err", err)
		}
	}

	text, err := o.pipeline.Extract(ctx, doc)
	if err != nil {
		return fail(err)
	}
	out.ParseMethod = text.Method
	out.ContentLength = len(text.Text)

	units := o.engine.Segment(text.Text)
	out.Units = len(units)
	if len(units) == 0 {
		return fail(fmt.Errorf("%s: no answer units", doc.Filename))
	}

	student, err := o.store.UpsertStudent(ctx, bank.Student{
		ID:     uuid.NewString(),
		Number: id.Number,
		Name:   id.Name,
	})
	if err != nil {
		return fail(fmt.Errorf("upsert student: %w", err))
	}

	// Header-derived scores are cached per document, never shared.
	sctx := inference.NewSectionScoreContext()
	for _, u := range units {
		res := o.inferencer.Infer(ctx, u, sctx)

		content := u.QuestionText
		if content == "" {
			content = u.AnswerText
		}
		fp := bank.NewFingerprint(u.Ordinal, content)
		q, _, err := o.resolver.Resolve(ctx, fp, examID, bankID, string(res.Type), res.Score)
		if err != nil {
			return fail(fmt.Errorf("resolve question %d: %w", u.Ordinal, err))
		}

		ans := bank.StudentAnswer{
			ID:           uuid.NewString(),
			StudentID:    student.ID,
			QuestionID:   q.ID,
			AnswerText:   u.AnswerText,
			Unanswered:   u.Unanswered,
			Score:        u.Score,
			ImportMethod: text.Method,
		}
		if err := o.upsertAnswerRetry(ctx, ans); err != nil {
			return fail(fmt.Errorf("save answer %d: %w", u.Ordinal, err))
		}
	}

	out.Success = true
	out.Elapsed = time.Since(start)
	return out
}

// upsertAnswerRetry absorbs transient conflicts from concurrent workers
// writing the same student row.
func (o *Orchestrator) upsertAnswerRetry(ctx context.Context, a bank.StudentAnswer) error {
	var err error
	for attempt := 0; attempt <= 2; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * 100 * time.Millisecond):
			}
		}
		if err = o.store.UpsertAnswer(ctx, a); err == nil {
			return nil
		}
	}
	return err
}

func trimExt(name string) string {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			return name[:i]
		}
	}
	return name
}
