package bank

import (
	"context"
	"strings"
	"testing"
	"time"
)

func seedStore(t *testing.T) Store {
	t.Helper()
	s := NewMemoryStore()
	ctx := context.Background()
	if err := s.PutExam(ctx, Exam{ID: "e1", Title: "期末考试"}); err != nil {
		t.Fatalf("put exam: %v", err)
	}
	return s
}

func mustResolve(t *testing.T, r *Resolver, fp Fingerprint, examID, bankID string) (Question, Decision) {
	t.Helper()
	q, d, err := r.Resolve(context.Background(), fp, examID, bankID, "SHORT_ANSWER", 4)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	return q, d
}

func TestResolveReuseIdentical(t *testing.T) {
	store := seedStore(t)
	existing := Question{
		ID: "q1", ExamID: "e1", BankID: "b1",
		Title:   "简述进程调度",
		Content: "简述 操作系统 的 进程 调度 策略，并 举例 说明。",
		Type:    "SHORT_ANSWER", MaxScore: 4, CreatedAt: time.Now(),
	}
	if err := store.InsertQuestion(context.Background(), existing); err != nil {
		t.Fatalf("seed question: %v", err)
	}
	r := NewResolver(store, DefaultResolverConfig(), nil)

	fp := NewFingerprint(1, "1.简述 操作系统 的 进程 调度 策略，并 举例 说明。")
	q, d := mustResolve(t, r, fp, "e1", "b1")
	if d != DecisionReuse {
		t.Fatalf("decision = %s, want reuse", d)
	}
	if q.ID != "q1" {
		t.Fatalf("resolved %s, want q1", q.ID)
	}
}

func TestResolveReuseByOrdinal(t *testing.T) {
	store := seedStore(t)
	existing := Question{
		ID: "q1", ExamID: "e1", BankID: "b1",
		Content:   "简述 操作系统 的 进程 调度 策略，并 举例 说明。",
		CreatedAt: time.Now(),
	}
	if err := store.InsertQuestion(context.Background(), existing); err != nil {
		t.Fatalf("seed question: %v", err)
	}
	r := NewResolver(store, DefaultResolverConfig(), nil)

	// Near-duplicate at the same position reuses below the direct
	// threshold.
	fp := NewFingerprint(1, "1.简述 操作系统 的 进程 调度 策略，并 举例 分析。")
	_, d := mustResolve(t, r, fp, "e1", "b1")
	if d != DecisionReuse {
		t.Fatalf("decision = %s, want reuse", d)
	}
}

func TestResolveReusePrefersOrdinalOnTie(t *testing.T) {
	store := seedStore(t)
	content := "简述 操作系统 的 进程 调度 策略，并 举例 说明。"
	for _, id := range []string{"q1", "q2"} {
		q := Question{ID: id, ExamID: "e1", BankID: "b1", Content: content, CreatedAt: time.Now()}
		if err := store.InsertQuestion(context.Background(), q); err != nil {
			t.Fatalf("seed %s: %v", id, err)
		}
	}
	r := NewResolver(store, DefaultResolverConfig(), nil)

	// Both exam questions score identically against the fingerprint; the
	// one at the fingerprint's position wins.
	fp := NewFingerprint(2, "2."+content)
	q, d := mustResolve(t, r, fp, "e1", "b1")
	if d != DecisionReuse {
		t.Fatalf("decision = %s, want reuse", d)
	}
	if q.ID != "q2" {
		t.Fatalf("resolved %s, want the question at position 2", q.ID)
	}
}

func TestResolveCloneFromBank(t *testing.T) {
	store := seedStore(t)
	// Bank question not attached to any exam.
	src := Question{
		ID: "bank-q", BankID: "b1",
		Title:   "进程调度策略",
		Content: "简述 操作系统 的 进程 调度 策略，并 举例 说明。",
		Type:    "SHORT_ANSWER", MaxScore: 4, Confirmed: true, CreatedAt: time.Now(),
	}
	if err := store.InsertQuestion(context.Background(), src); err != nil {
		t.Fatalf("seed question: %v", err)
	}
	r := NewResolver(store, DefaultResolverConfig(), nil)

	fp := NewFingerprint(1, "简述 操作系统 的 进程 调度 策略，并 举例 说明。")
	q, d := mustResolve(t, r, fp, "e1", "b1")
	if d != DecisionClone {
		t.Fatalf("decision = %s, want clone", d)
	}
	if q.ID == "bank-q" {
		t.Fatalf("clone must be a new row")
	}
	if q.ExamID != "e1" {
		t.Fatalf("clone exam = %q, want e1", q.ExamID)
	}
	if want := "克隆自题目ID: bank-q"; q.SourceType != want {
		t.Fatalf("source = %q, want %q", q.SourceType, want)
	}
	if q.Content != src.Content || q.MaxScore != src.MaxScore {
		t.Fatalf("clone did not copy fields")
	}
}

func TestResolveCreateUnconfirmed(t *testing.T) {
	store := seedStore(t)
	r := NewResolver(store, DefaultResolverConfig(), nil)

	long := strings.Repeat("很长的题目内容", 10)
	fp := NewFingerprint(2, long)
	q, d := mustResolve(t, r, fp, "e1", "b1")
	if d != DecisionCreate {
		t.Fatalf("decision = %s, want create", d)
	}
	if q.Confirmed {
		t.Fatalf("created question must start unconfirmed")
	}
	if q.SourceType != SourceImported {
		t.Fatalf("source = %q", q.SourceType)
	}
	if !strings.HasSuffix(q.Title, "...") {
		t.Fatalf("long title not truncated: %q", q.Title)
	}
	if got := len([]rune(q.Title)); got != titleLimit+3 {
		t.Fatalf("title length = %d", got)
	}
	if q.ExamID != "e1" {
		t.Fatalf("created question not attached to exam")
	}

	// Resolving the same content again finds the created question.
	q2, d2 := mustResolve(t, r, fp, "e1", "b1")
	if d2 != DecisionReuse {
		t.Fatalf("second decision = %s, want reuse", d2)
	}
	if q2.ID != q.ID {
		t.Fatalf("second resolve made a new question")
	}
}

func TestResolveCreateWithoutExam(t *testing.T) {
	store := seedStore(t)
	r := NewResolver(store, DefaultResolverConfig(), nil)

	fp := NewFingerprint(1, "独立 题库 导入 的 题目 内容")
	q, d := mustResolve(t, r, fp, "", "b1")
	if d != DecisionCreate {
		t.Fatalf("decision = %s, want create", d)
	}
	if q.ExamID != "" {
		t.Fatalf("exam id should stay empty")
	}
	if q.BankID != "b1" {
		t.Fatalf("bank id = %q", q.BankID)
	}
}
