package importer

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/uluckystar/teachhelper/internal/auth"
	"github.com/uluckystar/teachhelper/internal/bank"
	"github.com/uluckystar/teachhelper/internal/extract"
	"github.com/uluckystar/teachhelper/internal/inference"
	"github.com/uluckystar/teachhelper/internal/segment"
)

const answerDoc = `一.单选题(共2题,4分)
1.下列关于操作系统进程调度的说法正确的是（ ）
学生答案：A
正确答案：A
学生得分：2 分
2.下列关于计算机网络分层模型的说法正确的是（ ）
学生答案：B
正确答案：C
学生得分：0 分`

func newTestOrchestrator(t *testing.T) (*Orchestrator, bank.Store) {
	t.Helper()
	store := bank.NewMemoryStore()
	if err := store.PutExam(context.Background(), bank.Exam{ID: "e1", Title: "期末考试"}); err != nil {
		t.Fatalf("seed exam: %v", err)
	}
	o := New(
		store,
		extract.NewPipeline(),
		segment.NewEngine(),
		inference.NewInferencer(),
		bank.NewResolver(store, bank.DefaultResolverConfig(), nil),
		WithWorkers(2),
	)
	return o, store
}

func actorCtx() context.Context {
	return auth.WithActor(context.Background(), auth.Actor{ID: "t-1", Name: "teacher"})
}

func doc(name, body string) extract.RawDocument {
	return extract.RawDocument{Filename: name, Data: []byte(body)}
}

func TestImportBatchRequiresActor(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	_, err := o.ImportBatch(context.Background(), "e1", "b1", []extract.RawDocument{doc("a.txt", answerDoc)})
	if err == nil || !strings.Contains(err.Error(), "acting user") {
		t.Fatalf("err = %v, want acting-user precondition failure", err)
	}
}

func TestImportBatchRequiresExam(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	_, err := o.ImportBatch(actorCtx(), "missing", "b1", []extract.RawDocument{doc("a.txt", answerDoc)})
	if err == nil || !strings.Contains(err.Error(), "precondition") {
		t.Fatalf("err = %v, want exam precondition failure", err)
	}
}

func TestImportBatchSingleFile(t *testing.T) {
	o, store := newTestOrchestrator(t)

	out, err := o.ImportBatch(actorCtx(), "e1", "b1",
		[]extract.RawDocument{doc("计算机学院-软件工程-20210001-张三-期末.txt", answerDoc)})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if out.Total != 1 || out.Succeeded != 1 || out.Failed != 0 {
		t.Fatalf("outcome = %+v", out)
	}
	d := out.Details[0]
	if !d.Success || d.Units != 2 {
		t.Fatalf("detail = %+v", d)
	}
	if d.StudentNumber != "20210001" || d.StudentName != "张三" {
		t.Fatalf("identity = %s/%s", d.StudentNumber, d.StudentName)
	}
	if d.ParseMethod != "plaintext" {
		t.Fatalf("parse method = %q", d.ParseMethod)
	}

	qs, err := store.ListExamQuestions(context.Background(), "e1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(qs) != 2 {
		t.Fatalf("questions = %d, want 2 created", len(qs))
	}
	for _, q := range qs {
		if q.SourceType != bank.SourceImported || q.Confirmed {
			t.Fatalf("created question %+v", q)
		}
		if q.MaxScore != 2 { // 共2题,4分
			t.Fatalf("question score = %v, want 2 from section header", q.MaxScore)
		}
	}
}

func TestImportBatchRecordsPerFileFailure(t *testing.T) {
	o, _ := newTestOrchestrator(t)

	out, err := o.ImportBatch(actorCtx(), "e1", "b1", []extract.RawDocument{
		doc("学习通10001-李四-期末.txt", answerDoc),
		doc("broken.txt", "no chinese"),
	})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if out.Succeeded != 1 || out.Failed != 1 {
		t.Fatalf("outcome = %+v", out)
	}
	var failed *FileOutcome
	for i := range out.Details {
		if !out.Details[i].Success {
			failed = &out.Details[i]
		}
	}
	if failed == nil || failed.Filename != "broken.txt" || failed.Error == "" {
		t.Fatalf("failure detail = %+v", failed)
	}
	if !strings.Contains(out.Summary, "成功1") || !strings.Contains(out.Summary, "失败1") {
		t.Fatalf("summary = %q", out.Summary)
	}
}

func TestImportBatchSecondStudentReusesQuestions(t *testing.T) {
	o, store := newTestOrchestrator(t)
	ctx := actorCtx()

	if _, err := o.ImportBatch(ctx, "e1", "b1",
		[]extract.RawDocument{doc("计算机学院-软件工程-20210001-张三-期末.txt", answerDoc)}); err != nil {
		t.Fatalf("first import: %v", err)
	}
	if _, err := o.ImportBatch(ctx, "e1", "b1",
		[]extract.RawDocument{doc("计算机学院-软件工程-20210002-李四-期末.txt", answerDoc)}); err != nil {
		t.Fatalf("second import: %v", err)
	}

	qs, err := store.ListExamQuestions(context.Background(), "e1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(qs) != 2 {
		t.Fatalf("questions = %d, want the second student to reuse", len(qs))
	}
}

func TestImportBatchScoreContextPerDocument(t *testing.T) {
	// File 1 derives scores from its section header; file 2 has no
	// header and must fall back to type defaults, not inherit file 1's.
	o, store := newTestOrchestrator(t)

	headless := `1.没有大题头的简答题目，请说明你的观点和理由是什么
学生答案：这里是作答内容，观点与理由的详细展开说明
学生得分：0 分`

	out, err := o.ImportBatch(actorCtx(), "e1", "b1", []extract.RawDocument{
		doc("计算机学院-软件工程-20210001-张三-期末.txt", answerDoc),
		doc("计算机学院-软件工程-20210002-李四-补交.txt", headless),
	})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if out.Failed != 0 {
		t.Fatalf("outcome = %+v details=%+v", out, out.Details)
	}

	qs, err := store.ListExamQuestions(context.Background(), "e1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var headerScored, defaultScored bool
	for _, q := range qs {
		switch q.MaxScore {
		case 2: // from 共2题,4分
			headerScored = true
		default:
			if q.MaxScore != 2 {
				defaultScored = true
			}
		}
	}
	if !headerScored || !defaultScored {
		t.Fatalf("scores did not stay per-document: %+v", qs)
	}
}

func TestParseFilename(t *testing.T) {
	cases := []struct {
		in         string
		wantNumber string
		wantName   string
		wantOK     bool
	}{
		{"学习通10001-张三-期末考试.docx", "", "张三", true},
		{"计算机学院-软件工程-20210001-李四-期末.docx", "20210001", "李四", true},
		{"软件2101-20219876543-王五.pdf", "20219876543", "王五", true},
		{"随便什么文件.docx", "", "", false},
		{"123-456.docx", "", "", false},
	}
	for _, c := range cases {
		id, ok := ParseFilename(c.in)
		if ok != c.wantOK {
			t.Fatalf("%s: ok = %v, want %v", c.in, ok, c.wantOK)
		}
		if id.Number != c.wantNumber || id.Name != c.wantName {
			t.Fatalf("%s: got %s/%s, want %s/%s", c.in, id.Number, id.Name, c.wantNumber, c.wantName)
		}
	}
}

func TestSurrogateNumber(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	got := SurrogateNumber("张三", now)
	if !strings.HasPrefix(got, "NO") || len(got) != 12 {
		t.Fatalf("surrogate = %q", got)
	}
	// Deterministic for the same inputs.
	if again := SurrogateNumber("张三", now); again != got {
		t.Fatalf("surrogate not deterministic: %q vs %q", got, again)
	}
}

func TestExtractIdentitiesNilCompleter(t *testing.T) {
	ids := ExtractIdentities(context.Background(), nil, []string{"a.docx", "b.docx"}, nil)
	if len(ids) != 2 || ids[0].Number != "" {
		t.Fatalf("ids = %+v", ids)
	}
}
