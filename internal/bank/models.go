package bank

import "time"

type Exam struct {
	ID        string
	Title     string
	CreatedAt time.Time
}

// Question is a bank entry. ExamID is set when the question is attached
// to an exam; a question belongs to at most one exam directly, sharing
// happens by cloning.
type Question struct {
	ID         string
	ExamID     string // empty: bank-only
	BankID     string
	Title      string
	Content    string
	Type       string
	MaxScore   float64
	SourceType string // provenance: manual, clone, pipeline import
	Confirmed  bool
	CreatedAt  time.Time
}

type Student struct {
	ID        string
	Number    string
	Name      string
	CreatedAt time.Time
}

type StudentAnswer struct {
	ID           string
	StudentID    string
	QuestionID   string
	AnswerText   string
	Unanswered   bool
	Score        *float64
	ImportMethod string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
