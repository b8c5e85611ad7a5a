package bank

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
)

var ErrNotFound = errors.New("not found")

// Store is the persistence surface the import pipeline needs.
type Store interface {
	GetExam(ctx context.Context, id string) (Exam, error)
	PutExam(ctx context.Context, e Exam) error

	ListExamQuestions(ctx context.Context, examID string) ([]Question, error)
	// SearchQuestions finds bank questions whose content contains the
	// keyword, newest first, capped at limit.
	SearchQuestions(ctx context.Context, bankID, keyword string, limit int) ([]Question, error)
	InsertQuestion(ctx context.Context, q Question) error

	// UpsertStudent provisions by number on first sight and returns the
	// stored row either way.
	UpsertStudent(ctx context.Context, s Student) (Student, error)
	// UpsertAnswer inserts or replaces by (student, question).
	UpsertAnswer(ctx context.Context, a StudentAnswer) error
}

// memoryStore backs tests and offline dry runs.
type memoryStore struct {
	mu        sync.RWMutex
	exams     map[string]Exam
	questions map[string]Question
	students  map[string]Student // by number
	answers   map[string]StudentAnswer
	order     []string // question insertion order
}

func NewMemoryStore() Store {
	return &memoryStore{
		exams:     map[string]Exam{},
		questions: map[string]Question{},
		students:  map[string]Student{},
		answers:   map[string]StudentAnswer{},
	}
}

func (m *memoryStore) GetExam(_ context.Context, id string) (Exam, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.exams[id]
	if !ok {
		return Exam{}, ErrNotFound
	}
	return e, nil
}

func (m *memoryStore) PutExam(_ context.Context, e Exam) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exams[e.ID] = e
	return nil
}

func (m *memoryStore) ListExamQuestions(_ context.Context, examID string) ([]Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Question
	for _, id := range m.order {
		if q := m.questions[id]; q.ExamID == examID {
			out = append(out, q)
		}
	}
	return out, nil
}

func (m *memoryStore) SearchQuestions(_ context.Context, bankID, keyword string, limit int) ([]Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Question
	for _, id := range m.order {
		q := m.questions[id]
		if bankID != "" && q.BankID != bankID {
			continue
		}
		if keyword != "" && !strings.Contains(q.Content, keyword) {
			continue
		}
		out = append(out, q)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memoryStore) InsertQuestion(_ context.Context, q Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.questions[q.ID]; exists {
		return errors.New("question id exists")
	}
	m.questions[q.ID] = q
	m.order = append(m.order, q.ID)
	return nil
}

func (m *memoryStore) UpsertStudent(_ context.Context, s Student) (Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if have, ok := m.students[s.Number]; ok {
		return have, nil
	}
	m.students[s.Number] = s
	return s, nil
}

func (m *memoryStore) UpsertAnswer(_ context.Context, a StudentAnswer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := a.StudentID + "/" + a.QuestionID
	if old, ok := m.answers[key]; ok {
		a.ID = old.ID
		a.CreatedAt = old.CreatedAt
	}
	m.answers[key] = a
	return nil
}
