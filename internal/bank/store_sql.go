package bank

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SQLStore implements Store over the schema in internal/db. Placeholders
// are written $1-style, which both supported drivers accept.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) GetExam(ctx context.Context, id string) (Exam, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,title,created_at FROM exams WHERE id=$1`, id)
	var e Exam
	var created int64
	if err := row.Scan(&e.ID, &e.Title, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Exam{}, fmt.Errorf("exam %s: %w", id, ErrNotFound)
		}
		return Exam{}, err
	}
	e.CreatedAt = time.Unix(created, 0)
	return e, nil
}

func (s *SQLStore) PutExam(ctx context.Context, e Exam) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO exams (id,title,created_at) VALUES ($1,$2,$3)
		ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title`,
		e.ID, e.Title, e.CreatedAt.Unix())
	return err
}

const questionCols = `id,exam_id,bank_id,title,content,qtype,max_score,source_type,confirmed,created_at`

func (s *SQLStore) ListExamQuestions(ctx context.Context, examID string) ([]Question, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+questionCols+` FROM questions WHERE exam_id=$1 ORDER BY created_at, id`, examID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanQuestions(rows)
}

func (s *SQLStore) SearchQuestions(ctx context.Context, bankID, keyword string, limit int) ([]Question, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+questionCols+` FROM questions
		 WHERE ($1 = '' OR bank_id=$1) AND content LIKE $2
		 ORDER BY created_at DESC, id LIMIT $3`,
		bankID, "%"+keyword+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanQuestions(rows)
}

func scanQuestions(rows *sql.Rows) ([]Question, error) {
	var out []Question
	for rows.Next() {
		var q Question
		var examID sql.NullString
		var created int64
		if err := rows.Scan(&q.ID, &examID, &q.BankID, &q.Title, &q.Content, &q.Type,
			&q.MaxScore, &q.SourceType, &q.Confirmed, &created); err != nil {
			return nil, err
		}
		q.ExamID = examID.String
		q.CreatedAt = time.Unix(created, 0)
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *SQLStore) InsertQuestion(ctx context.Context, q Question) error {
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now()
	}
	var examID any
	if q.ExamID != "" {
		examID = q.ExamID
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO questions (`+questionCols+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		q.ID, examID, q.BankID, q.Title, q.Content, q.Type, q.MaxScore, q.SourceType, q.Confirmed, q.CreatedAt.Unix())
	return err
}

func (s *SQLStore) UpsertStudent(ctx context.Context, st Student) (Student, error) {
	if st.CreatedAt.IsZero() {
		st.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO students (id,number,name,created_at) VALUES ($1,$2,$3,$4)
		 ON CONFLICT (number) DO NOTHING`,
		st.ID, st.Number, st.Name, st.CreatedAt.Unix())
	if err != nil {
		return Student{}, err
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT id,number,name,created_at FROM students WHERE number=$1`, st.Number)
	var out Student
	var created int64
	if err := row.Scan(&out.ID, &out.Number, &out.Name, &created); err != nil {
		return Student{}, err
	}
	out.CreatedAt = time.Unix(created, 0)
	return out, nil
}

func (s *SQLStore) UpsertAnswer(ctx context.Context, a StudentAnswer) error {
	now := time.Now()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	var score any
	if a.Score != nil {
		score = *a.Score
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO student_answers
		   (id,student_id,question_id,answer_text,unanswered,score,import_method,created_at,updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		 ON CONFLICT (student_id,question_id) DO UPDATE SET
		   answer_text=EXCLUDED.answer_text,
		   unanswered=EXCLUDED.unanswered,
		   score=EXCLUDED.score,
		   import_method=EXCLUDED.import_method,
		   updated_at=EXCLUDED.updated_at`,
		a.ID, a.StudentID, a.QuestionID, a.AnswerText, a.Unanswered, score, a.ImportMethod,
		a.CreatedAt.Unix(), now.Unix())
	return err
}
