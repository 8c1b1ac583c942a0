package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

// Exam mirrors the 'exams' table.  Questions is the ordered list of opaque
// ciphertext blobs; the plaintext question schema is never stored.  The
// list is persisted as a JSON array in a single column because the blobs
// are only ever read and written as a whole, in order.
type Exam struct {
	ID          uint64
	Title       string
	DurationMin int
	Questions   []string
	CreatedBy   uint64
	CreatedAt   time.Time
}

type ExamRepo struct{ DB *sql.DB }

func NewExamRepo(db *sql.DB) *ExamRepo { return &ExamRepo{DB: db} }

// Create inserts an exam with its encrypted question list and returns its ID.
func (r *ExamRepo) Create(ctx context.Context, title string, durationMin int, questions []string, createdBy uint64) (uint64, error) {
	blob, err := json.Marshal(questions)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO exams (title, duration_min, questions, created_by) VALUES (?,?,?,?)",
		title, durationMin, string(blob), createdBy)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches an exam by id.  Returns ErrNotFound when no row exists.
func (r *ExamRepo) GetByID(ctx context.Context, id uint64) (Exam, error) {
	var (
		e    Exam
		blob string
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, title, duration_min, questions, created_by, created_at FROM exams WHERE id=? LIMIT 1",
		id).Scan(&e.ID, &e.Title, &e.DurationMin, &blob, &e.CreatedBy, &e.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return Exam{}, ErrNotFound
		}
		return Exam{}, err
	}
	if err := json.Unmarshal([]byte(blob), &e.Questions); err != nil {
		return Exam{}, err
	}
	return e, nil
}
