package repository

import (
	"context"
	"database/sql"
	"time"
)

// Result mirrors the 'results' table.  Answers holds the per-question
// record list as a JSON document; rows are immutable once inserted and a
// resubmission creates a new row rather than updating an old one.
type Result struct {
	ID        uint64
	ExamID    uint64
	UserID    uint64
	Answers   string // JSON list of per-question records
	Score     float64
	Total     float64
	CreatedAt time.Time
}

// ResultSummary is a Result joined with its exam title, used for listings.
type ResultSummary struct {
	ID        uint64
	ExamID    uint64
	ExamTitle string
	Score     float64
	Total     float64
	CreatedAt time.Time
}

// ScoreRow is one result row joined with its owner's email, fed into the
// leaderboard compaction.
type ScoreRow struct {
	UserID uint64
	Email  string
	Score  float64
	Total  float64
}

type ResultRepo struct{ DB *sql.DB }

func NewResultRepo(db *sql.DB) *ResultRepo { return &ResultRepo{DB: db} }

// Create inserts a result row and returns its ID.
func (r *ResultRepo) Create(ctx context.Context, examID, userID uint64, answersJSON string, score, total float64) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO results (exam_id, user_id, answers, score, total) VALUES (?,?,?,?,?)",
		examID, userID, answersJSON, score, total)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// ListByUser returns the user's results, newest first, with exam titles.
func (r *ResultRepo) ListByUser(ctx context.Context, userID uint64) ([]ResultSummary, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT r.id, r.exam_id, e.title, r.score, r.total, r.created_at
		   FROM results r JOIN exams e ON e.id = r.exam_id
		  WHERE r.user_id = ? ORDER BY r.created_at DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ResultSummary
	for rows.Next() {
		var s ResultSummary
		if err := rows.Scan(&s.ID, &s.ExamID, &s.ExamTitle, &s.Score, &s.Total, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ListScores returns every result joined with its owner's email, best
// scores first.  The handler compacts this into one entry per user.
func (r *ResultRepo) ListScores(ctx context.Context) ([]ScoreRow, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT r.user_id, u.email, r.score, r.total
		   FROM results r JOIN users u ON u.id = r.user_id
		  ORDER BY r.score DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ScoreRow
	for rows.Next() {
		var s ScoreRow
		if err := rows.Scan(&s.UserID, &s.Email, &s.Score, &s.Total); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
