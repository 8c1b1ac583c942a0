package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/online-exam-platform/internal/repository"
	"github.com/iliyamo/online-exam-platform/internal/scoring"
)

// ResultHandler bundles dependencies for submission scoring and listings.
type ResultHandler struct {
	Engine  *scoring.Engine
	Exams   *repository.ExamRepo
	Results *repository.ResultRepo
}

func NewResultHandler(engine *scoring.Engine, exams *repository.ExamRepo, results *repository.ResultRepo) *ResultHandler {
	return &ResultHandler{Engine: engine, Exams: exams, Results: results}
}

// ----- DTOs -----

type verifyReq struct {
	ExamID  uint64                    `json:"examId"`
	Answers []scoring.SubmittedAnswer `json:"answers"`
}

type resultResp struct {
	ID      uint64                 `json:"id"`
	ExamID  uint64                 `json:"examId"`
	UserID  uint64                 `json:"userId"`
	Answers []scoring.AnswerRecord `json:"answers"`
	Score   float64                `json:"score"`
	Total   float64                `json:"total"`
}

type resultSummaryResp struct {
	ID        uint64    `json:"id"`
	ExamID    uint64    `json:"examId"`
	ExamTitle string    `json:"examTitle"`
	Score     float64   `json:"score"`
	Total     float64   `json:"total"`
	CreatedAt time.Time `json:"createdAt"`
}

type leaderboardEntry struct {
	User  string  `json:"user"`
	Score float64 `json:"score"`
	Total float64 `json:"total"`
}

// Verify: grade a submission against an exam and persist the result.  A
// resubmission creates a new result row; results are never updated.
func (h *ResultHandler) Verify(c echo.Context) error {
	var req verifyReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.ExamID == 0 || req.Answers == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "examId and answers required"})
	}
	uid, ok := userIDFromCtx(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	exam, err := h.Exams.GetByID(ctx, req.ExamID)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "exam not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load exam failed"})
	}

	outcome, err := h.Engine.Grade(exam.Questions, req.Answers)
	if err != nil {
		if errors.Is(err, scoring.ErrDuplicateIndex) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "duplicate question index"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "grading failed"})
	}

	records, err := json.Marshal(outcome.Records)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "encode result failed"})
	}
	id, err := h.Results.Create(ctx, exam.ID, uid, string(records), outcome.Awarded, outcome.Possible)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save result failed"})
	}

	audit(c, uid, "result_submit", map[string]interface{}{
		"exam_id": exam.ID, "score": outcome.Awarded, "total": outcome.Possible,
	})
	return c.JSON(http.StatusOK, echo.Map{
		"result": resultResp{
			ID: id, ExamID: exam.ID, UserID: uid,
			Answers: outcome.Records, Score: outcome.Awarded, Total: outcome.Possible,
		},
		"score": outcome.Awarded,
		"total": outcome.Possible,
	})
}

// Mine: list the caller's results, newest first.
func (h *ResultHandler) Mine(c echo.Context) error {
	uid, ok := userIDFromCtx(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	results, err := h.Results.ListByUser(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list results failed"})
	}

	out := make([]resultSummaryResp, 0, len(results))
	for _, r := range results {
		out = append(out, resultSummaryResp{
			ID: r.ID, ExamID: r.ExamID, ExamTitle: r.ExamTitle,
			Score: r.Score, Total: r.Total, CreatedAt: r.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, out)
}

// Leaderboard: top 10 best-score-per-user, descending.
func (h *ResultHandler) Leaderboard(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, err := h.Results.ListScores(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list scores failed"})
	}
	return c.JSON(http.StatusOK, bestPerUser(rows, 10))
}

// bestPerUser compacts score rows (already sorted best-first) into at most
// one entry per user, keeping each user's highest score, truncated to limit.
func bestPerUser(rows []repository.ScoreRow, limit int) []leaderboardEntry {
	seen := make(map[uint64]bool, len(rows))
	out := make([]leaderboardEntry, 0, limit)
	for _, r := range rows {
		if seen[r.UserID] {
			continue
		}
		seen[r.UserID] = true
		out = append(out, leaderboardEntry{User: r.Email, Score: r.Score, Total: r.Total})
		if len(out) == limit {
			break
		}
	}
	return out
}
