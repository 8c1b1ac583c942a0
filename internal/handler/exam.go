package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/online-exam-platform/internal/crypto"
	"github.com/iliyamo/online-exam-platform/internal/model"
	"github.com/iliyamo/online-exam-platform/internal/repository"
)

// ExamHandler bundles dependencies for exam authoring and retrieval.
type ExamHandler struct {
	Codec *crypto.Codec
	Exams *repository.ExamRepo
}

func NewExamHandler(codec *crypto.Codec, exams *repository.ExamRepo) *ExamHandler {
	return &ExamHandler{Codec: codec, Exams: exams}
}

// ----- DTOs -----

// createExamReq accepts raw question specifications.  Each entry may be a
// pre-formed structured object, a bare string value, or a value that is
// already ciphertext from an earlier export.
type createExamReq struct {
	Title     string            `json:"title"`
	Duration  int               `json:"duration"`
	Questions []json.RawMessage `json:"questions"`
}

type examResp struct {
	ID        uint64   `json:"id"`
	Title     string   `json:"title"`
	Duration  int      `json:"duration"`
	Questions []string `json:"questions"`
	CreatedBy uint64   `json:"createdBy"`
}

// questionView is the display-safe projection of a decrypted question.
type questionView struct {
	Prompt        string              `json:"prompt"`
	Type          string              `json:"type"`
	Options       []string            `json:"options"`
	CorrectAnswer string              `json:"correctAnswer"`
	Weight        float64             `json:"weight"`
	AutoGrade     bool                `json:"autoGrade"`
	Partials      []model.PartialRule `json:"partials"`
}

type examViewResp struct {
	ID        uint64         `json:"id"`
	Title     string         `json:"title"`
	Duration  int            `json:"duration"`
	Questions []questionView `json:"questions"`
	CreatedBy uint64         `json:"createdBy"`
}

// CreateExam: serialize and encrypt each question specification, then
// persist the exam.  Values that already carry the ciphertext format are
// stored as-is so re-submitting an exported exam never double-encrypts.
func (h *ExamHandler) CreateExam(c echo.Context) error {
	var req createExamReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Title) == "" || len(req.Questions) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title and questions required"})
	}
	uid, ok := userIDFromCtx(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	encrypted := make([]string, 0, len(req.Questions))
	for _, raw := range req.Questions {
		plain, err := canonicalQuestion(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid question payload"})
		}
		ct, err := h.Codec.EncryptIfNeeded(plain)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "encrypt question failed"})
		}
		encrypted = append(encrypted, ct)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	id, err := h.Exams.Create(ctx, req.Title, req.Duration, encrypted, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create exam failed"})
	}

	audit(c, uid, "exam_create", map[string]interface{}{"exam_id": id, "questions": len(encrypted)})
	return c.JSON(http.StatusOK, examResp{
		ID: id, Title: req.Title, Duration: req.Duration, Questions: encrypted, CreatedBy: uid,
	})
}

// GetExam: decrypt each question into its display projection.  Blobs that
// fail decryption or structured decode degrade to a bare subjective
// question instead of failing the whole exam.
func (h *ExamHandler) GetExam(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid exam id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	exam, err := h.Exams.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "exam not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load exam failed"})
	}

	views := make([]questionView, 0, len(exam.Questions))
	for _, ct := range exam.Questions {
		plain, err := h.Codec.Decrypt(ct)
		if err != nil {
			// Historical rows may be unencrypted; project whatever is there.
			plain = ct
		}
		views = append(views, projectQuestion(model.DecodeQuestion(plain)))
	}

	return c.JSON(http.StatusOK, examViewResp{
		ID: exam.ID, Title: exam.Title, Duration: exam.DurationMin, Questions: views, CreatedBy: exam.CreatedBy,
	})
}

// canonicalQuestion reduces a raw question specification to the plaintext
// that gets encrypted: JSON strings are unwrapped to their value, every
// other JSON shape is stored in its compact encoding.
func canonicalQuestion(raw json.RawMessage) (string, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return "", echo.ErrBadRequest
	}
	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// projectQuestion maps a decoded question onto the display projection.
// Legacy questions expose their plaintext as the prompt and hide the
// answer field.
func projectQuestion(q model.Question) questionView {
	v := questionView{
		Prompt:    q.Prompt,
		Type:      q.Type,
		Options:   q.Options,
		Weight:    q.Weight,
		AutoGrade: q.AutoGrade,
		Partials:  q.Partials,
	}
	if !q.Legacy && q.CorrectAnswer != nil {
		v.CorrectAnswer = *q.CorrectAnswer
	}
	return v
}
