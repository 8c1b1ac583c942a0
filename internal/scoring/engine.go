// Package scoring implements the answer grading engine.  It decrypts an
// exam's question blobs, matches submitted answers against correct answers
// and partial-credit rules, and produces the immutable per-question record
// list persisted as a Result.
package scoring

import (
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/online-exam-platform/internal/crypto"
	"github.com/iliyamo/online-exam-platform/internal/model"
)

// ErrDuplicateIndex rejects submissions that grade the same question twice.
// Summing duplicate indices would silently inflate the possible total, so
// the engine refuses them outright.
var ErrDuplicateIndex = errors.New("scoring: duplicate question index in submission")

// SubmittedAnswer is one entry of a submission payload.
type SubmittedAnswer struct {
	QuestionIndex int    `json:"questionIndex"`
	Answer        string `json:"answer"`
}

// AnswerRecord is the graded outcome for a single question.  Answer is nil
// for questions the submission never covered; CorrectAnswer is nil when the
// question carries no reference answer.
type AnswerRecord struct {
	QuestionIndex int     `json:"questionIndex"`
	Answer        *string `json:"answer"`
	CorrectAnswer *string `json:"correctAnswer"`
	Weight        float64 `json:"weight"`
	Awarded       float64 `json:"awarded"`
}

// Outcome aggregates a graded submission.
type Outcome struct {
	Records  []AnswerRecord `json:"answers"`
	Awarded  float64        `json:"score"`
	Possible float64        `json:"total"`
}

// Engine grades submissions against encrypted question lists.
type Engine struct {
	codec *crypto.Codec
}

// NewEngine returns an Engine using the given codec for question decryption.
func NewEngine(codec *crypto.Codec) *Engine {
	return &Engine{codec: codec}
}

// Grade scores a submission against an exam's ordered ciphertext list.
//
// Each ciphertext is decrypted and decoded through the dual-mode question
// decode; blobs that fail decryption are treated as raw legacy plaintext.
// Every submitted answer accumulates its question's weight into the possible
// total; exam questions absent from the submission are padded in with zero
// awarded so the possible total always covers the whole exam.  An answer
// earns full weight on an exact trimmed match, otherwise the sum of its
// matching partial-credit fractions, clamped to [0, weight].
func (e *Engine) Grade(ciphertexts []string, answers []SubmittedAnswer) (Outcome, error) {
	seen := make(map[int]bool, len(answers))
	for _, a := range answers {
		if seen[a.QuestionIndex] {
			return Outcome{}, fmt.Errorf("%w: %d", ErrDuplicateIndex, a.QuestionIndex)
		}
		seen[a.QuestionIndex] = true
	}

	questions := make([]model.Question, len(ciphertexts))
	for i, ct := range ciphertexts {
		plaintext, err := e.codec.Decrypt(ct)
		if err != nil {
			// Legacy rows may hold unencrypted payloads; grade what is there.
			plaintext = ct
		}
		questions[i] = model.DecodeQuestion(plaintext)
	}

	out := Outcome{Records: make([]AnswerRecord, 0, len(questions))}
	for _, a := range answers {
		q := questionAt(questions, a.QuestionIndex)
		out.Possible += q.Weight

		awarded := grade(q, a.Answer)
		out.Awarded += awarded

		answer := a.Answer
		out.Records = append(out.Records, AnswerRecord{
			QuestionIndex: a.QuestionIndex,
			Answer:        &answer,
			CorrectAnswer: q.CorrectAnswer,
			Weight:        q.Weight,
			Awarded:       awarded,
		})
	}

	// Pad unanswered questions: zero awarded, weight still counts.
	for i, q := range questions {
		if seen[i] {
			continue
		}
		out.Possible += q.Weight
		out.Records = append(out.Records, AnswerRecord{
			QuestionIndex: i,
			CorrectAnswer: q.CorrectAnswer,
			Weight:        q.Weight,
		})
	}
	return out, nil
}

// questionAt returns the question metadata for an index, defaulting to an
// answerless weight-1 question when the index falls outside the exam.
func questionAt(questions []model.Question, idx int) model.Question {
	if idx < 0 || idx >= len(questions) {
		return model.Question{Weight: 1}
	}
	return questions[idx]
}

// grade scores one answer against one question.
func grade(q model.Question, answer string) float64 {
	if q.CorrectAnswer != nil && strings.TrimSpace(answer) == strings.TrimSpace(*q.CorrectAnswer) {
		return q.Weight
	}
	awarded := 0.0
	lowered := strings.ToLower(answer)
	for _, p := range q.Partials {
		if strings.Contains(lowered, strings.ToLower(p.Match)) {
			awarded += p.Score * q.Weight
		}
	}
	if awarded > q.Weight {
		awarded = q.Weight
	}
	if awarded < 0 {
		awarded = 0
	}
	return awarded
}
