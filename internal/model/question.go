// Package model defines the plaintext exam question shape.  Questions only
// ever exist in this form transiently in memory: at rest every question is an
// opaque ciphertext owned by its exam.
package model

import (
	"encoding/json"
	"strings"
)

// PartialRule awards a fraction of a question's weight when the submitted
// answer contains Match (case-insensitive).  Score is a fraction in [0,1].
type PartialRule struct {
	Match string  `json:"match"`
	Score float64 `json:"score"`
}

// Question is the decoded form of one encrypted question blob.  Exactly one
// of two variants applies:
//   - structured: the ciphertext held a JSON object with the fields below
//   - legacy:     the ciphertext held a bare string; that string is both the
//     prompt and the correct answer, with weight 1 and no partial rules
// Legacy reports which variant was decoded so callers can project the two
// shapes differently.
type Question struct {
	Prompt        string
	Type          string // "mcq" | "subjective"
	Options       []string
	CorrectAnswer *string // nil when the structured object carries no answer
	Weight        float64
	AutoGrade     bool
	Partials      []PartialRule
	Legacy        bool
}

// wireQuestion mirrors the stored JSON schema.  Raw messages keep decoding
// tolerant: a malformed field falls back to its default instead of failing
// the whole question, since historical data was written by hand.
type wireQuestion struct {
	Prompt        *string         `json:"prompt"`
	Type          *string         `json:"type"`
	Options       []string        `json:"options"`
	CorrectAnswer json.RawMessage `json:"correctAnswer"`
	Answer        json.RawMessage `json:"answer"` // legacy alias for correctAnswer
	Weight        json.RawMessage `json:"weight"`
	Points        json.RawMessage `json:"points"` // legacy alias for weight
	AutoGrade     *bool           `json:"autoGrade"`
	Partials      []wirePartial   `json:"partials"`
}

type wirePartial struct {
	Match json.RawMessage `json:"match"`
	Score json.RawMessage `json:"score"`
}

// DecodeQuestion turns a decrypted plaintext into a Question.  It first
// attempts the structured decode; anything that is not a JSON object (bare
// strings, numbers, null, invalid JSON) becomes the legacy variant with the
// plaintext itself as the correct answer.
func DecodeQuestion(plaintext string) Question {
	trimmed := strings.TrimSpace(plaintext)
	if !strings.HasPrefix(trimmed, "{") {
		return legacyQuestion(plaintext)
	}
	var w wireQuestion
	if err := json.Unmarshal([]byte(trimmed), &w); err != nil {
		return legacyQuestion(plaintext)
	}

	q := Question{Weight: 1}
	if w.Prompt != nil {
		q.Prompt = *w.Prompt
	}
	if w.Options != nil {
		q.Options = w.Options
	} else {
		q.Options = []string{}
	}

	// Explicit type wins; otherwise infer mcq from the presence of options.
	rawType := ""
	if w.Type != nil {
		rawType = *w.Type
	}
	if rawType != "" {
		q.Type = rawType
	} else if len(q.Options) > 0 {
		q.Type = "mcq"
	} else {
		q.Type = "subjective"
	}

	if s, ok := decodeAnswerValue(w.CorrectAnswer); ok {
		q.CorrectAnswer = &s
	} else if s, ok := decodeAnswerValue(w.Answer); ok {
		q.CorrectAnswer = &s
	}

	if f, ok := decodeNumber(w.Weight); ok {
		q.Weight = f
	} else if f, ok := decodeNumber(w.Points); ok {
		q.Weight = f
	}

	// Auto grading defaults on unless the question was explicitly marked
	// subjective by its author.
	if w.AutoGrade != nil {
		q.AutoGrade = *w.AutoGrade
	} else {
		q.AutoGrade = rawType != "subjective"
	}

	q.Partials = make([]PartialRule, 0, len(w.Partials))
	for _, p := range w.Partials {
		var match string
		if err := json.Unmarshal(p.Match, &match); err != nil {
			continue // rules without a string match are ignored
		}
		score, ok := decodeNumber(p.Score)
		if !ok {
			score = 0
		}
		q.Partials = append(q.Partials, PartialRule{Match: match, Score: score})
	}
	return q
}

func legacyQuestion(plaintext string) Question {
	answer := plaintext
	return Question{
		Prompt:        plaintext,
		Type:          "subjective",
		Options:       []string{},
		CorrectAnswer: &answer,
		Weight:        1,
		AutoGrade:     false,
		Partials:      []PartialRule{},
		Legacy:        true,
	}
}

// decodeAnswerValue accepts a string, number or bool answer value and
// normalizes it to its string form.  Absent or null values report !ok.
func decodeAnswerValue(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return strings.TrimSpace(string(raw)), true
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return strings.TrimSpace(string(raw)), true
	}
	return "", false
}

// decodeNumber reports a numeric JSON value.  Non-numeric weights such as
// "heavy" or "3" (a quoted string) report !ok so callers keep the default.
func decodeNumber(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, false
	}
	return f, true
}
