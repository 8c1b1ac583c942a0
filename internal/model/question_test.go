package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeQuestionStructured(t *testing.T) {
	q := DecodeQuestion(`{
		"prompt": "What powers plant growth?",
		"type": "mcq",
		"options": ["Photosynthesis", "Respiration"],
		"correctAnswer": "Photosynthesis",
		"weight": 2,
		"partials": [{"match": "photo", "score": 0.5}, {"match": "synthesis", "score": 0.5}]
	}`)

	assert.False(t, q.Legacy)
	assert.Equal(t, "What powers plant growth?", q.Prompt)
	assert.Equal(t, "mcq", q.Type)
	require.NotNil(t, q.CorrectAnswer)
	assert.Equal(t, "Photosynthesis", *q.CorrectAnswer)
	assert.Equal(t, 2.0, q.Weight)
	require.Len(t, q.Partials, 2)
	assert.Equal(t, PartialRule{Match: "photo", Score: 0.5}, q.Partials[0])
}

func TestDecodeQuestionLegacyString(t *testing.T) {
	// Historical exams stored the bare correct answer as the whole payload.
	q := DecodeQuestion("Photosynthesis")

	assert.True(t, q.Legacy)
	assert.Equal(t, "subjective", q.Type)
	require.NotNil(t, q.CorrectAnswer)
	assert.Equal(t, "Photosynthesis", *q.CorrectAnswer)
	assert.Equal(t, 1.0, q.Weight)
	assert.Empty(t, q.Partials)
	assert.False(t, q.AutoGrade)
}

func TestDecodeQuestionNonObjectJSON(t *testing.T) {
	// Valid JSON that is not an object is still the legacy variant.
	for _, payload := range []string{"42", `"A"`, "null", "[1,2]"} {
		q := DecodeQuestion(payload)
		assert.True(t, q.Legacy, "payload %q should decode as legacy", payload)
		require.NotNil(t, q.CorrectAnswer)
		assert.Equal(t, payload, *q.CorrectAnswer)
	}
}

func TestDecodeQuestionDefaults(t *testing.T) {
	tests := []struct {
		name  string
		input string
		check func(t *testing.T, q Question)
	}{
		{
			name:  "non-numeric weight defaults to 1",
			input: `{"correctAnswer":"A","weight":"heavy"}`,
			check: func(t *testing.T, q Question) { assert.Equal(t, 1.0, q.Weight) },
		},
		{
			name:  "quoted numeric weight still defaults to 1",
			input: `{"correctAnswer":"A","weight":"3"}`,
			check: func(t *testing.T, q Question) { assert.Equal(t, 1.0, q.Weight) },
		},
		{
			name:  "points alias honored",
			input: `{"correctAnswer":"A","points":4}`,
			check: func(t *testing.T, q Question) { assert.Equal(t, 4.0, q.Weight) },
		},
		{
			name:  "answer alias honored",
			input: `{"answer":"B"}`,
			check: func(t *testing.T, q Question) {
				require.NotNil(t, q.CorrectAnswer)
				assert.Equal(t, "B", *q.CorrectAnswer)
			},
		},
		{
			name:  "numeric answer normalized to text",
			input: `{"correctAnswer":42}`,
			check: func(t *testing.T, q Question) {
				require.NotNil(t, q.CorrectAnswer)
				assert.Equal(t, "42", *q.CorrectAnswer)
			},
		},
		{
			name:  "missing answer stays nil",
			input: `{"prompt":"essay question","type":"subjective"}`,
			check: func(t *testing.T, q Question) {
				assert.Nil(t, q.CorrectAnswer)
				assert.False(t, q.AutoGrade)
			},
		},
		{
			name:  "options imply mcq",
			input: `{"correctAnswer":"A","options":["A","B"]}`,
			check: func(t *testing.T, q Question) {
				assert.Equal(t, "mcq", q.Type)
				assert.True(t, q.AutoGrade)
			},
		},
		{
			name:  "partial rules without string match dropped",
			input: `{"correctAnswer":"A","partials":[{"match":7,"score":0.5},{"match":"ok"}]}`,
			check: func(t *testing.T, q Question) {
				require.Len(t, q.Partials, 1)
				assert.Equal(t, PartialRule{Match: "ok", Score: 0}, q.Partials[0])
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, DecodeQuestion(tt.input))
		})
	}
}
