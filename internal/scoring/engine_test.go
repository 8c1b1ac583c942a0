package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/online-exam-platform/internal/crypto"
)

func newTestEngine(t *testing.T) (*Engine, *crypto.Codec) {
	t.Helper()
	codec := crypto.NewCodec("scoring-test-secret")
	return NewEngine(codec), codec
}

func mustEncrypt(t *testing.T, codec *crypto.Codec, plaintexts ...string) []string {
	t.Helper()
	out := make([]string, len(plaintexts))
	for i, p := range plaintexts {
		enc, err := codec.Encrypt(p)
		require.NoError(t, err)
		out[i] = enc
	}
	return out
}

func TestGradeDeterministicVector(t *testing.T) {
	engine, codec := newTestEngine(t)
	questions := mustEncrypt(t, codec,
		"A",
		`{"correctAnswer":"Photosynthesis","weight":2,"partials":[{"match":"photo","score":0.5},{"match":"synthesis","score":0.5}]}`,
		`{"correctAnswer":"42","weight":3}`,
	)
	answers := []SubmittedAnswer{
		{QuestionIndex: 0, Answer: "A"},
		{QuestionIndex: 1, Answer: "photo process"},
		{QuestionIndex: 2, Answer: "41"},
	}

	out, err := engine.Grade(questions, answers)
	require.NoError(t, err)

	assert.Equal(t, 2.0, out.Awarded) // q0 full=1, q1 partial=1, q2 zero
	assert.Equal(t, 6.0, out.Possible)
	require.Len(t, out.Records, 3)
	assert.Equal(t, 1.0, out.Records[0].Awarded)
	assert.Equal(t, 1.0, out.Records[1].Awarded)
	assert.Equal(t, 0.0, out.Records[2].Awarded)
}

func TestGradePartialCreditCapsAtWeight(t *testing.T) {
	engine, codec := newTestEngine(t)
	questions := mustEncrypt(t, codec,
		`{"correctAnswer":"Photosynthesis","weight":2,"partials":[{"match":"photo","score":0.5},{"match":"synthesis","score":0.5},{"match":"photo","score":0.5}]}`,
	)

	// All three rules match, summing past the weight; the award must clamp.
	out, err := engine.Grade(questions, []SubmittedAnswer{{QuestionIndex: 0, Answer: "photo synthesis"}})
	require.NoError(t, err)
	assert.Equal(t, 2.0, out.Awarded)
	assert.Equal(t, 2.0, out.Possible)
}

func TestGradeExactMatchTrimsAndIsCaseSensitive(t *testing.T) {
	engine, codec := newTestEngine(t)
	questions := mustEncrypt(t, codec, `{"correctAnswer":"Paris","weight":1}`)

	out, err := engine.Grade(questions, []SubmittedAnswer{{QuestionIndex: 0, Answer: "  Paris  "}})
	require.NoError(t, err)
	assert.Equal(t, 1.0, out.Awarded)

	out, err = engine.Grade(questions, []SubmittedAnswer{{QuestionIndex: 0, Answer: "paris"}})
	require.NoError(t, err)
	assert.Equal(t, 0.0, out.Awarded)
}

func TestGradePadsMissingAnswers(t *testing.T) {
	engine, codec := newTestEngine(t)
	questions := mustEncrypt(t, codec,
		`{"correctAnswer":"A","weight":2}`,
		`{"correctAnswer":"B","weight":3}`,
		`{"correctAnswer":"C","weight":5}`,
	)

	out, err := engine.Grade(questions, []SubmittedAnswer{{QuestionIndex: 1, Answer: "B"}})
	require.NoError(t, err)

	assert.Equal(t, 3.0, out.Awarded)
	assert.Equal(t, 10.0, out.Possible)
	require.Len(t, out.Records, 3)

	// Padded records carry no submitted answer and zero award.
	for _, rec := range out.Records {
		if rec.QuestionIndex == 1 {
			continue
		}
		assert.Nil(t, rec.Answer)
		assert.Equal(t, 0.0, rec.Awarded)
	}
}

func TestGradeOutOfRangeIndexDefaults(t *testing.T) {
	engine, codec := newTestEngine(t)
	questions := mustEncrypt(t, codec, `{"correctAnswer":"A","weight":2}`)

	out, err := engine.Grade(questions, []SubmittedAnswer{
		{QuestionIndex: 0, Answer: "A"},
		{QuestionIndex: 7, Answer: "anything"},
	})
	require.NoError(t, err)

	// The stray index contributes a default weight of 1 and no award.
	assert.Equal(t, 2.0, out.Awarded)
	assert.Equal(t, 3.0, out.Possible)
}

func TestGradeRejectsDuplicateIndices(t *testing.T) {
	engine, codec := newTestEngine(t)
	questions := mustEncrypt(t, codec, `{"correctAnswer":"A","weight":2}`)

	_, err := engine.Grade(questions, []SubmittedAnswer{
		{QuestionIndex: 0, Answer: "A"},
		{QuestionIndex: 0, Answer: "A"},
	})
	assert.ErrorIs(t, err, ErrDuplicateIndex)
}

func TestGradeLegacyAndUnencryptedQuestions(t *testing.T) {
	engine, codec := newTestEngine(t)

	// One encrypted legacy string, one blob that was never encrypted at all.
	enc := mustEncrypt(t, codec, "Photosynthesis")
	questions := []string{enc[0], "Mitochondria"}

	out, err := engine.Grade(questions, []SubmittedAnswer{
		{QuestionIndex: 0, Answer: "Photosynthesis"},
		{QuestionIndex: 1, Answer: "Mitochondria"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2.0, out.Awarded)
	assert.Equal(t, 2.0, out.Possible)
}

func TestGradeNoPartialsMeansExactOnly(t *testing.T) {
	engine, codec := newTestEngine(t)
	questions := mustEncrypt(t, codec, `{"correctAnswer":"Photosynthesis","weight":2,"partials":[]}`)

	out, err := engine.Grade(questions, []SubmittedAnswer{{QuestionIndex: 0, Answer: "photo"}})
	require.NoError(t, err)
	assert.Equal(t, 0.0, out.Awarded)
	assert.Equal(t, 2.0, out.Possible)
}

func TestGradeNonNumericWeightDefaultsToOne(t *testing.T) {
	engine, codec := newTestEngine(t)
	questions := mustEncrypt(t, codec, `{"correctAnswer":"A","weight":"heavy"}`)

	out, err := engine.Grade(questions, []SubmittedAnswer{{QuestionIndex: 0, Answer: "A"}})
	require.NoError(t, err)
	assert.Equal(t, 1.0, out.Awarded)
	assert.Equal(t, 1.0, out.Possible)
}

func TestGradeAnswerlessQuestionNeverMatchesExactly(t *testing.T) {
	engine, codec := newTestEngine(t)
	questions := mustEncrypt(t, codec, `{"prompt":"essay","type":"subjective","weight":2}`)

	out, err := engine.Grade(questions, []SubmittedAnswer{{QuestionIndex: 0, Answer: ""}})
	require.NoError(t, err)
	assert.Equal(t, 0.0, out.Awarded)
	assert.Equal(t, 2.0, out.Possible)
	assert.Nil(t, out.Records[0].CorrectAnswer)
}
