package textsolve

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tfeater/TfeaterMathLab/api/internal/llm"
)

type fakeCompleter struct {
	replies []string
	errs    []error
	calls   int
}

func (f *fakeCompleter) Name() string { return "fake" }

func (f *fakeCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i < len(f.replies) {
		return f.replies[i], nil
	}
	return "", &llm.APIError{}
}

const goodReply = `{
  "problem": "A train travels 120 km in 2 hours. What is its speed?",
  "interpretation": "Speed is distance divided by time.",
  "steps": [{"title": "Divide", "markup": "v = \\frac{120}{2} = 60", "explanation": "120 km over 2 hours."}],
  "final_answer": {"markup": "60 \\text{ km/h}", "explanation": "The train goes 60 km/h."}
}`

func TestSolve_HappyPath(t *testing.T) {
	fake := &fakeCompleter{replies: []string{goodReply}}
	sol, err := New(fake, time.Second).Solve(context.Background(), "A train travels 120 km in 2 hours. What is its speed?")
	require.NoError(t, err)
	assert.Equal(t, 1, fake.calls)
	assert.NotEmpty(t, sol.Interpretation)
	require.Len(t, sol.Steps, 1)
	assert.Contains(t, sol.FinalAnswer.Markup, "60")
}

func TestSolve_RetriesOnceOnBadJSON(t *testing.T) {
	fake := &fakeCompleter{replies: []string{"garbage", goodReply}}
	sol, err := New(fake, time.Second).Solve(context.Background(), "speed problem")
	require.NoError(t, err)
	assert.Equal(t, 2, fake.calls)
	assert.NotNil(t, sol)
}

func TestSolve_SecondBadJSONSurfacesTypedError(t *testing.T) {
	fake := &fakeCompleter{replies: []string{"garbage", "still garbage"}}
	_, err := New(fake, time.Second).Solve(context.Background(), "speed problem")
	require.Error(t, err)
	var rerr *llm.ResponseError
	assert.ErrorAs(t, err, &rerr)
	assert.Equal(t, 2, fake.calls, "exactly one retry")
}

func TestSolve_ServiceErrorsNotRetried(t *testing.T) {
	fake := &fakeCompleter{errs: []error{&llm.APIError{}}}
	_, err := New(fake, time.Second).Solve(context.Background(), "anything")
	var aerr *llm.APIError
	assert.ErrorAs(t, err, &aerr)
	assert.Equal(t, 1, fake.calls)
}

func TestSolve_InputLimits(t *testing.T) {
	s := New(&fakeCompleter{}, time.Second)

	_, err := s.Solve(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = s.Solve(context.Background(), strings.Repeat("a", MaxProblemLen+1))
	assert.ErrorIs(t, err, ErrTooLong)
}

func TestSolve_MissingFinalAnswerRejected(t *testing.T) {
	reply := `{"problem":"p","interpretation":"i","steps":[{"title":"t","markup":"m","explanation":"e"}],"final_answer":{"markup":"","explanation":"x"}}`
	fake := &fakeCompleter{replies: []string{reply, reply}}
	_, err := New(fake, time.Second).Solve(context.Background(), "p")
	var rerr *llm.ResponseError
	assert.ErrorAs(t, err, &rerr)
}
