package handle

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tfeater/TfeaterMathLab/api/internal/engine"
	"github.com/Tfeater/TfeaterMathLab/api/internal/explain"
	"github.com/Tfeater/TfeaterMathLab/api/internal/llm"
	"github.com/Tfeater/TfeaterMathLab/api/internal/textsolve"
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

func newHandle(fake llm.Completer) *Handle {
	var explainer *explain.Explainer
	var solver *textsolve.Solver
	if fake != nil {
		explainer = explain.New(fake, time.Second)
		solver = textsolve.New(fake, time.Second)
	}
	return New(explainer, solver, nil)
}

func postJSON(t *testing.T, handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestSolve_Success(t *testing.T) {
	h := newHandle(nil)
	rec := postJSON(t, h.Solve, `{"operation":"solve","expression":"x^2 - 5x + 6 = 0"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp solveResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "2, 3", resp.DisplayResult)
	assert.Equal(t, "engine", resp.StepsSource)
	assert.NotEmpty(t, resp.Steps)
}

func TestSolve_FallbackIsHTTP200(t *testing.T) {
	h := newHandle(nil)
	rec := postJSON(t, h.Solve, `{"operation":"solve","expression":"2x +"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var fb engine.FallbackContract
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fb))
	assert.Equal(t, "fallback", fb.Status)
	assert.Equal(t, "text-solve", fb.Target)
	assert.Equal(t, "parse", fb.ErrorKind)
	assert.Equal(t, "2x +", fb.OriginalInput)
}

func TestSolve_NaturalText(t *testing.T) {
	h := newHandle(nil)
	rec := postJSON(t, h.Solve, `{"text":"differentiate x squared"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp solveResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "2*x", resp.DisplayResult)
	assert.Equal(t, "differentiate x squared", resp.OriginalInput)
}

func TestSolve_NaturalTextExtractionFailureFallsBack(t *testing.T) {
	h := newHandle(nil)
	rec := postJSON(t, h.Solve, `{"text":"tell me a story"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var fb engine.FallbackContract
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fb))
	assert.Equal(t, "fallback", fb.Status)
	assert.Equal(t, "tell me a story", fb.OriginalInput)
}

func TestSolve_AIStepsWhenVerified(t *testing.T) {
	fake := &fakeCompleter{replies: []string{
		`{"steps":[{"title":"Friendly","markup":"x \\in \\{2, 3\\}","explanation":"Both values zero the quadratic."}],"final_answer":"3, 2"}`,
	}}
	h := newHandle(fake)
	rec := postJSON(t, h.Solve, `{"operation":"solve","expression":"x^2 - 5x + 6 = 0"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp solveResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ai", resp.StepsSource)
	// Verification never rewrites the canonical result.
	assert.Equal(t, "2, 3", resp.DisplayResult)
}

func TestSolve_MethodGuard(t *testing.T) {
	h := newHandle(nil)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.Solve(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestSolveText_Success(t *testing.T) {
	fake := &fakeCompleter{replies: []string{`{
		"problem": "p", "interpretation": "i",
		"steps": [{"title":"t","markup":"m","explanation":"e"}],
		"final_answer": {"markup":"42","explanation":"done"}
	}`}}
	h := newHandle(fake)
	rec := postJSON(t, h.SolveText, `{"problem":"what is six times seven"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.Contains(t, rec.Body.String(), "42")
}

func TestSolveText_TypedErrorsNotFallback(t *testing.T) {
	fake := &fakeCompleter{errs: []error{&llm.TimeoutError{}}}
	h := newHandle(fake)
	rec := postJSON(t, h.SolveText, `{"problem":"anything"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "timeout", resp.ErrorType)
	// No redirect loop: the text path never emits a fallback contract.
	assert.NotContains(t, rec.Body.String(), "text-solve")
}

func TestSolveText_Validation(t *testing.T) {
	h := newHandle(&fakeCompleter{})
	rec := postJSON(t, h.SolveText, `{"problem":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	long := strings.Repeat("a", textsolve.MaxProblemLen+1)
	rec = postJSON(t, h.SolveText, `{"problem":"`+long+`"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
