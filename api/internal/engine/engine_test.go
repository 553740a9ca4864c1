package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tfeater/TfeaterMathLab/api/internal/symbolic"
)

func runOK(t *testing.T, params Params) *PackagedAnswer {
	t.Helper()
	out := NewPipeline().Run(params)
	require.NotNil(t, out.Answer, "expected an answer, got fallback: %+v", out.Fallback)
	require.Nil(t, out.Fallback)
	return out.Answer
}

func runFallback(t *testing.T, params Params) *FallbackContract {
	t.Helper()
	out := NewPipeline().Run(params)
	require.NotNil(t, out.Fallback, "expected a fallback, got answer: %+v", out.Answer)
	require.Nil(t, out.Answer)
	return out.Fallback
}

func TestSolve_QuadraticRoots(t *testing.T) {
	answer := runOK(t, Params{Operation: "solve", Expression: "x^2 - 5x + 6 = 0"})
	assert.Equal(t, "2, 3", answer.DisplayResult)
	assert.True(t, symbolic.Equivalent(answer.MarkupResult, "2, 3"))
	require.NotEmpty(t, answer.Steps)
	assert.Equal(t, "Set up the equation", answer.Steps[0].Title)
}

func TestSolve_LinearAndNoRoots(t *testing.T) {
	answer := runOK(t, Params{Operation: "solve", Expression: "2x + 4 = 0"})
	assert.Equal(t, "-2", answer.DisplayResult)

	answer = runOK(t, Params{Operation: "solve", Expression: "x = x + 1"})
	assert.Equal(t, "", answer.DisplayResult)
}

func TestSolve_IdentityEquation(t *testing.T) {
	answer := runOK(t, Params{Operation: "solve", Expression: "x = x"})
	assert.Equal(t, "all real numbers", answer.DisplayResult)
	assert.Equal(t, `\mathbb{R}`, answer.MarkupResult)
	require.NotEmpty(t, answer.Steps)
	assert.Equal(t, "Identity", answer.Steps[len(answer.Steps)-1].Title)

	answer = runOK(t, Params{Operation: "solve", Expression: "2(x + 1) = 2x + 2"})
	assert.Equal(t, "all real numbers", answer.DisplayResult)
}

func TestSolve_UnsupportedDegree(t *testing.T) {
	fb := runFallback(t, Params{Operation: "solve", Expression: "x^3 - 1 = 0"})
	assert.Equal(t, KindUnsupportedDegree, fb.ErrorKind)
	assert.Equal(t, "x^3 - 1 = 0", fb.OriginalInput)
}

func TestDerivative(t *testing.T) {
	answer := runOK(t, Params{Operation: "derivative", Expression: "sin(x)", Order: 1})
	assert.Equal(t, "cos(x)", answer.DisplayResult)

	// Order zero returns the input unchanged.
	answer = runOK(t, Params{Operation: "derivative", Expression: "x^2 + 1", Order: 0})
	assert.Equal(t, "x^2 + 1", answer.DisplayResult)

	// Higher orders show intermediate steps.
	answer = runOK(t, Params{Operation: "derivative", Expression: "x^4", Order: 2})
	assert.Equal(t, "12*x^2", answer.DisplayResult)
	assert.Len(t, answer.Steps, 3)
}

func TestDerivative_OrderOutOfRange(t *testing.T) {
	fb := runFallback(t, Params{Operation: "derivative", Expression: "x^2", Order: 11})
	assert.Equal(t, KindInvalidParams, fb.ErrorKind)
}

func TestIntegral_Indefinite(t *testing.T) {
	answer := runOK(t, Params{Operation: "integral", Expression: "x^2"})
	assert.Equal(t, "1/3*x^3 + C", answer.DisplayResult)
	assert.Contains(t, answer.MarkupResult, "+ C")
}

func TestIntegral_DefiniteExact(t *testing.T) {
	answer := runOK(t, Params{
		Operation:  "integral",
		Expression: "sin(x)",
		Lower:      "0",
		Upper:      "pi",
	})
	assert.Equal(t, "2", answer.DisplayResult)
	assert.NotContains(t, answer.MarkupResult, "C")
}

func TestIntegral_NoClosedForm(t *testing.T) {
	fb := runFallback(t, Params{Operation: "integral", Expression: "exp(x^2)"})
	assert.Equal(t, KindNoClosedForm, fb.ErrorKind)
}

func TestIntegral_DivergentDefiniteFallsBack(t *testing.T) {
	// The integrand has a pole inside the interval; a finite answer here
	// would be wrong, so the request defers to the fallback path.
	fb := runFallback(t, Params{Operation: "integral", Expression: "1/x^2", Lower: "-1", Upper: "1"})
	assert.Equal(t, KindNoClosedForm, fb.ErrorKind)

	fb = runFallback(t, Params{Operation: "integral", Expression: "1/x", Lower: "0", Upper: "1"})
	assert.Equal(t, KindNoClosedForm, fb.ErrorKind)
}

func TestIntegral_SymbolicBoundRejected(t *testing.T) {
	fb := runFallback(t, Params{Operation: "integral", Expression: "x", Lower: "0", Upper: "y"})
	assert.Equal(t, KindInvalidParams, fb.ErrorKind)
}

func TestLimit_Sides(t *testing.T) {
	answer := runOK(t, Params{Operation: "limit", Expression: "1/x", Point: "0", Side: "right"})
	assert.Equal(t, "infinity", answer.DisplayResult)

	answer = runOK(t, Params{Operation: "limit", Expression: "1/x", Point: "0", Side: "left"})
	assert.Equal(t, "-infinity", answer.DisplayResult)

	fb := runFallback(t, Params{Operation: "limit", Expression: "1/x", Point: "0"})
	assert.Equal(t, KindDoesNotExist, fb.ErrorKind)
}

func TestLimit_AtNegativeInfinity(t *testing.T) {
	answer := runOK(t, Params{Operation: "limit", Expression: "1/x", Point: "-infinity"})
	assert.Equal(t, "0", answer.DisplayResult)
}

func TestSimplifyFactorExpand_Idempotent(t *testing.T) {
	for _, op := range []string{"simplify", "factor", "expand"} {
		first := runOK(t, Params{Operation: op, Expression: "x^2 - 5x + 6"})
		second := runOK(t, Params{Operation: op, Expression: first.DisplayResult})
		assert.Equal(t, first.DisplayResult, second.DisplayResult, "operation %s", op)
	}
}

func TestMatrix_Operations(t *testing.T) {
	answer := runOK(t, Params{Operation: "matrix", Expression: "[[1,2],[3,4]]", MatrixOp: "det"})
	assert.Equal(t, "-2", answer.DisplayResult)

	answer = runOK(t, Params{Operation: "matrix", Expression: "[[1,2],[3,4]]", MatrixOp: "transpose"})
	assert.Equal(t, "[[1, 3], [2, 4]]", answer.DisplayResult)
	assert.Contains(t, answer.MarkupResult, "pmatrix")
}

func TestMatrix_SingularFallback(t *testing.T) {
	fb := runFallback(t, Params{Operation: "matrix", Expression: "[[1,2],[2,4]]", MatrixOp: "inverse"})
	assert.Equal(t, KindSingular, fb.ErrorKind)
}

func TestMatrix_NonSquareFallback(t *testing.T) {
	fb := runFallback(t, Params{Operation: "matrix", Expression: "[[1,2,3],[4,5,6]]", MatrixOp: "det"})
	assert.Equal(t, KindNonSquare, fb.ErrorKind)
}

func TestFallback_MalformedExpression(t *testing.T) {
	fb := runFallback(t, Params{Operation: "solve", Expression: "2x +"})
	assert.Equal(t, "fallback", fb.Status)
	assert.Equal(t, "text-solve", fb.Target)
	assert.Equal(t, "parse", fb.ErrorKind)
	assert.Equal(t, "2x +", fb.OriginalInput)
	assert.NotEmpty(t, fb.ErrorMessage)
}

func TestFallback_PreservesOriginalInput(t *testing.T) {
	fb := runFallback(t, Params{
		Operation:     "solve",
		Expression:    "x^5 = 1",
		OriginalInput: "solve x^5 = 1 please",
	})
	assert.Equal(t, "solve x^5 = 1 please", fb.OriginalInput)
}

func TestFallback_UnknownOperation(t *testing.T) {
	fb := runFallback(t, Params{Operation: "plot", Expression: "x^2"})
	assert.Equal(t, KindUnsupportedOperation, fb.ErrorKind)
}

func TestPipeline_StateMachine(t *testing.T) {
	p := NewPipeline()
	assert.Equal(t, "pipeline-active", p.State())

	out := p.Run(Params{Operation: "solve", Expression: "2x +"})
	require.NotNil(t, out.Fallback)
	assert.Equal(t, "fallback-emitted", p.State())
}

func TestEquationRejectedOutsideSolve(t *testing.T) {
	fb := runFallback(t, Params{Operation: "simplify", Expression: "x = 1"})
	assert.Equal(t, "parse", fb.ErrorKind)
}

func TestBuildRequest_VariableSelection(t *testing.T) {
	req, err := BuildRequest(Params{Operation: "derivative", Expression: "y^2", Order: 1})
	require.NoError(t, err)
	assert.Equal(t, "y", req.Variable)

	req, err = BuildRequest(Params{Operation: "derivative", Expression: "x*y", Variable: "y", Order: 1})
	require.NoError(t, err)
	assert.Equal(t, "y", req.Variable)
}
