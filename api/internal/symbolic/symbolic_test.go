package symbolic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, input string) Expr {
	t.Helper()
	e, err := Parse(input)
	require.NoError(t, err)
	return e
}

func TestParse_Canonical(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"implicit multiplication", "2x", "2*x"},
		{"like terms collect", "x + x", "2*x"},
		{"cancellation", "x - x", "0"},
		{"quadratic ordering", "6 - 5x + x^2", "x^2 - 5*x + 6"},
		{"nested parens", "2*(x + 3)", "2*(x + 3)"},
		{"power of power", "(x^2)^3", "x^6"},
		{"fraction folds", "4/8", "1/2"},
		{"function application", "sin x", "sin(x)"},
		{"sqrt of square", "sqrt(49)", "7"},
		{"sqrt factor extraction", "sqrt(8)", "2*2^(1/2)"},
		{"unary minus", "-x + 2x", "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := mustParse(t, tt.input)
			assert.Equal(t, tt.want, e.String())
		})
	}
}

func TestParse_Rejections(t *testing.T) {
	inputs := []string{
		"",
		"2x +",
		"import os",
		"x $ y",
		"foo(x)",
		"1/0",
		"(x",
		"2 ** 3 ???",
	}
	for _, input := range inputs {
		_, err := Parse(input)
		require.Error(t, err, "input %q", input)
		var perr *ParseError
		assert.ErrorAs(t, err, &perr)
	}
}

func TestParse_Deterministic(t *testing.T) {
	for i := 0; i < 5; i++ {
		a := mustParse(t, "3x^2 - x*2 + sin(x)*4 - 1")
		b := mustParse(t, "3x^2 - x*2 + sin(x)*4 - 1")
		assert.Equal(t, a.String(), b.String())
		assert.True(t, a.Equal(b))
	}
}

func TestParseMarkup(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`$x^2 - 5x + 6$`, "x^2 - 5*x + 6"},
		{`\frac{1}{2}x`, "1/2*x"},
		{`\sqrt{x}`, "x^(1/2)"},
		{`\sin\left(x\right)`, "sin(x)"},
		{`x \cdot y`, "x*y"},
		{`e^{x}`, "exp(x)"},
	}
	for _, tt := range tests {
		e, err := ParseMarkup(tt.input)
		require.NoError(t, err, "markup %q", tt.input)
		assert.Equal(t, tt.want, e.String(), "markup %q", tt.input)
	}
}

func TestLaTeXRoundTrip(t *testing.T) {
	inputs := []string{
		"x^2 - 5x + 6",
		"sin(x)/x",
		"1/2 x + 3",
		"sqrt(2) x",
		"exp(x) + ln(x)",
	}
	for _, input := range inputs {
		e := mustParse(t, input)
		back, err := ParseMarkup(e.LaTeX())
		require.NoError(t, err, "rendered %q", e.LaTeX())
		assert.True(t, e.Equal(back), "round trip of %q through %q gave %q", input, e.LaTeX(), back.String())
	}
}

func TestDiff(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"x^2", "2*x"},
		{"sin(x)", "cos(x)"},
		{"x^3 - 5x", "3*x^2 - 5"},
		{"exp(x)", "exp(x)"},
		{"ln(x)", "x^(-1)"},
		{"7", "0"},
	}
	for _, tt := range tests {
		e := mustParse(t, tt.input)
		got := e.Diff("x").Simplify()
		assert.Equal(t, tt.want, got.String(), "d/dx %q", tt.input)
	}
}

func TestSolveQuadratic_RationalRoots(t *testing.T) {
	// x^2 - 5x + 6 = 0 -> 2 and 3, smaller branch first.
	e := mustParse(t, "x^2 - 5x + 6")
	coeffs, ok := RatCoeffs(e, "x")
	require.True(t, ok)
	roots := SolveQuadratic(coeffs[2], coeffs[1], coeffs[0])
	require.Len(t, roots, 2)
	assert.Equal(t, "2", roots[0].String())
	assert.Equal(t, "3", roots[1].String())
}

func TestSolveQuadratic_IrrationalAndComplex(t *testing.T) {
	// x^2 - 2 = 0 keeps the radical exact.
	e := mustParse(t, "x^2 - 2")
	coeffs, ok := RatCoeffs(e, "x")
	require.True(t, ok)
	roots := SolveQuadratic(coeffs[2], coeffs[1], coeffs[0])
	require.Len(t, roots, 2)
	assert.Equal(t, "-2^(1/2)", roots[0].String())
	assert.Equal(t, "2^(1/2)", roots[1].String())

	// x^2 + 1 = 0 -> +-i.
	e = mustParse(t, "x^2 + 1")
	coeffs, ok = RatCoeffs(e, "x")
	require.True(t, ok)
	roots = SolveQuadratic(coeffs[2], coeffs[1], coeffs[0])
	require.Len(t, roots, 2)
	assert.Contains(t, roots[1].String(), "i")
}

func TestExpandFactor_Idempotent(t *testing.T) {
	e := mustParse(t, "(x - 2)*(x - 3)")
	expanded := Expand(e)
	assert.Equal(t, "x^2 - 5*x + 6", expanded.String())
	assert.Equal(t, expanded.String(), Expand(expanded).String())

	factored := Factor(mustParse(t, "x^2 - 5x + 6"), "x")
	assert.Equal(t, factored.String(), Factor(factored, "x").String())
	// Round trip back to the expanded form.
	assert.True(t, Expand(factored).Equal(expanded))
}

func TestFactor_ContentAndHigherDegree(t *testing.T) {
	// 2x^2 - 8 -> 2(x-2)(x+2).
	f := Factor(mustParse(t, "2x^2 - 8"), "x")
	assert.True(t, Expand(f).Equal(mustParse(t, "2x^2 - 8")))

	// Cubic with rational roots.
	cubic := mustParse(t, "x^3 - 6x^2 + 11x - 6")
	f = Factor(cubic, "x")
	assert.True(t, Expand(f).Equal(cubic))

	// Irreducible input survives untouched in meaning.
	irr := mustParse(t, "x^2 + x + 1")
	assert.True(t, Expand(Factor(irr, "x")).Equal(irr))
}

func TestIntegrate(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"x^2", "1/3*x^3"},
		{"cos(x)", "sin(x)"},
		{"1/x", "ln(abs(x))"},
		{"exp(2x)", "1/2*exp(2*x)"},
		{"3", "3*x"},
	}
	for _, tt := range tests {
		e := mustParse(t, tt.input)
		got, ok := Integrate(e, "x")
		require.True(t, ok, "integral of %q", tt.input)
		assert.Equal(t, tt.want, got.String(), "integral of %q", tt.input)
	}
}

func TestIntegrate_DiffRoundTrip(t *testing.T) {
	inputs := []string{"x^2", "x^3 - 5x + 1", "sin(x)", "exp(x)", "cos(3x)"}
	for _, input := range inputs {
		e := mustParse(t, input)
		anti, ok := Integrate(e, "x")
		require.True(t, ok, "integral of %q", input)
		back := anti.Diff("x").Simplify()
		diff := Subtract(back, e).Simplify()
		assert.True(t, isZeroExpr(Expand(diff)), "d/dx of integral of %q gave %q", input, back.String())
	}
}

func TestIntegrate_NoClosedForm(t *testing.T) {
	e := mustParse(t, "exp(x^2)")
	_, ok := Integrate(e, "x")
	assert.False(t, ok)
}

func TestDefiniteIntegrate_Exact(t *testing.T) {
	// Integral of sin over [0, pi] is exactly 2.
	e := mustParse(t, "sin(x)")
	got, ok := DefiniteIntegrate(e, "x", NewInt(0), NewSym("pi"))
	require.True(t, ok)
	assert.Equal(t, "2", got.String())

	// Integral of x^2 over [0, 3] is exactly 9.
	got, ok = DefiniteIntegrate(mustParse(t, "x^2"), "x", NewInt(0), NewInt(3))
	require.True(t, ok)
	assert.Equal(t, "9", got.String())
}

func TestDefiniteIntegrate_DivergentRejected(t *testing.T) {
	// Interior singularity: 1/x^2 over [-1, 1] diverges, even though naive
	// antiderivative substitution would yield -2.
	_, ok := DefiniteIntegrate(mustParse(t, "1/x^2"), "x", NewInt(-1), NewInt(1))
	assert.False(t, ok)

	// Endpoint singularity: 1/x over [0, 1] diverges at the lower bound.
	_, ok = DefiniteIntegrate(mustParse(t, "1/x"), "x", NewInt(0), NewInt(1))
	assert.False(t, ok)

	// The same integrand away from its pole stays exact.
	got, ok := DefiniteIntegrate(mustParse(t, "1/x^2"), "x", NewInt(1), NewInt(2))
	require.True(t, ok)
	assert.Equal(t, "1/2", got.String())
}

func TestLimit_Finite(t *testing.T) {
	// Removable singularity: sin(x)/x -> 1 at 0.
	e := mustParse(t, "sin(x)/x")
	got, err := Limit(e, "x", NewInt(0), SideBoth)
	require.NoError(t, err)
	assert.Equal(t, "1", got.String())

	// Plain substitution.
	got, err = Limit(mustParse(t, "x^2 + 1"), "x", NewInt(2), SideBoth)
	require.NoError(t, err)
	assert.Equal(t, "5", got.String())
}

func TestLimit_PoleSides(t *testing.T) {
	e := mustParse(t, "1/x")

	got, err := Limit(e, "x", NewInt(0), SideRight)
	require.NoError(t, err)
	assert.Equal(t, "infinity", got.String())

	got, err = Limit(e, "x", NewInt(0), SideLeft)
	require.NoError(t, err)
	assert.Equal(t, "-infinity", got.String())

	_, err = Limit(e, "x", NewInt(0), SideBoth)
	assert.ErrorIs(t, err, ErrDoesNotExist)

	// Even-order pole agrees on both sides.
	got, err = Limit(mustParse(t, "1/x^2"), "x", NewInt(0), SideBoth)
	require.NoError(t, err)
	assert.Equal(t, "infinity", got.String())
}

func TestLimit_PoleSignWithNearbyDenominatorRoot(t *testing.T) {
	// A second denominator root sits very close to the point; the side signs
	// must come from the factor structure at the point, not from sampling a
	// fixed distance away.
	e := mustParse(t, "1/(x*(x - 1/2048))")

	got, err := Limit(e, "x", NewInt(0), SideRight)
	require.NoError(t, err)
	assert.Equal(t, "-infinity", got.String())

	got, err = Limit(e, "x", NewInt(0), SideLeft)
	require.NoError(t, err)
	assert.Equal(t, "infinity", got.String())

	_, err = Limit(e, "x", NewInt(0), SideBoth)
	assert.ErrorIs(t, err, ErrDoesNotExist)
}

func TestLimit_AtInfinity(t *testing.T) {
	got, err := Limit(mustParse(t, "1/x"), "x", PosInf(), SideBoth)
	require.NoError(t, err)
	assert.Equal(t, "0", got.String())

	got, err = Limit(mustParse(t, "(2x^2 + 1)/(x^2 - 3)"), "x", PosInf(), SideBoth)
	require.NoError(t, err)
	assert.Equal(t, "2", got.String())

	got, err = Limit(mustParse(t, "x^3"), "x", NegInf(), SideBoth)
	require.NoError(t, err)
	assert.Equal(t, "-infinity", got.String())

	_, err = Limit(mustParse(t, "sin(x)"), "x", PosInf(), SideBoth)
	assert.ErrorIs(t, err, ErrDoesNotExist)
}

func TestMatrix_DetInverse(t *testing.T) {
	m, err := ParseMatrixLiteral("[[1, 2], [3, 4]]")
	require.NoError(t, err)

	det, err := m.Det()
	require.NoError(t, err)
	assert.Equal(t, "-2", det.String())

	inv, err := m.Inverse()
	require.NoError(t, err)
	assert.Equal(t, "-2", inv.At(0, 0).String())
	assert.Equal(t, "1", inv.At(0, 1).String())
	assert.Equal(t, "3/2", inv.At(1, 0).String())
	assert.Equal(t, "-1/2", inv.At(1, 1).String())
}

func TestMatrix_SingularAndNonSquare(t *testing.T) {
	m, err := ParseMatrixLiteral("[[1, 2], [2, 4]]")
	require.NoError(t, err)
	_, err = m.Inverse()
	assert.ErrorIs(t, err, ErrSingular)

	rect, err := ParseMatrixLiteral("[[1, 2, 3], [4, 5, 6]]")
	require.NoError(t, err)
	_, err = rect.Det()
	assert.ErrorIs(t, err, ErrNonSquare)
}

func TestMatrix_TransposeRREF(t *testing.T) {
	m, err := ParseMatrixLiteral("[[1, 2, 3], [4, 5, 6]]")
	require.NoError(t, err)

	tr := m.Transpose()
	assert.Equal(t, 3, tr.Rows())
	assert.Equal(t, 2, tr.Cols())
	assert.Equal(t, "4", tr.At(0, 1).String())

	r := m.RREF()
	assert.Equal(t, "1", r.At(0, 0).String())
	assert.Equal(t, "0", r.At(0, 1).String())
	assert.Equal(t, "-1", r.At(0, 2).String())
	assert.Equal(t, "0", r.At(1, 0).String())
	assert.Equal(t, "1", r.At(1, 1).String())
	assert.Equal(t, "2", r.At(1, 2).String())
}

func TestEquivalent(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"x^2 - 5x + 6", "(x-2)(x-3)", true},
		{"x^2 - 5x + 6", "(x-2)(x-4)", false},
		{`\frac{1}{2}`, "0.5", true},
		{"2, 3", "3, 2", true},
		{"2, 3", "2, 4", false},
		{"2, 3", "2", false},
		{"sin(x) + C", "sin(x)", true},
		{`$x^2$`, "x^2", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Equivalent(tt.a, tt.b), "Equivalent(%q, %q)", tt.a, tt.b)
	}
}

func TestFreeVariables(t *testing.T) {
	e := mustParse(t, "x^2 + y - pi")
	assert.Equal(t, []string{"x", "y"}, FreeVariables(e))
	assert.Empty(t, FreeVariables(mustParse(t, "2 + pi")))
}
