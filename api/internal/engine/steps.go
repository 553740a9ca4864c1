package engine

import (
	"fmt"

	"github.com/Tfeater/TfeaterMathLab/api/internal/symbolic"
)

// Step is one line of a derivation. Order in the slice is the order shown.
type Step struct {
	Title       string `json:"title"`
	Markup      string `json:"markup"`
	Explanation string `json:"explanation"`
}

// SynthesizeSteps builds a rule-specific derivation for the request. When no
// specific rule applies it falls back to a single step holding only the final
// markup, which is faithful by construction.
func SynthesizeSteps(req *Request, res *Result) []Step {
	var steps []Step
	switch req.Op {
	case OpSolve:
		steps = solveSteps(req, res)
	case OpDerivative:
		steps = derivativeSteps(req, res)
	case OpIntegral:
		steps = integralSteps(req, res)
	case OpLimit:
		steps = limitSteps(req, res)
	case OpFactor:
		steps = factorSteps(req, res)
	case OpExpand, OpSimplify:
		steps = rewriteSteps(req, res)
	case OpMatrix:
		steps = matrixSteps(req, res)
	}
	if len(steps) == 0 {
		steps = []Step{{
			Title:       "Result",
			Markup:      res.Markup(),
			Explanation: "Final result.",
		}}
	}
	return steps
}

func solveSteps(req *Request, res *Result) []Step {
	coeffs, ok := symbolic.RatCoeffs(req.Expr, req.Variable)
	if !ok {
		return nil
	}
	deg := 0
	for d, c := range coeffs {
		if c.Sign() != 0 && d > deg {
			deg = d
		}
	}
	normalized := symbolic.Expand(req.Expr)
	steps := []Step{{
		Title:       "Set up the equation",
		Markup:      normalized.LaTeX() + " = 0",
		Explanation: "Move every term to one side and collect like terms.",
	}}

	if res.AllValues {
		return append(steps, Step{
			Title:       "Identity",
			Markup:      fmt.Sprintf("%s \\in %s", req.Variable, res.Markup()),
			Explanation: "Both sides are equal for every value of the variable.",
		})
	}

	switch deg {
	case 1:
		steps = append(steps, Step{
			Title:       "Isolate the variable",
			Markup:      fmt.Sprintf("%s = %s", req.Variable, res.Values[0].LaTeX()),
			Explanation: "Divide the constant term by the leading coefficient and change its sign.",
		})
	case 2:
		a, b, c := ratOrZero(coeffs[2]), ratOrZero(coeffs[1]), ratOrZero(coeffs[0])
		disc := symbolic.Subtract(
			symbolic.Product(symbolic.NewRat(b), symbolic.NewRat(b)),
			symbolic.Product(symbolic.NewInt(4), symbolic.NewRat(a), symbolic.NewRat(c)),
		).Simplify()
		steps = append(steps, Step{
			Title:       "Compute the discriminant",
			Markup:      fmt.Sprintf("D = b^{2} - 4ac = %s", disc.LaTeX()),
			Explanation: "The discriminant decides how many roots the quadratic has and whether they are real.",
		})
		steps = append(steps, Step{
			Title:       "Apply the quadratic formula",
			Markup:      fmt.Sprintf("%s = \\frac{-b \\pm \\sqrt{D}}{2a} = %s", req.Variable, res.Markup()),
			Explanation: "Substitute a, b and the discriminant into the quadratic formula.",
		})
		return steps
	}

	if len(res.Values) == 0 {
		steps = append(steps, Step{
			Title:       "No solutions",
			Markup:      res.Markup(),
			Explanation: "The equation reduces to a non-zero constant, so no value satisfies it.",
		})
	}
	return steps
}

func derivativeSteps(req *Request, res *Result) []Step {
	if req.Order == 0 {
		return []Step{{
			Title:       "Order zero",
			Markup:      res.Markup(),
			Explanation: "The zeroth derivative is the function itself.",
		}}
	}
	steps := []Step{{
		Title:       "Differentiate",
		Markup:      fmt.Sprintf("\\frac{d}{d%s}\\left(%s\\right)", req.Variable, req.Expr.LaTeX()),
		Explanation: "Apply the sum, product, power and chain rules term by term.",
	}}
	// Show each intermediate order for higher derivatives.
	current := req.Expr.Simplify()
	for i := 1; i <= req.Order; i++ {
		current = current.Diff(req.Variable).Simplify()
		if req.Order > 1 {
			steps = append(steps, Step{
				Title:       fmt.Sprintf("Derivative of order %d", i),
				Markup:      current.LaTeX(),
				Explanation: fmt.Sprintf("Differentiate the previous expression with respect to %s.", req.Variable),
			})
		}
	}
	if req.Order == 1 {
		steps = append(steps, Step{
			Title:       "Result",
			Markup:      res.Markup(),
			Explanation: "Collect and simplify the differentiated terms.",
		})
	}
	return steps
}

func integralSteps(req *Request, res *Result) []Step {
	anti, ok := symbolic.Integrate(req.Expr, req.Variable)
	if !ok {
		return nil
	}
	steps := []Step{{
		Title:       "Find the antiderivative",
		Markup:      fmt.Sprintf("\\int %s \\, d%s = %s + C", req.Expr.LaTeX(), req.Variable, anti.LaTeX()),
		Explanation: "Integrate term by term using the power rule and the elementary antiderivative table.",
	}}
	if req.Definite {
		upper := anti.Substitute(req.Variable, req.Upper).Simplify()
		lower := anti.Substitute(req.Variable, req.Lower).Simplify()
		steps = append(steps, Step{
			Title:  "Evaluate at the bounds",
			Markup: fmt.Sprintf("F(%s) - F(%s) = %s - \\left(%s\\right)", req.Upper.LaTeX(), req.Lower.LaTeX(), upper.LaTeX(), lower.LaTeX()),
			Explanation: "By the fundamental theorem of calculus the definite integral is the antiderivative " +
				"evaluated at the upper bound minus its value at the lower bound.",
		})
		steps = append(steps, Step{
			Title:       "Result",
			Markup:      res.Markup(),
			Explanation: "Subtract exactly.",
		})
	}
	return steps
}

func limitSteps(req *Request, res *Result) []Step {
	sideNote := ""
	switch req.Side {
	case symbolic.SideLeft:
		sideNote = " from the left"
	case symbolic.SideRight:
		sideNote = " from the right"
	}
	return []Step{
		{
			Title:       "Set up the limit",
			Markup:      fmt.Sprintf("\\lim_{%s \\to %s} %s", req.Variable, req.Point.LaTeX(), req.Expr.LaTeX()),
			Explanation: fmt.Sprintf("Examine the behavior of the expression as %s approaches %s%s.", req.Variable, req.Point.String(), sideNote),
		},
		{
			Title:       "Result",
			Markup:      res.Markup(),
			Explanation: "Substitute directly where possible; otherwise compare growth of numerator and denominator.",
		},
	}
}

func factorSteps(req *Request, res *Result) []Step {
	if res.Value.Equal(req.Expr.Simplify()) {
		return []Step{{
			Title:       "Already factored",
			Markup:      res.Markup(),
			Explanation: "The expression has no further factorization over the rationals.",
		}}
	}
	return []Step{
		{
			Title:       "Find the roots",
			Markup:      req.Expr.LaTeX(),
			Explanation: "Each rational root r contributes a linear factor of the polynomial.",
		},
		{
			Title:       "Write as a product",
			Markup:      res.Markup(),
			Explanation: "Multiply the linear factors back together to confirm they reproduce the original polynomial.",
		},
	}
}

func rewriteSteps(req *Request, res *Result) []Step {
	verb := "Simplify"
	explanation := "Combine like terms and collapse constant subexpressions."
	if req.Op == OpExpand {
		verb = "Expand"
		explanation = "Distribute products over sums and multiply out powers."
	}
	return []Step{{
		Title:       verb,
		Markup:      fmt.Sprintf("%s = %s", req.Expr.LaTeX(), res.Markup()),
		Explanation: explanation,
	}}
}

func matrixSteps(req *Request, res *Result) []Step {
	var title, explanation string
	switch req.MatrixAction {
	case "det":
		title = "Determinant"
		explanation = "Expand along the first row by cofactors."
	case "inverse":
		title = "Inverse"
		explanation = "Divide the transposed cofactor matrix by the determinant."
	case "transpose":
		title = "Transpose"
		explanation = "Swap rows and columns."
	case "rref":
		title = "Row reduce"
		explanation = "Apply Gauss-Jordan elimination with exact pivots."
	}
	return []Step{
		{
			Title:       "Input matrix",
			Markup:      req.Matrix.LaTeX(),
			Explanation: "Read the matrix from the bracket literal.",
		},
		{
			Title:       title,
			Markup:      res.Markup(),
			Explanation: explanation,
		},
	}
}
