package engine

import (
	"errors"
	"math/big"
	"strings"

	"github.com/Tfeater/TfeaterMathLab/api/internal/symbolic"
)

// Result carries the exact outcome of one operation. Values holds root lists
// for solve; Value holds the single expression result otherwise; Matrix holds
// matrix-shaped results. AllValues marks an identity equation satisfied by
// every value of the variable.
type Result struct {
	Value     symbolic.Expr
	Values    []symbolic.Expr
	Matrix    *symbolic.Matrix
	AllValues bool
}

// Display renders the result for humans.
func (r *Result) Display() string {
	switch {
	case r.AllValues:
		return "all real numbers"
	case r.Matrix != nil:
		return r.Matrix.String()
	case r.Values != nil:
		parts := make([]string, len(r.Values))
		for i, v := range r.Values {
			parts[i] = v.String()
		}
		return strings.Join(parts, ", ")
	default:
		return r.Value.String()
	}
}

// Markup renders the result as delimiter-free markup.
func (r *Result) Markup() string {
	switch {
	case r.AllValues:
		return `\mathbb{R}`
	case r.Matrix != nil:
		return r.Matrix.LaTeX()
	case r.Values != nil:
		parts := make([]string, len(r.Values))
		for i, v := range r.Values {
			parts[i] = v.LaTeX()
		}
		return strings.Join(parts, ", ")
	default:
		return r.Value.LaTeX()
	}
}

// Evaluate dispatches a validated request to the symbolic kernel. Every error
// is an *EvaluationError; arithmetic stays exact throughout.
func Evaluate(req *Request) (*Result, error) {
	switch req.Op {
	case OpSolve:
		return evalSolve(req)
	case OpDerivative:
		return evalDerivative(req)
	case OpIntegral:
		return evalIntegral(req)
	case OpLimit:
		return evalLimit(req)
	case OpSimplify:
		return &Result{Value: req.Expr.Simplify()}, nil
	case OpFactor:
		return &Result{Value: symbolic.Factor(req.Expr, req.Variable)}, nil
	case OpExpand:
		return &Result{Value: symbolic.Expand(req.Expr)}, nil
	case OpMatrix:
		return evalMatrix(req)
	default:
		return nil, evalErrorf(KindUnsupportedOperation, "operation %q not implemented", req.Op)
	}
}

func evalSolve(req *Request) (*Result, error) {
	coeffs, ok := symbolic.RatCoeffs(req.Expr, req.Variable)
	if !ok {
		return nil, evalErrorf(KindUnsupportedDegree,
			"%q is not a polynomial in %s", req.Expr.String(), req.Variable)
	}
	deg := 0
	for d, c := range coeffs {
		if c.Sign() != 0 && d > deg {
			deg = d
		}
	}
	switch deg {
	case 0:
		// Constant equation: a non-zero constant has no roots; zero is an
		// identity holding for every value of the variable.
		if c, found := coeffs[0]; found && c.Sign() != 0 {
			return &Result{Values: []symbolic.Expr{}}, nil
		}
		return &Result{AllValues: true}, nil
	case 1:
		root := symbolic.SolveLinear(coeffs[1], ratOrZero(coeffs[0]))
		return &Result{Values: []symbolic.Expr{root}}, nil
	case 2:
		roots := symbolic.SolveQuadratic(coeffs[2], ratOrZero(coeffs[1]), ratOrZero(coeffs[0]))
		return &Result{Values: roots}, nil
	default:
		return nil, evalErrorf(KindUnsupportedDegree,
			"no closed-form solver for degree %d", deg)
	}
}

func ratOrZero(r *big.Rat) *big.Rat {
	if r == nil {
		return new(big.Rat)
	}
	return r
}

func evalDerivative(req *Request) (*Result, error) {
	// Order zero returns the normalized input unchanged.
	out := req.Expr.Simplify()
	for i := 0; i < req.Order; i++ {
		out = out.Diff(req.Variable).Simplify()
	}
	return &Result{Value: out}, nil
}

func evalIntegral(req *Request) (*Result, error) {
	if req.Definite {
		value, ok := symbolic.DefiniteIntegrate(req.Expr, req.Variable, req.Lower, req.Upper)
		if !ok {
			return nil, evalErrorf(KindNoClosedForm,
				"no closed-form antiderivative for %q", req.Expr.String())
		}
		if dependsOnVar(value, req.Variable) {
			return nil, evalErrorf(KindNoClosedForm,
				"definite integral of %q did not reduce to a constant", req.Expr.String())
		}
		return &Result{Value: value}, nil
	}
	anti, ok := symbolic.Integrate(req.Expr, req.Variable)
	if !ok {
		return nil, evalErrorf(KindNoClosedForm,
			"no closed-form antiderivative for %q", req.Expr.String())
	}
	return &Result{Value: anti}, nil
}

func dependsOnVar(e symbolic.Expr, name string) bool {
	for _, v := range symbolic.FreeVariables(e) {
		if v == name {
			return true
		}
	}
	return false
}

func evalLimit(req *Request) (*Result, error) {
	value, err := symbolic.Limit(req.Expr, req.Variable, req.Point, req.Side)
	if err != nil {
		if errors.Is(err, symbolic.ErrDoesNotExist) {
			return nil, evalErrorf(KindDoesNotExist,
				"limit of %q at %s does not exist", req.Expr.String(), req.Point.String())
		}
		return nil, evalErrorf(KindNoClosedForm,
			"cannot determine limit of %q", req.Expr.String())
	}
	return &Result{Value: value}, nil
}

func evalMatrix(req *Request) (*Result, error) {
	m := req.Matrix
	switch req.MatrixAction {
	case "det":
		det, err := m.Det()
		if err != nil {
			return nil, matrixError(err, m)
		}
		return &Result{Value: det}, nil
	case "inverse":
		inv, err := m.Inverse()
		if err != nil {
			return nil, matrixError(err, m)
		}
		return &Result{Matrix: inv}, nil
	case "transpose":
		return &Result{Matrix: m.Transpose()}, nil
	case "rref":
		return &Result{Matrix: m.RREF()}, nil
	default:
		return nil, evalErrorf(KindUnsupportedOperation,
			"unknown matrix operation %q", req.MatrixAction)
	}
}

func matrixError(err error, m *symbolic.Matrix) *EvaluationError {
	switch {
	case errors.Is(err, symbolic.ErrNonSquare):
		return evalErrorf(KindNonSquare, "%dx%d matrix is not square", m.Rows(), m.Cols())
	case errors.Is(err, symbolic.ErrSingular):
		return evalErrorf(KindSingular, "matrix has determinant zero")
	default:
		return evalErrorf(KindInvalidParams, "%s", err)
	}
}
