package engine

import (
	"fmt"
	"strings"

	"github.com/Tfeater/TfeaterMathLab/api/internal/symbolic"
)

// Operation names accepted by the pipeline.
const (
	OpSolve      = "solve"
	OpDerivative = "derivative"
	OpIntegral   = "integral"
	OpLimit      = "limit"
	OpSimplify   = "simplify"
	OpFactor     = "factor"
	OpExpand     = "expand"
	OpMatrix     = "matrix"
)

// MaxExpressionLen bounds raw expression input.
const MaxExpressionLen = 1000

// MaxDerivativeOrder bounds repeated differentiation.
const MaxDerivativeOrder = 10

// Params is the raw, untrusted request as it arrives from a transport layer.
type Params struct {
	Operation     string `json:"operation"`
	Expression    string `json:"expression"`
	OriginalInput string `json:"original_input"`
	Variable      string `json:"variable"`
	Order         int    `json:"order"`
	Definite      bool   `json:"definite"`
	Lower         string `json:"lower"`
	Upper         string `json:"upper"`
	Point         string `json:"point"`
	Side          string `json:"side"`
	MatrixOp      string `json:"matrix_op"`
}

// Request is a validated operation request. Construction through BuildRequest
// is the only way to get one, so downstream code never re-checks parameters.
type Request struct {
	Op            string
	OriginalInput string
	Expr          symbolic.Expr
	Matrix        *symbolic.Matrix
	Variable      string
	Order         int
	Definite      bool
	Lower, Upper  symbolic.Expr
	Point         symbolic.Expr
	Side          string
	MatrixAction  string
}

// aliases maps accepted operation spellings to their canonical name.
var aliases = map[string]string{
	"solve":         OpSolve,
	"derivative":    OpDerivative,
	"differentiate": OpDerivative,
	"diff":          OpDerivative,
	"integral":      OpIntegral,
	"integrate":     OpIntegral,
	"limit":         OpLimit,
	"simplify":      OpSimplify,
	"factor":        OpFactor,
	"expand":        OpExpand,
	"matrix":        OpMatrix,
	"matrix-op":     OpMatrix,
}

// BuildRequest validates raw params into a Request. It returns
// *symbolic.ParseError for bad expressions and *EvaluationError for bad
// operation parameters; both feed the fallback path.
func BuildRequest(p Params) (*Request, error) {
	op, ok := aliases[strings.ToLower(strings.TrimSpace(p.Operation))]
	if !ok {
		return nil, evalErrorf(KindUnsupportedOperation, "unknown operation %q", p.Operation)
	}
	raw := strings.TrimSpace(p.Expression)
	if raw == "" {
		return nil, &symbolic.ParseError{Input: raw, Msg: "empty expression"}
	}
	if len(raw) > MaxExpressionLen {
		return nil, &symbolic.ParseError{Input: truncate(raw), Msg: "expression too long"}
	}

	req := &Request{
		Op:            op,
		OriginalInput: p.OriginalInput,
		Side:          strings.TrimSpace(p.Side),
	}
	if req.OriginalInput == "" {
		req.OriginalInput = raw
	}

	if op == OpMatrix {
		m, err := symbolic.ParseMatrixLiteral(raw)
		if err != nil {
			return nil, err
		}
		req.Matrix = m
		req.Variable = "x"
		action := strings.ToLower(strings.TrimSpace(p.MatrixOp))
		switch action {
		case "det", "determinant":
			action = "det"
		case "inverse", "inv":
			action = "inverse"
		case "transpose":
		case "rref":
		default:
			return nil, evalErrorf(KindUnsupportedOperation, "unknown matrix operation %q", p.MatrixOp)
		}
		req.MatrixAction = action
		return req, nil
	}

	expr, err := parseExpression(raw, op)
	if err != nil {
		return nil, err
	}
	req.Expr = expr
	req.Variable = pickVariable(p.Variable, expr)

	switch op {
	case OpDerivative:
		req.Order = p.Order
		if req.Order < 0 || req.Order > MaxDerivativeOrder {
			return nil, evalErrorf(KindInvalidParams, "derivative order %d out of range 0..%d", req.Order, MaxDerivativeOrder)
		}
	case OpIntegral:
		req.Definite = p.Definite || (p.Lower != "" && p.Upper != "")
		if req.Definite {
			if p.Lower == "" || p.Upper == "" {
				return nil, evalErrorf(KindInvalidParams, "definite integral needs both bounds")
			}
			lo, err := parseBound(p.Lower)
			if err != nil {
				return nil, err
			}
			hi, err := parseBound(p.Upper)
			if err != nil {
				return nil, err
			}
			req.Lower, req.Upper = lo, hi
		}
	case OpLimit:
		if strings.TrimSpace(p.Point) == "" {
			return nil, evalErrorf(KindInvalidParams, "limit needs a point")
		}
		point, err := parsePoint(p.Point)
		if err != nil {
			return nil, err
		}
		req.Point = point
		switch req.Side {
		case "":
			req.Side = symbolic.SideBoth
		case symbolic.SideLeft, symbolic.SideRight, symbolic.SideBoth:
		default:
			return nil, evalErrorf(KindInvalidParams, "unknown limit side %q", p.Side)
		}
	}
	return req, nil
}

// parseExpression handles equations for solve by moving everything to one
// side; other operations reject '='.
func parseExpression(raw, op string) (symbolic.Expr, error) {
	if idx := strings.Index(raw, "="); idx >= 0 {
		if op != OpSolve {
			return nil, &symbolic.ParseError{Input: truncate(raw), Msg: "'=' only makes sense when solving"}
		}
		lhs, err := parseEither(raw[:idx])
		if err != nil {
			return nil, err
		}
		rhs, err := parseEither(raw[idx+1:])
		if err != nil {
			return nil, err
		}
		return symbolic.Subtract(lhs, rhs), nil
	}
	return parseEither(raw)
}

// parseEither accepts plain text first and falls back to markup so LaTeX-ish
// input from the bot or the generative model still normalizes.
func parseEither(raw string) (symbolic.Expr, error) {
	e, err := symbolic.Parse(raw)
	if err == nil {
		return e, nil
	}
	if strings.ContainsAny(raw, `\${}`) {
		if m, merr := symbolic.ParseMarkup(raw); merr == nil {
			return m, nil
		}
	}
	return nil, err
}

func parseBound(raw string) (symbolic.Expr, error) {
	e, err := parseEither(raw)
	if err != nil {
		return nil, err
	}
	if vars := symbolic.FreeVariables(e); len(vars) > 0 {
		return nil, evalErrorf(KindInvalidParams, "bound %q is not exactly evaluable", raw)
	}
	return e, nil
}

// parsePoint normalizes a limit point, folding -infinity into a signed
// infinity value.
func parsePoint(raw string) (symbolic.Expr, error) {
	e, err := parseEither(raw)
	if err != nil {
		return nil, err
	}
	if inf, ok := asInfinity(e); ok {
		return inf, nil
	}
	if vars := symbolic.FreeVariables(e); len(vars) > 0 {
		return nil, evalErrorf(KindInvalidParams, "limit point %q must be a constant", raw)
	}
	return e, nil
}

// asInfinity matches infinity and c*infinity for a signed coefficient.
func asInfinity(e symbolic.Expr) (*symbolic.Inf, bool) {
	if inf, ok := e.(*symbolic.Inf); ok {
		return inf, true
	}
	m, ok := e.(*symbolic.Mul)
	if !ok {
		return nil, false
	}
	sign := 1
	var inf *symbolic.Inf
	for _, f := range m.Factors() {
		switch v := f.(type) {
		case *symbolic.Num:
			if v.IsNegative() {
				sign = -sign
			}
		case *symbolic.Inf:
			inf = v
		default:
			return nil, false
		}
	}
	if inf == nil {
		return nil, false
	}
	if sign*inf.Sign() < 0 {
		return symbolic.NegInf(), true
	}
	return symbolic.PosInf(), true
}

// pickVariable uses the caller's choice, else the single free variable, else x.
func pickVariable(requested string, e symbolic.Expr) string {
	v := strings.TrimSpace(requested)
	if v != "" {
		return v
	}
	vars := symbolic.FreeVariables(e)
	if len(vars) == 1 {
		return vars[0]
	}
	for _, name := range vars {
		if name == "x" {
			return name
		}
	}
	if len(vars) > 0 {
		return vars[0]
	}
	return "x"
}

func truncate(s string) string {
	if len(s) <= 80 {
		return s
	}
	return fmt.Sprintf("%s...", s[:77])
}
