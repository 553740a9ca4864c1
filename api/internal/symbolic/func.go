package symbolic

import (
	"fmt"
	"math/big"
	"sort"
)

// Fn is a named unary function application.
type Fn struct {
	name string
	arg  Expr
}

func Sin(arg Expr) Expr { return (&Fn{name: "sin", arg: arg}).Simplify() }
func Cos(arg Expr) Expr { return (&Fn{name: "cos", arg: arg}).Simplify() }
func Tan(arg Expr) Expr { return (&Fn{name: "tan", arg: arg}).Simplify() }
func Exp(arg Expr) Expr { return (&Fn{name: "exp", arg: arg}).Simplify() }
func Ln(arg Expr) Expr  { return (&Fn{name: "ln", arg: arg}).Simplify() }
func Abs(arg Expr) Expr { return (&Fn{name: "abs", arg: arg}).Simplify() }

// knownFunctions is the allow-list the parser accepts. "log" is normalized to
// "ln" and "sqrt" to a 1/2 power at parse time.
var knownFunctions = map[string]func(Expr) Expr{
	"sin":  Sin,
	"cos":  Cos,
	"tan":  Tan,
	"exp":  Exp,
	"ln":   Ln,
	"abs":  Abs,
	"sqrt": Sqrt,
}

func (f *Fn) Name() string { return f.name }
func (f *Fn) Arg() Expr    { return f.arg }

func (f *Fn) Simplify() Expr {
	arg := f.arg.Simplify()
	if n, ok := arg.(*Num); ok {
		switch f.name {
		case "sin", "tan":
			if n.IsZero() {
				return NewInt(0)
			}
		case "cos":
			if n.IsZero() {
				return NewInt(1)
			}
		case "exp":
			if n.IsZero() {
				return NewInt(1)
			}
		case "ln":
			if n.IsOne() {
				return NewInt(0)
			}
		case "abs":
			v := n.Rat()
			if v.Sign() < 0 {
				v.Neg(v)
			}
			return NewRat(v)
		}
	}
	if s, ok := arg.(*Sym); ok {
		// sin(pi) = 0, cos(pi) = -1, ln(e) = 1.
		switch {
		case s.name == "pi" && f.name == "sin":
			return NewInt(0)
		case s.name == "pi" && f.name == "cos":
			return NewInt(-1)
		case s.name == "e" && f.name == "ln":
			return NewInt(1)
		}
	}
	return &Fn{name: f.name, arg: arg}
}

func (f *Fn) String() string { return f.name + "(" + f.arg.String() + ")" }

func (f *Fn) LaTeX() string {
	switch f.name {
	case "abs":
		return fmt.Sprintf("\\left|%s\\right|", f.arg.LaTeX())
	case "exp":
		return fmt.Sprintf("e^{%s}", f.arg.LaTeX())
	case "ln":
		return fmt.Sprintf("\\ln\\left(%s\\right)", f.arg.LaTeX())
	default:
		return fmt.Sprintf("\\%s\\left(%s\\right)", f.name, f.arg.LaTeX())
	}
}

func (f *Fn) Substitute(name string, value Expr) Expr {
	return (&Fn{name: f.name, arg: f.arg.Substitute(name, value)}).Simplify()
}

// Diff applies the table of elementary derivatives with the chain rule.
func (f *Fn) Diff(name string) Expr {
	inner := f.arg.Diff(name)
	var outer Expr
	switch f.name {
	case "sin":
		outer = Cos(f.arg)
	case "cos":
		outer = Neg(Sin(f.arg))
	case "tan":
		outer = Power(Cos(f.arg), NewInt(-2))
	case "exp":
		outer = Exp(f.arg)
	case "ln":
		outer = Power(f.arg, NewInt(-1))
	case "abs":
		// d/dx |u| = u/|u| * u'; undefined at zero, kept symbolic.
		outer = Quotient(f.arg, Abs(f.arg))
	default:
		return NewInt(0)
	}
	return Product(outer, inner)
}

// Eval: transcendental values have no exact rational form, so only the
// special cases collapsed by Simplify evaluate.
func (f *Fn) Eval() (*big.Rat, bool) {
	if f.name == "abs" {
		if v, ok := f.arg.Eval(); ok {
			out := new(big.Rat).Set(v)
			if out.Sign() < 0 {
				out.Neg(out)
			}
			return out, true
		}
	}
	return nil, false
}

func (f *Fn) Equal(other Expr) bool {
	o, ok := other.(*Fn)
	return ok && f.name == o.name && f.arg.Equal(o.arg)
}

func (f *Fn) sortKey() string { return "fn:" + f.name + "(" + f.arg.sortKey() + ")" }

// FreeVariables collects the variable names occurring in e, excluding the
// reserved constants.
func FreeVariables(e Expr) []string {
	seen := map[string]struct{}{}
	collectVars(e, seen)
	out := make([]string, 0, len(seen))
	for name := range seen {
		if name == "pi" || name == "e" || name == "i" {
			continue
		}
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func collectVars(e Expr, out map[string]struct{}) {
	switch v := e.(type) {
	case *Sym:
		out[v.name] = struct{}{}
	case *Add:
		for _, t := range v.terms {
			collectVars(t, out)
		}
	case *Mul:
		for _, f := range v.factors {
			collectVars(f, out)
		}
	case *Pow:
		collectVars(v.base, out)
		collectVars(v.exp, out)
	case *Fn:
		collectVars(v.arg, out)
	}
}
