package symbolic

import (
	"fmt"
	"math/big"
)

// Pow is a base raised to an exponent.
type Pow struct{ base, exp Expr }

// Power builds a simplified power.
func Power(base, exp Expr) Expr { return (&Pow{base: base, exp: exp}).Simplify() }

// Sqrt builds base^(1/2).
func Sqrt(base Expr) Expr { return Power(base, NewFrac(1, 2)) }

func (p *Pow) Base() Expr     { return p.base }
func (p *Pow) Exponent() Expr { return p.exp }

func (p *Pow) Simplify() Expr {
	base := p.base.Simplify()
	exp := p.exp.Simplify()

	if e, ok := exp.(*Num); ok {
		if e.IsZero() {
			return NewInt(1)
		}
		if e.IsOne() {
			return base
		}
		if b, ok := base.(*Num); ok {
			if r, done := ratPow(b.val, e.val); done {
				return r
			}
			if e.val.Cmp(new(big.Rat).SetFrac64(1, 2)) == 0 {
				return simplifySqrt(b.val)
			}
		}
		// (x^a)^b -> x^(a*b) for numeric exponents.
		if inner, ok := base.(*Pow); ok {
			if ie, ok := inner.exp.(*Num); ok {
				return Power(inner.base, NewRat(new(big.Rat).Mul(ie.val, e.val)))
			}
		}
		// Distribute integer powers over a product: (2x)^3 -> 8x^3.
		if m, ok := base.(*Mul); ok && e.IsInteger() {
			out := make([]Expr, len(m.factors))
			for i, f := range m.factors {
				out[i] = Power(f, e)
			}
			return Product(out...)
		}
	}
	if b, ok := base.(*Num); ok {
		if b.IsZero() {
			// Only a positive exponent collapses; 0^0 and 0^-n stay put.
			if n, isNum := exp.(*Num); isNum && n.Rat().Sign() > 0 {
				return NewInt(0)
			}
			return &Pow{base: base, exp: exp}
		}
		if b.IsOne() {
			return NewInt(1)
		}
	}
	// e^u is the exponential in canonical form.
	if s, ok := base.(*Sym); ok && s.name == "e" {
		return (&Fn{name: "exp", arg: exp}).Simplify()
	}
	return &Pow{base: base, exp: exp}
}

// ratPow computes r^e exactly for integer exponents of reasonable size.
func ratPow(r *big.Rat, e *big.Rat) (Expr, bool) {
	if !e.IsInt() || !e.Num().IsInt64() {
		return nil, false
	}
	n := e.Num().Int64()
	if n > 64 || n < -64 {
		return nil, false
	}
	if r.Sign() == 0 {
		if n <= 0 {
			// 0^0 and 0^negative have no exact value; leave unsimplified.
			return nil, false
		}
		return NewInt(0), true
	}
	neg := n < 0
	if neg {
		n = -n
	}
	num := new(big.Int).Exp(r.Num(), big.NewInt(n), nil)
	den := new(big.Int).Exp(r.Denom(), big.NewInt(n), nil)
	out := new(big.Rat).SetFrac(num, den)
	if neg {
		out.Inv(out)
	}
	return NewRat(out), true
}

// simplifySqrt reduces sqrt of a rational: perfect squares collapse, square
// factors are pulled out, and negative radicands produce i*sqrt(-r).
func simplifySqrt(r *big.Rat) Expr {
	if r.Sign() == 0 {
		return NewInt(0)
	}
	if r.Sign() < 0 {
		return Product(ImaginaryUnit(), simplifySqrt(new(big.Rat).Neg(r)))
	}
	outNum, inNum := extractSquare(r.Num())
	outDen, inDen := extractSquare(r.Denom())

	coeff := new(big.Rat).SetFrac(outNum, outDen)
	radicand := new(big.Rat).SetFrac(inNum, inDen)
	if radicand.Cmp(ratOne) == 0 {
		return NewRat(coeff)
	}
	root := &Pow{base: NewRat(radicand), exp: NewFrac(1, 2)}
	if coeff.Cmp(ratOne) == 0 {
		return root
	}
	return mulNoSimplify(NewRat(coeff), root)
}

// extractSquare splits n into out^2 * in with `in` square-free (by trial
// division; radicands in this domain are small).
func extractSquare(n *big.Int) (out, in *big.Int) {
	out = big.NewInt(1)
	in = new(big.Int).Set(n)
	for f := int64(2); f*f <= 4096; f++ {
		sq := big.NewInt(f * f)
		for new(big.Int).Mod(in, sq).Sign() == 0 {
			in.Div(in, sq)
			out.Mul(out, big.NewInt(f))
		}
	}
	// Catch large perfect squares missed by trial division.
	root := new(big.Int).Sqrt(in)
	if new(big.Int).Mul(root, root).Cmp(in) == 0 {
		out.Mul(out, root)
		in = big.NewInt(1)
	}
	return out, in
}

func (p *Pow) String() string {
	b := p.base.String()
	if needsParens(p.base) || isMul(p.base) || isPow(p.base) || isNegNum(p.base) {
		b = "(" + b + ")"
	}
	e := p.exp.String()
	if needsParens(p.exp) || isMul(p.exp) || isNegNum(p.exp) || isFrac(p.exp) {
		e = "(" + e + ")"
	}
	return b + "^" + e
}

func (p *Pow) LaTeX() string {
	// Negative exponent renders as a fraction, 1/2 as a square root.
	if e, ok := p.exp.(*Num); ok {
		if e.IsNegative() {
			inv := Power(p.base, NewRat(new(big.Rat).Neg(e.val)))
			return fmt.Sprintf("\\frac{1}{%s}", inv.LaTeX())
		}
		if e.val.Cmp(new(big.Rat).SetFrac64(1, 2)) == 0 {
			return fmt.Sprintf("\\sqrt{%s}", p.base.LaTeX())
		}
	}
	b := p.base.LaTeX()
	if needsParens(p.base) || isMul(p.base) || isPow(p.base) || isNegNum(p.base) || isFrac(p.base) {
		b = "\\left(" + b + "\\right)"
	}
	return fmt.Sprintf("%s^{%s}", b, p.exp.LaTeX())
}

func isMul(e Expr) bool { _, ok := e.(*Mul); return ok }
func isPow(e Expr) bool { _, ok := e.(*Pow); return ok }
func isNegNum(e Expr) bool {
	n, ok := e.(*Num)
	return ok && n.IsNegative()
}
func isFrac(e Expr) bool {
	n, ok := e.(*Num)
	return ok && !n.IsInteger()
}

func (p *Pow) Substitute(name string, value Expr) Expr {
	return Power(p.base.Substitute(name, value), p.exp.Substitute(name, value))
}

// Diff handles x^n (power rule), a^x (exponential) and the general chain rule
// for numeric exponents.
func (p *Pow) Diff(name string) Expr {
	baseDep := dependsOn(p.base, name)
	expDep := dependsOn(p.exp, name)
	switch {
	case !baseDep && !expDep:
		return NewInt(0)
	case baseDep && !expDep:
		// d/dx f^n = n * f^(n-1) * f'
		return Product(
			p.exp,
			Power(p.base, Subtract(p.exp, NewInt(1))),
			p.base.Diff(name),
		)
	case !baseDep && expDep:
		// d/dx a^g = a^g * ln(a) * g'
		return Product(Power(p.base, p.exp), Ln(p.base), p.exp.Diff(name))
	default:
		// f^g = exp(g ln f): f^g * (g' ln f + g f'/f)
		return Product(
			Power(p.base, p.exp),
			Sum(
				Product(p.exp.Diff(name), Ln(p.base)),
				Product(p.exp, Quotient(p.base.Diff(name), p.base)),
			),
		)
	}
}

func (p *Pow) Eval() (*big.Rat, bool) {
	b, ok := p.base.Eval()
	if !ok {
		return nil, false
	}
	e, ok := p.exp.Eval()
	if !ok {
		return nil, false
	}
	if b.Sign() == 0 && e.Sign() <= 0 {
		return nil, false
	}
	r, done := ratPow(b, e)
	if !done {
		return nil, false
	}
	n, ok := r.(*Num)
	if !ok {
		return nil, false
	}
	return n.Rat(), true
}

func (p *Pow) Equal(other Expr) bool {
	o, ok := other.(*Pow)
	return ok && p.base.Equal(o.base) && p.exp.Equal(o.exp)
}

func (p *Pow) sortKey() string {
	return p.base.sortKey() + "^" + p.exp.sortKey()
}

// dependsOn reports whether the named variable occurs in e.
func dependsOn(e Expr, name string) bool {
	switch v := e.(type) {
	case *Sym:
		return v.name == name
	case *Add:
		for _, t := range v.terms {
			if dependsOn(t, name) {
				return true
			}
		}
	case *Mul:
		for _, f := range v.factors {
			if dependsOn(f, name) {
				return true
			}
		}
	case *Pow:
		return dependsOn(v.base, name) || dependsOn(v.exp, name)
	case *Fn:
		return dependsOn(v.arg, name)
	}
	return false
}
