// Package symbolic is a small exact symbolic-algebra kernel.
//
// All arithmetic is exact: numbers are big.Rat rationals, radicals stay
// radicals, and nothing is ever approximated to a float. Expression trees are
// immutable; every operation returns a new tree in canonical simplified form,
// so two mathematically equal inputs end up structurally comparable.
package symbolic

import (
	"fmt"
	"math/big"
	"sort"
	"strings"
)

// Expr is an immutable symbolic expression node.
type Expr interface {
	// Simplify returns the canonical simplified form. Applying it to its own
	// output yields an equal tree.
	Simplify() Expr
	// String renders a plain-text display form (e.g. "x^2 - 5*x + 6").
	String() string
	// LaTeX renders delimiter-free markup (e.g. "x^{2} - 5 x + 6").
	LaTeX() string
	// Substitute replaces every occurrence of the named variable.
	Substitute(name string, value Expr) Expr
	// Diff differentiates with respect to the named variable.
	Diff(name string) Expr
	// Eval reports the exact rational value when one exists.
	Eval() (*big.Rat, bool)
	// Equal is structural equality on simplified trees.
	Equal(other Expr) bool

	sortKey() string
}

// ------------------------------------------------------------------
// Num is an exact rational constant.
// ------------------------------------------------------------------

type Num struct{ val *big.Rat }

func NewInt(n int64) *Num  { return &Num{val: new(big.Rat).SetInt64(n)} }
func NewRat(r *big.Rat) *Num {
	return &Num{val: new(big.Rat).Set(r)}
}
func NewFrac(p, q int64) *Num {
	if q == 0 {
		panic("symbolic: zero denominator")
	}
	return &Num{val: new(big.Rat).SetFrac64(p, q)}
}

func (n *Num) Simplify() Expr                      { return n }
func (n *Num) Substitute(string, Expr) Expr        { return n }
func (n *Num) Diff(string) Expr                    { return NewInt(0) }
func (n *Num) Eval() (*big.Rat, bool)              { return new(big.Rat).Set(n.val), true }
func (n *Num) Rat() *big.Rat                       { return new(big.Rat).Set(n.val) }
func (n *Num) IsZero() bool                        { return n.val.Sign() == 0 }
func (n *Num) IsOne() bool                         { return n.val.Cmp(ratOne) == 0 }
func (n *Num) IsNegative() bool                    { return n.val.Sign() < 0 }
func (n *Num) IsInteger() bool                     { return n.val.IsInt() }

func (n *Num) Equal(other Expr) bool {
	o, ok := other.(*Num)
	return ok && n.val.Cmp(o.val) == 0
}

func (n *Num) String() string {
	if n.val.IsInt() {
		return n.val.Num().String()
	}
	return n.val.RatString()
}

func (n *Num) LaTeX() string {
	if n.val.IsInt() {
		return n.val.Num().String()
	}
	v := new(big.Rat).Set(n.val)
	sign := ""
	if v.Sign() < 0 {
		sign = "-"
		v.Neg(v)
	}
	return fmt.Sprintf("%s\\frac{%s}{%s}", sign, v.Num().String(), v.Denom().String())
}

func (n *Num) sortKey() string { return "~num:" + n.val.RatString() }

var (
	ratOne      = new(big.Rat).SetInt64(1)
	ratZero     = new(big.Rat)
	ratMinusOne = new(big.Rat).SetInt64(-1)
)

// ------------------------------------------------------------------
// Sym is a named variable or constant (pi, e, i).
// ------------------------------------------------------------------

type Sym struct{ name string }

func NewSym(name string) *Sym { return &Sym{name: name} }

func (s *Sym) Simplify() Expr        { return s }
func (s *Sym) Name() string          { return s.name }
func (s *Sym) String() string        { return s.name }
func (s *Sym) Eval() (*big.Rat, bool) { return nil, false }
func (s *Sym) sortKey() string       { return "sym:" + s.name }

func (s *Sym) Equal(other Expr) bool {
	o, ok := other.(*Sym)
	return ok && s.name == o.name
}

func (s *Sym) LaTeX() string {
	switch s.name {
	case "pi":
		return "\\pi"
	case "alpha", "beta", "gamma", "theta":
		return "\\" + s.name
	default:
		return s.name
	}
}

func (s *Sym) Substitute(name string, value Expr) Expr {
	if s.name == name {
		return value
	}
	return s
}

func (s *Sym) Diff(name string) Expr {
	if s.name == name {
		return NewInt(1)
	}
	return NewInt(0)
}

// ImaginaryUnit is the symbol produced by square roots of negative numbers.
func ImaginaryUnit() *Sym { return NewSym("i") }

// ------------------------------------------------------------------
// Inf is a signed infinity, produced by limits only.
// ------------------------------------------------------------------

type Inf struct{ sign int }

func PosInf() *Inf { return &Inf{sign: 1} }
func NegInf() *Inf { return &Inf{sign: -1} }

func (f *Inf) Simplify() Expr               { return f }
func (f *Inf) Substitute(string, Expr) Expr { return f }
func (f *Inf) Diff(string) Expr             { return NewInt(0) }
func (f *Inf) Eval() (*big.Rat, bool)       { return nil, false }
func (f *Inf) Sign() int                    { return f.sign }
func (f *Inf) sortKey() string              { return fmt.Sprintf("inf:%d", f.sign) }

func (f *Inf) Equal(other Expr) bool {
	o, ok := other.(*Inf)
	return ok && f.sign == o.sign
}

func (f *Inf) String() string {
	if f.sign < 0 {
		return "-infinity"
	}
	return "infinity"
}

func (f *Inf) LaTeX() string {
	if f.sign < 0 {
		return "-\\infty"
	}
	return "\\infty"
}

// ------------------------------------------------------------------
// Add is a sum of terms.
// ------------------------------------------------------------------

type Add struct{ terms []Expr }

// Sum builds a simplified sum.
func Sum(terms ...Expr) Expr { return (&Add{terms: terms}).Simplify() }

// Sub builds a - b.
func Subtract(a, b Expr) Expr { return Sum(a, Product(NewInt(-1), b)) }

func (a *Add) Terms() []Expr { return a.terms }

func (a *Add) Simplify() Expr {
	flat := make([]Expr, 0, len(a.terms))
	for _, t := range a.terms {
		switch s := t.Simplify().(type) {
		case *Add:
			flat = append(flat, s.terms...)
		default:
			flat = append(flat, s)
		}
	}

	// Collect like terms by the sort key of their non-numeric part.
	type group struct {
		coeff *big.Rat
		base  Expr
	}
	constant := new(big.Rat)
	groups := map[string]*group{}
	order := []string{}
	for _, t := range flat {
		if n, ok := t.(*Num); ok {
			constant.Add(constant, n.val)
			continue
		}
		coeff, base := splitCoeff(t)
		key := base.sortKey()
		g, seen := groups[key]
		if !seen {
			g = &group{coeff: new(big.Rat), base: base}
			groups[key] = g
			order = append(order, key)
		}
		g.coeff.Add(g.coeff, coeff)
	}

	sort.Sort(sort.Reverse(sort.StringSlice(order)))
	out := make([]Expr, 0, len(order)+1)
	for _, key := range order {
		g := groups[key]
		if g.coeff.Sign() == 0 {
			continue
		}
		if g.coeff.Cmp(ratOne) == 0 {
			out = append(out, g.base)
		} else {
			out = append(out, mulNoSimplify(NewRat(g.coeff), g.base).Simplify())
		}
	}
	if constant.Sign() != 0 {
		out = append(out, NewRat(constant))
	}

	switch len(out) {
	case 0:
		return NewInt(0)
	case 1:
		return out[0]
	}
	return &Add{terms: out}
}

// splitCoeff peels a leading rational coefficient off a term.
func splitCoeff(t Expr) (*big.Rat, Expr) {
	m, ok := t.(*Mul)
	if !ok {
		return new(big.Rat).Set(ratOne), t
	}
	coeff := new(big.Rat).Set(ratOne)
	rest := make([]Expr, 0, len(m.factors))
	for _, f := range m.factors {
		if n, isNum := f.(*Num); isNum {
			coeff.Mul(coeff, n.val)
			continue
		}
		rest = append(rest, f)
	}
	switch len(rest) {
	case 0:
		return coeff, NewInt(1)
	case 1:
		return coeff, rest[0]
	}
	return coeff, &Mul{factors: rest}
}

func (a *Add) String() string {
	var sb strings.Builder
	for i, t := range a.terms {
		s := t.String()
		if i == 0 {
			sb.WriteString(s)
			continue
		}
		if strings.HasPrefix(s, "-") {
			sb.WriteString(" - ")
			sb.WriteString(strings.TrimPrefix(s, "-"))
		} else {
			sb.WriteString(" + ")
			sb.WriteString(s)
		}
	}
	return sb.String()
}

func (a *Add) LaTeX() string {
	var sb strings.Builder
	for i, t := range a.terms {
		s := t.LaTeX()
		if i == 0 {
			sb.WriteString(s)
			continue
		}
		if strings.HasPrefix(s, "-") {
			sb.WriteString(" - ")
			sb.WriteString(strings.TrimPrefix(s, "-"))
		} else {
			sb.WriteString(" + ")
			sb.WriteString(s)
		}
	}
	return sb.String()
}

func (a *Add) Substitute(name string, value Expr) Expr {
	out := make([]Expr, len(a.terms))
	for i, t := range a.terms {
		out[i] = t.Substitute(name, value)
	}
	return Sum(out...)
}

func (a *Add) Diff(name string) Expr {
	out := make([]Expr, len(a.terms))
	for i, t := range a.terms {
		out[i] = t.Diff(name)
	}
	return Sum(out...)
}

func (a *Add) Eval() (*big.Rat, bool) {
	acc := new(big.Rat)
	for _, t := range a.terms {
		v, ok := t.Eval()
		if !ok {
			return nil, false
		}
		acc.Add(acc, v)
	}
	return acc, true
}

func (a *Add) Equal(other Expr) bool {
	o, ok := other.(*Add)
	if !ok || len(a.terms) != len(o.terms) {
		return false
	}
	for i := range a.terms {
		if !a.terms[i].Equal(o.terms[i]) {
			return false
		}
	}
	return true
}

func (a *Add) sortKey() string {
	keys := make([]string, len(a.terms))
	for i, t := range a.terms {
		keys[i] = t.sortKey()
	}
	return "add(" + strings.Join(keys, ",") + ")"
}

// ------------------------------------------------------------------
// Mul is a product of factors.
// ------------------------------------------------------------------

type Mul struct{ factors []Expr }

// Product builds a simplified product.
func Product(factors ...Expr) Expr { return (&Mul{factors: factors}).Simplify() }

// Quotient builds a / b as a * b^-1.
func Quotient(a, b Expr) Expr { return Product(a, Power(b, NewInt(-1))) }

// Neg builds -e.
func Neg(e Expr) Expr { return Product(NewInt(-1), e) }

func mulNoSimplify(factors ...Expr) Expr { return &Mul{factors: factors} }

func (m *Mul) Factors() []Expr { return m.factors }

func (m *Mul) Simplify() Expr {
	flat := make([]Expr, 0, len(m.factors))
	for _, f := range m.factors {
		switch s := f.Simplify().(type) {
		case *Mul:
			flat = append(flat, s.factors...)
		default:
			flat = append(flat, s)
		}
	}

	coeff := new(big.Rat).Set(ratOne)
	// Merge repeated bases into powers, keyed by the base's sort key.
	type group struct {
		base Expr
		exp  []Expr
	}
	groups := map[string]*group{}
	order := []string{}
	for _, f := range flat {
		if n, ok := f.(*Num); ok {
			coeff.Mul(coeff, n.val)
			continue
		}
		base, exp := f, Expr(NewInt(1))
		if p, ok := f.(*Pow); ok {
			base, exp = p.base, p.exp
		}
		key := base.sortKey()
		g, seen := groups[key]
		if !seen {
			g = &group{base: base}
			groups[key] = g
			order = append(order, key)
		}
		g.exp = append(g.exp, exp)
	}

	if coeff.Sign() == 0 {
		return NewInt(0)
	}

	sort.Strings(order)
	out := []Expr{}
	for _, key := range order {
		g := groups[key]
		var e Expr
		if len(g.exp) == 1 {
			e = g.exp[0]
		} else {
			e = Sum(g.exp...)
		}
		p := Power(g.base, e)
		if n, ok := p.(*Num); ok {
			coeff.Mul(coeff, n.val)
			continue
		}
		out = append(out, p)
	}

	if len(out) == 0 {
		return NewRat(coeff)
	}
	if coeff.Cmp(ratOne) != 0 {
		out = append([]Expr{NewRat(coeff)}, out...)
	}
	if len(out) == 1 {
		return out[0]
	}
	return &Mul{factors: out}
}

func needsParens(e Expr) bool {
	_, isAdd := e.(*Add)
	return isAdd
}

func (m *Mul) String() string {
	factors := m.factors
	prefix := ""
	// A bare -1 coefficient reads as a sign, not a factor.
	if n, ok := factors[0].(*Num); ok && len(factors) > 1 && n.val.Cmp(ratMinusOne) == 0 {
		prefix = "-"
		factors = factors[1:]
	}
	parts := make([]string, 0, len(factors))
	for _, f := range factors {
		s := f.String()
		if needsParens(f) {
			s = "(" + s + ")"
		}
		parts = append(parts, s)
	}
	return prefix + strings.Join(parts, "*")
}

func (m *Mul) LaTeX() string {
	// Render negative-exponent factors as a \frac when present.
	num, den := []Expr{}, []Expr{}
	for _, f := range m.factors {
		if p, ok := f.(*Pow); ok {
			if e, isNum := p.exp.(*Num); isNum && e.IsNegative() {
				den = append(den, Power(p.base, NewRat(new(big.Rat).Neg(e.val))))
				continue
			}
		}
		num = append(num, f)
	}
	if len(den) > 0 {
		var n Expr = NewInt(1)
		if len(num) > 0 {
			n = Product(num...)
		}
		return fmt.Sprintf("\\frac{%s}{%s}", n.LaTeX(), Product(den...).LaTeX())
	}

	factors := m.factors
	prefix := ""
	if n, ok := factors[0].(*Num); ok && len(factors) > 1 && n.val.Cmp(ratMinusOne) == 0 {
		prefix = "-"
		factors = factors[1:]
	}
	var sb strings.Builder
	sb.WriteString(prefix)
	for i, f := range factors {
		s := f.LaTeX()
		if needsParens(f) {
			s = "\\left(" + s + "\\right)"
		}
		if i > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(s)
	}
	return sb.String()
}

func (m *Mul) Substitute(name string, value Expr) Expr {
	out := make([]Expr, len(m.factors))
	for i, f := range m.factors {
		out[i] = f.Substitute(name, value)
	}
	return Product(out...)
}

// Diff applies the product rule across all factors.
func (m *Mul) Diff(name string) Expr {
	terms := make([]Expr, 0, len(m.factors))
	for i := range m.factors {
		parts := make([]Expr, len(m.factors))
		for j, f := range m.factors {
			if i == j {
				parts[j] = f.Diff(name)
			} else {
				parts[j] = f
			}
		}
		terms = append(terms, Product(parts...))
	}
	return Sum(terms...)
}

func (m *Mul) Eval() (*big.Rat, bool) {
	acc := new(big.Rat).Set(ratOne)
	for _, f := range m.factors {
		v, ok := f.Eval()
		if !ok {
			return nil, false
		}
		acc.Mul(acc, v)
	}
	return acc, true
}

func (m *Mul) Equal(other Expr) bool {
	o, ok := other.(*Mul)
	if !ok || len(m.factors) != len(o.factors) {
		return false
	}
	for i := range m.factors {
		if !m.factors[i].Equal(o.factors[i]) {
			return false
		}
	}
	return true
}

func (m *Mul) sortKey() string {
	keys := make([]string, len(m.factors))
	for i, f := range m.factors {
		keys[i] = f.sortKey()
	}
	return "mul(" + strings.Join(keys, ",") + ")"
}
