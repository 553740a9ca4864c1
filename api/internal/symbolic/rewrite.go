package symbolic

import (
	"math/big"
)

// Expand distributes products over sums and multiplies out small integer
// powers of sums. Idempotent: expanding an expanded expression is a no-op.
func Expand(e Expr) Expr {
	return expandExpr(e).Simplify()
}

func expandExpr(e Expr) Expr {
	switch v := e.(type) {
	case *Add:
		out := make([]Expr, len(v.terms))
		for i, t := range v.terms {
			out[i] = expandExpr(t)
		}
		return Sum(out...)
	case *Mul:
		factors := make([]Expr, len(v.factors))
		for i, f := range v.factors {
			factors[i] = expandExpr(f)
		}
		return distribute(factors)
	case *Pow:
		base := expandExpr(v.base)
		exp := expandExpr(v.exp)
		if n, ok := exp.(*Num); ok && n.IsInteger() && n.Rat().Num().IsInt64() {
			k := n.Rat().Num().Int64()
			if _, isSum := base.(*Add); isSum && k >= 2 && k <= 16 {
				factors := make([]Expr, k)
				for i := range factors {
					factors[i] = base
				}
				return distribute(factors)
			}
		}
		return Power(base, exp)
	case *Fn:
		return (&Fn{name: v.name, arg: expandExpr(v.arg)}).Simplify()
	default:
		return e
	}
}

// distribute multiplies out a factor list, crossing sums term by term.
func distribute(factors []Expr) Expr {
	terms := []Expr{NewInt(1)}
	for _, f := range factors {
		var fTerms []Expr
		if a, ok := f.(*Add); ok {
			fTerms = a.terms
		} else {
			fTerms = []Expr{f}
		}
		next := make([]Expr, 0, len(terms)*len(fTerms))
		for _, t := range terms {
			for _, ft := range fTerms {
				next = append(next, Product(t, ft))
			}
		}
		terms = next
	}
	return Sum(terms...)
}

// Factor rewrites a univariate polynomial as a product of its content, linear
// factors for every rational root, and an irreducible remainder. Non-polynomial
// input comes back simplified but otherwise untouched, so the operation is
// total and idempotent.
func Factor(e Expr, name string) Expr {
	simplified := e.Simplify()
	coeffs, ok := RatCoeffs(simplified, name)
	if !ok {
		return simplified
	}
	deg := 0
	for d, c := range coeffs {
		if c.Sign() != 0 && d > deg {
			deg = d
		}
	}
	if deg < 2 {
		return simplified
	}

	poly := make([]*big.Rat, deg+1)
	for i := range poly {
		poly[i] = new(big.Rat)
		if c, ok := coeffs[i]; ok {
			poly[i].Set(c)
		}
	}

	var factors []Expr

	// Pull out x^k for a zero constant term.
	zeros := 0
	for zeros < deg && poly[0].Sign() == 0 {
		poly = poly[1:]
		deg--
		zeros++
	}
	if zeros > 0 {
		factors = append(factors, Power(NewSym(name), NewInt(int64(zeros))))
	}

	// Peel rational roots by synthetic division.
	for deg >= 1 {
		if deg == 2 {
			if lin, ok := quadraticFactors(poly, name); ok {
				factors = append(factors, lin...)
				poly = []*big.Rat{new(big.Rat).Set(poly[2])}
				deg = 0
				break
			}
			break
		}
		root, found := rationalRoot(poly)
		if !found {
			break
		}
		factors = append(factors, Subtract(NewSym(name), NewRat(root)))
		poly = syntheticDivide(poly, root)
		deg--
	}

	lead := poly[len(poly)-1]
	if deg >= 1 {
		// Irreducible (over the rationals) remainder stays expanded.
		rem := polyExpr(poly, name)
		factors = append(factors, rem)
	} else if lead.Cmp(ratOne) != 0 {
		factors = append([]Expr{NewRat(lead)}, factors...)
	}

	if len(factors) == 0 {
		return simplified
	}
	return Product(factors...)
}

// quadraticFactors splits a*x^2+b*x+c into monic linear factors when both
// roots are rational.
func quadraticFactors(poly []*big.Rat, name string) ([]Expr, bool) {
	a, b, c := poly[2], poly[1], poly[0]
	disc := new(big.Rat).Mul(b, b)
	disc.Sub(disc, new(big.Rat).Mul(new(big.Rat).Mul(a, c), new(big.Rat).SetInt64(4)))
	if disc.Sign() < 0 {
		return nil, false
	}
	root, ok := ratSqrt(disc)
	if !ok {
		return nil, false
	}
	twoA := new(big.Rat).Mul(a, new(big.Rat).SetInt64(2))
	r1 := new(big.Rat).Neg(b)
	r1.Sub(r1, root)
	r1.Quo(r1, twoA)
	r2 := new(big.Rat).Neg(b)
	r2.Add(r2, root)
	r2.Quo(r2, twoA)
	return []Expr{
		Subtract(NewSym(name), NewRat(r1)),
		Subtract(NewSym(name), NewRat(r2)),
	}, true
}

// ratSqrt gives the exact rational square root of r, if one exists.
func ratSqrt(r *big.Rat) (*big.Rat, bool) {
	if r.Sign() < 0 {
		return nil, false
	}
	num := new(big.Int).Sqrt(r.Num())
	den := new(big.Int).Sqrt(r.Denom())
	if new(big.Int).Mul(num, num).Cmp(r.Num()) != 0 {
		return nil, false
	}
	if new(big.Int).Mul(den, den).Cmp(r.Denom()) != 0 {
		return nil, false
	}
	return new(big.Rat).SetFrac(num, den), true
}

// rationalRoot searches p/q candidates per the rational root theorem over the
// integer-scaled polynomial. Coefficient sizes in this domain are small, so
// plain divisor enumeration is fine.
func rationalRoot(poly []*big.Rat) (*big.Rat, bool) {
	scaled, ok := scaleToInt(poly)
	if !ok {
		return nil, false
	}
	c0 := scaled[0]
	cn := scaled[len(scaled)-1]
	for _, p := range divisors(c0) {
		for _, q := range divisors(cn) {
			for _, sign := range []int64{1, -1} {
				cand := new(big.Rat).SetFrac(
					new(big.Int).Mul(big.NewInt(sign), p),
					new(big.Int).Set(q),
				)
				if evalPoly(poly, cand).Sign() == 0 {
					return cand, true
				}
			}
		}
	}
	return nil, false
}

// scaleToInt clears denominators; gives up on coefficients too large to
// enumerate divisors for.
func scaleToInt(poly []*big.Rat) ([]*big.Int, bool) {
	lcm := big.NewInt(1)
	for _, c := range poly {
		d := c.Denom()
		g := new(big.Int).GCD(nil, nil, lcm, d)
		lcm.Mul(lcm, new(big.Int).Div(d, g))
	}
	out := make([]*big.Int, len(poly))
	for i, c := range poly {
		v := new(big.Rat).Mul(c, new(big.Rat).SetInt(lcm))
		if !v.IsInt() || !v.Num().IsInt64() {
			return nil, false
		}
		out[i] = new(big.Int).Set(v.Num())
	}
	return out, true
}

func divisors(n *big.Int) []*big.Int {
	v := new(big.Int).Abs(n)
	if v.Sign() == 0 {
		return []*big.Int{big.NewInt(0)}
	}
	if !v.IsInt64() || v.Int64() > 100000 {
		return nil
	}
	limit := v.Int64()
	var out []*big.Int
	for d := int64(1); d*d <= limit; d++ {
		if limit%d == 0 {
			out = append(out, big.NewInt(d))
			if other := limit / d; other != d {
				out = append(out, big.NewInt(other))
			}
		}
	}
	return out
}

func evalPoly(poly []*big.Rat, at *big.Rat) *big.Rat {
	// Horner.
	acc := new(big.Rat)
	for i := len(poly) - 1; i >= 0; i-- {
		acc.Mul(acc, at)
		acc.Add(acc, poly[i])
	}
	return acc
}

// syntheticDivide divides poly by (x - root); the caller guarantees root is a
// root, so the remainder is discarded.
func syntheticDivide(poly []*big.Rat, root *big.Rat) []*big.Rat {
	n := len(poly) - 1
	out := make([]*big.Rat, n)
	carry := new(big.Rat)
	for i := n; i >= 1; i-- {
		carry.Mul(carry, root)
		carry.Add(carry, poly[i])
		out[i-1] = new(big.Rat).Set(carry)
	}
	return out
}

// polyExpr rebuilds an expression from dense coefficients.
func polyExpr(poly []*big.Rat, name string) Expr {
	var terms []Expr
	for i, c := range poly {
		if c.Sign() == 0 {
			continue
		}
		terms = append(terms, Product(NewRat(c), Power(NewSym(name), NewInt(int64(i)))))
	}
	if len(terms) == 0 {
		return NewInt(0)
	}
	return Sum(terms...)
}
