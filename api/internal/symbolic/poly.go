package symbolic

import (
	"math/big"
)

// RatCoeffs extracts rational coefficients of e viewed as a polynomial in the
// named variable. ok is false when e is not such a polynomial (non-integer or
// negative powers, the variable inside a function, symbolic coefficients).
func RatCoeffs(e Expr, name string) (coeffs map[int]*big.Rat, ok bool) {
	coeffs = map[int]*big.Rat{}
	if !addCoeffs(expandExpr(e).Simplify(), name, coeffs) {
		return nil, false
	}
	return coeffs, true
}

func addCoeffs(e Expr, name string, out map[int]*big.Rat) bool {
	switch v := e.(type) {
	case *Add:
		for _, t := range v.terms {
			if !addCoeffs(t, name, out) {
				return false
			}
		}
		return true
	default:
		deg, c, ok := monomial(e, name)
		if !ok {
			return false
		}
		acc, seen := out[deg]
		if !seen {
			acc = new(big.Rat)
			out[deg] = acc
		}
		acc.Add(acc, c)
		return true
	}
}

// monomial decomposes a term as c * name^deg.
func monomial(e Expr, name string) (deg int, c *big.Rat, ok bool) {
	switch v := e.(type) {
	case *Num:
		return 0, v.Rat(), true
	case *Sym:
		if v.name == name {
			return 1, new(big.Rat).SetInt64(1), true
		}
		return 0, nil, false
	case *Pow:
		base, isSym := v.base.(*Sym)
		exp, isNum := v.exp.(*Num)
		if !isSym || base.name != name || !isNum || !exp.IsInteger() {
			return 0, nil, false
		}
		n := exp.Rat().Num()
		if !n.IsInt64() || n.Int64() < 0 || n.Int64() > 64 {
			return 0, nil, false
		}
		return int(n.Int64()), new(big.Rat).SetInt64(1), true
	case *Mul:
		deg = 0
		c = new(big.Rat).SetInt64(1)
		for _, f := range v.factors {
			fd, fc, fok := monomial(f, name)
			if !fok {
				return 0, nil, false
			}
			deg += fd
			c.Mul(c, fc)
		}
		return deg, c, true
	default:
		return 0, nil, false
	}
}

// Degree reports the polynomial degree of e in the named variable, or -1 when
// e is not a polynomial in it.
func Degree(e Expr, name string) int {
	coeffs, ok := RatCoeffs(e, name)
	if !ok {
		return -1
	}
	max := 0
	for d, c := range coeffs {
		if c.Sign() != 0 && d > max {
			max = d
		}
	}
	return max
}

// SolveLinear solves a*x + b = 0 exactly.
func SolveLinear(a, b *big.Rat) Expr {
	r := new(big.Rat).Quo(b, a)
	r.Neg(r)
	return NewRat(r)
}

// SolveQuadratic solves a*x^2 + b*x + c = 0 by the quadratic formula, keeping
// radicals exact and producing i-terms for a negative discriminant. Roots come
// back in enumeration order (-b - sqrt(D))/2a, (-b + sqrt(D))/2a; a zero
// discriminant yields the single repeated root.
func SolveQuadratic(a, b, c *big.Rat) []Expr {
	disc := new(big.Rat).Mul(b, b)
	fourAC := new(big.Rat).Mul(new(big.Rat).Mul(a, c), new(big.Rat).SetInt64(4))
	disc.Sub(disc, fourAC)

	negB := new(big.Rat).Neg(b)
	twoA := new(big.Rat).Mul(a, new(big.Rat).SetInt64(2))

	if disc.Sign() == 0 {
		return []Expr{NewRat(new(big.Rat).Quo(negB, twoA))}
	}

	root := Sqrt(NewRat(disc))
	low := Quotient(Subtract(NewRat(negB), root), NewRat(twoA)).Simplify()
	high := Quotient(Sum(NewRat(negB), root), NewRat(twoA)).Simplify()
	return []Expr{low, high}
}
