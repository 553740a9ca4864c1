package symbolic

import (
	"errors"
	"math/big"
)

var (
	// ErrDoesNotExist marks a limit whose one-sided values disagree.
	ErrDoesNotExist = errors.New("does not exist")
	// ErrNoClosedForm marks input outside the closed-form rule tables.
	ErrNoClosedForm = errors.New("no closed form")
)

// Integrate returns an antiderivative of e with respect to name, without the
// integration constant. ok is false when no rule applies; the caller decides
// how to report that.
func Integrate(e Expr, name string) (Expr, bool) {
	if r, ok := integrate(e.Simplify(), name); ok {
		return r.Simplify(), true
	}
	// A polynomial in disguise ((x+1)^2, x(x-3)) integrates after expansion.
	expanded := Expand(e)
	if !expanded.Equal(e.Simplify()) {
		if r, ok := integrate(expanded, name); ok {
			return r.Simplify(), true
		}
	}
	return nil, false
}

func integrate(e Expr, name string) (Expr, bool) {
	x := NewSym(name)
	if !dependsOn(e, name) {
		return Product(e, x), true
	}
	switch v := e.(type) {
	case *Sym:
		// v depends on name, so it is the variable itself.
		return Quotient(Power(x, NewInt(2)), NewInt(2)), true
	case *Add:
		terms := make([]Expr, len(v.terms))
		for i, t := range v.terms {
			r, ok := integrate(t, name)
			if !ok {
				return nil, false
			}
			terms[i] = r
		}
		return Sum(terms...), true
	case *Mul:
		// Constants move outside; a single dependent factor remains tractable.
		var coeff []Expr
		var dep []Expr
		for _, f := range v.factors {
			if dependsOn(f, name) {
				dep = append(dep, f)
			} else {
				coeff = append(coeff, f)
			}
		}
		if len(dep) == 1 {
			r, ok := integrate(dep[0], name)
			if !ok {
				return nil, false
			}
			return Product(append(coeff, r)...), true
		}
		return nil, false
	case *Pow:
		n, ok := v.exp.(*Num)
		if !ok {
			return nil, false
		}
		a, _, linear := linearParts(v.base, name)
		if !linear {
			return nil, false
		}
		if n.Rat().Cmp(new(big.Rat).SetInt64(-1)) == 0 {
			// u^-1 -> ln|u| / a
			return Quotient(Ln(Abs(v.base)), NewRat(a)), true
		}
		// u^n -> u^(n+1) / (a(n+1))
		next := new(big.Rat).Add(n.Rat(), new(big.Rat).SetInt64(1))
		den := new(big.Rat).Mul(a, next)
		return Quotient(Power(v.base, NewRat(next)), NewRat(den)), true
	case *Fn:
		a, _, linear := linearParts(v.arg, name)
		if !linear {
			return nil, false
		}
		u := v.arg
		var anti Expr
		switch v.name {
		case "sin":
			anti = Neg(Cos(u))
		case "cos":
			anti = Sin(u)
		case "exp":
			anti = Exp(u)
		case "tan":
			anti = Neg(Ln(Abs(Cos(u))))
		case "ln":
			anti = Subtract(Product(u, Ln(u)), u)
		default:
			return nil, false
		}
		return Quotient(anti, NewRat(a)), true
	default:
		return nil, false
	}
}

// linearParts matches e against a*name + b with rational a != 0 and b.
func linearParts(e Expr, name string) (a, b *big.Rat, ok bool) {
	coeffs, ok := RatCoeffs(e, name)
	if !ok {
		return nil, nil, false
	}
	for d, c := range coeffs {
		if d > 1 && c.Sign() != 0 {
			return nil, nil, false
		}
	}
	a = new(big.Rat)
	if c, found := coeffs[1]; found {
		a.Set(c)
	}
	if a.Sign() == 0 {
		return nil, nil, false
	}
	b = new(big.Rat)
	if c, found := coeffs[0]; found {
		b.Set(c)
	}
	return a, b, true
}

// DefiniteIntegrate evaluates the integral of e over [lo, hi] exactly by the
// fundamental theorem: F(hi) - F(lo) for an antiderivative F. The theorem
// needs the integrand defined on the whole closed interval, so a singularity
// inside the interval or at a bound rejects the integral instead of producing
// a finite value for a divergent one.
func DefiniteIntegrate(e Expr, name string, lo, hi Expr) (Expr, bool) {
	anti, ok := Integrate(e, name)
	if !ok {
		return nil, false
	}
	if integrandSingularOn(e.Simplify(), name, lo, hi) {
		return nil, false
	}
	upper := anti.Substitute(name, hi).Simplify()
	lower := anti.Substitute(name, lo).Simplify()
	if hasUndefined(upper) || hasUndefined(lower) {
		return nil, false
	}
	return Subtract(upper, lower).Simplify(), true
}

// integrandSingularOn reports a singular point of e in [lo, hi]: a zero of a
// negative-power base or of a ln/log argument. Non-rational bounds skip the
// range check; the substituted values are still vetted by hasUndefined.
func integrandSingularOn(e Expr, name string, lo, hi Expr) bool {
	loV, okLo := lo.Eval()
	hiV, okHi := hi.Eval()
	if !okLo || !okHi {
		return false
	}
	a, b := loV, hiV
	if a.Cmp(b) > 0 {
		a, b = b, a
	}
	return anySingularity(e, name, a, b)
}

func anySingularity(e Expr, name string, lo, hi *big.Rat) bool {
	switch v := e.(type) {
	case *Add:
		for _, t := range v.terms {
			if anySingularity(t, name, lo, hi) {
				return true
			}
		}
	case *Mul:
		for _, f := range v.factors {
			if anySingularity(f, name, lo, hi) {
				return true
			}
		}
	case *Pow:
		if n, ok := v.exp.(*Num); ok && n.IsNegative() && rootInRange(v.base, name, lo, hi) {
			return true
		}
		return anySingularity(v.base, name, lo, hi) || anySingularity(v.exp, name, lo, hi)
	case *Fn:
		if (v.name == "ln" || v.name == "log") && rootInRange(v.arg, name, lo, hi) {
			return true
		}
		return anySingularity(v.arg, name, lo, hi)
	}
	return false
}

// rootInRange reports whether the polynomial base has a zero in [lo, hi]:
// a zero endpoint, a sign change across the interval, or a rational root
// inside it. Bases the coefficient extractor cannot read count as singular.
func rootInRange(base Expr, name string, lo, hi *big.Rat) bool {
	if !dependsOn(base, name) {
		return false
	}
	coeffs, ok := RatCoeffs(base, name)
	if !ok {
		return true
	}
	deg := 0
	for d, c := range coeffs {
		if c.Sign() != 0 && d > deg {
			deg = d
		}
	}
	poly := make([]*big.Rat, deg+1)
	for i := range poly {
		poly[i] = new(big.Rat)
		if c, found := coeffs[i]; found {
			poly[i].Set(c)
		}
	}
	atLo := evalPoly(poly, lo)
	atHi := evalPoly(poly, hi)
	if atLo.Sign() == 0 || atHi.Sign() == 0 {
		return true
	}
	if atLo.Sign() != atHi.Sign() {
		return true
	}
	// Even-multiplicity roots leave the endpoint signs equal; rational ones
	// still show up under the root theorem.
	if r, found := rationalRoot(poly); found && r.Cmp(lo) >= 0 && r.Cmp(hi) <= 0 {
		return true
	}
	return false
}

// hasUndefined reports subexpressions with no value, such as ln(0) or a
// negative power of zero, left behind by substituting a bound.
func hasUndefined(e Expr) bool {
	switch v := e.(type) {
	case *Add:
		for _, t := range v.terms {
			if hasUndefined(t) {
				return true
			}
		}
	case *Mul:
		for _, f := range v.factors {
			if hasUndefined(f) {
				return true
			}
		}
	case *Pow:
		if b, ok := v.base.(*Num); ok && b.IsZero() {
			if n, isNum := v.exp.(*Num); isNum && n.Rat().Sign() <= 0 {
				return true
			}
		}
		return hasUndefined(v.base) || hasUndefined(v.exp)
	case *Fn:
		if (v.name == "ln" || v.name == "log") && isZeroExpr(v.arg) {
			return true
		}
		return hasUndefined(v.arg)
	}
	return false
}

// Limit sides.
const (
	SideLeft  = "left"
	SideRight = "right"
	SideBoth  = "both"
)

const lhopitalDepth = 5

// probeStep is the exact offset used to sound out the sign of a pole.
var probeStep = new(big.Rat).SetFrac64(1, 1024)

// Limit computes lim e as name approaches point from the given side. A
// two-sided limit whose one-sided values disagree reports ErrDoesNotExist;
// input the rule set cannot decide reports ErrNoClosedForm.
func Limit(e Expr, name string, point Expr, side string) (Expr, error) {
	e = e.Simplify()
	if inf, ok := point.(*Inf); ok {
		return limitAtInfinity(e, name, inf.Sign())
	}
	return limitAtPoint(e, name, point, side, lhopitalDepth)
}

func limitAtPoint(e Expr, name string, point Expr, side string, depth int) (Expr, error) {
	num, den := splitQuotient(e)

	denVal := den.Substitute(name, point).Simplify()
	numVal := num.Substitute(name, point).Simplify()

	if !isZeroExpr(denVal) {
		if dependsOn(denVal, name) || dependsOn(numVal, name) {
			return nil, ErrNoClosedForm
		}
		return Quotient(numVal, denVal).Simplify(), nil
	}

	if isZeroExpr(numVal) {
		// 0/0: l'Hopital.
		if depth == 0 {
			return nil, ErrNoClosedForm
		}
		next := Quotient(num.Diff(name), den.Diff(name)).Simplify()
		return limitAtPoint(next, name, point, side, depth-1)
	}

	// Finite numerator over zero: a pole. A polynomial denominator gives the
	// side signs exactly from its factor structure at the point; anything else
	// falls back to a rational probe just off the point.
	p, ok := point.Eval()
	if !ok {
		return nil, ErrNoClosedForm
	}
	left, leftOK := poleSign(e, num, den, name, p, -1)
	right, rightOK := poleSign(e, num, den, name, p, 1)

	switch side {
	case SideLeft:
		if !leftOK {
			return nil, ErrNoClosedForm
		}
		return infOfSign(left)
	case SideRight:
		if !rightOK {
			return nil, ErrNoClosedForm
		}
		return infOfSign(right)
	default:
		if !leftOK || !rightOK {
			return nil, ErrNoClosedForm
		}
		if left != right {
			return nil, ErrDoesNotExist
		}
		return infOfSign(left)
	}
}

func infOfSign(sign int) (Expr, error) {
	switch {
	case sign > 0:
		return PosInf(), nil
	case sign < 0:
		return NegInf(), nil
	default:
		return nil, ErrNoClosedForm
	}
}

func probeSign(e Expr, name string, at *big.Rat) (int, bool) {
	v, ok := e.Substitute(name, NewRat(at)).Simplify().Eval()
	if !ok {
		return 0, false
	}
	return v.Sign(), true
}

// poleSign gives the sign of e just off the pole at p, dir < 0 for the left
// side.
func poleSign(e, num, den Expr, name string, p *big.Rat, dir int) (int, bool) {
	if s, ok := analyticPoleSign(num, den, name, p, dir); ok {
		return s, true
	}
	at := new(big.Rat).Set(p)
	if dir < 0 {
		at.Sub(at, probeStep)
	} else {
		at.Add(at, probeStep)
	}
	return probeSign(e, name, at)
}

// analyticPoleSign deflates (x - p)^m out of a polynomial denominator and
// reads the side sign as sign(num(p)) * sign(q(p)), flipped on the left for
// odd multiplicity m. The sign is exact regardless of how close any other
// denominator root sits to the point.
func analyticPoleSign(num, den Expr, name string, p *big.Rat, dir int) (int, bool) {
	coeffs, ok := RatCoeffs(den, name)
	if !ok {
		return 0, false
	}
	deg := 0
	for d, c := range coeffs {
		if c.Sign() != 0 && d > deg {
			deg = d
		}
	}
	poly := make([]*big.Rat, deg+1)
	for i := range poly {
		poly[i] = new(big.Rat)
		if c, found := coeffs[i]; found {
			poly[i].Set(c)
		}
	}
	mult := 0
	for len(poly) > 1 && evalPoly(poly, p).Sign() == 0 {
		poly = syntheticDivide(poly, p)
		mult++
	}
	if mult == 0 {
		return 0, false
	}
	denSign := evalPoly(poly, p).Sign()
	if denSign == 0 {
		return 0, false
	}
	numVal, ok := num.Substitute(name, NewRat(p)).Simplify().Eval()
	if !ok || numVal.Sign() == 0 {
		return 0, false
	}
	sign := numVal.Sign() * denSign
	if dir < 0 && mult%2 == 1 {
		sign = -sign
	}
	return sign, true
}

// limitAtInfinity handles rational functions by degree comparison and the
// monotone elementary functions directly.
func limitAtInfinity(e Expr, name string, dir int) (Expr, error) {
	if !dependsOn(e, name) {
		return e, nil
	}
	if f, ok := e.(*Fn); ok {
		arg, err := limitAtInfinity(f.arg, name, dir)
		if err != nil {
			return nil, err
		}
		return limitOfFn(f.name, arg)
	}

	num, den := splitQuotient(e)
	degN, leadN, okN := leadingTerm(num, name)
	degD, leadD, okD := leadingTerm(den, name)
	if !okN || !okD {
		return nil, ErrNoClosedForm
	}

	d := degN - degD
	lead := new(big.Rat).Quo(leadN, leadD)
	switch {
	case d < 0:
		return NewInt(0), nil
	case d == 0:
		return NewRat(lead), nil
	default:
		sign := lead.Sign()
		if dir < 0 && d%2 == 1 {
			sign = -sign
		}
		return infOfSign(sign)
	}
}

func limitOfFn(fn string, arg Expr) (Expr, error) {
	inf, isInf := arg.(*Inf)
	switch fn {
	case "exp":
		if isInf {
			if inf.Sign() > 0 {
				return PosInf(), nil
			}
			return NewInt(0), nil
		}
		return Exp(arg), nil
	case "ln":
		if isInf && inf.Sign() > 0 {
			return PosInf(), nil
		}
		return nil, ErrNoClosedForm
	case "abs":
		if isInf {
			return PosInf(), nil
		}
		return Abs(arg), nil
	case "sin", "cos", "tan":
		if isInf {
			// Oscillates without settling.
			return nil, ErrDoesNotExist
		}
		return nil, ErrNoClosedForm
	default:
		return nil, ErrNoClosedForm
	}
}

// leadingTerm reports the degree and leading coefficient of a polynomial.
func leadingTerm(e Expr, name string) (int, *big.Rat, bool) {
	coeffs, ok := RatCoeffs(e, name)
	if !ok {
		return 0, nil, false
	}
	deg := 0
	for d, c := range coeffs {
		if c.Sign() != 0 && d > deg {
			deg = d
		}
	}
	lead := new(big.Rat)
	if c, found := coeffs[deg]; found {
		lead.Set(c)
	}
	if lead.Sign() == 0 && deg == 0 {
		// The zero polynomial.
		return 0, lead, true
	}
	return deg, lead, true
}

// splitQuotient separates e into numerator and denominator by moving
// negative-exponent power factors below the bar.
func splitQuotient(e Expr) (num, den Expr) {
	flip := func(p *Pow) Expr {
		n := p.exp.(*Num)
		return Power(p.base, NewRat(new(big.Rat).Neg(n.Rat())))
	}
	if p, ok := e.(*Pow); ok {
		if n, isNum := p.exp.(*Num); isNum && n.IsNegative() {
			return NewInt(1), flip(p)
		}
	}
	m, ok := e.(*Mul)
	if !ok {
		return e, NewInt(1)
	}
	var top, bottom []Expr
	for _, f := range m.factors {
		if p, isPow := f.(*Pow); isPow {
			if n, isNum := p.exp.(*Num); isNum && n.IsNegative() {
				bottom = append(bottom, flip(p))
				continue
			}
		}
		top = append(top, f)
	}
	if len(bottom) == 0 {
		return e, NewInt(1)
	}
	return Product(append([]Expr{NewInt(1)}, top...)...), Product(bottom...)
}

// isZeroExpr reports whether the simplified expression is literally zero.
func isZeroExpr(e Expr) bool {
	n, ok := e.(*Num)
	return ok && n.IsZero()
}
