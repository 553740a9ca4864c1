package symbolic

import (
	"fmt"
	"math/big"
	"regexp"
	"strings"
)

// ParseError reports input rejected by the normalizer. Anything outside the
// grammar's allow-list lands here; the resulting tree is evaluated later, so
// the parser is the safety boundary against code-like input.
type ParseError struct {
	Input string
	Msg   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %q: %s", e.Input, e.Msg)
}

// allowedVariables are the symbols accepted as free variables.
var allowedVariables = map[string]bool{
	"x": true, "y": true, "z": true, "t": true,
	"a": true, "b": true, "c": true, "n": true,
	"alpha": true, "beta": true, "gamma": true, "theta": true,
}

// reserved constant names.
var allowedConstants = map[string]bool{
	"pi": true, "e": true,
}

// Parse normalizes a plain-text expression ("x^2 - 5x + 6", "sin(x)/x") into
// a canonical Expr. Pure and deterministic.
func Parse(input string) (Expr, error) {
	toks, err := tokenize(input)
	if err != nil {
		return nil, err
	}
	p := &parser{input: input, toks: insertImplicitMul(toks)}
	e, err := p.parseSum()
	if err != nil {
		return nil, err
	}
	if !p.done() {
		return nil, &ParseError{Input: input, Msg: fmt.Sprintf("unexpected %q", p.peek().text)}
	}
	return e.Simplify(), nil
}

var (
	reFrac     = regexp.MustCompile(`\\frac\{([^{}]+)\}\{([^{}]+)\}`)
	reSqrt     = regexp.MustCompile(`\\sqrt\{([^{}]+)\}`)
	reBraceExp = regexp.MustCompile(`\^\{([^{}]+)\}`)
	reCommand  = regexp.MustCompile(`\\([a-zA-Z]+)`)
)

// ParseMarkup normalizes a LaTeX-style markup string (as produced by LaTeX()
// or claimed by the generative service) into the same canonical form.
func ParseMarkup(input string) (Expr, error) {
	s := strings.TrimSpace(input)
	for _, d := range [][2]string{{"$$", "$$"}, {"$", "$"}, {`\[`, `\]`}, {`\(`, `\)`}} {
		if strings.HasPrefix(s, d[0]) && strings.HasSuffix(s, d[1]) && len(s) > len(d[0])+len(d[1]) {
			s = strings.TrimSpace(s[len(d[0]) : len(s)-len(d[1])])
		}
	}

	// \frac{a}{b} -> (a)/(b), innermost first.
	for reFrac.MatchString(s) {
		s = reFrac.ReplaceAllString(s, "(($1)/($2))")
	}
	s = reSqrt.ReplaceAllString(s, "sqrt($1)")
	s = reBraceExp.ReplaceAllString(s, "^($1)")

	replacements := [][2]string{
		{`\cdot`, "*"}, {`\times`, "*"}, {`\div`, "/"},
		{`\left|`, "abs("}, {`\right|`, ")"},
		{`\left(`, "("}, {`\right)`, ")"},
		{`\left[`, "("}, {`\right]`, ")"},
		{`\pi`, " pi "}, {`\infty`, " infinity "},
		{`\ln`, "ln"}, {`\log`, "ln"}, {`\exp`, "exp"},
		{`\sin`, "sin"}, {`\cos`, "cos"}, {`\tan`, "tan"},
		{`\sqrt`, "sqrt"},
		{`\,`, " "}, {`\;`, " "}, {`\!`, ""},
	}
	for _, r := range replacements {
		s = strings.ReplaceAll(s, r[0], r[1])
	}
	// Remaining commands (\alpha, \theta, ...) become bare names.
	s = reCommand.ReplaceAllString(s, " $1 ")
	s = strings.ReplaceAll(s, "{", "(")
	s = strings.ReplaceAll(s, "}", ")")

	e, err := Parse(s)
	if err != nil {
		return nil, &ParseError{Input: input, Msg: "invalid markup: " + err.Error()}
	}
	return e, nil
}

// ------------------------------------------------------------------
// Lexer
// ------------------------------------------------------------------

type tokKind int

const (
	tokNum tokKind = iota
	tokIdent
	tokOp
	tokLParen
	tokRParen
)

type token struct {
	kind tokKind
	text string
}

func tokenize(input string) ([]token, error) {
	var toks []token
	s := []rune(input)
	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n':
			i++
		case c >= '0' && c <= '9' || c == '.':
			j := i
			for j < len(s) && (s[j] >= '0' && s[j] <= '9' || s[j] == '.') {
				j++
			}
			toks = append(toks, token{kind: tokNum, text: string(s[i:j])})
			i = j
		case c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z':
			j := i
			for j < len(s) && (s[j] >= 'a' && s[j] <= 'z' || s[j] >= 'A' && s[j] <= 'Z') {
				j++
			}
			word := strings.ToLower(string(s[i:j]))
			split, err := splitIdentRun(input, word)
			if err != nil {
				return nil, err
			}
			toks = append(toks, split...)
			i = j
		case strings.ContainsRune("+-*/^=,", c):
			toks = append(toks, token{kind: tokOp, text: string(c)})
			i++
		case c == '(':
			toks = append(toks, token{kind: tokLParen, text: "("})
			i++
		case c == ')':
			toks = append(toks, token{kind: tokRParen, text: ")"})
			i++
		default:
			return nil, &ParseError{Input: input, Msg: fmt.Sprintf("disallowed symbol %q", string(c))}
		}
	}
	if len(toks) == 0 {
		return nil, &ParseError{Input: input, Msg: "empty expression"}
	}
	return toks, nil
}

// splitIdentRun breaks a run of letters into known names: "xsin" is rejected,
// "xy" becomes x*y, "sinx" becomes sin x (implicit application is added by
// insertImplicitMul / the parser).
func splitIdentRun(input, word string) ([]token, error) {
	names := []string{"infinity", "alpha", "beta", "gamma", "theta", "sqrt",
		"sin", "cos", "tan", "exp", "abs", "inf", "ln", "log", "pi", "oo"}
	var toks []token
	for len(word) > 0 {
		matched := ""
		for _, n := range names {
			if strings.HasPrefix(word, n) {
				matched = n
				break
			}
		}
		if matched == "" {
			c := word[:1]
			if !allowedVariables[c] && !allowedConstants[c] && c != "i" {
				return nil, &ParseError{Input: input, Msg: fmt.Sprintf("unknown name %q", word)}
			}
			matched = c
		}
		word = word[len(matched):]
		switch matched {
		case "oo", "inf":
			matched = "infinity"
		case "log":
			matched = "ln"
		}
		toks = append(toks, token{kind: tokIdent, text: matched})
	}
	return toks, nil
}

// insertImplicitMul adds the multiplications the grammar implies:
// 2x, x(, )(, )x, 2(, x y.
func insertImplicitMul(toks []token) []token {
	out := make([]token, 0, len(toks)*2)
	for i, t := range toks {
		if i > 0 {
			prev := toks[i-1]
			prevValue := prev.kind == tokNum || prev.kind == tokRParen ||
				(prev.kind == tokIdent && !isFunctionName(prev.text))
			curValue := t.kind == tokNum || t.kind == tokLParen || t.kind == tokIdent
			if prevValue && curValue {
				out = append(out, token{kind: tokOp, text: "*"})
			}
		}
		out = append(out, t)
	}
	return out
}

func isFunctionName(name string) bool {
	_, ok := knownFunctions[name]
	return ok
}

// ------------------------------------------------------------------
// Recursive-descent parser: sum -> product -> unary -> power -> atom
// ------------------------------------------------------------------

type parser struct {
	input string
	toks  []token
	pos   int
}

func (p *parser) done() bool { return p.pos >= len(p.toks) }

func (p *parser) peek() token {
	if p.done() {
		return token{kind: tokOp, text: ""}
	}
	return p.toks[p.pos]
}

func (p *parser) accept(text string) bool {
	if !p.done() && p.toks[p.pos].text == text {
		p.pos++
		return true
	}
	return false
}

func (p *parser) errorf(format string, args ...any) error {
	return &ParseError{Input: p.input, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) parseSum() (Expr, error) {
	left, err := p.parseProduct()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.accept("+"):
			right, err := p.parseProduct()
			if err != nil {
				return nil, err
			}
			left = Sum(left, right)
		case p.accept("-"):
			right, err := p.parseProduct()
			if err != nil {
				return nil, err
			}
			left = Subtract(left, right)
		default:
			return left, nil
		}
	}
}

func (p *parser) parseProduct() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.accept("*"):
			right, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			left = Product(left, right)
		case p.accept("/"):
			right, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			if n, ok := right.(*Num); ok && n.IsZero() {
				return nil, p.errorf("division by zero")
			}
			left = Quotient(left, right)
		default:
			return left, nil
		}
	}
}

func (p *parser) parseUnary() (Expr, error) {
	if p.accept("-") {
		e, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return Neg(e), nil
	}
	if p.accept("+") {
		return p.parseUnary()
	}
	return p.parsePower()
}

func (p *parser) parsePower() (Expr, error) {
	base, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	if p.accept("^") {
		// Right-associative; unary minus allowed in the exponent, and the
		// recursion through parseUnary -> parsePower handles x^a^b.
		exp, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return Power(base, exp), nil
	}
	return base, nil
}

func (p *parser) parseAtom() (Expr, error) {
	t := p.peek()
	switch t.kind {
	case tokNum:
		p.pos++
		r := new(big.Rat)
		if _, ok := r.SetString(t.text); !ok {
			return nil, p.errorf("bad number %q", t.text)
		}
		return NewRat(r), nil
	case tokIdent:
		p.pos++
		if build, ok := knownFunctions[t.text]; ok {
			if !p.accept("(") {
				// "sin x" style application binds to the next power.
				arg, err := p.parsePower()
				if err != nil {
					return nil, err
				}
				return build(arg), nil
			}
			arg, err := p.parseSum()
			if err != nil {
				return nil, err
			}
			if !p.accept(")") {
				return nil, p.errorf("missing ) after %s", t.text)
			}
			return build(arg), nil
		}
		switch t.text {
		case "infinity":
			return PosInf(), nil
		case "pi", "e", "i":
			return NewSym(t.text), nil
		}
		if allowedVariables[t.text] {
			return NewSym(t.text), nil
		}
		return nil, p.errorf("unknown name %q", t.text)
	case tokLParen:
		p.pos++
		e, err := p.parseSum()
		if err != nil {
			return nil, err
		}
		if !p.accept(")") {
			return nil, p.errorf("missing )")
		}
		return e, nil
	default:
		if t.text == "" {
			return nil, p.errorf("unexpected end of input")
		}
		return nil, p.errorf("unexpected %q", t.text)
	}
}
