// Package natural turns casual problem statements ("differentiate x squared")
// into structured operation requests. Extraction failure is treated like a
// parse failure: the caller routes it into the fallback path.
package natural

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Tfeater/TfeaterMathLab/api/internal/engine"
)

// ExtractError reports text no operation or expression could be pulled from.
type ExtractError struct{ Msg string }

func (e *ExtractError) Error() string { return "natural: " + e.Msg }

// opKeywords maps spoken operation names to canonical operations. Order
// matters: the first hit wins, so the more specific verbs come first.
var opKeywords = []struct {
	op       string
	keywords []string
}{
	{engine.OpDerivative, []string{"derivative", "differentiate", "derive", "diff"}},
	{engine.OpIntegral, []string{"integral", "integrate", "antiderivative"}},
	{engine.OpLimit, []string{"limit", "approach"}},
	{engine.OpSimplify, []string{"simplify", "simplification"}},
	{engine.OpFactor, []string{"factorize", "factor"}},
	{engine.OpExpand, []string{"expand", "expansion"}},
	{engine.OpSolve, []string{"solve", "solution", "roots", "root", "zeros", "zero"}},
}

// reStopWords matches glue words removed after operation and notation
// extraction.
var reStopWords = regexp.MustCompile(
	`\b(of|for|the|find|calculate|compute|what|is|to|with|respect|by|please|me|as)\b`)

var (
	reSquared   = regexp.MustCompile(`(\w+)\s+squared`)
	reCubed     = regexp.MustCompile(`(\w+)\s+cubed`)
	rePower     = regexp.MustCompile(`(\w+)\s+to\s+the\s+power\s+(?:of\s+)?(\w+)`)
	reEToThe    = regexp.MustCompile(`e\s+(?:to\s+the|raised\s+to)\s+(\w+)`)
	reTimes     = regexp.MustCompile(`\s+times\s+`)
	rePlus      = regexp.MustCompile(`\s+plus\s+`)
	reMinus     = regexp.MustCompile(`\s+minus\s+`)
	reDividedBy = regexp.MustCompile(`\s+divided\s+by\s+`)
	reEquals    = regexp.MustCompile(`\s+(?:equals|equal\s+to)\s+`)
	reSpaces    = regexp.MustCompile(`\s+`)
	reJunk      = regexp.MustCompile(`[^\w\s\+\-\*\/\^\(\)\[\]\{\}\=\.\,]`)
)

// Extract parses a natural-language problem into pipeline params. The zero
// Params and a non-nil error mean no operation or no expression was found.
func Extract(text string) (engine.Params, error) {
	original := strings.TrimSpace(text)
	lower := strings.ToLower(original)

	op, found := detectOperation(lower)
	if !found {
		return engine.Params{}, &ExtractError{
			Msg: `could not detect an operation; use words like "solve", "derivative" or "integral"`,
		}
	}

	params := engine.Params{
		Operation:     op,
		OriginalInput: original,
	}
	exprText := lower
	if op == engine.OpDerivative {
		params.Order = 1
	}
	if op == engine.OpLimit {
		var clause string
		params.Point, params.Side, clause = extractLimitClause(lower)
		if clause != "" {
			exprText = strings.Replace(exprText, clause, " ", 1)
		}
		for _, phrase := range []string{"from the left", "from below", "from the right", "from above"} {
			exprText = strings.ReplaceAll(exprText, phrase, " ")
		}
	}

	expr := extractExpression(exprText)
	if expr == "" {
		return engine.Params{}, &ExtractError{Msg: "could not extract a mathematical expression"}
	}
	params.Expression = expr
	return params, nil
}

func detectOperation(text string) (string, bool) {
	for _, entry := range opKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(text, kw) {
				return entry.op, true
			}
		}
	}
	return "", false
}

func extractExpression(text string) string {
	// Notation first, then vocabulary removal, so "to the power" survives
	// long enough to be rewritten.
	text = wordsToMath(text)

	for _, entry := range opKeywords {
		for _, kw := range entry.keywords {
			text = strings.ReplaceAll(text, kw, " ")
		}
	}
	text = reStopWords.ReplaceAllString(text, " ")
	text = reJunk.ReplaceAllString(text, " ")
	text = reSpaces.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

func wordsToMath(text string) string {
	text = rePower.ReplaceAllString(text, "$1^$2")
	text = reSquared.ReplaceAllString(text, "$1^2")
	text = reCubed.ReplaceAllString(text, "$1^3")
	text = reEToThe.ReplaceAllString(text, "e^$1")
	text = reTimes.ReplaceAllString(text, "*")
	text = rePlus.ReplaceAllString(text, "+")
	text = reMinus.ReplaceAllString(text, "-")
	text = reDividedBy.ReplaceAllString(text, "/")
	text = reEquals.ReplaceAllString(text, "=")
	return text
}

var reApproaches = regexp.MustCompile(`(?:as\s+\w+\s+)?(?:approaches|approach|goes\s+to|at)\s+(-?\s*(?:infinity|oo|[a-z0-9\.]+))`)

// extractLimitClause pulls "as x approaches 0" style phrasing out of a limit
// request, reporting the matched clause so the caller can cut it from the
// expression text. The point defaults to 0 when nothing is named.
func extractLimitClause(text string) (point, side, clause string) {
	switch {
	case strings.Contains(text, "from the left"), strings.Contains(text, "from below"):
		side = "left"
	case strings.Contains(text, "from the right"), strings.Contains(text, "from above"):
		side = "right"
	}
	m := reApproaches.FindStringSubmatch(text)
	if m == nil {
		return "0", side, ""
	}
	return strings.ReplaceAll(m[1], " ", ""), side, m[0]
}

// Describe renders extracted params back into a short confirmation line.
func Describe(p engine.Params) string {
	out := fmt.Sprintf("Operation: %s, Expression: %s", p.Operation, p.Expression)
	if p.Variable != "" {
		out += ", Variable: " + p.Variable
	}
	return out
}
