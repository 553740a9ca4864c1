package symbolic

import (
	"regexp"
	"strings"
)

// trailingConstant matches an integration constant tacked onto an
// antiderivative ("... + C").
var trailingConstant = regexp.MustCompile(`\+\s*C\s*$`)

// Equivalent reports whether two markup strings denote the same mathematical
// object. Comma-separated lists compare as multisets, an integration constant
// on either side is ignored, and expressions compare by an exact
// zero-difference test. Input that neither side can parse falls back to a
// whitespace-insensitive string comparison, which keeps the check total for
// forms outside the grammar such as matrix environments.
func Equivalent(a, b string) bool {
	as := splitTopLevel(a)
	bs := splitTopLevel(b)
	if len(as) != len(bs) {
		return false
	}
	if len(as) > 1 {
		return multisetEquivalent(as, bs)
	}
	return equivalentOne(as[0], bs[0])
}

func multisetEquivalent(as, bs []string) bool {
	used := make([]bool, len(bs))
	for _, a := range as {
		found := false
		for i, b := range bs {
			if used[i] {
				continue
			}
			if equivalentOne(a, b) {
				used[i] = true
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func equivalentOne(a, b string) bool {
	a = stripConstant(a)
	b = stripConstant(b)

	ea, errA := ParseMarkup(a)
	eb, errB := ParseMarkup(b)
	if errA != nil || errB != nil {
		return normalizeFallback(a) == normalizeFallback(b)
	}
	diff := Subtract(ea, eb).Simplify()
	if isZeroExpr(diff) {
		return true
	}
	// Products and powers of sums cancel only after multiplying out.
	return isZeroExpr(Expand(diff))
}

func stripConstant(s string) string {
	return strings.TrimSpace(trailingConstant.ReplaceAllString(strings.TrimSpace(s), ""))
}

// splitTopLevel splits on commas outside any bracket or brace pair.
func splitTopLevel(s string) []string {
	var parts []string
	depth := 0
	start := 0
	for i, r := range s {
		switch r {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, s[start:])
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// normalizeFallback flattens formatting differences that do not change
// meaning: whitespace, sizing commands and dollar delimiters.
func normalizeFallback(s string) string {
	replacer := strings.NewReplacer(
		" ", "", "\t", "", "\n", "",
		`\left`, "", `\right`, "",
		`\,`, "", `\;`, "", `\!`, "",
		"$", "",
	)
	return replacer.Replace(replacer.Replace(s))
}
