package telegram

import (
	"fmt"
	"strings"

	"github.com/Tfeater/TfeaterMathLab/api/internal/engine"
	"github.com/Tfeater/TfeaterMathLab/api/internal/textsolve"
)

func formatAnswer(answer *engine.PackagedAnswer, steps []engine.Step) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Result: %s\n", answer.DisplayResult)
	if len(steps) > 0 {
		b.WriteString("\n")
	}
	for i, s := range steps {
		fmt.Fprintf(&b, "%d. %s\n", i+1, s.Title)
		if s.Markup != "" {
			fmt.Fprintf(&b, "   %s\n", s.Markup)
		}
		if s.Explanation != "" {
			fmt.Fprintf(&b, "   %s\n", s.Explanation)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatSolution(sol *textsolve.Solution) string {
	var b strings.Builder
	if sol.Interpretation != "" {
		fmt.Fprintf(&b, "%s\n\n", sol.Interpretation)
	}
	for i, s := range sol.Steps {
		fmt.Fprintf(&b, "%d. %s\n", i+1, s.Title)
		if s.Markup != "" {
			fmt.Fprintf(&b, "   %s\n", s.Markup)
		}
		if s.Explanation != "" {
			fmt.Fprintf(&b, "   %s\n", s.Explanation)
		}
	}
	fmt.Fprintf(&b, "\nAnswer: %s", sol.FinalAnswer.Markup)
	if sol.FinalAnswer.Explanation != "" {
		fmt.Fprintf(&b, "\n%s", sol.FinalAnswer.Explanation)
	}
	return b.String()
}
