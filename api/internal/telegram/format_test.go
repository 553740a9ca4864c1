package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tfeater/TfeaterMathLab/api/internal/engine"
	"github.com/Tfeater/TfeaterMathLab/api/internal/textsolve"
)

func TestFormatAnswer(t *testing.T) {
	out := engine.NewPipeline().Run(engine.Params{
		Operation:  engine.OpSolve,
		Expression: "x^2 - 5x + 6 = 0",
	})
	require.NotNil(t, out.Answer)

	text := formatAnswer(out.Answer, out.Answer.Steps)
	assert.Contains(t, text, "Result: 2, 3")
	assert.Contains(t, text, "1. ")
}

func TestFormatSolution(t *testing.T) {
	sol := &textsolve.Solution{
		Interpretation: "Multiply six by seven.",
		Steps: []textsolve.Step{
			{Title: "Multiply", Markup: "6 \\cdot 7 = 42", Explanation: "Single product."},
		},
		FinalAnswer: textsolve.FinalAnswer{Markup: "42", Explanation: "The product."},
	}
	text := formatSolution(sol)
	assert.Contains(t, text, "Multiply six by seven.")
	assert.Contains(t, text, "Answer: 42")
	assert.Contains(t, text, "1. Multiply")
}
