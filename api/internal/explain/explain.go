// Package explain overlays a natural-language explanation from a generative
// model onto a verified answer. The model is asked to explain, not to
// recompute; its claimed final answer must match the canonical markup or the
// whole candidate is discarded.
package explain

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/Tfeater/TfeaterMathLab/api/internal/engine"
	"github.com/Tfeater/TfeaterMathLab/api/internal/llm"
	"github.com/Tfeater/TfeaterMathLab/api/internal/symbolic"
)

// Step sources reported to the client.
const (
	SourceAI     = "ai"
	SourceEngine = "engine"
)

// DefaultTimeout bounds one generative call.
const DefaultTimeout = 10 * time.Second

type Explainer struct {
	completer llm.Completer
	timeout   time.Duration
}

func New(completer llm.Completer, timeout time.Duration) *Explainer {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Explainer{completer: completer, timeout: timeout}
}

// candidate is the structured reply expected from the model. Ephemeral: it
// never outlives Overlay.
type candidate struct {
	Steps       []engine.Step `json:"steps"`
	FinalAnswer string        `json:"final_answer"`
}

const systemPrompt = `You are a math tutor. You are given a problem, its already-verified
final answer in LaTeX, and the derivation steps a computer algebra engine produced.
Rewrite the derivation as clear, friendly teaching steps. Do NOT recompute or change
the final answer. Return STRICT JSON:
{
  "steps": [{"title": string, "markup": string, "explanation": string}, ...],
  "final_answer": string  // the final answer in LaTeX, must equal the given one
}`

// Overlay asks the model to narrate the answer and verifies the claim. It
// returns the steps to show and their source; the answer itself is never
// modified. Retries exactly once with correction context, then gives up and
// keeps the engine steps. Total: never returns an error.
func (e *Explainer) Overlay(ctx context.Context, answer *engine.PackagedAnswer) ([]engine.Step, string) {
	if e == nil || e.completer == nil {
		return answer.Steps, SourceEngine
	}

	user := e.userPrompt(answer, "")
	cand, err := e.ask(ctx, user)
	if err != nil {
		log.Printf("explain: first attempt discarded: %v", err)
		return answer.Steps, SourceEngine
	}
	if symbolic.Equivalent(cand.FinalAnswer, answer.MarkupResult) {
		return cand.Steps, SourceAI
	}

	// One retry with the mismatch spelled out.
	correction := fmt.Sprintf(
		"Your previous final_answer %q does not match the verified answer %q. "+
			"Explain the verified answer; do not change it.",
		cand.FinalAnswer, answer.MarkupResult)
	cand, err = e.ask(ctx, e.userPrompt(answer, correction))
	if err != nil {
		log.Printf("explain: retry discarded: %v", err)
		return answer.Steps, SourceEngine
	}
	if symbolic.Equivalent(cand.FinalAnswer, answer.MarkupResult) {
		return cand.Steps, SourceAI
	}
	log.Printf("explain: retry still contradicts verified answer, keeping engine steps")
	return answer.Steps, SourceEngine
}

func (e *Explainer) userPrompt(answer *engine.PackagedAnswer, correction string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Problem (%s): %s\n", answer.Operation, answer.OriginalInput)
	fmt.Fprintf(&b, "Verified final answer (LaTeX): %s\n", answer.MarkupResult)
	b.WriteString("Engine steps:\n")
	for i, s := range answer.Steps {
		fmt.Fprintf(&b, "%d. %s: %s (%s)\n", i+1, s.Title, s.Markup, s.Explanation)
	}
	if correction != "" {
		b.WriteString("\nCORRECTION: ")
		b.WriteString(correction)
	}
	return b.String()
}

// ask runs one bounded generative call and strict-parses the reply.
func (e *Explainer) ask(ctx context.Context, user string) (*candidate, error) {
	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	raw, err := e.completer.Complete(callCtx, systemPrompt, user)
	if err != nil {
		return nil, err
	}
	var cand candidate
	if err := json.Unmarshal([]byte(raw), &cand); err != nil {
		return nil, &llm.ResponseError{Msg: "bad JSON: " + err.Error()}
	}
	if len(cand.Steps) == 0 {
		return nil, &llm.ResponseError{Msg: "no steps"}
	}
	for i, s := range cand.Steps {
		if strings.TrimSpace(s.Markup) == "" && strings.TrimSpace(s.Explanation) == "" {
			return nil, &llm.ResponseError{Msg: fmt.Sprintf("step %d is empty", i+1)}
		}
	}
	if strings.TrimSpace(cand.FinalAnswer) == "" {
		return nil, &llm.ResponseError{Msg: "missing final_answer"}
	}
	return &cand, nil
}
