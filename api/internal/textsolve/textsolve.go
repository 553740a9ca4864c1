// Package textsolve handles free-form word problems that the deterministic
// pipeline cannot: it asks the generative model to solve and explain, with a
// strict reply schema. This path never emits a fallback contract; its errors
// are typed and surface to the caller as displayable failures.
package textsolve

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/Tfeater/TfeaterMathLab/api/internal/llm"
)

// MaxProblemLen bounds free-text input.
const MaxProblemLen = 4000

// ErrTooLong reports input over MaxProblemLen; the transport maps it to a
// client error.
var ErrTooLong = errors.New("problem text too long")

// ErrEmpty reports blank input.
var ErrEmpty = errors.New("problem text is empty")

// DefaultTimeout bounds one generative call.
const DefaultTimeout = 10 * time.Second

// Step mirrors the engine step shape so both paths render the same way.
type Step struct {
	Title       string `json:"title"`
	Markup      string `json:"markup"`
	Explanation string `json:"explanation"`
}

// FinalAnswer is the model's concluding claim.
type FinalAnswer struct {
	Markup      string `json:"markup"`
	Explanation string `json:"explanation"`
}

// Solution is the validated reply.
type Solution struct {
	Problem        string      `json:"problem"`
	Interpretation string      `json:"interpretation"`
	Steps          []Step      `json:"steps"`
	FinalAnswer    FinalAnswer `json:"final_answer"`
}

type Solver struct {
	completer llm.Completer
	timeout   time.Duration
}

func New(completer llm.Completer, timeout time.Duration) *Solver {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Solver{completer: completer, timeout: timeout}
}

const systemPrompt = `You are a careful math tutor solving a word problem. Restate the problem,
explain your interpretation, solve it step by step, and give a final answer.
All math goes in LaTeX without surrounding dollar signs. Return STRICT JSON:
{
  "problem": string,
  "interpretation": string,
  "steps": [{"title": string, "markup": string, "explanation": string}, ...],
  "final_answer": {"markup": string, "explanation": string}
}`

// Solve runs the free-text path. Malformed JSON is retried exactly once;
// service failures come back as the llm package's typed errors.
func (s *Solver) Solve(ctx context.Context, problem string) (*Solution, error) {
	problem = strings.TrimSpace(problem)
	if problem == "" {
		return nil, ErrEmpty
	}
	if len(problem) > MaxProblemLen {
		return nil, ErrTooLong
	}
	if s.completer == nil {
		return nil, &llm.ConfigError{Msg: "no generative engine configured"}
	}

	sol, err := s.ask(ctx, problem)
	var rerr *llm.ResponseError
	if errors.As(err, &rerr) {
		log.Printf("textsolve: malformed reply, retrying once: %v", err)
		sol, err = s.ask(ctx, problem)
	}
	if err != nil {
		return nil, err
	}
	return sol, nil
}

func (s *Solver) ask(ctx context.Context, problem string) (*Solution, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.completer.Complete(callCtx, systemPrompt, "Problem: "+problem)
	if err != nil {
		return nil, err
	}
	var sol Solution
	if err := json.Unmarshal([]byte(raw), &sol); err != nil {
		return nil, &llm.ResponseError{Msg: "bad JSON: " + err.Error()}
	}
	if err := validate(&sol); err != nil {
		return nil, err
	}
	if sol.Problem == "" {
		sol.Problem = problem
	}
	return &sol, nil
}

func validate(sol *Solution) error {
	if len(sol.Steps) == 0 {
		return &llm.ResponseError{Msg: "no steps"}
	}
	if strings.TrimSpace(sol.FinalAnswer.Markup) == "" {
		return &llm.ResponseError{Msg: "missing final_answer.markup"}
	}
	for i, st := range sol.Steps {
		if strings.TrimSpace(st.Markup) == "" && strings.TrimSpace(st.Explanation) == "" {
			return &llm.ResponseError{Msg: fmt.Sprintf("empty step %d", i+1)}
		}
	}
	return nil
}
