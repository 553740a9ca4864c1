package engine

import (
	"errors"
	"log"

	"github.com/Tfeater/TfeaterMathLab/api/internal/symbolic"
)

// FallbackContract is the uniform redirect emitted when the deterministic
// pipeline cannot produce an answer. It is a payload, not an HTTP error: the
// caller forwards the original input to the free-text solver.
type FallbackContract struct {
	Status        string `json:"status"`
	Target        string `json:"target"`
	OriginalInput string `json:"original_input"`
	ErrorKind     string `json:"error_kind"`
	ErrorMessage  string `json:"error_message"`
}

const (
	fallbackStatus = "fallback"
	fallbackTarget = "text-solve"
)

// Pipeline states.
const (
	stateActive   = "pipeline-active"
	stateFallback = "fallback-emitted"
)

// Pipeline runs normalize -> evaluate -> synthesize -> package for a single
// request and coordinates the fallback. It is a two-state machine: once a
// fallback is emitted the state is terminal and the request is done. A fresh
// Pipeline is built per request; there is no shared state.
type Pipeline struct {
	state string
}

// NewPipeline returns a pipeline in the active state.
func NewPipeline() *Pipeline {
	return &Pipeline{state: stateActive}
}

// State exposes the machine state for observability.
func (p *Pipeline) State() string { return p.state }

// Outcome is exactly one of Answer or Fallback.
type Outcome struct {
	Answer   *PackagedAnswer   `json:"answer,omitempty"`
	Fallback *FallbackContract `json:"fallback,omitempty"`
}

// Run executes the pipeline. Any parse or evaluation failure before packaging
// emits the fallback contract; nothing after packaging can. The method is
// total: it never returns an error to the caller.
func (p *Pipeline) Run(params Params) Outcome {
	original := params.OriginalInput
	if original == "" {
		original = params.Expression
	}

	req, err := BuildRequest(params)
	if err != nil {
		return p.fallback(original, err)
	}

	res, err := Evaluate(req)
	if err != nil {
		return p.fallback(original, err)
	}

	steps := SynthesizeSteps(req, res)
	answer := Package(req, res, steps)
	return Outcome{Answer: answer}
}

// fallback transitions the machine to its terminal state and builds the
// contract. Kind is "parse" for normalizer failures and the evaluation error
// kind otherwise.
func (p *Pipeline) fallback(original string, err error) Outcome {
	p.state = stateFallback

	kind := KindUnsupportedOperation
	var perr *symbolic.ParseError
	var eerr *EvaluationError
	switch {
	case errors.As(err, &perr):
		kind = "parse"
	case errors.As(err, &eerr):
		kind = eerr.Kind
	}
	log.Printf("pipeline fallback: kind=%s err=%v", kind, err)

	return Outcome{Fallback: &FallbackContract{
		Status:        fallbackStatus,
		Target:        fallbackTarget,
		OriginalInput: original,
		ErrorKind:     kind,
		ErrorMessage:  err.Error(),
	}}
}
