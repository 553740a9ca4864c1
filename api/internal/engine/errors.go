package engine

import "fmt"

// EvaluationError kinds. The kind travels into the fallback contract, so the
// values are part of the wire format.
const (
	KindUnsupportedDegree    = "unsupported-degree"
	KindNoClosedForm         = "no-closed-form"
	KindDoesNotExist         = "does-not-exist"
	KindInvalidParams        = "invalid-params"
	KindUnsupportedOperation = "unsupported-operation"
	KindNonSquare            = "non-square"
	KindSingular             = "singular"
)

// EvaluationError reports input that parsed cleanly but cannot be evaluated
// to a closed form by the deterministic engine.
type EvaluationError struct {
	Kind string
	Msg  string
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("evaluate: %s: %s", e.Kind, e.Msg)
}

func evalErrorf(kind, format string, args ...any) *EvaluationError {
	return &EvaluationError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}
