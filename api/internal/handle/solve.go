package handle

import (
	"context"
	"log"
	"net/http"

	"github.com/Tfeater/TfeaterMathLab/api/internal/engine"
	"github.com/Tfeater/TfeaterMathLab/api/internal/explain"
	"github.com/Tfeater/TfeaterMathLab/api/internal/natural"
)

// solveRequest accepts either structured params or free natural-language
// text; text is extracted into params first.
type solveRequest struct {
	engine.Params
	Text string `json:"text"`
}

// solveResponse is the success shape. The fallback contract is returned
// as-is with HTTP 200 instead: a redirect, not an error.
type solveResponse struct {
	Status        string        `json:"status"`
	Operation     string        `json:"operation"`
	OriginalInput string        `json:"original_input"`
	DisplayResult string        `json:"display_result"`
	MarkupResult  string        `json:"markup_result"`
	Steps         []engine.Step `json:"steps"`
	StepsSource   string        `json:"steps_source"`
}

// Solve is POST /api/solve.
func (h *Handle) Solve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "POST only"})
		return
	}
	var req solveRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	params := req.Params
	if params.Expression == "" && req.Text != "" {
		extracted, err := natural.Extract(req.Text)
		if err != nil {
			// Extraction failure follows the same road as a parse failure.
			writeJSON(w, http.StatusOK, &engine.FallbackContract{
				Status:        "fallback",
				Target:        "text-solve",
				OriginalInput: req.Text,
				ErrorKind:     "parse",
				ErrorMessage:  err.Error(),
			})
			return
		}
		params = extracted
	}

	out := engine.NewPipeline().Run(params)
	if out.Fallback != nil {
		writeJSON(w, http.StatusOK, out.Fallback)
		return
	}

	steps, source := h.overlay(r.Context(), out.Answer)
	h.persist(r.Context(), out.Answer, source, steps)

	writeJSON(w, http.StatusOK, &solveResponse{
		Status:        "ok",
		Operation:     out.Answer.Operation,
		OriginalInput: out.Answer.OriginalInput,
		DisplayResult: out.Answer.DisplayResult,
		MarkupResult:  out.Answer.MarkupResult,
		Steps:         steps,
		StepsSource:   source,
	})
}

func (h *Handle) overlay(ctx context.Context, answer *engine.PackagedAnswer) ([]engine.Step, string) {
	if h.explainer == nil {
		return answer.Steps, explain.SourceEngine
	}
	return h.explainer.Overlay(ctx, answer)
}

func (h *Handle) persist(ctx context.Context, answer *engine.PackagedAnswer, source string, steps []engine.Step) {
	if h.repo == nil {
		return
	}
	if err := h.repo.Insert(ctx, answer, source, steps); err != nil {
		log.Printf("store: insert calculation: %v", err)
	}
}
