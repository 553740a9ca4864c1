package handle

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/Tfeater/TfeaterMathLab/api/internal/llm"
	"github.com/Tfeater/TfeaterMathLab/api/internal/textsolve"
)

const maxBodyBytes = 64 << 10

type solveTextRequest struct {
	Problem string `json:"problem"`
}

type errorResponse struct {
	Status    string `json:"status"`
	ErrorType string `json:"error_type"`
	Message   string `json:"message"`
}

// SolveText is POST /api/solve-text: the free-form path. Its failures are
// typed, displayable errors; it never redirects anywhere.
func (h *Handle) SolveText(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "POST only"})
		return
	}
	var req solveTextRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if h.solver == nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Status: "error", ErrorType: "config", Message: "free-text solver is not configured",
		})
		return
	}

	sol, err := h.solver.Solve(r.Context(), req.Problem)
	if err != nil {
		code, kind := classifyTextError(err)
		writeJSON(w, code, errorResponse{Status: "error", ErrorType: kind, Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"solution": sol,
	})
}

func classifyTextError(err error) (int, string) {
	var (
		cfgErr  *llm.ConfigError
		apiErr  *llm.APIError
		tmoErr  *llm.TimeoutError
		respErr *llm.ResponseError
	)
	switch {
	case errors.Is(err, textsolve.ErrEmpty), errors.Is(err, textsolve.ErrTooLong):
		return http.StatusBadRequest, "validation"
	case errors.As(err, &cfgErr):
		return http.StatusInternalServerError, "config"
	case errors.As(err, &tmoErr):
		return http.StatusBadGateway, "timeout"
	case errors.As(err, &apiErr):
		return http.StatusBadGateway, "api"
	case errors.As(err, &respErr):
		return http.StatusBadGateway, "response"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func decodeBody(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if len(body) == 0 {
		return fmt.Errorf("empty body")
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("bad JSON: %w", err)
	}
	return nil
}
