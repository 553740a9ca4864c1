package handle

import (
	"encoding/json"
	"net/http"

	"github.com/Tfeater/TfeaterMathLab/api/internal/explain"
	"github.com/Tfeater/TfeaterMathLab/api/internal/store"
	"github.com/Tfeater/TfeaterMathLab/api/internal/textsolve"
)

type Handle struct {
	explainer *explain.Explainer
	solver    *textsolve.Solver
	repo      *store.CalculationRepo
}

func New(explainer *explain.Explainer, solver *textsolve.Solver, repo *store.CalculationRepo) *Handle {
	return &Handle{
		explainer: explainer,
		solver:    solver,
		repo:      repo,
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
