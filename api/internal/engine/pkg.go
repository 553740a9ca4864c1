package engine

// PackagedAnswer is the verified deliverable of the pipeline. MarkupResult is
// the canonical claim everything downstream is checked against; nothing may
// rewrite it after packaging.
type PackagedAnswer struct {
	Operation     string `json:"operation"`
	OriginalInput string `json:"original_input"`
	DisplayResult string `json:"display_result"`
	MarkupResult  string `json:"markup_result"`
	Steps         []Step `json:"steps"`
}

// Package renders the evaluation result into its final display and markup
// forms. Indefinite integrals pick up the integration constant here, once.
func Package(req *Request, res *Result, steps []Step) *PackagedAnswer {
	display := res.Display()
	markup := res.Markup()
	if req.Op == OpIntegral && !req.Definite {
		display += " + C"
		markup += " + C"
	}
	out := make([]Step, len(steps))
	copy(out, steps)
	return &PackagedAnswer{
		Operation:     req.Op,
		OriginalInput: req.OriginalInput,
		DisplayResult: display,
		MarkupResult:  markup,
		Steps:         out,
	}
}
