package httpapi

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/stigctl/engine/bid"
)

type evaluateRequest struct {
	Expression string         `json:"expression"`
	Env        map[string]any `json:"env"`
}

type evaluateResponse struct {
	Matched bool `json:"matched"`
	Value   any  `json:"value,omitempty"`
}

// handleEvaluateBid compiles and evaluates a bid expression's wire form
// against the supplied JSON environment in one round trip; the bid
// engine itself never persists or sees storage.
func (s *Server) handleEvaluateBid(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	b, err := bid.Parse(req.Expression)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	value, matched, err := bid.Evaluate(b, req.Env)
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}
	writeJSON(w, r, http.StatusOK, evaluateResponse{Matched: matched, Value: value})
}
