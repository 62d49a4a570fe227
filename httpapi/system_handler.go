package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/stigctl/engine/apply"
	"github.com/stigctl/engine/store"
	"github.com/stigctl/engine/system"
)

func (s *Server) handleGetSystem(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var sys *system.System
	err := withRead(r.Context(), s.Store, func(tx store.Tx) error {
		var txErr error
		sys, txErr = tx.GetSystem(r.Context(), name)
		return txErr
	})
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}
	if sys == nil {
		writeError(w, r, http.StatusNotFound, store.ErrNotFound)
		return
	}
	writeJSON(w, r, http.StatusOK, sys)
}

func (s *Server) handlePutSystem(w http.ResponseWriter, r *http.Request) {
	var sys system.System
	if err := json.NewDecoder(r.Body).Decode(&sys); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	req := apply.Request{Operations: []apply.Operation{{Type: apply.OpUpsertSystem, System: &sys}}}
	resp, err := apply.Run(r.Context(), s.Store, req)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	s.journalBatch(r, req, resp)

	status := http.StatusOK
	if !resp.Committed {
		status = http.StatusBadRequest
	}
	writeJSON(w, r, status, resp)
}
