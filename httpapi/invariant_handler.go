package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stigctl/engine/id"
	"github.com/stigctl/engine/store"
)

func (s *Server) handleGetInvariant(w http.ResponseWriter, r *http.Request) {
	invID, err := id.ParseInvariantID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}

	var inv *store.Invariant
	err = withRead(r.Context(), s.Store, func(tx store.Tx) error {
		var txErr error
		inv, txErr = tx.GetInvariant(r.Context(), invID)
		return txErr
	})
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}
	if inv == nil {
		writeError(w, r, http.StatusNotFound, store.ErrNotFound)
		return
	}
	writeJSON(w, r, http.StatusOK, inv)
}
