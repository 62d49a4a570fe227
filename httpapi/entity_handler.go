package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stigctl/engine/id"
	"github.com/stigctl/engine/store"
)

func (s *Server) handleGetEntity(w http.ResponseWriter, r *http.Request) {
	e, err := id.ParseEntity(chi.URLParam(r, "entity"))
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}

	var found bool
	err = withRead(r.Context(), s.Store, func(tx store.Tx) error {
		var txErr error
		found, txErr = tx.GetEntity(r.Context(), e)
		return txErr
	})
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}
	if !found {
		writeError(w, r, http.StatusNotFound, store.ErrNotFound)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"entity": e})
}

func (s *Server) handleListComponents(w http.ResponseWriter, r *http.Request) {
	e, err := id.ParseEntity(chi.URLParam(r, "entity"))
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}

	var components []*store.ComponentInstance
	err = withRead(r.Context(), s.Store, func(tx store.Tx) error {
		var txErr error
		components, txErr = tx.ListComponentsForEntity(r.Context(), e)
		return txErr
	})
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"components": components})
}

func (s *Server) handleGetComponent(w http.ResponseWriter, r *http.Request) {
	e, err := id.ParseEntity(chi.URLParam(r, "entity"))
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}
	component := chi.URLParam(r, "component")

	var inst *store.ComponentInstance
	err = withRead(r.Context(), s.Store, func(tx store.Tx) error {
		var txErr error
		inst, txErr = tx.GetComponent(r.Context(), e, component)
		return txErr
	})
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}
	if inst == nil {
		writeError(w, r, http.StatusNotFound, store.ErrNotFound)
		return
	}
	writeJSON(w, r, http.StatusOK, inst)
}
