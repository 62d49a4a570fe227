package httpapi

import (
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/stigctl/engine/apply"
	"github.com/stigctl/engine/schema"
	"github.com/stigctl/engine/store"
)

func (s *Server) handleGetComponentDefinition(w http.ResponseWriter, r *http.Request) {
	component := chi.URLParam(r, "component")

	var def *store.ComponentDefinition
	err := withRead(r.Context(), s.Store, func(tx store.Tx) error {
		var txErr error
		def, txErr = tx.GetComponentDefinition(r.Context(), component)
		return txErr
	})
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}
	if def == nil {
		writeError(w, r, http.StatusNotFound, store.ErrNotFound)
		return
	}
	writeJSON(w, r, http.StatusOK, def)
}

func (s *Server) handleListComponentDefinitions(w http.ResponseWriter, r *http.Request) {
	var defs []*store.ComponentDefinition
	err := withRead(r.Context(), s.Store, func(tx store.Tx) error {
		var txErr error
		defs, txErr = tx.ListComponentDefinitions(r.Context())
		return txErr
	})
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"definitions": defs})
}

// handlePutComponentDefinition implements content-negotiated
// component-definition input: the schema body decodes as JSON or YAML
// depending on Content-Type, then runs through the same
// UpsertComponentDefinition apply operation the /apply endpoint uses, so
// validation and storage semantics never diverge between the two
// surfaces.
func (s *Server) handlePutComponentDefinition(w http.ResponseWriter, r *http.Request) {
	component := chi.URLParam(r, "component")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	var sch *schema.Schema
	if isYAML(r.Header.Get("Content-Type")) {
		sch, err = schema.DecodeYAML(body)
	} else {
		sch, err = schema.Decode(body)
	}
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	req := apply.Request{
		Operations: []apply.Operation{{
			Type:       apply.OpUpsertComponentDefinition,
			Definition: &store.ComponentDefinition{Component: component, Schema: sch},
		}},
	}
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

func isYAML(contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "yaml")
}
