package httpapi

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/stigctl/engine/graph"
	"github.com/stigctl/engine/id"
	"github.com/stigctl/engine/store"
)

// handleQueryEdges serves four graph query shapes over one endpoint,
// selected by which of src/dst/label query params are present:
//
//	src+dst+label  -> exact edge existence
//	src+label      -> every dst reachable from src via label
//	dst+label      -> every src reaching dst via label
//	src+dst        -> every label connecting src to dst
//
// A query naming only one of src, dst or label is rejected.
func (s *Server) handleQueryEdges(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	src, hasSrc, err := optionalEntity(q, "src")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	dst, hasDst, err := optionalEntity(q, "dst")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	label, hasLabel, err := optionalEntity(q, "label")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	var result any
	queryErr := withRead(r.Context(), s.Store, func(tx store.Tx) error {
		var txErr error
		switch {
		case hasSrc && hasDst && hasLabel:
			var exists bool
			exists, txErr = tx.EdgeExists(r.Context(), graph.Edge{Src: src, Dst: dst, Label: label})
			result = map[string]bool{"exists": exists}
		case hasSrc && hasLabel:
			var dsts []id.Entity
			dsts, txErr = tx.EdgesFromWithLabel(r.Context(), src, label)
			result = map[string][]id.Entity{"dsts": dsts}
		case hasDst && hasLabel:
			var srcs []id.Entity
			srcs, txErr = tx.EdgesToWithLabel(r.Context(), dst, label)
			result = map[string][]id.Entity{"srcs": srcs}
		case hasSrc && hasDst:
			var labels []id.Entity
			labels, txErr = tx.EdgesBetween(r.Context(), src, dst)
			result = map[string][]id.Entity{"labels": labels}
		default:
			txErr = fmt.Errorf("httpapi: query requires src+dst+label, src+label, dst+label, or src+dst")
		}
		return txErr
	})
	if queryErr != nil {
		writeError(w, r, statusFor(queryErr), queryErr)
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}

func optionalEntity(q url.Values, key string) (id.Entity, bool, error) {
	v := q.Get(key)
	if v == "" {
		return id.Entity{}, false, nil
	}
	e, err := id.ParseEntity(v)
	if err != nil {
		return id.Entity{}, false, err
	}
	return e, true, nil
}
