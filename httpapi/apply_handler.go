package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/hlog"

	"github.com/stigctl/engine/apply"
	"github.com/stigctl/engine/savefile"
)

// handleApply runs POST /apply: decode the batch, run it transactionally,
// journal every attempted operation, and return the per-operation result
// list alongside the overall commit flag.
func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	var req apply.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	resp, err := apply.Run(r.Context(), s.Store, req)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("httpapi: apply failed")
		writeError(w, r, http.StatusInternalServerError, err)
		return
	}

	s.journalBatch(r, req, resp)
	writeJSON(w, r, http.StatusOK, resp)
}

// journalBatch appends one SaveEntry per attempted operation. A committed
// batch logs every operation as Success; a rolled-back batch logs every
// operation as Failed, since none of its effects persisted.
func (s *Server) journalBatch(r *http.Request, req apply.Request, resp apply.Response) {
	if s.Journal == nil {
		return
	}
	status := savefile.StatusSuccess
	if !resp.Committed {
		status = savefile.StatusFailed
	}
	meta := savefile.RestAPI(middleware.GetReqID(r.Context())).WithStatus(status)
	for i, op := range req.Operations {
		resolveGeneratedIDs(&op, resp.Results[i])
		s.Journal.SaveOrLog(savefile.NewEntry(op, meta))
	}
}

// resolveGeneratedIDs back-fills an operation's server-generated ID with
// the one apply.Run actually resolved, so a journaled create_entity or
// upsert_invariant that omitted its ID on the wire replays against the
// same ID on restore instead of minting a fresh random one.
func resolveGeneratedIDs(op *apply.Operation, result apply.OperationResult) {
	switch op.Type {
	case apply.OpCreateEntity:
		if op.Entity == nil {
			op.Entity = result.Entity
		}
	case apply.OpUpsertInvariant:
		if op.InvariantID == nil {
			op.InvariantID = result.InvariantID
		}
	}
}
