package httpapi

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stigctl/engine/apply"
	"github.com/stigctl/engine/savefile"
	"github.com/stigctl/engine/store"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	s := &Server{Store: store.NewMemory(), Logger: zerolog.Nop()}
	return s.Router()
}

func TestApplyEmptyBatchCommits(t *testing.T) {
	h := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/apply", bytes.NewBufferString(`{"operations":[]}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"results":[],"committed":true}`, rec.Body.String())
}

func TestApplyCreateEntityThenFetch(t *testing.T) {
	h := newTestServer(t)

	applyReq := httptest.NewRequest(http.MethodPost, "/apply",
		bytes.NewBufferString(`{"operations":[{"type":"create_entity"}]}`))
	applyRec := httptest.NewRecorder()
	h.ServeHTTP(applyRec, applyReq)
	require.Equal(t, http.StatusOK, applyRec.Code)
	assert.Contains(t, applyRec.Body.String(), `"committed":true`)

	var applyResp apply.Response
	require.NoError(t, json.Unmarshal(applyRec.Body.Bytes(), &applyResp))
	require.NotNil(t, applyResp.Results[0].Entity)

	getReq := httptest.NewRequest(http.MethodGet, "/entities/"+applyResp.Results[0].Entity.String(), nil)
	getRec := httptest.NewRecorder()
	h.ServeHTTP(getRec, getReq)
	assert.Equal(t, http.StatusOK, getRec.Code)
}

func TestApplyRollbackReportsCommittedFalseWithOK(t *testing.T) {
	h := newTestServer(t)
	body := `{"operations":[{"type":"upsert_component","entity":"entity:AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA","component":"Missing","data":{}}]}`
	req := httptest.NewRequest(http.MethodPost, "/apply", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"committed":false`)
}

func TestGetEntityNotFound(t *testing.T) {
	h := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/entities/entity:AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEvaluateBid(t *testing.T) {
	h := newTestServer(t)
	body := `{"expression":"ON price > 100 BID price * 0.9","env":{"price":150}}`
	req := httptest.NewRequest(http.MethodPost, "/bid/evaluate", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"matched":true,"value":135}`, rec.Body.String())
}

// TestApplyJournalsResolvedEntityForReplay is a regression test for a bug
// where journalBatch recorded the request's operation verbatim instead of
// its resolved result: an implicit-ID create_entity journaled that way
// mints a *different* random entity on restore, so a later journal entry
// that references the original entity explicitly (as a client naturally
// would, once it learns the generated ID from the first response) fails
// with EntityNotFound on replay.
func TestApplyJournalsResolvedEntityForReplay(t *testing.T) {
	journal := savefile.New(filepath.Join(t.TempDir(), "journal.jsonl"))
	s := &Server{Store: store.NewMemory(), Journal: journal, Logger: zerolog.Nop()}
	h := s.Router()

	createReq := httptest.NewRequest(http.MethodPost, "/apply", bytes.NewBufferString(`{"operations":[{"type":"create_entity"}]}`))
	createRec := httptest.NewRecorder()
	h.ServeHTTP(createRec, createReq)
	require.Equal(t, http.StatusOK, createRec.Code)

	var createResp apply.Response
	require.NoError(t, json.Unmarshal(createRec.Body.Bytes(), &createResp))
	require.True(t, createResp.Committed)
	require.NotNil(t, createResp.Results[0].Entity)
	entity := createResp.Results[0].Entity.String()

	componentReq := httptest.NewRequest(http.MethodPost, "/apply", bytes.NewBufferString(`{"operations":[
		{"type":"upsert_component_definition","definition":{"component":"health","schema":{"type":"object","properties":{"hp":{"type":"integer"}},"required":["hp"]}}},
		{"type":"upsert_component","entity":"`+entity+`","component":"health","data":{"hp":10}}
	]}`))
	componentRec := httptest.NewRecorder()
	h.ServeHTTP(componentRec, componentReq)
	require.Equal(t, http.StatusOK, componentRec.Code)
	assert.Contains(t, componentRec.Body.String(), `"committed":true`)

	result, err := savefile.RestoreToStore(context.Background(), journal, store.NewMemory())
	require.NoError(t, err)
	assert.Empty(t, result.Errors)
	assert.Equal(t, 0, result.Failed, "replay must not fail with EntityNotFound for the entity create_entity generated")
}

func TestHealthz(t *testing.T) {
	h := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
