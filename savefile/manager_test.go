package savefile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stigctl/engine/apply"
	"github.com/stigctl/engine/id"
	"github.com/stigctl/engine/schema"
	"github.com/stigctl/engine/store"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "journal.jsonl"))
}

func mustEntity(t *testing.T) id.Entity {
	t.Helper()
	e, err := id.NewEntity()
	require.NoError(t, err)
	return e
}

func healthDefinition() *store.ComponentDefinition {
	return &store.ComponentDefinition{
		Component: "health",
		Schema: &schema.Schema{
			Type:       schema.TypeObject,
			Properties: map[string]*schema.Schema{"hp": {Type: schema.TypeInteger}},
			Required:   []string{"hp"},
		},
	}
}

func TestSaveAndLoadEntriesRoundTrip(t *testing.T) {
	m := newTestManager(t)

	entries, err := m.LoadEntries()
	require.NoError(t, err)
	assert.Empty(t, entries, "a missing journal file loads as empty, not an error")

	e := mustEntity(t)
	entry := NewEntry(apply.Operation{Type: apply.OpCreateEntity, Entity: &e}, Internal("test"))
	require.NoError(t, m.Save(entry))

	loaded, err := m.LoadEntries()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, entry.ID, loaded[0].ID)
	assert.Equal(t, apply.OpCreateEntity, loaded[0].Operation.Type)
	require.NotNil(t, loaded[0].Operation.Entity)
	assert.Equal(t, e, *loaded[0].Operation.Entity)
	assert.Equal(t, StatusSuccess, loaded[0].Metadata.Status)
}

func TestLoadEntriesSkipsUnparseableLines(t *testing.T) {
	m := newTestManager(t)
	e := mustEntity(t)
	require.NoError(t, m.Save(NewEntry(apply.Operation{Type: apply.OpCreateEntity, Entity: &e}, Internal("test"))))

	f, err := os.OpenFile(m.path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("not valid json\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	loaded, err := m.LoadEntries()
	require.NoError(t, err)
	require.Len(t, loaded, 1, "the malformed line is skipped, not fatal")
}

func TestRestoreToStoreSkipsNonSuccessEntries(t *testing.T) {
	m := newTestManager(t)
	e := mustEntity(t)
	require.NoError(t, m.Save(NewEntry(apply.Operation{Type: apply.OpCreateEntity, Entity: &e}, Internal("test").WithStatus(StatusFailed))))

	s := store.NewMemory()
	result, err := RestoreToStore(context.Background(), m, s)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 0, result.Successful)

	ctx := context.Background()
	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	defer tx.Commit(ctx)
	found, err := tx.GetEntity(ctx, e)
	require.NoError(t, err)
	assert.False(t, found, "a Failed entry is never applied")
}

func TestRestoreToStoreReplaysSuccessEntries(t *testing.T) {
	m := newTestManager(t)
	e := mustEntity(t)
	require.NoError(t, m.Save(NewEntry(apply.Operation{Type: apply.OpCreateEntity, Entity: &e}, Internal("test"))))
	require.NoError(t, m.Save(NewEntry(apply.Operation{
		Type:       apply.OpUpsertComponentDefinition,
		Definition: healthDefinition(),
	}, Internal("test"))))
	require.NoError(t, m.Save(NewEntry(apply.Operation{
		Type: apply.OpUpsertComponent, Entity: &e, Component: "health", Data: map[string]any{"hp": int64(10)},
	}, Internal("test"))))

	s := store.NewMemory()
	result, err := RestoreToStore(context.Background(), m, s)
	require.NoError(t, err)
	assert.Empty(t, result.Errors)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, 3, result.Successful)

	ctx := context.Background()
	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	defer tx.Commit(ctx)
	inst, err := tx.GetComponent(ctx, e, "health")
	require.NoError(t, err)
	require.NotNil(t, inst)
	assert.Equal(t, map[string]any{"hp": int64(10)}, inst.Data)
}

// TestRestoreToStoreHonorsResolvedEntity guards the invariant a journaled
// create_entity entry must uphold: if the client omitted entity (a
// server-generated ID), the entry must still record the entity apply.Run
// actually resolved, or a later entry that references it explicitly (as
// every entry produced by httpapi.journalBatch does) fails with
// EntityNotFound on replay against a fresh store.
func TestRestoreToStoreHonorsResolvedEntity(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	resp, err := apply.Run(ctx, store.NewMemory(), apply.Request{
		Operations: []apply.Operation{{Type: apply.OpCreateEntity}},
	})
	require.NoError(t, err)
	require.True(t, resp.Committed)
	resolved := resp.Results[0].Entity
	require.NotNil(t, resolved)

	require.NoError(t, m.Save(NewEntry(apply.Operation{Type: apply.OpCreateEntity, Entity: resolved}, Internal("test"))))
	require.NoError(t, m.Save(NewEntry(apply.Operation{
		Type:       apply.OpUpsertComponentDefinition,
		Definition: healthDefinition(),
	}, Internal("test"))))
	require.NoError(t, m.Save(NewEntry(apply.Operation{
		Type: apply.OpUpsertComponent, Entity: resolved, Component: "health", Data: map[string]any{"hp": int64(1)},
	}, Internal("test"))))

	s := store.NewMemory()
	result, err := RestoreToStore(ctx, m, s)
	require.NoError(t, err)
	assert.Empty(t, result.Errors)
	assert.Equal(t, 0, result.Failed, "upsert_component referencing the resolved entity must not fail with EntityNotFound")
}
