package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stigctl/engine/graph"
	"github.com/stigctl/engine/id"
	"github.com/stigctl/engine/schema"
)

func mustEntity(t *testing.T) id.Entity {
	t.Helper()
	e, err := id.NewEntity()
	require.NoError(t, err)
	return e
}

func beginTx(t *testing.T, m *Memory) Tx {
	t.Helper()
	tx, err := m.Begin(context.Background())
	require.NoError(t, err)
	return tx
}

func TestEntityCreateGetDelete(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	tx := beginTx(t, m)
	defer tx.Commit(ctx)

	e := mustEntity(t)
	created, err := tx.CreateEntity(ctx, e)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = tx.CreateEntity(ctx, e)
	require.NoError(t, err)
	assert.False(t, created, "recreating an entity reports created=false")

	found, err := tx.GetEntity(ctx, e)
	require.NoError(t, err)
	assert.True(t, found)

	deleted, err := tx.DeleteEntity(ctx, e)
	require.NoError(t, err)
	assert.True(t, deleted)

	found, err = tx.GetEntity(ctx, e)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestComponentRequiresExistingEntity(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	tx := beginTx(t, m)
	defer tx.Commit(ctx)

	e := mustEntity(t)
	_, err := tx.UpsertComponent(ctx, e, "position", map[string]any{"x": 1})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestComponentDefinitionAndInstanceCRUD(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	tx := beginTx(t, m)
	defer tx.Commit(ctx)

	e := mustEntity(t)
	_, err := tx.CreateEntity(ctx, e)
	require.NoError(t, err)

	def := &ComponentDefinition{Component: "position", Schema: &schema.Schema{Type: schema.TypeObject}}
	created, err := tx.UpsertComponentDefinition(ctx, def)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = tx.UpsertComponent(ctx, e, "position", map[string]any{"x": int64(1)})
	require.NoError(t, err)
	assert.True(t, created)

	inst, err := tx.GetComponent(ctx, e, "position")
	require.NoError(t, err)
	require.NotNil(t, inst)
	assert.Equal(t, map[string]any{"x": int64(1)}, inst.Data)
	firstUpdated := inst.UpdatedAt

	created, err = tx.UpsertComponent(ctx, e, "position", map[string]any{"x": int64(2)})
	require.NoError(t, err)
	assert.False(t, created, "second upsert is an update, not a create")

	inst, err = tx.GetComponent(ctx, e, "position")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"x": int64(2)}, inst.Data)
	assert.Equal(t, firstUpdated, inst.CreatedAt, "CreatedAt is preserved across updates")

	deleted, err := tx.DeleteComponent(ctx, e, "position")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = tx.DeleteComponentDefinition(ctx, "position")
	require.NoError(t, err)
	assert.True(t, deleted)
}

func TestCascadeDeleteOnEntityRemoval(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	tx := beginTx(t, m)
	defer tx.Commit(ctx)

	alice, bob, follows := mustEntity(t), mustEntity(t), mustEntity(t)
	for _, e := range []id.Entity{alice, bob, follows} {
		_, err := tx.CreateEntity(ctx, e)
		require.NoError(t, err)
	}

	_, err := tx.UpsertComponent(ctx, alice, "name", "alice")
	require.NoError(t, err)

	edge := graph.Edge{Src: alice, Dst: bob, Label: follows}
	created, err := tx.CreateEdge(ctx, edge)
	require.NoError(t, err)
	assert.True(t, created)

	deleted, err := tx.DeleteEntity(ctx, alice)
	require.NoError(t, err)
	assert.True(t, deleted)

	inst, err := tx.GetComponent(ctx, alice, "name")
	require.NoError(t, err)
	assert.Nil(t, inst, "components on a deleted entity are gone")

	exists, err := tx.EdgeExists(ctx, edge)
	require.NoError(t, err)
	assert.False(t, exists, "edges incident to a deleted entity are gone")
}

func TestEdgeRequiresExistingEndpoints(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	tx := beginTx(t, m)
	defer tx.Commit(ctx)

	alice, bob, follows := mustEntity(t), mustEntity(t), mustEntity(t)
	_, err := tx.CreateEntity(ctx, alice)
	require.NoError(t, err)
	_, err = tx.CreateEntity(ctx, bob)
	require.NoError(t, err)

	_, err = tx.CreateEdge(ctx, graph.Edge{Src: alice, Dst: bob, Label: follows})
	assert.ErrorIs(t, err, ErrNotFound, "label entity does not exist yet")
}

func TestInvariantCRUD(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	tx := beginTx(t, m)
	defer tx.Commit(ctx)

	invID, err := id.NewInvariantID()
	require.NoError(t, err)

	created, err := tx.UpsertInvariant(ctx, invID, "entity must have a name")
	require.NoError(t, err)
	assert.True(t, created)

	inv, err := tx.GetInvariant(ctx, invID)
	require.NoError(t, err)
	require.NotNil(t, inv)
	assert.Equal(t, "entity must have a name", inv.Asserts)

	deleted, err := tx.DeleteInvariant(ctx, invID)
	require.NoError(t, err)
	assert.True(t, deleted)
}

func TestRollbackDiscardsChanges(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	tx := beginTx(t, m)
	e := mustEntity(t)
	_, err := tx.CreateEntity(ctx, e)
	require.NoError(t, err)
	require.NoError(t, tx.Rollback(ctx))

	tx2 := beginTx(t, m)
	defer tx2.Commit(ctx)
	found, err := tx2.GetEntity(ctx, e)
	require.NoError(t, err)
	assert.False(t, found, "rolled back entity creation must not persist")
}

func TestCommitPersistsChanges(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	tx := beginTx(t, m)
	e := mustEntity(t)
	_, err := tx.CreateEntity(ctx, e)
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))

	tx2 := beginTx(t, m)
	defer tx2.Commit(ctx)
	found, err := tx2.GetEntity(ctx, e)
	require.NoError(t, err)
	assert.True(t, found)
}

func TestEntityScopedComponentIsolation(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	tx := beginTx(t, m)
	defer tx.Commit(ctx)

	alice, bob := mustEntity(t), mustEntity(t)
	_, err := tx.CreateEntity(ctx, alice)
	require.NoError(t, err)
	_, err = tx.CreateEntity(ctx, bob)
	require.NoError(t, err)

	_, err = tx.UpsertComponent(ctx, alice, "name", "alice")
	require.NoError(t, err)

	inst, err := tx.GetComponent(ctx, bob, "name")
	require.NoError(t, err)
	assert.Nil(t, inst, "a component on one entity is invisible on another")

	list, err := tx.ListComponentsForEntity(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
