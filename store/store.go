// Package store defines the persisted storage surface: entities, component
// definitions, component instances, invariants, systems, and the edge
// graph. Store is implemented by an in-memory reference store (used by
// tests and the apply engine's unit tests) and a Postgres-backed store
// built on pgx.
package store

import (
	"context"
	"time"

	"github.com/stigctl/engine/graph"
	"github.com/stigctl/engine/id"
	"github.com/stigctl/engine/schema"
	"github.com/stigctl/engine/system"
)

// ComponentDefinition pairs a component type name with its validation
// schema.
type ComponentDefinition struct {
	Component string         `json:"component"`
	Schema    *schema.Schema `json:"schema"`
}

// ComponentInstance is the data attached to a (entity, component) pair.
type ComponentInstance struct {
	Entity    id.Entity `json:"entity"`
	Component string    `json:"component"`
	Data      any       `json:"data"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Invariant is a stored textual assertion, keyed by its 32-byte ID.
type Invariant struct {
	ID      id.InvariantID `json:"id"`
	Asserts string         `json:"asserts"`
}

// Tx is a transactional unit of work over a Store. Every method on Tx
// behaves like the corresponding Store method, scoped to the transaction;
// the caller commits or rolls back exactly once.
type Tx interface {
	Store
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Store is the persisted storage surface. Every method is expected to
// run inside whatever transaction scope the caller has established via
// Begin, so implementations do not retry or independently commit.
type Store interface {
	// Entities.
	CreateEntity(ctx context.Context, e id.Entity) (created bool, err error)
	GetEntity(ctx context.Context, e id.Entity) (found bool, err error)
	DeleteEntity(ctx context.Context, e id.Entity) (deleted bool, err error)
	ListEntities(ctx context.Context) ([]id.Entity, error)

	// Component definitions.
	GetComponentDefinition(ctx context.Context, component string) (*ComponentDefinition, error)
	UpsertComponentDefinition(ctx context.Context, def *ComponentDefinition) (created bool, err error)
	DeleteComponentDefinition(ctx context.Context, component string) (deleted bool, err error)
	ListComponentDefinitions(ctx context.Context) ([]*ComponentDefinition, error)

	// Component instances.
	GetComponent(ctx context.Context, e id.Entity, component string) (*ComponentInstance, error)
	UpsertComponent(ctx context.Context, e id.Entity, component string, data any) (created bool, err error)
	DeleteComponent(ctx context.Context, e id.Entity, component string) (deleted bool, err error)
	ListComponentsForEntity(ctx context.Context, e id.Entity) ([]*ComponentInstance, error)

	// Invariants.
	GetInvariant(ctx context.Context, invID id.InvariantID) (*Invariant, error)
	UpsertInvariant(ctx context.Context, invID id.InvariantID, asserts string) (created bool, err error)
	DeleteInvariant(ctx context.Context, invID id.InvariantID) (deleted bool, err error)

	// Systems.
	GetSystem(ctx context.Context, name string) (*system.System, error)
	UpsertSystem(ctx context.Context, s *system.System) (created bool, err error)
	DeleteSystem(ctx context.Context, name string) (deleted bool, err error)

	// Edges.
	CreateEdge(ctx context.Context, e graph.Edge) (created bool, err error)
	DeleteEdge(ctx context.Context, e graph.Edge) (deleted bool, err error)
	EdgeExists(ctx context.Context, e graph.Edge) (bool, error)
	EdgesFromWithLabel(ctx context.Context, src, label id.Entity) ([]id.Entity, error)
	EdgesToWithLabel(ctx context.Context, dst, label id.Entity) ([]id.Entity, error)
	EdgesBetween(ctx context.Context, src, dst id.Entity) ([]id.Entity, error)
	ListEdges(ctx context.Context) ([]graph.Edge, error)
}

// Beginner opens transactions against a Store.
type Beginner interface {
	Begin(ctx context.Context) (Tx, error)
}
