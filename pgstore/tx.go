package pgstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/goccy/go-json"

	"github.com/stigctl/engine/graph"
	"github.com/stigctl/engine/id"
	"github.com/stigctl/engine/jsonvalue"
	"github.com/stigctl/engine/schema"
	"github.com/stigctl/engine/store"
	"github.com/stigctl/engine/system"
)

// Begin opens a pgx transaction and wraps it as a store.Tx.
func (s *Store) Begin(ctx context.Context) (store.Tx, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("pgstore: begin: %w", err)
	}
	return &Tx{tx: tx}, nil
}

// Tx wraps a pgx.Tx as store.Tx. Every method below runs its statements
// against the transaction's connection; none commits or rolls back on its
// own, per store.Tx's contract.
type Tx struct {
	tx pgx.Tx
}

func (t *Tx) Commit(ctx context.Context) error {
	if err := t.tx.Commit(ctx); err != nil {
		return fmt.Errorf("pgstore: commit: %w", err)
	}
	return nil
}

func (t *Tx) Rollback(ctx context.Context) error {
	if err := t.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("pgstore: rollback: %w", err)
	}
	return nil
}

// --- entities -------------------------------------------------------------

func (t *Tx) CreateEntity(ctx context.Context, e id.Entity) (bool, error) {
	tag, err := t.tx.Exec(ctx,
		`INSERT INTO entities (entity_bytes) VALUES ($1) ON CONFLICT DO NOTHING`,
		entityBytes(e))
	if err != nil {
		return false, fmt.Errorf("pgstore: create entity: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (t *Tx) GetEntity(ctx context.Context, e id.Entity) (bool, error) {
	var exists bool
	err := t.tx.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM entities WHERE entity_bytes = $1)`,
		entityBytes(e)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("pgstore: get entity: %w", err)
	}
	return exists, nil
}

func (t *Tx) DeleteEntity(ctx context.Context, e id.Entity) (bool, error) {
	tag, err := t.tx.Exec(ctx, `DELETE FROM entities WHERE entity_bytes = $1`, entityBytes(e))
	if err != nil {
		return false, fmt.Errorf("pgstore: delete entity: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (t *Tx) ListEntities(ctx context.Context) ([]id.Entity, error) {
	rows, err := t.tx.Query(ctx, `SELECT entity_bytes FROM entities`)
	if err != nil {
		return nil, fmt.Errorf("pgstore: list entities: %w", err)
	}
	defer rows.Close()

	var out []id.Entity
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("pgstore: scan entity: %w", err)
		}
		e, err := entityFromBytes(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// --- component definitions -------------------------------------------------

func (t *Tx) GetComponentDefinition(ctx context.Context, component string) (*store.ComponentDefinition, error) {
	var raw []byte
	err := t.tx.QueryRow(ctx,
		`SELECT schema FROM component_definitions WHERE component_name = $1`, component).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("pgstore: get component definition: %w", err)
	}
	sch, err := decodeSchema(raw)
	if err != nil {
		return nil, err
	}
	return &store.ComponentDefinition{Component: component, Schema: sch}, nil
}

func (t *Tx) UpsertComponentDefinition(ctx context.Context, def *store.ComponentDefinition) (bool, error) {
	raw, err := json.Marshal(def.Schema)
	if err != nil {
		return false, fmt.Errorf("pgstore: encode schema: %w", err)
	}
	var created bool
	err = t.tx.QueryRow(ctx, `
		INSERT INTO component_definitions (component_name, schema)
		VALUES ($1, $2)
		ON CONFLICT (component_name) DO UPDATE SET schema = EXCLUDED.schema, updated_at = now()
		RETURNING (xmax = 0)`,
		def.Component, raw).Scan(&created)
	if err != nil {
		return false, fmt.Errorf("pgstore: upsert component definition: %w", err)
	}
	return created, nil
}

func (t *Tx) DeleteComponentDefinition(ctx context.Context, component string) (bool, error) {
	tag, err := t.tx.Exec(ctx, `DELETE FROM component_definitions WHERE component_name = $1`, component)
	if err != nil {
		return false, fmt.Errorf("pgstore: delete component definition: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (t *Tx) ListComponentDefinitions(ctx context.Context) ([]*store.ComponentDefinition, error) {
	rows, err := t.tx.Query(ctx, `SELECT component_name, schema FROM component_definitions`)
	if err != nil {
		return nil, fmt.Errorf("pgstore: list component definitions: %w", err)
	}
	defer rows.Close()

	var out []*store.ComponentDefinition
	for rows.Next() {
		var name string
		var raw []byte
		if err := rows.Scan(&name, &raw); err != nil {
			return nil, fmt.Errorf("pgstore: scan component definition: %w", err)
		}
		sch, err := decodeSchema(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, &store.ComponentDefinition{Component: name, Schema: sch})
	}
	return out, rows.Err()
}

func decodeSchema(raw []byte) (*schema.Schema, error) {
	sch, err := schema.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("pgstore: decode schema: %w", err)
	}
	return sch, nil
}

// --- component instances ---------------------------------------------------

func (t *Tx) GetComponent(ctx context.Context, e id.Entity, component string) (*store.ComponentInstance, error) {
	var raw []byte
	var createdAt, updatedAt time.Time
	err := t.tx.QueryRow(ctx, `
		SELECT data, created_at, updated_at FROM component_instances
		WHERE entity_bytes = $1 AND component_name = $2`,
		entityBytes(e), component).Scan(&raw, &createdAt, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("pgstore: get component: %w", err)
	}
	data, err := jsonvalue.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("pgstore: decode component data: %w", err)
	}
	return &store.ComponentInstance{
		Entity: e, Component: component, Data: data,
		CreatedAt: createdAt, UpdatedAt: updatedAt,
	}, nil
}

func (t *Tx) UpsertComponent(ctx context.Context, e id.Entity, component string, data any) (bool, error) {
	raw, err := jsonvalue.Marshal(data)
	if err != nil {
		return false, fmt.Errorf("pgstore: encode component data: %w", err)
	}
	var created bool
	err = t.tx.QueryRow(ctx, `
		INSERT INTO component_instances (entity_bytes, component_name, data)
		VALUES ($1, $2, $3)
		ON CONFLICT (entity_bytes, component_name)
		DO UPDATE SET data = EXCLUDED.data, updated_at = now()
		RETURNING (xmax = 0)`,
		entityBytes(e), component, raw).Scan(&created)
	if isForeignKeyViolation(err) {
		return false, store.ErrNotFound
	}
	if err != nil {
		return false, fmt.Errorf("pgstore: upsert component: %w", err)
	}
	return created, nil
}

func (t *Tx) DeleteComponent(ctx context.Context, e id.Entity, component string) (bool, error) {
	tag, err := t.tx.Exec(ctx,
		`DELETE FROM component_instances WHERE entity_bytes = $1 AND component_name = $2`,
		entityBytes(e), component)
	if err != nil {
		return false, fmt.Errorf("pgstore: delete component: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (t *Tx) ListComponentsForEntity(ctx context.Context, e id.Entity) ([]*store.ComponentInstance, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT component_name, data, created_at, updated_at FROM component_instances
		WHERE entity_bytes = $1`, entityBytes(e))
	if err != nil {
		return nil, fmt.Errorf("pgstore: list components: %w", err)
	}
	defer rows.Close()

	var out []*store.ComponentInstance
	for rows.Next() {
		var component string
		var raw []byte
		var createdAt, updatedAt time.Time
		if err := rows.Scan(&component, &raw, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("pgstore: scan component: %w", err)
		}
		data, err := jsonvalue.Decode(raw)
		if err != nil {
			return nil, fmt.Errorf("pgstore: decode component data: %w", err)
		}
		out = append(out, &store.ComponentInstance{
			Entity: e, Component: component, Data: data,
			CreatedAt: createdAt, UpdatedAt: updatedAt,
		})
	}
	return out, rows.Err()
}

// --- invariants -------------------------------------------------------------

func (t *Tx) GetInvariant(ctx context.Context, invID id.InvariantID) (*store.Invariant, error) {
	var asserts string
	err := t.tx.QueryRow(ctx,
		`SELECT asserts FROM invariants WHERE invariant_bytes = $1`, invariantBytes(invID)).Scan(&asserts)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("pgstore: get invariant: %w", err)
	}
	return &store.Invariant{ID: invID, Asserts: asserts}, nil
}

func (t *Tx) UpsertInvariant(ctx context.Context, invID id.InvariantID, asserts string) (bool, error) {
	var created bool
	err := t.tx.QueryRow(ctx, `
		INSERT INTO invariants (invariant_bytes, asserts)
		VALUES ($1, $2)
		ON CONFLICT (invariant_bytes) DO UPDATE SET asserts = EXCLUDED.asserts, updated_at = now()
		RETURNING (xmax = 0)`,
		invariantBytes(invID), asserts).Scan(&created)
	if err != nil {
		return false, fmt.Errorf("pgstore: upsert invariant: %w", err)
	}
	return created, nil
}

func (t *Tx) DeleteInvariant(ctx context.Context, invID id.InvariantID) (bool, error) {
	tag, err := t.tx.Exec(ctx, `DELETE FROM invariants WHERE invariant_bytes = $1`, invariantBytes(invID))
	if err != nil {
		return false, fmt.Errorf("pgstore: delete invariant: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// --- systems ----------------------------------------------------------------

// systemWire mirrors system.System's JSON transfer shape so pgstore can
// build a *system.System from scanned columns through the same
// decode-and-parse-bids path System.UnmarshalJSON already exercises,
// without system exporting its wire type.
type systemWire struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Model       string   `json:"model,omitempty"`
	Color       string   `json:"color,omitempty"`
	Content     string   `json:"content,omitempty"`
	Tools       []string `json:"tools,omitempty"`
	Bids        []string `json:"bids,omitempty"`
}

func (t *Tx) GetSystem(ctx context.Context, name string) (*system.System, error) {
	var w systemWire
	err := t.tx.QueryRow(ctx, `
		SELECT system_name, description, model, color, content, tools, bids
		FROM systems WHERE system_name = $1`, name).
		Scan(&w.Name, &w.Description, &w.Model, &w.Color, &w.Content, &w.Tools, &w.Bids)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("pgstore: get system: %w", err)
	}
	raw, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("pgstore: encode system: %w", err)
	}
	var s system.System
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("pgstore: decode system: %w", err)
	}
	return &s, nil
}

func (t *Tx) UpsertSystem(ctx context.Context, s *system.System) (bool, error) {
	w := s.Wire()
	var created bool
	err := t.tx.QueryRow(ctx, `
		INSERT INTO systems (system_name, description, model, color, content, tools, bids)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (system_name) DO UPDATE SET
			description = EXCLUDED.description, model = EXCLUDED.model,
			color = EXCLUDED.color, content = EXCLUDED.content,
			tools = EXCLUDED.tools, bids = EXCLUDED.bids, updated_at = now()
		RETURNING (xmax = 0)`,
		w.Name, w.Description, w.Model, w.Color, w.Content, w.Tools, w.Bids).Scan(&created)
	if err != nil {
		return false, fmt.Errorf("pgstore: upsert system: %w", err)
	}
	return created, nil
}

func (t *Tx) DeleteSystem(ctx context.Context, name string) (bool, error) {
	tag, err := t.tx.Exec(ctx, `DELETE FROM systems WHERE system_name = $1`, name)
	if err != nil {
		return false, fmt.Errorf("pgstore: delete system: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// --- edges ------------------------------------------------------------------

func (t *Tx) CreateEdge(ctx context.Context, e graph.Edge) (bool, error) {
	exists, err := t.EdgeExists(ctx, e)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	_, err = t.tx.Exec(ctx, `INSERT INTO edges (src, dst, label) VALUES ($1, $2, $3)`,
		entityBytes(e.Src), entityBytes(e.Dst), entityBytes(e.Label))
	if isUniqueViolation(err) {
		return false, store.ErrAlreadyExists
	}
	if isForeignKeyViolation(err) {
		return false, store.ErrNotFound
	}
	if err != nil {
		return false, fmt.Errorf("pgstore: create edge: %w", err)
	}
	return true, nil
}

func (t *Tx) DeleteEdge(ctx context.Context, e graph.Edge) (bool, error) {
	tag, err := t.tx.Exec(ctx, `DELETE FROM edges WHERE src = $1 AND dst = $2 AND label = $3`,
		entityBytes(e.Src), entityBytes(e.Dst), entityBytes(e.Label))
	if err != nil {
		return false, fmt.Errorf("pgstore: delete edge: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (t *Tx) EdgeExists(ctx context.Context, e graph.Edge) (bool, error) {
	var exists bool
	err := t.tx.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM edges WHERE src = $1 AND dst = $2 AND label = $3)`,
		entityBytes(e.Src), entityBytes(e.Dst), entityBytes(e.Label)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("pgstore: edge exists: %w", err)
	}
	return exists, nil
}

func (t *Tx) EdgesFromWithLabel(ctx context.Context, src, label id.Entity) ([]id.Entity, error) {
	return t.queryEntityColumn(ctx,
		`SELECT dst FROM edges WHERE src = $1 AND label = $2`, entityBytes(src), entityBytes(label))
}

func (t *Tx) EdgesToWithLabel(ctx context.Context, dst, label id.Entity) ([]id.Entity, error) {
	return t.queryEntityColumn(ctx,
		`SELECT src FROM edges WHERE dst = $1 AND label = $2`, entityBytes(dst), entityBytes(label))
}

func (t *Tx) EdgesBetween(ctx context.Context, src, dst id.Entity) ([]id.Entity, error) {
	return t.queryEntityColumn(ctx,
		`SELECT label FROM edges WHERE src = $1 AND dst = $2`, entityBytes(src), entityBytes(dst))
}

func (t *Tx) ListEdges(ctx context.Context) ([]graph.Edge, error) {
	rows, err := t.tx.Query(ctx, `SELECT src, dst, label FROM edges`)
	if err != nil {
		return nil, fmt.Errorf("pgstore: list edges: %w", err)
	}
	defer rows.Close()

	var out []graph.Edge
	for rows.Next() {
		var src, dst, label []byte
		if err := rows.Scan(&src, &dst, &label); err != nil {
			return nil, fmt.Errorf("pgstore: scan edge: %w", err)
		}
		e, err := decodeEdge(src, dst, label)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func decodeEdge(src, dst, label []byte) (graph.Edge, error) {
	s, err := entityFromBytes(src)
	if err != nil {
		return graph.Edge{}, err
	}
	d, err := entityFromBytes(dst)
	if err != nil {
		return graph.Edge{}, err
	}
	l, err := entityFromBytes(label)
	if err != nil {
		return graph.Edge{}, err
	}
	return graph.Edge{Src: s, Dst: d, Label: l}, nil
}

func (t *Tx) queryEntityColumn(ctx context.Context, q string, args ...any) ([]id.Entity, error) {
	rows, err := t.tx.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("pgstore: query edges: %w", err)
	}
	defer rows.Close()

	var out []id.Entity
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("pgstore: scan edge entity: %w", err)
		}
		e, err := entityFromBytes(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
