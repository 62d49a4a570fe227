package store

import (
	"context"
	"sync"
	"time"

	"github.com/stigctl/engine/graph"
	"github.com/stigctl/engine/id"
	"github.com/stigctl/engine/system"
)

// Memory is an in-memory Store, used by the apply engine's unit tests and
// by the savefile replay tests. It is safe for concurrent use; Begin
// returns a snapshot-isolated Tx backed by a single mutex held for the
// transaction's duration, mirroring the single-connection semantics of the
// Postgres implementation's pgx.Tx.
type Memory struct {
	mu sync.Mutex

	entities   map[id.Entity]struct{}
	defs       map[string]*ComponentDefinition
	components map[componentKey]*ComponentInstance
	invariants map[id.InvariantID]*Invariant
	systems    map[string]*system.System
	graph      *graph.Graph
}

type componentKey struct {
	entity    id.Entity
	component string
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		entities:   make(map[id.Entity]struct{}),
		defs:       make(map[string]*ComponentDefinition),
		components: make(map[componentKey]*ComponentInstance),
		invariants: make(map[id.InvariantID]*Invariant),
		systems:    make(map[string]*system.System),
		graph:      graph.New(),
	}
}

// Begin locks the store for the duration of the transaction and returns a
// Tx view over it. Commit releases the lock; Rollback discards in-flight
// changes by restoring a deep snapshot taken at Begin.
func (m *Memory) Begin(ctx context.Context) (Tx, error) {
	m.mu.Lock()
	return &memoryTx{m: m, snapshot: m.snapshot()}, nil
}

func (m *Memory) snapshot() *Memory {
	s := &Memory{
		entities:   make(map[id.Entity]struct{}, len(m.entities)),
		defs:       make(map[string]*ComponentDefinition, len(m.defs)),
		components: make(map[componentKey]*ComponentInstance, len(m.components)),
		invariants: make(map[id.InvariantID]*Invariant, len(m.invariants)),
		systems:    make(map[string]*system.System, len(m.systems)),
		graph:      graph.New(),
	}
	for k, v := range m.entities {
		s.entities[k] = v
	}
	for k, v := range m.defs {
		s.defs[k] = v
	}
	for k, v := range m.components {
		s.components[k] = v
	}
	for k, v := range m.invariants {
		s.invariants[k] = v
	}
	for k, v := range m.systems {
		s.systems[k] = v
	}
	for _, e := range m.graph.All() {
		s.graph.Create(e)
	}
	return s
}

func (m *Memory) restore(snapshot *Memory) {
	m.entities = snapshot.entities
	m.defs = snapshot.defs
	m.components = snapshot.components
	m.invariants = snapshot.invariants
	m.systems = snapshot.systems
	m.graph = snapshot.graph
}

// memoryTx wraps Memory so every Store method is exercised directly
// against the locked store; Commit/Rollback decide whether the snapshot
// taken at Begin is discarded or restored.
type memoryTx struct {
	m        *Memory
	snapshot *Memory
	done     bool
}

func (t *memoryTx) Commit(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	t.m.mu.Unlock()
	return nil
}

func (t *memoryTx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	t.m.restore(t.snapshot)
	t.m.mu.Unlock()
	return nil
}

func (t *memoryTx) CreateEntity(ctx context.Context, e id.Entity) (bool, error) {
	return t.m.createEntity(e), nil
}
func (t *memoryTx) GetEntity(ctx context.Context, e id.Entity) (bool, error) {
	_, ok := t.m.entities[e]
	return ok, nil
}
func (t *memoryTx) DeleteEntity(ctx context.Context, e id.Entity) (bool, error) {
	return t.m.deleteEntity(e), nil
}
func (t *memoryTx) ListEntities(ctx context.Context) ([]id.Entity, error) {
	out := make([]id.Entity, 0, len(t.m.entities))
	for e := range t.m.entities {
		out = append(out, e)
	}
	return out, nil
}

func (t *memoryTx) GetComponentDefinition(ctx context.Context, component string) (*ComponentDefinition, error) {
	def, ok := t.m.defs[component]
	if !ok {
		return nil, nil
	}
	return def, nil
}
func (t *memoryTx) UpsertComponentDefinition(ctx context.Context, def *ComponentDefinition) (bool, error) {
	_, existed := t.m.defs[def.Component]
	t.m.defs[def.Component] = def
	return !existed, nil
}
func (t *memoryTx) DeleteComponentDefinition(ctx context.Context, component string) (bool, error) {
	_, existed := t.m.defs[component]
	delete(t.m.defs, component)
	return existed, nil
}
func (t *memoryTx) ListComponentDefinitions(ctx context.Context) ([]*ComponentDefinition, error) {
	out := make([]*ComponentDefinition, 0, len(t.m.defs))
	for _, def := range t.m.defs {
		out = append(out, def)
	}
	return out, nil
}

func (t *memoryTx) GetComponent(ctx context.Context, e id.Entity, component string) (*ComponentInstance, error) {
	inst, ok := t.m.components[componentKey{e, component}]
	if !ok {
		return nil, nil
	}
	return inst, nil
}
func (t *memoryTx) UpsertComponent(ctx context.Context, e id.Entity, component string, data any) (bool, error) {
	if _, ok := t.m.entities[e]; !ok {
		return false, ErrNotFound
	}
	key := componentKey{e, component}
	now := clockNow()
	existing, existed := t.m.components[key]
	createdAt := now
	if existed {
		createdAt = existing.CreatedAt
	}
	t.m.components[key] = &ComponentInstance{Entity: e, Component: component, Data: data, CreatedAt: createdAt, UpdatedAt: now}
	return !existed, nil
}
func (t *memoryTx) DeleteComponent(ctx context.Context, e id.Entity, component string) (bool, error) {
	key := componentKey{e, component}
	_, existed := t.m.components[key]
	delete(t.m.components, key)
	return existed, nil
}
func (t *memoryTx) ListComponentsForEntity(ctx context.Context, e id.Entity) ([]*ComponentInstance, error) {
	var out []*ComponentInstance
	for key, inst := range t.m.components {
		if key.entity == e {
			out = append(out, inst)
		}
	}
	return out, nil
}

func (t *memoryTx) GetInvariant(ctx context.Context, invID id.InvariantID) (*Invariant, error) {
	inv, ok := t.m.invariants[invID]
	if !ok {
		return nil, nil
	}
	return inv, nil
}
func (t *memoryTx) UpsertInvariant(ctx context.Context, invID id.InvariantID, asserts string) (bool, error) {
	_, existed := t.m.invariants[invID]
	t.m.invariants[invID] = &Invariant{ID: invID, Asserts: asserts}
	return !existed, nil
}
func (t *memoryTx) DeleteInvariant(ctx context.Context, invID id.InvariantID) (bool, error) {
	_, existed := t.m.invariants[invID]
	delete(t.m.invariants, invID)
	return existed, nil
}

func (t *memoryTx) GetSystem(ctx context.Context, name string) (*system.System, error) {
	s, ok := t.m.systems[name]
	if !ok {
		return nil, nil
	}
	return s, nil
}
func (t *memoryTx) UpsertSystem(ctx context.Context, s *system.System) (bool, error) {
	_, existed := t.m.systems[string(s.Name)]
	t.m.systems[string(s.Name)] = s
	return !existed, nil
}
func (t *memoryTx) DeleteSystem(ctx context.Context, name string) (bool, error) {
	_, existed := t.m.systems[name]
	delete(t.m.systems, name)
	return existed, nil
}

func (t *memoryTx) CreateEdge(ctx context.Context, e graph.Edge) (bool, error) {
	for _, endpoint := range []id.Entity{e.Src, e.Dst, e.Label} {
		if _, ok := t.m.entities[endpoint]; !ok {
			return false, ErrNotFound
		}
	}
	return t.m.graph.Create(e), nil
}
func (t *memoryTx) DeleteEdge(ctx context.Context, e graph.Edge) (bool, error) {
	return t.m.graph.Delete(e), nil
}
func (t *memoryTx) EdgeExists(ctx context.Context, e graph.Edge) (bool, error) {
	return t.m.graph.Exists(e), nil
}
func (t *memoryTx) EdgesFromWithLabel(ctx context.Context, src, label id.Entity) ([]id.Entity, error) {
	return t.m.graph.FromWithLabel(src, label), nil
}
func (t *memoryTx) EdgesToWithLabel(ctx context.Context, dst, label id.Entity) ([]id.Entity, error) {
	return t.m.graph.ToWithLabel(dst, label), nil
}
func (t *memoryTx) EdgesBetween(ctx context.Context, src, dst id.Entity) ([]id.Entity, error) {
	return t.m.graph.LabelsBetween(src, dst), nil
}
func (t *memoryTx) ListEdges(ctx context.Context) ([]graph.Edge, error) {
	return t.m.graph.All(), nil
}

func (m *Memory) createEntity(e id.Entity) bool {
	if _, exists := m.entities[e]; exists {
		return false
	}
	m.entities[e] = struct{}{}
	return true
}

func (m *Memory) deleteEntity(e id.Entity) bool {
	if _, exists := m.entities[e]; !exists {
		return false
	}
	delete(m.entities, e)
	for key := range m.components {
		if key.entity == e {
			delete(m.components, key)
		}
	}
	m.graph.DeleteIncident(e)
	return true
}

// clockNow is a seam so tests can stub the component timestamps without
// reaching into the system clock; it defaults to time.Now.
var clockNow = time.Now
