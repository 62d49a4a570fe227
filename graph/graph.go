// Package graph implements an in-memory, six-way-indexed directed labeled
// graph over entity identifiers. Every edge is a (src, dst, label) triple;
// all three positions are themselves entities, so labels can carry their
// own components. The six permutations of (src, dst, label) are each kept
// as a lookup index so any of the six query shapes named in the storage
// layer's original design runs in O(1) plus result-set size.
package graph

import (
	"sync"

	"github.com/stigctl/engine/id"
)

// Edge is a directed, labeled relationship between two entities.
type Edge struct {
	Src   id.Entity
	Dst   id.Entity
	Label id.Entity
}

// Graph is a mutex-guarded, six-way-indexed edge set.
type Graph struct {
	mu sync.RWMutex

	bySrcDstLabel map[tripleKey]struct{}
	bySrcLabel    map[pairKey][]id.Entity // src,label -> dsts
	byDstLabel    map[pairKey][]id.Entity // dst,label -> srcs
	byLabelSrc    map[pairKey][]id.Entity // label,src -> dsts
	byLabelDst    map[pairKey][]id.Entity // label,dst -> srcs
	byDstSrc      map[pairKey][]id.Entity // dst,src -> labels
}

type tripleKey struct{ src, dst, label id.Entity }
type pairKey struct{ a, b id.Entity }

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		bySrcDstLabel: make(map[tripleKey]struct{}),
		bySrcLabel:    make(map[pairKey][]id.Entity),
		byDstLabel:    make(map[pairKey][]id.Entity),
		byLabelSrc:    make(map[pairKey][]id.Entity),
		byLabelDst:    make(map[pairKey][]id.Entity),
		byDstSrc:      make(map[pairKey][]id.Entity),
	}
}

// Create inserts an edge. It is idempotent: creating an edge that already
// exists reports created=false without error.
func (g *Graph) Create(e Edge) (created bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	key := tripleKey{e.Src, e.Dst, e.Label}
	if _, exists := g.bySrcDstLabel[key]; exists {
		return false
	}
	g.bySrcDstLabel[key] = struct{}{}
	g.bySrcLabel[pairKey{e.Src, e.Label}] = append(g.bySrcLabel[pairKey{e.Src, e.Label}], e.Dst)
	g.byDstLabel[pairKey{e.Dst, e.Label}] = append(g.byDstLabel[pairKey{e.Dst, e.Label}], e.Src)
	g.byLabelSrc[pairKey{e.Label, e.Src}] = append(g.byLabelSrc[pairKey{e.Label, e.Src}], e.Dst)
	g.byLabelDst[pairKey{e.Label, e.Dst}] = append(g.byLabelDst[pairKey{e.Label, e.Dst}], e.Src)
	g.byDstSrc[pairKey{e.Dst, e.Src}] = append(g.byDstSrc[pairKey{e.Dst, e.Src}], e.Label)
	return true
}

// Delete removes an edge, reporting deleted=false if it did not exist.
func (g *Graph) Delete(e Edge) (deleted bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.deleteLocked(e)
}

func (g *Graph) deleteLocked(e Edge) bool {
	key := tripleKey{e.Src, e.Dst, e.Label}
	if _, exists := g.bySrcDstLabel[key]; !exists {
		return false
	}
	delete(g.bySrcDstLabel, key)
	removeEntity(g.bySrcLabel, pairKey{e.Src, e.Label}, e.Dst)
	removeEntity(g.byDstLabel, pairKey{e.Dst, e.Label}, e.Src)
	removeEntity(g.byLabelSrc, pairKey{e.Label, e.Src}, e.Dst)
	removeEntity(g.byLabelDst, pairKey{e.Label, e.Dst}, e.Src)
	removeEntity(g.byDstSrc, pairKey{e.Dst, e.Src}, e.Label)
	return true
}

func removeEntity(m map[pairKey][]id.Entity, key pairKey, v id.Entity) {
	list := m[key]
	for i, e := range list {
		if e.Equal(v.ID) {
			list = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(m, key)
	} else {
		m[key] = list
	}
}

// Exists reports whether the exact edge is present.
func (g *Graph) Exists(e Edge) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.bySrcDstLabel[tripleKey{e.Src, e.Dst, e.Label}]
	return ok
}

// FromWithLabel returns every dst such that (src, dst, label) is an edge.
func (g *Graph) FromWithLabel(src, label id.Entity) []id.Entity {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return cloneEntities(g.bySrcLabel[pairKey{src, label}])
}

// ToWithLabel returns every src such that (src, dst, label) is an edge.
func (g *Graph) ToWithLabel(dst, label id.Entity) []id.Entity {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return cloneEntities(g.byDstLabel[pairKey{dst, label}])
}

// DstsForLabelSrc returns every dst reachable from src via label (same
// result as FromWithLabel, indexed from the label-first permutation).
func (g *Graph) DstsForLabelSrc(label, src id.Entity) []id.Entity {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return cloneEntities(g.byLabelSrc[pairKey{label, src}])
}

// SrcsForLabelDst returns every src reaching dst via label.
func (g *Graph) SrcsForLabelDst(label, dst id.Entity) []id.Entity {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return cloneEntities(g.byLabelDst[pairKey{label, dst}])
}

// LabelsBetween returns every label such that (src, dst, label) is an edge.
func (g *Graph) LabelsBetween(src, dst id.Entity) []id.Entity {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return cloneEntities(g.byDstSrc[pairKey{dst, src}])
}

// DeleteIncident removes every edge where e is the src, dst, or label,
// implementing the cascade-on-entity-delete rule.
func (g *Graph) DeleteIncident(e id.Entity) {
	g.mu.Lock()
	defer g.mu.Unlock()

	var incident []Edge
	for key := range g.bySrcDstLabel {
		if key.src.Equal(e.ID) || key.dst.Equal(e.ID) || key.label.Equal(e.ID) {
			incident = append(incident, Edge{Src: key.src, Dst: key.dst, Label: key.label})
		}
	}
	for _, edge := range incident {
		g.deleteLocked(edge)
	}
}

// All returns every edge in the graph. Intended for diagnostics and
// savefile snapshotting, not hot-path queries.
func (g *Graph) All() []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Edge, 0, len(g.bySrcDstLabel))
	for key := range g.bySrcDstLabel {
		out = append(out, Edge{Src: key.src, Dst: key.dst, Label: key.label})
	}
	return out
}

func cloneEntities(in []id.Entity) []id.Entity {
	if len(in) == 0 {
		return nil
	}
	out := make([]id.Entity, len(in))
	copy(out, in)
	return out
}
