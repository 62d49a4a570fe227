// Package apply implements the transactional batch operation endpoint: a
// list of operations is attempted in order against a single store
// transaction, every operation runs even after an earlier one fails, and
// the whole batch commits only if none of them produced an error.
package apply

import (
	"encoding/json"
	"fmt"

	"github.com/stigctl/engine/id"
	"github.com/stigctl/engine/jsonvalue"
	"github.com/stigctl/engine/store"
	"github.com/stigctl/engine/system"
)

// OpType discriminates the Operation variants over the wire.
type OpType string

const (
	OpCreateEntity              OpType = "create_entity"
	OpDeleteEntity              OpType = "delete_entity"
	OpUpsertComponent           OpType = "upsert_component"
	OpDeleteComponent           OpType = "delete_component"
	OpUpsertComponentDefinition OpType = "upsert_component_definition"
	OpDeleteComponentDefinition OpType = "delete_component_definition"
	OpUpsertInvariant           OpType = "upsert_invariant"
	OpDeleteInvariant           OpType = "delete_invariant"
	OpUpsertSystem              OpType = "upsert_system"
	OpDeleteSystem              OpType = "delete_system"
	OpCreateEdge                OpType = "create_edge"
	OpDeleteEdge                OpType = "delete_edge"
)

// Operation is one entry in an apply batch. Only the fields relevant to
// Type are populated; see the wire* struct for which.
type Operation struct {
	Type OpType

	Entity      *id.Entity // CreateEntity (optional), DeleteEntity, UpsertComponent, DeleteComponent
	Component   string     // UpsertComponent, DeleteComponent, DeleteComponentDefinition
	Data        any        // UpsertComponent

	Definition *store.ComponentDefinition // UpsertComponentDefinition

	InvariantID *id.InvariantID // UpsertInvariant (optional), DeleteInvariant
	Asserts     string          // UpsertInvariant

	System *system.System // UpsertSystem
	Name   string          // DeleteSystem

	Src   *id.Entity // CreateEdge, DeleteEdge
	Dst   *id.Entity // CreateEdge, DeleteEdge
	Label *id.Entity // CreateEdge, DeleteEdge
}

type wireOperation struct {
	Type        OpType          `json:"type"`
	Entity      json.RawMessage `json:"entity,omitempty"`
	Component   string          `json:"component,omitempty"`
	Data        json.RawMessage `json:"data,omitempty"`
	Definition  json.RawMessage `json:"definition,omitempty"`
	InvariantID json.RawMessage `json:"invariant_id,omitempty"`
	Asserts     string          `json:"asserts,omitempty"`
	System      json.RawMessage `json:"system,omitempty"`
	Name        string          `json:"name,omitempty"`
	Src         json.RawMessage `json:"src,omitempty"`
	Dst         json.RawMessage `json:"dst,omitempty"`
	Label       json.RawMessage `json:"label,omitempty"`
}

// UnmarshalJSON decodes the internally-tagged operation form
// ({"type": "...", ...fields}).
func (o *Operation) UnmarshalJSON(data []byte) error {
	var w wireOperation
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	o.Type = w.Type
	o.Component = w.Component
	o.Asserts = w.Asserts
	o.Name = w.Name

	if len(w.Entity) > 0 {
		var e id.Entity
		if err := json.Unmarshal(w.Entity, &e); err != nil {
			return fmt.Errorf("apply: decode entity: %w", err)
		}
		o.Entity = &e
	}
	if len(w.Data) > 0 {
		v, err := jsonvalue.Decode(w.Data)
		if err != nil {
			return fmt.Errorf("apply: decode data: %w", err)
		}
		o.Data = v
	}
	if len(w.Definition) > 0 {
		var def store.ComponentDefinition
		if err := json.Unmarshal(w.Definition, &def); err != nil {
			return fmt.Errorf("apply: decode definition: %w", err)
		}
		o.Definition = &def
	}
	if len(w.InvariantID) > 0 {
		var invID id.InvariantID
		if err := json.Unmarshal(w.InvariantID, &invID); err != nil {
			return fmt.Errorf("apply: decode invariant_id: %w", err)
		}
		o.InvariantID = &invID
	}
	if len(w.System) > 0 {
		var s system.System
		if err := json.Unmarshal(w.System, &s); err != nil {
			return fmt.Errorf("apply: decode system: %w", err)
		}
		o.System = &s
	}
	if len(w.Src) > 0 {
		var e id.Entity
		if err := json.Unmarshal(w.Src, &e); err != nil {
			return fmt.Errorf("apply: decode src: %w", err)
		}
		o.Src = &e
	}
	if len(w.Dst) > 0 {
		var e id.Entity
		if err := json.Unmarshal(w.Dst, &e); err != nil {
			return fmt.Errorf("apply: decode dst: %w", err)
		}
		o.Dst = &e
	}
	if len(w.Label) > 0 {
		var e id.Entity
		if err := json.Unmarshal(w.Label, &e); err != nil {
			return fmt.Errorf("apply: decode label: %w", err)
		}
		o.Label = &e
	}
	return nil
}

// MarshalJSON re-encodes the internally-tagged form.
func (o Operation) MarshalJSON() ([]byte, error) {
	w := wireOperation{Type: o.Type, Component: o.Component, Asserts: o.Asserts, Name: o.Name}

	var err error
	if o.Entity != nil {
		if w.Entity, err = json.Marshal(o.Entity); err != nil {
			return nil, err
		}
	}
	if o.Data != nil {
		if w.Data, err = json.Marshal(o.Data); err != nil {
			return nil, err
		}
	}
	if o.Definition != nil {
		if w.Definition, err = json.Marshal(o.Definition); err != nil {
			return nil, err
		}
	}
	if o.InvariantID != nil {
		if w.InvariantID, err = json.Marshal(o.InvariantID); err != nil {
			return nil, err
		}
	}
	if o.System != nil {
		if w.System, err = json.Marshal(o.System); err != nil {
			return nil, err
		}
	}
	if o.Src != nil {
		if w.Src, err = json.Marshal(o.Src); err != nil {
			return nil, err
		}
	}
	if o.Dst != nil {
		if w.Dst, err = json.Marshal(o.Dst); err != nil {
			return nil, err
		}
	}
	if o.Label != nil {
		if w.Label, err = json.Marshal(o.Label); err != nil {
			return nil, err
		}
	}
	return json.Marshal(w)
}

// Request is a batch of operations to apply in order.
type Request struct {
	Operations []Operation `json:"operations"`
}
