package apply

import (
	"encoding/json"

	"github.com/stigctl/engine/id"
)

// ResultType discriminates the OperationResult variants over the wire.
type ResultType string

const (
	ResultCreateEntity              ResultType = "create_entity"
	ResultDeleteEntity              ResultType = "delete_entity"
	ResultUpsertComponent           ResultType = "upsert_component"
	ResultDeleteComponent           ResultType = "delete_component"
	ResultUpsertComponentDefinition ResultType = "upsert_component_definition"
	ResultDeleteComponentDefinition ResultType = "delete_component_definition"
	ResultUpsertInvariant           ResultType = "upsert_invariant"
	ResultDeleteInvariant           ResultType = "delete_invariant"
	ResultUpsertSystem              ResultType = "upsert_system"
	ResultDeleteSystem              ResultType = "delete_system"
	ResultCreateEdge                ResultType = "create_edge"
	ResultDeleteEdge                ResultType = "delete_edge"
	ResultError                     ResultType = "error"
)

// OperationResult is the outcome of a single operation in a batch. Exactly
// one group of fields is populated, per Type.
type OperationResult struct {
	Type ResultType

	Entity    *id.Entity
	Component string
	Created   bool
	Deleted   bool

	InvariantID *id.InvariantID
	Asserts     string

	Name string

	Src   *id.Entity
	Dst   *id.Entity
	Label *id.Entity

	OperationIndex int
	Error          string
}

type wireResult struct {
	Type           ResultType      `json:"type"`
	Entity         *id.Entity      `json:"entity,omitempty"`
	Component      string          `json:"component,omitempty"`
	Created        *bool           `json:"created,omitempty"`
	Deleted        *bool           `json:"deleted,omitempty"`
	InvariantID    *id.InvariantID `json:"invariant_id,omitempty"`
	Asserts        string          `json:"asserts,omitempty"`
	Name           string          `json:"name,omitempty"`
	Src            *id.Entity      `json:"src,omitempty"`
	Dst            *id.Entity      `json:"dst,omitempty"`
	Label          *id.Entity      `json:"label,omitempty"`
	OperationIndex *int            `json:"operation_index,omitempty"`
	Error          string          `json:"error,omitempty"`
}

// MarshalJSON re-encodes the internally-tagged form, omitting the fields
// that don't apply to Type.
func (r OperationResult) MarshalJSON() ([]byte, error) {
	w := wireResult{
		Type:        r.Type,
		Entity:      r.Entity,
		Component:   r.Component,
		InvariantID: r.InvariantID,
		Asserts:     r.Asserts,
		Name:        r.Name,
		Src:         r.Src,
		Dst:         r.Dst,
		Label:       r.Label,
		Error:       r.Error,
	}
	switch r.Type {
	case ResultCreateEntity, ResultUpsertComponent, ResultUpsertComponentDefinition, ResultUpsertInvariant, ResultUpsertSystem, ResultCreateEdge:
		w.Created = &r.Created
	case ResultDeleteEntity, ResultDeleteComponent, ResultDeleteComponentDefinition, ResultDeleteInvariant, ResultDeleteSystem, ResultDeleteEdge:
		w.Deleted = &r.Deleted
	case ResultError:
		w.OperationIndex = &r.OperationIndex
	}
	return json.Marshal(w)
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (r *OperationResult) UnmarshalJSON(data []byte) error {
	var w wireResult
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*r = OperationResult{
		Type:        w.Type,
		Entity:      w.Entity,
		Component:   w.Component,
		InvariantID: w.InvariantID,
		Asserts:     w.Asserts,
		Name:        w.Name,
		Src:         w.Src,
		Dst:         w.Dst,
		Label:       w.Label,
		Error:       w.Error,
	}
	if w.Created != nil {
		r.Created = *w.Created
	}
	if w.Deleted != nil {
		r.Deleted = *w.Deleted
	}
	if w.OperationIndex != nil {
		r.OperationIndex = *w.OperationIndex
	}
	return nil
}

// Response is returned from an apply batch.
type Response struct {
	Results   []OperationResult `json:"results"`
	Committed bool              `json:"committed"`
}
