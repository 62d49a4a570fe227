package apply

import (
	"context"
	"errors"
	"fmt"

	"github.com/stigctl/engine/graph"
	"github.com/stigctl/engine/id"
	"github.com/stigctl/engine/schema"
	"github.com/stigctl/engine/store"
)

// Run applies a batch of operations transactionally against beginner.
//
// Every operation in the batch is attempted even after an earlier one
// fails, so a single round-trip surfaces every validation problem in the
// batch rather than just the first. The transaction commits only if no
// operation produced an error; otherwise everything is rolled back and
// Response.Committed is false.
func Run(ctx context.Context, beginner store.Beginner, req Request) (Response, error) {
	tx, err := beginner.Begin(ctx)
	if err != nil {
		return Response{}, fmt.Errorf("apply: begin transaction: %w", err)
	}

	results := make([]OperationResult, len(req.Operations))
	hasErrors := false
	for i, op := range req.Operations {
		result := runOne(ctx, tx, i, op)
		if result.Type == ResultError {
			hasErrors = true
		}
		results[i] = result
	}

	if hasErrors {
		if err := tx.Rollback(ctx); err != nil {
			return Response{}, fmt.Errorf("apply: rollback transaction: %w", err)
		}
		return Response{Results: results, Committed: false}, nil
	}

	if err := tx.Commit(ctx); err != nil {
		return Response{}, fmt.Errorf("apply: commit transaction: %w", err)
	}
	return Response{Results: results, Committed: true}, nil
}

func runOne(ctx context.Context, tx store.Tx, idx int, op Operation) OperationResult {
	switch op.Type {
	case OpCreateEntity:
		return createEntity(ctx, tx, idx, op)
	case OpDeleteEntity:
		return deleteEntity(ctx, tx, idx, op)
	case OpUpsertComponent:
		return upsertComponent(ctx, tx, idx, op)
	case OpDeleteComponent:
		return deleteComponent(ctx, tx, idx, op)
	case OpUpsertComponentDefinition:
		return upsertComponentDefinition(ctx, tx, idx, op)
	case OpDeleteComponentDefinition:
		return deleteComponentDefinition(ctx, tx, idx, op)
	case OpUpsertInvariant:
		return upsertInvariant(ctx, tx, idx, op)
	case OpDeleteInvariant:
		return deleteInvariant(ctx, tx, idx, op)
	case OpUpsertSystem:
		return upsertSystem(ctx, tx, idx, op)
	case OpDeleteSystem:
		return deleteSystem(ctx, tx, idx, op)
	case OpCreateEdge:
		return createEdge(ctx, tx, idx, op)
	case OpDeleteEdge:
		return deleteEdge(ctx, tx, idx, op)
	default:
		return errorResult(idx, fmt.Sprintf("unknown operation type %q", op.Type))
	}
}

func errorResult(idx int, msg string) OperationResult {
	return OperationResult{Type: ResultError, OperationIndex: idx, Error: msg}
}

func createEntity(ctx context.Context, tx store.Tx, idx int, op Operation) OperationResult {
	entity := op.Entity
	if entity == nil {
		e, err := id.NewEntity()
		if err != nil {
			return errorResult(idx, fmt.Sprintf("failed to generate random entity: %v", err))
		}
		entity = &e
	}

	created, err := tx.CreateEntity(ctx, *entity)
	if err != nil {
		return errorResult(idx, fmt.Sprintf("failed to create entity: %v", err))
	}
	return OperationResult{Type: ResultCreateEntity, Entity: entity, Created: created}
}

func deleteEntity(ctx context.Context, tx store.Tx, idx int, op Operation) OperationResult {
	if op.Entity == nil {
		return errorResult(idx, "delete_entity requires entity")
	}
	deleted, err := tx.DeleteEntity(ctx, *op.Entity)
	if err != nil {
		return errorResult(idx, fmt.Sprintf("failed to delete entity: %v", err))
	}
	return OperationResult{Type: ResultDeleteEntity, Entity: op.Entity, Deleted: deleted}
}

func upsertComponent(ctx context.Context, tx store.Tx, idx int, op Operation) OperationResult {
	if op.Entity == nil {
		return errorResult(idx, "upsert_component requires entity")
	}

	def, err := tx.GetComponentDefinition(ctx, op.Component)
	if err != nil {
		return errorResult(idx, fmt.Sprintf("failed to retrieve component definition: %v", err))
	}
	if def == nil {
		return errorResult(idx, fmt.Sprintf("component definition not found: %s", op.Component))
	}

	if err := schema.ValidateValue(op.Data, def.Schema); err != nil {
		return errorResult(idx, fmt.Sprintf("component data validation failed: %v", err))
	}

	created, err := tx.UpsertComponent(ctx, *op.Entity, op.Component, op.Data)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return errorResult(idx, "entity not found")
	case err != nil:
		return errorResult(idx, fmt.Sprintf("failed to upsert component: %v", err))
	}
	return OperationResult{Type: ResultUpsertComponent, Entity: op.Entity, Component: op.Component, Created: created}
}

func deleteComponent(ctx context.Context, tx store.Tx, idx int, op Operation) OperationResult {
	if op.Entity == nil {
		return errorResult(idx, "delete_component requires entity")
	}
	deleted, err := tx.DeleteComponent(ctx, *op.Entity, op.Component)
	if err != nil {
		return errorResult(idx, fmt.Sprintf("failed to delete component: %v", err))
	}
	return OperationResult{Type: ResultDeleteComponent, Entity: op.Entity, Component: op.Component, Deleted: deleted}
}

func upsertComponentDefinition(ctx context.Context, tx store.Tx, idx int, op Operation) OperationResult {
	if op.Definition == nil {
		return errorResult(idx, "upsert_component_definition requires definition")
	}
	if err := schema.ValidateSchema(op.Definition.Schema); err != nil {
		return errorResult(idx, fmt.Sprintf("component definition schema validation failed: %v", err))
	}

	created, err := tx.UpsertComponentDefinition(ctx, op.Definition)
	if err != nil {
		return errorResult(idx, fmt.Sprintf("failed to upsert component definition: %v", err))
	}
	return OperationResult{Type: ResultUpsertComponentDefinition, Component: op.Definition.Component, Created: created}
}

func deleteComponentDefinition(ctx context.Context, tx store.Tx, idx int, op Operation) OperationResult {
	deleted, err := tx.DeleteComponentDefinition(ctx, op.Component)
	if err != nil {
		return errorResult(idx, fmt.Sprintf("failed to delete component definition: %v", err))
	}
	return OperationResult{Type: ResultDeleteComponentDefinition, Component: op.Component, Deleted: deleted}
}

func upsertInvariant(ctx context.Context, tx store.Tx, idx int, op Operation) OperationResult {
	invID := op.InvariantID
	if invID == nil {
		v, err := id.NewInvariantID()
		if err != nil {
			return errorResult(idx, fmt.Sprintf("failed to generate random invariant: %v", err))
		}
		invID = &v
	}

	created, err := tx.UpsertInvariant(ctx, *invID, op.Asserts)
	if err != nil {
		return errorResult(idx, fmt.Sprintf("failed to upsert invariant: %v", err))
	}
	return OperationResult{Type: ResultUpsertInvariant, InvariantID: invID, Asserts: op.Asserts, Created: created}
}

func deleteInvariant(ctx context.Context, tx store.Tx, idx int, op Operation) OperationResult {
	if op.InvariantID == nil {
		return errorResult(idx, "delete_invariant requires invariant_id")
	}
	deleted, err := tx.DeleteInvariant(ctx, *op.InvariantID)
	if err != nil {
		return errorResult(idx, fmt.Sprintf("failed to delete invariant: %v", err))
	}
	return OperationResult{Type: ResultDeleteInvariant, InvariantID: op.InvariantID, Deleted: deleted}
}

func upsertSystem(ctx context.Context, tx store.Tx, idx int, op Operation) OperationResult {
	if op.System == nil {
		return errorResult(idx, "upsert_system requires system")
	}
	created, err := tx.UpsertSystem(ctx, op.System)
	if err != nil {
		return errorResult(idx, fmt.Sprintf("failed to upsert system: %v", err))
	}
	return OperationResult{Type: ResultUpsertSystem, Name: string(op.System.Name), Created: created}
}

func deleteSystem(ctx context.Context, tx store.Tx, idx int, op Operation) OperationResult {
	deleted, err := tx.DeleteSystem(ctx, op.Name)
	if err != nil {
		return errorResult(idx, fmt.Sprintf("failed to delete system: %v", err))
	}
	return OperationResult{Type: ResultDeleteSystem, Name: op.Name, Deleted: deleted}
}

func createEdge(ctx context.Context, tx store.Tx, idx int, op Operation) OperationResult {
	if op.Src == nil || op.Dst == nil || op.Label == nil {
		return errorResult(idx, "create_edge requires src, dst, and label")
	}
	created, err := tx.CreateEdge(ctx, graph.Edge{Src: *op.Src, Dst: *op.Dst, Label: *op.Label})
	switch {
	case errors.Is(err, store.ErrNotFound):
		return errorResult(idx, "src, dst, and label must all exist as entities")
	case err != nil:
		return errorResult(idx, fmt.Sprintf("failed to create edge: %v", err))
	}
	return OperationResult{Type: ResultCreateEdge, Src: op.Src, Dst: op.Dst, Label: op.Label, Created: created}
}

func deleteEdge(ctx context.Context, tx store.Tx, idx int, op Operation) OperationResult {
	if op.Src == nil || op.Dst == nil || op.Label == nil {
		return errorResult(idx, "delete_edge requires src, dst, and label")
	}
	deleted, err := tx.DeleteEdge(ctx, graph.Edge{Src: *op.Src, Dst: *op.Dst, Label: *op.Label})
	if err != nil {
		return errorResult(idx, fmt.Sprintf("failed to delete edge: %v", err))
	}
	return OperationResult{Type: ResultDeleteEdge, Src: op.Src, Dst: op.Dst, Label: op.Label, Deleted: deleted}
}
