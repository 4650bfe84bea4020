package graph

import (
	"context"
	"fmt"

	"github.com/alexanderramin/estima/internal/domain"
)

// Result describes a completed replacement.
type Result struct {
	KeyToID      map[string]string
	NodesCreated int
	EdgesCreated int
	EdgesDropped int
	NotesCreated int
}

// Replace tears down the live graph of projectID and rebuilds it from in:
// clear edges, delete nodes, delete notes, create nodes, replace edges,
// create notes. Steps are ordered but not atomic. Once any step has written,
// a failure is reported as *PartialTransactionError and the remaining steps
// are skipped.
func Replace(ctx context.Context, store GraphStore, projectID string, in Incoming) (Result, error) {
	oldNodes, err := store.ListNodes(ctx, projectID)
	if err != nil {
		return Result{}, fmt.Errorf("listing nodes: %w", err)
	}
	oldNotes, err := store.ListNotes(ctx, projectID)
	if err != nil {
		return Result{}, fmt.Errorf("listing notes: %w", err)
	}

	completed := 0
	partial := func(step Step, err error) error {
		if completed == 0 {
			return fmt.Errorf("%s: %w", step, err)
		}
		return &PartialTransactionError{Step: step, Completed: completed, Err: err}
	}

	if err := store.ReplaceEdges(ctx, projectID, []domain.GraphEdge{}); err != nil {
		return Result{}, partial(StepClearEdges, err)
	}
	completed++

	for _, n := range oldNodes {
		if err := store.DeleteNode(ctx, projectID, n.ID); err != nil {
			return Result{}, partial(StepDeleteNodes, fmt.Errorf("deleting node %s: %w", n.ID, err))
		}
	}
	completed++

	for _, n := range oldNotes {
		if err := store.DeleteNote(ctx, projectID, n.ID); err != nil {
			return Result{}, partial(StepDeleteNotes, fmt.Errorf("deleting note %s: %w", n.ID, err))
		}
	}
	completed++

	rec, err := Reconcile(ctx, in.Nodes, in.Edges,
		func(n IncomingNode) string { return n.Key },
		func(ctx context.Context, n IncomingNode) (string, error) {
			node := &domain.GraphNode{ProjectID: projectID, NodeAttrs: n.Attrs.Clone()}
			if err := store.CreateNode(ctx, node); err != nil {
				return "", err
			}
			return node.ID, nil
		},
	)
	if err != nil {
		return Result{}, partial(StepCreateNodes, err)
	}
	completed++

	if err := store.ReplaceEdges(ctx, projectID, rec.Edges); err != nil {
		return Result{}, partial(StepReplaceEdges, err)
	}
	completed++

	for i, note := range in.Notes {
		n := &domain.GraphNote{ProjectID: projectID, NoteAttrs: note}
		if err := store.CreateNote(ctx, n); err != nil {
			return Result{}, partial(StepCreateNotes, fmt.Errorf("creating note %d: %w", i, err))
		}
	}

	return Result{
		KeyToID:      rec.KeyToID,
		NodesCreated: len(in.Nodes),
		EdgesCreated: len(rec.Edges),
		EdgesDropped: rec.Dropped,
		NotesCreated: len(in.Notes),
	}, nil
}
