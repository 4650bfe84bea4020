package graph

import (
	"context"
	"errors"
	"testing"

	"github.com/alexanderramin/estima/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedGraph creates nodes a -> b -> c and one note in project p1.
func seedGraph(t *testing.T, b *memBackend) []domain.GraphNode {
	t.Helper()
	ctx := context.Background()
	var nodes []domain.GraphNode
	for _, title := range []string{"a", "b", "c"} {
		n := &domain.GraphNode{ProjectID: "p1", NodeAttrs: domain.NodeAttrs{Title: title}}
		require.NoError(t, b.CreateNode(ctx, n))
		nodes = append(nodes, *n)
	}
	require.NoError(t, b.ReplaceEdges(ctx, "p1", []domain.GraphEdge{
		{FromNodeID: nodes[0].ID, ToNodeID: nodes[1].ID},
		{FromNodeID: nodes[1].ID, ToNodeID: nodes[2].ID},
	}))
	require.NoError(t, b.CreateNote(ctx, &domain.GraphNote{ProjectID: "p1", NoteAttrs: domain.NoteAttrs{Content: "old"}}))
	return nodes
}

func TestReplace_ClearsPriorState(t *testing.T) {
	ctx := context.Background()
	b := newMemBackend("p1")
	old := seedGraph(t, b)

	res, err := Replace(ctx, b, "p1", Incoming{
		Nodes: []IncomingNode{{Key: "x", Attrs: domain.NodeAttrs{Title: "X"}}, {Key: "y", Attrs: domain.NodeAttrs{Title: "Y"}}},
		Edges: []KeyEdge{{FromKey: "x", ToKey: "y"}},
		Notes: []domain.NoteAttrs{{Content: "new"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.NodesCreated)
	assert.Equal(t, 1, res.EdgesCreated)
	assert.Equal(t, 1, res.NotesCreated)

	nodes, err := b.ListNodes(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	for _, o := range old {
		for _, n := range nodes {
			assert.NotEqual(t, o.ID, n.ID)
		}
	}
	edges, err := b.ListEdges(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, []domain.GraphEdge{{FromNodeID: res.KeyToID["x"], ToNodeID: res.KeyToID["y"]}}, edges)

	notes, err := b.ListNotes(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "new", notes[0].Content)
}

func TestReplace_StepOrder(t *testing.T) {
	ctx := context.Background()
	b := newMemBackend("p1")
	seedGraph(t, b)
	b.resetCalls()

	_, err := Replace(ctx, b, "p1", Incoming{Nodes: []IncomingNode{{Key: "x", Attrs: domain.NodeAttrs{Title: "X"}}}})
	require.NoError(t, err)

	assert.Equal(t, 2, b.callCount("ReplaceEdges"), "clear then bulk replace")
	assert.Equal(t, 3, b.callCount("DeleteNode"))
	assert.Equal(t, 1, b.callCount("DeleteNote"))
	assert.Equal(t, 1, b.callCount("CreateNode"))
}

func TestReplace_PartialFailure(t *testing.T) {
	ctx := context.Background()
	b := newMemBackend("p1")
	seedGraph(t, b)
	b.failAfter("DeleteNode", 1, domain.ErrTransport)

	_, err := Replace(ctx, b, "p1", Incoming{})

	require.ErrorIs(t, err, ErrPartialTransaction)
	require.ErrorIs(t, err, domain.ErrTransport)
	var pte *PartialTransactionError
	require.True(t, errors.As(err, &pte))
	assert.Equal(t, StepDeleteNodes, pte.Step)
	assert.Equal(t, 1, pte.Completed)

	edges, _ := b.ListEdges(ctx, "p1")
	assert.Empty(t, edges, "edges were cleared before the failure")
	nodes, _ := b.ListNodes(ctx, "p1")
	assert.Len(t, nodes, 2, "one node was deleted before the failure")
}

func TestReplace_FailureBeforeWriteIsNotPartial(t *testing.T) {
	ctx := context.Background()
	b := newMemBackend("p1")
	seedGraph(t, b)
	b.failAfter("ReplaceEdges", 1, domain.ErrTransport)

	_, err := Replace(ctx, b, "p1", Incoming{})

	require.ErrorIs(t, err, domain.ErrTransport)
	assert.NotErrorIs(t, err, ErrPartialTransaction)
	nodes, _ := b.ListNodes(ctx, "p1")
	assert.Len(t, nodes, 3)
}

func TestReplace_NodeCreationFailureAbortsRemainingSteps(t *testing.T) {
	ctx := context.Background()
	b := newMemBackend("p1")
	b.failAfter("CreateNode", 1, domain.ValidationError("bad node"))

	_, err := Replace(ctx, b, "p1", Incoming{
		Nodes: []IncomingNode{{Key: "x", Attrs: domain.NodeAttrs{Title: "X"}}, {Key: "y", Attrs: domain.NodeAttrs{Title: "Y"}}},
		Edges: []KeyEdge{{FromKey: "x", ToKey: "y"}},
		Notes: []domain.NoteAttrs{{Content: "never"}},
	})

	var pte *PartialTransactionError
	require.ErrorAs(t, err, &pte)
	assert.Equal(t, StepCreateNodes, pte.Step)
	assert.Equal(t, 3, pte.Completed)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, 1, b.callCount("ReplaceEdges"), "edge replace after creation was skipped")
	assert.Zero(t, b.callCount("CreateNote"))
}
