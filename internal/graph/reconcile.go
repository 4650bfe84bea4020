package graph

import (
	"context"
	"fmt"

	"github.com/alexanderramin/estima/internal/domain"
)

// KeyEdge references its endpoints by ephemeral key.
type KeyEdge struct {
	FromKey string
	ToKey   string
}

// Reconciliation maps ephemeral keys onto persisted ids.
type Reconciliation struct {
	KeyToID map[string]string
	Edges   []domain.GraphEdge
	Dropped int
}

// Reconcile creates every node in order and records key -> id. Edges whose
// endpoints did not both resolve are dropped and counted, never returned.
// Duplicate resolved edges collapse into one. When two nodes share a key the
// later one owns it.
//
// A create error aborts reconciliation; the returned Reconciliation then
// describes the nodes created so far.
func Reconcile[N any](
	ctx context.Context,
	nodes []N,
	edges []KeyEdge,
	keyOf func(N) string,
	create func(ctx context.Context, n N) (string, error),
) (Reconciliation, error) {
	rec := Reconciliation{
		KeyToID: make(map[string]string, len(nodes)),
		Edges:   []domain.GraphEdge{},
	}

	for _, n := range nodes {
		if err := ctx.Err(); err != nil {
			return rec, err
		}
		key := keyOf(n)
		id, err := create(ctx, n)
		if err != nil {
			return rec, fmt.Errorf("creating node %q: %w", key, err)
		}
		rec.KeyToID[key] = id
	}

	seen := make(map[domain.GraphEdge]bool, len(edges))
	for _, e := range edges {
		from, okFrom := rec.KeyToID[e.FromKey]
		to, okTo := rec.KeyToID[e.ToKey]
		if !okFrom || !okTo {
			rec.Dropped++
			continue
		}
		ge := domain.GraphEdge{FromNodeID: from, ToNodeID: to}
		if seen[ge] {
			continue
		}
		seen[ge] = true
		rec.Edges = append(rec.Edges, ge)
	}
	return rec, nil
}
