package graph

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/alexanderramin/estima/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_OpenLoadsOnce(t *testing.T) {
	ctx := context.Background()
	b := newMemBackend("p1")
	r := NewRegistry(b)

	ws1, err := r.Open(ctx, "p1")
	require.NoError(t, err)
	ws2, err := r.Open(ctx, "p1")
	require.NoError(t, err)

	assert.Same(t, ws1, ws2)
	assert.Equal(t, 1, b.callCount("GetProject"))
	assert.Equal(t, "Project p1", ws1.Project().Name)
}

func TestRegistry_SwitchReloads(t *testing.T) {
	ctx := context.Background()
	b := newMemBackend("p1")
	r := NewRegistry(b)
	_, err := r.Open(ctx, "p1")
	require.NoError(t, err)

	b.notes = append(b.notes, domain.GraphNote{ID: "x", ProjectID: "p1", NoteAttrs: domain.NoteAttrs{Content: "external"}})
	ws, err := r.Switch(ctx, "p1")
	require.NoError(t, err)

	assert.Equal(t, 2, b.callCount("GetProject"))
	assert.Len(t, ws.Notes(), 1)
}

func TestRegistry_SwitchKeepsCatalogs(t *testing.T) {
	ctx := context.Background()
	b := newMemBackend("p1")
	r := NewRegistry(b)
	_, err := r.Open(ctx, "p1")
	require.NoError(t, err)
	b.resetCalls()

	_, err = r.Switch(ctx, "p1")
	require.NoError(t, err)

	for _, method := range []string{"ListModules", "ListRates", "ListInfrastructureItems"} {
		assert.Zero(t, b.callCount(method), "%s is not part of a project switch", method)
	}
	assert.Equal(t, 1, b.callCount("ListProjectConnections"))
}

func TestRegistry_SwitchToUnloadedProjectLoadsOnce(t *testing.T) {
	ctx := context.Background()
	b := newMemBackend("p1", "p2")
	r := NewRegistry(b)

	ws, err := r.Switch(ctx, "p2")
	require.NoError(t, err)

	assert.Equal(t, "p2", ws.ProjectID())
	assert.Equal(t, 1, b.callCount("GetProject"))
	assert.Equal(t, 1, b.callCount("Summary"))
	assert.Equal(t, 1, b.callCount("ListModules"))
}

func TestRegistry_SwitchToDeletedProject(t *testing.T) {
	ctx := context.Background()
	b := newMemBackend("p1")
	r := NewRegistry(b)
	_, err := r.Open(ctx, "p1")
	require.NoError(t, err)

	delete(b.projects, "p1")
	_, err = r.Switch(ctx, "p1")

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, r.Projects())
}

func TestRegistry_OpenUnknownProject(t *testing.T) {
	r := NewRegistry(newMemBackend("p1"))

	_, err := r.Open(context.Background(), "nope")

	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, []string{}, r.Projects())
}

func TestRegistry_ProjectsAreIsolated(t *testing.T) {
	ctx := context.Background()
	b := newMemBackend("p1", "p2")
	r := NewRegistry(b)

	var wg sync.WaitGroup
	for _, id := range []string{"p1", "p2"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ws, err := r.Open(ctx, id)
			if !assert.NoError(t, err) {
				return
			}
			for i := 0; i < 5; i++ {
				_, err := ws.CreateNode(ctx, domain.NodeAttrs{Title: fmt.Sprintf("%s-%d", id, i)})
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	for _, id := range []string{"p1", "p2"} {
		ws, err := r.Open(ctx, id)
		require.NoError(t, err)
		nodes := ws.Nodes()
		require.Len(t, nodes, 5)
		for _, n := range nodes {
			assert.Equal(t, id, n.ProjectID)
		}
	}
	assert.Equal(t, []string{"p1", "p2"}, r.Projects())
}

func TestRegistry_UpsertRateBroadcasts(t *testing.T) {
	ctx := context.Background()
	b := newMemBackend("p1", "p2")
	r := NewRegistry(b)
	ws1, err := r.Open(ctx, "p1")
	require.NoError(t, err)
	ws2, err := r.Open(ctx, "p2")
	require.NoError(t, err)

	_, err = r.UpsertRate(ctx, domain.Rate{Role: "backend", Level: "senior", HourlyRate: 90})
	require.NoError(t, err)

	for _, ws := range []*Workspace{ws1, ws2} {
		rates := ws.State().Rates
		require.Len(t, rates, 1)
		assert.Equal(t, 90.0, rates[0].HourlyRate)
	}

	_, err = r.UpsertRate(ctx, domain.Rate{Role: "backend", Level: "senior", HourlyRate: -1})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestRegistry_UpsertRateSurvivesFailedRefresh(t *testing.T) {
	ctx := context.Background()
	b := newMemBackend("p1")
	obs := &recordingObserver{}
	r := NewRegistry(b, WithObserver(obs))
	_, err := r.Open(ctx, "p1")
	require.NoError(t, err)
	b.failAfter("ListRates", b.callCount("ListRates"), domain.ErrTransport)

	saved, err := r.UpsertRate(ctx, domain.Rate{Role: "qa", Level: "middle", HourlyRate: 40})

	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	require.Len(t, b.rates, 1)
	assert.Equal(t, 40.0, b.rates[0].HourlyRate)
	require.Contains(t, obs.names(), "broadcast")
	for _, e := range obs.events {
		if e.Name == "broadcast" {
			assert.ErrorIs(t, e.Err, domain.ErrTransport)
		}
	}
}

func TestRegistry_BroadcastJoinsErrors(t *testing.T) {
	ctx := context.Background()
	b := newMemBackend("p1")
	r := NewRegistry(b)
	_, err := r.Open(ctx, "p1")
	require.NoError(t, err)
	b.failAfter("ListModules", b.callCount("ListModules"), domain.ErrTransport)

	err = r.Broadcast(ctx, EventModuleCatalogChanged)
	assert.ErrorIs(t, err, domain.ErrTransport)
	assert.Contains(t, err.Error(), "project p1")
}

func TestRegistry_Close(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry(newMemBackend("p1"))
	_, err := r.Open(ctx, "p1")
	require.NoError(t, err)

	r.Close("p1")
	assert.Empty(t, r.Projects())
}
