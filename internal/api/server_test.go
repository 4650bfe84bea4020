package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/estima/internal/backend"
	"github.com/alexanderramin/estima/internal/domain"
	"github.com/alexanderramin/estima/internal/graph"
	"github.com/alexanderramin/estima/internal/testutil"
)

type testEnv struct {
	url    string
	local  *backend.Local
	client *backend.Client
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	local := backend.NewLocal(testutil.NewTestDB(t), nil)
	s, err := NewServer(StartOpts{Service: local})
	require.NoError(t, err)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return testEnv{url: srv.URL, local: local, client: backend.NewClient(srv.URL, 5*time.Second)}
}

func (e testEnv) request(t *testing.T, method, path, body string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(method, e.url+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(data)
}

func seedRemote(t *testing.T, c *backend.Client) (*domain.Project, *domain.Module) {
	t.Helper()
	ctx := context.Background()
	p := testutil.NewTestProject("Shop")
	require.NoError(t, c.CreateProject(ctx, p))
	require.NotEmpty(t, p.ID)

	m := testutil.NewTestModule("Auth", testutil.WithCode("AUTH"), testutil.WithHours(10, 20, 5))
	require.NoError(t, c.CreateModule(ctx, m))
	require.NoError(t, c.AddProjectModule(ctx, &domain.ProjectModule{ProjectID: p.ID, ModuleID: m.ID}))
	for _, r := range []domain.Rate{
		{Role: "frontend", Level: "middle", HourlyRate: 50},
		{Role: "backend", Level: "senior", HourlyRate: 100},
		{Role: "qa", Level: "middle", HourlyRate: 30},
	} {
		require.NoError(t, c.UpsertRate(ctx, &r))
	}
	return p, m
}

func TestServer_RemoteClientRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p, m := seedRemote(t, env.client)

	coefs, err := env.client.ListCoefficients(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, coefs, len(domain.DefaultCoefficientNames))

	s, err := env.client.Summary(ctx, p.ID)
	require.NoError(t, err)
	assert.InDelta(t, 35, s.Totals.HoursTotal, 1e-9)
	assert.InDelta(t, 2650, s.Totals.CostTotal, 1e-9)

	ws := graph.NewWorkspace(p.ID, env.client)
	require.NoError(t, ws.Reload(ctx))

	login, err := ws.CreateNode(ctx, domain.NodeAttrs{Title: "Login", ModuleID: &m.ID})
	require.NoError(t, err)
	signup, err := ws.CreateNode(ctx, domain.NodeAttrs{Title: "Signup"})
	require.NoError(t, err)
	_, err = ws.ReplaceEdges(ctx, []domain.GraphEdge{{FromNodeID: login.ID, ToNodeID: signup.ID}})
	require.NoError(t, err)

	v, err := ws.SaveVersion(ctx, "baseline")
	require.NoError(t, err)
	require.NotEmpty(t, v.ID)

	require.NoError(t, ws.DeleteNode(ctx, signup.ID))
	_, err = ws.CreateNode(ctx, domain.NodeAttrs{Title: "Scratch"})
	require.NoError(t, err)

	res, err := ws.ApplyVersion(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, res.NodesCreated)
	assert.Equal(t, 1, res.EdgesCreated)

	stored, err := env.local.ListNodes(ctx, p.ID)
	require.NoError(t, err)
	titles := make([]string, 0, len(stored))
	for _, n := range stored {
		titles = append(titles, n.Title)
	}
	assert.ElementsMatch(t, []string{"Login", "Signup"}, titles)

	versions, err := env.client.ListVersions(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, versions, 1)
	assert.Nil(t, versions[0].Snapshot)

	detail, err := env.client.GetVersion(ctx, p.ID, v.ID)
	require.NoError(t, err)
	require.NotNil(t, detail.Snapshot)
	assert.Len(t, detail.Snapshot.Nodes, 2)
}

func TestServer_ErrorStatuses(t *testing.T) {
	env := newTestEnv(t)
	p, _ := seedRemote(t, env.client)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"unknown project", http.MethodGet, "/api/projects/missing", "", http.StatusNotFound},
		{"malformed body", http.MethodPost, "/api/projects", "{", http.StatusBadRequest},
		{"blank project name", http.MethodPost, "/api/projects", `{"name":" "}`, http.StatusUnprocessableEntity},
		{"node without title", http.MethodPost, "/api/projects/" + p.ID + "/nodes", `{"title":""}`, http.StatusUnprocessableEntity},
		{"unknown version", http.MethodPost, "/api/projects/" + p.ID + "/versions/nope/apply", "", http.StatusNotFound},
		{"version without title", http.MethodPost, "/api/projects/" + p.ID + "/versions", `{"title":""}`, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := env.request(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)

			var e ErrorResponse
			require.NoError(t, json.Unmarshal([]byte(body), &e))
			assert.NotEmpty(t, e.Error)
		})
	}
}

func TestServer_ConnectionsReplace(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p, _ := seedRemote(t, env.client)

	cart := testutil.NewTestModule("Cart", testutil.WithCode("CART"))
	require.NoError(t, env.client.CreateModule(ctx, cart))
	require.NoError(t, env.client.AddProjectModule(ctx, &domain.ProjectModule{ProjectID: p.ID, ModuleID: cart.ID}))
	pms, err := env.client.ListProjectModules(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, pms, 2)

	stored, err := env.client.ReplaceProjectConnections(ctx, p.ID, []domain.ProjectConnection{
		{FromProjectModuleID: pms[0].ID, ToProjectModuleID: pms[1].ID},
	})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, p.ID, stored[0].ProjectID)

	listed, err := env.client.ListProjectConnections(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, stored, listed)

	body := `[{"from_project_module_id":"` + pms[0].ID + `","to_project_module_id":"elsewhere"}]`
	resp, _ := env.request(t, http.MethodPut, "/api/projects/"+p.ID+"/connections", body)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, _ = env.request(t, http.MethodPut, "/api/projects/missing/connections", "[]")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	listed, err = env.client.ListProjectConnections(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}

func TestServer_Export(t *testing.T) {
	env := newTestEnv(t)
	p, _ := seedRemote(t, env.client)

	resp, body := env.request(t, http.MethodGet, "/api/projects/"+p.ID+"/export?format=csv", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/csv")
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "project-"+p.ID+"-export.csv")
	assert.Contains(t, body, "Auth;backend;senior;20.00;100.00;2000.00")

	resp, _ = env.request(t, http.MethodGet, "/api/projects/"+p.ID+"/export?format=pdf", "")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestServer_CatalogChangeRefreshesOpenWorkspaces(t *testing.T) {
	env := newTestEnv(t)
	p, m := seedRemote(t, env.client)
	ctx := context.Background()

	// Opens the project's workspace on the server.
	_, err := env.client.ListProjectModules(ctx, p.ID)
	require.NoError(t, err)

	m.HoursBackend = 40
	require.NoError(t, env.client.UpdateModule(ctx, m))

	s, err := env.client.Summary(ctx, p.ID)
	require.NoError(t, err)
	assert.InDelta(t, 55, s.Totals.HoursTotal, 1e-9)
}

func TestServer_MindmapGenerateThenMerge(t *testing.T) {
	env := newTestEnv(t)
	p, _ := seedRemote(t, env.client)

	resp, body := env.request(t, http.MethodPost, "/api/ai/mindmap", `{"prompt":"login and signup"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var proposal domain.Proposal
	require.NoError(t, json.Unmarshal([]byte(body), &proposal))
	require.NotEmpty(t, proposal.Nodes)

	// Generating alone does not touch the graph.
	nodes, err := env.local.ListNodes(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Empty(t, nodes)

	resp, body = env.request(t, http.MethodPost, "/api/projects/"+p.ID+"/mindmap/merge", body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var res replaceResponse
	require.NoError(t, json.Unmarshal([]byte(body), &res))
	assert.Equal(t, len(proposal.Nodes), res.NodesCreated)
	assert.Len(t, res.KeyToID, len(proposal.Nodes))
}

func TestServer_ParseHeuristics(t *testing.T) {
	env := newTestEnv(t)
	seedRemote(t, env.client)

	resp, body := env.request(t, http.MethodPost, "/api/ai/parse", `{"prompt":"auth for the shop"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var res domain.ParseResult
	require.NoError(t, json.Unmarshal([]byte(body), &res))
	assert.NotEmpty(t, res.Tasks)

	resp, _ = env.request(t, http.MethodPost, "/api/ai/parse", `{"prompt":""}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestServer_HealthAndMetrics(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.request(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "ok")

	env.request(t, http.MethodGet, "/api/projects", "")
	resp, body = env.request(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "estima_api_requests_total")
}

func TestNewServer_RequiresService(t *testing.T) {
	_, err := NewServer(StartOpts{})
	assert.Error(t, err)
}
