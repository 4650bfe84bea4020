package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/alexanderramin/estima/internal/backend"
	"github.com/alexanderramin/estima/internal/cli/formatter"
	"github.com/alexanderramin/estima/internal/domain"
	"github.com/alexanderramin/estima/internal/testutil"
)

func TestMain(m *testing.M) {
	formatter.DisableColor()
	os.Exit(m.Run())
}

// testApp wires an App over an in-memory database with the LLM disabled.
func testApp(t *testing.T) *App {
	t.Helper()
	return &App{Service: backend.NewLocal(testutil.NewTestDB(t), nil)}
}

// executeCmd runs a cobra command and captures stdout/stderr.
func executeCmd(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(app)
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func mustExec(t *testing.T, app *App, args ...string) string {
	t.Helper()
	out, err := executeCmd(t, app, args...)
	require.NoError(t, err, out)
	return out
}

// seedProject creates a project with the Auth module attached and rates set.
func seedProject(t *testing.T, app *App) string {
	t.Helper()
	mustExec(t, app, "project", "create", "--name", "Shop")
	projects, err := app.Service.ListProjects(context.Background())
	require.NoError(t, err)
	require.Len(t, projects, 1)
	id := projects[0].ID

	mustExec(t, app, "module", "create", "--code", "AUTH", "--name", "Auth",
		"--description", "login signup", "--frontend", "10", "--backend", "20", "--qa", "5")
	mustExec(t, app, "rate", "set", "--role", "frontend", "--level", "middle", "--rate", "50")
	mustExec(t, app, "rate", "set", "--role", "backend", "--level", "senior", "--rate", "100")
	mustExec(t, app, "rate", "set", "--role", "qa", "--level", "middle", "--rate", "30")
	mustExec(t, app, "module", "add", "auth", "-p", id)
	return id
}

func TestProjectCreateAndList(t *testing.T) {
	app := testApp(t)
	out := mustExec(t, app, "project", "create", "--name", "Shop", "--uiux", domain.UIUXAward)
	assert.Contains(t, out, "Created project")

	out = mustExec(t, app, "project", "list")
	assert.Contains(t, out, "Shop")
	assert.Contains(t, out, domain.UIUXAward)
}

func TestProjectList_Empty(t *testing.T) {
	out := mustExec(t, testApp(t), "project", "list")
	assert.Contains(t, out, "No projects found.")
}

func TestProjectCreate_RequiresName(t *testing.T) {
	_, err := executeCmd(t, testApp(t), "project", "create")
	assert.Error(t, err)
}

func TestProjectShow_SelectsByName(t *testing.T) {
	app := testApp(t)
	seedProject(t, app)

	out := mustExec(t, app, "project", "show", "-p", "shop")
	assert.Contains(t, out, "Auth")
	assert.Contains(t, out, "35.0h")
	assert.Contains(t, out, "2,650.00")
	assert.Contains(t, out, "Uncertainty")
}

func TestCommandsRequireProject(t *testing.T) {
	app := testApp(t)
	_, err := executeCmd(t, app, "summary")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no project selected")

	_, err = executeCmd(t, app, "summary", "-p", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "project not found")
}

func TestModuleOverrideAndAssign(t *testing.T) {
	app := testApp(t)
	id := seedProject(t, app)

	out := mustExec(t, app, "module", "override", "auth", "-p", id, "--backend", "40")
	assert.Contains(t, out, "55.0h")

	out = mustExec(t, app, "module", "list", "-p", id)
	assert.Contains(t, out, "40.0h")

	mustExec(t, app, "rate", "set", "--role", "backend", "--level", "junior", "--rate", "40")
	out = mustExec(t, app, "assign", "auth", "-p", id, "--role", "backend", "--level", "junior")
	// 10*50 + 40*40 + 5*30
	assert.Contains(t, out, "2,250.00")

	out = mustExec(t, app, "module", "override", "auth", "-p", id, "--clear")
	assert.Contains(t, out, "35.0h")

	mustExec(t, app, "module", "remove", "auth", "-p", id)
	out = mustExec(t, app, "summary", "-p", id)
	assert.Contains(t, out, "0.0h")
}

func TestModuleConnect(t *testing.T) {
	app := testApp(t)
	id := seedProject(t, app)
	mustExec(t, app, "module", "create", "--code", "CART", "--name", "Cart", "--frontend", "4")
	mustExec(t, app, "module", "add", "cart", "-p", id)

	out := mustExec(t, app, "module", "connect", "auth>cart", "-p", id)
	assert.Contains(t, out, "Auth -> Cart")

	out = mustExec(t, app, "module", "list", "-p", id)
	assert.Contains(t, out, "Connections")

	_, err := executeCmd(t, app, "module", "connect", "auth-cart", "-p", id)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "want from>to")

	out = mustExec(t, app, "module", "connect", "-p", id)
	assert.Contains(t, out, "No connections.")
}

func TestConnectSeedsCatalogOnce(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "estima.db")

	for range 2 {
		app := &App{LogOutput: new(bytes.Buffer)}
		out := mustExec(t, app, "--db", path, "module", "list")
		assert.Contains(t, out, "payments")
		require.NoError(t, app.Close())
	}

	app := &App{LogOutput: new(bytes.Buffer)}
	mustExec(t, app, "--db", path, "rate", "list")
	t.Cleanup(func() { _ = app.Close() })
	modules, err := app.Service.ListModules(context.Background())
	require.NoError(t, err)
	assert.Len(t, modules, 15)
	rates, err := app.Service.ListRates(context.Background())
	require.NoError(t, err)
	assert.Len(t, rates, 6)
}

func TestCoefAndSettingsScaleEstimate(t *testing.T) {
	app := testApp(t)
	id := seedProject(t, app)

	out := mustExec(t, app, "coef", "set", "Legacy code", "2", "-p", id)
	assert.Contains(t, out, "70.0h")

	_, err := executeCmd(t, app, "coef", "set", "Legacy code", "abc", "-p", id)
	assert.Error(t, err)
}

func TestInfraCreateAndSet(t *testing.T) {
	app := testApp(t)
	id := seedProject(t, app)

	mustExec(t, app, "infra", "create", "--code", "DB", "--name", "Postgres", "--unit-cost", "1500")
	out := mustExec(t, app, "infra", "set", "db", "2", "-p", id)
	assert.Contains(t, out, "3,000.00")

	_, err := executeCmd(t, app, "infra", "set", "missing", "1", "-p", id)
	assert.Error(t, err)
}

func TestGraphEditAndVersionRoundTrip(t *testing.T) {
	app := testApp(t)
	id := seedProject(t, app)
	ctx := context.Background()

	mustExec(t, app, "graph", "node", "add", "-p", id, "--title", "Login", "--module", "AUTH", "--backend", "8")
	mustExec(t, app, "graph", "node", "add", "-p", id, "--title", "Signup")
	nodes, err := app.Service.ListNodes(ctx, id)
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	byTitle := map[string]string{}
	for _, n := range nodes {
		byTitle[n.Title] = n.ID
	}

	out := mustExec(t, app, "graph", "edges", "set", "-p", id, byTitle["Login"]+">"+byTitle["Signup"])
	assert.Contains(t, out, "Saved 1 edges")
	mustExec(t, app, "graph", "note", "add", "-p", id, "check", "SSO")

	out = mustExec(t, app, "graph", "show", "-p", id)
	assert.Contains(t, out, "└─ Signup")
	assert.Contains(t, out, "check SSO")

	out = mustExec(t, app, "version", "save", "-p", id, "baseline")
	assert.Contains(t, out, "baseline")

	mustExec(t, app, "graph", "node", "rm", "-p", id, byTitle["Signup"])
	edges, err := app.Service.ListEdges(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, edges)

	versions, err := app.Service.ListVersions(ctx, id)
	require.NoError(t, err)
	require.Len(t, versions, 1)
	vid := versions[0].ID

	out = mustExec(t, app, "version", "show", "-p", id, vid[:8])
	var doc struct {
		Title    string          `yaml:"title"`
		Snapshot domain.Snapshot `yaml:"snapshot"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "baseline", doc.Title)
	assert.Len(t, doc.Snapshot.Nodes, 2)
	assert.Len(t, doc.Snapshot.Edges, 1)
	assert.Len(t, doc.Snapshot.Notes, 1)

	out = mustExec(t, app, "version", "apply", "-p", id, vid)
	assert.Contains(t, out, "2 nodes, 1 edges, 1 notes")

	nodes, err = app.Service.ListNodes(ctx, id)
	require.NoError(t, err)
	assert.Len(t, nodes, 2)

	out = mustExec(t, app, "version", "list", "-p", id)
	assert.Contains(t, out, "baseline")
}

func TestEdgesSet_RejectsMalformedPair(t *testing.T) {
	app := testApp(t)
	id := seedProject(t, app)
	_, err := executeCmd(t, app, "graph", "edges", "set", "-p", id, "a-b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "want from>to")
}

func TestGraphProposeThenMerge(t *testing.T) {
	app := testApp(t)
	id := seedProject(t, app)
	path := filepath.Join(t.TempDir(), "proposal.json")

	out := mustExec(t, app, "graph", "propose", "-p", id, "-o", path, "login", "and", "signup")
	assert.Contains(t, out, "PROPOSAL")
	assert.Contains(t, out, "Heuristics fallback")

	nodes, err := app.Service.ListNodes(context.Background(), id)
	require.NoError(t, err)
	assert.Empty(t, nodes)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"connections"`)

	out = mustExec(t, app, "graph", "merge", "-p", id, path)
	assert.Contains(t, out, "Merged proposal")

	nodes, err = app.Service.ListNodes(context.Background(), id)
	require.NoError(t, err)
	assert.NotEmpty(t, nodes)
	for _, n := range nodes {
		assert.True(t, n.IsAI)
	}
}

func TestGraphMerge_FromStdin(t *testing.T) {
	app := testApp(t)
	id := seedProject(t, app)

	root := NewRootCmd(app)
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetIn(strings.NewReader(`{"nodes":[{"key":"a","title":"Cart"},{"key":"b","title":"Checkout"}],"connections":[{"from_key":"a","to_key":"b"},{"from_key":"a","to_key":"zz"}]}`))
	root.SetArgs([]string{"graph", "merge", "-p", id, "-"})
	require.NoError(t, root.Execute())
	assert.Contains(t, buf.String(), "2 nodes, 1 edges, 0 notes (1 dangling edges dropped)")
}

func TestGraphParse(t *testing.T) {
	app := testApp(t)
	seedProject(t, app)

	out := mustExec(t, app, "graph", "parse", "add", "login")
	assert.Contains(t, out, "AUTH")
	assert.Contains(t, out, "suggest")
}

func TestExportCSV(t *testing.T) {
	app := testApp(t)
	id := seedProject(t, app)

	out := mustExec(t, app, "export", "csv", "-p", id)
	assert.Contains(t, out, "Auth;backend;senior;20.00;100.00;2000.00")

	path := filepath.Join(t.TempDir(), "out.csv")
	mustExec(t, app, "export", "csv", "-p", id, "-o", path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Module;Role;Level;Hours;Rate;Cost")

	_, err = executeCmd(t, app, "export", "pdf", "-p", id)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestProjectSwitchAndRemove(t *testing.T) {
	app := testApp(t)
	id := seedProject(t, app)

	out := mustExec(t, app, "project", "switch", id[:6])
	assert.Contains(t, out, "Switched to")
	assert.Contains(t, out, "ESTIMA_PROJECT="+id)

	mustExec(t, app, "project", "remove", id)
	assert.Empty(t, app.Registry.Projects())
	_, err := executeCmd(t, app, "summary", "-p", id)
	assert.Error(t, err)
}

func TestProjectSettings(t *testing.T) {
	app := testApp(t)
	id := seedProject(t, app)

	out := mustExec(t, app, "project", "settings", "-p", id, "--legacy")
	assert.Contains(t, out, "legacy=true")
	assert.Contains(t, out, "uncertainty="+domain.UncertaintyKnown)
}

func TestResolveProjectID(t *testing.T) {
	app := testApp(t)
	ctx := context.Background()
	a := &domain.Project{ID: "abc-1", Name: "Alpha", UncertaintyLevel: domain.UncertaintyKnown, UIUXLevel: domain.UIUXMVP}
	b := &domain.Project{ID: "abc-2", Name: "Beta", UncertaintyLevel: domain.UncertaintyKnown, UIUXLevel: domain.UIUXMVP}
	require.NoError(t, app.Service.CreateProject(ctx, a))
	require.NoError(t, app.Service.CreateProject(ctx, b))

	tests := []struct {
		input   string
		want    string
		wantErr string
	}{
		{a.ID, a.ID, ""},
		{"beta", b.ID, ""},
		{a.ID[:len(a.ID)-1], "", "ambiguous"},
		{"zzz", "", "not found"},
		{"", "", "no project selected"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := resolveProjectID(ctx, app.Service, tt.input)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
