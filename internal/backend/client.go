package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/alexanderramin/estima/internal/domain"
	"github.com/alexanderramin/estima/internal/graph"
)

// DefaultClientTimeout bounds a single request to a remote estima server.
const DefaultClientTimeout = 30 * time.Second

// Client talks to a remote estima server over its JSON API. It does not
// retry: every workspace operation refreshes from the server afterwards,
// so a failed write is surfaced rather than repeated.
type Client struct {
	baseURL string
	http    *http.Client
}

var (
	_ Service              = (*Client)(nil)
	_ graph.VersionApplier = (*Client)(nil)
)

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultClientTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/") + "/api",
		http: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 5 * time.Second,
				}).DialContext,
			},
		},
	}
}

// errorBody is the JSON error envelope returned by the server.
type errorBody struct {
	Error string `json:"error"`
}

type edgesBody struct {
	Edges []domain.GraphEdge `json:"edges"`
}

type edgesResult struct {
	Dropped int `json:"dropped"`
}

type versionBody struct {
	Title    string           `json:"title"`
	Snapshot *domain.Snapshot `json:"snapshot,omitempty"`
}

func projectPath(projectID string, parts ...string) string {
	segs := append([]string{"projects", url.PathEscape(projectID)}, parts...)
	return "/" + strings.Join(segs, "/")
}

func get[T any](ctx context.Context, c *Client, path string) (T, error) {
	var out T
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	resp, err := c.send(ctx, method, path, in)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding %s %s: %v", domain.ErrTransport, method, path, err)
	}
	return nil
}

// send performs the request and maps non-2xx statuses to domain errors.
// The caller owns the returned body.
func (c *Client) send(ctx context.Context, method, path string, in any) (*http.Response, error) {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("marshaling request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", domain.ErrTransport, method, path, err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()
	return nil, statusError(method, path, resp)
}

func statusError(method, path string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	msg := strings.TrimSpace(string(raw))
	var eb errorBody
	if json.Unmarshal(raw, &eb) == nil && eb.Error != "" {
		msg = eb.Error
	}

	var kind error
	switch resp.StatusCode {
	case http.StatusNotFound:
		kind = domain.ErrNotFound
	case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
		kind = domain.ErrValidation
	default:
		kind = domain.ErrTransport
	}
	return fmt.Errorf("%s %s: %w: status %d: %s", method, path, kind, resp.StatusCode, msg)
}

func (c *Client) CreateProject(ctx context.Context, p *domain.Project) error {
	return c.do(ctx, http.MethodPost, "/projects", p, p)
}

func (c *Client) ListProjects(ctx context.Context) ([]domain.Project, error) {
	return get[[]domain.Project](ctx, c, "/projects")
}

func (c *Client) GetProject(ctx context.Context, projectID string) (*domain.Project, error) {
	var out domain.Project
	if err := c.do(ctx, http.MethodGet, projectPath(projectID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteProject(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, projectPath(id), nil, nil)
}

func (c *Client) UpdateProjectSettings(ctx context.Context, projectID string, s domain.ProjectSettings) (*domain.Project, error) {
	var out domain.Project
	if err := c.do(ctx, http.MethodPut, projectPath(projectID, "settings"), s, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListModules(ctx context.Context) ([]domain.Module, error) {
	return get[[]domain.Module](ctx, c, "/modules")
}

func (c *Client) CreateModule(ctx context.Context, m *domain.Module) error {
	return c.do(ctx, http.MethodPost, "/modules", m, m)
}

func (c *Client) UpdateModule(ctx context.Context, m *domain.Module) error {
	return c.do(ctx, http.MethodPut, "/modules/"+url.PathEscape(m.ID), m, m)
}

func (c *Client) DeleteModule(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/modules/"+url.PathEscape(id), nil, nil)
}

func (c *Client) ListProjectConnections(ctx context.Context, projectID string) ([]domain.ProjectConnection, error) {
	return get[[]domain.ProjectConnection](ctx, c, projectPath(projectID, "connections"))
}

func (c *Client) ReplaceProjectConnections(ctx context.Context, projectID string, conns []domain.ProjectConnection) ([]domain.ProjectConnection, error) {
	if conns == nil {
		conns = []domain.ProjectConnection{}
	}
	var out []domain.ProjectConnection
	if err := c.do(ctx, http.MethodPut, projectPath(projectID, "connections"), conns, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListProjectModules(ctx context.Context, projectID string) ([]domain.ProjectModule, error) {
	return get[[]domain.ProjectModule](ctx, c, projectPath(projectID, "modules"))
}

func (c *Client) AddProjectModule(ctx context.Context, pm *domain.ProjectModule) error {
	return c.do(ctx, http.MethodPost, projectPath(pm.ProjectID, "modules"), pm, pm)
}

func (c *Client) UpdateProjectModule(ctx context.Context, pm *domain.ProjectModule) error {
	return c.do(ctx, http.MethodPut, projectPath(pm.ProjectID, "modules", url.PathEscape(pm.ID)), pm, pm)
}

func (c *Client) RemoveProjectModule(ctx context.Context, projectID, id string) error {
	return c.do(ctx, http.MethodDelete, projectPath(projectID, "modules", url.PathEscape(id)), nil, nil)
}

func (c *Client) ListAssignments(ctx context.Context, projectID string) ([]domain.Assignment, error) {
	return get[[]domain.Assignment](ctx, c, projectPath(projectID, "assignments"))
}

func (c *Client) UpsertAssignment(ctx context.Context, a *domain.Assignment) error {
	return c.do(ctx, http.MethodPut, projectPath(a.ProjectID, "assignments"), a, a)
}

func (c *Client) DeleteAssignment(ctx context.Context, projectID, id string) error {
	return c.do(ctx, http.MethodDelete, projectPath(projectID, "assignments", url.PathEscape(id)), nil, nil)
}

func (c *Client) ListRates(ctx context.Context) ([]domain.Rate, error) {
	return get[[]domain.Rate](ctx, c, "/rates")
}

func (c *Client) UpsertRate(ctx context.Context, r *domain.Rate) error {
	return c.do(ctx, http.MethodPut, "/rates", r, r)
}

func (c *Client) ListCoefficients(ctx context.Context, projectID string) ([]domain.Coefficient, error) {
	return get[[]domain.Coefficient](ctx, c, projectPath(projectID, "coefficients"))
}

// UpsertCoefficient goes through the batch endpoint with a single entry.
func (c *Client) UpsertCoefficient(ctx context.Context, coef *domain.Coefficient) error {
	var out []domain.Coefficient
	if err := c.do(ctx, http.MethodPut, projectPath(coef.ProjectID, "coefficients"), []domain.Coefficient{*coef}, &out); err != nil {
		return err
	}
	for _, got := range out {
		if got.Name == strings.TrimSpace(coef.Name) {
			*coef = got
			break
		}
	}
	return nil
}

func (c *Client) ListInfrastructureItems(ctx context.Context) ([]domain.InfrastructureItem, error) {
	return get[[]domain.InfrastructureItem](ctx, c, "/infrastructure-items")
}

func (c *Client) CreateInfrastructureItem(ctx context.Context, it *domain.InfrastructureItem) error {
	return c.do(ctx, http.MethodPost, "/infrastructure-items", it, it)
}

func (c *Client) UpdateInfrastructureItem(ctx context.Context, it *domain.InfrastructureItem) error {
	return c.do(ctx, http.MethodPut, "/infrastructure-items/"+url.PathEscape(it.ID), it, it)
}

func (c *Client) DeleteInfrastructureItem(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/infrastructure-items/"+url.PathEscape(id), nil, nil)
}

func (c *Client) ListProjectInfrastructure(ctx context.Context, projectID string) ([]domain.ProjectInfrastructure, error) {
	return get[[]domain.ProjectInfrastructure](ctx, c, projectPath(projectID, "infrastructure"))
}

func (c *Client) UpsertProjectInfrastructure(ctx context.Context, pi *domain.ProjectInfrastructure) error {
	return c.do(ctx, http.MethodPut, projectPath(pi.ProjectID, "infrastructure"), pi, pi)
}

func (c *Client) ListNodes(ctx context.Context, projectID string) ([]domain.GraphNode, error) {
	return get[[]domain.GraphNode](ctx, c, projectPath(projectID, "nodes"))
}

func (c *Client) CreateNode(ctx context.Context, n *domain.GraphNode) error {
	return c.do(ctx, http.MethodPost, projectPath(n.ProjectID, "nodes"), n.NodeAttrs, n)
}

func (c *Client) UpdateNode(ctx context.Context, n *domain.GraphNode) error {
	return c.do(ctx, http.MethodPut, projectPath(n.ProjectID, "nodes", url.PathEscape(n.ID)), n.NodeAttrs, n)
}

func (c *Client) DeleteNode(ctx context.Context, projectID, id string) error {
	return c.do(ctx, http.MethodDelete, projectPath(projectID, "nodes", url.PathEscape(id)), nil, nil)
}

func (c *Client) ListEdges(ctx context.Context, projectID string) ([]domain.GraphEdge, error) {
	return get[[]domain.GraphEdge](ctx, c, projectPath(projectID, "edges"))
}

// ReplaceEdges sends the full edge set. The server drops edges whose
// endpoints it does not know.
func (c *Client) ReplaceEdges(ctx context.Context, projectID string, edges []domain.GraphEdge) error {
	if edges == nil {
		edges = []domain.GraphEdge{}
	}
	var out edgesResult
	return c.do(ctx, http.MethodPut, projectPath(projectID, "edges"), edgesBody{Edges: edges}, &out)
}

func (c *Client) ListNotes(ctx context.Context, projectID string) ([]domain.GraphNote, error) {
	return get[[]domain.GraphNote](ctx, c, projectPath(projectID, "notes"))
}

func (c *Client) CreateNote(ctx context.Context, n *domain.GraphNote) error {
	return c.do(ctx, http.MethodPost, projectPath(n.ProjectID, "notes"), n.NoteAttrs, n)
}

func (c *Client) UpdateNote(ctx context.Context, n *domain.GraphNote) error {
	return c.do(ctx, http.MethodPut, projectPath(n.ProjectID, "notes", url.PathEscape(n.ID)), n.NoteAttrs, n)
}

func (c *Client) DeleteNote(ctx context.Context, projectID, id string) error {
	return c.do(ctx, http.MethodDelete, projectPath(projectID, "notes", url.PathEscape(id)), nil, nil)
}

func (c *Client) CreateVersion(ctx context.Context, v *domain.VersionRecord) error {
	return c.do(ctx, http.MethodPost, projectPath(v.ProjectID, "versions"), versionBody{Title: v.Title, Snapshot: v.Snapshot}, v)
}

func (c *Client) ListVersions(ctx context.Context, projectID string) ([]domain.VersionRecord, error) {
	return get[[]domain.VersionRecord](ctx, c, projectPath(projectID, "versions"))
}

func (c *Client) GetVersion(ctx context.Context, projectID, id string) (*domain.VersionRecord, error) {
	var out domain.VersionRecord
	if err := c.do(ctx, http.MethodGet, projectPath(projectID, "versions", url.PathEscape(id)), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ApplyVersion asks the server to restore the version in one transaction.
func (c *Client) ApplyVersion(ctx context.Context, projectID, versionID string) error {
	return c.do(ctx, http.MethodPost, projectPath(projectID, "versions", url.PathEscape(versionID), "apply"), nil, nil)
}

func (c *Client) Summary(ctx context.Context, projectID string) (domain.Summary, error) {
	return get[domain.Summary](ctx, c, projectPath(projectID, "summary"))
}

func (c *Client) Export(ctx context.Context, projectID, format string, w io.Writer) error {
	path := projectPath(projectID, "export") + "?format=" + url.QueryEscape(format)
	resp, err := c.send(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("%w: reading export: %v", domain.ErrTransport, err)
	}
	return nil
}
