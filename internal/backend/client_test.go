package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alexanderramin/estima/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHTTPTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, time.Second)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestClient_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"not found", http.StatusNotFound, domain.ErrNotFound},
		{"bad request", http.StatusBadRequest, domain.ErrValidation},
		{"conflict", http.StatusConflict, domain.ErrValidation},
		{"unprocessable", http.StatusUnprocessableEntity, domain.ErrValidation},
		{"server error", http.StatusInternalServerError, domain.ErrTransport},
		{"unavailable", http.StatusServiceUnavailable, domain.ErrTransport},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newHTTPTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, errorBody{Error: "nope"})
			})

			_, err := c.GetProject(context.Background(), "p1")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Contains(t, err.Error(), "nope")
		})
	}
}

func TestClient_UnreachableIsTransport(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	_, err := NewClient(addr, time.Second).ListProjects(context.Background())
	assert.ErrorIs(t, err, domain.ErrTransport)
}

func TestClient_CreateNodeSendsAttrsAndStoresID(t *testing.T) {
	var gotPath string
	var gotBody domain.NodeAttrs
	c := newHTTPTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.Method + " " + r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		writeJSON(w, http.StatusCreated, domain.GraphNode{ID: "n-9", ProjectID: "p1", NodeAttrs: gotBody})
	})

	n := &domain.GraphNode{ProjectID: "p1", NodeAttrs: domain.NodeAttrs{Title: "Login", HoursQA: 3}}
	require.NoError(t, c.CreateNode(context.Background(), n))

	assert.Equal(t, "POST /api/projects/p1/nodes", gotPath)
	assert.Equal(t, "Login", gotBody.Title)
	assert.Equal(t, "n-9", n.ID)
	assert.InDelta(t, 3, n.HoursQA, 1e-9)
}

func TestClient_ReplaceEdgesSendsEmptyArray(t *testing.T) {
	var raw map[string]json.RawMessage
	c := newHTTPTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/projects/p1/edges", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		writeJSON(w, http.StatusOK, edgesResult{})
	})

	require.NoError(t, c.ReplaceEdges(context.Background(), "p1", nil))
	assert.JSONEq(t, `[]`, string(raw["edges"]))
}

func TestClient_ApplyVersion(t *testing.T) {
	var gotPath string
	c := newHTTPTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.Method + " " + r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, c.ApplyVersion(context.Background(), "p1", "v1"))
	assert.Equal(t, "POST /api/projects/p1/versions/v1/apply", gotPath)
}

func TestClient_UpsertCoefficientUsesBatch(t *testing.T) {
	c := newHTTPTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		var in []domain.Coefficient
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		require.Len(t, in, 1)
		in[0].ID = "c-1"
		writeJSON(w, http.StatusOK, append([]domain.Coefficient{{ID: "c-0", Name: "Other"}}, in...))
	})

	coef := &domain.Coefficient{ProjectID: "p1", Name: "Risk", Multiplier: 1.2}
	require.NoError(t, c.UpsertCoefficient(context.Background(), coef))
	assert.Equal(t, "c-1", coef.ID)
}

func TestClient_ExportStreamsBody(t *testing.T) {
	c := newHTTPTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "csv", r.URL.Query().Get("format"))
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte("Work\n"))
	})

	var buf bytes.Buffer
	require.NoError(t, c.Export(context.Background(), "p1", "csv", &buf))
	assert.Equal(t, "Work\n", buf.String())
}
