package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthHeaderSelection(t *testing.T) {
	tests := []struct {
		name       string
		credential string
		wantHeader string
		wantValue  string
	}{
		{"plain key", "n8n_api_abc123", "X-N8N-API-KEY", "n8n_api_abc123"},
		{"bearer token", "Bearer eyJhbGciOi", "Authorization", "Bearer eyJhbGciOi"},
		{"token prefix", "token gh_abc", "Authorization", "token gh_abc"},
		{"bearer mixed case", "bearer abc", "Authorization", "bearer abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got http.Header

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.Header.Clone()
				_, _ = w.Write([]byte(`{"data":[]}`))
			}))
			defer srv.Close()

			client := NewClient(srv.URL, tt.credential)

			_, err := client.ListWorkflows(t.Context(), 50, "")
			require.NoError(t, err)
			assert.Equal(t, tt.wantValue, got.Get(tt.wantHeader))
		})
	}
}

func TestListWorkflowsPaging(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/workflows", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("limit"))

		if r.URL.Query().Get("cursor") == "" {
			_, _ = w.Write([]byte(`{"data":[{"id":"1","name":"One","active":true},{"id":"2","name":"Two"}],"nextCursor":"c2"}`))

			return
		}

		_, _ = w.Write([]byte(`{"data":[{"id":"3","name":"Three"}]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "key")

	page, err := client.ListWorkflows(t.Context(), 2, "")
	require.NoError(t, err)
	require.Len(t, page.Data, 2)
	assert.Equal(t, "c2", page.NextCursor)
	assert.True(t, page.Data[0].Active)

	page, err = client.ListWorkflows(t.Context(), 2, "c2")
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Empty(t, page.NextCursor)
}

func TestUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"message":"unauthorized"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "bad-key")

	_, err := client.ListWorkflows(t.Context(), 50, "")
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
	assert.Equal(t, http.StatusUnauthorized, StatusCode(err))
}

func TestRequestFailedCarriesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"message":"workflow has no trigger node"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "key")

	err := client.Activate(t.Context(), "42")
	require.Error(t, err)
	assert.False(t, IsUnauthorized(err))
	assert.Equal(t, http.StatusBadRequest, StatusCode(err))
	assert.Contains(t, ResponseBody(err), "no trigger node")
}

func TestGetWorkflowDecodesNodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/workflows/42", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"id":"42","name":"Sync","active":false,
			"tags":[{"id":"t1","name":"ops"}],
			"nodes":[{"name":"Webhook","type":"n8n-nodes-base.webhook"},{"name":"Set","type":"n8n-nodes-base.set"}]
		}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "key")

	detail, err := client.GetWorkflow(t.Context(), "42")
	require.NoError(t, err)
	assert.Equal(t, []string{"ops"}, []string(detail.Tags))
	require.Len(t, detail.Nodes, 2)
	assert.True(t, detail.HasTriggerNode())
}

func TestDeactivatePosts(t *testing.T) {
	var gotMethod, gotPath string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "key")

	require.NoError(t, client.Deactivate(t.Context(), "42"))
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/api/v1/workflows/42/deactivate", gotPath)
}
