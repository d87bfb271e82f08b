package haasctl

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_BaseURL(t *testing.T) {
	assert.Equal(t, "http://localhost:8090/api/v1", NewClient("http://localhost:8090/", "k").BaseURL)
	assert.Equal(t, "http://localhost:8090/api/v1", NewClient("http://localhost:8090", "k").BaseURL)
}

func TestClient_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"invalid API key"}`))
	}))
	defer srv.Close()

	resp, err := NewClient(srv.URL, "bad").Get("/herds")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
	assert.Contains(t, err.Error(), "invalid API key")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestClient_UnprocessableIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"action":"demote","candidates":[],"warnings":["No valid instances to demote"]}`))
	}))
	defer srv.Close()

	resp, err := NewClient(srv.URL, "k").Post("/instances/actions/demote", map[string]any{"instance_ids": []string{"a"}})

	require.NoError(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestResponse_Items(t *testing.T) {
	r := &Response{Body: []byte(`{"items":[{"id":"a"}],"has_more":false}`)}
	items, err := r.Items()
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"a"}]`, string(items))
}
