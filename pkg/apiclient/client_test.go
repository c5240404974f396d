package apiclient

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL)
}

func TestLogin(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/auth/login", r.URL.Path)

		var req LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "admin", req.Username)
		assert.Equal(t, "s3cret", req.Password)

		_ = json.NewEncoder(w).Encode(TokenResponse{
			AccessToken:  "access",
			RefreshToken: "refresh",
			TokenType:    "Bearer",
			ExpiresIn:    900,
		})
	})

	resp, err := client.Login("admin", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "access", resp.AccessToken)
	assert.Equal(t, "Bearer", resp.TokenType)
}

func TestAuthorizationHeader(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer my-token", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode([]Driver{})
	})

	_, err := client.WithToken("my-token").ListDrivers()
	require.NoError(t, err)
}

func TestListDrivers(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/drivers", r.URL.Path)
		_ = json.NewEncoder(w).Encode([]Driver{
			{Major: 10, Name: "mem", OpenHandles: 2},
			{Major: 11, Name: "null"},
		})
	})

	drivers, err := client.ListDrivers()
	require.NoError(t, err)
	require.Len(t, drivers, 2)
	assert.Equal(t, "mem", drivers[0].Name)
	assert.EqualValues(t, 2, drivers[0].OpenHandles)
}

func TestCreateBinding(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/bindings", r.URL.Path)

		var req CreateBindingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "c", req.Kind)
		assert.EqualValues(t, 10, req.Major)

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(Binding{Kind: "c", Major: 10, Minor: 3, Target: 10, Node: "c 10:3"})
	})

	binding, err := client.CreateBinding(CreateBindingRequest{Kind: "c", Major: 10, Minor: 3})
	require.NoError(t, err)
	assert.Equal(t, "c 10:3", binding.Node)
}

func TestDeleteBinding(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/v1/bindings/c/10/3", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, client.DeleteBinding("c", 10, 3))
}

func TestProblemResponseBecomesAPIError(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/problem+json")
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"type":   "about:blank",
			"title":  "Not Found",
			"status": 404,
			"detail": "no driver registered for major 99",
		})
	})

	_, err := client.GetDriver(99)
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsNotFound())
	assert.False(t, apiErr.IsAuthError())
	assert.Contains(t, apiErr.Error(), "major 99")
}

func TestNonProblemErrorBody(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	})

	_, err := client.ListHandles()
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Contains(t, apiErr.Detail, "upstream exploded")
}

func TestGetHealth(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		_ = json.NewEncoder(w).Encode(Health{Status: "healthy"})
	})

	health, err := client.GetHealth()
	require.NoError(t, err)
	assert.Equal(t, "healthy", health.Status)
}
