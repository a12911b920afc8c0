package passkey

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler func(path string, body map[string]any) (int, any)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		_, err := uuid.Parse(r.Header.Get("X-Request-Id"))
		assert.NoError(t, err)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		status, resp := handler(r.URL.Path, body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewClient_InvalidURL(t *testing.T) {
	_, err := NewClient("not a url", 0)
	assert.Error(t, err)

	c, err := NewClient("https://relay.example.org/", 0)
	require.NoError(t, err)
	assert.Equal(t, "https://relay.example.org", c.BaseURL())
}

func TestClient_RegisterFlow(t *testing.T) {
	srv := newTestServer(t, func(path string, body map[string]any) (int, any) {
		switch path {
		case PathRegisterOptions:
			assert.Equal(t, "alice", body["username"])
			return http.StatusOK, map[string]any{"challenge": "abc", "rp": map[string]string{"id": "example.org"}}
		case PathRegisterVerify:
			assert.Equal(t, "alice", body["username"])
			assert.NotNil(t, body["cred"])
			return http.StatusOK, Verification{Verified: true, AuthenticatorID: "Y3JlZA", PubKeyX: "0x01", PubKeyY: "0x02"}
		}
		return http.StatusNotFound, map[string]string{"error": "unknown path"}
	})

	c, err := NewClient(srv.URL, 0)
	require.NoError(t, err)

	options, err := c.RegisterOptions(context.Background(), "alice")
	require.NoError(t, err)
	assert.Contains(t, string(options), `"challenge":"abc"`)

	v, err := c.RegisterVerify(context.Background(), "alice", json.RawMessage(`{"id":"cred"}`))
	require.NoError(t, err)
	assert.True(t, v.Verified)
	assert.Equal(t, "Y3JlZA", v.AuthenticatorID)
}

func TestClient_SignFlow(t *testing.T) {
	srv := newTestServer(t, func(path string, body map[string]any) (int, any) {
		switch path {
		case PathSignInitiate:
			assert.Equal(t, "0xdeadbeef", body["data"])
			return http.StatusOK, map[string]string{"challenge": "3q2-7w"}
		case PathSignVerify:
			cred := body["cred"].(map[string]any)
			assert.Equal(t, "public-key", cred["type"])
			return http.StatusOK, Verification{Verified: false}
		}
		return http.StatusNotFound, nil
	})

	c, err := NewClient(srv.URL, 0)
	require.NoError(t, err)

	options, err := c.SignInitiate(context.Background(), "0xdeadbeef")
	require.NoError(t, err)
	assert.JSONEq(t, `{"challenge":"3q2-7w"}`, string(options))

	v, err := c.SignVerify(context.Background(), &AssertionCredential{ID: "x", RawID: "x", Type: "public-key"})
	require.NoError(t, err)
	assert.False(t, v.Verified)
}

func TestClient_StatusError(t *testing.T) {
	srv := newTestServer(t, func(string, map[string]any) (int, any) {
		return http.StatusBadRequest, map[string]string{"error": "bad challenge"}
	})

	c, err := NewClient(srv.URL, 0)
	require.NoError(t, err)

	_, err = c.LoginOptions(context.Background())
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
	assert.Equal(t, PathLoginOptions, statusErr.Path)
	assert.Contains(t, statusErr.Body, "bad challenge")
}
