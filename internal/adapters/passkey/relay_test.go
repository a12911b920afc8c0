package passkey

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/kernel-sdk/internal/usecase"
	"github.com/trebuchet-org/kernel-sdk/pkg/passkey"
)

func TestRelayAdapter_SignRoundTrip(t *testing.T) {
	var gotCred passkey.AssertionCredential
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case passkey.PathSignInitiate:
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "0x0102", body["data"])
			_, _ = w.Write([]byte(`{"challenge":"AQI"}`))
		case passkey.PathSignVerify:
			var body struct {
				Cred passkey.AssertionCredential `json:"cred"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			gotCred = body.Cred
			_, _ = w.Write([]byte(`{"verified":true}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	relay, err := NewRelayAdapter(srv.URL, 0)
	require.NoError(t, err)

	options, err := relay.SignInitiate(context.Background(), []byte{0x01, 0x02})
	require.NoError(t, err)
	assert.JSONEq(t, `{"challenge":"AQI"}`, string(options))

	v, err := relay.SignVerify(context.Background(), &usecase.PasskeyAssertion{
		CredentialID:      "cred-1",
		AuthenticatorData: "YXV0aA",
		ClientDataJSON:    "Y2xpZW50",
		Signature:         "c2ln",
	})
	require.NoError(t, err)
	assert.True(t, v.Verified)
	assert.Nil(t, v.Credential)

	assert.Equal(t, "cred-1", gotCred.ID)
	assert.Equal(t, "cred-1", gotCred.RawID)
	assert.Equal(t, "public-key", gotCred.Type)
	assert.Equal(t, "c2ln", gotCred.Response.Signature)
}

func TestRelayAdapter_LoginReturnsCredential(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"verified":true,"authenticatorId":"Y3JlZA","pubKeyX":"0x1","pubKeyY":"0x2"}`))
	}))
	defer srv.Close()

	relay, err := NewRelayAdapter(srv.URL, 0)
	require.NoError(t, err)

	v, err := relay.LoginVerify(context.Background(), &usecase.PasskeyAssertion{CredentialID: "Y3JlZA"})
	require.NoError(t, err)
	require.NotNil(t, v.Credential)
	assert.Equal(t, "Y3JlZA", v.Credential.AuthenticatorID)
	assert.Equal(t, "0x1", v.Credential.PubKeyX)
	assert.Equal(t, "0x2", v.Credential.PubKeyY)
}

func TestRelayAdapter_ErrorIsWrapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	relay, err := NewRelayAdapter(srv.URL, 0)
	require.NoError(t, err)

	_, err = relay.RegisterOptions(context.Background(), "alice")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get registration options")
}

func writeHelper(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell helper not supported on windows")
	}
	path := filepath.Join(t.TempDir(), "authenticator.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755))
	return path
}

func TestCommandAuthenticator_Get(t *testing.T) {
	helper := writeHelper(t, `cat > /dev/null
echo '{"id":"cred-1","rawId":"cred-1","type":"public-key","response":{"authenticatorData":"YQ","clientDataJSON":"Yg","signature":"Yw"}}'
`)
	auth, err := NewCommandAuthenticator(helper)
	require.NoError(t, err)

	assertion, err := auth.Get(context.Background(), json.RawMessage(`{"challenge":"AQI"}`))
	require.NoError(t, err)
	assert.Equal(t, "cred-1", assertion.CredentialID)
	assert.Equal(t, "YQ", assertion.AuthenticatorData)
	assert.Equal(t, "Yg", assertion.ClientDataJSON)
	assert.Equal(t, "Yw", assertion.Signature)
}

func TestCommandAuthenticator_CreatePassesCeremony(t *testing.T) {
	helper := writeHelper(t, `cat`)
	auth, err := NewCommandAuthenticator(helper)
	require.NoError(t, err)

	out, err := auth.Create(context.Background(), json.RawMessage(`{"rp":{"id":"example.org"}}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"ceremony":"create","options":{"rp":{"id":"example.org"}}}`, string(out))
}

func TestCommandAuthenticator_Failure(t *testing.T) {
	helper := writeHelper(t, `echo "user cancelled" >&2
exit 3
`)
	auth, err := NewCommandAuthenticator(helper)
	require.NoError(t, err)

	_, err = auth.Get(context.Background(), json.RawMessage(`{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user cancelled")

	_, err = NewCommandAuthenticator(" ")
	assert.Error(t, err)
}
