package passkey

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/trebuchet-org/kernel-sdk/internal/usecase"
	"github.com/trebuchet-org/kernel-sdk/pkg/passkey"
)

// RelayAdapter wraps the passkey relay client to implement usecase.PasskeyRelay
type RelayAdapter struct {
	client *passkey.Client
}

// NewRelayAdapter creates a relay adapter for baseURL
func NewRelayAdapter(baseURL string, timeout time.Duration) (*RelayAdapter, error) {
	client, err := passkey.NewClient(baseURL, timeout)
	if err != nil {
		return nil, err
	}
	return &RelayAdapter{client: client}, nil
}

func (r *RelayAdapter) RegisterOptions(ctx context.Context, username string) (json.RawMessage, error) {
	options, err := r.client.RegisterOptions(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to get registration options: %w", err)
	}
	return options, nil
}

func (r *RelayAdapter) RegisterVerify(ctx context.Context, username string, attestation json.RawMessage) (*usecase.PasskeyVerification, error) {
	v, err := r.client.RegisterVerify(ctx, username, attestation)
	if err != nil {
		return nil, fmt.Errorf("failed to verify registration: %w", err)
	}
	return toVerification(v), nil
}

func (r *RelayAdapter) LoginOptions(ctx context.Context) (json.RawMessage, error) {
	options, err := r.client.LoginOptions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get login options: %w", err)
	}
	return options, nil
}

func (r *RelayAdapter) LoginVerify(ctx context.Context, assertion *usecase.PasskeyAssertion) (*usecase.PasskeyVerification, error) {
	v, err := r.client.LoginVerify(ctx, toCredential(assertion))
	if err != nil {
		return nil, fmt.Errorf("failed to verify login: %w", err)
	}
	return toVerification(v), nil
}

func (r *RelayAdapter) SignInitiate(ctx context.Context, challenge []byte) (json.RawMessage, error) {
	options, err := r.client.SignInitiate(ctx, hexutil.Encode(challenge))
	if err != nil {
		return nil, fmt.Errorf("failed to initiate signing: %w", err)
	}
	return options, nil
}

func (r *RelayAdapter) SignVerify(ctx context.Context, assertion *usecase.PasskeyAssertion) (*usecase.PasskeyVerification, error) {
	v, err := r.client.SignVerify(ctx, toCredential(assertion))
	if err != nil {
		return nil, fmt.Errorf("failed to verify signature: %w", err)
	}
	return toVerification(v), nil
}

func toCredential(a *usecase.PasskeyAssertion) *passkey.AssertionCredential {
	if a == nil {
		return nil
	}
	return &passkey.AssertionCredential{
		ID:    a.CredentialID,
		RawID: a.CredentialID,
		Type:  "public-key",
		Response: passkey.AssertionResponse{
			AuthenticatorData: a.AuthenticatorData,
			ClientDataJSON:    a.ClientDataJSON,
			Signature:         a.Signature,
			UserHandle:        a.UserHandle,
		},
	}
}

func fromCredential(c *passkey.AssertionCredential) *usecase.PasskeyAssertion {
	id := c.ID
	if id == "" {
		id = c.RawID
	}
	return &usecase.PasskeyAssertion{
		CredentialID:      id,
		AuthenticatorData: c.Response.AuthenticatorData,
		ClientDataJSON:    c.Response.ClientDataJSON,
		Signature:         c.Response.Signature,
		UserHandle:        c.Response.UserHandle,
	}
}

func toVerification(v *passkey.Verification) *usecase.PasskeyVerification {
	out := &usecase.PasskeyVerification{Verified: v.Verified}
	if v.PubKeyX != "" || v.PubKeyY != "" {
		out.Credential = &usecase.PasskeyCredential{
			AuthenticatorID: v.AuthenticatorID,
			PubKeyX:         v.PubKeyX,
			PubKeyY:         v.PubKeyY,
		}
	}
	return out
}

var _ usecase.PasskeyRelay = (*RelayAdapter)(nil)
