package passkey

import (
	"context"
	"encoding/json"
)

// Endpoint paths on the relay
const (
	PathRegisterOptions = "/register/options"
	PathRegisterVerify  = "/register/verify"
	PathLoginOptions    = "/login/options"
	PathLoginVerify     = "/login/verify"
	PathSignInitiate    = "/sign-initiate"
	PathSignVerify      = "/sign-verify"
)

// AssertionResponse is the response member of a WebAuthn assertion, all fields base64url
type AssertionResponse struct {
	AuthenticatorData string `json:"authenticatorData"`
	ClientDataJSON    string `json:"clientDataJSON"`
	Signature         string `json:"signature"`
	UserHandle        string `json:"userHandle,omitempty"`
}

// AssertionCredential is a PublicKeyCredential returned by navigator.credentials.get
type AssertionCredential struct {
	ID       string            `json:"id"`
	RawID    string            `json:"rawId"`
	Type     string            `json:"type"`
	Response AssertionResponse `json:"response"`
}

// Verification is the relay's verdict for a verify step
type Verification struct {
	Verified        bool   `json:"verified"`
	AuthenticatorID string `json:"authenticatorId,omitempty"`
	PubKeyX         string `json:"pubKeyX,omitempty"`
	PubKeyY         string `json:"pubKeyY,omitempty"`
}

type registerOptionsRequest struct {
	Username string `json:"username"`
}

type registerVerifyRequest struct {
	Username string          `json:"username"`
	Cred     json.RawMessage `json:"cred"`
}

type assertionVerifyRequest struct {
	Cred *AssertionCredential `json:"cred"`
}

type signInitiateRequest struct {
	Data string `json:"data"`
}

// RegisterOptions fetches credential creation options for username
func (c *Client) RegisterOptions(ctx context.Context, username string) (json.RawMessage, error) {
	var options json.RawMessage
	if err := c.post(ctx, PathRegisterOptions, registerOptionsRequest{Username: username}, &options); err != nil {
		return nil, err
	}
	return options, nil
}

// RegisterVerify submits the attestation produced by the authenticator
func (c *Client) RegisterVerify(ctx context.Context, username string, attestation json.RawMessage) (*Verification, error) {
	var v Verification
	if err := c.post(ctx, PathRegisterVerify, registerVerifyRequest{Username: username, Cred: attestation}, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// LoginOptions fetches assertion options for any registered credential
func (c *Client) LoginOptions(ctx context.Context) (json.RawMessage, error) {
	var options json.RawMessage
	if err := c.post(ctx, PathLoginOptions, struct{}{}, &options); err != nil {
		return nil, err
	}
	return options, nil
}

// LoginVerify submits a login assertion
func (c *Client) LoginVerify(ctx context.Context, cred *AssertionCredential) (*Verification, error) {
	var v Verification
	if err := c.post(ctx, PathLoginVerify, assertionVerifyRequest{Cred: cred}, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// SignInitiate asks the relay for assertion options whose challenge is data (0x-hex)
func (c *Client) SignInitiate(ctx context.Context, data string) (json.RawMessage, error) {
	var options json.RawMessage
	if err := c.post(ctx, PathSignInitiate, signInitiateRequest{Data: data}, &options); err != nil {
		return nil, err
	}
	return options, nil
}

// SignVerify submits a signing assertion
func (c *Client) SignVerify(ctx context.Context, cred *AssertionCredential) (*Verification, error) {
	var v Verification
	if err := c.post(ctx, PathSignVerify, assertionVerifyRequest{Cred: cred}, &v); err != nil {
		return nil, err
	}
	return &v, nil
}
