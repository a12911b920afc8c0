package passkey

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"github.com/trebuchet-org/kernel-sdk/internal/usecase"
	"github.com/trebuchet-org/kernel-sdk/pkg/passkey"
)

// ceremonyRequest is written to the helper's stdin
type ceremonyRequest struct {
	Ceremony string          `json:"ceremony"`
	Options  json.RawMessage `json:"options"`
}

// CommandAuthenticator delegates WebAuthn ceremonies to an external helper program.
// The helper reads a ceremonyRequest on stdin and prints the PublicKeyCredential JSON on stdout.
type CommandAuthenticator struct {
	command string
	args    []string
}

// NewCommandAuthenticator creates an authenticator running command with args
func NewCommandAuthenticator(command string, args ...string) (*CommandAuthenticator, error) {
	if strings.TrimSpace(command) == "" {
		return nil, fmt.Errorf("authenticator command not set")
	}
	return &CommandAuthenticator{command: command, args: args}, nil
}

func (a *CommandAuthenticator) Create(ctx context.Context, options json.RawMessage) (json.RawMessage, error) {
	out, err := a.run(ctx, "create", options)
	if err != nil {
		return nil, err
	}
	if !json.Valid(out) {
		return nil, fmt.Errorf("authenticator returned invalid attestation JSON")
	}
	return json.RawMessage(out), nil
}

func (a *CommandAuthenticator) Get(ctx context.Context, options json.RawMessage) (*usecase.PasskeyAssertion, error) {
	out, err := a.run(ctx, "get", options)
	if err != nil {
		return nil, err
	}

	var cred passkey.AssertionCredential
	if err := json.Unmarshal(out, &cred); err != nil {
		return nil, fmt.Errorf("failed to parse authenticator assertion: %w", err)
	}
	if cred.Response.Signature == "" || cred.Response.ClientDataJSON == "" {
		return nil, fmt.Errorf("authenticator assertion is incomplete")
	}
	return fromCredential(&cred), nil
}

func (a *CommandAuthenticator) run(ctx context.Context, ceremony string, options json.RawMessage) ([]byte, error) {
	input, err := json.Marshal(ceremonyRequest{Ceremony: ceremony, Options: options})
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, a.command, a.args...)
	cmd.Stdin = bytes.NewReader(input)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("authenticator %s ceremony failed: %w: %s", ceremony, err, strings.TrimSpace(stderr.String()))
	}
	return bytes.TrimSpace(stdout.Bytes()), nil
}

var _ usecase.PasskeyAuthenticator = (*CommandAuthenticator)(nil)
