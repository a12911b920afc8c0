package usecase

import (
	"context"
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/trebuchet-org/kernel-sdk/internal/domain"
)

// Validator is one signing mechanism attached to a Kernel account
type Validator interface {
	// Name is a short label used in logs and errors
	Name() string
	Address() common.Address
	Type() domain.ValidatorType
	Identifier() []byte
	NonceSubKey() uint16

	SignMessage(ctx context.Context, message []byte) ([]byte, error)
	SignTypedData(ctx context.Context, typedData apitypes.TypedData) ([]byte, error)
	SignUserOperationHash(ctx context.Context, hash common.Hash) ([]byte, error)
	// SignTransaction always fails: contract accounts never sign raw transactions
	SignTransaction(ctx context.Context, tx *types.Transaction) ([]byte, error)

	// DummySignature has exactly the byte length of a genuine signature
	DummySignature(ctx context.Context) ([]byte, error)
	EnableData(ctx context.Context, account common.Address) ([]byte, error)
	IsEnabled(ctx context.Context, account common.Address, selector domain.Selector) (bool, error)
}

// OwnerChecker is implemented by validators that can compare their signer to on-chain state
type OwnerChecker interface {
	CheckOwner(ctx context.Context, account common.Address) error
}

// Signer signs 32-byte digests, returning 65-byte R || S || V signatures with V in {0, 1}
type Signer interface {
	Address() common.Address
	SignHash(ctx context.Context, digest []byte) ([]byte, error)
}

// ChainReader reads account and validator state from the chain
type ChainReader interface {
	ChainID(ctx context.Context) (uint64, error)
	KernelVersion(ctx context.Context, account common.Address) (string, error)
	ValidatorNonce(ctx context.Context, account common.Address) (uint32, error)
	IsValidatorEnabled(ctx context.Context, account common.Address, validator domain.ValidatorRef, selector domain.Selector) (bool, error)
	IsPluginInitialized(ctx context.Context, account common.Address, validator domain.ValidatorRef) (bool, error)
	IsDeployed(ctx context.Context, account common.Address) (bool, error)
	ValidatorOwner(ctx context.Context, validator common.Address, account common.Address) (common.Address, error)
}

// Passkey relay ports

// PasskeyCredential is the public key material the relay returns after register or login
type PasskeyCredential struct {
	AuthenticatorID string `json:"authenticatorId"`
	PubKeyX         string `json:"pubKeyX"`
	PubKeyY         string `json:"pubKeyY"`
}

// PasskeyVerification is the relay's authoritative verdict on a ceremony step
type PasskeyVerification struct {
	Verified   bool               `json:"verified"`
	Credential *PasskeyCredential `json:"credential,omitempty"`
}

// PasskeyAssertion is the platform authenticator's response to a get() ceremony
type PasskeyAssertion struct {
	CredentialID      string `json:"id"`
	AuthenticatorData string `json:"authenticatorData"` // base64url
	ClientDataJSON    string `json:"clientDataJSON"`    // base64url
	Signature         string `json:"signature"`         // base64url DER
	UserHandle        string `json:"userHandle,omitempty"`
}

// PasskeyRelay proxies WebAuthn ceremonies through a remote server
type PasskeyRelay interface {
	RegisterOptions(ctx context.Context, username string) (json.RawMessage, error)
	RegisterVerify(ctx context.Context, username string, attestation json.RawMessage) (*PasskeyVerification, error)
	LoginOptions(ctx context.Context) (json.RawMessage, error)
	LoginVerify(ctx context.Context, assertion *PasskeyAssertion) (*PasskeyVerification, error)
	SignInitiate(ctx context.Context, challenge []byte) (json.RawMessage, error)
	SignVerify(ctx context.Context, assertion *PasskeyAssertion) (*PasskeyVerification, error)
}

// PasskeyAuthenticator runs the platform authenticator ceremony for relay-issued options
type PasskeyAuthenticator interface {
	Create(ctx context.Context, options json.RawMessage) (json.RawMessage, error)
	Get(ctx context.Context, options json.RawMessage) (*PasskeyAssertion, error)
}
