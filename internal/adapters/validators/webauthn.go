package validators

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/holiman/uint256"
	"github.com/trebuchet-org/kernel-sdk/internal/adapters/eip712"
	"github.com/trebuchet-org/kernel-sdk/internal/domain"
	"github.com/trebuchet-org/kernel-sdk/internal/usecase"
	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"
)

const webAuthnName = "webauthn"

// webAuthnTypeMarker is located in clientDataJSON by on-chain verifiers
const webAuthnTypeMarker = `"type":"webauthn.get"`

var (
	p256N     = uint256.MustFromHex("0xffffffff00000000ffffffffffffffffbce6faada7179e84f3b9cac2fc632551")
	p256HalfN = new(uint256.Int).Rsh(p256N, 1)

	abiUint256, _ = abi.NewType("uint256", "", nil)
	abiBytes, _   = abi.NewType("bytes", "", nil)
	abiString, _  = abi.NewType("string", "", nil)
	abiBytes32, _ = abi.NewType("bytes32", "", nil)

	webAuthnSignatureArgs = abi.Arguments{
		{Name: "authenticatorData", Type: abiBytes},
		{Name: "clientDataJSON", Type: abiString},
		{Name: "challengeOffset", Type: abiUint256},
		{Name: "r", Type: abiUint256},
		{Name: "s", Type: abiUint256},
	}

	// the static (x, y) tuple encodes inline
	webAuthnEnableArgs = abi.Arguments{
		{Name: "x", Type: abiUint256},
		{Name: "y", Type: abiUint256},
		{Name: "authenticatorIdHash", Type: abiBytes32},
	}
)

// WebAuthnConfig configures a WebAuthnValidator
type WebAuthnConfig struct {
	Address common.Address
	Type    domain.ValidatorType
	SubKey  uint16
	// Origin is written into the dummy clientDataJSON so its length matches a real assertion
	Origin string
}

func (c WebAuthnConfig) validate() error {
	if c.Address == (common.Address{}) {
		return fmt.Errorf("%w: webauthn validator address not set", domain.ErrConfiguration)
	}
	if c.Origin == "" {
		return fmt.Errorf("%w: webauthn validator origin not set", domain.ErrConfiguration)
	}
	return nil
}

// WebAuthnValidator signs through a passkey relay and a platform authenticator
type WebAuthnValidator struct {
	cfg           WebAuthnConfig
	relay         usecase.PasskeyRelay
	authenticator usecase.PasskeyAuthenticator
	chain         usecase.ChainReader

	authenticatorID     string
	authenticatorIDHash common.Hash
	pubKeyX             *big.Int
	pubKeyY             *big.Int
}

// RegisterWebAuthnValidator enrolls a new passkey for username and returns its validator
func RegisterWebAuthnValidator(ctx context.Context, cfg WebAuthnConfig, relay usecase.PasskeyRelay, authenticator usecase.PasskeyAuthenticator, chain usecase.ChainReader, username string) (*WebAuthnValidator, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	options, err := relay.RegisterOptions(ctx, username)
	if err != nil {
		return nil, &domain.ValidatorError{Validator: webAuthnName, Step: "register options", Err: err}
	}
	attestation, err := authenticator.Create(ctx, options)
	if err != nil {
		return nil, &domain.ValidatorError{Validator: webAuthnName, Step: "create credential", Err: err}
	}
	verification, err := relay.RegisterVerify(ctx, username, attestation)
	if err != nil {
		return nil, &domain.ValidatorError{Validator: webAuthnName, Step: "register verify", Err: err}
	}
	if !verification.Verified || verification.Credential == nil {
		return nil, &domain.AuthenticationError{Validator: webAuthnName, Step: "register"}
	}
	return NewWebAuthnValidator(cfg, relay, authenticator, chain, *verification.Credential)
}

// LoginWebAuthnValidator authenticates with an existing passkey and returns its validator
func LoginWebAuthnValidator(ctx context.Context, cfg WebAuthnConfig, relay usecase.PasskeyRelay, authenticator usecase.PasskeyAuthenticator, chain usecase.ChainReader) (*WebAuthnValidator, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	options, err := relay.LoginOptions(ctx)
	if err != nil {
		return nil, &domain.ValidatorError{Validator: webAuthnName, Step: "login options", Err: err}
	}
	assertion, err := authenticator.Get(ctx, options)
	if err != nil {
		return nil, &domain.ValidatorError{Validator: webAuthnName, Step: "get assertion", Err: err}
	}
	verification, err := relay.LoginVerify(ctx, assertion)
	if err != nil {
		return nil, &domain.ValidatorError{Validator: webAuthnName, Step: "login verify", Err: err}
	}
	if !verification.Verified || verification.Credential == nil {
		return nil, &domain.AuthenticationError{Validator: webAuthnName, Step: "login"}
	}
	return NewWebAuthnValidator(cfg, relay, authenticator, chain, *verification.Credential)
}

// NewWebAuthnValidator builds a validator for an already known credential
func NewWebAuthnValidator(cfg WebAuthnConfig, relay usecase.PasskeyRelay, authenticator usecase.PasskeyAuthenticator, chain usecase.ChainReader, credential usecase.PasskeyCredential) (*WebAuthnValidator, error) {
	if relay == nil || authenticator == nil {
		return nil, fmt.Errorf("%w: webauthn validator needs a relay and an authenticator", domain.ErrConfiguration)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	x, okX := math.ParseBig256(credential.PubKeyX)
	y, okY := math.ParseBig256(credential.PubKeyY)
	if !okX || !okY {
		return nil, fmt.Errorf("%w: invalid passkey public key", domain.ErrConfiguration)
	}
	rawID, err := decodeBase64URL(credential.AuthenticatorID)
	if err != nil || len(rawID) == 0 {
		return nil, fmt.Errorf("%w: invalid authenticator id", domain.ErrConfiguration)
	}

	return &WebAuthnValidator{
		cfg:                 cfg,
		relay:               relay,
		authenticator:       authenticator,
		chain:               chain,
		authenticatorID:     credential.AuthenticatorID,
		authenticatorIDHash: crypto.Keccak256Hash(rawID),
		pubKeyX:             x,
		pubKeyY:             y,
	}, nil
}

func (v *WebAuthnValidator) Name() string { return webAuthnName }

func (v *WebAuthnValidator) Address() common.Address { return v.cfg.Address }

func (v *WebAuthnValidator) Type() domain.ValidatorType { return v.cfg.Type }

func (v *WebAuthnValidator) Identifier() []byte { return v.cfg.Address.Bytes() }

func (v *WebAuthnValidator) NonceSubKey() uint16 { return v.cfg.SubKey }

// AuthenticatorID is the base64url credential id of the passkey
func (v *WebAuthnValidator) AuthenticatorID() string { return v.authenticatorID }

func (v *WebAuthnValidator) SignMessage(ctx context.Context, message []byte) ([]byte, error) {
	return v.signChallenge(ctx, accounts.TextHash(message), "sign message")
}

func (v *WebAuthnValidator) SignTypedData(ctx context.Context, typedData apitypes.TypedData) ([]byte, error) {
	hash, err := eip712.Hash(typedData)
	if err != nil {
		return nil, &domain.ValidatorError{Validator: webAuthnName, Step: "hash typed data", Err: err}
	}
	return v.signChallenge(ctx, hash.Bytes(), "sign typed data")
}

// SignUserOperationHash uses the raw hash as the WebAuthn challenge
func (v *WebAuthnValidator) SignUserOperationHash(ctx context.Context, hash common.Hash) ([]byte, error) {
	return v.signChallenge(ctx, hash.Bytes(), "sign user operation")
}

func (v *WebAuthnValidator) SignTransaction(context.Context, *types.Transaction) ([]byte, error) {
	return nil, &domain.ValidatorError{Validator: webAuthnName, Step: "sign transaction", Err: domain.ErrUnsupportedOperation}
}

// DummySignature encodes a placeholder assertion shaped like a real one for cfg.Origin
func (v *WebAuthnValidator) DummySignature(context.Context) ([]byte, error) {
	authenticatorData := make([]byte, 37)
	for i := 0; i < 32; i++ {
		authenticatorData[i] = 0x49
	}
	authenticatorData[32] = 0x05

	challenge := base64.RawURLEncoding.EncodeToString(make([]byte, common.HashLength))
	clientDataJSON := dummyClientDataJSON(challenge, v.cfg.Origin)

	maxR := new(uint256.Int).Sub(p256N, uint256.NewInt(1))
	return encodeWebAuthnSignature(authenticatorData, clientDataJSON, maxR.ToBig(), p256HalfN.ToBig())
}

// EnableData is abi.encode((x, y), keccak256(authenticatorId))
func (v *WebAuthnValidator) EnableData(context.Context, common.Address) ([]byte, error) {
	data, err := webAuthnEnableArgs.Pack(v.pubKeyX, v.pubKeyY, [32]byte(v.authenticatorIDHash))
	if err != nil {
		return nil, fmt.Errorf("failed to encode webauthn enable data: %w", err)
	}
	return data, nil
}

func (v *WebAuthnValidator) IsEnabled(ctx context.Context, account common.Address, selector domain.Selector) (bool, error) {
	if v.chain == nil {
		return false, nil
	}
	return v.chain.IsValidatorEnabled(ctx, account, ref(v), selector)
}

func (v *WebAuthnValidator) signChallenge(ctx context.Context, challenge []byte, step string) ([]byte, error) {
	options, err := v.relay.SignInitiate(ctx, challenge)
	if err != nil {
		return nil, &domain.ValidatorError{Validator: webAuthnName, Step: step + ": initiate", Err: err}
	}
	assertion, err := v.authenticator.Get(ctx, options)
	if err != nil {
		return nil, &domain.ValidatorError{Validator: webAuthnName, Step: step + ": get assertion", Err: err}
	}
	verification, err := v.relay.SignVerify(ctx, assertion)
	if err != nil {
		return nil, &domain.ValidatorError{Validator: webAuthnName, Step: step + ": verify", Err: err}
	}
	if !verification.Verified {
		return nil, &domain.AuthenticationError{Validator: webAuthnName, Step: "sign"}
	}

	sig, err := encodeAssertion(assertion)
	if err != nil {
		return nil, &domain.ValidatorError{Validator: webAuthnName, Step: step + ": encode", Err: err}
	}
	return sig, nil
}

func encodeAssertion(assertion *usecase.PasskeyAssertion) ([]byte, error) {
	authenticatorData, err := decodeBase64URL(assertion.AuthenticatorData)
	if err != nil {
		return nil, fmt.Errorf("invalid authenticatorData: %w", err)
	}
	clientData, err := decodeBase64URL(assertion.ClientDataJSON)
	if err != nil {
		return nil, fmt.Errorf("invalid clientDataJSON: %w", err)
	}
	der, err := decodeBase64URL(assertion.Signature)
	if err != nil {
		return nil, fmt.Errorf("invalid signature encoding: %w", err)
	}
	r, s, err := parseDERSignature(der)
	if err != nil {
		return nil, err
	}
	return encodeWebAuthnSignature(authenticatorData, string(clientData), r, s)
}

func encodeWebAuthnSignature(authenticatorData []byte, clientDataJSON string, r, s *big.Int) ([]byte, error) {
	offset := strings.LastIndex(clientDataJSON, webAuthnTypeMarker)
	if offset < 0 {
		return nil, fmt.Errorf("clientDataJSON has no %s field", webAuthnTypeMarker)
	}

	out, err := webAuthnSignatureArgs.Pack(
		authenticatorData,
		clientDataJSON,
		big.NewInt(int64(offset)),
		r,
		normalizeS(s),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to encode webauthn signature: %w", err)
	}
	return out, nil
}

// normalizeS maps s to the lower half of the P-256 order
func normalizeS(s *big.Int) *big.Int {
	v, overflow := uint256.FromBig(s)
	if overflow {
		return s
	}
	if v.Gt(p256HalfN) {
		v = new(uint256.Int).Sub(p256N, v)
	}
	return v.ToBig()
}

// parseDERSignature reads an ASN.1 SEQUENCE { r INTEGER, s INTEGER }
func parseDERSignature(der []byte) (*big.Int, *big.Int, error) {
	var (
		r, s  = new(big.Int), new(big.Int)
		inner cryptobyte.String
	)
	input := cryptobyte.String(der)
	if !input.ReadASN1(&inner, cbasn1.SEQUENCE) ||
		!input.Empty() ||
		!inner.ReadASN1Integer(r) ||
		!inner.ReadASN1Integer(s) ||
		!inner.Empty() {
		return nil, nil, errors.New("invalid DER signature")
	}
	return r, s, nil
}

func decodeBase64URL(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
}

func dummyClientDataJSON(challenge, origin string) string {
	data, _ := json.Marshal(struct {
		Type        string `json:"type"`
		Challenge   string `json:"challenge"`
		Origin      string `json:"origin"`
		CrossOrigin bool   `json:"crossOrigin"`
	}{"webauthn.get", challenge, origin, false})
	return string(data)
}

var _ usecase.Validator = (*WebAuthnValidator)(nil)
