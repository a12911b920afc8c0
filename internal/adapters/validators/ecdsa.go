// Package validators implements the Kernel validator variants.
package validators

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/trebuchet-org/kernel-sdk/internal/adapters/eip712"
	"github.com/trebuchet-org/kernel-sdk/internal/domain"
	"github.com/trebuchet-org/kernel-sdk/internal/usecase"
)

// ecdsaDummySignature is a well-formed 65-byte signature that never recovers to an owner
var ecdsaDummySignature = common.FromHex("0xfffffffffffffffffffffffffffffff0000000000000000000000000000000007aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa1c")

// ECDSAConfig configures an ECDSAValidator
type ECDSAConfig struct {
	// Address is the deployed ECDSA validator module
	Address common.Address
	Type    domain.ValidatorType
	SubKey  uint16
}

// ECDSAValidator signs with a secp256k1 key owned by the account
type ECDSAValidator struct {
	cfg    ECDSAConfig
	signer usecase.Signer
	chain  usecase.ChainReader
}

// NewECDSAValidator builds a validator around signer. chain may be nil when enablement
// and owner checks are not needed.
func NewECDSAValidator(cfg ECDSAConfig, signer usecase.Signer, chain usecase.ChainReader) (*ECDSAValidator, error) {
	if signer == nil {
		return nil, fmt.Errorf("%w: ecdsa validator needs a signer", domain.ErrConfiguration)
	}
	if cfg.Address == (common.Address{}) {
		return nil, fmt.Errorf("%w: ecdsa validator address not set", domain.ErrConfiguration)
	}
	return &ECDSAValidator{cfg: cfg, signer: signer, chain: chain}, nil
}

func (v *ECDSAValidator) Name() string { return "ecdsa" }

func (v *ECDSAValidator) Address() common.Address { return v.cfg.Address }

func (v *ECDSAValidator) Type() domain.ValidatorType { return v.cfg.Type }

func (v *ECDSAValidator) Identifier() []byte { return v.cfg.Address.Bytes() }

func (v *ECDSAValidator) NonceSubKey() uint16 { return v.cfg.SubKey }

// Owner is the address of the underlying signer
func (v *ECDSAValidator) Owner() common.Address { return v.signer.Address() }

// SignMessage signs the EIP-191 personal message hash of message
func (v *ECDSAValidator) SignMessage(ctx context.Context, message []byte) ([]byte, error) {
	return v.signDigest(ctx, accounts.TextHash(message), "sign message")
}

func (v *ECDSAValidator) SignTypedData(ctx context.Context, typedData apitypes.TypedData) ([]byte, error) {
	hash, err := eip712.Hash(typedData)
	if err != nil {
		return nil, &domain.ValidatorError{Validator: v.Name(), Step: "hash typed data", Err: err}
	}
	return v.signDigest(ctx, hash.Bytes(), "sign typed data")
}

// SignUserOperationHash personal-signs the raw 32-byte hash
func (v *ECDSAValidator) SignUserOperationHash(ctx context.Context, hash common.Hash) ([]byte, error) {
	return v.signDigest(ctx, accounts.TextHash(hash.Bytes()), "sign user operation")
}

func (v *ECDSAValidator) SignTransaction(context.Context, *types.Transaction) ([]byte, error) {
	return nil, &domain.ValidatorError{Validator: v.Name(), Step: "sign transaction", Err: domain.ErrUnsupportedOperation}
}

func (v *ECDSAValidator) DummySignature(context.Context) ([]byte, error) {
	return cloneBytes(ecdsaDummySignature), nil
}

// EnableData is the owner address
func (v *ECDSAValidator) EnableData(context.Context, common.Address) ([]byte, error) {
	return v.signer.Address().Bytes(), nil
}

func (v *ECDSAValidator) IsEnabled(ctx context.Context, account common.Address, selector domain.Selector) (bool, error) {
	if v.chain == nil {
		return false, nil
	}
	return v.chain.IsValidatorEnabled(ctx, account, ref(v), selector)
}

// CheckOwner compares the owner recorded by the validator module for account with the signer
func (v *ECDSAValidator) CheckOwner(ctx context.Context, account common.Address) error {
	if v.chain == nil {
		return nil
	}
	recorded, err := v.chain.ValidatorOwner(ctx, v.cfg.Address, account)
	if err != nil {
		return fmt.Errorf("failed to read validator owner: %w", err)
	}
	if recorded == (common.Address{}) || recorded == v.signer.Address() {
		return nil
	}
	return &domain.OwnerMismatchError{Account: account, Recorded: recorded, Supplied: v.signer.Address()}
}

func (v *ECDSAValidator) signDigest(ctx context.Context, digest []byte, step string) ([]byte, error) {
	sig, err := v.signer.SignHash(ctx, digest)
	if err != nil {
		return nil, &domain.ValidatorError{Validator: v.Name(), Step: step, Err: err}
	}
	return toV27(sig)
}

var (
	_ usecase.Validator    = (*ECDSAValidator)(nil)
	_ usecase.OwnerChecker = (*ECDSAValidator)(nil)
)
