package validators

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/samber/lo"
	"github.com/trebuchet-org/kernel-sdk/internal/adapters/eip712"
	"github.com/trebuchet-org/kernel-sdk/internal/domain"
	"github.com/trebuchet-org/kernel-sdk/internal/usecase"
)

const permissionName = "permission"

// permissionSignaturePrefix marks the end of per-policy data, followed by the signer signature
const permissionSignaturePrefix = 0xff

// ErrPolicyViolation is wrapped when a local policy pre-check rejects a signing request
var ErrPolicyViolation = errors.New("policy violation")

// PolicyFlag selects what a policy applies to; zero applies it to both user operations and signatures
type PolicyFlag uint16

const PolicyFlagAll PolicyFlag = 0x0000

// Policy is one on-chain restriction attached to a permission
type Policy interface {
	Kind() string
	Address() common.Address
	Flag() PolicyFlag
	InitData() ([]byte, error)
}

// SudoPolicy allows everything
type SudoPolicy struct {
	Contract common.Address
}

func (p SudoPolicy) Kind() string { return "sudo" }
func (p SudoPolicy) Address() common.Address { return p.Contract }
func (p SudoPolicy) Flag() PolicyFlag { return PolicyFlagAll }
func (p SudoPolicy) InitData() ([]byte, error) { return nil, nil }

// TimestampPolicy bounds when the permission can be used
type TimestampPolicy struct {
	Contract common.Address
	Validity domain.ValidityData
}

func (p TimestampPolicy) Kind() string { return "timestamp" }
func (p TimestampPolicy) Address() common.Address { return p.Contract }
func (p TimestampPolicy) Flag() PolicyFlag { return PolicyFlagAll }

// InitData is validAfter(6) || validUntil(6)
func (p TimestampPolicy) InitData() ([]byte, error) {
	if err := p.Validity.Validate(); err != nil {
		return nil, err
	}
	return append(domain.Uint48Bytes(p.Validity.ValidAfter), domain.Uint48Bytes(p.Validity.ValidUntil)...), nil
}

// RateLimitPolicy caps the number of uses per interval
type RateLimitPolicy struct {
	Contract common.Address
	Interval uint64
	Count    uint64
	StartAt  uint64
}

func (p RateLimitPolicy) Kind() string { return "rate-limit" }
func (p RateLimitPolicy) Address() common.Address { return p.Contract }
func (p RateLimitPolicy) Flag() PolicyFlag { return PolicyFlagAll }

// InitData is interval(6) || count(6) || startAt(6)
func (p RateLimitPolicy) InitData() ([]byte, error) {
	if p.Count == 0 {
		return nil, fmt.Errorf("%w: rate limit count must be positive", domain.ErrConfiguration)
	}
	out := domain.Uint48Bytes(p.Interval)
	out = append(out, domain.Uint48Bytes(p.Count)...)
	return append(out, domain.Uint48Bytes(p.StartAt)...), nil
}

// CallPermission allows one target and selector up to a value limit
type CallPermission struct {
	Target     common.Address
	Selector   domain.Selector
	ValueLimit *big.Int
}

// CallPolicy restricts which calls the permission may make
type CallPolicy struct {
	Contract    common.Address
	Permissions []CallPermission
}

func (p CallPolicy) Kind() string { return "call" }
func (p CallPolicy) Address() common.Address { return p.Contract }
func (p CallPolicy) Flag() PolicyFlag { return PolicyFlagAll }

var callPermissionsType, _ = abi.NewType("tuple[]", "", []abi.ArgumentMarshaling{
	{Name: "target", Type: "address"},
	{Name: "selector", Type: "bytes4"},
	{Name: "valueLimit", Type: "uint256"},
})

type callPermissionTuple struct {
	Target     common.Address
	Selector   [4]byte
	ValueLimit *big.Int
}

// InitData is abi.encode((address target, bytes4 selector, uint256 valueLimit)[])
func (p CallPolicy) InitData() ([]byte, error) {
	if len(p.Permissions) == 0 {
		return nil, fmt.Errorf("%w: call policy has no permissions", domain.ErrConfiguration)
	}
	tuples := lo.Map(p.Permissions, func(perm CallPermission, _ int) callPermissionTuple {
		limit := perm.ValueLimit
		if limit == nil {
			limit = new(big.Int)
		}
		return callPermissionTuple{Target: perm.Target, Selector: perm.Selector, ValueLimit: limit}
	})
	data, err := abi.Arguments{{Type: callPermissionsType}}.Pack(tuples)
	if err != nil {
		return nil, fmt.Errorf("failed to encode call policy: %w", err)
	}
	return data, nil
}

// PermissionConfig configures a PermissionValidator
type PermissionConfig struct {
	// Address is the permission validator module
	Address common.Address
	// SignerContract is the modular ECDSA signer installed for this permission
	SignerContract common.Address
	Policies       []Policy
	SubKey         uint16
	// Now overrides the clock used by policy pre-checks
	Now func() time.Time
}

var abiBytesSlice, _ = abi.NewType("bytes[]", "", nil)

// PermissionValidator is a session key scoped by policies
type PermissionValidator struct {
	cfg          PermissionConfig
	signer       usecase.Signer
	chain        usecase.ChainReader
	enableData   []byte
	permissionID [4]byte
}

// NewPermissionValidator encodes the permission and derives its id
func NewPermissionValidator(cfg PermissionConfig, signer usecase.Signer, chain usecase.ChainReader) (*PermissionValidator, error) {
	if signer == nil {
		return nil, fmt.Errorf("%w: permission validator needs a signer", domain.ErrConfiguration)
	}
	if cfg.SignerContract == (common.Address{}) {
		return nil, fmt.Errorf("%w: permission signer contract not set", domain.ErrConfiguration)
	}
	if len(cfg.Policies) == 0 {
		return nil, fmt.Errorf("%w: permission needs at least one policy", domain.ErrConfiguration)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	elements := make([][]byte, 0, len(cfg.Policies)+1)
	for _, policy := range cfg.Policies {
		initData, err := policy.InitData()
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s policy: %w", policy.Kind(), err)
		}
		elements = append(elements, policyElement(policy.Flag(), policy.Address(), initData))
	}
	elements = append(elements, policyElement(PolicyFlagAll, cfg.SignerContract, signer.Address().Bytes()))

	enableData, err := abi.Arguments{{Type: abiBytesSlice}}.Pack(elements)
	if err != nil {
		return nil, fmt.Errorf("failed to encode permission enable data: %w", err)
	}

	v := &PermissionValidator{cfg: cfg, signer: signer, chain: chain, enableData: enableData}
	copy(v.permissionID[:], crypto.Keccak256(enableData)[:4])
	return v, nil
}

// policyElement is flag(2) || contract(20) || initData
func policyElement(flag PolicyFlag, contract common.Address, initData []byte) []byte {
	out := make([]byte, 2, 2+common.AddressLength+len(initData))
	binary.BigEndian.PutUint16(out, uint16(flag))
	out = append(out, contract.Bytes()...)
	return append(out, initData...)
}

func (v *PermissionValidator) Name() string { return permissionName }

func (v *PermissionValidator) Address() common.Address { return v.cfg.Address }

func (v *PermissionValidator) Type() domain.ValidatorType { return domain.ValidatorTypePermission }

// Identifier is the 4-byte permission id
func (v *PermissionValidator) Identifier() []byte { return v.permissionID[:] }

func (v *PermissionValidator) NonceSubKey() uint16 { return v.cfg.SubKey }

// PermissionID is the first four bytes of keccak256(enableData)
func (v *PermissionValidator) PermissionID() [4]byte { return v.permissionID }

func (v *PermissionValidator) SignMessage(ctx context.Context, message []byte) ([]byte, error) {
	return v.sign(ctx, accounts.TextHash(message), "sign message")
}

func (v *PermissionValidator) SignTypedData(ctx context.Context, typedData apitypes.TypedData) ([]byte, error) {
	hash, err := eip712.Hash(typedData)
	if err != nil {
		return nil, &domain.ValidatorError{Validator: permissionName, Step: "hash typed data", Err: err}
	}
	return v.sign(ctx, hash.Bytes(), "sign typed data")
}

func (v *PermissionValidator) SignUserOperationHash(ctx context.Context, hash common.Hash) ([]byte, error) {
	return v.sign(ctx, accounts.TextHash(hash.Bytes()), "sign user operation")
}

func (v *PermissionValidator) SignTransaction(context.Context, *types.Transaction) ([]byte, error) {
	return nil, &domain.ValidatorError{Validator: permissionName, Step: "sign transaction", Err: domain.ErrUnsupportedOperation}
}

func (v *PermissionValidator) DummySignature(context.Context) ([]byte, error) {
	return append([]byte{permissionSignaturePrefix}, ecdsaDummySignature...), nil
}

func (v *PermissionValidator) EnableData(context.Context, common.Address) ([]byte, error) {
	return cloneBytes(v.enableData), nil
}

func (v *PermissionValidator) IsEnabled(ctx context.Context, account common.Address, selector domain.Selector) (bool, error) {
	if v.chain == nil {
		return false, nil
	}
	return v.chain.IsValidatorEnabled(ctx, account, ref(v), selector)
}

// checkPolicies rejects signing outside any timestamp policy window
func (v *PermissionValidator) checkPolicies() error {
	now := uint64(v.cfg.Now().Unix())
	for _, policy := range v.cfg.Policies {
		ts, ok := policy.(TimestampPolicy)
		if !ok {
			continue
		}
		if !ts.Validity.Contains(now) {
			return fmt.Errorf("%w: %w: timestamp %d outside [%d, %d]",
				domain.ErrConfiguration, ErrPolicyViolation, now, ts.Validity.ValidAfter, ts.Validity.ValidUntil)
		}
	}
	return nil
}

func (v *PermissionValidator) sign(ctx context.Context, digest []byte, step string) ([]byte, error) {
	if err := v.checkPolicies(); err != nil {
		return nil, &domain.ValidatorError{Validator: permissionName, Step: step, Err: err}
	}
	sig, err := v.signer.SignHash(ctx, digest)
	if err != nil {
		return nil, &domain.ValidatorError{Validator: permissionName, Step: step, Err: err}
	}
	sig, err = toV27(sig)
	if err != nil {
		return nil, &domain.ValidatorError{Validator: permissionName, Step: step, Err: err}
	}
	return append([]byte{permissionSignaturePrefix}, sig...), nil
}

var _ usecase.Validator = (*PermissionValidator)(nil)
