package usecase

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/trebuchet-org/kernel-sdk/internal/domain"
)

// kernelDomainName is the EIP-712 domain name of every Kernel account
const kernelDomainName = "Kernel"

// noHook is the Kernel v3 sentinel for "no hook installed"
var noHook = common.HexToAddress("0x0000000000000000000000000000000000000001")

// envelopeParams is everything a codec needs to assemble one signature envelope
type envelopeParams struct {
	Account         common.Address
	Mode            domain.SignatureMode
	Regular         domain.ValidatorRef
	Action          domain.Action
	Validity        domain.ValidityData
	EnableSignature []byte
	Signature       []byte
}

// enableParams is everything a codec needs to build the enable typed data
type enableParams struct {
	Account        common.Address
	ChainID        uint64
	KernelVersion  string
	ValidatorNonce uint32
	Regular        domain.ValidatorRef
	EnableData     []byte
	Action         domain.Action
	Validity       domain.ValidityData
}

// versionCodec keeps every version-specific wire format in one place
type versionCodec interface {
	Version() domain.EntryPointVersion
	// RegularEnabled reports whether the regular validator can sign without an enable envelope
	RegularEnabled(ctx context.Context, chain ChainReader, regular Validator, account common.Address, selector domain.Selector) (bool, error)
	EncodeEnvelope(p envelopeParams) ([]byte, error)
	NonceKey(mode domain.SignatureMode, active Validator, root bool) domain.NonceKey
	EnableTypedData(p enableParams) apitypes.TypedData
	// NeedsValidatorNonce reports whether the enable typed data commits to the account's validator nonce
	NeedsValidatorNonce() bool
}

func codecFor(version domain.EntryPointVersion) (versionCodec, error) {
	switch version {
	case domain.EntryPointV06:
		return v06Codec{}, nil
	case domain.EntryPointV07:
		return v07Codec{}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported entry point version %q", domain.ErrConfiguration, version)
	}
}

var (
	abiAddress, _ = abi.NewType("address", "", nil)
	abiUint48, _  = abi.NewType("uint48", "", nil)
	abiBytes, _   = abi.NewType("bytes", "", nil)
	abiBytes4, _  = abi.NewType("bytes4", "", nil)
)

// v0.6: 4-byte mode prefix in the signature body, sequential external nonce

type v06Codec struct{}

func (v06Codec) Version() domain.EntryPointVersion { return domain.EntryPointV06 }

func (v06Codec) NeedsValidatorNonce() bool { return false }

func (v06Codec) RegularEnabled(ctx context.Context, _ ChainReader, regular Validator, account common.Address, selector domain.Selector) (bool, error) {
	return regular.IsEnabled(ctx, account, selector)
}

func (v06Codec) EncodeEnvelope(p envelopeParams) ([]byte, error) {
	switch p.Mode {
	case domain.SignatureModeSudo, domain.SignatureModePlugin:
		return append(p.Mode.Prefix(), p.Signature...), nil
	case domain.SignatureModeEnable:
		if len(p.EnableSignature) == 0 {
			return nil, domain.ErrEnableSignatureMissing
		}
		args := abi.Arguments{
			{Name: "account", Type: abiAddress},
			{Name: "validUntil", Type: abiUint48},
			{Name: "validAfter", Type: abiUint48},
			{Name: "validator", Type: abiAddress},
			{Name: "executor", Type: abiAddress},
			{Name: "enableSignature", Type: abiBytes},
			{Name: "signature", Type: abiBytes},
		}
		body, err := args.Pack(
			p.Account,
			new(big.Int).SetUint64(p.Validity.ValidUntil),
			new(big.Int).SetUint64(p.Validity.ValidAfter),
			p.Regular.Address,
			p.Action.Executor,
			p.EnableSignature,
			p.Signature,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to encode enable envelope: %w", err)
		}
		return append(p.Mode.Prefix(), body...), nil
	default:
		return nil, fmt.Errorf("%w: unknown signature mode %s", domain.ErrConfiguration, p.Mode)
	}
}

// NonceKey is always zero on v0.6, where the nonce is a plain sequence managed by the entry point
func (v06Codec) NonceKey(domain.SignatureMode, Validator, bool) domain.NonceKey {
	return domain.NonceKey{}
}

func (v06Codec) EnableTypedData(p enableParams) apitypes.TypedData {
	// validatorData = validUntil(6) || validAfter(6) || validator(20)
	validatorData := make([]byte, 0, 32)
	validatorData = append(validatorData, domain.Uint48Bytes(p.Validity.ValidUntil)...)
	validatorData = append(validatorData, domain.Uint48Bytes(p.Validity.ValidAfter)...)
	validatorData = append(validatorData, p.Regular.Address.Bytes()...)

	return apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": kernelDomainTypes,
			"ValidatorApproved": {
				{Name: "sig", Type: "bytes4"},
				{Name: "validatorData", Type: "uint256"},
				{Name: "executor", Type: "address"},
				{Name: "enableData", Type: "bytes"},
			},
		},
		PrimaryType: "ValidatorApproved",
		Domain:      kernelDomain(p),
		Message: apitypes.TypedDataMessage{
			"sig":           p.Action.Selector.Hex(),
			"validatorData": new(big.Int).SetBytes(validatorData),
			"executor":      p.Action.Executor.Hex(),
			"enableData":    hexutil.Encode(p.EnableData),
		},
	}
}

// v0.7: mode lives in the nonce key, the envelope is the bare signature unless enabling

type v07Codec struct{}

func (v07Codec) Version() domain.EntryPointVersion { return domain.EntryPointV07 }

func (v07Codec) NeedsValidatorNonce() bool { return true }

func (v07Codec) RegularEnabled(ctx context.Context, chain ChainReader, regular Validator, account common.Address, selector domain.Selector) (bool, error) {
	enabled, err := regular.IsEnabled(ctx, account, selector)
	if err != nil || enabled {
		return enabled, err
	}
	if chain == nil {
		return false, nil
	}
	return chain.IsPluginInitialized(ctx, account, refOf(regular))
}

func (v07Codec) EncodeEnvelope(p envelopeParams) ([]byte, error) {
	switch p.Mode {
	case domain.SignatureModeSudo, domain.SignatureModePlugin:
		return append([]byte(nil), p.Signature...), nil
	case domain.SignatureModeEnable:
		if len(p.EnableSignature) == 0 {
			return nil, domain.ErrEnableSignatureMissing
		}
		args := abi.Arguments{
			{Name: "enableSignature", Type: abiBytes},
			{Name: "selector", Type: abiBytes4},
			{Name: "executor", Type: abiAddress},
			{Name: "validator", Type: abiAddress},
			{Name: "signature", Type: abiBytes},
		}
		body, err := args.Pack(
			p.EnableSignature,
			[4]byte(p.Action.Selector),
			p.Action.Executor,
			p.Regular.Address,
			p.Signature,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to encode enable envelope: %w", err)
		}
		return body, nil
	default:
		return nil, fmt.Errorf("%w: unknown signature mode %s", domain.ErrConfiguration, p.Mode)
	}
}

func (v07Codec) NonceKey(mode domain.SignatureMode, active Validator, root bool) domain.NonceKey {
	nonceMode := domain.ValidatorModeDefault
	if mode == domain.SignatureModeEnable {
		nonceMode = domain.ValidatorModeEnable
	}
	validatorType := active.Type()
	if root {
		validatorType = domain.ValidatorTypeRoot
	}
	return domain.NewNonceKey(nonceMode, validatorType, active.Identifier(), active.NonceSubKey())
}

func (v07Codec) EnableTypedData(p enableParams) apitypes.TypedData {
	validationID := p.Regular.ValidationID()

	// selectorData = selector(4) || executor(20) || validAfter(6) || validUntil(6)
	selectorData := make([]byte, 0, 36)
	selectorData = append(selectorData, p.Action.Selector[:]...)
	selectorData = append(selectorData, p.Action.Executor.Bytes()...)
	selectorData = append(selectorData, domain.Uint48Bytes(p.Validity.ValidAfter)...)
	selectorData = append(selectorData, domain.Uint48Bytes(p.Validity.ValidUntil)...)

	return apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": kernelDomainTypes,
			"Enable": {
				{Name: "validationId", Type: "bytes21"},
				{Name: "nonce", Type: "uint32"},
				{Name: "hook", Type: "address"},
				{Name: "validatorData", Type: "bytes"},
				{Name: "hookData", Type: "bytes"},
				{Name: "selectorData", Type: "bytes"},
			},
		},
		PrimaryType: "Enable",
		Domain:      kernelDomain(p),
		Message: apitypes.TypedDataMessage{
			"validationId":  hexutil.Encode(validationID[:]),
			"nonce":         fmt.Sprintf("%d", p.ValidatorNonce),
			"hook":          noHook.Hex(),
			"validatorData": hexutil.Encode(p.EnableData),
			"hookData":      "0x",
			"selectorData":  hexutil.Encode(selectorData),
		},
	}
}

var kernelDomainTypes = []apitypes.Type{
	{Name: "name", Type: "string"},
	{Name: "version", Type: "string"},
	{Name: "chainId", Type: "uint256"},
	{Name: "verifyingContract", Type: "address"},
}

func kernelDomain(p enableParams) apitypes.TypedDataDomain {
	return apitypes.TypedDataDomain{
		Name:              kernelDomainName,
		Version:           p.KernelVersion,
		ChainId:           math.NewHexOrDecimal256(int64(p.ChainID)),
		VerifyingContract: p.Account.Hex(),
	}
}

func refOf(v Validator) domain.ValidatorRef {
	return domain.ValidatorRef{
		Address:    v.Address(),
		Type:       v.Type(),
		Identifier: v.Identifier(),
	}
}
