package domain

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// UserOperation holds both the v0.6 and the unpacked v0.7 field sets.
// v0.6 uses InitCode and PaymasterAndData, v0.7 uses Factory/FactoryData and the Paymaster* fields.
type UserOperation struct {
	Sender               common.Address  `json:"sender"`
	Nonce                *hexutil.Big    `json:"nonce"`
	InitCode             hexutil.Bytes   `json:"initCode,omitempty"`
	Factory              *common.Address `json:"factory,omitempty"`
	FactoryData          hexutil.Bytes   `json:"factoryData,omitempty"`
	CallData             hexutil.Bytes   `json:"callData"`
	CallGasLimit         *hexutil.Big    `json:"callGasLimit"`
	VerificationGasLimit *hexutil.Big    `json:"verificationGasLimit"`
	PreVerificationGas   *hexutil.Big    `json:"preVerificationGas"`
	MaxFeePerGas         *hexutil.Big    `json:"maxFeePerGas"`
	MaxPriorityFeePerGas *hexutil.Big    `json:"maxPriorityFeePerGas"`
	PaymasterAndData     hexutil.Bytes   `json:"paymasterAndData,omitempty"`

	Paymaster                     *common.Address `json:"paymaster,omitempty"`
	PaymasterVerificationGasLimit *hexutil.Big    `json:"paymasterVerificationGasLimit,omitempty"`
	PaymasterPostOpGasLimit       *hexutil.Big    `json:"paymasterPostOpGasLimit,omitempty"`
	PaymasterData                 hexutil.Bytes   `json:"paymasterData,omitempty"`

	Signature hexutil.Bytes `json:"signature"`
}

// Selector returns the first four bytes of the call data, or zero when shorter
func (op *UserOperation) Selector() Selector {
	var sel Selector
	if len(op.CallData) >= 4 {
		copy(sel[:], op.CallData[:4])
	}
	return sel
}

// Hash computes the ERC-4337 user operation hash for the given entry point version
func (op *UserOperation) Hash(version EntryPointVersion, entryPoint common.Address, chainID *big.Int) (common.Hash, error) {
	var (
		packed []byte
		err    error
	)
	switch version {
	case EntryPointV06:
		packed, err = op.packV06()
	case EntryPointV07:
		packed, err = op.packV07()
	default:
		return common.Hash{}, fmt.Errorf("%w: unsupported entry point version %q", ErrConfiguration, version)
	}
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to pack user operation: %w", err)
	}

	outer := abi.Arguments{{Type: bytes32Type}, {Type: addressType}, {Type: uint256Type}}
	enc, err := outer.Pack(crypto.Keccak256Hash(packed), entryPoint, chainID)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to encode user operation hash: %w", err)
	}
	return crypto.Keccak256Hash(enc), nil
}

func (op *UserOperation) packV06() ([]byte, error) {
	args := abi.Arguments{
		{Name: "sender", Type: addressType},
		{Name: "nonce", Type: uint256Type},
		{Name: "hashInitCode", Type: bytes32Type},
		{Name: "hashCallData", Type: bytes32Type},
		{Name: "callGasLimit", Type: uint256Type},
		{Name: "verificationGasLimit", Type: uint256Type},
		{Name: "preVerificationGas", Type: uint256Type},
		{Name: "maxFeePerGas", Type: uint256Type},
		{Name: "maxPriorityFeePerGas", Type: uint256Type},
		{Name: "hashPaymasterAndData", Type: bytes32Type},
	}
	return args.Pack(
		op.Sender,
		bigOrZero(op.Nonce),
		crypto.Keccak256Hash(op.InitCode),
		crypto.Keccak256Hash(op.CallData),
		bigOrZero(op.CallGasLimit),
		bigOrZero(op.VerificationGasLimit),
		bigOrZero(op.PreVerificationGas),
		bigOrZero(op.MaxFeePerGas),
		bigOrZero(op.MaxPriorityFeePerGas),
		crypto.Keccak256Hash(op.PaymasterAndData),
	)
}

func (op *UserOperation) packV07() ([]byte, error) {
	args := abi.Arguments{
		{Name: "sender", Type: addressType},
		{Name: "nonce", Type: uint256Type},
		{Name: "hashInitCode", Type: bytes32Type},
		{Name: "hashCallData", Type: bytes32Type},
		{Name: "accountGasLimits", Type: bytes32Type},
		{Name: "preVerificationGas", Type: uint256Type},
		{Name: "gasFees", Type: bytes32Type},
		{Name: "hashPaymasterAndData", Type: bytes32Type},
	}
	return args.Pack(
		op.Sender,
		bigOrZero(op.Nonce),
		crypto.Keccak256Hash(op.PackedInitCode()),
		crypto.Keccak256Hash(op.CallData),
		packUint128Pair(op.VerificationGasLimit, op.CallGasLimit),
		bigOrZero(op.PreVerificationGas),
		packUint128Pair(op.MaxPriorityFeePerGas, op.MaxFeePerGas),
		crypto.Keccak256Hash(op.PackedPaymasterAndData()),
	)
}

// PackedInitCode returns factory || factoryData for v0.7, falling back to InitCode
func (op *UserOperation) PackedInitCode() []byte {
	if op.Factory == nil {
		return op.InitCode
	}
	return append(op.Factory.Bytes(), op.FactoryData...)
}

// PackedPaymasterAndData returns paymaster || verificationGas(16) || postOpGas(16) || data for v0.7
func (op *UserOperation) PackedPaymasterAndData() []byte {
	if op.Paymaster == nil {
		return op.PaymasterAndData
	}
	gas := packUint128Pair(op.PaymasterVerificationGasLimit, op.PaymasterPostOpGasLimit)
	out := append(op.Paymaster.Bytes(), gas[:]...)
	return append(out, op.PaymasterData...)
}

var (
	addressType, _ = abi.NewType("address", "", nil)
	uint256Type, _ = abi.NewType("uint256", "", nil)
	bytes32Type, _ = abi.NewType("bytes32", "", nil)
)

func bigOrZero(v *hexutil.Big) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v.ToInt()
}

// packUint128Pair packs hi and lo into one 32-byte word, 16 bytes each
func packUint128Pair(hi, lo *hexutil.Big) [32]byte {
	var out [32]byte
	h := bigOrZero(hi).Bytes()
	l := bigOrZero(lo).Bytes()
	if len(h) > 16 {
		h = h[len(h)-16:]
	}
	if len(l) > 16 {
		l = l[len(l)-16:]
	}
	copy(out[16-len(h):16], h)
	copy(out[32-len(l):], l)
	return out
}
