package blockchain

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/trebuchet-org/kernel-sdk/internal/domain"
	"github.com/trebuchet-org/kernel-sdk/internal/usecase"
)

const (
	// DefaultKernelVersionV06 is assumed for undeployed accounts on EntryPoint v0.6
	DefaultKernelVersionV06 = "0.2.4"
	// DefaultKernelVersionV07 is assumed for undeployed accounts on EntryPoint v0.7
	DefaultKernelVersionV07 = "0.3.1"

	defaultCallTimeout = 5 * time.Second
)

// contractCaller is the subset of ethclient.Client the reader needs
type contractCaller interface {
	ChainID(ctx context.Context) (*big.Int, error)
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// ChainReaderAdapter implements usecase.ChainReader over JSON-RPC
type ChainReaderAdapter struct {
	caller  contractCaller
	version domain.EntryPointVersion
	timeout time.Duration

	mu      sync.Mutex
	chainID uint64
}

// Dial connects to rpcURL and verifies the chain id when expectedChainID is non-zero
func Dial(ctx context.Context, rpcURL string, expectedChainID uint64, version domain.EntryPointVersion) (*ChainReaderAdapter, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC: %w", err)
	}

	r, err := NewChainReaderAdapter(client, version)
	if err != nil {
		client.Close()
		return nil, err
	}

	chainID, err := r.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, err
	}
	if expectedChainID != 0 && chainID != expectedChainID {
		client.Close()
		return nil, fmt.Errorf("%w: chain ID mismatch: expected %d, got %d", domain.ErrConfiguration, expectedChainID, chainID)
	}
	return r, nil
}

// NewChainReaderAdapter creates a reader over an existing caller
func NewChainReaderAdapter(caller contractCaller, version domain.EntryPointVersion) (*ChainReaderAdapter, error) {
	if caller == nil {
		return nil, fmt.Errorf("%w: no RPC client", domain.ErrConfiguration)
	}
	if err := version.Validate(); err != nil {
		return nil, err
	}
	return &ChainReaderAdapter{caller: caller, version: version, timeout: defaultCallTimeout}, nil
}

func (r *ChainReaderAdapter) ChainID(ctx context.Context) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.chainID != 0 {
		return r.chainID, nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	id, err := r.caller.ChainID(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get chain ID: %w", err)
	}
	r.chainID = id.Uint64()
	return r.chainID, nil
}

func (r *ChainReaderAdapter) IsDeployed(ctx context.Context, account common.Address) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	code, err := r.caller.CodeAt(ctx, account, nil)
	if err != nil {
		return false, fmt.Errorf("failed to check code at %s: %w", account.Hex(), err)
	}
	return len(code) > 0, nil
}

// KernelVersion reads the EIP-712 domain version, falling back to the default for undeployed accounts
func (r *ChainReaderAdapter) KernelVersion(ctx context.Context, account common.Address) (string, error) {
	deployed, err := r.IsDeployed(ctx, account)
	if err != nil {
		return "", err
	}
	if !deployed {
		return r.defaultKernelVersion(), nil
	}

	out, err := r.call(ctx, account, "eip712Domain")
	if err != nil {
		// pre-5267 kernels have no domain getter
		return r.defaultKernelVersion(), nil
	}
	version, ok := out[2].(string)
	if !ok || version == "" {
		return r.defaultKernelVersion(), nil
	}
	return version, nil
}

// ValidatorNonce is the v3 enable nonce; undeployed accounts start at 1
func (r *ChainReaderAdapter) ValidatorNonce(ctx context.Context, account common.Address) (uint32, error) {
	if r.version == domain.EntryPointV06 {
		return 0, nil
	}
	deployed, err := r.IsDeployed(ctx, account)
	if err != nil {
		return 0, err
	}
	if !deployed {
		return 1, nil
	}

	out, err := r.call(ctx, account, "currentNonce")
	if err != nil {
		return 0, err
	}
	nonce, ok := out[0].(uint32)
	if !ok {
		return 0, fmt.Errorf("unexpected currentNonce output %T", out[0])
	}
	return nonce, nil
}

func (r *ChainReaderAdapter) IsValidatorEnabled(ctx context.Context, account common.Address, validator domain.ValidatorRef, selector domain.Selector) (bool, error) {
	deployed, err := r.IsDeployed(ctx, account)
	if err != nil || !deployed {
		return false, err
	}

	if r.version == domain.EntryPointV06 {
		out, err := r.call(ctx, account, "getExecution", [4]byte(selector))
		if err != nil {
			return false, err
		}
		current, ok := out[3].(common.Address)
		if !ok {
			return false, fmt.Errorf("unexpected getExecution output %T", out[3])
		}
		return current == validator.Address, nil
	}

	out, err := r.call(ctx, account, "isAllowedSelector", validator.ValidationID(), [4]byte(selector))
	if err != nil {
		return false, err
	}
	allowed, ok := out[0].(bool)
	if !ok {
		return false, fmt.Errorf("unexpected isAllowedSelector output %T", out[0])
	}
	return allowed, nil
}

// IsPluginInitialized reports whether a v3 validation has a hook installed
func (r *ChainReaderAdapter) IsPluginInitialized(ctx context.Context, account common.Address, validator domain.ValidatorRef) (bool, error) {
	if r.version == domain.EntryPointV06 {
		return false, nil
	}
	deployed, err := r.IsDeployed(ctx, account)
	if err != nil || !deployed {
		return false, err
	}

	out, err := r.call(ctx, account, "validationConfig", validator.ValidationID())
	if err != nil {
		return false, err
	}
	hook, ok := out[1].(common.Address)
	if !ok {
		return false, fmt.Errorf("unexpected validationConfig output %T", out[1])
	}
	return hook != (common.Address{}), nil
}

// ValidatorOwner reads ecdsaValidatorStorage(account) from the validator contract
func (r *ChainReaderAdapter) ValidatorOwner(ctx context.Context, validator common.Address, account common.Address) (common.Address, error) {
	out, err := r.call(ctx, validator, "ecdsaValidatorStorage", account)
	if err != nil {
		return common.Address{}, err
	}
	owner, ok := out[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("unexpected ecdsaValidatorStorage output %T", out[0])
	}
	return owner, nil
}

func (r *ChainReaderAdapter) defaultKernelVersion() string {
	if r.version == domain.EntryPointV06 {
		return DefaultKernelVersionV06
	}
	return DefaultKernelVersionV07
}

func (r *ChainReaderAdapter) call(ctx context.Context, to common.Address, method string, args ...any) ([]any, error) {
	data, err := kernelABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", method, err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	raw, err := r.caller.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to call %s on %s: %w", method, to.Hex(), err)
	}

	out, err := kernelABI.Unpack(method, raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", method, err)
	}
	return out, nil
}

var _ usecase.ChainReader = (*ChainReaderAdapter)(nil)
