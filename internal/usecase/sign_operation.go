package usecase

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/trebuchet-org/kernel-sdk/internal/domain"
)

// SignOperationParams contains parameters for signing a user operation
type SignOperationParams struct {
	Operation  *domain.UserOperation
	EntryPoint common.Address
	// ChainID is read from the chain when zero
	ChainID uint64
	// Chains > 1 produces a multi-chain signature over chains-1 filler leaves
	Chains int
	Dummy  bool
	Sudo   bool
}

// SignOperationResult contains the signed operation
type SignOperationResult struct {
	Operation *domain.UserOperation `json:"userOperation"`
	Hash      common.Hash           `json:"userOpHash"`
	NonceKey  string                `json:"nonceKey"`
	Signature hexutil.Bytes         `json:"signature"`
	ChainID   uint64                `json:"chainId"`
	Chains    int                   `json:"chains"`
	Dummy     bool                  `json:"dummy"`
}

// SignOperation hashes a user operation and writes the assembled signature into it
type SignOperation struct {
	manager *KernelPluginManager
	chain   ChainReader
}

// NewSignOperation creates a new SignOperation use case. chain may be nil when params carry the chain id.
func NewSignOperation(manager *KernelPluginManager, chain ChainReader) *SignOperation {
	return &SignOperation{manager: manager, chain: chain}
}

// Run executes the use case
func (uc *SignOperation) Run(ctx context.Context, params SignOperationParams) (*SignOperationResult, error) {
	if params.Operation == nil {
		return nil, fmt.Errorf("%w: no user operation", domain.ErrConfiguration)
	}
	if params.Chains < 1 {
		params.Chains = 1
	}

	chainID := params.ChainID
	if chainID == 0 {
		if uc.chain == nil {
			return nil, fmt.Errorf("%w: chain id unknown without an RPC connection", domain.ErrConfiguration)
		}
		var err error
		if chainID, err = uc.chain.ChainID(ctx); err != nil {
			return nil, err
		}
	}

	var opts []SignOption
	if params.Sudo {
		opts = append(opts, WithSudo())
	}

	op := *params.Operation
	nonceKey, err := uc.manager.ApplyNonceKey(ctx, &op, opts...)
	if err != nil {
		return nil, err
	}

	hash, err := op.Hash(uc.manager.EntryPointVersion(), params.EntryPoint, new(big.Int).SetUint64(chainID))
	if err != nil {
		return nil, err
	}

	var sig []byte
	switch {
	case params.Dummy && params.Chains > 1:
		sig, err = uc.manager.DummyMultiChainSignature(ctx, &op, params.Chains, opts...)
	case params.Dummy:
		sig, err = uc.manager.DummySignature(ctx, &op, opts...)
	case params.Chains > 1:
		sig, err = uc.manager.SignMultiChain(ctx, &op, hash, params.Chains, opts...)
	default:
		sig, err = uc.manager.SignUserOperation(ctx, &op, hash, opts...)
	}
	if err != nil {
		return nil, err
	}
	op.Signature = sig

	return &SignOperationResult{
		Operation: &op,
		Hash:      hash,
		NonceKey:  nonceKey.Hex(),
		Signature: sig,
		ChainID:   chainID,
		Chains:    params.Chains,
		Dummy:     params.Dummy,
	}, nil
}
