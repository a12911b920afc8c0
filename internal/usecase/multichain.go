package usecase

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/trebuchet-org/kernel-sdk/internal/domain"
	"github.com/trebuchet-org/kernel-sdk/pkg/merkle"
)

// MultiChainFiller occupies every chain slot except the home chain's: keccak256("")
var MultiChainFiller = crypto.Keccak256Hash(nil)

var (
	abiBytes32, _      = abi.NewType("bytes32", "", nil)
	abiBytes32Slice, _ = abi.NewType("bytes32[]", "", nil)
)

// MultiChainProof is the commitment one signature authorizes across chains
type MultiChainProof struct {
	Root  common.Hash
	Leaf  common.Hash
	Proof []common.Hash
}

// BuildMultiChainProof commits opHash plus chains-1 filler leaves into a Merkle tree.
// The real leaf is always at index 0.
func BuildMultiChainProof(opHash common.Hash, chains int) (*MultiChainProof, error) {
	if chains < 1 {
		return nil, fmt.Errorf("%w: chain count must be at least 1, got %d", domain.ErrConfiguration, chains)
	}

	leaves := make([]common.Hash, chains)
	leaves[0] = opHash
	for i := 1; i < chains; i++ {
		leaves[i] = MultiChainFiller
	}

	tree, err := merkle.New(leaves)
	if err != nil {
		return nil, err
	}
	proof, err := tree.Proof(0)
	if err != nil {
		return nil, err
	}
	return &MultiChainProof{Root: tree.Root(), Leaf: opHash, Proof: proof}, nil
}

// Encode returns signature || root || abi.encode(bytes32 leaf, bytes32[] proof)
func (p *MultiChainProof) Encode(signature []byte) ([]byte, error) {
	proof := make([][32]byte, len(p.Proof))
	for i, h := range p.Proof {
		proof[i] = h
	}

	args := abi.Arguments{{Type: abiBytes32}, {Type: abiBytes32Slice}}
	encoded, err := args.Pack([32]byte(p.Leaf), proof)
	if err != nil {
		return nil, fmt.Errorf("failed to encode merkle proof: %w", err)
	}

	out := make([]byte, 0, len(signature)+common.HashLength+len(encoded))
	out = append(out, signature...)
	out = append(out, p.Root.Bytes()...)
	return append(out, encoded...), nil
}

// SignMultiChain has the active validator sign the Merkle root over opHash and chains-1
// filler leaves, then wraps the proof-carrying signature in the mode envelope
func (m *KernelPluginManager) SignMultiChain(ctx context.Context, op *domain.UserOperation, opHash common.Hash, chains int, opts ...SignOption) ([]byte, error) {
	commitment, err := BuildMultiChainProof(opHash, chains)
	if err != nil {
		return nil, err
	}

	p, err := m.plan(ctx, op.Sender, applySignOptions(opts))
	if err != nil {
		return nil, err
	}

	sig, err := p.active.SignUserOperationHash(ctx, commitment.Root)
	if err != nil {
		return nil, &domain.ValidatorError{
			Validator: p.active.Name(),
			Account:   op.Sender,
			Step:      "sign multi-chain root",
			Err:       err,
		}
	}

	body, err := commitment.Encode(sig)
	if err != nil {
		return nil, err
	}
	m.log.Debug("signed multi-chain root", "account", op.Sender.Hex(), "chains", chains, "root", commitment.Root.Hex())

	return m.wrap(ctx, op.Sender, p, body, false)
}

// DummyMultiChainSignature matches the length of SignMultiChain for the same chain count
func (m *KernelPluginManager) DummyMultiChainSignature(ctx context.Context, op *domain.UserOperation, chains int, opts ...SignOption) ([]byte, error) {
	commitment, err := BuildMultiChainProof(common.Hash{}, chains)
	if err != nil {
		return nil, err
	}

	p, err := m.plan(ctx, op.Sender, applySignOptions(opts))
	if err != nil {
		return nil, err
	}

	sig, err := p.active.DummySignature(ctx)
	if err != nil {
		return nil, &domain.ValidatorError{
			Validator: p.active.Name(),
			Account:   op.Sender,
			Step:      "dummy signature",
			Err:       err,
		}
	}

	body, err := commitment.Encode(sig)
	if err != nil {
		return nil, err
	}
	return m.wrap(ctx, op.Sender, p, body, true)
}
