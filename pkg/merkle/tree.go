// Package merkle builds sorted-pair Keccak-256 Merkle trees.
//
// Trees use a complete binary tree in heap layout: for N leaves there are 2N-1 nodes,
// leaf i sits at index N-1+i and node k hashes the sorted pair of nodes 2k+1 and 2k+2.
// Leaves are neither padded nor duplicated, so for an odd leaf count some leaves sit one
// level closer to the root than others.
package merkle

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	ErrEmptyTree       = errors.New("merkle tree needs at least one leaf")
	ErrLeafOutOfBounds = errors.New("leaf index out of bounds")
)

// Tree is an immutable sorted-pair Merkle tree
type Tree struct {
	nodes  []common.Hash
	leaves int
}

// New builds a tree over leaves in the given order
func New(leaves []common.Hash) (*Tree, error) {
	n := len(leaves)
	if n == 0 {
		return nil, ErrEmptyTree
	}

	nodes := make([]common.Hash, 2*n-1)
	copy(nodes[n-1:], leaves)
	for k := n - 2; k >= 0; k-- {
		nodes[k] = HashPair(nodes[2*k+1], nodes[2*k+2])
	}
	return &Tree{nodes: nodes, leaves: n}, nil
}

// Root returns the tree root. A single-leaf tree's root is the leaf itself.
func (t *Tree) Root() common.Hash {
	return t.nodes[0]
}

// Len returns the number of leaves
func (t *Tree) Len() int {
	return t.leaves
}

// Leaf returns the leaf at index i
func (t *Tree) Leaf(i int) (common.Hash, error) {
	if i < 0 || i >= t.leaves {
		return common.Hash{}, fmt.Errorf("%w: %d of %d", ErrLeafOutOfBounds, i, t.leaves)
	}
	return t.nodes[t.leaves-1+i], nil
}

// Proof returns the sibling path from leaf i up to (excluding) the root
func (t *Tree) Proof(i int) ([]common.Hash, error) {
	if i < 0 || i >= t.leaves {
		return nil, fmt.Errorf("%w: %d of %d", ErrLeafOutOfBounds, i, t.leaves)
	}

	var proof []common.Hash
	for idx := t.leaves - 1 + i; idx > 0; idx = (idx - 1) / 2 {
		proof = append(proof, t.nodes[siblingIndex(idx)])
	}
	return proof, nil
}

// Verify reports whether proof links leaf to root
func Verify(root, leaf common.Hash, proof []common.Hash) bool {
	return ProcessProof(leaf, proof) == root
}

// ProcessProof folds the proof into leaf and returns the resulting root
func ProcessProof(leaf common.Hash, proof []common.Hash) common.Hash {
	computed := leaf
	for _, sibling := range proof {
		computed = HashPair(computed, sibling)
	}
	return computed
}

// HashPair hashes a and b in ascending byte order
func HashPair(a, b common.Hash) common.Hash {
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	return crypto.Keccak256Hash(a[:], b[:])
}

func siblingIndex(idx int) int {
	if idx%2 == 0 {
		return idx - 1
	}
	return idx + 1
}
