// Package eip712 hashes structured data for typed-data signing.
package eip712

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// Hash returns keccak256("\x19\x01" || domainSeparator || hashStruct(message))
func Hash(td apitypes.TypedData) (common.Hash, error) {
	domainSeparator, err := td.HashStruct("EIP712Domain", td.Domain.Map())
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to hash domain: %w", err)
	}

	messageHash, err := td.HashStruct(td.PrimaryType, td.Message)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to hash message: %w", err)
	}

	raw := make([]byte, 0, 2+2*common.HashLength)
	raw = append(raw, 0x19, 0x01)
	raw = append(raw, domainSeparator...)
	raw = append(raw, messageHash...)
	return crypto.Keccak256Hash(raw), nil
}

// Parse decodes typed data in the eth_signTypedData_v4 JSON shape
func Parse(data []byte) (apitypes.TypedData, error) {
	var td apitypes.TypedData
	if err := json.Unmarshal(data, &td); err != nil {
		return apitypes.TypedData{}, fmt.Errorf("failed to parse typed data: %w", err)
	}
	if td.PrimaryType == "" {
		return apitypes.TypedData{}, fmt.Errorf("typed data has no primaryType")
	}
	return td, nil
}
