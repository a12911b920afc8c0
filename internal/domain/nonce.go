package domain

import (
	"encoding/binary"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
)

// NonceKeyLength is the size of the ERC-4337 nonce key (the high 192 bits of the nonce)
const NonceKeyLength = 24

// NonceKey is mode(1) || validatorType(1) || identifier(20) || subKey(2)
type NonceKey [NonceKeyLength]byte

// NewNonceKey lays out a v0.7 nonce key. The identifier is right padded to 20 bytes.
func NewNonceKey(mode ValidatorMode, validatorType ValidatorType, identifier []byte, subKey uint16) NonceKey {
	var key NonceKey
	key[0] = byte(mode)
	key[1] = byte(validatorType)
	copy(key[2:22], PadIdentifier(identifier))
	binary.BigEndian.PutUint16(key[22:], subKey)
	return key
}

func (k NonceKey) Mode() ValidatorMode {
	return ValidatorMode(k[0])
}

func (k NonceKey) ValidatorType() ValidatorType {
	return ValidatorType(k[1])
}

func (k NonceKey) Identifier() []byte {
	return append([]byte(nil), k[2:22]...)
}

func (k NonceKey) SubKey() uint16 {
	return binary.BigEndian.Uint16(k[22:])
}

// Uint256 interprets the key as a big-endian integer
func (k NonceKey) Uint256() *uint256.Int {
	return new(uint256.Int).SetBytes(k[:])
}

func (k NonceKey) Big() *big.Int {
	return k.Uint256().ToBig()
}

func (k NonceKey) Hex() string {
	return hexutil.Encode(k[:])
}

// Nonce composes the full 256-bit nonce: key << 64 | sequence
func (k NonceKey) Nonce(sequence uint64) *big.Int {
	n := k.Uint256()
	n.Lsh(n, 64)
	n.Or(n, uint256.NewInt(sequence))
	return n.ToBig()
}

// SplitNonce separates a full nonce into its key and sequence parts
func SplitNonce(nonce *big.Int) (NonceKey, uint64, error) {
	var key NonceKey
	n, overflow := uint256.FromBig(nonce)
	if overflow {
		return key, 0, ErrConfiguration
	}
	sequence := n.Uint64()
	hi := new(uint256.Int).Rsh(n, 64)
	b := hi.Bytes32()
	copy(key[:], b[32-NonceKeyLength:])
	return key, sequence, nil
}
