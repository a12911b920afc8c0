package domain

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNonceKey(t *testing.T) {
	validator := common.HexToAddress("0xd9AB5096a832b9ce79914329DAEE236f8Eea0390")

	tests := []struct {
		name          string
		mode          ValidatorMode
		validatorType ValidatorType
		identifier    []byte
		subKey        uint16
		wantHex       string
	}{
		{
			name:          "root validator default mode",
			mode:          ValidatorModeDefault,
			validatorType: ValidatorTypeRoot,
			identifier:    validator.Bytes(),
			subKey:        0,
			wantHex:       "0x0000d9ab5096a832b9ce79914329daee236f8eea03900000",
		},
		{
			name:          "secondary validator enable mode with sub key",
			mode:          ValidatorModeEnable,
			validatorType: ValidatorTypeSecondary,
			identifier:    validator.Bytes(),
			subKey:        0x0102,
			wantHex:       "0x0101d9ab5096a832b9ce79914329daee236f8eea03900102",
		},
		{
			name:          "permission id is right padded",
			mode:          ValidatorModeDefault,
			validatorType: ValidatorTypePermission,
			identifier:    []byte{0xde, 0xad, 0xbe, 0xef},
			subKey:        7,
			wantHex:       "0x0002deadbeef000000000000000000000000000000000007",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := NewNonceKey(tt.mode, tt.validatorType, tt.identifier, tt.subKey)
			assert.Equal(t, tt.wantHex, key.Hex())
			assert.Equal(t, tt.mode, key.Mode())
			assert.Equal(t, tt.validatorType, key.ValidatorType())
			assert.Equal(t, tt.subKey, key.SubKey())
			assert.Len(t, key.Identifier(), 20)
		})
	}
}

func TestNonceKey_Deterministic(t *testing.T) {
	id := common.HexToAddress("0x1111111111111111111111111111111111111111").Bytes()

	a := NewNonceKey(ValidatorModeDefault, ValidatorTypeSecondary, id, 42)
	b := NewNonceKey(ValidatorModeDefault, ValidatorTypeSecondary, id, 42)
	assert.Equal(t, a, b)
	assert.Equal(t, 0, a.Big().Cmp(b.Big()))

	enabled := NewNonceKey(ValidatorModeEnable, ValidatorTypeSecondary, id, 42)
	assert.NotEqual(t, a[0], enabled[0])
	assert.Equal(t, a[1:], enabled[1:], "changing the mode must only touch the first byte")
}

func TestNonceKey_Big(t *testing.T) {
	key := NewNonceKey(ValidatorModeDefault, ValidatorTypeRoot, nil, 1)
	assert.Equal(t, big.NewInt(1), key.Big())

	key = NewNonceKey(ValidatorModeEnable, ValidatorTypeRoot, nil, 0)
	want := new(big.Int).Lsh(big.NewInt(1), 8*23)
	assert.Equal(t, want, key.Big())
}

func TestNonceKey_NonceRoundTrip(t *testing.T) {
	id := common.HexToAddress("0x2222222222222222222222222222222222222222").Bytes()
	key := NewNonceKey(ValidatorModeEnable, ValidatorTypePermission, id, 9)

	nonce := key.Nonce(17)
	assert.Equal(t, uint64(17), new(big.Int).And(nonce, new(big.Int).SetUint64(^uint64(0))).Uint64())

	gotKey, seq, err := SplitNonce(nonce)
	require.NoError(t, err)
	assert.Equal(t, key, gotKey)
	assert.Equal(t, uint64(17), seq)
}

func TestSplitNonce_Overflow(t *testing.T) {
	tooBig := new(big.Int).Lsh(big.NewInt(1), 256)
	_, _, err := SplitNonce(tooBig)
	assert.ErrorIs(t, err, ErrConfiguration)
}
