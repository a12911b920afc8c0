package validators

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/kernel-sdk/internal/adapters/eip712"
	"github.com/trebuchet-org/kernel-sdk/internal/adapters/signer"
	"github.com/trebuchet-org/kernel-sdk/internal/domain"
)

const testOwnerKey = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

var (
	testValidatorAddr = common.HexToAddress("0x8104e3Ad430EA6d354d013A6789fDFc71E671c43")
	testAccount       = common.HexToAddress("0x3D33783D1fd1B6D849d299aD2E711f844fC16d2F")
	testSelector      = domain.Selector{0xe9, 0xae, 0x5c, 0x53}
)

func newTestECDSA(t *testing.T, chain *fakeChain) *ECDSAValidator {
	t.Helper()
	s, err := signer.NewLocalSignerFromHex(testOwnerKey)
	require.NoError(t, err)
	var v *ECDSAValidator
	if chain != nil {
		v, err = NewECDSAValidator(ECDSAConfig{Address: testValidatorAddr}, s, chain)
	} else {
		v, err = NewECDSAValidator(ECDSAConfig{Address: testValidatorAddr}, s, nil)
	}
	require.NoError(t, err)
	return v
}

func recoverSigner(t *testing.T, digest, sig []byte) common.Address {
	t.Helper()
	require.Len(t, sig, 65)
	require.Contains(t, []byte{27, 28}, sig[64])
	raw := append([]byte(nil), sig...)
	raw[64] -= 27
	pub, err := crypto.SigToPub(digest, raw)
	require.NoError(t, err)
	return crypto.PubkeyToAddress(*pub)
}

func TestNewECDSAValidator_Validation(t *testing.T) {
	s, err := signer.NewLocalSignerFromHex(testOwnerKey)
	require.NoError(t, err)

	_, err = NewECDSAValidator(ECDSAConfig{Address: testValidatorAddr}, nil, nil)
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	_, err = NewECDSAValidator(ECDSAConfig{}, s, nil)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestECDSAValidator_Signing(t *testing.T) {
	ctx := context.Background()
	v := newTestECDSA(t, nil)

	t.Run("message", func(t *testing.T) {
		msg := []byte("hello kernel")
		sig, err := v.SignMessage(ctx, msg)
		require.NoError(t, err)
		assert.Equal(t, v.Owner(), recoverSigner(t, accounts.TextHash(msg), sig))
	})

	t.Run("user operation hash", func(t *testing.T) {
		hash := crypto.Keccak256Hash([]byte("op"))
		sig, err := v.SignUserOperationHash(ctx, hash)
		require.NoError(t, err)
		assert.Equal(t, v.Owner(), recoverSigner(t, accounts.TextHash(hash.Bytes()), sig))

		dummy, err := v.DummySignature(ctx)
		require.NoError(t, err)
		assert.Len(t, dummy, len(sig))
	})

	t.Run("typed data", func(t *testing.T) {
		td, err := eip712.Parse([]byte(`{
			"types": {
				"EIP712Domain": [{"name": "name", "type": "string"}],
				"Ping": [{"name": "value", "type": "uint256"}]
			},
			"primaryType": "Ping",
			"domain": {"name": "Kernel"},
			"message": {"value": "7"}
		}`))
		require.NoError(t, err)

		sig, err := v.SignTypedData(ctx, td)
		require.NoError(t, err)
		hash, err := eip712.Hash(td)
		require.NoError(t, err)
		assert.Equal(t, v.Owner(), recoverSigner(t, hash.Bytes(), sig))
	})

	t.Run("transaction is unsupported", func(t *testing.T) {
		_, err := v.SignTransaction(ctx, nil)
		assert.ErrorIs(t, err, domain.ErrUnsupportedOperation)
	})
}

func TestECDSAValidator_Identity(t *testing.T) {
	v := newTestECDSA(t, nil)

	assert.Equal(t, "ecdsa", v.Name())
	assert.Equal(t, testValidatorAddr, v.Address())
	assert.Equal(t, testValidatorAddr.Bytes(), v.Identifier())

	data, err := v.EnableData(context.Background(), testAccount)
	require.NoError(t, err)
	assert.Equal(t, v.Owner().Bytes(), data)
}

func TestECDSAValidator_IsEnabled(t *testing.T) {
	chain := &fakeChain{enabled: true}
	v := newTestECDSA(t, chain)

	enabled, err := v.IsEnabled(context.Background(), testAccount, testSelector)
	require.NoError(t, err)
	assert.True(t, enabled)
	assert.Equal(t, testValidatorAddr, chain.lastRef.Address)
	assert.Equal(t, testSelector, chain.lastSelector)

	enabled, err = newTestECDSA(t, nil).IsEnabled(context.Background(), testAccount, testSelector)
	require.NoError(t, err)
	assert.False(t, enabled)
}

func TestECDSAValidator_CheckOwner(t *testing.T) {
	ctx := context.Background()
	owner := newTestECDSA(t, nil).Owner()

	tests := []struct {
		name    string
		chain   *fakeChain
		wantErr error
	}{
		{name: "same owner", chain: &fakeChain{owner: owner}},
		{name: "not installed", chain: &fakeChain{}},
		{name: "other owner", chain: &fakeChain{owner: common.HexToAddress("0x1")}, wantErr: domain.ErrInvalidOwnerMismatch},
		{name: "read failure", chain: &fakeChain{ownerErr: errors.New("rpc down")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := newTestECDSA(t, tt.chain).CheckOwner(ctx, testAccount)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
				var mismatch *domain.OwnerMismatchError
				require.True(t, errors.As(err, &mismatch))
				assert.Equal(t, owner, mismatch.Supplied)
			case tt.chain.ownerErr != nil:
				assert.ErrorContains(t, err, "rpc down")
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func TestToV27(t *testing.T) {
	sig := make([]byte, 65)
	out, err := toV27(sig)
	require.NoError(t, err)
	assert.Equal(t, byte(27), out[64])
	assert.Equal(t, byte(0), sig[64], "input must not be modified")

	sig[64] = 28
	out, err = toV27(sig)
	require.NoError(t, err)
	assert.Equal(t, byte(28), out[64])

	sig[64] = 5
	_, err = toV27(sig)
	assert.Error(t, err)

	_, err = toV27(sig[:64])
	assert.Error(t, err)
}
