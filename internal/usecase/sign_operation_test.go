package usecase_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/kernel-sdk/internal/domain"
	"github.com/trebuchet-org/kernel-sdk/internal/usecase"
)

func TestSignOperation_SudoV07(t *testing.T) {
	sudo := newFakeValidator("sudo", domain.ValidatorTypeRoot, 65)
	chain := newChain()
	manager := newManager(t, usecase.PluginManagerOptions{Sudo: sudo, Chain: chain})

	op := newTestOp()
	uc := usecase.NewSignOperation(manager, chain)
	result, err := uc.Run(context.Background(), usecase.SignOperationParams{
		Operation:  op,
		EntryPoint: domain.EntryPointAddressV07,
	})
	require.NoError(t, err)

	wantKey := domain.NewNonceKey(domain.ValidatorModeDefault, domain.ValidatorTypeRoot, sudo.Identifier(), 0)
	keyed := *op
	keyed.Nonce = (*hexutil.Big)(wantKey.Nonce(0))
	wantHash, err := keyed.Hash(domain.EntryPointV07, domain.EntryPointAddressV07, big.NewInt(137))
	require.NoError(t, err)

	assert.Equal(t, wantHash, result.Hash)
	assert.Equal(t, uint64(137), result.ChainID)
	assert.Equal(t, 1, result.Chains)
	assert.Equal(t, sudo.sign(wantHash.Bytes()), []byte(result.Signature))
	assert.Equal(t, []byte(result.Signature), []byte(result.Operation.Signature))
	assert.Empty(t, op.Signature, "input operation is not mutated")
	assert.Equal(t, int64(0), op.Nonce.ToInt().Int64())

	assert.Equal(t, wantKey.Hex(), result.NonceKey)
	assert.Equal(t, wantKey.Nonce(0), result.Operation.Nonce.ToInt())
}

func TestSignOperation_EnableV07(t *testing.T) {
	sudo := newFakeValidator("sudo", domain.ValidatorTypeRoot, 65)
	regular := newFakeValidator("regular", domain.ValidatorTypeSecondary, 65)
	chain := newChain()
	chain.On("IsPluginInitialized", mock.Anything, testAccount, mock.Anything).Return(false, nil)
	manager := newManager(t, usecase.PluginManagerOptions{Sudo: sudo, Regular: regular, Chain: chain})
	uc := usecase.NewSignOperation(manager, chain)

	op := newTestOp()
	op.Nonce = (*hexutil.Big)(big.NewInt(5))
	result, err := uc.Run(context.Background(), usecase.SignOperationParams{
		Operation:  op,
		EntryPoint: domain.EntryPointAddressV07,
	})
	require.NoError(t, err)

	key, seq, err := domain.SplitNonce(result.Operation.Nonce.ToInt())
	require.NoError(t, err)
	assert.Equal(t, result.NonceKey, key.Hex(), "signed nonce carries the derived key")
	assert.Equal(t, uint64(5), seq)
	assert.Equal(t, domain.ValidatorModeEnable, key.Mode())
	assert.Equal(t, domain.ValidatorTypeSecondary, key.ValidatorType())
	assert.Equal(t, domain.PadIdentifier(regular.Identifier()), key.Identifier())

	signed := *result.Operation
	signed.Signature = nil
	wantHash, err := signed.Hash(domain.EntryPointV07, domain.EntryPointAddressV07, big.NewInt(137))
	require.NoError(t, err)
	assert.Equal(t, wantHash, result.Hash, "hash commits to the keyed nonce")

	values, err := v07EnableArgs().Unpack(result.Signature)
	require.NoError(t, err, "ENABLE envelope")
	require.Len(t, values, 5)
	assert.Equal(t, sudo.sign([]byte("Enable")), values[0].([]byte))
	assert.Equal(t, regular.address, values[3].(common.Address))
	assert.Equal(t, regular.sign(wantHash.Bytes()), values[4].([]byte))

	dummy, err := uc.Run(context.Background(), usecase.SignOperationParams{
		Operation:  op,
		EntryPoint: domain.EntryPointAddressV07,
		Dummy:      true,
	})
	require.NoError(t, err)
	assert.Equal(t, result.Operation.Nonce, dummy.Operation.Nonce)
	assert.Len(t, dummy.Signature, len(result.Signature))
}

func TestSignOperation_V06KeepsNonce(t *testing.T) {
	sudo := newFakeValidator("sudo", domain.ValidatorTypeRoot, 65)
	manager := newManager(t, usecase.PluginManagerOptions{Sudo: sudo, EntryPointVersion: domain.EntryPointV06})
	uc := usecase.NewSignOperation(manager, nil)

	op := newTestOp()
	op.Nonce = (*hexutil.Big)(big.NewInt(11))
	result, err := uc.Run(context.Background(), usecase.SignOperationParams{
		Operation:  op,
		EntryPoint: domain.EntryPointAddressV06,
		ChainID:    1,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(11), result.Operation.Nonce.ToInt().Int64())
	assert.Equal(t, domain.NonceKey{}.Hex(), result.NonceKey)
}

func TestSignOperation_DummyMatchesLength(t *testing.T) {
	sudo := newFakeValidator("sudo", domain.ValidatorTypeRoot, 65)
	manager := newManager(t, usecase.PluginManagerOptions{Sudo: sudo, EntryPointVersion: domain.EntryPointV06})
	uc := usecase.NewSignOperation(manager, nil)

	for _, chains := range []int{1, 3, 5} {
		params := usecase.SignOperationParams{
			Operation:  newTestOp(),
			EntryPoint: domain.EntryPointAddressV06,
			ChainID:    10,
			Chains:     chains,
		}
		signed, err := uc.Run(context.Background(), params)
		require.NoError(t, err)

		params.Dummy = true
		dummy, err := uc.Run(context.Background(), params)
		require.NoError(t, err)

		assert.Len(t, dummy.Signature, len(signed.Signature), "chains=%d", chains)
		assert.True(t, dummy.Dummy)
	}
}

func TestSignOperation_MultiChainCarriesRoot(t *testing.T) {
	sudo := newFakeValidator("sudo", domain.ValidatorTypeRoot, 65)
	manager := newManager(t, usecase.PluginManagerOptions{Sudo: sudo})
	uc := usecase.NewSignOperation(manager, nil)

	result, err := uc.Run(context.Background(), usecase.SignOperationParams{
		Operation:  newTestOp(),
		EntryPoint: domain.EntryPointAddressV07,
		ChainID:    1,
		Chains:     4,
	})
	require.NoError(t, err)

	commitment, err := usecase.BuildMultiChainProof(result.Hash, 4)
	require.NoError(t, err)
	assert.Equal(t, sudo.sign(commitment.Root.Bytes()), []byte(result.Signature[:65]))
	assert.Equal(t, commitment.Root.Bytes(), []byte(result.Signature[65:97]))
}

func TestSignOperation_Errors(t *testing.T) {
	sudo := newFakeValidator("sudo", domain.ValidatorTypeRoot, 65)
	manager := newManager(t, usecase.PluginManagerOptions{Sudo: sudo})
	uc := usecase.NewSignOperation(manager, nil)

	_, err := uc.Run(context.Background(), usecase.SignOperationParams{})
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	_, err = uc.Run(context.Background(), usecase.SignOperationParams{Operation: newTestOp()})
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}
