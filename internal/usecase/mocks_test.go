package usecase_test

import (
	"context"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/stretchr/testify/mock"
	"github.com/trebuchet-org/kernel-sdk/internal/domain"
	"github.com/trebuchet-org/kernel-sdk/internal/usecase"
)

// MockChainReader is a mock implementation of ChainReader
type MockChainReader struct {
	mock.Mock
}

func (m *MockChainReader) ChainID(ctx context.Context) (uint64, error) {
	args := m.Called(ctx)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *MockChainReader) KernelVersion(ctx context.Context, account common.Address) (string, error) {
	args := m.Called(ctx, account)
	return args.String(0), args.Error(1)
}

func (m *MockChainReader) ValidatorNonce(ctx context.Context, account common.Address) (uint32, error) {
	args := m.Called(ctx, account)
	return args.Get(0).(uint32), args.Error(1)
}

func (m *MockChainReader) IsValidatorEnabled(ctx context.Context, account common.Address, validator domain.ValidatorRef, selector domain.Selector) (bool, error) {
	args := m.Called(ctx, account, validator, selector)
	return args.Bool(0), args.Error(1)
}

func (m *MockChainReader) IsPluginInitialized(ctx context.Context, account common.Address, validator domain.ValidatorRef) (bool, error) {
	args := m.Called(ctx, account, validator)
	return args.Bool(0), args.Error(1)
}

func (m *MockChainReader) IsDeployed(ctx context.Context, account common.Address) (bool, error) {
	args := m.Called(ctx, account)
	return args.Bool(0), args.Error(1)
}

func (m *MockChainReader) ValidatorOwner(ctx context.Context, validator common.Address, account common.Address) (common.Address, error) {
	args := m.Called(ctx, validator, account)
	return args.Get(0).(common.Address), args.Error(1)
}

// fakeValidator signs deterministically with fixed-length output
type fakeValidator struct {
	name        string
	address     common.Address
	vType       domain.ValidatorType
	identifier  []byte
	subKey      uint16
	sigLen      int
	enabled     bool
	enabledFor  map[domain.Selector]bool
	enabledErr  error
	ownerErr    error
	typedSigned atomic.Int32
	lastTyped   atomic.Pointer[apitypes.TypedData]
}

func newFakeValidator(name string, vType domain.ValidatorType, sigLen int) *fakeValidator {
	addr := common.BytesToAddress(crypto.Keccak256([]byte(name))[:20])
	return &fakeValidator{
		name:       name,
		address:    addr,
		vType:      vType,
		identifier: addr.Bytes(),
		sigLen:     sigLen,
	}
}

func (v *fakeValidator) sign(payload []byte) []byte {
	out := make([]byte, v.sigLen)
	digest := crypto.Keccak256([]byte(v.name), payload)
	for i := range out {
		out[i] = digest[i%len(digest)]
	}
	return out
}

func (v *fakeValidator) Name() string { return v.name }
func (v *fakeValidator) Address() common.Address { return v.address }
func (v *fakeValidator) Type() domain.ValidatorType { return v.vType }
func (v *fakeValidator) Identifier() []byte { return v.identifier }
func (v *fakeValidator) NonceSubKey() uint16 { return v.subKey }

func (v *fakeValidator) SignMessage(_ context.Context, message []byte) ([]byte, error) {
	return v.sign(message), nil
}

func (v *fakeValidator) SignTypedData(_ context.Context, typedData apitypes.TypedData) ([]byte, error) {
	v.typedSigned.Add(1)
	v.lastTyped.Store(&typedData)
	return v.sign([]byte(typedData.PrimaryType)), nil
}

func (v *fakeValidator) SignUserOperationHash(_ context.Context, hash common.Hash) ([]byte, error) {
	return v.sign(hash.Bytes()), nil
}

func (v *fakeValidator) SignTransaction(context.Context, *types.Transaction) ([]byte, error) {
	return nil, domain.ErrUnsupportedOperation
}

func (v *fakeValidator) DummySignature(context.Context) ([]byte, error) {
	out := make([]byte, v.sigLen)
	for i := range out {
		out[i] = 0xff
	}
	return out, nil
}

func (v *fakeValidator) EnableData(context.Context, common.Address) ([]byte, error) {
	return v.address.Bytes(), nil
}

func (v *fakeValidator) IsEnabled(_ context.Context, _ common.Address, selector domain.Selector) (bool, error) {
	if v.enabledFor != nil {
		return v.enabledFor[selector], v.enabledErr
	}
	return v.enabled, v.enabledErr
}

// ownedFakeValidator adds an owner check
type ownedFakeValidator struct {
	*fakeValidator
}

func (v ownedFakeValidator) CheckOwner(context.Context, common.Address) error {
	return v.ownerErr
}

var (
	_ usecase.Validator    = (*fakeValidator)(nil)
	_ usecase.OwnerChecker = ownedFakeValidator{}
	_ usecase.ChainReader  = (*MockChainReader)(nil)
)
