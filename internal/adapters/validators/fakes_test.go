package validators

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/kernel-sdk/internal/domain"
)

// fakeChain answers enablement and owner queries from fields
type fakeChain struct {
	enabled      bool
	lastRef      domain.ValidatorRef
	lastSelector domain.Selector
	owner        common.Address
	ownerErr     error
}

func (c *fakeChain) ChainID(context.Context) (uint64, error) { return 1, nil }

func (c *fakeChain) KernelVersion(context.Context, common.Address) (string, error) {
	return "0.3.1", nil
}

func (c *fakeChain) ValidatorNonce(context.Context, common.Address) (uint32, error) { return 1, nil }

func (c *fakeChain) IsValidatorEnabled(_ context.Context, _ common.Address, validator domain.ValidatorRef, selector domain.Selector) (bool, error) {
	c.lastRef = validator
	c.lastSelector = selector
	return c.enabled, nil
}

func (c *fakeChain) IsPluginInitialized(context.Context, common.Address, domain.ValidatorRef) (bool, error) {
	return false, nil
}

func (c *fakeChain) IsDeployed(context.Context, common.Address) (bool, error) { return true, nil }

func (c *fakeChain) ValidatorOwner(context.Context, common.Address, common.Address) (common.Address, error) {
	return c.owner, c.ownerErr
}
