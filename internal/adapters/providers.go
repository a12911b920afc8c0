package adapters

import (
	"context"
	"log/slog"

	"github.com/google/wire"
	"github.com/trebuchet-org/kernel-sdk/internal/adapters/blockchain"
	"github.com/trebuchet-org/kernel-sdk/internal/adapters/passkey"
	"github.com/trebuchet-org/kernel-sdk/internal/adapters/validators"
	"github.com/trebuchet-org/kernel-sdk/internal/config"
	domainconfig "github.com/trebuchet-org/kernel-sdk/internal/domain/config"
	"github.com/trebuchet-org/kernel-sdk/internal/usecase"
)

// ValidatorPair holds the built sudo and regular validators; either may be nil
type ValidatorPair struct {
	Sudo    usecase.Validator
	Regular usecase.Validator
}

// ProvideManagerSettings resolves account-level settings from kernel.toml
func ProvideManagerSettings(cfg *domainconfig.RuntimeConfig) (*config.ManagerSettings, error) {
	return config.ResolveManagerSettings(cfg)
}

// ProvideChainReader dials the configured RPC; it returns nil without an RPC URL
func ProvideChainReader(ctx context.Context, s *config.ManagerSettings) (usecase.ChainReader, error) {
	if s.RPCURL == "" {
		return nil, nil
	}
	reader, err := blockchain.Dial(ctx, s.RPCURL, s.ChainID, s.EntryPointVersion)
	if err != nil {
		return nil, err
	}
	return reader, nil
}

// ProvidePasskeyRelay returns nil when no relay is configured
func ProvidePasskeyRelay(s *config.ManagerSettings) (usecase.PasskeyRelay, error) {
	if s.RelayURL == "" {
		return nil, nil
	}
	relay, err := passkey.NewRelayAdapter(s.RelayURL, s.RelayTimeout)
	if err != nil {
		return nil, err
	}
	return relay, nil
}

// ProvidePasskeyAuthenticator returns nil when no authenticator helper is configured
func ProvidePasskeyAuthenticator(s *config.ManagerSettings) (usecase.PasskeyAuthenticator, error) {
	if len(s.Authenticator) == 0 {
		return nil, nil
	}
	auth, err := passkey.NewCommandAuthenticator(s.Authenticator[0], s.Authenticator[1:]...)
	if err != nil {
		return nil, err
	}
	return auth, nil
}

// ProvideValidators builds the sudo and regular validators named in kernel.toml
func ProvideValidators(
	ctx context.Context,
	cfg *domainconfig.RuntimeConfig,
	chain usecase.ChainReader,
	relay usecase.PasskeyRelay,
	authenticator usecase.PasskeyAuthenticator,
) (*ValidatorPair, error) {
	resolved, err := config.ResolveValidators(cfg.Kernel)
	if err != nil {
		return nil, err
	}

	deps := validators.Dependencies{
		Chain:         chain,
		Relay:         relay,
		Authenticator: authenticator,
		BaseDir:       cfg.ProjectRoot,
	}

	pair := &ValidatorPair{}
	if resolved.Sudo != nil {
		if pair.Sudo, err = validators.Build(ctx, resolved.Sudo, deps); err != nil {
			return nil, err
		}
	}
	if resolved.Regular != nil {
		if pair.Regular, err = validators.Build(ctx, resolved.Regular, deps); err != nil {
			return nil, err
		}
	}
	return pair, nil
}

// ProvidePluginManager composes the validators into a KernelPluginManager
func ProvidePluginManager(
	s *config.ManagerSettings,
	pair *ValidatorPair,
	chain usecase.ChainReader,
	log *slog.Logger,
) (*usecase.KernelPluginManager, error) {
	return usecase.NewKernelPluginManager(usecase.PluginManagerOptions{
		Sudo:              pair.Sudo,
		Regular:           pair.Regular,
		Action:            s.Action,
		Validity:          s.Validity,
		EntryPointVersion: s.EntryPointVersion,
		EnableSignature:   s.EnableSignature,
		Chain:             chain,
		Logger:            log,
	})
}

// ChainSet provides RPC and passkey transports
var ChainSet = wire.NewSet(
	ProvideManagerSettings,
	ProvideChainReader,
	ProvidePasskeyRelay,
	ProvidePasskeyAuthenticator,
)

// ValidatorSet provides validators and the plugin manager
var ValidatorSet = wire.NewSet(
	ProvideValidators,
	ProvidePluginManager,
)

// AllAdapters combines all adapter sets
var AllAdapters = wire.NewSet(
	ChainSet,
	ValidatorSet,
)
