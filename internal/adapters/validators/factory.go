package validators

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/samber/lo"
	"github.com/trebuchet-org/kernel-sdk/internal/adapters/signer"
	"github.com/trebuchet-org/kernel-sdk/internal/config"
	"github.com/trebuchet-org/kernel-sdk/internal/domain"
	"github.com/trebuchet-org/kernel-sdk/internal/usecase"
)

// Dependencies are the collaborators a validator may need; nil fields are allowed
// as long as the configured validator does not use them
type Dependencies struct {
	Chain         usecase.ChainReader
	Relay         usecase.PasskeyRelay
	Authenticator usecase.PasskeyAuthenticator
	// BaseDir resolves relative keystore paths
	BaseDir string
	Now     func() time.Time
}

// Build constructs the validator described by spec
func Build(ctx context.Context, spec *config.ValidatorSpec, deps Dependencies) (usecase.Validator, error) {
	switch spec.Kind {
	case config.ValidatorKindECDSA:
		s, err := loadSigner(spec.Key, deps.BaseDir)
		if err != nil {
			return nil, fmt.Errorf("validator %q: %w", spec.Name, err)
		}
		return NewECDSAValidator(ECDSAConfig{Address: spec.Address, Type: spec.Type, SubKey: spec.SubKey}, s, deps.Chain)

	case config.ValidatorKindWebAuthn:
		return buildWebAuthn(ctx, spec, deps)

	case config.ValidatorKindPermission:
		s, err := loadSigner(spec.Key, deps.BaseDir)
		if err != nil {
			return nil, fmt.Errorf("validator %q: %w", spec.Name, err)
		}
		return NewPermissionValidator(PermissionConfig{
			Address:        spec.Address,
			SignerContract: spec.Permission.SignerContract,
			Policies:       lo.Map(spec.Permission.Policies, func(p config.PolicySpec, _ int) Policy { return toPolicy(p) }),
			SubKey:         spec.SubKey,
			Now:            deps.Now,
		}, s, deps.Chain)

	default:
		return nil, fmt.Errorf("%w: unknown validator kind %q", domain.ErrConfiguration, spec.Kind)
	}
}

func buildWebAuthn(ctx context.Context, spec *config.ValidatorSpec, deps Dependencies) (usecase.Validator, error) {
	if deps.Relay == nil || deps.Authenticator == nil {
		return nil, fmt.Errorf("%w: validator %q needs [relay] url and authenticator", domain.ErrConfiguration, spec.Name)
	}
	cfg := WebAuthnConfig{Address: spec.Address, Type: spec.Type, SubKey: spec.SubKey, Origin: spec.WebAuthn.Origin}

	switch {
	case spec.WebAuthn.HasCredential():
		return NewWebAuthnValidator(cfg, deps.Relay, deps.Authenticator, deps.Chain, usecase.PasskeyCredential{
			AuthenticatorID: spec.WebAuthn.AuthenticatorID,
			PubKeyX:         spec.WebAuthn.PubKeyX,
			PubKeyY:         spec.WebAuthn.PubKeyY,
		})
	case spec.WebAuthn.Username != "":
		return RegisterWebAuthnValidator(ctx, cfg, deps.Relay, deps.Authenticator, deps.Chain, spec.WebAuthn.Username)
	default:
		return LoginWebAuthnValidator(ctx, cfg, deps.Relay, deps.Authenticator, deps.Chain)
	}
}

func toPolicy(p config.PolicySpec) Policy {
	switch p.Kind {
	case config.PolicyKindTimestamp:
		return TimestampPolicy{Contract: p.Contract, Validity: p.Validity}
	case config.PolicyKindRateLimit:
		return RateLimitPolicy{Contract: p.Contract, Interval: p.Interval, Count: p.Count, StartAt: p.StartAt}
	case config.PolicyKindCall:
		return CallPolicy{
			Contract: p.Contract,
			Permissions: lo.Map(p.Permissions, func(cp config.CallPermissionSpec, _ int) CallPermission {
				return CallPermission{Target: cp.Target, Selector: cp.Selector, ValueLimit: cp.ValueLimit}
			}),
		}
	default:
		return SudoPolicy{Contract: p.Contract}
	}
}

func loadSigner(key config.KeySource, baseDir string) (usecase.Signer, error) {
	if key.PrivateKey != "" {
		return signer.NewLocalSignerFromHex(key.PrivateKey)
	}
	path := key.Keystore
	if !filepath.IsAbs(path) && baseDir != "" {
		path = filepath.Join(baseDir, path)
	}
	return signer.NewKeystoreSigner(path, key.Password)
}
