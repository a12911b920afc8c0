package config

import (
	"fmt"
	"math/big"
	"sort"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/samber/lo"
	"github.com/trebuchet-org/kernel-sdk/internal/domain"
	"github.com/trebuchet-org/kernel-sdk/internal/domain/config"
)

// ValidatorKind names a validator implementation in kernel.toml
type ValidatorKind string

const (
	ValidatorKindECDSA      ValidatorKind = "ecdsa"
	ValidatorKindWebAuthn   ValidatorKind = "webauthn"
	ValidatorKindPermission ValidatorKind = "permission"
)

// ValidatorRole places a validator in the manager
type ValidatorRole string

const (
	RoleSudo    ValidatorRole = "sudo"
	RoleRegular ValidatorRole = "regular"
)

// Policy kinds accepted in [[validators.<name>.policies]]
const (
	PolicyKindSudo      = "sudo"
	PolicyKindTimestamp = "timestamp"
	PolicyKindRateLimit = "rate-limit"
	PolicyKindCall      = "call"
)

// KeySource locates a secp256k1 key
type KeySource struct {
	PrivateKey string
	Keystore   string
	Password   string
}

// WebAuthnSpec holds either a username to register or a known credential
type WebAuthnSpec struct {
	Username        string
	Origin          string
	AuthenticatorID string
	PubKeyX         string
	PubKeyY         string
}

// HasCredential reports whether the credential is configured and no ceremony is needed
func (s WebAuthnSpec) HasCredential() bool {
	return s.AuthenticatorID != "" && s.PubKeyX != "" && s.PubKeyY != ""
}

// CallPermissionSpec is a parsed call permission
type CallPermissionSpec struct {
	Target     common.Address
	Selector   domain.Selector
	ValueLimit *big.Int
}

// PolicySpec is a parsed permission policy
type PolicySpec struct {
	Kind        string
	Contract    common.Address
	Validity    domain.ValidityData
	Interval    uint64
	Count       uint64
	StartAt     uint64
	Permissions []CallPermissionSpec
}

// PermissionSpec is the session key configuration of a permission validator
type PermissionSpec struct {
	SignerContract common.Address
	Policies       []PolicySpec
}

// ValidatorSpec is a fully parsed validator entry, ready to be built by the app layer
type ValidatorSpec struct {
	Name    string
	Kind    ValidatorKind
	Role    ValidatorRole
	Address common.Address
	Type    domain.ValidatorType
	SubKey  uint16

	Key        KeySource
	WebAuthn   *WebAuthnSpec
	Permission *PermissionSpec
}

// ResolvedValidators is the sudo/regular pair named in kernel.toml
type ResolvedValidators struct {
	Sudo    *ValidatorSpec
	Regular *ValidatorSpec
}

// ResolveValidators parses and checks every [validators.*] table
func ResolveValidators(cfg *config.KernelConfig) (*ResolvedValidators, error) {
	if cfg == nil || len(cfg.Validators) == 0 {
		return nil, fmt.Errorf("%w: no validators configured", domain.ErrConfiguration)
	}

	names := lo.Keys(cfg.Validators)
	sort.Strings(names)

	resolved := &ResolvedValidators{}
	for _, name := range names {
		spec, err := resolveValidator(name, cfg.Validators[name])
		if err != nil {
			return nil, err
		}

		slot := &resolved.Regular
		if spec.Role == RoleSudo {
			slot = &resolved.Sudo
		}
		if *slot != nil {
			return nil, fmt.Errorf("%w: validators %q and %q both have role %s",
				domain.ErrConfiguration, (*slot).Name, name, spec.Role)
		}
		*slot = spec
	}

	return resolved, nil
}

func resolveValidator(name string, vc config.ValidatorConfig) (*ValidatorSpec, error) {
	fail := func(format string, args ...any) error {
		return fmt.Errorf("%w: validator %q: %s", domain.ErrConfiguration, name, fmt.Sprintf(format, args...))
	}

	spec := &ValidatorSpec{
		Name:   name,
		Kind:   ValidatorKind(strings.ToLower(vc.Type)),
		Role:   ValidatorRole(strings.ToLower(vc.Role)),
		SubKey: vc.SubKey,
	}

	switch spec.Role {
	case RoleSudo:
		spec.Type = domain.ValidatorTypeRoot
	case RoleRegular:
		spec.Type = domain.ValidatorTypeSecondary
	default:
		return nil, fail("unknown role %q (want sudo or regular)", vc.Role)
	}

	address, err := parseAddress(vc.Address)
	if err != nil {
		return nil, fail("address: %v", err)
	}
	spec.Address = address

	switch spec.Kind {
	case ValidatorKindECDSA:
		if spec.Key, err = resolveKey(vc); err != nil {
			return nil, fail("%v", err)
		}

	case ValidatorKindWebAuthn:
		if vc.Origin == "" {
			return nil, fail("origin is required for webauthn validators")
		}
		wa := &WebAuthnSpec{
			Username:        vc.Username,
			Origin:          vc.Origin,
			AuthenticatorID: vc.AuthenticatorID,
			PubKeyX:         vc.PubKeyX,
			PubKeyY:         vc.PubKeyY,
		}
		spec.WebAuthn = wa

	case ValidatorKindPermission:
		if spec.Role == RoleSudo {
			return nil, fail("permission validators can only be regular")
		}
		spec.Type = domain.ValidatorTypePermission
		if spec.Key, err = resolveKey(vc); err != nil {
			return nil, fail("%v", err)
		}
		perm, err := resolvePermission(vc)
		if err != nil {
			return nil, fail("%v", err)
		}
		spec.Permission = perm

	default:
		return nil, fail("unknown type %q (want ecdsa, webauthn or permission)", vc.Type)
	}

	return spec, nil
}

func resolveKey(vc config.ValidatorConfig) (KeySource, error) {
	key := KeySource{PrivateKey: vc.PrivateKey, Keystore: vc.Keystore, Password: vc.Password}
	switch {
	case key.PrivateKey != "" && key.Keystore != "":
		return key, fmt.Errorf("set only one of private_key and keystore")
	case key.PrivateKey == "" && key.Keystore == "":
		return key, fmt.Errorf("private_key or keystore is required")
	}
	return key, nil
}

func resolvePermission(vc config.ValidatorConfig) (*PermissionSpec, error) {
	signerContract, err := parseAddress(vc.SignerContract)
	if err != nil {
		return nil, fmt.Errorf("signer_contract: %v", err)
	}
	if len(vc.Policies) == 0 {
		return nil, fmt.Errorf("at least one policy is required")
	}

	perm := &PermissionSpec{SignerContract: signerContract}
	for i, pc := range vc.Policies {
		policy, err := resolvePolicy(pc)
		if err != nil {
			return nil, fmt.Errorf("policy %d: %v", i, err)
		}
		perm.Policies = append(perm.Policies, policy)
	}
	return perm, nil
}

func resolvePolicy(pc config.PolicyConfig) (PolicySpec, error) {
	contract, err := parseAddress(pc.Contract)
	if err != nil {
		return PolicySpec{}, fmt.Errorf("contract: %v", err)
	}

	policy := PolicySpec{Kind: strings.ToLower(pc.Type), Contract: contract}
	switch policy.Kind {
	case PolicyKindSudo:
	case PolicyKindTimestamp:
		policy.Validity = domain.ValidityData{ValidAfter: pc.ValidAfter, ValidUntil: pc.ValidUntil}
		if err := policy.Validity.Validate(); err != nil {
			return PolicySpec{}, err
		}
	case PolicyKindRateLimit:
		if pc.Count == 0 {
			return PolicySpec{}, fmt.Errorf("rate-limit count must be positive")
		}
		policy.Interval, policy.Count, policy.StartAt = pc.Interval, pc.Count, pc.StartAt
	case PolicyKindCall:
		if len(pc.Permissions) == 0 {
			return PolicySpec{}, fmt.Errorf("call policy needs permissions")
		}
		for _, cp := range pc.Permissions {
			target, err := parseAddress(cp.Target)
			if err != nil {
				return PolicySpec{}, fmt.Errorf("permission target: %v", err)
			}
			selector, err := domain.HexToSelector(cp.Selector)
			if err != nil {
				return PolicySpec{}, fmt.Errorf("permission selector: %v", err)
			}
			limit := new(big.Int)
			if cp.ValueLimit != "" {
				var ok bool
				if limit, ok = math.ParseBig256(cp.ValueLimit); !ok {
					return PolicySpec{}, fmt.Errorf("invalid value_limit %q", cp.ValueLimit)
				}
			}
			policy.Permissions = append(policy.Permissions, CallPermissionSpec{Target: target, Selector: selector, ValueLimit: limit})
		}
	default:
		return PolicySpec{}, fmt.Errorf("unknown policy type %q", pc.Type)
	}
	return policy, nil
}

// ManagerSettings are the account-level settings of kernel.toml
type ManagerSettings struct {
	Account           common.Address
	EntryPointVersion domain.EntryPointVersion
	EntryPoint        common.Address
	Action            domain.Action
	Validity          domain.ValidityData
	EnableSignature   []byte

	RPCURL  string
	ChainID uint64

	RelayURL      string
	RelayTimeout  time.Duration
	Authenticator []string
}

// ResolveManagerSettings parses the account-level settings, applying runtime overrides
func ResolveManagerSettings(rc *config.RuntimeConfig) (*ManagerSettings, error) {
	if rc == nil || rc.Kernel == nil {
		return nil, fmt.Errorf("%w: %s not loaded", domain.ErrConfiguration, KernelFileName)
	}
	kc := rc.Kernel

	account, err := parseAddress(kc.Account)
	if err != nil {
		return nil, fmt.Errorf("%w: account: %v", domain.ErrConfiguration, err)
	}

	version := domain.EntryPointV07
	if kc.EntryPointVersion != "" {
		if version, err = domain.ParseEntryPointVersion(kc.EntryPointVersion); err != nil {
			return nil, err
		}
	}

	s := &ManagerSettings{
		Account:           account,
		EntryPointVersion: version,
		EntryPoint:        version.DefaultAddress(),
		Validity:          domain.ValidityData{ValidAfter: kc.Validity.ValidAfter, ValidUntil: kc.Validity.ValidUntil},
		RPCURL:            lo.CoalesceOrEmpty(rc.RPCURL, kc.RPCURL),
		ChainID:           lo.CoalesceOrEmpty(rc.ChainID, kc.ChainID),
		RelayURL:          kc.Relay.URL,
		Authenticator:     kc.Relay.Authenticator,
	}
	if err := s.Validity.Validate(); err != nil {
		return nil, err
	}

	if kc.EntryPoint != "" {
		if s.EntryPoint, err = parseAddress(kc.EntryPoint); err != nil {
			return nil, fmt.Errorf("%w: entry_point: %v", domain.ErrConfiguration, err)
		}
	}

	if kc.Action.Executor != "" || kc.Action.Selector != "" {
		executor := common.Address{}
		if kc.Action.Executor != "" {
			if executor, err = parseAddress(kc.Action.Executor); err != nil {
				return nil, fmt.Errorf("%w: action executor: %v", domain.ErrConfiguration, err)
			}
		}
		selector, err := domain.HexToSelector(kc.Action.Selector)
		if err != nil {
			return nil, fmt.Errorf("%w: action selector: %v", domain.ErrConfiguration, err)
		}
		s.Action = domain.Action{Executor: executor, Selector: selector}
	}

	if kc.EnableSignature != "" {
		if s.EnableSignature, err = hexutil.Decode(kc.EnableSignature); err != nil {
			return nil, fmt.Errorf("%w: enable_signature: %v", domain.ErrConfiguration, err)
		}
	}

	if kc.Relay.Timeout != "" {
		if s.RelayTimeout, err = time.ParseDuration(kc.Relay.Timeout); err != nil {
			return nil, fmt.Errorf("%w: relay timeout: %v", domain.ErrConfiguration, err)
		}
	}

	return s, nil
}

func parseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid address %q", s)
	}
	return common.HexToAddress(s), nil
}
