package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/trebuchet-org/kernel-sdk/internal/domain"
	"golang.org/x/sync/singleflight"
)

// PluginManagerOptions configures a KernelPluginManager
type PluginManagerOptions struct {
	Sudo              Validator
	Regular           Validator
	Action            domain.Action
	Validity          domain.ValidityData
	EntryPointVersion domain.EntryPointVersion
	// EnableSignature, when set, is used instead of asking the sudo validator to sign
	EnableSignature []byte
	Chain           ChainReader
	Logger          *slog.Logger
}

// KernelPluginManager composes a sudo and a regular validator into one signing authority
// for a Kernel account. It selects the signature mode per operation, derives the nonce key
// and assembles the version-specific signature envelope.
type KernelPluginManager struct {
	sudo     Validator
	regular  Validator
	action   domain.Action
	validity domain.ValidityData
	version  domain.EntryPointVersion
	codec    versionCodec
	chain    ChainReader
	log      *slog.Logger

	presuppliedEnableSig []byte

	mu           sync.Mutex
	enableSigs   map[common.Address][]byte
	enableFlight singleflight.Group
}

// NewKernelPluginManager validates the composition and returns a manager
func NewKernelPluginManager(opts PluginManagerOptions) (*KernelPluginManager, error) {
	if opts.Sudo == nil && opts.Regular == nil {
		return nil, fmt.Errorf("%w: at least one of sudo or regular validator is required", domain.ErrConfiguration)
	}
	if opts.EntryPointVersion == "" {
		opts.EntryPointVersion = domain.EntryPointV07
	}
	codec, err := codecFor(opts.EntryPointVersion)
	if err != nil {
		return nil, err
	}
	if opts.Regular != nil && opts.Action.IsZero() {
		return nil, domain.ErrMissingAction
	}
	if err := opts.Validity.Validate(); err != nil {
		return nil, err
	}

	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	return &KernelPluginManager{
		sudo:                 opts.Sudo,
		regular:              opts.Regular,
		action:               opts.Action,
		validity:             opts.Validity,
		version:              opts.EntryPointVersion,
		codec:                codec,
		chain:                opts.Chain,
		log:                  log.With("component", "plugin-manager", "entryPoint", string(opts.EntryPointVersion)),
		presuppliedEnableSig: cloneBytes(opts.EnableSignature),
		enableSigs:           make(map[common.Address][]byte),
	}, nil
}

// EntryPointVersion returns the wire format the manager encodes for
func (m *KernelPluginManager) EntryPointVersion() domain.EntryPointVersion {
	return m.version
}

// Action returns the execution path the regular validator is scoped to
func (m *KernelPluginManager) Action() domain.Action {
	return m.action
}

// HasRegular reports whether a regular validator is configured
func (m *KernelPluginManager) HasRegular() bool {
	return m.regular != nil
}

// SignOption adjusts a single signing call
type SignOption func(*signConfig)

type signConfig struct {
	forceSudo bool
}

// WithSudo forces root authority even when a regular validator is configured
func WithSudo() SignOption {
	return func(c *signConfig) { c.forceSudo = true }
}

func applySignOptions(opts []SignOption) signConfig {
	var cfg signConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// signingPlan is the resolved mode and active validator for one operation
type signingPlan struct {
	mode   domain.SignatureMode
	active Validator
	root   bool
}

// plan checks enablement against the manager's action selector, so the nonce key and the
// envelope of one operation always resolve to the same mode
func (m *KernelPluginManager) plan(ctx context.Context, account common.Address, cfg signConfig) (*signingPlan, error) {
	selector := m.action.Selector
	if m.regular == nil || cfg.forceSudo {
		if m.sudo == nil {
			return nil, domain.ErrMissingSudoValidator
		}
		return &signingPlan{mode: domain.SignatureModeSudo, active: m.sudo, root: true}, nil
	}

	enabled, err := m.codec.RegularEnabled(ctx, m.chain, m.regular, account, selector)
	if err != nil {
		return nil, &domain.ValidatorError{
			Validator: m.regular.Name(),
			Account:   account,
			Step:      "check enablement",
			Err:       err,
		}
	}

	p := &signingPlan{mode: domain.SignatureModePlugin, active: m.regular}
	if !enabled {
		p.mode = domain.SignatureModeEnable
	}
	m.log.Debug("selected signature mode",
		"account", account.Hex(),
		"selector", selector.Hex(),
		"mode", p.mode.String(),
		"validator", p.active.Name(),
	)
	return p, nil
}

// wrap places an already produced signature into the plan's envelope
func (m *KernelPluginManager) wrap(ctx context.Context, account common.Address, p *signingPlan, signature []byte, dummy bool) ([]byte, error) {
	params := envelopeParams{
		Account:   account,
		Mode:      p.mode,
		Action:    m.action,
		Validity:  m.validity,
		Signature: signature,
	}

	if p.mode == domain.SignatureModeEnable {
		params.Regular = refOf(m.regular)
		var err error
		if dummy {
			params.EnableSignature, err = m.placeholderEnableSignature(ctx)
		} else {
			params.EnableSignature, err = m.PluginEnableSignature(ctx, account)
		}
		if err != nil {
			return nil, err
		}
	}

	return m.codec.EncodeEnvelope(params)
}

func (m *KernelPluginManager) placeholderEnableSignature(ctx context.Context) ([]byte, error) {
	if len(m.presuppliedEnableSig) > 0 {
		return cloneBytes(m.presuppliedEnableSig), nil
	}
	if m.sudo == nil {
		return nil, domain.ErrMissingSudoValidator
	}
	sig, err := m.sudo.DummySignature(ctx)
	if err != nil {
		return nil, &domain.ValidatorError{Validator: m.sudo.Name(), Step: "dummy enable signature", Err: err}
	}
	return sig, nil
}

// SignUserOperation signs the user operation hash with the active validator and
// returns the complete signature envelope for op.Sender
func (m *KernelPluginManager) SignUserOperation(ctx context.Context, op *domain.UserOperation, opHash common.Hash, opts ...SignOption) ([]byte, error) {
	p, err := m.plan(ctx, op.Sender, applySignOptions(opts))
	if err != nil {
		return nil, err
	}

	sig, err := p.active.SignUserOperationHash(ctx, opHash)
	if err != nil {
		return nil, &domain.ValidatorError{
			Validator: p.active.Name(),
			Account:   op.Sender,
			Step:      "sign user operation",
			Err:       err,
		}
	}

	return m.wrap(ctx, op.Sender, p, sig, false)
}

// DummySignature returns an envelope with the same shape and length as SignUserOperation
// would produce for the same operation
func (m *KernelPluginManager) DummySignature(ctx context.Context, op *domain.UserOperation, opts ...SignOption) ([]byte, error) {
	p, err := m.plan(ctx, op.Sender, applySignOptions(opts))
	if err != nil {
		return nil, err
	}

	sig, err := p.active.DummySignature(ctx)
	if err != nil {
		return nil, &domain.ValidatorError{
			Validator: p.active.Name(),
			Account:   op.Sender,
			Step:      "dummy signature",
			Err:       err,
		}
	}

	return m.wrap(ctx, op.Sender, p, sig, true)
}

// NonceKey derives the 24-byte nonce key for the manager's action. It is zero on v0.6.
func (m *KernelPluginManager) NonceKey(ctx context.Context, account common.Address, opts ...SignOption) (domain.NonceKey, error) {
	if m.codec.Version() == domain.EntryPointV06 {
		return domain.NonceKey{}, nil
	}
	p, err := m.plan(ctx, account, applySignOptions(opts))
	if err != nil {
		return domain.NonceKey{}, err
	}
	return m.codec.NonceKey(p.mode, p.active, p.root), nil
}

// ApplyNonceKey rewrites op.Nonce so its key part is the derived nonce key, keeping the
// caller's sequence. On v0.6 the nonce is left untouched and the zero key is returned.
func (m *KernelPluginManager) ApplyNonceKey(ctx context.Context, op *domain.UserOperation, opts ...SignOption) (domain.NonceKey, error) {
	key, err := m.NonceKey(ctx, op.Sender, opts...)
	if err != nil {
		return domain.NonceKey{}, err
	}
	if m.codec.Version() == domain.EntryPointV06 {
		return key, nil
	}

	var sequence uint64
	if op.Nonce != nil {
		if _, sequence, err = domain.SplitNonce(op.Nonce.ToInt()); err != nil {
			return domain.NonceKey{}, fmt.Errorf("%w: nonce does not fit 256 bits", domain.ErrConfiguration)
		}
	}
	op.Nonce = (*hexutil.Big)(key.Nonce(sequence))
	return key, nil
}

// rootValidator is the validator installed at account creation
func (m *KernelPluginManager) rootValidator() Validator {
	if m.sudo != nil {
		return m.sudo
	}
	return m.regular
}

// EnableData returns the install data of the root validator for account
func (m *KernelPluginManager) EnableData(ctx context.Context, account common.Address) ([]byte, error) {
	v := m.rootValidator()
	data, err := v.EnableData(ctx, account)
	if err != nil {
		return nil, &domain.ValidatorError{Validator: v.Name(), Account: account, Step: "enable data", Err: err}
	}
	return data, nil
}

// ValidatorInitData is what an account factory needs to install the root validator
type ValidatorInitData struct {
	ValidatorAddress common.Address
	Identifier       []byte
	EnableData       []byte
}

// ValidatorInitData returns the root validator's address, identifier and enable data
func (m *KernelPluginManager) ValidatorInitData(ctx context.Context) (*ValidatorInitData, error) {
	v := m.rootValidator()
	data, err := v.EnableData(ctx, common.Address{})
	if err != nil {
		return nil, &domain.ValidatorError{Validator: v.Name(), Step: "validator init data", Err: err}
	}
	return &ValidatorInitData{
		ValidatorAddress: v.Address(),
		Identifier:       v.Identifier(),
		EnableData:       data,
	}, nil
}

// Identifier returns the sudo validator's identifier when isSudo is set, otherwise the
// regular validator's, falling back to sudo when no regular validator is configured
func (m *KernelPluginManager) Identifier(isSudo bool) ([]byte, error) {
	if isSudo {
		if m.sudo == nil {
			return nil, domain.ErrMissingSudoValidator
		}
		return m.sudo.Identifier(), nil
	}
	if m.regular != nil {
		return m.regular.Identifier(), nil
	}
	return m.sudo.Identifier(), nil
}

// VerifyAccount checks that a deployed account is owned by the sudo validator's signer.
// Undeployed accounts and validators without an owner check always pass.
func (m *KernelPluginManager) VerifyAccount(ctx context.Context, account common.Address) error {
	if m.sudo == nil || m.chain == nil {
		return nil
	}
	checker, ok := m.sudo.(OwnerChecker)
	if !ok {
		return nil
	}

	deployed, err := m.chain.IsDeployed(ctx, account)
	if err != nil {
		return fmt.Errorf("failed to check deployment of %s: %w", account.Hex(), err)
	}
	if !deployed {
		return nil
	}

	if err := checker.CheckOwner(ctx, account); err != nil {
		var mismatch *domain.OwnerMismatchError
		if errors.As(err, &mismatch) {
			m.log.Warn("account owner mismatch",
				"account", account.Hex(),
				"recorded", mismatch.Recorded.Hex(),
				"supplied", mismatch.Supplied.Hex(),
			)
		}
		return &domain.ValidatorError{Validator: m.sudo.Name(), Account: account, Step: "verify owner", Err: err}
	}
	return nil
}
