package usecase

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/trebuchet-org/kernel-sdk/internal/domain"
)

// PluginEnableSignature returns the sudo validator's authorization for the regular validator.
// A signature supplied at construction always wins. Otherwise the signature is generated
// once per account and cached until InvalidateEnableSignature is called; concurrent callers
// share a single signing ceremony.
func (m *KernelPluginManager) PluginEnableSignature(ctx context.Context, account common.Address) ([]byte, error) {
	if len(m.presuppliedEnableSig) > 0 {
		return cloneBytes(m.presuppliedEnableSig), nil
	}
	if sig, ok := m.cachedEnableSignature(account); ok {
		return sig, nil
	}

	v, err, shared := m.enableFlight.Do(account.Hex(), func() (any, error) {
		if sig, ok := m.cachedEnableSignature(account); ok {
			return sig, nil
		}
		sig, err := m.generateEnableSignature(ctx, account)
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		m.enableSigs[account] = sig
		m.mu.Unlock()
		return sig, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		m.log.Debug("enable signature shared with concurrent caller", "account", account.Hex())
	}
	return cloneBytes(v.([]byte)), nil
}

// InvalidateEnableSignature drops every cached enable signature.
// Call it after a transaction that advances the account's validator nonce.
func (m *KernelPluginManager) InvalidateEnableSignature() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enableSigs = make(map[common.Address][]byte)
}

// EnableTypedData builds the typed data the sudo validator signs to enable the regular validator
func (m *KernelPluginManager) EnableTypedData(ctx context.Context, account common.Address) (apitypes.TypedData, error) {
	if m.sudo == nil {
		return apitypes.TypedData{}, domain.ErrMissingSudoValidator
	}
	if m.regular == nil {
		return apitypes.TypedData{}, domain.ErrMissingRegularValidator
	}
	if m.chain == nil {
		return apitypes.TypedData{}, fmt.Errorf("%w: chain reader not configured", domain.ErrConfiguration)
	}

	chainID, err := m.chain.ChainID(ctx)
	if err != nil {
		return apitypes.TypedData{}, fmt.Errorf("failed to read chain id: %w", err)
	}
	kernelVersion, err := m.chain.KernelVersion(ctx, account)
	if err != nil {
		return apitypes.TypedData{}, fmt.Errorf("failed to read kernel version: %w", err)
	}

	var validatorNonce uint32
	if m.codec.NeedsValidatorNonce() {
		validatorNonce, err = m.chain.ValidatorNonce(ctx, account)
		if err != nil {
			return apitypes.TypedData{}, fmt.Errorf("failed to read validator nonce: %w", err)
		}
	}

	enableData, err := m.regular.EnableData(ctx, account)
	if err != nil {
		return apitypes.TypedData{}, &domain.ValidatorError{
			Validator: m.regular.Name(),
			Account:   account,
			Step:      "enable data",
			Err:       err,
		}
	}

	return m.codec.EnableTypedData(enableParams{
		Account:        account,
		ChainID:        chainID,
		KernelVersion:  kernelVersion,
		ValidatorNonce: validatorNonce,
		Regular:        refOf(m.regular),
		EnableData:     enableData,
		Action:         m.action,
		Validity:       m.validity,
	}), nil
}

func (m *KernelPluginManager) generateEnableSignature(ctx context.Context, account common.Address) ([]byte, error) {
	typedData, err := m.EnableTypedData(ctx, account)
	if err != nil {
		return nil, err
	}

	sig, err := m.sudo.SignTypedData(ctx, typedData)
	if err != nil {
		return nil, &domain.ValidatorError{
			Validator: m.sudo.Name(),
			Account:   account,
			Step:      "sign enable typed data",
			Err:       err,
		}
	}
	if len(sig) == 0 {
		return nil, domain.ErrEnableSignatureMissing
	}

	m.log.Debug("generated enable signature",
		"account", account.Hex(),
		"validator", m.regular.Address().Hex(),
		"primaryType", typedData.PrimaryType,
	)
	return sig, nil
}

func (m *KernelPluginManager) cachedEnableSignature(account common.Address) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sig, ok := m.enableSigs[account]
	if !ok {
		return nil, false
	}
	return cloneBytes(sig), true
}

func cloneBytes(b []byte) []byte {
	return append([]byte(nil), b...)
}
