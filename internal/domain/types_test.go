package domain

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEntryPointVersion(t *testing.T) {
	tests := []struct {
		input   string
		want    EntryPointVersion
		wantErr bool
	}{
		{input: "v0.6", want: EntryPointV06},
		{input: "0.6", want: EntryPointV06},
		{input: " V0.7 ", want: EntryPointV07},
		{input: "0.7", want: EntryPointV07},
		{input: "v0.8", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseEntryPointVersion(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrConfiguration)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSignatureMode_Prefix(t *testing.T) {
	assert.Equal(t, []byte{0, 0, 0, 0}, SignatureModeSudo.Prefix())
	assert.Equal(t, []byte{0, 0, 0, 1}, SignatureModePlugin.Prefix())
	assert.Equal(t, []byte{0, 0, 0, 2}, SignatureModeEnable.Prefix())
	assert.Equal(t, "ENABLE", SignatureModeEnable.String())
}

func TestValidityData(t *testing.T) {
	assert.NoError(t, ValidityData{}.Validate())
	assert.NoError(t, ValidityData{ValidAfter: 10, ValidUntil: 20}.Validate())
	assert.ErrorIs(t, ValidityData{ValidAfter: 30, ValidUntil: 20}.Validate(), ErrConfiguration)
	assert.ErrorIs(t, ValidityData{ValidUntil: 1 << 48}.Validate(), ErrConfiguration)

	window := ValidityData{ValidAfter: 10, ValidUntil: 20}
	assert.False(t, window.Contains(9))
	assert.True(t, window.Contains(10))
	assert.True(t, window.Contains(20))
	assert.False(t, window.Contains(21))
	assert.True(t, ValidityData{}.Contains(0))
}

func TestUint48Bytes(t *testing.T) {
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0}, Uint48Bytes(0))
	assert.Equal(t, []byte{0, 0, 0, 0, 0x01, 0x2c}, Uint48Bytes(300))
	assert.Equal(t, []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}, Uint48Bytes(maxUint48))
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0x01}, Uint48Bytes(1<<48|1))
}

func TestHexToSelector(t *testing.T) {
	sel, err := HexToSelector("0xe9ae5c53")
	require.NoError(t, err)
	assert.Equal(t, "0xe9ae5c53", sel.Hex())

	_, err = HexToSelector("0xe9ae5c")
	assert.Error(t, err)
}

func TestValidatorRef_ValidationID(t *testing.T) {
	addr := common.HexToAddress("0x8104e3ad430ea6d354d013a6789fdfc71e671c43")
	ref := ValidatorRef{Address: addr, Type: ValidatorTypeSecondary, Identifier: addr.Bytes()}

	id := ref.ValidationID()
	assert.Equal(t, byte(ValidatorTypeSecondary), id[0])
	assert.Equal(t, addr.Bytes(), id[1:])
}

func TestErrorWrapping(t *testing.T) {
	assert.ErrorIs(t, ErrMissingSudoValidator, ErrConfiguration)
	assert.ErrorIs(t, ErrMissingRegularValidator, ErrConfiguration)
	assert.ErrorIs(t, ErrMissingAction, ErrConfiguration)

	var authErr error = &AuthenticationError{Validator: "webauthn", Step: "register"}
	assert.ErrorIs(t, authErr, ErrAuthenticationFailed)
	assert.Contains(t, authErr.Error(), "register")

	account := common.HexToAddress("0x1")
	ownerErr := &OwnerMismatchError{Account: account, Recorded: common.HexToAddress("0x2"), Supplied: common.HexToAddress("0x3")}
	assert.ErrorIs(t, ownerErr, ErrInvalidOwnerMismatch)

	wrapped := &ValidatorError{Validator: "ecdsa", Account: account, Step: "sign", Err: ownerErr}
	var target *OwnerMismatchError
	assert.True(t, errors.As(wrapped, &target))
	assert.Contains(t, wrapped.Error(), account.Hex())
}
