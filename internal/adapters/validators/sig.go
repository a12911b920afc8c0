package validators

import (
	"fmt"

	"github.com/trebuchet-org/kernel-sdk/internal/domain"
	"github.com/trebuchet-org/kernel-sdk/internal/usecase"
)

// toV27 normalizes the recovery byte of a 65-byte signature to 27/28
func toV27(sig []byte) ([]byte, error) {
	if len(sig) != 65 {
		return nil, fmt.Errorf("signature must be 65 bytes, got %d", len(sig))
	}
	out := cloneBytes(sig)
	switch out[64] {
	case 0, 1:
		out[64] += 27
	case 27, 28:
	default:
		return nil, fmt.Errorf("invalid recovery id %d", out[64])
	}
	return out, nil
}

func ref(v usecase.Validator) domain.ValidatorRef {
	return domain.ValidatorRef{
		Address:    v.Address(),
		Type:       v.Type(),
		Identifier: v.Identifier(),
	}
}

func cloneBytes(b []byte) []byte {
	return append([]byte(nil), b...)
}
