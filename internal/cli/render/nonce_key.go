package render

import (
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/trebuchet-org/kernel-sdk/internal/domain"
)

// NonceKeyResult is what the nonce-key command shows
type NonceKeyResult struct {
	Account  common.Address
	Version  domain.EntryPointVersion
	Key      domain.NonceKey
	Sequence uint64
}

type nonceKeyJSON struct {
	Account       common.Address `json:"account"`
	EntryPoint    string         `json:"entryPoint"`
	Key           string         `json:"key"`
	Mode          string         `json:"mode"`
	ValidatorType string         `json:"validatorType"`
	Identifier    string         `json:"identifier"`
	SubKey        uint16         `json:"subKey"`
	Nonce         string         `json:"nonce"`
}

// NonceKeyRenderer renders nonce keys
type NonceKeyRenderer struct {
	out  io.Writer
	json bool
}

// NewNonceKeyRenderer creates a new nonce key renderer
func NewNonceKeyRenderer(out io.Writer, json bool) *NonceKeyRenderer {
	return &NonceKeyRenderer{out: out, json: json}
}

func (r *NonceKeyRenderer) Render(result *NonceKeyResult) error {
	k := result.Key
	view := nonceKeyJSON{
		Account:       result.Account,
		EntryPoint:    string(result.Version),
		Key:           k.Hex(),
		Mode:          k.Mode().String(),
		ValidatorType: k.ValidatorType().String(),
		Identifier:    hexutil.Encode(k.Identifier()),
		SubKey:        k.SubKey(),
		Nonce:         hexutil.EncodeBig(k.Nonce(result.Sequence)),
	}
	if r.json {
		return writeJSON(r.out, view)
	}

	fmt.Fprintln(r.out, valueColor.Sprint("🔑 Nonce key"))
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, propertyTable([][2]string{
		{"Account", view.Account.Hex()},
		{"EntryPoint", view.EntryPoint},
		{"Mode", mode(view.Mode)},
		{"Validator type", view.ValidatorType},
		{"Identifier", view.Identifier},
		{"Sub key", fmt.Sprintf("%d", view.SubKey)},
		{"Key", view.Key},
		{fmt.Sprintf("Nonce (seq %d)", result.Sequence), view.Nonce},
	}))
	return nil
}

var _ Renderer[*NonceKeyResult] = (*NonceKeyRenderer)(nil)
