package render

import (
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/trebuchet-org/kernel-sdk/internal/usecase"
)

// SignatureRenderer renders signed user operations
type SignatureRenderer struct {
	out  io.Writer
	json bool
}

// NewSignatureRenderer creates a new signature renderer
func NewSignatureRenderer(out io.Writer, json bool) *SignatureRenderer {
	return &SignatureRenderer{out: out, json: json}
}

func (r *SignatureRenderer) Render(result *usecase.SignOperationResult) error {
	if r.json {
		return writeJSON(r.out, result)
	}

	title := "✍️  Signed user operation"
	if result.Dummy {
		title = "🧪 Dummy signature"
	}
	fmt.Fprintln(r.out, valueColor.Sprint(title))
	fmt.Fprintln(r.out)

	rows := [][2]string{
		{"Sender", result.Operation.Sender.Hex()},
		{"Chain ID", fmt.Sprintf("%d", result.ChainID)},
		{"UserOp hash", result.Hash.Hex()},
		{"Nonce key", result.NonceKey},
		{"Length", fmt.Sprintf("%d bytes", len(result.Signature))},
	}
	if result.Chains > 1 {
		rows = append(rows, [2]string{"Chains", fmt.Sprintf("%d", result.Chains)})
	}
	fmt.Fprintln(r.out, propertyTable(rows))
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, label("Signature"))
	fmt.Fprintln(r.out, hexutil.Encode(result.Signature))
	return nil
}

var _ Renderer[*usecase.SignOperationResult] = (*SignatureRenderer)(nil)
