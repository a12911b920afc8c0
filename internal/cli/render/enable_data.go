package render

import (
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/trebuchet-org/kernel-sdk/internal/usecase"
)

// EnableDataResult is what the enable-data command shows
type EnableDataResult struct {
	Account   common.Address
	InitData  *usecase.ValidatorInitData
	TypedData *apitypes.TypedData
	Digest    *common.Hash
	Signature []byte
}

type enableDataJSON struct {
	Account          common.Address      `json:"account"`
	ValidatorAddress common.Address      `json:"validatorAddress"`
	Identifier       hexutil.Bytes       `json:"identifier"`
	EnableData       hexutil.Bytes       `json:"enableData"`
	TypedData        *apitypes.TypedData `json:"typedData,omitempty"`
	Digest           *common.Hash        `json:"digest,omitempty"`
	Signature        hexutil.Bytes       `json:"enableSignature,omitempty"`
}

// EnableDataRenderer renders validator init data and enable authorizations
type EnableDataRenderer struct {
	out  io.Writer
	json bool
}

// NewEnableDataRenderer creates a new enable data renderer
func NewEnableDataRenderer(out io.Writer, json bool) *EnableDataRenderer {
	return &EnableDataRenderer{out: out, json: json}
}

func (r *EnableDataRenderer) Render(result *EnableDataResult) error {
	if r.json {
		return writeJSON(r.out, enableDataJSON{
			Account:          result.Account,
			ValidatorAddress: result.InitData.ValidatorAddress,
			Identifier:       result.InitData.Identifier,
			EnableData:       result.InitData.EnableData,
			TypedData:        result.TypedData,
			Digest:           result.Digest,
			Signature:        result.Signature,
		})
	}

	fmt.Fprintln(r.out, valueColor.Sprint("🧩 Root validator"))
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, propertyTable([][2]string{
		{"Validator", result.InitData.ValidatorAddress.Hex()},
		{"Identifier", hexutil.Encode(result.InitData.Identifier)},
		{"Enable data", hexutil.Encode(result.InitData.EnableData)},
	}))

	if result.TypedData == nil {
		return nil
	}

	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, valueColor.Sprint("🔓 Enable authorization"))
	fmt.Fprintln(r.out)
	rows := [][2]string{
		{"Account", result.Account.Hex()},
		{"Primary type", result.TypedData.PrimaryType},
		{"Domain", fmt.Sprintf("%s %s", result.TypedData.Domain.Name, result.TypedData.Domain.Version)},
		{"Digest", result.Digest.Hex()},
	}
	if len(result.Signature) > 0 {
		rows = append(rows, [2]string{"Signature", hexutil.Encode(result.Signature)})
	} else {
		rows = append(rows, [2]string{"Signature", FormatWarning("not signed, pass --sign")})
	}
	fmt.Fprintln(r.out, propertyTable(rows))
	return nil
}

var _ Renderer[*EnableDataResult] = (*EnableDataRenderer)(nil)
