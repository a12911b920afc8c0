package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/kernel-sdk/internal/domain"
)

// readUserOperation decodes a user operation JSON file, "-" reads stdin
func readUserOperation(path string, stdin io.Reader, defaultSender common.Address) (*domain.UserOperation, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read user operation: %w", err)
	}

	var op domain.UserOperation
	if err := json.Unmarshal(data, &op); err != nil {
		return nil, fmt.Errorf("failed to parse user operation: %w", err)
	}
	if op.Sender == (common.Address{}) {
		op.Sender = defaultSender
	}
	return &op, nil
}
