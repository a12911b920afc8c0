package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/kernel-sdk/internal/cli/render"
	"github.com/trebuchet-org/kernel-sdk/internal/usecase"
)

type signFlags struct {
	sudo   bool
	chains int
}

func runSign(cmd *cobra.Command, path string, flags signFlags, dummy bool) (*usecase.SignOperationResult, error) {
	app, err := getApp(cmd)
	if err != nil {
		return nil, err
	}

	op, err := readUserOperation(path, cmd.InOrStdin(), app.Settings.Account)
	if err != nil {
		return nil, err
	}

	return app.SignOperation.Run(cmd.Context(), usecase.SignOperationParams{
		Operation:  op,
		EntryPoint: app.Settings.EntryPoint,
		ChainID:    app.Settings.ChainID,
		Chains:     flags.chains,
		Dummy:      dummy,
		Sudo:       flags.sudo,
	})
}

func newSignCommand(use, short string, dummy bool, multiChain bool) *cobra.Command {
	var flags signFlags

	cmd := &cobra.Command{
		Use:   use + " <userop.json|->",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if multiChain && flags.chains < 2 {
				return fmt.Errorf("--chains must be at least 2 for a multi-chain signature")
			}

			result, err := runSign(cmd, args[0], flags, dummy)
			if err != nil {
				return err
			}

			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			renderer := render.NewSignatureRenderer(cmd.OutOrStdout(), app.Config.JSON)
			return renderer.Render(result)
		},
	}

	cmd.Flags().BoolVar(&flags.sudo, "sudo", false, "Sign with the sudo validator even when a regular validator is configured")
	defaultChains := 1
	if multiChain {
		defaultChains = 2
	}
	cmd.Flags().IntVar(&flags.chains, "chains", defaultChains, "Number of chains the signature must be valid on")

	return cmd
}

// NewSignCmd creates the sign command
func NewSignCmd() *cobra.Command {
	cmd := newSignCommand("sign", "Sign a user operation", false, false)
	cmd.Long = `Hash the user operation for the configured EntryPoint and chain, pick SUDO, PLUGIN
or ENABLE mode from on-chain enablement and print the assembled signature.`
	return cmd
}

// NewDummySignatureCmd creates the dummy-signature command
func NewDummySignatureCmd() *cobra.Command {
	cmd := newSignCommand("dummy-signature", "Print a gas-estimation signature of the real length", true, false)
	cmd.Long = `Produce a placeholder signature with exactly the byte length of the signature
"sign" would produce, for bundler gas estimation.`
	return cmd
}

// NewMultiChainSignCmd creates the multichain-sign command
func NewMultiChainSignCmd() *cobra.Command {
	cmd := newSignCommand("multichain-sign", "Sign one user operation root for several chains", false, true)
	cmd.Long = `Commit the user operation hash and chains-1 filler leaves into a sorted-pair
Merkle tree, sign the root and attach the proof for the home chain.`
	return cmd
}
