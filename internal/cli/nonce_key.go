package cli

import (
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/kernel-sdk/internal/cli/render"
	"github.com/trebuchet-org/kernel-sdk/internal/usecase"
)

// NewNonceKeyCmd creates the nonce-key command
func NewNonceKeyCmd() *cobra.Command {
	var (
		sudo     bool
		sequence uint64
	)

	cmd := &cobra.Command{
		Use:   "nonce-key",
		Short: "Show the nonce key for the configured account",
		Long: `Show the 24-byte EntryPoint v0.7 nonce key (mode, validator type, identifier
and sub key) that selects the validator for the next user operation. On v0.6 the key
is always zero.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			var opts []usecase.SignOption
			if sudo {
				opts = append(opts, usecase.WithSudo())
			}

			key, err := app.Manager.NonceKey(cmd.Context(), app.Settings.Account, opts...)
			if err != nil {
				return err
			}

			renderer := render.NewNonceKeyRenderer(cmd.OutOrStdout(), app.Config.JSON)
			return renderer.Render(&render.NonceKeyResult{
				Account:  app.Settings.Account,
				Version:  app.Manager.EntryPointVersion(),
				Key:      key,
				Sequence: sequence,
			})
		},
	}

	cmd.Flags().BoolVar(&sudo, "sudo", false, "Derive the key for the sudo validator")
	cmd.Flags().Uint64Var(&sequence, "sequence", 0, "Sequence number used to compose the full nonce")

	return cmd
}
