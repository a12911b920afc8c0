package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/kernel-sdk/internal/cli/render"
)

// NewVerifyCmd creates the verify command
func NewVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check the configured signer against the deployed account's owner",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			if app.Chain == nil {
				return fmt.Errorf("verify needs an RPC URL (--rpc-url or rpc_url in kernel.toml)")
			}

			if err := app.Manager.VerifyAccount(cmd.Context(), app.Settings.Account); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), render.FormatSuccess(fmt.Sprintf("Signer matches the owner of %s", app.Settings.Account.Hex())))
			return nil
		},
	}
}
