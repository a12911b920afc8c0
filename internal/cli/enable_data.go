package cli

import (
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/kernel-sdk/internal/cli/render"
	"github.com/trebuchet-org/kernel-sdk/internal/adapters/eip712"
)

// NewEnableDataCmd creates the enable-data command
func NewEnableDataCmd() *cobra.Command {
	var sign bool

	cmd := &cobra.Command{
		Use:   "enable-data",
		Short: "Show validator init data and the enable authorization",
		Long: `Show the root validator's init data used at account creation and, when a regular
validator is configured, the typed data the sudo validator signs to enable it.
With --sign the enable signature is produced as well.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			account := app.Settings.Account

			initData, err := app.Manager.ValidatorInitData(ctx)
			if err != nil {
				return err
			}
			result := &render.EnableDataResult{Account: account, InitData: initData}

			if app.Manager.HasRegular() {
				typedData, err := app.Manager.EnableTypedData(ctx, account)
				if err != nil {
					return err
				}
				digest, err := eip712.Hash(typedData)
				if err != nil {
					return err
				}
				result.TypedData = &typedData
				result.Digest = &digest

				if sign {
					sig, err := app.Manager.PluginEnableSignature(ctx, account)
					if err != nil {
						return err
					}
					result.Signature = sig
				}
			}

			renderer := render.NewEnableDataRenderer(cmd.OutOrStdout(), app.Config.JSON)
			return renderer.Render(result)
		},
	}

	cmd.Flags().BoolVar(&sign, "sign", false, "Have the sudo validator sign the enable authorization")

	return cmd
}
