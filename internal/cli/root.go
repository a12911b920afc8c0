package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/kernel-sdk/internal/app"
	"github.com/trebuchet-org/kernel-sdk/internal/config"
)

// contextKey is the type for context keys
type contextKey string

const (
	// appKey is the context key for the app instance
	appKey contextKey = "app"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "kernel",
		Short: "Sign user operations for Kernel smart accounts",
		Long: `kernel composes the validators configured in kernel.toml into one signing
authority for a Kernel account and produces ERC-4337 signatures, nonce keys and
enable authorizations for EntryPoint v0.6 and v0.7.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" || cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}

			projectRoot, err := config.FindProjectRoot()
			if err != nil {
				projectRoot = "."
			}

			v := config.SetupViper(projectRoot, cmd)

			ctx := cmd.Context()
			if timeout := v.GetDuration("timeout"); timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				cmd.PostRun = func(cmd *cobra.Command, args []string) {
					cancel()
				}
			}

			appInstance, err := app.InitApp(ctx, v)
			if err != nil {
				return fmt.Errorf("failed to initialize app: %w", err)
			}

			cmd.SetContext(context.WithValue(ctx, appKey, appInstance))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to kernel.toml (defaults to the nearest kernel.toml)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().Bool("json", false, "Output in JSON format")
	rootCmd.PersistentFlags().String("rpc-url", "", "RPC URL, overrides kernel.toml")
	rootCmd.PersistentFlags().Uint64("chain-id", 0, "Chain ID, overrides kernel.toml")
	rootCmd.PersistentFlags().Duration("timeout", 0, "Overall command timeout (default 2m)")

	rootCmd.AddGroup(&cobra.Group{ID: "signing", Title: "Signing Commands"})
	rootCmd.AddGroup(&cobra.Group{ID: "account", Title: "Account Commands"})

	for _, c := range []*cobra.Command{NewSignCmd(), NewDummySignatureCmd(), NewMultiChainSignCmd()} {
		c.GroupID = "signing"
		rootCmd.AddCommand(c)
	}
	for _, c := range []*cobra.Command{NewNonceKeyCmd(), NewEnableDataCmd(), NewVerifyCmd()} {
		c.GroupID = "account"
		rootCmd.AddCommand(c)
	}
	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

// getApp retrieves the app instance from the command context
func getApp(cmd *cobra.Command) (*app.App, error) {
	appInstance, ok := cmd.Context().Value(appKey).(*app.App)
	if !ok || appInstance == nil {
		return nil, fmt.Errorf("app not initialized")
	}
	return appInstance, nil
}
