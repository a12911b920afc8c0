package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/trebuchet-org/kernel-sdk/internal/domain/config"
)

// Provider creates RuntimeConfig for Wire dependency injection
func Provider(v *viper.Viper) (*config.RuntimeConfig, error) {
	projectRoot := v.GetString("project_root")
	if projectRoot == "" {
		projectRoot = "."
	}

	cfg := &config.RuntimeConfig{
		ProjectRoot: projectRoot,
		ConfigPath:  v.GetString("config"),
		Debug:       v.GetBool("debug"),
		JSON:        v.GetBool("json"),
		Timeout:     v.GetDuration("timeout"),
		RPCURL:      v.GetString("rpc_url"),
		ChainID:     v.GetUint64("chain_id"),
	}

	if cfg.ConfigPath == "" {
		cfg.ConfigPath = filepath.Join(projectRoot, KernelFileName)
	}

	if _, err := os.Stat(cfg.ConfigPath); err != nil {
		if os.IsNotExist(err) && v.GetString("config") == "" {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", cfg.ConfigPath, err)
	}

	kernel, err := LoadKernelConfig(cfg.ConfigPath)
	if err != nil {
		return nil, err
	}
	cfg.Kernel = kernel

	return cfg, nil
}

// FindProjectRoot walks up from the current directory to find kernel.toml
func FindProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, KernelFileName)); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%s not found in current directory or any parent", KernelFileName)
		}
		dir = parent
	}
}

// SetupViper creates and configures a viper instance
func SetupViper(projectRoot string, cmd *cobra.Command) *viper.Viper {
	v := viper.New()

	v.SetEnvPrefix("KERNEL")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	v.SetDefault("timeout", "2m")
	v.SetDefault("debug", false)
	v.SetDefault("json", false)
	v.SetDefault("project_root", projectRoot)

	if cmd != nil {
		bindFlags(v, cmd.Flags())
		bindFlags(v, cmd.InheritedFlags())
	}

	return v
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		key := strings.ReplaceAll(f.Name, "-", "_")
		if err := v.BindPFlag(key, f); err != nil {
			panic(err)
		}
	})
}
