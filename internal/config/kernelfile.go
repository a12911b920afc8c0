package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/trebuchet-org/kernel-sdk/internal/domain/config"
)

// KernelFileName is the project configuration file
const KernelFileName = "kernel.toml"

// loadEnvFiles loads .env and .env.local next to the config file; existing env vars win
func loadEnvFiles(dir string) {
	for _, name := range []string{".env", ".env.local"} {
		envFile := filepath.Join(dir, name)
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: Failed to load %s: %v\n", envFile, err)
			}
		}
	}
}

// LoadKernelConfig reads kernel.toml at path, expanding ${VAR} references in string fields
func LoadKernelConfig(path string) (*config.KernelConfig, error) {
	loadEnvFiles(filepath.Dir(path))

	var cfg config.KernelConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}

	cfg.Account = os.ExpandEnv(cfg.Account)
	cfg.EntryPoint = os.ExpandEnv(cfg.EntryPoint)
	cfg.RPCURL = os.ExpandEnv(cfg.RPCURL)
	cfg.EnableSignature = os.ExpandEnv(cfg.EnableSignature)
	cfg.Action.Executor = os.ExpandEnv(cfg.Action.Executor)
	cfg.Relay.URL = os.ExpandEnv(cfg.Relay.URL)
	for i, arg := range cfg.Relay.Authenticator {
		cfg.Relay.Authenticator[i] = os.ExpandEnv(arg)
	}

	if cfg.Validators == nil {
		cfg.Validators = make(map[string]config.ValidatorConfig)
	}
	for name, v := range cfg.Validators {
		v.Address = os.ExpandEnv(v.Address)
		v.PrivateKey = os.ExpandEnv(v.PrivateKey)
		v.Keystore = os.ExpandEnv(v.Keystore)
		v.Password = os.ExpandEnv(v.Password)
		v.Username = os.ExpandEnv(v.Username)
		v.SignerContract = os.ExpandEnv(v.SignerContract)
		for j, p := range v.Policies {
			p.Contract = os.ExpandEnv(p.Contract)
			v.Policies[j] = p
		}
		cfg.Validators[name] = v
	}

	return &cfg, nil
}
