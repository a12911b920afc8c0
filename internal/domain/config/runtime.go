package config

import (
	"time"
)

// RuntimeConfig represents the complete runtime configuration
// This is injected into use cases and contains all resolved settings
type RuntimeConfig struct {
	// Core settings
	ProjectRoot string
	ConfigPath  string

	// Execution settings
	Debug   bool
	JSON    bool // Output in JSON format
	Timeout time.Duration

	// Overrides from flags or KERNEL_* env vars
	RPCURL  string
	ChainID uint64

	// Resolved configuration, nil when no kernel.toml was found
	Kernel *KernelConfig
}
