package app

import (
	"log/slog"

	"github.com/trebuchet-org/kernel-sdk/internal/config"
	domainconfig "github.com/trebuchet-org/kernel-sdk/internal/domain/config"
	"github.com/trebuchet-org/kernel-sdk/internal/usecase"
)

// App is the main application container that holds all use cases
type App struct {
	// Configuration
	Config   *domainconfig.RuntimeConfig
	Settings *config.ManagerSettings

	// Shared dependencies
	Chain  usecase.ChainReader
	Logger *slog.Logger

	// Use cases
	Manager       *usecase.KernelPluginManager
	SignOperation *usecase.SignOperation
}

// NewApp creates a new application instance with all use cases
func NewApp(
	cfg *domainconfig.RuntimeConfig,
	settings *config.ManagerSettings,
	chain usecase.ChainReader,
	logger *slog.Logger,
	manager *usecase.KernelPluginManager,
	signOperation *usecase.SignOperation,
) (*App, error) {
	return &App{
		Config:        cfg,
		Settings:      settings,
		Chain:         chain,
		Logger:        logger,
		Manager:       manager,
		SignOperation: signOperation,
	}, nil
}
