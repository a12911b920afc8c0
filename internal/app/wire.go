//go:build wireinject
// +build wireinject

package app

import (
	"context"

	"github.com/google/wire"
	"github.com/spf13/viper"
	"github.com/trebuchet-org/kernel-sdk/internal/adapters"
	"github.com/trebuchet-org/kernel-sdk/internal/config"
	"github.com/trebuchet-org/kernel-sdk/internal/logging"
	"github.com/trebuchet-org/kernel-sdk/internal/usecase"
)

// InitApp creates a fully wired App instance
func InitApp(ctx context.Context, v *viper.Viper) (*App, error) {
	wire.Build(
		config.Provider,
		logging.LoggingSet,

		// Adapters
		adapters.AllAdapters,

		// Use cases
		usecase.NewSignOperation,

		// App
		NewApp,
	)
	return nil, nil
}
