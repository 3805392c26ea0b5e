package bootstrap

import (
	"github.com/phambaophuc/image-alt/internal/config"
	"go.uber.org/zap"
)

type App struct {
	Cfg            *config.Config
	Logger         *zap.Logger
	Infrastructure *Infrastructure
	Services       *Services
}

func NewApp(cfg *config.Config, logger *zap.Logger) (*App, error) {
	app := &App{Cfg: cfg, Logger: logger}

	infra, err := NewInfrastructure(cfg, logger)
	if err != nil {
		return nil, err
	}
	app.Infrastructure = infra

	app.Services = NewServices(cfg, infra, logger)

	return app, nil
}

// Shutdown closes every open session and then the infrastructure.
func (a *App) Shutdown() error {
	if a == nil {
		return nil
	}
	if a.Services != nil {
		a.Services.Manager.CloseAll()
	}
	if a.Infrastructure != nil {
		return a.Infrastructure.Shutdown()
	}
	return nil
}
