package ports

import (
	"context"

	"led-json-bridge/internal/domain/model"
)

type ConfigRepository interface {
	Get(ctx context.Context) (*model.Config, error)
	Save(ctx context.Context, config *model.Config) error
}

// ConfigPort reads and updates the stored configuration.
type ConfigPort interface {
	GetConfig(ctx context.Context) (*model.Config, error)
	UpdateConfig(ctx context.Context, config *model.Config) error
}
