package service

import (
	"context"
	"errors"
	"fmt"

	"led-json-bridge/internal/domain/model"
	"led-json-bridge/internal/logging"
	"led-json-bridge/internal/ports"
)

// ErrInvalidConfig is returned by UpdateConfig for values the controller
// cannot run with.
var ErrInvalidConfig = errors.New("service: invalid configuration")

// ConfigService reads and stores the controller configuration. Saved changes
// take effect on the next start.
type ConfigService struct {
	repo   ports.ConfigRepository
	logger *logging.Logger
}

func NewConfigService(repo ports.ConfigRepository, logger *logging.Logger) *ConfigService {
	return &ConfigService{
		repo:   repo,
		logger: logger.With("component", "config"),
	}
}

// GetConfig returns the stored configuration with secrets blanked.
func (s *ConfigService) GetConfig(ctx context.Context) (*model.Config, error) {
	cfg, err := s.repo.Get(ctx)
	if err != nil {
		return nil, err
	}
	out := *cfg
	out.MQTT.Password = ""
	return &out, nil
}

func (s *ConfigService) UpdateConfig(ctx context.Context, cfg *model.Config) error {
	if err := validate(cfg); err != nil {
		return err
	}
	if cfg.MQTT.Password == "" {
		// An empty password keeps the stored one; GetConfig never returns it.
		if cur, err := s.repo.Get(ctx); err == nil {
			cfg.MQTT.Password = cur.MQTT.Password
		}
	}
	if err := s.repo.Save(ctx, cfg); err != nil {
		return err
	}
	s.logger.Info("configuration saved")
	return nil
}

func validate(cfg *model.Config) error {
	switch {
	case cfg.Strip.LEDCount < 1 || cfg.Strip.LEDCount > 0xFFFF:
		return fmt.Errorf("%w: led_count %d", ErrInvalidConfig, cfg.Strip.LEDCount)
	case cfg.Strip.MaxSegments < 1 || cfg.Strip.MaxSegments > 32:
		return fmt.Errorf("%w: max_segments %d", ErrInvalidConfig, cfg.Strip.MaxSegments)
	case cfg.Server.BufferSize < 1024:
		return fmt.Errorf("%w: buffer_size %d", ErrInvalidConfig, cfg.Server.BufferSize)
	}
	return nil
}
