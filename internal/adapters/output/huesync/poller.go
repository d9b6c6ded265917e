// Package huesync follows a light on a Philips Hue bridge and mirrors its
// changes onto the controller.
package huesync

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/amimof/huego"

	"led-json-bridge/internal/domain/model"
	"led-json-bridge/internal/domain/translator"
	"led-json-bridge/internal/logging"
	"led-json-bridge/internal/ports"
)

const minInterval = 100 * time.Millisecond

// LightSource reads a light from a Hue bridge. *huego.Bridge implements it.
type LightSource interface {
	GetLightContext(ctx context.Context, id int) (*huego.Light, error)
}

// Connect returns the bridge client for cfg.
func Connect(cfg model.HueSyncConfig) LightSource {
	return huego.New(cfg.BridgeIP, cfg.User)
}

type Poller struct {
	source     LightSource
	state      ports.StatePort
	translator translator.HueLight
	lightID    int
	interval   time.Duration
	logger     *logging.Logger

	prev *huego.State
}

func NewPoller(cfg model.HueSyncConfig, source LightSource, state ports.StatePort, logger *logging.Logger) *Poller {
	return &Poller{
		source: source,
		state:  state,
		translator: translator.HueLight{
			ApplyOnOff: cfg.ApplyOnOff,
			ApplyBri:   cfg.ApplyBri,
			ApplyColor: cfg.ApplyColor,
		},
		lightID:  cfg.LightID,
		interval: max(time.Duration(cfg.PollIntervalMS)*time.Millisecond, minInterval),
		logger:   logger.With("component", "huesync", "light", cfg.LightID),
	}
}

// Run polls until ctx is done. Poll failures are logged and retried on the
// next round.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := p.Poll(ctx); err != nil {
				p.logger.Warn("hue poll failed", "error", err)
			}
		}
	}
}

// Poll reads the light once and applies what changed since the last
// successful poll.
func (p *Poller) Poll(ctx context.Context) error {
	light, err := p.source.GetLightContext(ctx, p.lightID)
	if err != nil {
		return fmt.Errorf("get light %d: %w", p.lightID, err)
	}
	if light == nil || light.State == nil {
		return nil
	}
	cur := *light.State
	cur.Xy = slices.Clone(cur.Xy)

	doc := p.translator.ToPatch(p.prev, &cur)
	if len(doc) > 0 {
		if err := p.state.ApplyObject(ctx, doc, model.CallModeHue); err != nil {
			return err
		}
		p.logger.Debug("applied hue change", "patch", doc)
	}
	p.prev = &cur
	return nil
}
