package persistence

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"led-json-bridge/internal/domain/model"
)

// YAMLConfigRepository keeps the configuration in a YAML file. A JSON file
// in the controller's legacy cfg.json layout is migrated on read.
type YAMLConfigRepository struct {
	filepath string
	mu       sync.RWMutex
}

// Internal structure for migration
type legacyConfig struct {
	ID struct {
		Name string `json:"name"`
	} `json:"id"`
	HW struct {
		LED struct {
			Total int `json:"total"`
			// RGBWMode is non-zero for strips with a white channel.
			RGBWMode int `json:"rgbwm"`
		} `json:"led"`
	} `json:"hw"`
	Light struct {
		GC struct {
			Col bool `json:"col"`
		} `json:"gc"`
		TR struct {
			Dur int `json:"dur"`
		} `json:"tr"`
	} `json:"light"`
	IF struct {
		MQTT struct {
			Enabled  bool   `json:"en"`
			Broker   string `json:"broker"`
			Port     int    `json:"port"`
			User     string `json:"user"`
			ClientID string `json:"cid"`
			Topics   struct {
				Device string `json:"device"`
				Group  string `json:"group"`
			} `json:"topics"`
		} `json:"mqtt"`
		Hue struct {
			Enabled  bool `json:"en"`
			ID       int  `json:"id"`
			Interval int  `json:"iv"`
			Recv     struct {
				On  bool `json:"on"`
				Bri bool `json:"bri"`
				Col bool `json:"col"`
			} `json:"recv"`
			IP []int `json:"ip"`
		} `json:"hue"`
	} `json:"if"`
	NW json.RawMessage `json:"nw"`
}

func NewYAMLConfigRepository(filepath string) *YAMLConfigRepository {
	return &YAMLConfigRepository{filepath: filepath}
}

func (r *YAMLConfigRepository) Get(ctx context.Context) (*model.Config, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	data, err := os.ReadFile(r.filepath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return model.DefaultConfig(), nil
		}
		return nil, err
	}

	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
		if cfg, ok := r.migrate(trimmed); ok {
			return cfg, nil
		}
	}

	// Missing keys keep their defaults.
	cfg := model.DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", r.filepath, err)
	}
	return cfg, nil
}

// migrate reads a legacy cfg.json. It reports false when data is not in
// that layout.
func (r *YAMLConfigRepository) migrate(data []byte) (*model.Config, bool) {
	var legacy legacyConfig
	if err := json.Unmarshal(jsonc.ToJSON(data), &legacy); err != nil {
		return nil, false
	}
	if legacy.HW.LED.Total == 0 && len(legacy.NW) == 0 && legacy.ID.Name == "" {
		return nil, false
	}

	cfg := model.DefaultConfig()
	if legacy.ID.Name != "" {
		cfg.Server.Name = legacy.ID.Name
	}
	if legacy.HW.LED.Total > 0 {
		cfg.Strip.LEDCount = legacy.HW.LED.Total
	}
	cfg.Strip.RGBW = legacy.HW.LED.RGBWMode != 0
	cfg.Strip.GammaCorrectColor = legacy.Light.GC.Col
	if legacy.Light.TR.Dur > 0 {
		cfg.Strip.TransitionMS = legacy.Light.TR.Dur * 100
	}

	m := legacy.IF.MQTT
	cfg.MQTT.Enabled = m.Enabled
	cfg.MQTT.Host = m.Broker
	if m.Port > 0 {
		cfg.MQTT.Port = m.Port
	}
	cfg.MQTT.Username = m.User
	if m.ClientID != "" {
		cfg.MQTT.ClientID = m.ClientID
	}
	if m.Topics.Device != "" {
		cfg.MQTT.DeviceTopic = m.Topics.Device
	}
	if m.Topics.Group != "" {
		cfg.MQTT.GroupTopic = m.Topics.Group
	}

	h := legacy.IF.Hue
	cfg.HueSync.Enabled = h.Enabled
	if h.ID > 0 {
		cfg.HueSync.LightID = h.ID
	}
	if h.Interval > 0 {
		cfg.HueSync.PollIntervalMS = h.Interval * 100
	}
	cfg.HueSync.ApplyOnOff = h.Recv.On
	cfg.HueSync.ApplyBri = h.Recv.Bri
	cfg.HueSync.ApplyColor = h.Recv.Col
	if len(h.IP) == 4 {
		parts := make([]string, len(h.IP))
		for i, b := range h.IP {
			parts[i] = strconv.Itoa(b)
		}
		cfg.HueSync.BridgeIP = strings.Join(parts, ".")
	}
	return cfg, true
}

func (r *YAMLConfigRepository) Save(ctx context.Context, config *model.Config) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := yaml.Marshal(config)
	if err != nil {
		return err
	}

	return os.WriteFile(r.filepath, data, 0644)
}
