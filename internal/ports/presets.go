package ports

import (
	"context"
	"errors"

	"led-json-bridge/internal/domain/model"
	"led-json-bridge/internal/domain/patch"
)

// PresetController is the preset and playlist collaborator seen by the
// decoder. Every call returns immediately; applying a preset is deferred to
// the calling layer.
type PresetController interface {
	SavePreset(id int, doc patch.Object) bool
	DeletePreset(id int) bool
	ApplyPreset(id int, mode model.CallMode) bool
	LoadPlaylist(desc patch.Object, presetID int) bool
	// UnloadPlaylist is fire-and-forget.
	UnloadPlaylist()
}

// ErrPresetNotFound is returned by a PresetRepository for an unknown id.
var ErrPresetNotFound = errors.New("presets: preset not found")

// PresetRepository stores preset documents keyed by id (1-250).
type PresetRepository interface {
	Get(ctx context.Context, id int) (patch.Object, error)
	Save(ctx context.Context, id int, doc patch.Object) error
	Delete(ctx context.Context, id int) error
	// Raw returns the whole store as one JSON object keyed by id.
	Raw(ctx context.Context) ([]byte, error)
}
