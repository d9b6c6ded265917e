package ports

import (
	"context"
	"io"

	"led-json-bridge/internal/domain/model"
	"led-json-bridge/internal/domain/patch"
)

// StatePort is what the transports drive. Every call that touches the state
// takes the staging buffer lease and fails with buffer.ErrLockUnavailable
// when it cannot get it in time.
type StatePort interface {
	WriteState(ctx context.Context, w io.Writer) error
	WriteFull(ctx context.Context, w io.Writer) error
	WriteEffects(ctx context.Context, w io.Writer) error
	WritePalettePage(ctx context.Context, w io.Writer, page int) error
	WriteLive(ctx context.Context, w io.Writer) error
	WritePresets(ctx context.Context, w io.Writer) error

	// Apply decodes body as a patch and writes the reply: the state when the
	// patch asks for it, otherwise a success marker.
	Apply(ctx context.Context, body []byte, mode model.CallMode, w io.Writer) error
	ApplyObject(ctx context.Context, doc patch.Object, mode model.CallMode) error
	// ApplyLegacy runs an HTTP API command string and writes the state.
	ApplyLegacy(ctx context.Context, cmd string, w io.Writer) error
	// ApplySync applies a patch received from a sync peer when receiving
	// is enabled.
	ApplySync(ctx context.Context, doc patch.Object) error

	EffectsRaw() string
	PalettesRaw() string
}
