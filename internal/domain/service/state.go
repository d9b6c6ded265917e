package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"sync"
	"time"

	"led-json-bridge/internal/domain/buffer"
	"led-json-bridge/internal/domain/catalog"
	"led-json-bridge/internal/domain/codec"
	"led-json-bridge/internal/domain/model"
	"led-json-bridge/internal/domain/patch"
	"led-json-bridge/internal/domain/playlist"
	"led-json-bridge/internal/domain/translator"
	"led-json-bridge/internal/logging"
	"led-json-bridge/internal/ports"
)

// ErrInvalidDocument means a request body is not a JSON object.
var ErrInvalidDocument = errors.New("service: document is not a JSON object")

const (
	// maxPresetChain bounds presets applying other presets in one request.
	maxPresetChain = 8

	DefaultTickInterval = 100 * time.Millisecond
)

var successReply = []byte(`{"success":true}`)

type opKind uint8

const (
	opSave opKind = iota
	opDelete
	opApply
)

type presetOp struct {
	kind opKind
	id   int
	doc  patch.Object
	mode model.CallMode
}

// outcome reports whether a locked section changed the state.
type outcome struct {
	changed bool
	mode    model.CallMode
}

// StateService owns the runtime state. Every access happens under the
// staging buffer lease, which also serializes decoding.
type StateService struct {
	arbiter  *buffer.Arbiter
	repo     ports.PresetRepository
	decoder  *codec.Decoder
	encoder  *codec.Encoder
	effects  *catalog.Catalog
	palettes *catalog.Catalog
	logger   *logging.Logger
	now      func() time.Time
	interval time.Duration

	// Guarded by the lease.
	state    *model.State
	playlist *playlist.Playlist
	pending  []presetOp

	mu        sync.RWMutex
	notifiers []ports.Notifier
}

var (
	_ ports.StatePort        = (*StateService)(nil)
	_ ports.PresetController = (*StateService)(nil)
)

type Option func(*StateService)

func WithClock(now func() time.Time) Option {
	return func(s *StateService) { s.now = now }
}

// WithState starts from st instead of the boot defaults.
func WithState(st *model.State) Option {
	return func(s *StateService) { s.state = st }
}

func WithTickInterval(d time.Duration) Option {
	return func(s *StateService) { s.interval = d }
}

func NewStateService(arbiter *buffer.Arbiter, renderer ports.Renderer, repo ports.PresetRepository, logger *logging.Logger, opts ...Option) *StateService {
	s := &StateService{
		arbiter:  arbiter,
		repo:     repo,
		effects:  catalog.Effects(),
		palettes: catalog.Palettes(),
		logger:   logger.With("component", "state"),
		now:      time.Now,
		interval: DefaultTickInterval,
		state:    model.NewState(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.decoder = codec.NewDecoder(codec.Collaborators{
		Renderer: renderer,
		Presets:  s,
		Effects:  s.effects,
		Palettes: s.palettes,
		Commands: translator.Legacy{},
		Clock:    s.now,
	})
	s.encoder = codec.NewEncoder(renderer, s.effects, s.palettes, s.now)
	return s
}

// Subscribe registers n for every committed change.
func (s *StateService) Subscribe(n ports.Notifier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifiers = append(s.notifiers, n)
}

func (s *StateService) WriteState(ctx context.Context, w io.Writer) error {
	return s.withState(ctx, "state", w, func(buf *buffer.Staging) (outcome, error) {
		return outcome{}, s.encoder.WriteState(buf, s.state, codec.DefaultOptions)
	})
}

func (s *StateService) WriteFull(ctx context.Context, w io.Writer) error {
	return s.withState(ctx, "full", w, func(buf *buffer.Staging) (outcome, error) {
		return outcome{}, s.encoder.WriteFull(buf, s.state)
	})
}

func (s *StateService) WriteEffects(ctx context.Context, w io.Writer) error {
	return s.withState(ctx, "effects", w, func(buf *buffer.Staging) (outcome, error) {
		return outcome{}, s.encoder.WriteEffects(buf)
	})
}

func (s *StateService) WritePalettePage(ctx context.Context, w io.Writer, page int) error {
	return s.withState(ctx, "palx", w, func(buf *buffer.Staging) (outcome, error) {
		return outcome{}, s.encoder.WritePalettePage(buf, page)
	})
}

func (s *StateService) WriteLive(ctx context.Context, w io.Writer) error {
	return s.withState(ctx, "live", w, func(buf *buffer.Staging) (outcome, error) {
		return outcome{}, s.encoder.WriteLive(buf)
	})
}

func (s *StateService) WritePresets(ctx context.Context, w io.Writer) error {
	return s.withState(ctx, "presets", w, func(buf *buffer.Staging) (outcome, error) {
		raw, err := s.repo.Raw(ctx)
		if err != nil {
			return outcome{}, fmt.Errorf("read presets: %w", err)
		}
		_, err = buf.Write(raw)
		return outcome{}, err
	})
}

func (s *StateService) EffectsRaw() string  { return s.effects.Raw() }
func (s *StateService) PalettesRaw() string { return s.palettes.Raw() }

func (s *StateService) Apply(ctx context.Context, body []byte, mode model.CallMode, w io.Writer) error {
	doc, err := patch.Parse(body)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	return s.withState(ctx, "apply", w, func(buf *buffer.Staging) (outcome, error) {
		res := s.decode(ctx, doc, mode)
		out := outcome{changed: true, mode: res.CallMode}
		if res.StateResponse {
			return out, s.encoder.WriteState(buf, s.state, codec.DefaultOptions)
		}
		_, err := buf.Write(successReply)
		return out, err
	})
}

func (s *StateService) ApplyObject(ctx context.Context, doc patch.Object, mode model.CallMode) error {
	return s.withState(ctx, "apply", nil, func(*buffer.Staging) (outcome, error) {
		res := s.decode(ctx, doc, mode)
		return outcome{changed: true, mode: res.CallMode}, nil
	})
}

func (s *StateService) ApplyLegacy(ctx context.Context, cmd string, w io.Writer) error {
	doc := patch.Object{"win": cmd}
	return s.withState(ctx, "win", w, func(buf *buffer.Staging) (outcome, error) {
		res := s.decode(ctx, doc, model.CallModeDirectChange)
		return outcome{changed: true, mode: res.CallMode}, s.encoder.WriteState(buf, s.state, codec.DefaultOptions)
	})
}

// ApplySync applies a peer's patch. Sync settings and preset storage are
// never taken from a peer.
func (s *StateService) ApplySync(ctx context.Context, doc patch.Object) error {
	doc = doc.Without("udpn", "psave", "pdel", "v")
	return s.withState(ctx, "sync", nil, func(*buffer.Staging) (outcome, error) {
		if !s.state.Sync.Receive {
			return outcome{}, nil
		}
		res := s.decode(ctx, doc, model.CallModeNotification)
		return outcome{changed: true, mode: res.CallMode}, nil
	})
}

// Run ticks the nightlight and the playlist until ctx is done.
func (s *StateService) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick advances timed behavior once. It skips the round when the staging
// buffer is busy.
func (s *StateService) Tick(ctx context.Context) {
	lease, err := s.arbiter.TryAcquire("tick")
	if err != nil {
		return
	}
	now := s.now()
	_ = s.run(lease, nil, func(*buffer.Staging) (outcome, error) {
		return s.tick(ctx, now), nil
	})
}

func (s *StateService) tick(ctx context.Context, now time.Time) outcome {
	var out outcome
	st := s.state

	if nl := &st.Nightlight; nl.Active {
		p := nl.Progress(now)
		switch {
		case p >= 1:
			s.decoder.DecodeState(st, patch.Object{
				"bri": int(nl.TargetBri),
				"nl":  map[string]any{"on": false},
			}, model.CallModeNightlight, 0)
			if nl.TargetBri == 0 && nl.StartBri > 0 {
				st.BriLast = nl.StartBri
			}
			s.logger.Debug("nightlight finished", "bri", st.Bri)
			out = outcome{changed: true, mode: model.CallModeNightlight}
		case nl.Mode == model.NightlightFade:
			delta := float64(int(nl.TargetBri) - int(nl.StartBri))
			bri := int(nl.StartBri) + int(math.Round(delta*p))
			if bri != int(st.Bri) {
				s.decoder.DecodeState(st, patch.Object{"bri": bri}, model.CallModeNoNotify, 0)
				out = outcome{changed: true, mode: model.CallModeNoNotify}
			}
		}
	}

	if pl := s.playlist; pl != nil {
		switch {
		case !st.On() || st.Nightlight.Active:
			pl.Hold(now)
		default:
			if e, ok := pl.Next(now); ok {
				st.TransitionTemp = e.Transition
				st.TransitionOnce = true
				s.ApplyPreset(e.Preset, model.CallModePresetCycle)
			} else if pl.Done() {
				end := pl.End()
				s.UnloadPlaylist()
				out = outcome{changed: true, mode: model.CallModeNoNotify}
				if end > 0 {
					s.ApplyPreset(end, model.CallModeDirectChange)
				}
			}
		}
	}

	if mode, ok := s.runPending(ctx); ok {
		out = outcome{changed: true, mode: mode}
	}
	return out
}

// decode applies doc and then every preset operation it queued.
func (s *StateService) decode(ctx context.Context, doc patch.Object, mode model.CallMode) codec.Result {
	res := s.decoder.DecodeState(s.state, doc, mode, 0)
	if m, ok := s.runPending(ctx); ok {
		res.CallMode = m
	}
	return res
}

// runPending drains the preset queue. It reports the call mode of the last
// preset applied.
func (s *StateService) runPending(ctx context.Context) (model.CallMode, bool) {
	var (
		mode    model.CallMode
		applied bool
		chain   int
	)
	for len(s.pending) > 0 {
		op := s.pending[0]
		s.pending = s.pending[1:]

		switch op.kind {
		case opSave:
			if err := s.repo.Save(ctx, op.id, op.doc); err != nil {
				s.logger.Error("preset save failed", "preset", op.id, "error", err)
				continue
			}
			s.state.CurrentPreset = op.id
			s.logger.Info("preset saved", "preset", op.id)

		case opDelete:
			if err := s.repo.Delete(ctx, op.id); err != nil {
				s.logger.Warn("preset delete failed", "preset", op.id, "error", err)
				continue
			}
			if s.state.CurrentPreset == op.id {
				s.state.CurrentPreset = 0
			}
			s.logger.Info("preset deleted", "preset", op.id)

		case opApply:
			if chain == maxPresetChain {
				s.logger.Warn("preset chain too deep", "preset", op.id)
				s.pending = nil
				return mode, applied
			}
			chain++
			doc, err := s.repo.Get(ctx, op.id)
			if err != nil {
				s.logger.Warn("preset not applied", "preset", op.id, "error", err)
				continue
			}
			s.state.CurrentPreset = op.id
			res := s.decoder.DecodeState(s.state, doc, op.mode, op.id)
			mode, applied = res.CallMode, true
		}
	}
	s.pending = s.pending[:0]
	return mode, applied
}

// SavePreset queues a store operation; it runs once the decode returns.
func (s *StateService) SavePreset(id int, doc patch.Object) bool {
	s.pending = append(s.pending, presetOp{kind: opSave, id: id, doc: doc})
	return true
}

func (s *StateService) DeletePreset(id int) bool {
	s.pending = append(s.pending, presetOp{kind: opDelete, id: id})
	return true
}

func (s *StateService) ApplyPreset(id int, mode model.CallMode) bool {
	s.pending = append(s.pending, presetOp{kind: opApply, id: id, mode: mode})
	return true
}

func (s *StateService) LoadPlaylist(desc patch.Object, presetID int) bool {
	pl, err := playlist.Parse(desc, presetID, s.state.Transition)
	if err != nil {
		s.logger.Warn("playlist rejected", "preset", presetID, "error", err)
		return false
	}
	s.playlist = pl
	s.state.CurrentPlaylist = presetID
	s.logger.Debug("playlist loaded", "preset", presetID, "entries", pl.Len())
	return true
}

func (s *StateService) UnloadPlaylist() {
	if s.playlist != nil {
		s.logger.Debug("playlist unloaded", "preset", s.playlist.ID)
	}
	s.playlist = nil
	s.state.CurrentPlaylist = model.NoPlaylist
}

func (s *StateService) withState(ctx context.Context, holder string, w io.Writer, fn func(*buffer.Staging) (outcome, error)) error {
	lease, err := s.arbiter.Acquire(ctx, holder)
	if err != nil {
		return err
	}
	return s.run(lease, w, fn)
}

// run executes fn under lease. The reply and the state snapshot are copied
// out before release; the reply is written and notifiers run after it.
func (s *StateService) run(lease *buffer.Lease, w io.Writer, fn func(*buffer.Staging) (outcome, error)) error {
	defer lease.Release()

	buf := lease.Buffer()
	out, err := fn(buf)
	var reply []byte
	if err == nil {
		reply = bytes.Clone(buf.Bytes())
	}
	var ev *ports.StateEvent
	if out.changed {
		ev = s.snapshot(buf, out.mode)
	}
	lease.Release()

	if ev != nil {
		s.notify(*ev)
	}
	if err != nil {
		return err
	}
	if w != nil && len(reply) > 0 {
		_, err = w.Write(reply)
	}
	return err
}

func (s *StateService) snapshot(buf *buffer.Staging, mode model.CallMode) *ports.StateEvent {
	st := s.state
	ev := &ports.StateEvent{
		CallMode: mode,
		On:       st.On(),
		Bri:      st.Bri,
		Primary:  st.Col,
		SyncSend: st.Sync.Send,
	}
	buf.Reset()
	if err := s.encoder.WriteState(buf, st, codec.DefaultOptions); err != nil {
		s.logger.Warn("state snapshot skipped", "error", err)
		return ev
	}
	ev.Document = bytes.Clone(buf.Bytes())
	return ev
}

func (s *StateService) notify(ev ports.StateEvent) {
	s.mu.RLock()
	notifiers := slices.Clone(s.notifiers)
	s.mu.RUnlock()
	for _, n := range notifiers {
		n.StateChanged(ev)
	}
}
