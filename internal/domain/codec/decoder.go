// Package codec applies patch documents to the runtime state and encodes the
// state back into its canonical wire document.
//
// Decoding follows merge semantics: every recognized field maps to at most one
// mutation and an absent field leaves its value untouched. Malformed fields
// are treated as absent. Decoding is not safe for concurrent use; callers
// serialize it, normally by holding the staging buffer lease.
package codec

import (
	"fmt"
	"strings"
	"time"

	"led-json-bridge/internal/domain/catalog"
	"led-json-bridge/internal/domain/model"
	"led-json-bridge/internal/domain/patch"
	"led-json-bridge/internal/ports"
)

// CommandTranslator turns a legacy HTTP API command string into a patch.
type CommandTranslator interface {
	Translate(cmd string, st *model.State, main *model.Segment) patch.Object
}

// Collaborators are the decoder's external dependencies. Commands and Clock
// are optional.
type Collaborators struct {
	Renderer ports.Renderer
	Presets  ports.PresetController
	Effects  *catalog.Catalog
	Palettes *catalog.Catalog
	Commands CommandTranslator
	Clock    func() time.Time
}

type Decoder struct {
	renderer ports.Renderer
	presets  ports.PresetController
	effects  *catalog.Catalog
	palettes *catalog.Catalog
	commands CommandTranslator
	encoder  *Encoder
	now      func() time.Time
}

func NewDecoder(c Collaborators) *Decoder {
	if c.Clock == nil {
		c.Clock = time.Now
	}
	if c.Effects == nil {
		c.Effects = catalog.Effects()
	}
	if c.Palettes == nil {
		c.Palettes = catalog.Palettes()
	}
	return &Decoder{
		renderer: c.Renderer,
		presets:  c.Presets,
		effects:  c.Effects,
		palettes: c.Palettes,
		commands: c.Commands,
		encoder:  NewEncoder(c.Renderer, c.Effects, c.Palettes, c.Clock),
		now:      c.Clock,
	}
}

// Result reports what a decode did beyond mutating state.
type Result struct {
	// StateResponse is set when the patch asked for the full state in reply.
	StateResponse bool
	// CallMode is the effective origin of the change after udpn.nn and
	// playlist handling.
	CallMode model.CallMode
	// PresetApplied means processing stopped at a preset load; the preset
	// itself is applied later by the preset controller.
	PresetApplied bool
}

// Keys dropped when a patch is stored as a preset.
var presetControlKeys = []string{"psave", "pdel", "o", "ib", "sb", "v", "time", "error"}

// DecodeState applies a top-level patch. presetID is the id of the preset
// being applied, or 0 for a direct request.
func (d *Decoder) DecodeState(st *model.State, root patch.Object, mode model.CallMode, presetID int) Result {
	res := Result{
		StateResponse: root.Get("v").Truthy(),
		CallMode:      mode,
	}
	if d.apply(st, root, presetID, &res, true) {
		res.PresetApplied = true
		return res
	}
	d.commit(st)
	return res
}

// apply runs every field of root. It reports true when a preset load cut
// processing short.
func (d *Decoder) apply(st *model.State, root patch.Object, presetID int, res *Result, allowLegacy bool) bool {
	r := d.renderer

	if bri, ok := patch.CoerceByte(root.Get("bri"), st.Bri); ok {
		st.Bri = bri
	}

	on := root.Get("on")
	if b, ok := on.Bool(); ok && b != st.On() {
		st.ToggleOnOff()
	} else if s, ok := on.Text(); ok && strings.HasPrefix(s, "t") {
		st.ToggleOnOff()
	}

	// A preset must not override the transitions of a running playlist.
	if presetID == 0 || st.CurrentPlaylist < 0 {
		cur := int(st.Transition / model.TransitionUnit)
		if tr, ok := patch.Coerce(root.Get("transition"), cur, 0, 0xFFFF); ok {
			st.Transition = time.Duration(tr) * model.TransitionUnit
			st.TransitionTemp = st.Transition
		}
	}
	cur := int(st.TransitionTemp / model.TransitionUnit)
	if tt, ok := patch.Coerce(root.Get("tt"), cur, 0, 0xFFFF); ok {
		st.TransitionTemp = time.Duration(tt) * model.TransitionUnit
		st.TransitionOnce = true
	}

	if tb, ok := root.Get("tb").Int(); ok && tb >= 0 {
		r.SetTimebase(tb)
	}

	if nl, ok := root.Get("nl").Object(); ok {
		d.applyNightlight(st, nl)
	}

	if udpn, ok := root.Get("udpn").Object(); ok {
		st.Sync.Send, _ = patch.Flag(udpn.Get("send"), st.Sync.Send)
		st.Sync.Receive, _ = patch.Flag(udpn.Get("recv"), st.Sync.Receive)
		if udpn.Get("nn").Truthy() {
			res.CallMode = model.CallModeNoNotify
		}
	}

	if lor, ok := patch.Coerce(root.Get("lor"), int(st.RealtimeOverride), 0, 0xFF); ok {
		if lor > int(model.RealtimeOverrideOnce) {
			lor = int(model.RealtimeOverrideAlways)
		}
		st.RealtimeOverride = model.RealtimeOverride(lor)
	}

	if live := root.Get("live"); !live.IsAbsent() {
		st.RealtimeActive = live.Truthy()
	}

	prevMain := r.MainSegment()
	if main, ok := patch.Coerce(root.Get("mainseg"), prevMain, 0, r.MaxSegments()-1); ok && main != prevMain {
		d.switchMainSegment(st, prevMain, main)
	}

	d.applySegments(st, root.Get("seg"), presetID)

	if d.applyPresetOps(st, root, presetID, res, allowLegacy) {
		return true
	}

	if pl, ok := root.Get("playlist").Object(); ok && d.presets != nil && d.presets.LoadPlaylist(pl, presetID) {
		// The first playlist entry notifies.
		if root.Get("on").IsAbsent() {
			res.CallMode = model.CallModeNoNotify
		} else {
			res.CallMode = model.CallModeDirectChange
		}
	}
	return false
}

func (d *Decoder) applyNightlight(st *model.State, nl patch.Object) {
	n := &st.Nightlight
	wasActive := n.Active
	n.Active, _ = patch.Toggle(nl.Get("on"), n.Active)
	if dur, ok := patch.Coerce(nl.Get("dur"), int(n.DurationMins), 1, 255); ok {
		n.DurationMins = uint8(dur)
	}
	if mode, ok := patch.Coerce(nl.Get("mode"), int(n.Mode), 0, int(model.NightlightSunrise)); ok {
		n.Mode = uint8(mode)
	}
	n.TargetBri, _ = patch.CoerceByte(nl.Get("tbri"), n.TargetBri)
	if n.Active && !wasActive {
		n.Started = d.now()
		n.StartBri = st.Bri
	}
}

// switchMainSegment commits the mirrored colors into the old main segment and
// loads them from the new one.
func (d *Decoder) switchMainSegment(st *model.State, prev, next int) {
	if seg := d.renderer.Segment(prev); seg != nil {
		seg.Colors[0], seg.Colors[1] = st.Col, st.ColSec
	}
	d.renderer.SetMainSegment(next)
	if seg := d.renderer.Segment(d.renderer.MainSegment()); seg != nil {
		st.Col, st.ColSec = seg.Colors[0], seg.Colors[1]
	}
}

func (d *Decoder) applySegments(st *model.State, v patch.Value, presetID int) {
	if elem, ok := v.Object(); ok {
		id, hasID := elem.Get("id").Int()
		if hasID && id >= 0 {
			d.DecodeSegment(st, elem, 0, presetID)
			return
		}
		d.broadcastSegment(st, elem, presetID)
		return
	}

	arr, ok := v.Array()
	if !ok {
		return
	}
	for i := 0; i < arr.Len(); i++ {
		if elem, ok := arr.At(i).Object(); ok {
			d.DecodeSegment(st, elem, i, presetID)
		}
	}
}

// broadcastSegment applies elem to every selected active segment, or to the
// lowest active one when none is selected.
func (d *Decoder) broadcastSegment(st *model.State, elem patch.Object, presetID int) {
	r := d.renderer
	lowest := -1
	applied := false
	for id := 0; id < r.MaxSegments(); id++ {
		seg := r.Segment(id)
		if seg == nil || !seg.IsActive() {
			continue
		}
		if lowest < 0 {
			lowest = id
		}
		if seg.IsSelected() {
			d.decodeSegment(st, elem, id, presetID)
			applied = true
		}
	}
	if !applied && lowest >= 0 {
		d.decodeSegment(st, elem, lowest, presetID)
	}
}

// applyPresetOps runs the first of save, delete, load, legacy command that is
// present. It reports true when a preset load ends processing.
func (d *Decoder) applyPresetOps(st *model.State, root patch.Object, presetID int, res *Result, allowLegacy bool) bool {
	if d.presets == nil {
		return false
	}

	if id, ok := presetField(root.Get("psave"), 0); ok {
		d.presets.SavePreset(id, d.presetDocument(st, root, id))
		return false
	}

	if id, ok := presetField(root.Get("pdel"), 0); ok {
		d.presets.DeletePreset(id)
		return false
	}

	if id, ok := presetField(root.Get("ps"), st.CurrentPreset); ok {
		if presetID == 0 {
			d.presets.UnloadPlaylist()
		}
		d.presets.ApplyPreset(id, res.CallMode)
		return true
	}

	if cmd, ok := root.Get("win").Text(); ok && cmd != "" && allowLegacy && d.commands != nil {
		main := d.renderer.Segment(d.renderer.MainSegment())
		legacy := d.commands.Translate(cmd, st, main)
		return d.apply(st, legacy, presetID, res, false)
	}
	return false
}

// presetDocument builds what psave stores: a snapshot of the current state
// when "o" is set, otherwise the patch itself without control keys.
func (d *Decoder) presetDocument(st *model.State, root patch.Object, id int) patch.Object {
	var doc patch.Object
	if root.Get("o").Truthy() {
		opts := Options{
			ForPreset:     true,
			IncludeBri:    root.Get("ib").Truthy(),
			SegmentBounds: root.Get("sb").Truthy(),
		}
		doc = d.encoder.PresetDocument(st, opts)
		for _, key := range []string{"n", "ql"} {
			if v, ok := root[key]; ok {
				doc[key] = v
			}
		}
	} else {
		doc = root.Without(presetControlKeys...)
	}
	if name, ok := doc.Get("n").Text(); !ok || name == "" {
		doc["n"] = fmt.Sprintf("Preset %d", id)
	}
	return doc
}

// commit hands the decoded global values to the renderer: the mirrored colors
// land in the main segment and a one-shot transition is consumed.
func (d *Decoder) commit(st *model.State) {
	r := d.renderer
	if st.Bri > 0 {
		st.BriLast = st.Bri
	}
	if main := r.Segment(r.MainSegment()); main != nil {
		main.Colors[0], main.Colors[1] = st.Col, st.ColSec
	}
	r.SetBrightness(st.Bri)
	r.SetTransition(st.ConsumeTransition())
}

// presetField reads a preset id. Numbers outside 1-250 are ignored; strings
// go through the relative forms against cur.
func presetField(v patch.Value, cur int) (int, bool) {
	switch v.Kind() {
	case patch.KindNumber:
		n, ok := v.Int()
		if !ok || n < 1 || n > model.MaxPreset {
			return 0, false
		}
		return int(n), true
	case patch.KindString:
		return patch.Coerce(v, max(cur, 1), 1, model.MaxPreset)
	}
	return 0, false
}
