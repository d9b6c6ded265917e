package model

import "time"

// CallMode tells collaborators where a state change came from.
type CallMode uint8

const (
	CallModeInit CallMode = iota
	CallModeDirectChange
	CallModeButton
	CallModeNotification
	CallModeNightlight
	CallModeNoNotify
	CallModeFXChanged
	CallModeHue
	CallModePresetCycle
	CallModeBlynk
	CallModeAlexa
	CallModeWSSend
	CallModeButtonPreset
)

// Notifies reports whether a change with this call mode should be sent to sync peers.
func (m CallMode) Notifies() bool {
	switch m {
	case CallModeNoNotify, CallModeNotification, CallModeInit:
		return false
	}
	return true
}

// RealtimeOverride bounds how incoming realtime takeover is honored.
type RealtimeOverride uint8

const (
	RealtimeOverrideNone RealtimeOverride = iota
	RealtimeOverrideAlways
	RealtimeOverrideOnce
)

// TransitionUnit is the wire unit of transition durations.
const TransitionUnit = 100 * time.Millisecond

const (
	NightlightInstant uint8 = iota
	NightlightFade
	NightlightColorFade
	NightlightSunrise
)

const (
	// MaxPreset is the highest preset id.
	MaxPreset = 250

	DefaultBrightness = 128
	DefaultTransition = 700 * time.Millisecond
	NoPlaylist        = -1
)

type Nightlight struct {
	Active       bool
	DurationMins uint8
	Mode         uint8
	TargetBri    uint8
	// StartBri is the brightness when the nightlight was switched on.
	StartBri uint8
	Started  time.Time
}

// Progress is the elapsed share of the nightlight duration, in [0, 1].
func (n Nightlight) Progress(now time.Time) float64 {
	total := time.Duration(n.DurationMins) * time.Minute
	if total <= 0 {
		return 1
	}
	p := float64(now.Sub(n.Started)) / float64(total)
	return min(max(p, 0), 1)
}

// Remaining is the whole number of seconds left, or -1 when inactive.
func (n Nightlight) Remaining(now time.Time) int {
	if !n.Active {
		return -1
	}
	left := time.Duration(n.DurationMins)*time.Minute - now.Sub(n.Started)
	if left < 0 {
		return 0
	}
	return int(left / time.Second)
}

type SyncFlags struct {
	Send    bool
	Receive bool
}

// State is the process-wide runtime state. It is owned by the calling layer
// and passed by reference into every decode and encode.
type State struct {
	Bri     uint8
	BriLast uint8

	// Col and ColSec mirror slots 0 and 1 of the main segment.
	Col    Color
	ColSec Color

	TransitionDefault time.Duration
	Transition        time.Duration
	TransitionTemp    time.Duration
	TransitionOnce    bool

	Nightlight Nightlight
	Sync       SyncFlags

	RealtimeOverride RealtimeOverride
	RealtimeActive   bool

	CurrentPreset   int
	CurrentPlaylist int
}

func NewState() *State {
	return &State{
		Bri:               DefaultBrightness,
		BriLast:           DefaultBrightness,
		Col:               DefaultColor,
		TransitionDefault: DefaultTransition,
		Transition:        DefaultTransition,
		TransitionTemp:    DefaultTransition,
		Nightlight:        Nightlight{DurationMins: 60, TargetBri: 0},
		Sync:              SyncFlags{Receive: true},
		CurrentPlaylist:   NoPlaylist,
	}
}

func (s *State) On() bool {
	return s.Bri > 0
}

// ToggleOnOff restores the last brightness or remembers it and turns off.
func (s *State) ToggleOnOff() {
	if s.Bri == 0 {
		s.Bri = s.BriLast
		return
	}
	s.BriLast = s.Bri
	s.Bri = 0
}

// ConsumeTransition returns the duration for the next change. A one-shot
// duration reverts to the persistent one after this call.
func (s *State) ConsumeTransition() time.Duration {
	d := s.TransitionTemp
	if s.TransitionOnce {
		s.TransitionOnce = false
		s.TransitionTemp = s.Transition
	}
	return d
}
