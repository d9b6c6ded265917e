// Package playlist cycles through a list of presets on a timer.
package playlist

import (
	"errors"
	"math/rand/v2"
	"time"

	"led-json-bridge/internal/domain/model"
	"led-json-bridge/internal/domain/patch"
)

var ErrEmptyPlaylist = errors.New("playlist: no valid presets")

const (
	// DefaultDuration is used for entries without a duration.
	DefaultDuration = 10 * time.Second
	// MaxEntries caps the number of entries in one playlist.
	MaxEntries = 100
)

type Entry struct {
	Preset     int
	Duration   time.Duration // 0 holds the entry until the playlist is replaced
	Transition time.Duration
}

// Playlist is the loaded descriptor plus its cursor. It is not safe for
// concurrent use.
type Playlist struct {
	// ID is the preset the playlist was loaded from, 0 for a direct request.
	ID int

	entries []Entry
	// repeat counts the remaining passes, 0 means forever.
	repeat  int
	end     int
	shuffle bool

	index   int
	due     time.Time
	current time.Duration
	done    bool

	shuffleFn func(n int, swap func(i, j int))
}

// Parse reads a playlist descriptor. ps and dur and transition may each be an
// array or a single value; a single value applies to every entry. Durations
// and transitions are in 100 ms units. Entries missing a transition use
// defaultTransition.
func Parse(desc patch.Object, presetID int, defaultTransition time.Duration) (*Playlist, error) {
	ids := collect(desc.Get("ps"))
	durs := collect(desc.Get("dur"))
	trans := collect(desc.Get("transition"))

	p := &Playlist{
		ID:        presetID,
		index:     -1,
		shuffleFn: rand.Shuffle,
	}
	for i, v := range ids {
		if len(p.entries) == MaxEntries {
			break
		}
		id, ok := v.Int()
		if !ok || id < 1 || id > model.MaxPreset {
			continue
		}
		e := Entry{
			Preset:     int(id),
			Duration:   DefaultDuration,
			Transition: defaultTransition,
		}
		if d, ok := pick(durs, i).Int(); ok && d >= 0 {
			e.Duration = time.Duration(min(d, 0xFFFF)) * model.TransitionUnit
		}
		if tr, ok := pick(trans, i).Int(); ok && tr >= 0 {
			e.Transition = time.Duration(min(tr, 0xFFFF)) * model.TransitionUnit
		}
		p.entries = append(p.entries, e)
	}
	if len(p.entries) == 0 {
		return nil, ErrEmptyPlaylist
	}

	if rep, ok := desc.Get("repeat").Int(); ok && rep > 0 {
		// The first pass consumes one count.
		p.repeat = int(rep) + 1
	}
	if end, ok := desc.Get("end").Int(); ok && end >= 1 && end <= model.MaxPreset {
		p.end = int(end)
	}
	p.shuffle = desc.Get("r").Truthy()
	return p, nil
}

// collect returns the elements of an array or a single present value.
func collect(v patch.Value) []patch.Value {
	if arr, ok := v.Array(); ok {
		out := make([]patch.Value, arr.Len())
		for i := range out {
			out[i] = arr.At(i)
		}
		return out
	}
	if k := v.Kind(); k == patch.KindAbsent || k == patch.KindNull {
		return nil
	}
	return []patch.Value{v}
}

// pick returns the i-th value, the last one for short arrays, or absent.
func pick(vals []patch.Value, i int) patch.Value {
	if len(vals) == 0 {
		return patch.Absent()
	}
	return vals[min(i, len(vals)-1)]
}

func (p *Playlist) Len() int { return len(p.entries) }

func (p *Playlist) Entries() []Entry {
	return append([]Entry(nil), p.entries...)
}

// End is the preset applied once the playlist completes, 0 for none.
func (p *Playlist) End() int { return p.end }

func (p *Playlist) Done() bool { return p.done }

// Next returns the entry to apply when the current one has run its course.
// The first call always yields an entry. Once the last pass ends it reports
// false and Done turns true.
func (p *Playlist) Next(now time.Time) (Entry, bool) {
	if p.done {
		return Entry{}, false
	}
	if p.index >= 0 && (p.current == 0 || now.Before(p.due)) {
		return Entry{}, false
	}

	p.index = (p.index + 1) % len(p.entries)
	if p.index == 0 {
		if p.repeat == 1 {
			p.done = true
			return Entry{}, false
		}
		if p.repeat > 1 {
			p.repeat--
		}
		if p.shuffle {
			p.shuffleFn(len(p.entries), func(i, j int) {
				p.entries[i], p.entries[j] = p.entries[j], p.entries[i]
			})
		}
	}

	e := p.entries[p.index]
	p.current = e.Duration
	p.due = now.Add(e.Duration)
	return e, true
}

// Hold restarts the running entry's timer without advancing.
func (p *Playlist) Hold(now time.Time) {
	if p.index >= 0 {
		p.due = now.Add(p.current)
	}
}
