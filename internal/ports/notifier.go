package ports

import "led-json-bridge/internal/domain/model"

// StateEvent describes a committed state change.
type StateEvent struct {
	CallMode model.CallMode
	On       bool
	Bri      uint8
	Primary  model.Color
	SyncSend bool
	// Document is the encoded state snapshot. Receivers share it and must
	// not modify it.
	Document []byte
}

// Notifier is told about every committed state change, after the staging
// buffer has been released.
type Notifier interface {
	StateChanged(ev StateEvent)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ev StateEvent)

func (f NotifierFunc) StateChanged(ev StateEvent) {
	f(ev)
}
