package app

import "sync/atomic"

// Event is a submission event whose default action (navigation) can be suppressed.
type Event interface {
	PreventDefault()
}

// LocalEvent is an in-process Event that records suppression.
type LocalEvent struct {
	prevented atomic.Bool
}

// NewEvent returns a fresh LocalEvent.
func NewEvent() *LocalEvent { return &LocalEvent{} }

// PreventDefault marks the default action as suppressed.
func (e *LocalEvent) PreventDefault() { e.prevented.Store(true) }

// DefaultPrevented reports whether PreventDefault was called.
func (e *LocalEvent) DefaultPrevented() bool { return e.prevented.Load() }
