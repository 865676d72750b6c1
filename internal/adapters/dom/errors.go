//go:build js && wasm

package dom

import "errors"

var (
	// ErrNoForm is returned when the document has no form element.
	ErrNoForm = errors.New("no form element in document")
	// ErrNotElement is returned when a binding target is null or undefined.
	ErrNotElement = errors.New("value is not a DOM element")
	// ErrPromise is returned when an awaited promise rejects.
	ErrPromise = errors.New("promise rejected")
)
