//go:build js && wasm

// Package dom binds a browser form element to an app.Handler.
package dom

import (
	"context"
	"fmt"
	"syscall/js"

	"github.com/okian/formsubmit/internal/app"
	"github.com/okian/formsubmit/internal/domain/form"
	"github.com/okian/formsubmit/pkg/logger"
)

// Document returns the global document.
func Document() js.Value {
	return js.Global().Get("document")
}

// Origin returns window.location.origin, the base every submission resolves against.
func Origin() string {
	return js.Global().Get("location").Get("origin").String()
}

// FirstForm returns the first form element of document.
func FirstForm(document js.Value) (js.Value, error) {
	if !isObject(document) {
		return js.Undefined(), ErrNotElement
	}
	el := document.Call("querySelector", "form")
	if !isObject(el) {
		return js.Undefined(), ErrNoForm
	}
	return el, nil
}

func isObject(v js.Value) bool {
	return !v.IsUndefined() && !v.IsNull()
}

// Event wraps a DOM submit event.
type Event struct {
	v js.Value
}

// PreventDefault suppresses the browser's own form submission.
func (e Event) PreventDefault() {
	e.v.Call("preventDefault")
}

// Form reads a form element's current fields through FormData.
type Form struct {
	el     js.Value
	logger logger.Logger
}

// NewForm wraps a form element.
func NewForm(el js.Value, log logger.Logger) (*Form, error) {
	if !isObject(el) {
		return nil, ErrNotElement
	}
	return &Form{el: el, logger: log}, nil
}

// Fields captures the element's entries and reads their file contents.
func (f *Form) Fields() []form.Field {
	return f.Capture().Fields()
}

// Capture walks new FormData(el) in document order. It is synchronous, so a
// submit listener sees the form as it was when the event fired; file entries
// keep their Blob references and are read later by Fields.
func (f *Form) Capture() *Capture {
	return captureFormData(js.Global().Get("FormData").New(f.el), f.logger)
}

// entry is one captured FormData pair.
type entry struct {
	name string
	text string
	blob js.Value
	file bool
}

// Capture is a form state taken at submission time.
type Capture struct {
	entries []entry
	logger  logger.Logger
}

func captureFormData(fd js.Value, log logger.Logger) *Capture {
	c := &Capture{logger: log}
	it := fd.Call("entries")
	for {
		next := it.Call("next")
		if next.Get("done").Bool() {
			break
		}
		pair := next.Get("value")
		name := pair.Index(0).String()
		value := pair.Index(1)

		if value.Type() == js.TypeString {
			c.entries = append(c.entries, entry{name: name, text: value.String()})
			continue
		}
		c.entries = append(c.entries, entry{name: name, blob: value, file: true})
	}
	return c
}

// Fields returns the captured entries, reading File contents with
// Blob.arrayBuffer. It must not run on the event loop goroutine.
func (c *Capture) Fields() []form.Field {
	fields := make([]form.Field, 0, len(c.entries))
	for _, e := range c.entries {
		if !e.file {
			fields = append(fields, form.Text(e.name, e.text))
			continue
		}

		content, err := readBlob(e.blob)
		if err != nil {
			c.logger.Warn(context.Background(), "file field unreadable",
				logger.String("field", e.name), logger.Error(err))
		}
		fields = append(fields, form.FileField(e.name, e.blob.Get("name").String(), e.blob.Get("type").String(), content))
	}
	return fields
}

func readBlob(blob js.Value) ([]byte, error) {
	if blob.Get("size").Int() == 0 {
		return nil, nil
	}
	buf, err := await(blob.Call("arrayBuffer"))
	if err != nil {
		return nil, err
	}
	arr := js.Global().Get("Uint8Array").New(buf)
	out := make([]byte, arr.Get("length").Int())
	js.CopyBytesToGo(out, arr)
	return out, nil
}

func await(promise js.Value) (js.Value, error) {
	type settled struct {
		v   js.Value
		err error
	}
	ch := make(chan settled, 1)

	onResolve := js.FuncOf(func(_ js.Value, args []js.Value) any {
		ch <- settled{v: args[0]}
		return nil
	})
	defer onResolve.Release()
	onReject := js.FuncOf(func(_ js.Value, args []js.Value) any {
		ch <- settled{err: fmt.Errorf("%w: %s", ErrPromise, args[0].Call("toString").String())}
		return nil
	})
	defer onReject.Release()

	promise.Call("then", onResolve, onReject)
	s := <-ch
	return s.v, s.err
}

// Bind binds el to h and registers a submit listener. The returned func
// removes the listener.
func Bind(ctx context.Context, el js.Value, h *app.Handler) (func(), error) {
	f, err := NewForm(el, logger.Current().Named("dom"))
	if err != nil {
		return nil, err
	}
	if err := h.Bind(f); err != nil {
		return nil, err
	}

	listener := js.FuncOf(func(_ js.Value, args []js.Value) any {
		ev := Event{v: args[0]}
		// both must happen before the callback returns: the browser navigates
		// and later listeners may reset the form
		ev.PreventDefault()
		snap := f.Capture()
		go func() {
			if _, err := h.OnSubmitForm(ctx, ev, snap); err != nil {
				logger.Current().Error(ctx, "submission not dispatched", logger.Error(err))
			}
		}()
		return nil
	})
	el.Call("addEventListener", "submit", listener)

	return func() {
		el.Call("removeEventListener", "submit", listener)
		listener.Release()
	}, nil
}
