//go:build js && wasm

// Command wasm hosts the form submit handler in a browser page.
package main

import (
	"context"
	"os"

	"github.com/okian/formsubmit/internal/adapters/dom"
	"github.com/okian/formsubmit/internal/app"
	"github.com/okian/formsubmit/pkg/logger"
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	log := logger.Get()
	ctx := context.Background()

	h, err := app.New(app.WithBaseURL(dom.Origin()))
	if err != nil {
		log.Error(ctx, "failed to create submit handler", logger.Error(err))
		return
	}

	el, err := dom.FirstForm(dom.Document())
	if err != nil {
		// nothing to submit; keep the runtime alive
		log.Warn(ctx, "form handler not bound", logger.Error(err))
		select {}
	}

	if _, err := dom.Bind(ctx, el, h); err != nil {
		log.Error(ctx, "failed to bind form", logger.Error(err))
		return
	}
	log.Info(ctx, "form handler bound", logger.String("endpoint", h.Endpoint()))

	select {}
}
