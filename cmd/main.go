package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/okian/formsubmit/internal/app"
	"github.com/okian/formsubmit/internal/config"
	"github.com/okian/formsubmit/internal/domain/form"
	"github.com/okian/formsubmit/pkg/logger"
	"github.com/okian/formsubmit/pkg/metrics"
	"github.com/okian/formsubmit/pkg/tracing"
)

const (
	serviceName     = "formsubmit"
	shutdownTimeout = 5 * time.Second
)

// Exit codes.
const (
	exitOK      = 0
	exitFailed  = 1
	exitUsage   = 2
	exitPartial = 3
)

// assignments collects repeatable name=value flags.
type assignments []string

func (a *assignments) String() string { return strings.Join(*a, ",") }

func (a *assignments) Set(v string) error {
	*a = append(*a, v)
	return nil
}

// cliFlags holds parsed command line overrides.
type cliFlags struct {
	formFile string
	baseURL  string
	n        int
	strict   bool
	fields   assignments
	files    assignments
	set      map[string]bool
}

func parseFlags(args []string, out io.Writer) (*cliFlags, error) {
	fs := flag.NewFlagSet(serviceName, flag.ContinueOnError)
	fs.SetOutput(out)

	f := &cliFlags{set: map[string]bool{}}
	fs.StringVar(&f.formFile, "form", "", "YAML form definition")
	fs.StringVar(&f.baseURL, "url", "", "base URL the submit path resolves against")
	fs.IntVar(&f.n, "n", 1, "number of submissions to fire without waiting")
	fs.BoolVar(&f.strict, "strict", false, "log non-2xx responses as errors")
	fs.Var(&f.fields, "field", "text field name=value (repeatable)")
	fs.Var(&f.files, "file", "file field name=path (repeatable)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(fl *flag.Flag) { f.set[fl.Name] = true })
	return f, nil
}

// apply overrides cfg with explicitly set flags.
func (f *cliFlags) apply(cfg *config.Config) {
	if f.set["form"] {
		cfg.FormFile = f.formFile
	}
	if f.set["url"] {
		cfg.BaseURL = f.baseURL
	}
	if f.set["n"] {
		cfg.Submissions = f.n
	}
	if f.set["strict"] {
		cfg.StrictStatus = f.strict
	}
}

// buildForm loads the definition, if any, and appends flag fields after it.
func buildForm(cfg *config.Config, f *cliFlags) (*form.StaticForm, error) {
	fm := form.NewStatic()
	if cfg.FormFile != "" {
		loaded, err := form.LoadDefinition(cfg.FormFile)
		if err != nil {
			return nil, err
		}
		fm = loaded
	}

	for _, arg := range f.fields {
		name, value, err := form.ParseAssignment(arg)
		if err != nil {
			return nil, err
		}
		if err := fm.Add(name, value); err != nil {
			return nil, err
		}
	}
	for _, arg := range f.files {
		name, path, err := form.ParseAssignment(arg)
		if err != nil {
			return nil, err
		}
		field, err := form.LoadFile(name, path)
		if err != nil {
			return nil, err
		}
		if err := fm.AddFile(name, *field.File); err != nil {
			return nil, err
		}
	}
	return fm, nil
}

func run(ctx context.Context, args []string, stderr io.Writer) int {
	flags, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	if err != nil {
		return exitUsage
	}

	log := logger.Get()

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Error(ctx, "failed to load config", logger.Error(err))
		return exitFailed
	}
	flags.apply(cfg)
	if err := cfg.Validate(); err != nil {
		log.Error(ctx, "invalid configuration", logger.Error(err))
		return exitUsage
	}

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	shutdown, err := tracing.Init(ctx, tracing.Options{
		Enabled:     cfg.TracingEnabled,
		Protocol:    cfg.OTLPProtocol,
		ServiceName: serviceName,
	}, log)
	if err != nil {
		log.Warn(ctx, "tracing not started", logger.Error(err))
		shutdown = func(context.Context) error { return nil }
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := shutdown(sctx); err != nil {
			log.Warn(ctx, "tracing shutdown failed", logger.Error(err))
		}
	}()

	fm, err := buildForm(cfg, flags)
	if err != nil {
		log.Error(ctx, "failed to build form", logger.Error(err))
		return exitUsage
	}

	h, err := app.New(
		app.WithBaseURL(cfg.BaseURL),
		app.WithSubmitPath(cfg.SubmitPath),
		app.WithTimeout(cfg.Timeout()),
		app.WithStrictStatus(cfg.StrictStatus),
		app.WithLogger(log.Named("submit")),
	)
	if err != nil {
		log.Error(ctx, "failed to create submit handler", logger.Error(err))
		return exitFailed
	}
	if err := h.Bind(fm); err != nil {
		log.Error(ctx, "failed to bind form", logger.Error(err))
		return exitFailed
	}

	log.Info(ctx, "submitting form",
		logger.String("endpoint", h.Endpoint()),
		logger.Int("fields", fm.Len()),
		logger.Int("submissions", cfg.Submissions))

	results := make([]<-chan app.Result, 0, cfg.Submissions)
	for i := 0; i < cfg.Submissions; i++ {
		ch, err := h.OnSubmit(ctx, app.NewEvent())
		if err != nil {
			return exitFailed
		}
		results = append(results, ch)
	}
	h.Wait()

	failed := 0
	for _, ch := range results {
		if res := <-ch; !res.OK() {
			failed++
		}
	}

	if cfg.MetricsFile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
			log.Error(ctx, "failed to write metrics", logger.String("path", cfg.MetricsFile), logger.Error(err))
		}
	}

	switch {
	case failed == 0:
		return exitOK
	case failed == len(results):
		return exitFailed
	default:
		return exitPartial
	}
}

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(exitFailed)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stderr)
	stop()

	if err := logger.Sync(); err != nil {
		fmt.Fprintln(os.Stderr, "failed to sync logs:", err)
	}
	os.Exit(code)
}
