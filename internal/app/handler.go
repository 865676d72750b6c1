// Package app wires a bound form to asynchronous multipart submissions.
//
// A Handler suppresses the submission event's default action, snapshots the
// bound form, and posts the multipart body to the submit endpoint on its own
// goroutine. The outcome goes to the diagnostic log: any received response is
// "Success!" unless strict status is enabled, a transport failure is "Error:".
package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/okian/formsubmit/internal/domain/form"
	"github.com/okian/formsubmit/pkg/logger"
	"github.com/okian/formsubmit/pkg/metrics"
)

// Defaults for a handler built without options.
const (
	DefaultBaseURL    = "http://localhost:8080"
	DefaultSubmitPath = "/submit_form"

	// maxDrainBytes caps how much of an ignored response body is read so the
	// connection can be reused.
	maxDrainBytes = 64 << 10
)

// Form is the source of field values a handler submits.
type Form = form.Form

// Handler submits a bound form on every submission event.
type Handler struct {
	mu   sync.RWMutex
	form Form

	baseURL      string
	submitPath   string
	endpoint     string
	client       Doer
	timeout      time.Duration
	strictStatus bool

	inflight sync.WaitGroup

	logger  logger.Logger
	metrics *metrics.Manager
}

// New creates a handler. The form may be bound here with WithForm or later with Bind.
// Without WithLogger it logs to the global logger, or nowhere if none was initialized.
func New(opts ...Option) (*Handler, error) {
	h := &Handler{
		baseURL:    DefaultBaseURL,
		submitPath: DefaultSubmitPath,
		metrics:    metrics.Default(),
	}

	for _, opt := range opts {
		opt(h)
	}

	if h.logger == nil {
		h.logger = logger.Current().Named("submit")
	}
	if h.client == nil {
		h.client = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}

	endpoint, err := resolveEndpoint(h.baseURL, h.submitPath)
	if err != nil {
		return nil, err
	}
	h.endpoint = endpoint

	return h, nil
}

func resolveEndpoint(base, path string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidEndpoint, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: base URL %q is not absolute http(s)", ErrInvalidEndpoint, base)
	}
	ref, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidEndpoint, err)
	}
	return u.ResolveReference(ref).String(), nil
}

// Endpoint returns the resolved submit URL.
func (h *Handler) Endpoint() string { return h.endpoint }

// Bind attaches the form to submit. Binding nothing is reported, not panicked on.
func (h *Handler) Bind(f Form) error {
	if f == nil {
		h.logger.Warn(context.Background(), "no form to bind")
		return ErrNoForm
	}

	h.mu.Lock()
	h.form = f
	h.mu.Unlock()

	h.logger.Debug(context.Background(), "form bound", logger.String("endpoint", h.endpoint))
	return nil
}

// Bound reports whether a form is attached.
func (h *Handler) Bound() bool {
	return h.boundForm() != nil
}

func (h *Handler) boundForm() Form {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.form
}

// OnSubmit handles one submission event. The default action is always
// suppressed. The payload is taken synchronously; the request runs on its own
// goroutine and its Result is delivered on the returned channel, which is
// closed afterwards. Overlapping calls are independent of each other.
//
// The dispatch is detached from ctx cancellation; ctx values (trace spans)
// still flow into the request.
func (h *Handler) OnSubmit(ctx context.Context, ev Event) (<-chan Result, error) {
	return h.OnSubmitForm(ctx, ev, nil)
}

// OnSubmitForm is OnSubmit for a form state captured by the caller at event
// time. A nil f submits the bound form.
func (h *Handler) OnSubmitForm(ctx context.Context, ev Event, f Form) (<-chan Result, error) {
	if ev != nil {
		ev.PreventDefault()
		h.metrics.RecordDefaultPrevented()
	}
	h.metrics.RecordSubmission()

	if f == nil {
		f = h.boundForm()
	}
	id := uuid.NewString()
	enc, err := h.prepare(ctx, id, f)
	if err != nil {
		return nil, err
	}

	out := make(chan Result, 1)
	h.inflight.Add(1)
	go func() {
		defer h.inflight.Done()
		defer close(out)
		out <- h.send(context.WithoutCancel(ctx), id, enc)
	}()
	return out, nil
}

// Submit performs one submission and waits for it to settle.
func (h *Handler) Submit(ctx context.Context) Result {
	h.metrics.RecordSubmission()

	id := uuid.NewString()
	enc, err := h.prepare(ctx, id, h.boundForm())
	if err != nil {
		return Result{SubmissionID: id, Err: err}
	}
	return h.send(ctx, id, enc)
}

// Wait blocks until every dispatched submission has settled.
func (h *Handler) Wait() {
	h.inflight.Wait()
}

// prepare snapshots f and encodes it.
func (h *Handler) prepare(ctx context.Context, id string, f Form) (form.Encoded, error) {
	if f == nil {
		h.metrics.RecordUnbound()
		h.logger.Error(ctx, "Error:", logger.String("submission_id", id), logger.Error(ErrNotBound))
		return form.Encoded{}, ErrNotBound
	}

	payload := form.Snapshot(f)
	enc, err := payload.Encode()
	if err != nil {
		h.metrics.RecordEncodeError()
		h.logger.Error(ctx, "Error:", logger.String("submission_id", id), logger.Error(err))
		return form.Encoded{}, err
	}

	text, files := payload.Counts()
	h.metrics.RecordPayload(enc.Size, text, files)
	h.logger.Debug(ctx, "payload prepared",
		logger.String("submission_id", id),
		logger.Int("text_parts", text),
		logger.Int("file_parts", files),
		logger.Int("bytes", int(enc.Size)))
	return enc, nil
}

// send posts the encoded payload and logs exactly one outcome entry.
func (h *Handler) send(ctx context.Context, id string, enc form.Encoded) Result {
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	res := Result{SubmissionID: id}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, enc.Body)
	if err != nil {
		res.Err = fmt.Errorf("%w: %w", ErrTransport, err)
		h.metrics.RecordEncodeError()
		h.logger.Error(ctx, "Error:", logger.String("submission_id", id), logger.Error(res.Err))
		return res
	}
	req.Header.Set("Content-Type", enc.ContentType)

	h.metrics.RecordDispatch()
	start := time.Now()
	resp, err := h.client.Do(req)
	res.Duration = time.Since(start)

	if err != nil {
		res.Err = fmt.Errorf("%w: %w", ErrTransport, err)
		h.metrics.RecordSettled(metrics.OutcomeTransport, 0, res.Duration.Seconds())
		h.logger.Error(ctx, "Error:",
			logger.String("submission_id", id),
			logger.Duration("duration", res.Duration),
			logger.Error(err))
		return res
	}

	res.StatusCode = resp.StatusCode
	_, _ = io.CopyN(io.Discard, resp.Body, maxDrainBytes)
	_ = resp.Body.Close()

	if h.strictStatus && (resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices) {
		res.Err = fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
		h.metrics.RecordSettled(metrics.OutcomeStatus, resp.StatusCode, res.Duration.Seconds())
		h.logger.Error(ctx, "Error:",
			logger.String("submission_id", id),
			logger.Int("status", resp.StatusCode),
			logger.Duration("duration", res.Duration),
			logger.Error(res.Err))
		return res
	}

	h.metrics.RecordSettled(metrics.OutcomeCompleted, resp.StatusCode, res.Duration.Seconds())
	h.logger.Info(ctx, "Success!",
		logger.String("submission_id", id),
		logger.Int("status", resp.StatusCode),
		logger.Duration("duration", res.Duration))
	return res
}
