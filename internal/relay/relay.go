// Package relay forwards booking reads and writes to the upstream scheduling
// service so the browser never calls it cross-origin. It holds no state and
// does not validate payload shape.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/consult-booking/internal/observability/metrics"
	"github.com/wolfman30/consult-booking/pkg/logging"
)

var relayTracer = otel.Tracer("consult.internal.relay")

const (
	opRead  = "read"
	opWrite = "write"

	getBookingsAction = "getBookings"
	maxBodyBytes      = 1 << 20
)

var (
	errInvalidJSON         = errors.New("request body is not valid JSON")
	errUpstreamNotJSON     = errors.New("upstream returned a non-JSON body")
	errEmptyUpstreamResult = errors.New("upstream returned an empty body")
)

// Config wires a Handler.
type Config struct {
	UpstreamURL string
	// HTTPClient overrides the instrumented default client.
	HTTPClient *http.Client
	// Timeout bounds each upstream call when HTTPClient is nil. Zero disables it.
	Timeout time.Duration
	Metrics *metrics.RelayMetrics
	Logger  *logging.Logger
}

// Handler serves GET and POST /api/booking.
type Handler struct {
	upstreamURL string
	client      *http.Client
	metrics     *metrics.RelayMetrics
	logger      *logging.Logger
}

// NewHandler creates a relay handler. An empty UpstreamURL is accepted; each
// request then fails at transport time and is reported as a 500.
func NewHandler(cfg Config) *Handler {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	return &Handler{
		upstreamURL: cfg.UpstreamURL,
		client:      client,
		metrics:     cfg.Metrics,
		logger:      cfg.Logger.Component("relay"),
	}
}

// Read handles GET /api/booking: fetch the booked slots list.
func (h *Handler) Read(w http.ResponseWriter, r *http.Request) {
	body, err := h.forward(r.Context(), opRead, http.MethodGet, readURL(h.upstreamURL), nil)
	h.respond(w, opRead, body, err)
}

// Write handles POST /api/booking: forward the booking payload verbatim.
func (h *Handler) Write(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.respond(w, opWrite, nil, fmt.Errorf("read request body: %w", err))
		return
	}
	if !json.Valid(payload) {
		h.respond(w, opWrite, nil, errInvalidJSON)
		return
	}
	body, err := h.forward(r.Context(), opWrite, http.MethodPost, h.upstreamURL, payload)
	h.respond(w, opWrite, body, err)
}

// readURL appends action=getBookings, keeping any query already on the URL.
func readURL(base string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base + "?action=" + getBookingsAction
	}
	q := u.Query()
	q.Set("action", getBookingsAction)
	u.RawQuery = q.Encode()
	return u.String()
}

func (h *Handler) forward(ctx context.Context, op, method, target string, payload []byte) ([]byte, error) {
	ctx, span := relayTracer.Start(ctx, "relay."+op)
	defer span.End()
	span.SetAttributes(attribute.String("relay.operation", op))

	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return nil, recordFailure(span, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if method == http.MethodGet {
		req.Header.Set("Cache-Control", "no-store")
	}
	if payload != nil {
		// Apps Script reads the raw contents; text/plain keeps it from
		// attempting form decoding.
		req.Header.Set("Content-Type", "text/plain;charset=utf-8")
	}

	start := time.Now()
	resp, err := h.client.Do(req)
	if err != nil {
		h.metrics.ObserveUpstream(op, 0, time.Since(start).Seconds())
		return nil, recordFailure(span, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	h.metrics.ObserveUpstream(op, resp.StatusCode, time.Since(start).Seconds())
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	if err != nil {
		return nil, recordFailure(span, fmt.Errorf("read upstream response: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		h.logger.Warn("upstream non-2xx response", "operation", op, "status", resp.StatusCode)
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, recordFailure(span, errEmptyUpstreamResult)
	}
	if !json.Valid(body) {
		return nil, recordFailure(span, fmt.Errorf("%w (status %d)", errUpstreamNotJSON, resp.StatusCode))
	}
	return body, nil
}

func recordFailure(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func (h *Handler) respond(w http.ResponseWriter, op string, body []byte, err error) {
	if err != nil {
		h.logger.Error("relay failed", "operation", op, "error", err)
		h.metrics.ObserveRequest(op, "error")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	h.metrics.ObserveRequest(op, "ok")
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
