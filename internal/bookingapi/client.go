package bookingapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wolfman30/consult-booking/pkg/logging"
)

// DefaultEndpoint is the relay served by cmd/api on its default port.
const DefaultEndpoint = "http://localhost:8080/api/booking"

// Options tunes a Client.
type Options struct {
	HTTPClient *http.Client
	// Timeout applies when HTTPClient is nil. Zero waits indefinitely.
	Timeout time.Duration
	Logger  *logging.Logger
}

// Client calls the booking relay.
type Client struct {
	httpClient *http.Client
	endpoint   string
	logger     *logging.Logger
}

// NewClient constructs a relay client for endpoint, e.g. "https://coach.example/api/booking".
func NewClient(endpoint string, opts Options) *Client {
	if strings.TrimSpace(endpoint) == "" {
		endpoint = DefaultEndpoint
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &Client{
		httpClient: httpClient,
		endpoint:   endpoint,
		logger:     logger,
	}
}

// Bookings fetches the raw booked records.
func (c *Client) Bookings(ctx context.Context) ([]string, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}
	q := u.Query()
	q.Set("action", ActionGetBookings)
	u.RawQuery = q.Encode()

	var resp BookingsResponse
	status, err := c.doJSON(ctx, http.MethodGet, u.String(), nil, &resp)
	if err != nil {
		return nil, fmt.Errorf("get bookings: %w", err)
	}
	if resp.Error != "" || status < 200 || status > 299 {
		return nil, fmt.Errorf("get bookings: %w: status %d: %s", ErrUpstream, status, resp.Error)
	}
	return resp.Booked, nil
}

// Book submits a booking. The returned Status is whatever the backend reported;
// callers treat anything other than StatusOK and StatusTaken as a failure.
func (c *Client) Book(ctx context.Context, req BookingRequest) (Status, error) {
	if req.Action == "" {
		req.Action = ActionBook
	}
	var resp BookResponse
	status, err := c.doJSON(ctx, http.MethodPost, c.endpoint, req, &resp)
	if err != nil {
		return "", fmt.Errorf("book: %w", err)
	}
	if resp.Status == "" && resp.Error != "" {
		c.logger.Warn("booking relay returned error", "status", status, "error", resp.Error)
	}
	return resp.Status, nil
}

func (c *Client) doJSON(ctx context.Context, method, endpoint string, body interface{}, out interface{}) (int, error) {
	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	// Error statuses still carry a JSON body ({"error": ...}) worth decoding.
	if err := json.Unmarshal(respBody, out); err != nil {
		msg := string(respBody)
		if len(msg) > 300 {
			msg = msg[:300]
		}
		c.logger.Warn("booking relay returned non-JSON body", "status", resp.StatusCode, "body", msg)
		return resp.StatusCode, fmt.Errorf("%w: status %d: %v", ErrBadResponse, resp.StatusCode, err)
	}
	return resp.StatusCode, nil
}
