package loadgen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/okian/huddle/internal/domain/types"
)

// ErrStatus is returned when the server answers with an unexpected status.
var ErrStatus = errors.New("unexpected status")

// Client is a thin JSON client for the huddle HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client with the given request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// Health checks GET /healthz.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, http.StatusOK, nil)
}

// CreateEvent posts a new event.
func (c *Client) CreateEvent(ctx context.Context, req *types.CreateEventRequest) (types.Event, error) {
	var out types.EventResponse
	if err := c.do(ctx, http.MethodPost, "/events", req, http.StatusCreated, &out); err != nil {
		return types.Event{}, err
	}
	return out.Event, nil
}

// Event reads an event with its roster and heatmap.
func (c *Client) Event(ctx context.Context, slug string) (types.EventView, error) {
	var out types.EventView
	err := c.do(ctx, http.MethodGet, "/events/"+url.PathEscape(slug), nil, http.StatusOK, &out)
	return out, err
}

// Submit replaces one participant's availability.
func (c *Client) Submit(ctx context.Context, slug string, req *types.SubmitAvailabilityRequest) (types.SubmitAvailabilityResponse, error) {
	var out types.SubmitAvailabilityResponse
	err := c.do(ctx, http.MethodPost, "/events/"+url.PathEscape(slug)+"/availability", req, http.StatusOK, &out)
	return out, err
}

// Availability lists the raw records of an event.
func (c *Client) Availability(ctx context.Context, slug string) ([]types.AvailabilityEntry, error) {
	var out types.AvailabilityResponse
	if err := c.do(ctx, http.MethodGet, "/events/"+url.PathEscape(slug)+"/availability", nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return out.Availabilities, nil
}

// BestTimes fetches the ranked windows of an event.
func (c *Client) BestTimes(ctx context.Context, slug string, top, minDuration int) (types.BestTimesResponse, error) {
	q := url.Values{}
	q.Set("top", strconv.Itoa(top))
	q.Set("min_duration", strconv.Itoa(minDuration))

	var out types.BestTimesResponse
	err := c.do(ctx, http.MethodGet, "/events/"+url.PathEscape(slug)+"/best-times?"+q.Encode(), nil, http.StatusOK, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, body any, want int, out any) error {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		rd = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != want {
		var apiErr types.ErrorResponse
		_ = json.Unmarshal(data, &apiErr)
		return fmt.Errorf("%w: %s %s: %d %s", ErrStatus, method, path, resp.StatusCode, apiErr.Message)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
