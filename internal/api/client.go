package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"platter/internal/controller"
)

// Client talks to a running daemon over its HTTP API.
type Client struct {
	base string
	http *http.Client
}

// NewClient builds a client for the given bind address (host:port).
func NewClient(bind string) *Client {
	bind = strings.TrimSpace(bind)
	bind = strings.TrimPrefix(bind, "http://")
	return &Client{
		base: "http://" + bind,
		http: &http.Client{Timeout: 30 * time.Second},
	}
}

// Status fetches the daemon status.
func (c *Client) Status(ctx context.Context) (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.get(ctx, "/api/status", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Convert submits a conversion request.
func (c *Client) Convert(ctx context.Context, req ConvertRequest) (*ConvertResponse, error) {
	var resp ConvertResponse
	if err := c.post(ctx, "/api/convert", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Cancel requests termination of the active job.
func (c *Client) Cancel(ctx context.Context) (*CancelResponse, error) {
	var resp CancelResponse
	if err := c.post(ctx, "/api/cancel", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Drives lists candidate source volumes visible to the daemon.
func (c *Client) Drives(ctx context.Context) (*DrivesResponse, error) {
	var resp DrivesResponse
	if err := c.get(ctx, "/api/drives", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// History lists recorded outcomes, newest first.
func (c *Client) History(ctx context.Context, limit int) (*HistoryResponse, error) {
	path := "/api/history"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var resp HistoryResponse
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Watch streams job state snapshots over the events websocket until the
// context is cancelled, the connection drops, or onState returns false.
func (c *Client) Watch(ctx context.Context, onState func(controller.State) bool) error {
	endpoint, err := url.Parse(c.base + "/api/events")
	if err != nil {
		return fmt.Errorf("parse events url: %w", err)
	}
	endpoint.Scheme = "ws"

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint.String(), nil)
	if err != nil {
		return fmt.Errorf("dial events: %w", err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	for {
		var state controller.State
		if err := conn.ReadJSON(&state); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read event: %w", err)
		}
		if !onState(state) {
			return nil
		}
	}
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("daemon unreachable at %s: %w", c.base, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr ErrorResponse
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Error != "" {
			return fmt.Errorf("%s", apiErr.Error)
		}
		return fmt.Errorf("daemon returned status %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
