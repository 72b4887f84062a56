// Package client provides proxy handles to objects hosted by an inferd
// daemon. A proxy holds no state beyond the daemon endpoint; its lifetime is
// bounded by the daemon's. Calls block until the daemon answers, the context
// is done, or the per-call timeout fires (reported as a lost connection).
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"inferd/pkg/types"
)

// DefaultCallTimeout bounds each remote call unless overridden.
const DefaultCallTimeout = 30 * time.Second

// Client talks to one inferd daemon.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	callTimeout time.Duration
}

// Option customizes a Client.
type Option func(*Client)

// WithCallTimeout sets the per-call timeout (0 disables it; the caller's
// context then provides the only deadline).
func WithCallTimeout(d time.Duration) Option {
	return func(c *Client) { c.callTimeout = d }
}

// WithHTTPClient substitutes the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// New constructs a client for the daemon at baseURL (e.g. http://127.0.0.1:8080).
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		// Timeout intentionally 0: every call carries a context deadline.
		httpClient:  &http.Client{Timeout: 0},
		callTimeout: DefaultCallTimeout,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// BaseURL returns the daemon endpoint this client targets.
func (c *Client) BaseURL() string { return c.baseURL }

// Model returns a proxy for the named hosted model.
func (c *Client) Model(name string) *ModelProxy {
	return &ModelProxy{c: c, name: name}
}

// Collection returns a proxy for the named hosted collection.
func (c *Client) Collection(name string) *CollectionProxy {
	return &CollectionProxy{c: c, name: name}
}

// Create instantiates the named registered object inside the daemon.
func (c *Client) Create(ctx context.Context, name string) (types.CreateResponse, error) {
	var out types.CreateResponse
	err := c.do(ctx, http.MethodPost, "/v1/objects/"+name, nil, &out)
	return out, err
}

// Objects lists registered objects and their states.
func (c *Client) Objects(ctx context.Context) ([]types.ObjectStatus, error) {
	var out types.ObjectsResponse
	if err := c.do(ctx, http.MethodGet, "/v1/objects", nil, &out); err != nil {
		return nil, err
	}
	return out.Objects, nil
}

// Status fetches the daemon status snapshot.
func (c *Client) Status(ctx context.Context) (types.StatusResponse, error) {
	var out types.StatusResponse
	err := c.do(ctx, http.MethodGet, "/status", nil, &out)
	return out, err
}

// Healthy reports whether the daemon answers its health endpoint.
func (c *Client) Healthy(ctx context.Context) bool {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil) == nil
}

// Ready reports whether the daemon's default model can serve predictions.
func (c *Client) Ready(ctx context.Context) bool {
	return c.do(ctx, http.MethodGet, "/readyz", nil, nil) == nil
}

// do performs one remote call: marshal, send, classify failure, decode.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return serializationError{err: err}
		}
		rd = bytes.NewReader(b)
	}
	if c.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.callTimeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return serializationError{err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Call-ID", uuid.NewString())
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return connectionLostError{err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeRemoteError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return serializationError{err: err}
	}
	return nil
}

// decodeRemoteError rehydrates the host's error classification from the
// JSON payload, falling back to the HTTP status.
func decodeRemoteError(resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var e types.ErrorResponse
	if err := json.Unmarshal(b, &e); err == nil && e.Error != "" {
		kind := e.Kind
		if kind == "" {
			kind = KindInternal
		}
		return remoteError{kind: kind, msg: e.Error, status: resp.StatusCode}
	}
	return remoteError{
		kind:   KindInternal,
		msg:    fmt.Sprintf("%s: %s", resp.Status, string(b)),
		status: resp.StatusCode,
	}
}
