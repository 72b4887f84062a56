package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"inferd/pkg/types"
)

// CollectionProxy reads elements of a collection hosted by the daemon.
// Tasks fetch single elements by reference instead of copying the whole
// sequence into each worker.
type CollectionProxy struct {
	c    *Client
	name string
}

// Name returns the hosted collection name this proxy targets.
func (p *CollectionProxy) Name() string { return p.name }

// Length returns the number of elements in the hosted collection.
func (p *CollectionProxy) Length(ctx context.Context) (int, error) {
	var out types.LengthResponse
	if err := p.c.do(ctx, http.MethodGet, fmt.Sprintf("/v1/collections/%s/length", p.name), nil, &out); err != nil {
		return 0, err
	}
	return out.Length, nil
}

// Get returns the element at index i. Valid indices are [0, Length()).
func (p *CollectionProxy) Get(ctx context.Context, i int) (types.RawValue, error) {
	var out types.ItemResponse
	if err := p.c.do(ctx, http.MethodGet, fmt.Sprintf("/v1/collections/%s/items/%d", p.name, i), nil, &out); err != nil {
		return nil, err
	}
	return out.Value, nil
}

// GetJSON fetches the element at index i and decodes it into v.
func (p *CollectionProxy) GetJSON(ctx context.Context, i int, v any) error {
	raw, err := p.Get(ctx, i)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return serializationError{err: err}
	}
	return nil
}
