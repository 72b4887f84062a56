package client

import (
	"context"
	"net/http"

	"inferd/pkg/types"
)

// ModelProxy forwards predict calls to a model hosted by the daemon.
type ModelProxy struct {
	c    *Client
	name string
}

// Name returns the hosted object name this proxy targets. Empty means the
// daemon's default model.
func (p *ModelProxy) Name() string { return p.name }

// Predict runs inference on the hosted model and returns the output
// distribution. Input shape is validated by the host; a mismatch surfaces
// as an invalid-input remote error with no inference performed.
func (p *ModelProxy) Predict(ctx context.Context, input []float64) (types.PredictResponse, error) {
	var out types.PredictResponse
	req := types.PredictRequest{Object: p.name, Input: input}
	err := p.c.do(ctx, http.MethodPost, "/v1/predict", req, &out)
	return out, err
}
