// Package gateway exposes a small upload-oriented HTTP front for a running
// inference daemon. Callers POST a multipart form with a single-line CSV
// feature vector; the gateway forwards the vector to the daemon over a
// client proxy and answers with the winning label.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"inferd/pkg/client"
	"inferd/pkg/types"
)

// Predictor is the slice of the daemon client the gateway needs.
type Predictor interface {
	Predict(ctx context.Context, input []float64) (types.PredictResponse, error)
}

// Gateway translates multipart uploads into daemon predict calls.
type Gateway struct {
	model  Predictor
	labels []string
}

// New builds a gateway over a predictor and an index-to-label table.
// labels may be shorter than the model's class count; missing entries fall
// back to the numeric index.
func New(model Predictor, labels []string) *Gateway {
	return &Gateway{model: model, labels: labels}
}

// maxUploadBytes caps the multipart body. Vectors are tiny; anything larger
// is a client mistake.
const maxUploadBytes = 1 << 20

func (g *Gateway) NewMux() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	r.Post("/predict", g.handlePredict)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	return r
}

// handlePredict reads the `vector` form file, parses one CSV line of floats
// and forwards it to the daemon.
func (g *Gateway) handlePredict(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "body must be multipart/form-data")
		return
	}
	f, _, err := r.FormFile("vector")
	if err != nil {
		writeError(w, http.StatusBadRequest, "form file 'vector' is required")
		return
	}
	defer f.Close()

	raw, err := io.ReadAll(f)
	if err != nil {
		writeError(w, http.StatusBadRequest, "reading upload: "+err.Error())
		return
	}
	input, err := parseVector(firstLine(string(raw)))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := g.model.Predict(r.Context(), input)
	if err != nil {
		status := http.StatusBadGateway
		if client.IsConnectionLost(err) {
			writeError(w, status, "daemon unreachable: "+err.Error())
			return
		}
		if he, ok := err.(interface{ StatusCode() int }); ok {
			status = he.StatusCode()
		}
		writeError(w, status, err.Error())
		return
	}

	idx := resp.ArgMax
	out := types.LabelResponse{Label: labelFor(g.labels, idx), Index: idx}
	if idx >= 0 && idx < len(resp.Distribution) {
		out.Confidence = resp.Distribution[idx]
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

func labelFor(labels []string, idx int) string {
	if idx >= 0 && idx < len(labels) {
		return labels[idx]
	}
	return strconv.Itoa(idx)
}

func firstLine(s string) string {
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		return s[:i]
	}
	return s
}

// parseVector parses a single CSV line of floats. Empty fields are skipped
// so trailing commas are tolerated.
func parseVector(line string) ([]float64, error) {
	parts := splitCSV(line)
	if len(parts) == 0 {
		return nil, errEmptyVector
	}
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, &parseError{field: p}
		}
		out = append(out, v)
	}
	return out, nil
}

func splitCSV(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

type parseError struct{ field string }

func (e *parseError) Error() string { return "not a number: " + e.field }

var errEmptyVector = errors.New("vector is empty")

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg, Code: status})
}
