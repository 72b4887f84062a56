package httpapi

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"inferd/internal/classifier"
	"inferd/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	Predict(ctx context.Context, name string, input []float64) ([]float64, error)
	CollectionLen(ctx context.Context, name string) (int, error)
	CollectionGet(ctx context.Context, name string, i int) (types.RawValue, error)
	Create(ctx context.Context, name string) (types.ObjectStatus, error)
	ListObjects() []types.ObjectStatus
	Status() types.StatusResponse
	Ready() bool
}

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	// Compression for JSON endpoints
	r.Use(middleware.Compress(5))
	r.Use(MetricsMiddleware)
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
		}))
	}

	// Predict godoc
	// @Summary Run inference on a hosted model
	// @Accept json
	// @Produce json
	// @Param request body types.PredictRequest true "feature vector"
	// @Success 200 {object} types.PredictResponse
	// @Router /v1/predict [post]
	r.Post("/v1/predict", func(w http.ResponseWriter, r *http.Request) {
		ct := r.Header.Get("Content-Type")
		if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
			writeJSONError(w, http.StatusUnsupportedMediaType, kindInvalidInput, "Content-Type must be application/json")
			return
		}
		// Limit body size (configurable, default 1MiB)
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		var req types.PredictRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, kindInvalidInput, "invalid JSON body")
			return
		}
		if len(req.Input) == 0 {
			writeJSONError(w, http.StatusBadRequest, kindInvalidInput, "input is required")
			return
		}

		start := time.Now()
		if zlog != nil {
			z := zlog.Debug().Str("path", r.URL.Path).Str("object", req.Object)
			if rid := middleware.GetReqID(r.Context()); rid != "" {
				z = z.Str("request_id", rid)
			}
			z.Msg("predict start")
		}
		// Join server base context with request context so shutdown cancels work too.
		ctx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		dist, err := svc.Predict(ctx, req.Object, req.Input)
		if err != nil {
			if r.Context().Err() != nil || serverBaseCtx.Err() != nil {
				return
			}
			status, kind := mapServiceError(err)
			if status == http.StatusTooManyRequests {
				IncrementBackpressure("predict")
			}
			writeJSONError(w, status, kind, err.Error())
			logPredictEnd(r, status, time.Since(start), err)
			return
		}
		predictDuration.Observe(time.Since(start).Seconds())
		writeJSON(w, types.PredictResponse{Distribution: dist, ArgMax: classifier.ArgMax(dist)})
		logPredictEnd(r, http.StatusOK, time.Since(start), nil)
	})

	// CreateObject godoc
	// @Summary Instantiate a registered object
	// @Produce json
	// @Param name path string true "registered object name"
	// @Success 200 {object} types.CreateResponse
	// @Router /v1/objects/{name} [post]
	r.Post("/v1/objects/{name}", func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		ctx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		st, err := svc.Create(ctx, name)
		if err != nil {
			status, kind := mapServiceError(err)
			writeJSONError(w, status, kind, err.Error())
			return
		}
		writeJSON(w, types.CreateResponse{Name: st.Name, Kind: st.Kind, State: st.State})
	})

	r.Get("/v1/objects", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, types.ObjectsResponse{Objects: svc.ListObjects()})
	})

	r.Get("/v1/collections/{name}/length", func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		ctx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		n, err := svc.CollectionLen(ctx, name)
		if err != nil {
			status, kind := mapServiceError(err)
			writeJSONError(w, status, kind, err.Error())
			return
		}
		writeJSON(w, types.LengthResponse{Length: n})
	})

	r.Get("/v1/collections/{name}/items/{index}", func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		idxStr := chi.URLParam(r, "index")
		idx, err := strconv.Atoi(idxStr)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, kindInvalidInput, "index must be an integer")
			return
		}
		ctx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		v, err := svc.CollectionGet(ctx, name, idx)
		if err != nil {
			status, kind := mapServiceError(err)
			writeJSONError(w, status, kind, err.Error())
			return
		}
		writeJSON(w, types.ItemResponse{Index: idx, Value: v})
	})

	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, svc.Status())
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("loading"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)

	return r
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		writeJSONError(w, http.StatusInternalServerError, kindInternal, "failed to encode response")
	}
}

func logPredictEnd(r *http.Request, status int, dur time.Duration, err error) {
	if zlog != nil {
		z := zlog.Info().Int("status", status).Dur("dur", dur)
		if rid := middleware.GetReqID(r.Context()); rid != "" {
			z = z.Str("request_id", rid)
		}
		if err != nil {
			z = z.Err(err)
		}
		z.Msg("predict end")
		return
	}
	log.Printf("predict end status=%d dur=%s err=%v", status, dur, err)
}
