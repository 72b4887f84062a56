package types

// PredictRequest represents a prediction request payload.
type PredictRequest struct {
	// Optional hosted object name. If empty, the server default is used.
	// example: classifier
	Object string `json:"object,omitempty" example:"classifier"`
	// Required feature vector. Length must match the model's input dimension.
	Input []float64 `json:"input"`
}

// PredictResponse carries the model output distribution.
type PredictResponse struct {
	// Per-class probabilities. Values sum to approximately 1.
	Distribution []float64 `json:"distribution"`
	// Index of the highest-probability class.
	// example: 2
	ArgMax int `json:"argmax" example:"2"`
}

// CreateResponse is returned by POST /v1/objects/{name}.
type CreateResponse struct {
	// Name of the instantiated object.
	// example: classifier
	Name string `json:"name" example:"classifier"`
	// Object kind (model or collection).
	// example: model
	Kind string `json:"kind" example:"model"`
	// Lifecycle state after instantiation.
	// example: ready
	State string `json:"state" example:"ready"`
}

// LengthResponse is returned by GET /v1/collections/{name}/length.
type LengthResponse struct {
	// Number of elements in the hosted collection.
	// example: 100
	Length int `json:"length" example:"100"`
}

// ItemResponse is returned by GET /v1/collections/{name}/items/{index}.
type ItemResponse struct {
	// Index of the returned element.
	// example: 7
	Index int `json:"index" example:"7"`
	// Element value as raw JSON.
	Value RawValue `json:"value"`
}

// ObjectStatus summarizes one hosted object for /status and /v1/objects.
type ObjectStatus struct {
	// Registered object name.
	// example: classifier
	Name string `json:"name" example:"classifier"`
	// Object kind (model or collection).
	// example: model
	Kind string `json:"kind" example:"model"`
	// Lifecycle state (unloaded, loading, ready, error).
	// example: ready
	State string `json:"state" example:"ready"`
	// Total calls served by this object.
	// example: 42
	CallsTotal uint64 `json:"calls_total" example:"42"`
	// Current queue length (models only).
	// example: 0
	QueueLen int `json:"queue_len,omitempty" example:"0"`
	// In-flight calls (models only; at most 1).
	// example: 1
	Inflight int `json:"inflight,omitempty" example:"1"`
	// Element count (collections only).
	// example: 100
	Length int `json:"length,omitempty" example:"100"`
	// Last error observed for this object, if any.
	LastError string `json:"last_error,omitempty"`
}

// ObjectsResponse wraps the hosted-object list returned by GET /v1/objects.
type ObjectsResponse struct {
	Objects []ObjectStatus `json:"objects"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Hosted objects and their states.
	Objects []ObjectStatus `json:"objects"`
	// Overall broker state (loading, ready, error).
	// example: ready
	State string `json:"state" example:"ready"`
	// Uptime of the daemon in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: input length 3 does not match model dimension 4
	Error string `json:"error" example:"invalid input"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
	// Stable error kind for programmatic handling.
	// example: invalid_input
	Kind string `json:"kind,omitempty" example:"invalid_input"`
}

// LabelResponse is returned by the gateway's POST /predict.
type LabelResponse struct {
	// Human-readable label for the winning class.
	// example: setosa
	Label string `json:"label" example:"setosa"`
	// Index of the winning class.
	// example: 0
	Index int `json:"index" example:"0"`
	// Probability assigned to the winning class.
	// example: 0.93
	Confidence float64 `json:"confidence" example:"0.93"`
}
