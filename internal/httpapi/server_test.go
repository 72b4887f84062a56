package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"inferd/internal/broker"
	"inferd/internal/collection"
	"inferd/internal/model"
	"inferd/pkg/types"
)

type mockService struct {
	objects    []types.ObjectStatus
	status     types.StatusResponse
	ready      bool
	predictErr error
	dist       []float64
	coll       []string
	collErr    error
	createErr  error
}

func (m *mockService) Predict(ctx context.Context, name string, input []float64) ([]float64, error) {
	if m.predictErr != nil {
		return nil, m.predictErr
	}
	return m.dist, nil
}

func (m *mockService) CollectionLen(ctx context.Context, name string) (int, error) {
	if m.collErr != nil {
		return 0, m.collErr
	}
	return len(m.coll), nil
}

func (m *mockService) CollectionGet(ctx context.Context, name string, i int) (types.RawValue, error) {
	if m.collErr != nil {
		return nil, m.collErr
	}
	if i < 0 || i >= len(m.coll) {
		c := collection.FromValues(nil)
		_, err := c.Get(i)
		return nil, err
	}
	return types.RawValue(m.coll[i]), nil
}

func (m *mockService) Create(ctx context.Context, name string) (types.ObjectStatus, error) {
	if m.createErr != nil {
		return types.ObjectStatus{}, m.createErr
	}
	return types.ObjectStatus{Name: name, Kind: types.KindModel, State: "ready"}, nil
}

func (m *mockService) ListObjects() []types.ObjectStatus { return m.objects }
func (m *mockService) Status() types.StatusResponse      { return m.status }
func (m *mockService) Ready() bool                       { return m.ready }

func postJSON(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) types.ErrorResponse {
	t.Helper()
	var e types.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &e); err != nil {
		t.Fatalf("error payload: %v (%s)", err, w.Body.String())
	}
	return e
}

func TestPredictHandler(t *testing.T) {
	svc := &mockService{dist: []float64{0.1, 0.7, 0.2}}
	r := NewMux(svc)
	w := postJSON(t, r, "/v1/predict", `{"input":[1,2,3]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var resp types.PredictResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(resp.Distribution) != 3 || resp.ArgMax != 1 {
		t.Fatalf("resp=%+v", resp)
	}
}

func TestPredictBadJSON(t *testing.T) {
	r := NewMux(&mockService{})
	w := postJSON(t, r, "/v1/predict", "not-json")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", w.Code)
	}
	if e := decodeError(t, w); e.Kind != "invalid_input" {
		t.Fatalf("kind=%s", e.Kind)
	}
}

func TestPredictMissingInput(t *testing.T) {
	r := NewMux(&mockService{})
	w := postJSON(t, r, "/v1/predict", `{"object":"clf"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestPredictWrongContentType(t *testing.T) {
	r := NewMux(&mockService{})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/predict", bytes.NewBufferString(`{"input":[1]}`))
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestPredictErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		kind   string
	}{
		{broker.ErrNotRegistered("ghost"), http.StatusNotFound, "not_registered"},
		{model.ErrInvalidInput("bad shape"), http.StatusBadRequest, "invalid_input"},
		{model.ErrAlreadyInitialized(), http.StatusConflict, "already_initialized"},
		{model.ErrInitialization("load failed"), http.StatusServiceUnavailable, "initialization_failed"},
	}
	for _, c := range cases {
		r := NewMux(&mockService{predictErr: c.err})
		w := postJSON(t, r, "/v1/predict", `{"input":[1,2]}`)
		if w.Code != c.status {
			t.Fatalf("%v: status=%d want %d", c.err, w.Code, c.status)
		}
		if e := decodeError(t, w); e.Kind != c.kind {
			t.Fatalf("%v: kind=%s want %s", c.err, e.Kind, c.kind)
		}
	}
}

func TestCollectionLengthHandler(t *testing.T) {
	svc := &mockService{coll: []string{`1`, `2`, `3`}}
	r := NewMux(svc)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/collections/corpus/length", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var resp types.LengthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp.Length != 3 {
		t.Fatalf("resp=%+v err=%v", resp, err)
	}
}

func TestCollectionItemHandler(t *testing.T) {
	svc := &mockService{coll: []string{`"a"`, `"b"`}}
	r := NewMux(svc)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/collections/corpus/items/1", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var resp types.ItemResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if resp.Index != 1 || string(resp.Value) != `"b"` {
		t.Fatalf("resp=%+v", resp)
	}
}

func TestCollectionItemOutOfRange(t *testing.T) {
	svc := &mockService{coll: []string{`1`}}
	r := NewMux(svc)
	for _, path := range []string{"/v1/collections/corpus/items/5", "/v1/collections/corpus/items/-1"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: status=%d", path, w.Code)
		}
		if e := decodeError(t, w); e.Kind != "index_out_of_range" {
			t.Fatalf("%s: kind=%s", path, e.Kind)
		}
	}
}

func TestCollectionItemNonInteger(t *testing.T) {
	r := NewMux(&mockService{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/collections/corpus/items/one", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestCreateObjectHandler(t *testing.T) {
	r := NewMux(&mockService{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/objects/clf", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var resp types.CreateResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp.Name != "clf" {
		t.Fatalf("resp=%+v err=%v", resp, err)
	}
}

func TestCreateObjectNotRegistered(t *testing.T) {
	r := NewMux(&mockService{createErr: broker.ErrNotRegistered("ghost")})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/objects/ghost", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestObjectsHandler(t *testing.T) {
	svc := &mockService{objects: []types.ObjectStatus{{Name: "clf"}, {Name: "corpus"}}}
	r := NewMux(svc)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/objects", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var resp types.ObjectsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || len(resp.Objects) != 2 {
		t.Fatalf("resp=%+v err=%v", resp, err)
	}
}

func TestStatusHandler(t *testing.T) {
	svc := &mockService{status: types.StatusResponse{State: "ready"}}
	r := NewMux(svc)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/status", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "application/json") {
		t.Fatalf("content-type=%s", ct)
	}
}

func TestReadyz(t *testing.T) {
	r := NewMux(&mockService{ready: true})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestReadyzNotReady(t *testing.T) {
	r := NewMux(&mockService{ready: false})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "loading") {
		t.Fatalf("body=%q", w.Body.String())
	}
}

func TestHealthz(t *testing.T) {
	r := NewMux(&mockService{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	r := NewMux(&mockService{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
}
