// Package broker hosts registered objects inside the daemon process and
// dispatches calls to them. Each hosted object is owned by exactly one
// broker; clients reach it through proxy handles that forward calls over
// the daemon's HTTP boundary.
package broker

import (
	"context"
	"sync"
	"time"

	"inferd/internal/collection"
	"inferd/internal/model"
	"inferd/pkg/types"
)

// Broker owns the registry of hostable objects and their live instances.
type Broker struct {
	mu           sync.RWMutex
	regs         map[string]types.ObjectSpec
	order        []string // registration order, for stable listings
	hosted       map[string]*hostedObject
	defaultModel string
	startTime    time.Time
}

// hostedObject is one live instance. Exactly one of mdl/coll is set,
// matching the spec kind.
type hostedObject struct {
	spec  types.ObjectSpec
	mdl   *model.Handle
	coll  *collection.Collection
	calls uint64 // collection reads; models count their own calls
}

// New constructs an empty broker. defaultModel names the model used when a
// predict request omits the object name.
func New(defaultModel string) *Broker {
	return &Broker{
		regs:         make(map[string]types.ObjectSpec),
		hosted:       make(map[string]*hostedObject),
		defaultModel: defaultModel,
		startTime:    time.Now(),
	}
}

// Register associates a name with a hostable object spec. Must happen
// before the object is first created; duplicate names fail.
func (b *Broker) Register(spec types.ObjectSpec) error {
	if spec.Name == "" {
		return invalidSpecError{msg: "object name is required"}
	}
	switch spec.Kind {
	case types.KindModel:
		if spec.WeightsPath == "" {
			return invalidSpecError{msg: "model " + spec.Name + " requires weights_path"}
		}
	case types.KindCollection:
		if spec.DataPath == "" {
			return invalidSpecError{msg: "collection " + spec.Name + " requires data_path"}
		}
	default:
		return invalidSpecError{msg: "unknown kind: " + spec.Kind}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.regs[spec.Name]; ok {
		return duplicateError{name: spec.Name}
	}
	b.regs[spec.Name] = spec
	b.order = append(b.order, spec.Name)
	return nil
}

// Create instantiates the named object if needed and reports its status.
// Creating an already-live object is a no-op returning the current status.
func (b *Broker) Create(ctx context.Context, name string) (types.ObjectStatus, error) {
	obj, err := b.ensure(ctx, name)
	if err != nil {
		return types.ObjectStatus{}, err
	}
	return b.statusOf(name, obj), nil
}

// CreateAll instantiates every registered object. Used at daemon startup to
// warm the default model before readiness flips.
func (b *Broker) CreateAll(ctx context.Context) error {
	b.mu.RLock()
	names := append([]string(nil), b.order...)
	b.mu.RUnlock()
	for _, name := range names {
		if _, err := b.ensure(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

// ensure returns the live instance for name, constructing it on first use.
// Instantiation is serialized per broker; the construction itself happens
// outside the lock so a slow model load does not block collection reads.
func (b *Broker) ensure(ctx context.Context, name string) (*hostedObject, error) {
	b.mu.RLock()
	obj := b.hosted[name]
	spec, registered := b.regs[name]
	b.mu.RUnlock()
	if obj != nil {
		return obj, nil
	}
	if !registered {
		return nil, notRegisteredError{name: name}
	}

	switch spec.Kind {
	case types.KindModel:
		h := model.NewHandle(model.Config{
			WeightsPath:   spec.WeightsPath,
			MaxQueueDepth: spec.MaxQueueDepth,
		})
		b.mu.Lock()
		if existing := b.hosted[name]; existing != nil {
			b.mu.Unlock()
			return existing, nil
		}
		obj = &hostedObject{spec: spec, mdl: h}
		b.hosted[name] = obj
		b.mu.Unlock()
		if err := h.Initialize(ctx); err != nil {
			// Keep the errored instance hosted so /status can report it.
			return obj, err
		}
		return obj, nil
	case types.KindCollection:
		c, err := collection.FromFile(spec.DataPath)
		if err != nil {
			return nil, err
		}
		b.mu.Lock()
		if existing := b.hosted[name]; existing != nil {
			b.mu.Unlock()
			return existing, nil
		}
		obj = &hostedObject{spec: spec, coll: c}
		b.hosted[name] = obj
		b.mu.Unlock()
		return obj, nil
	default:
		return nil, invalidSpecError{msg: "unknown kind: " + spec.Kind}
	}
}

// Predict dispatches a prediction to the named (or default) hosted model.
func (b *Broker) Predict(ctx context.Context, name string, input []float64) ([]float64, error) {
	if name == "" {
		name = b.defaultModel
		if name == "" {
			return nil, notRegisteredError{name: "(unspecified)"}
		}
	}
	obj, err := b.ensure(ctx, name)
	if err != nil {
		return nil, err
	}
	if obj.mdl == nil {
		return nil, kindMismatchError{name: name, want: types.KindModel, got: obj.spec.Kind}
	}
	return obj.mdl.Predict(ctx, input)
}

// CollectionLen returns the element count of the named hosted collection.
func (b *Broker) CollectionLen(ctx context.Context, name string) (int, error) {
	obj, err := b.ensureCollection(ctx, name)
	if err != nil {
		return 0, err
	}
	b.mu.Lock()
	obj.calls++
	b.mu.Unlock()
	return obj.coll.Len(), nil
}

// CollectionGet returns a copy of element i of the named hosted collection.
func (b *Broker) CollectionGet(ctx context.Context, name string, i int) (types.RawValue, error) {
	obj, err := b.ensureCollection(ctx, name)
	if err != nil {
		return nil, err
	}
	b.mu.Lock()
	obj.calls++
	b.mu.Unlock()
	return obj.coll.Get(i)
}

func (b *Broker) ensureCollection(ctx context.Context, name string) (*hostedObject, error) {
	obj, err := b.ensure(ctx, name)
	if err != nil {
		return nil, err
	}
	if obj.coll == nil {
		return nil, kindMismatchError{name: name, want: types.KindCollection, got: obj.spec.Kind}
	}
	return obj, nil
}

// Ready reports whether the default model (or, when none is configured,
// any hosted model) can serve predictions.
func (b *Broker) Ready() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.defaultModel != "" {
		obj := b.hosted[b.defaultModel]
		return obj != nil && obj.mdl != nil && obj.mdl.Ready()
	}
	for _, obj := range b.hosted {
		if obj.mdl != nil && obj.mdl.Ready() {
			return true
		}
	}
	return false
}

// ListObjects returns the status of every registered object in
// registration order.
func (b *Broker) ListObjects() []types.ObjectStatus {
	b.mu.RLock()
	names := append([]string(nil), b.order...)
	b.mu.RUnlock()
	out := make([]types.ObjectStatus, 0, len(names))
	for _, name := range names {
		b.mu.RLock()
		obj := b.hosted[name]
		spec := b.regs[name]
		b.mu.RUnlock()
		if obj == nil {
			out = append(out, types.ObjectStatus{Name: name, Kind: spec.Kind, State: string(model.StateUnloaded)})
			continue
		}
		out = append(out, b.statusOf(name, obj))
	}
	return out
}

// Status returns a full status snapshot for GET /status.
func (b *Broker) Status() types.StatusResponse {
	objs := b.ListObjects()
	state := string(model.StateReady)
	for _, o := range objs {
		if o.State == string(model.StateError) {
			state = string(model.StateError)
			break
		}
	}
	now := time.Now()
	return types.StatusResponse{
		Objects:        objs,
		State:          state,
		UptimeSeconds:  int64(now.Sub(b.startTime).Seconds()),
		ServerTimeUnix: now.Unix(),
	}
}

func (b *Broker) statusOf(name string, obj *hostedObject) types.ObjectStatus {
	st := types.ObjectStatus{Name: name, Kind: obj.spec.Kind}
	switch {
	case obj.mdl != nil:
		calls, queueLen, inflight := obj.mdl.Stats()
		st.State = string(obj.mdl.State())
		st.CallsTotal = calls
		st.QueueLen = queueLen
		st.Inflight = inflight
		st.LastError = obj.mdl.LastError()
	case obj.coll != nil:
		st.State = string(model.StateReady)
		b.mu.RLock()
		st.CallsTotal = obj.calls
		b.mu.RUnlock()
		st.Length = obj.coll.Len()
	}
	return st
}
