package types

import "encoding/json"

// RawValue is a collection element as it crosses the call boundary.
// Elements are opaque JSON so arbitrary serializable types can be hosted.
type RawValue = json.RawMessage

// Object kinds hostable by the daemon.
const (
	KindModel      = "model"
	KindCollection = "collection"
)

// ObjectSpec describes a hostable object registered with the manager.
type ObjectSpec struct {
	// Registered name clients use to create proxies.
	Name string `json:"name" yaml:"name" toml:"name"`
	// Kind is "model" or "collection".
	Kind string `json:"kind" yaml:"kind" toml:"kind"`
	// WeightsPath points at a model weights file (models only).
	WeightsPath string `json:"weights_path,omitempty" yaml:"weights_path,omitempty" toml:"weights_path,omitempty"`
	// DataPath points at a JSON array file backing the collection (collections only).
	DataPath string `json:"data_path,omitempty" yaml:"data_path,omitempty" toml:"data_path,omitempty"`
	// MaxQueueDepth bounds the model's admission queue (0 = default).
	MaxQueueDepth int `json:"max_queue_depth,omitempty" yaml:"max_queue_depth,omitempty" toml:"max_queue_depth,omitempty"`
}
