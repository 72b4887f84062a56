// Package collection hosts a once-constructed, read-only ordered sequence.
// Elements are opaque JSON so any serializable type can be shared. The
// collection exposes only read accessors; callers cannot mutate the hosted
// storage, which is what makes sharing it across processes safe.
package collection

import (
	"encoding/json"
	"fmt"
	"os"

	"inferd/pkg/types"
)

// Collection is an immutable ordered sequence of JSON elements.
type Collection struct {
	elems []types.RawValue
}

// FromValues copies the given elements into a new collection.
func FromValues(elems []types.RawValue) *Collection {
	out := make([]types.RawValue, len(elems))
	for i, e := range elems {
		out[i] = append(types.RawValue(nil), e...)
	}
	return &Collection{elems: out}
}

// FromFile loads a collection from a file containing a JSON array.
func FromFile(path string) (*Collection, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read collection: %w", err)
	}
	var elems []types.RawValue
	if err := json.Unmarshal(b, &elems); err != nil {
		return nil, fmt.Errorf("parse collection: %w", err)
	}
	return FromValues(elems), nil
}

// Len returns the number of elements.
func (c *Collection) Len() int { return len(c.elems) }

// Get returns a copy of the element at index i.
// Valid indices are [0, Len()).
func (c *Collection) Get(i int) (types.RawValue, error) {
	if i < 0 || i >= len(c.elems) {
		return nil, indexError{index: i, length: len(c.elems)}
	}
	return append(types.RawValue(nil), c.elems[i]...), nil
}

// indexError signals an out-of-range element access.
type indexError struct {
	index  int
	length int
}

func (e indexError) Error() string {
	return fmt.Sprintf("index %d out of range [0, %d)", e.index, e.length)
}

// IsIndexOutOfRange reports whether err indicates an out-of-range access.
func IsIndexOutOfRange(err error) bool {
	_, ok := err.(indexError)
	return ok
}
