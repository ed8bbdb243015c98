package objdiff

import (
	"encoding/json"
	"fmt"
)

// Difference is a single changed leaf: the path where two values differ &
// the values found there on each side. When collections differ in size or
// keys, or values can't be compared, Path points at the whole collection and
// the values are the collections themselves.
//
// Differences are values: they compare & hash by their components, see
// ValueObject
type Difference struct {
	// Path locates the difference, eg: "Child.Items[0]" or "Child[key]"
	Path     string
	OldValue interface{}
	NewValue interface{}
}

// EqualityComponents implements the ValueObject interface
func (d Difference) EqualityComponents() []interface{} {
	return []interface{}{d.Path, d.OldValue, d.NewValue}
}

// Equal reports whether d and other have the same path & values
func (d Difference) Equal(other Difference) bool {
	return Equal(d, other)
}

// Hash implements the Hasher interface
func (d Difference) Hash() uint64 {
	return Hash(d)
}

func (d Difference) String() string {
	path := d.Path
	if path == "" {
		path = "<root>"
	}
	return fmt.Sprintf("%s: %v => %v", path, d.OldValue, d.NewValue)
}

// MarshalJSON encodes a difference as a compact [path, old, new] array
func (d Difference) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{d.Path, d.OldValue, d.NewValue})
}

// UnmarshalJSON decodes the compact [path, old, new] array form
func (d *Difference) UnmarshalJSON(data []byte) error {
	var v []interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if len(v) != 3 {
		return fmt.Errorf("difference must be a 3 element array, got %d elements", len(v))
	}
	path, ok := v[0].(string)
	if !ok {
		return fmt.Errorf("difference path must be a string, got %T", v[0])
	}
	*d = Difference{Path: path, OldValue: v[1], NewValue: v[2]}
	return nil
}

// MarshalYAML encodes a difference as a path, old, new mapping
func (d Difference) MarshalYAML() (interface{}, error) {
	return struct {
		Path string      `yaml:"path"`
		Old  interface{} `yaml:"old"`
		New  interface{} `yaml:"new"`
	}{d.Path, d.OldValue, d.NewValue}, nil
}

// Differences is a list of differences in traversal order
type Differences []Difference

// Paths lists the path of each difference
func (ds Differences) Paths() []string {
	paths := make([]string, len(ds))
	for i, d := range ds {
		paths[i] = d.Path
	}
	return paths
}

// Find returns the first difference at path
func (ds Differences) Find(path string) (Difference, bool) {
	for _, d := range ds {
		if d.Path == path {
			return d, true
		}
	}
	return Difference{}, false
}

// Contains checks for a difference equal to d
func (ds Differences) Contains(d Difference) bool {
	for _, x := range ds {
		if x.Equal(d) {
			return true
		}
	}
	return false
}

// Equal compares two lists element-wise
func (ds Differences) Equal(other Differences) bool {
	if len(ds) != len(other) {
		return false
	}
	for i := range ds {
		if !ds[i].Equal(other[i]) {
			return false
		}
	}
	return true
}
