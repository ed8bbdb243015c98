package objdiff

import (
	"fmt"
	"reflect"
	"sync"
)

// Field is a single named member of a composite type
type Field struct {
	// Name is used as the path component for this field
	Name string
	// Get reads the field from an instance of the described type. Instances
	// may be passed by value or by pointer
	Get func(instance interface{}) interface{}
}

// FieldAccessor describes the shape of composite types as an ordered list of
// fields. Accessors must return fields in a stable order: field order
// determines the order of differences. Types that have nothing to walk must
// return ErrNoFields, which makes the differ compare them as leaves
type FieldAccessor interface {
	Fields(t reflect.Type) ([]Field, error)
}

// DefaultFields is the FieldAccessor used when none is configured
var DefaultFields = &StructFields{}

// StructFields is a reflection-backed FieldAccessor. It describes structs (and
// pointers to structs) by their exported fields in declaration order.
//
// Struct tags can adjust the result:
//   Name string `objdiff:"name"` // use "name" in paths
//   Cache []byte `objdiff:"-"`   // skip this field
//
// Field lists are computed once per type & cached, StructFields is safe for
// concurrent use
type StructFields struct {
	cache sync.Map // reflect.Type -> []Field
}

// Fields implements the FieldAccessor interface
func (s *StructFields) Fields(t reflect.Type) ([]Field, error) {
	if t == nil {
		return nil, ErrNoFields
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, ErrNoFields
	}

	cached, ok := s.cache.Load(t)
	if !ok {
		cached, _ = s.cache.LoadOrStore(t, structFields(t))
	}
	fields := cached.([]Field)
	if len(fields) == 0 {
		return nil, ErrNoFields
	}
	return fields, nil
}

func structFields(t reflect.Type) []Field {
	fields := make([]Field, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		name := sf.Name
		if tag, ok := sf.Tag.Lookup("objdiff"); ok {
			if tag == "-" {
				continue
			}
			if tag != "" {
				name = tag
			}
		}
		fields = append(fields, Field{Name: name, Get: structGetter(sf.Index)})
	}
	return fields
}

// structGetter reads a struct field by index, dereferencing pointers &
// interfaces on the way in. a nil instance reads as nil
func structGetter(index []int) func(interface{}) interface{} {
	return func(instance interface{}) interface{} {
		rv := reflect.ValueOf(instance)
		for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
			if rv.IsNil() {
				return nil
			}
			rv = rv.Elem()
		}
		if rv.Kind() != reflect.Struct {
			return nil
		}
		return rv.FieldByIndex(index).Interface()
	}
}

// Registry is a FieldAccessor backed by explicitly registered field lists.
// Types that aren't registered are delegated to Fallback. Without a fallback
// unregistered struct types fail with ErrUnregistered, and all other types
// report ErrNoFields
type Registry struct {
	Fallback FieldAccessor

	lk    sync.RWMutex
	types map[reflect.Type][]Field
}

// NewRegistry creates a Registry, fallback may be nil
func NewRegistry(fallback FieldAccessor) *Registry {
	return &Registry{
		Fallback: fallback,
		types:    map[reflect.Type][]Field{},
	}
}

// Register sets the field list for the type of sample. Registering a pointer
// type registers its element type. Registering with no fields makes values
// of the type compare as leaves
func (r *Registry) Register(sample interface{}, fields ...Field) {
	r.RegisterType(reflect.TypeOf(sample), fields...)
}

// RegisterType sets the field list for t
func (r *Registry) RegisterType(t reflect.Type, fields ...Field) {
	if t == nil {
		return
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	r.lk.Lock()
	defer r.lk.Unlock()
	if r.types == nil {
		r.types = map[reflect.Type][]Field{}
	}
	r.types[t] = append([]Field(nil), fields...)
}

// Fields implements the FieldAccessor interface
func (r *Registry) Fields(t reflect.Type) ([]Field, error) {
	if t == nil {
		return nil, ErrNoFields
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	r.lk.RLock()
	fields, ok := r.types[t]
	r.lk.RUnlock()

	if ok {
		if len(fields) == 0 {
			return nil, ErrNoFields
		}
		return fields, nil
	}
	if r.Fallback != nil {
		return r.Fallback.Fields(t)
	}
	if t.Kind() == reflect.Struct {
		return nil, fmt.Errorf("%w: %s", ErrUnregistered, t)
	}
	return nil, ErrNoFields
}
