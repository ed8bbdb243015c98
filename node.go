package objdiff

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
)

// Kind defines the shapes a value can take while diffing. Every value is
// classified as exactly one Kind
type Kind uint8

const (
	// KindLeaf is a value with no further structure: numbers, strings, bools,
	// nil, and anything that isn't one of the kinds below
	KindLeaf Kind = iota
	// KindKeyed is a collection addressed by arbitrary keys, eg: a map
	KindKeyed
	// KindOrdered is a collection addressed by sequential index, eg: a slice
	KindOrdered
	// KindComposite is a value with a fixed, named set of fields, eg: a struct
	KindComposite
)

func (k Kind) String() string {
	switch k {
	case KindLeaf:
		return "leaf"
	case KindKeyed:
		return "keyed"
	case KindOrdered:
		return "ordered"
	case KindComposite:
		return "composite"
	default:
		return "unknown"
	}
}

// Node is a classified value. Each Kind has a matching interface that nodes
// of that kind implement: Keyed, Ordered & Composite. Leaf nodes only need
// to implement Node
type Node interface {
	Kind() Kind
	// the actual data this node is created from
	Value() interface{}
}

// Keyed is a node for KindKeyed values
type Keyed interface {
	Node
	// Keys lists keys in traversal order
	Keys() []interface{}
	Has(key interface{}) bool
	Lookup(key interface{}) interface{}
}

// Ordered is a node for KindOrdered values
type Ordered interface {
	Node
	Len() int
	Index(i int) interface{}
}

// Composite is a node for KindComposite values
type Composite interface {
	Node
	// Type is the concrete type fields were read from. composites are only
	// comparable when types match
	Type() reflect.Type
	Fields() []Field
}

// KeyedCollection can be implemented by types that should be diffed key by
// key instead of field by field. Keys are visited in the order returned
type KeyedCollection interface {
	Keys() []interface{}
	Lookup(key interface{}) (interface{}, bool)
}

// OrderedCollection can be implemented by types that should be diffed index
// by index instead of field by field
type OrderedCollection interface {
	Len() int
	Index(i int) interface{}
}

// Classifier turns values into nodes
type Classifier interface {
	Classify(v interface{}) (Node, error)
}

// ReflectClassifier is the default Classifier. It checks, in order:
//   1. keyed: maps & KeyedCollection implementations
//   2. ordered: slices, arrays & OrderedCollection implementations
//   3. composite: anything Fields can describe
//   4. leaf: everything else
// strings are never collections. nil pointers & interfaces are leaves,
// non-nil pointers are classified by what they point to
type ReflectClassifier struct {
	// Fields describes composite types, defaults to DefaultFields
	Fields FieldAccessor
}

// Classify implements the Classifier interface
func (c ReflectClassifier) Classify(v interface{}) (Node, error) {
	if isNil(v) {
		return leaf{value: v}, nil
	}
	if kc, ok := v.(KeyedCollection); ok {
		return &keyedCollection{value: v, kc: kc}, nil
	}
	if oc, ok := v.(OrderedCollection); ok {
		return &orderedCollection{value: v, oc: oc}, nil
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return leaf{value: v}, nil
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map:
		return &mapNode{value: v, rv: rv, keys: sortedKeys(rv)}, nil
	case reflect.Slice, reflect.Array:
		return &sliceNode{value: v, rv: rv}, nil
	case reflect.String:
		return leaf{value: v}, nil
	}

	fa := c.Fields
	if fa == nil {
		fa = DefaultFields
	}
	fields, err := fa.Fields(rv.Type())
	if err != nil {
		if errors.Is(err, ErrNoFields) {
			return leaf{value: v}, nil
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrAccessorFailure, rv.Type(), err)
	}
	return &composite{value: v, t: rv.Type(), fields: fields}, nil
}

type leaf struct {
	value interface{}
}

func (l leaf) Kind() Kind         { return KindLeaf }
func (l leaf) Value() interface{} { return l.value }

type mapNode struct {
	value interface{}
	rv    reflect.Value
	keys  []reflect.Value
}

func (m *mapNode) Kind() Kind         { return KindKeyed }
func (m *mapNode) Value() interface{} { return m.value }
func (m *mapNode) Keys() []interface{} {
	keys := make([]interface{}, len(m.keys))
	for i, k := range m.keys {
		keys[i] = k.Interface()
	}
	return keys
}
func (m *mapNode) Has(key interface{}) bool {
	kv, ok := m.key(key)
	return ok && m.rv.MapIndex(kv).IsValid()
}
func (m *mapNode) Lookup(key interface{}) interface{} {
	kv, ok := m.key(key)
	if !ok {
		return nil
	}
	if val := m.rv.MapIndex(kv); val.IsValid() {
		return val.Interface()
	}
	return nil
}

// key converts an untyped key to a value usable as an index into this map.
// keys of another type never match
func (m *mapNode) key(key interface{}) (reflect.Value, bool) {
	kt := m.rv.Type().Key()
	kv := reflect.ValueOf(key)
	if !kv.IsValid() {
		if kt.Kind() == reflect.Interface {
			return reflect.Zero(kt), true
		}
		return kv, false
	}
	if !kv.Type().AssignableTo(kt) {
		return kv, false
	}
	return kv, true
}

type keyedCollection struct {
	value interface{}
	kc    KeyedCollection
}

func (k *keyedCollection) Kind() Kind          { return KindKeyed }
func (k *keyedCollection) Value() interface{}  { return k.value }
func (k *keyedCollection) Keys() []interface{} { return k.kc.Keys() }
func (k *keyedCollection) Has(key interface{}) bool {
	_, ok := k.kc.Lookup(key)
	return ok
}
func (k *keyedCollection) Lookup(key interface{}) interface{} {
	v, _ := k.kc.Lookup(key)
	return v
}

type sliceNode struct {
	value interface{}
	rv    reflect.Value
}

func (s *sliceNode) Kind() Kind              { return KindOrdered }
func (s *sliceNode) Value() interface{}      { return s.value }
func (s *sliceNode) Len() int                { return s.rv.Len() }
func (s *sliceNode) Index(i int) interface{} { return s.rv.Index(i).Interface() }

type orderedCollection struct {
	value interface{}
	oc    OrderedCollection
}

func (o *orderedCollection) Kind() Kind              { return KindOrdered }
func (o *orderedCollection) Value() interface{}      { return o.value }
func (o *orderedCollection) Len() int                { return o.oc.Len() }
func (o *orderedCollection) Index(i int) interface{} { return o.oc.Index(i) }

type composite struct {
	value  interface{}
	t      reflect.Type
	fields []Field
}

func (c *composite) Kind() Kind         { return KindComposite }
func (c *composite) Value() interface{} { return c.value }
func (c *composite) Type() reflect.Type { return c.t }
func (c *composite) Fields() []Field    { return c.fields }

// sameKeys checks two keyed nodes hold the same set of keys, ignoring order
func sameKeys(a, b Keyed) bool {
	ak, bk := a.Keys(), b.Keys()
	if len(ak) != len(bk) {
		return false
	}
	for _, k := range ak {
		if !b.Has(k) {
			return false
		}
	}
	return true
}

// sortedKeys lists map keys in a deterministic order. go randomizes map
// iteration, so keys are sorted: strings lexically, numbers numerically,
// everything else by its printed form
func sortedKeys(rv reflect.Value) []reflect.Value {
	keys := rv.MapKeys()
	sort.SliceStable(keys, func(i, j int) bool {
		return lessKey(keys[i], keys[j])
	})
	return keys
}

func lessKey(a, b reflect.Value) bool {
	for a.Kind() == reflect.Interface && !a.IsNil() {
		a = a.Elem()
	}
	for b.Kind() == reflect.Interface && !b.IsNil() {
		b = b.Elem()
	}

	if a.Kind() == b.Kind() {
		switch a.Kind() {
		case reflect.String:
			return a.String() < b.String()
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return a.Int() < b.Int()
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
			return a.Uint() < b.Uint()
		case reflect.Float32, reflect.Float64:
			return a.Float() < b.Float()
		case reflect.Bool:
			return !a.Bool() && b.Bool()
		}
	} else {
		return a.Kind() < b.Kind()
	}

	return keyString(a) < keyString(b)
}

func keyString(v reflect.Value) string {
	if !v.IsValid() || (v.Kind() == reflect.Interface && v.IsNil()) {
		return "<nil>"
	}
	if v.CanInterface() {
		return fmt.Sprint(v.Interface())
	}
	return v.String()
}
