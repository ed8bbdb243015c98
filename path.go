package objdiff

import (
	"fmt"
	"strconv"
	"strings"
)

// fieldPath appends a field name to a path: "a" + "b" is "a.b", the root
// has no leading separator
func fieldPath(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

// keyPath appends a collection key to a path: "a" + "b" is "a[b]"
func keyPath(path string, key interface{}) string {
	return path + "[" + fmt.Sprint(key) + "]"
}

func indexPath(path string, i int) string {
	return path + "[" + strconv.Itoa(i) + "]"
}

// Segment is a single step in a path, either a field name or a bracketed
// collection key / index
type Segment struct {
	Name  string
	Index bool
}

func (s Segment) String() string {
	if s.Index {
		return "[" + s.Name + "]"
	}
	return s.Name
}

// ParsePath splits a difference path into segments. Paths are ambiguous when
// field names contain "." or "[", or keys contain "]". ParsePath assumes
// they don't
func ParsePath(path string) ([]Segment, error) {
	var segs []Segment
	i := 0
	for i < len(path) {
		switch path[i] {
		case '[':
			end := strings.IndexByte(path[i:], ']')
			if end < 0 {
				return nil, fmt.Errorf("%w: unclosed '[' in %q", ErrInvalidPath, path)
			}
			segs = append(segs, Segment{Name: path[i+1 : i+end], Index: true})
			i += end + 1
			continue
		case '.':
			if len(segs) == 0 {
				return nil, fmt.Errorf("%w: leading '.' in %q", ErrInvalidPath, path)
			}
			i++
		default:
			if len(segs) > 0 {
				return nil, fmt.Errorf("%w: expected '.' or '[' at offset %d in %q", ErrInvalidPath, i, path)
			}
		}

		j := i
		for j < len(path) && path[j] != '.' && path[j] != '[' {
			j++
		}
		if j == i {
			return nil, fmt.Errorf("%w: empty field name at offset %d in %q", ErrInvalidPath, i, path)
		}
		segs = append(segs, Segment{Name: path[i:j]})
		i = j
	}
	return segs, nil
}

// Resolve returns the value at path within v, the inverse of the paths
// Compare produces. Options configure classification the same way they do
// for Compare
func Resolve(v interface{}, path string, opts ...Option) (interface{}, error) {
	return New(opts...).Resolve(v, path)
}

// Resolve returns the value at path within v
func (d *Differ) Resolve(v interface{}, path string) (interface{}, error) {
	segs, err := ParsePath(path)
	if err != nil {
		return nil, err
	}

	elem := v
	for i, seg := range segs {
		n, err := d.cfg.Classifier.Classify(elem)
		if err != nil {
			return nil, err
		}
		if elem, err = step(n, seg); err != nil {
			return nil, fmt.Errorf("%w: %q at %q: %s", ErrInvalidPath, path, joinSegments(segs[:i+1]), err)
		}
	}
	return elem, nil
}

func step(n Node, seg Segment) (interface{}, error) {
	if !seg.Index {
		c, ok := n.(Composite)
		if !ok || n.Kind() != KindComposite {
			return nil, fmt.Errorf("field %q of %s value", seg.Name, n.Kind())
		}
		for _, fld := range c.Fields() {
			if fld.Name == seg.Name {
				return fld.Get(n.Value()), nil
			}
		}
		return nil, fmt.Errorf("no field %q", seg.Name)
	}

	switch n.Kind() {
	case KindKeyed:
		if k, ok := n.(Keyed); ok {
			for _, key := range k.Keys() {
				if fmt.Sprint(key) == seg.Name {
					return k.Lookup(key), nil
				}
			}
		}
		return nil, fmt.Errorf("no key %q", seg.Name)
	case KindOrdered:
		if o, ok := n.(Ordered); ok {
			i, err := strconv.Atoi(seg.Name)
			if err != nil {
				return nil, fmt.Errorf("invalid index %q", seg.Name)
			}
			if i < 0 || i >= o.Len() {
				return nil, fmt.Errorf("index %d out of range [0:%d]", i, o.Len())
			}
			return o.Index(i), nil
		}
	}
	return nil, fmt.Errorf("index %q of %s value", seg.Name, n.Kind())
}

func joinSegments(segs []Segment) string {
	b := &strings.Builder{}
	for i, seg := range segs {
		if i > 0 && !seg.Index {
			b.WriteByte('.')
		}
		b.WriteString(seg.String())
	}
	return b.String()
}
