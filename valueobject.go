package objdiff

import (
	"reflect"

	"github.com/google/go-cmp/cmp"
)

// ValueObject is implemented by types whose identity is their content.
// EqualityComponents lists the parts that define a value, in a stable order.
// Two values of the same concrete type with equal components are equal, see
// Equal & Hash.
//
// EqualityComponents must not have side effects. Component order matters:
// the same components in a different order are not required to be equal
type ValueObject interface {
	EqualityComponents() []interface{}
}

// Equal compares two value objects by their components. two nil values are
// equal, a nil and non-nil value are not. values of different concrete types
// are never equal. Components are compared pairwise, recursing into nested
// value objects and falling back to deep equality for everything else
func Equal(a, b ValueObject) bool {
	aNil, bNil := isNil(a), isNil(b)
	if aNil || bNil {
		return aNil && bNil
	}
	if reflect.TypeOf(a) != reflect.TypeOf(b) {
		return false
	}

	ac, bc := a.EqualityComponents(), b.EqualityComponents()
	if len(ac) != len(bc) {
		return false
	}
	for i := range ac {
		if !equalValues(ac[i], bc[i]) {
			return false
		}
	}
	return true
}

// cmpOptions makes cmp.Equal total over arbitrary go values: unexported
// fields are compared instead of panicking, and value objects nested anywhere
// compare with Equal. set in init, the comparer refers back to Equal
var cmpOptions []cmp.Option

func init() {
	cmpOptions = []cmp.Option{
		cmp.Exporter(func(reflect.Type) bool { return true }),
		cmp.Comparer(func(a, b ValueObject) bool { return Equal(a, b) }),
	}
}

// equalValues is the equality used for leaves & value object components.
// types with an Equal method (eg: time.Time) are compared with it
func equalValues(x, y interface{}) bool {
	xNil, yNil := isNil(x), isNil(y)
	if xNil || yNil {
		return xNil && yNil
	}
	return cmp.Equal(x, y, cmpOptions...)
}

// isNil reports absent values: nil interfaces & nil pointers
func isNil(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Ptr && rv.IsNil()
}
