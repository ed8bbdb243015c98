package objdiff

import (
	"encoding/binary"
	"hash"
	"io"
	"math"
	"reflect"
	"time"

	"github.com/cespare/xxhash/v2"
)

// NewHash returns a new hash interface, wrapped in a function for easy
// hash algorithm switching, package consumers can override NewHash
// with their own desired hash.Hash64 implementation. default is 64-bit
// xxhash for fast, cheap, (non-cryptographic) hashing
var NewHash = func() hash.Hash64 {
	return xxhash.New()
}

// Hasher can be implemented by component types that know how to hash
// themselves. Implementations must return equal hashes for equal values
type Hasher interface {
	Hash() uint64
}

// Hash computes a hash of a value object from its components. nil
// components hash to 0. Equal values always hash the same:
//   Equal(a, b) implies Hash(a) == Hash(b)
// component order is significant
func Hash(v ValueObject) uint64 {
	if isNil(v) {
		return 0
	}
	var sum uint64
	for _, c := range v.EqualityComponents() {
		sum = sum*31 + hashComponent(c)
	}
	return sum
}

func hashComponent(c interface{}) uint64 {
	if isNil(c) {
		return 0
	}
	switch x := c.(type) {
	case ValueObject:
		return Hash(x)
	case Hasher:
		return x.Hash()
	}

	hw := &hashWriter{h: NewHash()}
	hw.value(reflect.ValueOf(c))
	return hw.h.Sum64()
}

// hashWriter writes a canonical encoding of go values into a hash. the
// encoding agrees with equalValues: values it considers equal write the same
// bytes. types with an Equal method hash by type alone, time.Time by instant
type hashWriter struct {
	h   hash.Hash64
	buf [8]byte
}

func (hw *hashWriter) writeUint(u uint64) {
	binary.LittleEndian.PutUint64(hw.buf[:], u)
	hw.h.Write(hw.buf[:])
}

func (hw *hashWriter) writeByte(b byte) {
	hw.buf[0] = b
	hw.h.Write(hw.buf[:1])
}

func (hw *hashWriter) writeFloat(f float64) {
	if f == 0 {
		// -0 == 0
		f = 0
	}
	hw.writeUint(math.Float64bits(f))
}

func (hw *hashWriter) value(rv reflect.Value) {
	if !rv.IsValid() {
		hw.writeByte(0)
		return
	}

	if rv.CanInterface() && !isNilValue(rv) {
		switch x := rv.Interface().(type) {
		case ValueObject:
			hw.writeUint(Hash(x))
			return
		case Hasher:
			hw.writeUint(x.Hash())
			return
		case time.Time:
			// time.Time equality is by instant, not representation
			hw.writeUint(uint64(x.UnixNano()))
			return
		}
	}

	if hasEqualMethod(rv.Type()) {
		// equality is whatever the method says, only the type is stable
		// across equal values
		io.WriteString(hw.h, rv.Type().String())
		return
	}

	hw.writeByte(byte(rv.Kind()))
	switch rv.Kind() {
	case reflect.Bool:
		if rv.Bool() {
			hw.writeByte(1)
		} else {
			hw.writeByte(0)
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		hw.writeUint(uint64(rv.Int()))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		hw.writeUint(rv.Uint())
	case reflect.Float32, reflect.Float64:
		hw.writeFloat(rv.Float())
	case reflect.Complex64, reflect.Complex128:
		c := rv.Complex()
		hw.writeFloat(real(c))
		hw.writeFloat(imag(c))
	case reflect.String:
		hw.writeUint(uint64(rv.Len()))
		io.WriteString(hw.h, rv.String())
	case reflect.Slice, reflect.Array:
		hw.writeUint(uint64(rv.Len()))
		for i := 0; i < rv.Len(); i++ {
			hw.value(rv.Index(i))
		}
	case reflect.Map:
		// map iteration order is random, entries are combined with an
		// order-insensitive sum
		hw.writeUint(uint64(rv.Len()))
		var sum uint64
		iter := rv.MapRange()
		for iter.Next() {
			entry := &hashWriter{h: NewHash()}
			entry.value(iter.Key())
			entry.value(iter.Value())
			sum += entry.h.Sum64()
		}
		hw.writeUint(sum)
	case reflect.Struct:
		io.WriteString(hw.h, rv.Type().String())
		for i := 0; i < rv.NumField(); i++ {
			hw.value(rv.Field(i))
		}
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			hw.writeByte(0)
			return
		}
		hw.value(rv.Elem())
	case reflect.Chan, reflect.Func, reflect.UnsafePointer:
		hw.writeUint(uint64(rv.Pointer()))
	}
}

// hasEqualMethod reports types cmp.Equal compares with their own method:
// "(T) Equal(T) bool" or "(T) Equal(I) bool" where T is assignable to I
func hasEqualMethod(t reflect.Type) bool {
	if t.Kind() == reflect.Interface {
		return false
	}
	m, ok := t.MethodByName("Equal")
	if !ok {
		return false
	}
	mt := m.Type
	return mt.NumIn() == 2 && mt.NumOut() == 1 &&
		mt.In(0).AssignableTo(mt.In(1)) && mt.Out(0).Kind() == reflect.Bool
}

func isNilValue(rv reflect.Value) bool {
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
