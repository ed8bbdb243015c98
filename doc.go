// Package objdiff is a structural differ for go values. Given two values of
// the same shape it produces an ordered list of leaf differences, each tagged
// with a path describing where in the structure the difference occurred:
//
//   Child.ChildProp   a field of a field
//   Child[0]          an element of a slice or array
//   Child[a]          a map entry
//
// objdiff classifies every value it visits as one of four kinds, checked in
// this order:
//   keyed       maps & KeyedCollection implementations, diffed key by key
//   ordered     slices, arrays & OrderedCollection implementations
//   composite   structs, diffed field by field in declaration order
//   leaf        everything else, compared for equality
//
// Collections that differ in length (or set of keys) are reported as a single
// difference holding both collections, objdiff doesn't try to work out which
// elements were inserted or deleted.
//
// How composites are broken into fields is pluggable, see FieldAccessor. The
// default reads exported struct fields with reflection, a Registry can
// describe types explicitly.
//
// Values that can't be compared, eg: a map on one side & a struct on the
// other, are reported as a single difference by default. The Strict option
// turns them into errors instead.
//
// objdiff also provides a small kernel for value semantics: types that list
// their EqualityComponents get structural equality & hashing from Equal and
// Hash. Difference itself is such a value, so results can be compared in
// tests and deduplicated.
//
// Cyclic values aren't supported, comparing them won't terminate. Use the
// MaxDepth option to bound traversal of untrusted input
package objdiff
