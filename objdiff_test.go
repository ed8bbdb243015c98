package objdiff

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rootWithProps struct {
	Prop1 string
	Prop2 int
	Prop3 float64
}

type rootWithChild[T any] struct {
	Child T
}

type child struct {
	ChildProp string
}

type otherChild struct {
	ChildProp string
}

// withIndexer keeps its data in an unexported map, & only exposes it through
// computed fields registered with a Registry
type withIndexer struct {
	data map[string]int
}

func newWithIndexer(a, b int) withIndexer {
	return withIndexer{data: map[string]int{"a": a, "b": b}}
}

func (w withIndexer) get(key string) int { return w.data[key] }

type TestCase struct {
	description string
	old, new    interface{}
	expect      Differences
}

func RunTestCases(t *testing.T, cases []TestCase, opts ...Option) {
	t.Helper()
	for _, c := range cases {
		t.Run(c.description, func(t *testing.T) {
			got, err := Compare(c.old, c.new, opts...)
			if err != nil {
				t.Fatalf("Compare error: %s", err)
			}
			if diff := cmp.Diff(c.expect, got); diff != "" {
				t.Errorf("differences mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCompareComposites(t *testing.T) {
	cases := []TestCase{
		{
			"root props are different",
			rootWithProps{"a", 1, 2.0},
			rootWithProps{"b", 2, 3.0},
			Differences{
				{Path: "Prop1", OldValue: "a", NewValue: "b"},
				{Path: "Prop2", OldValue: 1, NewValue: 2},
				{Path: "Prop3", OldValue: 2.0, NewValue: 3.0},
			},
		},
		{
			"root props are the same",
			rootWithProps{"a", 1, 2.0},
			rootWithProps{"a", 1, 2.0},
			nil,
		},
		{
			"single field differs",
			rootWithProps{"a", 1, 2.0},
			rootWithProps{"a", 5, 2.0},
			Differences{
				{Path: "Prop2", OldValue: 1, NewValue: 5},
			},
		},
		{
			"child props are different",
			rootWithChild[child]{child{"a"}},
			rootWithChild[child]{child{"b"}},
			Differences{
				{Path: "Child.ChildProp", OldValue: "a", NewValue: "b"},
			},
		},
		{
			"child props are the same",
			rootWithChild[child]{child{"a"}},
			rootWithChild[child]{child{"a"}},
			nil,
		},
		{
			"pointers are followed",
			&rootWithChild[*child]{&child{"a"}},
			&rootWithChild[*child]{&child{"b"}},
			Differences{
				{Path: "Child.ChildProp", OldValue: "a", NewValue: "b"},
			},
		},
		{
			"nil pointer on one side",
			rootWithChild[*child]{nil},
			rootWithChild[*child]{&child{"b"}},
			Differences{
				{Path: "Child", OldValue: (*child)(nil), NewValue: &child{"b"}},
			},
		},
		{
			"nil pointers on both sides",
			rootWithChild[*child]{nil},
			rootWithChild[*child]{nil},
			nil,
		},
		{
			"deeply nested",
			rootWithChild[rootWithChild[rootWithChild[child]]]{rootWithChild[rootWithChild[child]]{rootWithChild[child]{child{"a"}}}},
			rootWithChild[rootWithChild[rootWithChild[child]]]{rootWithChild[rootWithChild[child]]{rootWithChild[child]{child{"b"}}}},
			Differences{
				{Path: "Child.Child.Child.ChildProp", OldValue: "a", NewValue: "b"},
			},
		},
	}

	RunTestCases(t, cases)
}

func TestCompareOrderedCollections(t *testing.T) {
	baseline := []string{"a"}
	empty := []string{}
	withOneMoreValue := []string{"a", "b"}
	sameSizeDifferentValue := []string{"b"}

	cases := []TestCase{
		{
			"shorter array",
			rootWithChild[[]string]{baseline},
			rootWithChild[[]string]{empty},
			Differences{{Path: "Child", OldValue: baseline, NewValue: empty}},
		},
		{
			"longer array",
			rootWithChild[[]string]{baseline},
			rootWithChild[[]string]{withOneMoreValue},
			Differences{{Path: "Child", OldValue: baseline, NewValue: withOneMoreValue}},
		},
		{
			"same size different value",
			rootWithChild[[]string]{baseline},
			rootWithChild[[]string]{sameSizeDifferentValue},
			Differences{{Path: "Child[0]", OldValue: "a", NewValue: "b"}},
		},
		{
			"equal but distinct slices",
			rootWithChild[[]string]{[]string{"a", "b"}},
			rootWithChild[[]string]{[]string{"a", "b"}},
			nil,
		},
		{
			"fixed size arrays",
			[3]int{1, 2, 3},
			[3]int{1, 5, 3},
			Differences{{Path: "[1]", OldValue: 2, NewValue: 5}},
		},
		{
			"slices of composites",
			[]child{{"a"}, {"b"}},
			[]child{{"a"}, {"c"}},
			Differences{{Path: "[1].ChildProp", OldValue: "b", NewValue: "c"}},
		},
		{
			"nil & empty slices have the same length",
			rootWithChild[[]string]{nil},
			rootWithChild[[]string]{[]string{}},
			nil,
		},
		{
			"strings aren't collections",
			"abc",
			"abd",
			Differences{{Path: "", OldValue: "abc", NewValue: "abd"}},
		},
	}

	RunTestCases(t, cases)
}

func TestCompareKeyedCollections(t *testing.T) {
	baseline := map[string]string{"a": "a"}
	empty := map[string]string{}
	withOneMoreValue := map[string]string{"a": "a", "b": "b"}
	sameSizeDifferentKey := map[string]string{"b": "a"}
	sameSizeDifferentValue := map[string]string{"a": "b"}

	cases := []TestCase{
		{
			"fewer keys",
			rootWithChild[map[string]string]{baseline},
			rootWithChild[map[string]string]{empty},
			Differences{{Path: "Child", OldValue: baseline, NewValue: empty}},
		},
		{
			"more keys",
			rootWithChild[map[string]string]{baseline},
			rootWithChild[map[string]string]{withOneMoreValue},
			Differences{{Path: "Child", OldValue: baseline, NewValue: withOneMoreValue}},
		},
		{
			"same size different key",
			rootWithChild[map[string]string]{baseline},
			rootWithChild[map[string]string]{sameSizeDifferentKey},
			Differences{{Path: "Child", OldValue: baseline, NewValue: sameSizeDifferentKey}},
		},
		{
			"same size different value",
			rootWithChild[map[string]string]{baseline},
			rootWithChild[map[string]string]{sameSizeDifferentValue},
			Differences{{Path: "Child[a]", OldValue: "a", NewValue: "b"}},
		},
		{
			"equal but distinct maps",
			rootWithChild[map[string]string]{map[string]string{"a": "a", "b": "b"}},
			rootWithChild[map[string]string]{map[string]string{"b": "b", "a": "a"}},
			nil,
		},
		{
			"keys are visited in sorted order",
			map[string]int{"c": 1, "a": 1, "b": 1},
			map[string]int{"c": 2, "a": 2, "b": 2},
			Differences{
				{Path: "[a]", OldValue: 1, NewValue: 2},
				{Path: "[b]", OldValue: 1, NewValue: 2},
				{Path: "[c]", OldValue: 1, NewValue: 2},
			},
		},
		{
			"integer keys sort numerically",
			map[int]string{10: "x", 2: "x", 1: "x"},
			map[int]string{10: "y", 2: "y", 1: "y"},
			Differences{
				{Path: "[1]", OldValue: "x", NewValue: "y"},
				{Path: "[2]", OldValue: "x", NewValue: "y"},
				{Path: "[10]", OldValue: "x", NewValue: "y"},
			},
		},
		{
			"nested maps & slices",
			map[string]interface{}{"a": []interface{}{1, map[string]interface{}{"b": true}}},
			map[string]interface{}{"a": []interface{}{1, map[string]interface{}{"b": false}}},
			Differences{{Path: "[a][1][b]", OldValue: true, NewValue: false}},
		},
	}

	RunTestCases(t, cases)
}

func TestCompareLeaves(t *testing.T) {
	t1 := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)

	cases := []TestCase{
		{"equal ints", 1, 1, nil},
		{"different ints", 1, 2, Differences{{Path: "", OldValue: 1, NewValue: 2}}},
		{"equal strings", "a", "a", nil},
		{"different bools", true, false, Differences{{Path: "", OldValue: true, NewValue: false}}},
		{"nils", nil, nil, nil},
		{"nil & value", nil, 1, Differences{{Path: "", OldValue: nil, NewValue: 1}}},
		{"same instant in different zones", t1, t1.In(time.FixedZone("UTC+1", 3600)), nil},
		{"different instants", t1, t1.Add(time.Second), Differences{{Path: "", OldValue: t1, NewValue: t1.Add(time.Second)}}},
		{"unexported fields are compared", money{100, "USD"}, money{100, "EUR"}, Differences{{Path: "", OldValue: money{100, "USD"}, NewValue: money{100, "EUR"}}}},
		{"value objects use their components", money{100, "USD"}, money{100, "USD"}, nil},
	}

	RunTestCases(t, cases)
}

func TestCompareRootPath(t *testing.T) {
	d := New()
	got, err := d.CompareAt(rootWithProps{"a", 1, 2.0}, rootWithProps{"b", 1, 2.0}, "root")
	require.NoError(t, err)
	assert.Equal(t, []string{"root.Prop1"}, got.Paths())

	got, err = Compare(1, 2, OptionRootPath("root"))
	require.NoError(t, err)
	assert.True(t, got.Equal(Differences{{Path: "root", OldValue: 1, NewValue: 2}}))

	got, err = Compare([]int{1}, []int{2}, OptionRootPath("list"))
	require.NoError(t, err)
	assert.Equal(t, []string{"list[0]"}, got.Paths())
}

func TestCompareRegistry(t *testing.T) {
	reg := NewRegistry(DefaultFields)
	reg.Register(withIndexer{},
		Field{Name: "A", Get: func(v interface{}) interface{} { return v.(withIndexer).get("a") }},
		Field{Name: "B", Get: func(v interface{}) interface{} { return v.(withIndexer).get("b") }},
	)

	cases := []TestCase{
		{
			"computed fields",
			rootWithChild[withIndexer]{newWithIndexer(1, 2)},
			rootWithChild[withIndexer]{newWithIndexer(1, 3)},
			Differences{{Path: "Child.B", OldValue: 2, NewValue: 3}},
		},
		{
			"computed fields are equal",
			rootWithChild[withIndexer]{newWithIndexer(1, 2)},
			rootWithChild[withIndexer]{newWithIndexer(1, 2)},
			nil,
		},
	}

	RunTestCases(t, cases, OptionFieldAccessor(reg))
}

// orderedMap is both a keyed & an ordered collection. keyed wins
type orderedMap struct {
	keys []string
	vals map[string]int
}

func newOrderedMap(kv ...interface{}) orderedMap {
	m := orderedMap{vals: map[string]int{}}
	for i := 0; i < len(kv); i += 2 {
		k := kv[i].(string)
		m.keys = append(m.keys, k)
		m.vals[k] = kv[i+1].(int)
	}
	return m
}

func (m orderedMap) Keys() []interface{} {
	keys := make([]interface{}, len(m.keys))
	for i, k := range m.keys {
		keys[i] = k
	}
	return keys
}

func (m orderedMap) Lookup(key interface{}) (interface{}, bool) {
	s, ok := key.(string)
	if !ok {
		return nil, false
	}
	v, ok := m.vals[s]
	return v, ok
}

func (m orderedMap) Len() int                { return len(m.keys) }
func (m orderedMap) Index(i int) interface{} { return m.vals[m.keys[i]] }

func TestClassificationPrecedence(t *testing.T) {
	cases := []TestCase{
		{
			"keyed collections visit keys in their own order",
			newOrderedMap("b", 1, "a", 2),
			newOrderedMap("b", 5, "a", 6),
			Differences{
				{Path: "[b]", OldValue: 1, NewValue: 5},
				{Path: "[a]", OldValue: 2, NewValue: 6},
			},
		},
		{
			"key order doesn't affect key set equality",
			newOrderedMap("b", 1, "a", 2),
			newOrderedMap("a", 2, "b", 1),
			nil,
		},
	}

	RunTestCases(t, cases)
}

func TestCompareMismatchedShapes(t *testing.T) {
	m := map[string]string{"ChildProp": "a"}
	ch := child{"a"}

	cases := []struct {
		description string
		old, new    interface{}
		path        string
	}{
		{"keyed vs composite at root", m, ch, ""},
		{"keyed vs composite in a field", rootWithChild[interface{}]{m}, rootWithChild[interface{}]{ch}, "Child"},
		{"ordered vs leaf", rootWithChild[interface{}]{[]int{1}}, rootWithChild[interface{}]{1}, "Child"},
		{"composites of different types", rootWithChild[interface{}]{ch}, rootWithChild[interface{}]{otherChild{"a"}}, "Child"},
	}

	for _, c := range cases {
		t.Run(c.description, func(t *testing.T) {
			st := &Stats{}
			got, err := Compare(c.old, c.new, OptionSetStats(st))
			require.NoError(t, err)

			want := Differences{{Path: c.path, OldValue: fieldOrSelf(c.old, c.path), NewValue: fieldOrSelf(c.new, c.path)}}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("lenient result mismatch (-want +got):\n%s", diff)
			}
			assert.Equal(t, 1, st.Mismatches)

			got, err = Compare(c.old, c.new, OptionStrict())
			assert.Nil(t, got)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrShapeMismatch), "expected ErrShapeMismatch, got: %s", err)

			var perr *PathError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, c.path, perr.Path)
		})
	}
}

func fieldOrSelf(v interface{}, path string) interface{} {
	if path == "" {
		return v
	}
	got, err := Resolve(v, path)
	if err != nil {
		panic(err)
	}
	return got
}

func TestCompareAccessorFailure(t *testing.T) {
	reg := NewRegistry(nil)
	reg.Register(rootWithChild[rootWithProps]{}, Field{
		Name: "Child",
		Get:  func(v interface{}) interface{} { return v.(rootWithChild[rootWithProps]).Child },
	})

	a := rootWithChild[rootWithProps]{rootWithProps{"a", 1, 2.0}}
	b := rootWithChild[rootWithProps]{rootWithProps{"b", 1, 2.0}}

	_, err := Compare(a, b, OptionFieldAccessor(reg), OptionStrict())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAccessorFailure))
	assert.True(t, errors.Is(err, ErrUnregistered))

	var perr *PathError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "Child", perr.Path)

	got, err := Compare(a, b, OptionFieldAccessor(reg))
	require.NoError(t, err)
	want := Differences{{Path: "Child", OldValue: a.Child, NewValue: b.Child}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("lenient result mismatch (-want +got):\n%s", diff)
	}

	got, err = Compare(a, a, OptionFieldAccessor(reg))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCompareMaxDepth(t *testing.T) {
	a := rootWithChild[rootWithChild[child]]{rootWithChild[child]{child{"a"}}}
	b := rootWithChild[rootWithChild[child]]{rootWithChild[child]{child{"b"}}}

	unlimited, err := Compare(a, b)
	require.NoError(t, err)

	// the deepest node is at depth 3
	limited, err := Compare(a, b, OptionMaxDepth(3))
	require.NoError(t, err)
	if diff := cmp.Diff(unlimited, limited); diff != "" {
		t.Errorf("max depth changed results (-want +got):\n%s", diff)
	}

	_, err = Compare(a, b, OptionMaxDepth(2))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMaxDepth))

	var perr *PathError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "Child.Child.ChildProp", perr.Path)
}

func TestCompareReflexive(t *testing.T) {
	values := []interface{}{
		nil,
		1,
		"str",
		3.5,
		[]int{1, 2, 3},
		map[string]interface{}{"a": []interface{}{1, "b", nil}, "c": map[string]interface{}{}},
		rootWithProps{"a", 1, 2.0},
		&rootWithChild[*child]{&child{"a"}},
		rootWithChild[[]child]{[]child{{"a"}, {"b"}}},
		newOrderedMap("x", 1, "y", 2),
		money{10, "USD"},
		time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	for _, v := range values {
		got, err := Compare(v, v)
		require.NoError(t, err)
		assert.Empty(t, got, "comparing %#v with itself", v)
	}
}

func TestCompareIdempotent(t *testing.T) {
	a := map[string]interface{}{"a": 1, "b": []interface{}{"x", "y"}, "c": map[string]interface{}{"d": 1, "e": 2, "f": 3}}
	b := map[string]interface{}{"a": 2, "b": []interface{}{"x", "z"}, "c": map[string]interface{}{"d": 2, "e": 3, "f": 4}}

	first, err := Compare(a, b)
	require.NoError(t, err)
	require.Len(t, first, 5)

	for i := 0; i < 100; i++ {
		got, err := Compare(a, b)
		require.NoError(t, err)
		if !first.Equal(got) {
			t.Fatalf("run %d: non-deterministic result.\nfirst: %v\ngot: %v", i, first, got)
		}
	}
}

func TestCompareStats(t *testing.T) {
	st := &Stats{}
	_, err := Compare(rootWithProps{"a", 1, 2.0}, rootWithProps{"b", 2, 2.0}, OptionSetStats(st))
	require.NoError(t, err)

	expect := &Stats{
		Nodes:       4,
		Leaves:      3,
		Composites:  1,
		MaxDepth:    1,
		Differences: 2,
	}
	if diff := cmp.Diff(expect, st); diff != "" {
		t.Errorf("stats mismatch (-want +got):\n%s", diff)
	}

	_, err = Compare(
		rootWithChild[map[string]int]{map[string]int{"a": 1}},
		rootWithChild[map[string]int]{map[string]int{"b": 1}},
		OptionSetStats(st),
	)
	require.NoError(t, err)
	assert.Equal(t, 1, st.ShortCircuits)
	assert.Equal(t, 1, st.Keyed)
	assert.Equal(t, 1, st.Differences)
}

type failingClassifier struct{}

func (failingClassifier) Classify(v interface{}) (Node, error) {
	return nil, errors.New("boom")
}

func TestCompareClassifierFailure(t *testing.T) {
	_, err := Compare(1, 2, OptionClassifier(failingClassifier{}), OptionStrict())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")

	got, err := Compare(1, 2, OptionClassifier(failingClassifier{}))
	require.NoError(t, err)
	assert.True(t, got.Equal(Differences{{Path: "", OldValue: 1, NewValue: 2}}))
}

// kindOnly claims a kind without implementing the matching node interface
type kindOnly struct {
	kind  Kind
	value interface{}
}

func (k kindOnly) Kind() Kind         { return k.kind }
func (k kindOnly) Value() interface{} { return k.value }

type lyingClassifier struct {
	kind Kind
}

func (c lyingClassifier) Classify(v interface{}) (Node, error) {
	return kindOnly{kind: c.kind, value: v}, nil
}

func TestCompareInconsistentClassifier(t *testing.T) {
	for _, kind := range []Kind{KindKeyed, KindOrdered, KindComposite} {
		t.Run(kind.String(), func(t *testing.T) {
			st := &Stats{}
			got, err := Compare(1, 2, OptionClassifier(lyingClassifier{kind}), OptionSetStats(st))
			require.NoError(t, err)
			if diff := cmp.Diff(Differences{{Path: "", OldValue: 1, NewValue: 2}}, got); diff != "" {
				t.Errorf("lenient result mismatch (-want +got):\n%s", diff)
			}
			assert.Equal(t, 1, st.Mismatches)

			got, err = Compare(1, 1, OptionClassifier(lyingClassifier{kind}))
			require.NoError(t, err)
			assert.Empty(t, got)

			_, err = Compare(1, 2, OptionClassifier(lyingClassifier{kind}), OptionStrict(), OptionRootPath("root"))
			require.Error(t, err)
			var perr *PathError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, "root", perr.Path)
			assert.Contains(t, err.Error(), "classifier returned")
		})
	}
}
