package objdiff

import (
	"fmt"

	"github.com/apex/log"
)

// Compare walks oldValue & newValue in lockstep, returning the leaf
// differences between them in traversal order. An empty result means the
// values are structurally identical.
//
// Compare either returns every difference or a single error, never both.
// Errors only occur when the Strict or MaxDepth options are set
func Compare(oldValue, newValue interface{}, opts ...Option) (Differences, error) {
	return New(opts...).Compare(oldValue, newValue)
}

// Config are any possible configuration parameters for calculating diffs
type Config struct {
	// RootPath prefixes all difference paths. default is the empty string
	RootPath string
	// If true, values that can't be compared (shape mismatches & field accessor
	// failures) fail the comparison with a *PathError. The default is to
	// report them as a single difference at the path they occur
	Strict bool
	// MaxDepth bounds how deep traversal will go, exceeding it returns an
	// ErrMaxDepth error. zero means no limit. Values that fit within the limit
	// produce the same differences as an unlimited comparison
	MaxDepth int
	// Fields describes composite types. Used to construct the default
	// classifier, defaults to DefaultFields
	Fields FieldAccessor
	// Classifier overrides value classification entirely
	Classifier Classifier
	// Provide a non-nil stats pointer & Compare will populate it with data
	// from the traversal
	Stats *Stats
	// Logger receives debug output, defaults to the apex/log package logger
	Logger log.Interface
}

// Option is a function that adjusts a config, zero or more Options can be
// passed to Compare or New
type Option func(cfg *Config)

// OptionSetStats will set the passed-in stats pointer when Compare is called
func OptionSetStats(st *Stats) Option {
	return func(cfg *Config) {
		cfg.Stats = st
	}
}

// OptionStrict turns shape mismatches & accessor failures into errors
func OptionStrict() Option {
	return func(cfg *Config) {
		cfg.Strict = true
	}
}

// OptionMaxDepth limits traversal depth, zero disables the limit
func OptionMaxDepth(depth int) Option {
	return func(cfg *Config) {
		cfg.MaxDepth = depth
	}
}

// OptionRootPath sets the path prefix of all differences
func OptionRootPath(path string) Option {
	return func(cfg *Config) {
		cfg.RootPath = path
	}
}

// OptionFieldAccessor sets how composite types are described
func OptionFieldAccessor(fa FieldAccessor) Option {
	return func(cfg *Config) {
		cfg.Fields = fa
	}
}

// OptionClassifier replaces the default classifier
func OptionClassifier(c Classifier) Option {
	return func(cfg *Config) {
		cfg.Classifier = c
	}
}

// OptionLogger sets the logger debug output is written to
func OptionLogger(l log.Interface) Option {
	return func(cfg *Config) {
		cfg.Logger = l
	}
}

// Differ compares values with a fixed configuration. A Differ holds no state
// between calls & is safe for concurrent use so long as no Stats pointer is
// configured
type Differ struct {
	cfg *Config
}

// New creates a Differ
func New(opts ...Option) *Differ {
	cfg := &Config{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Fields == nil {
		cfg.Fields = DefaultFields
	}
	if cfg.Classifier == nil {
		cfg.Classifier = ReflectClassifier{Fields: cfg.Fields}
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Log
	}
	return &Differ{cfg: cfg}
}

// Compare walks oldValue & newValue starting at the configured root path
func (d *Differ) Compare(oldValue, newValue interface{}) (Differences, error) {
	return d.CompareAt(oldValue, newValue, d.cfg.RootPath)
}

// CompareAt walks oldValue & newValue, prefixing all paths with path
func (d *Differ) CompareAt(oldValue, newValue interface{}, path string) (Differences, error) {
	w := &walker{cfg: d.cfg, log: d.cfg.Logger}
	diffs, err := w.walk(oldValue, newValue, path)
	if err != nil {
		w.log.WithError(err).Debug("objdiff: comparison failed")
		return nil, err
	}
	if d.cfg.Stats != nil {
		*d.cfg.Stats = w.stats
	}
	w.log.WithFields(log.Fields{
		"nodes":       w.stats.Nodes,
		"differences": w.stats.Differences,
	}).Debug("objdiff: comparison complete")
	return diffs, nil
}

// frame is a pair of values waiting to be compared
type frame struct {
	old, new interface{}
	path     string
	depth    int
}

// walker is the state of a single comparison
type walker struct {
	cfg   *Config
	log   log.Interface
	stats Stats
}

// walk compares two values depth-first. pending comparisons are kept on an
// explicit stack instead of the go call stack so deep values can't exhaust
// it. children are pushed in reverse so they pop in order, which emits
// differences in the same order as a recursive walk would
func (w *walker) walk(oldValue, newValue interface{}, root string) (Differences, error) {
	var (
		diffs Differences
		stack = []frame{{old: oldValue, new: newValue, path: root}}
	)

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if w.cfg.MaxDepth > 0 && f.depth > w.cfg.MaxDepth {
			return nil, &PathError{Path: f.path, Err: ErrMaxDepth}
		}
		w.stats.Nodes++
		if f.depth > w.stats.MaxDepth {
			w.stats.MaxDepth = f.depth
		}

		children, diff, err := w.expand(f)
		if err != nil {
			return nil, err
		}
		if diff != nil {
			w.stats.Differences++
			diffs = append(diffs, *diff)
		}
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}

	return diffs, nil
}

// expand classifies a frame, producing either child frames to compare, a
// difference, or nothing at all when the frame is an equal leaf
func (w *walker) expand(f frame) ([]frame, *Difference, error) {
	n1, err := w.cfg.Classifier.Classify(f.old)
	if err != nil {
		return w.incomparable(f, err)
	}
	n2, err := w.cfg.Classifier.Classify(f.new)
	if err != nil {
		return w.incomparable(f, err)
	}

	if n1.Kind() != n2.Kind() {
		// absence on either side is a plain change, not a shape problem
		if isNil(f.old) || isNil(f.new) {
			return nil, w.leaf(f), nil
		}
		return w.incomparable(f, fmt.Errorf("%w: %s and %s", ErrShapeMismatch, n1.Kind(), n2.Kind()))
	}

	switch n1.Kind() {
	case KindKeyed:
		a, aok := n1.(Keyed)
		b, bok := n2.(Keyed)
		if !aok || !bok {
			return w.incomparable(f, fmt.Errorf("classifier returned %T and %T for %s values", n1, n2, KindKeyed))
		}
		w.stats.Keyed++
		if !sameKeys(a, b) {
			return nil, w.shortCircuit(f, "key sets differ"), nil
		}
		keys := a.Keys()
		children := make([]frame, len(keys))
		for i, key := range keys {
			children[i] = frame{
				old:   a.Lookup(key),
				new:   b.Lookup(key),
				path:  keyPath(f.path, key),
				depth: f.depth + 1,
			}
		}
		return children, nil, nil

	case KindOrdered:
		a, aok := n1.(Ordered)
		b, bok := n2.(Ordered)
		if !aok || !bok {
			return w.incomparable(f, fmt.Errorf("classifier returned %T and %T for %s values", n1, n2, KindOrdered))
		}
		w.stats.Ordered++
		if a.Len() != b.Len() {
			return nil, w.shortCircuit(f, "lengths differ"), nil
		}
		children := make([]frame, a.Len())
		for i := range children {
			children[i] = frame{
				old:   a.Index(i),
				new:   b.Index(i),
				path:  indexPath(f.path, i),
				depth: f.depth + 1,
			}
		}
		return children, nil, nil

	case KindComposite:
		a, aok := n1.(Composite)
		b, bok := n2.(Composite)
		if !aok || !bok {
			return w.incomparable(f, fmt.Errorf("classifier returned %T and %T for %s values", n1, n2, KindComposite))
		}
		if a.Type() != b.Type() {
			return w.incomparable(f, fmt.Errorf("%w: %s and %s", ErrShapeMismatch, a.Type(), b.Type()))
		}
		w.stats.Composites++
		fields := a.Fields()
		children := make([]frame, len(fields))
		for i, fld := range fields {
			children[i] = frame{
				old:   fld.Get(f.old),
				new:   fld.Get(f.new),
				path:  fieldPath(f.path, fld.Name),
				depth: f.depth + 1,
			}
		}
		return children, nil, nil
	}

	return nil, w.leaf(f), nil
}

// leaf compares two values as leaves, returning a difference if they aren't
// equal
func (w *walker) leaf(f frame) *Difference {
	w.stats.Leaves++
	if equalValues(f.old, f.new) {
		return nil
	}
	return &Difference{Path: f.path, OldValue: f.old, NewValue: f.new}
}

// shortCircuit reports whole collections as a single difference
func (w *walker) shortCircuit(f frame, reason string) *Difference {
	w.stats.ShortCircuits++
	w.log.WithField("path", f.path).Debugf("objdiff: %s, not descending", reason)
	return &Difference{Path: f.path, OldValue: f.old, NewValue: f.new}
}

// incomparable applies the mismatch policy to shape mismatches, classifier &
// accessor failures: strict comparisons fail, lenient comparisons fall back
// to a single difference carrying both values
func (w *walker) incomparable(f frame, err error) ([]frame, *Difference, error) {
	w.stats.Mismatches++
	if w.cfg.Strict {
		return nil, nil, &PathError{Path: f.path, Err: err}
	}
	w.log.WithField("path", f.path).WithError(err).Debug("objdiff: comparing as leaf")
	return nil, w.leaf(f), nil
}
