package objdiff

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

// CompareJSON decodes two JSON documents into generic go values & compares
// them. objects decode to map[string]interface{} & are diffed by key, arrays
// to []interface{}, numbers to float64
func CompareJSON(oldDoc, newDoc []byte, opts ...Option) (Differences, error) {
	var a, b interface{}
	if err := json.Unmarshal(oldDoc, &a); err != nil {
		return nil, fmt.Errorf("decoding old document: %w", err)
	}
	if err := json.Unmarshal(newDoc, &b); err != nil {
		return nil, fmt.Errorf("decoding new document: %w", err)
	}
	return Compare(a, b, opts...)
}

// CompareYAML decodes two YAML documents into generic go values & compares
// them
func CompareYAML(oldDoc, newDoc []byte, opts ...Option) (Differences, error) {
	var a, b interface{}
	if err := yaml.Unmarshal(oldDoc, &a); err != nil {
		return nil, fmt.Errorf("decoding old document: %w", err)
	}
	if err := yaml.Unmarshal(newDoc, &b); err != nil {
		return nil, fmt.Errorf("decoding new document: %w", err)
	}
	return Compare(a, b, opts...)
}

// CompareJSONAt compares the values query selects from two JSON documents.
// query uses gjson path syntax, eg: "baz.a" or "items.0". A query that
// matches nothing selects nil.
//
// Plain dotted queries become the root path in objdiff syntax, "items.0"
// roots differences at "[items][0]", so paths resolve against the whole
// decoded document. Queries using wildcards, escapes, modifiers or other
// gjson syntax are used as the root path verbatim & won't resolve
func CompareJSONAt(oldDoc, newDoc []byte, query string, opts ...Option) (Differences, error) {
	if !gjson.ValidBytes(oldDoc) {
		return nil, fmt.Errorf("decoding old document: invalid json")
	}
	if !gjson.ValidBytes(newDoc) {
		return nil, fmt.Errorf("decoding new document: invalid json")
	}

	a := gjson.GetBytes(oldDoc, query)
	b := gjson.GetBytes(newDoc, query)
	return New(append(opts, OptionRootPath(queryPath(query)))...).Compare(a.Value(), b.Value())
}

// queryPath converts a plain dotted gjson query to a path. JSON objects &
// arrays both decode to collections, so every segment is bracketed
func queryPath(query string) string {
	if query == "" || strings.ContainsAny(query, `*?#|@\[]{}!=<>"%,:^`) {
		return query
	}
	segs := strings.Split(query, ".")
	path := ""
	for _, seg := range segs {
		if seg == "" {
			return query
		}
		path = keyPath(path, seg)
	}
	return path
}
