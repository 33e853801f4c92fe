// Package engine implements the single-collection full-text search
// engine: the positional inverted index, vocabulary trie, facet index,
// numeric index, BM25 query pipeline, mutation protocol, and snapshot
// codec described in SPEC_FULL.md.
package engine

import (
	"fmt"
	"sort"
)

// FieldType is the declared type of a schema field.
type FieldType string

const (
	FieldString FieldType = "string"
	FieldNumber FieldType = "number"
	FieldBool   FieldType = "boolean"
)

// FieldSpec describes one schema field.
type FieldSpec struct {
	Type      FieldType
	Facetable bool
	Sortable  bool
}

// Schema maps field name to its descriptor. It is fixed at construction
// and never mutated by the engine.
type Schema map[string]FieldSpec

// Validate checks that Sortable is only set on number fields, per
// spec.md §3 ("sortable is legal only on number").
func (s Schema) Validate() error {
	for name, spec := range s {
		if spec.Sortable && spec.Type != FieldNumber {
			return fmt.Errorf("field %q: sortable is only legal on number fields", name)
		}
		switch spec.Type {
		case FieldString, FieldNumber, FieldBool:
		default:
			return fmt.Errorf("field %q: unknown type %q", name, spec.Type)
		}
	}
	return nil
}

// stringFieldsInOrder returns the schema's string fields in a stable,
// deterministic order (sorted by name). spec.md §3 requires positions to
// be assigned "across the concatenation of all string fields in schema
// declaration order"; since a Go map has no declaration order, this
// engine defines that order as lexicographic field-name order and holds
// it fixed for the engine's lifetime (see Engine.stringFields).
func stringFieldsInOrder(s Schema) []string {
	var out []string
	for name, spec := range s {
		if spec.Type == FieldString {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
