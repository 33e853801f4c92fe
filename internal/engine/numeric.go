package engine

import "sort"

// numericEntry is one (value, docId) pair in a sortable field's list.
type numericEntry struct {
	value float64
	docID string
}

// numericIndex holds, per sortable field, a value-sorted ascending list
// of (value, docId) pairs (spec.md §4.4). Insertion uses binary-search
// placement rather than the "re-sort after every insert" the original
// system does, per spec.md §9's explicitly-endorsed correctness-
// preserving optimization.
type numericIndex struct {
	byField map[string][]numericEntry
}

func newNumericIndex() *numericIndex {
	return &numericIndex{byField: make(map[string][]numericEntry)}
}

// insert places (value, docID) so the field's list remains sorted
// ascending by value. Ties are broken by insertion order: the new entry
// is placed after every existing entry with an equal value.
func (n *numericIndex) insert(field string, value float64, docID string) {
	entries := n.byField[field]
	idx := sort.Search(len(entries), func(i int) bool {
		return entries[i].value > value
	})
	entries = append(entries, numericEntry{})
	copy(entries[idx+1:], entries[idx:])
	entries[idx] = numericEntry{value: value, docID: docID}
	n.byField[field] = entries
}

// remove deletes docID's entry from field's list, by docId identity.
// Garbage-collects the field's slot entirely once it holds no entries.
func (n *numericIndex) remove(field, docID string) {
	entries, ok := n.byField[field]
	if !ok {
		return
	}
	for i, e := range entries {
		if e.docID == docID {
			entries = append(entries[:i], entries[i+1:]...)
			break
		}
	}
	if len(entries) == 0 {
		delete(n.byField, field)
	} else {
		n.byField[field] = entries
	}
}

// hasField reports whether field has any sortable entries.
func (n *numericIndex) hasField(field string) bool {
	_, ok := n.byField[field]
	return ok
}

// RangeBounds expresses an optional gte/lte/gt/lt numeric filter.
type RangeBounds struct {
	GTE, LTE, GT, LT *float64
}

// HasAny reports whether at least one bound is set.
func (b RangeBounds) HasAny() bool {
	return b.GTE != nil || b.LTE != nil || b.GT != nil || b.LT != nil
}

// matches reports whether value satisfies every bound that is set.
func (b RangeBounds) matches(value float64) bool {
	if b.GTE != nil && value < *b.GTE {
		return false
	}
	if b.LTE != nil && value > *b.LTE {
		return false
	}
	if b.GT != nil && value <= *b.GT {
		return false
	}
	if b.LT != nil && value >= *b.LT {
		return false
	}
	return true
}

// queryRange returns the set of docIds in field whose value satisfies
// every bound in b simultaneously. Scans outward from the lower bound
// (if any) and short-circuits once values leave the range, per spec.md
// §4.4's "may short-circuit when a scanning cursor leaves the range."
func (n *numericIndex) queryRange(field string, b RangeBounds) map[string]struct{} {
	entries := n.byField[field]
	out := make(map[string]struct{})
	if len(entries) == 0 {
		return out
	}

	start := 0
	if b.GTE != nil {
		start = sort.Search(len(entries), func(i int) bool { return entries[i].value >= *b.GTE })
	} else if b.GT != nil {
		start = sort.Search(len(entries), func(i int) bool { return entries[i].value > *b.GT })
	}

	for i := start; i < len(entries); i++ {
		v := entries[i].value
		if b.LTE != nil && v > *b.LTE {
			break
		}
		if b.LT != nil && v >= *b.LT {
			break
		}
		if b.matches(v) {
			out[entries[i].docID] = struct{}{}
		}
	}
	return out
}
