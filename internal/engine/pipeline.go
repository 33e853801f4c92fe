package engine

import "strconv"

// facetKey canonicalizes a Value into the string key facetIndex stores
// values under. Value equality is language-native equality on the raw
// value (spec.md §3); numbers use Go's default float formatting so that
// "1" and "1.0" collide the same way float64 equality does.
func facetKey(v Value) string {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindStringList:
		return "" // callers iterate v.Strs themselves; see indexDocument/deindexDocument
	}
	return ""
}

// indexDocument routes doc's fields into C2–C6 per the schema, following
// spec.md §4.5's add contract. It assumes doc.ID is already known not to
// collide with a stored document; the caller is responsible for the
// DuplicateId check.
//
// Position assignment is a single running counter across the schema's
// string fields taken in stringFields order (spec.md §3's global
// position model, see DESIGN.md's "Global vs per-field positions"
// decision): a StringList field contributes its tokenized, space-joined
// values to the same counter, so phrase matches can cross into and out
// of a repeated-string field exactly as they can cross single-string
// fields.
func (e *Engine) indexDocument(doc Document) {
	position := 0
	for _, field := range e.stringFields {
		value, ok := doc.Fields[field]
		if !ok {
			continue
		}
		for _, token := range tokensForField(value) {
			e.postings.add(token, doc.ID, position)
			e.trie.Insert(token)
			position++
		}
	}

	for field, spec := range e.schema {
		value, ok := doc.Fields[field]
		if !ok {
			continue
		}
		if spec.Facetable {
			for _, key := range facetKeysForValue(value) {
				e.facets.add(field, key, doc.ID)
			}
		}
		if spec.Type == FieldNumber && spec.Sortable && value.Kind == KindNumber {
			e.numeric.insert(field, value.Num, doc.ID)
		}
	}

	e.docs.put(doc, position)
}

// deindexDocument removes doc's contribution from C2–C6, mirroring
// indexDocument exactly (spec.md §4.5's delete contract). Positions
// themselves need not be recomputed: only the token set matters for
// un-indexing, since removal is by docId identity within each posting.
func (e *Engine) deindexDocument(doc Document) {
	for _, field := range e.stringFields {
		value, ok := doc.Fields[field]
		if !ok {
			continue
		}
		seen := make(map[string]struct{})
		for _, token := range tokensForField(value) {
			if _, dup := seen[token]; dup {
				continue
			}
			seen[token] = struct{}{}
			if e.postings.remove(token, doc.ID) {
				e.trie.Delete(token)
			}
		}
	}

	for field, spec := range e.schema {
		value, ok := doc.Fields[field]
		if !ok {
			continue
		}
		if spec.Facetable {
			for _, key := range facetKeysForValue(value) {
				e.facets.remove(field, key, doc.ID)
			}
		}
		if spec.Type == FieldNumber && spec.Sortable && value.Kind == KindNumber {
			e.numeric.remove(field, doc.ID)
		}
	}

	e.docs.remove(doc.ID)
}

// tokensForField returns the token sequence a string-typed or
// string-list-typed field value contributes to the position counter.
// Non-string/non-list kinds contribute nothing (they are never declared
// FieldString in a valid schema, but a caller-supplied Document may
// disagree with its own schema's declared type; such mismatches are
// silently treated as unindexable, consistent with "fields ... absent
// ... are skipped silently").
func tokensForField(v Value) []string {
	switch v.Kind {
	case KindString:
		return Tokenize(v.Str)
	case KindStringList:
		var all []string
		for _, s := range v.Strs {
			all = append(all, Tokenize(s)...)
		}
		return all
	}
	return nil
}

// facetKeysForValue returns the one or more facet keys a value
// registers under. A StringList registers one key per element (spec.md
// §9's "one facet entry per list element"); every other kind registers
// exactly one key.
func facetKeysForValue(v Value) []string {
	if v.Kind == KindStringList {
		keys := make([]string, len(v.Strs))
		for i, s := range v.Strs {
			keys[i] = s
		}
		return keys
	}
	return []string{facetKey(v)}
}
