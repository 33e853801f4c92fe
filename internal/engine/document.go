package engine

// ValueKind discriminates the dynamic value stored in a Document field.
// spec.md §9 models documents as open mappings of arbitrary value types;
// this tagged variant is the statically-typed equivalent.
type ValueKind int

const (
	KindString ValueKind = iota
	KindNumber
	KindBool
	KindStringList
)

// Value is one field's value in a Document. Only the member matching
// Kind is meaningful.
type Value struct {
	Kind ValueKind
	Str  string
	Num  float64
	Bool bool
	Strs []string
}

// StringValue constructs a string Value.
func StringValue(s string) Value { return Value{Kind: KindString, Str: s} }

// NumberValue constructs a number Value.
func NumberValue(n float64) Value { return Value{Kind: KindNumber, Num: n} }

// BoolValue constructs a boolean Value.
func BoolValue(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// StringListValue constructs a repeated-string Value (see SPEC_FULL.md §9).
func StringListValue(ss []string) Value {
	cp := make([]string, len(ss))
	copy(cp, ss)
	return Value{Kind: KindStringList, Strs: cp}
}

// Document is a mapping from field name to value, plus a mandatory Id.
// Fields absent from the schema are retained verbatim for retrieval but
// never indexed; fields declared in the schema but absent from a given
// document are skipped silently during indexing.
type Document struct {
	ID     string
	Fields map[string]Value
}

// clone returns a deep copy, so the engine never aliases caller-owned
// slices/maps (spec.md's design notes: "store a deep copy on add").
func (d Document) clone() Document {
	fields := make(map[string]Value, len(d.Fields))
	for k, v := range d.Fields {
		if v.Kind == KindStringList {
			cp := make([]string, len(v.Strs))
			copy(cp, v.Strs)
			v.Strs = cp
		}
		fields[k] = v
	}
	return Document{ID: d.ID, Fields: fields}
}

// merge overlays partial's fields onto a copy of d, implementing the
// "merged document" update semantics of spec.md §4.5 (update = delete +
// add on stored-overlaid-with-partial).
func (d Document) merge(partial Document) Document {
	out := d.clone()
	for k, v := range partial.Fields {
		if v.Kind == KindStringList {
			cp := make([]string, len(v.Strs))
			copy(cp, v.Strs)
			v.Strs = cp
		}
		out.Fields[k] = v
	}
	return out
}
