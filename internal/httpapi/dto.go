package httpapi

import (
	"encoding/json"
	"fmt"

	"github.com/cerplabs/quiver/internal/engine"
)

// schemaDTO is the wire shape of a schema in a POST /collections body:
// field name -> {type, facetable, sortable}.
type schemaDTO map[string]fieldSpecDTO

type fieldSpecDTO struct {
	Type      string `json:"type"`
	Facetable bool   `json:"facetable,omitempty"`
	Sortable  bool   `json:"sortable,omitempty"`
}

func (s schemaDTO) toEngineSchema() (engine.Schema, error) {
	out := make(engine.Schema, len(s))
	for name, spec := range s {
		var fieldType engine.FieldType
		switch spec.Type {
		case "string":
			fieldType = engine.FieldString
		case "number":
			fieldType = engine.FieldNumber
		case "boolean":
			fieldType = engine.FieldBool
		default:
			return nil, fmt.Errorf("field %q: unknown type %q", name, spec.Type)
		}
		out[name] = engine.FieldSpec{Type: fieldType, Facetable: spec.Facetable, Sortable: spec.Sortable}
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

// documentDTO is the wire shape of a document body: a raw JSON object.
// Each field value becomes the engine.Value kind matching its JSON type
// (string, number, boolean, or array of strings); the schema is not
// consulted, so fields absent from the schema are converted and stored
// by the same rule. Any other JSON type (null, object, mixed array) is
// rejected.
type documentDTO map[string]any

func (d documentDTO) toEngineDocument(schema engine.Schema) (engine.Document, error) {
	fields := make(map[string]engine.Value, len(d))
	for name, raw := range d {
		if name == "id" {
			continue
		}
		value, err := convertValue(name, raw, schema)
		if err != nil {
			return engine.Document{}, err
		}
		fields[name] = value
	}
	id, _ := d["id"].(string)
	return engine.Document{ID: id, Fields: fields}, nil
}

func convertValue(name string, raw any, schema engine.Schema) (engine.Value, error) {
	switch v := raw.(type) {
	case string:
		return engine.StringValue(v), nil
	case float64:
		return engine.NumberValue(v), nil
	case bool:
		return engine.BoolValue(v), nil
	case []any:
		strs := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return engine.Value{}, fmt.Errorf("field %q: list elements must be strings", name)
			}
			strs = append(strs, s)
		}
		return engine.StringListValue(strs), nil
	default:
		return engine.Value{}, fmt.Errorf("field %q: unsupported JSON value type", name)
	}
}

// documentToJSON renders an engine.Document back to a plain JSON-ready
// map, inverting convertValue.
func documentToJSON(doc engine.Document) map[string]any {
	out := make(map[string]any, len(doc.Fields)+1)
	out["id"] = doc.ID
	for name, v := range doc.Fields {
		switch v.Kind {
		case engine.KindString:
			out[name] = v.Str
		case engine.KindNumber:
			out[name] = v.Num
		case engine.KindBool:
			out[name] = v.Bool
		case engine.KindStringList:
			out[name] = v.Strs
		}
	}
	return out
}

// searchRequestDTO is the wire shape of a POST .../search body, matching
// spec.md §4.6's query shape.
type searchRequestDTO struct {
	Q         string                    `json:"q"`
	Tolerance int                       `json:"tolerance"`
	Limit     int                       `json:"limit"`
	Facets    []string                  `json:"facets"`
	Filters   map[string]filterValueDTO `json:"filters"`
}

// filterValueDTO accepts either a bare term (decoded into Term) or a
// range object (decoded into the pointer fields). json.Unmarshal cannot
// discriminate a string-or-object field directly, so filterValueDTO
// implements json.Unmarshaler itself.
type filterValueDTO struct {
	Term    string
	IsRange bool
	GTE     *float64
	LTE     *float64
	GT      *float64
	LT      *float64
}

func (f *filterValueDTO) UnmarshalJSON(data []byte) error {
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		f.Term = asString
		return nil
	}

	var asRange struct {
		GTE *float64 `json:"gte"`
		LTE *float64 `json:"lte"`
		GT  *float64 `json:"gt"`
		LT  *float64 `json:"lt"`
	}
	if err := json.Unmarshal(data, &asRange); err != nil {
		return fmt.Errorf("filter value must be a string or a range object: %w", err)
	}
	f.IsRange = true
	f.GTE, f.LTE, f.GT, f.LT = asRange.GTE, asRange.LTE, asRange.GT, asRange.LT
	return nil
}

func (f filterValueDTO) toEngineFilter() engine.Filter {
	if !f.IsRange {
		return engine.Filter{Term: f.Term}
	}
	return engine.Filter{
		IsRange: true,
		Range:   engine.RangeBounds{GTE: f.GTE, LTE: f.LTE, GT: f.GT, LT: f.LT},
	}
}

func (r searchRequestDTO) toEngineQuery() engine.Query {
	filters := make(map[string]engine.Filter, len(r.Filters))
	for field, v := range r.Filters {
		filters[field] = v.toEngineFilter()
	}
	return engine.Query{
		Q:         r.Q,
		Tolerance: r.Tolerance,
		Limit:     r.Limit,
		Facets:    r.Facets,
		Filters:   filters,
	}
}

// searchResponseDTO mirrors spec.md §6's search response shape.
type searchResponseDTO struct {
	Hits    []hitDTO                   `json:"hits"`
	Count   int                        `json:"count"`
	Facets  map[string]map[string]int  `json:"facets,omitempty"`
	Elapsed string                     `json:"elapsed"`
}

type hitDTO struct {
	ID       string         `json:"id"`
	Score    float64        `json:"score"`
	Document map[string]any `json:"document"`
}

func resultToDTO(result engine.Result) searchResponseDTO {
	hits := make([]hitDTO, len(result.Hits))
	for i, h := range result.Hits {
		hits[i] = hitDTO{ID: h.ID, Score: h.Score, Document: documentToJSON(h.Document)}
	}
	return searchResponseDTO{
		Hits:    hits,
		Count:   result.Count,
		Facets:  result.Facets,
		Elapsed: result.Elapsed.String(),
	}
}
