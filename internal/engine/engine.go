package engine

import (
	"github.com/google/uuid"

	"github.com/cerplabs/quiver/internal/enginerr"
)

// Engine is one collection's complete in-memory search index: schema,
// document store (C6), and the four derived index structures C2–C5. It
// implements the narrow public contract of spec.md §2
// (add/update/delete/search/save/load) and is not safe for concurrent
// use — callers serialize mutation themselves (spec.md §5), exactly as
// internal/registry does one level up.
type Engine struct {
	schema       Schema
	stringFields []string

	trie     *Trie
	postings *postingsIndex
	facets   *facetIndex
	numeric  *numericIndex
	docs     *docStore

	bm25 bm25Params
}

// Option configures an Engine at construction, following the
// functional-options pattern the teacher uses for its own BM25 wrapper
// (pkg/searcher/bm25.go's BM25Option).
type Option func(*Engine)

// WithBM25Params overrides the default k1/b constants for a newly
// created engine. Configuration-supplied overrides only ever apply at
// construction time: a running engine's k1/b are never mutated, and
// Load always resets to the package defaults (spec.md §4.7).
func WithBM25Params(k1, b float64) Option {
	return func(e *Engine) {
		e.bm25 = bm25Params{k1: k1, b: b}
	}
}

// New constructs an empty engine over schema. Returns an error if the
// schema itself is invalid (spec.md §3: sortable is only legal on
// number fields).
func New(schema Schema, opts ...Option) (*Engine, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		schema:       schema,
		stringFields: stringFieldsInOrder(schema),
		trie:         NewTrie(),
		postings:     newPostingsIndex(),
		facets:       newFacetIndex(),
		numeric:      newNumericIndex(),
		docs:         newDocStore(),
		bm25:         defaultBM25Params(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Schema returns the engine's fixed schema.
func (e *Engine) Schema() Schema {
	return e.schema
}

// DocCount returns the number of live documents (§3 invariant 1).
func (e *Engine) DocCount() int {
	return e.docs.count()
}

// Add stores doc under id (or a freshly generated UUID if id is empty),
// indexing every schema field present in doc. Returns
// enginerr.ErrDuplicateID if id already exists; the document is left
// fully unindexed in that case (spec.md §4.5's all-or-nothing
// guarantee — nothing is touched before the id check succeeds).
func (e *Engine) Add(doc Document, id string) (string, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if _, exists := e.docs.get(id); exists {
		return "", enginerr.ErrDuplicateID
	}
	stored := doc.clone()
	stored.ID = id
	e.indexDocument(stored)
	return id, nil
}

// Update merges partial's fields onto the stored document for id and
// re-indexes it (delete-then-add, per spec.md §4.5: "deliberately
// non-incremental: correctness over cleverness"). Reports false if id
// is absent.
func (e *Engine) Update(id string, partial Document) bool {
	stored, ok := e.docs.get(id)
	if !ok {
		return false
	}
	merged := stored.merge(partial)
	e.deindexDocument(stored)
	e.indexDocument(merged)
	return true
}

// Delete removes id and un-indexes it entirely. Reports false if id is
// absent.
func (e *Engine) Delete(id string) bool {
	stored, ok := e.docs.get(id)
	if !ok {
		return false
	}
	e.deindexDocument(stored)
	return true
}

// GetDocument returns the verbatim document stored under id.
func (e *Engine) GetDocument(id string) (Document, bool) {
	doc, ok := e.docs.get(id)
	if !ok {
		return Document{}, false
	}
	return doc.clone(), true
}
