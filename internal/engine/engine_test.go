package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cerplabs/quiver/internal/enginerr"
)

func titleSchema() Schema {
	return Schema{"title": {Type: FieldString}}
}

func docWithTitle(title string) Document {
	return Document{Fields: map[string]Value{"title": StringValue(title)}}
}

// S1 — Basic retrieval.
func TestEngine_S1_BasicRetrieval(t *testing.T) {
	e, err := New(titleSchema())
	require.NoError(t, err)

	_, err = e.Add(docWithTitle("Laptop Pro"), "")
	require.NoError(t, err)

	result := e.Search(Query{Q: "laptop", Limit: 10})
	require.Len(t, result.Hits, 1)
	assert.Equal(t, "Laptop Pro", result.Hits[0].Document.Fields["title"].Str)
}

// S2 — Fuzzy.
func TestEngine_S2_Fuzzy(t *testing.T) {
	e, err := New(titleSchema())
	require.NoError(t, err)

	_, err = e.Add(docWithTitle("The new Apple Laptop is great"), "")
	require.NoError(t, err)

	result := e.Search(Query{Q: "laptob", Tolerance: 1, Limit: 10})
	assert.Len(t, result.Hits, 1)
}

// S3 — Phrase vs term.
func TestEngine_S3_PhraseVsTerm(t *testing.T) {
	e, err := New(titleSchema())
	require.NoError(t, err)

	idA, err := e.Add(docWithTitle("the quick brown fox jumps over the lazy dog"), "")
	require.NoError(t, err)
	_, err = e.Add(docWithTitle("a brown quick fox also jumps"), "")
	require.NoError(t, err)

	phrase := e.Search(Query{Q: `"quick brown"`, Limit: 10})
	require.Len(t, phrase.Hits, 1)
	assert.Equal(t, idA, phrase.Hits[0].ID)

	term := e.Search(Query{Q: "quick brown", Limit: 10})
	assert.Len(t, term.Hits, 2)
}

// S4 — deterministic ordering: both documents match all three terms,
// so the pure term branch must break ties on docId rather than map
// iteration order.
func TestEngine_S4_DeterministicOrdering(t *testing.T) {
	e, err := New(titleSchema())
	require.NoError(t, err)

	idA, err := e.Add(docWithTitle("buy a new macbook"), "a")
	require.NoError(t, err)
	idB, err := e.Add(docWithTitle("buy a mac book case"), "b")
	require.NoError(t, err)

	result := e.Search(Query{Q: "buy mac book", Limit: 10})
	require.Len(t, result.Hits, 2)

	// re-running must produce the identical ordering
	again := e.Search(Query{Q: "buy mac book", Limit: 10})
	require.Len(t, again.Hits, 2)
	assert.Equal(t, result.Hits[0].ID, again.Hits[0].ID)
	assert.Equal(t, result.Hits[1].ID, again.Hits[1].ID)
	assert.ElementsMatch(t, []string{idA, idB}, []string{result.Hits[0].ID, result.Hits[1].ID})
}

// S5 — Filter + facets.
func TestEngine_S5_FilterAndFacets(t *testing.T) {
	schema := Schema{
		"title": {Type: FieldString},
		"brand": {Type: FieldString, Facetable: true},
		"price": {Type: FieldNumber, Sortable: true},
	}
	e, err := New(schema)
	require.NoError(t, err)

	add := func(title, brand string, price float64) {
		_, err := e.Add(Document{Fields: map[string]Value{
			"title": StringValue(title),
			"brand": StringValue(brand),
			"price": NumberValue(price),
		}}, "")
		require.NoError(t, err)
	}
	add("doc one", "A", 10)
	add("doc two", "A", 20)
	add("doc three", "B", 30)

	gte := 15.0
	result := e.Search(Query{
		Q:      "doc",
		Limit:  10,
		Facets: []string{"brand"},
		Filters: map[string]Filter{
			"price": {IsRange: true, Range: RangeBounds{GTE: &gte}},
		},
	})

	require.Len(t, result.Hits, 2)
	require.NotNil(t, result.Facets["brand"])
	assert.Equal(t, 1, result.Facets["brand"]["A"])
	assert.Equal(t, 1, result.Facets["brand"]["B"])
}

// S6 — Snapshot round-trip, see snapshot_test.go for the full save/load
// equivalence check; this covers the simpler Add/Get contract.
func TestEngine_AddDuplicateID(t *testing.T) {
	e, err := New(titleSchema())
	require.NoError(t, err)

	_, err = e.Add(docWithTitle("one"), "x")
	require.NoError(t, err)

	_, err = e.Add(docWithTitle("two"), "x")
	assert.ErrorIs(t, err, enginerr.ErrDuplicateID)
}

func TestEngine_GetDocument_ReturnsVerbatim(t *testing.T) {
	e, err := New(titleSchema())
	require.NoError(t, err)

	id, err := e.Add(docWithTitle("Laptop Pro"), "")
	require.NoError(t, err)

	doc, ok := e.GetDocument(id)
	require.True(t, ok)
	assert.Equal(t, "Laptop Pro", doc.Fields["title"].Str)

	_, ok = e.GetDocument("missing")
	assert.False(t, ok)
}

func TestEngine_Update_IsDeleteThenAdd(t *testing.T) {
	e, err := New(titleSchema())
	require.NoError(t, err)

	id, err := e.Add(docWithTitle("old title"), "")
	require.NoError(t, err)

	ok := e.Update(id, docWithTitle("new title"))
	require.True(t, ok)

	doc, _ := e.GetDocument(id)
	assert.Equal(t, "new title", doc.Fields["title"].Str)

	// old token is no longer searchable
	result := e.Search(Query{Q: "old", Limit: 10})
	assert.Empty(t, result.Hits)

	result = e.Search(Query{Q: "new", Limit: 10})
	require.Len(t, result.Hits, 1)
	assert.Equal(t, id, result.Hits[0].ID)

	assert.False(t, e.Update("missing", docWithTitle("x")))
}

// Invariant 2 (spec.md §8): after delete, no token/facet/numeric entry
// retains the deleted document's id.
func TestEngine_Delete_FullyUnindexes(t *testing.T) {
	schema := Schema{
		"title": {Type: FieldString},
		"brand": {Type: FieldString, Facetable: true},
		"price": {Type: FieldNumber, Sortable: true},
	}
	e, err := New(schema)
	require.NoError(t, err)

	id, err := e.Add(Document{Fields: map[string]Value{
		"title": StringValue("laptop pro"),
		"brand": StringValue("A"),
		"price": NumberValue(10),
	}}, "")
	require.NoError(t, err)

	ok := e.Delete(id)
	require.True(t, ok)

	assert.False(t, e.postings.contains("laptop"))
	assert.False(t, e.trie.Contains("laptop"))
	assert.Nil(t, e.facets.docsWithValue("brand", "A"))
	assert.False(t, e.numeric.hasField("price"))
	assert.Equal(t, 0, e.DocCount())

	assert.False(t, e.Delete("missing"))
}

func TestEngine_EmptyQuery_NoFiltersReturnsEmpty(t *testing.T) {
	e, err := New(titleSchema())
	require.NoError(t, err)
	_, err = e.Add(docWithTitle("anything"), "")
	require.NoError(t, err)

	result := e.Search(Query{Limit: 10})
	assert.Empty(t, result.Hits)
}

func TestEngine_EmptyQuery_WithFiltersMatchesAllAllowed(t *testing.T) {
	schema := Schema{
		"title": {Type: FieldString},
		"brand": {Type: FieldString, Facetable: true},
	}
	e, err := New(schema)
	require.NoError(t, err)
	_, err = e.Add(Document{Fields: map[string]Value{"title": StringValue("a"), "brand": StringValue("A")}}, "")
	require.NoError(t, err)
	_, err = e.Add(Document{Fields: map[string]Value{"title": StringValue("b"), "brand": StringValue("B")}}, "")
	require.NoError(t, err)

	result := e.Search(Query{Limit: 10, Filters: map[string]Filter{"brand": {Term: "A"}}})
	require.Len(t, result.Hits, 1)
	assert.Equal(t, 1.0, result.Hits[0].Score)
}
