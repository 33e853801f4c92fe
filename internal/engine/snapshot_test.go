package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// S6 — Snapshot round-trip. Builds an engine, indexes a batch of
// documents, saves, loads into a fresh engine, and checks that the same
// queries against both agree per spec.md §8 property 4.
func TestSnapshot_S6_RoundTrip(t *testing.T) {
	schema := Schema{
		"title": {Type: FieldString},
		"brand": {Type: FieldString, Facetable: true},
		"price": {Type: FieldNumber, Sortable: true},
	}
	e, err := New(schema)
	require.NoError(t, err)

	brands := []string{"alpha", "beta", "gamma"}
	for i := 0; i < 100; i++ {
		_, err := e.Add(Document{Fields: map[string]Value{
			"title": StringValue("laptop pro model"),
			"brand": StringValue(brands[i%len(brands)]),
			"price": NumberValue(float64(i)),
		}}, "")
		require.NoError(t, err)
	}

	path := filepath.Join(t.TempDir(), "snapshot.qv")
	require.NoError(t, e.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, e.DocCount(), loaded.DocCount())

	queries := []Query{
		{Q: "laptop", Limit: 10},
		{Q: `"laptop pro"`, Limit: 10},
		{Q: "lapto", Tolerance: 1, Limit: 10},
		{Limit: 10, Facets: []string{"brand"}, Filters: map[string]Filter{"brand": {Term: "alpha"}}},
	}

	for _, q := range queries {
		original := e.Search(q)
		after := loaded.Search(q)
		require.Equal(t, original.Count, after.Count)
		require.Len(t, after.Hits, len(original.Hits))
		for i := range original.Hits {
			assert.Equal(t, original.Hits[i].ID, after.Hits[i].ID)
			assert.InDelta(t, original.Hits[i].Score, after.Hits[i].Score, 1e-9)
		}
		assert.Equal(t, original.Facets, after.Facets)
	}
}

func TestSnapshot_Load_RejectsCorruptBytes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.qv")
	require.NoError(t, os.WriteFile(path, []byte("not a snapshot"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
