package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFacetIndex_AddRemoveGarbageCollects(t *testing.T) {
	idx := newFacetIndex()
	idx.add("brand", "A", "doc1")
	idx.add("brand", "A", "doc2")

	docs := idx.docsWithValue("brand", "A")
	assert.Len(t, docs, 2)

	idx.remove("brand", "A", "doc1")
	assert.Len(t, idx.docsWithValue("brand", "A"), 1)

	idx.remove("brand", "A", "doc2")
	assert.Nil(t, idx.docsWithValue("brand", "A"))
	assert.False(t, idx.hasField("brand"))
}

func TestFacetIndex_Counts_ScopedToProvidedSet(t *testing.T) {
	idx := newFacetIndex()
	idx.add("brand", "A", "doc1")
	idx.add("brand", "A", "doc2")
	idx.add("brand", "B", "doc3")

	scope := map[string]struct{}{"doc1": {}, "doc3": {}}
	counts := idx.counts("brand", scope)

	assert.Equal(t, 1, counts["A"])
	assert.Equal(t, 1, counts["B"])
}
