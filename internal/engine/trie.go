package engine

import (
	"fmt"
	"sort"

	lru "github.com/hashicorp/golang-lru/v2"
)

// trieNode is one character edge's destination in the vocabulary trie.
type trieNode struct {
	children map[rune]*trieNode
	terminal bool
}

func newTrieNode() *trieNode {
	return &trieNode{children: make(map[rune]*trieNode)}
}

// FuzzyMatch is one result of a bounded-edit-distance trie walk.
type FuzzyMatch struct {
	Token    string
	Distance int
}

// fuzzyCacheKey identifies a (query, maxDistance) fuzzy search so repeat
// lookups (e.g. the same typo searched across paginated requests) skip
// the DFS entirely.
type fuzzyCacheKey struct {
	query       string
	maxDistance int
}

// Trie is an ordered character tree over the live vocabulary. It
// supports insert, delete (with pruning), and edit-distance-bounded
// fuzzy enumeration via a depth-first Levenshtein DP walk.
//
// Trie is not safe for concurrent use; callers serialize access the
// same way they serialize all other engine mutation (spec.md §5).
type Trie struct {
	root  *trieNode
	cache *lru.Cache[fuzzyCacheKey, []FuzzyMatch]
}

// NewTrie creates an empty trie with a bounded LRU cache for fuzzy
// search results.
func NewTrie() *Trie {
	cache, err := lru.New[fuzzyCacheKey, []FuzzyMatch](512)
	if err != nil {
		// Only returns an error for a non-positive size, which is a
		// compile-time constant here.
		panic(fmt.Sprintf("engine: trie cache: %v", err))
	}
	return &Trie{root: newTrieNode(), cache: cache}
}

// Insert adds token to the trie, marking its terminal node. Idempotent.
func (t *Trie) Insert(token string) {
	node := t.root
	for _, r := range token {
		child, ok := node.children[r]
		if !ok {
			child = newTrieNode()
			node.children[r] = child
		}
		node = child
	}
	if !node.terminal {
		node.terminal = true
		t.cache.Purge()
	}
}

// Delete clears token's terminal marker and prunes any node that is
// neither terminal nor has children, walking back to the root. A no-op
// if token was never inserted.
func (t *Trie) Delete(token string) {
	runes := []rune(token)
	path := make([]*trieNode, 0, len(runes)+1)
	path = append(path, t.root)

	node := t.root
	for _, r := range runes {
		child, ok := node.children[r]
		if !ok {
			return
		}
		path = append(path, child)
		node = child
	}
	if !node.terminal {
		return
	}
	node.terminal = false
	t.cache.Purge()

	for i := len(path) - 1; i > 0; i-- {
		n := path[i]
		if n.terminal || len(n.children) > 0 {
			break
		}
		parent := path[i-1]
		delete(parent.children, runes[i-1])
	}
}

// Contains reports whether token is currently a terminal node.
func (t *Trie) Contains(token string) bool {
	node := t.root
	for _, r := range token {
		child, ok := node.children[r]
		if !ok {
			return false
		}
		node = child
	}
	return node.terminal
}

// SearchFuzzy returns every vocabulary token within maxDistance edits of
// query, via a depth-first walk of the trie carrying a row-wise
// Levenshtein DP. At each child edge, a new DP row is derived from the
// parent row using that edge's single character; descent is pruned when
// the new row's minimum exceeds maxDistance. Enumeration order is
// tree-order (deterministic here because children are visited in rune
// order, but callers must not rely on that per spec.md §4.2).
func (t *Trie) SearchFuzzy(query string, maxDistance int) []FuzzyMatch {
	key := fuzzyCacheKey{query: query, maxDistance: maxDistance}
	if cached, ok := t.cache.Get(key); ok {
		return cached
	}

	runes := []rune(query)
	firstRow := make([]int, len(runes)+1)
	for i := range firstRow {
		firstRow[i] = i
	}

	var results []FuzzyMatch
	var descend func(node *trieNode, prefix []rune, prevRow []int)
	descend = func(node *trieNode, prefix []rune, prevRow []int) {
		if node.terminal && prevRow[len(runes)] <= maxDistance {
			results = append(results, FuzzyMatch{
				Token:    string(prefix),
				Distance: prevRow[len(runes)],
			})
		}

		edges := make([]rune, 0, len(node.children))
		for r := range node.children {
			edges = append(edges, r)
		}
		sort.Slice(edges, func(i, j int) bool { return edges[i] < edges[j] })

		for _, edge := range edges {
			child := node.children[edge]
			newRow := make([]int, len(runes)+1)
			newRow[0] = prevRow[0] + 1
			rowMin := newRow[0]
			for i := 1; i <= len(runes); i++ {
				cost := 1
				if runes[i-1] == edge {
					cost = 0
				}
				del := prevRow[i] + 1
				ins := newRow[i-1] + 1
				sub := prevRow[i-1] + cost
				newRow[i] = minInt(del, minInt(ins, sub))
				if newRow[i] < rowMin {
					rowMin = newRow[i]
				}
			}
			if rowMin > maxDistance {
				continue
			}
			newPrefix := make([]rune, len(prefix)+1)
			copy(newPrefix, prefix)
			newPrefix[len(prefix)] = edge
			descend(child, newPrefix, newRow)
		}
	}
	descend(t.root, nil, firstRow)

	t.cache.Add(key, results)
	return results
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
