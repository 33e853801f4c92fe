package engine

import (
	"sort"
	"strings"
	"time"
)

// Query is a single search request, matching spec.md §4.6's shape.
type Query struct {
	Q         string
	Tolerance int
	Limit     int
	Facets    []string
	Filters   map[string]Filter
}

// Filter is one field's query-time constraint: either a term filter
// (exact equality against C4) or a numeric range (against C5). Exactly
// one of Term or Range should be meaningful; IsRange reports which.
type Filter struct {
	IsRange bool
	Term    string
	Range   RangeBounds
}

// Hit is one scored, ranked document in a Result.
type Hit struct {
	ID       string
	Score    float64
	Document Document
}

// Result is the outcome of a Search, matching spec.md §6's Engine API.
type Result struct {
	Hits    []Hit
	Count   int
	Facets  map[string]map[string]int
	Elapsed time.Duration
}

// docSet is Stage 1's allowed set. all: true is the sentinel meaning
// "every document passes," distinguished from an empty-but-restricted
// set (spec.md §4.6).
type docSet struct {
	all bool
	ids map[string]struct{}
}

func allDocsSet() docSet { return docSet{all: true} }

func (s docSet) contains(id string) bool {
	if s.all {
		return true
	}
	_, ok := s.ids[id]
	return ok
}

// Search executes query against the engine's current state via the
// three-stage pipeline of spec.md §4.6: filter, score, facet.
func (e *Engine) Search(query Query) Result {
	start := time.Now()

	allowed, empty := e.applyFilters(query.Filters)
	if empty {
		return Result{Hits: []Hit{}, Count: 0, Facets: map[string]map[string]int{}, Elapsed: time.Since(start)}
	}

	scores := e.score(query, allowed)

	ids := make([]string, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if scores[ids[i]] != scores[ids[j]] {
			return scores[ids[i]] > scores[ids[j]]
		}
		return ids[i] < ids[j]
	})

	facets := e.computeFacets(query.Facets, ids)

	limit := query.Limit
	if limit <= 0 || limit > len(ids) {
		limit = len(ids)
	}
	hits := make([]Hit, 0, limit)
	for _, id := range ids[:limit] {
		doc, _ := e.docs.get(id)
		hits = append(hits, Hit{ID: id, Score: scores[id], Document: doc.clone()})
	}

	return Result{
		Hits:    hits,
		Count:   len(ids),
		Facets:  facets,
		Elapsed: time.Since(start),
	}
}

// applyFilters implements Stage 1. Returns the allowed set and whether
// the intersection became empty (in which case the caller must return
// an empty result immediately per spec.md §4.6).
func (e *Engine) applyFilters(filters map[string]Filter) (docSet, bool) {
	if len(filters) == 0 {
		return allDocsSet(), false
	}

	var result map[string]struct{}
	first := true
	for field, filter := range filters {
		spec, known := e.schema[field]
		if !known {
			continue
		}

		var matched map[string]struct{}
		if filter.IsRange {
			if spec.Type != FieldNumber || !filter.Range.HasAny() {
				continue
			}
			matched = e.numeric.queryRange(field, filter.Range)
		} else {
			matched = cloneSet(e.facets.docsWithValue(field, filter.Term))
		}

		if first {
			result = matched
			first = false
		} else {
			result = intersect(result, matched)
		}
		if len(result) == 0 {
			return docSet{}, true
		}
	}

	if first {
		// every filter field was unknown to the schema: no constraint applied.
		return allDocsSet(), false
	}
	return docSet{ids: result}, len(result) == 0
}

func cloneSet(src map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(src))
	for k := range src {
		out[k] = struct{}{}
	}
	return out
}

func intersect(a, b map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{})
	for k := range a {
		if _, ok := b[k]; ok {
			out[k] = struct{}{}
		}
	}
	return out
}

// score implements Stage 2's three branches.
func (e *Engine) score(query Query, allowed docSet) map[string]float64 {
	q := query.Q

	if len(q) > 2 && strings.HasPrefix(q, `"`) && strings.HasSuffix(q, `"`) {
		return e.scorePhrase(q[1:len(q)-1], allowed)
	}
	if q != "" {
		return e.scoreTerms(q, query.Tolerance, allowed)
	}

	scores := make(map[string]float64)
	if allowed.all {
		return scores
	}
	for id := range allowed.ids {
		scores[id] = 1.0
	}
	return scores
}

func (e *Engine) scorePhrase(phrase string, allowed docSet) map[string]float64 {
	tokens := Tokenize(phrase)
	scores := make(map[string]float64)
	if len(tokens) == 0 {
		return scores
	}

	var candidates map[string]struct{}
	for i, tok := range tokens {
		postings := e.postings.postings(tok)
		if postings == nil {
			return scores
		}
		if i == 0 {
			candidates = make(map[string]struct{}, len(postings))
			for id := range postings {
				candidates[id] = struct{}{}
			}
			continue
		}
		next := make(map[string]struct{})
		for id := range candidates {
			if _, ok := postings[id]; ok {
				next[id] = struct{}{}
			}
		}
		candidates = next
	}

	n := e.docs.count()
	avgLen := e.docs.averageLength()

	for id := range candidates {
		if !allowed.contains(id) {
			continue
		}
		if !e.phraseMatches(tokens, id) {
			continue
		}
		docLen := e.docs.length(id)
		var sum float64
		for _, tok := range tokens {
			df := e.postings.documentFrequency(tok)
			positions := e.postings.postings(tok)[id]
			sum += e.bm25.score(idf(n, df), len(positions), docLen, avgLen)
		}
		scores[id] = sum * phraseBonus
	}
	return scores
}

// phraseMatches implements phrase proximity verification (spec.md
// §4.6): for every start position p in the first token's list, checks
// whether each subsequent token i has position p+i, via binary search
// of that token's sorted position list.
func (e *Engine) phraseMatches(tokens []string, docID string) bool {
	firstPositions := e.postings.postings(tokens[0])[docID]
	for _, p := range firstPositions {
		ok := true
		for i := 1; i < len(tokens); i++ {
			positions := e.postings.postings(tokens[i])[docID]
			if !containsSorted(positions, p+i) {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

func containsSorted(positions []int, target int) bool {
	lo, hi := 0, len(positions)
	for lo < hi {
		mid := (lo + hi) / 2
		if positions[mid] < target {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo < len(positions) && positions[lo] == target
}

func (e *Engine) scoreTerms(q string, tolerance int, allowed docSet) map[string]float64 {
	scores := make(map[string]float64)
	n := e.docs.count()
	avgLen := e.docs.averageLength()

	for _, queryToken := range Tokenize(q) {
		matches := e.findMatchingTokens(queryToken, tolerance)
		for _, m := range matches {
			df := e.postings.documentFrequency(m.Token)
			idfValue := idf(n, df)
			penalty := fuzzyPenalty(m.Distance, len(queryToken))
			for docID, positions := range e.postings.postings(m.Token) {
				if !allowed.contains(docID) {
					continue
				}
				docLen := e.docs.length(docID)
				scores[docID] += e.bm25.score(idfValue, len(positions), docLen, avgLen) * penalty
			}
		}
	}
	return scores
}

// findMatchingTokens implements spec.md §4.6's exact-preempts-fuzzy
// rule (invariant 6): an exact vocabulary hit always wins at distance 0
// regardless of tolerance; fuzzy expansion only runs when there is no
// exact hit and tolerance > 0.
func (e *Engine) findMatchingTokens(queryToken string, tolerance int) []FuzzyMatch {
	if e.postings.contains(queryToken) {
		return []FuzzyMatch{{Token: queryToken, Distance: 0}}
	}
	if tolerance > 0 {
		return e.trie.SearchFuzzy(queryToken, tolerance)
	}
	return nil
}

// computeFacets implements Stage 3: counts are taken over the full
// scored-and-filtered id set, before pagination (spec.md §4.6, DESIGN.md
// Open Question 1).
func (e *Engine) computeFacets(fields []string, scoredIDs []string) map[string]map[string]int {
	out := make(map[string]map[string]int, len(fields))
	if len(fields) == 0 {
		return out
	}
	scope := make(map[string]struct{}, len(scoredIDs))
	for _, id := range scoredIDs {
		scope[id] = struct{}{}
	}
	for _, field := range fields {
		if !e.facets.hasField(field) {
			continue
		}
		out[field] = e.facets.counts(field, scope)
	}
	return out
}
