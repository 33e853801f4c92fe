package engine

import (
	"fmt"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/cerplabs/quiver/internal/enginerr"
)

// snapshotFormatVersion tags the on-disk layout so a future incompatible
// change can be detected on load instead of silently misreading bytes.
const snapshotFormatVersion = 1

// snapshotPostingEntry is one (docId, positions) pair under a token, the
// msgpack-friendly shape of the inverted index's inner map (spec.md §6:
// "(token → [(docId, [positions])]) entries").
type snapshotPostingEntry struct {
	DocID     string `msgpack:"docId"`
	Positions []int  `msgpack:"positions"`
}

// snapshotFacetEntry is one (value, docIds) pair under a facet field.
type snapshotFacetEntry struct {
	Value string   `msgpack:"value"`
	Docs  []string `msgpack:"docs"`
}

// snapshotNumericEntry is one (value, docId) pair under a numeric field,
// carried in the index's existing sorted order.
type snapshotNumericEntry struct {
	Value float64 `msgpack:"value"`
	DocID string  `msgpack:"docId"`
}

// snapshot is the full, self-describing serialized form of an Engine,
// matching spec.md §6's snapshot format in order: format-version tag,
// schema, docCount, totalDocLength, document store, length table,
// inverted index, facet index, numeric index.
type snapshot struct {
	Version        int                                `msgpack:"version"`
	Schema         Schema                              `msgpack:"schema"`
	DocCount       int                                `msgpack:"docCount"`
	TotalDocLength int                                `msgpack:"totalDocLength"`
	Documents      map[string]Document                `msgpack:"documents"`
	Lengths        map[string]int                     `msgpack:"lengths"`
	Postings       map[string][]snapshotPostingEntry  `msgpack:"postings"`
	Facets         map[string][]snapshotFacetEntry    `msgpack:"facets"`
	Numeric        map[string][]snapshotNumericEntry  `msgpack:"numeric"`
}

// Save writes one self-contained snapshot of e's complete state to path,
// msgpack-encoded and zstd-compressed (spec.md §4.7, §9's
// "typed, self-describing blob"; codec choice grounded in DESIGN.md).
func (e *Engine) Save(path string) error {
	snap := snapshot{
		Version:        snapshotFormatVersion,
		Schema:         e.schema,
		DocCount:       e.docs.count(),
		TotalDocLength: e.docs.totalLength,
		Documents:      e.docs.docs,
		Lengths:        e.docs.lengths,
		Postings:       make(map[string][]snapshotPostingEntry, len(e.postings.byToken)),
		Facets:         make(map[string][]snapshotFacetEntry),
		Numeric:        make(map[string][]snapshotNumericEntry),
	}

	for token, postings := range e.postings.byToken {
		entries := make([]snapshotPostingEntry, 0, len(postings))
		for docID, positions := range postings {
			entries = append(entries, snapshotPostingEntry{DocID: docID, Positions: positions})
		}
		snap.Postings[token] = entries
	}

	for field, values := range e.facets.byField {
		entries := make([]snapshotFacetEntry, 0, len(values))
		for value, docs := range values {
			docIDs := make([]string, 0, len(docs))
			for docID := range docs {
				docIDs = append(docIDs, docID)
			}
			entries = append(entries, snapshotFacetEntry{Value: value, Docs: docIDs})
		}
		snap.Facets[field] = entries
	}

	for field, entries := range e.numeric.byField {
		out := make([]snapshotNumericEntry, len(entries))
		for i, entry := range entries {
			out[i] = snapshotNumericEntry{Value: entry.value, DocID: entry.docID}
		}
		snap.Numeric[field] = out
	}

	payload, err := msgpack.Marshal(&snap)
	if err != nil {
		return fmt.Errorf("engine: encode snapshot: %w", err)
	}

	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		return fmt.Errorf("engine: init snapshot compressor: %w", err)
	}
	compressed := encoder.EncodeAll(payload, nil)
	encoder.Close()

	if err := os.WriteFile(path, compressed, 0o644); err != nil {
		return fmt.Errorf("engine: write snapshot %s: %w", path, err)
	}
	return nil
}

// Load reverses Save, reconstructing a fresh Engine: schema, document
// store, length table, facet index, and numeric index are restored
// directly; the trie is rebuilt by inserting each token of the
// inverted index exactly once (spec.md §4.7). BM25 k1/b are not
// persisted and are reset to their defaults.
func Load(path string) (*Engine, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("engine: read snapshot %s: %w", path, err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("engine: init snapshot decompressor: %w", err)
	}
	defer decoder.Close()
	payload, err := decoder.DecodeAll(raw, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", enginerr.ErrCorruptSnapshot, err)
	}

	var snap snapshot
	if err := msgpack.Unmarshal(payload, &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", enginerr.ErrCorruptSnapshot, err)
	}
	if snap.Version != snapshotFormatVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", enginerr.ErrCorruptSnapshot, snap.Version)
	}
	if err := snap.Schema.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", enginerr.ErrCorruptSnapshot, err)
	}

	e := &Engine{
		schema:       snap.Schema,
		stringFields: stringFieldsInOrder(snap.Schema),
		trie:         NewTrie(),
		postings:     newPostingsIndex(),
		facets:       newFacetIndex(),
		numeric:      newNumericIndex(),
		docs:         newDocStore(),
		bm25:         defaultBM25Params(),
	}

	for docID, doc := range snap.Documents {
		e.docs.docs[docID] = doc
	}
	for docID, length := range snap.Lengths {
		e.docs.lengths[docID] = length
	}
	e.docs.totalLength = snap.TotalDocLength

	for token, entries := range snap.Postings {
		postings := make(map[string][]int, len(entries))
		for _, entry := range entries {
			postings[entry.DocID] = entry.Positions
		}
		e.postings.byToken[token] = postings
		e.trie.Insert(token)
	}

	for field, entries := range snap.Facets {
		values := make(map[string]map[string]struct{}, len(entries))
		for _, entry := range entries {
			docs := make(map[string]struct{}, len(entry.Docs))
			for _, docID := range entry.Docs {
				docs[docID] = struct{}{}
			}
			values[entry.Value] = docs
		}
		e.facets.byField[field] = values
	}

	for field, entries := range snap.Numeric {
		list := make([]numericEntry, len(entries))
		for i, entry := range entries {
			list[i] = numericEntry{value: entry.Value, docID: entry.DocID}
		}
		e.numeric.byField[field] = list
	}

	return e, nil
}
