// Package registry implements the collection registry (spec.md's
// external collaborator, promoted to SPEC_FULL.md component C10): a
// named directory of engine.Engine instances with save-on-write
// persistence and concurrent load-all-on-start.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"

	"github.com/cerplabs/quiver/internal/engine"
)

// ErrCollectionExists mirrors enginerr.ErrDuplicateID one level up: the
// registry's own namespace (collection names) has the same
// create-must-not-clobber contract as the engine's document ids.
var ErrCollectionExists = errors.New("collection already exists")

// ErrCollectionNotFound is returned by operations addressed to a name
// the registry does not hold.
var ErrCollectionNotFound = errors.New("collection not found")

const snapshotExtension = ".index.qv"

// collection pairs one engine with the mutex that serializes its
// mutations, per spec.md §5 ("the external collaborator must serialize
// them").
type collection struct {
	mu     sync.Mutex
	engine *engine.Engine
	path   string
}

// Registry is the process-wide directory of collections. It is safe
// for concurrent use: the registry's own map is guarded by mu, and each
// collection's mutation is separately serialized by its own mutex.
type Registry struct {
	mu          sync.RWMutex
	dataDir     string
	collections map[string]*collection
	logger      *slog.Logger
	bm25K1      float64
	bm25B       float64
}

// NewRegistry creates dataDir if missing and eagerly loads every
// "<name>.index.qv" file found in it, one engine per file, loaded
// concurrently via golang.org/x/sync/errgroup (each snapshot file is
// independent, read-only I/O — safe to parallelize even though mutation
// stays single-threaded per collection, per SPEC_FULL.md §4.8). k1/b
// apply only to collections created afterward via Create (internal/
// config's BM25Defaults); loaded collections keep engine.Load's reset-
// to-package-defaults behavior per spec.md §4.7.
func NewRegistry(dataDir string, logger *slog.Logger, bm25K1, bm25B float64) (*Registry, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("registry: create data dir %s: %w", dataDir, err)
	}

	entries, err := os.ReadDir(dataDir)
	if err != nil {
		return nil, fmt.Errorf("registry: read data dir %s: %w", dataDir, err)
	}

	r := &Registry{
		dataDir:     dataDir,
		collections: make(map[string]*collection),
		logger:      logger,
		bm25K1:      bm25K1,
		bm25B:       bm25B,
	}

	var mu sync.Mutex
	g, _ := errgroup.WithContext(context.Background())
	for _, entry := range entries {
		name, ok := collectionNameFromFile(entry.Name())
		if entry.IsDir() || !ok {
			continue
		}
		path := filepath.Join(dataDir, entry.Name())
		g.Go(func() error {
			e, err := engine.Load(path)
			if err != nil {
				return fmt.Errorf("registry: load collection %q: %w", name, err)
			}
			mu.Lock()
			r.collections[name] = &collection{engine: e, path: path}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	logger.Info("registry loaded", slog.Int("collections", len(r.collections)))
	return r, nil
}

func collectionNameFromFile(filename string) (string, bool) {
	if !strings.HasSuffix(filename, snapshotExtension) {
		return "", false
	}
	return strings.TrimSuffix(filename, snapshotExtension), true
}

func (r *Registry) snapshotPath(name string) string {
	return filepath.Join(r.dataDir, name+snapshotExtension)
}

// Create registers a new, empty collection under name. Fails with
// ErrCollectionExists if the name is taken.
func (r *Registry) Create(name string, schema engine.Schema) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.collections[name]; exists {
		return ErrCollectionExists
	}
	e, err := engine.New(schema, engine.WithBM25Params(r.bm25K1, r.bm25B))
	if err != nil {
		return fmt.Errorf("registry: create collection %q: %w", name, err)
	}
	c := &collection{engine: e, path: r.snapshotPath(name)}
	r.collections[name] = c
	return r.persist(name, c)
}

// Get returns the named collection's engine and whether it exists. The
// collection's mutex is not exposed; mutations that go through
// AddDocument, UpdateDocument, DeleteDocument, or Import hold it.
func (r *Registry) Get(name string) (*engine.Engine, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.collections[name]
	if !ok {
		return nil, false
	}
	return c.engine, true
}

// Drop removes name from the registry and deletes its snapshot file.
func (r *Registry) Drop(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.collections[name]
	if !ok {
		return ErrCollectionNotFound
	}
	delete(r.collections, name)
	if err := os.Remove(c.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("registry: remove snapshot for %q: %w", name, err)
	}
	return nil
}

// List returns every collection name currently registered.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.collections))
	for name := range r.collections {
		names = append(names, name)
	}
	return names
}

// AddDocument adds doc to the named collection, then saves it under an
// exclusive file lock. Mutation is serialized per collection by its own
// mutex (spec.md §5).
func (r *Registry) AddDocument(name string, doc engine.Document, id string) (string, error) {
	c, ok := r.collectionHandle(name)
	if !ok {
		return "", ErrCollectionNotFound
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	newID, err := c.engine.Add(doc, id)
	if err != nil {
		return "", err
	}
	if err := r.persist(name, c); err != nil {
		return "", err
	}
	return newID, nil
}

// UpdateDocument merges partial onto id in the named collection, saving
// on success. Reports false if either the collection or the document id
// is absent.
func (r *Registry) UpdateDocument(name, id string, partial engine.Document) (bool, error) {
	c, ok := r.collectionHandle(name)
	if !ok {
		return false, ErrCollectionNotFound
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.engine.Update(id, partial) {
		return false, nil
	}
	return true, r.persist(name, c)
}

// DeleteDocument removes id from the named collection, saving on
// success.
func (r *Registry) DeleteDocument(name, id string) (bool, error) {
	c, ok := r.collectionHandle(name)
	if !ok {
		return false, ErrCollectionNotFound
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.engine.Delete(id) {
		return false, nil
	}
	return true, r.persist(name, c)
}

func (r *Registry) collectionHandle(name string) (*collection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.collections[name]
	return c, ok
}

// persist saves c's engine under an exclusive flock'd file lock, so a
// concurrent external reader (e.g. a backup job) never observes a
// half-written snapshot (SPEC_FULL.md §4.8's save-on-write policy).
func (r *Registry) persist(name string, c *collection) error {
	lock := flock.New(c.path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("registry: lock snapshot for %q: %w", name, err)
	}
	defer lock.Unlock()

	start := c.engine.DocCount()
	if err := c.engine.Save(c.path); err != nil {
		return fmt.Errorf("registry: save collection %q: %w", name, err)
	}
	r.logger.Debug("collection saved", slog.String("collection", name), slog.Int("docs", start))
	return nil
}

// Import adds docs to the named collection in batches of 1000,
// cooperatively checking ctx between batches (SPEC_FULL.md §9's bulk
// import supplement; spec.md §5's "explicit cooperative yields in bulk
// ingestion between batches of 1000 documents"). Saves once at the end
// rather than once per document.
func (r *Registry) Import(ctx context.Context, name string, docs []engine.Document) (int, error) {
	c, ok := r.collectionHandle(name)
	if !ok {
		return 0, ErrCollectionNotFound
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	const batchSize = 1000
	added := 0
	for i := 0; i < len(docs); i += batchSize {
		select {
		case <-ctx.Done():
			return added, ctx.Err()
		default:
		}
		end := i + batchSize
		if end > len(docs) {
			end = len(docs)
		}
		for _, doc := range docs[i:end] {
			if _, err := c.engine.Add(doc, doc.ID); err != nil {
				return added, fmt.Errorf("registry: import doc %q into %q: %w", doc.ID, name, err)
			}
			added++
		}
	}
	return added, r.persist(name, c)
}
