package recognizer

import (
	"context"
	"fmt"
	"sync"

	"github.com/coder/hnsw"
	"github.com/sirupsen/logrus"

	"github.com/kozaktomas/face-locker/internal/storage"
)

// HNSWMaxNeighbors is the M parameter of the HNSW graph
const HNSWMaxNeighbors = 16

// indexedSample is a single embedding registered in the search index
type indexedSample struct {
	user      string
	embedding []float32
}

// modelSet is one fully loaded generation of trained models plus the
// HNSW index over all their sample embeddings. Immutable once built.
type modelSet struct {
	models  []UserModel
	graph   *hnsw.Graph[string]
	samples map[string]indexedSample // index key -> sample
}

// empty reports whether the set contains no usable models
func (s *modelSet) empty() bool {
	return s == nil || len(s.models) == 0
}

// search returns the best matching user for the query embedding together
// with its cosine distance. ok is false when the index has no candidates.
func (s *modelSet) search(query []float32, k int) (user string, distance float64, ok bool) {
	if s.empty() || s.graph == nil {
		return "", 0, false
	}

	best := 2.0
	for _, n := range s.graph.Search(query, k) {
		sample, found := s.samples[n.Key]
		if !found {
			continue
		}
		// Recompute the exact distance; the graph search is approximate.
		if d := CosineDistance(query, sample.embedding); d < best {
			best = d
			user = sample.user
			ok = true
		}
	}
	return user, best, ok
}

// buildModelSet constructs the searchable set from decoded models.
func buildModelSet(models []UserModel) *modelSet {
	set := &modelSet{
		models:  models,
		samples: make(map[string]indexedSample),
	}
	if len(models) == 0 {
		return set
	}

	g := hnsw.NewGraph[string]()
	g.M = HNSWMaxNeighbors
	g.Ml = 1.0 / float64(HNSWMaxNeighbors) // Standard HNSW formula
	g.Distance = hnsw.CosineDistance

	for _, m := range models {
		for i, sample := range m.Samples {
			if len(sample) == 0 {
				continue
			}
			key := fmt.Sprintf("%s/%s/%d", m.User, m.ModelID, i)
			g.Add(hnsw.MakeNode(key, sample))
			set.samples[key] = indexedSample{user: m.User, embedding: sample}
		}
		if len(m.Mean) > 0 {
			key := fmt.Sprintf("%s/%s/mean", m.User, m.ModelID)
			g.Add(hnsw.MakeNode(key, m.Mean))
			set.samples[key] = indexedSample{user: m.User, embedding: m.Mean}
		}
	}

	set.graph = g
	return set
}

// Cache holds the most recently loaded model set in memory. Lookups load
// lazily from storage; Invalidate drops the loaded generation so the next
// lookup rebuilds it. Safe for concurrent use.
type Cache struct {
	store storage.Store

	mu     sync.RWMutex
	loaded bool
	set    *modelSet
}

// NewCache creates an empty model cache backed by the given store
func NewCache(store storage.Store) *Cache {
	return &Cache{store: store}
}

// Get returns the current model set, loading it from storage first if the
// cache has been invalidated.
func (c *Cache) Get(ctx context.Context) (*modelSet, error) {
	c.mu.RLock()
	if c.loaded {
		set := c.set
		c.mu.RUnlock()
		return set, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded {
		return c.set, nil
	}

	set, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	c.set = set
	c.loaded = true
	return set, nil
}

// Invalidate drops the cached model set. The next Get rebuilds it.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loaded = false
	c.set = nil
}

// load fetches and decodes every model file from storage. Broken model
// files are skipped, matching the behavior of the training pipeline which
// may leave superseded files behind.
func (c *Cache) load(ctx context.Context) (*modelSet, error) {
	refs, err := c.store.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing models: %w", err)
	}

	models := make([]UserModel, 0, len(refs))
	for _, ref := range refs {
		data, err := c.store.Download(ctx, ref.Ref)
		if err != nil {
			logrus.WithError(err).WithField("ref", ref.Ref).Warn("skipping unreadable model file")
			continue
		}
		m, err := DecodeModel(data)
		if err != nil {
			logrus.WithError(err).WithField("ref", ref.Ref).Warn("skipping broken model file")
			continue
		}
		models = append(models, *m)
	}

	return buildModelSet(models), nil
}
