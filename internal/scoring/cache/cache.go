// Package cache provides fingerprint-keyed caching of scoring results with
// request coalescing, so concurrent identical requests trigger at most one
// computation.
package cache

import (
	"container/list"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/hirelens/matchengine/internal/adapter/observability"
	"github.com/hirelens/matchengine/internal/domain"
)

// Fingerprint derives the cache key for one scoring call. It hashes the
// normalized texts together with every configuration knob that changes the
// result, using length-prefixed framing so distinct field splits can never
// collide.
func Fingerprint(reqNormalized, candNormalized string, cfg domain.ScoringConfig) string {
	h := sha256.New()
	for _, field := range []string{
		reqNormalized,
		candNormalized,
		string(cfg.PerformanceMode),
		string(cfg.DomainFocus),
	} {
		var n [8]byte
		binary.BigEndian.PutUint64(n[:], uint64(len(field)))
		h.Write(n[:])
		h.Write([]byte(field))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Store persists scoring results by fingerprint. Implementations must treat
// entries as immutable once written.
type Store interface {
	Get(ctx context.Context, fingerprint string) (domain.ScoringResult, bool, error)
	Set(ctx context.Context, fingerprint string, result domain.ScoringResult, ttl time.Duration) error
}

// MemoryStore is an in-process LRU store with per-entry TTL. It is the
// default backend when no Redis URL is configured.
type MemoryStore struct {
	mu       sync.Mutex
	capacity int
	ll       *list.List
	items    map[string]*list.Element
}

type memoryEntry struct {
	entry domain.CacheEntry
}

// NewMemoryStore creates a memory store holding at most capacity entries.
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = 1024
	}
	return &MemoryStore{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[string]*list.Element, capacity),
	}
}

// Get returns the stored result for fingerprint if present and not expired.
func (s *MemoryStore) Get(_ context.Context, fingerprint string) (domain.ScoringResult, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.items[fingerprint]
	if !ok {
		return domain.ScoringResult{}, false, nil
	}
	me := el.Value.(*memoryEntry)
	if time.Now().After(me.entry.ExpiresAt) {
		s.ll.Remove(el)
		delete(s.items, fingerprint)
		return domain.ScoringResult{}, false, nil
	}
	s.ll.MoveToFront(el)
	return me.entry.Result, true, nil
}

// Set stores result under fingerprint, evicting the least recently used
// entry when at capacity. An existing entry is replaced atomically.
func (s *MemoryStore) Set(_ context.Context, fingerprint string, result domain.ScoringResult, ttl time.Duration) error {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	if el, ok := s.items[fingerprint]; ok {
		el.Value.(*memoryEntry).entry = domain.CacheEntry{
			Fingerprint: fingerprint,
			Result:      result,
			CreatedAt:   now,
			ExpiresAt:   now.Add(ttl),
		}
		s.ll.MoveToFront(el)
		return nil
	}

	for s.ll.Len() >= s.capacity {
		oldest := s.ll.Back()
		if oldest == nil {
			break
		}
		s.ll.Remove(oldest)
		delete(s.items, oldest.Value.(*memoryEntry).entry.Fingerprint)
	}

	s.items[fingerprint] = s.ll.PushFront(&memoryEntry{entry: domain.CacheEntry{
		Fingerprint: fingerprint,
		Result:      result,
		CreatedAt:   now,
		ExpiresAt:   now.Add(ttl),
	}})
	return nil
}

// Len reports the number of live entries, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ll.Len()
}

// Cache fronts a Store with singleflight coalescing. Store failures are
// logged and treated as misses so a broken backend degrades to computation,
// never to a request failure.
type Cache struct {
	store Store
	ttl   time.Duration
	group singleflight.Group
}

// New creates a cache writing entries with the given TTL.
func New(store Store, ttl time.Duration) *Cache {
	return &Cache{store: store, ttl: ttl}
}

// GetOrCompute returns the cached result for fingerprint, or runs compute
// exactly once per fingerprint across concurrent callers. The computation
// proceeds on a detached context so one caller abandoning the request does
// not fail the result for the others; the abandoning caller still gets its
// context error.
func (c *Cache) GetOrCompute(ctx context.Context, fingerprint string, compute func(context.Context) (domain.ScoringResult, error)) (domain.ScoringResult, error) {
	if res, ok := c.lookup(ctx, fingerprint); ok {
		observability.RecordCacheLookup(true)
		res.Breakdown = res.Breakdown.Clone()
		res.FromCache = true
		return res, nil
	}
	observability.RecordCacheLookup(false)

	ch := c.group.DoChan(fingerprint, func() (any, error) {
		detached := context.WithoutCancel(ctx)
		res, err := compute(detached)
		if err != nil {
			return domain.ScoringResult{}, err
		}
		if err := c.store.Set(detached, fingerprint, res, c.ttl); err != nil {
			slog.Warn("cache write failed",
				slog.String("fingerprint", fingerprint),
				slog.Any("error", fmt.Errorf("%w: %v", domain.ErrCache, err)))
		}
		return res, nil
	})

	select {
	case <-ctx.Done():
		return domain.ScoringResult{}, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return domain.ScoringResult{}, r.Err
		}
		res := r.Val.(domain.ScoringResult)
		res.Breakdown = res.Breakdown.Clone()
		if r.Shared {
			res.Analysis = cloneAnalysis(res.Analysis)
		}
		return res, nil
	}
}

func (c *Cache) lookup(ctx context.Context, fingerprint string) (domain.ScoringResult, bool) {
	res, ok, err := c.store.Get(ctx, fingerprint)
	if err != nil {
		slog.Warn("cache read failed",
			slog.String("fingerprint", fingerprint),
			slog.Any("error", fmt.Errorf("%w: %v", domain.ErrCache, err)))
		return domain.ScoringResult{}, false
	}
	return res, ok
}

func cloneAnalysis(a domain.QualitativeAnalysis) domain.QualitativeAnalysis {
	a.Strengths = append([]string(nil), a.Strengths...)
	a.Weaknesses = append([]string(nil), a.Weaknesses...)
	a.Recommendations = append([]string(nil), a.Recommendations...)
	a.SkillsAlignment = append([]string(nil), a.SkillsAlignment...)
	a.MissingCompetencies = append([]string(nil), a.MissingCompetencies...)
	return a
}
