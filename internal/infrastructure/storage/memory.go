package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/vitos/ltp_scanner/internal/domain"
)

// MemoryStore keeps everything in process. Used for dry runs and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	levels   map[string]*domain.KeyLevel
	analyses []*domain.MTFAnalysis
	setups   []*domain.DetectedSetup
	nextID   int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		levels: make(map[string]*domain.KeyLevel),
	}
}

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) SaveKeyLevel(ctx context.Context, level *domain.KeyLevel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := *level
	s.levels[l.ID] = &l
	return nil
}

func (s *MemoryStore) DeleteKeyLevel(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.levels, id)
	return nil
}

func (s *MemoryStore) SaveMTFAnalysis(ctx context.Context, analysis *domain.MTFAnalysis) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	analysis.ID = s.nextID
	a := *analysis
	s.analyses = append(s.analyses, &a)
	return nil
}

func (s *MemoryStore) SaveDetectedSetup(ctx context.Context, setup *domain.DetectedSetup) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := *setup
	s.setups = append(s.setups, &st)
	return nil
}

func (s *MemoryStore) ListKeyLevels(ctx context.Context, symbol string, asOf time.Time) ([]*domain.KeyLevel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.KeyLevel
	for _, l := range s.levels {
		if l.Symbol == symbol && l.ExpiresAt.After(asOf) {
			c := *l
			out = append(out, &c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Strength != out[j].Strength {
			return out[i].Strength > out[j].Strength
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) ListMTFAnalyses(ctx context.Context, symbol string, since time.Time) ([]*domain.MTFAnalysis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.MTFAnalysis
	for i := len(s.analyses) - 1; i >= 0; i-- {
		a := s.analyses[i]
		if a.Symbol == symbol && !a.AnalyzedAt.Before(since) {
			c := *a
			out = append(out, &c)
		}
	}
	return out, nil
}

func (s *MemoryStore) ListDetectedSetups(ctx context.Context, filter domain.SetupFilter) ([]*domain.DetectedSetup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.DetectedSetup
	for _, st := range s.setups {
		if filter.Symbol != "" && st.Symbol != filter.Symbol {
			continue
		}
		if st.DetectedAt.Before(filter.Since) {
			continue
		}
		c := *st
		out = append(out, &c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ConfluenceScore != out[j].ConfluenceScore {
			return out[i].ConfluenceScore > out[j].ConfluenceScore
		}
		return out[i].DetectedAt.After(out[j].DetectedAt)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}
