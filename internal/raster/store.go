package raster

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrDataUnavailable signals that no raster exists for a requested
// (variable, date) key. Callers must treat this as "no contribution",
// never as a zero sample.
var ErrDataUnavailable = errors.New("raster data unavailable")

// Store loads rasters by variable name and acquisition date.
// Implementations decode, scale, and QC-mask samples before returning them;
// everything past this interface works in physical units.
type Store interface {
	Load(ctx context.Context, variable string, date time.Time) (*Raster, error)
}

// Key builds the canonical store key for a (variable, date) pair, using the
// satellite product A{YYYY}{DDD} day-of-year convention.
func Key(variable string, date time.Time) string {
	return fmt.Sprintf("%s/A%04d%03d", variable, date.Year(), date.YearDay())
}

// MemStore is an in-memory Store, used for tests and for pre-materialized
// runs where the acquisition collaborator has already decoded everything.
type MemStore struct {
	mu      sync.RWMutex
	rasters map[string]*Raster
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{rasters: make(map[string]*Raster)}
}

// Add registers a raster under the (variable, date) key, replacing any
// previous entry.
func (s *MemStore) Add(variable string, date time.Time, r *Raster) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rasters[Key(variable, date)] = r
}

// Load returns the raster for the key, or ErrDataUnavailable.
func (s *MemStore) Load(_ context.Context, variable string, date time.Time) (*Raster, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rasters[Key(variable, date)]
	if !ok {
		return nil, fmt.Errorf("load %s: %w", Key(variable, date), ErrDataUnavailable)
	}
	return r, nil
}

// Len returns the number of stored rasters.
func (s *MemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rasters)
}
