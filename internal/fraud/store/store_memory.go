// Package store persists fraud flags.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"claimtriage/internal/fraud/models"
	"claimtriage/pkg/domain"
	"claimtriage/pkg/platform/sentinel"
)

// InMemory keeps flags in a map guarded by a single mutex. Resolve runs its
// check and write under the lock, which makes resolution exclusive per flag.
type InMemory struct {
	mu    sync.RWMutex
	flags map[domain.FlagID]*models.Flag
}

func NewInMemory() *InMemory {
	return &InMemory{flags: make(map[domain.FlagID]*models.Flag)}
}

// Save inserts flags. It is all-or-nothing: a reused id rejects the batch.
func (s *InMemory) Save(_ context.Context, flags []*models.Flag) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range flags {
		if _, exists := s.flags[f.ID]; exists {
			return sentinel.ErrConflict
		}
	}
	for _, f := range flags {
		s.flags[f.ID] = f.Clone()
	}
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.FlagID) (*models.Flag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.flags[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return f.Clone(), nil
}

// ListByClaim returns the claim's flags, oldest first.
func (s *InMemory) ListByClaim(_ context.Context, claimID domain.ClaimID) ([]*models.Flag, error) {
	return s.collect(func(f *models.Flag) bool { return f.ClaimID == claimID }), nil
}

// ListUnresolved returns every open flag, oldest first.
func (s *InMemory) ListUnresolved(_ context.Context) ([]*models.Flag, error) {
	return s.collect(func(f *models.Flag) bool { return !f.Resolved }), nil
}

// Resolve marks the flag resolved. It fails with sentinel.ErrNotFound for an
// unknown id and sentinel.ErrAlreadyUsed when already resolved.
func (s *InMemory) Resolve(_ context.Context, id domain.FlagID, actor domain.Actor, at time.Time) (*models.Flag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.flags[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if f.Resolved {
		return nil, sentinel.ErrAlreadyUsed
	}
	updated := f.Clone()
	if err := updated.Resolve(actor, at); err != nil {
		return nil, sentinel.ErrAlreadyUsed
	}
	s.flags[id] = updated
	return updated.Clone(), nil
}

func (s *InMemory) collect(keep func(*models.Flag) bool) []*models.Flag {
	s.mu.RLock()
	out := make([]*models.Flag, 0)
	for _, f := range s.flags {
		if keep(f) {
			out = append(out, f.Clone())
		}
	}
	s.mu.RUnlock()
	sortFlags(out)
	return out
}

func sortFlags(flags []*models.Flag) {
	sort.Slice(flags, func(i, j int) bool {
		if flags[i].FlaggedAt.Equal(flags[j].FlaggedAt) {
			return flags[i].ID.String() < flags[j].ID.String()
		}
		return flags[i].FlaggedAt.Before(flags[j].FlaggedAt)
	})
}
