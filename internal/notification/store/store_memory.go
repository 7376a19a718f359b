// Package store keeps the notification attempt log.
package store

import (
	"context"
	"sort"
	"sync"

	"claimtriage/internal/notification/models"
	"claimtriage/pkg/domain"
	"claimtriage/pkg/platform/sentinel"
)

type InMemory struct {
	mu       sync.RWMutex
	attempts map[string]*models.Attempt
}

func NewInMemory() *InMemory {
	return &InMemory{attempts: make(map[string]*models.Attempt)}
}

func (s *InMemory) Record(_ context.Context, a *models.Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.attempts[a.ID]; exists {
		return sentinel.ErrConflict
	}
	cp := *a
	s.attempts[a.ID] = &cp
	return nil
}

// ListByClaim returns the claim's attempts, oldest first.
func (s *InMemory) ListByClaim(_ context.Context, claimID domain.ClaimID) ([]*models.Attempt, error) {
	s.mu.RLock()
	out := make([]*models.Attempt, 0)
	for _, a := range s.attempts {
		if a.ClaimID == claimID {
			cp := *a
			out = append(out, &cp)
		}
	}
	s.mu.RUnlock()
	// ULIDs sort by time.
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
