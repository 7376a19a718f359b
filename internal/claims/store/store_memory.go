package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"claimtriage/internal/claims/models"
	"claimtriage/pkg/domain"
	dErrors "claimtriage/pkg/domain-errors"
	"claimtriage/pkg/platform/keylock"
	"claimtriage/pkg/platform/sentinel"
)

const defaultTxTimeout = 5 * time.Second

// InMemory keeps claims and ledger entries in maps. A keyed lock serializes
// units of work per claim; the map mutex is held only for the instant a
// unit commits, so readers never wait on a transition in progress.
type InMemory struct {
	mu     sync.RWMutex
	claims map[domain.ClaimID]*models.Claim
	events map[domain.ClaimID][]*models.TrackingEvent

	locks   *keylock.Locker[domain.ClaimID]
	timeout time.Duration
}

func NewInMemory() *InMemory {
	return &InMemory{
		claims:  make(map[domain.ClaimID]*models.Claim),
		events:  make(map[domain.ClaimID][]*models.TrackingEvent),
		locks:   keylock.New[domain.ClaimID](),
		timeout: defaultTxTimeout,
	}
}

func (s *InMemory) Create(_ context.Context, claim *models.Claim) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.claims[claim.ID]; exists {
		return sentinel.ErrConflict
	}
	s.claims[claim.ID] = claim.Clone()
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.ClaimID) (*models.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.claims[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return c.Clone(), nil
}

// ListByOwner returns the owner's claims, newest first.
func (s *InMemory) ListByOwner(ctx context.Context, ownerID string) ([]*models.Claim, error) {
	return s.ListAll(ctx, models.Filter{OwnerID: ownerID})
}

// ListAll returns matching claims, newest first.
func (s *InMemory) ListAll(_ context.Context, filter models.Filter) ([]*models.Claim, error) {
	s.mu.RLock()
	out := make([]*models.Claim, 0, len(s.claims))
	for _, c := range s.claims {
		if filter.Matches(c) {
			out = append(out, c)
		}
	}
	out = cloneAll(out)
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// History returns the claim's ledger, oldest first.
func (s *InMemory) History(_ context.Context, id domain.ClaimID) ([]*models.TrackingEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.claims[id]; !ok {
		return nil, sentinel.ErrNotFound
	}
	src := s.events[id]
	out := make([]*models.TrackingEvent, len(src))
	for i, e := range src {
		out[i] = copyEvent(e)
	}
	return out, nil
}

// RunInTx runs fn with exclusive access to claim id. Writes staged through
// the Tx are applied only if fn returns nil.
func (s *InMemory) RunInTx(ctx context.Context, id domain.ClaimID, fn func(ctx context.Context, tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	unlock, err := s.locks.Lock(ctx, id)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "timed out waiting for claim lock")
	}
	defer unlock()

	tx := &memTx{store: s, id: id}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	return tx.commit()
}

// memTx stages one claim's status write and ledger entries.
type memTx struct {
	store *InMemory
	id    domain.ClaimID

	claim  *models.Claim
	status *statusWrite
	events []*models.TrackingEvent
}

type statusWrite struct {
	from, to models.Status
	at       time.Time
}

func (t *memTx) ClaimForUpdate(ctx context.Context, id domain.ClaimID) (*models.Claim, error) {
	if id != t.id {
		return nil, sentinel.ErrConflict
	}
	c, err := t.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	t.claim = c
	return c.Clone(), nil
}

func (t *memTx) UpdateStatus(ctx context.Context, id domain.ClaimID, from, to models.Status, at time.Time) error {
	if id != t.id {
		return sentinel.ErrConflict
	}
	if t.claim == nil {
		c, err := t.store.FindByID(ctx, id)
		if err != nil {
			return err
		}
		t.claim = c
	}
	current := t.claim.Status
	if t.status != nil {
		current = t.status.to
	}
	if current != from {
		return sentinel.ErrConflict
	}
	t.status = &statusWrite{from: from, to: to, at: at}
	return nil
}

func (t *memTx) Append(_ context.Context, event *models.TrackingEvent) error {
	if event.ClaimID != t.id {
		return sentinel.ErrConflict
	}
	t.store.mu.RLock()
	committed := t.store.events[t.id]
	dup := containsTuple(committed, event)
	t.store.mu.RUnlock()
	if dup || containsTuple(t.events, event) {
		return sentinel.ErrConflict
	}
	t.events = append(t.events, copyEvent(event))
	return nil
}

func (t *memTx) commit() error {
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.status != nil {
		c, ok := s.claims[t.id]
		if !ok {
			return sentinel.ErrNotFound
		}
		if c.Status != t.status.from {
			return sentinel.ErrConflict
		}
		updated := c.Clone()
		updated.Status = t.status.to
		updated.UpdatedAt = t.status.at
		s.claims[t.id] = updated
	}
	if len(t.events) > 0 {
		s.events[t.id] = append(s.events[t.id], t.events...)
	}
	return nil
}

func containsTuple(events []*models.TrackingEvent, e *models.TrackingEvent) bool {
	for _, x := range events {
		if x.FromStatus == e.FromStatus && x.ToStatus == e.ToStatus && x.Timestamp.Equal(e.Timestamp) {
			return true
		}
	}
	return false
}
