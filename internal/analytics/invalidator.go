package analytics

import "context"

// Invalidator drops cached snapshots after a write that changes what a
// snapshot would report. The claim and fraud services call it once the
// write has committed. Without a cache it does nothing.
type Invalidator struct {
	cache Cache
}

func NewInvalidator(cache Cache) *Invalidator {
	return &Invalidator{cache: cache}
}

func (i *Invalidator) Invalidate(ctx context.Context) error {
	if i == nil || i.cache == nil {
		return nil
	}
	return i.cache.Invalidate(ctx)
}
