package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	domain "github.com/minicart/fulfillment/internal/domain/catalog"
)

// Catalog is the in-memory product catalog. Each product carries its own
// mutex, so decrements on different products never serialize against each
// other; only operations touching the same product contend.
type Catalog struct {
	mu       sync.RWMutex // guards the map, not the entries
	products map[string]*productEntry
}

type productEntry struct {
	mu      sync.Mutex
	product domain.Product
}

func NewCatalog() *Catalog {
	return &Catalog{
		products: make(map[string]*productEntry),
	}
}

// Put inserts or replaces a product. Used for seeding; not part of the
// Catalog contract.
func (c *Catalog) Put(p *domain.Product) {
	if p == nil || p.ID == "" {
		return
	}
	c.mu.Lock()
	c.products[p.ID] = &productEntry{product: *p}
	c.mu.Unlock()
}

func (c *Catalog) Snapshot(ctx context.Context, productIDs []string) (domain.Snapshot, error) {
	_ = ctx

	entries, err := c.resolve(productIDs)
	if err != nil {
		return nil, err
	}

	snap := make(domain.Snapshot, len(entries))
	for id, e := range entries {
		e.mu.Lock()
		snap[id] = e.product.View()
		e.mu.Unlock()
	}
	return snap, nil
}

func (c *Catalog) DecrementAll(ctx context.Context, reqs []domain.DecrementRequest) error {
	_ = ctx
	if len(reqs) == 0 {
		return nil
	}

	// Merge duplicate lines so each product is locked exactly once.
	wanted := make(map[string]int, len(reqs))
	for _, r := range reqs {
		if r.Quantity <= 0 {
			return domain.ErrInvalidQuantity
		}
		wanted[r.ProductID] += r.Quantity
	}

	ids := make([]string, 0, len(wanted))
	for id := range wanted {
		ids = append(ids, id)
	}
	// Lock in a stable order so concurrent overlapping batches cannot deadlock.
	sort.Strings(ids)

	entries, err := c.resolve(ids)
	if err != nil {
		return err
	}

	locked := make([]*productEntry, 0, len(ids))
	unlock := func() {
		for _, e := range locked {
			e.mu.Unlock()
		}
	}

	for _, id := range ids {
		e := entries[id]
		e.mu.Lock()
		locked = append(locked, e)

		if e.product.Quantity < wanted[id] {
			remaining := e.product.Quantity
			unlock()
			return &domain.InsufficientStockError{ProductID: id, Remaining: remaining}
		}
	}

	// Every line is satisfiable; subtract while still holding all the locks
	// so no other caller observes a partial batch.
	journal := journalFrom(ctx)
	now := time.Now().UTC()
	for _, id := range ids {
		e := entries[id]
		qty := wanted[id]
		e.product.Quantity -= qty
		e.product.UpdatedAt = now

		if journal != nil {
			journal.record(func() {
				e.mu.Lock()
				e.product.Quantity += qty
				e.mu.Unlock()
			})
		}
	}
	unlock()
	return nil
}

// resolve maps ids to live entries, failing on the first unknown product.
func (c *Catalog) resolve(ids []string) (map[string]*productEntry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entries := make(map[string]*productEntry, len(ids))
	for _, id := range ids {
		e, ok := c.products[id]
		if !ok {
			return nil, &domain.NotFoundError{ProductID: id}
		}
		entries[id] = e
	}
	return entries, nil
}
