package memory

import (
	"context"
	"sync"
)

// txJournal collects undo functions for mutations made inside an atomic unit.
// On failure the undos run in reverse order, so a decrement that succeeded
// before a later step failed is restocked and no partial state survives.
type txJournal struct {
	mu   sync.Mutex
	undo []func()
}

func (j *txJournal) record(fn func()) {
	if j == nil || fn == nil {
		return
	}
	j.mu.Lock()
	j.undo = append(j.undo, fn)
	j.mu.Unlock()
}

func (j *txJournal) rollback() {
	j.mu.Lock()
	undos := j.undo
	j.undo = nil
	j.mu.Unlock()

	for i := len(undos) - 1; i >= 0; i-- {
		undos[i]()
	}
}

type journalKey struct{}

func journalFrom(ctx context.Context) *txJournal {
	if ctx == nil {
		return nil
	}
	j, _ := ctx.Value(journalKey{}).(*txJournal)
	return j
}

// Atomic implements the application's atomic-unit port for the in-memory
// backend. The memory repositories register compensating undos on the journal
// carried in the context; a failing step rolls every prior mutation back.
type Atomic struct{}

func NewAtomic() Atomic { return Atomic{} }

func (Atomic) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	j := &txJournal{}
	ctx = context.WithValue(ctx, journalKey{}, j)
	if err := fn(ctx); err != nil {
		j.rollback()
		return err
	}
	return nil
}
