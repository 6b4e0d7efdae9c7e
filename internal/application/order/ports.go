package order

import "context"

type IDGenerator interface {
	NewID() string
}

// Atomic runs fn as one atomic unit: every mutation made through the
// repositories inside fn either commits as a whole or leaves no trace.
type Atomic interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
