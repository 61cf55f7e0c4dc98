package health

import "context"

// Store is the contract the archive table backends must satisfy.
type Store interface {
	// Columns returns the live column names of the archive table, in order.
	Columns(ctx context.Context) ([]string, error)
	AddRecord(ctx context.Context, rec Record) error
	// DeleteBefore removes every record with DateTime < cutoff.
	DeleteBefore(ctx context.Context, cutoff int64) (int64, error)
	Latest(ctx context.Context) (Record, error)
	// Range returns records with from <= DateTime <= to, oldest first.
	Range(ctx context.Context, from, to int64) ([]Record, error)
	Close() error
}

// Publisher forwards saved records to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, rec Record) error
}
