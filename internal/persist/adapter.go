package persist

import "context"

// Adapter abstracts the durable storage backend.
//
// Load returns (nil, nil) when no snapshot exists for the table; absence is
// not an error. Implementations must serialize their own writes per
// tableID; a table issues writes strictly sequentially per instance, so an
// adapter shared across tables only needs per-key ordering.
type Adapter interface {
	Save(ctx context.Context, tableID string, snap *Snapshot) error
	Load(ctx context.Context, tableID string) (*Snapshot, error)
}
