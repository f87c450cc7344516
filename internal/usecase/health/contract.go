package health

import "context"

// DBPinger checks metadata index connectivity.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// BlobPinger checks blob store reachability.
type BlobPinger interface {
	Ping(ctx context.Context) error
}
