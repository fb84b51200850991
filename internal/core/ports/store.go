package ports

import (
	"context"
	"io/fs"

	"go.trai.ch/largo/internal/core/domain"
)

// FetchRequest names one source at one concrete revision.
type FetchRequest struct {
	Spec     domain.SourceSpec
	Revision string
}

// ContentStore is the content-addressed package cache. It is the only
// component permitted to mutate the cache directory; everything else holds
// fingerprints, never paths into the store.
//
//go:generate mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type ContentStore interface {
	// Fetch ensures the contents of (spec, revision) are cached and returns
	// their fingerprint. Idempotent: an already-cached fingerprint is a no-op.
	// Concurrent fetches of the same fingerprint are coalesced into one
	// underlying transfer.
	Fetch(ctx context.Context, spec domain.SourceSpec, revision string) (domain.Fingerprint, error)

	// FetchAll fetches distinct requests concurrently with a bounded pool.
	FetchAll(ctx context.Context, reqs []FetchRequest) (map[domain.Fingerprint]struct{}, error)

	// Open returns a read-only view of a cached entry's contents.
	// Fails with domain.ErrMissingEntry when the entry is absent.
	Open(fingerprint domain.Fingerprint) (fs.FS, error)

	// GarbageCollect evicts entries whose fingerprint is not in live and
	// returns the evicted fingerprints.
	GarbageCollect(live map[domain.Fingerprint]struct{}) ([]domain.Fingerprint, error)
}
