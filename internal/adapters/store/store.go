// Package store implements the content-addressed package cache. Entries are
// immutable directories keyed by fingerprint; they are published atomically
// and shared by every project on the machine.
package store

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.trai.ch/largo/internal/core/domain"
	"go.trai.ch/largo/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	// maxConcurrentFetches bounds the FetchAll worker pool.
	maxConcurrentFetches = 4

	// fetchAttempts bounds transport retries per entry. Retrying here keeps
	// the rest of the pipeline free of retry logic.
	fetchAttempts = 3
	retryBackoff  = 100 * time.Millisecond

	lockDirName     = ".locks"
	lockPollPeriod  = 50 * time.Millisecond
	lockWaitTimeout = 30 * time.Second
	tempPrefix      = ".fetch-"
)

// Store implements ports.ContentStore on a directory tree.
type Store struct {
	root    string
	fetcher ports.SourceFetcher
	logger  ports.Logger
	group   singleflight.Group

	// mu guards open. Entries with an open view are pinned for the life of
	// the process; fs.FS carries no close, so pins are never released.
	mu   sync.Mutex
	open map[domain.Fingerprint]struct{}
}

// NewStore creates a Store at the default per-user location.
func NewStore(logger ports.Logger, fetcher ports.SourceFetcher) (*Store, error) {
	return newStoreWithPath(logger, fetcher, domain.DefaultStorePath())
}

// newStoreWithPath creates a Store rooted at path (used for testing).
func newStoreWithPath(logger ports.Logger, fetcher ports.SourceFetcher, path string) (*Store, error) {
	cleanPath := filepath.Clean(path)
	if err := os.MkdirAll(filepath.Join(cleanPath, lockDirName), domain.DirPerm); err != nil {
		return nil, zerr.Wrap(errors.Join(domain.ErrStoreIO, err), "creating store root")
	}
	return &Store{
		root:    cleanPath,
		fetcher: fetcher,
		logger:  logger,
		open:    make(map[domain.Fingerprint]struct{}),
	}, nil
}

// Fetch ensures (spec, revision) is cached and returns its fingerprint.
// Concurrent calls for the same fingerprint share one transfer.
func (s *Store) Fetch(ctx context.Context, spec domain.SourceSpec, revision string) (domain.Fingerprint, error) {
	fp := domain.ComputeFingerprint(spec, revision)
	entryDir := s.entryPath(fp)

	if _, err := os.Stat(entryDir); err == nil {
		return fp, nil
	}

	_, err, _ := s.group.Do(string(fp), func() (any, error) {
		return nil, s.fetchEntry(ctx, spec, revision, fp)
	})
	if err != nil {
		return "", err
	}
	return fp, nil
}

// FetchAll fetches distinct requests concurrently with a bounded pool.
func (s *Store) FetchAll(ctx context.Context, reqs []ports.FetchRequest) (map[domain.Fingerprint]struct{}, error) {
	var (
		mu      sync.Mutex
		fetched = make(map[domain.Fingerprint]struct{}, len(reqs))
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)

	for _, req := range reqs {
		g.Go(func() error {
			fp, err := s.Fetch(ctx, req.Spec, req.Revision)
			if err != nil {
				werr := zerr.With(err, "source", req.Spec.ID())
				return zerr.With(werr, "revision", req.Revision)
			}
			mu.Lock()
			fetched[fp] = struct{}{}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return fetched, nil
}

// Open returns a read-only view of a cached entry's contents and pins the
// entry against garbage collection.
func (s *Store) Open(fingerprint domain.Fingerprint) (fs.FS, error) {
	entryDir := s.entryPath(fingerprint)
	if _, err := os.Stat(entryDir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, zerr.With(zerr.Wrap(domain.ErrMissingEntry, "opening store entry"), "fingerprint", string(fingerprint))
		}
		return nil, zerr.Wrap(errors.Join(domain.ErrStoreIO, err), "opening store entry")
	}

	s.mu.Lock()
	s.open[fingerprint] = struct{}{}
	s.mu.Unlock()

	return os.DirFS(entryDir), nil
}

// GarbageCollect evicts entries not named in live and returns them. Entries
// with an open view are never evicted regardless of live.
func (s *Store) GarbageCollect(live map[domain.Fingerprint]struct{}) ([]domain.Fingerprint, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, zerr.Wrap(errors.Join(domain.ErrStoreIO, err), "scanning store")
	}

	var evicted []domain.Fingerprint
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		fp := domain.Fingerprint(entry.Name())
		if _, ok := live[fp]; ok {
			continue
		}
		s.mu.Lock()
		_, pinned := s.open[fp]
		s.mu.Unlock()
		if pinned {
			continue
		}
		if err := os.RemoveAll(s.entryPath(fp)); err != nil {
			return evicted, zerr.With(zerr.Wrap(errors.Join(domain.ErrStoreIO, err), "evicting store entry"),
				"fingerprint", string(fp))
		}
		evicted = append(evicted, fp)
	}
	return evicted, nil
}

func (s *Store) entryPath(fp domain.Fingerprint) string {
	return filepath.Join(s.root, string(fp))
}

// fetchEntry performs the actual transfer: fill a temp directory, then
// publish it with a rename so other processes never observe partial entries.
func (s *Store) fetchEntry(ctx context.Context, spec domain.SourceSpec, revision string, fp domain.Fingerprint) error {
	unlock, err := s.acquireLock(ctx, fp)
	if err != nil {
		return err
	}
	defer unlock()

	entryDir := s.entryPath(fp)
	if _, err := os.Stat(entryDir); err == nil {
		// Another process published the entry while we waited on the lock.
		return nil
	}

	tmpDir, err := os.MkdirTemp(s.root, tempPrefix)
	if err != nil {
		return zerr.Wrap(errors.Join(domain.ErrStoreIO, err), "staging store entry")
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	if err := s.fetchWithRetry(ctx, spec, revision, tmpDir); err != nil {
		return err
	}

	if err := os.Rename(tmpDir, entryDir); err != nil {
		return zerr.With(zerr.Wrap(errors.Join(domain.ErrStoreIO, err), "publishing store entry"),
			"fingerprint", string(fp))
	}
	return nil
}

func (s *Store) fetchWithRetry(ctx context.Context, spec domain.SourceSpec, revision, dir string) error {
	var lastErr error
	for attempt := 1; attempt <= fetchAttempts; attempt++ {
		if lastErr != nil {
			if err := clearDir(dir); err != nil {
				return zerr.Wrap(errors.Join(domain.ErrStoreIO, err), "clearing staging directory")
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryBackoff * time.Duration(attempt-1)):
			}
		}
		if lastErr = s.fetcher.FetchInto(ctx, spec, revision, dir); lastErr == nil {
			return nil
		}
		// Missing local paths and exhausted constraints will not heal on
		// retry; transient transport failures might.
		if errors.Is(lastErr, context.Canceled) || errors.Is(lastErr, context.DeadlineExceeded) {
			return lastErr
		}
	}
	return zerr.With(lastErr, "attempts", fetchAttempts)
}

// acquireLock takes the per-fingerprint advisory lock shared across
// processes. The singleflight group already serializes within this process.
func (s *Store) acquireLock(ctx context.Context, fp domain.Fingerprint) (func(), error) {
	lockPath := filepath.Join(s.root, lockDirName, string(fp)+".lock")
	deadline := time.Now().Add(lockWaitTimeout)

	for {
		f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, domain.PrivateFilePerm)
		if err == nil {
			_ = f.Close()
			return func() { _ = os.Remove(lockPath) }, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, zerr.Wrap(errors.Join(domain.ErrStoreIO, err), "taking store lock")
		}
		if time.Now().After(deadline) {
			return nil, zerr.With(zerr.Wrap(domain.ErrStoreLockTimeout, "waiting for store lock"), "fingerprint", string(fp))
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockPollPeriod):
		}
	}
}

func clearDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(dir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

var _ ports.ContentStore = (*Store)(nil)
