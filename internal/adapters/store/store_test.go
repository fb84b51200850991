package store_test

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/largo/internal/adapters/store"
	"go.trai.ch/largo/internal/core/domain"
	"go.trai.ch/largo/internal/core/ports"
	"go.trai.ch/largo/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

// countingFetcher fakes source transport: it writes one marker file per
// fetch and counts transfers, optionally failing the first failures calls.
type countingFetcher struct {
	calls    atomic.Int64
	failures atomic.Int64
}

func (f *countingFetcher) FetchInto(_ context.Context, spec domain.SourceSpec, revision string, dir string) error {
	f.calls.Add(1)
	if f.failures.Load() > 0 {
		f.failures.Add(-1)
		return assert.AnError
	}
	return os.WriteFile(filepath.Join(dir, "content.sty"), []byte(spec.ID()+"@"+revision), domain.FilePerm)
}

func newTestStore(t *testing.T, fetcher *countingFetcher) *store.Store {
	t.Helper()
	ctrl := gomock.NewController(t)
	mockLogger := mocks.NewMockLogger(ctrl)
	mockLogger.EXPECT().Warn(gomock.Any()).AnyTimes()

	s, err := store.NewStoreWithPath(mockLogger, fetcher, t.TempDir())
	require.NoError(t, err)
	return s
}

func TestFetch_AndOpen(t *testing.T) {
	t.Parallel()
	fetcher := &countingFetcher{}
	s := newTestStore(t, fetcher)

	spec := domain.RegistrySource("fancyhdr", domain.AnyVersion)
	fp, err := s.Fetch(t.Context(), spec, "4.1.0")
	require.NoError(t, err)
	assert.Equal(t, domain.ComputeFingerprint(spec, "4.1.0"), fp)

	fsys, err := s.Open(fp)
	require.NoError(t, err)
	data, err := fs.ReadFile(fsys, "content.sty")
	require.NoError(t, err)
	assert.Equal(t, "registry:fancyhdr@4.1.0", string(data))
}

func TestFetch_Idempotent(t *testing.T) {
	t.Parallel()
	fetcher := &countingFetcher{}
	s := newTestStore(t, fetcher)

	spec := domain.RegistrySource("fancyhdr", domain.AnyVersion)
	_, err := s.Fetch(t.Context(), spec, "4.1.0")
	require.NoError(t, err)
	_, err = s.Fetch(t.Context(), spec, "4.1.0")
	require.NoError(t, err)

	assert.Equal(t, int64(1), fetcher.calls.Load())
}

func TestFetch_ConcurrentCallsShareOneTransfer(t *testing.T) {
	t.Parallel()
	fetcher := &countingFetcher{}
	s := newTestStore(t, fetcher)

	spec := domain.VCSSource("https://example.org/tikz.git", "v1")
	const workers = 16

	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = s.Fetch(t.Context(), spec, "4c9d3a1f2b8e7d6c5b4a39281706f5e4d3c2b1a0")
		}()
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, int64(1), fetcher.calls.Load())
}

func TestFetchAll_DeduplicatesRequests(t *testing.T) {
	t.Parallel()
	fetcher := &countingFetcher{}
	s := newTestStore(t, fetcher)

	specA := domain.RegistrySource("fancyhdr", domain.AnyVersion)
	specB := domain.RegistrySource("memoir", domain.AnyVersion)
	reqs := []ports.FetchRequest{
		{Spec: specA, Revision: "4.1.0"},
		{Spec: specB, Revision: "3.7.0"},
		{Spec: specA, Revision: "4.1.0"}, // duplicate
	}

	fetched, err := s.FetchAll(t.Context(), reqs)
	require.NoError(t, err)
	assert.Len(t, fetched, 2)
	assert.Equal(t, int64(2), fetcher.calls.Load())
}

func TestFetch_RetriesTransientFailures(t *testing.T) {
	t.Parallel()
	fetcher := &countingFetcher{}
	fetcher.failures.Store(2)
	s := newTestStore(t, fetcher)

	spec := domain.RegistrySource("fancyhdr", domain.AnyVersion)
	_, err := s.Fetch(t.Context(), spec, "4.1.0")
	require.NoError(t, err)
	assert.Equal(t, int64(3), fetcher.calls.Load())
}

func TestFetch_ExhaustedRetriesFail(t *testing.T) {
	t.Parallel()
	fetcher := &countingFetcher{}
	fetcher.failures.Store(99)
	s := newTestStore(t, fetcher)

	spec := domain.RegistrySource("fancyhdr", domain.AnyVersion)
	_, err := s.Fetch(t.Context(), spec, "4.1.0")
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, int64(3), fetcher.calls.Load())
}

func TestOpen_MissingEntry(t *testing.T) {
	t.Parallel()
	s := newTestStore(t, &countingFetcher{})

	_, err := s.Open("badbadbadbadbad0")
	assert.ErrorIs(t, err, domain.ErrMissingEntry)
}

func TestGarbageCollect(t *testing.T) {
	t.Parallel()
	fetcher := &countingFetcher{}
	s := newTestStore(t, fetcher)

	specA := domain.RegistrySource("fancyhdr", domain.AnyVersion)
	specB := domain.RegistrySource("memoir", domain.AnyVersion)

	fpA, err := s.Fetch(t.Context(), specA, "4.1.0")
	require.NoError(t, err)
	fpB, err := s.Fetch(t.Context(), specB, "3.7.0")
	require.NoError(t, err)

	evicted, err := s.GarbageCollect(map[domain.Fingerprint]struct{}{fpA: {}})
	require.NoError(t, err)
	assert.Equal(t, []domain.Fingerprint{fpB}, evicted)

	// The live entry stays readable, the evicted one is gone.
	_, err = s.Open(fpA)
	assert.NoError(t, err)
	_, err = s.Open(fpB)
	assert.ErrorIs(t, err, domain.ErrMissingEntry)
}

func TestGarbageCollect_SparesOpenEntries(t *testing.T) {
	t.Parallel()
	fetcher := &countingFetcher{}
	s := newTestStore(t, fetcher)

	specA := domain.RegistrySource("fancyhdr", domain.AnyVersion)
	specB := domain.RegistrySource("memoir", domain.AnyVersion)

	fpA, err := s.Fetch(t.Context(), specA, "4.1.0")
	require.NoError(t, err)
	fpB, err := s.Fetch(t.Context(), specB, "3.7.0")
	require.NoError(t, err)

	fsys, err := s.Open(fpA)
	require.NoError(t, err)

	// Nothing is live, but the open view pins its entry.
	evicted, err := s.GarbageCollect(map[domain.Fingerprint]struct{}{})
	require.NoError(t, err)
	assert.Equal(t, []domain.Fingerprint{fpB}, evicted)

	data, err := fs.ReadFile(fsys, "content.sty")
	require.NoError(t, err)
	assert.Equal(t, "registry:fancyhdr@4.1.0", string(data))
}
