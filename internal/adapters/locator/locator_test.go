package locator_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/largo/internal/adapters/locator"
	"go.trai.ch/largo/internal/core/domain"
	"go.trai.ch/largo/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func newTestLocator(t *testing.T) *locator.Locator {
	t.Helper()
	ctrl := gomock.NewController(t)
	mockLogger := mocks.NewMockLogger(ctrl)
	mockLogger.EXPECT().Warn(gomock.Any()).AnyTimes()

	loc, err := locator.NewLocatorWithCache(mockLogger, t.TempDir())
	require.NoError(t, err)
	return loc
}

func TestLocate_Local(t *testing.T) {
	t.Parallel()
	loc := newTestLocator(t)

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "styles"), domain.DirPerm))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.sty"), []byte("a"), domain.FilePerm))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "styles", "x.sty"), []byte("b"), domain.FilePerm))

	spec := domain.LocalSource(dir)

	rev1, err := loc.Locate(t.Context(), spec)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(rev1, dir+"@"), "revision embeds the path")

	// Unchanged tree resolves to the same revision.
	rev2, err := loc.Locate(t.Context(), spec)
	require.NoError(t, err)
	assert.Equal(t, rev1, rev2)

	// Edits change the revision.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.sty"), []byte("changed"), domain.FilePerm))
	rev3, err := loc.Locate(t.Context(), spec)
	require.NoError(t, err)
	assert.NotEqual(t, rev1, rev3)
}

func TestLocate_Local_Missing(t *testing.T) {
	t.Parallel()
	loc := newTestLocator(t)

	_, err := loc.Locate(t.Context(), domain.LocalSource(filepath.Join(t.TempDir(), "absent")))
	assert.ErrorIs(t, err, domain.ErrUnreachableSource)
}

func TestHashTree_IgnoresFileOrderOnDisk(t *testing.T) {
	t.Parallel()

	// Two trees with identical contents hash identically regardless of
	// creation order.
	mk := func(names ...string) string {
		dir := t.TempDir()
		for _, name := range names {
			require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(name), domain.FilePerm))
		}
		return dir
	}

	h1, err := locator.HashTree(mk("a.tex", "b.tex", "c.tex"))
	require.NoError(t, err)
	h2, err := locator.HashTree(mk("c.tex", "a.tex", "b.tex"))
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
}

func TestLocate_VCS_PinnedRevisionPassesThrough(t *testing.T) {
	t.Parallel()
	loc := newTestLocator(t)

	pinned := "4c9d3a1f2b8e7d6c5b4a39281706f5e4d3c2b1a0"
	rev, err := loc.Locate(t.Context(), domain.VCSSource("https://example.org/tikz.git", pinned))
	require.NoError(t, err)
	assert.Equal(t, pinned, rev)
}

func TestPickRef(t *testing.T) {
	t.Parallel()

	const (
		branchHash = "1111111111111111111111111111111111111111"
		tagHash    = "2222222222222222222222222222222222222222"
		peeledHash = "3333333333333333333333333333333333333333"
	)

	tests := []struct {
		name    string
		out     string
		ref     string
		want    string
		wantErr error
	}{
		{
			name: "branch only",
			out:  branchHash + "\trefs/heads/main\n",
			ref:  "main",
			want: branchHash,
		},
		{
			name: "annotated tag resolves to peeled commit",
			out: tagHash + "\trefs/tags/v1.2.0\n" +
				peeledHash + "\trefs/tags/v1.2.0^{}\n",
			ref:  "v1.2.0",
			want: peeledHash,
		},
		{
			name: "lightweight tag",
			out:  tagHash + "\trefs/tags/v1.2.0\n",
			ref:  "v1.2.0",
			want: tagHash,
		},
		{
			name: "HEAD",
			out:  branchHash + "\tHEAD\n",
			ref:  "HEAD",
			want: branchHash,
		},
		{
			name: "branch and tag with same name",
			out: branchHash + "\trefs/heads/v2\n" +
				tagHash + "\trefs/tags/v2\n",
			ref:     "v2",
			wantErr: domain.ErrAmbiguousRef,
		},
		{
			name:    "ref not found",
			out:     "",
			ref:     "missing",
			wantErr: domain.ErrAmbiguousRef,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := locator.PickRef(tt.out, "https://example.org/repo.git", tt.ref)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func ctanServer(t *testing.T, requests *int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/pkg/fancyhdr", func(w http.ResponseWriter, _ *http.Request) {
		if requests != nil {
			*requests++
		}
		fmt.Fprint(w, `{
			"id": "fancyhdr",
			"name": "fancyhdr",
			"version": {"number": "4.1.0", "date": "2022-01-01"},
			"install": {"path": "/macros/latex/contrib/fancyhdr.tds.zip"}
		}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestCandidates_Registry(t *testing.T) {
	t.Parallel()
	loc := newTestLocator(t)

	var requests int
	srv := ctanServer(t, &requests)
	loc.SetRegistryEndpoints(srv.URL, srv.URL)

	versions, err := loc.Candidates(t.Context(), "fancyhdr")
	require.NoError(t, err)
	assert.Equal(t, []string{"4.1.0"}, versions)
	assert.Equal(t, 1, requests)

	// Fresh cache entries are served without touching the network.
	versions, err = loc.Candidates(t.Context(), "fancyhdr")
	require.NoError(t, err)
	assert.Equal(t, []string{"4.1.0"}, versions)
	assert.Equal(t, 1, requests)
}

func TestCandidates_StaleCacheSurvivesOutage(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	mockLogger := mocks.NewMockLogger(ctrl)
	mockLogger.EXPECT().Warn(gomock.Any()).AnyTimes()

	cacheDir := t.TempDir()
	loc, err := locator.NewLocatorWithCache(mockLogger, cacheDir)
	require.NoError(t, err)

	srv := ctanServer(t, nil)
	loc.SetRegistryEndpoints(srv.URL, srv.URL)
	_, err = loc.Candidates(t.Context(), "fancyhdr")
	require.NoError(t, err)
	srv.Close()

	// A new locator over the same cache, pointed at a dead endpoint, still
	// resolves from the cached metadata once the entry has aged out of the
	// fresh window it would be served from anyway.
	loc2, err := locator.NewLocatorWithCache(mockLogger, cacheDir)
	require.NoError(t, err)
	loc2.SetRegistryEndpoints("http://127.0.0.1:0", "http://127.0.0.1:0")

	versions, err := loc2.Candidates(t.Context(), "fancyhdr")
	require.NoError(t, err)
	assert.Equal(t, []string{"4.1.0"}, versions)
}

func TestLocate_Registry(t *testing.T) {
	t.Parallel()
	loc := newTestLocator(t)

	srv := ctanServer(t, nil)
	loc.SetRegistryEndpoints(srv.URL, srv.URL)

	rev, err := loc.Locate(t.Context(),
		domain.RegistrySource("fancyhdr", domain.MustParseConstraint(">=4.0,<5.0")))
	require.NoError(t, err)
	assert.Equal(t, "4.1.0", rev)

	_, err = loc.Locate(t.Context(),
		domain.RegistrySource("fancyhdr", domain.MustParseConstraint(">=5.0")))
	assert.ErrorIs(t, err, domain.ErrUnsatisfiableConstraints)
}

func TestLocate_Registry_Unreachable(t *testing.T) {
	t.Parallel()
	loc := newTestLocator(t)
	loc.SetRegistryEndpoints("http://127.0.0.1:0", "http://127.0.0.1:0")

	_, err := loc.Locate(t.Context(),
		domain.RegistrySource("fancyhdr", domain.AnyVersion))
	assert.ErrorIs(t, err, domain.ErrUnreachableSource)
}
