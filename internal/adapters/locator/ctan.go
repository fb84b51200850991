package locator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.trai.ch/largo/internal/core/domain"
	"go.trai.ch/largo/internal/core/ports"
	"go.trai.ch/zerr"
)

const (
	ctanAPIBase       = "https://ctan.org/json/2.0"
	ctanMirrorBase    = "https://mirrors.ctan.org"
	httpClientTimeout = 30 * time.Second
	metadataCacheTTL  = 24 * time.Hour
)

// ctanPackage is the subset of the CTAN JSON 2.0 package record we consume.
type ctanPackage struct {
	ID      string       `json:"id"`
	Name    string       `json:"name"`
	Version ctanVersion  `json:"version"`
	Install *ctanInstall `json:"install"`
	Aliases []ctanAlias  `json:"aliases"`
}

type ctanVersion struct {
	Number string `json:"number"`
	Date   string `json:"date"`
}

type ctanInstall struct {
	// Path is relative to the /install tree of a CTAN mirror and points at a
	// TDS-compliant zip archive.
	Path string `json:"path"`
}

type ctanAlias struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// cacheEntry is one cached metadata response on disk.
type cacheEntry struct {
	Name      string      `json:"name"`
	Package   ctanPackage `json:"package"`
	Timestamp time.Time   `json:"timestamp"`
}

// ctanClient queries the CTAN JSON API with a local metadata cache.
type ctanClient struct {
	logger     ports.Logger
	cacheDir   string
	apiBase    string
	mirrorBase string
	httpClient *http.Client
}

func newCtanClient(logger ports.Logger, cacheDir string) (*ctanClient, error) {
	cleanPath := filepath.Clean(cacheDir)
	if err := os.MkdirAll(cleanPath, domain.DirPerm); err != nil {
		return nil, zerr.Wrap(err, "creating registry cache")
	}
	return &ctanClient{
		logger:     logger,
		cacheDir:   cleanPath,
		apiBase:    ctanAPIBase,
		mirrorBase: ctanMirrorBase,
		httpClient: &http.Client{Timeout: httpClientTimeout},
	}, nil
}

// versions returns the versions the registry offers for a package. CTAN keeps
// a single current version per package.
func (c *ctanClient) versions(ctx context.Context, name string) ([]string, error) {
	pkg, err := c.metadata(ctx, name)
	if err != nil {
		return nil, err
	}
	v := pkg.Version.Number
	if v == "" {
		v = pkg.Version.Date
	}
	if v == "" {
		err := zerr.Wrap(domain.ErrUnreachableSource, "registry record carries no version")
		return nil, zerr.With(err, "package", name)
	}
	return []string{v}, nil
}

// archiveURL returns the download location of a package's install archive.
func (c *ctanClient) archiveURL(ctx context.Context, name string) (string, error) {
	pkg, err := c.metadata(ctx, name)
	if err != nil {
		return "", err
	}
	if pkg.Install == nil || pkg.Install.Path == "" {
		err := zerr.Wrap(domain.ErrUnreachableSource, "no install archive on record")
		return "", zerr.With(err, "package", name)
	}
	return c.mirrorBase + "/install" + pkg.Install.Path, nil
}

// metadata returns the package record, serving from the disk cache when the
// entry is fresh. A failed refresh falls back to a stale entry so cached
// packages stay resolvable offline.
func (c *ctanClient) metadata(ctx context.Context, name string) (*ctanPackage, error) {
	cachePath := c.cachePath(name)

	cached, cacheErr := c.loadFromCache(cachePath)
	if cacheErr == nil && time.Since(cached.Timestamp) < metadataCacheTTL {
		return &cached.Package, nil
	}

	pkg, err := c.query(ctx, name)
	if err != nil {
		if cacheErr == nil {
			c.logger.Warn(fmt.Sprintf("registry unreachable, using cached metadata for %s", name))
			return &cached.Package, nil
		}
		return nil, err
	}

	if err := c.saveToCache(cachePath, name, pkg); err != nil {
		// A cache write failure is not critical for resolution.
		c.logger.Warn(fmt.Sprintf("failed to cache registry metadata for %s", name))
	}
	return pkg, nil
}

func (c *ctanClient) cachePath(name string) string {
	hash := sha256.Sum256([]byte(name))
	return filepath.Join(c.cacheDir, hex.EncodeToString(hash[:])+".json")
}

func (c *ctanClient) loadFromCache(path string) (*cacheEntry, error) {
	//nolint:gosec // Path is constructed from trusted directory and hashed filename
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		return nil, zerr.Wrap(err, "reading registry cache")
	}
	var entry cacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, zerr.Wrap(err, "decoding registry cache")
	}
	return &entry, nil
}

func (c *ctanClient) saveToCache(path, name string, pkg *ctanPackage) error {
	entry := cacheEntry{
		Name:      name,
		Package:   *pkg,
		Timestamp: time.Now(),
	}
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return err
	}
	return atomicWriteFile(path, data)
}

func (c *ctanClient) query(ctx context.Context, name string) (*ctanPackage, error) {
	url := fmt.Sprintf("%s/pkg/%s", c.apiBase, name)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, zerr.Wrap(errors.Join(domain.ErrUnreachableSource, err), "building registry request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		wrapped := zerr.Wrap(errors.Join(domain.ErrUnreachableSource, err), "querying registry")
		return nil, zerr.With(wrapped, "package", name)
	}
	defer resp.Body.Close() //nolint:errcheck // Best effort close in defer

	if resp.StatusCode != http.StatusOK {
		wrapped := zerr.Wrap(domain.ErrUnreachableSource, "registry returned an error status")
		wrapped = zerr.With(wrapped, "package", name)
		return nil, zerr.With(wrapped, "status", resp.StatusCode)
	}

	var pkg ctanPackage
	if err := json.NewDecoder(resp.Body).Decode(&pkg); err != nil {
		wrapped := zerr.Wrap(errors.Join(domain.ErrUnreachableSource, err), "decoding registry response")
		return nil, zerr.With(wrapped, "package", name)
	}
	return &pkg, nil
}

// downloadArchive streams an archive to a file, returning the bytes written.
func (c *ctanClient) downloadArchive(ctx context.Context, url, dest string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return 0, zerr.Wrap(errors.Join(domain.ErrUnreachableSource, err), "building archive request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		wrapped := zerr.Wrap(errors.Join(domain.ErrUnreachableSource, err), "downloading archive")
		return 0, zerr.With(wrapped, "url", url)
	}
	defer resp.Body.Close() //nolint:errcheck // Best effort close in defer

	if resp.StatusCode != http.StatusOK {
		wrapped := zerr.Wrap(domain.ErrUnreachableSource, "mirror returned an error status")
		wrapped = zerr.With(wrapped, "url", url)
		return 0, zerr.With(wrapped, "status", resp.StatusCode)
	}

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, domain.FilePerm)
	if err != nil {
		return 0, zerr.Wrap(err, "writing archive")
	}
	n, err := io.Copy(out, resp.Body)
	if err != nil {
		_ = out.Close()
		return 0, zerr.Wrap(err, "writing archive")
	}
	return n, out.Close()
}

// atomicWriteFile writes data via a temp file and rename so readers never see
// a partial entry.
func atomicWriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return err
	}

	tmpFile, err := os.CreateTemp(dir, "registry-cache-*.json")
	if err != nil {
		return err
	}
	tmpName := tmpFile.Name()

	defer func() {
		if _, statErr := os.Stat(tmpName); statErr == nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, domain.FilePerm); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
