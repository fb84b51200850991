package locator

import (
	"archive/zip"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.trai.ch/largo/internal/core/domain"
	"go.trai.ch/largo/internal/core/ports"
	"go.trai.ch/zerr"
)

// Fetcher implements ports.SourceFetcher. It materializes the contents of a
// source at a concrete revision into a directory owned by the content store.
type Fetcher struct {
	logger ports.Logger
	ctan   *ctanClient
	git    *gitClient
}

// NewFetcher creates a Fetcher sharing the locator's transport clients.
func NewFetcher(logger ports.Logger, loc *Locator) *Fetcher {
	return &Fetcher{
		logger: logger,
		ctan:   loc.ctan,
		git:    loc.git,
	}
}

// FetchInto fills dir with the contents of (spec, revision).
func (f *Fetcher) FetchInto(ctx context.Context, spec domain.SourceSpec, revision string, dir string) error {
	switch spec.Kind {
	case domain.SourceLocal:
		return copyTree(spec.Path, dir)

	case domain.SourceVCS:
		return f.git.fetchInto(ctx, spec.Repo, revision, dir)

	case domain.SourceRegistry:
		return f.fetchRegistry(ctx, spec.Name, revision, dir)

	default:
		return zerr.With(zerr.Wrap(domain.ErrUnknownSourceKind, "fetching source"), "kind", spec.Kind.String())
	}
}

func (f *Fetcher) fetchRegistry(ctx context.Context, name, revision, dir string) error {
	// CTAN serves a single current version per package. Refuse to store bytes
	// under a locked revision the registry no longer offers.
	available, err := f.ctan.versions(ctx, name)
	if err != nil {
		return err
	}
	if len(available) == 0 || available[0] != revision {
		werr := zerr.Wrap(domain.ErrRevisionUnavailable, "registry has moved past the locked revision")
		werr = zerr.With(werr, "package", name)
		werr = zerr.With(werr, "revision", revision)
		return zerr.With(werr, "available", available)
	}

	url, err := f.ctan.archiveURL(ctx, name)
	if err != nil {
		return err
	}

	archive := filepath.Join(dir, ".largo-archive.zip")
	size, err := f.ctan.downloadArchive(ctx, url, archive)
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(archive) }()

	if err := extractZip(archive, size, dir); err != nil {
		return zerr.With(err, "package", name)
	}
	return nil
}

// extractZip unpacks an archive into dir, rejecting entries that would
// escape it.
func extractZip(archive string, size int64, dir string) error {
	src, err := os.Open(archive) //nolint:gosec // Path is inside a store-owned directory
	if err != nil {
		return zerr.Wrap(err, "opening archive")
	}
	defer src.Close() //nolint:errcheck // Best effort close in defer

	r, err := zip.NewReader(src, size)
	if err != nil {
		return zerr.Wrap(err, "reading archive")
	}

	for _, file := range r.File {
		if err := extractZipEntry(file, dir); err != nil {
			return err
		}
	}
	return nil
}

func extractZipEntry(file *zip.File, dir string) error {
	name := filepath.FromSlash(file.Name)
	target := filepath.Join(dir, name)
	if !strings.HasPrefix(target, filepath.Clean(dir)+string(os.PathSeparator)) {
		return zerr.With(zerr.New("archive entry escapes extraction directory"), "entry", file.Name)
	}

	if file.FileInfo().IsDir() {
		return os.MkdirAll(target, domain.DirPerm)
	}

	if err := os.MkdirAll(filepath.Dir(target), domain.DirPerm); err != nil {
		return zerr.Wrap(err, "extracting archive")
	}

	in, err := file.Open()
	if err != nil {
		return zerr.Wrap(err, "extracting archive")
	}
	defer in.Close() //nolint:errcheck // Best effort close in defer

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, domain.FilePerm)
	if err != nil {
		return zerr.Wrap(err, "extracting archive")
	}
	//nolint:gosec // Store entries are bounded by what the registry serves
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return zerr.Wrap(err, "extracting archive")
	}
	return out.Close()
}

var _ ports.SourceFetcher = (*Fetcher)(nil)
