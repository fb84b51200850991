// Package ejector exports a materialized build into a standalone project
// tree: every active package vendored verbatim from the content store, a
// concrete bibliography file, and static replacements for the definitions
// largo injects at build time. The output tree has no remaining dependency
// on largo, the store, or the network.
//
// Eject is safely re-runnable rather than transactional. Vendoring large
// package trees is I/O bound, so an interrupted run records what it finished
// and a retry skips every package whose vendored fingerprint is unchanged.
package ejector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.trai.ch/largo/internal/core/domain"
	"go.trai.ch/largo/internal/core/ports"
	"go.trai.ch/zerr"
)

// snapshotTimeout bounds the single synchronous fetch of a remote
// bibliography.
const snapshotTimeout = 30 * time.Second

// Ejector vendors materialized builds into standalone trees.
type Ejector struct {
	store  ports.ContentStore
	logger ports.Logger
	client *http.Client
}

// NewEjector creates an Ejector with the given dependencies.
func NewEjector(store ports.ContentStore, logger ports.Logger) *Ejector {
	return &Ejector{
		store:  store,
		logger: logger,
		client: &http.Client{Timeout: snapshotTimeout},
	}
}

// Inputs names the build to export and where to put it.
type Inputs struct {
	// Root is the directory the standalone tree is written into.
	Root string

	Build        *domain.MaterializedBuild
	Bibliography domain.BibliographyRef

	// SnapshotRemote permits the one synchronous network fetch a remote
	// bibliography reference requires. When false, a remote reference fails
	// instead of silently producing a tree with no bibliography.
	SnapshotRemote bool
}

// Report describes what one eject run did.
type Report struct {
	// Vendored lists the packages copied by this run, Skipped the ones whose
	// vendored contents were already current.
	Vendored []string
	Skipped  []string

	// BibliographyFile is the concrete file written into the tree, empty if
	// no bibliography is configured.
	BibliographyFile string
}

// Eject writes the standalone tree. On interruption it fails with
// domain.ErrPartialEject naming what was copied and what remains; re-running
// with the same inputs resumes instead of starting over.
func (e *Ejector) Eject(ctx context.Context, in Inputs) (*Report, error) {
	state, err := readState(in.Root)
	if err != nil {
		return nil, err
	}

	report := &Report{}
	for _, pkg := range in.Build.Packages {
		if err := ctx.Err(); err != nil {
			return nil, e.partial(in, report, zerr.Wrap(err, "eject canceled"))
		}

		name := pkg.Identity.String()
		if state.current(name, pkg.Fingerprint) && e.vendoredDirExists(in.Root, name) {
			report.Skipped = append(report.Skipped, name)
			continue
		}

		if err := e.vendorPackage(in.Root, pkg); err != nil {
			return nil, e.partial(in, report, err)
		}
		report.Vendored = append(report.Vendored, name)

		// Persist after every package so an interrupt loses at most one copy.
		state.record(name, pkg.Fingerprint)
		if err := state.write(in.Root); err != nil {
			return nil, e.partial(in, report, err)
		}
	}

	bibFile, err := e.writeBibliography(ctx, in)
	if err != nil {
		return nil, err
	}
	report.BibliographyFile = bibFile

	if err := e.writeVars(in, bibFile); err != nil {
		return nil, err
	}

	e.logger.Info(fmt.Sprintf("ejected %d packages into %s (%d already current)",
		len(report.Vendored), in.Root, len(report.Skipped)))
	return report, nil
}

// vendorPackage copies one store entry into vendor/<name>. The copy lands in
// a temporary sibling first and is renamed into place, so a partially copied
// package is never visible under its final name.
func (e *Ejector) vendorPackage(root string, pkg domain.ResolvedPackage) error {
	fsys, err := e.store.Open(pkg.Fingerprint)
	if err != nil {
		return err
	}

	vendorDir := filepath.Join(root, domain.VendorDirName)
	if err := os.MkdirAll(vendorDir, domain.DirPerm); err != nil {
		return zerr.Wrap(err, "failed to create vendor directory")
	}

	tmpDir, err := os.MkdirTemp(vendorDir, ".vendor-*")
	if err != nil {
		return zerr.Wrap(err, "failed to create staging directory")
	}
	defer os.RemoveAll(tmpDir)

	if err := copyFS(tmpDir, fsys); err != nil {
		return zerr.With(err, "package", pkg.Identity.String())
	}

	dst := filepath.Join(vendorDir, pkg.Identity.String())
	if err := os.RemoveAll(dst); err != nil {
		return zerr.Wrap(err, "failed to replace vendored package")
	}
	if err := os.Rename(tmpDir, dst); err != nil {
		return zerr.Wrap(err, "failed to publish vendored package")
	}
	return nil
}

func (e *Ejector) vendoredDirExists(root, name string) bool {
	info, err := os.Stat(filepath.Join(root, domain.VendorDirName, name))
	return err == nil && info.IsDir()
}

// partial wraps a failure with enough state that the caller can report
// progress and the user knows a re-run resumes.
func (e *Ejector) partial(in Inputs, report *Report, cause error) error {
	done := map[string]bool{}
	for _, name := range append(report.Vendored, report.Skipped...) {
		done[name] = true
	}
	var remaining []string
	for _, pkg := range in.Build.Packages {
		if !done[pkg.Identity.String()] {
			remaining = append(remaining, pkg.Identity.String())
		}
	}

	err := zerr.Wrap(errors.Join(domain.ErrPartialEject, cause), "ejecting project")
	err = zerr.With(err, "copied", len(report.Vendored))
	return zerr.With(err, "remaining", remaining)
}

// writeBibliography materializes the configured bibliography reference as a
// concrete file in the tree root. A local path is copied; a remote URL is
// fetched once and annotated as a snapshot, since the remote may change
// after eject.
func (e *Ejector) writeBibliography(ctx context.Context, in Inputs) (string, error) {
	ref := in.Bibliography
	if ref.IsZero() {
		return "", nil
	}

	name := bibliographyFileName(ref)
	dst := filepath.Join(in.Root, name)

	if !ref.IsRemote() {
		data, err := os.ReadFile(ref.Path)
		if err != nil {
			return "", zerr.Wrap(errors.Join(domain.ErrBibliographyUnavailable, err), "reading bibliography")
		}
		if err := os.WriteFile(dst, data, domain.FilePerm); err != nil {
			return "", zerr.Wrap(err, "failed to write bibliography")
		}
		return name, nil
	}

	if !in.SnapshotRemote {
		err := zerr.With(zerr.Wrap(domain.ErrBibliographyUnavailable, "remote bibliographies are not vendored"), "url", ref.URL)
		return "", zerr.With(err, "hint", "pass --snapshot-bib to capture a one-time copy")
	}

	data, err := e.fetchRemote(ctx, ref.URL)
	if err != nil {
		return "", err
	}

	header := fmt.Sprintf("%% Snapshot of %s taken %s.\n%% The remote source may change; this capture is not reproducible.\n",
		ref.URL, time.Now().UTC().Format(time.RFC3339))
	if err := os.WriteFile(dst, append([]byte(header), data...), domain.FilePerm); err != nil {
		return "", zerr.Wrap(err, "failed to write bibliography snapshot")
	}
	e.logger.Warn(fmt.Sprintf("captured remote bibliography snapshot of %s into %s", ref.URL, name))
	return name, nil
}

func (e *Ejector) fetchRemote(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, zerr.Wrap(errors.Join(domain.ErrBibliographyUnavailable, err), "building bibliography request")
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, zerr.Wrap(errors.Join(domain.ErrBibliographyUnavailable, err), "fetching bibliography")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := zerr.With(zerr.Wrap(domain.ErrBibliographyUnavailable, "bibliography host returned an error status"), "url", url)
		return nil, zerr.With(err, "status", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// writeVars replaces the definitions largo injects at build time with static
// equivalents, so the tree builds with a plain engine invocation.
func (e *Ejector) writeVars(in Inputs, bibFile string) error {
	var b strings.Builder
	b.WriteString("% Generated by largo eject. Static equivalents of build-time definitions.\n")
	b.WriteString("% Add ./" + domain.VendorDirName + "// to TEXINPUTS so the engine finds vendored packages.\n")
	fmt.Fprintf(&b, "\\def\\LargoProfile{%s}\n", in.Build.Profile)
	fmt.Fprintf(&b, "\\def\\LargoOutputDirectory{%s}\n", in.Build.Parameters.OutputDir)
	if bibFile != "" {
		fmt.Fprintf(&b, "\\def\\LargoBibliography{%s}\n", bibFile)
	}

	path := filepath.Join(in.Root, domain.VarsFileName)
	if err := os.WriteFile(path, []byte(b.String()), domain.FilePerm); err != nil {
		return zerr.Wrap(err, "failed to write "+domain.VarsFileName)
	}
	return nil
}

// copyFS copies every regular file of fsys under dst, preserving structure.
func copyFS(dst string, fsys fs.FS) error {
	return fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return zerr.Wrap(err, "failed to walk store entry")
		}
		target := filepath.Join(dst, filepath.FromSlash(path))
		if d.IsDir() {
			if path == "." {
				return nil
			}
			return os.MkdirAll(target, domain.DirPerm)
		}

		src, err := fsys.Open(path)
		if err != nil {
			return zerr.Wrap(err, "failed to read store entry")
		}
		defer src.Close()

		out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, domain.FilePerm)
		if err != nil {
			return zerr.Wrap(err, "failed to create vendored file")
		}
		if _, err := io.Copy(out, src); err != nil {
			out.Close()
			return zerr.Wrap(err, "failed to copy vendored file")
		}
		return out.Close()
	})
}

func bibliographyFileName(ref domain.BibliographyRef) string {
	base := filepath.Base(ref.Path)
	if ref.IsRemote() {
		if idx := strings.LastIndex(ref.URL, "/"); idx >= 0 && idx < len(ref.URL)-1 {
			base = ref.URL[idx+1:]
		} else {
			base = ""
		}
	}
	if base == "" || base == "." || base == "/" || !strings.HasSuffix(base, ".bib") {
		return "references.bib"
	}
	return base
}
