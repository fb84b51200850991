package locator

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/largo/internal/core/domain"
	"go.trai.ch/zerr"
)

// localRevision computes the revision of a path dependency. The content hash
// is embedded so edits to the tree change the revision, and with it the
// fingerprint, on the next resolution.
func localRevision(path string) (string, error) {
	hash, err := hashTree(path)
	if err != nil {
		return "", err
	}
	return path + "@" + hash, nil
}

// hashTree computes a deterministic content hash of a directory tree. Entries
// are visited in lexical order; each contributes its slash-separated relative
// path and file contents.
func hashTree(root string) (string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return "", zerr.With(zerr.Wrap(errors.Join(domain.ErrUnreachableSource, err), "hashing local source"), "path", root)
	}

	hasher := xxhash.New()

	if !info.IsDir() {
		if err := hashFile(hasher, root, filepath.Base(root)); err != nil {
			return "", err
		}
		return fmt.Sprintf("%016x", hasher.Sum64()), nil
	}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		return hashFile(hasher, path, filepath.ToSlash(rel))
	})
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, "hashing local source"), "path", root)
	}

	return fmt.Sprintf("%016x", hasher.Sum64()), nil
}

func hashFile(hasher *xxhash.Digest, path, label string) error {
	_, _ = hasher.WriteString(label)
	_, _ = hasher.Write([]byte{0})

	f, err := os.Open(path) //nolint:gosec // Path comes from a declared dependency
	if err != nil {
		return err
	}
	defer f.Close() //nolint:errcheck // Best effort close in defer

	if _, err := io.Copy(hasher, f); err != nil {
		return err
	}
	_, _ = hasher.Write([]byte{0})
	return nil
}

// copyTree copies the contents of src into dst, which must already exist.
func copyTree(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return zerr.With(zerr.Wrap(errors.Join(domain.ErrUnreachableSource, err), "copying local source"), "path", src)
	}

	if !info.IsDir() {
		return copyFile(src, filepath.Join(dst, filepath.Base(src)), info.Mode())
	}

	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			if rel == "." {
				return nil
			}
			return os.MkdirAll(target, domain.DirPerm)
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		return copyFile(path, target, info.Mode())
	})
}

func copyFile(src, dst string, mode fs.FileMode) error {
	in, err := os.Open(src) //nolint:gosec // Path comes from a declared dependency
	if err != nil {
		return err
	}
	defer in.Close() //nolint:errcheck // Best effort close in defer

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode.Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
