package domain

import (
	"os"
	"path/filepath"
)

const (
	// ManifestFileName is the name of the project manifest.
	ManifestFileName = "largo.toml"

	// LockFileName is the name of the project lockfile, sibling to the manifest.
	LockFileName = "largo.lock"

	// GlobalConfigFileName is the name of the user-level configuration file.
	GlobalConfigFileName = "config.toml"

	// LargoDirName is the directory name used for largo state under the user
	// cache and config roots.
	LargoDirName = "largo"

	// StoreDirName is the name of the content addressable store directory.
	StoreDirName = "store"

	// RegistryCacheDirName is the name of the registry metadata cache directory.
	RegistryCacheDirName = "registry"

	// VendorDirName is the directory packages are vendored into on eject.
	VendorDirName = "vendor"

	// BuildDirName is the directory build outputs land in, one subdirectory
	// per profile.
	BuildDirName = "build"

	// EjectStateFileName records vendored fingerprints so an interrupted eject can resume.
	EjectStateFileName = ".largo-eject.yaml"

	// VarsFileName is the static TeX definitions file written on eject.
	VarsFileName = "largo-vars.tex"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644

	// PrivateFilePerm is the default permission for private files (rw-------).
	PrivateFilePerm = 0o600
)

// DefaultStorePath returns the user-level content store directory.
func DefaultStorePath() string {
	return filepath.Join(userCacheRoot(), LargoDirName, StoreDirName)
}

// DefaultRegistryCachePath returns the user-level registry metadata cache directory.
func DefaultRegistryCachePath() string {
	return filepath.Join(userCacheRoot(), LargoDirName, RegistryCacheDirName)
}

// DefaultGlobalConfigPath returns the path of the user-level config file.
func DefaultGlobalConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, LargoDirName, GlobalConfigFileName)
}

func userCacheRoot() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(".", ".largo-cache")
	}
	return dir
}
