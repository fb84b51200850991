package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/largo/internal/adapters/config"
	"go.trai.ch/largo/internal/core/domain"
	"go.trai.ch/largo/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func newTestLoader(t *testing.T) *config.Loader {
	t.Helper()
	ctrl := gomock.NewController(t)
	mockLogger := mocks.NewMockLogger(ctrl)
	mockLogger.EXPECT().Warn(gomock.Any()).AnyTimes()
	return config.NewLoader(mockLogger)
}

func createFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), domain.FilePerm))
}

func TestLoader_LoadProject(t *testing.T) {
	t.Parallel()
	loader := newTestLoader(t)

	rootDir := t.TempDir()
	manifest := `
[project]
name = "thesis"
tex-format = "latex"
tex-engine = "xetex"
bib-engine = "biber"
output-format = "pdf"
synctex = true

[dependencies]
shared = { path = "../shared" }
tikz-styles = { git = "https://example.org/tikz.git", ref = "v1.2.0" }
fancyhdr = { version = ">=4.0,<5.0" }
Memoir = { registry = "memoir", version = "^3.7", feature = "camera-ready" }

[profile.release]
features = ["camera-ready"]
synctex = false
`
	createFile(t, rootDir, domain.ManifestFileName, manifest)

	// LoadProject must walk up from a nested directory.
	subDir := filepath.Join(rootDir, "chapters", "intro")
	require.NoError(t, os.MkdirAll(subDir, domain.DirPerm))

	m, err := loader.LoadProject(subDir)
	require.NoError(t, err)

	assert.Equal(t, "thesis", m.Name)
	assert.Equal(t, rootDir, m.Root)
	assert.Equal(t, domain.FormatLaTeX, m.System.TexFormat)
	assert.Equal(t, domain.EngineXeTeX, m.System.TexEngine)
	assert.Equal(t, domain.BibEngineBiber, m.System.BibEngine)
	require.NotNil(t, m.Settings.SyncTeX)
	assert.True(t, *m.Settings.SyncTeX)

	require.Len(t, m.Dependencies, 4)

	shared := m.Dependencies["shared"]
	assert.Equal(t, domain.SourceLocal, shared.Source.Kind)
	assert.Equal(t, filepath.Join(filepath.Dir(rootDir), "shared"), shared.Source.Path)

	tikz := m.Dependencies["tikz-styles"]
	assert.Equal(t, domain.SourceVCS, tikz.Source.Kind)
	assert.Equal(t, "https://example.org/tikz.git", tikz.Source.Repo)
	assert.Equal(t, "v1.2.0", tikz.Source.Ref)

	fancyhdr := m.Dependencies["fancyhdr"]
	assert.Equal(t, domain.SourceRegistry, fancyhdr.Source.Kind)
	assert.Equal(t, "fancyhdr", fancyhdr.Source.Name)
	assert.True(t, fancyhdr.Source.Constraint.Matches("4.1.0"))
	assert.False(t, fancyhdr.Source.Constraint.Matches("5.0.0"))

	// Keys are normalized; registry overrides the package name.
	memoir := m.Dependencies["memoir"]
	assert.Equal(t, domain.SourceRegistry, memoir.Source.Kind)
	assert.Equal(t, "memoir", memoir.Source.Name)
	assert.Equal(t, "camera-ready", memoir.Feature)

	// Declared profiles merge over the standard ones.
	require.Contains(t, m.Profiles, domain.DevProfileName)
	release, ok := m.Profiles[domain.ReleaseProfileName]
	require.True(t, ok)
	assert.True(t, release.EnablesFeature("camera-ready"))
	require.NotNil(t, release.Overrides.SyncTeX)
	assert.False(t, *release.Overrides.SyncTeX)
}

func TestLoader_LoadProject_NotFound(t *testing.T) {
	t.Parallel()
	loader := newTestLoader(t)

	_, err := loader.LoadProject(t.TempDir())
	assert.ErrorIs(t, err, domain.ErrManifestNotFound)
}

func TestLoader_LoadProject_InvalidDependency(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		manifest string
		wantErr  error
	}{
		{
			name: "two source shapes",
			manifest: `
[project]
name = "p"
[dependencies]
x = { path = "../x", git = "https://example.org/x.git" }
`,
			wantErr: domain.ErrUnknownSourceKind,
		},
		{
			name: "no source shape",
			manifest: `
[project]
name = "p"
[dependencies]
x = { feature = "extra" }
`,
			wantErr: domain.ErrUnknownSourceKind,
		},
		{
			name: "bad constraint",
			manifest: `
[project]
name = "p"
[dependencies]
x = { version = ">=not.a.version" }
`,
			wantErr: domain.ErrInvalidConstraint,
		},
		{
			name: "missing name",
			manifest: `
[project]
tex-format = "latex"
`,
			wantErr: domain.ErrManifestParseFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			loader := newTestLoader(t)
			dir := t.TempDir()
			createFile(t, dir, domain.ManifestFileName, tt.manifest)

			_, err := loader.LoadProject(dir)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLoader_LoadPackage(t *testing.T) {
	t.Parallel()
	loader := newTestLoader(t)

	fsys := fstest.MapFS{
		domain.ManifestFileName: &fstest.MapFile{Data: []byte(`
[project]
name = "tikz-styles"
[dependencies]
pgfplots = { version = "*" }
`)},
	}

	m, ok, err := loader.LoadPackage(fsys)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "tikz-styles", m.Name)
	assert.Empty(t, m.Root)
	assert.Contains(t, m.Dependencies, "pgfplots")
}

func TestLoader_LoadPackage_NoManifestIsLeaf(t *testing.T) {
	t.Parallel()
	loader := newTestLoader(t)

	_, ok, err := loader.LoadPackage(fstest.MapFS{
		"styles.sty": &fstest.MapFile{Data: []byte("%")},
	})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoader_LoadPackage_RejectsPathDependency(t *testing.T) {
	t.Parallel()
	loader := newTestLoader(t)

	_, _, err := loader.LoadPackage(fstest.MapFS{
		domain.ManifestFileName: &fstest.MapFile{Data: []byte(`
[project]
name = "pkg"
[dependencies]
x = { path = "../x" }
`)},
	})
	assert.ErrorIs(t, err, domain.ErrUnknownSourceKind)
}

func TestLoader_LoadGlobal(t *testing.T) {
	t.Parallel()
	loader := newTestLoader(t)
	dir := t.TempDir()
	createFile(t, dir, domain.GlobalConfigFileName, `
default-profile = "Release"
default-tex-engine = "luatex"

[bib]
url = "https://bib.example.org/all.bib"

[build]
lualatex = "lualatex-dev"
`)
	loader.GlobalPath = filepath.Join(dir, domain.GlobalConfigFileName)

	cfg, err := loader.LoadGlobal()
	require.NoError(t, err)

	assert.Equal(t, domain.ReleaseProfileName, cfg.DefaultProfile)
	assert.Equal(t, domain.EngineLuaTeX, cfg.DefaultTexEngine)
	assert.Equal(t, domain.FormatLaTeX, cfg.DefaultTexFormat) // default kept
	assert.True(t, cfg.Bibliography.IsRemote())
	assert.Equal(t, "lualatex-dev", cfg.Executable(domain.EngineLuaTeX, domain.FormatLaTeX))
	assert.Equal(t, "xelatex", cfg.Executable(domain.EngineXeTeX, domain.FormatLaTeX))
}

func TestLoader_LoadGlobal_MissingFileUsesDefaults(t *testing.T) {
	t.Parallel()
	loader := newTestLoader(t)
	loader.GlobalPath = filepath.Join(t.TempDir(), domain.GlobalConfigFileName)

	cfg, err := loader.LoadGlobal()
	require.NoError(t, err)
	assert.Equal(t, domain.DevProfileName, cfg.DefaultProfile)
	assert.True(t, cfg.Bibliography.IsZero())
}
