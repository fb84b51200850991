package config

// manifestFile mirrors the on-disk layout of largo.toml.
type manifestFile struct {
	Project      projectSection             `toml:"project"`
	Dependencies map[string]dependencyEntry `toml:"dependencies"`
	Profiles     map[string]profileSection  `toml:"profile"`
}

type projectSection struct {
	Name         string `toml:"name"`
	TexFormat    string `toml:"tex-format"`
	TexEngine    string `toml:"tex-engine"`
	BibEngine    string `toml:"bib-engine"`
	OutputFormat string `toml:"output-format"`
	ShellEscape  *bool  `toml:"shell-escape"`
	SyncTeX      *bool  `toml:"synctex"`
}

// dependencyEntry accepts exactly one source shape per entry. The key of the
// dependencies table is the package identity unless registry overrides it.
type dependencyEntry struct {
	Path     string `toml:"path"`
	Git      string `toml:"git"`
	Ref      string `toml:"ref"`
	Registry string `toml:"registry"`
	Version  string `toml:"version"`
	Feature  string `toml:"feature"`
}

type profileSection struct {
	Features     []string `toml:"features"`
	OutputFormat string   `toml:"output-format"`
	ShellEscape  *bool    `toml:"shell-escape"`
	SyncTeX      *bool    `toml:"synctex"`
}

// globalFile mirrors the on-disk layout of the user-level config.toml.
type globalFile struct {
	DefaultProfile   string            `toml:"default-profile"`
	DefaultTexFormat string            `toml:"default-tex-format"`
	DefaultTexEngine string            `toml:"default-tex-engine"`
	Bib              globalBibSection  `toml:"bib"`
	Build            map[string]string `toml:"build"`
}

type globalBibSection struct {
	Path string `toml:"path"`
	URL  string `toml:"url"`
}
