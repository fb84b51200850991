// export_test.go exports private identifiers for white-box testing.
package locator

import "go.trai.ch/largo/internal/core/ports"

// NewLocatorWithCache creates a Locator with a custom registry cache path.
func NewLocatorWithCache(logger ports.Logger, cacheDir string) (*Locator, error) {
	return newLocatorWithCache(logger, cacheDir)
}

// SetRegistryEndpoints points the registry client at a test server.
func (l *Locator) SetRegistryEndpoints(api, mirror string) {
	l.ctan.apiBase = api
	l.ctan.mirrorBase = mirror
}

// Exported aliases for private functions.
var (
	PickRef  = pickRef
	HashTree = hashTree
)
