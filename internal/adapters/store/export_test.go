// export_test.go exports private constructors for white-box testing.
package store

import "go.trai.ch/largo/internal/core/ports"

// NewStoreWithPath creates a Store rooted at a custom path.
func NewStoreWithPath(logger ports.Logger, fetcher ports.SourceFetcher, path string) (*Store, error) {
	return newStoreWithPath(logger, fetcher, path)
}
