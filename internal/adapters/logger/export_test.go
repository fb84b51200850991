// export_test.go exports private identifiers for white-box testing.
package logger

// ErrorEntry exposes errorEntry for tests.
type ErrorEntry = errorEntry

// Exported aliases for the private error formatting functions.
var (
	CollectErrorEntriesExported = collectErrorEntries
	FormatErrorEntriesExported  = formatErrorEntries
)
