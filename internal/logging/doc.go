// Package logging configures structured slog output for ragindex.
//
// Logs are JSON lines written to a size-rotated file inside the data
// directory (.ragindex/logs/ragindex.log by default). With --debug the same
// records are mirrored to stderr.
package logging
