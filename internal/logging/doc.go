// Package logging provides structured, file-based logging with rotation for
// memoria's engine. Logs are JSON-formatted via log/slog and written to a
// rotating file, optionally mirrored to stderr.
package logging
