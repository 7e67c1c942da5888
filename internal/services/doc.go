// Package services defines shared utilities consumed by the loader, subtitle
// fetcher, frame decoder, and the external tool clients they drive.
//
// Key responsibilities:
//   - Context helpers that stamp video IDs, stage names, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper that let callers classify
//     failures as invalid input, not found, transient upstream, or fatal
//     runtime errors without string matching.
//
// Tool clients live in subpackages (see services/ytdlp).
package services
