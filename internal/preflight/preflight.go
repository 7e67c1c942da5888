package preflight

import (
	"context"

	"dvd/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	// Optional checks are reported but never block work.
	Optional bool
	Detail   string
}

// minFreeBytes is the free space below which the database root check fails.
const minFreeBytes = 1 << 30

// RunAll executes the filesystem and credential checks for the given config.
// Tool availability is reported separately by CheckSystemDeps.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	results = append(results, CheckDirectoryAccess("Database root", cfg.Paths.DatabaseRoot))
	results = append(results, CheckFreeSpace("Database free space", cfg.Paths.DatabaseRoot, minFreeBytes))
	if cfg.Paths.LogDir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}
	results = append(results, CheckCookies(cfg.YouTube.CookiesFile))
	return results
}

// Blocking returns the failed, non-optional results.
func Blocking(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed && !r.Optional {
			failed = append(failed, r)
		}
	}
	return failed
}
