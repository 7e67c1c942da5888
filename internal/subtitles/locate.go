package subtitles

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"dvd/internal/logging"
)

// LocateDownloaded scans dir for the <id>.srt and <id>.<lang>.srt files
// yt-dlp wrote. It returns the one to keep and the remaining ones. The kept
// file matches preferred (English when preferred is empty) and otherwise is
// the first in sorted order. exclude is never returned.
func LocateDownloaded(dir, videoID, exclude, preferred string) (string, []string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", nil, err
	}
	excludeAbs, _ := filepath.Abs(exclude)
	var candidates []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(name), ".srt") {
			continue
		}
		if !strings.HasPrefix(name, videoID+".") {
			continue
		}
		full := filepath.Join(dir, name)
		if abs, _ := filepath.Abs(full); abs == excludeAbs {
			continue
		}
		candidates = append(candidates, full)
	}
	if len(candidates) == 0 {
		return "", nil, nil
	}
	sort.Strings(candidates)

	want := languageBase(preferred)
	if want == "" {
		want = "en"
	}
	keep := 0
	for i, candidate := range candidates {
		if languageBase(subtitleLanguage(candidate, videoID)) == want {
			keep = i
			break
		}
	}
	extra := make([]string, 0, len(candidates)-1)
	extra = append(extra, candidates[:keep]...)
	extra = append(extra, candidates[keep+1:]...)
	return candidates[keep], extra, nil
}

// RemoveExtra deletes subtitle files that were downloaded but not kept.
func RemoveExtra(ctx context.Context, logger *slog.Logger, paths []string) {
	for _, path := range paths {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			logging.WarnWithContext(ctx, logger, "could not remove extra subtitle", "subtitle_cleanup_failed",
				logging.String("path", path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "delete the file by hand"),
				logging.String(logging.FieldImpact, "stray subtitle left beside the video"),
			)
		}
	}
}

// subtitleLanguage extracts "en" from "<id>.en.srt".
func subtitleLanguage(path, videoID string) string {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	name = strings.TrimPrefix(name, videoID)
	return strings.TrimPrefix(name, ".")
}
