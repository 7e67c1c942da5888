// Package loader places a video into the database's raw directory.
//
// YouTube URLs are downloaded with yt-dlp (capped at the configured height,
// merged to the configured container) and retried with backoff when YouTube
// flags the request. Local files are copied under a sanitized stem. Either
// way an SRT sidecar can be stored next to the video with the same base name.
package loader
