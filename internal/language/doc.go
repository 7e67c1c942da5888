// Package language normalizes the language names and codes users put in
// youtube.subtitle_language ("English", "eng", "en-US", "auto") into the
// forms yt-dlp and YouTube caption tracks use.
package language
