// Package subtitles fetches and inspects SRT subtitles for YouTube videos.
//
// Fetcher drives yt-dlp through the retry helper, rotating player-client
// identities between attempts. Bot detection backs off linearly and ends in a
// transient error that tells the operator how to supply cookies. A rejected
// format selector switches to the direct path: the track list is read from
// metadata, the best track is downloaded over HTTP, and WebVTT or json3
// payloads are converted to SRT.
//
// ParseSRT, CountCues and ValidateSRT give callers a quick sanity check on
// whatever file ends up on disk.
package subtitles
