// Package ytdlp wraps the yt-dlp command line tool.
//
// The client builds argument lists for the three invocations dvd needs (video
// download, subtitle-only download, and metadata dump), runs them through an
// injectable Executor, and turns failures into a CommandError whose Kind says
// whether YouTube flagged the request as a bot, rejected the format selector,
// or rate limited us. Retrying is left to callers.
package ytdlp
