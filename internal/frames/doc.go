// Package frames samples a video into numbered JPEG files.
//
// A Decoder opens a Capture (by default an ffmpeg rawvideo pipe sized by
// ffprobe), reads every frame in order, and keeps one frame per sampling
// interval. The interval is the source frame rate divided by the configured
// target rate, rounded, so a 30 fps video sampled at 1 fps keeps every
// thirtieth frame. Output lands in <database_root>/<stem>/frames as
// frame_n000000.jpg, frame_n000001.jpg, ... numbered by saved frame.
package frames
