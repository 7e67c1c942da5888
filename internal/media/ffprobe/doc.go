// Package ffprobe wraps `ffprobe -of json` for the stream facts dvd needs:
// the first video stream's dimensions and frame rate, and the container
// duration used to sanity-check subtitle timing.
package ffprobe
