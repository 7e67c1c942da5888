// Package youtube holds the small amount of YouTube knowledge dvd needs
// outside of yt-dlp itself: recognising YouTube URLs, pulling the video ID out
// of them, and loading browser-exported cookies for direct HTTP requests.
package youtube
