package ytdlp_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"dvd/internal/services/ytdlp"
)

type stubExecutor struct {
	stdout string
	stderr string
	err    error
	block  bool
	calls  int
	args   [][]string
}

func (s *stubExecutor) Run(ctx context.Context, binary string, args []string) ([]byte, []byte, error) {
	s.calls++
	s.args = append(s.args, append([]string(nil), args...))
	if s.block {
		<-ctx.Done()
		return nil, nil, ctx.Err()
	}
	return []byte(s.stdout), []byte(s.stderr), s.err
}

func argValue(args []string, flag string) (string, bool) {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			return args[i+1], true
		}
	}
	return "", false
}

func hasArg(args []string, flag string) bool {
	for _, a := range args {
		if a == flag {
			return true
		}
	}
	return false
}

func TestNewRequiresBinary(t *testing.T) {
	if _, err := ytdlp.New("  ", 0); err == nil {
		t.Fatal("expected error for empty binary")
	}
}

func TestDownloadBuildsArgsAndReturnsPath(t *testing.T) {
	exec := &stubExecutor{stdout: "[info] something\n/db/raw/abc.mp4\n"}
	client, err := ytdlp.New("yt-dlp", 60, ytdlp.WithExecutor(exec))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	path, err := client.Download(context.Background(), ytdlp.DownloadRequest{
		URL:            "https://youtu.be/abcdefghijk",
		OutputTemplate: "/db/raw/%(id)s.%(ext)s",
		Format:         ytdlp.VideoFormat(720),
		MergeFormat:    "mp4",
		Identity:       ytdlp.Identity{PlayerClient: "android,web", UserAgent: "UA", CookiesFile: "/tmp/c.txt"},
		Subtitles:      &ytdlp.SubtitleOptions{Languages: "auto"},
	})
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if path != "/db/raw/abc.mp4" {
		t.Fatalf("unexpected path %q", path)
	}

	args := exec.args[0]
	if got, _ := argValue(args, "-f"); got != "bestvideo[height<=720][ext=mp4]+bestaudio[ext=m4a]/best[height<=720][ext=mp4]/best[height<=720]" {
		t.Fatalf("unexpected format selector %q", got)
	}
	if got, _ := argValue(args, "--merge-output-format"); got != "mp4" {
		t.Fatalf("unexpected merge format %q", got)
	}
	if got, _ := argValue(args, "--extractor-args"); got != "youtube:player_client=android,web;player_skip=webpage,configs" {
		t.Fatalf("unexpected extractor args %q", got)
	}
	if got, _ := argValue(args, "--cookies"); got != "/tmp/c.txt" {
		t.Fatalf("unexpected cookies %q", got)
	}
	if !hasArg(args, "--write-subs") || !hasArg(args, "--write-auto-subs") {
		t.Fatalf("expected subtitle flags in %v", args)
	}
	if args[len(args)-1] != "https://youtu.be/abcdefghijk" {
		t.Fatalf("url should be last arg, got %v", args)
	}
}

func TestDownloadWithoutSubtitlesOmitsSubtitleFlags(t *testing.T) {
	exec := &stubExecutor{stdout: "/db/raw/abc.mp4"}
	client, _ := ytdlp.New("yt-dlp", 0, ytdlp.WithExecutor(exec))
	if _, err := client.Download(context.Background(), ytdlp.DownloadRequest{URL: "https://youtu.be/x", OutputTemplate: "o"}); err != nil {
		t.Fatalf("Download: %v", err)
	}
	if hasArg(exec.args[0], "--write-subs") || hasArg(exec.args[0], "--cookies") {
		t.Fatalf("unexpected flags: %v", exec.args[0])
	}
}

func TestDownloadSpecificLanguage(t *testing.T) {
	exec := &stubExecutor{stdout: "/db/raw/abc.mp4"}
	client, _ := ytdlp.New("yt-dlp", 0, ytdlp.WithExecutor(exec))
	_, err := client.Download(context.Background(), ytdlp.DownloadRequest{
		URL: "https://youtu.be/x", OutputTemplate: "o", Subtitles: &ytdlp.SubtitleOptions{Languages: "en"},
	})
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if got, _ := argValue(exec.args[0], "--sub-langs"); got != "en" {
		t.Fatalf("unexpected sub langs %q", got)
	}
	if hasArg(exec.args[0], "--write-auto-subs") {
		t.Fatal("explicit language should not request automatic captions")
	}
}

func TestDownloadSubtitlesArgs(t *testing.T) {
	exec := &stubExecutor{}
	client, _ := ytdlp.New("yt-dlp", 0, ytdlp.WithExecutor(exec))
	err := client.DownloadSubtitles(context.Background(), ytdlp.SubtitleRequest{
		URL:            "https://www.youtube.com/watch?v=abcdefghijk",
		OutputTemplate: "/out/%(id)s.%(ext)s",
		Identity:       ytdlp.Identity{PlayerClient: "ios", Referer: "https://www.youtube.com/"},
	})
	if err != nil {
		t.Fatalf("DownloadSubtitles: %v", err)
	}
	args := exec.args[0]
	for _, flag := range []string{"--skip-download", "--write-subs", "--write-auto-subs"} {
		if !hasArg(args, flag) {
			t.Fatalf("missing %s in %v", flag, args)
		}
	}
	if got, _ := argValue(args, "--sub-format"); got != "srt/best" {
		t.Fatalf("unexpected sub format %q", got)
	}
	if got, _ := argValue(args, "--referer"); got != "https://www.youtube.com/" {
		t.Fatalf("unexpected referer %q", got)
	}
	if hasArg(args, "--sub-langs") {
		t.Fatalf("no language requested, got %v", args)
	}
}

func TestDownloadSubtitlesLanguages(t *testing.T) {
	tests := map[string]string{
		"de":    "de",
		"en,de": "en,de",
		"auto":  "all",
	}
	for langs, want := range tests {
		exec := &stubExecutor{}
		client, _ := ytdlp.New("yt-dlp", 0, ytdlp.WithExecutor(exec))
		err := client.DownloadSubtitles(context.Background(), ytdlp.SubtitleRequest{
			URL:            "https://www.youtube.com/watch?v=abcdefghijk",
			OutputTemplate: "/out/%(id)s.%(ext)s",
			Languages:      langs,
		})
		if err != nil {
			t.Fatalf("DownloadSubtitles(%q): %v", langs, err)
		}
		if got, _ := argValue(exec.args[0], "--sub-langs"); got != want {
			t.Errorf("Languages %q: --sub-langs = %q, want %q", langs, got, want)
		}
	}
}

func TestMetadataParsesTracks(t *testing.T) {
	exec := &stubExecutor{stdout: `{"id":"abcdefghijk","title":"Demo","duration":12.5,
		"subtitles":{"en":[{"ext":"vtt","url":"https://example.com/en.vtt"}]},
		"automatic_captions":{"de":[{"ext":"srv3","url":"https://example.com/de"}]}}`}
	client, _ := ytdlp.New("yt-dlp", 0, ytdlp.WithExecutor(exec))

	meta, err := client.Metadata(context.Background(), "https://youtu.be/abcdefghijk", ytdlp.Identity{})
	if err != nil {
		t.Fatalf("Metadata: %v", err)
	}
	if meta.ID != "abcdefghijk" || meta.Title != "Demo" {
		t.Fatalf("unexpected metadata: %+v", meta)
	}
	if len(meta.Subtitles["en"]) != 1 || meta.Subtitles["en"][0].Ext != "vtt" {
		t.Fatalf("unexpected subtitles: %+v", meta.Subtitles)
	}
	if len(meta.AutomaticCaptions["de"]) != 1 {
		t.Fatalf("unexpected captions: %+v", meta.AutomaticCaptions)
	}
	if !hasArg(exec.args[0], "--ignore-no-formats-error") || !hasArg(exec.args[0], "--dump-single-json") {
		t.Fatalf("unexpected metadata args: %v", exec.args[0])
	}
}

func TestMetadataRejectsInvalidJSON(t *testing.T) {
	client, _ := ytdlp.New("yt-dlp", 0, ytdlp.WithExecutor(&stubExecutor{stdout: "nope"}))
	if _, err := client.Metadata(context.Background(), "https://youtu.be/x", ytdlp.Identity{}); err == nil {
		t.Fatal("expected JSON error")
	}
}

func TestCommandErrorClassification(t *testing.T) {
	tests := []struct {
		stderr string
		want   ytdlp.Kind
	}{
		{"ERROR: [youtube] abc: Sign in to confirm you're not a bot.", ytdlp.KindBotDetected},
		{"ERROR: [youtube] abc: Requested format is not available. Use --list-formats", ytdlp.KindFormatUnavailable},
		{"ERROR: Unable to download webpage: HTTP Error 429: Too Many Requests", ytdlp.KindRateLimited},
		{"ERROR: [youtube] abc: Video unavailable", ytdlp.KindOther},
	}
	for _, tc := range tests {
		client, _ := ytdlp.New("yt-dlp", 0, ytdlp.WithExecutor(&stubExecutor{stderr: tc.stderr, err: errors.New("exit status 1")}))
		err := client.DownloadSubtitles(context.Background(), ytdlp.SubtitleRequest{URL: "https://youtu.be/x"})
		if got := ytdlp.KindOf(err); got != tc.want {
			t.Errorf("stderr %q: got kind %v want %v", tc.stderr, got, tc.want)
		}
		if !strings.Contains(err.Error(), "ERROR:") {
			t.Errorf("expected stderr summary in %q", err.Error())
		}
	}
}

func TestIsTransient(t *testing.T) {
	bot := &ytdlp.CommandError{Kind: ytdlp.KindBotDetected, Err: errors.New("x")}
	if !ytdlp.IsTransient(bot) {
		t.Fatal("bot detection should be transient")
	}
	if ytdlp.IsTransient(errors.New("plain")) {
		t.Fatal("plain error should not be transient")
	}
}

func TestRunTimeoutIsClassified(t *testing.T) {
	exec := &stubExecutor{block: true}
	client, _ := ytdlp.New("yt-dlp", 0, ytdlp.WithExecutor(exec))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := client.DownloadSubtitles(ctx, ytdlp.SubtitleRequest{URL: "https://youtu.be/x"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("caller deadline should surface as context error, got %v", err)
	}
}
