package main

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"io"
	"os"
	"path/filepath"
	"testing"

	"dvd/internal/frames"
	"dvd/internal/services"
	"dvd/internal/testsupport"
)

const testVideoURL = "https://www.youtube.com/watch?v=PQFQ-3d2J-8"

// scriptedYtDlp answers subtitle invocations by writing <id>.en.srt next to
// the -o template, or fails every call with stderr when set.
type scriptedYtDlp struct {
	stderr string
	calls  int
}

func (s *scriptedYtDlp) Run(_ context.Context, _ string, args []string) ([]byte, []byte, error) {
	s.calls++
	if s.stderr != "" {
		return nil, []byte(s.stderr), errors.New("exit status 1")
	}
	for i := 0; i+1 < len(args); i++ {
		if args[i] == "-o" {
			dir := filepath.Dir(args[i+1])
			body := "1\n00:00:01,000 --> 00:00:02,000\nhello\n\n2\n00:00:03,000 --> 00:00:04,000\nworld\n"
			if err := os.WriteFile(filepath.Join(dir, "PQFQ-3d2J-8.en.srt"), []byte(body), 0o644); err != nil {
				return nil, nil, err
			}
		}
	}
	return nil, nil, nil
}

type blankCapture struct {
	remaining int
}

func (c *blankCapture) FPS() float64 { return 4 }

func (c *blankCapture) Read() (image.Image, error) {
	if c.remaining == 0 {
		return nil, io.EOF
	}
	c.remaining--
	return image.NewRGBA(image.Rect(0, 0, 4, 4)), nil
}

func (c *blankCapture) Close() error { return nil }

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, env.cfg.Paths.DatabaseRoot)

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected init to refuse overwriting without --overwrite")
	}
}

func TestLoadLocalWithSubtitleJSON(t *testing.T) {
	env := setupCLITestEnv(t)
	src := t.TempDir()
	video := filepath.Join(src, "Field Trip.mp4")
	testsupport.WriteVideo(t, video, 4096)
	sub := filepath.Join(src, "field.srt")
	testsupport.WriteSRT(t, sub, "hi")

	out, _, err := runCLI(t, []string{"load", video, "--subtitle-source", sub, "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	var payload loadOutput
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("decode output %q: %v", out, err)
	}
	if payload.Video.VideoID != "Field_Trip" || payload.Bytes != 4096 {
		t.Fatalf("unexpected payload %+v", payload)
	}
	if payload.Subtitle == nil || payload.Subtitle.Cues != 1 || len(payload.Subtitle.Issues) != 0 {
		t.Fatalf("unexpected subtitle report %+v", payload.Subtitle)
	}
	wantVideo := filepath.Join(env.cfg.RawDir(), "Field_Trip.mp4")
	wantSub := filepath.Join(env.cfg.RawDir(), "Field_Trip.srt")
	if payload.Video.VideoPath != wantVideo || payload.Video.SubtitlePath != wantSub {
		t.Fatalf("unexpected paths %q %q", payload.Video.VideoPath, payload.Video.SubtitlePath)
	}
}

func TestLoadWithFrames(t *testing.T) {
	env := setupCLITestEnv(t)
	video := filepath.Join(t.TempDir(), "clip.mp4")
	testsupport.WriteVideo(t, video, 16)

	capture := &blankCapture{remaining: 8}
	opener := func(context.Context, string) (frames.Capture, error) { return capture, nil }
	out, _, err := runCLI(t, []string{"load", video, "--frames"}, env.configPath, withFrameOpener(opener))
	if err != nil {
		t.Fatalf("load --frames: %v", err)
	}
	requireContains(t, out, "Stored local video")
	requireContains(t, out, "2 frames saved")
	if _, err := os.Stat(filepath.Join(env.cfg.FramesDir("clip"), frames.FrameName(1))); err != nil {
		t.Fatalf("expected second frame: %v", err)
	}
}

func TestLoadRejectsNonYouTubeURL(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"load", "https://vimeo.com/12345"}, env.configPath)
	if err == nil {
		t.Fatal("expected error")
	}
	if code := exitCode(err); code != 2 {
		t.Fatalf("exit code = %d, want 2", code)
	}
	entries, _ := os.ReadDir(env.cfg.RawDir())
	if len(entries) != 0 {
		t.Fatalf("raw directory should stay empty, found %d entries", len(entries))
	}
}

func TestLoadMissingSidecarIsNotFound(t *testing.T) {
	env := setupCLITestEnv(t)
	video := filepath.Join(t.TempDir(), "clip.mp4")
	testsupport.WriteVideo(t, video, 16)

	_, _, err := runCLI(t, []string{"load", video, "--subtitle-source", filepath.Join(t.TempDir(), "none.srt")}, env.configPath)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if code := exitCode(err); code != 3 {
		t.Fatalf("exit code = %d, want 3", code)
	}
}

func TestSubtitleCommandDefaultOutput(t *testing.T) {
	env := setupCLITestEnv(t)
	stub := &scriptedYtDlp{}
	out, _, err := runCLI(t, []string{"subtitle", testVideoURL}, env.configPath, withYtDlp(stub))
	if err != nil {
		t.Fatalf("subtitle: %v", err)
	}
	target := filepath.Join(env.cfg.RawDir(), "PQFQ-3d2J-8.srt")
	requireContains(t, out, target)
	requireContains(t, out, "2 cues")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected subtitle at %s: %v", target, err)
	}
	if _, err := os.Stat(filepath.Join(env.cfg.RawDir(), "PQFQ-3d2J-8.en.srt")); !os.IsNotExist(err) {
		t.Fatal("language-tagged download should have been moved into place")
	}
}

func TestSubtitleCommandBotDetectionIsTransient(t *testing.T) {
	env := setupCLITestEnv(t)
	stub := &scriptedYtDlp{stderr: "ERROR: [youtube] PQFQ-3d2J-8: Sign in to confirm you're not a bot"}
	out := filepath.Join(t.TempDir(), "subs.srt")
	_, _, err := runCLI(t, []string{"subtitle", testVideoURL, "-o", out}, env.configPath, withYtDlp(stub))
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
	if code := exitCode(err); code != 4 {
		t.Fatalf("exit code = %d, want 4", code)
	}
	if stub.calls != env.cfg.YouTube.MaxRetries {
		t.Fatalf("expected %d attempts, got %d", env.cfg.YouTube.MaxRetries, stub.calls)
	}
}

func TestFramesCommandJSON(t *testing.T) {
	env := setupCLITestEnv(t)
	video := filepath.Join(t.TempDir(), "walk.mp4")
	testsupport.WriteVideo(t, video, 16)

	opener := func(context.Context, string) (frames.Capture, error) { return &blankCapture{remaining: 12}, nil }
	out, _, err := runCLI(t, []string{"frames", video, "--json"}, env.configPath, withFrameOpener(opener))
	if err != nil {
		t.Fatalf("frames: %v", err)
	}
	var result frames.Result
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if result.Interval != 4 || result.FramesRead != 12 || result.FramesSaved != 3 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestFramesCommandMissingVideo(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"frames", filepath.Join(t.TempDir(), "nope.mp4")}, env.configPath)
	if code := exitCode(err); code != 3 {
		t.Fatalf("exit code = %d, want 3 (err %v)", code, err)
	}
	data, readErr := os.ReadFile(filepath.Join(env.cfg.Paths.LogDir, "dvd.log"))
	if readErr != nil {
		t.Fatalf("read log: %v", readErr)
	}
	requireContains(t, string(data), "frames failed")
	requireContains(t, string(data), "event_type=command_failed")
	requireContains(t, string(data), "error_category=not_found")
}

func TestStatusJSON(t *testing.T) {
	env := setupCLITestEnv(t)
	_ = testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	out, _, err := runCLI(t, []string{"status", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	var status statusOutput
	if err := json.Unmarshal([]byte(out), &status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if status.ConfigPath != env.configPath || status.DatabaseRoot != env.cfg.Paths.DatabaseRoot {
		t.Fatalf("unexpected paths %+v", status)
	}
	if len(status.Dependencies) != 3 {
		t.Fatalf("expected 3 dependencies, got %d", len(status.Dependencies))
	}
	found := false
	for _, check := range status.Checks {
		if check.Name == "Database root" {
			found = true
			if !check.Passed {
				t.Fatalf("database root check failed: %s", check.Detail)
			}
		}
	}
	if !found {
		t.Fatal("expected database root check")
	}
}

func TestStatusHumanOutput(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "== Dependencies ==")
	requireContains(t, out, "yt-dlp")
	requireContains(t, out, "Database root:")
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{services.Wrap(services.ErrValidation, "load", "", "bad", nil), 2},
		{services.Wrap(services.ErrNotFound, "subtitle", "", "none", nil), 3},
		{services.Wrap(services.ErrTransient, "subtitle", "", "bot", nil), 4},
		{errors.New("boom"), 1},
		{context.Canceled, 130},
	}
	for _, tt := range tests {
		if got := exitCode(tt.err); got != tt.want {
			t.Errorf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
