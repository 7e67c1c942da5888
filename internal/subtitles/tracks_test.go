package subtitles

import (
	"testing"

	"dvd/internal/services/ytdlp"
)

func TestSelectTrackPrefersManualEnglishSRT(t *testing.T) {
	meta := &ytdlp.Metadata{
		Subtitles: map[string][]ytdlp.Track{
			"de":    {{Ext: "srt", URL: "https://x/de.srt"}},
			"en-GB": {{Ext: "json3", URL: "https://x/gb.json3"}, {Ext: "vtt", URL: "https://x/gb.vtt"}, {Ext: "srt", URL: "https://x/gb.srt"}},
		},
		AutomaticCaptions: map[string][]ytdlp.Track{
			"en": {{Ext: "srt", URL: "https://x/auto-en.srt"}},
		},
	}
	sel, ok := SelectTrack(meta, "en")
	if !ok {
		t.Fatal("expected a selection")
	}
	if sel.Automatic || sel.Language != "en-GB" || sel.Track.URL != "https://x/gb.srt" {
		t.Fatalf("unexpected selection: %+v", sel)
	}
}

func TestSelectTrackFallsBackToAutomaticAndVTT(t *testing.T) {
	meta := &ytdlp.Metadata{
		AutomaticCaptions: map[string][]ytdlp.Track{
			"en-orig": {{Ext: "json3", URL: "https://x/a.json3"}, {Ext: "vtt", URL: "https://x/a.vtt"}},
			"fr":      {{Ext: "vtt", URL: "https://x/fr.vtt"}},
		},
	}
	sel, ok := SelectTrack(meta, "en")
	if !ok {
		t.Fatal("expected a selection")
	}
	if !sel.Automatic || sel.Language != "en-orig" || sel.Track.Ext != "vtt" {
		t.Fatalf("unexpected selection: %+v", sel)
	}
}

func TestSelectTrackFirstSortedLanguageWithoutEnglish(t *testing.T) {
	meta := &ytdlp.Metadata{
		Subtitles: map[string][]ytdlp.Track{
			"ja": {{Ext: "srv3", URL: "https://x/ja"}},
			"es": {{Ext: "ttml", URL: "https://x/es"}, {Ext: "srv1", URL: "https://x/es1"}},
		},
	}
	sel, ok := SelectTrack(meta, "en")
	if !ok {
		t.Fatal("expected a selection")
	}
	if sel.Language != "es" || sel.Track.Ext != "ttml" {
		t.Fatalf("expected first sorted language and first entry, got %+v", sel)
	}
}

func TestSelectTrackExactLanguageWins(t *testing.T) {
	meta := &ytdlp.Metadata{
		Subtitles: map[string][]ytdlp.Track{
			"en-GB": {{Ext: "vtt", URL: "https://x/gb"}},
			"en-US": {{Ext: "vtt", URL: "https://x/us"}},
		},
	}
	sel, _ := SelectTrack(meta, "en-US")
	if sel.Language != "en-US" {
		t.Fatalf("expected exact match, got %+v", sel)
	}
}

func TestSelectTrackNothingUsable(t *testing.T) {
	meta := &ytdlp.Metadata{Subtitles: map[string][]ytdlp.Track{"en": {{Ext: "vtt"}}}}
	if _, ok := SelectTrack(meta, "en"); ok {
		t.Fatal("tracks without URLs should be ignored")
	}
	if _, ok := SelectTrack(nil, "en"); ok {
		t.Fatal("nil metadata should yield no selection")
	}
}

func TestLanguageBase(t *testing.T) {
	tests := map[string]string{
		"en":      "en",
		"en-US":   "en",
		"en-orig": "en",
		"pt_BR":   "pt",
		"zh-Hans": "zh",
		"":        "",
	}
	for in, want := range tests {
		if got := languageBase(in); got != want {
			t.Errorf("languageBase(%q) = %q, want %q", in, got, want)
		}
	}
}
