package subtitles

import (
	"sort"
	"strings"

	"golang.org/x/text/language"

	"dvd/internal/services/ytdlp"
)

// Selection is the subtitle track chosen for a direct download.
type Selection struct {
	Language  string
	Track     ytdlp.Track
	Automatic bool
}

// SelectTrack picks a track from yt-dlp metadata. Manual subtitles win over
// automatic captions. Within each group a language whose base matches
// preferred is used, else the first language in sorted order. Within a
// language srt beats vtt, otherwise the first listed rendition is used.
func SelectTrack(meta *ytdlp.Metadata, preferred string) (Selection, bool) {
	if meta == nil {
		return Selection{}, false
	}
	want := languageBase(preferred)
	if want == "" {
		want = "en"
	}
	groups := []struct {
		tracks    map[string][]ytdlp.Track
		automatic bool
	}{
		{meta.Subtitles, false},
		{meta.AutomaticCaptions, true},
	}
	for _, group := range groups {
		lang, ok := pickLanguage(group.tracks, want, preferred)
		if !ok {
			continue
		}
		track, ok := pickFormat(group.tracks[lang])
		if !ok {
			continue
		}
		return Selection{Language: lang, Track: track, Automatic: group.automatic}, true
	}
	return Selection{}, false
}

func pickLanguage(tracks map[string][]ytdlp.Track, want, exact string) (string, bool) {
	langs := make([]string, 0, len(tracks))
	for lang, list := range tracks {
		if len(usable(list)) > 0 {
			langs = append(langs, lang)
		}
	}
	if len(langs) == 0 {
		return "", false
	}
	sort.Strings(langs)

	for _, lang := range langs {
		if strings.EqualFold(lang, exact) {
			return lang, true
		}
	}
	for _, lang := range langs {
		if languageBase(lang) == want {
			return lang, true
		}
	}
	return langs[0], true
}

func pickFormat(list []ytdlp.Track) (ytdlp.Track, bool) {
	list = usable(list)
	if len(list) == 0 {
		return ytdlp.Track{}, false
	}
	for _, ext := range []string{"srt", "vtt"} {
		for _, track := range list {
			if strings.EqualFold(track.Ext, ext) {
				return track, true
			}
		}
	}
	return list[0], true
}

func usable(list []ytdlp.Track) []ytdlp.Track {
	out := make([]ytdlp.Track, 0, len(list))
	for _, track := range list {
		if strings.TrimSpace(track.URL) != "" {
			out = append(out, track)
		}
	}
	return out
}

// languageBase returns the ISO 639 base of a YouTube language key. Keys that
// are not valid BCP 47 ("en-orig") fall back to their first subtag.
func languageBase(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}
	if tag, err := language.Parse(code); err == nil {
		if base, conf := tag.Base(); conf != language.No {
			return base.String()
		}
	}
	head, _, _ := strings.Cut(strings.ReplaceAll(code, "_", "-"), "-")
	return strings.ToLower(head)
}
