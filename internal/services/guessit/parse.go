package guessit

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"torrentify/internal/textutil"
)

var (
	reYear = regexp.MustCompile(`(^|[\s._\-(\[])((?:19|20)[0-9]{2})([\s._\-)\]]|$)`)

	reEpisode = regexp.MustCompile(`(?i)(^|[\s._\-])(S[0-9]{1,2}(E[0-9]{1,3})?|[0-9]{1,2}x[0-9]{2,3}|Season[\s._\-]*[0-9]{1,2})([\s._\-]|$)`)

	reReleaseToken = regexp.MustCompile(`(?i)(^|[\s._\-\[(])(2160p|1080p|1080i|720p|576p|480p|4k|uhd|hdr|hdr10|dv|web[\s._\-]?dl|webrip|web|bluray|blu[\s._\-]?ray|brrip|bdrip|dvdrip|hdtv|remux|x264|x265|h264|h265|hevc|avc|aac|ac3|dts|truehd|atmos|flac|mp3|multi|vff|vfq|vf|vostfr|french|truefrench|proper|repack|internal|complete|integrale)([\s._\-\])]|$)`)

	reBracketed = regexp.MustCompile(`\[[^\]]*\]`)

	reTrackNumber = regexp.MustCompile(`^[0-9]{1,3}$`)

	reSeparators = regexp.MustCompile(`[._]+`)

	reSpaces = regexp.MustCompile(`\s+`)
)

// Parse derives a Guess from a file or folder name without external tools.
// Episode markers, release tokens and everything after them are dropped; a
// year found before them is kept. "Artist - Title" names populate Artist.
func Parse(path string) Guess {
	base := filepath.Base(path)
	if ext := filepath.Ext(base); ext != "" && len(ext) <= 5 {
		base = strings.TrimSuffix(base, ext)
	}
	name := reBracketed.ReplaceAllString(base, " ")

	cut := len(name)
	if loc := reEpisode.FindStringIndex(name); loc != nil && loc[0] < cut {
		cut = loc[0]
	}
	if loc := reReleaseToken.FindStringIndex(name); loc != nil && loc[0] < cut {
		cut = loc[0]
	}

	year := 0
	head := name[:cut]
	if m := reYear.FindAllStringSubmatchIndex(head, -1); len(m) > 0 {
		last := m[len(m)-1]
		candidate := head[last[4]:last[5]]
		// A leading year is part of the title ("2001 A Space Odyssey").
		if last[4] > 0 {
			year, _ = strconv.Atoi(candidate)
			head = head[:last[0]]
		}
	}

	title := cleanName(head)
	artist := ""
	if left, right, ok := strings.Cut(title, " - "); ok {
		l, r := strings.TrimSpace(left), strings.TrimSpace(right)
		switch {
		case l == "" || r == "":
		case reTrackNumber.MatchString(l):
			title = r
		default:
			artist, title = l, r
		}
	}
	if title == "" {
		title = cleanName(base)
	}
	if title == strings.ToLower(title) {
		title = textutil.TitleCase(title)
	}
	return Guess{Title: title, Artist: artist, Year: validYear(year), Source: SourceFallback}
}

func cleanName(s string) string {
	s = reSeparators.ReplaceAllString(s, " ")
	s = strings.NewReplacer("(", " ", ")", " ").Replace(s)
	s = reSpaces.ReplaceAllString(s, " ")
	return strings.Trim(s, " -")
}
