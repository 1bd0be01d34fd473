package textutil

import (
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// fileNameReplacer replaces filesystem-unsafe characters with safe alternatives.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeFileName replaces filesystem-unsafe characters in a filename.
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	return strings.TrimSpace(fileNameReplacer.Replace(name))
}

// ReleaseName derives the release name from a source path: the base name,
// without extension when isFile, with every space replaced by a dot.
func ReleaseName(path string, isFile bool) string {
	base := filepath.Base(path)
	if isFile {
		base = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return strings.ReplaceAll(base, " ", ".")
}

// CacheKey joins parts with "_", maps spaces to dots, neutralizes path
// separators, and lowercases the result.
func CacheKey(parts ...string) string {
	joined := strings.Join(parts, "_")
	joined = strings.ReplaceAll(joined, " ", ".")
	joined = SanitizeFileName(joined)
	return strings.ToLower(joined)
}

// FoldAccents removes combining marks after canonical decomposition, so
// "Amélie" becomes "Amelie".
func FoldAccents(value string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, value)
	if err != nil {
		return value
	}
	return folded
}

// CleanQuery folds accents, keeps ASCII letters, digits, and spaces, and
// collapses whitespace.
func CleanQuery(value string) string {
	folded := FoldAccents(value)
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

var titleCaser = cases.Title(language.Und)

// TitleCase converts dotted or underscored filename fragments into a
// human-readable title ("the.movie_one" -> "The Movie One").
func TitleCase(value string) string {
	value = strings.NewReplacer(".", " ", "_", " ").Replace(value)
	value = strings.Join(strings.Fields(value), " ")
	if value == "" {
		return ""
	}
	return titleCaser.String(strings.ToLower(value))
}
