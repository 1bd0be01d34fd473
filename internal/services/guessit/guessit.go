package guessit

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"

	"torrentify/internal/logging"
	"torrentify/internal/services"
)

// Source values reported in Guess.Source.
const (
	SourceGuessit  = "guessit"
	SourceFallback = "fallback"
)

const script = `import json, sys
from guessit import guessit
f = guessit(sys.argv[1])
print(json.dumps({"title": f.get("title", ""), "artist": f.get("artist", ""), "year": f.get("year", "")}, default=str))
`

// Guess holds the fields extracted from a file name. Year is zero when unknown.
type Guess struct {
	Title  string
	Artist string
	Year   int
	Source string
}

// Guesser runs guessit through python.
type Guesser struct {
	python  string
	enabled bool
	runner  services.CommandRunner
	logger  *slog.Logger
}

// New returns a Guesser. When enabled is false only the built-in parser is used.
func New(python string, enabled bool, runner services.CommandRunner, logger *slog.Logger) *Guesser {
	python = strings.TrimSpace(python)
	if python == "" {
		python = "python3"
	}
	return &Guesser{
		python:  python,
		enabled: enabled && runner != nil,
		runner:  runner,
		logger:  logging.NewComponentLogger(logger, "guessit"),
	}
}

// Guess never fails: tool errors fall back to Parse.
func (g *Guesser) Guess(ctx context.Context, path string) Guess {
	if g == nil || !g.enabled {
		return Parse(path)
	}
	out, err := g.runner.Run(ctx, g.python, "-c", script, path)
	if err != nil {
		logging.WithContext(ctx, g.logger).Debug("guessit unavailable, using file name parser",
			logging.String("path", path),
			logging.Error(err))
		return Parse(path)
	}
	guess, ok := decode(out)
	if !ok {
		return Parse(path)
	}
	return guess
}

type payload struct {
	Title  json.RawMessage `json:"title"`
	Artist json.RawMessage `json:"artist"`
	Year   json.RawMessage `json:"year"`
}

func decode(out []byte) (Guess, bool) {
	var p payload
	if err := json.Unmarshal(out, &p); err != nil {
		return Guess{}, false
	}
	guess := Guess{
		Title:  rawString(p.Title),
		Artist: rawString(p.Artist),
		Year:   rawYear(p.Year),
		Source: SourceGuessit,
	}
	if guess.Title == "" {
		return Guess{}, false
	}
	return guess, true
}

// rawString accepts a JSON string or a list of strings (guessit returns lists
// when it finds several candidates) and returns the first value.
func rawString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		return strings.TrimSpace(list[0])
	}
	return ""
}

func rawYear(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return validYear(n)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		n, _ = strconv.Atoi(strings.TrimSpace(s))
		return validYear(n)
	}
	return 0
}

func validYear(n int) int {
	if n < 1888 || n > 2199 {
		return 0
	}
	return n
}
