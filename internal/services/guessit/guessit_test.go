package guessit

import (
	"context"
	"errors"
	"testing"
)

type stubRunner struct {
	out  []byte
	err  error
	args []string
}

func (s *stubRunner) Run(_ context.Context, _ string, args ...string) ([]byte, error) {
	s.args = args
	return s.out, s.err
}

func TestGuessUsesGuessitOutput(t *testing.T) {
	runner := &stubRunner{out: []byte(`{"title": "Le Fabuleux Destin", "artist": "", "year": 2001}` + "\n")}
	g := New("", true, runner, nil)

	got := g.Guess(context.Background(), "/films/Le.Fabuleux.Destin.2001.mkv")
	if got.Title != "Le Fabuleux Destin" || got.Year != 2001 || got.Source != SourceGuessit {
		t.Fatalf("unexpected guess %+v", got)
	}
	if len(runner.args) != 3 || runner.args[0] != "-c" || runner.args[2] != "/films/Le.Fabuleux.Destin.2001.mkv" {
		t.Fatalf("path must be passed as an argument, got %v", runner.args)
	}
}

func TestGuessAcceptsListsAndStringYears(t *testing.T) {
	runner := &stubRunner{out: []byte(`{"title": ["Dune", "Part Two"], "artist": "", "year": "2024"}`)}
	got := New("python3", true, runner, nil).Guess(context.Background(), "Dune.mkv")
	if got.Title != "Dune" || got.Year != 2024 {
		t.Fatalf("unexpected guess %+v", got)
	}
}

func TestGuessFallsBackOnFailure(t *testing.T) {
	cases := map[string]*stubRunner{
		"tool error":  {err: errors.New("No module named guessit")},
		"bad json":    {out: []byte("Traceback")},
		"empty title": {out: []byte(`{"title": "", "year": ""}`)},
	}
	for name, runner := range cases {
		t.Run(name, func(t *testing.T) {
			got := New("python3", true, runner, nil).Guess(context.Background(), "/films/The.Matrix.1999.1080p.mkv")
			if got.Source != SourceFallback || got.Title != "The Matrix" || got.Year != 1999 {
				t.Fatalf("unexpected fallback %+v", got)
			}
		})
	}
}

func TestDisabledGuesserNeverRunsTool(t *testing.T) {
	runner := &stubRunner{out: []byte(`{"title": "x"}`)}
	got := New("python3", false, runner, nil).Guess(context.Background(), "Movie.2020.mkv")
	if runner.args != nil {
		t.Fatal("runner should not be invoked")
	}
	if got.Title != "Movie" || got.Year != 2020 {
		t.Fatalf("unexpected guess %+v", got)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		path   string
		title  string
		artist string
		year   int
	}{
		{"/films/The.Matrix.1999.1080p.BluRay.x264.mkv", "The Matrix", "", 1999},
		{"the.matrix.1999.mkv", "The Matrix", "", 1999},
		{"/series/Show.Name.S01E02.720p.WEB.mkv", "Show Name", "", 0},
		{"/series/Show Name Season 2", "Show Name", "", 0},
		{"2001.A.Space.Odyssey.1968.mkv", "2001 A Space Odyssey", "", 1968},
		{"2012.mkv", "2012", "", 0},
		{"/musiques/Daft Punk - Discovery (2001)", "Discovery", "Daft Punk", 2001},
		{"/musiques/Album/01 - One More Time.flac", "One More Time", "", 0},
		{"[Group] Amelie (2001) [1080p].mkv", "Amelie", "", 2001},
	}
	for _, tt := range tests {
		got := Parse(tt.path)
		if got.Title != tt.title || got.Artist != tt.artist || got.Year != tt.year {
			t.Errorf("Parse(%q) = %+v, want title=%q artist=%q year=%d", tt.path, got, tt.title, tt.artist, tt.year)
		}
	}
}
