package mediainfo

import (
	"context"
	"errors"
	"strings"
	"testing"

	"torrentify/internal/services"
)

const sampleReport = `General
Unique ID                                : 1234
Complete name                            : /films/Movie (2020)/Movie.2020.1080p.mkv
Format                                   : Matroska
Duration                                 : 1 h 52 min

Video
ID                                       : 1
Format                                   : AVC
Width                                    : 1 920 pixels

Audio
ID                                       : 2
Format                                   : AAC LC
`

type stubRunner struct {
	binary string
	args   []string
	out    []byte
	err    error
}

func (s *stubRunner) Run(_ context.Context, binary string, args ...string) ([]byte, error) {
	s.binary = binary
	s.args = args
	return s.out, s.err
}

func TestInspectRewritesCompleteName(t *testing.T) {
	runner := &stubRunner{out: []byte(sampleReport + "\n\n")}
	inspector := New("", runner)

	report, err := inspector.Inspect(context.Background(), "/films/Movie (2020)/Movie.2020.1080p.mkv")
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if runner.binary != "mediainfo" || len(runner.args) != 1 {
		t.Fatalf("unexpected invocation %s %v", runner.binary, runner.args)
	}
	if strings.Contains(report, "/films/") {
		t.Fatalf("report still contains host path:\n%s", report)
	}
	if !strings.Contains(report, "Complete name                            : Movie.2020.1080p.mkv") {
		t.Fatalf("complete name not rewritten:\n%s", report)
	}
	if strings.HasSuffix(report, "\n") {
		t.Fatal("trailing newlines should be trimmed")
	}
}

func TestInspectWrapsToolFailures(t *testing.T) {
	inspector := New("mediainfo", &stubRunner{err: errors.New("exit status 1")})
	_, err := inspector.Inspect(context.Background(), "/films/a.mkv")
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}

	inspector = New("mediainfo", &stubRunner{out: []byte("  \n")})
	if _, err := inspector.Inspect(context.Background(), "/films/a.mkv"); !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected empty report error, got %v", err)
	}

	inspector = New("mediainfo", &stubRunner{err: services.ErrTimeout})
	if _, err := inspector.Inspect(context.Background(), "/films/a.mkv"); !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
}
