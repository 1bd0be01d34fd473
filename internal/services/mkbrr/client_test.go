package mkbrr

import (
	"context"
	"errors"
	"strings"
	"testing"

	"torrentify/internal/services"
)

type stubRunner struct {
	binary string
	args   []string
	err    error
}

func (s *stubRunner) Run(_ context.Context, binary string, args ...string) ([]byte, error) {
	s.binary = binary
	s.args = append([]string(nil), args...)
	return nil, s.err
}

func TestCreateBuildsPrivatePackageArgs(t *testing.T) {
	runner := &stubRunner{}
	client := New("", runner)
	err := client.Create(context.Background(), "/films/Movie.mkv", "/out/Movie/.Movie.partial.torrent",
		[]string{"https://t1/announce", " ", "https://t2/announce"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	want := "create /films/Movie.mkv --output /out/Movie/.Movie.partial.torrent --private --tracker https://t1/announce --tracker https://t2/announce"
	if runner.binary != "mkbrr" || strings.Join(runner.args, " ") != want {
		t.Fatalf("unexpected invocation %s %v", runner.binary, runner.args)
	}
}

func TestCreatePublicPackage(t *testing.T) {
	runner := &stubRunner{}
	client := New("/usr/local/bin/mkbrr", runner, WithPrivate(false))
	if err := client.Create(context.Background(), "/src", "/out.torrent", []string{"udp://t/announce"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	for _, arg := range runner.args {
		if arg == "--private" {
			t.Fatal("private flag should be omitted")
		}
	}
	if runner.binary != "/usr/local/bin/mkbrr" {
		t.Fatalf("binary = %s", runner.binary)
	}
}

func TestUpdateRewritesInPlace(t *testing.T) {
	runner := &stubRunner{}
	client := New("mkbrr", runner)
	if err := client.Update(context.Background(), "/out/films/A/A.torrent", []string{"https://new/announce"}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	want := "modify /out/films/A/A.torrent --tracker https://new/announce --output /out/films/A/A"
	if strings.Join(runner.args, " ") != want {
		t.Fatalf("args = %v", runner.args)
	}
}

func TestClientErrors(t *testing.T) {
	client := New("mkbrr", &stubRunner{err: errors.New("exit status 1")})
	err := client.Create(context.Background(), "/src", "/out.torrent", []string{"https://t/announce"})
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	if err := client.Update(context.Background(), "/a.torrent", nil); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if err := client.Create(context.Background(), "", "/out.torrent", []string{"x"}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	client = New("mkbrr", &stubRunner{err: services.ErrTimeout})
	if err := client.Update(context.Background(), "/a.torrent", []string{"https://t/announce"}); !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
}
