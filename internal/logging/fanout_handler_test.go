package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
)

func TestNewFanoutHandlerCollapses(t *testing.T) {
	if _, ok := newFanoutHandler(nil, nil).(NoopHandler); !ok {
		t.Fatal("expected NoopHandler when every child is nil")
	}
	var buf bytes.Buffer
	inner := slog.NewJSONHandler(&buf, nil)
	if h := newFanoutHandler(nil, inner, nil); h != inner {
		t.Fatal("expected single non-nil handler to be returned unwrapped")
	}
}

func TestFanoutHandlerRespectsChildLevels(t *testing.T) {
	var infoBuf, debugBuf bytes.Buffer
	info := slog.NewJSONHandler(&infoBuf, &slog.HandlerOptions{Level: slog.LevelInfo})
	debug := slog.NewJSONHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug})

	h := newFanoutHandler(info, debug)
	if !h.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("expected debug enabled through the debug child")
	}

	logger := slog.New(h)
	logger.Debug("debug only")
	if infoBuf.Len() != 0 {
		t.Fatal("info child must not receive debug records")
	}
	if debugBuf.Len() == 0 {
		t.Fatal("debug child should receive debug records")
	}

	logger.Info("both")
	if !bytes.Contains(infoBuf.Bytes(), []byte("both")) || !bytes.Contains(debugBuf.Bytes(), []byte("both")) {
		t.Fatal("expected info record in both children")
	}
}

func TestFanoutHandlerPropagatesAttrsAndGroups(t *testing.T) {
	var buf1, buf2 bytes.Buffer
	h := TeeHandler(slog.NewJSONHandler(&buf1, nil), slog.NewJSONHandler(&buf2, nil))

	logger := slog.New(h.WithAttrs([]slog.Attr{slog.String("run_id", "abc")}).WithGroup("lookup"))
	logger.Info("test", slog.String("provider", "tmdb"))

	for i, buf := range []*bytes.Buffer{&buf1, &buf2} {
		if !bytes.Contains(buf.Bytes(), []byte(`"run_id":"abc"`)) {
			t.Fatalf("child %d missing attr: %s", i, buf.String())
		}
		if !bytes.Contains(buf.Bytes(), []byte(`"lookup":{"provider":"tmdb"}`)) {
			t.Fatalf("child %d missing group: %s", i, buf.String())
		}
	}
}
