package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"INFO", slog.LevelInfo, false},
		{"debug", slog.LevelDebug, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestMultiHandler_FansOutByLevel(t *testing.T) {
	var infoBuf, errBuf bytes.Buffer
	h := NewMultiHandler(
		slog.NewTextHandler(&infoBuf, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewJSONHandler(&errBuf, &slog.HandlerOptions{Level: slog.LevelError}),
	)
	logger := slog.New(h).With("service", "test")

	logger.Info("cycle done", "candidates", 3)
	logger.Error("provider rejected")

	if !strings.Contains(infoBuf.String(), "cycle done") || !strings.Contains(infoBuf.String(), "provider rejected") {
		t.Errorf("info sink missing records: %q", infoBuf.String())
	}
	if strings.Contains(errBuf.String(), "cycle done") {
		t.Errorf("error sink got info record: %q", errBuf.String())
	}
	if !strings.Contains(errBuf.String(), `"service":"test"`) {
		t.Errorf("error sink missing attrs: %q", errBuf.String())
	}
	if h.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug should be disabled on both sinks")
	}
}

type failingHandler struct {
	slog.Handler
	err error
}

func (f failingHandler) Handle(context.Context, slog.Record) error { return f.err }

func TestMultiHandler_JoinsSinkErrors(t *testing.T) {
	errFile := errors.New("disk full")
	errPipe := errors.New("broken pipe")
	var buf bytes.Buffer
	text := slog.NewTextHandler(&buf, nil)
	h := NewMultiHandler(
		failingHandler{Handler: text, err: errFile},
		text,
		failingHandler{Handler: text, err: errPipe},
	)

	err := h.Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelInfo, "queued", 0))
	if !errors.Is(err, errFile) || !errors.Is(err, errPipe) {
		t.Errorf("Handle error = %v, want both sink errors", err)
	}
	if !strings.Contains(buf.String(), "queued") {
		t.Errorf("healthy sink skipped: %q", buf.String())
	}
}

func TestMultiHandler_GroupsAndEmptyDerivations(t *testing.T) {
	var a, b bytes.Buffer
	h := NewMultiHandler(slog.NewJSONHandler(&a, nil), slog.NewJSONHandler(&b, nil))

	if h.WithGroup("") != slog.Handler(h) || h.WithAttrs(nil) != slog.Handler(h) {
		t.Error("empty WithGroup/WithAttrs should return the handler unchanged")
	}

	slog.New(h.WithGroup("req")).Info("resolved", "user_id", 7)
	for name, buf := range map[string]*bytes.Buffer{"first": &a, "second": &b} {
		if !strings.Contains(buf.String(), `"req":{"user_id":7}`) {
			t.Errorf("%s sink = %q, want grouped attrs", name, buf.String())
		}
	}
}
