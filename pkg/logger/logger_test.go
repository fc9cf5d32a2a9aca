package logger

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestLoggerInit(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	if Get() == nil {
		t.Fatal("logger is nil after initialization")
	}
}

func TestLoggerInitWithNilWriter(t *testing.T) {
	if err := InitWithWriter(nil); err == nil {
		t.Fatal("expected error for nil writer")
	}
}

func TestLoggerWritesFields(t *testing.T) {
	var buf bytes.Buffer
	if err := InitWithWriter(&buf); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	ctx := context.Background()
	Get().Info(ctx, "run finished",
		String("handle", "tourist"),
		Int("recommendations", 5),
		Bool("notified", true),
		Duration("took", 2*time.Second),
		Error(errors.New("boom")),
	)

	out := buf.String()
	for _, want := range []string{"run finished", "handle=tourist", "recommendations=5", "notified=true", "took=2s", "error=boom", "source="} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got %q", want, out)
		}
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	if err := InitWithWriter(&buf); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer SetLevel(0)

	ctx := context.Background()
	Get().Debug(ctx, "hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug record should be filtered at info level, got %q", buf.String())
	}

	if err := SetLevelString("debug"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	Get().Debug(ctx, "visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Fatalf("debug record should be written at debug level, got %q", buf.String())
	}
}

func TestLoggerNamed(t *testing.T) {
	var buf bytes.Buffer
	if err := InitWithWriter(&buf); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	Named("scheduler").Info(context.Background(), "tick")
	if !strings.Contains(buf.String(), "component=scheduler") {
		t.Fatalf("expected component attribute, got %q", buf.String())
	}
}

func TestSetLevelString(t *testing.T) {
	for _, level := range []string{"debug", "info", "", "warn", "WARNING", " error "} {
		if err := SetLevelString(level); err != nil {
			t.Errorf("level %q: unexpected error %v", level, err)
		}
	}
	if err := SetLevelString("verbose"); err == nil {
		t.Error("expected error for unknown level")
	}
	_ = SetLevelString("info")
}

func TestDiscard(t *testing.T) {
	l := Discard()
	l.Info(context.Background(), "dropped")
	if l.Named("x") == nil {
		t.Fatal("named discard logger is nil")
	}
}
