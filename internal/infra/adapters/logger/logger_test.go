package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestFromContextFallsBackToDefault(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Fatal("expected a default logger")
	}
}

func TestWithLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	ctx := WithLogger(context.Background(), New(buf, false))
	l := FromContext(ctx)
	l.Debug("hidden")
	l.Info("Appended episode", "items", 3)
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug message written at info level: %q", out)
	}
	if !strings.Contains(out, "Appended episode") || !strings.Contains(out, "items=3") {
		t.Errorf("expected message with items=3, got: %q", out)
	}
}

func TestVerboseIncludesDebug(t *testing.T) {
	buf := &bytes.Buffer{}
	New(buf, true).Debug("probing audio")
	if !strings.Contains(buf.String(), "probing audio") {
		t.Errorf("expected debug message, got: %q", buf.String())
	}
}
