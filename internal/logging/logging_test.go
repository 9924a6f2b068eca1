package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"DEBUG", LevelDebug},
		{"info", LevelInfo},
		{"warning", LevelWarn},
		{" Warn ", LevelWarn},
		{"error", LevelError},
		{"bogus", LevelInfo},
		{"", LevelInfo},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			if got := ParseLevel(tc.in); got != tc.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := New(LevelWarn)
	l.SetOutput(&buf)

	l.Debug("hidden %d", 1)
	l.Info("hidden %d", 2)
	l.Warn("shown %d", 3)
	l.Error("shown %d", 4)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("output contains filtered messages: %q", out)
	}
	if !strings.Contains(out, "[WARN] shown 3") || !strings.Contains(out, "[ERROR] shown 4") {
		t.Errorf("output missing messages: %q", out)
	}
}

func TestLogger_Component(t *testing.T) {
	var buf bytes.Buffer
	l := New(LevelDebug)
	l.SetOutput(&buf)

	child := l.Component("visibility").Component("cache")
	child.Info("miss for %s", "k1")

	if !strings.Contains(buf.String(), "[INFO] visibility.cache: miss for k1") {
		t.Errorf("unexpected line: %q", buf.String())
	}

	// Children share the parent's level.
	buf.Reset()
	l.SetLevel(LevelError)
	child.Warn("dropped")
	if buf.Len() != 0 {
		t.Errorf("child ignored parent level: %q", buf.String())
	}
	if child.Enabled(LevelWarn) {
		t.Error("Enabled(LevelWarn) = true after SetLevel(LevelError)")
	}
}

func TestLogger_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	l := New(LevelInfo)
	l.SetOutput(&buf)
	l.SetFormat(FormatJSON)
	l.sink.now = func() time.Time { return time.Date(2020, 7, 10, 9, 0, 0, 0, time.UTC) }

	l.Component("api").Info("GET %s", "/healthz")

	var got jsonLine
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON line %q: %v", buf.String(), err)
	}
	if got.Level != "INFO" || got.Component != "api" || got.Msg != "GET /healthz" {
		t.Errorf("got %+v", got)
	}
	if got.Time != "2020-07-10T09:00:00Z" {
		t.Errorf("Time = %q", got.Time)
	}
}

func TestDiscard(t *testing.T) {
	l := Discard()
	l.Error("nothing")
	l.Component("x").Error("nothing")
	if l.Enabled(LevelError) {
		t.Error("Discard logger should not be enabled for any level")
	}
}
