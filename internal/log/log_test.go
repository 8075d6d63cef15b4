package log

import (
	"bytes"
	"errors"
	"io"
	"os"
	"strings"
	"sync"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"", LevelInfo},
		{"Warning", LevelWarn},
		{"ERROR", LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseLevel(%q) = %q, %v", tt.in, got, err)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(LevelInfo)
	t.Cleanup(func() { SetLevel(LevelInfo) })

	Debug("hidden message")
	Info("shown message", "key", "value")
	Error("failure message", errors.New("boom"))

	out := buf.String()
	if strings.Contains(out, "hidden message") {
		t.Errorf("debug line written at info level:\n%s", out)
	}
	for _, want := range []string{"shown message", "key=value", "failure message", "boom"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	SetLevel(LevelDebug)
	Debug("now visible")
	if !strings.Contains(buf.String(), "now visible") {
		t.Errorf("debug line missing at debug level:\n%s", buf.String())
	}
}

func TestSetOutputWhileLogging(t *testing.T) {
	t.Cleanup(func() { SetOutput(os.Stderr) })

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				SetOutput(io.Discard)
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				Info("concurrent", "n", j)
				_ = Slog()
			}
		}()
	}
	wg.Wait()

	var buf bytes.Buffer
	SetOutput(&buf)
	Info("after swap")
	if !strings.Contains(buf.String(), "after swap") {
		t.Fatalf("output not redirected:\n%s", buf.String())
	}
}
