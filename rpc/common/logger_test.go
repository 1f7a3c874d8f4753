package common

import (
	"bytes"
	"github.com/lni/dragonboat/v4/logger"
	"os"
	"strings"
	"testing"
)

func TestLevelLogger(t *testing.T) {
	var buf bytes.Buffer
	SetLogOutput(&buf)
	defer SetLogOutput(os.Stderr)

	l := CreateLogger("bayes")
	l.SetLevel(logger.WARNING)

	l.Debugf("debug %d", 1)
	l.Infof("info %d", 2)
	if buf.Len() != 0 {
		t.Fatalf("Expected no output below the level, got %q", buf.String())
	}

	l.Warningf("trained %d words", 3)
	line := buf.String()
	for _, want := range []string{"WARN", "bayes", "trained 3 words"} {
		if !strings.Contains(line, want) {
			t.Errorf("log line %q does not contain %q", line, want)
		}
	}

	defer func() {
		if recover() == nil {
			t.Errorf("Expected Panicf to panic")
		}
	}()
	l.Panicf("broken %s", "state")
}

func TestValidLogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  bool
	}{
		{"debug", true},
		{"INFO", true},
		{"warn", true},
		{"warning", true},
		{"error", true},
		{"trace", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			if got := ValidLogLevel(tt.level); got != tt.want {
				t.Errorf("ValidLogLevel(%q) = %v, want %v", tt.level, got, tt.want)
			}
		})
	}
}

func TestInitLoggersRejectsInvalidLevel(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("Expected panic for invalid level")
		}
	}()
	InitLoggers("verbose")
}
