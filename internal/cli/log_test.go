package cli

import (
	"bytes"
	"regexp"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, LogInfo)

	logger.Info("signature saved", "slot", "a")

	line := buf.String()
	if !regexp.MustCompile(`^\d{2}:\d{2}:\d{2}\.\d{2} `).MatchString(line) {
		t.Errorf("line should start with a HH:MM:SS.ms timestamp: %q", line)
	}
	if !strings.Contains(line, "slot=a") {
		t.Errorf("line should carry key/value pairs: %q", line)
	}
}

func TestLoggerLevelFollowsConfig(t *testing.T) {
	tests := []struct {
		level     log.Level
		debug     bool
		info      bool
		warnShown bool
	}{
		{level: log.DebugLevel, debug: true, info: true, warnShown: true},
		{level: log.InfoLevel, debug: false, info: true, warnShown: true},
		{level: log.WarnLevel, debug: false, info: false, warnShown: true},
		{level: log.ErrorLevel, debug: false, info: false, warnShown: false},
	}

	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			var buf bytes.Buffer
			c := New(&buf, LogInfo)
			c.SetLogLevel(tt.level)

			c.Logger.Debug("opening store")
			c.Logger.Info("listening")
			c.Logger.Warn("persist failed")

			out := buf.String()
			if got := strings.Contains(out, "opening store"); got != tt.debug {
				t.Errorf("debug shown = %v, want %v", got, tt.debug)
			}
			if got := strings.Contains(out, "listening"); got != tt.info {
				t.Errorf("info shown = %v, want %v", got, tt.info)
			}
			if got := strings.Contains(out, "persist failed"); got != tt.warnShown {
				t.Errorf("warn shown = %v, want %v", got, tt.warnShown)
			}
		})
	}
}

func TestProgressDone(t *testing.T) {
	var buf bytes.Buffer
	prog := newProgress(newLogger(&buf, LogInfo))

	prog.done("Rendered contract")

	if !regexp.MustCompile(`Rendered contract \(\d+(\.\d+)?[µnm]?s\)`).MatchString(buf.String()) {
		t.Errorf("done should log the message with the elapsed time, got %q", buf.String())
	}
}

func TestProgressSilentAboveInfo(t *testing.T) {
	var buf bytes.Buffer
	newProgress(newLogger(&buf, log.WarnLevel)).done("Rendered contract")
	if buf.Len() != 0 {
		t.Errorf("progress should respect the level, got %q", buf.String())
	}
}
