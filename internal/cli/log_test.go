package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	kerrors "github.com/skillbreak/kiticon/pkg/errors"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name    string
		level   log.Level
		logFunc func(*log.Logger)
		wantLog bool
	}{
		{"info at info level", log.InfoLevel, func(l *log.Logger) { l.Info("rendered") }, true},
		{"debug at info level", log.InfoLevel, func(l *log.Logger) { l.Debug("cache lookup") }, false},
		{"debug at debug level", log.DebugLevel, func(l *log.Logger) { l.Debug("cache lookup") }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.logFunc(newLogger(&buf, tt.level))
			if got := buf.Len() > 0; got != tt.wantLog {
				t.Errorf("got log output = %v, want %v", got, tt.wantLog)
			}
		})
	}
}

func TestParseLogFormat(t *testing.T) {
	for _, name := range []string{"text", "JSON", "logfmt"} {
		if _, err := parseLogFormat(name); err != nil {
			t.Errorf("parseLogFormat(%q) error = %v", name, err)
		}
	}
	_, err := parseLogFormat("xml")
	if kerrors.GetCode(err) != kerrors.ErrCodeInvalidInput {
		t.Errorf("parseLogFormat(xml) error = %v, want INVALID_INPUT", err)
	}
}

func TestJSONLogFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, log.InfoLevel)
	f, err := parseLogFormat("json")
	if err != nil {
		t.Fatal(err)
	}
	logger.SetFormatter(f)
	logger.Info("rendered", "size", 512)

	var entry map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &entry); err != nil {
		t.Fatalf("output %q is not JSON: %v", buf.String(), err)
	}
	if entry["msg"] != "rendered" {
		t.Errorf("msg = %v", entry["msg"])
	}
}
