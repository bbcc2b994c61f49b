// ABOUTME: Tests for the structured logger
// ABOUTME: Decodes JSON output to verify fields and levels

package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("Failed to decode log line %q: %v", line, err)
		}
		entries = append(entries, entry)
	}
	return entries
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"WARN":    zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"":        zerolog.InfoLevel,
		"bogus":   zerolog.InfoLevel,
		"off":     zerolog.Disabled,
		" trace ": zerolog.TraceLevel,
	}
	for name, want := range tests {
		if got := ParseLevel(name); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestServiceField(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(Config{Level: "info", Output: &buf})
	l.LogServerReady(50061)

	entries := decodeLines(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	if entries[0]["service"] != "postfilter" {
		t.Errorf("Expected service field, got %v", entries[0]["service"])
	}
	if entries[0]["event"] != "server_ready" {
		t.Errorf("Expected server_ready event, got %v", entries[0]["event"])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(Config{Level: "warn", Output: &buf})

	l.Info("hidden").Send()
	l.LogQuery(10, 2, time.Millisecond, nil)
	l.Warn("shown").Send()

	entries := decodeLines(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("Expected only the warning, got %d entries", len(entries))
	}
	if entries[0]["msg"] != "shown" {
		t.Errorf("Unexpected message %v", entries[0]["msg"])
	}
}

func TestLogGrpcRequestError(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(Config{Level: "info", Output: &buf})

	l.LogGrpcRequest("/postfilter.v1.PostFilter/Match", time.Millisecond, nil)
	l.LogGrpcRequest("/postfilter.v1.PostFilter/Match", time.Millisecond, errors.New("boom"))

	entries := decodeLines(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[0]["level"] != "info" || entries[1]["level"] != "error" {
		t.Errorf("Unexpected levels %v, %v", entries[0]["level"], entries[1]["level"])
	}
	if entries[1]["error"] != "boom" {
		t.Errorf("Expected error field, got %v", entries[1]["error"])
	}
	if entries[1]["method"] != "/postfilter.v1.PostFilter/Match" {
		t.Errorf("Expected method field, got %v", entries[1]["method"])
	}
}

func TestComponentLoggers(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(Config{Level: "debug", Output: &buf})

	l.EngineLogger("execute").Debug("batch").Send()
	l.GrpcLogger("Filter").WithFields(map[string]interface{}{"items": 3}).Info("call").Send()

	entries := decodeLines(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[0]["component"] != "engine" || entries[0]["operation"] != "execute" {
		t.Errorf("Unexpected engine fields %v", entries[0])
	}
	if entries[1]["component"] != "grpc" || entries[1]["items"] != float64(3) {
		t.Errorf("Unexpected grpc fields %v", entries[1])
	}
}

func TestGlobalLogger(t *testing.T) {
	var buf bytes.Buffer
	InitGlobalLogger(Config{Level: "info", Output: &buf})

	GetGlobalLogger().Info("global").Send()
	if !strings.Contains(buf.String(), `"msg":"global"`) {
		t.Errorf("Expected global logger to write to configured output, got %q", buf.String())
	}
}
