package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]log.Level{
		"debug":   log.DebugLevel,
		"INFO":    log.InfoLevel,
		"warning": log.WarnLevel,
		"error":   log.ErrorLevel,
		"":        log.InfoLevel,
		"chatty":  log.InfoLevel,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewHonorsLevelAndFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, Options{Level: "warn", Format: "json"})

	logger.Info("hidden")
	logger.Warn("shown", "id", "t1")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("expected info to be filtered, got %s", out)
	}
	if !strings.Contains(out, `"msg":"shown"`) || !strings.Contains(out, `"id":"t1"`) {
		t.Fatalf("expected JSON record with fields, got %s", out)
	}
}

func TestOpenWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "taskboard.log")
	logger, closer, err := Open(Options{Level: "info", Format: "logfmt", File: path})
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	logger.Info("task created", "id", "t1")
	if err := closer.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log failed: %v", err)
	}
	if !strings.Contains(string(data), "id=t1") {
		t.Fatalf("expected logfmt record, got %s", data)
	}
}

func TestOpenWithoutFileDiscards(t *testing.T) {
	logger, closer, err := Open(Options{})
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	logger.Info("nowhere")
	if err := closer.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
}
