package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

// SetupがJSON形式でログを出力することを検証
func TestSetup_OutputsJSON(t *testing.T) {
	var buf bytes.Buffer
	l := Setup(&buf, "info")

	l.Info("test message", slog.String("key", "value"))

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}

	if entry["msg"] != "test message" {
		t.Errorf("msg = %v, want %q", entry["msg"], "test message")
	}
	if entry["key"] != "value" {
		t.Errorf("key = %v, want %q", entry["key"], "value")
	}
}

// debugレベル指定時にDebugログが出力されることを検証
func TestSetup_DebugLevel(t *testing.T) {
	var buf bytes.Buffer
	l := Setup(&buf, "debug")

	l.Debug("debug message")

	if buf.Len() == 0 {
		t.Error("expected debug log output, got none")
	}
}

// デフォルト（info）レベルでDebugログが抑制されることを検証
func TestSetup_DefaultSuppressesDebug(t *testing.T) {
	var buf bytes.Buffer
	l := Setup(&buf, "")

	l.Debug("debug message")

	if buf.Len() != 0 {
		t.Errorf("expected no debug output at info level, got %q", buf.String())
	}
}

// 不明なレベル文字列がinfoとして扱われることを検証
func TestParseLevel_UnknownFallsBackToInfo(t *testing.T) {
	if got := parseLevel("verbose"); got != slog.LevelInfo {
		t.Errorf("parseLevel(verbose) = %v, want info", got)
	}
	if got := parseLevel("ERROR"); got != slog.LevelError {
		t.Errorf("parseLevel(ERROR) = %v, want error", got)
	}
}
