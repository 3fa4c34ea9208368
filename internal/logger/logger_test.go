package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, false, "json")
	l.Info("feed processed", "source", "CoinDesk")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", buf.String(), err)
	}
	if rec["msg"] != "feed processed" || rec["source"] != "CoinDesk" {
		t.Errorf("unexpected record %v", rec)
	}
}

func TestNew_DebugLevel(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, false, "text").Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug should be suppressed, got %q", buf.String())
	}

	New(&buf, true, "text").Debug("shown")
	if !strings.Contains(buf.String(), "msg=shown") {
		t.Errorf("debug should be logged, got %q", buf.String())
	}
}
