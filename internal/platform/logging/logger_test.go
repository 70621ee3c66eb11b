package logging

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	jsoniter "github.com/json-iterator/go"
)

func TestLogger_WritesKeyValueFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONWriter(&buf, LevelInfo).Named("collector")

	logger.InfoContext(context.Background(), "fixture saved", "fixture_id", int64(1035037), "teams", 2)
	logger.Debug("hidden below level")
	logger.Error("save failed", "error", errors.New("boom"), "dangling")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got=%d: %s", len(lines), buf.String())
	}

	var first map[string]any
	if err := jsoniter.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("decode first line: %v", err)
	}
	if first["msg"] != "fixture saved" || first["logger"] != "collector" {
		t.Fatalf("unexpected first line: %v", first)
	}
	if got, _ := first["fixture_id"].(float64); got != 1035037 {
		t.Fatalf("unexpected fixture_id: %v", first["fixture_id"])
	}
	if _, ok := first["trace_id"]; ok {
		t.Fatalf("did not expect trace_id without a span")
	}

	var second map[string]any
	if err := jsoniter.Unmarshal([]byte(lines[1]), &second); err != nil {
		t.Fatalf("decode second line: %v", err)
	}
	if second["error"] != "boom" {
		t.Fatalf("expected error field, got %v", second["error"])
	}
	if _, ok := second["dangling"]; !ok {
		t.Fatalf("expected dangling key to be kept with a nil value")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		" WARN ":  LevelWarn,
		"warning": LevelWarn,
		"error":   LevelError,
		"":        LevelInfo,
		"verbose": LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q)=%s want=%s", in, got, want)
		}
	}
}
