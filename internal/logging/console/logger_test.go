package console_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-storefront/internal/logging"
	"github.com/goliatone/go-storefront/internal/logging/console"
)

func fixedClock() time.Time {
	return time.Date(2024, 3, 14, 15, 9, 26, 535897000, time.UTC)
}

func TestConsoleLogger_WritesStructuredEntry(t *testing.T) {
	var buf bytes.Buffer
	provider := console.NewProvider(console.WithWriter(&buf), console.WithClock(fixedClock))

	logger := provider.GetLogger("storefront.render")
	logger = logging.WithFields(logger, map[string]any{"module": "storefront.render"})
	ctx := logging.ContextWithFields(context.Background(), map[string]any{
		"request_id": "req-1234",
	})
	logger = logger.WithContext(ctx)

	logger.Warn("section.source_missing",
		"section_id", "main-product",
		"section_type", "product details",
	)

	got := strings.TrimSpace(buf.String())
	want := `2024-03-14T15:09:26.535897Z WARN section.source_missing logger=storefront.render module=storefront.render request_id=req-1234 section_id=main-product section_type="product details"`
	if got != want {
		t.Fatalf("unexpected log entry\nwant: %s\ngot:  %s", want, got)
	}
}

func TestConsoleLogger_FormatsValues(t *testing.T) {
	var buf bytes.Buffer
	provider := console.NewProvider(console.WithWriter(&buf), console.WithClock(fixedClock))

	provider.GetLogger("storefront").Info("render.page.complete",
		"duration", 1500*time.Millisecond,
		"error", errors.New("bad input"),
		"missing", nil,
		"ok", true,
		"ratio", 0.5,
		"dangling",
	)

	got := strings.TrimSpace(buf.String())
	for _, part := range []string{
		"arg_5=dangling",
		"duration=1.5s",
		`error="bad input"`,
		"missing=null",
		"ok=true",
		"ratio=0.5",
	} {
		if !strings.Contains(got, part) {
			t.Fatalf("expected %q in %s", part, got)
		}
	}
}

func TestConsoleLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	provider := console.NewProvider(console.WithWriter(&buf), console.WithLevel(console.LevelInfo))

	logger := provider.GetLogger("storefront.test")
	logger.Debug("ignored.debug", "foo", "bar")
	logger.Info("included.info", "foo", "bar")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected single log line, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "included.info") {
		t.Fatalf("expected info log to be written, got %s", lines[0])
	}
}

func TestConsoleLogger_FocusKeepsErrors(t *testing.T) {
	var buf bytes.Buffer
	provider := console.NewProvider(console.WithWriter(&buf), console.WithFocus("storefront.render", " "))

	provider.GetLogger("storefront.render.section").Info("focused.nested")
	provider.GetLogger("storefront.http").Info("unfocused.info")
	provider.GetLogger("storefront.http").Error("unfocused.error")

	out := buf.String()
	if !strings.Contains(out, "focused.nested") {
		t.Fatalf("expected nested module to be written, got %s", out)
	}
	if strings.Contains(out, "unfocused.info") {
		t.Fatalf("expected unfocused info to be dropped, got %s", out)
	}
	if !strings.Contains(out, "unfocused.error") {
		t.Fatalf("expected errors to bypass focus, got %s", out)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]console.Level{
		"trace":   console.LevelTrace,
		"DEBUG":   console.LevelDebug,
		" warn ":  console.LevelWarn,
		"warning": console.LevelWarn,
		"error":   console.LevelError,
	}
	for input, want := range cases {
		got, ok := console.ParseLevel(input)
		if !ok || got != want {
			t.Fatalf("ParseLevel(%q) = %v,%v want %v", input, got, ok, want)
		}
	}
	if _, ok := console.ParseLevel("loud"); ok {
		t.Fatalf("expected unknown level to report false")
	}
}
