package ai

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"
)

// A nil Enricher is the "not configured" state — every operation must
// degrade to the empty result instead of panicking.
func TestNilEnricherDegrades(t *testing.T) {
	var e *Enricher
	ctx := context.Background()

	if got := e.DescribeMod(ctx, "Iron Chests"); got != "" {
		t.Errorf("DescribeMod() on nil enricher = %q, want empty", got)
	}
	if got := e.AnalyzeScreenshot(ctx, []byte{1, 2, 3}, "image/png"); got != "" {
		t.Errorf("AnalyzeScreenshot() on nil enricher = %q, want empty", got)
	}
	if got := e.SynthesizeSpeech(ctx, "hello"); got != "" {
		t.Errorf("SynthesizeSpeech() on nil enricher = %q, want empty", got)
	}
}

func TestNewEnricher_EmptyKeyDisables(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	e, err := NewEnricher(context.Background(), "", logger)
	if err != nil {
		t.Fatalf("NewEnricher() error = %v", err)
	}
	if e != nil {
		t.Error("NewEnricher() with empty key should return nil enricher")
	}
}

func TestAudioDataURL(t *testing.T) {
	got := audioDataURL([]byte("abc"))

	if !strings.HasPrefix(got, "data:audio/mp3;base64,") {
		t.Errorf("audioDataURL() = %q, want data:audio/mp3;base64, prefix", got)
	}
	if !strings.HasSuffix(got, "YWJj") { // base64("abc")
		t.Errorf("audioDataURL() = %q, want base64 payload YWJj", got)
	}
}
