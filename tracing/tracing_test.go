package tracing

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestSpanWritesToFile(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "spans.txt")

	if err := Init("coresched", "test", fname); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	ctx, span := StartSpan(context.Background(), "run")
	span.WithAttributes(map[string]string{"policy": "round-robin"})
	EndSpan(span, nil)
	_ = ctx

	data, err := os.ReadFile(fname)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(data) == 0 {
		t.Fatalf("no span data written")
	}
}

func TestNilSpanIsSafe(t *testing.T) {
	var s *Span
	s.WithAttributes(map[string]string{"k": "v"})
	s.SetStatus(errors.New("boom"))
	EndSpan(s, nil)
}
