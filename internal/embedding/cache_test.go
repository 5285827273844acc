package embedding

import (
	"context"
	"errors"
	"testing"
)

type countingEmbedder struct {
	calls int
	fail  bool
}

func (e *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.calls++
	if e.fail {
		return nil, errors.New("model unreachable")
	}
	return []float32{float32(len(text)), 0, 0, 0}, nil
}

func (e *countingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		vec, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out = append(out, vec)
	}
	return out, nil
}

func TestCachedEmbedderMemoizes(t *testing.T) {
	ctx := context.Background()
	inner := &countingEmbedder{}
	cached, err := NewCachedEmbedder(inner, 128)
	if err != nil {
		t.Fatalf("NewCachedEmbedder: %v", err)
	}

	first, err := cached.Embed(ctx, "hello world")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	cached.Wait()

	second, err := cached.Embed(ctx, "hello world")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("expected 1 model call for a repeated text, got %d", inner.calls)
	}
	if len(first) != len(second) || first[0] != second[0] {
		t.Errorf("cached vector differs: %v vs %v", first, second)
	}

	if _, err := cached.Embed(ctx, "different text"); err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if inner.calls != 2 {
		t.Errorf("expected a model call for a new text, got %d calls", inner.calls)
	}
}

func TestCachedEmbedderDoesNotCacheFailures(t *testing.T) {
	ctx := context.Background()
	inner := &countingEmbedder{fail: true}
	cached, err := NewCachedEmbedder(inner, 128)
	if err != nil {
		t.Fatalf("NewCachedEmbedder: %v", err)
	}

	if _, err := cached.Embed(ctx, "hello"); err == nil {
		t.Fatal("expected error from failing model")
	}
	cached.Wait()

	inner.fail = false
	if _, err := cached.Embed(ctx, "hello"); err != nil {
		t.Fatalf("Embed after recovery: %v", err)
	}
	if inner.calls != 2 {
		t.Errorf("expected the failed call not to be cached, got %d calls", inner.calls)
	}
}
