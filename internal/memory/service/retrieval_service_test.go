package service

import (
	"context"
	"strings"
	"testing"

	"Sarah_AI/internal/memory/store"
	"Sarah_AI/internal/models"
	"Sarah_AI/pkg/logger"
)

func newTestRetrievalService(facts store.FactStore, vectors store.VectorStore, emb *stubEmbedder) *RetrievalService {
	return NewRetrievalService(facts, vectors, emb, logger.New("retrieval_test"))
}

func seedFact(t *testing.T, facts store.FactStore, key, value string) {
	t.Helper()
	err := facts.UpsertFact(context.Background(), &models.KeyFact{
		UserID: "u1", CharacterID: "c1",
		FactType: models.FactTypePreference,
		FactKey:  key, FactValue: value,
	})
	if err != nil {
		t.Fatalf("UpsertFact(%s): %v", key, err)
	}
}

func TestRetrieveContextMergesBothSources(t *testing.T) {
	ctx := context.Background()
	facts := store.NewInMemoryFactStore()
	vectors := store.NewInMemoryVectorStore(4, 4096)
	emb := &stubEmbedder{}
	seedFact(t, facts, "favorite_color", "teal")

	text := "User: what colors do I like\nAssistant: teal, mostly"
	vec, _ := emb.Embed(ctx, text)
	if _, err := vectors.AppendConversation(ctx, "u1", "c1", text, vec); err != nil {
		t.Fatalf("AppendConversation: %v", err)
	}

	svc := newTestRetrievalService(facts, vectors, emb)
	resp := svc.RetrieveContext(ctx, &models.RetrievalRequest{
		Message: "What is my favorite_color again?",
		UserID:  "u1", CharacterID: "c1",
	})

	if len(resp.RelevantFacts) != 1 {
		t.Fatalf("expected 1 fact, got %d", len(resp.RelevantFacts))
	}
	if len(resp.ConversationSnippets) != 1 {
		t.Fatalf("expected 1 snippet, got %d", len(resp.ConversationSnippets))
	}
	if !strings.Contains(resp.Context, "=== Known Facts ===") {
		t.Error("context missing facts header")
	}
	if !strings.Contains(resp.Context, "- favorite_color: teal") {
		t.Errorf("context missing fact line:\n%s", resp.Context)
	}
	if !strings.Contains(resp.Context, "=== Relevant Past Conversations ===") {
		t.Error("context missing conversations header")
	}
	if !strings.Contains(resp.Context, "---") {
		t.Error("context missing snippet separator")
	}
}

func TestRetrieveContextEmptyMemory(t *testing.T) {
	svc := newTestRetrievalService(store.NewInMemoryFactStore(), store.NewInMemoryVectorStore(4, 4096), &stubEmbedder{})
	resp := svc.RetrieveContext(context.Background(), &models.RetrievalRequest{
		Message: "hello there",
		UserID:  "u1", CharacterID: "c1",
	})
	if resp.Context != "" {
		t.Errorf("expected empty context, got %q", resp.Context)
	}
	if resp.RelevantFacts == nil || resp.ConversationSnippets == nil {
		t.Error("result slices must be non-nil for JSON encoding")
	}
}

func TestRetrieveContextDegradesWhenEmbeddingFails(t *testing.T) {
	facts := store.NewInMemoryFactStore()
	seedFact(t, facts, "favorite_color", "teal")

	svc := newTestRetrievalService(facts, store.NewInMemoryVectorStore(4, 4096), &stubEmbedder{fail: true})
	resp := svc.RetrieveContext(context.Background(), &models.RetrievalRequest{
		Message: "remind me of my favorite_color",
		UserID:  "u1", CharacterID: "c1",
	})

	if len(resp.RelevantFacts) != 1 {
		t.Fatalf("fact search must survive an embedding failure, got %d facts", len(resp.RelevantFacts))
	}
	if len(resp.ConversationSnippets) != 0 {
		t.Errorf("expected no snippets, got %d", len(resp.ConversationSnippets))
	}
	if !strings.Contains(resp.Context, "- favorite_color: teal") {
		t.Errorf("context must still carry the fact:\n%s", resp.Context)
	}
	if strings.Contains(resp.Context, "=== Relevant Past Conversations ===") {
		t.Error("empty snippet section must be omitted")
	}
}

func TestFormatContextLayout(t *testing.T) {
	got := formatContext(
		[]models.FactView{
			{Type: "preference", Key: "favorite_color", Value: "teal"},
			{Type: "habit", Key: "morning_run", Value: "daily"},
		},
		[]string{"snippet one", "snippet two"},
	)
	want := strings.Join([]string{
		"=== Known Facts ===",
		"- favorite_color: teal",
		"- morning_run: daily",
		"",
		"=== Relevant Past Conversations ===",
		"snippet one",
		"---",
		"snippet two",
		"---",
	}, "\n")
	if got != want {
		t.Errorf("formatContext mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestFormatContextEmpty(t *testing.T) {
	if got := formatContext(nil, nil); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}

func TestSearchMemoryToggles(t *testing.T) {
	ctx := context.Background()
	facts := store.NewInMemoryFactStore()
	vectors := store.NewInMemoryVectorStore(4, 4096)
	emb := &stubEmbedder{}
	seedFact(t, facts, "favorite_color", "teal")
	vec, _ := emb.Embed(ctx, "teal talk")
	if _, err := vectors.AppendConversation(ctx, "u1", "c1", "teal talk", vec); err != nil {
		t.Fatalf("AppendConversation: %v", err)
	}

	svc := newTestRetrievalService(facts, vectors, emb)
	off := false

	resp := svc.SearchMemory(ctx, &models.SearchRequest{
		Query: "teal", UserID: "u1", CharacterID: "c1",
		SearchConversations: &off,
	})
	if len(resp.Facts) != 1 || len(resp.Conversations) != 0 {
		t.Errorf("expected facts only, got %d facts %d conversations", len(resp.Facts), len(resp.Conversations))
	}

	resp = svc.SearchMemory(ctx, &models.SearchRequest{
		Query: "teal", UserID: "u1", CharacterID: "c1",
		SearchFacts: &off,
	})
	if len(resp.Facts) != 0 || len(resp.Conversations) != 1 {
		t.Errorf("expected conversations only, got %d facts %d conversations", len(resp.Facts), len(resp.Conversations))
	}
	if resp.TotalResults != 1 {
		t.Errorf("expected total 1, got %d", resp.TotalResults)
	}
}

func TestStatsAggregates(t *testing.T) {
	ctx := context.Background()
	facts := store.NewInMemoryFactStore()
	vectors := store.NewInMemoryVectorStore(4, 4096)
	emb := &stubEmbedder{}
	seedFact(t, facts, "favorite_color", "teal")
	seedFact(t, facts, "favorite_drink", "coffee")
	vec, _ := emb.Embed(ctx, "hello")
	if _, err := vectors.AppendConversation(ctx, "u1", "c1", "hello", vec); err != nil {
		t.Fatalf("AppendConversation: %v", err)
	}

	svc := newTestRetrievalService(facts, vectors, emb)
	stats, err := svc.Stats(ctx, "u1", "c1")
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalFacts != 2 {
		t.Errorf("expected 2 facts, got %d", stats.TotalFacts)
	}
	if stats.FactBreakdown[string(models.FactTypePreference)] != 2 {
		t.Errorf("expected 2 preference facts, got %v", stats.FactBreakdown)
	}
	if stats.TotalConversations != 1 {
		t.Errorf("expected 1 conversation, got %d", stats.TotalConversations)
	}
}
