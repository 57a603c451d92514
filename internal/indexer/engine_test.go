package indexer

import (
	"context"
	"testing"

	"github.com/theoseek/theoseek/internal/indexer/index"
)

func TestEngineIndexAndRemove(t *testing.T) {
	engine := NewEngine(nil, nil)
	ctx := context.Background()

	doc := index.Document{
		ID:          "sermon-1",
		Title:       "On the Beatitudes",
		ContentType: index.ContentMarkdown,
	}
	if err := engine.IndexDocument(ctx, doc, "blessed are the poor in spirit"); err != nil {
		t.Fatal(err)
	}
	if engine.DocumentCount() != 1 {
		t.Errorf("DocumentCount = %d, want 1", engine.DocumentCount())
	}
	stored, ok := engine.Index().Document("sermon-1")
	if !ok {
		t.Fatal("document missing from index")
	}
	if stored.LastIndexedAt.IsZero() {
		t.Error("LastIndexedAt not stamped")
	}

	if err := engine.RemoveDocument(ctx, "sermon-1"); err != nil {
		t.Fatal(err)
	}
	if engine.DocumentCount() != 0 {
		t.Errorf("DocumentCount = %d after removal, want 0", engine.DocumentCount())
	}
}

func TestEngineRejectsEmptyID(t *testing.T) {
	engine := NewEngine(nil, nil)
	err := engine.IndexDocument(context.Background(), index.Document{}, "content")
	if err == nil {
		t.Error("empty document id accepted")
	}
}

func TestEngineReloadWithoutStoreIsNoop(t *testing.T) {
	engine := NewEngine(nil, nil)
	if err := engine.Reload(context.Background()); err != nil {
		t.Fatal(err)
	}
}
