package ranker

import (
	"fmt"
	"testing"
	"time"

	"github.com/theoseek/theoseek/internal/indexer/index"
)

func doc(id string) index.Document {
	return index.Document{
		ID:            id,
		Title:         id,
		ContentType:   index.ContentHTML,
		LastIndexedAt: time.Now().UTC(),
	}
}

func TestScoreEmptyIndexIsZero(t *testing.T) {
	idx := index.New()
	scorer := NewScorer(idx)
	if got := scorer.Score([]string{"grace"}, "missing"); got != 0 {
		t.Errorf("Score on empty index = %v, want 0", got)
	}
}

func TestScorePositiveForMatch(t *testing.T) {
	idx := index.New()
	idx.AddDocument(doc("a"), "Theology and theological inquiry")
	idx.AddDocument(doc("b"), "entirely unrelated gardening advice")

	scorer := NewScorer(idx)
	// Query token for "theologians" stems to the same term as the content.
	score := scorer.Score([]string{"theolog"}, "a")
	if score <= 0 {
		t.Errorf("Score = %v, want > 0", score)
	}
	if other := scorer.Score([]string{"theolog"}, "b"); other != 0 {
		t.Errorf("non-matching doc score = %v, want 0", other)
	}
}

func TestScoreNonNegativeForRareTerms(t *testing.T) {
	idx := index.New()
	for i := 0; i < 10; i++ {
		content := "common filler words everywhere"
		if i == 0 {
			content += " esoteric"
		}
		idx.AddDocument(doc(fmt.Sprintf("doc-%d", i)), content)
	}
	scorer := NewScorer(idx)
	// docFreq(esoteric) = 1 < N/2, so BM25 must not go negative.
	if got := scorer.Score([]string{"esoter"}, "doc-0"); got < 0 {
		t.Errorf("Score = %v, want >= 0", got)
	}
}

func TestRareTermOutweighsCommonTerm(t *testing.T) {
	idx := index.New()
	for i := 0; i < 20; i++ {
		content := "ubiquitous term"
		if i == 0 {
			content = "ubiquitous term plus rarity"
		}
		idx.AddDocument(doc(fmt.Sprintf("doc-%d", i)), content)
	}
	scorer := NewScorer(idx)
	withRare := scorer.Score([]string{"ubiquit", "rariti"}, "doc-0")
	withoutRare := scorer.Score([]string{"ubiquit"}, "doc-0")
	if withRare <= withoutRare {
		t.Errorf("rare term added nothing: %v <= %v", withRare, withoutRare)
	}
}

func TestScoreAllSortsDescendingAndKeepsTieOrder(t *testing.T) {
	idx := index.New()
	idx.AddDocument(doc("first"), "identical content words")
	idx.AddDocument(doc("second"), "identical content words")
	idx.AddDocument(doc("strong"), "identical identical identical content words")

	scorer := NewScorer(idx)
	ranked := scorer.ScoreAll([]string{"ident"}, []string{"first", "second", "strong"})
	if len(ranked) != 3 {
		t.Fatalf("got %d results, want 3", len(ranked))
	}
	if ranked[0].DocID != "strong" {
		t.Errorf("top result = %s, want strong", ranked[0].DocID)
	}
	if ranked[1].DocID != "first" || ranked[2].DocID != "second" {
		t.Errorf("tie order = %s, %s; want first, second", ranked[1].DocID, ranked[2].DocID)
	}
}

func TestDuplicateQueryTermsCountTwice(t *testing.T) {
	idx := index.New()
	idx.AddDocument(doc("a"), "justification sanctification")
	idx.AddDocument(doc("b"), "justification glorification")

	scorer := NewScorer(idx)
	once := scorer.Score([]string{"justif"}, "a")
	twice := scorer.Score([]string{"justif", "justif"}, "a")
	if twice <= once {
		t.Errorf("duplicate term did not add score: %v <= %v", twice, once)
	}
}

func BenchmarkScoreAll(b *testing.B) {
	idx := index.New()
	ids := make([]string, 0, 1000)
	for i := 0; i < 1000; i++ {
		id := fmt.Sprintf("doc-%d", i)
		ids = append(ids, id)
		idx.AddDocument(doc(id), "natural law and the scholastic tradition of moral theology")
	}
	scorer := NewScorer(idx)
	terms := []string{"natur", "law", "theolog"}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		scorer.ScoreAll(terms, ids)
	}
}
