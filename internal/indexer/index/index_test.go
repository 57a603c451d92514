package index

import (
	"fmt"
	"testing"
	"time"
)

func doc(id string) Document {
	return Document{
		ID:            id,
		Title:         "Test Document " + id,
		URL:           "https://example.com/" + id,
		ContentType:   ContentHTML,
		LastIndexedAt: time.Now().UTC(),
	}
}

func TestAddDocumentBuildsPostings(t *testing.T) {
	idx := New()
	idx.AddDocument(doc("a"), "natural law tradition")

	if idx.DocumentCount() != 1 {
		t.Fatalf("DocumentCount = %d, want 1", idx.DocumentCount())
	}
	p := idx.Posting("natur", "a")
	if p == nil {
		t.Fatal("expected posting for stemmed term natur")
	}
	if p.TermFrequency != 1 {
		t.Errorf("TermFrequency = %d, want 1", p.TermFrequency)
	}
	if !p.HasPosition(0) {
		t.Error("expected natur at position 0")
	}
	if idx.DocumentLength("a") != 3 {
		t.Errorf("DocumentLength = %d, want 3", idx.DocumentLength("a"))
	}
}

func TestAddDocumentIsIdempotent(t *testing.T) {
	idx := New()
	content := "grace perfects nature in aquinas"
	idx.AddDocument(doc("a"), content)

	count := idx.DocumentCount()
	length := idx.DocumentLength("a")
	terms := idx.TermCount()
	freq := idx.DocumentFrequency("grace")

	idx.AddDocument(doc("a"), content)

	if idx.DocumentCount() != count {
		t.Errorf("DocumentCount changed from %d to %d", count, idx.DocumentCount())
	}
	if idx.DocumentLength("a") != length {
		t.Errorf("DocumentLength changed from %d to %d", length, idx.DocumentLength("a"))
	}
	if idx.TermCount() != terms {
		t.Errorf("TermCount changed from %d to %d", terms, idx.TermCount())
	}
	if idx.DocumentFrequency("grace") != freq {
		t.Errorf("DocumentFrequency changed from %d to %d", freq, idx.DocumentFrequency("grace"))
	}
}

func TestRemoveDocumentIsInverse(t *testing.T) {
	idx := New()
	idx.AddDocument(doc("keep"), "summa theologica prima pars")

	countBefore := idx.DocumentCount()
	termsBefore := idx.TermCount()
	avgBefore := idx.AverageDocumentLength()

	idx.AddDocument(doc("temp"), "city of god augustine civitas dei")
	idx.RemoveDocument("temp")

	if idx.DocumentCount() != countBefore {
		t.Errorf("DocumentCount = %d, want %d", idx.DocumentCount(), countBefore)
	}
	if idx.TermCount() != termsBefore {
		t.Errorf("TermCount = %d, want %d", idx.TermCount(), termsBefore)
	}
	if got := idx.AverageDocumentLength(); got != avgBefore {
		t.Errorf("AverageDocumentLength = %v, want %v", got, avgBefore)
	}
	if _, ok := idx.Document("temp"); ok {
		t.Error("removed document still present")
	}
	if idx.DocumentContent("temp") != "" {
		t.Error("removed document content still present")
	}
	if idx.Posting("augustin", "temp") != nil {
		t.Error("removed document posting still present")
	}
}

func TestRemoveDropsEmptyTermEntries(t *testing.T) {
	idx := New()
	idx.AddDocument(doc("only"), "unrepeatable singular wording")
	idx.RemoveDocument("only")
	if idx.TermCount() != 0 {
		t.Errorf("TermCount = %d after removing only document, want 0", idx.TermCount())
	}
}

func TestReindexReplacesDocument(t *testing.T) {
	idx := New()
	idx.AddDocument(doc("a"), "original text about predestination")
	idx.AddDocument(doc("a"), "replacement text about free will")

	if idx.DocumentCount() != 1 {
		t.Fatalf("DocumentCount = %d, want 1", idx.DocumentCount())
	}
	if idx.Posting("predestin", "a") != nil {
		t.Error("stale posting survived reindex")
	}
	if idx.Posting("free", "a") == nil {
		t.Error("new posting missing after reindex")
	}
}

func TestPostingConsistency(t *testing.T) {
	idx := New()
	idx.AddDocument(doc("a"), "law law law nature law of nature")

	for _, term := range []string{"law", "natur"} {
		p := idx.Posting(term, "a")
		if p == nil {
			t.Fatalf("missing posting for %s", term)
		}
		if p.TermFrequency != len(p.Positions) {
			t.Errorf("%s: TermFrequency %d != |Positions| %d", term, p.TermFrequency, len(p.Positions))
		}
		for pos := range p.Positions {
			if pos >= idx.DocumentLength("a") {
				t.Errorf("%s: position %d >= doc length %d", term, pos, idx.DocumentLength("a"))
			}
		}
	}
}

func TestAverageDocumentLength(t *testing.T) {
	idx := New()
	if got := idx.AverageDocumentLength(); got != 0 {
		t.Errorf("empty index avg = %v, want 0", got)
	}
	idx.AddDocument(doc("a"), "one two2 three3 four4")
	idx.AddDocument(doc("b"), "alpha beta")
	want := (float64(idx.DocumentLength("a")) + float64(idx.DocumentLength("b"))) / 2
	if got := idx.AverageDocumentLength(); got != want {
		t.Errorf("avg = %v, want %v", got, want)
	}
	idx.RemoveDocument("b")
	if got := idx.AverageDocumentLength(); got != float64(idx.DocumentLength("a")) {
		t.Errorf("avg after removal = %v, want %v", got, float64(idx.DocumentLength("a")))
	}
}

func TestClear(t *testing.T) {
	idx := New()
	idx.AddDocument(doc("a"), "some indexed content here")
	idx.Clear()
	if idx.DocumentCount() != 0 || idx.TermCount() != 0 {
		t.Error("Clear left state behind")
	}
	if got := idx.AverageDocumentLength(); got != 0 {
		t.Errorf("avg after Clear = %v, want 0", got)
	}
}

func TestReadAccessorsOnMissingKeys(t *testing.T) {
	idx := New()
	if idx.Posting("ghost", "nope") != nil {
		t.Error("Posting on empty index should be nil")
	}
	if idx.DocumentFrequency("ghost") != 0 {
		t.Error("DocumentFrequency on empty index should be 0")
	}
	if idx.DocumentLength("nope") != 0 {
		t.Error("DocumentLength on empty index should be 0")
	}
	if ids := idx.AllDocumentIDs(); len(ids) != 0 {
		t.Errorf("AllDocumentIDs = %v, want empty", ids)
	}
}

func TestConcurrentReadsDuringWrites(t *testing.T) {
	idx := New()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			idx.AddDocument(doc(fmt.Sprintf("doc-%d", i)), "shared corpus text for concurrency checks")
		}
	}()
	for i := 0; i < 200; i++ {
		idx.DocumentFrequency("share")
		idx.AverageDocumentLength()
		idx.AllDocumentIDs()
	}
	<-done
	if idx.DocumentCount() != 200 {
		t.Errorf("DocumentCount = %d, want 200", idx.DocumentCount())
	}
}

func BenchmarkAddDocument(b *testing.B) {
	idx := New()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		idx.AddDocument(doc(fmt.Sprintf("doc-%d", i)), "this is a benchmark document with several distinct terms for measuring indexing throughput")
	}
}

func BenchmarkPostingLookup(b *testing.B) {
	idx := New()
	for i := 0; i < 10000; i++ {
		idx.AddDocument(doc(fmt.Sprintf("doc-%d", i)), "scholastic philosophy and natural theology")
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		idx.Posting("theolog", "doc-5000")
	}
}
