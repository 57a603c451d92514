// Package index implements a thread-safe in-memory inverted index with
// positional postings. A forward index (document → terms) makes removal
// proportional to the number of terms in the document rather than the size
// of the whole index, and the average document length is cached and
// recomputed lazily after mutations.
package index

import (
	"sync"

	"github.com/theoseek/theoseek/internal/indexer/tokenizer"
)

// InvertedIndex maps terms to per-document postings. All mutating
// operations serialise on a single write lock; readers share a read lock
// and must not mutate returned postings.
type InvertedIndex struct {
	mu          sync.RWMutex
	terms       map[string]map[string]*Posting
	docs        map[string]Document
	docLengths  map[string]int
	docContents map[string]string
	docTerms    map[string]map[string]struct{}

	avgDocLength float64
	avgValid     bool
}

// New creates an empty InvertedIndex.
func New() *InvertedIndex {
	return &InvertedIndex{
		terms:       make(map[string]map[string]*Posting),
		docs:        make(map[string]Document),
		docLengths:  make(map[string]int),
		docContents: make(map[string]string),
		docTerms:    make(map[string]map[string]struct{}),
	}
}

// AddDocument tokenizes content and indexes it under meta.ID. Re-adding an
// existing ID first removes its old postings, so the index never holds a
// partially-reindexed document.
func (x *InvertedIndex) AddDocument(meta Document, content string) {
	tokens := tokenizer.Tokenize(content)

	postings := make(map[string]*Posting)
	for _, token := range tokens {
		p, exists := postings[token.Term]
		if !exists {
			p = &Posting{
				DocID:     meta.ID,
				Positions: make(map[int]struct{}, 4),
			}
			postings[token.Term] = p
		}
		if _, dup := p.Positions[token.Position]; !dup {
			p.Positions[token.Position] = struct{}{}
			p.TermFrequency++
		}
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	if _, exists := x.docs[meta.ID]; exists {
		x.removeLocked(meta.ID)
	}

	termSet := make(map[string]struct{}, len(postings))
	for term, posting := range postings {
		docMap, exists := x.terms[term]
		if !exists {
			docMap = make(map[string]*Posting)
			x.terms[term] = docMap
		}
		docMap[meta.ID] = posting
		termSet[term] = struct{}{}
	}
	x.docs[meta.ID] = meta
	x.docLengths[meta.ID] = len(tokens)
	x.docContents[meta.ID] = content
	x.docTerms[meta.ID] = termSet
	x.avgValid = false
}

// RemoveDocument deletes a document and all its postings. It is a no-op
// for unknown IDs.
func (x *InvertedIndex) RemoveDocument(docID string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.removeLocked(docID)
}

// removeLocked removes docID using the forward index. Caller holds the
// write lock.
func (x *InvertedIndex) removeLocked(docID string) {
	termSet, exists := x.docTerms[docID]
	if !exists {
		return
	}
	for term := range termSet {
		docMap := x.terms[term]
		delete(docMap, docID)
		if len(docMap) == 0 {
			delete(x.terms, term)
		}
	}
	delete(x.docs, docID)
	delete(x.docLengths, docID)
	delete(x.docContents, docID)
	delete(x.docTerms, docID)
	x.avgValid = false
}

// Clear resets the index to empty.
func (x *InvertedIndex) Clear() {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.terms = make(map[string]map[string]*Posting)
	x.docs = make(map[string]Document)
	x.docLengths = make(map[string]int)
	x.docContents = make(map[string]string)
	x.docTerms = make(map[string]map[string]struct{})
	x.avgDocLength = 0
	x.avgValid = false
}

// Postings returns the posting map for term. The returned map is the live
// internal structure; callers must treat it as read-only.
func (x *InvertedIndex) Postings(term string) map[string]*Posting {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.terms[term]
}

// Posting returns the posting for (term, docID), or nil when absent.
func (x *InvertedIndex) Posting(term, docID string) *Posting {
	x.mu.RLock()
	defer x.mu.RUnlock()
	docMap, exists := x.terms[term]
	if !exists {
		return nil
	}
	return docMap[docID]
}

// DocumentFrequency returns the number of documents containing term.
func (x *InvertedIndex) DocumentFrequency(term string) int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.terms[term])
}

// Document returns the metadata for docID.
func (x *InvertedIndex) Document(docID string) (Document, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	doc, ok := x.docs[docID]
	return doc, ok
}

// DocumentLength returns the token count of docID's content, 0 if unknown.
func (x *InvertedIndex) DocumentLength(docID string) int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.docLengths[docID]
}

// DocumentContent returns the original ingested text for docID.
func (x *InvertedIndex) DocumentContent(docID string) string {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.docContents[docID]
}

// AllDocumentIDs returns the IDs of every indexed document, in no
// particular order.
func (x *InvertedIndex) AllDocumentIDs() []string {
	x.mu.RLock()
	defer x.mu.RUnlock()
	ids := make([]string, 0, len(x.docs))
	for id := range x.docs {
		ids = append(ids, id)
	}
	return ids
}

// DocumentCount returns the number of indexed documents.
func (x *InvertedIndex) DocumentCount() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.docs)
}

// TermCount returns the number of distinct terms in the index.
func (x *InvertedIndex) TermCount() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.terms)
}

// AverageDocumentLength returns the mean token count across all documents,
// 0 when empty. The value is cached and recomputed on the first read after
// a mutation.
func (x *InvertedIndex) AverageDocumentLength() float64 {
	x.mu.RLock()
	if x.avgValid {
		avg := x.avgDocLength
		x.mu.RUnlock()
		return avg
	}
	x.mu.RUnlock()

	x.mu.Lock()
	defer x.mu.Unlock()
	if x.avgValid {
		return x.avgDocLength
	}
	if len(x.docLengths) == 0 {
		x.avgDocLength = 0
	} else {
		total := 0
		for _, l := range x.docLengths {
			total += l
		}
		x.avgDocLength = float64(total) / float64(len(x.docLengths))
	}
	x.avgValid = true
	return x.avgDocLength
}
