// Package ranker scores documents against query terms with Okapi BM25.
package ranker

import (
	"math"
	"sort"

	"github.com/theoseek/theoseek/internal/indexer/index"
)

// Default BM25 parameters: k1 controls term-frequency saturation, b
// controls document-length normalisation.
const (
	DefaultK1 = 1.2
	DefaultB  = 0.75
)

// ScoredDoc pairs a document ID with its relevance score.
type ScoredDoc struct {
	DocID string  `json:"doc_id"`
	Score float64 `json:"score"`
}

// Scorer computes BM25 scores against a single inverted index. Posting and
// length lookups are O(1) per (term, document) pair.
type Scorer struct {
	idx *index.InvertedIndex
	k1  float64
	b   float64
}

// NewScorer creates a Scorer with the default k1 and b parameters.
func NewScorer(idx *index.InvertedIndex) *Scorer {
	return NewScorerWithParams(idx, DefaultK1, DefaultB)
}

// NewScorerWithParams creates a Scorer with explicit BM25 parameters.
func NewScorerWithParams(idx *index.InvertedIndex, k1, b float64) *Scorer {
	return &Scorer{idx: idx, k1: k1, b: b}
}

// Score computes the BM25 score of a single document for the given query
// terms. Duplicate terms contribute once per occurrence in the slice.
func (s *Scorer) Score(terms []string, docID string) float64 {
	n := s.idx.DocumentCount()
	avgdl := s.idx.AverageDocumentLength()
	if n == 0 || avgdl == 0 {
		return 0
	}
	dl := float64(s.idx.DocumentLength(docID))
	score := 0.0
	for _, term := range terms {
		df := s.idx.DocumentFrequency(term)
		if df == 0 {
			continue
		}
		posting := s.idx.Posting(term, docID)
		if posting == nil {
			continue
		}
		score += s.idf(n, df) * s.tfNorm(float64(posting.TermFrequency), dl, avgdl)
	}
	return score
}

// ScoreAll scores each candidate document and returns them sorted by score
// descending. The sort is stable, so ties keep the candidate order.
func (s *Scorer) ScoreAll(terms []string, docIDs []string) []ScoredDoc {
	n := s.idx.DocumentCount()
	avgdl := s.idx.AverageDocumentLength()
	result := make([]ScoredDoc, 0, len(docIDs))
	if n == 0 || avgdl == 0 {
		for _, id := range docIDs {
			result = append(result, ScoredDoc{DocID: id})
		}
		return result
	}

	idfs := make([]float64, len(terms))
	for i, term := range terms {
		df := s.idx.DocumentFrequency(term)
		if df > 0 {
			idfs[i] = s.idf(n, df)
		}
	}

	for _, docID := range docIDs {
		dl := float64(s.idx.DocumentLength(docID))
		score := 0.0
		for i, term := range terms {
			if idfs[i] == 0 {
				continue
			}
			posting := s.idx.Posting(term, docID)
			if posting == nil {
				continue
			}
			score += idfs[i] * s.tfNorm(float64(posting.TermFrequency), dl, avgdl)
		}
		result = append(result, ScoredDoc{DocID: docID, Score: score})
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Score > result[j].Score
	})
	return result
}

// idf is ln((N - n + 0.5) / (n + 0.5) + 1). The +1 inside the log keeps it
// positive for every docFreq, including terms found in every document.
func (s *Scorer) idf(totalDocs, docFreq int) float64 {
	numerator := float64(totalDocs) - float64(docFreq) + 0.5
	denominator := float64(docFreq) + 0.5
	return math.Log(numerator/denominator + 1)
}

func (s *Scorer) tfNorm(termFreq, docLength, avgDocLength float64) float64 {
	denominator := termFreq + s.k1*(1-s.b+s.b*docLength/avgDocLength)
	return termFreq * (s.k1 + 1) / denominator
}
