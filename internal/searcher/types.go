// Package searcher defines the result types shared by the live and local
// search paths, the response cache, and the HTTP layer.
package searcher

// Search modes accepted by the API.
const (
	ModeLive  = "live"
	ModeLocal = "local"
)

// Streaming phases, emitted in order.
const (
	PhaseDiscovery = "discovery"
	PhaseScored    = "scored"
)

// ResultItem is one ranked hit.
type ResultItem struct {
	Title       string  `json:"title"`
	URL         string  `json:"url,omitempty"`
	Snippet     string  `json:"snippet"`
	Score       float64 `json:"score"`
	SourceType  string  `json:"source_type"`
	IsScholarly bool    `json:"is_scholarly"`
	Domain      string  `json:"domain,omitempty"`
}

// Result is a complete ranked answer for one query.
type Result struct {
	Query         string       `json:"query"`
	TotalMatches  int          `json:"total_matches"`
	ElapsedMillis int64        `json:"elapsed_ms"`
	Items         []ResultItem `json:"items"`
}

// StreamEvent is one server-sent event of the streaming live search: a
// "discovery" preview followed by the final "scored" ranking.
type StreamEvent struct {
	Phase  string  `json:"phase"`
	Result *Result `json:"result"`
}
