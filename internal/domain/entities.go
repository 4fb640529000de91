package domain

import "time"

// Collection names for the two FAQ corpora.
const (
	PatentCollection = "patent_faqs"
	BISCollection    = "bis_faqs"
)

type ChunkMetadata struct {
	Source  string            `json:"source"`
	ChunkID int               `json:"chunk_id"`
	Extra   map[string]string `json:"extra,omitempty"`
}

// Chunk is a piece of document text as stored in a collection.
type Chunk struct {
	Text     string        `json:"page_content"`
	Metadata ChunkMetadata `json:"metadata"`
}

// QueryResult is one nearest-neighbour hit. Score semantics depend on the
// backend: cosine similarity for remote stores, L2 distance for the local one.
type QueryResult struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}

// Route is the outcome of keyword routing.
type Route string

const (
	RoutePatent Route = "patent"
	RouteBIS    Route = "bis"
	RouteBoth   Route = "both"
)

// Collections returns the collections a route reads from, patent first.
func (r Route) Collections() []string {
	switch r {
	case RoutePatent:
		return []string{PatentCollection}
	case RouteBIS:
		return []string{BISCollection}
	default:
		return []string{PatentCollection, BISCollection}
	}
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type ChatTurn struct {
	Role      Role   `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
	Source    string `json:"source,omitempty"`
}

// Answer is what the response generator hands back to the user.
type Answer struct {
	Text   string  `json:"answer"`
	Source *string `json:"source"`
}

type SessionStats struct {
	TotalQueries        int        `json:"total_queries"`
	SuccessfulResponses int        `json:"successful_responses"`
	LastQueryTime       *time.Time `json:"last_query_time,omitempty"`
}

// SuccessRate returns the percentage of successful responses, or 0 when no
// query has been made yet.
func (s SessionStats) SuccessRate() float64 {
	if s.TotalQueries == 0 {
		return 0
	}
	return float64(s.SuccessfulResponses) / float64(s.TotalQueries) * 100
}
