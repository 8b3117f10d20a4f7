// Package search finds content across the data room: library documents and
// the business-data sections themselves.
package search

// ResultType identifies the kind of entity in a search result.
type ResultType string

const (
	ResultDocument ResultType = "document"
	ResultSection  ResultType = "section"
)

// Result is a single search hit returned to the caller, ordered by
// relevance.
type Result struct {
	Type        ResultType `json:"type"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Section     string     `json:"section,omitempty"`
	Relevance   int        `json:"relevance"`
}

// Query describes a search request.
type Query struct {
	Text  string
	Limit int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Searcher can execute a search over the data room.
type Searcher interface {
	Search(q Query) ([]Result, error)
	Healthy() bool
}
