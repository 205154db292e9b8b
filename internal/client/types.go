package client

import "github.com/rshade/needle/internal/transcript"

// SearchFilters are the optional structured filters sent with a query.
// Empty fields are omitted from the request body.
type SearchFilters struct {
	Company string `json:"company,omitempty"`
	Quarter string `json:"quarter,omitempty"`
	Section string `json:"section,omitempty"`
}

// SearchRequest is the body of POST /search.
type SearchRequest struct {
	Query   string         `json:"query"`
	Filters *SearchFilters `json:"filters,omitempty"`
}

// SearchResponse is the body returned by POST /search.
// An empty Answer means the service found nothing usable.
type SearchResponse struct {
	Answer   string               `json:"answer"`
	Snippets []transcript.Snippet `json:"snippets"`
}

// Metadata is the filter vocabulary returned by GET /metadata.
type Metadata struct {
	// Companies maps display name to ticker.
	Companies map[string]string `json:"companies"`
	// Quarters lists available fiscal quarters, e.g. "Q1 2024".
	Quarters []string `json:"quarters"`
}

// Health is the body returned by GET /healthz.
type Health struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}
