package search

import (
	"log"
	"sort"
)

// Service is the facade that tries Meilisearch for library documents and
// falls back to scanning the in-memory company tree.
type Service struct {
	meili *Meili
	scan  *Scan
}

// NewService creates a search service. meili may be nil if Meilisearch is not
// configured.
func NewService(meili *Meili, scan *Scan) *Service {
	return &Service{meili: meili, scan: scan}
}

// Search answers a query. Section results always come from the tree scanner;
// document results come from Meilisearch when it is healthy, otherwise from
// the scanner as well.
func (s *Service) Search(q Query) Response {
	scanned, err := s.scan.Search(q)
	if err != nil {
		log.Printf("search: tree scan error: %v", err)
		scanned = nil
	}

	if s.meili == nil || !s.meili.Healthy() {
		return respond(scanned, q)
	}

	docs, err := s.meili.Search(q)
	if err != nil {
		log.Printf("search: meilisearch error, falling back to tree scan: %v", err)
		return respond(scanned, q)
	}

	merged := append(docs, filterType(scanned, ResultSection)...)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Relevance > merged[j].Relevance
	})
	if q.Limit > 0 && len(merged) > q.Limit {
		merged = merged[:q.Limit]
	}
	return respond(merged, q)
}

// IndexLibrary pushes the current document library to Meilisearch
// (fire-and-forget).
func (s *Service) IndexLibrary(records []LibraryRecord) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.IndexLibrary(records); err != nil {
			log.Printf("search: index library: %v", err)
		}
	}()
}

func respond(results []Result, q Query) Response {
	if results == nil {
		results = []Result{}
	}
	return Response{Results: results, Total: len(results), Query: q.Text}
}

func filterType(results []Result, t ResultType) []Result {
	kept := make([]Result, 0, len(results))
	for _, r := range results {
		if r.Type == t {
			kept = append(kept, r)
		}
	}
	return kept
}
