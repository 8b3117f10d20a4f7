package search

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync/atomic"
	"time"

	meili "github.com/meilisearch/meilisearch-go"
)

const idxLibrary = "dataroom_documents"

// LibraryRecord is the data we index for a document-library entry.
type LibraryRecord struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Size        string `json:"size"`
	Category    string `json:"category"`
	AccessLevel string `json:"accessLevel"`
	Status      string `json:"status"`
}

// Meili implements Searcher via Meilisearch for the document library.
type Meili struct {
	client  meili.ServiceManager
	healthy atomic.Bool
	done    chan struct{}
}

// NewMeili creates a Meilisearch client and configures the library index.
// An unreachable server is not fatal; the health monitor keeps probing and
// the facade falls back to the tree scanner meanwhile.
func NewMeili(url, apiKey string) *Meili {
	client := meili.New(url, meili.WithAPIKey(apiKey))

	m := &Meili{
		client: client,
		done:   make(chan struct{}),
	}

	if _, err := client.Health(); err != nil {
		log.Printf("search: meilisearch unavailable at %s: %v", url, err)
		m.healthy.Store(false)
	} else {
		m.healthy.Store(true)
		m.configureIndex()
	}

	go m.healthLoop()
	return m
}

func (m *Meili) configureIndex() {
	if _, err := m.client.CreateIndex(&meili.IndexConfig{
		Uid:        idxLibrary,
		PrimaryKey: "id",
	}); err != nil {
		log.Printf("search: create index %s (may already exist): %v", idxLibrary, err)
	}

	index := m.client.Index(idxLibrary)
	filterable := []interface{}{"category", "accessLevel", "status"}
	if _, err := index.UpdateFilterableAttributes(&filterable); err != nil {
		log.Printf("search: update filterable attrs for %s: %v", idxLibrary, err)
	}
	searchable := []string{"name", "type", "category"}
	if _, err := index.UpdateSearchableAttributes(&searchable); err != nil {
		log.Printf("search: update searchable attrs for %s: %v", idxLibrary, err)
	}
}

func (m *Meili) healthLoop() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			_, err := m.client.Health()
			wasHealthy := m.healthy.Load()
			m.healthy.Store(err == nil)
			if err == nil && !wasHealthy {
				log.Println("search: meilisearch recovered, reconfiguring index")
				m.configureIndex()
			}
		}
	}
}

// Close stops the background health monitor.
func (m *Meili) Close() {
	close(m.done)
}

// Healthy reports whether Meilisearch is reachable.
func (m *Meili) Healthy() bool {
	return m.healthy.Load()
}

// Search queries the library index.
func (m *Meili) Search(q Query) ([]Result, error) {
	if !m.healthy.Load() {
		return nil, fmt.Errorf("meilisearch unhealthy")
	}

	limit := int64(q.Limit)
	if limit == 0 {
		limit = 20
	}

	resp, err := m.client.Index(idxLibrary).Search(q.Text, &meili.SearchRequest{
		Limit: limit,
	})
	if err != nil {
		m.healthy.Store(false)
		return nil, fmt.Errorf("meilisearch search: %w", err)
	}

	results := make([]Result, 0, len(resp.Hits))
	for _, hit := range resp.Hits {
		results = append(results, hitToResult(hit, q.Text))
	}
	return results, nil
}

// IndexLibrary replaces the indexed document library (fire-and-forget from
// the caller's perspective; errors are logged).
func (m *Meili) IndexLibrary(records []LibraryRecord) error {
	if len(records) == 0 {
		return nil
	}
	_, err := m.client.Index(idxLibrary).AddDocuments(records, nil)
	return err
}

// hitToResult rescored with the same weights the tree scanner uses, so
// merged result lists sort consistently.
func hitToResult(hit meili.Hit, query string) Result {
	name := decodeString(hit, "name")
	description := describeHit(hit)

	q := strings.ToLower(strings.TrimSpace(query))
	title := strings.ToLower(name)
	relevance := 1
	if strings.Contains(title, q) {
		relevance += 3
	}
	if strings.Contains(strings.ToLower(description), q) {
		relevance += 2
	}
	if title == q {
		relevance += 5
	}

	return Result{
		Type:        ResultDocument,
		Title:       name,
		Description: description,
		Category:    "Documents",
		Section:     "documents",
		Relevance:   relevance,
	}
}

func describeHit(hit meili.Hit) string {
	parts := []string{
		decodeString(hit, "type"),
		decodeString(hit, "size"),
		decodeString(hit, "category"),
	}
	nonBlank := parts[:0]
	for _, part := range parts {
		if strings.TrimSpace(part) != "" {
			nonBlank = append(nonBlank, part)
		}
	}
	return strings.Join(nonBlank, " • ")
}

func decodeString(hit meili.Hit, key string) string {
	raw, ok := hit[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return ""
}
