package search

import (
	"fmt"
	"sort"
	"strings"

	"datavault/api/internal/schema"
)

// DocumentSource yields the current committed company document.
type DocumentSource func() schema.Document

// Scan searches the in-memory document tree directly. It is the
// always-available fallback behind Meilisearch and needs no external
// service.
type Scan struct {
	source DocumentSource
}

func NewScan(source DocumentSource) *Scan {
	return &Scan{source: source}
}

func (s *Scan) Healthy() bool { return true }

// Search scores every candidate against the query: title matches weigh 3,
// description matches 2, section content 1, and an exact title match adds 5.
// Zero-relevance entries are dropped.
func (s *Scan) Search(q Query) ([]Result, error) {
	query := strings.ToLower(strings.TrimSpace(q.Text))
	if query == "" {
		return nil, nil
	}

	var results []Result
	for _, candidate := range buildCandidates(s.source()) {
		relevance := 0
		title := strings.ToLower(candidate.result.Title)
		description := strings.ToLower(candidate.result.Description)

		if strings.Contains(title, query) {
			relevance += 3
		}
		if strings.Contains(description, query) {
			relevance += 2
		}
		if strings.Contains(strings.ToLower(candidate.content), query) {
			relevance++
		}
		if title == query {
			relevance += 5
		}
		if relevance == 0 {
			continue
		}
		candidate.result.Relevance = relevance
		results = append(results, candidate.result)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Relevance > results[j].Relevance
	})
	if q.Limit > 0 && len(results) > q.Limit {
		results = results[:q.Limit]
	}
	return results, nil
}

type candidate struct {
	result  Result
	content string
}

// buildCandidates flattens the document tree into searchable entries: one
// per library document plus one per business-data section.
func buildCandidates(doc schema.Document) []candidate {
	var out []candidate

	if docs, ok := doc["documents"].([]any); ok {
		for _, raw := range docs {
			entry, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			out = append(out, candidate{
				result: Result{
					Type:        ResultDocument,
					Title:       str(entry["name"]),
					Description: fmt.Sprintf("%s • %s • %s", str(entry["type"]), str(entry["size"]), str(entry["category"])),
					Category:    "Documents",
					Section:     "documents",
				},
			})
		}
	}

	for _, section := range sectionCandidates(doc) {
		out = append(out, candidate{
			result: Result{
				Type:        ResultSection,
				Title:       section.name,
				Description: fmt.Sprintf("View %s information", strings.ToLower(section.name)),
				Category:    "Sections",
				Section:     section.id,
			},
			content: section.content,
		})
	}
	return out
}

type sectionContent struct {
	id      string
	name    string
	content string
}

func sectionCandidates(doc schema.Document) []sectionContent {
	overview := object(doc, "overview")
	financials := object(doc, "financials")
	market := object(doc, "market")
	team := object(doc, "team")
	product := object(doc, "product")
	legal := object(doc, "legal")
	funding := object(doc, "funding")

	return []sectionContent{
		{
			id: "overview", name: "Company Overview",
			content: join(
				str(overview["name"]), str(overview["description"]), str(overview["mission"]),
				str(overview["vision"]), str(overview["values"]), str(overview["industry"]),
				str(overview["stage"]),
			),
		},
		{
			id: "financials", name: "Financials",
			content: join(
				str(financials["annualRevenue"]), str(financials["monthlyBurn"]),
				str(financials["runway"]), "revenue", "expenses", "cash flow", "burn rate",
			),
		},
		{
			id: "market", name: "Market Analysis",
			content: join(
				str(market["tam"]), str(market["sam"]), str(market["som"]),
				joinStrings(market["trends"]),
				joinObjects(market["competitors"], "name", "description"),
			),
		},
		{
			id: "team", name: "Team",
			content: join(
				joinObjects(team["leadership"], "name", "role", "background"),
				joinObjects(team["advisors"], "name", "background"),
				"leadership", "advisors", "employees",
			),
		},
		{
			id: "product", name: "Product",
			content: join(
				joinStrings(product["features"]), joinStrings(product["techStack"]),
				"features", "technology", "roadmap", "development",
			),
		},
		{
			id: "legal", name: "Legal",
			content: join(
				str(legal["entityType"]), str(legal["incorporationDate"]),
				joinStrings(legal["compliance"]),
				joinObjects(legal["intellectualProperty"], "type", "name"),
				"legal", "compliance", "intellectual property", "patents", "trademarks",
			),
		},
		{
			id: "funding", name: "Funding",
			content: join(
				str(funding["totalRaised"]), str(funding["currentRound"]),
				str(funding["valuation"]),
				joinObjects(funding["investors"], "name", "type"),
				"funding", "investors", "valuation", "fundraising",
			),
		},
	}
}

func object(doc schema.Document, key string) map[string]any {
	section, _ := doc[key].(map[string]any)
	return section
}

func str(value any) string {
	s, _ := value.(string)
	return s
}

func join(parts ...string) string {
	return strings.Join(parts, " ")
}

func joinStrings(value any) string {
	list, ok := value.([]any)
	if !ok {
		return ""
	}
	parts := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

func joinObjects(value any, fields ...string) string {
	list, ok := value.([]any)
	if !ok {
		return ""
	}
	var parts []string
	for _, item := range list {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		for _, field := range fields {
			if s := str(entry[field]); s != "" {
				parts = append(parts, s)
			}
		}
	}
	return strings.Join(parts, " ")
}
