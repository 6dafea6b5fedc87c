package search

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/smakiapp/smaki-server/internal/util"
)

// SearchParams configures a flavor query.
type SearchParams struct {
	Query  string
	Type   string   // "milk" or "sorbet"; empty means both
	Status string   // "active" or "archived"; empty means both
	Tags   []string // all must be present

	Limit  int
	Offset int

	SortBy string // "relevance" (default), "name", "recent"

	IncludeFacets bool
	Highlight     bool
}

// DefaultSearchParams returns the parameters used by the staff panel.
func DefaultSearchParams() SearchParams {
	return SearchParams{
		Limit:         20,
		SortBy:        "relevance",
		IncludeFacets: true,
		Highlight:     true,
	}
}

// SearchResult is one page of matches.
type SearchResult struct {
	Query  string       `json:"query"`
	Total  uint64       `json:"total"`
	TookMs int64        `json:"took_ms"`
	Hits   []SearchHit  `json:"hits"`
	Facets SearchFacets `json:"facets"`
}

// SearchHit identifies a matching flavor. Callers hydrate it from the store.
type SearchHit struct {
	ID         int64             `json:"id"`
	Score      float64           `json:"score"`
	Name       string            `json:"name"`
	Type       string            `json:"type"`
	Status     string            `json:"status"`
	Highlights map[string]string `json:"highlights,omitempty"`
}

// SearchFacets holds counts across the whole match set.
type SearchFacets struct {
	Types []FacetCount `json:"types,omitempty"`
	Tags  []FacetCount `json:"tags,omitempty"`
}

// FacetCount is a facet value and its count.
type FacetCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Search executes a query.
func (s *FlavorIndex) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if params.Limit <= 0 {
		params.Limit = 20
	}

	req := bleve.NewSearchRequestOptions(buildSearchQuery(params), params.Limit, params.Offset, false)
	addSorting(req, params.SortBy)

	if params.IncludeFacets {
		req.AddFacet("type", bleve.NewFacetRequest("type", 5))
		req.AddFacet("tags", bleve.NewFacetRequest("tags", 10))
	}
	if params.Highlight && params.Query != "" {
		req.Highlight = bleve.NewHighlight()
		req.Highlight.AddField("name")
	}
	req.Fields = []string{"id", "name", "type", "status"}

	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &SearchResult{
		Query:  params.Query,
		Total:  res.Total,
		TookMs: res.Took.Milliseconds(),
		Hits:   make([]SearchHit, 0, len(res.Hits)),
	}

	for _, hit := range res.Hits {
		id, err := strconv.ParseInt(hit.ID, 10, 64)
		if err != nil {
			s.logger.Warn("skipping search hit with bad id", "id", hit.ID)
			continue
		}
		h := SearchHit{ID: id, Score: hit.Score}
		if v, ok := hit.Fields["name"].(string); ok {
			h.Name = v
		}
		if v, ok := hit.Fields["type"].(string); ok {
			h.Type = v
		}
		if v, ok := hit.Fields["status"].(string); ok {
			h.Status = v
		}
		if len(hit.Fragments) > 0 {
			h.Highlights = make(map[string]string, len(hit.Fragments))
			for field, fragments := range hit.Fragments {
				if len(fragments) > 0 {
					h.Highlights[field] = fragments[0]
				}
			}
		}
		result.Hits = append(result.Hits, h)
	}

	if params.IncludeFacets {
		result.Facets = SearchFacets{
			Types: facetCounts(res, "type"),
			Tags:  facetCounts(res, "tags"),
		}
	}
	return result, nil
}

// buildSearchQuery ORs the text strategies together and ANDs the filters.
func buildSearchQuery(params SearchParams) query.Query {
	var queries []query.Query

	if q := strings.TrimSpace(params.Query); q != "" {
		text := []query.Query{}

		nameMatch := bleve.NewMatchQuery(q)
		nameMatch.SetField("name")
		nameMatch.SetBoost(3.0)
		text = append(text, nameMatch)

		descMatch := bleve.NewMatchQuery(q)
		descMatch.SetField("description")
		descMatch.SetBoost(1.0)
		text = append(text, descMatch)

		// Fuzzy and prefix queries skip analysis, so feed them folded terms.
		terms := foldedTerms(q)
		for _, term := range terms {
			if len(term) < 4 {
				continue
			}
			fuzzy := bleve.NewFuzzyQuery(term)
			fuzzy.SetFuzziness(1)
			fuzzy.SetField("name")
			fuzzy.SetBoost(0.8)
			text = append(text, fuzzy)
		}
		if n := len(terms); n > 0 && len(terms[n-1]) >= 2 {
			prefix := bleve.NewPrefixQuery(terms[n-1])
			prefix.SetField("name")
			prefix.SetBoost(0.5)
			text = append(text, prefix)
		}

		queries = append(queries, bleve.NewDisjunctionQuery(text...))
	}

	if params.Type != "" {
		queries = append(queries, termQuery("type", params.Type))
	}
	if params.Status != "" {
		queries = append(queries, termQuery("status", params.Status))
	}
	for _, tag := range params.Tags {
		queries = append(queries, termQuery("tags", tag))
	}

	switch len(queries) {
	case 0:
		return bleve.NewMatchAllQuery()
	case 1:
		return queries[0]
	default:
		return bleve.NewConjunctionQuery(queries...)
	}
}

func termQuery(field, value string) query.Query {
	q := bleve.NewTermQuery(value)
	q.SetField(field)
	return q
}

// foldedTerms splits q the way the folded analyzer would.
func foldedTerms(q string) []string {
	slug := util.Slugify(q)
	if slug == "" {
		return nil
	}
	return strings.Split(slug, "-")
}

func addSorting(req *bleve.SearchRequest, sortBy string) {
	switch sortBy {
	case "name":
		req.SortBy([]string{"name", "-_score"})
	case "recent":
		req.SortBy([]string{"-created_at"})
	default:
		req.SortBy([]string{"-_score", "id"})
	}
}

func facetCounts(res *bleve.SearchResult, field string) []FacetCount {
	facet, ok := res.Facets[field]
	if !ok || facet.Terms == nil {
		return nil
	}
	var out []FacetCount
	for _, term := range facet.Terms.Terms() {
		out = append(out, FacetCount{Value: term.Term, Count: term.Count})
	}
	return out
}
