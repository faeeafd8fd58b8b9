package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// Limits applied to Params.Limit.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// ErrOwnerRequired is returned when a search is not scoped to a user.
var ErrOwnerRequired = errors.New("search: owner is required")

// Params configures a search.
type Params struct {
	UserID        string // required; results never cross owners
	Query         string
	FavoritesOnly bool
	Limit         int
	Offset        int
}

// Hit is a matching document id with its relevance score.
type Hit struct {
	ID    string
	Score float64
}

// Result holds the hits of one search in relevance order.
type Result struct {
	Total uint64
	Hits  []Hit
}

// Search runs params against the index.
func (s *Index) Search(ctx context.Context, params Params) (*Result, error) {
	if params.UserID == "" {
		return nil, ErrOwnerRequired
	}
	switch {
	case params.Limit <= 0:
		params.Limit = DefaultLimit
	case params.Limit > MaxLimit:
		params.Limit = MaxLimit
	}
	if params.Offset < 0 {
		params.Offset = 0
	}

	req := bleve.NewSearchRequestOptions(buildQuery(params), params.Limit, params.Offset, false)
	req.SortBy([]string{"-_score", "-created_at"})

	s.mu.RLock()
	defer s.mu.RUnlock()

	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	out := &Result{Total: res.Total, Hits: make([]Hit, 0, len(res.Hits))}
	for _, h := range res.Hits {
		out.Hits = append(out.Hits, Hit{ID: h.ID, Score: h.Score})
	}
	return out, nil
}

// buildQuery ANDs the owner filter with the text and favourite clauses.
func buildQuery(params Params) query.Query {
	owner := bleve.NewTermQuery(params.UserID)
	owner.SetField("user_id")
	queries := []query.Query{owner}

	if text := strings.TrimSpace(params.Query); text != "" {
		queries = append(queries, textQuery(text))
	}

	if params.FavoritesOnly {
		fav := bleve.NewBoolFieldQuery(true)
		fav.SetField("is_favorite")
		queries = append(queries, fav)
	}

	if len(queries) == 1 {
		return queries[0]
	}
	return bleve.NewConjunctionQuery(queries...)
}

// textQuery matches any metadata field, weighting titles and artists highest.
func textQuery(text string) query.Query {
	boosts := []struct {
		field string
		boost float64
	}{
		{"composition_name", 3.0},
		{"artist_name", 2.0},
		{"artist_nickname", 2.0},
		{"file_name", 1.5},
		{"comment", 1.0},
		{"file_type", 0.5},
	}

	var qs []query.Query
	for _, b := range boosts {
		m := bleve.NewMatchQuery(text)
		m.SetField(b.field)
		m.SetBoost(b.boost)
		qs = append(qs, m)
	}

	// Typo tolerance on the title.
	fuzzy := bleve.NewFuzzyQuery(strings.ToLower(text))
	fuzzy.SetField("composition_name")
	fuzzy.SetFuzziness(1)
	fuzzy.SetBoost(0.8)
	qs = append(qs, fuzzy)

	// Prefix match for type-ahead, single words only.
	if len(text) >= 2 && !strings.ContainsAny(text, " \t") {
		for _, field := range []string{"composition_name", "artist_name"} {
			p := bleve.NewPrefixQuery(strings.ToLower(text))
			p.SetField(field)
			p.SetBoost(0.5)
			qs = append(qs, p)
		}
	}

	return bleve.NewDisjunctionQuery(qs...)
}
