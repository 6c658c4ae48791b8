// internal/engine/search/search.go

// Package search runs the semantic-store lookup: bilingual query fan-out
// against Elasticsearch, merged and deduplicated by source URL.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/vviyott/recall-engine/internal/common/errors"
	"github.com/vviyott/recall-engine/internal/common/logger"
	"github.com/vviyott/recall-engine/internal/engine/translate"
	"github.com/vviyott/recall-engine/internal/models"
)

const (
	// The original query carries more weight than its expansions, so it asks
	// for a deeper result page.
	originalQueryFactor = 3
	variantQueryFactor  = 2

	excerptLimit = 300

	defaultLimit = 5
	maxLimit     = 50
)

// Service executes the search_recall_cases operation.
type Service struct {
	es       *elasticsearch.Client
	index    string
	expander *translate.Expander
	log      logger.Logger
}

func New(es *elasticsearch.Client, index string, expander *translate.Expander, log logger.Logger) *Service {
	return &Service{
		es:       es,
		index:    index,
		expander: expander,
		log:      log.With(map[string]interface{}{"component": "search"}),
	}
}

// Search fans the query out across its bilingual variants, merges the hits
// with first-seen-URL deduplication and returns the top results with a
// heuristic quality estimate.
func (s *Service) Search(ctx context.Context, query string, limit int) (*models.SearchResult, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	variants := s.buildVariants(ctx, query)
	s.log.Debug("expanded search queries", map[string]interface{}{
		"original": query,
		"variants": variants,
	})

	var merged []models.SearchCase
	seen := make(map[string]bool)

	for i, variant := range variants {
		size := limit * variantQueryFactor
		if i == 0 {
			size = limit * originalQueryFactor
		}

		hits, err := s.query(ctx, variant, size)
		if err != nil {
			// One bad variant must not sink the fan-out.
			s.log.WithError(err).Warn("search variant failed", map[string]interface{}{
				"variant": variant,
			})
			continue
		}

		for _, hit := range hits {
			if hit.SourceURL == "" || seen[hit.SourceURL] {
				continue
			}
			seen[hit.SourceURL] = true
			merged = append(merged, hit)
		}
	}

	if len(merged) > limit {
		merged = merged[:limit]
	}
	if merged == nil {
		merged = []models.SearchCase{}
	}

	return &models.SearchResult{
		Cases:         merged,
		TotalFound:    len(merged),
		OriginalQuery: query,
		SearchQueries: variants,
		Quality:       EvaluateQuality(query, merged),
	}, nil
}

// buildVariants returns the distinct non-empty search queries: the original,
// the synonym-table expansions for any Korean domain terms it contains, and
// the full translation when it differs.
func (s *Service) buildVariants(ctx context.Context, query string) []string {
	candidates := append([]string{query}, translate.SynonymVariants(query)...)

	if translate.ContainsKorean(query) {
		if english := s.expander.TranslateCached(ctx, query); english != query {
			candidates = append(candidates, english)
		}
	}

	var variants []string
	seen := make(map[string]bool)
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		variants = append(variants, c)
	}
	return variants
}

// esSource is the indexed document shape.
type esSource struct {
	Content                 string `json:"content"`
	CompanyName             string `json:"company_name"`
	BrandName               string `json:"brand_name"`
	ProductType             string `json:"product_type"`
	RecallReason            string `json:"recall_reason"`
	RecallReasonDetail      string `json:"recall_reason_detail"`
	FDAPublishDate          string `json:"fda_publish_date"`
	CompanyAnnouncementDate string `json:"company_announcement_date"`
	URL                     string `json:"url"`
	ChunkIndex              int    `json:"chunk_index"`
	TotalChunks             int    `json:"total_chunks"`
}

type esResponse struct {
	Hits struct {
		Hits []struct {
			Source esSource `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (s *Service) query(ctx context.Context, text string, size int) ([]models.SearchCase, error) {
	body := map[string]interface{}{
		"size": size,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": map[string]interface{}{
					"multi_match": map[string]interface{}{
						"query": text,
						"fields": []string{
							"content", "company_name", "brand_name",
							"product_type", "recall_reason", "recall_reason_detail",
						},
					},
				},
				"filter": map[string]interface{}{
					"term": map[string]interface{}{
						"document_type": "recall",
					},
				},
			},
		},
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, errors.NewSearchQueryFailedError(text, err)
	}

	res, err := s.es.Search(
		s.es.Search.WithContext(ctx),
		s.es.Search.WithIndex(s.index),
		s.es.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, errors.NewSearchUnavailableError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, errors.NewSearchQueryFailedError(text, fmt.Errorf("search returned %s", res.Status()))
	}

	var parsed esResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, errors.NewSearchQueryFailedError(text, err)
	}

	cases := make([]models.SearchCase, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		cases = append(cases, toSearchCase(hit.Source))
	}
	return cases, nil
}

func toSearchCase(src esSource) models.SearchCase {
	totalChunks := src.TotalChunks
	if totalChunks == 0 {
		totalChunks = 1
	}
	return models.SearchCase{
		Company:            src.CompanyName,
		Brand:              src.BrandName,
		ProductType:        src.ProductType,
		RecallReason:       src.RecallReason,
		RecallReasonDetail: src.RecallReasonDetail,
		PublishDate:        src.FDAPublishDate,
		AnnouncementDate:   src.CompanyAnnouncementDate,
		SourceURL:          src.URL,
		ContentExcerpt:     excerpt(src.Content),
		ChunkIndex:         src.ChunkIndex,
		TotalChunks:        totalChunks,
	}
}

func excerpt(content string) string {
	runes := []rune(content)
	if len(runes) <= excerptLimit {
		return content
	}
	return string(runes[:excerptLimit]) + "..."
}
