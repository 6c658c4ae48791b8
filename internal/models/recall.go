// internal/models/recall.go
package models

// Operation identifies one of the catalog analytic functions.
type Operation string

const (
	OpCount   Operation = "count_recalls"
	OpRank    Operation = "rank_by_field"
	OpTrend   Operation = "monthly_trend"
	OpCompare Operation = "compare_periods"
	OpSearch  Operation = "search_recall_cases"
	OpExclude Operation = "filter_exclude_conditions"
)

// Operations lists every catalog operation in a stable order.
func Operations() []Operation {
	return []Operation{OpCount, OpRank, OpTrend, OpCompare, OpSearch, OpExclude}
}

// FilterSet is the normalized parameter bag shared by the catalog operations.
// At most one of RecallReason / RecallReasonDetail is populated after
// normalization; a reason that matches the pathogen/detail vocabulary is
// reclassified into RecallReasonDetail.
type FilterSet struct {
	Company            string `json:"company,omitempty"`
	Brand              string `json:"brand,omitempty"`
	ProductType        string `json:"product_type,omitempty"`
	RecallReason       string `json:"recall_reason,omitempty"`
	RecallReasonDetail string `json:"recall_reason_detail,omitempty"`
	Year               string `json:"year,omitempty"`
	Keyword            string `json:"keyword,omitempty"`
}

// IsZero reports whether no filter field is set.
func (f FilterSet) IsZero() bool {
	return f == FilterSet{}
}

// Hint is the rule-based classifier's recommendation for a question.
// It is advisory: the operation selector keeps the final say.
type Hint struct {
	Recommended  Operation `json:"recommended"`
	Advisory     string    `json:"advisory"`
	Count        int       `json:"count,omitempty"`
	Years        []string  `json:"years,omitempty"`
	ExcludeTerms []string  `json:"exclude_terms,omitempty"`
	RankField    string    `json:"rank_field,omitempty"`
	YearToken    string    `json:"year_token,omitempty"`
	IsExclude    bool      `json:"is_exclude"`
	IsCompare    bool      `json:"is_compare"`
	IsTrend      bool      `json:"is_trend"`
	IsRank       bool      `json:"is_rank"`
	IsCount      bool      `json:"is_count"`
	IsCases      bool      `json:"is_cases"`
}

// ToolCall is one operation selected for a question, with its arguments.
type ToolCall struct {
	Operation Operation              `json:"operation"`
	Args      map[string]interface{} `json:"args"`
}

// ToolResult pairs a call with its outcome. Exactly one of Result / Err is
// set; failures are captured here instead of aborting sibling calls.
type ToolResult struct {
	Operation Operation              `json:"operation"`
	Args      map[string]interface{} `json:"args"`
	Result    interface{}            `json:"result,omitempty"`
	Err       string                 `json:"error,omitempty"`
}

// Failed reports whether the call produced an error instead of a result.
func (r ToolResult) Failed() bool {
	return r.Err != ""
}

// CountResult is the payload of the count operation.
type CountResult struct {
	Count   int       `json:"count"`
	Filters FilterSet `json:"filters"`
}

// RankEntry is one row of a ranking.
type RankEntry struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// RankResult is the payload of the rank operation.
type RankResult struct {
	Ranking   []RankEntry `json:"ranking"`
	Field     string      `json:"field"`
	FieldUsed string      `json:"field_used"`
	Filters   FilterSet   `json:"filters"`
}

// TrendPoint is one month of the trend payload.
type TrendPoint struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// TrendResult is the payload of the trend operation.
type TrendResult struct {
	Trend     []TrendPoint `json:"trend"`
	Months    int          `json:"months"`
	DateBasis string       `json:"date_basis"`
	Filters   FilterSet    `json:"filters"`
}

// PeriodData holds the metric total and optional breakdowns for one period.
type PeriodData struct {
	Label      string      `json:"label"`
	Period     string      `json:"period"`
	Total      int         `json:"total"`
	TopReasons []RankEntry `json:"top_reasons,omitempty"`
	TopDetails []RankEntry `json:"top_details,omitempty"`
}

// ComparisonResult is the payload of the compare operation. ChangePercent is
// zero whenever the first period's total is zero.
type ComparisonResult struct {
	Period1       PeriodData `json:"period1"`
	Period2       PeriodData `json:"period2"`
	Change        int        `json:"change"`
	ChangePercent float64    `json:"change_percent"`
	Trend         string     `json:"trend"`
	TrendText     string     `json:"trend_description"`
	Metric        string     `json:"metric"`
}

// SearchCase is one normalized semantic-search hit, deduplicated by SourceURL.
type SearchCase struct {
	Company            string `json:"company"`
	Brand              string `json:"brand"`
	ProductType        string `json:"product_type"`
	RecallReason       string `json:"recall_reason"`
	RecallReasonDetail string `json:"recall_reason_detail"`
	PublishDate        string `json:"publish_date"`
	AnnouncementDate   string `json:"announcement_date"`
	SourceURL          string `json:"source_url"`
	ContentExcerpt     string `json:"content_excerpt"`
	ChunkIndex         int    `json:"chunk_index"`
	TotalChunks        int    `json:"total_chunks"`
}

// SearchQuality is the heuristic relevance estimate for a result set.
type SearchQuality struct {
	Score          int     `json:"score"`
	Assessment     string  `json:"assessment"`
	KeywordMatches int     `json:"keyword_matches"`
	TotalResults   int     `json:"total_results"`
	MatchRatio     float64 `json:"match_ratio"`
}

// SearchResult is the payload of the semantic search operation.
type SearchResult struct {
	Cases         []SearchCase  `json:"cases"`
	TotalFound    int           `json:"total_found"`
	OriginalQuery string        `json:"original_query"`
	SearchQueries []string      `json:"search_queries"`
	Quality       SearchQuality `json:"search_quality"`
}

// ExcludeStats holds the filtering arithmetic of the exclude operation.
// FinalFiltered is clamped at zero.
type ExcludeStats struct {
	TotalRecords   int     `json:"total_records"`
	IncludeMatches int     `json:"include_matches"`
	ExcludeMatches int     `json:"exclude_matches"`
	FinalFiltered  int     `json:"final_filtered"`
	ExclusionRate  float64 `json:"exclusion_rate"`
}

// ExcludeResult is the payload of the exclude-filter operation.
type ExcludeResult struct {
	Cases        []SearchCase `json:"filtered_cases"`
	TotalFound   int          `json:"total_found"`
	Stats        ExcludeStats `json:"statistics"`
	IncludeTerms []string     `json:"include_terms"`
	ExcludeTerms []string     `json:"exclude_terms"`
	Limit        int          `json:"limit"`
}

// ProcessingType marks how a question was answered.
type ProcessingType string

const (
	ProcessingOperations   ProcessingType = "operation-based"
	ProcessingDirectAnswer ProcessingType = "direct-answer"
	ProcessingError        ProcessingType = "error"
)

// Answer is the engine's final response for one question.
type Answer struct {
	Text           string         `json:"answer"`
	OperationCalls []ToolResult   `json:"operation_calls"`
	ProcessingType ProcessingType `json:"processing_type"`
}

// ChatTurn is one prior exchange forwarded to the decision service.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
