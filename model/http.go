package model

type PatternsRequestBody struct {
	Labels []Label `json:"labels"`
}

type PatternsResponse struct {
	Matches []PatternMatch `json:"matches"`
}

type AnalysisSummary struct {
	ID        string `json:"id"`
	Source    string `json:"source"`
	GlobalKey string `json:"global_key"`
	NumSlots  int    `json:"num_slots"`
	NumMatch  int    `json:"num_matches"`
	CreatedAt int64  `json:"created_at"`
}

type ErrorResponse struct {
	Error string `json:"detail"`
}

// SearchResult is one stored slot whose reduced chord matched a search.
type SearchResult struct {
	AnalysisID  string  `json:"analysis_id"`
	Source      string  `json:"source"`
	SlotIndex   int     `json:"slot_index"`
	StartOffset float64 `json:"start_offset"`
}
