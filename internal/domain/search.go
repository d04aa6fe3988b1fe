package domain

type SearchFilter struct {
	Keywords   []string
	Categories []string
	Limit      int
}

type RankedInfluencer struct {
	Influencer
	Score float64 `json:"score"`
}

type SearchResult struct {
	Query    string             `json:"query"`
	Keywords []string           `json:"keywords"`
	Existing []RankedInfluencer `json:"existing"`
	External []Influencer       `json:"external"`
	Errors   []ItemResult       `json:"errors,omitempty"`
	CacheHit bool               `json:"-"`
}
