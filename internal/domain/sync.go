package domain

import "time"

type SyncState string

const (
	StateSelectTerms     SyncState = "select_terms"
	StateResolveChannels SyncState = "resolve_channels"
	StateFetchVideos     SyncState = "fetch_videos"
	StateAggregate       SyncState = "aggregate"
	StateDeduplicate     SyncState = "deduplicate"
	StatePersist         SyncState = "persist"
	StateDone            SyncState = "done"
	StateFailed          SyncState = "failed"
)

type ItemStatus string

const (
	StatusSuccess ItemStatus = "success"
	StatusSkipped ItemStatus = "skipped"
	StatusFailed  ItemStatus = "failed"
)

// ItemResult records the outcome for one term, channel or record of a run.
type ItemResult struct {
	Stage   string     `json:"stage"`
	Subject string     `json:"subject"`
	Status  ItemStatus `json:"status"`
	Error   string     `json:"error,omitempty"`
	Message string     `json:"message,omitempty"`
}

type SyncSummary struct {
	TermsSearched    int   `json:"terms_searched"`
	ChannelsResolved int   `json:"channels_resolved"`
	Duplicates       int   `json:"duplicates"`
	FailedItems      int   `json:"failed_items"`
	ProcessingTimeMs int64 `json:"processing_time_ms"`
}

type SyncResult struct {
	RunID      string       `json:"run_id"`
	State      SyncState    `json:"state"`
	FailedIn   SyncState    `json:"failed_in,omitempty"`
	Count      int          `json:"count"`
	Terms      []string     `json:"terms"`
	Errors     []string     `json:"errors"`
	Items      []ItemResult `json:"items"`
	Summary    SyncSummary  `json:"summary"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
}
