package structs

import "time"

type FetchLog struct {
	ID         int       `json:"id"`
	SessionID  string    `json:"session_id"`
	Generation uint64    `json:"generation"`
	StatusCode int       `json:"status_code"`
	Count      int       `json:"count"`
	Committed  bool      `json:"committed"`
	Error      string    `json:"error,omitempty"`
	DurationMs int64     `json:"duration_ms"`
	CatIDs     []CatID   `json:"cat_ids"`
	CreatedAt  time.Time `json:"created_at"`
}
