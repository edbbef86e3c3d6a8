package model

import "time"

// ProjectSnapshot is a stored snapshot row: one crawl capture for one project,
// kept as raw JSON the way it arrived.
type ProjectSnapshot struct {
	ID         int64     `json:"id"`
	ProjectID  int64     `json:"project_id"`
	CapturedAt int64     `json:"captured_at"` // ms epoch, the batch timestamp
	RawJSON    []byte    `json:"raw_json"`
	CreatedAt  time.Time `json:"created_at"`
}

// BufferedSnapshot is a pending snapshot write held in the redis buffer.
type BufferedSnapshot struct {
	ProjectID  int64     `json:"project_id"`
	CapturedAt int64     `json:"captured_at"`
	RawJSON    []byte    `json:"raw_json"`
	UpdatedAt  time.Time `json:"updated_at"`
}
