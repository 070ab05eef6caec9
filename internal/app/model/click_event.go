package model

import "time"

// ClickEvent is published after a short link redirect.
type ClickEvent struct {
	ID        string    `json:"id"`
	LinkID    uint64    `json:"link_id"`
	ShortCode string    `json:"short_code"`
	IP        string    `json:"ip"`
	UserAgent string    `json:"user_agent"`
	Referer   string    `json:"referer"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	ClickStreamName     = "CLICKS"
	ClickStreamSubject  = "clicks.events"
	ClickStreamMaxBytes = 1024 * 1024 * 100 // 100MB
)
