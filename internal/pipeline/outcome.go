package pipeline

import (
	"time"

	"github.com/goliatone/go-docbot/internal/governance"
	"github.com/goliatone/go-docbot/internal/sitepages"
)

// Action is the result of processing one document.
type Action string

const (
	ActionPublished Action = "published"
	ActionSkipped   Action = "skipped"
	ActionFailed    Action = "failed"
)

// Skip reasons.
const (
	ReasonRemoved      = "removed"
	ReasonSyncDisabled = "sync_disabled"
	ReasonNotFound     = "not_found"
	ReasonCancelled    = "cancelled"
)

// Outcome describes what happened to one document of a push.
type Outcome struct {
	DeliveryID string           `json:"delivery_id"`
	Repository string           `json:"repository"`
	Path       string           `json:"path"`
	Commit     string           `json:"commit,omitempty"`
	Action     Action           `json:"action"`
	Reason     string           `json:"reason,omitempty"`
	Title      string           `json:"title,omitempty"`
	PageAction sitepages.Action `json:"page_action,omitempty"`
	PageURL    string           `json:"page_url,omitempty"`
	PDFURL     string           `json:"pdf_url,omitempty"`
	PageCount  int              `json:"page_count,omitempty"`
	Error      string           `json:"error,omitempty"`
	Duration   time.Duration    `json:"duration"`
	FinishedAt time.Time        `json:"finished_at"`
}

// Report summarises one push.
type Report struct {
	DeliveryID   string            `json:"delivery_id"`
	Repository   string            `json:"repository"`
	ConfigSource governance.Source `json:"config_source"`
	Outcomes     []Outcome         `json:"outcomes"`
}

// Count returns how many documents ended with action.
func (r Report) Count(action Action) int {
	total := 0
	for _, outcome := range r.Outcomes {
		if outcome.Action == action {
			total++
		}
	}
	return total
}

// Subject is the event subject an outcome is published on.
func (o Outcome) Subject() string {
	return "docbot.documents." + string(o.Action)
}
