package storage

import (
	"time"

	"github.com/sw33tLie/dasha/pkg/astro"
)

// ChartRecord is a stored chart profile.
type ChartRecord struct {
	Name      string       `json:"name"`
	ChartID   string       `json:"chart_id"`
	Chart     *astro.Chart `json:"-"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// Period is one persisted node of a Dasha tree.
type Period struct {
	System string    `json:"system"`
	Track  string    `json:"track"`
	Depth  int       `json:"depth"`
	Seq    int       `json:"seq"`
	Ruler  string    `json:"ruler"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
}

// Change captures a single change event for auditing or printing.
type Change struct {
	// ID is a ULID, so ids of one process sort by creation.
	ID         string    `json:"id"`
	OccurredAt time.Time `json:"occurred_at"`
	ChartName  string    `json:"chart_name"`
	ChartID    string    `json:"chart_id"`
	ChangeType string    `json:"change_type"` // added | updated | removed
}

// SaveResult describes what SaveChart replaced.
type SaveResult struct {
	Change Change `json:"change"`
	// PreviousID is the chart id the profile had before an update, empty
	// for new profiles.
	PreviousID string `json:"previous_id,omitempty"`
	Periods    int    `json:"periods"`
	// Systems lists the systems whose periods were stored.
	Systems []string `json:"systems"`
}

// SystemStats summarizes the persisted periods of one system.
type SystemStats struct {
	System      string `json:"system"`
	ChartCount  int    `json:"chart_count"`
	PeriodCount int    `json:"period_count"`
}
