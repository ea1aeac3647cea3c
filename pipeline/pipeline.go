// Package pipeline implements the staged refinement of raw weather readings
// into validated, deduplicated, aggregated and reporting layers. Each stage
// is independently triggerable and idempotent: the raw-to-clean stage resumes
// from an append-only checkpoint log, the downstream stages recompute or
// insert-if-absent over a lookback window.
package pipeline

import (
	"time"

	"gorm.io/gorm"
)

// Stage names for the non-checkpointed transforms, used for advisory locking
// and log context.
const (
	stageDailySummaries = "clean_to_daily"
	stageHotClear       = "clean_to_hot_clear"
	stageReporting      = "daily_to_reporting"
)

// Pipeline runs the transformation stages against one database.
type Pipeline struct {
	db *gorm.DB
	// now supplies "today" for lookback windows; tests pin it.
	now func() time.Time
}

func New(db *gorm.DB) *Pipeline {
	return &Pipeline{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// truncateToDay returns the start of ts's UTC calendar day.
func truncateToDay(ts time.Time) time.Time {
	ts = ts.UTC()
	return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
}
