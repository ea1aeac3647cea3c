package pipeline

import (
	"path/filepath"
	"testing"
	"time"

	"gorm.io/gorm"

	"weather-pipeline/database"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "weather_test.db"))
	if err != nil {
		t.Fatal(err)
	}
	return db
}

// newTestPipeline returns a pipeline with "today" pinned so lookback windows
// are deterministic.
func newTestPipeline(t *testing.T, now time.Time) (*Pipeline, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	p := New(db)
	p.now = func() time.Time { return now }
	return p, db
}
