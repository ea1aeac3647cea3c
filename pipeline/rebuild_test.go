package pipeline

import (
	"testing"
	"time"

	"weather-pipeline/models"
)

func TestRebuildClean_ReprocessesAllRawHistory(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	p, db := newTestPipeline(t, now)

	day := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	seedRaw(t, db, "Brisbane", day.Add(9*time.Hour), 24, 55, "clear sky")
	seedRaw(t, db, "Brisbane", day.Add(10*time.Hour), 25, 56, "few clouds")

	if _, err := p.RunRawToClean(); err != nil {
		t.Fatal(err)
	}

	// A raw correction after the fact: fix a bad reading in place.
	if err := db.Model(&models.WeatherRecord{}).
		Where("city = ? AND temperature = ?", "Brisbane", 24.0).
		Update("temperature", 23.0).Error; err != nil {
		t.Fatal(err)
	}

	stats, err := p.RebuildClean()
	if err != nil {
		t.Fatal(err)
	}
	if stats.RawRead != 2 || stats.Created != 2 {
		t.Fatalf("expected full reprocess, got %+v", stats)
	}

	var cleans []models.CleanWeatherRecord
	if err := db.Order("timestamp ASC").Find(&cleans).Error; err != nil {
		t.Fatal(err)
	}
	if len(cleans) != 2 {
		t.Fatalf("expected 2 clean records after rebuild, got %d", len(cleans))
	}
	if cleans[0].Temperature != 23.0 {
		t.Fatalf("expected rebuild to pick up corrected raw value, got %v", cleans[0].Temperature)
	}

	// Only one checkpoint entry remains: the rebuild's own success.
	var entries []models.TransformationLog
	if err := db.Where("name = ?", TransformRawToClean).Find(&entries).Error; err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Status != models.StatusSuccess {
		t.Fatalf("unexpected checkpoint history after rebuild: %+v", entries)
	}
}
