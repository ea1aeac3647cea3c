package pipeline

import (
	"testing"
	"time"

	"weather-pipeline/models"
)

func rawAt(id uint, city string, ts time.Time) models.WeatherRecord {
	return models.WeatherRecord{ID: id, City: city, Timestamp: ts, Humidity: 50, Temperature: 20}
}

func TestDeduplicateHourly_KeepsClosestToTopOfHour(t *testing.T) {
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	records := []models.WeatherRecord{
		rawAt(1, "Brisbane", day.Add(13*time.Hour+58*time.Minute)),
		rawAt(2, "Brisbane", day.Add(13*time.Hour+3*time.Minute)),
	}

	out := DeduplicateHourly(records)
	if len(out) != 1 {
		t.Fatalf("expected 1 record, got %d", len(out))
	}
	if out[0].ID != 2 {
		t.Fatalf("expected 13:03 reading kept, got id %d", out[0].ID)
	}
}

func TestDeduplicateHourly_TieKeepsFirstSeen(t *testing.T) {
	hour := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	records := []models.WeatherRecord{
		rawAt(7, "Sydney", hour.Add(10*time.Minute)),
		rawAt(8, "Sydney", hour.Add(10*time.Minute)),
	}

	out := DeduplicateHourly(records)
	if len(out) != 1 {
		t.Fatalf("expected 1 record, got %d", len(out))
	}
	if out[0].ID != 7 {
		t.Fatalf("expected first-seen record on tie, got id %d", out[0].ID)
	}
}

func TestDeduplicateHourly_DistinctBucketsAndCitiesSurvive(t *testing.T) {
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	records := []models.WeatherRecord{
		rawAt(1, "Brisbane", day.Add(9*time.Hour+2*time.Minute)),
		rawAt(2, "Brisbane", day.Add(10*time.Hour+2*time.Minute)),
		rawAt(3, "Sydney", day.Add(9*time.Hour+2*time.Minute)),
	}

	out := DeduplicateHourly(records)
	if len(out) != 3 {
		t.Fatalf("expected all 3 records kept, got %d", len(out))
	}
}

func TestDeduplicateHourly_OutputIsSubsetOfInput(t *testing.T) {
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	records := []models.WeatherRecord{
		rawAt(1, "Perth", day.Add(14*time.Hour+5*time.Minute)),
		rawAt(2, "Perth", day.Add(14*time.Hour+45*time.Minute)),
		rawAt(3, "Perth", day.Add(14*time.Hour+20*time.Minute)),
	}
	inputIDs := map[uint]bool{1: true, 2: true, 3: true}

	out := DeduplicateHourly(records)
	if len(out) != 1 {
		t.Fatalf("expected 1 record, got %d", len(out))
	}
	if !inputIDs[out[0].ID] {
		t.Fatalf("output record %d not a member of the input", out[0].ID)
	}
	if out[0].ID != 1 {
		t.Fatalf("expected 14:05 reading (closest to bucket start), got id %d", out[0].ID)
	}
}

func TestDeduplicateHourly_EmptyInput(t *testing.T) {
	if out := DeduplicateHourly(nil); len(out) != 0 {
		t.Fatalf("expected empty output, got %d records", len(out))
	}
}
