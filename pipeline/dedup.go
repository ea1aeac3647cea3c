package pipeline

import (
	"time"

	"weather-pipeline/models"
)

type hourKey struct {
	City   string
	Bucket time.Time
}

// hourBucket truncates a timestamp down to the start of its wall-clock hour.
func hourBucket(ts time.Time) time.Time {
	return time.Date(ts.Year(), ts.Month(), ts.Day(), ts.Hour(), 0, 0, 0, ts.Location())
}

// DeduplicateHourly reduces raw records to at most one per (city, hour
// bucket), keeping the record whose timestamp is closest to the top of the
// hour. For a 1pm bucket, 1:03pm beats 1:58pm. Replacement requires a
// strictly smaller distance, so ties keep the record seen first and the
// result is deterministic for a fixed input order. Every output record is a
// member of the input; nothing is synthesized.
func DeduplicateHourly(records []models.WeatherRecord) []models.WeatherRecord {
	type pick struct {
		record   models.WeatherRecord
		distance time.Duration
	}

	best := make(map[hourKey]pick, len(records))
	order := make([]hourKey, 0, len(records))

	for _, record := range records {
		bucket := hourBucket(record.Timestamp)
		key := hourKey{City: record.City, Bucket: bucket}
		distance := record.Timestamp.Sub(bucket)

		existing, seen := best[key]
		if !seen {
			best[key] = pick{record: record, distance: distance}
			order = append(order, key)
			continue
		}
		if distance < existing.distance {
			best[key] = pick{record: record, distance: distance}
		}
	}

	out := make([]models.WeatherRecord, 0, len(best))
	for _, key := range order {
		out = append(out, best[key].record)
	}
	return out
}
