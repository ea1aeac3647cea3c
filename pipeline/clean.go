package pipeline

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"weather-pipeline/logger"
	"weather-pipeline/models"
)

// CleanStats summarizes one raw-to-clean run.
type CleanStats struct {
	RawRead       int
	Survivors     int
	Created       int
	Skipped       int
	Valid         int
	Suspect       int
	Invalid       int
	HighWaterMark time.Time
}

// RunRawToClean validates and deduplicates raw records into the clean layer,
// resuming from the raw_to_clean checkpoint.
//
// The run reads every raw record strictly after the effective checkpoint,
// deduplicates per (city, hour bucket), skips any survivor whose raw ID
// already has a clean row, validates the rest and commits the new clean rows
// as one batch. The new high-water-mark is the maximum timestamp among ALL
// raw records read, not just the survivors; otherwise records dropped by
// deduplication would be re-read forever. When no new raw records exist the
// run is a no-op and no checkpoint entry is appended.
//
// On any failure after the cutoff is resolved, a failed checkpoint entry is
// appended (high-water-mark = previous cutoff, count 0) before the error is
// returned, so operators can see the attempt. A failed run never advances
// the checkpoint; the per-raw-ID guard makes the retry safe.
func (p *Pipeline) RunRawToClean() (CleanStats, error) {
	release, err := acquireStageLock(TransformRawToClean)
	if err != nil {
		return CleanStats{}, err
	}
	defer release()

	var stats CleanStats

	cutoff, err := EffectiveCheckpoint(p.db, TransformRawToClean)
	if err != nil {
		return stats, err
	}
	logger.Printf("raw_to_clean: resuming from checkpoint %s", cutoff.Format(time.RFC3339))

	var raws []models.WeatherRecord
	if err := p.db.Where("timestamp > ?", cutoff).
		Order("timestamp ASC").
		Find(&raws).Error; err != nil {
		return stats, p.failRawToClean(cutoff, fmt.Errorf("read raw records: %w", err))
	}

	if len(raws) == 0 {
		logger.Printf("raw_to_clean: no new raw records")
		return stats, nil
	}
	stats.RawRead = len(raws)

	unique := DeduplicateHourly(raws)
	stats.Survivors = len(unique)
	logger.Debugf("raw_to_clean: %d raw records, %d after deduplication", len(raws), len(unique))

	created := make([]models.CleanWeatherRecord, 0, len(unique))
	for _, raw := range unique {
		var existing models.CleanWeatherRecord
		err := p.db.Where("raw_record_id = ?", raw.ID).First(&existing).Error
		if err == nil {
			stats.Skipped++
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return stats, p.failRawToClean(cutoff, fmt.Errorf("check clean record for raw %d: %w", raw.ID, err))
		}

		flag, notes := ValidateObservation(raw)
		switch flag {
		case models.QualityValid:
			stats.Valid++
		case models.QualitySuspect:
			stats.Suspect++
		default:
			stats.Invalid++
		}

		created = append(created, models.CleanWeatherRecord{
			City:          raw.City,
			Country:       raw.Country,
			Temperature:   raw.Temperature,
			FeelsLike:     raw.FeelsLike,
			Humidity:      raw.Humidity,
			Description:   raw.Description,
			WindSpeed:     raw.WindSpeed,
			WindDirection: raw.WindDirection,
			Pressure:      raw.Pressure,
			Visibility:    raw.Visibility,
			Timestamp:     raw.Timestamp,
			RawRecordID:   raw.ID,
			QualityFlag:   flag,
			QualityNotes:  notes,
		})
	}

	if len(created) > 0 {
		err := p.db.Transaction(func(tx *gorm.DB) error {
			return tx.Create(&created).Error
		})
		if err != nil {
			return stats, p.failRawToClean(cutoff, fmt.Errorf("commit clean records: %w", err))
		}
	}
	stats.Created = len(created)

	// raws is ordered ascending, so the high-water-mark is the last one read.
	highWaterMark := raws[len(raws)-1].Timestamp
	stats.HighWaterMark = highWaterMark

	if err := AppendCheckpoint(p.db, TransformRawToClean, highWaterMark, stats.Created, models.StatusSuccess); err != nil {
		return stats, p.failRawToClean(cutoff, err)
	}

	logger.Printf("raw_to_clean: created %d clean records (valid=%d suspect=%d invalid=%d skipped=%d), checkpoint %s",
		stats.Created, stats.Valid, stats.Suspect, stats.Invalid, stats.Skipped,
		highWaterMark.Format(time.RFC3339))
	return stats, nil
}

// failRawToClean records a failed run attempt without advancing the
// checkpoint, then hands the original error back to the caller. The caller
// (external scheduler) decides whether to retry.
func (p *Pipeline) failRawToClean(cutoff time.Time, err error) error {
	logger.Errorf("raw_to_clean failed: %v", err)
	if logErr := AppendCheckpoint(p.db, TransformRawToClean, cutoff, 0, models.StatusFailed); logErr != nil {
		logger.Errorf("raw_to_clean: could not record failed run: %v", logErr)
	}
	return err
}
