package pipeline

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"weather-pipeline/logger"
	"weather-pipeline/models"
)

// Hot-clear predicate: a reading qualifies when the temperature exceeds the
// threshold and the description mentions clear sky.
const (
	DefaultAnalyticsLookbackDays = 30
	HotDayThreshold              = 30.0
	clearDescriptionPattern      = "%clear%"
)

// AnalyticsStats summarizes one hot-clear run.
type AnalyticsStats struct {
	Matched int
	Created int
	Skipped int
}

// RunHotClearReadings materializes the filtered analytical view: one row per
// clean record in the lookback window matching the hot-clear predicate. The
// stage has no checkpoint; every run re-scans the full window and relies on
// the per-clean-record-ID guard to stay idempotent, so rows are created at
// most once and never overwritten.
func (p *Pipeline) RunHotClearReadings(lookbackDays int) (AnalyticsStats, error) {
	release, err := acquireStageLock(stageHotClear)
	if err != nil {
		return AnalyticsStats{}, err
	}
	defer release()

	if lookbackDays <= 0 {
		lookbackDays = DefaultAnalyticsLookbackDays
	}

	var stats AnalyticsStats

	cutoff := p.now().AddDate(0, 0, -lookbackDays)
	logger.Printf("hot-clear view: window since %s, temperature > %.0f",
		cutoff.Format(time.RFC3339), HotDayThreshold)

	var cleans []models.CleanWeatherRecord
	if err := p.db.Where("timestamp >= ?", cutoff).
		Where("temperature > ?", HotDayThreshold).
		Where("description LIKE ?", clearDescriptionPattern).
		Find(&cleans).Error; err != nil {
		return stats, fmt.Errorf("read clean records: %w", err)
	}
	if len(cleans) == 0 {
		logger.Printf("hot-clear view: no matching clean records")
		return stats, nil
	}
	stats.Matched = len(cleans)

	created := make([]models.HotClearReading, 0, len(cleans))
	for _, record := range cleans {
		var existing models.HotClearReading
		err := p.db.Where("clean_record_id = ?", record.ID).First(&existing).Error
		if err == nil {
			stats.Skipped++
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return stats, fmt.Errorf("check hot-clear row for clean %d: %w", record.ID, err)
		}

		created = append(created, models.HotClearReading{
			City:          record.City,
			Country:       record.Country,
			Timestamp:     record.Timestamp,
			Temperature:   record.Temperature,
			Humidity:      record.Humidity,
			WindSpeed:     record.WindSpeed,
			Description:   record.Description,
			IsHotClearDay: true, // holds by construction of the query above
			CleanRecordID: record.ID,
		})
	}

	if len(created) > 0 {
		err := p.db.Transaction(func(tx *gorm.DB) error {
			return tx.Create(&created).Error
		})
		if err != nil {
			logger.Errorf("hot-clear view failed: %v", err)
			return stats, fmt.Errorf("commit hot-clear rows: %w", err)
		}
	}
	stats.Created = len(created)

	logger.Printf("hot-clear view: %d matched, %d created, %d already present",
		stats.Matched, stats.Created, stats.Skipped)
	return stats, nil
}
