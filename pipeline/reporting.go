package pipeline

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"weather-pipeline/logger"
	"weather-pipeline/models"
)

// DefaultReportingLookbackDays is the default lookback window for the
// reporting stage.
const DefaultReportingLookbackDays = 30

// ReportingStats summarizes one reporting run.
type ReportingStats struct {
	SummariesRead int
	Upserted      int
}

// RunReportingRows re-projects daily summaries into the slim reporting shape
// for each day on or after the cutoff. Rows are maintained by a true upsert
// keyed (city, day); because the projection only rounds already-rounded
// summary columns, repeated runs write identical values.
func (p *Pipeline) RunReportingRows(lookbackDays int) (ReportingStats, error) {
	release, err := acquireStageLock(stageReporting)
	if err != nil {
		return ReportingStats{}, err
	}
	defer release()

	if lookbackDays <= 0 {
		lookbackDays = DefaultReportingLookbackDays
	}

	var stats ReportingStats

	cutoffDay := truncateToDay(p.now()).AddDate(0, 0, -lookbackDays)
	logger.Printf("reporting rows: window since %s", cutoffDay.Format("2006-01-02"))

	var summaries []models.DailyWeatherSummary
	if err := p.db.Where("day >= ?", cutoffDay).
		Order("city ASC, day ASC").
		Find(&summaries).Error; err != nil {
		return stats, fmt.Errorf("read daily summaries: %w", err)
	}
	if len(summaries) == 0 {
		logger.Printf("reporting rows: no daily summaries in window")
		return stats, nil
	}
	stats.SummariesRead = len(summaries)

	err = p.db.Transaction(func(tx *gorm.DB) error {
		for _, summary := range summaries {
			row := models.WeatherReportingRow{
				City:           summary.City,
				Day:            summary.Day,
				MaxTemperature: Round2(summary.MaxTemperature),
				MinTemperature: Round2(summary.MinTemperature),
				AvgWindSpeed:   Round2(summary.AvgWindSpeed),
			}
			err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "city"}, {Name: "day"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"max_temperature", "min_temperature", "avg_wind_speed",
				}),
			}).Create(&row).Error
			if err != nil {
				return fmt.Errorf("upsert reporting row %s/%s: %w",
					summary.City, summary.Day.Format("2006-01-02"), err)
			}
			stats.Upserted++
		}
		return nil
	})
	if err != nil {
		logger.Errorf("reporting rows failed: %v", err)
		return stats, err
	}

	logger.Printf("reporting rows: upserted %d rows from %d summaries",
		stats.Upserted, stats.SummariesRead)
	return stats, nil
}
