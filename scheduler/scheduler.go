// Package scheduler drives the pipeline: it fetches weather for the
// configured cities on an interval and runs the transformation stages on
// their cadence. Stage failures are logged and the loop continues; the next
// run picks up where the failed one left off because each stage is idempotent.
package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"weather-pipeline/config"
	"weather-pipeline/ingest"
	"weather-pipeline/logger"
	"weather-pipeline/models"
	"weather-pipeline/pipeline"
)

// Stages is the subset of pipeline entry points the scheduler drives.
// *pipeline.Pipeline satisfies it.
type Stages interface {
	RunRawToClean() (pipeline.CleanStats, error)
	RunDailySummaries(lookbackDays int) (pipeline.SummaryStats, error)
	RunHotClearReadings(lookbackDays int) (pipeline.AnalyticsStats, error)
	RunReportingRows(lookbackDays int) (pipeline.ReportingStats, error)
}

// Scheduler owns the fetch loop and the stage cadence.
type Scheduler struct {
	db       *gorm.DB
	source   ingest.Source
	stages   Stages
	cfg      config.SchedulerConfig
	lookback config.PipelineConfig

	now func() time.Time
}

func New(db *gorm.DB, source ingest.Source, stages Stages, cfg config.SchedulerConfig, lookback config.PipelineConfig) *Scheduler {
	return &Scheduler{
		db:       db,
		source:   source,
		stages:   stages,
		cfg:      cfg,
		lookback: lookback,
		now:      time.Now,
	}
}

// Run executes the startup jobs, then loops until the context is cancelled:
// fetch every FetchIntervalMinutes, raw-to-clean hourly, daily summaries at
// DailyAt, filtered view and reporting at ReportingAt.
func (s *Scheduler) Run(ctx context.Context) error {
	fetchInterval := time.Duration(s.cfg.FetchIntervalMinutes) * time.Minute

	logger.Printf("scheduler: started, fetching %d cities every %s",
		len(s.cfg.Cities), fetchInterval)

	// Run once on startup so new deployments do not wait a full interval.
	s.fetchAllCities(ctx)
	s.runRawToClean()

	now := s.now()
	nextFetch := now.Add(fetchInterval)
	nextClean := now.Add(time.Hour)
	nextDaily, err := NextDailyRun(now, s.cfg.DailyAt)
	if err != nil {
		return fmt.Errorf("parse daily_at: %w", err)
	}
	nextReporting, err := NextDailyRun(now, s.cfg.ReportingAt)
	if err != nil {
		return fmt.Errorf("parse reporting_at: %w", err)
	}

	for {
		next := earliest(nextFetch, nextClean, nextDaily, nextReporting)
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Printf("scheduler: stopping")
			return ctx.Err()
		case <-timer.C:
		}

		now = s.now()
		if !now.Before(nextFetch) {
			s.fetchAllCities(ctx)
			nextFetch = now.Add(fetchInterval)
		}
		if !now.Before(nextClean) {
			s.runRawToClean()
			nextClean = now.Add(time.Hour)
		}
		if !now.Before(nextDaily) {
			s.runDailySummaries()
			nextDaily, _ = NextDailyRun(now, s.cfg.DailyAt)
		}
		if !now.Before(nextReporting) {
			s.runAnalyticsAndReporting()
			nextReporting, _ = NextDailyRun(now, s.cfg.ReportingAt)
		}
	}
}

// NextDailyRun returns the first instant strictly after now whose wall clock
// matches the HH:MM spec (today if still ahead, otherwise tomorrow).
func NextDailyRun(now time.Time, at string) (time.Time, error) {
	hour, minute, err := parseClock(at)
	if err != nil {
		return time.Time{}, err
	}
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next, nil
}

func parseClock(at string) (hour, minute int, err error) {
	parts := strings.Split(at, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid HH:MM time %q", at)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", at)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", at)
	}
	return hour, minute, nil
}

func earliest(times ...time.Time) time.Time {
	min := times[0]
	for _, t := range times[1:] {
		if t.Before(min) {
			min = t
		}
	}
	return min
}

// fetchAllCities pulls current conditions for every configured city and
// appends them to the raw layer. Per-city failures are logged and skipped.
func (s *Scheduler) fetchAllCities(ctx context.Context) {
	var ok, failed int
	for _, city := range s.cfg.Cities {
		if err := s.fetchCity(ctx, city); err != nil {
			logger.Errorf("scheduler: fetch %s,%s: %v", city.City, city.CountryCode, err)
			failed++
			continue
		}
		ok++
	}
	logger.Printf("scheduler: fetch batch complete, %d stored, %d failed", ok, failed)
}

func (s *Scheduler) fetchCity(ctx context.Context, city config.CityConfig) error {
	callCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	observation, err := s.source.CurrentWeather(callCtx, city.City, city.CountryCode)
	if err != nil {
		return err
	}

	record := models.WeatherRecord{
		City:          observation.City,
		Country:       observation.Country,
		Temperature:   observation.Temperature,
		FeelsLike:     observation.FeelsLike,
		Humidity:      observation.Humidity,
		Description:   observation.Description,
		WindSpeed:     observation.WindSpeed,
		WindDirection: observation.WindDirection,
		Pressure:      observation.Pressure,
		Visibility:    observation.Visibility,
		Timestamp:     observation.ObservedAt,
	}
	if err := s.db.Create(&record).Error; err != nil {
		return fmt.Errorf("store raw record: %w", err)
	}
	logger.Debugf("scheduler: stored raw record %d for %s (%.1f°C)",
		record.ID, record.City, record.Temperature)
	return nil
}

func (s *Scheduler) runRawToClean() {
	if _, err := s.stages.RunRawToClean(); err != nil {
		logger.Errorf("scheduler: raw-to-clean run failed: %v", err)
	}
}

func (s *Scheduler) runDailySummaries() {
	if _, err := s.stages.RunDailySummaries(s.lookback.SummaryLookbackDays); err != nil {
		logger.Errorf("scheduler: daily summary run failed: %v", err)
	}
}

// runAnalyticsAndReporting runs both post-summary stages; a failure in one
// does not stop the other.
func (s *Scheduler) runAnalyticsAndReporting() {
	if _, err := s.stages.RunHotClearReadings(s.lookback.AnalyticsLookbackDays); err != nil {
		logger.Errorf("scheduler: hot-clear run failed: %v", err)
	}
	if _, err := s.stages.RunReportingRows(s.lookback.ReportingLookbackDays); err != nil {
		logger.Errorf("scheduler: reporting run failed: %v", err)
	}
}
