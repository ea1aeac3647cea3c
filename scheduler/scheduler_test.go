package scheduler

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"weather-pipeline/config"
	"weather-pipeline/database"
	"weather-pipeline/ingest"
	"weather-pipeline/models"
	"weather-pipeline/pipeline"
)

func TestNextDailyRun(t *testing.T) {
	cases := []struct {
		name string
		now  time.Time
		at   string
		want time.Time
	}{
		{
			name: "later today",
			now:  time.Date(2026, 3, 10, 1, 30, 0, 0, time.UTC),
			at:   "02:00",
			want: time.Date(2026, 3, 10, 2, 0, 0, 0, time.UTC),
		},
		{
			name: "already passed rolls to tomorrow",
			now:  time.Date(2026, 3, 10, 2, 30, 0, 0, time.UTC),
			at:   "02:00",
			want: time.Date(2026, 3, 11, 2, 0, 0, 0, time.UTC),
		},
		{
			name: "exactly due rolls to tomorrow",
			now:  time.Date(2026, 3, 10, 2, 0, 0, 0, time.UTC),
			at:   "02:00",
			want: time.Date(2026, 3, 11, 2, 0, 0, 0, time.UTC),
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NextDailyRun(tc.now, tc.at)
			if err != nil {
				t.Fatal(err)
			}
			if !got.Equal(tc.want) {
				t.Fatalf("got %s, want %s", got, tc.want)
			}
		})
	}
}

func TestNextDailyRun_InvalidSpecs(t *testing.T) {
	now := time.Date(2026, 3, 10, 1, 30, 0, 0, time.UTC)
	for _, at := range []string{"", "2am", "25:00", "02:60", "02:00:00"} {
		if _, err := NextDailyRun(now, at); err == nil {
			t.Errorf("expected error for %q", at)
		}
	}
}

type mockStages struct {
	cleanRuns     int
	dailyRuns     int
	analyticsRuns int
	reportingRuns int
	cleanErr      error
}

func (m *mockStages) RunRawToClean() (pipeline.CleanStats, error) {
	m.cleanRuns++
	return pipeline.CleanStats{}, m.cleanErr
}

func (m *mockStages) RunDailySummaries(int) (pipeline.SummaryStats, error) {
	m.dailyRuns++
	return pipeline.SummaryStats{}, nil
}

func (m *mockStages) RunHotClearReadings(int) (pipeline.AnalyticsStats, error) {
	m.analyticsRuns++
	return pipeline.AnalyticsStats{}, nil
}

func (m *mockStages) RunReportingRows(int) (pipeline.ReportingStats, error) {
	m.reportingRuns++
	return pipeline.ReportingStats{}, nil
}

type stubSource struct {
	observation ingest.Observation
	err         error
	calls       int
}

func (s *stubSource) CurrentWeather(_ context.Context, city, _ string) (*ingest.Observation, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	observation := s.observation
	observation.City = city
	return &observation, nil
}

func newTestScheduler(t *testing.T, source ingest.Source, stages Stages) (*Scheduler, func() int64) {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "scheduler_test.db"))
	if err != nil {
		t.Fatal(err)
	}
	cfg := config.SchedulerConfig{
		Cities: []config.CityConfig{
			{City: "Brisbane", CountryCode: "AU"},
			{City: "Sydney", CountryCode: "AU"},
		},
		FetchIntervalMinutes: 20,
		DailyAt:              "02:00",
		ReportingAt:          "02:10",
	}
	s := New(db, source, stages, cfg, config.PipelineConfig{})
	rawCount := func() int64 {
		var count int64
		if err := db.Model(&models.WeatherRecord{}).Count(&count).Error; err != nil {
			t.Fatal(err)
		}
		return count
	}
	return s, rawCount
}

func TestRun_StartupFetchesAndCleans(t *testing.T) {
	source := &stubSource{observation: ingest.Observation{
		Country: "AU", Temperature: 25, Humidity: 50,
		Description: "clear sky", ObservedAt: time.Now().UTC(),
	}}
	stages := &mockStages{}
	s, rawCount := newTestScheduler(t, source, stages)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// Startup jobs run before the loop blocks, so a cancelled context still
	// exercises them exactly once.
	if err := s.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	if source.calls != 2 {
		t.Fatalf("expected one fetch per city, got %d", source.calls)
	}
	if rawCount() != 2 {
		t.Fatalf("expected 2 raw records, got %d", rawCount())
	}
	if stages.cleanRuns != 1 {
		t.Fatalf("expected one startup raw-to-clean run, got %d", stages.cleanRuns)
	}
	if stages.dailyRuns != 0 || stages.analyticsRuns != 0 || stages.reportingRuns != 0 {
		t.Fatalf("daily stages must not run at startup: %+v", stages)
	}
}

func TestRun_FetchFailureDoesNotAbort(t *testing.T) {
	source := &stubSource{err: errors.New("source down")}
	stages := &mockStages{}
	s, rawCount := newTestScheduler(t, source, stages)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	if source.calls != 2 {
		t.Fatalf("expected both cities attempted, got %d", source.calls)
	}
	if rawCount() != 0 {
		t.Fatalf("expected no raw records on fetch failure, got %d", rawCount())
	}
	if stages.cleanRuns != 1 {
		t.Fatalf("expected raw-to-clean to still run, got %d", stages.cleanRuns)
	}
}

func TestRun_InvalidDailyAt(t *testing.T) {
	s, _ := newTestScheduler(t, &stubSource{}, &mockStages{})
	s.cfg.DailyAt = "2am"

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := s.Run(ctx); err == nil {
		t.Fatal("expected error for invalid daily_at")
	}
}
