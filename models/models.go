package models

import "time"

// Quality flags assigned by the raw-to-clean validation pass.
const (
	QualityValid   = "valid"
	QualitySuspect = "suspect"
	QualityInvalid = "invalid"
)

// Transformation run statuses recorded in TransformationLog.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// WeatherRecord is one raw observation as written by the ingest front-door.
// Rows are immutable once written; duplicates per (city, timestamp) are
// expected and reconciled by the raw-to-clean transform.
type WeatherRecord struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	City          string    `gorm:"index;not null;size:100" json:"city"`
	Country       string    `gorm:"size:2" json:"country"`
	Temperature   float64   `gorm:"not null" json:"temperature"`
	FeelsLike     float64   `gorm:"not null" json:"feels_like"`
	Humidity      int       `gorm:"not null" json:"humidity"`
	Description   string    `gorm:"not null;size:255" json:"description"`
	WindSpeed     float64   `gorm:"not null" json:"wind_speed"`
	WindDirection *int      `json:"wind_direction,omitempty"`
	Pressure      *int      `json:"pressure,omitempty"`
	Visibility    *int      `json:"visibility,omitempty"`
	Timestamp     time.Time `gorm:"index;not null" json:"timestamp"`
}

func (WeatherRecord) TableName() string { return "weather_records" }

// CleanWeatherRecord is one validated, deduplicated observation derived from
// exactly one WeatherRecord. The unique index on RawRecordID is the
// idempotency guard: at most one clean row ever exists per raw row.
// Rows are insert-only; only an explicit rebuild deletes them.
type CleanWeatherRecord struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	City          string    `gorm:"index;not null;size:100" json:"city"`
	Country       string    `gorm:"size:2" json:"country"`
	Temperature   float64   `gorm:"not null" json:"temperature"`
	FeelsLike     float64   `gorm:"not null" json:"feels_like"`
	Humidity      int       `gorm:"not null" json:"humidity"`
	Description   string    `gorm:"not null;size:255" json:"description"`
	WindSpeed     float64   `gorm:"not null" json:"wind_speed"`
	WindDirection *int      `json:"wind_direction,omitempty"`
	Pressure      *int      `json:"pressure,omitempty"`
	Visibility    *int      `json:"visibility,omitempty"`
	Timestamp     time.Time `gorm:"index;not null" json:"timestamp"`
	RawRecordID   uint      `gorm:"uniqueIndex;not null" json:"raw_record_id"`
	QualityFlag   string    `gorm:"index;not null;size:16" json:"quality_flag"`
	QualityNotes  string    `gorm:"type:text" json:"quality_notes,omitempty"`
}

func (CleanWeatherRecord) TableName() string { return "clean_weather_records" }

// DailyWeatherSummary is one aggregate per (city, calendar day). Day is
// midnight UTC. At most one row per (city, day), enforced by upsert.
type DailyWeatherSummary struct {
	ID                    uint      `gorm:"primaryKey" json:"id"`
	City                  string    `gorm:"uniqueIndex:idx_city_day;not null;size:100" json:"city"`
	Country               string    `gorm:"size:2" json:"country"`
	Day                   time.Time `gorm:"uniqueIndex:idx_city_day;not null" json:"day"`
	AvgTemperature        float64   `json:"avg_temperature"`
	MaxTemperature        float64   `json:"max_temperature"`
	MinTemperature        float64   `json:"min_temperature"`
	AvgHumidity           int       `json:"avg_humidity"`
	MaxHumidity           int       `json:"max_humidity"`
	MinHumidity           int       `json:"min_humidity"`
	AvgWindSpeed          float64   `json:"avg_wind_speed"`
	MostCommonDescription string    `gorm:"size:255" json:"most_common_description"`
	TotalReadings         int       `json:"total_readings"`
	ValidReadings         int       `json:"valid_readings"`
}

func (DailyWeatherSummary) TableName() string { return "daily_weather_summaries" }

// HotClearReading is the filtered analytical view: one row per clean record
// matching the hot-clear predicate. The unique index on CleanRecordID keeps
// re-scans of the lookback window from inserting twice.
type HotClearReading struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	City          string    `gorm:"index;not null;size:100" json:"city"`
	Country       string    `gorm:"size:2" json:"country"`
	Timestamp     time.Time `gorm:"index;not null" json:"timestamp"`
	Temperature   float64   `json:"temperature"`
	Humidity      int       `json:"humidity"`
	WindSpeed     float64   `json:"wind_speed"`
	Description   string    `gorm:"size:255" json:"description"`
	IsHotClearDay bool      `json:"is_hot_clear_day"`
	CleanRecordID uint      `gorm:"uniqueIndex;not null" json:"clean_record_id"`
}

func (HotClearReading) TableName() string { return "hot_clear_readings" }

// WeatherReportingRow is the slim dashboard projection of a daily summary,
// keyed (city, day) and maintained by upsert.
type WeatherReportingRow struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	City           string    `gorm:"uniqueIndex:idx_report_city_day;not null;size:100" json:"city"`
	Day            time.Time `gorm:"uniqueIndex:idx_report_city_day;not null" json:"day"`
	MaxTemperature float64   `json:"max_temperature"`
	MinTemperature float64   `json:"min_temperature"`
	AvgWindSpeed   float64   `json:"avg_wind_speed"`
}

func (WeatherReportingRow) TableName() string { return "weather_reporting_rows" }

// TransformationLog is the append-only checkpoint log. One row per run
// attempt; rows are never updated or deleted. The latest success row for a
// name is the effective checkpoint.
type TransformationLog struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	Name             string    `gorm:"index;not null;size:64" json:"name"`
	HighWaterMark    time.Time `gorm:"not null" json:"high_water_mark"`
	RunAt            time.Time `gorm:"index;not null" json:"run_at"`
	RecordsProcessed int       `json:"records_processed"`
	Status           string    `gorm:"index;not null;size:16" json:"status"`
}

func (TransformationLog) TableName() string { return "transformation_logs" }

// GetAllModels returns all models for migration
func GetAllModels() []any {
	return []any{
		&WeatherRecord{},
		&CleanWeatherRecord{},
		&DailyWeatherSummary{},
		&HotClearReading{},
		&WeatherReportingRow{},
		&TransformationLog{},
	}
}
