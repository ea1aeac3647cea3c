package pipeline

import (
	"fmt"
	"strings"

	"weather-pipeline/models"
)

// Validation bounds. Readings exactly at a plausible limit are accepted as
// valid; the suspect band lies strictly between the common and plausible
// limits.
const (
	TempPlausibleMin = -50.0
	TempPlausibleMax = 60.0
	TempCommonMin    = -30.0
	TempCommonMax    = 50.0

	HumidityMin = 0
	HumidityMax = 100
)

// ValidateTemperature classifies one temperature reading and returns the
// quality flag plus a human-readable reason for non-valid readings.
func ValidateTemperature(temp float64) (string, string) {
	switch {
	case temp < TempPlausibleMin || temp > TempPlausibleMax:
		return models.QualityInvalid,
			fmt.Sprintf("temperature %.1f°C is outside plausible range (%.0f to %.0f)",
				temp, TempPlausibleMin, TempPlausibleMax)
	case (temp > TempCommonMax && temp < TempPlausibleMax) ||
		(temp < TempCommonMin && temp > TempPlausibleMin):
		return models.QualitySuspect,
			fmt.Sprintf("temperature %.1f°C is extreme but possible", temp)
	default:
		return models.QualityValid, ""
	}
}

// ValidateHumidity classifies one humidity percentage.
func ValidateHumidity(humidity int) (string, string) {
	if humidity < HumidityMin || humidity > HumidityMax {
		return models.QualityInvalid,
			fmt.Sprintf("humidity %d%% is outside valid range (%d-%d)",
				humidity, HumidityMin, HumidityMax)
	}
	return models.QualityValid, ""
}

// worseFlag returns the more severe of two quality flags; invalid dominates
// suspect dominates valid.
func worseFlag(a, b string) string {
	rank := map[string]int{
		models.QualityValid:   0,
		models.QualitySuspect: 1,
		models.QualityInvalid: 2,
	}
	if rank[b] > rank[a] {
		return b
	}
	return a
}

// ValidateObservation applies every field check to one raw record. The
// overall flag is the worst field verdict; notes concatenate every non-valid
// reason with "; " and are empty for a fully valid record. Pure function, no
// side effects.
func ValidateObservation(record models.WeatherRecord) (string, string) {
	flag := models.QualityValid
	var issues []string

	tempFlag, tempNote := ValidateTemperature(record.Temperature)
	if tempFlag != models.QualityValid {
		issues = append(issues, tempNote)
		flag = worseFlag(flag, tempFlag)
	}

	humidityFlag, humidityNote := ValidateHumidity(record.Humidity)
	if humidityFlag != models.QualityValid {
		issues = append(issues, humidityNote)
		flag = worseFlag(flag, humidityFlag)
	}

	return flag, strings.Join(issues, "; ")
}
