package pipeline

import (
	"strings"
	"testing"

	"weather-pipeline/models"
)

func TestValidateTemperature_Boundaries(t *testing.T) {
	cases := []struct {
		temp float64
		want string
	}{
		{60.0, models.QualityValid},
		{60.1, models.QualityInvalid},
		{50.1, models.QualitySuspect},
		{50.0, models.QualityValid},
		{-50.0, models.QualityValid},
		{-50.1, models.QualityInvalid},
		{-30.1, models.QualitySuspect},
		{-30.0, models.QualityValid},
		{22.5, models.QualityValid},
		{75.0, models.QualityInvalid},
	}
	for _, c := range cases {
		flag, note := ValidateTemperature(c.temp)
		if flag != c.want {
			t.Fatalf("temperature %.1f: expected %s, got %s", c.temp, c.want, flag)
		}
		if flag == models.QualityValid && note != "" {
			t.Fatalf("temperature %.1f: valid reading should have no note, got %q", c.temp, note)
		}
		if flag != models.QualityValid && note == "" {
			t.Fatalf("temperature %.1f: expected a reason for %s reading", c.temp, flag)
		}
	}
}

func TestValidateHumidity_Boundaries(t *testing.T) {
	cases := []struct {
		humidity int
		want     string
	}{
		{0, models.QualityValid},
		{100, models.QualityValid},
		{101, models.QualityInvalid},
		{-1, models.QualityInvalid},
		{55, models.QualityValid},
	}
	for _, c := range cases {
		flag, _ := ValidateHumidity(c.humidity)
		if flag != c.want {
			t.Fatalf("humidity %d: expected %s, got %s", c.humidity, c.want, flag)
		}
	}
}

func TestValidateObservation_WorstVerdictWins(t *testing.T) {
	record := models.WeatherRecord{Temperature: 55.0, Humidity: 150}
	flag, notes := ValidateObservation(record)
	if flag != models.QualityInvalid {
		t.Fatalf("expected invalid to dominate suspect, got %s", flag)
	}
	if !strings.Contains(notes, "; ") {
		t.Fatalf("expected both reasons joined with semicolon, got %q", notes)
	}
	if !strings.Contains(notes, "temperature") || !strings.Contains(notes, "humidity") {
		t.Fatalf("expected reasons for both fields, got %q", notes)
	}
}

func TestValidateObservation_SuspectOnly(t *testing.T) {
	record := models.WeatherRecord{Temperature: 52.0, Humidity: 40}
	flag, notes := ValidateObservation(record)
	if flag != models.QualitySuspect {
		t.Fatalf("expected suspect, got %s", flag)
	}
	if strings.Contains(notes, ";") {
		t.Fatalf("single issue should not be joined, got %q", notes)
	}
}

func TestValidateObservation_FullyValidHasEmptyNotes(t *testing.T) {
	record := models.WeatherRecord{Temperature: 25.0, Humidity: 60}
	flag, notes := ValidateObservation(record)
	if flag != models.QualityValid {
		t.Fatalf("expected valid, got %s", flag)
	}
	if notes != "" {
		t.Fatalf("expected empty notes, got %q", notes)
	}
}
