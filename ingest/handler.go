package ingest

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"weather-pipeline/logger"
	"weather-pipeline/models"
)

// Handler serves the raw-layer HTTP API.
type Handler struct {
	db     *gorm.DB
	source Source
}

// NewHandler wires the raw-layer API onto the given database and weather
// source.
func NewHandler(db *gorm.DB, source Source) *Handler {
	return &Handler{db: db, source: source}
}

// Router builds the route table.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/", h.root).Methods(http.MethodGet)
	r.HandleFunc("/weather/fetch/{city}", h.fetchWeather).Methods(http.MethodPost)
	r.HandleFunc("/weather/history/{city}", h.weatherHistory).Methods(http.MethodGet)
	r.HandleFunc("/weather/latest/{city}", h.latestWeather).Methods(http.MethodGet)
	r.HandleFunc("/weather/record/{id}", h.deleteRecord).Methods(http.MethodDelete)
	return r
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Errorf("encode JSON response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{
		Error:   http.StatusText(status),
		Message: message,
	})
}

func (h *Handler) root(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"message": "weather pipeline API is running",
		"endpoints": map[string]string{
			"POST /weather/fetch/{city}":  "fetch current weather and store it",
			"GET /weather/history/{city}": "all stored raw records for a city",
			"GET /weather/latest/{city}":  "most recent raw record for a city",
			"DELETE /weather/record/{id}": "delete one raw record",
		},
	})
}

// fetchWeather pulls current conditions from the source and appends them to
// the raw layer. The optional country_code query parameter narrows the city
// lookup; it defaults to AU.
func (h *Handler) fetchWeather(w http.ResponseWriter, r *http.Request) {
	city := mux.Vars(r)["city"]
	countryCode := r.URL.Query().Get("country_code")
	if countryCode == "" {
		countryCode = "AU"
	}

	observation, err := h.source.CurrentWeather(r.Context(), city, countryCode)
	if err != nil {
		if errors.Is(err, ErrCityNotFound) {
			respondError(w, http.StatusNotFound, "weather data not found for "+city)
			return
		}
		logger.Errorf("fetch weather for %s: %v", city, err)
		respondError(w, http.StatusBadGateway, "weather source unavailable")
		return
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
	if err := h.db.Create(&record).Error; err != nil {
		logger.Errorf("store raw record for %s: %v", city, err)
		respondError(w, http.StatusInternalServerError, "could not store weather record")
		return
	}

	logger.Printf("ingest: stored raw record %d for %s (%.1f°C, %s)",
		record.ID, record.City, record.Temperature, record.Description)
	respondJSON(w, http.StatusOK, map[string]any{
		"message":     "weather data for " + record.City + " stored successfully",
		"record_id":   record.ID,
		"temperature": record.Temperature,
		"description": record.Description,
	})
}

func (h *Handler) weatherHistory(w http.ResponseWriter, r *http.Request) {
	city := mux.Vars(r)["city"]

	var records []models.WeatherRecord
	if err := h.db.Where("city = ?", city).
		Order("timestamp ASC").
		Find(&records).Error; err != nil {
		logger.Errorf("read history for %s: %v", city, err)
		respondError(w, http.StatusInternalServerError, "could not read weather records")
		return
	}
	if len(records) == 0 {
		respondError(w, http.StatusNotFound, "no weather records found for "+city)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"city":         city,
		"record_count": len(records),
		"records":      records,
	})
}

func (h *Handler) latestWeather(w http.ResponseWriter, r *http.Request) {
	city := mux.Vars(r)["city"]

	var record models.WeatherRecord
	err := h.db.Where("city = ?", city).
		Order("timestamp DESC").
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(w, http.StatusNotFound, "no weather data found for "+city)
		return
	}
	if err != nil {
		logger.Errorf("read latest for %s: %v", city, err)
		respondError(w, http.StatusInternalServerError, "could not read weather record")
		return
	}

	respondJSON(w, http.StatusOK, record)
}

// deleteRecord removes one raw record. Clean rows derived from it are kept;
// only an explicit rebuild reconciles the clean layer with raw deletions.
func (h *Handler) deleteRecord(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "record id must be numeric")
		return
	}

	var record models.WeatherRecord
	findErr := h.db.First(&record, uint(id)).Error
	if errors.Is(findErr, gorm.ErrRecordNotFound) {
		respondError(w, http.StatusNotFound, "record "+strconv.FormatUint(id, 10)+" not found")
		return
	}
	if findErr != nil {
		logger.Errorf("find record %d: %v", id, findErr)
		respondError(w, http.StatusInternalServerError, "could not read weather record")
		return
	}

	if err := h.db.Delete(&record).Error; err != nil {
		logger.Errorf("delete record %d: %v", id, err)
		respondError(w, http.StatusInternalServerError, "could not delete weather record")
		return
	}

	logger.Printf("ingest: deleted raw record %d (%s at %s)",
		record.ID, record.City, record.Timestamp.Format(time.RFC3339))
	respondJSON(w, http.StatusOK, map[string]any{
		"message": "record deleted successfully",
		"deleted_record": map[string]any{
			"id":          record.ID,
			"city":        record.City,
			"temperature": record.Temperature,
			"timestamp":   record.Timestamp,
		},
	})
}
