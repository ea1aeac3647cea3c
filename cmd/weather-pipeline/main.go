package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"gorm.io/gorm"

	"weather-pipeline/config"
	"weather-pipeline/database"
	"weather-pipeline/ingest"
	"weather-pipeline/logger"
	"weather-pipeline/models"
	"weather-pipeline/pipeline"
	"weather-pipeline/scheduler"
)

func main() {
	if len(os.Args) < 2 {
		showHelp()
		return
	}

	command := os.Args[1]
	if command == "help" {
		showHelp()
		return
	}

	cfg := loadConfig()
	if err := logger.Init(cfg); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer func() {
		if err := logger.Close(); err != nil {
			log.Printf("Failed to close logging: %v", err)
		}
	}()

	switch command {
	case "serve":
		serveCommand(cfg)
	case "fetch":
		if len(os.Args) < 3 {
			fmt.Println("Error: city required")
			fmt.Println("Usage: weather-pipeline fetch <city> [country_code]")
			return
		}
		countryCode := "AU"
		if len(os.Args) > 3 {
			countryCode = os.Args[3]
		}
		fetchCommand(cfg, os.Args[2], countryCode)
	case "transform":
		stage := "all"
		if len(os.Args) > 2 {
			stage = os.Args[2]
		}
		transformCommand(cfg, stage)
	case "orchestrate":
		orchestrateCommand(cfg)
	case "rebuild-clean":
		rebuildCleanCommand(cfg)
	case "db:info":
		dbInfoCommand(cfg)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		showHelp()
	}
}

func showHelp() {
	fmt.Println("Weather Pipeline - medallion weather data tool")
	fmt.Println("")
	fmt.Println("Usage: weather-pipeline <command> [arguments]")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  serve                     Run the ingest HTTP API")
	fmt.Println("  fetch <city> [country]    Fetch current weather for one city into the raw layer")
	fmt.Println("  transform [stage]         Run a transformation stage: clean, daily, analytics,")
	fmt.Println("                            reporting, or all (default all)")
	fmt.Println("  orchestrate               Run the scheduler: periodic fetch + stage cadence")
	fmt.Println("  rebuild-clean             Drop the clean layer and recompute it from raw")
	fmt.Println("  db:info                   Show database information")
	fmt.Println("  help                      Show this help message")
	fmt.Println("")
	fmt.Println("Configuration:")
	fmt.Println("  Edit config.yaml; APP_ENV (dev, uat, prod) selects the environment profile")
}

func loadConfig() *config.Config {
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	return cfg
}

func connectDatabase(cfg *config.Config) *gorm.DB {
	db, err := database.Connect(cfg)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	return db
}

func newSource(cfg *config.Config) ingest.Source {
	client, err := ingest.NewClient(cfg.Source)
	if err != nil {
		logger.Fatalf("Weather source not configured: %v", err)
	}
	return client
}

func serveCommand(cfg *config.Config) {
	db := connectDatabase(cfg)
	defer database.Close(db)

	handler := ingest.NewHandler(db, newSource(cfg))
	addr := fmt.Sprintf(":%d", cfg.APIPort)

	server := &http.Server{
		Addr:         addr,
		Handler:      handler.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		<-stop
		logger.Printf("serve: shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Errorf("serve: shutdown: %v", err)
		}
	}()

	logger.Printf("serve: listening on %s (%s environment)", addr, cfg.Environment)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("serve: %v", err)
	}
}

func fetchCommand(cfg *config.Config, city, countryCode string) {
	db := connectDatabase(cfg)
	defer database.Close(db)

	source := newSource(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	observation, err := source.CurrentWeather(ctx, city, countryCode)
	if err != nil {
		logger.Fatalf("Fetch failed for %s,%s: %v", city, countryCode, err)
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
	if err := db.Create(&record).Error; err != nil {
		logger.Fatalf("Failed to store raw record: %v", err)
	}

	logger.Printf("Stored raw record %d: %s %.1f°C, %s",
		record.ID, record.City, record.Temperature, record.Description)
}

func transformCommand(cfg *config.Config, stage string) {
	db := connectDatabase(cfg)
	defer database.Close(db)

	p := pipeline.New(db)

	runClean := func() {
		stats, err := p.RunRawToClean()
		if err != nil {
			logger.Fatalf("raw-to-clean failed: %v", err)
		}
		logger.Printf("raw-to-clean: %d read, %d created, %d skipped",
			stats.RawRead, stats.Created, stats.Skipped)
	}
	runDaily := func() {
		stats, err := p.RunDailySummaries(cfg.Pipeline.SummaryLookbackDays)
		if err != nil {
			logger.Fatalf("daily summaries failed: %v", err)
		}
		logger.Printf("daily summaries: %d created, %d updated", stats.Created, stats.Updated)
	}
	runAnalytics := func() {
		stats, err := p.RunHotClearReadings(cfg.Pipeline.AnalyticsLookbackDays)
		if err != nil {
			logger.Fatalf("hot-clear view failed: %v", err)
		}
		logger.Printf("hot-clear view: %d created", stats.Created)
	}
	runReporting := func() {
		stats, err := p.RunReportingRows(cfg.Pipeline.ReportingLookbackDays)
		if err != nil {
			logger.Fatalf("reporting rows failed: %v", err)
		}
		logger.Printf("reporting rows: %d upserted", stats.Upserted)
	}

	switch stage {
	case "clean":
		runClean()
	case "daily":
		runDaily()
	case "analytics":
		runAnalytics()
	case "reporting":
		runReporting()
	case "all":
		runClean()
		runDaily()
		runAnalytics()
		runReporting()
	default:
		fmt.Printf("Unknown stage: %s (want clean, daily, analytics, reporting or all)\n", stage)
	}
}

func orchestrateCommand(cfg *config.Config) {
	db := connectDatabase(cfg)
	defer database.Close(db)

	s := scheduler.New(db, newSource(cfg), pipeline.New(db), cfg.Scheduler, cfg.Pipeline)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := s.Run(ctx); err != nil && err != context.Canceled {
		logger.Fatalf("orchestrate: %v", err)
	}
}

func rebuildCleanCommand(cfg *config.Config) {
	db := connectDatabase(cfg)
	defer database.Close(db)

	stats, err := pipeline.New(db).RebuildClean()
	if err != nil {
		logger.Fatalf("Rebuild failed: %v", err)
	}
	logger.Printf("Rebuild complete: %d raw records reprocessed, %d clean records created",
		stats.RawRead, stats.Created)
}

func dbInfoCommand(cfg *config.Config) {
	fmt.Println("Database Information:")
	fmt.Println(strings.Repeat("=", 50))

	db := connectDatabase(cfg)
	defer database.Close(db)

	info := database.Info(db, cfg)
	fmt.Printf("Environment:       %v\n", info["environment"])
	fmt.Printf("Database Type:     %v\n", info["driver"])
	switch cfg.Database.Driver {
	case "mysql", "postgres":
		fmt.Printf("Host:              %v\n", info["host"])
		fmt.Printf("Port:              %v\n", info["port"])
		fmt.Printf("Database:          %v\n", info["database"])
	case "sqlite":
		fmt.Printf("File Path:         %v\n", info["path"])
	}

	fmt.Println("\nLayer row counts:")
	for _, layer := range []struct {
		name  string
		model any
	}{
		{"raw records", &models.WeatherRecord{}},
		{"clean records", &models.CleanWeatherRecord{}},
		{"daily summaries", &models.DailyWeatherSummary{}},
		{"hot-clear readings", &models.HotClearReading{}},
		{"reporting rows", &models.WeatherReportingRow{}},
		{"checkpoint entries", &models.TransformationLog{}},
	} {
		var count int64
		db.Model(layer.model).Count(&count)
		fmt.Printf("  %-20s %d\n", layer.name, count)
	}

	cutoff, err := pipeline.EffectiveCheckpoint(db, pipeline.TransformRawToClean)
	if err == nil {
		fmt.Printf("\nraw_to_clean checkpoint: %s\n", cutoff.Format(time.RFC3339))
	}

	fmt.Println(strings.Repeat("=", 50))
}
