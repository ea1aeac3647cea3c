package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"weather-pipeline/config"
)

var (
	infoLogger   *log.Logger
	warnLogger   *log.Logger
	errorLogger  *log.Logger
	debugLogger  *log.Logger
	logFile      *os.File
	logLevel     string
	logToConsole bool
)

// Log level constants
const (
	DEBUG = "debug"
	INFO  = "info"
	WARN  = "warn"
	ERROR = "error"
)

// Init initializes the logging system using configuration. Output goes to the
// configured log file and, when log_to_console is set, to stdout/stderr too.
func Init(cfg *config.Config) error {
	logToConsole = cfg.Logging.LogToConsole
	logLevel = cfg.Logging.LogLevel

	var err error
	logFile, err = os.OpenFile(cfg.Logging.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", cfg.Logging.LogFile, err)
	}

	var infoWriter, warnWriter, errorWriter, debugWriter io.Writer
	if logToConsole {
		infoWriter = io.MultiWriter(os.Stdout, logFile)
		warnWriter = io.MultiWriter(os.Stdout, logFile)
		debugWriter = io.MultiWriter(os.Stdout, logFile)
		errorWriter = io.MultiWriter(os.Stderr, logFile)
	} else {
		infoWriter = logFile
		warnWriter = logFile
		debugWriter = logFile
		errorWriter = logFile
	}

	infoLogger = log.New(infoWriter, "", log.LstdFlags)
	warnLogger = log.New(warnWriter, "WARN: ", log.LstdFlags)
	debugLogger = log.New(debugWriter, "DEBUG: ", log.LstdFlags)
	errorLogger = log.New(errorWriter, "ERROR: ", log.LstdFlags)

	infoLogger.Printf("=== session started at %s (env=%s) ===",
		time.Now().UTC().Format("2006-01-02 15:04:05"), cfg.Environment)
	return nil
}

// Close closes the log file
func Close() error {
	if logFile == nil {
		return nil
	}
	infoLogger.Printf("=== session ended at %s ===", time.Now().UTC().Format("2006-01-02 15:04:05"))
	err := logFile.Close()
	logFile = nil
	return err
}

func shouldLog(messageLevel string) bool {
	levels := map[string]int{
		DEBUG: 0,
		INFO:  1,
		WARN:  2,
		ERROR: 3,
	}
	current, ok := levels[logLevel]
	if !ok {
		current = levels[INFO]
	}
	level, ok := levels[messageLevel]
	if !ok {
		return true
	}
	return level >= current
}

// Printf logs at info level. Before Init it falls back to stdout so commands
// that skip log setup still produce output.
func Printf(format string, v ...any) {
	if !shouldLog(INFO) {
		return
	}
	if infoLogger != nil {
		infoLogger.Printf(format, v...)
		return
	}
	fmt.Printf(format+"\n", v...)
}

// Debugf logs at debug level.
func Debugf(format string, v ...any) {
	if !shouldLog(DEBUG) {
		return
	}
	if debugLogger != nil {
		debugLogger.Printf(format, v...)
		return
	}
	fmt.Printf("DEBUG: "+format+"\n", v...)
}

// Warnf logs at warn level.
func Warnf(format string, v ...any) {
	if !shouldLog(WARN) {
		return
	}
	if warnLogger != nil {
		warnLogger.Printf(format, v...)
		return
	}
	fmt.Printf("WARN: "+format+"\n", v...)
}

// Errorf logs at error level regardless of the configured level.
func Errorf(format string, v ...any) {
	if errorLogger != nil {
		errorLogger.Printf(format, v...)
		return
	}
	fmt.Fprintf(os.Stderr, "ERROR: "+format+"\n", v...)
}

// Fatalf logs the error, closes the log file and exits.
func Fatalf(format string, v ...any) {
	if errorLogger != nil {
		errorLogger.Printf("FATAL: "+format, v...)
	} else {
		fmt.Fprintf(os.Stderr, "FATAL: "+format+"\n", v...)
	}
	_ = Close()
	os.Exit(1)
}
