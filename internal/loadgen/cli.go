package loadgen

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/okian/huddle/pkg/logger"
)

const logFilePermission = 0o600

// SetupLogging initializes the logger, teeing output into logFile when it
// is set.
func SetupLogging(logFile string) error {
	if logFile == "" {
		return logger.Init()
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}
	if err := logger.Init(logger.WithOutput(io.MultiWriter(os.Stdout, file))); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the load generator.
func ShowHelp() {
	os.Stdout.WriteString(`Huddle Load Generator
=====================

Creates an event on a running huddle server, submits availability for a
synthetic roster and checks the served best times against a local ranking.

Usage:
  go run ./cmd/loadgen [options]

Options:
  -url string          Base URL of the service (default "http://localhost:9080")
  -participants int    Number of synthetic participants (default 50)
  -days int            Number of dates on the event (default 5)
  -start-date string   First date, YYYY-MM-DD (default tomorrow)
  -time-start string   First slot of each day (default "09:00")
  -time-end string     End of the last slot (default "17:00")
  -slot-minutes int    Slot length: 15, 30 or 60 (default 30)
  -top int             Number of best times to fetch (default 10)
  -min-duration int    Minimum block length in slots (default 1)
  -workers int         Number of concurrent submitters (default CPU cores)
  -timeout duration    HTTP request timeout (default 30s)
  -seed int            Generator seed; 0 picks a random one
  -output string       Write generated submissions to this JSON file
  -log string          Also write logs to this file
  -verbose             Log every failure and missing roster per block
  -help                Show this help message

Examples:
  go run ./cmd/loadgen -participants 200 -workers 16
  go run ./cmd/loadgen -seed 42 -output submissions.json
`)
}
