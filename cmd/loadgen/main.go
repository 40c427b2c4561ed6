package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/huddle/internal/loadgen"
)

const defaultRunTimeout = 10 * time.Minute

func main() {
	var (
		baseURL      = flag.String("url", "http://localhost:9080", "Base URL of the service")
		participants = flag.Int("participants", loadgen.DefaultParticipants, "Number of synthetic participants")
		days         = flag.Int("days", loadgen.DefaultDays, "Number of dates on the event")
		startDate    = flag.String("start-date", "", "First date, YYYY-MM-DD (default tomorrow)")
		timeStart    = flag.String("time-start", loadgen.DefaultTimeStart, "First slot of each day")
		timeEnd      = flag.String("time-end", loadgen.DefaultTimeEnd, "End of the last slot")
		slotMinutes  = flag.Int("slot-minutes", loadgen.DefaultSlotMinutes, "Slot length in minutes")
		topN         = flag.Int("top", loadgen.DefaultTopN, "Number of best times to fetch")
		minDuration  = flag.Int("min-duration", loadgen.DefaultMinDuration, "Minimum block length in slots")
		workers      = flag.Int("workers", runtime.NumCPU(), "Number of concurrent submitters")
		timeout      = flag.Duration("timeout", loadgen.DefaultTimeout, "HTTP request timeout")
		seed         = flag.Int64("seed", 0, "Generator seed; 0 picks a random one")
		outputFile   = flag.String("output", "", "Write generated submissions to this JSON file")
		logFile      = flag.String("log", "", "Also write logs to this file")
		verbose      = flag.Bool("verbose", false, "Enable verbose logging")
		help         = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		loadgen.ShowHelp()
		return
	}

	if err := loadgen.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	cfg := &loadgen.Config{
		BaseURL:      *baseURL,
		Participants: *participants,
		Days:         *days,
		StartDate:    *startDate,
		TimeStart:    *timeStart,
		TimeEnd:      *timeEnd,
		SlotMinutes:  *slotMinutes,
		TopN:         *topN,
		MinDuration:  *minDuration,
		Workers:      *workers,
		Timeout:      *timeout,
		Seed:         *seed,
		OutputFile:   *outputFile,
		Verbose:      *verbose,
	}

	if _, err := loadgen.Run(ctx, cfg); err != nil {
		os.Stderr.WriteString("Load run failed: " + err.Error() + "\n")
		cancel()
		os.Exit(1)
	}
}
