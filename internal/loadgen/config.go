// Package loadgen drives a running huddle server with a synthetic roster
// and checks the served ranking against a local recomputation.
package loadgen

import "time"

// Config holds configuration for a load run.
type Config struct {
	BaseURL      string        // Base URL of the service
	Participants int           // Number of synthetic participants
	Days         int           // Number of consecutive dates on the event
	StartDate    string        // First date, YYYY-MM-DD
	TimeStart    string        // First slot of each day
	TimeEnd      string        // End of the last slot
	SlotMinutes  int           // Slot length
	TopN         int           // Number of best times to fetch
	MinDuration  int           // Minimum block length in slots
	Workers      int           // Number of concurrent submitters
	Timeout      time.Duration // HTTP request timeout
	Seed         int64         // Seed for the availability generator; 0 picks one
	OutputFile   string        // Where to write generated submissions; empty skips
	Verbose      bool
}

// Stats holds run statistics.
type Stats struct {
	Slug                string
	ParticipantsCreated int
	SubmissionsOK       int
	SubmissionsFailed   int
	RecomputesNotQueued int
	SlotsSubmitted      int
	RecordsFetched      int
	BestTimesFetched    int
	StartTime           time.Time
	EndTime             time.Time
	Duration            time.Duration
}
