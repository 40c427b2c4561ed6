package loadgen

import "time"

// Defaults used when a Config field is left zero.
const (
	DefaultParticipants = 50
	DefaultDays         = 5
	DefaultTimeStart    = "09:00"
	DefaultTimeEnd      = "17:00"
	DefaultSlotMinutes  = 30
	DefaultTopN         = 10
	DefaultMinDuration  = 1
	DefaultTimeout      = 30 * time.Second

	dateLayout           = "2006-01-02"
	progressInterval     = time.Second
	percentageMultiplier = 100
	skipOneIn            = 3 // about a third of the grid is left blank per participant
)
