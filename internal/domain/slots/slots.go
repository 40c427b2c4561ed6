// Package slots formats the canonical slot labels of an event day and
// generates share slugs. It is a formatting concern only; the ranking engine
// treats its output as an opaque ordered list.
package slots

import (
	"fmt"
	"strconv"
	"time"
)

const (
	minutesPerHour = 60
	minutesPerDay  = 24 * minutesPerHour
	clockLen       = len("15:04")
	dateLayout     = "2006-01-02"
)

// Generate returns HH:MM labels from start (inclusive) to end (exclusive)
// stepping slotMinutes. An end at or before start yields an empty list.
func Generate(start, end string, slotMinutes int) ([]string, error) {
	if slotMinutes <= 0 {
		return nil, fmt.Errorf("%w: slot minutes %d", ErrInvalidStep, slotMinutes)
	}
	from, err := parseClock(start)
	if err != nil {
		return nil, err
	}
	to, err := parseClock(end)
	if err != nil {
		return nil, err
	}

	labels := make([]string, 0, max(0, (to-from+slotMinutes-1)/slotMinutes))
	for m := from; m < to; m += slotMinutes {
		labels = append(labels, formatClock(m))
	}
	return labels, nil
}

// ValidClock reports whether s is a well-formed HH:MM label. 24:00 is
// accepted as an end-of-day marker.
func ValidClock(s string) bool {
	_, err := parseClock(s)
	return err == nil
}

// ValidDate reports whether s is a real calendar date in YYYY-MM-DD form.
func ValidDate(s string) bool {
	if len(s) != len(dateLayout) {
		return false
	}
	_, err := time.Parse(dateLayout, s)
	return err == nil
}

// parseClock converts HH:MM into minutes since midnight.
func parseClock(s string) (int, error) {
	if len(s) != clockLen || s[2] != ':' || !digits(s[:2]) || !digits(s[3:]) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	h, err := strconv.Atoi(s[:2])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	m, err := strconv.Atoi(s[3:])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	total := h*minutesPerHour + m
	if h < 0 || m < 0 || m >= minutesPerHour || total > minutesPerDay {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	return total, nil
}

func digits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func formatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/minutesPerHour, minutes%minutesPerHour)
}
