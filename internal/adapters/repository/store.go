// Package repository persists events, rosters and availability.
//
// Two implementations share the Store contract: MemoryStore for tests and
// single-process runs, and SQLStore over database/sql for sqlite or
// postgres. Stores hold raw inputs only; rankings are always recomputed.
package repository

import (
	"context"
	"time"

	"github.com/okian/huddle/internal/domain/model"
)

// Store provides read/write access to scheduling events.
type Store interface {
	// CreateEvent stores a new event. Returns ErrDuplicateSlug when the slug
	// is taken.
	CreateEvent(ctx context.Context, ev model.Event) error

	// GetEvent returns the event with the given slug or ErrNotFound.
	GetEvent(ctx context.Context, slug string) (model.Event, error)

	// UpsertParticipant adds p to the event roster, or updates the timezone
	// of the participant with the same name. The stored participant is
	// returned with its permanent ID.
	UpsertParticipant(ctx context.Context, slug string, p model.Participant) (model.Participant, error)

	// ReplaceAvailability atomically swaps a participant's selections for
	// the given ones and returns how many were stored.
	ReplaceAvailability(ctx context.Context, slug, participantID string, sel []model.SlotSelection) (int, error)

	// ListParticipants returns the roster in join order.
	ListParticipants(ctx context.Context, slug string) ([]model.Participant, error)

	// ListAvailability returns every record of the event, grouped by
	// participant in join order, then by date and slot.
	ListAvailability(ctx context.Context, slug string) ([]model.AvailabilityRecord, error)

	// Snapshot reads the event, its roster and its records coherently.
	Snapshot(ctx context.Context, slug string) (model.Snapshot, error)

	// DeleteExpired removes events whose expiry is at or before now and
	// returns their slugs.
	DeleteExpired(ctx context.Context, now time.Time) ([]string, error)

	// Count returns the number of stored events.
	Count(ctx context.Context) int

	// Close releases resources held by the store.
	Close() error
}
