package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/huddle/internal/domain/model"
)

type memEvent struct {
	event        model.Event
	participants []model.Participant
	selections   map[string][]model.SlotSelection // participant id -> selections
}

// MemoryStore keeps everything in process memory behind one RWMutex.
type MemoryStore struct {
	mu     sync.RWMutex
	events map[string]*memEvent // slug -> event
	now    func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore(opts ...Option) *MemoryStore {
	cfg := defaultSettings()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &MemoryStore{
		events: make(map[string]*memEvent),
		now:    cfg.now,
	}
}

func (s *MemoryStore) CreateEvent(_ context.Context, ev model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[ev.Slug]; ok {
		return ErrDuplicateSlug
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = s.now().UTC()
	}
	ev.Dates = append([]string(nil), ev.Dates...)
	s.events[ev.Slug] = &memEvent{event: ev, selections: make(map[string][]model.SlotSelection)}
	return nil
}

func (s *MemoryStore) GetEvent(_ context.Context, slug string) (model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	me, ok := s.events[slug]
	if !ok {
		return model.Event{}, ErrNotFound
	}
	return copyEvent(me.event), nil
}

func (s *MemoryStore) UpsertParticipant(_ context.Context, slug string, p model.Participant) (model.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	me, ok := s.events[slug]
	if !ok {
		return model.Participant{}, ErrNotFound
	}
	for i := range me.participants {
		if me.participants[i].Name == p.Name {
			me.participants[i].Timezone = p.Timezone
			return me.participants[i], nil
		}
	}

	p.ID = uuid.NewString()
	p.EventID = me.event.ID
	p.CreatedAt = s.now().UTC()
	me.participants = append(me.participants, p)
	return p, nil
}

func (s *MemoryStore) ReplaceAvailability(_ context.Context, slug, participantID string, sel []model.SlotSelection) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	me, ok := s.events[slug]
	if !ok {
		return 0, ErrNotFound
	}
	if !me.hasParticipant(participantID) {
		return 0, ErrUnknownParticipant
	}
	clean := normalizeSelections(sel)
	me.selections[participantID] = clean
	return len(clean), nil
}

func (s *MemoryStore) ListParticipants(_ context.Context, slug string) ([]model.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	me, ok := s.events[slug]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]model.Participant{}, me.participants...), nil
}

func (s *MemoryStore) ListAvailability(_ context.Context, slug string) ([]model.AvailabilityRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	me, ok := s.events[slug]
	if !ok {
		return nil, ErrNotFound
	}
	return me.records(), nil
}

func (s *MemoryStore) Snapshot(_ context.Context, slug string) (model.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	me, ok := s.events[slug]
	if !ok {
		return model.Snapshot{}, ErrNotFound
	}
	return model.Snapshot{
		Event:        copyEvent(me.event),
		Participants: append([]model.Participant{}, me.participants...),
		Records:      me.records(),
	}, nil
}

func (s *MemoryStore) DeleteExpired(_ context.Context, now time.Time) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var slugs []string
	for slug, me := range s.events {
		if me.event.Expired(now) {
			delete(s.events, slug)
			slugs = append(slugs, slug)
		}
	}
	sort.Strings(slugs)
	return slugs, nil
}

func (s *MemoryStore) Count(context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

func (s *MemoryStore) Close() error { return nil }

func (me *memEvent) hasParticipant(id string) bool {
	for _, p := range me.participants {
		if p.ID == id {
			return true
		}
	}
	return false
}

// records must be called with the store lock held.
func (me *memEvent) records() []model.AvailabilityRecord {
	out := []model.AvailabilityRecord{}
	for _, p := range me.participants {
		for _, sel := range me.selections[p.ID] {
			out = append(out, model.AvailabilityRecord{
				ParticipantID:   p.ID,
				ParticipantName: p.Name,
				Date:            sel.Date,
				TimeSlot:        sel.TimeSlot,
				Priority:        sel.Priority,
			})
		}
	}
	return out
}

func copyEvent(ev model.Event) model.Event {
	ev.Dates = append([]string(nil), ev.Dates...)
	if ev.ExpiresAt != nil {
		t := *ev.ExpiresAt
		ev.ExpiresAt = &t
	}
	return ev
}

// normalizeSelections drops repeated (date, slot) cells, keeping the last
// priority given, and orders the rest by date then slot.
func normalizeSelections(sel []model.SlotSelection) []model.SlotSelection {
	type cell struct{ date, slot string }
	last := make(map[cell]int, len(sel))
	for i, s := range sel {
		last[cell{s.Date, s.TimeSlot}] = i
	}
	out := make([]model.SlotSelection, 0, len(last))
	for i, s := range sel {
		if last[cell{s.Date, s.TimeSlot}] == i {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].TimeSlot < out[j].TimeSlot
	})
	return out
}
