package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"  // postgres driver
	_ "modernc.org/sqlite" // sqlite driver

	"github.com/okian/huddle/internal/domain/model"
	"github.com/okian/huddle/pkg/metrics"
)

const lockEventSQL = `SELECT id FROM events WHERE id = ? FOR UPDATE`

// SQLStore implements Store over database/sql.
type SQLStore struct {
	db     *sql.DB
	driver string
	now    func() time.Time
}

var _ Store = (*SQLStore)(nil)

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// NewSQLStore opens dsn with driver ("sqlite" or "postgres"), verifies the
// connection and creates the schema if needed.
func NewSQLStore(ctx context.Context, driver, dsn string, opts ...Option) (*SQLStore, error) {
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
	cfg := defaultSettings()
	for _, opt := range opts {
		opt(&cfg)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		// One connection serialises writers and keeps ":memory:" databases
		// visible to every query.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(cfg.maxOpenConns)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	s := &SQLStore{db: db, driver: driver, now: cfg.now}
	if err := s.createSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) createSchema(ctx context.Context) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, stmt := range schema {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("create schema: %w", err)
			}
		}
		return nil
	})
}

func (s *SQLStore) CreateEvent(ctx context.Context, ev model.Event) error {
	defer observe("create_event", time.Now())

	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = s.now().UTC()
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, s.rebind(`SELECT COUNT(*) FROM events WHERE slug = ?`), ev.Slug).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check slug: %w", err)
		}
		if exists > 0 {
			return ErrDuplicateSlug
		}
		_, err = tx.ExecContext(ctx, s.rebind(`
			INSERT INTO events (id, slug, name, description, dates, time_start, time_end, slot_minutes, timezone, expires_at, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
			ev.ID, ev.Slug, ev.Name, ev.Description, strings.Join(ev.Dates, ","),
			ev.TimeStart, ev.TimeEnd, ev.SlotMinutes, ev.Timezone,
			nullMillis(ev.ExpiresAt), ev.CreatedAt.UnixMilli(),
		)
		if err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
		return nil
	})
}

func (s *SQLStore) GetEvent(ctx context.Context, slug string) (model.Event, error) {
	defer observe("get_event", time.Now())
	return s.getEvent(ctx, s.db, slug)
}

func (s *SQLStore) UpsertParticipant(ctx context.Context, slug string, p model.Participant) (model.Participant, error) {
	defer observe("upsert_participant", time.Now())

	var out model.Participant
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		ev, err := s.getEvent(ctx, tx, slug)
		if err != nil {
			return err
		}
		if err := s.lockEvent(ctx, tx, ev.ID); err != nil {
			return err
		}

		var next int
		err = tx.QueryRowContext(ctx, s.rebind(`SELECT COALESCE(MAX(join_order) + 1, 0) FROM participants WHERE event_id = ?`),
			ev.ID).Scan(&next)
		if err != nil {
			return fmt.Errorf("next join order: %w", err)
		}

		// A rejoin keeps its id, join order and created_at.
		var createdAt int64
		err = tx.QueryRowContext(ctx, s.rebind(`
			INSERT INTO participants (id, event_id, name, timezone, join_order, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (event_id, name) DO UPDATE SET timezone = excluded.timezone
			RETURNING id, created_at`),
			uuid.NewString(), ev.ID, p.Name, p.Timezone, next, s.now().UTC().UnixMilli(),
		).Scan(&out.ID, &createdAt)
		if err != nil {
			return fmt.Errorf("upsert participant: %w", err)
		}

		out.EventID = ev.ID
		out.Name = p.Name
		out.Timezone = p.Timezone
		out.CreatedAt = time.UnixMilli(createdAt).UTC()
		return nil
	})
	if err != nil {
		return model.Participant{}, err
	}
	return out, nil
}

// lockEvent holds the event row until tx ends so concurrent joins on
// postgres take distinct join orders. sqlite runs on a single connection and
// needs no lock.
func (s *SQLStore) lockEvent(ctx context.Context, tx *sql.Tx, eventID string) error {
	if s.driver != DriverPostgres {
		return nil
	}
	if _, err := tx.ExecContext(ctx, s.rebind(lockEventSQL), eventID); err != nil {
		return fmt.Errorf("lock event: %w", err)
	}
	return nil
}

func (s *SQLStore) ReplaceAvailability(ctx context.Context, slug, participantID string, sel []model.SlotSelection) (int, error) {
	defer observe("replace_availability", time.Now())

	clean := normalizeSelections(sel)
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		ev, err := s.getEvent(ctx, tx, slug)
		if err != nil {
			return err
		}
		var owned int
		err = tx.QueryRowContext(ctx, s.rebind(`SELECT COUNT(*) FROM participants WHERE id = ? AND event_id = ?`),
			participantID, ev.ID).Scan(&owned)
		if err != nil {
			return fmt.Errorf("check participant: %w", err)
		}
		if owned == 0 {
			return ErrUnknownParticipant
		}

		if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM availability WHERE participant_id = ?`), participantID); err != nil {
			return fmt.Errorf("clear availability: %w", err)
		}
		insert := s.rebind(`INSERT INTO availability (participant_id, event_id, date, time_slot, priority) VALUES (?, ?, ?, ?, ?)`)
		for _, c := range clean {
			if _, err := tx.ExecContext(ctx, insert, participantID, ev.ID, c.Date, c.TimeSlot, string(c.Priority)); err != nil {
				return fmt.Errorf("insert availability: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(clean), nil
}

func (s *SQLStore) ListParticipants(ctx context.Context, slug string) ([]model.Participant, error) {
	defer observe("list_participants", time.Now())

	ev, err := s.getEvent(ctx, s.db, slug)
	if err != nil {
		return nil, err
	}
	return s.listParticipants(ctx, s.db, ev.ID)
}

func (s *SQLStore) ListAvailability(ctx context.Context, slug string) ([]model.AvailabilityRecord, error) {
	defer observe("list_availability", time.Now())

	ev, err := s.getEvent(ctx, s.db, slug)
	if err != nil {
		return nil, err
	}
	return s.listAvailability(ctx, s.db, ev.ID)
}

func (s *SQLStore) Snapshot(ctx context.Context, slug string) (model.Snapshot, error) {
	defer observe("snapshot", time.Now())

	var snap model.Snapshot
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		ev, err := s.getEvent(ctx, tx, slug)
		if err != nil {
			return err
		}
		participants, err := s.listParticipants(ctx, tx, ev.ID)
		if err != nil {
			return err
		}
		records, err := s.listAvailability(ctx, tx, ev.ID)
		if err != nil {
			return err
		}
		snap = model.Snapshot{Event: ev, Participants: participants, Records: records}
		return nil
	})
	if err != nil {
		return model.Snapshot{}, err
	}
	return snap, nil
}

func (s *SQLStore) DeleteExpired(ctx context.Context, now time.Time) ([]string, error) {
	defer observe("delete_expired", time.Now())

	var slugs []string
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, s.rebind(`
			SELECT id, slug FROM events
			WHERE expires_at IS NOT NULL AND expires_at <= ?
			ORDER BY slug`), now.UnixMilli())
		if err != nil {
			return fmt.Errorf("find expired: %w", err)
		}
		var ids []string
		for rows.Next() {
			var id, slug string
			if err := rows.Scan(&id, &slug); err != nil {
				_ = rows.Close()
				return fmt.Errorf("scan expired: %w", err)
			}
			ids = append(ids, id)
			slugs = append(slugs, slug)
		}
		if err := rows.Close(); err != nil {
			return fmt.Errorf("close expired rows: %w", err)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterate expired: %w", err)
		}

		for _, id := range ids {
			for _, stmt := range []string{
				`DELETE FROM availability WHERE event_id = ?`,
				`DELETE FROM participants WHERE event_id = ?`,
				`DELETE FROM events WHERE id = ?`,
			} {
				if _, err := tx.ExecContext(ctx, s.rebind(stmt), id); err != nil {
					return fmt.Errorf("delete expired event: %w", err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return slugs, nil
}

// Count returns the number of events, or 0 when the query fails.
func (s *SQLStore) Count(ctx context.Context) int {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&n); err != nil {
		return 0
	}
	return n
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) getEvent(ctx context.Context, q queryer, slug string) (model.Event, error) {
	var (
		ev        model.Event
		dates     string
		expiresAt sql.NullInt64
		createdAt int64
	)
	err := q.QueryRowContext(ctx, s.rebind(`
		SELECT id, slug, name, description, dates, time_start, time_end, slot_minutes, timezone, expires_at, created_at
		FROM events WHERE slug = ?`), slug).
		Scan(&ev.ID, &ev.Slug, &ev.Name, &ev.Description, &dates, &ev.TimeStart, &ev.TimeEnd,
			&ev.SlotMinutes, &ev.Timezone, &expiresAt, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Event{}, ErrNotFound
	}
	if err != nil {
		return model.Event{}, fmt.Errorf("get event: %w", err)
	}

	ev.Dates = []string{}
	if dates != "" {
		ev.Dates = strings.Split(dates, ",")
	}
	if expiresAt.Valid {
		t := time.UnixMilli(expiresAt.Int64).UTC()
		ev.ExpiresAt = &t
	}
	ev.CreatedAt = time.UnixMilli(createdAt).UTC()
	return ev, nil
}

func (s *SQLStore) listParticipants(ctx context.Context, q queryer, eventID string) ([]model.Participant, error) {
	rows, err := q.QueryContext(ctx, s.rebind(`
		SELECT id, name, timezone, created_at FROM participants
		WHERE event_id = ? ORDER BY join_order`), eventID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	out := []model.Participant{}
	for rows.Next() {
		var (
			p         model.Participant
			createdAt int64
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.Timezone, &createdAt); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		p.EventID = eventID
		p.CreatedAt = time.UnixMilli(createdAt).UTC()
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate participants: %w", err)
	}
	return out, nil
}

func (s *SQLStore) listAvailability(ctx context.Context, q queryer, eventID string) ([]model.AvailabilityRecord, error) {
	rows, err := q.QueryContext(ctx, s.rebind(`
		SELECT a.participant_id, p.name, a.date, a.time_slot, a.priority
		FROM availability a JOIN participants p ON p.id = a.participant_id
		WHERE a.event_id = ?
		ORDER BY p.join_order, a.date, a.time_slot`), eventID)
	if err != nil {
		return nil, fmt.Errorf("list availability: %w", err)
	}
	defer rows.Close()

	out := []model.AvailabilityRecord{}
	for rows.Next() {
		var (
			r        model.AvailabilityRecord
			priority string
		)
		if err := rows.Scan(&r.ParticipantID, &r.ParticipantName, &r.Date, &r.TimeSlot, &priority); err != nil {
			return nil, fmt.Errorf("scan availability: %w", err)
		}
		r.Priority = model.Priority(priority)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate availability: %w", err)
	}
	return out, nil
}

func (s *SQLStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// rebind rewrites ? placeholders to $n for postgres.
func (s *SQLStore) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

func nullMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

func observe(op string, start time.Time) {
	metrics.RecordStoreLatency(op, float64(time.Since(start).Microseconds())/1000)
}
