package repository

// Driver names accepted by NewSQLStore.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// schema is portable between sqlite and postgres. Timestamps are unix
// milliseconds so both engines compare them the same way.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY,
		slug TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		dates TEXT NOT NULL,
		time_start TEXT NOT NULL,
		time_end TEXT NOT NULL,
		slot_minutes INTEGER NOT NULL,
		timezone TEXT NOT NULL,
		expires_at BIGINT NULL,
		created_at BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_events_expires_at ON events(expires_at)`,
	`CREATE TABLE IF NOT EXISTS participants (
		id TEXT PRIMARY KEY,
		event_id TEXT NOT NULL REFERENCES events(id),
		name TEXT NOT NULL,
		timezone TEXT NOT NULL,
		join_order INTEGER NOT NULL,
		created_at BIGINT NOT NULL,
		UNIQUE (event_id, name)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_participants_event_id ON participants(event_id)`,
	`CREATE TABLE IF NOT EXISTS availability (
		participant_id TEXT NOT NULL REFERENCES participants(id),
		event_id TEXT NOT NULL REFERENCES events(id),
		date TEXT NOT NULL,
		time_slot TEXT NOT NULL,
		priority TEXT NOT NULL CHECK (priority IN ('preferred', 'available', 'if_needed')),
		PRIMARY KEY (participant_id, date, time_slot)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_availability_event_id ON availability(event_id)`,
}
