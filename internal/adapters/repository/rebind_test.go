package repository

import "testing"

func TestRebind(t *testing.T) {
	pg := &SQLStore{driver: DriverPostgres}
	lite := &SQLStore{driver: DriverSQLite}
	q := `SELECT id FROM events WHERE slug = ? AND expires_at <= ?`

	if got, want := pg.rebind(q), `SELECT id FROM events WHERE slug = $1 AND expires_at <= $2`; got != want {
		t.Errorf("postgres rebind = %q, want %q", got, want)
	}
	if got := lite.rebind(q); got != q {
		t.Errorf("sqlite rebind changed the query: %q", got)
	}
}

func TestLockEventSQL(t *testing.T) {
	pg := &SQLStore{driver: DriverPostgres}
	if got, want := pg.rebind(lockEventSQL), `SELECT id FROM events WHERE id = $1 FOR UPDATE`; got != want {
		t.Errorf("postgres lock = %q, want %q", got, want)
	}
}
