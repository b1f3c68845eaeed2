package state

import (
	"context"
	"database/sql"
	"fmt"

	"remindbot/internal/domain/registrant"
)

// SQLiteStore persists state in an embedded SQLite database. Same Store
// contract as the JSON files; useful once the registrant list outgrows
// rewrite-everything flat files.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a store over an open database and ensures the
// schema exists.
// PRE: db is a valid connection (modernc.org/sqlite driver)
// POST: Tables exist; returns the store or a schema error
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	schema := `
	CREATE TABLE IF NOT EXISTS registrant_state (
		email TEXT PRIMARY KEY,
		registered INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS reminder_sent (
		email TEXT NOT NULL,
		reminder_key TEXT NOT NULL,
		PRIMARY KEY (email, reminder_key)
	);

	CREATE TABLE IF NOT EXISTS upcoming (
		email TEXT NOT NULL,
		occurrence_date TEXT NOT NULL,
		position INTEGER NOT NULL,
		PRIMARY KEY (email, occurrence_date)
	);`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("create state schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Load reads the full snapshot.
// PRE: none
// POST: Empty tables yield an empty map
func (s *SQLiteStore) Load(ctx context.Context) (map[string]registrant.State, error) {
	states := make(map[string]registrant.State)

	rows, err := s.db.QueryContext(ctx, `SELECT email, registered FROM registrant_state`)
	if err != nil {
		return nil, fmt.Errorf("load registrant_state: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var email string
		var reg int
		if err := rows.Scan(&email, &reg); err != nil {
			return nil, fmt.Errorf("scan registrant_state: %w", err)
		}
		st := states[email]
		st.Registered = reg != 0
		states[email] = st
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	remRows, err := s.db.QueryContext(ctx, `SELECT email, reminder_key FROM reminder_sent ORDER BY email, reminder_key`)
	if err != nil {
		return nil, fmt.Errorf("load reminder_sent: %w", err)
	}
	defer remRows.Close()
	for remRows.Next() {
		var email, key string
		if err := remRows.Scan(&email, &key); err != nil {
			return nil, fmt.Errorf("scan reminder_sent: %w", err)
		}
		st := states[email]
		st.RemindersSent = append(st.RemindersSent, registrant.ReminderKey(key))
		states[email] = st
	}
	if err := remRows.Err(); err != nil {
		return nil, err
	}

	upRows, err := s.db.QueryContext(ctx, `SELECT email, occurrence_date FROM upcoming ORDER BY email, position`)
	if err != nil {
		return nil, fmt.Errorf("load upcoming: %w", err)
	}
	defer upRows.Close()
	for upRows.Next() {
		var email, date string
		if err := upRows.Scan(&email, &date); err != nil {
			return nil, fmt.Errorf("scan upcoming: %w", err)
		}
		st := states[email]
		st.Upcoming = append(st.Upcoming, date)
		states[email] = st
	}
	return states, upRows.Err()
}

// Save replaces the snapshot inside one transaction.
// PRE: states is the complete snapshot
// POST: Tables hold exactly states; readers see either the old or the new
// snapshot, never a mix
func (s *SQLiteStore) Save(ctx context.Context, states map[string]registrant.State) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin state save: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"registrant_state", "reminder_sent", "upcoming"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for email, st := range states {
		reg := 0
		if st.Registered {
			reg = 1
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO registrant_state (email, registered) VALUES (?, ?)`, email, reg); err != nil {
			return fmt.Errorf("insert registrant_state: %w", err)
		}
		for _, key := range st.RemindersSent {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO reminder_sent (email, reminder_key) VALUES (?, ?)`, email, string(key)); err != nil {
				return fmt.Errorf("insert reminder_sent: %w", err)
			}
		}
		for i, date := range st.Upcoming {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO upcoming (email, occurrence_date, position) VALUES (?, ?, ?)`, email, date, i); err != nil {
				return fmt.Errorf("insert upcoming: %w", err)
			}
		}
	}

	return tx.Commit()
}
