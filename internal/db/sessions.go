package db

import (
	"database/sql"
	"fmt"
	"time"
)

// SaveSession inserts or replaces a session. An empty ID is assigned a new
// one; UpdatedAt is always set to now.
func (d *DB) SaveSession(session *Session) error {
	if session.ID == "" {
		session.ID = NewSessionID()
	}
	session.UpdatedAt = time.Now().UTC().Truncate(time.Second)

	_, err := d.db.Exec(`INSERT INTO sessions (id, query, focus_item_key, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			query = excluded.query,
			focus_item_key = excluded.focus_item_key,
			updated_at = excluded.updated_at`,
		session.ID, session.Query, nullString(session.FocusItemKey), session.UpdatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (d *DB) GetSession(id string) (*Session, error) {
	s := &Session{}
	var focus sql.NullString
	var updatedAt string
	err := d.db.QueryRow("SELECT id, query, focus_item_key, updated_at FROM sessions WHERE id = ?", id).
		Scan(&s.ID, &s.Query, &focus, &updatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	s.FocusItemKey = stringPtr(focus)
	s.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return s, nil
}

func (d *DB) DeleteSession(id string) error {
	result, err := d.db.Exec("DELETE FROM sessions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
