package db

import (
	"database/sql"
	"fmt"
	"time"
)

const searchColumns = `id, name, query, description, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSearch(row rowScanner) (*SavedSearch, error) {
	s := &SavedSearch{}
	var description sql.NullString
	var createdAt, updatedAt string
	if err := row.Scan(&s.ID, &s.Name, &s.Query, &description, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	s.Description = stringPtr(description)
	s.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	s.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return s, nil
}

func (d *DB) CreateSearch(input CreateSearchInput) (*SavedSearch, error) {
	if err := validateSearchInput(input.Name, input.Query); err != nil {
		return nil, err
	}

	id := NewID()
	now := time.Now().UTC().Truncate(time.Second)
	nowStr := now.Format(time.RFC3339)

	tx, err := d.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	err = tx.QueryRow("SELECT COUNT(*) FROM saved_searches WHERE name = ?", input.Name).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check name: %w", err)
	}
	if exists > 0 {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateName, input.Name)
	}

	_, err = tx.Exec(`INSERT INTO saved_searches (id, name, query, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id, input.Name, input.Query, nullString(input.Description), nowStr, nowStr)
	if err != nil {
		return nil, fmt.Errorf("failed to create saved search: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}

	return &SavedSearch{
		ID:          id,
		Name:        input.Name,
		Query:       input.Query,
		Description: input.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (d *DB) GetSearch(id string) (*SavedSearch, error) {
	s, err := scanSearch(d.db.QueryRow("SELECT "+searchColumns+" FROM saved_searches WHERE id = ?", id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get saved search: %w", err)
	}
	return s, nil
}

func (d *DB) FindSearchByName(name string) (*SavedSearch, error) {
	s, err := scanSearch(d.db.QueryRow("SELECT "+searchColumns+" FROM saved_searches WHERE name = ?", name))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find saved search: %w", err)
	}
	return s, nil
}

func (d *DB) UpdateSearch(id string, input UpdateSearchInput) (*SavedSearch, error) {
	existing, err := d.GetSearch(id)
	if err != nil {
		return nil, err
	}

	name := existing.Name
	query := existing.Query
	description := existing.Description
	if input.Name != nil {
		name = *input.Name
	}
	if input.Query != nil {
		query = *input.Query
	}
	if input.Description != nil {
		description = input.Description
	}
	if err := validateSearchInput(name, query); err != nil {
		return nil, err
	}

	if name != existing.Name {
		other, err := d.FindSearchByName(name)
		if err == nil && other.ID != id {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateName, name)
		}
		if err != nil && err != ErrNotFound {
			return nil, err
		}
	}

	nowStr := time.Now().UTC().Format(time.RFC3339)
	_, err = d.db.Exec(`UPDATE saved_searches SET name=?, query=?, description=?, updated_at=? WHERE id=?`,
		name, query, nullString(description), nowStr, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update saved search: %w", err)
	}

	return d.GetSearch(id)
}

func (d *DB) DeleteSearch(id string) error {
	result, err := d.db.Exec("DELETE FROM saved_searches WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete saved search: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *DB) ListSearches(opts ListOptions) ([]*SavedSearch, error) {
	query := "SELECT " + searchColumns + " FROM saved_searches"
	var args []interface{}

	if opts.NamePrefix != "" {
		query += ` WHERE name LIKE ? ESCAPE '\'`
		args = append(args, likePrefix(opts.NamePrefix))
	}
	query += " ORDER BY name"
	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", opts.Limit)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list saved searches: %w", err)
	}
	defer rows.Close()

	var searches []*SavedSearch
	for rows.Next() {
		s, err := scanSearch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan saved search: %w", err)
		}
		searches = append(searches, s)
	}
	return searches, rows.Err()
}

// ResolveID resolves a saved search ID prefix to a full ID.
// A full ULID (26 chars) must match exactly; shorter prefixes must match
// exactly one search.
func (d *DB) ResolveID(prefix string) (string, error) {
	if len(prefix) == 26 {
		var id string
		err := d.db.QueryRow("SELECT id FROM saved_searches WHERE id = ?", prefix).Scan(&id)
		if err == sql.ErrNoRows {
			return "", ErrNotFound
		}
		if err != nil {
			return "", fmt.Errorf("failed to resolve ID: %w", err)
		}
		return id, nil
	}
	if len(prefix) == 0 {
		return "", fmt.Errorf("empty ID prefix")
	}

	rows, err := d.db.Query(`SELECT id FROM saved_searches WHERE id LIKE ? ESCAPE '\' LIMIT 2`, likePrefix(prefix))
	if err != nil {
		return "", fmt.Errorf("failed to resolve ID prefix: %w", err)
	}
	defer rows.Close()

	return singleMatch(prefix, rows)
}

func singleMatch(prefix string, rows *sql.Rows) (string, error) {
	var matches []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", fmt.Errorf("failed to scan ID: %w", err)
		}
		matches = append(matches, id)
	}

	switch len(matches) {
	case 0:
		return "", ErrNotFound
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("ambiguous ID prefix %q: matches %s and %s", prefix, matches[0], matches[1])
	}
}
