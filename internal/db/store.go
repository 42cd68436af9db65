package db

import (
	"crypto/rand"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// Store is the interface for all database operations. Both SQLite (local) and
// PostgreSQL (remote server) backends implement this interface.
type Store interface {
	// Close closes the database connection.
	Close() error

	// --- Saved searches ---

	CreateSearch(input CreateSearchInput) (*SavedSearch, error)
	GetSearch(id string) (*SavedSearch, error)
	FindSearchByName(name string) (*SavedSearch, error)
	UpdateSearch(id string, input UpdateSearchInput) (*SavedSearch, error)
	DeleteSearch(id string) error
	ListSearches(opts ListOptions) ([]*SavedSearch, error)
	ResolveID(prefix string) (string, error)

	// --- Builder sessions ---

	SaveSession(session *Session) error
	GetSession(id string) (*Session, error)
	DeleteSession(id string) error
}

// The saved search every new database starts with.
const (
	DefaultSearchName        = "unresolved"
	DefaultSearchQuery       = "is:unresolved"
	DefaultSearchDescription = "Issues that still need attention"
)

type SavedSearch struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Query       string    `json:"query"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type CreateSearchInput struct {
	Name        string
	Query       string
	Description *string
}

type UpdateSearchInput struct {
	Name        *string
	Query       *string
	Description *string
}

type ListOptions struct {
	NamePrefix string
	Limit      int
}

// Session is the persisted state of a query builder: the query text and
// the item the editor should focus next.
type Session struct {
	ID           string    `json:"id"`
	Query        string    `json:"query"`
	FocusItemKey *string   `json:"focus_item_key,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func NewID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}

func NewSessionID() string {
	return uuid.NewString()
}

// likePrefix escapes LIKE wildcards in s and appends %. Queries using it
// declare ESCAPE '\'.
func likePrefix(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s) + "%"
}

func validateSearchInput(name, query string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if strings.ContainsAny(name, " \t\n") {
		return fmt.Errorf("name cannot contain whitespace: %q", name)
	}
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("query cannot be empty")
	}
	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}
