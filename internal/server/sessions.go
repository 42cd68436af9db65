package server

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/zate/searchbar/internal/builder"
	"github.com/zate/searchbar/internal/db"
)

// sessionLocks serialises load → reduce → save per session. An entry lives
// only while some request holds or waits on it.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	sync.Mutex
	refs int
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{locks: make(map[string]*sessionLock)}
}

func (l *sessionLocks) lock(id string) func() {
	l.mu.Lock()
	m, ok := l.locks[id]
	if !ok {
		m = &sessionLock{}
		l.locks[id] = m
	}
	m.refs++
	l.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		l.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}

func (l *sessionLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

type sessionView struct {
	ID            string                 `json:"id"`
	Query         string                 `json:"query"`
	FocusOverride *builder.FocusOverride `json:"focus_override"`
	Items         []builder.Item         `json:"items"`
	UpdatedAt     time.Time              `json:"updated_at"`
}

func (s *Server) reducer() builder.Reducer {
	return builder.Reducer{Config: s.parser, Now: s.now}
}

func (s *Server) sessionView(sess *db.Session, b *builder.Builder) sessionView {
	state := b.State()
	return sessionView{
		ID:            sess.ID,
		Query:         state.Query,
		FocusOverride: state.FocusOverride,
		Items:         b.Items(),
		UpdatedAt:     sess.UpdatedAt,
	}
}

func (s *Server) storeState(sess *db.Session, state builder.State) error {
	builder.Record(sess, state)
	return s.store.SaveSession(sess)
}

type createSessionRequest struct {
	Query string `json:"query"`
	// Search starts the session from a saved search (ID, prefix or name).
	Search string `json:"search,omitempty"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if r.ContentLength != 0 {
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	query := req.Query
	if req.Search != "" {
		saved, err := s.resolveSearch(req.Search)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		query = saved.Query
	}

	sess := &db.Session{Query: query}
	b := builder.New(query, s.reducer())
	if err := s.storeState(sess, b.State()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, s.sessionView(sess, b))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.GetSession(r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	b := builder.Restore(builder.StateOf(sess), s.reducer())
	writeJSON(w, http.StatusOK, s.sessionView(sess, b))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	unlock := s.locks.lock(id)
	defer unlock()

	if err := s.store.DeleteSession(id); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": id})
}

func (s *Server) handleSessionAction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var cmd builder.Command
	if err := readJSON(r, &cmd); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	unlock := s.locks.lock(id)
	defer unlock()

	sess, err := s.store.GetSession(id)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	b := builder.Restore(builder.StateOf(sess), s.reducer())
	state, err := b.Apply(cmd)
	if err != nil {
		s.log.Debugw("rejected builder command", "session", id, "action", cmd.Action, "error", err)
		writeStoreError(w, err)
		return
	}
	if err := s.storeState(sess, state); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, s.sessionView(sess, b))
}

type saveSessionRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

// handleSaveSession stores the session's current query as a saved search,
// replacing the query of an existing search with the same name.
func (s *Server) handleSaveSession(w http.ResponseWriter, r *http.Request) {
	var req saveSessionRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess, err := s.store.GetSession(r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}

	existing, err := s.store.FindSearchByName(req.Name)
	switch {
	case err == nil:
		updated, err := s.store.UpdateSearch(existing.ID, db.UpdateSearchInput{
			Query:       &sess.Query,
			Description: req.Description,
		})
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	case errors.Is(err, db.ErrNotFound):
		saved, err := s.store.CreateSearch(db.CreateSearchInput{
			Name:        req.Name,
			Query:       sess.Query,
			Description: req.Description,
		})
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, saved)
	default:
		writeStoreError(w, err)
	}
}
