package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/zate/searchbar/internal/builder"
	"github.com/zate/searchbar/internal/db"
	"github.com/zate/searchbar/internal/search"
	"github.com/zate/searchbar/internal/view"
)

// Server is the searchbar HTTP API server.
type Server struct {
	store  db.Store
	mux    *http.ServeMux
	config Config
	parser search.Config
	now    func() time.Time
	locks  *sessionLocks
	log    *zap.SugaredLogger
}

// New creates a new Server with the given store, config and parser options.
func New(store db.Store, cfg Config, parser search.Config) *Server {
	s := &Server{
		store:  store,
		mux:    http.NewServeMux(),
		config: cfg,
		parser: parser,
		now:    time.Now,
		locks:  newSessionLocks(),
		log:    zap.S().Named("server"),
	}
	s.registerRoutes()
	s.registerWebUIRoutes()
	return s
}

// Handler returns the http.Handler with middleware applied.
func (s *Server) Handler() http.Handler {
	var handler http.Handler = s.mux
	if s.config.AdminToken != "" {
		handler = s.authMiddleware(handler)
	}
	return s.loggingMiddleware(handler)
}

// ListenAndServe starts the server. Uses TLS if configured.
func (s *Server) ListenAndServe() error {
	addr := s.config.Addr()
	handler := s.Handler()

	if s.config.HasTLS() {
		s.log.Infow("searchbar server listening", "addr", "https://"+addr)
		return http.ListenAndServeTLS(addr, s.config.TLSCert, s.config.TLSKey, handler)
	}

	s.log.Infow("searchbar server listening", "addr", "http://"+addr)
	return http.ListenAndServe(addr, handler)
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	// Parsing
	s.mux.HandleFunc("POST /api/parse", s.handleParse)
	s.mux.HandleFunc("POST /api/values/multiselect", s.handleMultiSelect)

	// Saved searches
	s.mux.HandleFunc("POST /api/searches", s.handleCreateSearch)
	s.mux.HandleFunc("GET /api/searches", s.handleListSearches)
	s.mux.HandleFunc("GET /api/searches/{id}", s.handleGetSearch)
	s.mux.HandleFunc("PATCH /api/searches/{id}", s.handleUpdateSearch)
	s.mux.HandleFunc("DELETE /api/searches/{id}", s.handleDeleteSearch)

	// Builder sessions
	s.mux.HandleFunc("POST /api/sessions", s.handleCreateSession)
	s.mux.HandleFunc("GET /api/sessions/{id}", s.handleGetSession)
	s.mux.HandleFunc("DELETE /api/sessions/{id}", s.handleDeleteSession)
	s.mux.HandleFunc("POST /api/sessions/{id}/actions", s.handleSessionAction)
	s.mux.HandleFunc("POST /api/sessions/{id}/save", s.handleSaveSession)
}

// --- Health ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- Parsing ---

type parseRequest struct {
	Query   string `json:"query"`
	Flatten *bool  `json:"flatten,omitempty"`
}

type parseResponse struct {
	Tokens  []search.Token `json:"tokens"`
	Summary *view.Summary  `json:"summary"`
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	var req parseRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	cfg := s.parser
	if req.Flatten != nil {
		cfg.FlattenParenGroups = *req.Flatten
	}
	tokens, err := search.Parse(req.Query, cfg)
	if err != nil {
		writeParseError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, parseResponse{
		Tokens:  tokens,
		Summary: view.Compose(req.Query, tokens),
	})
}

func (s *Server) handleMultiSelect(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Value string `json:"value"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	v := search.ParseMultiSelectValue(req.Value)
	if v == nil {
		writeError(w, http.StatusUnprocessableEntity, "value is not a valid list")
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// --- Saved searches ---

type createSearchRequest struct {
	Name        string  `json:"name"`
	Query       string  `json:"query"`
	Description *string `json:"description,omitempty"`
}

func (s *Server) handleCreateSearch(w http.ResponseWriter, r *http.Request) {
	var req createSearchRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := search.Parse(req.Query, s.parser); err != nil {
		writeParseError(w, err)
		return
	}

	saved, err := s.store.CreateSearch(db.CreateSearchInput{
		Name:        req.Name,
		Query:       req.Query,
		Description: req.Description,
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleListSearches(w http.ResponseWriter, r *http.Request) {
	opts := db.ListOptions{NamePrefix: r.URL.Query().Get("prefix")}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		opts.Limit = n
	}

	searches, err := s.store.ListSearches(opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if searches == nil {
		searches = []*db.SavedSearch{}
	}
	writeJSON(w, http.StatusOK, searches)
}

func (s *Server) handleGetSearch(w http.ResponseWriter, r *http.Request) {
	saved, err := s.resolveSearch(r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

type updateSearchRequest struct {
	Name        *string `json:"name,omitempty"`
	Query       *string `json:"query,omitempty"`
	Description *string `json:"description,omitempty"`
}

func (s *Server) handleUpdateSearch(w http.ResponseWriter, r *http.Request) {
	saved, err := s.resolveSearch(r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}

	var req updateSearchRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Query != nil {
		if _, err := search.Parse(*req.Query, s.parser); err != nil {
			writeParseError(w, err)
			return
		}
	}

	updated, err := s.store.UpdateSearch(saved.ID, db.UpdateSearchInput{
		Name:        req.Name,
		Query:       req.Query,
		Description: req.Description,
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteSearch(w http.ResponseWriter, r *http.Request) {
	saved, err := s.resolveSearch(r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if err := s.store.DeleteSearch(saved.ID); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": saved.ID})
}

// --- Helpers ---

// resolveSearch accepts a full ID, a unique ID prefix or a name.
func (s *Server) resolveSearch(raw string) (*db.SavedSearch, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("missing id")
	}
	id, err := s.store.ResolveID(raw)
	if errors.Is(err, db.ErrNotFound) {
		return s.store.FindSearchByName(raw)
	}
	if err != nil {
		return nil, err
	}
	return s.store.GetSearch(id)
}

func readJSON(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20)) // 1MB limit
	if err != nil {
		return fmt.Errorf("failed to read body: %w", err)
	}
	if len(body) == 0 {
		return fmt.Errorf("empty request body")
	}
	return json.Unmarshal(body, v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeParseError(w http.ResponseWriter, err error) {
	var pe search.ParseError
	if errors.As(err, &pe) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":    pe.Message,
			"position": pe.Position,
		})
		return
	}
	writeError(w, http.StatusBadRequest, err.Error())
}

func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, db.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, db.ErrDuplicateName):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, builder.ErrUnknownItem):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, builder.ErrInvalidCommand):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusBadRequest, err.Error())
	}
}
