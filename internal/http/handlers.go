package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"emergency-profile-agent/internal/config"
	"emergency-profile-agent/internal/core"
	"emergency-profile-agent/internal/db"
	"emergency-profile-agent/internal/modes"
	"emergency-profile-agent/internal/profile"
	"emergency-profile-agent/pkg"
)

// Server bundles the dependencies required by the HTTP handlers. Archive and
// Notifier may be nil when no database is configured; every handler degrades
// rather than assuming their presence.
type Server struct {
	Cfg      *config.Config
	Store    *profile.Store
	Orch     *core.Orchestrator
	Archive  *db.Archive
	Notifier *db.Notifier
	Log      zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*sessionState
}

// sessionState is everything owned by one client interaction: the
// conversation log, the disclosure gate, and a lock serialising turns.
type sessionState struct {
	mu      sync.Mutex
	session *core.Session
	gate    *profile.Gate
}

// NewServer constructs a Server.
func NewServer(cfg *config.Config, store *profile.Store, orch *core.Orchestrator, archive *db.Archive, notifier *db.Notifier, log zerolog.Logger) *Server {
	return &Server{
		Cfg:      cfg,
		Store:    store,
		Orch:     orch,
		Archive:  archive,
		Notifier: notifier,
		Log:      log,
		sessions: make(map[string]*sessionState),
	}
}

// RegisterRoutes attaches all endpoints to the echo instance.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api")
	api.POST("/sessions", s.CreateSession)
	api.POST("/sessions/:id/chat", s.Chat)
	api.POST("/sessions/:id/unlock", s.Unlock)
	api.GET("/sessions/:id/handover", s.Handover)
	api.GET("/sessions/:id/stream", s.Stream)
	api.GET("/modes", s.Modes)
	api.GET("/emergency", s.Emergency)
	api.GET("/profile", s.GetProfile)
	api.PUT("/profile", s.PutProfile)
}

// CreateSession opens a new chat session with its own disclosure gate.
func (s *Server) CreateSession(c echo.Context) error {
	id := uuid.NewString()
	s.mu.Lock()
	s.sessions[id] = &sessionState{
		session: core.NewSession(),
		gate:    profile.NewGate(s.Cfg.EmergencyPIN),
	}
	s.mu.Unlock()
	if s.Archive != nil {
		if err := s.Archive.CreateSession(c.Request().Context(), id); err != nil {
			s.Log.Warn().Err(err).Str("session", id).Msg("archive session create failed")
		}
	}
	return c.JSON(http.StatusCreated, pkg.SessionCreated{SessionID: id})
}

// Chat answers one question within a session. A second question while a turn
// is in flight gets 409; unknown modes get 400; retrieval and completion
// failures are degraded inside the orchestrator and still yield 200.
func (s *Server) Chat(c echo.Context) error {
	st := s.lookup(c.Param("id"))
	if st == nil {
		return echo.NewHTTPError(http.StatusNotFound, "unknown session")
	}
	var req pkg.ChatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Question == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "question is required")
	}

	ragEnabled := s.Cfg.RAGEnabled
	if req.RAG != nil {
		ragEnabled = *req.RAG
	}
	temperature := s.Cfg.Temperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	if temperature < 0 || temperature > 1 {
		return echo.NewHTTPError(http.StatusBadRequest, "temperature must be in [0,1]")
	}
	topK := req.TopK
	if topK == 0 {
		topK = s.Cfg.TopK
	}
	if topK < 1 || topK > 10 {
		return echo.NewHTTPError(http.StatusBadRequest, "top_k must be in [1,10]")
	}

	if !st.mu.TryLock() {
		return echo.NewHTTPError(http.StatusConflict, "a turn is already in progress")
	}
	defer st.mu.Unlock()

	res, err := s.Orch.HandleTurn(c.Request().Context(), st.session, core.TurnRequest{
		Question:         req.Question,
		ModeName:         req.Mode,
		RetrievalEnabled: ragEnabled,
		TopK:             topK,
		Rerank:           req.Rerank,
		Temperature:      temperature,
		Model:            req.Model,
		Persona:          s.Cfg.Persona,
	})
	if err != nil {
		if errors.Is(err, modes.ErrUnknownMode) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		if errors.Is(err, core.ErrTurnInFlight) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	s.archiveTurn(c.Param("id"), req.Question, res.Answer)

	resp := pkg.ChatResponse{Answer: res.Answer, Citations: make([]pkg.Citation, 0, len(res.Citations))}
	for _, p := range res.Citations {
		name := p.SourceName
		if name == "" {
			name = p.Source
		}
		resp.Citations = append(resp.Citations, pkg.Citation{
			CiteID:     p.CiteID,
			SourceName: name,
			ChunkID:    p.ChunkID,
			Preview:    previewText(p.Text),
			Score:      p.Score,
		})
	}
	return c.JSON(http.StatusOK, resp)
}

// Unlock verifies the emergency PIN against the session's disclosure gate.
// A wrong PIN is a normal 200 outcome so the client can simply re-prompt.
func (s *Server) Unlock(c echo.Context) error {
	st := s.lookup(c.Param("id"))
	if st == nil {
		return echo.NewHTTPError(http.StatusNotFound, "unknown session")
	}
	var req pkg.UnlockRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, pkg.UnlockResponse{Unlocked: st.gate.Verify(req.PIN)})
}

// Handover produces a clinician handover note for the session transcript.
func (s *Server) Handover(c echo.Context) error {
	st := s.lookup(c.Param("id"))
	if st == nil {
		return echo.NewHTTPError(http.StatusNotFound, "unknown session")
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	summary := s.Orch.SummarizeSession(c.Request().Context(), st.session, s.Cfg.Temperature, s.Cfg.ModelName)
	return c.JSON(http.StatusOK, pkg.HandoverResponse{Summary: summary})
}

// Stream pushes an SSE event each time a turn completes in the session, so a
// clinician can watch remotely without polling. Requires the database-backed
// notifier.
func (s *Server) Stream(c echo.Context) error {
	if s.Notifier == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "streaming requires a database")
	}
	sessionID := c.Param("id")
	if s.lookup(sessionID) == nil {
		return echo.NewHTTPError(http.StatusNotFound, "unknown session")
	}
	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()
	events, err := s.Notifier.Listen(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	w.Flush()
	for {
		select {
		case <-ctx.Done():
			return nil
		case id, ok := <-events:
			if !ok {
				return nil
			}
			if id != sessionID {
				continue
			}
			if _, err := fmt.Fprintf(w, "event: turn_completed\ndata: %s\n\n", id); err != nil {
				return nil
			}
			w.Flush()
		}
	}
}

// Modes lists the registered mode names in order.
func (s *Server) Modes(c echo.Context) error {
	return c.JSON(http.StatusOK, modes.List())
}

// Emergency returns the always-visible emergency view. When a session_id is
// supplied and that session's gate has been unlocked, leaflet references are
// included; otherwise they are withheld. Everything lifesaving is shown
// either way.
func (s *Server) Emergency(c echo.Context) error {
	unlocked := profile.NewGate(s.Cfg.EmergencyPIN).Unlocked()
	if id := c.QueryParam("session_id"); id != "" {
		st := s.lookup(id)
		if st == nil {
			return echo.NewHTTPError(http.StatusNotFound, "unknown session")
		}
		unlocked = st.gate.Unlocked()
	}
	p, err := s.Store.Load()
	if err != nil {
		return s.profileError(err)
	}
	return c.JSON(http.StatusOK, emergencyView(p, unlocked))
}

// GetProfile returns the full patient document.
func (s *Server) GetProfile(c echo.Context) error {
	p, err := s.Store.Load()
	if err != nil {
		return s.profileError(err)
	}
	return c.JSON(http.StatusOK, p)
}

// PutProfile replaces the patient document.
func (s *Server) PutProfile(c echo.Context) error {
	var p profile.Patient
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := s.Store.Save(&p); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, &p)
}

func (s *Server) lookup(id string) *sessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[id]
}

// archiveTurn persists a completed turn pair and notifies listeners. All of
// it is best-effort: archive failures are logged, never surfaced.
func (s *Server) archiveTurn(sessionID, question, answer string) {
	if s.Archive == nil {
		return
	}
	ctx := context.Background()
	if err := s.Archive.SaveTurn(ctx, sessionID, string(core.RoleUser), question); err != nil {
		s.Log.Warn().Err(err).Str("session", sessionID).Msg("archive user turn failed")
		return
	}
	if err := s.Archive.SaveTurn(ctx, sessionID, string(core.RoleAssistant), answer); err != nil {
		s.Log.Warn().Err(err).Str("session", sessionID).Msg("archive assistant turn failed")
		return
	}
	if s.Notifier != nil {
		if err := s.Notifier.Notify(ctx, sessionID); err != nil {
			s.Log.Warn().Err(err).Str("session", sessionID).Msg("turn notify failed")
		}
	}
}

func (s *Server) profileError(err error) error {
	if errors.Is(err, profile.ErrMalformedProfile) {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "profile unavailable")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
