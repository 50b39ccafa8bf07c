// Package server is the HTTP boundary: it issues session keys, routes
// chat requests to the session store, and renders engine outcomes into
// the response schema the frontend expects.
package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"mdchat/internal/chat"
	"mdchat/internal/session"
)

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	SessionID string `json:"session_id"`
	Question  string `json:"question"`
}

// ChatResponse echoes the session and question back with the answer.
type ChatResponse struct {
	SessionID string   `json:"session_id"`
	Question  string   `json:"question"`
	Answer    string   `json:"answer"`
	Sources   []string `json:"sources,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Server wires the echo router over a session store.
type Server struct {
	e        *echo.Echo
	sessions *session.Store
	log      *zap.Logger
}

func New(sessions *session.Store, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echoMiddleware.Recover())

	s := &Server{e: e, sessions: sessions, log: log}
	e.GET("/health", s.health)
	e.GET("/new_session", s.newSession)
	e.POST("/chat", s.chat)
	return s
}

// Start blocks serving HTTP on addr.
func (s *Server) Start(addr string) error { return s.e.Start(addr) }

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error { return s.e.Shutdown(ctx) }

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler { return s.e }

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// newSession returns a fresh session key. No engine is created here;
// that happens lazily on the first chat request for the key.
func (s *Server) newSession(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"session_id": session.NewKey()})
}

// chat answers one question for one session. Engine failures never
// surface as transport errors: they are rendered into the answer text,
// so the caller always gets the normal response shape. Only a failure
// to obtain the session engine itself is a server error.
func (s *Server) chat(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}
	if strings.TrimSpace(req.SessionID) == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "session_id is required"})
	}
	if strings.TrimSpace(req.Question) == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "question is required"})
	}

	engine, err := s.sessions.GetOrCreate(req.SessionID)
	if err != nil {
		s.log.Error("session create failed", zap.String("session_id", req.SessionID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}

	answer, err := engine.Answer(c.Request().Context(), req.Question)
	resp := ChatResponse{SessionID: req.SessionID, Question: req.Question}
	if err != nil {
		kind, _ := chat.KindOf(err)
		s.log.Warn("answer degraded",
			zap.String("session_id", req.SessionID),
			zap.String("kind", kind.String()),
			zap.Error(err))
		resp.Answer = renderHTML(chat.UserMessage(err))
		return c.JSON(http.StatusOK, resp)
	}
	resp.Answer = renderHTML(answer.Text)
	resp.Sources = answer.Sources
	return c.JSON(http.StatusOK, resp)
}

// renderHTML converts newlines to explicit break tags for the consuming
// renderer.
func renderHTML(s string) string {
	return strings.ReplaceAll(s, "\n", "<br>")
}
