// Package server provides the cortex web front end: the chat page, a JSON/SSE
// API over chat sessions and the image panel, and read-only access to the
// transcript archive.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/pprof"
	"sync/atomic"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/papercomputeco/cortex/pkg/chat"
	"github.com/papercomputeco/cortex/pkg/image"
	"github.com/papercomputeco/cortex/pkg/llm"
	"github.com/papercomputeco/cortex/pkg/transcript"
)

const (
	sessionCookie = "cortex_session"
	sessionLocal  = "session"

	janitorInterval = time.Minute
)

// Server serves chat sessions and the image panel over HTTP.
type Server struct {
	config       Config
	engine       *chat.Engine
	panel        *image.Panel
	storer       transcript.Storer
	sessions     *registry
	systemPrompt atomic.Pointer[string]
	logger       *zap.Logger
	app          *fiber.App
}

// New creates a new Server.
func New(config Config, logger *zap.Logger) (*Server, error) {
	if config.Provider == nil && config.SetupError == "" {
		return nil, errors.New("server needs a chat provider or a setup error to show")
	}

	var storer transcript.Storer
	var err error

	if config.DBPath != "" {
		storer, err = transcript.NewSQLiteStorer(config.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite storer: %w", err)
		}
		logger.Info("using SQLite transcript archive", zap.String("path", config.DBPath))
	} else {
		storer = transcript.NewMemoryStorer()
		logger.Info("using in-memory transcript archive")
	}

	s := &Server{
		config:   config,
		panel:    image.NewPanel(config.Image, logger),
		storer:   storer,
		sessions: newRegistry(),
		logger:   logger,
	}
	s.systemPrompt.Store(&config.SystemPrompt)

	if config.Provider != nil {
		recorder := transcript.NewRecorder(storer, logger)
		s.engine = chat.NewEngine(config.Provider, config.Chat, logger, recorder.Hook)
	} else {
		logger.Warn("chat is not configured", zap.String("reason", config.SetupError))
	}

	s.app = s.routes()
	return s, nil
}

func (s *Server) routes() *fiber.App {
	app := fiber.New(fiber.Config{
		// Disable startup message for cleaner logs
		DisableStartupMessage: true,
	})

	app.Get("/", s.handleIndex)

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(map[string]string{"status": "ok"})
	})

	api := app.Group("/api", s.requireSetup, s.withSession)
	api.Get("/session", s.handleGetSession)
	api.Post("/session/reset", s.handleResetSession)
	api.Post("/chat", s.handleChat)
	api.Post("/image", s.handleImage)

	// Transcript inspection endpoints
	app.Get("/transcript/stats", s.handleTranscriptStats)
	app.Get("/transcript/node/:hash", s.handleGetNode)
	app.Get("/transcript/history", s.handleListHistories)
	app.Get("/transcript/history/:hash", s.handleGetHistory)
	app.Post("/transcript/nodes", s.handlePutNodes)

	if s.config.Debug {
		mux := http.NewServeMux()
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
		app.Use("/debug/pprof", adaptor.HTTPHandler(mux))
	}

	return app
}

// Run starts the server and the idle-session janitor. It returns when ctx is
// cancelled or the listener fails.
func (s *Server) Run(ctx context.Context) error {
	return s.serve(ctx, func() error { return s.app.Listen(s.config.ListenAddr) })
}

// RunWithListener is Run on an existing listener.
func (s *Server) RunWithListener(ctx context.Context, ln net.Listener) error {
	return s.serve(ctx, func() error { return s.app.Listener(ln) })
}

func (s *Server) serve(ctx context.Context, listen func() error) error {
	s.logger.Info("starting web server",
		zap.String("listen", s.config.ListenAddr),
		zap.Bool("chat_configured", s.engine != nil),
		zap.Duration("session_ttl", s.config.SessionTTL),
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if s.config.SessionTTL > 0 {
		go s.janitor(ctx)
	}

	go func() {
		<-ctx.Done()
		if err := s.app.ShutdownWithTimeout(10 * time.Second); err != nil {
			s.logger.Warn("shutdown", zap.Error(err))
		}
	}()

	return listen()
}

// Close releases the transcript archive.
func (s *Server) Close() error {
	return s.storer.Close()
}

// Reload applies new chat settings to subsequent turns and a new system
// prompt to sessions created from now on.
func (s *Server) Reload(settings chat.Settings, systemPrompt string) {
	s.systemPrompt.Store(&systemPrompt)
	if s.engine != nil {
		s.engine.SetSettings(settings)
	}
}

func (s *Server) janitor(ctx context.Context) {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := s.sessions.evictIdle(now.Add(-s.config.SessionTTL)); n > 0 {
				s.logger.Info("evicted idle sessions",
					zap.Int("evicted", n),
					zap.Int("remaining", s.sessions.len()),
				)
			}
		}
	}
}

// requireSetup rejects API calls while chat is not configured.
func (s *Server) requireSetup(c *fiber.Ctx) error {
	if s.engine == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(llm.ErrorResponse{Error: s.config.SetupError})
	}
	return c.Next()
}

// withSession resolves the caller's session from its cookie, creating one
// when the cookie is missing or the session was evicted.
func (s *Server) withSession(c *fiber.Ctx) error {
	sess, ok := s.sessions.get(c.Cookies(sessionCookie))
	if !ok {
		sess = s.sessions.create(*s.systemPrompt.Load())
		c.Cookie(&fiber.Cookie{
			Name:     sessionCookie,
			Value:    sess.ID,
			Path:     "/",
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
		s.logger.Debug("session created", zap.String("session", sess.ID))
	}
	c.Locals(sessionLocal, sess)
	return c.Next()
}

func session(c *fiber.Ctx) *chat.Session {
	return c.Locals(sessionLocal).(*chat.Session)
}

// sessionResponse is the rendered state of a session: its history without
// the system message.
type sessionResponse struct {
	ID       string        `json:"id"`
	Messages []llm.Message `json:"messages"`
}

func (s *Server) handleGetSession(c *fiber.Ctx) error {
	sess := session(c)
	return c.JSON(sessionResponse{ID: sess.ID, Messages: sess.Conversation().History()})
}

func (s *Server) handleResetSession(c *fiber.Ctx) error {
	sess := session(c)
	if err := sess.Reset(); err != nil {
		return c.Status(fiber.StatusConflict).JSON(llm.ErrorResponse{Error: err.Error()})
	}
	return c.JSON(sessionResponse{ID: sess.ID, Messages: sess.Conversation().History()})
}
