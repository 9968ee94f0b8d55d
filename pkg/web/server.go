// Package web serves the OmniHome dashboard: REST endpoints for home
// state and transcript snapshots, websocket feeds for live updates, and
// the static dashboard assets.
package web

import (
	"log/slog"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/omnihome/omnihome/internal/log"
	"github.com/omnihome/omnihome/pkg/home"
	"github.com/omnihome/omnihome/pkg/hub"
	"github.com/omnihome/omnihome/pkg/transcript"
)

// DashboardState is the full state pushed to dashboards: the home
// snapshot plus the voice pipeline flags.
type DashboardState struct {
	Home       home.Snapshot `json:"home"`
	Listening  bool          `json:"listening"`
	Processing bool          `json:"processing"`
}

// Server is the dashboard server.
type Server struct {
	app  *fiber.App
	addr string

	state      *home.State
	transcript *transcript.Log

	flagsMu    sync.RWMutex
	listening  bool
	processing bool

	statusHub     *hub.Hub
	transcriptHub *hub.Hub
	audioHub      *hub.Hub

	// OnUtterance feeds a dashboard-originated utterance into the voice
	// pipeline. Device card clicks and the text box use this path.
	OnUtterance func(text string)

	// OnMicToggle starts or stops speech capture and reports the
	// resulting listening state.
	OnMicToggle func() (bool, error)

	logger *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithStaticDir serves dashboard assets from dir. Without it no static
// routes are mounted, which keeps handler tests hermetic.
func WithStaticDir(dir string) Option {
	return func(s *Server) {
		s.app.Static("/", dir)
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// NewServer creates the dashboard server bound to the session's home
// state and transcript log.
func NewServer(addr string, state *home.State, tl *transcript.Log, opts ...Option) *Server {
	s := &Server{
		addr:          addr,
		state:         state,
		transcript:    tl,
		statusHub:     hub.New("state"),
		transcriptHub: hub.New("transcript"),
		audioHub:      hub.New("audio"),
		logger:        log.L(),
	}

	app := fiber.New(fiber.Config{
		AppName:               "OmniHome Dashboard",
		DisableStartupMessage: true,
	})
	app.Use(cors.New())
	s.app = app

	for _, opt := range opts {
		opt(s)
	}

	api := app.Group("/api")
	api.Get("/state", s.handleState)
	api.Get("/transcript", s.handleTranscript)
	api.Post("/utterance", s.handleUtterance)
	api.Post("/mic/toggle", s.handleMicToggle)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/status", websocket.New(s.handleStatusWS))
	app.Get("/ws/transcript", websocket.New(s.handleTranscriptWS))
	app.Get("/ws/audio", websocket.New(s.handleAudioWS))

	return s
}

// Start runs the hubs and blocks serving HTTP.
func (s *Server) Start() error {
	go s.statusHub.Run()
	go s.transcriptHub.Run()
	go s.audioHub.Run()

	s.logger.Info("dashboard listening", "addr", s.addr)
	return s.app.Listen(s.addr)
}

// Shutdown stops the server and disconnects all websocket clients.
func (s *Server) Shutdown() error {
	err := s.app.Shutdown()
	s.statusHub.Stop()
	s.transcriptHub.Stop()
	s.audioHub.Stop()
	return err
}

// Snapshot returns the current dashboard state.
func (s *Server) Snapshot() DashboardState {
	s.flagsMu.RLock()
	defer s.flagsMu.RUnlock()
	return DashboardState{
		Home:       s.state.Snapshot(),
		Listening:  s.listening,
		Processing: s.processing,
	}
}

// SetListening updates the listening flag and pushes the new state to
// dashboards.
func (s *Server) SetListening(v bool) {
	s.flagsMu.Lock()
	s.listening = v
	s.flagsMu.Unlock()
	s.BroadcastState()
}

// SetProcessing updates the processing flag and pushes the new state to
// dashboards.
func (s *Server) SetProcessing(v bool) {
	s.flagsMu.Lock()
	s.processing = v
	s.flagsMu.Unlock()
	s.BroadcastState()
}

// BroadcastState pushes the current dashboard state to all status
// clients. Call after every home state mutation.
func (s *Server) BroadcastState() {
	if err := s.statusHub.BroadcastJSON(s.Snapshot()); err != nil {
		s.logger.Warn("broadcast state", "error", err)
	}
}

// BroadcastTranscript pushes one transcript entry to all transcript
// clients.
func (s *Server) BroadcastTranscript(msg transcript.Message) {
	if err := s.transcriptHub.BroadcastJSON(msg); err != nil {
		s.logger.Warn("broadcast transcript", "error", err)
	}
}

// BroadcastAudio pushes spoken-reply PCM to all audio clients.
func (s *Server) BroadcastAudio(pcm []byte) {
	s.audioHub.BroadcastBinary(pcm)
}

// App exposes the fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}
