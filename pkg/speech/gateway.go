package speech

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/omnihome/omnihome/internal/log"
)

const (
	handshakeTimeout = 10 * time.Second
	writeTimeout     = 10 * time.Second
	pingInterval     = 30 * time.Second
	readTimeout      = 120 * time.Second
)

// gatewayEvent is the wire frame exchanged with the speech gateway.
// Outbound frames carry a type only ("start", "stop"). Inbound
// "transcript" frames carry the recognized text once recognition settles.
type gatewayEvent struct {
	Type  string `json:"type"`
	Text  string `json:"text,omitempty"`
	Final bool   `json:"final,omitempty"`
	Error string `json:"error,omitempty"`
}

// GatewayCapture implements Capture over a WebSocket connection to an
// external speech-to-text gateway. The gateway owns the microphone and
// the recognition engine; this client owns the start/stop lifecycle and
// the Idle/Listening state machine.
type GatewayCapture struct {
	url string

	ws   *websocket.Conn
	wsMu sync.Mutex

	mu     sync.Mutex
	state  State
	closed bool

	transcripts chan string
	logger      *slog.Logger
}

var _ Capture = (*GatewayCapture)(nil)

// GatewayOption configures a GatewayCapture.
type GatewayOption func(*GatewayCapture)

// WithGatewayLogger sets the logger.
func WithGatewayLogger(l *slog.Logger) GatewayOption {
	return func(g *GatewayCapture) { g.logger = l }
}

// NewGatewayCapture dials the speech gateway and starts the read loop.
func NewGatewayCapture(url string, opts ...GatewayOption) (*GatewayCapture, error) {
	g := &GatewayCapture{
		url:         url,
		transcripts: make(chan string, 8),
		logger:      log.L(),
	}
	for _, opt := range opts {
		opt(g)
	}

	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	ws, _, err := dialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("speech: connect to gateway: %w", err)
	}
	g.ws = ws

	ws.SetPingHandler(func(appData string) error {
		g.wsMu.Lock()
		defer g.wsMu.Unlock()
		return ws.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(writeTimeout))
	})
	ws.SetReadDeadline(time.Now().Add(readTimeout))

	go g.readLoop()
	go g.keepAlive()

	return g, nil
}

// Start implements Capture. It transitions Idle to Listening and asks
// the gateway to begin a single-utterance capture.
func (g *GatewayCapture) Start() error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return ErrCaptureClosed
	}
	if g.state == Listening {
		g.mu.Unlock()
		return ErrAlreadyListening
	}
	g.state = Listening
	g.mu.Unlock()

	if err := g.sendJSON(gatewayEvent{Type: "start"}); err != nil {
		g.mu.Lock()
		g.state = Idle
		g.mu.Unlock()
		return err
	}
	return nil
}

// Stop implements Capture. Stopping while idle has no effect.
func (g *GatewayCapture) Stop() {
	g.mu.Lock()
	if g.closed || g.state == Idle {
		g.mu.Unlock()
		return
	}
	g.state = Idle
	g.mu.Unlock()

	if err := g.sendJSON(gatewayEvent{Type: "stop"}); err != nil {
		g.logger.Warn("speech: stop gateway capture", "error", err)
	}
}

// State implements Capture.
func (g *GatewayCapture) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Transcripts implements Capture.
func (g *GatewayCapture) Transcripts() <-chan string {
	return g.transcripts
}

// Close implements Capture.
func (g *GatewayCapture) Close() error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return nil
	}
	g.closed = true
	g.state = Idle
	g.mu.Unlock()

	g.wsMu.Lock()
	defer g.wsMu.Unlock()
	g.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeTimeout))
	return g.ws.Close()
}

func (g *GatewayCapture) sendJSON(v any) error {
	g.wsMu.Lock()
	defer g.wsMu.Unlock()
	g.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	return g.ws.WriteJSON(v)
}

func (g *GatewayCapture) readLoop() {
	for {
		_, data, err := g.ws.ReadMessage()
		if err != nil {
			g.mu.Lock()
			closed := g.closed
			g.state = Idle
			g.mu.Unlock()
			if !closed {
				g.logger.Warn("speech: gateway read loop ended", "error", err)
			}
			return
		}
		g.ws.SetReadDeadline(time.Now().Add(readTimeout))

		var ev gatewayEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			g.logger.Warn("speech: bad gateway frame", "error", err)
			continue
		}
		g.handleEvent(ev)
	}
}

func (g *GatewayCapture) handleEvent(ev gatewayEvent) {
	switch ev.Type {
	case "transcript":
		if !ev.Final {
			return
		}
		g.mu.Lock()
		listening := g.state == Listening
		g.state = Idle
		g.mu.Unlock()

		// A transcript arriving after Stop belongs to an abandoned
		// capture and is dropped.
		if !listening || ev.Text == "" {
			return
		}
		select {
		case g.transcripts <- ev.Text:
		default:
			g.logger.Warn("speech: transcript dropped, channel full")
		}
	case "error":
		g.mu.Lock()
		g.state = Idle
		g.mu.Unlock()
		g.logger.Warn("speech: gateway recognition error", "error", ev.Error)
	}
}

func (g *GatewayCapture) keepAlive() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for range ticker.C {
		g.mu.Lock()
		closed := g.closed
		g.mu.Unlock()
		if closed {
			return
		}
		g.wsMu.Lock()
		err := g.ws.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeTimeout))
		g.wsMu.Unlock()
		if err != nil {
			return
		}
	}
}
