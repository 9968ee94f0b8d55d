package web

import (
	"encoding/json"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/omnihome/omnihome/pkg/hub"
)

// handleState returns the home snapshot plus pipeline flags.
func (s *Server) handleState(c *fiber.Ctx) error {
	return c.JSON(s.Snapshot())
}

// handleTranscript returns the full transcript in insertion order.
func (s *Server) handleTranscript(c *fiber.Ctx) error {
	return c.JSON(s.transcript.Messages())
}

// UtteranceRequest is the body for POST /api/utterance.
type UtteranceRequest struct {
	Text string `json:"text"`
}

// handleUtterance feeds a typed or card-click utterance into the voice
// pipeline. The response is immediate; the reply arrives over the
// transcript feed.
func (s *Server) handleUtterance(c *fiber.Ctx) error {
	var req UtteranceRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "text is required"})
	}
	if s.OnUtterance == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "pipeline not running"})
	}

	s.OnUtterance(text)
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "accepted"})
}

// handleMicToggle starts or stops speech capture.
func (s *Server) handleMicToggle(c *fiber.Ctx) error {
	if s.OnMicToggle == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "speech capture not available"})
	}

	listening, err := s.OnMicToggle()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"listening": listening})
}

// handleStatusWS streams dashboard state. The current snapshot is
// delivered first so a fresh client renders immediately.
func (s *Server) handleStatusWS(c *websocket.Conn) {
	client := hub.NewClient(s.statusHub, c)
	if data, err := json.Marshal(s.Snapshot()); err == nil {
		client.Send(hub.NewJSONMessage(data))
	}
	client.Run()
}

// handleTranscriptWS streams transcript entries, replaying the backlog
// on connect.
func (s *Server) handleTranscriptWS(c *websocket.Conn) {
	client := hub.NewClient(s.transcriptHub, c)
	for _, msg := range s.transcript.Messages() {
		if data, err := json.Marshal(msg); err == nil {
			client.Send(hub.NewJSONMessage(data))
		}
	}
	client.Run()
}

// handleAudioWS streams spoken-reply PCM as binary frames.
func (s *Server) handleAudioWS(c *websocket.Conn) {
	hub.NewClient(s.audioHub, c).Run()
}
