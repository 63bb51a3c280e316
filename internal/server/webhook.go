package server

import (
	"context"
	"log"
	"net/http"

	"github.com/Nolger/chatbot/internal/dialogue"
	"github.com/Nolger/chatbot/internal/models"
	"github.com/Nolger/chatbot/internal/store"
	"github.com/Nolger/chatbot/internal/whatsapp"
	"github.com/gin-gonic/gin"
)

// handleVerify answers the provider's subscription handshake: the challenge
// is echoed only when the shared verify token matches.
func (s *Server) handleVerify(c *gin.Context) {
	mode := c.Query("hub.mode")
	challenge := c.Query("hub.challenge")

	if mode != "subscribe" || challenge == "" {
		c.String(http.StatusBadRequest, "Invalid request")
		return
	}
	if c.Query("hub.verify_token") != s.verifyToken {
		log.Printf("webhook: verification token mismatch")
		c.String(http.StatusForbidden, "Verification token mismatch")
		return
	}
	c.String(http.StatusOK, challenge)
}

// handleEvents accepts a webhook delivery and processes each extractable
// message. Per-message failures are logged and never fail the delivery:
// the provider would otherwise retry the whole batch.
func (s *Server) handleEvents(c *gin.Context) {
	var payload whatsapp.Payload
	if err := c.ShouldBindJSON(&payload); err != nil {
		log.Printf("webhook: decode payload: %v", err)
		c.String(http.StatusBadRequest, "Bad payload")
		return
	}
	if !payload.IsWhatsApp() {
		c.String(http.StatusBadRequest, "Not a WhatsApp Business Account event")
		return
	}

	for _, msg := range payload.Messages() {
		s.process(c.Request.Context(), msg)
	}
	c.String(http.StatusOK, "OK")
}

// process runs one inbound message through the dispatch sequence: resolve the
// chat, append the user message, honor the control mode, then let the engine
// answer. A store failure before the engine runs aborts the turn with no
// reply sent.
func (s *Server) process(ctx context.Context, msg whatsapp.Inbound) {
	chat, err := store.GetOrCreateChat(s.db, msg.From)
	if err != nil {
		log.Printf("webhook: resolve chat for %s: %v", msg.From, err)
		return
	}

	// The inbound message is persisted before the engine runs so the log
	// exists even if response generation fails.
	if _, err := store.SaveMessage(s.db, chat.ID, models.SenderUser, msg.Kind, msg.Content); err != nil {
		log.Printf("webhook: record inbound from %s: %v", msg.From, err)
		return
	}

	// Checked fresh on every turn so an agent can claim or release the
	// conversation between messages.
	if store.ControlMode(s.db, chat.ID) == models.ControlAgent {
		return
	}

	resp, err := s.engine.Reply(msg.From, msg.Content)
	if err != nil {
		log.Printf("webhook: engine turn for %s: %v", msg.From, err)
		return
	}
	if resp.Kind == dialogue.KindNone {
		return
	}

	if err := s.deliver(ctx, msg.From, resp); err != nil {
		// Delivery failure doesn't void the turn: the attempted reply is
		// still recorded below as evidence of intent.
		log.Printf("webhook: deliver to %s: %v", msg.From, err)
	}

	if _, err := store.SaveMessage(s.db, chat.ID, models.SenderBot, messageKind(resp.Kind), resp.Text); err != nil {
		log.Printf("webhook: record reply for %s: %v", msg.From, err)
	}
}

// deliver maps a structured engine response to the matching outbound call.
func (s *Server) deliver(ctx context.Context, to string, resp dialogue.Response) error {
	switch resp.Kind {
	case dialogue.KindButtons:
		buttons := make([]whatsapp.Button, len(resp.Buttons))
		for i, b := range resp.Buttons {
			buttons[i] = whatsapp.Button{ID: b.ID, Title: b.Label}
		}
		return s.sender.SendButtons(ctx, to, resp.Text, buttons, "", "")

	case dialogue.KindList:
		sections := make([]whatsapp.Section, len(resp.List.Sections))
		for i, sec := range resp.List.Sections {
			rows := make([]whatsapp.Row, len(sec.Rows))
			for j, r := range sec.Rows {
				rows[j] = whatsapp.Row{ID: r.ID, Title: r.Title, Description: r.Description}
			}
			sections[i] = whatsapp.Section{Title: sec.Title, Rows: rows}
		}
		return s.sender.SendList(ctx, to, resp.Text, resp.List.ButtonLabel,
			sections, resp.List.Header, resp.List.Footer)

	default:
		return s.sender.SendText(ctx, to, resp.Text)
	}
}

// messageKind labels a stored bot reply by its response kind.
func messageKind(kind dialogue.Kind) string {
	switch kind {
	case dialogue.KindButtons:
		return whatsapp.KindInteractiveButton
	case dialogue.KindList:
		return whatsapp.KindInteractiveList
	default:
		return whatsapp.KindText
	}
}
