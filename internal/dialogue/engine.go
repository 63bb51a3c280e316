// Package dialogue implements the conversational state machine. Routing is by
// exact string or option-id match against the session flow; there is no NLU.
package dialogue

import (
	"fmt"
	"strings"

	"github.com/Nolger/chatbot/internal/session"
	"gorm.io/gorm"
)

// Engine maps one inbound user turn to a structured response, advancing the
// user's session flow and writing orders and control-mode changes through the
// conversation store.
type Engine struct {
	db       *gorm.DB
	sessions session.Store
}

// Opts holds parameters for creating an Engine.
type Opts struct {
	DB       *gorm.DB
	Sessions session.Store
}

// New creates an Engine.
func New(opts Opts) (*Engine, error) {
	if opts.DB == nil {
		return nil, fmt.Errorf("dialogue: db is required")
	}
	if opts.Sessions == nil {
		return nil, fmt.Errorf("dialogue: session store is required")
	}
	return &Engine{db: opts.DB, sessions: opts.Sessions}, nil
}

// Reply handles one turn for a user. input is the message text, or the
// selected option id for interactive replies. A returned error means a store
// write failed mid-turn: the remaining side effects were skipped and no reply
// must be sent.
func (e *Engine) Reply(userID, input string) (Response, error) {
	normalized := strings.ToLower(strings.TrimSpace(input))

	if st, ok := e.sessions.Get(userID); ok && st.Action == session.ActionCollectingOrder {
		return e.advanceOrder(userID, st, input, normalized)
	}
	return e.menuReply(userID, normalized)
}
