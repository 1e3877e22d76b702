package state

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/planweave/planweave/agent/contract"
)

// MaxExchanges bounds the retained conversation history: newest entries only.
const MaxExchanges = 10

// Conversation is the persistent per-session record of user/assistant
// exchanges. It is owned by one planner instance and mutated by one logical
// turn at a time.
type Conversation struct {
	SessionID string `json:"session_id"`
	// ConversationID is stable across saves and distinguishes a fresh
	// conversation from a reloaded one.
	ConversationID string `json:"conversation_id"`

	Exchanges []contract.Exchange `json:"exchanges,omitempty"`
	TurnCount int                 `json:"turn_count"`

	UpdatedAt time.Time `json:"updated_at"`
}

func NewConversation(sessionID string, now time.Time) *Conversation {
	return &Conversation{
		SessionID:      strings.TrimSpace(sessionID),
		ConversationID: uuid.NewString(),
		UpdatedAt:      now.UTC(),
	}
}

// Push appends an exchange and drops the oldest entries beyond the bound.
func (c *Conversation) Push(userInput, response string, now time.Time) {
	c.Exchanges = append(c.Exchanges, contract.Exchange{
		UserInput: userInput,
		Response:  response,
	})
	if len(c.Exchanges) > MaxExchanges {
		c.Exchanges = c.Exchanges[len(c.Exchanges)-MaxExchanges:]
	}
	c.TurnCount++
	c.UpdatedAt = now.UTC()
}

// Recent returns up to n exchanges, newest last.
func (c *Conversation) Recent(n int) []contract.Exchange {
	if n <= 0 || len(c.Exchanges) == 0 {
		return nil
	}
	if n > len(c.Exchanges) {
		n = len(c.Exchanges)
	}
	out := make([]contract.Exchange, n)
	copy(out, c.Exchanges[len(c.Exchanges)-n:])
	return out
}

func (c *Conversation) Clear(now time.Time) {
	c.Exchanges = nil
	c.UpdatedAt = now.UTC()
}

func (c *Conversation) Validate() error {
	if strings.TrimSpace(c.SessionID) == "" {
		return ErrInvalidSession
	}
	return nil
}
