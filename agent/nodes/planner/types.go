// Package plannernode contains the node functions of the planning-turn graph
// and the state they thread. Each node is a plain function so it can be
// tested without compiling the graph.
package plannernode

import (
	"errors"
	"strings"
	"time"

	"github.com/planweave/planweave/agent/contract"
	statex "github.com/planweave/planweave/agent/state"
)

var (
	ErrInvalidSession = errors.New("session id is empty")
	ErrInvalidQuery   = errors.New("query is empty")
)

type GraphInput struct {
	SessionID string
	Query     string
}

type GraphOutput struct {
	Plan   contract.Plan
	Record contract.PlanRecord
}

type GraphState struct {
	SessionID string
	Query     string
	Now       time.Time

	Conversation *statex.Conversation
	History      []contract.Exchange
	Memories     map[string]string

	SystemPrompt string
	UserPrompt   string

	// Response is the first model response; FinalContent is the text handed
	// to the extractor, which may come from the tool follow-up instead.
	Response     contract.ModelResponse
	FinalContent string
	ToolUsed     bool

	Plan   contract.Plan
	Record contract.PlanRecord
}

func ValidateRequest(in GraphInput, nowFn func() time.Time) (*GraphState, error) {
	sessionID := strings.TrimSpace(in.SessionID)
	if sessionID == "" {
		return nil, ErrInvalidSession
	}

	query := strings.TrimSpace(in.Query)
	if query == "" {
		return nil, ErrInvalidQuery
	}

	return &GraphState{
		SessionID: sessionID,
		Query:     query,
		Now:       nowFn().UTC(),
	}, nil
}
