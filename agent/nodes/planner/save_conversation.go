package plannernode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/planweave/planweave/agent/contract"
	statex "github.com/planweave/planweave/agent/state"
)

// SaveConversation pushes the completed exchange onto the conversation and
// persists it. A missing store or a save failure degrades to in-process
// history only.
func SaveConversation(ctx context.Context, in *GraphState, store statex.Store) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contract.ErrValidation)
	}
	if in.Conversation == nil {
		return in, nil
	}

	in.Conversation.Push(in.Query, in.FinalContent, in.Now)

	if store == nil {
		return in, nil
	}
	if err := store.Save(ctx, in.Conversation); err != nil {
		log.Warn().Err(err).Str("session_id", in.SessionID).Msg("conversation save failed")
	}
	return in, nil
}
