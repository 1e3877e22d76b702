package plannernode

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/planweave/planweave/agent/contract"
	statex "github.com/planweave/planweave/agent/state"
)

// LoadConversation attaches the session's conversation history. A nil store
// and a load failure both degrade to a fresh conversation: history is an
// enrichment, not a prerequisite for planning.
func LoadConversation(
	ctx context.Context,
	in *GraphState,
	store statex.Store,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contract.ErrValidation)
	}

	if store == nil {
		in.Conversation = statex.NewConversation(in.SessionID, in.Now)
		return in, nil
	}

	conv, err := store.Load(ctx, in.SessionID)
	switch {
	case err == nil:
	case errors.Is(err, statex.ErrConversationNotFound):
		conv = statex.NewConversation(in.SessionID, in.Now)
	default:
		log.Warn().Err(err).Str("session", in.SessionID).
			Msg("conversation load failed, starting fresh")
		conv = statex.NewConversation(in.SessionID, in.Now)
	}

	in.Conversation = conv
	in.History = conv.Recent(statex.MaxExchanges)
	return in, nil
}

// SnapshotMemories copies every agent's raw memory for read-only context
// assembly; empty buffers are skipped.
func SnapshotMemories(in *GraphState, memories map[string]contract.Memory) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contract.ErrValidation)
	}

	snapshots := make(map[string]string, len(memories))
	for name, mem := range memories {
		if mem == nil {
			continue
		}
		if raw := mem.Peek(); raw != "" {
			snapshots[name] = raw
		}
	}
	in.Memories = snapshots
	return in, nil
}
