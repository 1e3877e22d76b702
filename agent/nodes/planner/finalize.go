package plannernode

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/planweave/planweave/agent/contract"
)

// Finalize closes the turn and emits the graph output.
func Finalize(in *GraphState) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contract.ErrValidation)
	}

	log.Info().
		Str("session_id", in.SessionID).
		Int("subtasks", len(in.Plan.Subtasks)).
		Bool("degraded", in.Plan.Degraded).
		Bool("tool_used", in.ToolUsed).
		Msg("planning turn finished")

	return GraphOutput{Plan: in.Plan, Record: in.Record}, nil
}
