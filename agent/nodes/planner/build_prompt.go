package plannernode

import (
	"fmt"

	"github.com/planweave/planweave/agent/assemble"
	"github.com/planweave/planweave/agent/contract"
	promptx "github.com/planweave/planweave/agent/prompt"
	toolx "github.com/planweave/planweave/agent/tool"
)

// BuildPrompt assembles the bounded context string and renders both prompt
// halves: the static system prompt with few-shot examples, and the user
// prompt carrying roster, context, and the query.
func BuildPrompt(
	in *GraphState,
	builder *assemble.Builder,
	prompts promptx.Set,
	agents []contract.AgentInfo,
	examples []contract.PlanExample,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contract.ErrValidation)
	}

	system, err := prompts.RenderSystem(toolx.MemoryToolName, examples)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contract.ErrValidation, err)
	}

	context := builder.Build(in.Memories, in.History)
	user, err := prompts.RenderUser(agents, context, in.Query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contract.ErrValidation, err)
	}

	in.SystemPrompt = system
	in.UserPrompt = user
	return in, nil
}
