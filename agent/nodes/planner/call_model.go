package plannernode

import (
	"context"
	"fmt"

	"github.com/planweave/planweave/agent/contract"
)

// CallModel issues the planning request with the memory tool exposed.
// Model failures are terminal for the turn.
func CallModel(ctx context.Context, in *GraphState, model contract.ModelCaller) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contract.ErrValidation)
	}
	if model == nil {
		return nil, fmt.Errorf("%w: model caller is nil", contract.ErrModelInvoke)
	}

	resp, err := model.Call(ctx, contract.ModelRequest{
		Messages: []contract.ChatMessage{
			{Role: contract.RoleSystem, Content: in.SystemPrompt},
			{Role: contract.RoleUser, Content: in.UserPrompt},
		},
		WithTools: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: planning call: %v", contract.ErrModelInvoke, err)
	}

	in.Response = resp
	in.FinalContent = resp.Content
	return in, nil
}
