package plannernode

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/planweave/planweave/agent/contract"
	toolx "github.com/planweave/planweave/agent/tool"
)

// ToolRoundTrip executes any memory tool calls from the planning response and
// asks the model to continue with the results in hand. At most one round is
// performed; tool calls in the follow-up response are ignored.
//
// Tool failures never abort the turn: a failed call contributes an error
// string as its result, and a failed or empty follow-up keeps the original
// content.
func ToolRoundTrip(ctx context.Context, in *GraphState, model contract.ModelCaller, mem contract.Memory) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contract.ErrValidation)
	}
	if len(in.Response.ToolCalls) == 0 {
		return in, nil
	}

	results := make([]string, 0, len(in.Response.ToolCalls))
	for _, call := range in.Response.ToolCalls {
		results = append(results, runToolCall(ctx, mem, call))
	}
	in.ToolUsed = true

	var sb strings.Builder
	sb.WriteString("Tool results:\n")
	for i, res := range results {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, res)
	}
	sb.WriteString("\nContinue with the analysis and plan in the required format.")

	resp, err := model.Call(ctx, contract.ModelRequest{
		Messages: []contract.ChatMessage{
			{Role: contract.RoleSystem, Content: in.SystemPrompt},
			{Role: contract.RoleUser, Content: in.UserPrompt},
			{Role: contract.RoleAssistant, Content: in.Response.Content},
			{Role: contract.RoleUser, Content: sb.String()},
		},
		WithTools: false,
	})
	if err != nil {
		log.Warn().Err(err).Msg("follow-up model call failed, keeping pre-tool content")
		return in, nil
	}
	if strings.TrimSpace(resp.Content) == "" {
		log.Warn().Msg("follow-up model call returned empty content, keeping pre-tool content")
		return in, nil
	}

	in.FinalContent = resp.Content
	return in, nil
}

func runToolCall(ctx context.Context, mem contract.Memory, call contract.ToolCall) string {
	if call.Name != toolx.MemoryToolName {
		return fmt.Sprintf("tool error: unknown tool %q", call.Name)
	}
	if mem == nil {
		return "tool error: no memory attached to this planner"
	}
	op, err := toolx.DecodeOp(call.Arguments)
	if err != nil {
		return fmt.Sprintf("tool error: %v", err)
	}
	return toolx.Execute(ctx, mem, op)
}
