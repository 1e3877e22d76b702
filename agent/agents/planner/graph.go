package planner

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"

	plannernode "github.com/planweave/planweave/agent/nodes/planner"
)

func (p *Planner) compileTurnGraph(
	ctx context.Context,
) (compose.Runnable[plannernode.GraphInput, plannernode.GraphOutput], error) {
	graph := compose.NewGraph[plannernode.GraphInput, plannernode.GraphOutput]()

	if err := graph.AddLambdaNode("validate_request",
		compose.InvokableLambda(func(ctx context.Context, in plannernode.GraphInput) (*plannernode.GraphState, error) {
			return plannernode.ValidateRequest(in, p.now)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node validate_request: %w", err)
	}

	if err := graph.AddLambdaNode("load_conversation",
		compose.InvokableLambda(func(ctx context.Context, in *plannernode.GraphState) (*plannernode.GraphState, error) {
			return plannernode.LoadConversation(ctx, in, p.store)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node load_conversation: %w", err)
	}

	if err := graph.AddLambdaNode("snapshot_memories",
		compose.InvokableLambda(func(ctx context.Context, in *plannernode.GraphState) (*plannernode.GraphState, error) {
			return plannernode.SnapshotMemories(in, p.memories)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node snapshot_memories: %w", err)
	}

	if err := graph.AddLambdaNode("build_prompt",
		compose.InvokableLambda(func(ctx context.Context, in *plannernode.GraphState) (*plannernode.GraphState, error) {
			return plannernode.BuildPrompt(in, p.builder, p.prompts, p.agents, p.examples)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node build_prompt: %w", err)
	}

	if err := graph.AddLambdaNode("call_model",
		compose.InvokableLambda(func(ctx context.Context, in *plannernode.GraphState) (*plannernode.GraphState, error) {
			return plannernode.CallModel(ctx, in, p.model)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node call_model: %w", err)
	}

	if err := graph.AddLambdaNode("tool_round_trip",
		compose.InvokableLambda(func(ctx context.Context, in *plannernode.GraphState) (*plannernode.GraphState, error) {
			return plannernode.ToolRoundTrip(ctx, in, p.model, p.memories[PlannerMemoryName])
		}),
	); err != nil {
		return nil, fmt.Errorf("add node tool_round_trip: %w", err)
	}

	if err := graph.AddLambdaNode("extract_plan",
		compose.InvokableLambda(func(ctx context.Context, in *plannernode.GraphState) (*plannernode.GraphState, error) {
			return plannernode.ExtractPlan(in, p.extractor)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node extract_plan: %w", err)
	}

	if err := graph.AddLambdaNode("persist_summary",
		compose.InvokableLambda(func(ctx context.Context, in *plannernode.GraphState) (*plannernode.GraphState, error) {
			return plannernode.PersistSummary(in, p.memories[PlannerMemoryName])
		}),
	); err != nil {
		return nil, fmt.Errorf("add node persist_summary: %w", err)
	}

	if err := graph.AddLambdaNode("save_conversation",
		compose.InvokableLambda(func(ctx context.Context, in *plannernode.GraphState) (*plannernode.GraphState, error) {
			return plannernode.SaveConversation(ctx, in, p.store)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node save_conversation: %w", err)
	}

	if err := graph.AddLambdaNode("finalize",
		compose.InvokableLambda(func(ctx context.Context, in *plannernode.GraphState) (plannernode.GraphOutput, error) {
			return plannernode.Finalize(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node finalize: %w", err)
	}

	edges := [][2]string{
		{compose.START, "validate_request"},
		{"validate_request", "load_conversation"},
		{"load_conversation", "snapshot_memories"},
		{"snapshot_memories", "build_prompt"},
		{"build_prompt", "call_model"},
		{"call_model", "tool_round_trip"},
		{"tool_round_trip", "extract_plan"},
		{"extract_plan", "persist_summary"},
		{"persist_summary", "save_conversation"},
		{"save_conversation", "finalize"},
		{"finalize", compose.END},
	}

	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("planner.turn"))
	if err != nil {
		return nil, fmt.Errorf("compile planner graph: %w", err)
	}
	return runner, nil
}
