package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	contractx "github.com/planweave/planweave/agent/contract"
	"github.com/planweave/planweave/agent/extract"
	memoryx "github.com/planweave/planweave/agent/memory"
	promptx "github.com/planweave/planweave/agent/prompt"
	statex "github.com/planweave/planweave/agent/state"
)

type fakeModel struct {
	responses []contractx.ModelResponse
	errs      []error
	calls     int
	requests  []contractx.ModelRequest
}

func (f *fakeModel) Call(ctx context.Context, req contractx.ModelRequest) (contractx.ModelResponse, error) {
	idx := f.calls
	f.calls++
	f.requests = append(f.requests, req)
	if idx < len(f.errs) && f.errs[idx] != nil {
		return contractx.ModelResponse{}, f.errs[idx]
	}
	if idx >= len(f.responses) {
		return contractx.ModelResponse{}, fmt.Errorf("no scripted response at call=%d", f.calls)
	}
	return f.responses[idx], nil
}

type fakeStore struct {
	conv  *statex.Conversation
	saved []*statex.Conversation
}

func (f *fakeStore) Load(ctx context.Context, sessionID string) (*statex.Conversation, error) {
	if f.conv == nil {
		return nil, statex.ErrConversationNotFound
	}
	return f.conv, nil
}

func (f *fakeStore) Save(ctx context.Context, conv *statex.Conversation) error {
	f.saved = append(f.saved, conv)
	return nil
}

func (f *fakeStore) Delete(ctx context.Context, sessionID string) error { return nil }

type fakeArchive struct {
	records []contractx.PlanRecord
	err     error
}

func (f *fakeArchive) SaveRecord(ctx context.Context, record *contractx.PlanRecord) error {
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, *record)
	return nil
}

type fakeNotifier struct {
	published []contractx.PlanRecord
}

func (f *fakeNotifier) PublishPlan(ctx context.Context, record contractx.PlanRecord) error {
	f.published = append(f.published, record)
	return nil
}

var testAgents = []contractx.AgentInfo{
	{Name: "ResearchAgent", Desc: "Finds facts."},
	{Name: "AnalysisAgent", Desc: "Weighs options."},
}

func newTestPlanner(t *testing.T, model contractx.ModelCaller, store statex.Store, archive contractx.Archive, notifier contractx.Notifier) (*Planner, map[string]contractx.Memory) {
	t.Helper()

	extractor, err := extract.New([]string{"ResearchAgent", "AnalysisAgent"})
	if err != nil {
		t.Fatalf("extract.New() error = %v", err)
	}

	memories := map[string]contractx.Memory{
		PlannerMemoryName: memoryx.NewStore(),
		"ResearchAgent":   memoryx.NewStore(),
	}

	p, err := New(
		store,
		model,
		memories,
		extractor,
		nil,
		promptx.MustLoadSet(),
		testAgents,
		nil,
		archive,
		notifier,
		Config{},
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return p, memories
}

func TestNewRequiresCoreDependencies(t *testing.T) {
	t.Parallel()

	extractor, err := extract.New([]string{"ResearchAgent"})
	if err != nil {
		t.Fatalf("extract.New() error = %v", err)
	}
	prompts := promptx.MustLoadSet()

	if _, err := New(nil, nil, nil, extractor, nil, prompts, testAgents, nil, nil, nil, Config{}); err == nil {
		t.Fatal("expected error for nil model")
	}
	if _, err := New(nil, &fakeModel{}, nil, nil, nil, prompts, testAgents, nil, nil, nil, Config{}); err == nil {
		t.Fatal("expected error for nil extractor")
	}
	if _, err := New(nil, &fakeModel{}, nil, extractor, nil, prompts, nil, nil, nil, nil, Config{}); err == nil {
		t.Fatal("expected error for empty roster")
	}
}

func TestPlanTurnInvalidInput(t *testing.T) {
	t.Parallel()

	p, _ := newTestPlanner(t, &fakeModel{}, nil, nil, nil)

	if _, _, err := p.PlanTurn(context.Background(), "  ", "query"); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("expected ErrInvalidSession, got %v", err)
	}
	if _, _, err := p.PlanTurn(context.Background(), "s1", "   "); !errors.Is(err, ErrInvalidQuery) {
		t.Fatalf("expected ErrInvalidQuery, got %v", err)
	}
}

func TestPlanTurnHappyPath(t *testing.T) {
	t.Parallel()

	model := &fakeModel{responses: []contractx.ModelResponse{{
		Content: `<analysis>User wants to move into cloud.</analysis>
1. ResearchAgent: list cloud certifications
2. AnalysisAgent: rank them by market demand`,
	}}}
	store := &fakeStore{}
	archive := &fakeArchive{}
	notifier := &fakeNotifier{}

	p, memories := newTestPlanner(t, model, store, archive, notifier)

	plan, record, err := p.PlanTurn(context.Background(), "session-1", "how do I become a cloud engineer?")
	if err != nil {
		t.Fatalf("PlanTurn() error = %v", err)
	}

	if plan.Analysis != "User wants to move into cloud." {
		t.Fatalf("Analysis = %q", plan.Analysis)
	}
	if len(plan.Subtasks) != 2 {
		t.Fatalf("expected 2 subtasks, got %d", len(plan.Subtasks))
	}
	if plan.Degraded {
		t.Fatal("expected structured plan")
	}

	if record.SessionID != "session-1" || record.SubtaskCount != 2 {
		t.Fatalf("unexpected record: %+v", record)
	}
	if record.TargetRole != "Cloud Engineer" {
		t.Fatalf("TargetRole = %q", record.TargetRole)
	}

	if len(store.saved) != 1 {
		t.Fatalf("expected one conversation save, got %d", len(store.saved))
	}
	if len(archive.records) != 1 || archive.records[0].ID != record.ID {
		t.Fatalf("unexpected archive state: %+v", archive.records)
	}
	if len(notifier.published) != 1 {
		t.Fatalf("expected one publish, got %d", len(notifier.published))
	}

	plannerMem := memories[PlannerMemoryName]
	if !strings.Contains(plannerMem.Peek(), "TARGET_ROLE: Cloud Engineer") {
		t.Fatalf("planning summary missing from memory: %q", plannerMem.Peek())
	}
}

func TestPlanTurnToolPath(t *testing.T) {
	t.Parallel()

	model := &fakeModel{responses: []contractx.ModelResponse{
		{
			Content: "Let me check memory first.",
			ToolCalls: []contractx.ToolCall{
				{Name: "agent_memory", Arguments: map[string]any{"action": "write", "content": "USER_PREFERENCES: remote roles"}},
			},
		},
		{
			Content: "1. ResearchAgent: find remote-friendly employers",
		},
	}}

	p, memories := newTestPlanner(t, model, &fakeStore{}, nil, nil)

	plan, _, err := p.PlanTurn(context.Background(), "session-1", "plan a job switch")
	if err != nil {
		t.Fatalf("PlanTurn() error = %v", err)
	}

	if model.calls != 2 {
		t.Fatalf("expected follow-up call, got %d calls", model.calls)
	}
	if model.requests[1].WithTools {
		t.Fatal("follow-up must not expose tools")
	}
	if len(plan.Subtasks) != 1 || plan.Subtasks[0].AgentName != "ResearchAgent" {
		t.Fatalf("unexpected plan: %+v", plan)
	}
	if !strings.Contains(memories[PlannerMemoryName].Peek(), "USER_PREFERENCES: remote roles") {
		t.Fatal("tool write must hit the planner memory")
	}
}

func TestPlanTurnModelFailureIsTerminal(t *testing.T) {
	t.Parallel()

	model := &fakeModel{errs: []error{errors.New("rate limited")}}
	p, _ := newTestPlanner(t, model, &fakeStore{}, nil, nil)

	_, _, err := p.PlanTurn(context.Background(), "session-1", "any query")
	if !errors.Is(err, contractx.ErrModelInvoke) {
		t.Fatalf("expected ErrModelInvoke, got %v", err)
	}
}

func TestPlanTurnDegradedFallback(t *testing.T) {
	t.Parallel()

	model := &fakeModel{responses: []contractx.ModelResponse{{Content: "I am not sure what to do here."}}}
	p, _ := newTestPlanner(t, model, &fakeStore{}, nil, nil)

	plan, record, err := p.PlanTurn(context.Background(), "session-1", "help")
	if err != nil {
		t.Fatalf("PlanTurn() error = %v", err)
	}
	if !plan.Degraded || !record.Degraded {
		t.Fatal("expected degraded plan and record")
	}
	if len(plan.Subtasks) != 1 || plan.Subtasks[0].AgentName != "ResearchAgent" {
		t.Fatalf("fallback must target the first roster agent: %+v", plan)
	}
}

func TestPlanTurnArchiveFailureIsNonFatal(t *testing.T) {
	t.Parallel()

	model := &fakeModel{responses: []contractx.ModelResponse{{Content: "1. ResearchAgent: do research"}}}
	p, _ := newTestPlanner(t, model, &fakeStore{}, &fakeArchive{err: errors.New("pg down")}, nil)

	if _, _, err := p.PlanTurn(context.Background(), "session-1", "plan"); err != nil {
		t.Fatalf("archive failure must not fail the turn, got %v", err)
	}
}

type blockingModel struct {
	started chan struct{}
}

func (b *blockingModel) Call(ctx context.Context, req contractx.ModelRequest) (contractx.ModelResponse, error) {
	close(b.started)
	<-ctx.Done()
	return contractx.ModelResponse{}, ctx.Err()
}

func TestCancelStopsInFlightTurn(t *testing.T) {
	t.Parallel()

	model := &blockingModel{started: make(chan struct{})}
	p, _ := newTestPlanner(t, model, nil, nil, nil)

	type result struct {
		plan contractx.Plan
		err  error
	}
	done := make(chan result, 1)
	go func() {
		plan, _, err := p.PlanTurn(context.Background(), "session-1", "long running plan")
		done <- result{plan: plan, err: err}
	}()

	<-model.started
	if !p.Cancel() {
		t.Fatal("Cancel() must report true for an in-flight turn")
	}

	res := <-done
	if !errors.Is(res.err, contractx.ErrModelInvoke) {
		t.Fatalf("expected ErrModelInvoke, got %v", res.err)
	}
	if !strings.Contains(res.err.Error(), "context canceled") {
		t.Fatalf("expected a cancellation cause, got %v", res.err)
	}
	if len(res.plan.Subtasks) != 0 || res.plan.Analysis != "" {
		t.Fatalf("cancelled turn must not emit a plan: %+v", res.plan)
	}
	if p.Cancel() {
		t.Fatal("Cancel() must report false once the turn has finished")
	}
}

func TestCancelWithoutTurn(t *testing.T) {
	t.Parallel()

	p, _ := newTestPlanner(t, &fakeModel{}, nil, nil, nil)
	if p.Cancel() {
		t.Fatal("Cancel() must report false when no turn is in flight")
	}
}

func TestMemoryAccessor(t *testing.T) {
	t.Parallel()

	p, memories := newTestPlanner(t, &fakeModel{}, nil, nil, nil)
	if p.Memory(PlannerMemoryName) != memories[PlannerMemoryName] {
		t.Fatal("Memory() must return the registered store")
	}
	if p.Memory("nope") != nil {
		t.Fatal("unknown memory name must return nil")
	}
}
