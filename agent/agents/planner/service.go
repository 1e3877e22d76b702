// Package planner hosts the planning agent service: one PlanTurn per call,
// cancellation between turns, and best-effort archival of finished plans.
package planner

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"

	"github.com/planweave/planweave/agent/assemble"
	contractx "github.com/planweave/planweave/agent/contract"
	"github.com/planweave/planweave/agent/extract"
	plannernode "github.com/planweave/planweave/agent/nodes/planner"
	promptx "github.com/planweave/planweave/agent/prompt"
	statex "github.com/planweave/planweave/agent/state"
)

var (
	ErrInvalidSession = plannernode.ErrInvalidSession
	ErrInvalidQuery   = plannernode.ErrInvalidQuery
)

// PlannerMemoryName keys the planner's own memory in the memory map. Planning
// session summaries accumulate there.
const PlannerMemoryName = "planner"

type Config struct {
	// AgentName labels log entries and defaults to "planner".
	AgentName string
}

type Planner struct {
	store    statex.Store
	model    contractx.ModelCaller
	memories map[string]contractx.Memory
	archive  contractx.Archive
	notifier contractx.Notifier

	extractor *extract.Extractor
	builder   *assemble.Builder
	prompts   promptx.Set
	agents    []contractx.AgentInfo
	examples  []contractx.PlanExample

	graphRunner compose.Runnable[plannernode.GraphInput, plannernode.GraphOutput]

	agentName string
	now       func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	turn   uint64
}

func New(
	store statex.Store,
	model contractx.ModelCaller,
	memories map[string]contractx.Memory,
	extractor *extract.Extractor,
	builder *assemble.Builder,
	prompts promptx.Set,
	agents []contractx.AgentInfo,
	examples []contractx.PlanExample,
	archive contractx.Archive,
	notifier contractx.Notifier,
	cfg Config,
) (*Planner, error) {
	if model == nil {
		return nil, errors.New("model caller is required")
	}
	if extractor == nil {
		return nil, errors.New("extractor is required")
	}
	if builder == nil {
		builder = assemble.New()
	}
	if len(agents) == 0 {
		return nil, errors.New("agent roster is required")
	}
	if memories == nil {
		memories = map[string]contractx.Memory{}
	}
	if archive == nil {
		archive = noopArchive{}
	}
	if notifier == nil {
		notifier = noopNotifier{}
	}

	agentName := strings.TrimSpace(cfg.AgentName)
	if agentName == "" {
		agentName = "planner"
	}

	p := &Planner{
		store:     store,
		model:     model,
		memories:  memories,
		archive:   archive,
		notifier:  notifier,
		extractor: extractor,
		builder:   builder,
		prompts:   prompts,
		agents:    agents,
		examples:  examples,
		agentName: agentName,
		now:       time.Now,
	}

	graphRunner, err := p.compileTurnGraph(context.Background())
	if err != nil {
		return nil, err
	}
	p.graphRunner = graphRunner

	return p, nil
}

// PlanTurn runs one full planning turn for the session. Starting a new turn
// cancels the previous in-flight turn for the same planner.
func (p *Planner) PlanTurn(ctx context.Context, sessionID, query string) (contractx.Plan, contractx.PlanRecord, error) {
	turnCtx, cancel := context.WithCancel(ctx)

	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	p.turn++
	myTurn := p.turn
	p.cancel = cancel
	p.mu.Unlock()

	defer func() {
		cancel()
		p.mu.Lock()
		// only clear the slot if no newer turn has claimed it
		if p.turn == myTurn {
			p.cancel = nil
		}
		p.mu.Unlock()
	}()

	out, err := p.graphRunner.Invoke(turnCtx, plannernode.GraphInput{
		SessionID: sessionID,
		Query:     query,
	})
	if err != nil {
		return contractx.Plan{}, contractx.PlanRecord{}, err
	}

	p.publish(ctx, out.Record)
	return out.Plan, out.Record, nil
}

// Cancel aborts the in-flight turn, if any, and reports whether one was
// running.
func (p *Planner) Cancel() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel == nil {
		return false
	}
	p.cancel()
	p.cancel = nil
	return true
}

// Memory returns the named memory, or nil when the roster has none.
func (p *Planner) Memory(name string) contractx.Memory {
	return p.memories[name]
}

func (p *Planner) publish(ctx context.Context, record contractx.PlanRecord) {
	if err := p.archive.SaveRecord(ctx, &record); err != nil {
		log.Warn().Err(err).Str("agent", p.agentName).Str("record_id", record.ID).
			Msg("plan record archive failed")
	}
	if err := p.notifier.PublishPlan(ctx, record); err != nil {
		log.Warn().Err(err).Str("agent", p.agentName).Str("record_id", record.ID).
			Msg("plan record publish failed")
	}
}

type noopArchive struct{}

func (noopArchive) SaveRecord(context.Context, *contractx.PlanRecord) error { return nil }

type noopNotifier struct{}

func (noopNotifier) PublishPlan(context.Context, contractx.PlanRecord) error { return nil }
