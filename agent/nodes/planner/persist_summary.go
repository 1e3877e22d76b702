package plannernode

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/planweave/planweave/agent/contract"
	"github.com/planweave/planweave/agent/extract"
)

const analysisSummaryMax = 300

// PersistSummary records the turn as a PlanRecord and appends a planning
// session block to the planner's own memory. Memory persistence is best
// effort; without a planner memory it is skipped.
func PersistSummary(in *GraphState, mem contract.Memory) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contract.ErrValidation)
	}

	planText := extract.FormatNumbered(in.Plan)
	in.Record = contract.PlanRecord{
		ID:           uuid.NewString(),
		SessionID:    in.SessionID,
		Query:        in.Query,
		TargetRole:   ClassifyTargetRole(in.Query),
		Analysis:     in.Plan.Analysis,
		PlanText:     planText,
		SubtaskCount: len(in.Plan.Subtasks),
		Degraded:     in.Plan.Degraded,
		CreatedAt:    in.Now,
	}

	if mem == nil {
		return in, nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "--- PLANNING SESSION %s ---\n", in.Now.Format("2006-01-02 15:04"))
	fmt.Fprintf(&sb, "Query: %s\n", in.Query)
	fmt.Fprintf(&sb, "TARGET_ROLE: %s\n", in.Record.TargetRole)
	if analysis := truncateAnalysis(in.Plan.Analysis); analysis != "" {
		fmt.Fprintf(&sb, "Analysis: %s\n", analysis)
	}
	sb.WriteString(planText)

	existing := mem.Peek()
	content := sb.String()
	if existing != "" {
		content = existing + "\n" + content
	}
	mem.Write(content)
	log.Debug().Str("session_id", in.SessionID).Int("size", len(content)).Msg("planning summary persisted")
	return in, nil
}

func truncateAnalysis(analysis string) string {
	analysis = strings.TrimSpace(analysis)
	if len(analysis) <= analysisSummaryMax {
		return analysis
	}
	return analysis[:analysisSummaryMax] + "..."
}
