package extract

import (
	"strings"
	"testing"

	"github.com/planweave/planweave/agent/contract"
)

var testRoster = []string{"ResearchAgent", "AnalysisAgent", "SynthesisAgent"}

func newTestExtractor(t *testing.T) *Extractor {
	t.Helper()
	e, err := New(testRoster)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return e
}

func TestNewRejectsBadRoster(t *testing.T) {
	t.Parallel()

	if _, err := New(nil); err == nil {
		t.Fatal("expected error for empty roster")
	}
	if _, err := New([]string{"ResearchAgent", "  "}); err == nil {
		t.Fatal("expected error for blank roster entry")
	}
}

func TestExtractTaggedBlock(t *testing.T) {
	t.Parallel()

	e := newTestExtractor(t)
	text := `<analysis>User wants a cloud career plan.</analysis>
<plan>[
  {"agent_name": "ResearchAgent", "task": "Find relevant cloud certifications", "completed": false},
  {"agent_name": "analysisagent", "task": "Compare certification paths"}
]</plan>`

	plan := e.Extract(text)
	if plan.Analysis != "User wants a cloud career plan." {
		t.Fatalf("unexpected analysis: %q", plan.Analysis)
	}
	if plan.Degraded {
		t.Fatal("expected non-degraded plan")
	}
	if len(plan.Subtasks) != 2 {
		t.Fatalf("expected 2 subtasks, got %d", len(plan.Subtasks))
	}
	if plan.Subtasks[0].AgentName != "ResearchAgent" {
		t.Fatalf("unexpected first agent: %q", plan.Subtasks[0].AgentName)
	}
	// lowercased mention canonicalizes to roster spelling
	if plan.Subtasks[1].AgentName != "AnalysisAgent" {
		t.Fatalf("expected canonical name, got %q", plan.Subtasks[1].AgentName)
	}
	if plan.Subtasks[1].Completed {
		t.Fatal("subtasks always start incomplete")
	}
}

func TestExtractTaggedBlockReadableLines(t *testing.T) {
	t.Parallel()

	e := newTestExtractor(t)
	text := `<plan>
- ResearchAgent: gather salary data
- UnknownAgent: should be skipped
- AnalysisAgent: rank options
</plan>`

	plan := e.Extract(text)
	if len(plan.Subtasks) != 2 {
		t.Fatalf("expected 2 subtasks, got %d", len(plan.Subtasks))
	}
	if plan.Subtasks[0].Task != "gather salary data" {
		t.Fatalf("unexpected task: %q", plan.Subtasks[0].Task)
	}
}

func TestExtractNumberedList(t *testing.T) {
	t.Parallel()

	e := newTestExtractor(t)
	text := `Here is my plan:
1. ResearchAgent: find certifications for solution architects
2) **MentorAgent**: draft a study schedule
3. NotAnAgentHonestly, skip this line`

	plan := e.Extract(text)
	if len(plan.Subtasks) != 2 {
		t.Fatalf("expected 2 subtasks, got %d", len(plan.Subtasks))
	}
	// names outside the roster are accepted as long as they carry the suffix
	if plan.Subtasks[1].AgentName != "MentorAgent" {
		t.Fatalf("unexpected agent: %q", plan.Subtasks[1].AgentName)
	}
	if plan.Degraded {
		t.Fatal("expected non-degraded plan")
	}
}

func TestExtractBulletList(t *testing.T) {
	t.Parallel()

	e := newTestExtractor(t)
	text := `- ResearchAgent: compare AWS and Azure tracks
* SynthesisAgent: merge findings into one roadmap`

	plan := e.Extract(text)
	if len(plan.Subtasks) != 2 {
		t.Fatalf("expected 2 subtasks, got %d", len(plan.Subtasks))
	}
	if plan.Subtasks[1].AgentName != "SynthesisAgent" {
		t.Fatalf("unexpected agent: %q", plan.Subtasks[1].AgentName)
	}
}

func TestExtractBareSuffixRejected(t *testing.T) {
	t.Parallel()

	e := newTestExtractor(t)
	plan := e.Extract("1. Agent: do something vague")
	if !plan.Degraded {
		t.Fatal("bare suffix must not count as an agent name")
	}
}

func TestExtractAgentMentions(t *testing.T) {
	t.Parallel()

	e := newTestExtractor(t)
	text := "First researchagent should look up market demand, then AnalysisAgent weighs the options, and ResearchAgent double-checks sources."

	plan := e.Extract(text)
	if len(plan.Subtasks) != 3 {
		t.Fatalf("expected 3 subtasks, got %d", len(plan.Subtasks))
	}
	if plan.Subtasks[0].AgentName != "ResearchAgent" {
		t.Fatalf("unexpected first agent: %q", plan.Subtasks[0].AgentName)
	}
	if plan.Subtasks[1].AgentName != "AnalysisAgent" {
		t.Fatalf("unexpected second agent: %q", plan.Subtasks[1].AgentName)
	}
	// repeated mentions yield repeated subtasks in text order
	if plan.Subtasks[2].AgentName != "ResearchAgent" {
		t.Fatalf("unexpected third agent: %q", plan.Subtasks[2].AgentName)
	}
	if !strings.Contains(plan.Subtasks[0].Task, "market demand") {
		t.Fatalf("unexpected task span: %q", plan.Subtasks[0].Task)
	}
}

func TestExtractFallback(t *testing.T) {
	t.Parallel()

	e := newTestExtractor(t)
	plan := e.Extract("The weather is nice today.")
	if !plan.Degraded {
		t.Fatal("expected degraded plan")
	}
	if len(plan.Subtasks) != 1 {
		t.Fatalf("expected exactly one fallback subtask, got %d", len(plan.Subtasks))
	}
	if plan.Subtasks[0].AgentName != testRoster[0] {
		t.Fatalf("fallback must target the first roster agent, got %q", plan.Subtasks[0].AgentName)
	}
	if plan.Subtasks[0].Task != FallbackTask {
		t.Fatalf("unexpected fallback task: %q", plan.Subtasks[0].Task)
	}
}

func TestExtractEmptyInput(t *testing.T) {
	t.Parallel()

	e := newTestExtractor(t)
	plan := e.Extract("")
	if !plan.Degraded || len(plan.Subtasks) != 1 {
		t.Fatalf("empty input must degrade to one subtask, got %+v", plan)
	}
}

func TestExtractStrategiesNeverMerge(t *testing.T) {
	t.Parallel()

	e := newTestExtractor(t)
	text := `<plan>
ResearchAgent: from the block
</plan>
1. AnalysisAgent: from the numbered list`

	plan := e.Extract(text)
	if len(plan.Subtasks) != 1 {
		t.Fatalf("expected only tagged-block subtasks, got %d", len(plan.Subtasks))
	}
	if plan.Subtasks[0].Task != "from the block" {
		t.Fatalf("unexpected task: %q", plan.Subtasks[0].Task)
	}
}

func TestExtractAnalysisHeading(t *testing.T) {
	t.Parallel()

	e := newTestExtractor(t)
	text := `## Analysis
The user is pivoting toward presales.

1. ResearchAgent: map presales skill gaps`

	plan := e.Extract(text)
	if plan.Analysis != "The user is pivoting toward presales." {
		t.Fatalf("unexpected analysis: %q", plan.Analysis)
	}
}

func TestFormatNumberedRoundTrip(t *testing.T) {
	t.Parallel()

	e := newTestExtractor(t)
	original := contract.Plan{
		Subtasks: []contract.Subtask{
			{AgentName: "ResearchAgent", Task: "find certs"},
			{AgentName: "SynthesisAgent", Task: "write the roadmap"},
		},
	}

	reparsed := e.Extract(FormatNumbered(original))
	if len(reparsed.Subtasks) != len(original.Subtasks) {
		t.Fatalf("round trip lost subtasks: %d != %d", len(reparsed.Subtasks), len(original.Subtasks))
	}
	for i := range original.Subtasks {
		if reparsed.Subtasks[i] != original.Subtasks[i] {
			t.Fatalf("round trip mismatch at %d: %+v != %+v", i, reparsed.Subtasks[i], original.Subtasks[i])
		}
	}
}
