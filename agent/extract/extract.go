// Package extract converts free-form planner model output into a Plan.
//
// Extraction is total: whatever the model produced, Extract returns a plan
// with at least one subtask. It tries an ordered cascade of independent
// strategies and stops at the first one that yields any well-formed subtask;
// results from different strategies are never merged. Duplicate mentions of
// the same agent intentionally produce duplicate subtasks.
package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/planweave/planweave/agent/contract"
)

// AgentSuffix is the role-marker convention: every valid agent name ends with
// this literal suffix. It is what lets the numbered/bullet strategies tell an
// agent header apart from ordinary prose.
const AgentSuffix = "Agent"

// FallbackTask is the generic description used when no strategy recognizes
// any structure at all.
const FallbackTask = "Address the user's request with available knowledge and summarize actionable next steps."

type strategy struct {
	name string
	run  func(text string) []contract.Subtask
}

type Extractor struct {
	roster     []string
	strategies []strategy
}

// New builds an extractor for the given agent roster. The roster order
// matters only for the fallback-of-last-resort, which targets the first
// entry.
func New(roster []string) (*Extractor, error) {
	if len(roster) == 0 {
		return nil, fmt.Errorf("%w: agent roster is empty", contract.ErrValidation)
	}
	names := make([]string, 0, len(roster))
	for _, n := range roster {
		n = strings.TrimSpace(n)
		if n == "" {
			return nil, fmt.Errorf("%w: agent roster contains an empty name", contract.ErrValidation)
		}
		names = append(names, n)
	}

	e := &Extractor{roster: names}
	e.strategies = []strategy{
		{name: "tagged_block", run: e.fromTaggedBlock},
		{name: "numbered_list", run: e.fromNumberedList},
		{name: "bullet_list", run: e.fromBulletList},
		{name: "agent_mention", run: e.fromAgentMentions},
	}
	return e, nil
}

// Extract never fails. The returned plan has at least one subtask; Degraded
// is set when only the roster fallback applied.
func (e *Extractor) Extract(text string) contract.Plan {
	plan := contract.Plan{Analysis: extractAnalysis(text)}

	for _, s := range e.strategies {
		if subtasks := s.run(text); len(subtasks) > 0 {
			plan.Subtasks = subtasks
			return plan
		}
	}

	log.Warn().
		Str("agent", e.roster[0]).
		Msg("no plan structure recognized, substituting generic fallback subtask")
	plan.Subtasks = []contract.Subtask{{AgentName: e.roster[0], Task: FallbackTask}}
	plan.Degraded = true
	return plan
}

var (
	planBlockRe = regexp.MustCompile(`(?s)<plan>\s*(.*?)\s*</plan>`)
	planEntryRe = regexp.MustCompile(`(?i)\{\s*"agent_name"\s*:\s*"([^"]+)"\s*,\s*"task"\s*:\s*"([^"]+)"\s*(?:,\s*"completed"\s*:\s*(?:true|false)\s*)?\}`)
	planLineRe  = regexp.MustCompile(`(?m)^\s*(?:[-*•]|\d+[.)])?\s*([A-Za-z]\w*)\s*:\s*(.+)$`)

	numberedRe = regexp.MustCompile(`(?m)^\s*\d+[.)]\s+\**(\w*Agent)\**\s*:\s*(.+)$`)
	bulletRe   = regexp.MustCompile(`(?m)^\s*[-*•]\s+\**(\w*Agent)\**\s*:\s*(.+)$`)

	analysisTagRe     = regexp.MustCompile(`(?s)<analysis>(.*?)</analysis>`)
	analysisHeadingRe = regexp.MustCompile(`(?si)(?:^|\n)(?:#{1,3}\s*analysis:?|\*\*analysis\*\*:?)\s*\n(.*?)(?:\n\s*\n|$)`)
)

// fromTaggedBlock parses a delimited <plan> block: strict structured records
// first, then readable "Name: task" lines. Agent names match the roster
// case-insensitively and are canonicalized to roster spelling. Lines that do
// not parse are skipped, never fatal.
func (e *Extractor) fromTaggedBlock(text string) []contract.Subtask {
	m := planBlockRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	block := strings.Trim(m[1], "[] \n")

	var subtasks []contract.Subtask
	for _, entry := range planEntryRe.FindAllStringSubmatch(block, -1) {
		name, ok := e.canonicalName(entry[1])
		if !ok {
			continue
		}
		task := strings.TrimSpace(entry[2])
		if task == "" {
			continue
		}
		subtasks = append(subtasks, contract.Subtask{AgentName: name, Task: task})
	}
	if len(subtasks) > 0 {
		return subtasks
	}

	for _, line := range planLineRe.FindAllStringSubmatch(block, -1) {
		name, ok := e.canonicalName(line[1])
		if !ok {
			continue
		}
		task := strings.TrimSpace(line[2])
		if task == "" {
			continue
		}
		subtasks = append(subtasks, contract.Subtask{AgentName: name, Task: task})
	}
	return subtasks
}

// fromNumberedList scans the whole text for "N. SomethingAgent: task" lines.
// The reserved "Agent" suffix is required; roster membership is not, so the
// planner can delegate to agents registered after this extractor was built.
func (e *Extractor) fromNumberedList(text string) []contract.Subtask {
	return subtasksFromLines(numberedRe.FindAllStringSubmatch(text, -1))
}

func (e *Extractor) fromBulletList(text string) []contract.Subtask {
	return subtasksFromLines(bulletRe.FindAllStringSubmatch(text, -1))
}

func subtasksFromLines(matches [][]string) []contract.Subtask {
	var subtasks []contract.Subtask
	for _, m := range matches {
		name := m[1]
		if !strings.HasSuffix(name, AgentSuffix) || name == AgentSuffix {
			continue
		}
		task := strings.TrimSpace(m[2])
		if task == "" {
			continue
		}
		subtasks = append(subtasks, contract.Subtask{AgentName: name, Task: task})
	}
	return subtasks
}

type mention struct {
	name  string
	start int
	end   int
}

// fromAgentMentions captures, for every roster-name mention in order of
// appearance, the text span up to the next mention (or end of text) as that
// agent's task. Agents that are never mentioned are never force-included.
func (e *Extractor) fromAgentMentions(text string) []contract.Subtask {
	var mentions []mention
	lower := strings.ToLower(text)
	for _, name := range e.roster {
		needle := strings.ToLower(name)
		for idx := 0; ; {
			rel := strings.Index(lower[idx:], needle)
			if rel < 0 {
				break
			}
			start := idx + rel
			mentions = append(mentions, mention{name: name, start: start, end: start + len(needle)})
			idx = start + len(needle)
		}
	}
	if len(mentions) == 0 {
		return nil
	}

	sortMentions(mentions)

	var subtasks []contract.Subtask
	for i, m := range mentions {
		limit := len(text)
		if i+1 < len(mentions) {
			limit = mentions[i+1].start
		}
		task := strings.Trim(text[m.end:limit], " \t\n:-—,.")
		if task == "" {
			continue
		}
		subtasks = append(subtasks, contract.Subtask{AgentName: m.name, Task: task})
	}
	return subtasks
}

func sortMentions(mentions []mention) {
	// insertion sort: mention lists are tiny and mostly ordered already
	for i := 1; i < len(mentions); i++ {
		for j := i; j > 0 && mentions[j].start < mentions[j-1].start; j-- {
			mentions[j], mentions[j-1] = mentions[j-1], mentions[j]
		}
	}
}

func (e *Extractor) canonicalName(name string) (string, bool) {
	for _, r := range e.roster {
		if strings.EqualFold(r, name) {
			return r, true
		}
	}
	return "", false
}

// extractAnalysis runs its own two-format cascade and defaults to "".
func extractAnalysis(text string) string {
	if m := analysisTagRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := analysisHeadingRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// FormatNumbered renders a plan in the numbered-markdown form the numbered
// strategy parses, so formatting and re-extracting round-trips.
func FormatNumbered(plan contract.Plan) string {
	var b strings.Builder
	for i, st := range plan.Subtasks {
		fmt.Fprintf(&b, "%d. %s: %s\n", i+1, st.AgentName, st.Task)
	}
	return b.String()
}
