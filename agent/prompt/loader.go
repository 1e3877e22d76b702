// Package prompt holds the embedded planner prompt templates and the
// formatting of roster entries and few-shot examples into prompt text.
package prompt

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/planweave/planweave/agent/contract"
)

var (
	//go:embed template/planner_system.txt
	plannerSystemRaw string

	//go:embed template/planner_user.txt
	plannerUserRaw string
)

// Set holds the parsed planner templates.
type Set struct {
	system *template.Template
	user   *template.Template
}

// LoadSet parses the embedded templates. The embed is compile-time, so a
// parse failure is a programming error; MustLoadSet panics accordingly.
func LoadSet() (Set, error) {
	system, err := template.New("planner_system").Parse(plannerSystemRaw)
	if err != nil {
		return Set{}, fmt.Errorf("parse system template: %w", err)
	}
	user, err := template.New("planner_user").Parse(plannerUserRaw)
	if err != nil {
		return Set{}, fmt.Errorf("parse user template: %w", err)
	}
	return Set{system: system, user: user}, nil
}

func MustLoadSet() Set {
	set, err := LoadSet()
	if err != nil {
		panic(err)
	}
	return set
}

func (s Set) RenderSystem(toolName string, examples []contract.PlanExample) (string, error) {
	var b strings.Builder
	err := s.system.Execute(&b, map[string]string{
		"MemoryToolName": toolName,
		"Examples":       FormatExamples(examples),
	})
	if err != nil {
		return "", fmt.Errorf("render system prompt: %w", err)
	}
	return strings.TrimSpace(b.String()), nil
}

func (s Set) RenderUser(agents []contract.AgentInfo, context, question string) (string, error) {
	var b strings.Builder
	err := s.user.Execute(&b, map[string]string{
		"Agents":   FormatAgents(agents),
		"Context":  strings.TrimSpace(context),
		"Question": question,
	})
	if err != nil {
		return "", fmt.Errorf("render user prompt: %w", err)
	}
	return strings.TrimSpace(b.String()), nil
}

// FormatExamples renders each few-shot triple in the same tagged format the
// model is asked to produce.
func FormatExamples(examples []contract.PlanExample) string {
	var parts []string
	for _, ex := range examples {
		plan, err := json.Marshal(ex.Plan)
		if err != nil {
			continue
		}
		parts = append(parts, fmt.Sprintf(
			"Question: %s\n<analysis>%s</analysis>\n<plan>%s</plan>",
			ex.Question, ex.Analysis, string(plan),
		))
	}
	return strings.Join(parts, "\n\n")
}

func FormatAgents(agents []contract.AgentInfo) string {
	var b strings.Builder
	for _, a := range agents {
		fmt.Fprintf(&b, "- %s: %s\n", a.Name, a.Desc)
		if a.Strengths != "" {
			fmt.Fprintf(&b, "  Best for: %s\n", a.Strengths)
		}
		if a.Weaknesses != "" {
			fmt.Fprintf(&b, "  Weaknesses: %s\n", a.Weaknesses)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
