// Package assemble merges conversation history and per-agent memory
// snapshots into one bounded, prompt-ready context string.
package assemble

import (
	"fmt"
	"sort"
	"strings"

	"github.com/planweave/planweave/agent/contract"
)

const (
	DefaultMaxContextLength = 24000
	DefaultMaxHistory       = 10
	DefaultUserInputCap     = 300
	DefaultResponseCap      = 500
	DefaultMemoryLines      = 20
	DefaultMemoryLineCap    = 500
)

// TruncationNotice is prepended whenever the assembled context had to be cut
// down to the length budget.
const TruncationNotice = "[context truncated to fit size budget]"

type Option func(*Builder)

func WithMaxContextLength(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.maxContextLength = n
		}
	}
}

func WithMaxHistory(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.maxHistory = n
		}
	}
}

func WithMemoryLines(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.memoryLines = n
		}
	}
}

type Builder struct {
	maxContextLength int
	maxHistory       int
	userInputCap     int
	responseCap      int
	memoryLines      int
	memoryLineCap    int
}

func New(opts ...Option) *Builder {
	b := &Builder{
		maxContextLength: DefaultMaxContextLength,
		maxHistory:       DefaultMaxHistory,
		userInputCap:     DefaultUserInputCap,
		responseCap:      DefaultResponseCap,
		memoryLines:      DefaultMemoryLines,
		memoryLineCap:    DefaultMemoryLineCap,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// Build emits the most recent history exchanges, then one labeled section per
// agent with non-empty memory containing only that memory's most recent
// lines. The result never exceeds the length budget; when truncation is
// needed it scans backward keeping whole lines, so the most recent material
// always survives over older material.
func (b *Builder) Build(memories map[string]string, history []contract.Exchange) string {
	var parts []string

	if len(history) > 0 {
		recent := history
		if len(recent) > b.maxHistory {
			recent = recent[len(recent)-b.maxHistory:]
		}
		section := []string{"RECENT CONVERSATION HISTORY:"}
		for i, exchange := range recent {
			section = append(section,
				fmt.Sprintf("Q%d: %s", i+1, capLength(exchange.UserInput, b.userInputCap)),
				fmt.Sprintf("A%d: %s", i+1, capLength(exchange.Response, b.responseCap)),
			)
		}
		parts = append(parts, strings.Join(section, "\n"))
	}

	for _, name := range sortedAgents(memories) {
		mem := strings.TrimSpace(memories[name])
		if mem == "" {
			continue
		}
		lines := strings.Split(mem, "\n")
		if len(lines) > b.memoryLines {
			lines = lines[len(lines)-b.memoryLines:]
		}
		section := []string{strings.ToUpper(name) + "_MEMORY:"}
		for _, line := range lines {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			section = append(section, capLength(line, b.memoryLineCap))
		}
		if len(section) > 1 {
			parts = append(parts, strings.Join(section, "\n"))
		}
	}

	context := strings.Join(parts, "\n\n")
	if len(context) > b.maxContextLength {
		context = b.truncate(context)
	}
	return context
}

// truncate keeps whole lines scanning from the end until the budget is
// exhausted, reserving room for the notice marker.
func (b *Builder) truncate(context string) string {
	notice := TruncationNotice + "\n\n"
	budget := b.maxContextLength - len(notice)

	lines := strings.Split(context, "\n")
	kept := make([]string, 0, len(lines))
	total := 0
	for i := len(lines) - 1; i >= 0; i-- {
		cost := len(lines[i]) + 1
		if total+cost > budget {
			break
		}
		kept = append(kept, lines[i])
		total += cost
	}
	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}

	return notice + strings.Join(kept, "\n")
}

func sortedAgents(memories map[string]string) []string {
	names := make([]string, 0, len(memories))
	for name := range memories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func capLength(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return s[:max]
}
