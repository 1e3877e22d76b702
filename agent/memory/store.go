// Package memory implements a capacity-bounded persistent text buffer owned
// by exactly one agent. Writes that would exceed capacity are compressed,
// favoring marker-tagged lines and recency; edits require an unambiguous
// match. Operation outcomes are status strings, never errors.
package memory

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	DefaultCapacity   = 24000
	DefaultThreshold  = 20000
	DefaultRecentKeep = 50
)

// DefaultMarkers tag lines that survive compression regardless of age.
var DefaultMarkers = []string{"KEY_FINDINGS", "USER_PREFERENCES", "RESEARCHED_TOPICS", "TARGET_ROLE"}

// EmptyReadPlaceholder is returned by Read on an empty buffer; Read never
// fails and never returns "".
const EmptyReadPlaceholder = "No previous conversation memory found. This is the start of the conversation."

const compressionMarkerPrefix = "[memory compressed "

type Option func(*Store)

func WithCapacity(capacity int) Option {
	return func(s *Store) {
		if capacity > 0 {
			s.capacity = capacity
		}
	}
}

// WithThreshold sets the compression trigger. It must stay strictly below
// capacity to leave headroom; values outside (0, capacity) are ignored.
func WithThreshold(threshold int) Option {
	return func(s *Store) {
		if threshold > 0 {
			s.threshold = threshold
		}
	}
}

func WithRecentKeep(lines int) Option {
	return func(s *Store) {
		if lines > 0 {
			s.recentKeep = lines
		}
	}
}

func WithMarkers(markers []string) Option {
	return func(s *Store) {
		if len(markers) > 0 {
			s.markers = markers
		}
	}
}

func WithNow(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Store is not safe for concurrent use; each instance belongs to one agent
// and is mutated by one logical turn at a time.
type Store struct {
	capacity   int
	threshold  int
	recentKeep int
	markers    []string

	buffer       string
	lastUpdated  time.Time
	compressions int

	now func() time.Time
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		capacity:   DefaultCapacity,
		threshold:  DefaultThreshold,
		recentKeep: DefaultRecentKeep,
		markers:    DefaultMarkers,
		now:        time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.threshold >= s.capacity {
		s.threshold = s.capacity * 5 / 6
	}
	return s
}

func (s *Store) Read() string {
	if strings.TrimSpace(s.buffer) == "" {
		return EmptyReadPlaceholder
	}
	return s.buffer
}

// Peek returns the raw buffer, empty when nothing was stored.
func (s *Store) Peek() string {
	return s.buffer
}

func (s *Store) Size() int {
	return len(s.buffer)
}

func (s *Store) CompressionCount() int {
	return s.compressions
}

// Write replaces the entire buffer. Oversized content is compressed first.
// Overwriting existing content is allowed but flagged, and the discarded
// content is echoed back so the caller can inspect what was lost.
func (s *Store) Write(content string) string {
	if len(content) > s.capacity {
		content = s.compress(content)
	}

	if s.buffer != "" {
		previous := s.buffer
		s.buffer = content
		s.touch()
		return fmt.Sprintf(
			"Warning: overwriting existing content (%d chars). Previous content was:\n%s\n\nMemory updated. New size: %d chars.",
			len(previous), previous, len(content),
		)
	}

	s.buffer = content
	s.touch()
	return fmt.Sprintf("Memory updated. Size: %d chars.", len(content))
}

// Edit replaces exactly one occurrence of oldString. Zero occurrences is a
// not-found condition; more than one is ambiguous and nothing is mutated.
func (s *Store) Edit(oldString, newString string) string {
	if !strings.Contains(s.buffer, oldString) || oldString == "" {
		return fmt.Sprintf("Error: %q not found in memory.", oldString)
	}

	count := strings.Count(s.buffer, oldString)
	if count > 1 {
		return fmt.Sprintf(
			"Warning: found %d occurrences of %q. No changes made; provide more specific context.",
			count, oldString,
		)
	}

	s.buffer = strings.Replace(s.buffer, oldString, newString, 1)
	if len(s.buffer) > s.threshold {
		s.buffer = s.compress(s.buffer)
	}
	s.touch()
	return "Memory edited. 1 occurrence replaced."
}

// Status reports usage and metadata, with a near-capacity warning once usage
// crosses the compression threshold.
func (s *Store) Status() string {
	usage := float64(len(s.buffer)) / float64(s.capacity) * 100

	lastUpdated := "never"
	if !s.lastUpdated.IsZero() {
		lastUpdated = s.lastUpdated.Format(time.RFC3339)
	}

	lines := []string{
		"Memory status:",
		fmt.Sprintf("  capacity: %d/%d characters (%.1f%%)", len(s.buffer), s.capacity, usage),
		fmt.Sprintf("  last updated: %s", lastUpdated),
		fmt.Sprintf("  compression events: %d", s.compressions),
	}
	if len(s.buffer) > s.threshold {
		lines = append(lines, "  warning: memory nearing capacity, compression may occur soon")
	}
	return strings.Join(lines, "\n")
}

// Compress applies the compression pass unconditionally.
func (s *Store) Compress() string {
	oldSize := len(s.buffer)
	s.buffer = s.compress(s.buffer)
	s.touch()
	return fmt.Sprintf("Memory compressed from %d to %d characters.", oldSize, len(s.buffer))
}

// compress keeps the union of marker-tagged lines and the most recent lines,
// deduplicated preserving the most recent occurrence and relative order. If
// the result still exceeds the budget it is hard-truncated from the front,
// trading completeness for recency. A marker line with the running
// compression count is prepended; the final result never exceeds capacity.
func (s *Store) compress(content string) string {
	lines := strings.Split(content, "\n")

	// drop bookkeeping markers from previous passes so re-compressing an
	// already-compressed buffer changes nothing but the marker line
	filtered := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(line, compressionMarkerPrefix) {
			continue
		}
		filtered = append(filtered, line)
	}
	lines = filtered

	var important []string
	for _, line := range lines {
		if s.isImportant(line) {
			important = append(important, line)
		}
	}

	recent := lines
	if len(lines) > s.recentKeep {
		recent = lines[len(lines)-s.recentKeep:]
	}

	combined := append(append([]string{}, important...), recent...)
	seen := make(map[string]struct{}, len(combined))
	kept := make([]string, 0, len(combined))
	for i := len(combined) - 1; i >= 0; i-- {
		line := combined[i]
		if strings.TrimSpace(line) == "" {
			continue
		}
		if _, dup := seen[line]; dup {
			continue
		}
		seen[line] = struct{}{}
		kept = append(kept, line)
	}
	reverse(kept)

	s.compressions++
	marker := fmt.Sprintf("%s%d times to fit capacity]\n", compressionMarkerPrefix, s.compressions)

	result := strings.Join(kept, "\n")
	if budget := s.capacity - len(marker); len(result) > budget {
		result = result[len(result)-budget:]
	}

	log.Debug().
		Int("before", len(content)).
		Int("after", len(marker)+len(result)).
		Int("count", s.compressions).
		Msg("memory compressed")

	return marker + result
}

func (s *Store) isImportant(line string) bool {
	for _, marker := range s.markers {
		if strings.Contains(line, marker) {
			return true
		}
	}
	return false
}

func (s *Store) touch() {
	s.lastUpdated = s.now().UTC()
}

func reverse(lines []string) {
	for i, j := 0, len(lines)-1; i < j; i, j = i+1, j-1 {
		lines[i], lines[j] = lines[j], lines[i]
	}
}
