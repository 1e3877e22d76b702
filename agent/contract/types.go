package contract

import "time"

// Subtask is one delegated unit of work. Identity is positional: the order of
// subtasks in a plan is the intended execution order.
type Subtask struct {
	AgentName string `json:"agent_name"`
	Task      string `json:"task"`
	Completed bool   `json:"completed"`
}

// Plan is the structured output of one planning turn. Degraded marks plans
// produced by the roster fallback when no structure could be recognized; it
// is an observability signal, not an error.
type Plan struct {
	Analysis string    `json:"analysis"`
	Subtasks []Subtask `json:"subtasks"`
	Degraded bool      `json:"degraded,omitempty"`
}

// AgentInfo describes one entry in the static worker roster.
type AgentInfo struct {
	Name       string `json:"name"`
	Desc       string `json:"desc"`
	Strengths  string `json:"strengths,omitempty"`
	Weaknesses string `json:"weaknesses,omitempty"`
}

// PlanExample is one few-shot triple for the planner prompt.
type PlanExample struct {
	Question string    `json:"question"`
	Analysis string    `json:"analysis"`
	Plan     []Subtask `json:"plan"`
}

// Exchange is one user/assistant round, ordered by recency in a conversation.
type Exchange struct {
	UserInput string `json:"user_input"`
	Response  string `json:"response"`
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type ToolCall struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

type ModelRequest struct {
	Messages  []ChatMessage `json:"messages"`
	WithTools bool          `json:"with_tools,omitempty"`
}

type ModelResponse struct {
	Content   string     `json:"content"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// PlanRecord is the durable summary of one completed planning session.
type PlanRecord struct {
	ID           string    `json:"id"`
	SessionID    string    `json:"session_id"`
	Query        string    `json:"query"`
	TargetRole   string    `json:"target_role,omitempty"`
	Analysis     string    `json:"analysis,omitempty"`
	PlanText     string    `json:"plan_text"`
	SubtaskCount int       `json:"subtask_count"`
	Degraded     bool      `json:"degraded,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
