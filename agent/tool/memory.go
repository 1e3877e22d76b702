// Package tool declares the memory tool exposed to the planner model and
// decodes tool-call arguments into a closed union of memory operations.
package tool

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/planweave/planweave/agent/contract"
)

const MemoryToolName = "agent_memory"

var ErrUnknownAction = errors.New("unknown memory action")

// MemoryOp is the closed set of operations the model may request. Unknown
// actions are rejected at decode time with a typed error instead of falling
// through silently.
type MemoryOp interface {
	isMemoryOp()
}

type ReadOp struct{}

type WriteOp struct {
	Content string
}

type EditOp struct {
	OldString string
	NewString string
}

type StatusOp struct{}

type CompressOp struct{}

func (ReadOp) isMemoryOp()     {}
func (WriteOp) isMemoryOp()    {}
func (EditOp) isMemoryOp()     {}
func (StatusOp) isMemoryOp()   {}
func (CompressOp) isMemoryOp() {}

// Info returns the tool schema advertised to the model.
func Info() *schema.ToolInfo {
	return &schema.ToolInfo{
		Name: MemoryToolName,
		Desc: "Read, write, edit, inspect, or compress the planner's persistent memory. " +
			"Use it to keep user context, prior findings, and planning decisions across turns.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"action": {
				Type:     schema.String,
				Desc:     "One of: read, write, edit, status, compress.",
				Enum:     []string{"read", "write", "edit", "status", "compress"},
				Required: true,
			},
			"content": {
				Type: schema.String,
				Desc: "Replacement memory content for the write action.",
			},
			"old_string": {
				Type: schema.String,
				Desc: "Exact text to replace for the edit action; must occur exactly once.",
			},
			"new_string": {
				Type: schema.String,
				Desc: "Replacement text for the edit action.",
			},
		}),
	}
}

// DecodeOp maps raw tool-call arguments onto the operation union.
func DecodeOp(args map[string]any) (MemoryOp, error) {
	action, _ := args["action"].(string)
	action = strings.ToLower(strings.TrimSpace(action))

	switch action {
	case "read":
		return ReadOp{}, nil
	case "write":
		content, _ := args["content"].(string)
		return WriteOp{Content: content}, nil
	case "edit":
		oldString, _ := args["old_string"].(string)
		newString, _ := args["new_string"].(string)
		if oldString == "" {
			return nil, fmt.Errorf("%w: edit requires a non-empty old_string", contract.ErrValidation)
		}
		return EditOp{OldString: oldString, NewString: newString}, nil
	case "status":
		return StatusOp{}, nil
	case "compress":
		return CompressOp{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
}

// Execute runs one operation against a memory store and returns the status
// text fed back to the model. The store's own API never errors; decode
// failures are the caller's concern.
func Execute(_ context.Context, mem contract.Memory, op MemoryOp) string {
	switch o := op.(type) {
	case ReadOp:
		return mem.Read()
	case WriteOp:
		return mem.Write(o.Content)
	case EditOp:
		return mem.Edit(o.OldString, o.NewString)
	case StatusOp:
		return mem.Status()
	case CompressOp:
		return mem.Compress()
	default:
		return fmt.Sprintf("Error: unsupported memory operation %T.", op)
	}
}
