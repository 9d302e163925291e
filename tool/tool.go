// Package tool implements the function calling subsystem that lets agents
// invoke structured capabilities with schema validated arguments. A tool is
// one of three kinds: a plain function, a nested agent run, or the hand-off
// request injected for agents that declare hand-offs.
package tool

import (
	"fmt"

	"github.com/hupe1980/devcrew/core"
	"github.com/hupe1980/devcrew/internal/util"
)

// Kind discriminates the tool variants understood by the runtime.
type Kind int

const (
	// KindFunction is a pure function tool.
	KindFunction Kind = iota
	// KindAgent wraps an agent that is run to completion on every call.
	KindAgent
	// KindTransfer is the injected transfer_to_agent tool.
	KindTransfer
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindFunction:
		return "function"
	case KindAgent:
		return "agent"
	case KindTransfer:
		return "transfer"
	default:
		return "unknown"
	}
}

// Tool defines the interface for extending agent capabilities with external functions.
//
// Tool implementations should provide a snake_case name, a description the
// model can act on and a JSON schema for their arguments. Implementations
// must be safe for concurrent use.
type Tool interface {
	// Name returns the unique identifier for this tool.
	Name() string

	// Description returns a human-readable description of what this tool does.
	// This description is provided to the LLM to help it understand when and how to use the tool.
	Description() string

	// Parameters returns a JSON schema describing the expected input format.
	Parameters() map[string]any

	// Kind reports which tool variant this is.
	Kind() Kind

	// Call executes the tool with already decoded arguments.
	Call(toolCtx *core.ToolContext, args map[string]any) (any, error)
}

// Error codes attached to ToolError.
const (
	CodeValidation       = "VALIDATION_ERROR"
	CodeExecution        = "EXECUTION_ERROR"
	CodeNotFound         = "NOT_FOUND"
	CodeTransferRejected = "TRANSFER_REJECTED"
)

// ValidationError represents parameter validation errors with detailed information.
type ValidationError = util.ValidationError

// ToolError represents errors that occur during tool execution. Tool errors are
// reported back to the model instead of failing the run.
type ToolError struct {
	Tool    string `json:"tool"`              // Name of the tool that failed
	Message string `json:"message"`           // Error message
	Code    string `json:"code"`              // Error code for categorization
	Details any    `json:"details,omitempty"` // Additional error details
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewToolError creates a new ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{
		Tool:    tool,
		Message: message,
		Code:    code,
	}
}

// Names returns the tool names in order.
func Names(tools []Tool) []string {
	names := make([]string, len(tools))
	for i, t := range tools {
		names[i] = t.Name()
	}
	return names
}
