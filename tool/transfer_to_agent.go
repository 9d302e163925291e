package tool

import (
	"fmt"
	"slices"
	"strings"

	"github.com/hupe1980/devcrew/core"
)

// TransferToAgentToolName is the name of the injected hand-off tool.
const TransferToAgentToolName = "transfer_to_agent"

// TransferTarget describes one agent the caller may hand off to.
type TransferTarget struct {
	Name        string
	Description string
}

// transferToAgentTool requests orchestration transfer to one of a fixed set of agents.
type transferToAgentTool struct {
	targets []TransferTarget
}

// NewTransferToAgentTool constructs the transfer tool restricted to targets.
func NewTransferToAgentTool(targets []TransferTarget) Tool {
	return &transferToAgentTool{targets: slices.Clone(targets)}
}

func (t *transferToAgentTool) Name() string { return TransferToAgentToolName }

func (t *transferToAgentTool) Kind() Kind { return KindTransfer }

func (t *transferToAgentTool) Description() string {
	var b strings.Builder
	b.WriteString("Transfer control of the conversation to the agent best suited to answer. Available agents:")
	for _, target := range t.targets {
		fmt.Fprintf(&b, "\n- %s", target.Name)
		if target.Description != "" {
			fmt.Fprintf(&b, ": %s", target.Description)
		}
	}
	return b.String()
}

func (t *transferToAgentTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"agent": map[string]any{
				"type":        "string",
				"description": "Target agent name",
				"enum":        t.names(),
			},
		},
		"required": []string{"agent"},
	}
}

func (t *transferToAgentTool) names() []string {
	names := make([]string, len(t.targets))
	for i, target := range t.targets {
		names[i] = target.Name
	}
	return names
}

func (t *transferToAgentTool) Call(tc *core.ToolContext, args map[string]any) (any, error) {
	raw, ok := args["agent"]
	if !ok {
		return nil, NewToolError(t.Name(), "missing required field 'agent'", CodeValidation)
	}
	agentName, ok := raw.(string)
	if !ok || agentName == "" {
		return nil, NewToolError(t.Name(), "field 'agent' must be non-empty string", CodeValidation)
	}
	if !slices.Contains(t.names(), agentName) {
		tc.LogWarn("tool.transfer.rejected", "from_agent", tc.AgentName(), "to_agent", agentName)
		return nil, &ToolError{
			Tool:    t.Name(),
			Message: fmt.Sprintf("agent %q is not a hand-off target of %s", agentName, tc.AgentName()),
			Code:    CodeTransferRejected,
			Details: t.names(),
		}
	}
	tc.TransferToAgent(agentName)
	return map[string]any{"transferred": true, "agent": agentName}, nil
}
