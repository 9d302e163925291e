package flow

import (
	"fmt"

	"github.com/hupe1980/devcrew/core"
	"github.com/hupe1980/devcrew/model"
	"github.com/hupe1980/devcrew/tool"
)

// InstructionsProcessor handles system prompt and instruction processing.
type InstructionsProcessor struct{}

// NewInstructionsProcessor creates a new instructions processor.
func NewInstructionsProcessor() *InstructionsProcessor { return &InstructionsProcessor{} }

// Name returns the processor's identifier.
func (p *InstructionsProcessor) Name() string { return "instructions" }

// ProcessRequest adds system instructions to the chat request.
func (p *InstructionsProcessor) ProcessRequest(runCtx *core.RunContext, req *model.Request, agent FlowAgent) error {
	instructions, err := agent.ResolveInstructions(runCtx)
	if err != nil {
		return fmt.Errorf("failed to resolve instruction: %w", err)
	}

	runCtx.LogDebug("agent.instruction.resolved", "agent", agent.GetName(), "length", len(instructions))

	req.Instructions = instructions

	return nil
}

// ContentsProcessor copies the run transcript into the request.
type ContentsProcessor struct{}

// NewContentsProcessor creates a new contents processor.
func NewContentsProcessor() *ContentsProcessor { return &ContentsProcessor{} }

// Name returns the processor's identifier.
func (p *ContentsProcessor) Name() string { return "contents" }

// ProcessRequest sets the request contents to the (truncated) transcript.
func (p *ContentsProcessor) ProcessRequest(runCtx *core.RunContext, req *model.Request, agent FlowAgent) error {
	if runCtx.Transcript == nil {
		return fmt.Errorf("run context has no transcript")
	}
	req.Contents = runCtx.Transcript.Contents(agent.MaxHistoryMessages())
	return nil
}

// ToolsProcessor declares the agent's tools on the request.
type ToolsProcessor struct{}

// NewToolsProcessor creates a new tools processor.
func NewToolsProcessor() *ToolsProcessor { return &ToolsProcessor{} }

// Name returns the processor's identifier.
func (p *ToolsProcessor) Name() string { return "tools" }

// ProcessRequest appends one function definition per agent tool.
func (p *ToolsProcessor) ProcessRequest(_ *core.RunContext, req *model.Request, agent FlowAgent) error {
	for _, t := range agent.GetTools() {
		req.Tools = append(req.Tools, definition(t))
	}
	return nil
}

// TransferToolInjector declares transfer_to_agent for agents with hand-offs.
type TransferToolInjector struct{}

// NewTransferToolInjector creates a new transfer tool injector.
func NewTransferToolInjector() *TransferToolInjector { return &TransferToolInjector{} }

// Name returns the processor's identifier.
func (p *TransferToolInjector) Name() string { return "transfer_injector" }

// ProcessRequest appends the transfer tool unless it is already declared.
func (p *TransferToolInjector) ProcessRequest(_ *core.RunContext, req *model.Request, agent FlowAgent) error {
	targets := agent.HandoffTargets()
	if len(targets) == 0 {
		return nil
	}
	for _, td := range req.Tools {
		if td.Function.Name == tool.TransferToAgentToolName {
			return nil
		}
	}
	req.Tools = append(req.Tools, definition(tool.NewTransferToAgentTool(targets)))
	return nil
}

// FunctionCallIDProcessor assigns ids to function calls the provider left
// unnamed, so responses can be correlated.
type FunctionCallIDProcessor struct{}

// NewFunctionCallIDProcessor creates a new function call id processor.
func NewFunctionCallIDProcessor() *FunctionCallIDProcessor { return &FunctionCallIDProcessor{} }

// Name returns the processor's identifier.
func (p *FunctionCallIDProcessor) Name() string { return "function_call_ids" }

// ProcessResponse fills in missing function call ids.
func (p *FunctionCallIDProcessor) ProcessResponse(_ *core.RunContext, resp *model.Response, _ FlowAgent) error {
	var parts []core.Part
	for i, part := range resp.Content.Parts {
		fc, ok := part.(core.FunctionCallPart)
		if !ok || fc.FunctionCall.ID != "" {
			continue
		}
		if parts == nil {
			parts = make([]core.Part, len(resp.Content.Parts))
			copy(parts, resp.Content.Parts)
		}
		fc.FunctionCall.ID = "call_" + core.NewID()
		parts[i] = fc
	}
	if parts != nil {
		resp.Content.Parts = parts
	}
	return nil
}

func definition(t tool.Tool) model.ToolDefinition {
	return model.ToolDefinition{
		Type: "function",
		Function: model.FunctionDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		},
	}
}
