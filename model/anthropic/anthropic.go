// Package anthropic adapts the Anthropic Messages API to model.Model.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"
	"github.com/hupe1980/devcrew/core"
	"github.com/hupe1980/devcrew/model"
)

// Options configures the adapter. MaxTokens is mandatory for the Messages
// API, so zero falls back to 4096.
type Options struct {
	Model       string
	Temperature float64
	MaxTokens   int64
	APIKey      string
	BaseURL     string
}

// Model drives the Messages API for one configured model name.
type Model struct {
	client anthropic.Client
	opts   Options
}

// NewModel builds the adapter. An empty APIKey falls back to ANTHROPIC_API_KEY.
func NewModel(optFns ...func(o *Options)) *Model {
	opts := Options{
		Model:       string(anthropic.ModelClaude3_5Sonnet20241022),
		Temperature: 0.7,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 4096
	}

	var reqOpts []option.RequestOption
	if opts.APIKey != "" {
		reqOpts = append(reqOpts, option.WithAPIKey(opts.APIKey))
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}

	return &Model{client: anthropic.NewClient(reqOpts...), opts: opts}
}

// Info implements model.Model.
func (m *Model) Info() model.Info {
	return model.Info{Name: m.opts.Model, Provider: "anthropic", SupportsTools: true}
}

// Generate implements model.Model.
func (m *Model) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	out := make(chan model.Response, 32)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		var (
			msg *anthropic.Message
			err error
		)
		if req.Stream {
			msg, err = m.stream(ctx, m.params(req), out)
		} else {
			msg, err = m.client.Messages.New(ctx, m.params(req))
		}
		if err != nil {
			errCh <- fmt.Errorf("anthropic: messages: %w", err)
			return
		}
		out <- fromMessage(msg)
	}()

	return out, errCh
}

func (m *Model) params(req model.Request) anthropic.MessageNewParams {
	p := anthropic.MessageNewParams{
		Model:       anthropic.Model(m.opts.Model),
		MaxTokens:   m.opts.MaxTokens,
		Temperature: anthropic.Float(m.opts.Temperature),
		Messages:    buildMessages(req.Contents),
	}
	if req.Instructions != "" {
		p.System = []anthropic.TextBlockParam{{Text: req.Instructions}}
	}
	if len(req.Tools) > 0 {
		p.Tools = buildTools(req.Tools)
	}
	return p
}

// stream forwards text deltas as partial responses and returns the
// accumulated message.
func (m *Model) stream(ctx context.Context, p anthropic.MessageNewParams, out chan<- model.Response) (*anthropic.Message, error) {
	s := m.client.Messages.NewStreaming(ctx, p)
	defer s.Close()

	msg := anthropic.Message{}
	for s.Next() {
		event := s.Current()
		if err := msg.Accumulate(event); err != nil {
			return nil, err
		}

		delta, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent)
		if !ok {
			continue
		}
		if text, ok := delta.Delta.AsAny().(anthropic.TextDelta); ok && text.Text != "" {
			out <- model.Response{
				ID:      msg.ID,
				Partial: true,
				Content: core.NewTextContent(core.RoleAssistant, text.Text),
			}
		}
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return &msg, nil
}

func fromMessage(msg *anthropic.Message) model.Response {
	content := core.Content{Role: core.RoleAssistant}
	for _, block := range msg.Content {
		switch b := block.AsAny().(type) {
		case anthropic.TextBlock:
			if b.Text != "" {
				content.Parts = append(content.Parts, core.TextPart{Text: b.Text})
			}
		case anthropic.ToolUseBlock:
			content.Parts = append(content.Parts, core.FunctionCallPart{FunctionCall: core.FunctionCall{
				ID:        b.ID,
				Name:      b.Name,
				Arguments: toolInput(b.Input),
			}})
		}
	}

	finish := string(msg.StopReason)
	if finish == "" {
		finish = "stop"
	}

	return model.Response{
		ID:           msg.ID,
		Content:      content,
		FinishReason: finish,
		Usage: &model.TokenUsage{
			PromptTokens:     int(msg.Usage.InputTokens),
			CompletionTokens: int(msg.Usage.OutputTokens),
			TotalTokens:      int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
		},
	}
}

func toolInput(input any) string {
	b, err := json.Marshal(input)
	if err != nil || string(b) == "null" {
		return "{}"
	}
	return string(b)
}

// buildMessages converts the transcript. System contents are dropped because
// instructions travel in the system field, and tool responses become
// tool_result blocks inside a user turn.
func buildMessages(contents []core.Content) []anthropic.MessageParam {
	msgs := make([]anthropic.MessageParam, 0, len(contents))
	prevTool := false

	for _, c := range contents {
		var msg *anthropic.MessageParam
		switch c.Role {
		case core.RoleSystem:
		case core.RoleAssistant:
			if blocks := assistantBlocks(c); len(blocks) > 0 {
				m := anthropic.NewAssistantMessage(blocks...)
				msg = &m
			}
		case core.RoleTool:
			blocks := toolResultBlocks(c)
			if len(blocks) == 0 {
				continue
			}
			// Results of parallel tool_use blocks travel in one user turn.
			if prevTool {
				last := &msgs[len(msgs)-1]
				last.Content = append(last.Content, blocks...)
				continue
			}
			m := anthropic.NewUserMessage(blocks...)
			msg = &m
		default:
			if text := c.Text(); text != "" {
				m := anthropic.NewUserMessage(anthropic.NewTextBlock(text))
				msg = &m
			}
		}
		if msg != nil {
			msgs = append(msgs, *msg)
			prevTool = c.Role == core.RoleTool
		}
	}

	return msgs
}

func assistantBlocks(c core.Content) []anthropic.ContentBlockParamUnion {
	var blocks []anthropic.ContentBlockParamUnion
	if text := c.Text(); text != "" {
		blocks = append(blocks, anthropic.NewTextBlock(text))
	}
	for _, fc := range c.FunctionCalls() {
		input := map[string]any{}
		if fc.Arguments != "" {
			_ = json.Unmarshal([]byte(fc.Arguments), &input)
		}
		blocks = append(blocks, anthropic.NewToolUseBlock(fc.ID, input, fc.Name))
	}
	return blocks
}

func toolResultBlocks(c core.Content) []anthropic.ContentBlockParamUnion {
	var blocks []anthropic.ContentBlockParamUnion
	for _, fr := range c.FunctionResponses() {
		if fr.Error != "" {
			blocks = append(blocks, anthropic.NewToolResultBlock(fr.ID, fr.Error, true))
			continue
		}
		text, ok := fr.Response.(string)
		if !ok {
			b, _ := json.Marshal(fr.Response)
			text = string(b)
		}
		blocks = append(blocks, anthropic.NewToolResultBlock(fr.ID, text, false))
	}
	return blocks
}

// buildTools maps JSON-schema tool definitions onto tool params.
func buildTools(defs []model.ToolDefinition) []anthropic.ToolUnionParam {
	tools := make([]anthropic.ToolUnionParam, 0, len(defs))

	for _, def := range defs {
		schema := anthropic.ToolInputSchemaParam{Type: constant.Object("object")}
		if params := def.Function.Parameters; params != nil {
			schema.Properties = params["properties"]
			schema.Required = stringSlice(params["required"])
		}

		tools = append(tools, anthropic.ToolUnionParam{OfTool: &anthropic.ToolParam{
			Name:        def.Function.Name,
			Description: anthropic.String(def.Function.Description),
			InputSchema: schema,
		}})
	}

	return tools
}

func stringSlice(v any) []string {
	switch vals := v.(type) {
	case []string:
		return vals
	case []any:
		out := make([]string, 0, len(vals))
		for _, val := range vals {
			if s, ok := val.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
