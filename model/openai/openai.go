// Package openai adapts the Chat Completions API to model.Model. Any
// OpenAI-compatible endpoint works, including the Gemini compatibility
// endpoint, by pointing Options.BaseURL at it.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hupe1980/devcrew/core"
	"github.com/hupe1980/devcrew/model"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Options configure the adapter. Zero MaxCompletionTokens leaves the limit to
// the endpoint.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
	APIKey              string
	BaseURL             string
}

// Model drives chat completions for one configured model name.
type Model struct {
	client openai.Client
	opts   Options
}

// NewModel builds the adapter. Empty APIKey and BaseURL fall back to the
// SDK's OPENAI_* environment handling.
func NewModel(optFns ...func(o *Options)) *Model {
	opts := Options{
		Model:       openai.ChatModelGPT4oMini,
		Temperature: 0.7,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	var reqOpts []option.RequestOption
	if opts.APIKey != "" {
		reqOpts = append(reqOpts, option.WithAPIKey(opts.APIKey))
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}

	return &Model{client: openai.NewClient(reqOpts...), opts: opts}
}

// Info implements model.Model.
func (m *Model) Info() model.Info {
	return model.Info{Name: m.opts.Model, Provider: "openai", SupportsTools: true}
}

// Generate implements model.Model. Streaming requests emit one partial
// response per text delta followed by the accumulated final response.
func (m *Model) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	out := make(chan model.Response, 32)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		var err error
		if req.Stream {
			err = m.stream(ctx, m.params(req), out)
		} else {
			err = m.complete(ctx, m.params(req), out)
		}
		if err != nil {
			errCh <- err
		}
	}()

	return out, errCh
}

func (m *Model) params(req model.Request) openai.ChatCompletionNewParams {
	p := openai.ChatCompletionNewParams{
		Model:       m.opts.Model,
		Messages:    buildMessages(req),
		Temperature: openai.Float(m.opts.Temperature),
	}
	if m.opts.MaxCompletionTokens > 0 {
		p.MaxCompletionTokens = openai.Int(m.opts.MaxCompletionTokens)
	}
	for _, def := range req.Tools {
		p.Tools = append(p.Tools, openai.ChatCompletionToolParam{
			Function: openai.FunctionDefinitionParam{
				Name:        def.Function.Name,
				Description: openai.String(def.Function.Description),
				Parameters:  def.Function.Parameters,
			},
		})
	}
	return p
}

func (m *Model) complete(ctx context.Context, p openai.ChatCompletionNewParams, out chan<- model.Response) error {
	completion, err := m.client.Chat.Completions.New(ctx, p)
	if err != nil {
		return fmt.Errorf("openai: chat completion: %w", err)
	}
	resp, err := fromCompletion(completion)
	if err != nil {
		return err
	}
	out <- resp
	return nil
}

func (m *Model) stream(ctx context.Context, p openai.ChatCompletionNewParams, out chan<- model.Response) error {
	p.StreamOptions = openai.ChatCompletionStreamOptionsParam{IncludeUsage: openai.Bool(true)}

	s := m.client.Chat.Completions.NewStreaming(ctx, p)
	defer s.Close()

	var acc openai.ChatCompletionAccumulator
	for s.Next() {
		chunk := s.Current()
		acc.AddChunk(chunk)
		for _, choice := range chunk.Choices {
			if choice.Delta.Content == "" {
				continue
			}
			out <- model.Response{
				ID:      chunk.ID,
				Partial: true,
				Content: core.NewTextContent(core.RoleAssistant, choice.Delta.Content),
			}
		}
	}
	if err := s.Err(); err != nil {
		return fmt.Errorf("openai: stream: %w", err)
	}

	resp, err := fromCompletion(&acc.ChatCompletion)
	if err != nil {
		return err
	}
	out <- resp
	return nil
}

var errNoChoices = errors.New("openai: response has no choices")

// fromCompletion converts the first choice into a final response.
func fromCompletion(c *openai.ChatCompletion) (model.Response, error) {
	if len(c.Choices) == 0 {
		return model.Response{}, errNoChoices
	}
	choice := c.Choices[0]

	content := core.Content{Role: core.RoleAssistant}
	if choice.Message.Content != "" {
		content.Parts = append(content.Parts, core.TextPart{Text: choice.Message.Content})
	}
	for _, tc := range choice.Message.ToolCalls {
		content.Parts = append(content.Parts, core.FunctionCallPart{FunctionCall: core.FunctionCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		}})
	}

	resp := model.Response{ID: c.ID, Content: content, FinishReason: choice.FinishReason}
	if c.Usage.TotalTokens > 0 {
		resp.Usage = &model.TokenUsage{
			PromptTokens:     int(c.Usage.PromptTokens),
			CompletionTokens: int(c.Usage.CompletionTokens),
			TotalTokens:      int(c.Usage.TotalTokens),
		}
	}
	return resp, nil
}

// buildMessages flattens the transcript into chat messages. Every tool
// response becomes its own tool message keyed by the call ID.
func buildMessages(req model.Request) []openai.ChatCompletionMessageParamUnion {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Contents)+1)
	if req.Instructions != "" {
		msgs = append(msgs, openai.SystemMessage(req.Instructions))
	}

	for _, c := range req.Contents {
		switch c.Role {
		case core.RoleSystem:
			msgs = append(msgs, openai.SystemMessage(c.Text()))
		case core.RoleAssistant:
			msgs = append(msgs, assistantMessage(c))
		case core.RoleTool:
			for _, fr := range c.FunctionResponses() {
				msgs = append(msgs, openai.ToolMessage(toolResult(fr), fr.ID))
			}
		default:
			if text := c.Text(); text != "" || c.Role == core.RoleUser {
				msgs = append(msgs, openai.UserMessage(text))
			}
		}
	}
	return msgs
}

func assistantMessage(c core.Content) openai.ChatCompletionMessageParamUnion {
	calls := c.FunctionCalls()
	if len(calls) == 0 {
		return openai.AssistantMessage(c.Text())
	}

	param := openai.ChatCompletionAssistantMessageParam{
		ToolCalls: make([]openai.ChatCompletionMessageToolCallParam, len(calls)),
	}
	if text := c.Text(); text != "" {
		param.Content.OfString = openai.String(text)
	}
	for i, fc := range calls {
		param.ToolCalls[i] = openai.ChatCompletionMessageToolCallParam{
			ID: fc.ID,
			Function: openai.ChatCompletionMessageToolCallFunctionParam{
				Name:      fc.Name,
				Arguments: fc.Arguments,
			},
		}
	}
	return openai.ChatCompletionMessageParamUnion{OfAssistant: &param}
}

// toolResult renders a function response as tool message text.
func toolResult(fr core.FunctionResponse) string {
	if fr.Error != "" {
		return "error: " + fr.Error
	}
	switch v := fr.Response.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	}
}
