package core

import (
	"time"

	"github.com/google/uuid"
)

// EventActions encodes orchestration signals attached to an Event.
// Fields are pointers so absence can be distinguished from zero values.
type EventActions struct {
	TransferToAgent *string `json:"transfer_to_agent,omitempty"`
}

// Event is the unit of communication between agents, the runner and
// external clients. After emission it should be treated as immutable.
//
// Branch is empty for the top-level conversation and set to a dotted label
// ("Agentic_AI_Agent.Backend_Developer") for events of nested agent-tool runs.
type Event struct {
	ID           string       `json:"id"`
	RunID        string       `json:"run_id"`
	Author       string       `json:"author"`
	Actions      EventActions `json:"actions"`
	Branch       string       `json:"branch,omitempty"`
	Timestamp    time.Time    `json:"timestamp"`
	Content      *Content     `json:"content,omitempty"`
	Partial      bool         `json:"partial,omitempty"`
	TurnComplete bool         `json:"turn_complete,omitempty"`
	ErrorMessage string       `json:"error_message,omitempty"`
}

// NewEvent creates a bare event authored by 'author' bound to a run.
func NewEvent(runID, author string) Event {
	return Event{
		ID:        NewID(),
		RunID:     runID,
		Author:    author,
		Timestamp: time.Now().UTC(),
	}
}

// NewMessageEvent creates an assistant message event with a single text part.
func NewMessageEvent(runID, author, message string) Event {
	e := NewEvent(runID, author)
	c := NewTextContent(RoleAssistant, message)
	e.Content = &c
	return e
}

// NewUserMessageEvent creates a user-authored text message event.
func NewUserMessageEvent(runID, message string) Event {
	e := NewEvent(runID, RoleUser)
	c := NewTextContent(RoleUser, message)
	e.Content = &c
	return e
}

// NewFunctionCallEvent represents an agent requesting execution of a named function/tool.
func NewFunctionCallEvent(runID, author, id, functionName, args string) Event {
	e := NewEvent(runID, author)
	e.Content = &Content{
		Role: RoleAssistant,
		Parts: []Part{FunctionCallPart{FunctionCall: FunctionCall{
			ID:        id,
			Name:      functionName,
			Arguments: args,
		}}},
	}
	return e
}

// NewFunctionResponseEvent records the result (or error) of a tool invocation.
// If err is non-nil its message is copied into the response Error field.
func NewFunctionResponseEvent(runID, author, id, functionName string, result any, err error) Event {
	e := NewEvent(runID, author)
	fr := FunctionResponse{ID: id, Name: functionName, Response: result}
	if err != nil {
		fr.Error = err.Error()
	}
	e.Content = &Content{Role: RoleTool, Parts: []Part{FunctionResponsePart{FunctionResponse: fr}}}
	return e
}

// NewErrorEvent creates a system event carrying an error message.
func NewErrorEvent(runID, author string, err error) Event {
	e := NewEvent(runID, author)
	e.ErrorMessage = err.Error()
	return e
}

// NewID generates a new UUID based identifier for events and runs.
func NewID() string { return uuid.NewString() }

// GetFunctionCalls returns any FunctionCall parts contained within the event.
func (e Event) GetFunctionCalls() []FunctionCall {
	if e.Content == nil {
		return nil
	}
	return e.Content.FunctionCalls()
}

// GetFunctionResponses returns any FunctionResponse parts contained within the event.
func (e Event) GetFunctionResponses() []FunctionResponse {
	if e.Content == nil {
		return nil
	}
	return e.Content.FunctionResponses()
}

// Text returns the concatenated text parts of the event content.
func (e Event) Text() string {
	if e.Content == nil {
		return ""
	}
	return e.Content.Text()
}

// IsError reports whether the event carries an error message.
func (e Event) IsError() bool { return e.ErrorMessage != "" }

// IsFinalResponse reports whether the event completes an assistant turn: it
// carries content, is not partial, and has no pending tool calls or responses.
func (e Event) IsFinalResponse() bool {
	return e.Content != nil &&
		e.Content.Role == RoleAssistant &&
		!e.Partial &&
		len(e.GetFunctionCalls()) == 0 &&
		len(e.GetFunctionResponses()) == 0
}
