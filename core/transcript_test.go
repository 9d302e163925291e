package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranscript_ContentsLimit(t *testing.T) {
	tr := NewTranscript(NewTextContent(RoleUser, "question"))
	tr.Append(Content{Role: RoleAssistant, Parts: []Part{FunctionCallPart{FunctionCall: FunctionCall{ID: "1", Name: "f"}}}})
	tr.Append(Content{Role: RoleTool, Parts: []Part{FunctionResponsePart{FunctionResponse: FunctionResponse{ID: "1", Name: "f"}}}})
	tr.Append(NewTextContent(RoleAssistant, "answer"))

	assert.Len(t, tr.Contents(0), 4)

	last := tr.Contents(2)
	require.Len(t, last, 2, "leading tool response is dropped, first question kept")
	assert.Equal(t, "question", last[0].Text())
	assert.Equal(t, "answer", last[1].Text())
}

func TestTranscript_LastText(t *testing.T) {
	tr := NewTranscript(NewTextContent(RoleUser, "q"))
	_, ok := tr.LastText()
	assert.False(t, ok)

	tr.Append(NewTextContent(RoleAssistant, "first"))
	tr.Append(Content{Role: RoleAssistant, Parts: []Part{
		TextPart{Text: "thinking"},
		FunctionCallPart{FunctionCall: FunctionCall{Name: "f"}},
	}})

	txt, ok := tr.LastText()
	require.True(t, ok)
	assert.Equal(t, "first", txt)
}
