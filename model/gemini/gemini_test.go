package gemini

import (
	"testing"

	"github.com/hupe1980/devcrew/core"
	"github.com/hupe1980/devcrew/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestBuildContents(t *testing.T) {
	contents, err := buildContents([]core.Content{
		core.NewTextContent(core.RoleUser, "login screen in flutter"),
		{Role: core.RoleAssistant, Parts: []core.Part{core.FunctionCallPart{FunctionCall: core.FunctionCall{
			ID: "c1", Name: "handle_app_task", Arguments: `{"task":"login"}`,
		}}}},
		{Role: core.RoleTool, Parts: []core.Part{core.FunctionResponsePart{FunctionResponse: core.FunctionResponse{
			ID: "c1", Name: "handle_app_task", Response: "[App Dev] ...",
		}}}},
	})
	require.NoError(t, err)
	require.Len(t, contents, 3)

	assert.Equal(t, "user", contents[0].Role)
	assert.Equal(t, "model", contents[1].Role)
	require.NotNil(t, contents[1].Parts[0].FunctionCall)
	assert.Equal(t, "login", contents[1].Parts[0].FunctionCall.Args["task"])
	assert.Equal(t, "user", contents[2].Role)
	require.NotNil(t, contents[2].Parts[0].FunctionResponse)
	assert.Equal(t, "[App Dev] ...", contents[2].Parts[0].FunctionResponse.Response["output"])
}

func TestBuildContentsGroupsParallelResponses(t *testing.T) {
	contents, err := buildContents([]core.Content{
		core.NewTextContent(core.RoleUser, "api with docker deploy"),
		{Role: core.RoleAssistant, Parts: []core.Part{
			core.FunctionCallPart{FunctionCall: core.FunctionCall{ID: "a", Name: "Backend_Developer", Arguments: `{"input":"api"}`}},
			core.FunctionCallPart{FunctionCall: core.FunctionCall{ID: "b", Name: "DevOps_Expert", Arguments: `{"input":"docker"}`}},
		}},
		{Role: core.RoleTool, Parts: []core.Part{core.FunctionResponsePart{FunctionResponse: core.FunctionResponse{
			ID: "a", Name: "Backend_Developer", Response: "[Backend Dev] ...",
		}}}},
		{Role: core.RoleTool, Parts: []core.Part{core.FunctionResponsePart{FunctionResponse: core.FunctionResponse{
			ID: "b", Name: "DevOps_Expert", Response: "[DevOps] ...",
		}}}},
		core.NewTextContent(core.RoleUser, "thanks"),
	})
	require.NoError(t, err)
	require.Len(t, contents, 4)

	assert.Len(t, contents[1].Parts, 2)
	responses := contents[2]
	assert.Equal(t, "user", responses.Role)
	require.Len(t, responses.Parts, 2)
	assert.Equal(t, "a", responses.Parts[0].FunctionResponse.ID)
	assert.Equal(t, "b", responses.Parts[1].FunctionResponse.ID)
	assert.Equal(t, "thanks", contents[3].Parts[0].Text)
}

func TestBuildContentsInvalidArguments(t *testing.T) {
	_, err := buildContents([]core.Content{{Role: core.RoleAssistant, Parts: []core.Part{
		core.FunctionCallPart{FunctionCall: core.FunctionCall{Name: "x", Arguments: "{"}},
	}}})
	require.Error(t, err)
}

func TestToSchema(t *testing.T) {
	s := toSchema(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"agent": map[string]any{"type": "string", "enum": []any{"Web Development Agent"}},
		},
		"required": []string{"agent"},
	})

	assert.Equal(t, genai.TypeObject, s.Type)
	require.Contains(t, s.Properties, "agent")
	assert.Equal(t, genai.TypeString, s.Properties["agent"].Type)
	assert.Equal(t, []string{"Web Development Agent"}, s.Properties["agent"].Enum)
	assert.Equal(t, []string{"agent"}, s.Required)
}

func TestBuildTools(t *testing.T) {
	tools := buildTools([]model.ToolDefinition{{Function: model.FunctionDefinition{Name: "a", Description: "b"}}})
	require.Len(t, tools, 1)
	require.Len(t, tools[0].FunctionDeclarations, 1)
	assert.Equal(t, "a", tools[0].FunctionDeclarations[0].Name)
	assert.Nil(t, tools[0].FunctionDeclarations[0].Parameters)
}

func TestConvertResponse(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Role: "model", Parts: []*genai.Part{
				{FunctionCall: &genai.FunctionCall{Name: "handle_web_task", Args: map[string]any{"task": "navbar"}}},
			}},
			FinishReason: genai.FinishReasonStop,
		}},
	}

	out, err := convertResponse(resp)
	require.NoError(t, err)

	calls := out.Content.FunctionCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "handle_web_task", calls[0].Name)
	assert.JSONEq(t, `{"task":"navbar"}`, calls[0].Arguments)
	assert.Nil(t, out.Usage)

	_, err = convertResponse(&genai.GenerateContentResponse{})
	require.Error(t, err)
}
