// Package crew assembles the developer assistant's agent topology.
//
// The crew is a fixed tree of persona agents:
//
//	Agent (orchestrator)
//	├── hand-off: Agentic_AI_Agent
//	│   ├── tool Backend_Developer -> Backend_Developer_Agent (handle_backend_task)
//	│   └── tool DevOps_Expert     -> DevOps_Developer_Agent (handle_devops_task)
//	├── hand-off: App Development Agent (handle_app_task)
//	└── hand-off: Web Development Agent (handle_web_task)
//
// The backend and DevOps agents are reachable only through the agentic
// agent's tools, never as direct hand-off targets of the root.
package crew

import (
	"time"

	"github.com/hupe1980/devcrew/agent"
	"github.com/hupe1980/devcrew/core"
	"github.com/hupe1980/devcrew/model"
	"github.com/hupe1980/devcrew/tool"
)

// Agent names.
const (
	AgentRoot    = "Agent"
	AgentAgentic = "Agentic_AI_Agent"
	AgentWeb     = "Web Development Agent"
	AgentApp     = "App Development Agent"
	AgentBackend = "Backend_Developer_Agent"
	AgentDevOps  = "DevOps_Developer_Agent"
)

// Names of the agent tools exposed by the agentic agent.
const (
	ToolBackendDeveloper = "Backend_Developer"
	ToolDevOpsExpert     = "DevOps_Expert"
)

const (
	webInstruction = "You are an expert front-end web developer. Your job is to handle all web development-related tasks. " +
		"Use HTML, CSS, JavaScript, React, and Tailwind CSS where needed. ONLY respond to web development queries."
	appInstruction = "You are an expert in mobile and cross-platform app development. You ONLY handle tasks related to " +
		"mobile app design, development, and debugging using Flutter or React Native."
	backendInstruction = "You are an expert in backend development. Your job is to handle all tasks related to server-side logic, " +
		"API development, database queries, and authentication systems. ONLY respond to backend-related queries."
	devopsInstruction = "You are a DevOps specialist. Your responsibility is to manage CI/CD pipelines, automate deployments, " +
		"configure servers, and handle infrastructure. ONLY respond to DevOps-related queries."
	agenticInstruction = "Decides whether the task is backend or DevOps and uses the correct developer agent as a tool. " +
		"and also answer the agentic ai user queries"
	rootInstruction = "You are the orchestrator. Route user queries to the most suitable agent"
)

const (
	webHandoff     = "Handles all user queries related to websites and frontend development."
	appHandoff     = "Handles all user queries related to app development and mobile UI."
	backendHandoff = "Handles backend APIs, databases, auth systems, and server-side programming."
	devopsHandoff  = "Expert in CI/CD, server deployment, containerization, and cloud infrastructure."
	agenticHandoff = "Answer the user agentic ai, devops and backend development queries."
)

// ExamplePrompts are sample questions offered by the front ends.
var ExamplePrompts = []string{
	"How do I create a REST API in Node.js?",
	"What is JWT authentication and how does it work?",
	"How to deploy a web app using Docker and Kubernetes?",
	"How to create a login screen in Flutter?",
	"How to create a responsive navbar using Tailwind CSS?",
}

// Options configures every agent of the crew.
type Options struct {
	EnableStreaming    bool
	ToolTimeout        time.Duration
	MaxHistoryMessages int
}

// New builds the crew around llm and returns its registry. Construction is
// pure: no network access happens until a run starts.
func New(llm model.Model, optFns ...func(o *Options)) *Registry {
	opts := Options{
		ToolTimeout:        60 * time.Second,
		MaxHistoryMessages: 50,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	newAgent := func(name, instruction, handoff string, tools []tool.Tool, handoffs []core.Agent) *agent.ModelAgent {
		return agent.NewModelAgent(name, llm, func(o *agent.ModelAgentOptions) {
			o.Instruction = agent.NewInstructionFromText(instruction)
			o.HandoffDescription = handoff
			o.Tools = tools
			o.Handoffs = handoffs
			o.EnableStreaming = opts.EnableStreaming
			o.ToolTimeout = opts.ToolTimeout
			o.MaxHistoryMessages = opts.MaxHistoryMessages
		})
	}

	web := newAgent(AgentWeb, webInstruction, webHandoff, []tool.Tool{NewWebTaskTool()}, nil)
	app := newAgent(AgentApp, appInstruction, appHandoff, []tool.Tool{NewAppTaskTool()}, nil)
	backend := newAgent(AgentBackend, backendInstruction, backendHandoff, []tool.Tool{NewBackendTaskTool()}, nil)
	devops := newAgent(AgentDevOps, devopsInstruction, devopsHandoff, []tool.Tool{NewDevOpsTaskTool()}, nil)

	agentic := newAgent(AgentAgentic, agenticInstruction, agenticHandoff, []tool.Tool{
		tool.NewAgentTool(backend, ToolBackendDeveloper, "You are expert in backend development"),
		tool.NewAgentTool(devops, ToolDevOpsExpert, "You are a DevOps expert"),
	}, nil)

	root := newAgent(AgentRoot, rootInstruction, "", nil, []core.Agent{agentic, app, web})

	return NewRegistry(root)
}
