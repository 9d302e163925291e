package crew

import (
	"fmt"

	"github.com/hupe1980/devcrew/tool"
)

// Tool names as exposed to the model.
const (
	ToolWebTask     = "handle_web_task"
	ToolAppTask     = "handle_app_task"
	ToolBackendTask = "handle_backend_task"
	ToolDevOpsTask  = "handle_devops_task"
)

// HandleWebTask describes how the web persona works on task.
func HandleWebTask(task string) string {
	return fmt.Sprintf("[Web Dev] Working on your web development task: %s (HTML, CSS, JS, React).", task)
}

// HandleAppTask describes how the app persona works on task.
func HandleAppTask(task string) string {
	return fmt.Sprintf("[App Dev] Handling your app development task: %s (Flutter, React Native, cross-platform).", task)
}

// HandleBackendTask describes how the backend persona works on task.
func HandleBackendTask(task string) string {
	return fmt.Sprintf("[Backend Dev] Working on backend task: %s (API, DB, auth, server logic).", task)
}

// HandleDevOpsTask describes how the DevOps persona works on task.
func HandleDevOpsTask(task string) string {
	return fmt.Sprintf("[DevOps] Handling DevOps task: %s (CI/CD, server deployment, containers, infra-as-code).", task)
}

// NewWebTaskTool returns HandleWebTask as a tool.
func NewWebTaskTool() *tool.FunctionTool {
	return tool.NewTaskTool(ToolWebTask, "Handle a web development task.", HandleWebTask)
}

// NewAppTaskTool returns HandleAppTask as a tool.
func NewAppTaskTool() *tool.FunctionTool {
	return tool.NewTaskTool(ToolAppTask, "Handle a mobile or cross-platform app development task.", HandleAppTask)
}

// NewBackendTaskTool returns HandleBackendTask as a tool.
func NewBackendTaskTool() *tool.FunctionTool {
	return tool.NewTaskTool(ToolBackendTask, "Handle a backend development task.", HandleBackendTask)
}

// NewDevOpsTaskTool returns HandleDevOpsTask as a tool.
func NewDevOpsTaskTool() *tool.FunctionTool {
	return tool.NewTaskTool(ToolDevOpsTask, "Handle a DevOps task.", HandleDevOpsTask)
}
