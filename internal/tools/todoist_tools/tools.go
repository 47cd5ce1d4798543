package todoist_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/autopilot/internal/instrumentation"
	"github.com/teemow/autopilot/internal/server"
	"github.com/teemow/autopilot/internal/todoist"
	"github.com/teemow/autopilot/internal/tools/batch"
	"github.com/teemow/autopilot/internal/tools/common"
)

// DefaultFilter is used by todoist_list_tasks when no filter is given.
const DefaultFilter = "today | overdue"

type taskView struct {
	ID          string   `json:"id"`
	Content     string   `json:"content"`
	Description string   `json:"description,omitempty"`
	Priority    string   `json:"priority"`
	Due         string   `json:"due,omitempty"`
	Recurring   bool     `json:"recurring,omitempty"`
	Labels      []string `json:"labels,omitempty"`
	ProjectID   string   `json:"project_id,omitempty"`
	URL         string   `json:"url,omitempty"`
}

func toTaskView(t todoist.Task) taskView {
	v := taskView{
		ID:          t.ID,
		Content:     t.Content,
		Description: t.Description,
		Priority:    t.PriorityLabel(),
		Labels:      t.Labels,
		ProjectID:   t.ProjectID,
		URL:         t.URL,
	}
	if t.Due != nil {
		v.Due = t.Due.Date
		if t.Due.Datetime != "" {
			v.Due = t.Due.Datetime
		}
		v.Recurring = t.Due.IsRecurring
	}
	return v
}

// RegisterTodoistTools registers the Todoist tools. It is a no-op when no
// Todoist client is configured.
func RegisterTodoistTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	if sc.Todoist() == nil {
		return nil
	}

	listTasksTool := mcp.NewTool("todoist_list_tasks",
		mcp.WithDescription("List active Todoist tasks matching a filter query"),
		mcp.WithString("filter",
			mcp.Description(fmt.Sprintf("Todoist filter query (default: %q)", DefaultFilter)),
		),
	)
	s.AddTool(listTasksTool, common.InstrumentedToolHandlerWithService("todoist_list_tasks",
		instrumentation.ServiceTodoist, instrumentation.OperationList, true, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListTasks(ctx, request, sc)
		}))

	if readOnly {
		return nil
	}

	completeTaskTool := mcp.NewTool("todoist_complete_task",
		mcp.WithDescription("Complete one or more Todoist tasks. Recurring tasks advance to their next date."),
		mcp.WithString("taskIds",
			mcp.Required(),
			mcp.Description("Task ID, comma separated IDs or a JSON array of IDs"),
		),
	)
	s.AddTool(completeTaskTool, common.InstrumentedToolHandlerWithService("todoist_complete_task",
		instrumentation.ServiceTodoist, instrumentation.OperationUpdate, false, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCompleteTask(ctx, request, sc)
		}))

	createTaskTool := mcp.NewTool("todoist_create_task",
		mcp.WithDescription("Create a Todoist task"),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("Task title"),
		),
		mcp.WithString("description",
			mcp.Description("Task description"),
		),
		mcp.WithString("dueString",
			mcp.Description("Natural language due date, e.g. 'tomorrow 9am' or 'every friday'"),
		),
		mcp.WithNumber("priority",
			mcp.Description("Priority as shown in the app: 1 (P1, urgent) to 4 (P4, default)"),
		),
		mcp.WithString("labels",
			mcp.Description("Comma separated labels"),
		),
		mcp.WithString("projectId",
			mcp.Description("Project ID (default: Inbox)"),
		),
	)
	s.AddTool(createTaskTool, common.InstrumentedToolHandlerWithService("todoist_create_task",
		instrumentation.ServiceTodoist, instrumentation.OperationCreate, false, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCreateTask(ctx, request, sc)
		}))

	return nil
}

func handleListTasks(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := common.Arguments(request)

	filter := common.StringArg(args, "filter")
	if filter == "" {
		filter = DefaultFilter
	}

	tasks, err := sc.Todoist().ListTasks(ctx, filter)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list tasks: %v", err)), nil
	}

	views := make([]taskView, 0, len(tasks))
	for _, t := range tasks {
		views = append(views, toTaskView(t))
	}
	return common.JSONResult(views)
}

func handleCompleteTask(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := common.Arguments(request)

	ids, err := batch.ParseIDs(args["taskIds"], "taskIds")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client := sc.Todoist()
	summary := batch.Process(ctx, ids, func(ctx context.Context, id string) (string, error) {
		if err := client.CloseTask(ctx, id); err != nil {
			if todoist.IsNotFound(err) {
				return "", fmt.Errorf("task %s not found", id)
			}
			return "", err
		}
		return "completed", nil
	})

	result, err := common.JSONResult(summary)
	if err == nil && result != nil && summary.Successful == 0 {
		result.IsError = true
	}
	return result, err
}

func handleCreateTask(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := common.Arguments(request)

	content, err := common.RequiredString(args, "content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	task := todoist.NewTask{
		Content:     content,
		Description: common.StringArg(args, "description"),
		DueString:   common.StringArg(args, "dueString"),
		Labels:      common.StringListArg(args, "labels"),
		ProjectID:   common.StringArg(args, "projectId"),
	}

	priority, ok, err := common.NumberArg(args, "priority")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if ok {
		p := todoist.APIPriority(int(priority))
		if p == 0 || float64(int(priority)) != priority {
			return mcp.NewToolResultError("priority must be 1, 2, 3 or 4"), nil
		}
		task.Priority = p
	}

	created, err := sc.Todoist().CreateTask(ctx, task)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to create task: %v", err)), nil
	}
	return common.JSONResult(toTaskView(*created))
}
