package tools

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/poctrail/assistant/internal/domain"
	"github.com/poctrail/assistant/internal/llm"
)

type listActivePOCsTool struct {
	pocs domain.POCRepository
}

func (t *listActivePOCsTool) Name() string { return "list_my_active_pocs" }

func (t *listActivePOCsTool) Description() string {
	return "List the user's active POCs, both owned and shared with them. No parameters needed."
}

func (t *listActivePOCsTool) Params() []llm.ToolParam { return nil }

func (t *listActivePOCsTool) Call(ctx context.Context, caller domain.Identity, _ string) (string, error) {
	pocs, err := t.pocs.ListActiveForUser(ctx, caller.TenantID, caller.UserID)
	if err != nil {
		return "", err
	}
	if len(pocs) == 0 {
		return "No active POCs found.", nil
	}

	type pocView struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Customer string `json:"customer"`
		Status   string `json:"status"`
	}
	views := make([]pocView, 0, len(pocs))
	for _, p := range pocs {
		views = append(views, pocView{
			ID:       p.ID.String(),
			Name:     p.Name,
			Customer: p.CustomerName,
			Status:   string(p.Status),
		})
	}

	out, err := json.Marshal(map[string]any{"count": len(views), "pocs": views})
	if err != nil {
		return "", err
	}
	return string(out), nil
}

type listPOCTasksTool struct {
	pocs domain.POCRepository
}

func (t *listPOCTasksTool) Name() string { return "list_poc_tasks" }

func (t *listPOCTasksTool) Description() string {
	return "List the tasks of one POC in plan order. Requires the POC id from list_my_active_pocs."
}

func (t *listPOCTasksTool) Params() []llm.ToolParam {
	return []llm.ToolParam{
		{Name: "poc_id", Type: "string", Description: "The id of the POC", Required: true},
	}
}

func (t *listPOCTasksTool) Call(ctx context.Context, caller domain.Identity, input string) (string, error) {
	var payload struct {
		POCID string `json:"poc_id"`
	}
	if err := json.Unmarshal([]byte(input), &payload); err != nil {
		return "Error: failed to parse input JSON.", nil
	}

	pocID, err := uuid.Parse(payload.POCID)
	if err != nil {
		return "Error: poc_id must be a valid POC id.", nil
	}

	// The caller only sees POCs they own or are a member of; anything else
	// reads as absent.
	ok, err := t.pocs.CanAccess(ctx, caller.TenantID, caller.UserID, pocID)
	if err != nil {
		return "", err
	}
	if !ok {
		return "Error: POC not found.", nil
	}

	tasks, err := t.pocs.ListTasks(ctx, pocID)
	if err != nil {
		return "", err
	}
	if len(tasks) == 0 {
		return "This POC has no tasks yet.", nil
	}

	type taskView struct {
		ID         string `json:"id"`
		Title      string `json:"title"`
		Status     string `json:"status"`
		AssigneeID string `json:"assignee_id,omitempty"`
		DueDate    string `json:"due_date,omitempty"`
	}
	views := make([]taskView, 0, len(tasks))
	for _, task := range tasks {
		v := taskView{
			ID:     task.ID.String(),
			Title:  task.Title,
			Status: task.Status,
		}
		if task.AssigneeID != nil {
			v.AssigneeID = task.AssigneeID.String()
		}
		if task.DueDate != nil {
			v.DueDate = task.DueDate.Format(time.DateOnly)
		}
		views = append(views, v)
	}

	out, err := json.Marshal(map[string]any{"count": len(views), "tasks": views})
	if err != nil {
		return "", err
	}
	return string(out), nil
}
