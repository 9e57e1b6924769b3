package tools

import (
	"context"
	"encoding/json"

	"github.com/poctrail/assistant/internal/domain"
	"github.com/poctrail/assistant/internal/llm"
)

type listEligibleUsersTool struct {
	users domain.UserRepository
}

func (t *listEligibleUsersTool) Name() string { return "list_eligible_users" }

func (t *listEligibleUsersTool) Description() string {
	return "List the workspace members that POC tasks can be assigned to. No parameters needed."
}

func (t *listEligibleUsersTool) Params() []llm.ToolParam { return nil }

func (t *listEligibleUsersTool) Call(ctx context.Context, caller domain.Identity, _ string) (string, error) {
	users, err := t.users.ListAssignable(ctx, caller.TenantID)
	if err != nil {
		return "", err
	}
	if len(users) == 0 {
		return "No assignable members found.", nil
	}

	type userView struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	views := make([]userView, 0, len(users))
	for _, u := range users {
		views = append(views, userView{
			ID:    u.ID.String(),
			Name:  u.Name,
			Email: u.Email,
			Role:  u.Role,
		})
	}

	out, err := json.Marshal(map[string]any{"count": len(views), "users": views})
	if err != nil {
		return "", err
	}
	return string(out), nil
}
