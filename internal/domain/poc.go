package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// POCStatus represents the lifecycle stage of a proof of concept
type POCStatus string

const (
	POCStatusDraft  POCStatus = "draft"
	POCStatusActive POCStatus = "active"
	POCStatusWon    POCStatus = "won"
	POCStatusLost   POCStatus = "lost"
)

// Task states
const (
	TaskStatusOpen       = "open"
	TaskStatusInProgress = "in_progress"
	TaskStatusDone       = "done"
)

// POC represents a proof-of-concept engagement
type POC struct {
	ID           uuid.UUID `json:"id"`
	TenantID     uuid.UUID `json:"tenant_id"`
	OwnerID      uuid.UUID `json:"owner_id"`
	Name         string    `json:"name"`
	CustomerName string    `json:"customer_name"`
	Status       POCStatus `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// POCTask represents a single task inside a POC plan
type POCTask struct {
	ID         uuid.UUID  `json:"id"`
	POCID      uuid.UUID  `json:"poc_id"`
	Title      string     `json:"title"`
	Status     string     `json:"status"`
	AssigneeID *uuid.UUID `json:"assignee_id,omitempty"`
	DueDate    *time.Time `json:"due_date,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// POCRepository defines the read-only POC queries the assistant may run.
// Every method is scoped to the caller's tenant; nothing here mutates.
type POCRepository interface {
	ListActiveForUser(ctx context.Context, tenantID, userID uuid.UUID) ([]POC, error)
	ListTasks(ctx context.Context, pocID uuid.UUID) ([]POCTask, error)
	CanAccess(ctx context.Context, tenantID, userID, pocID uuid.UUID) (bool, error)
}
