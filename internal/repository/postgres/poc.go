package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/poctrail/assistant/internal/domain"
)

// POCRepository serves the read-only POC queries exposed to the assistant.
// All queries are tenant-scoped; there are deliberately no write methods.
type POCRepository struct {
	db *DB
}

// NewPOCRepository creates a new POC repository
func NewPOCRepository(db *DB) *POCRepository {
	return &POCRepository{db: db}
}

// ListActiveForUser retrieves active POCs the user owns or is a member of
func (r *POCRepository) ListActiveForUser(ctx context.Context, tenantID, userID uuid.UUID) ([]domain.POC, error) {
	query := `
		SELECT DISTINCT p.id, p.tenant_id, p.owner_id, p.name, p.customer_name, p.status, p.created_at, p.updated_at
		FROM pocs p
		LEFT JOIN poc_members pm ON p.id = pm.poc_id
		WHERE p.tenant_id = $1
		  AND p.status = $2
		  AND (p.owner_id = $3 OR pm.user_id = $3)
		ORDER BY p.updated_at DESC
	`

	rows, err := r.db.Query(ctx, query, tenantID, domain.POCStatusActive, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active pocs: %w", err)
	}
	defer rows.Close()

	var pocs []domain.POC
	for rows.Next() {
		var poc domain.POC
		if err := rows.Scan(
			&poc.ID,
			&poc.TenantID,
			&poc.OwnerID,
			&poc.Name,
			&poc.CustomerName,
			&poc.Status,
			&poc.CreatedAt,
			&poc.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan poc: %w", err)
		}
		pocs = append(pocs, poc)
	}

	return pocs, nil
}

// ListTasks retrieves the tasks of a POC in plan order
func (r *POCRepository) ListTasks(ctx context.Context, pocID uuid.UUID) ([]domain.POCTask, error) {
	query := `
		SELECT id, poc_id, title, status, assignee_id, due_date, created_at
		FROM poc_tasks
		WHERE poc_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.Query(ctx, query, pocID)
	if err != nil {
		return nil, fmt.Errorf("failed to list poc tasks: %w", err)
	}
	defer rows.Close()

	var tasks []domain.POCTask
	for rows.Next() {
		var task domain.POCTask
		if err := rows.Scan(
			&task.ID,
			&task.POCID,
			&task.Title,
			&task.Status,
			&task.AssigneeID,
			&task.DueDate,
			&task.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan poc task: %w", err)
		}
		tasks = append(tasks, task)
	}

	return tasks, nil
}

// CanAccess checks whether the user owns or is a member of the POC within
// their own tenant
func (r *POCRepository) CanAccess(ctx context.Context, tenantID, userID, pocID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1
			FROM pocs p
			LEFT JOIN poc_members pm ON p.id = pm.poc_id
			WHERE p.id = $1
			  AND p.tenant_id = $2
			  AND (p.owner_id = $3 OR pm.user_id = $3)
		)
	`

	var exists bool
	err := r.db.QueryRow(ctx, query, pocID, tenantID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check poc access: %w", err)
	}

	return exists, nil
}
