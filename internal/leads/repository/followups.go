package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"revenue_automation_backend/internal/leads/domain"
)

type FollowUpTask struct {
	ID          uuid.UUID
	WorkspaceID uuid.UUID
	LeadID      uuid.UUID
	Status      domain.TaskStatus
	DueAt       *time.Time
	Notes       *string
	Metadata    map[string]any
	CompletedAt *time.Time
	CreatedAt   time.Time
}

type CreateFollowUpTaskParams struct {
	WorkspaceID uuid.UUID
	LeadID      uuid.UUID
	DueAt       *time.Time
	Notes       *string
	Metadata    map[string]any
}

const followUpColumns = `id, workspace_id, lead_id, status, due_at, notes, metadata, completed_at, created_at`

func scanFollowUpTask(s rowScanner) (FollowUpTask, error) {
	var t FollowUpTask
	var rawMetadata []byte
	if err := s.Scan(&t.ID, &t.WorkspaceID, &t.LeadID, &t.Status, &t.DueAt, &t.Notes, &rawMetadata,
		&t.CompletedAt, &t.CreatedAt); err != nil {
		return FollowUpTask{}, err
	}
	t.Metadata = unmarshalMap(rawMetadata)
	return t, nil
}

func (r *Repository) CreateFollowUpTask(ctx context.Context, params CreateFollowUpTaskParams) (FollowUpTask, error) {
	metadata, err := marshalJSON(params.Metadata)
	if err != nil {
		return FollowUpTask{}, err
	}
	return scanFollowUpTask(r.pool.QueryRow(ctx, `
		INSERT INTO follow_up_tasks (workspace_id, lead_id, status, due_at, notes, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+followUpColumns,
		params.WorkspaceID, params.LeadID, domain.TaskStatusPending, params.DueAt, params.Notes, metadata,
	))
}

func (r *Repository) GetFollowUpTask(ctx context.Context, workspaceID, taskID uuid.UUID) (FollowUpTask, error) {
	task, err := scanFollowUpTask(r.pool.QueryRow(ctx, `
		SELECT `+followUpColumns+` FROM follow_up_tasks WHERE id = $1 AND workspace_id = $2
	`, taskID, workspaceID))
	if err != nil {
		return FollowUpTask{}, notFoundOr(err, "follow-up task", taskID)
	}
	return task, nil
}

// CompleteFollowUpTask moves a PENDING task to COMPLETED. It reports false
// when the task was already completed by an earlier delivery.
func (r *Repository) CompleteFollowUpTask(ctx context.Context, taskID uuid.UUID, completedAt time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE follow_up_tasks SET status = $2, completed_at = $3
		WHERE id = $1 AND status = $4
	`, taskID, domain.TaskStatusCompleted, completedAt, domain.TaskStatusPending)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
