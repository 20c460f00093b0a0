package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"revenue_automation_backend/internal/leads/domain"
	"revenue_automation_backend/platform/apperr"
)

type Sequence struct {
	ID          uuid.UUID
	WorkspaceID uuid.UUID
	Name        string
	Description *string
	Status      domain.SequenceStatus
	CreatedAt   time.Time
	Steps       []SequenceStep // ascending by Order
}

type SequenceStep struct {
	ID         uuid.UUID
	SequenceID uuid.UUID
	Order      int
	Channel    domain.Channel
	WaitHours  int
	AIPrompt   string
	Template   *string
}

// WaitDuration is the delay before this step may fire.
func (s SequenceStep) WaitDuration() time.Duration {
	return time.Duration(s.WaitHours) * time.Hour
}

// CompletedStep is one step.completed event of an enrollment.
type CompletedStep struct {
	StepID      uuid.UUID
	CompletedAt time.Time
}

type Enrollment struct {
	ID          uuid.UUID
	LeadID      uuid.UUID
	SequenceID  uuid.UUID
	Status      domain.EnrollmentStatus
	CompletedAt *time.Time
	CreatedAt   time.Time
}

type UpsertSequenceParams struct {
	WorkspaceID uuid.UUID
	Name        string
	Description *string
	Status      domain.SequenceStatus
	Steps       []SequenceStep
}

const sequenceColumns = `id, workspace_id, name, description, status, created_at`

func scanSequence(s rowScanner) (Sequence, error) {
	var seq Sequence
	err := s.Scan(&seq.ID, &seq.WorkspaceID, &seq.Name, &seq.Description, &seq.Status, &seq.CreatedAt)
	return seq, err
}

// ResolveSequence returns an ACTIVE sequence of the workspace with its steps.
// With a sequence id the match must be exact; without one the oldest ACTIVE
// sequence wins. No match is a NotFound error.
func (r *Repository) ResolveSequence(ctx context.Context, workspaceID uuid.UUID, sequenceID *uuid.UUID) (Sequence, error) {
	var row pgx.Row
	if sequenceID != nil {
		row = r.pool.QueryRow(ctx, `
			SELECT `+sequenceColumns+` FROM outreach_sequences
			WHERE id = $1 AND workspace_id = $2 AND status = $3
		`, *sequenceID, workspaceID, domain.SequenceActive)
	} else {
		row = r.pool.QueryRow(ctx, `
			SELECT `+sequenceColumns+` FROM outreach_sequences
			WHERE workspace_id = $1 AND status = $2
			ORDER BY created_at ASC
			LIMIT 1
		`, workspaceID, domain.SequenceActive)
	}

	seq, err := scanSequence(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Sequence{}, apperr.NotFound("no active outreach sequence")
	}
	if err != nil {
		return Sequence{}, err
	}

	if seq.Steps, err = r.listSteps(ctx, r.pool, seq.ID); err != nil {
		return Sequence{}, err
	}
	return seq, nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (r *Repository) listSteps(ctx context.Context, q querier, sequenceID uuid.UUID) ([]SequenceStep, error) {
	rows, err := q.Query(ctx, `
		SELECT id, sequence_id, step_order, channel, wait_hours, ai_prompt, template
		FROM sequence_steps
		WHERE sequence_id = $1
		ORDER BY step_order ASC
	`, sequenceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	steps := make([]SequenceStep, 0)
	for rows.Next() {
		var s SequenceStep
		if err := rows.Scan(&s.ID, &s.SequenceID, &s.Order, &s.Channel, &s.WaitHours, &s.AIPrompt, &s.Template); err != nil {
			return nil, err
		}
		steps = append(steps, s)
	}
	return steps, rows.Err()
}

// FindOrCreateEnrollment returns the lead's enrollment in the sequence,
// creating it on first use. An existing enrollment is reused whatever its
// status.
func (r *Repository) FindOrCreateEnrollment(ctx context.Context, leadID, sequenceID uuid.UUID) (Enrollment, error) {
	if _, err := r.pool.Exec(ctx, `
		INSERT INTO sequence_enrollments (lead_id, sequence_id, status)
		VALUES ($1, $2, $3)
		ON CONFLICT (lead_id, sequence_id) DO NOTHING
	`, leadID, sequenceID, domain.EnrollmentInProgress); err != nil {
		return Enrollment{}, err
	}

	var e Enrollment
	err := r.pool.QueryRow(ctx, `
		SELECT id, lead_id, sequence_id, status, completed_at, created_at
		FROM sequence_enrollments
		WHERE lead_id = $1 AND sequence_id = $2
	`, leadID, sequenceID).Scan(&e.ID, &e.LeadID, &e.SequenceID, &e.Status, &e.CompletedAt, &e.CreatedAt)
	if err != nil {
		return Enrollment{}, err
	}
	return e, nil
}

// ListCompletedSteps returns the enrollment's step.completed events, oldest first.
func (r *Repository) ListCompletedSteps(ctx context.Context, enrollmentID uuid.UUID) ([]CompletedStep, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT step_id, created_at FROM sequence_events
		WHERE enrollment_id = $1 AND event_type = $2
		ORDER BY created_at ASC
	`, enrollmentID, domain.SequenceEventStepCompleted)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	steps := make([]CompletedStep, 0)
	for rows.Next() {
		var s CompletedStep
		if err := rows.Scan(&s.StepID, &s.CompletedAt); err != nil {
			return nil, err
		}
		steps = append(steps, s)
	}
	return steps, rows.Err()
}

// AppendStepCompleted records that a step fired. A second record for the
// same step is ignored and reported as false.
func (r *Repository) AppendStepCompleted(ctx context.Context, enrollmentID, stepID uuid.UUID, payload map[string]any) (bool, error) {
	raw, err := marshalJSON(payload)
	if err != nil {
		return false, err
	}
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO sequence_events (enrollment_id, step_id, event_type, payload)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (enrollment_id, step_id) WHERE event_type = 'step.completed' DO NOTHING
	`, enrollmentID, stepID, domain.SequenceEventStepCompleted, raw)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// CompleteEnrollment marks the enrollment COMPLETED. It reports false when it
// already was.
func (r *Repository) CompleteEnrollment(ctx context.Context, enrollmentID uuid.UUID, completedAt time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE sequence_enrollments SET status = $2, completed_at = $3
		WHERE id = $1 AND status <> $2
	`, enrollmentID, domain.EnrollmentCompleted, completedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// UpsertSequence creates or updates a sequence template by (workspace, name)
// and replaces its steps. Steps of a sequence that already has enrollments
// are frozen: a differing step list is rejected as a conflict.
func (r *Repository) UpsertSequence(ctx context.Context, params UpsertSequenceParams) (Sequence, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Sequence{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	seq, err := scanSequence(tx.QueryRow(ctx, `
		INSERT INTO outreach_sequences (workspace_id, name, description, status)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (workspace_id, name) DO UPDATE SET
			description = EXCLUDED.description,
			status = EXCLUDED.status,
			updated_at = now()
		RETURNING `+sequenceColumns,
		params.WorkspaceID, params.Name, params.Description, params.Status,
	))
	if err != nil {
		return Sequence{}, err
	}

	existing, err := r.listSteps(ctx, tx, seq.ID)
	if err != nil {
		return Sequence{}, err
	}

	if !sameSteps(existing, params.Steps) {
		var enrollments int
		if err := tx.QueryRow(ctx, `SELECT count(*) FROM sequence_enrollments WHERE sequence_id = $1`, seq.ID).Scan(&enrollments); err != nil {
			return Sequence{}, err
		}
		if enrollments > 0 {
			return Sequence{}, apperr.Conflict("sequence " + params.Name + " has enrollments; its steps cannot change")
		}
		if _, err := tx.Exec(ctx, `DELETE FROM sequence_steps WHERE sequence_id = $1`, seq.ID); err != nil {
			return Sequence{}, err
		}
		for _, step := range params.Steps {
			if _, err := tx.Exec(ctx, `
				INSERT INTO sequence_steps (sequence_id, step_order, channel, wait_hours, ai_prompt, template)
				VALUES ($1, $2, $3, $4, $5, $6)
			`, seq.ID, step.Order, step.Channel, step.WaitHours, step.AIPrompt, step.Template); err != nil {
				return Sequence{}, err
			}
		}
	}

	if seq.Steps, err = r.listSteps(ctx, tx, seq.ID); err != nil {
		return Sequence{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Sequence{}, err
	}
	return seq, nil
}

func sameSteps(stored, incoming []SequenceStep) bool {
	if len(stored) != len(incoming) {
		return false
	}
	for i := range stored {
		a, b := stored[i], incoming[i]
		if a.Order != b.Order || a.Channel != b.Channel || a.WaitHours != b.WaitHours || a.AIPrompt != b.AIPrompt {
			return false
		}
		if (a.Template == nil) != (b.Template == nil) || (a.Template != nil && *a.Template != *b.Template) {
			return false
		}
	}
	return true
}
