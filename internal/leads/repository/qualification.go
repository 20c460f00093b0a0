package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"revenue_automation_backend/internal/leads/domain"
	"revenue_automation_backend/platform/apperr"
)

// QualificationSnapshot is one immutable qualification pass.
type QualificationSnapshot struct {
	ID               uuid.UUID
	LeadID           uuid.UUID
	Framework        string
	Score            int
	Recommendation   domain.Recommendation
	Metrics          map[string]any
	EconomicBuyer    map[string]any
	DecisionCriteria []string
	DecisionProcess  map[string]any
	PainPoints       []PainPoint
	Champion         map[string]any
	CreatedAt        time.Time
}

// PainPoint is one MEDDIC "identify pain" entry.
type PainPoint struct {
	Description string `json:"pain_point"`
	Severity    string `json:"severity"`
	Impact      string `json:"impact"`
}

type SaveQualificationParams struct {
	WorkspaceID uuid.UUID
	LeadID      uuid.UUID
	Snapshot    QualificationSnapshot
	Status      domain.LeadStatus
	Priority    domain.LeadPriority
	QualifiedAt time.Time
}

// SaveQualification appends the snapshot and applies the resulting status,
// priority and score to the lead in a single transaction.
func (r *Repository) SaveQualification(ctx context.Context, params SaveQualificationParams) (QualificationSnapshot, error) {
	s := params.Snapshot
	metrics, err := marshalJSON(s.Metrics)
	if err != nil {
		return QualificationSnapshot{}, err
	}
	buyer, err := marshalJSON(s.EconomicBuyer)
	if err != nil {
		return QualificationSnapshot{}, err
	}
	criteria, err := marshalList(s.DecisionCriteria)
	if err != nil {
		return QualificationSnapshot{}, err
	}
	process, err := marshalJSON(s.DecisionProcess)
	if err != nil {
		return QualificationSnapshot{}, err
	}
	if s.PainPoints == nil {
		s.PainPoints = []PainPoint{}
	}
	pains, err := json.Marshal(s.PainPoints)
	if err != nil {
		return QualificationSnapshot{}, err
	}
	champion, err := marshalJSON(s.Champion)
	if err != nil {
		return QualificationSnapshot{}, err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return QualificationSnapshot{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		UPDATE leads SET
			status = $3,
			priority = $4,
			score = $5,
			last_qualified_at = $6,
			updated_at = now()
		WHERE id = $1 AND workspace_id = $2
	`, params.LeadID, params.WorkspaceID, params.Status, params.Priority, s.Score, params.QualifiedAt)
	if err != nil {
		return QualificationSnapshot{}, err
	}
	if tag.RowsAffected() == 0 {
		return QualificationSnapshot{}, apperr.NotFoundf("lead %s not found", params.LeadID)
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO qualification_snapshots (
			lead_id, framework, score, recommendation, metrics, economic_buyer,
			decision_criteria, decision_process, pain_points, champion
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at
	`, params.LeadID, s.Framework, s.Score, s.Recommendation, metrics, buyer, criteria, process, pains, champion).
		Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return QualificationSnapshot{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return QualificationSnapshot{}, err
	}
	s.LeadID = params.LeadID
	return s, nil
}

func (r *Repository) latestQualification(ctx context.Context, leadID uuid.UUID) (QualificationSnapshot, error) {
	var s QualificationSnapshot
	var metrics, buyer, criteria, process, pains, champion []byte
	err := r.pool.QueryRow(ctx, `
		SELECT id, lead_id, framework, score, recommendation, metrics, economic_buyer,
			decision_criteria, decision_process, pain_points, champion, created_at
		FROM qualification_snapshots
		WHERE lead_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, leadID).Scan(&s.ID, &s.LeadID, &s.Framework, &s.Score, &s.Recommendation, &metrics, &buyer,
		&criteria, &process, &pains, &champion, &s.CreatedAt)
	if err != nil {
		return QualificationSnapshot{}, err
	}
	s.Metrics = unmarshalMap(metrics)
	s.EconomicBuyer = unmarshalMap(buyer)
	s.DecisionProcess = unmarshalMap(process)
	s.Champion = unmarshalMap(champion)
	s.DecisionCriteria = unmarshalList(criteria)
	if err := json.Unmarshal(pains, &s.PainPoints); err != nil {
		s.PainPoints = nil
	}
	return s, nil
}

func marshalList(values []string) ([]byte, error) {
	if values == nil {
		values = []string{}
	}
	return json.Marshal(values)
}

func unmarshalList(raw []byte) []string {
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}
