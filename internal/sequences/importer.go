package sequences

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"revenue_automation_backend/internal/leads/repository"
	"revenue_automation_backend/platform/logger"
)

type Importer struct {
	store repository.SequenceAuthoring
	log   *logger.Logger
}

func NewImporter(store repository.SequenceAuthoring, log *logger.Logger) *Importer {
	return &Importer{store: store, log: log}
}

// Import upserts every sequence of the file and returns what the store holds
// afterwards. It stops at the first failure; sequences written before it stay.
func (i *Importer) Import(ctx context.Context, f File) ([]repository.Sequence, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	workspaceID := uuid.MustParse(f.WorkspaceID)

	out := make([]repository.Sequence, 0, len(f.Sequences))
	for _, def := range f.Sequences {
		seq, err := i.store.UpsertSequence(ctx, repository.UpsertSequenceParams{
			WorkspaceID: workspaceID,
			Name:        strings.TrimSpace(def.Name),
			Description: def.Description,
			Status:      def.status(),
			Steps:       def.steps(),
		})
		if err != nil {
			return out, err
		}
		i.log.Info("sequence imported", "workspace_id", workspaceID.String(), "sequence", seq.Name, "status", seq.Status, "steps", len(seq.Steps))
		out = append(out, seq)
	}
	return out, nil
}
