package sequences

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"revenue_automation_backend/internal/leads/domain"
	"revenue_automation_backend/internal/leads/repository"
	"revenue_automation_backend/platform/apperr"
	"revenue_automation_backend/platform/logger"
)

const workspace = "5b0f3c0e-6d7a-4d47-9a52-3f0c3d1f8c11"

const validDoc = `
workspaceId: ` + workspace + `
sequences:
  - name: Default outbound
    status: active
    steps:
      - order: 2
        channel: email
        waitHours: 48
        aiPrompt: Share a customer story
      - order: 1
        channel: EMAIL
        waitHours: 0
        aiPrompt: Introduce the product
  - name: Nurture
    steps:
      - order: 1
        channel: EMAIL
        waitHours: 0
        aiPrompt: Send the newsletter
`

func TestParseValidFile(t *testing.T) {
	f, err := ParseBytes([]byte(validDoc))
	require.NoError(t, err)
	require.Len(t, f.Sequences, 2)

	def := f.Sequences[0]
	assert.Equal(t, domain.SequenceActive, def.status())
	steps := def.steps()
	require.Len(t, steps, 2)
	assert.Equal(t, 1, steps[0].Order)
	assert.Equal(t, "Introduce the product", steps[0].AIPrompt)
	assert.Equal(t, domain.ChannelEmail, steps[1].Channel)
	assert.Equal(t, 48, steps[1].WaitHours)

	assert.Equal(t, domain.SequenceDraft, f.Sequences[1].status())
}

func TestParseRejectsInvalidFiles(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "empty", doc: ""},
		{name: "unknown key", doc: "workspaceId: " + workspace + "\nsequences: []\ncolour: red\n"},
		{name: "bad workspace", doc: "workspaceId: acme\nsequences:\n  - name: A\n    steps:\n      - {order: 1, channel: EMAIL, aiPrompt: x}\n"},
		{name: "no steps", doc: "workspaceId: " + workspace + "\nsequences:\n  - name: A\n    steps: []\n"},
		{name: "duplicate order", doc: "workspaceId: " + workspace + "\nsequences:\n  - name: A\n    steps:\n      - {order: 1, channel: EMAIL, aiPrompt: x}\n      - {order: 1, channel: EMAIL, aiPrompt: y}\n"},
		{name: "negative wait", doc: "workspaceId: " + workspace + "\nsequences:\n  - name: A\n    steps:\n      - {order: 1, channel: EMAIL, waitHours: -4, aiPrompt: x}\n"},
		{name: "unknown channel", doc: "workspaceId: " + workspace + "\nsequences:\n  - name: A\n    steps:\n      - {order: 1, channel: FAX, aiPrompt: x}\n"},
		{name: "unknown status", doc: "workspaceId: " + workspace + "\nsequences:\n  - name: A\n    status: PAUSED\n    steps:\n      - {order: 1, channel: EMAIL, aiPrompt: x}\n"},
		{name: "duplicate name", doc: "workspaceId: " + workspace + "\nsequences:\n  - name: A\n    steps:\n      - {order: 1, channel: EMAIL, aiPrompt: x}\n  - name: a\n    steps:\n      - {order: 1, channel: EMAIL, aiPrompt: x}\n"},
		{name: "blank prompt", doc: "workspaceId: " + workspace + "\nsequences:\n  - name: A\n    steps:\n      - {order: 1, channel: EMAIL, aiPrompt: '  '}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBytes([]byte(tt.doc))
			require.Error(t, err)
			assert.True(t, apperr.Is(err, apperr.KindValidation), "got %v", err)
		})
	}
}

type fakeAuthoring struct {
	params []repository.UpsertSequenceParams
	err    error
}

func (f *fakeAuthoring) UpsertSequence(_ context.Context, p repository.UpsertSequenceParams) (repository.Sequence, error) {
	if f.err != nil {
		return repository.Sequence{}, f.err
	}
	f.params = append(f.params, p)
	return repository.Sequence{ID: uuid.New(), WorkspaceID: p.WorkspaceID, Name: p.Name, Status: p.Status, Steps: p.Steps}, nil
}

func TestImportUpsertsEverySequence(t *testing.T) {
	f, err := ParseBytes([]byte(validDoc))
	require.NoError(t, err)
	store := &fakeAuthoring{}

	seqs, err := NewImporter(store, logger.New("test")).Import(context.Background(), f)
	require.NoError(t, err)
	require.Len(t, seqs, 2)
	require.Len(t, store.params, 2)
	assert.Equal(t, uuid.MustParse(workspace), store.params[0].WorkspaceID)
	assert.Equal(t, "Default outbound", store.params[0].Name)
	assert.Equal(t, 1, store.params[0].Steps[0].Order)
}

func TestImportSurfacesConflicts(t *testing.T) {
	f, err := ParseBytes([]byte(validDoc))
	require.NoError(t, err)
	store := &fakeAuthoring{err: apperr.Conflict("sequence Default outbound has enrollments; its steps cannot change")}

	_, err = NewImporter(store, logger.New("test")).Import(context.Background(), f)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}
