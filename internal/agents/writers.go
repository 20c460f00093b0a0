package agents

import (
	"context"
	"fmt"

	"google.golang.org/adk/model"

	"revenue_automation_backend/internal/leads/repository"
	"revenue_automation_backend/platform/validator"
)

// OutreachWriter composes the email for one sequence step.
type OutreachWriter struct {
	agent completer
	val   *validator.Validator
}

func NewOutreachWriter(llm model.LLM) (*OutreachWriter, error) {
	r, err := newTextRunner(llm, "OutreachWriter", "outreach-writer",
		"Writes personalized outreach emails for sequence steps.", outreachInstruction)
	if err != nil {
		return nil, err
	}
	return &OutreachWriter{agent: r, val: validator.New()}, nil
}

func (w *OutreachWriter) ComposeOutreach(ctx context.Context, lc repository.LeadContext, step repository.SequenceStep) (Email, error) {
	raw, err := w.agent.complete(ctx, "outreach-"+lc.Lead.ID.String(), buildOutreachPrompt(lc, step))
	if err != nil {
		return Email{}, err
	}
	var email Email
	if err := decodeResponse(w.val, raw, &email); err != nil {
		return Email{}, fmt.Errorf("outreach email: %w", err)
	}
	return email, nil
}

// FollowUpWriter composes the email for a follow-up task.
type FollowUpWriter struct {
	agent completer
	val   *validator.Validator
}

func NewFollowUpWriter(llm model.LLM) (*FollowUpWriter, error) {
	r, err := newTextRunner(llm, "FollowUpWriter", "followup-writer",
		"Writes follow-up emails that acknowledge prior interactions.", followUpInstruction)
	if err != nil {
		return nil, err
	}
	return &FollowUpWriter{agent: r, val: validator.New()}, nil
}

func (w *FollowUpWriter) ComposeFollowUp(ctx context.Context, lc repository.LeadContext, task repository.FollowUpTask) (Email, error) {
	raw, err := w.agent.complete(ctx, "followup-"+lc.Lead.ID.String(), buildFollowUpPrompt(lc, task))
	if err != nil {
		return Email{}, err
	}
	var email Email
	if err := decodeResponse(w.val, raw, &email); err != nil {
		return Email{}, fmt.Errorf("follow-up email: %w", err)
	}
	return email, nil
}
