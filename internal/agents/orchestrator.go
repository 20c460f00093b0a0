package agents

import (
	"context"
	"fmt"

	"google.golang.org/adk/model"

	"revenue_automation_backend/internal/leads/repository"
	"revenue_automation_backend/platform/validator"
)

// completer sends one prompt to an agent and returns its text.
type completer interface {
	complete(ctx context.Context, userID, prompt string) (string, error)
}

// Orchestrator decides where a freshly qualified lead goes next.
type Orchestrator struct {
	agent completer
	val   *validator.Validator
}

func NewOrchestrator(llm model.LLM) (*Orchestrator, error) {
	r, err := newTextRunner(llm, "SalesOrchestrator", "sales-orchestrator",
		"Routes qualified leads to outreach, follow-up or requalification.", orchestratorInstruction)
	if err != nil {
		return nil, err
	}
	return &Orchestrator{agent: r, val: validator.New()}, nil
}

func (o *Orchestrator) Decide(ctx context.Context, lc repository.LeadContext) (Decision, error) {
	raw, err := o.agent.complete(ctx, "orchestrator-"+lc.Lead.ID.String(), buildOrchestratorPrompt(lc))
	if err != nil {
		return Decision{}, err
	}

	var decision Decision
	if err := decodeResponse(o.val, raw, &decision); err != nil {
		return Decision{}, fmt.Errorf("orchestrator: %w", err)
	}
	return decision, nil
}
