package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/model"
	"google.golang.org/adk/runner"
	"google.golang.org/adk/session"
	"google.golang.org/genai"

	"revenue_automation_backend/platform/ai/moonshot"
)

// textRunner runs a tool-less ADK agent for one prompt per session.
type textRunner struct {
	runner         *runner.Runner
	sessionService session.Service
	appName        string
}

// NewMoonshotModel returns the JSON-mode chat model shared by the ADK agents.
func NewMoonshotModel(apiKey, modelName string) model.LLM {
	return moonshot.NewModel(moonshot.Config{
		APIKey:          apiKey,
		Model:           modelName,
		DisableThinking: true,
		JSONMode:        true,
	})
}

func newTextRunner(llm model.LLM, name, appName, description, instruction string) (*textRunner, error) {
	adkAgent, err := llmagent.New(llmagent.Config{
		Name:        name,
		Model:       llm,
		Description: description,
		Instruction: instruction,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s agent: %w", appName, err)
	}

	sessionService := session.InMemoryService()
	r, err := runner.New(runner.Config{
		AppName:        appName,
		Agent:          adkAgent,
		SessionService: sessionService,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s runner: %w", appName, err)
	}

	return &textRunner{runner: r, sessionService: sessionService, appName: appName}, nil
}

func (t *textRunner) complete(ctx context.Context, userID, prompt string) (string, error) {
	sessionID := uuid.New().String()
	_, err := t.sessionService.Create(ctx, &session.CreateRequest{
		AppName:   t.appName,
		UserID:    userID,
		SessionID: sessionID,
	})
	if err != nil {
		return "", fmt.Errorf("%s: create session: %w", t.appName, err)
	}
	defer func() {
		_ = t.sessionService.Delete(ctx, &session.DeleteRequest{
			AppName:   t.appName,
			UserID:    userID,
			SessionID: sessionID,
		})
	}()

	userMessage := &genai.Content{
		Role:  genai.RoleUser,
		Parts: []*genai.Part{{Text: prompt}},
	}

	var out strings.Builder
	for event, err := range t.runner.Run(ctx, userID, sessionID, userMessage, agent.RunConfig{StreamingMode: agent.StreamingModeNone}) {
		if err != nil {
			return "", fmt.Errorf("%s: run failed: %w", t.appName, err)
		}
		if event.Content == nil {
			continue
		}
		for _, part := range event.Content.Parts {
			out.WriteString(part.Text)
		}
	}

	text := strings.TrimSpace(out.String())
	if text == "" {
		return "", fmt.Errorf("%s: empty response", t.appName)
	}
	return text, nil
}
