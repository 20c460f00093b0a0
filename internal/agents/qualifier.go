package agents

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"revenue_automation_backend/internal/leads/repository"
	"revenue_automation_backend/platform/validator"
)

const defaultQualificationModel = "gemini-2.5-pro"

// generateFunc sends one prompt and returns the raw text reply.
type generateFunc func(ctx context.Context, prompt string) (string, error)

// GeminiQualifier scores leads with Gemini using a JSON response schema.
type GeminiQualifier struct {
	generate generateFunc
	val      *validator.Validator
}

// NewGeminiQualifier creates a qualifier bound to the Gemini API.
func NewGeminiQualifier(ctx context.Context, apiKey, modelName string) (*GeminiQualifier, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("gemini api key is not configured")
	}
	if modelName == "" {
		modelName = defaultQualificationModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(qualificationInstruction, genai.RoleUser),
		Temperature:       genai.Ptr[float32](0.2),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    qualificationSchema(),
	}

	generate := func(ctx context.Context, prompt string) (string, error) {
		resp, err := client.Models.GenerateContent(ctx, modelName, genai.Text(prompt), cfg)
		if err != nil {
			return "", fmt.Errorf("gemini generate: %w", err)
		}
		text := resp.Text()
		if strings.TrimSpace(text) == "" {
			return "", fmt.Errorf("gemini returned an empty response")
		}
		return text, nil
	}

	return &GeminiQualifier{generate: generate, val: validator.New()}, nil
}

// Qualify runs one MEDDIC pass. Malformed or out-of-range replies are errors.
func (q *GeminiQualifier) Qualify(ctx context.Context, lc repository.LeadContext) (QualificationResult, error) {
	raw, err := q.generate(ctx, buildQualificationPrompt(lc))
	if err != nil {
		return QualificationResult{}, err
	}

	var result QualificationResult
	if err := decodeResponse(q.val, raw, &result); err != nil {
		return QualificationResult{}, fmt.Errorf("qualification: %w", err)
	}
	return result, nil
}

func nullable(t genai.Type) *genai.Schema {
	return &genai.Schema{Type: t, Nullable: genai.Ptr(true)}
}

func stringArray() *genai.Schema {
	return &genai.Schema{Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}}
}

func qualificationSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"metrics": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"current_cost":     nullable(genai.TypeNumber),
					"expected_savings": nullable(genai.TypeNumber),
					"roi_timeline":     nullable(genai.TypeString),
				},
				Required: []string{"current_cost", "expected_savings", "roi_timeline"},
			},
			"economic_buyer": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"identified": {Type: genai.TypeBoolean},
					"name":       nullable(genai.TypeString),
					"title":      nullable(genai.TypeString),
				},
				Required: []string{"identified", "name", "title"},
			},
			"decision_criteria": stringArray(),
			"decision_process": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"timeline":     nullable(genai.TypeString),
					"steps":        stringArray(),
					"stakeholders": stringArray(),
				},
				Required: []string{"timeline", "steps", "stakeholders"},
			},
			"identify_pain": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"pain_point": {Type: genai.TypeString},
						"severity":   {Type: genai.TypeString, Enum: []string{"low", "medium", "high", "critical"}},
						"impact":     {Type: genai.TypeString},
					},
					Required: []string{"pain_point", "severity", "impact"},
				},
			},
			"champion": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"exists":          {Type: genai.TypeBoolean},
					"name":            nullable(genai.TypeString),
					"influence_level": nullable(genai.TypeString),
				},
				Required: []string{"exists", "name", "influence_level"},
			},
			"qualification_score": {Type: genai.TypeNumber},
			"recommendation": {
				Type: genai.TypeString,
				Enum: []string{"disqualify", "nurture", "advance_to_sales", "fast_track"},
			},
		},
		Required: []string{
			"metrics", "economic_buyer", "decision_criteria", "decision_process",
			"identify_pain", "champion", "qualification_score", "recommendation",
		},
	}
}
