package agents

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"revenue_automation_backend/platform/validator"
)

// ErrIncompleteResponse marks a model reply that parsed but lacked required fields.
var ErrIncompleteResponse = errors.New("incomplete response")

// extractJSON pulls the JSON object out of a model reply, tolerating code
// fences and prose around it.
func extractJSON(raw string) (string, error) {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```JSON")
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return "", fmt.Errorf("no JSON object in model response")
	}
	return text[start : end+1], nil
}

// decodeResponse extracts, decodes and validates a model reply into out.
func decodeResponse(val *validator.Validator, raw string, out any) error {
	body, err := extractJSON(raw)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(body), out); err != nil {
		return fmt.Errorf("malformed model response: %w", err)
	}
	if err := val.Struct(out); err != nil {
		return fmt.Errorf("%w: %v", ErrIncompleteResponse, validator.FieldErrors(err))
	}
	return nil
}
