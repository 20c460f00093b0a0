// Package sequences loads outreach sequence templates from YAML and writes
// them to the store.
package sequences

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"revenue_automation_backend/internal/leads/domain"
	"revenue_automation_backend/internal/leads/repository"
	"revenue_automation_backend/platform/apperr"
	"revenue_automation_backend/platform/validator"
)

// File is the document layout: one or more sequences for a single workspace.
//
//	workspaceId: 7d4c...
//	sequences:
//	  - name: Default outbound
//	    status: ACTIVE
//	    steps:
//	      - order: 1
//	        channel: EMAIL
//	        waitHours: 0
//	        aiPrompt: Introduce the product
type File struct {
	WorkspaceID string       `yaml:"workspaceId" validate:"required,uuid"`
	Sequences   []Definition `yaml:"sequences" validate:"required,min=1,dive"`
}

type Definition struct {
	Name        string  `yaml:"name" validate:"required,notblank"`
	Description *string `yaml:"description"`
	Status      string  `yaml:"status"`
	Steps       []Step  `yaml:"steps" validate:"required,min=1,dive"`
}

type Step struct {
	Order     int     `yaml:"order"`
	Channel   string  `yaml:"channel" validate:"required"`
	WaitHours int     `yaml:"waitHours" validate:"gte=0"`
	AIPrompt  string  `yaml:"aiPrompt" validate:"required,notblank"`
	Template  *string `yaml:"template"`
}

var val = validator.New()

// Parse decodes and validates a sequence file. Unknown keys are rejected.
func Parse(r io.Reader) (File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return File{}, apperr.Validation("sequence file is empty")
		}
		return File{}, apperr.Wrap(apperr.KindValidation, "invalid sequence file", err)
	}
	if err := f.Validate(); err != nil {
		return File{}, err
	}
	return f, nil
}

// ParseBytes is Parse over an in-memory document.
func ParseBytes(data []byte) (File, error) {
	return Parse(bytes.NewReader(data))
}

// Validate checks struct rules plus the cross-field ones: unique sequence
// names, unique step order, known channel and status values.
func (f File) Validate() error {
	if err := val.Struct(f); err != nil {
		return apperr.Wrap(apperr.KindValidation, "invalid sequence file", err)
	}
	names := make(map[string]struct{}, len(f.Sequences))
	for _, def := range f.Sequences {
		key := strings.ToLower(strings.TrimSpace(def.Name))
		if _, dup := names[key]; dup {
			return apperr.Validation(fmt.Sprintf("sequence %q is defined twice", def.Name))
		}
		names[key] = struct{}{}
		if err := def.validate(); err != nil {
			return err
		}
	}
	return nil
}

func (d Definition) validate() error {
	if !d.status().IsKnown() {
		return apperr.Validation(fmt.Sprintf("sequence %q: unknown status %q", d.Name, d.Status))
	}
	orders := make(map[int]struct{}, len(d.Steps))
	for _, s := range d.Steps {
		if _, dup := orders[s.Order]; dup {
			return apperr.Validation(fmt.Sprintf("sequence %q: step order %d is used twice", d.Name, s.Order))
		}
		orders[s.Order] = struct{}{}
		if !domain.Channel(strings.ToUpper(s.Channel)).IsKnown() {
			return apperr.Validation(fmt.Sprintf("sequence %q: step %d has unknown channel %q", d.Name, s.Order, s.Channel))
		}
	}
	return nil
}

// status defaults to DRAFT so a new sequence is never picked up by accident.
func (d Definition) status() domain.SequenceStatus {
	if strings.TrimSpace(d.Status) == "" {
		return domain.SequenceDraft
	}
	return domain.SequenceStatus(strings.ToUpper(strings.TrimSpace(d.Status)))
}

// steps returns the steps as store rows, ascending by order.
func (d Definition) steps() []repository.SequenceStep {
	out := make([]repository.SequenceStep, 0, len(d.Steps))
	for _, s := range d.Steps {
		out = append(out, repository.SequenceStep{
			Order:     s.Order,
			Channel:   domain.Channel(strings.ToUpper(s.Channel)),
			WaitHours: s.WaitHours,
			AIPrompt:  strings.TrimSpace(s.AIPrompt),
			Template:  s.Template,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}
