package validator

import "testing"

type sample struct {
	Name  string `validate:"notblank"`
	Score int    `validate:"min=0,max=100"`
}

func TestNotBlankRejectsWhitespace(t *testing.T) {
	v := New()
	err := v.Struct(sample{Name: "   ", Score: 10})
	if err == nil {
		t.Fatalf("expected blank name to fail validation")
	}

	fields := FieldErrors(err)
	if fields["sample.Name"] != "notblank" {
		t.Fatalf("unexpected field errors: %v", fields)
	}
}

func TestFieldErrorsIncludesParam(t *testing.T) {
	v := New()
	err := v.Struct(sample{Name: "ok", Score: 101})
	fields := FieldErrors(err)
	if fields["sample.Score"] != "max=100" {
		t.Fatalf("unexpected field errors: %v", fields)
	}
}

func TestFieldErrorsIgnoresOtherErrors(t *testing.T) {
	if FieldErrors(nil) != nil {
		t.Fatalf("expected nil for nil error")
	}
}
