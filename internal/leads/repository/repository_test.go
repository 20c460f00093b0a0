package repository

import (
	"strings"
	"testing"
)

func TestTruncateSummary(t *testing.T) {
	if TruncateSummary("   ", 10) != nil {
		t.Fatalf("expected nil for blank summary")
	}
	got := TruncateSummary(strings.Repeat("é", 12), 10)
	if got == nil || *got != strings.Repeat("é", 10)+"..." {
		t.Fatalf("unexpected summary %v", got)
	}
}

func TestSameSteps(t *testing.T) {
	tmpl := "Hi {{first_name}}"
	a := []SequenceStep{{Order: 1, Channel: "EMAIL", WaitHours: 0, AIPrompt: "intro"}, {Order: 2, Channel: "EMAIL", WaitHours: 48, Template: &tmpl}}
	b := []SequenceStep{{Order: 1, Channel: "EMAIL", WaitHours: 0, AIPrompt: "intro"}, {Order: 2, Channel: "EMAIL", WaitHours: 48, Template: &tmpl}}
	if !sameSteps(a, b) {
		t.Fatalf("expected identical step lists to match")
	}
	b[1].WaitHours = 24
	if sameSteps(a, b) {
		t.Fatalf("expected wait change to be detected")
	}
	if sameSteps(a, a[:1]) {
		t.Fatalf("expected length change to be detected")
	}
}

func TestLeadFullName(t *testing.T) {
	cases := map[string]Lead{
		"Ada Lovelace": {FirstName: "Ada", LastName: "Lovelace"},
		"Ada":          {FirstName: "Ada"},
		"Lovelace":     {LastName: "Lovelace"},
	}
	for want, lead := range cases {
		if got := lead.FullName(); got != want {
			t.Errorf("FullName() = %q, want %q", got, want)
		}
	}
}

func TestUnmarshalMapToleratesGarbage(t *testing.T) {
	if m := unmarshalMap([]byte("not json")); len(m) != 0 {
		t.Fatalf("expected empty map, got %v", m)
	}
	if m := unmarshalMap([]byte(`{"a":1}`)); m["a"] != float64(1) {
		t.Fatalf("unexpected map %v", m)
	}
}
