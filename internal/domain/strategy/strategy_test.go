package strategy

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Strob0t/crmlite/internal/domain"
	"github.com/Strob0t/crmlite/internal/domain/interaction"
	"github.com/Strob0t/crmlite/internal/domain/opportunity"
)

func TestTranscriptEmptyUsesSentinel(t *testing.T) {
	if got := Transcript(nil); got != NoHistory {
		t.Fatalf("expected sentinel, got %q", got)
	}
}

func TestTranscriptOldestFirst(t *testing.T) {
	base := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	items := []interaction.Interaction{
		{ID: 2, Type: interaction.TypeEmailSent, Notes: "sent pricing", Timestamp: base.Add(48 * time.Hour)},
		{ID: 1, Type: interaction.TypePhoneCall, Notes: "intro call", Timestamp: base},
	}

	got := Transcript(items)
	want := "[Phone Call] 2024-03-01 09:30: intro call\n[Email Sent] 2024-03-03 09:30: sent pricing"
	if got != want {
		t.Fatalf("transcript mismatch:\n got: %q\nwant: %q", got, want)
	}
	if items[0].ID != 2 {
		t.Fatal("input slice must not be reordered")
	}
}

func TestTranscriptEqualTimestampsOrderedByID(t *testing.T) {
	ts := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	items := []interaction.Interaction{
		{ID: 9, Type: interaction.TypeCustomNote, Notes: "second", Timestamp: ts},
		{ID: 3, Type: interaction.TypeCustomNote, Notes: "first", Timestamp: ts},
	}
	got := Transcript(items)
	if !strings.HasPrefix(got, "[Custom Note] 2024-03-01 09:30: first") {
		t.Fatalf("expected lower id first, got %q", got)
	}
}

func TestBuildPromptEmbedsOpportunity(t *testing.T) {
	opp := &opportunity.Opportunity{Name: "Acme Corp", Status: opportunity.StatusFollowUp, Value: 12000}
	p := BuildPrompt(opp, NoHistory)

	for _, want := range []string{"Name: Acme Corp", "Status: Follow-Up", "Value: 12000.00", NoHistory} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{
			name:  "plain object",
			input: `{"summary":"s","sentiment":"Positive","next_step":"call","tactical_advice":"be brief"}`,
		},
		{
			name:  "fenced",
			input: "```json\n{\"summary\":\"s\",\"sentiment\":\"Neutral\",\"next_step\":\"n\",\"tactical_advice\":\"t\"}\n```",
		},
		{
			name:  "surrounding prose",
			input: `Here you go: {"summary":"s","sentiment":"n","next_step":"n","tactical_advice":"t"} hope it helps`,
		},
		{name: "missing field", input: `{"summary":"s","sentiment":"n","next_step":"n"}`, wantErr: true},
		{name: "blank field", input: `{"summary":" ","sentiment":"n","next_step":"n","tactical_advice":"t"}`, wantErr: true},
		{name: "not json", input: "I cannot help with that.", wantErr: true},
		{name: "wrong type", input: `{"summary":["a"],"sentiment":"n","next_step":"n","tactical_advice":"t"}`, wantErr: true},
		{name: "truncated", input: `{"summary":"s","sentiment":"n"`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Parse(tt.input)
			if tt.wantErr {
				if !errors.Is(err, domain.ErrGeneration) {
					t.Fatalf("expected ErrGeneration, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if r.Summary == "" || r.TacticalAdvice == "" {
				t.Fatalf("expected populated result, got %+v", r)
			}
		})
	}
}

func TestNewer(t *testing.T) {
	ts := time.Now()
	a := &Strategy{ID: 1, CreatedAt: ts}
	b := &Strategy{ID: 2, CreatedAt: ts}
	if !Newer(b, a) || Newer(a, b) {
		t.Fatal("equal timestamps must be ordered by id")
	}
	c := &Strategy{ID: 0, CreatedAt: ts.Add(time.Second)}
	if !Newer(c, b) {
		t.Fatal("later created_at must win")
	}
}
