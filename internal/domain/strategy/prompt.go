package strategy

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/Strob0t/crmlite/internal/domain/interaction"
	"github.com/Strob0t/crmlite/internal/domain/opportunity"
)

// NoHistory replaces the transcript when an opportunity has no interactions.
const NoHistory = "No interactions recorded yet."

// SystemPrompt instructs the model to answer with the four strategy fields.
const SystemPrompt = `You are a CRM sales strategist. You analyze an opportunity and its contact history and reply with a single JSON object and nothing else.
The object must have exactly these string fields:
- "summary": two or three sentences on the current state of the relationship
- "sentiment": the prospect's sentiment, one of "Positive", "Neutral" or "Negative", followed by a short reason
- "next_step": one specific, actionable next step
- "tactical_advice": concrete advice on how to execute the next step`

const timestampLayout = "2006-01-02 15:04"

// Transcript renders interactions oldest first, one "[type] time: notes"
// line each. The input slice is not modified.
func Transcript(items []interaction.Interaction) string {
	if len(items) == 0 {
		return NoHistory
	}
	sorted := make([]interaction.Interaction, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Timestamp.Equal(sorted[j].Timestamp) {
			return sorted[i].Timestamp.Before(sorted[j].Timestamp)
		}
		return sorted[i].ID < sorted[j].ID
	})

	var b strings.Builder
	for i := range sorted {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "[%s] %s: %s", sorted[i].Type, sorted[i].Timestamp.UTC().Format(timestampLayout), sorted[i].Notes)
	}
	return b.String()
}

// BuildPrompt returns the user prompt for opp with the given transcript.
func BuildPrompt(opp *opportunity.Opportunity, transcript string) string {
	var b strings.Builder
	b.WriteString("Analyze the following opportunity and its interaction history, then produce a sales strategy.\n\n")
	b.WriteString("OPPORTUNITY:\n")
	fmt.Fprintf(&b, "- Name: %s\n", opp.Name)
	fmt.Fprintf(&b, "- Status: %s\n", opp.Status)
	fmt.Fprintf(&b, "- Value: %s\n", strconv.FormatFloat(opp.Value, 'f', 2, 64))
	b.WriteString("\nINTERACTION HISTORY:\n")
	b.WriteString(transcript)
	b.WriteString("\n\nRespond with JSON containing summary, sentiment, next_step and tactical_advice.")
	return b.String()
}
