package strategy

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Strob0t/crmlite/internal/domain"
)

// Result is the structured reply of the generation service.
type Result struct {
	Summary        string `json:"summary"`
	Sentiment      string `json:"sentiment"`
	NextStep       string `json:"next_step"`
	TacticalAdvice string `json:"tactical_advice"`
}

// Parse decodes the generation service reply. Markdown code fences and text
// around the JSON object are tolerated. A reply that is not a JSON object or
// that lacks any of the four fields is an ErrGeneration.
func Parse(content string) (*Result, error) {
	raw := extractJSON(content)
	if raw == "" {
		return nil, fmt.Errorf("parse strategy: no JSON object in response: %w", domain.ErrGeneration)
	}

	var r Result
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return nil, fmt.Errorf("parse strategy: %v: %w", err, domain.ErrGeneration)
	}

	var missing []string
	for _, f := range []struct{ name, val string }{
		{"summary", r.Summary},
		{"sentiment", r.Sentiment},
		{"next_step", r.NextStep},
		{"tactical_advice", r.TacticalAdvice},
	} {
		if strings.TrimSpace(f.val) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("parse strategy: missing %s: %w", strings.Join(missing, ", "), domain.ErrGeneration)
	}
	return &r, nil
}

// extractJSON strips markdown fences and returns the outermost {...} span.
func extractJSON(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			s = s[nl+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}
