package strategy

import (
	"context"
	"strings"
	"unicode"

	"github.com/sameehj/quadrant/pkg/mode"
	"github.com/sameehj/quadrant/pkg/oracle"
)

const planSystemPrompt = `You are a planning assistant. When given a complex task or goal:

1. Break it down into clear, actionable steps
2. Identify what information you need but don't have
3. Suggest next actions or questions to gather missing information
4. Be specific and practical

Format your response as:

PLAN:
1. [First step]
2. [Second step]
...

MISSING INFORMATION:
- [What you need to know]
- [Other information needed]

NEXT ACTIONS:
- [Suggested next steps]
`

// handlePlan breaks a complex goal into steps and surfaces what is missing.
func (d *Dispatcher) handlePlan(ctx context.Context, query string) (*Envelope, error) {
	answer, err := d.oracle.Generate(ctx, oracle.Request{
		Prompt:      query,
		System:      planSystemPrompt,
		Temperature: 0.7,
		MaxTokens:   1500,
	})
	if err != nil {
		return nil, err
	}

	return &Envelope{
		Mode:   mode.Plan,
		Answer: answer,
		Plan:   parseBreakdown(answer),
		Metadata: map[string]interface{}{
			"tool_used": "planning",
		},
	}, nil
}

// parseBreakdown splits the reply into its three sections by scanning lines.
// The format is advisory, not guaranteed, so every section carries a
// placeholder when nothing parses.
func parseBreakdown(reply string) *Breakdown {
	var steps, missing, actions []string

	section := ""
	for _, raw := range strings.Split(reply, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		upper := strings.ToUpper(line)

		switch {
		case strings.HasPrefix(upper, "PLAN"):
			section = "plan"
		case strings.Contains(upper, "MISSING INFORMATION"):
			section = "missing"
		case strings.Contains(upper, "NEXT ACTIONS") || strings.Contains(upper, "NEXT STEPS"):
			section = "actions"
		case section == "plan" && (unicode.IsDigit(rune(line[0])) || strings.HasPrefix(line, "-")):
			steps = append(steps, strings.TrimLeft(line, "0123456789.-) "))
		case section == "missing" && strings.HasPrefix(line, "-"):
			missing = append(missing, strings.TrimLeft(line, "- "))
		case section == "actions" && strings.HasPrefix(line, "-"):
			actions = append(actions, strings.TrimLeft(line, "- "))
		}
	}

	if len(steps) == 0 {
		steps = []string{"See full plan in answer"}
	}
	if len(missing) == 0 {
		missing = []string{"None identified"}
	}
	if len(actions) == 0 {
		actions = []string{"Execute the plan"}
	}
	return &Breakdown{Steps: steps, MissingInformation: missing, NextActions: actions}
}
