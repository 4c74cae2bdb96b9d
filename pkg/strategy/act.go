package strategy

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/sameehj/quadrant/pkg/mode"
	"github.com/sameehj/quadrant/pkg/oracle"
)

const actSystemPrompt = `You are a code generator. Write a short Go snippet that computes the answer to the user's question.

Rules:
- Use only basic arithmetic, the math package, and these helpers: abs, round, min, max, sum, sorted, factorial, str, num, print, pi, e.
- Do not import anything except math. No file access, no network, no user input.
- Assign the final answer to a variable named result, for example: result := 87.50 * 0.15
- Reply with a single fenced code block and nothing else.`

var fencedBlockRe = regexp.MustCompile("(?s)```(?:go|golang)?\\s*\\n(.*?)```")

// handleAct has the oracle generate a computation, screens it, and executes
// it in the sandbox. The generated code is always included in the envelope so
// failures stay auditable; only an oracle fault fails the invocation itself.
func (d *Dispatcher) handleAct(ctx context.Context, query string) (*Envelope, error) {
	reply, err := d.oracle.Generate(ctx, oracle.Request{
		Prompt:      query,
		System:      actSystemPrompt,
		Temperature: 0.3,
		MaxTokens:   800,
	})
	if err != nil {
		return nil, err
	}

	code := extractCode(reply)

	if rej := d.gate.Check(code); rej != nil {
		d.logger.Warn("generated code rejected",
			zap.String("reason", rej.Reason))
		return &Envelope{
			Mode:   mode.Act,
			Answer: fmt.Sprintf("Execution blocked: %s", rej.Error()),
			Code:   code,
			Metadata: map[string]interface{}{
				"tool_used":         "code_execution",
				"execution_success": false,
				"error":             rej.Error(),
			},
		}, nil
	}

	res, execErr := d.engine.Execute(ctx, code)
	if execErr != nil {
		return &Envelope{
			Mode:   mode.Act,
			Answer: fmt.Sprintf("Execution failed: %v", execErr),
			Code:   code,
			Metadata: map[string]interface{}{
				"tool_used":         "code_execution",
				"execution_success": false,
				"error":             execErr.Error(),
			},
		}, nil
	}

	answer := fmt.Sprintf("Result: %v", res.Value)
	if res.Value == nil {
		answer = "Execution completed with no result value"
	}

	return &Envelope{
		Mode:   mode.Act,
		Answer: answer,
		Result: res.Value,
		Code:   code,
		Metadata: map[string]interface{}{
			"tool_used":         "code_execution",
			"execution_success": true,
			"variables":         res.Bindings,
		},
	}, nil
}

// extractCode pulls the script out of the oracle's reply. The first fenced
// block wins; a reply with no fence is treated as bare code.
func extractCode(reply string) string {
	if m := fencedBlockRe.FindStringSubmatch(reply); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(reply)
}
