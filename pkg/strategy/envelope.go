// Package strategy routes a classified query to exactly one of the four
// handlers and shapes the caller-facing result envelope.
package strategy

import "github.com/sameehj/quadrant/pkg/mode"

// Envelope is the normalized result of one invocation. Mode and Answer are
// always present; the remaining fields are mode-specific. A failed or
// valueless execution omits the result key entirely rather than carrying an
// explicit null; callers must treat an absent key and a null value alike,
// and read metadata.error for the failure detail.
type Envelope struct {
	Mode     mode.Mode              `json:"mode"`
	Answer   string                 `json:"answer"`
	Result   interface{}            `json:"result,omitempty"`
	Code     string                 `json:"code,omitempty"`
	Sources  []Source               `json:"sources,omitempty"`
	Plan     *Breakdown             `json:"plan,omitempty"`
	Metadata map[string]interface{} `json:"metadata"`
}

// Source cites a search result used to synthesize an answer.
type Source struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Breakdown is the structured form of a PLAN answer.
type Breakdown struct {
	Steps              []string `json:"steps"`
	MissingInformation []string `json:"missing_information"`
	NextActions        []string `json:"next_actions"`
}
