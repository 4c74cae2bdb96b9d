// Package mode classifies a free-text query into one of the four handling
// strategies. The oracle itself is the classifier; parsing its reply is
// total, so classification can degrade but never fail.
package mode

import "strings"

// Mode is the handling strategy for a query.
type Mode string

const (
	// Respond answers directly from the oracle's knowledge.
	Respond Mode = "RESPOND"
	// Plan breaks a complex goal into steps.
	Plan Mode = "PLAN"
	// Search consults the web before answering.
	Search Mode = "SEARCH"
	// Act generates and executes a sandboxed script.
	Act Mode = "ACT"
)

// All lists the modes in their declared order. ParseReply scans substrings
// in this order, so the order is part of the classification contract.
func All() []Mode {
	return []Mode{Respond, Plan, Search, Act}
}

// ParseReply maps an arbitrary oracle reply to a Mode. The reply is trimmed
// and uppercased; an exact label match wins, otherwise the first label found
// as a substring wins, otherwise Respond. Respond is the safe default: it is
// the least-capable handler and an unparseable reply must never surface as
// an error.
func ParseReply(reply string) Mode {
	normalized := strings.ToUpper(strings.TrimSpace(reply))

	for _, m := range All() {
		if normalized == string(m) {
			return m
		}
	}
	for _, m := range All() {
		if strings.Contains(normalized, string(m)) {
			return m
		}
	}
	return Respond
}
