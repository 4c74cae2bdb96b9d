// Package gate screens candidate scripts for disallowed constructs before
// execution. The screening is textual, not semantic: it is a first defense
// layer, deliberately conservative, and known to be both over- and
// under-inclusive. Real confinement is the sandbox's absent authority; the
// gate exists to reject obvious misuse early with a nameable reason.
package gate

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Rule is one denylisted construct.
type Rule struct {
	Name    string `yaml:"name"`
	Pattern string `yaml:"pattern"`

	re *regexp.Regexp
}

// Policy configures the gate. AllowedImports lists the only module paths a
// script may import; Rules are scanned in order and the first match rejects.
type Policy struct {
	AllowedImports []string `yaml:"allowed_imports"`
	Rules          []Rule   `yaml:"rules"`
}

// DefaultPolicy returns the built-in denylist: reflective and dynamic-load
// constructs, process and file access, dynamic evaluation, and interactive
// input. Only the numeric math module may be imported.
func DefaultPolicy() Policy {
	return Policy{
		AllowedImports: []string{"math"},
		Rules: []Rule{
			{Name: "reflection", Pattern: `\breflect\b`},
			{Name: "unsafe access", Pattern: `\bunsafe\b`},
			{Name: "raw syscall", Pattern: `\bsyscall\b`},
			{Name: "dynamic plugin load", Pattern: `\bplugin\b`},
			{Name: "process access", Pattern: `\bos\.`},
			{Name: "subprocess execution", Pattern: `\bexec\.`},
			{Name: "dynamic evaluation", Pattern: `\beval\s*\(`},
			{Name: "dynamic compilation", Pattern: `\bcompile\s*\(`},
			{Name: "file open", Pattern: `\bopen\s*\(`},
			{Name: "interactive input", Pattern: `\binput\s*\(`},
			{Name: "stdin read", Pattern: `\bstdin\b`},
		},
	}
}

// Gate checks scripts against a compiled policy.
type Gate struct {
	policy Policy
}

// New compiles the policy. Patterns are matched case-insensitively.
func New(policy Policy) (*Gate, error) {
	for i := range policy.Rules {
		re, err := regexp.Compile(`(?i)` + policy.Rules[i].Pattern)
		if err != nil {
			return nil, fmt.Errorf("compile gate rule %q: %w", policy.Rules[i].Name, err)
		}
		policy.Rules[i].re = re
	}
	return &Gate{policy: policy}, nil
}

// NewDefault compiles the built-in policy.
func NewDefault() *Gate {
	g, err := New(DefaultPolicy())
	if err != nil {
		// The built-in patterns are constants; failing to compile them is a
		// programming error.
		panic(err)
	}
	return g
}

// LoadPolicy reads a gate policy from a YAML file.
func LoadPolicy(path string) (Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("read gate policy: %w", err)
	}
	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Policy{}, fmt.Errorf("parse gate policy: %w", err)
	}
	return p, nil
}

// Rejection names the construct that blocked a script.
type Rejection struct {
	Reason string
}

func (r *Rejection) Error() string {
	return "blocked: unsafe operation detected (" + r.Reason + ")"
}

// Check scans the script and returns the first violation, or nil if the
// script passes. The script is never executed.
func (g *Gate) Check(script string) *Rejection {
	if rej := g.checkImports(script); rej != nil {
		return rej
	}
	for _, rule := range g.policy.Rules {
		if rule.re.MatchString(script) {
			return &Rejection{Reason: rule.Name}
		}
	}
	return nil
}

// Report returns every violation in the script, for diagnostics. Check is
// the enforcement path; Report never short-circuits.
func (g *Gate) Report(script string) []string {
	var violations []string
	if rej := g.checkImports(script); rej != nil {
		violations = append(violations, rej.Reason)
	}
	for _, rule := range g.policy.Rules {
		if rule.re.MatchString(script) {
			violations = append(violations, rule.Name)
		}
	}
	return violations
}

// checkImports scans import statements line by line, allowing only the
// whitelisted module paths. Both single-line and block import syntax are
// recognized.
func (g *Gate) checkImports(script string) *Rejection {
	inBlock := false
	for _, raw := range strings.Split(script, "\n") {
		line := strings.TrimSpace(raw)
		switch {
		case strings.HasPrefix(line, "import ("):
			inBlock = true
			continue
		case inBlock && strings.HasPrefix(line, ")"):
			inBlock = false
			continue
		}

		var spec string
		if inBlock {
			spec = line
		} else if strings.HasPrefix(line, "import ") {
			spec = strings.TrimSpace(strings.TrimPrefix(line, "import "))
		} else {
			continue
		}
		if spec == "" || strings.HasPrefix(spec, "//") {
			continue
		}

		path := importPath(spec)
		if path == "" {
			continue
		}
		if !g.importAllowed(path) {
			return &Rejection{Reason: fmt.Sprintf("import of %q not permitted", path)}
		}
	}
	return nil
}

func (g *Gate) importAllowed(path string) bool {
	for _, allowed := range g.policy.AllowedImports {
		if path == allowed {
			return true
		}
	}
	return false
}

// importPath extracts the quoted path from an import spec, which may carry
// an alias ("m \"math\"").
func importPath(spec string) string {
	start := strings.IndexByte(spec, '"')
	if start < 0 {
		return ""
	}
	rest := spec[start+1:]
	end := strings.IndexByte(rest, '"')
	if end < 0 {
		return ""
	}
	return rest[:end]
}
