package sandbox

import (
	"bytes"
	"context"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Result is a successful execution: the designated result value, every
// caller-visible binding the script defined, and anything it printed.
type Result struct {
	Value    interface{}
	Bindings map[string]interface{}
	Output   string
}

// Engine executes candidate scripts against an immutable catalog. A fresh
// interpreter is created per execution, so one invocation can never observe
// or mutate another's bindings, and a misbehaving script only damages its
// own invocation.
type Engine struct {
	catalog *Catalog
	timeout time.Duration
	logger  *zap.Logger
}

// NewEngine builds an engine around the catalog. timeout bounds the script's
// wall clock; zero disables the budget.
func NewEngine(catalog *Catalog, timeout time.Duration, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{catalog: catalog, timeout: timeout, logger: logger}
}

// Execute runs a gate-passed script and returns its result. Any fault during
// evaluation (type errors, arithmetic faults, unbound names, interpreter
// panics, the wall-clock budget) is returned as an error, never allowed to
// escape the invocation.
func (e *Engine) Execute(ctx context.Context, script string) (*Result, error) {
	if strings.TrimSpace(script) == "" {
		return &Result{Bindings: map[string]interface{}{}}, nil
	}

	var out bytes.Buffer
	interp, preludeNames, err := e.catalog.newInterpreter(&out)
	if err != nil {
		return nil, err
	}

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("runtime panic: %v", r)
			}
		}()
		_, evalErr := interp.Eval(script)
		done <- evalErr
	}()

	var budget <-chan time.Time
	if e.timeout > 0 {
		timer := time.NewTimer(e.timeout)
		defer timer.Stop()
		budget = timer.C
	}

	// On timeout or cancellation the evaluation goroutine is abandoned; the
	// interpreter has no preemption hook, so a genuinely unbounded script
	// keeps its goroutine until process exit. The invocation itself always
	// gets an answer.
	select {
	case evalErr := <-done:
		if evalErr != nil {
			e.logger.Debug("script execution failed", zap.Error(evalErr))
			return nil, evalErr
		}
	case <-ctx.Done():
		return nil, fmt.Errorf("execution canceled: %w", ctx.Err())
	case <-budget:
		return nil, fmt.Errorf("execution exceeded %s budget", e.timeout)
	}

	bindings := make(map[string]interface{})
	for name, v := range interp.Globals() {
		if preludeNames[name] || strings.HasPrefix(name, privatePrefix) || !v.IsValid() {
			continue
		}
		bindings[name] = exportValue(v)
	}

	return &Result{
		Value:    selectResult(script, bindings),
		Bindings: bindings,
		Output:   out.String(),
	}, nil
}

// selectResult applies the result-selection policy: an explicit `result`
// binding, else `answer`, else the last-defined binding in strict source
// definition order, else nil.
func selectResult(script string, bindings map[string]interface{}) interface{} {
	if v, ok := bindings["result"]; ok {
		return v
	}
	if v, ok := bindings["answer"]; ok {
		return v
	}
	order := bindingOrder(script)
	for i := len(order) - 1; i >= 0; i-- {
		if v, ok := bindings[order[i]]; ok {
			return v
		}
	}
	return nil
}

var (
	assignRe   = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*(?:[ \t]*,[ \t]*[A-Za-z_][A-Za-z0-9_]*)*)[ \t]*(?::=|=)([^=]|$)`)
	declRe     = regexp.MustCompile(`^(?:var|const)[ \t]+([A-Za-z_][A-Za-z0-9_]*(?:[ \t]*,[ \t]*[A-Za-z_][A-Za-z0-9_]*)*)`)
	declOpenRe = regexp.MustCompile(`^(?:var|const)[ \t]*\([ \t]*$`)
	declSpecRe = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*(?:[ \t]*,[ \t]*[A-Za-z_][A-Za-z0-9_]*)*)`)
	funcDefRe  = regexp.MustCompile(`^func[ \t]+([A-Za-z_][A-Za-z0-9_]*)`)
)

// bindingOrder recovers the order in which top-level names are first defined
// by scanning the source text. The interpreter reports bindings as an
// unordered map, and the "last-defined wins" policy requires strict
// definition order, so the order is reconstructed from the script itself.
// Only unindented lines are considered (nested definitions are not top-level
// bindings), except inside a top-level var/const block, whose indented spec
// lines declare top-level names.
func bindingOrder(script string) []string {
	var order []string
	seen := make(map[string]bool)
	add := func(name string) {
		if name != "" && !seen[name] {
			seen[name] = true
			order = append(order, name)
		}
	}

	inDeclBlock := false
	for _, line := range strings.Split(script, "\n") {
		if inDeclBlock {
			trimmed := strings.TrimSpace(line)
			if strings.HasPrefix(trimmed, ")") {
				inDeclBlock = false
				continue
			}
			if m := declSpecRe.FindStringSubmatch(trimmed); m != nil {
				for _, name := range strings.Split(m[1], ",") {
					add(strings.TrimSpace(name))
				}
			}
			continue
		}
		if line == "" || line[0] == ' ' || line[0] == '\t' {
			continue
		}
		if declOpenRe.MatchString(line) {
			inDeclBlock = true
			continue
		}
		if m := funcDefRe.FindStringSubmatch(line); m != nil {
			add(m[1])
			continue
		}
		names := ""
		if m := declRe.FindStringSubmatch(line); m != nil {
			names = m[1]
		} else if m := assignRe.FindStringSubmatch(line); m != nil {
			names = m[1]
		}
		for _, name := range strings.Split(names, ",") {
			add(strings.TrimSpace(name))
		}
	}
	return order
}

// exportValue converts an interpreter global into a plain value. Kinds that
// cannot round-trip through JSON (functions, channels) are rendered as
// their type description so the bindings map stays serializable.
func exportValue(v reflect.Value) interface{} {
	switch v.Kind() {
	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return fmt.Sprintf("<%s>", v.Type())
	default:
		return v.Interface()
	}
}
