// Package sandbox runs gate-passed candidate scripts in an interpreter whose
// only visible entry points are the capability catalog. The interpreter has
// no ambient authority: no filesystem handle, no network handle, no process
// control is reachable from the exposed symbol set, so a gate bypass cannot
// translate into side effects outside the invocation.
package sandbox

import (
	"fmt"
	"io"
	"math"
	"reflect"
	"strconv"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

// privatePrefix marks scaffolding names that never leak into caller-visible
// bindings.
const privatePrefix = "_"

// prelude is evaluated into every fresh interpreter before the candidate
// script. It binds the core catalog under the lowercase names scripts use
// and imports the one whitelisted module.
const prelude = `
import "math"
import sb "sandbox"

var (
	abs       = sb.Abs
	round     = sb.Round
	min       = sb.Min
	max       = sb.Max
	sum       = sb.Sum
	sorted    = sb.Sorted
	factorial = sb.Factorial
	str       = sb.Str
	num       = sb.Num
	print     = sb.Print
	pi        = math.Pi
	e         = math.E
)
`

// Catalog is the finite symbol surface available inside the sandbox. It is
// built once at process start and never mutated; every invocation gets a
// fresh interpreter seeded from it.
type Catalog struct {
	core map[string]reflect.Value
	math map[string]reflect.Value
}

// NewCatalog builds the catalog: the core helpers plus the math module
// symbols lifted from the interpreter's standard library table.
func NewCatalog() *Catalog {
	c := &Catalog{
		core: map[string]reflect.Value{
			"Abs":       reflect.ValueOf(math.Abs),
			"Round":     reflect.ValueOf(math.Round),
			"Min":       reflect.ValueOf(minOf),
			"Max":       reflect.ValueOf(maxOf),
			"Sum":       reflect.ValueOf(sumOf),
			"Sorted":    reflect.ValueOf(sortedCopy),
			"Factorial": reflect.ValueOf(factorial),
			"Str":       reflect.ValueOf(str),
			"Num":       reflect.ValueOf(num),
		},
		math: make(map[string]reflect.Value),
	}
	for name, sym := range stdlib.Symbols["math/math"] {
		c.math[name] = sym
	}
	return c
}

// newInterpreter returns a fresh interpreter exposing only the catalog, with
// print wired to out, plus the set of names defined by the prelude (used to
// separate catalog scaffolding from script bindings).
func (c *Catalog) newInterpreter(out io.Writer) (*interp.Interpreter, map[string]bool, error) {
	i := interp.New(interp.Options{})

	core := make(map[string]reflect.Value, len(c.core)+1)
	for name, sym := range c.core {
		core[name] = sym
	}
	core["Print"] = reflect.ValueOf(func(args ...interface{}) {
		fmt.Fprintln(out, args...)
	})

	if err := i.Use(interp.Exports{
		"sandbox/sandbox": core,
		"math/math":       c.math,
	}); err != nil {
		return nil, nil, fmt.Errorf("load catalog symbols: %w", err)
	}
	if _, err := i.Eval(prelude); err != nil {
		return nil, nil, fmt.Errorf("evaluate catalog prelude: %w", err)
	}

	defined := make(map[string]bool)
	for name := range i.Globals() {
		defined[name] = true
	}
	return i, defined, nil
}

func minOf(xs ...float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := xs[0]
	for _, x := range xs[1:] {
		if x < m {
			m = x
		}
	}
	return m
}

func maxOf(xs ...float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := xs[0]
	for _, x := range xs[1:] {
		if x > m {
			m = x
		}
	}
	return m
}

func sumOf(xs []float64) float64 {
	total := 0.0
	for _, x := range xs {
		total += x
	}
	return total
}

func sortedCopy(xs []float64) []float64 {
	out := make([]float64, len(xs))
	copy(out, xs)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j] < out[j-1]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

func factorial(n int) float64 {
	if n < 0 {
		return math.NaN()
	}
	result := 1.0
	for i := 2; i <= n; i++ {
		result *= float64(i)
	}
	return result
}

func str(v interface{}) string {
	return fmt.Sprint(v)
}

func num(v interface{}) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case float32:
		return float64(x)
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case string:
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	case bool:
		if x {
			return 1
		}
		return 0
	default:
		return math.NaN()
	}
}
