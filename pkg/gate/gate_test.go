package gate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckPassesCleanScript(t *testing.T) {
	t.Parallel()
	g := NewDefault()

	scripts := []string{
		"result := 87.50 * 0.15",
		"x := 1\ny := 2\nresult := x + y",
		"import \"math\"\nresult := math.Sqrt(2)",
		// "Cos" contains "os" but not as a denylisted construct.
		"result := math.Cos(0.5)",
	}
	for _, script := range scripts {
		assert.Nil(t, g.Check(script), "script should pass: %s", script)
	}
}

func TestCheckRejectsDenylistedConstructs(t *testing.T) {
	t.Parallel()
	g := NewDefault()

	cases := []struct {
		name   string
		script string
		reason string
	}{
		{"forbidden import", `import "net/http"`, `import of "net/http" not permitted`},
		{"aliased forbidden import", `import f "os"`, `import of "os" not permitted`},
		{"block import", "import (\n\t\"math\"\n\t\"io\"\n)", `import of "io" not permitted`},
		{"reflection", "v := reflect.ValueOf(1)", "reflection"},
		{"unsafe", "p := unsafe.Pointer(nil)", "unsafe access"},
		{"syscall", "syscall.Kill(1, 9)", "raw syscall"},
		{"process access", "data := os.Environ()", "process access"},
		{"subprocess", "exec.Command(\"ls\")", "subprocess execution"},
		{"dynamic eval", "result := eval(code)", "dynamic evaluation"},
		{"dynamic compile", "result := compile(src)", "dynamic compilation"},
		{"file open", "f := open(\"data.txt\")", "file open"},
		{"interactive input", "name := input()", "interactive input"},
		{"stdin", "reader.ReadFrom(Stdin)", "stdin read"},
		{"case insensitive", "RESULT := EVAL(code)", "dynamic evaluation"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			rej := g.Check(tc.script)
			require.NotNil(t, rej, "script should be rejected: %s", tc.script)
			assert.Equal(t, tc.reason, rej.Reason)
			assert.Contains(t, rej.Error(), tc.reason)
		})
	}
}

func TestCheckFirstMatchWins(t *testing.T) {
	t.Parallel()
	g := NewDefault()

	// Imports are scanned before pattern rules.
	rej := g.Check("import \"io\"\nv := reflect.ValueOf(1)")
	require.NotNil(t, rej)
	assert.Equal(t, `import of "io" not permitted`, rej.Reason)
}

func TestReportCollectsAllViolations(t *testing.T) {
	t.Parallel()
	g := NewDefault()

	violations := g.Report("import \"io\"\nv := reflect.ValueOf(1)\nf := open(\"x\")")
	assert.Len(t, violations, 3)
}

func TestMathImportAllowed(t *testing.T) {
	t.Parallel()
	g := NewDefault()

	assert.Nil(t, g.Check("import (\n\t\"math\"\n)\nresult := math.Pi"))
	assert.Nil(t, g.Check(`import m "math"`))
}

func TestLoadPolicy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gate.yaml")
	content := `
allowed_imports:
  - math
rules:
  - name: goroutine spawn
    pattern: \bgo\s+func\b
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	policy, err := LoadPolicy(path)
	require.NoError(t, err)

	g, err := New(policy)
	require.NoError(t, err)

	rej := g.Check("go func() {}()")
	require.NotNil(t, rej)
	assert.Equal(t, "goroutine spawn", rej.Reason)
}

func TestNewRejectsBadPattern(t *testing.T) {
	t.Parallel()
	_, err := New(Policy{Rules: []Rule{{Name: "broken", Pattern: "("}}})
	assert.Error(t, err)
}
