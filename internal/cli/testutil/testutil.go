// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/leapstack-labs/olistdw/internal/cli/output"
	"github.com/leapstack-labs/olistdw/internal/project"
	itestutil "github.com/leapstack-labs/olistdw/internal/testutil"
)

// ProjectConfig is the olistdw.yaml written by SetupTestProject. The
// warehouse is in-memory so every command starts from empty tables.
const ProjectConfig = `seeds_dir: seeds
state_path: .olistdw/state.db
target:
  type: memory
`

// SetupTestProject creates a temporary project with a config file and one
// seed file per raw table. Orders A1 and A2 have items and payments; A1
// has two items and two payments.
func SetupTestProject(t *testing.T) string {
	t.Helper()

	tmpDir := t.TempDir()
	seedsDir := filepath.Join(tmpDir, "seeds")
	if err := os.MkdirAll(seedsDir, 0o750); err != nil {
		t.Fatalf("failed to create directory %s: %v", seedsDir, err)
	}
	itestutil.WriteFile(t, tmpDir, "olistdw.yaml", ProjectConfig)

	rows := map[string][][]string{
		project.SourceOrders: {
			{"A1", "C1", "delivered", "2018-01-02 10:00:00", "", "", "", ""},
			{"A2", "C2", "shipped", "2018-02-10 08:30:00", "", "", "", ""},
		},
		project.SourceOrderItems: {
			{"A1", "1", "P1", "S1", "2018-01-05 10:00:00", "10.50", "2.00"},
			{"A1", "2", "P2", "S1", "2018-01-05 10:00:00", "20.00", "3.10"},
			{"A2", "1", "P1", "S2", "2018-02-14 08:30:00", "10.50", "2.40"},
		},
		project.SourceOrderPayments: {
			{"A1", "1", "credit_card", "1", "20.00"},
			{"A1", "2", "voucher", "1", "15.60"},
			{"A2", "1", "boleto", "1", "12.90"},
		},
		project.SourceProducts: {
			{"P1", "beleza_saude", "40", "287", "1", "225", "16", "10", "14"},
		},
		project.SourceProductCategoryName: {
			{"beleza_saude", "health_beauty"},
		},
	}
	for _, src := range project.Sources("") {
		itestutil.WriteCSV(t, seedsDir, src.Ref.Table, src.Columns, rows[src.Ref.Table]...)
	}

	return tmpDir
}

// TestRenderer wraps a Renderer for testing with captured output buffers.
type TestRenderer struct {
	*output.Renderer
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
}

// NewTestRenderer creates a new test renderer with the specified mode and TTY state.
// Output is captured in buffers for inspection.
func NewTestRenderer(mode output.OutputMode, isTTY bool) *TestRenderer {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &TestRenderer{
		Renderer: output.NewRendererWithTTY(out, errOut, isTTY, mode),
		Out:      out,
		ErrOut:   errOut,
	}
}

// NewTestRendererMarkdown creates a new test renderer in markdown mode.
func NewTestRendererMarkdown() *TestRenderer {
	return NewTestRenderer(output.ModeMarkdown, false)
}

// Output returns the combined stdout output as a string.
func (tr *TestRenderer) Output() string {
	return tr.Out.String()
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}

// AssertValidMarkdown performs basic markdown validation.
// It checks for unclosed code fences and basic structure.
func AssertValidMarkdown(t *testing.T, md string) {
	t.Helper()

	fenceCount := strings.Count(md, "```")
	if fenceCount%2 != 0 {
		t.Errorf("unbalanced code fences in markdown: found %d occurrences", fenceCount)
	}

	lines := strings.Split(md, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") && strings.TrimLeft(trimmed, "# ") == "" {
			t.Errorf("empty header at line %d: %q", i+1, line)
		}
	}
}
