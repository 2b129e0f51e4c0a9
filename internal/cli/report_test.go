package cli

// Test Plan for Report Command:
// - runReport prints the structure report of a valid file
// - runReport fails for a nonexistent path
// - runReport fails for a file with syntax errors

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/pyscope/internal/analyzer"
)

// writeFixture writes a Python source file into a temp directory and
// returns its path.
func writeFixture(t *testing.T, name, source string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(source), 0644))
	return path
}

// captureStdout runs fn with os.Stdout redirected into a buffer and
// returns what was printed.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()

	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	var buf bytes.Buffer
	done := make(chan struct{})
	go func() {
		buf.ReadFrom(r)
		close(done)
	}()

	fn()

	w.Close()
	<-done
	os.Stdout = oldStdout

	return buf.String()
}

func TestRunReport_PrintsStructure(t *testing.T) {
	// Note: Cannot use t.Parallel() because test manipulates os.Stdout

	path := writeFixture(t, "sample.py", `import os

LIMIT = 10

def run():
    helper()

def helper():
    pass

class Box:
    size = 0

    def get(self):
        return self.size
`)

	var runErr error
	output := captureStdout(t, func() {
		runErr = runReport(reportCmd, []string{path})
	})
	require.NoError(t, runErr)

	assert.Contains(t, output, "--- Module: sample ---")
	assert.Contains(t, output, "- import os")
	assert.Contains(t, output, "- LIMIT = <?>")
	assert.Contains(t, output, "def run()")
	assert.Contains(t, output, "- helper")
	assert.Contains(t, output, "class Box:")
	assert.Contains(t, output, "- size = <?>")
	assert.Contains(t, output, "def get(self)")
}

func TestRunReport_FileNotFound(t *testing.T) {
	err := runReport(reportCmd, []string{filepath.Join(t.TempDir(), "ghost.py")})
	require.Error(t, err)
	assert.ErrorIs(t, err, analyzer.ErrNotFound)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestRunReport_SyntaxError(t *testing.T) {
	path := writeFixture(t, "broken.py", "def broken(:\n    pass\n")

	err := runReport(reportCmd, []string{path})
	require.Error(t, err)
	assert.ErrorIs(t, err, analyzer.ErrSyntax)
	assert.Contains(t, err.Error(), "syntax")
}
