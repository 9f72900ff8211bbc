package cmd

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const introCourseYAML = `
introToAi:
  id: intro-to-ai
  title: Intro to AI
  modules:
    - id: m1
      title: Foundations
      lessons:
        - id: l1
          title: Neural networks
          content: Neural networks stack layers of weighted neurons and learn by adjusting weights.
          codeExamples:
            - id: c1
              title: Perceptron
              language: python
              code: "w = [0.1, 0.2]"
        - id: l2
          title: Gradient descent
          content: Gradient descent lowers the loss by stepping against the gradient.
          assignments:
            - id: a1
              title: Tune the learning rate
              difficulty: easy
              type: exercise
              description: Try three learning rates and compare the loss curves.
`

// newProject creates a project directory with one course unit and points
// the process environment at an offline embedder.
func newProject(t *testing.T) string {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("RAGINDEX_EMBEDDINGS_PROVIDER", "static")
	t.Setenv("RAGINDEX_EMBEDDINGS_DIMENSIONS", "64")

	orig := slog.Default()
	t.Cleanup(func() { slog.SetDefault(orig) })

	dir := t.TempDir()
	writeUnit(t, dir, "intro-to-ai", introCourseYAML)
	return dir
}

func writeUnit(t *testing.T, project, unit, body string) {
	t.Helper()
	unitDir := filepath.Join(project, "content", unit)
	require.NoError(t, os.MkdirAll(unitDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(unitDir, "course.yaml"), []byte(body), 0o644))
}

// run executes the root command against project and returns its output.
func run(t *testing.T, project string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(append([]string{"--dir", project, "--no-tui"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return buf.String(), err
}
