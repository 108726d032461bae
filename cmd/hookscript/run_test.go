package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const counterScript = `
(function Counter(h) {
  const [count, setCount] = h.useState(0);
  const label = h.useContext("label");
  h.useEffect(() => { print("effect", count); }, [count]);
  return {
    label,
    count,
    handlers: {
      inc: () => setCount(c => c + 1),
      add: (n) => setCount(c => c + n),
    },
  };
})
`

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "counter.js")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func decodeLines(t *testing.T, out string) []map[string]any {
	t.Helper()
	var lines []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		lines = append(lines, m)
	}
	return lines
}

func TestRunPrintsEveryCommit(t *testing.T) {
	path := writeScript(t, counterScript)
	stdout, stderr, err := execute(t, "run", path,
		"--context", `label="clicks"`,
		"-i", "inc",
		"-i", "add=[5]",
		"--metrics")
	require.NoError(t, err)

	lines := decodeLines(t, stdout)
	require.Len(t, lines, 3)
	assert.Equal(t, float64(0), lines[0]["count"])
	assert.Equal(t, float64(1), lines[1]["count"])
	assert.Equal(t, float64(6), lines[2]["count"])
	assert.Equal(t, "clicks", lines[2]["label"])

	assert.Contains(t, stderr, "effect 6")
	assert.Contains(t, stderr, `hookscript_hooks_events_total{component=counter,verb=instance.rendered} 3`)
}

func TestRunPersistsAndRestoresState(t *testing.T) {
	path := writeScript(t, counterScript)
	dir := t.TempDir()

	_, _, err := execute(t, "run", path, "--context", `label="a"`, "--state-dir", dir, "--key", "s1", "-i", "add=[4]")
	require.NoError(t, err)

	stdout, _, err := execute(t, "run", path, "--context", `label="a"`, "--state-dir", dir, "--key", "s1")
	require.NoError(t, err)
	lines := decodeLines(t, stdout)
	require.Len(t, lines, 1)
	assert.Equal(t, float64(4), lines[0]["count"])

	listed, _, err := execute(t, "list", "counter", "--state-dir", dir)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(listed, "s1\t"), listed)
}

func TestRunRejectsBadInvocation(t *testing.T) {
	path := writeScript(t, counterScript)
	_, _, err := execute(t, "run", path, "--context", `label="a"`, "-i", "add=5")
	require.Error(t, err)

	_, _, err = execute(t, "run", path, "--context", `label="a"`, "-i", "missing")
	require.Error(t, err)
}
