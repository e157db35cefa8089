package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run executes the CLI against a file-backed data directory.
func run(t *testing.T, dataDir string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs(append([]string{"--data-dir", dataDir, "--backend", "file", "--log-level", "info"}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

const backup = `{
  "diary": [
    {"id":"1","timestamp":"2026-10-19T08:00:00.000Z","noiseLevel":"loud","wellbeing":["headache"]},
    {"id":"2","timestamp":"2026-10-19T09:00:00.000Z","noiseLevel":"quiet","wellbeing":["good"]}
  ],
  "hearing": [{"id":"3","timestamp":"2026-10-18T10:00:00.000Z","score":80}],
  "settings": {"notifications": false, "theme": "dark"}
}`

func TestCLI_ImportStatsExport(t *testing.T) {
	dataDir := t.TempDir()
	file := filepath.Join(t.TempDir(), "backup.json")
	require.NoError(t, os.WriteFile(file, []byte(backup), 0o644))

	out, logs, err := run(t, dataDir, "import", file)
	require.NoError(t, err)
	assert.Equal(t, "imported diary\nimported hearing\nimported settings\n", out)
	assert.Contains(t, logs, "Данные успешно импортированы!")

	out, _, err = run(t, dataDir, "stats", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"totalEntries": 2`)

	out, _, err = run(t, dataDir, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "## Noise Detox Summary")

	exportDir := t.TempDir()
	out, logs, err = run(t, dataDir, "export", "--out", exportDir)
	require.NoError(t, err)
	path := strings.TrimSpace(out)
	assert.Equal(t, exportDir, filepath.Dir(path))
	assert.True(t, strings.HasPrefix(filepath.Base(path), "noise-detox-data-"))
	assert.Contains(t, logs, "Данные успешно экспортированы!")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"theme": "dark"`)
}

func TestCLI_ImportInvalidFileChangesNothing(t *testing.T) {
	dataDir := t.TempDir()
	file := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(file, []byte("{not json"), 0o644))

	_, logs, err := run(t, dataDir, "import", file)
	require.Error(t, err)
	assert.Contains(t, logs, "Ошибка при импорте данных!")

	out, _, err := run(t, dataDir, "stats", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"totalEntries": 0`)
}

func TestCLI_ClearNeedsYes(t *testing.T) {
	dataDir := t.TempDir()
	file := filepath.Join(t.TempDir(), "backup.json")
	require.NoError(t, os.WriteFile(file, []byte(backup), 0o644))
	_, _, err := run(t, dataDir, "import", file)
	require.NoError(t, err)

	_, _, err = run(t, dataDir, "clear")
	require.Error(t, err)

	_, _, err = run(t, dataDir, "clear", "--yes")
	require.NoError(t, err)

	out, _, err := run(t, dataDir, "stats", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"totalEntries": 0`)
}

func TestCLI_ConfigWrite(t *testing.T) {
	dataDir := t.TempDir()
	out, _, err := run(t, dataDir, "config", "--write")
	require.NoError(t, err)
	assert.Contains(t, out, "backend: file")

	saved, err := os.ReadFile(filepath.Join(dataDir, "config.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(saved), "log_level: info")
}

func TestCLI_Version(t *testing.T) {
	out, _, err := run(t, t.TempDir(), "version")
	require.NoError(t, err)
	assert.Equal(t, "noisedetox vdev\n", out)
}

func TestCLI_StatsRejectsHugeWindow(t *testing.T) {
	_, _, err := run(t, t.TempDir(), "stats", "--days", "5000")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at most 366")
}
