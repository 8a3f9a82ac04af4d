package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
app:
  name: visits
logging:
  level: error
  output: stderr
database:
  driver: sqlite
  path: ` + filepath.Join(dir, "visits.db") + `
exports:
  path: ` + filepath.Join(dir, "exports") + `
schedule:
  capacity: 2
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "visits dev (commit=none, built=unknown)\n", out)
}

func TestHolidaysCmd(t *testing.T) {
	out, err := execute(t, "", "holidays", "2025")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 12)
	assert.Contains(t, out, "2025-04-18  Friday     (Good Friday)")
	assert.Contains(t, out, "2025-06-19  Thursday   (Corpus Christi)")

	out, err = execute(t, "", "holidays", "--json", "2024", "2025")
	require.NoError(t, err)
	assert.Contains(t, out, `"2024-03-29"`)
	assert.Contains(t, out, `"2025-12-25"`)

	_, err = execute(t, "", "holidays", "abc")
	assert.Error(t, err)
	_, err = execute(t, "", "holidays", "1500")
	assert.Error(t, err)
}

func TestHashPasswordCmd(t *testing.T) {
	out, err := execute(t, "", "hash-password", "--cost", "4", "visitas")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(strings.TrimSpace(out)), []byte("visitas")))

	out, err = execute(t, "from-stdin\n", "hash-password", "--cost", "4")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(strings.TrimSpace(out)), []byte("from-stdin")))

	_, err = execute(t, "", "hash-password")
	assert.Error(t, err)
}

func TestSlotsCmd(t *testing.T) {
	cfgPath := writeConfig(t)

	out, err := execute(t, "", "--config", cfgPath, "slots", "--date", "2025-06-03")
	require.NoError(t, err)
	assert.Contains(t, out, "2025-06-03 (ordinary) windows: [16:30-19:30]")
	assert.Contains(t, out, "START")
	assert.Contains(t, out, "19:00")
	assert.Equal(t, 8, len(strings.Split(strings.TrimSpace(out), "\n")))

	out, err = execute(t, "", "--config", cfgPath, "slots", "--date", "2025-06-07", "--duration", "60")
	require.NoError(t, err)
	assert.Contains(t, out, "(weekend)")
	assert.Contains(t, out, "13:00")

	_, err = execute(t, "", "--config", cfgPath, "slots", "--date", "2025-06-03", "--party", "3")
	require.NoError(t, err)

	_, err = execute(t, "", "--config", cfgPath, "slots")
	assert.Error(t, err)
}

func TestExportCmd(t *testing.T) {
	cfgPath := writeConfig(t)

	out, err := execute(t, "", "--config", cfgPath, "export", "--from", "2025-06-01", "--to", "2025-06-30")
	require.NoError(t, err)

	path := strings.TrimSpace(out)
	assert.Equal(t, "visits_2025-06-01_to_2025-06-30.xlsx", filepath.Base(path))
	_, err = os.Stat(path)
	assert.NoError(t, err)

	_, err = execute(t, "", "--config", cfgPath, "export", "--from", "2025-06-30", "--to", "2025-06-01")
	assert.Error(t, err)
}

func TestMissingConfig(t *testing.T) {
	_, err := execute(t, "", "--config", filepath.Join(t.TempDir(), "missing.yaml"), "slots", "--date", "2025-06-03")
	assert.Error(t, err)
}
