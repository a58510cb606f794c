package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timeriffic/timeriffic/internal/keyspace"
	"github.com/timeriffic/timeriffic/internal/schedule"
	"github.com/timeriffic/timeriffic/internal/usecase"
)

const gap = keyspace.DefaultGap

type cliEnv struct {
	dbPath string
}

// setupCLI points the CLI at a temp database and a config file with the
// given YAML body.
func setupCLI(t *testing.T, configBody string) cliEnv {
	t.Helper()
	dir := t.TempDir()

	configPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(configBody), 0o600))
	t.Setenv("TIMERIFFIC_CONFIG", configPath)
	t.Setenv("TIMERIFFIC_DIR", filepath.Join(dir, "data"))

	return cliEnv{dbPath: filepath.Join(dir, "profiles.db")}
}

func (e cliEnv) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	out, _, err := e.runStderr(t, stdin, args...)
	return out, err
}

// runStderr is run that also returns what the command wrote to stderr.
func (e cliEnv) runStderr(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--db", e.dbPath}, args...))
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func (e cliEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.run(t, "", args...)
	require.NoError(t, err, "timeriffic %s", strings.Join(args, " "))
	return out
}

func (e cliEnv) tree(t *testing.T, args ...string) []usecase.ProfileTree {
	t.Helper()
	out := e.mustRun(t, append([]string{"list", "--format", "json"}, args...)...)
	var tree []usecase.ProfileTree
	require.NoError(t, json.Unmarshal([]byte(out), &tree))
	return tree
}

func treeTitles(tree []usecase.ProfileTree) []string {
	titles := make([]string, 0, len(tree))
	for _, p := range tree {
		titles = append(titles, p.Title)
	}
	return titles
}

func TestListSeedsFreshDatabase(t *testing.T) {
	env := setupCLI(t, "")

	tree := env.tree(t)
	assert.Equal(t, []string{"Weekdaze", "Party Time", "Sleeping-In"}, treeTitles(tree))
	require.Len(t, tree[0].Actions, 2)
	assert.Equal(t, schedule.TimeOfDay(7*60), tree[0].Actions[0].TimeOfDay)

	enabled := env.tree(t, "--enabled-only")
	assert.Len(t, enabled[0].Actions, 1)

	descending := env.tree(t, "--descending")
	assert.Equal(t, []string{"Sleeping-In", "Party Time", "Weekdaze"}, treeTitles(descending))
}

func TestListTable(t *testing.T) {
	env := setupCLI(t, "")

	out := env.mustRun(t, "list")
	assert.Contains(t, out, "Weekdaze")
	assert.Contains(t, out, "07:00 Mon,Tue,Wed,Thu [M0,V1]")
	assert.Contains(t, out, "Schedule")
	assert.NotContains(t, out, "SCHEDULE")

	_, err := env.run(t, "", "list", "--format", "xml")
	assert.Error(t, err)
}

func TestProfileCommands(t *testing.T) {
	env := setupCLI(t, "seed: false\n")

	out := env.mustRun(t, "profile", "add", "A")
	assert.Contains(t, out, "index 65536")
	env.mustRun(t, "profile", "add", "B")
	out = env.mustRun(t, "profile", "add", "M", "--before", "131072")
	assert.Contains(t, out, "index 98304")

	env.mustRun(t, "profile", "update", "98304", "--title", "Middle", "--enabled=false")

	tree := env.tree(t)
	assert.Equal(t, []string{"A", "Middle", "B"}, treeTitles(tree))
	assert.False(t, tree[1].Enabled)

	env.mustRun(t, "action", "add", "98304", "--time", "06:15", "--days", "weekend", "-d", "early")
	env.mustRun(t, "action", "add", "98304", "--time", "23:00", "--days", "Sun-Mon", "-d", "late", "--inactive")

	out, prompt, err := env.runStderr(t, "n\n", "profile", "delete", "98304")
	require.NoError(t, err)
	assert.Contains(t, prompt, "Delete profile 'Middle' and its 2 action(s)?")
	assert.Contains(t, out, "cancelled")
	assert.Len(t, env.tree(t), 3)

	out, err = env.run(t, "y\n", "profile", "delete", "98304")
	require.NoError(t, err)
	assert.Contains(t, out, "2 action(s)")
	assert.Equal(t, []string{"A", "B"}, treeTitles(env.tree(t)))

	_, err = env.run(t, "", "profile", "delete", "98304", "--force")
	assert.Error(t, err)
	_, err = env.run(t, "", "profile", "update", "abc")
	assert.Error(t, err)
}

func TestActionCommands(t *testing.T) {
	env := setupCLI(t, "seed: false\n")

	env.mustRun(t, "profile", "add", "P")
	out := env.mustRun(t, "action", "add", "65536", "--time", "07:00", "--days", "Mon-Thu", "--payload", "M0,V1", "-d", "wake")
	assert.Contains(t, out, "offset 65536")
	env.mustRun(t, "action", "add", "65536", "--time", "06:00", "--before", "65536", "-d", "earlier")

	actions := env.tree(t)[0].Actions
	require.Len(t, actions, 2)
	assert.Equal(t, "earlier", actions[0].Description)
	assert.Equal(t, int64(gap/2), actions[0].Offset)
	assert.Equal(t, schedule.AllDays, actions[0].Days)

	wake := actions[1]
	env.mustRun(t, "action", "update", formatID(wake.RowID), "--time", "07:45", "--active=false")

	actions = env.tree(t)[0].Actions
	assert.Equal(t, schedule.TimeOfDay(7*60+45), actions[1].TimeOfDay)
	assert.False(t, actions[1].Active)
	assert.Equal(t, "M0,V1", actions[1].Payload)

	env.mustRun(t, "action", "delete", formatID(wake.RowID))
	assert.Len(t, env.tree(t)[0].Actions, 1)

	_, err := env.run(t, "", "action", "delete", formatID(wake.RowID))
	assert.Error(t, err)

	_, err = env.run(t, "", "action", "add", "65536", "--time", "7am")
	assert.Error(t, err)
	_, err = env.run(t, "", "action", "add", "65536")
	assert.Error(t, err)
	_, err = env.run(t, "", "action", "add", "131072", "--time", "07:00")
	assert.Error(t, err)
}

func TestResetCommand(t *testing.T) {
	env := setupCLI(t, "")

	env.mustRun(t, "profile", "add", "extra")
	require.Len(t, env.tree(t), 4)

	out := env.mustRun(t, "reset", "--force")
	assert.Contains(t, out, "Reset")
	assert.Equal(t, []string{"Weekdaze", "Party Time", "Sleeping-In"}, treeTitles(env.tree(t)))
}

func TestInvalidConfigIsReported(t *testing.T) {
	env := setupCLI(t, "gap: 0\n")

	_, err := env.run(t, "", "list")
	assert.Error(t, err)

	env = setupCLI(t, "")
	_, err = env.run(t, "", "--log-level", "loud", "list")
	assert.Error(t, err)
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
