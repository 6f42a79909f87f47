package cmd_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoCodeAlone/modkit/cmd/server/cmd"
	"github.com/GoCodeAlone/modkit/internal/testutil"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := cmd.NewRootCommand()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestRootCommand(t *testing.T) {
	out, err := execute(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "modkit-server")
	assert.Contains(t, out, "serve")
	assert.Contains(t, out, "routes")
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "modkit-server vdev")
	assert.Contains(t, cmd.PrintVersion(), "commit: none")
}

func TestRoutesCommand(t *testing.T) {
	testutil.IsolateEnv(t, "MODKIT_")
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("http:\n  base_path: /v1\n"), 0o600))

	out, err := execute(t, "routes", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "/health")
	assert.Contains(t, out, "UserController")
	assert.Contains(t, out, "GET /v1/users/")
	assert.Contains(t, out, "PUT /v1/users/{id}")
}

func TestRoutesCommandRejectsInvalidConfig(t *testing.T) {
	t.Setenv("MODKIT_LOG_LEVEL", "loud")
	_, err := execute(t, "routes")
	assert.Error(t, err)
}
