package process

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/inf-monkeys/monkey-tools-text/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunner_Run(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}

	runner := NewRunner()
	runner.Register("greet", "sh", "-c", `echo "hello $0"`)

	t.Run("Executes Registered Command", func(t *testing.T) {
		res, err := runner.Run(context.Background(), "greet", "world")
		require.NoError(t, err)
		assert.Equal(t, "hello world\n", res.Stdout)
	})

	t.Run("Arguments Are Not Interpreted By A Shell", func(t *testing.T) {
		res, err := runner.Run(context.Background(), "greet", "; rm -rf /")
		require.NoError(t, err)
		assert.Equal(t, "hello ; rm -rf /\n", res.Stdout)
	})

	t.Run("Fails For Unregistered Command", func(t *testing.T) {
		_, err := runner.Run(context.Background(), "hacker_script")
		assert.ErrorIs(t, err, ErrCommandNotAllowed)
	})
}

func TestRunner_NonZeroExit(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}

	runner := NewRunner()
	runner.Register("fail", "sh", "-c", "echo broken input >&2; exit 3")

	_, err := runner.Run(context.Background(), "fail")
	require.Error(t, err)
	assert.Equal(t, domain.KindExternalFailure, domain.KindOf(err))
	assert.ErrorIs(t, err, domain.ErrExternalCallFailure)
	assert.Contains(t, err.Error(), "broken input")
}

func TestRunner_Timeout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sleep")
	}

	runner := NewRunner(WithTimeout(100 * time.Millisecond))
	runner.Register("slow", "sleep", "5")

	start := time.Now()
	_, err := runner.Run(context.Background(), "slow")
	require.Error(t, err)
	assert.Equal(t, domain.KindExternalTimeout, domain.KindOf(err))
	assert.Less(t, time.Since(start), 3*time.Second, "process should be killed on timeout")
}

func TestRunner_Environment(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}

	runner := NewRunner(WithRegistry(map[string]ProcessConfig{
		"env": {Name: "env", Command: "sh", Args: []string{"-c", "echo $MONKEY_LANG"}, Environment: map[string]string{"MONKEY_LANG": "eng"}},
	}))

	res, err := runner.Run(context.Background(), "env")
	require.NoError(t, err)
	assert.Equal(t, "eng\n", res.Stdout)
}

func TestLoadCommands(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "commands.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
commands:
  - name: pandoc
    command: /opt/pandoc/bin/pandoc
    args: ["--quiet"]
  - name: ""
    command: ignored
`), 0o644))

	commands, err := LoadCommands(path)
	require.NoError(t, err)
	require.Len(t, commands, 1)
	assert.Equal(t, "/opt/pandoc/bin/pandoc", commands["pandoc"].Command)
	assert.Equal(t, []string{"--quiet"}, commands["pandoc"].Args)

	missing, err := LoadCommands(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestDefaults(t *testing.T) {
	runner := NewRunner(WithRegistry(Defaults()))
	assert.Equal(t, []string{CommandPaddleOCR, CommandPandoc, CommandTesseract}, runner.Commands())
}
