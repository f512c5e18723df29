package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func findCommandByName(t *testing.T, app *cli.App, name string) *cli.Command {
	t.Helper()
	for _, cmd := range app.Commands {
		if cmd.Name == name {
			return cmd
		}
	}
	t.Fatalf("command %q not found", name)
	return nil
}

func findFlag(cmd *cli.Command, name string) cli.Flag {
	for _, flag := range cmd.Flags {
		for _, n := range flag.Names() {
			if n == name {
				return flag
			}
		}
	}
	return nil
}

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	app := newApp()
	app.Writer = &stdout
	app.ErrWriter = &stderr
	err := app.Run(append([]string{"wikipath"}, args...))
	return stdout.String() + stderr.String(), err
}

func TestCommands(t *testing.T) {
	app := newApp()
	for _, name := range []string{"find", "serve", "ingest", "reembed"} {
		findCommandByName(t, app, name)
	}

	t.Run("find and serve share source flags", func(t *testing.T) {
		for _, name := range []string{"find", "serve"} {
			cmd := findCommandByName(t, app, name)
			for _, flag := range []string{"db", "snapshot", "remote"} {
				assert.NotNil(t, findFlag(cmd, flag), "%s --%s", name, flag)
			}
		}
	})

	t.Run("ingest file is required", func(t *testing.T) {
		flag, ok := findFlag(findCommandByName(t, app, "ingest"), "file").(*cli.StringFlag)
		require.True(t, ok)
		assert.True(t, flag.Required)
	})

	t.Run("reembed defaults", func(t *testing.T) {
		cmd := findCommandByName(t, app, "reembed")
		batch, ok := findFlag(cmd, "batch-size").(*cli.IntFlag)
		require.True(t, ok)
		assert.Equal(t, 100, batch.Value)

		retries, ok := findFlag(cmd, "max-retries").(*cli.IntFlag)
		require.True(t, ok)
		assert.Equal(t, 3, retries.Value)

		model, ok := findFlag(cmd, "model").(*cli.StringFlag)
		require.True(t, ok)
		assert.Empty(t, model.Value)
		assert.Empty(t, model.EnvVars)
	})
}

func TestSetupLogger(t *testing.T) {
	defer slog.SetDefault(slog.Default())

	tests := []struct {
		level   string
		wantErr bool
	}{
		{"debug", false},
		{"info", false},
		{"WARN", false},
		{"error", false},
		{"verbose", true},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			err := setupLogger(tt.level)
			if tt.wantErr {
				assert.ErrorContains(t, err, "invalid log level")
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestFindCommand_Arguments(t *testing.T) {
	_, err := runApp(t, "find", "--db", t.TempDir(), "Cat")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "START and GOAL")
}

func TestConfigFile(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := runApp(t, "--config", filepath.Join(t.TempDir(), "nope.yaml"), "find", "A", "B")
		assert.Error(t, err)
	})

	t.Run("log level from file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "wikipath.yaml")
		require.NoError(t, os.WriteFile(path, []byte("log:\n  level: loud\n"), 0o644))

		_, err := runApp(t, "--config", path, "find", "A", "B")
		assert.ErrorContains(t, err, "invalid log level")
	})
}

func TestIngestCommand(t *testing.T) {
	dir := t.TempDir()
	snapshot := filepath.Join(dir, "snapshot.jsonl")
	require.NoError(t, os.WriteFile(snapshot, []byte(
		`{"title":"Cat","links":[{"target":"Mammal"}]}`+"\n"+
			`{"title":"Mammal"}`+"\n"+
			`{"title":"Kitty","redirect":"Cat"}`+"\n",
	), 0o644))

	t.Run("loads snapshot", func(t *testing.T) {
		out, err := runApp(t, "ingest", "--db", filepath.Join(dir, "db"), "--file", snapshot)
		require.NoError(t, err)
		assert.Contains(t, out, "Loaded 2 pages, 1 redirects and 1 links")
	})

	t.Run("rejects bad batch size", func(t *testing.T) {
		_, err := runApp(t, "ingest", "--db", filepath.Join(dir, "db2"), "--file", snapshot, "--batch-size", "0")
		assert.ErrorContains(t, err, "batch-size")
	})

	t.Run("missing snapshot", func(t *testing.T) {
		_, err := runApp(t, "ingest", "--db", filepath.Join(dir, "db3"), "--file", filepath.Join(dir, "missing.jsonl"))
		assert.ErrorContains(t, err, "ingestion failed")
	})
}

func TestReembedCommand_Validation(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"batch size", []string{"--batch-size", "0"}, "batch-size"},
		{"report interval", []string{"--report-interval", "0"}, "report-interval"},
		{"max retries", []string{"--max-retries", "0"}, "max-retries"},
		{"unknown model", []string{"--model", "9"}, "unknown model"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"reembed", "--db", t.TempDir()}, tt.args...)
			_, err := runApp(t, args...)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}
