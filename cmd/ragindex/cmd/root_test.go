package cmd

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groeimetai/groeimetai-platform-sub011/pkg/version"
)

func TestRootCmd_ShowsHelp(t *testing.T) {
	// Given: a root command
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--help"})

	// When: executing with --help
	err := cmd.Execute()

	// Then: usage lists the subcommands
	require.NoError(t, err)
	out := buf.String()
	for _, sub := range []string{"index", "incremental", "stats", "clear", "search", "init", "doctor", "version"} {
		assert.Contains(t, out, sub)
	}
}

func TestRootCmd_UnknownCommandFails(t *testing.T) {
	cmd := NewRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"reindex-everything"})

	assert.Error(t, cmd.Execute())
}

func TestRootCmd_InvalidConfigFails(t *testing.T) {
	// Given: a project whose config has an impossible chunk overlap
	dir := newProject(t)
	t.Setenv("RAGINDEX_CHUNK_SIZE", "100")
	t.Setenv("RAGINDEX_CHUNK_OVERLAP", "500")

	// When: running any configured command
	_, err := run(t, dir, "stats")

	// Then: the configuration error is returned
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration")
}

func TestVersionCmd(t *testing.T) {
	t.Run("full", func(t *testing.T) {
		out, err := run(t, t.TempDir(), "version")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(out, "ragindex "))
	})

	t.Run("short", func(t *testing.T) {
		out, err := run(t, t.TempDir(), "version", "--short")
		require.NoError(t, err)
		assert.Equal(t, version.Short()+"\n", out)
	})

	t.Run("json", func(t *testing.T) {
		out, err := run(t, t.TempDir(), "version", "--json")
		require.NoError(t, err)
		var info version.BuildInfo
		require.NoError(t, json.Unmarshal([]byte(out), &info))
		assert.Equal(t, version.Version, info.Version)
	})
}
