package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	cmds := rootCmd.Commands()

	// Collect subcommand names.
	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	// Verify expected subcommands are registered.
	expected := []string{"serve", "ask", "build", "history", "migrate"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "sitebot", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.Contains(t, rootCmd.Long, "config.yaml")
	assert.Contains(t, rootCmd.Long, "SITEBOT_")
	for _, c := range rootCmd.Commands() {
		if c.Name() == "help" || c.Name() == "completion" {
			continue
		}
		assert.Contains(t, rootCmd.Long, c.Name(), "long help should mention %q", c.Name())
	}
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestAskCommand_Flags(t *testing.T) {
	for _, name := range []string{"name", "url", "company-id"} {
		require.NotNil(t, askCmd.Flags().Lookup(name), "ask command should have --%s flag", name)
	}
	assert.Error(t, askCmd.Args(askCmd, nil), "ask requires a question")
	assert.NoError(t, askCmd.Args(askCmd, []string{"what", "do", "you", "do?"}))
}

func TestBuildCommand_Flags(t *testing.T) {
	flag := buildCmd.Flags().Lookup("file")
	require.NotNil(t, flag, "build command should have --file flag")
	assert.Equal(t, "companies.yaml", flag.DefValue)
}

func TestHistoryCommand_Flags(t *testing.T) {
	flag := historyCmd.Flags().Lookup("limit")
	require.NotNil(t, flag, "history command should have --limit flag")
	assert.Equal(t, "50", flag.DefValue)
	require.NotNil(t, historyCmd.Flags().Lookup("company-id"))
}
