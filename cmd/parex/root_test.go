package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandFlags(t *testing.T) {
	expected := map[string]string{
		"pattern":       "",
		"regex":         "",
		"language":      "",
		"limit":         "-1",
		"threads":       "0",
		"max-depth":     "-1",
		"paths":         "true",
		"errors":        "false",
		"git":           "false",
		"output-format": "text",
		"no-tui":        "false",
	}
	for name, def := range expected {
		flag := rootCmd.Flags().Lookup(name)
		require.NotNil(t, flag, "flag --%s not defined", name)
		assert.Equal(t, def, flag.DefValue, "flag --%s default", name)
	}

	require.NotNil(t, rootCmd.Flags().Lookup("ignore"))
	require.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))
	require.NotNil(t, rootCmd.PersistentFlags().Lookup("verbose"))
}

func TestRootCommandShorthands(t *testing.T) {
	assert.Equal(t, "p", rootCmd.Flags().Lookup("pattern").Shorthand)
	assert.Equal(t, "v", rootCmd.PersistentFlags().Lookup("verbose").Shorthand)
}

func TestRootCommandArgs(t *testing.T) {
	assert.NoError(t, rootCmd.Args(rootCmd, nil))
	assert.NoError(t, rootCmd.Args(rootCmd, []string{"."}))
	assert.Error(t, rootCmd.Args(rootCmd, []string{"a", "b"}))
}
