package main

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPositionalAcceptsFlagsAnywhere(t *testing.T) {
	fs := flag.NewFlagSet("events", flag.ContinueOnError)
	n := fs.Int("n", 20, "")
	pos, err := positional(fs, []string{"vault-1", "-n", "5"}, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"vault-1"}, pos)
	assert.Equal(t, 5, *n)

	fs = flag.NewFlagSet("explore", flag.ContinueOnError)
	hours := fs.Int("hours", 4, "")
	pos, err = positional(fs, []string{"-hours", "8", "dweller-1"}, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"dweller-1"}, pos)
	assert.Equal(t, 8, *hours)
}

func TestPositionalCountsArguments(t *testing.T) {
	_, err := ids("assign", []string{"only-one"}, 2)
	assert.Error(t, err)

	pos, err := ids("assign", []string{"d", "r"}, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"d", "r"}, pos)
}

func TestEveryCommandHasUsage(t *testing.T) {
	for name, c := range commands {
		assert.NotEmpty(t, c.usage, name)
		assert.NotNil(t, c.run, name)
	}
}
