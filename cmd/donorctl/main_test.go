package main

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepRejectsNegativeGraceDays(t *testing.T) {
	t.Setenv("DB_SOURCE", "")
	cmd := sweepCmd()
	cmd.SetArgs([]string{"--grace-days=-1"})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--grace-days must be >= 0")
}
