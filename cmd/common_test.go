package cmd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAt(t *testing.T) {
	got, err := parseAt("2024-03-01T10:00:00Z")
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)))

	got, err = parseAt("2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, 2024, got.Year())
	assert.Equal(t, time.March, got.Month())

	before := time.Now()
	got, err = parseAt("")
	require.NoError(t, err)
	assert.False(t, got.Before(before))

	_, err = parseAt("tomorrow")
	assert.Error(t, err)
}

func TestParsePositionFlags(t *testing.T) {
	ps, err := parsePositionFlags([]string{"Saturn=300.5", "jupiter=95", "Rahu=-20"})
	require.NoError(t, err)
	assert.Len(t, ps, 3)

	_, err = parsePositionFlags([]string{"Saturn"})
	assert.Error(t, err)
	_, err = parsePositionFlags([]string{"Pluto=10"})
	assert.Error(t, err)
	_, err = parsePositionFlags([]string{"Mars=east"})
	assert.Error(t, err)
}
