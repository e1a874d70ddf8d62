package utils

import (
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetLogLevel(t *testing.T) {
	defer Log.SetLevel(logrus.InfoLevel)

	require.NoError(t, SetLogLevel("WARNING"))
	assert.Equal(t, logrus.WarnLevel, Log.GetLevel())
	require.NoError(t, SetLogLevel("debug"))
	assert.Equal(t, logrus.DebugLevel, Log.GetLevel())
	assert.Error(t, SetLogLevel("trace"))
	assert.Equal(t, logrus.DebugLevel, Log.GetLevel())
}

func TestWithLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dasha.sqlite")
	ran := false
	require.NoError(t, WithLock(path, func() error {
		ran = true
		return nil
	}))
	assert.True(t, ran)
	assert.FileExists(t, path+lockFileSuffix)

	// The lock is released, so a second holder does not block.
	require.NoError(t, WithLock(path, func() error { return nil }))
}
