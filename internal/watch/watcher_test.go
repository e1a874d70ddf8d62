package watch

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sw33tLie/dasha/pkg/astro"
	"github.com/sw33tLie/dasha/pkg/ephemeris"
)

func sampleChart(name string) *astro.Chart {
	return &astro.Chart{
		Name: name,
		Birth: astro.BirthMoment{
			Time:          time.Date(1990, 5, 14, 1, 0, 0, 0, time.UTC),
			Latitude:      27.7172,
			Longitude:     85.324,
			SunLongitude:  29.8,
			MoonLongitude: 5.48,
		},
	}
}

func next(t *testing.T, w *Watcher) ChartChange {
	t.Helper()
	select {
	case c := <-w.Changes:
		return c
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a change")
	}
	return ChartChange{}
}

func TestIsChartFile(t *testing.T) {
	assert.True(t, IsChartFile("/charts/ravi.toml"))
	assert.False(t, IsChartFile("/charts/ravi.toml.tmp"))
	assert.False(t, IsChartFile("/charts/.ravi.toml"))
	assert.False(t, IsChartFile("/charts/notes.md"))
}

func TestWatcherReportsChanges(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	path := filepath.Join(dir, "ravi.toml")
	require.NoError(t, ephemeris.SaveChartFile(path, sampleChart("ravi")))
	c := next(t, w)
	assert.Equal(t, ChangeModified, c.Kind)
	assert.Equal(t, path, c.File)
	require.NotNil(t, c.Chart)
	assert.Equal(t, "ravi", c.Chart.Name)

	require.NoError(t, os.WriteFile(path, []byte("name = ["), 0644))
	c = next(t, w)
	assert.Equal(t, ChangeInvalid, c.Kind)
	assert.Error(t, c.Err)

	require.NoError(t, os.Remove(path))
	c = next(t, w)
	assert.Equal(t, ChangeRemoved, c.Kind)
}

func TestStopWithUnreadChanges(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir)
	require.NoError(t, err)
	require.NoError(t, w.Start())

	for i := 0; i < 24; i++ {
		name := filepath.Join(dir, fmt.Sprintf("chart%02d.toml", i))
		require.NoError(t, os.WriteFile(name, []byte("name = ["), 0644))
	}
	require.Eventually(t, func() bool { return len(w.Changes) == cap(w.Changes) },
		5*time.Second, 20*time.Millisecond, "changes should pile up unread")

	stopped := make(chan struct{})
	go func() {
		w.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop blocked on undelivered changes")
	}
	w.Stop()
}

func TestChangeKindString(t *testing.T) {
	assert.Equal(t, "modified", ChangeModified.String())
	assert.Equal(t, "removed", ChangeRemoved.String())
	assert.Equal(t, "invalid", ChangeInvalid.String())
}
