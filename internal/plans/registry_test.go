package plans

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

const sampleYAML = `
plans:
  - id: free
    name: Free
    max_channels: 1
    max_devices: 1
  - id: studio
    name: Studio
    max_channels: 0
    product_ids: [studio_monthly]
    features:
      ai_insights: true
`

func TestParse(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		list, err := Parse([]byte(sampleYAML))
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "studio", list[1].ID)
		assert.True(t, list[1].Features[FeatureAIInsights])
	})

	t.Run("requires free plan", func(t *testing.T) {
		_, err := Parse([]byte("plans:\n  - id: pro\n"))
		require.Error(t, err)
	})

	t.Run("rejects duplicates", func(t *testing.T) {
		_, err := Parse([]byte("plans:\n  - id: free\n  - id: free\n"))
		require.Error(t, err)
	})
}

func TestRegistry(t *testing.T) {
	r := Default()

	assert.Equal(t, Free, r.Get("unknown").ID)
	assert.True(t, r.HasFeature(Pro, FeatureReportExport))
	assert.False(t, r.HasFeature(Free, FeatureReportExport))
	assert.False(t, r.HasFeature(Pro, FeatureTeamSharing))

	id, ok := r.ForProduct("ytpulse_team_monthly")
	require.True(t, ok)
	assert.Equal(t, Team, id)
	_, ok = r.ForProduct("nope")
	assert.False(t, ok)

	all := r.All()
	require.Len(t, all, 3)
	assert.Equal(t, Free, all[0].ID)
}

func TestWithin(t *testing.T) {
	assert.True(t, Within(0, 1000))
	assert.True(t, Within(3, 2))
	assert.False(t, Within(3, 3))
}

func TestLoadFromFile(t *testing.T) {
	r, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.True(t, r.Exists(Pro))

	path := filepath.Join(t.TempDir(), "plans.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))
	r, err = LoadFromFile(path)
	require.NoError(t, err)
	assert.True(t, r.Exists("studio"))
	assert.False(t, r.Exists(Pro))
}

func TestWatcherReloads(t *testing.T) {
	defer goleak.VerifyNone(t)

	path := filepath.Join(t.TempDir(), "plans.yaml")
	require.NoError(t, os.WriteFile(path, []byte("plans:\n  - id: free\n"), 0o644))

	r, err := LoadFromFile(path)
	require.NoError(t, err)

	w := NewWatcher(r, path)
	w.debounce = 50 * time.Millisecond
	reloaded := make(chan error, 4)
	w.OnReload(func(err error) { reloaded <- err })
	require.NoError(t, w.Start())
	defer w.Stop()

	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))
	select {
	case err := <-reloaded:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not reload")
	}
	assert.True(t, r.Exists("studio"))

	require.NoError(t, os.WriteFile(path, []byte("plans: [oops"), 0o644))
	select {
	case err := <-reloaded:
		require.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not attempt reload")
	}
	assert.True(t, r.Exists("studio"), "previous catalogue kept")
}

func TestWatcherCallbackSwappedWhileRunning(t *testing.T) {
	defer goleak.VerifyNone(t)

	path := filepath.Join(t.TempDir(), "plans.yaml")
	require.NoError(t, os.WriteFile(path, []byte("plans:\n  - id: free\n"), 0o644))
	r, err := LoadFromFile(path)
	require.NoError(t, err)

	w := NewWatcher(r, path)
	w.debounce = 50 * time.Millisecond
	require.NoError(t, w.Start())
	defer w.Stop()

	reloaded := make(chan error, 4)
	w.OnReload(func(err error) { reloaded <- err })

	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))
	select {
	case err := <-reloaded:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("callback registered after Start was not called")
	}
	assert.True(t, r.Exists("studio"))
}
