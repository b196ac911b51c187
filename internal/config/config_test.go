package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"서울", "경기", "강원"}, cfg.Ingest.Regions)
	assert.InDelta(t, 3.3058, cfg.Ingest.AreaDivisor, 0.0001)
	assert.Equal(t, "미지정", cfg.Ingest.UnassignedSentinel)
	assert.Equal(t, 4, cfg.Ingest.ParseWorkers)
	assert.InDelta(t, 0.5, cfg.Match.BatchThreshold, 0.001)
	assert.InDelta(t, 0.4, cfg.Match.CosineFloor, 0.001)
	assert.InDelta(t, 0.85, cfg.Match.FastAccept, 0.001)
	assert.InDelta(t, 0.7, cfg.Match.CombinedThreshold, 0.001)
	assert.Equal(t, 5, cfg.Match.TopN)
	assert.Equal(t, 1000, cfg.Match.ChunkSize)
	assert.InDelta(t, 30.0, cfg.Coord.MinLat, 0.001)
	assert.InDelta(t, 45.0, cfg.Coord.MaxLat, 0.001)
	assert.InDelta(t, 120.0, cfg.Coord.MinLon, 0.001)
	assert.InDelta(t, 140.0, cfg.Coord.MaxLon, 0.001)
	assert.InDelta(t, 200.0, cfg.Coord.ProjectedCutoff, 0.001)
	assert.Equal(t, 1000, cfg.API.PageSize)
	assert.Equal(t, 20, cfg.API.TimeoutSecs)
	assert.Equal(t, "sqlite", cfg.Activity.Driver)
	assert.Equal(t, 90, cfg.Activity.RetentionDays)
	assert.Equal(t, "voc.db", cfg.VOC.Path)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
ingest:
  regions: ["서울"]
  unassigned_sentinel: unassigned
match:
  batch_threshold: 0.6
  chunk_size: 500
log:
  level: debug
  format: console
server:
  port: 9090
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"서울"}, cfg.Ingest.Regions)
	assert.Equal(t, "unassigned", cfg.Ingest.UnassignedSentinel)
	assert.InDelta(t, 0.6, cfg.Match.BatchThreshold, 0.001)
	assert.Equal(t, 500, cfg.Match.ChunkSize)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 9090, cfg.Server.Port)

	// Unset values keep defaults.
	assert.InDelta(t, 0.7, cfg.Match.CombinedThreshold, 0.001)
	assert.Equal(t, 1000, cfg.API.PageSize)
}

func TestInitLoggerBadLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "nope", Format: "json"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse log level")
}
