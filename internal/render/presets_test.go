package render

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultPresets(t *testing.T) {
	table := DefaultPresets()
	require.Len(t, table, 3)
	require.Equal(t, QualityPreset{Resolution: "854x480", FrameRate: 15}, table[QualityLow])
	require.Equal(t, QualityPreset{Resolution: "1280x720", FrameRate: 30}, table[QualityMedium])
	require.Equal(t, QualityPreset{Resolution: "1920x1080", FrameRate: 60}, table[QualityHigh])
}

func TestPresetTableLookupFallsBackToLow(t *testing.T) {
	table := DefaultPresets()
	require.Equal(t, table[QualityLow], table.Lookup(Quality("ultra")))
	require.Equal(t, table[QualityHigh], table.Lookup(QualityHigh))
}

func TestParsePresetsRejectsUnknownTier(t *testing.T) {
	_, err := ParsePresets([]byte(`
presets:
  low: {resolution: 854x480, frame_rate: 15}
  medium: {resolution: 1280x720, frame_rate: 30}
  high: {resolution: 1920x1080, frame_rate: 60}
  ultra: {resolution: 3840x2160, frame_rate: 60}
`))
	require.ErrorContains(t, err, "unknown quality tier")
}

func TestParsePresetsRejectsUnknownFields(t *testing.T) {
	_, err := ParsePresets([]byte(`
presets:
  low: {resolution: 854x480, frame_rate: 15, codec: h264}
`))
	require.Error(t, err)
}

func TestParsePresetsRejectsMissingTiers(t *testing.T) {
	_, err := ParsePresets([]byte(`
presets:
  low: {resolution: 854x480, frame_rate: 15}
`))
	require.ErrorContains(t, err, "missing tiers")
}

func TestParsePresetsValidatesValues(t *testing.T) {
	_, err := ParsePresets([]byte(`
presets:
  low: {resolution: 480p, frame_rate: 15}
  medium: {resolution: 1280x720, frame_rate: 30}
  high: {resolution: 1920x1080, frame_rate: 60}
`))
	require.ErrorContains(t, err, "resolution")

	_, err = ParsePresets([]byte(`
presets:
  low: {resolution: 854x480, frame_rate: 0}
  medium: {resolution: 1280x720, frame_rate: 30}
  high: {resolution: 1920x1080, frame_rate: 60}
`))
	require.ErrorContains(t, err, "frame_rate")
}

func TestParsePresetsRejectsEmpty(t *testing.T) {
	_, err := ParsePresets([]byte("  \n"))
	require.Error(t, err)
}

func TestLoadPresetsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
presets:
  low: {resolution: 640x360, frame_rate: 12}
  medium: {resolution: 1280x720, frame_rate: 24}
  high: {resolution: 1920x1080, frame_rate: 48}
`), 0o600))

	table, err := LoadPresetsFile(path)
	require.NoError(t, err)
	require.Equal(t, 12, table[QualityLow].FrameRate)

	_, err = LoadPresetsFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
