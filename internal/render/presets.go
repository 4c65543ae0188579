package render

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"

	"gopkg.in/yaml.v3"
)

// QualityPreset holds the renderer parameters for one quality tier.
type QualityPreset struct {
	Resolution string `yaml:"resolution" json:"resolution"`
	FrameRate  int    `yaml:"frame_rate" json:"frameRate"`
}

// PresetTable maps each quality tier to its preset. Tables produced by the
// loaders always contain every tier.
type PresetTable map[Quality]QualityPreset

// Lookup returns the preset for q, falling back to the default tier.
func (t PresetTable) Lookup(q Quality) QualityPreset {
	if preset, ok := t[q]; ok {
		return preset
	}
	return t[DefaultQuality]
}

//go:embed presets.yaml
var defaultPresetsYAML []byte

var defaultPresets = mustParsePresets(defaultPresetsYAML)

// DefaultPresets returns the compiled-in preset table.
func DefaultPresets() PresetTable {
	table := make(PresetTable, len(defaultPresets))
	for q, p := range defaultPresets {
		table[q] = p
	}
	return table
}

var resolutionPattern = regexp.MustCompile(`^\d+x\d+$`)

type presetsFile struct {
	Presets map[string]QualityPreset `yaml:"presets"`
}

// ParsePresets decodes a preset table from YAML. Decoding is strict: unknown
// fields, unknown tiers, and missing tiers are all errors.
func ParsePresets(data []byte) (PresetTable, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("empty presets document")
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var file presetsFile
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode presets: %w", err)
	}
	// A second document in the stream is a mistake, not extra data to ignore.
	if err := dec.Decode(new(presetsFile)); !errors.Is(err, io.EOF) {
		return nil, errors.New("decode presets: multiple documents")
	}

	table := make(PresetTable, len(file.Presets))
	for name, preset := range file.Presets {
		quality := Quality(name)
		if !ValidQuality(quality) {
			return nil, fmt.Errorf("unknown quality tier %q", name)
		}
		if err := validatePreset(name, preset); err != nil {
			return nil, err
		}
		table[quality] = preset
	}

	var missing []string
	for _, quality := range []Quality{QualityLow, QualityMedium, QualityHigh} {
		if _, ok := table[quality]; !ok {
			missing = append(missing, string(quality))
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("presets missing tiers: %v", missing)
	}

	return table, nil
}

// LoadPresetsFile reads a preset table from path.
func LoadPresetsFile(path string) (PresetTable, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- preset path is operator-provided config
	if err != nil {
		return nil, fmt.Errorf("read presets %s: %w", path, err)
	}
	table, err := ParsePresets(data)
	if err != nil {
		return nil, fmt.Errorf("presets %s: %w", path, err)
	}
	return table, nil
}

func validatePreset(name string, preset QualityPreset) error {
	if !resolutionPattern.MatchString(preset.Resolution) {
		return fmt.Errorf("preset %s: resolution %q must look like 1280x720", name, preset.Resolution)
	}
	if preset.FrameRate <= 0 {
		return fmt.Errorf("preset %s: frame_rate must be positive", name)
	}
	return nil
}

func mustParsePresets(data []byte) PresetTable {
	table, err := ParsePresets(data)
	if err != nil {
		panic(fmt.Sprintf("render: embedded presets invalid: %v", err))
	}
	return table
}
