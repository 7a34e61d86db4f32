package media

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// CompressorPreset holds fixed acompressor parameters.
type CompressorPreset struct {
	Name        string
	ThresholdDB float64
	Ratio       float64
	AttackMs    float64
	ReleaseMs   float64
	MakeupDB    float64
}

// DefaultPresetName names the preset used for unknown or empty names.
const DefaultPresetName = "default"

var presets = map[string]CompressorPreset{
	"default": {Name: "default", ThresholdDB: -18, Ratio: 3, AttackMs: 20, ReleaseMs: 250, MakeupDB: 2},
	"light":   {Name: "light", ThresholdDB: -12, Ratio: 2, AttackMs: 20, ReleaseMs: 250, MakeupDB: 1},
	"radio":   {Name: "radio", ThresholdDB: -20, Ratio: 4, AttackMs: 5, ReleaseMs: 100, MakeupDB: 4},
	"crushed": {Name: "crushed", ThresholdDB: -30, Ratio: 12, AttackMs: 1, ReleaseMs: 50, MakeupDB: 8},
}

// LookupPreset matches name case-insensitively. Unknown names resolve to the
// default preset; the second result reports whether name matched exactly.
func LookupPreset(name string) (CompressorPreset, bool) {
	if p, ok := presets[strings.ToLower(strings.TrimSpace(name))]; ok {
		return p, true
	}
	return presets[DefaultPresetName], false
}

// Presets returns all presets sorted by name.
func Presets() []CompressorPreset {
	out := make([]CompressorPreset, 0, len(presets))
	for _, p := range presets {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Filter renders the preset as an acompressor filter. Levels use the dB suffix,
// which ffmpeg converts to linear amplitude.
func (p CompressorPreset) Filter() string {
	return fmt.Sprintf("acompressor=threshold=%sdB:ratio=%s:attack=%s:release=%s:makeup=%sdB",
		num(p.ThresholdDB), num(p.Ratio), num(p.AttackMs), num(p.ReleaseMs), num(p.MakeupDB))
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
