package presets

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"media-transcoder/internal/encoding"
)

//go:embed presets.yaml
var catalogueYAML []byte

// Preset is one named catalogue entry. Zero fields leave the default in place.
type Preset struct {
	Name           string `json:"name" yaml:"-"`
	Description    string `json:"description,omitempty" yaml:"description"`
	VideoCodec     string `json:"videoCodec,omitempty" yaml:"videoCodec"`
	AudioCodec     string `json:"audioCodec,omitempty" yaml:"audioCodec"`
	VideoBitrate   string `json:"videoBitrate,omitempty" yaml:"videoBitrate"`
	AudioBitrate   string `json:"audioBitrate,omitempty" yaml:"audioBitrate"`
	Width          int    `json:"width,omitempty" yaml:"width"`
	Height         int    `json:"height,omitempty" yaml:"height"`
	FrameRate      string `json:"frameRate,omitempty" yaml:"frameRate"`
	Preset         string `json:"preset,omitempty" yaml:"preset"`
	Profile        string `json:"profile,omitempty" yaml:"profile"`
	Level          string `json:"level,omitempty" yaml:"level"`
	PixelFormat    string `json:"pixelFormat,omitempty" yaml:"pixelFormat"`
	ContainerFlags string `json:"containerFlags,omitempty" yaml:"containerFlags"`
}

var (
	catalogueOnce sync.Once
	catalogue     map[string]Preset
	catalogueErr  error
)

func load() (map[string]Preset, error) {
	catalogueOnce.Do(func() {
		catalogue, catalogueErr = parse(catalogueYAML)
	})
	return catalogue, catalogueErr
}

func parse(data []byte) (map[string]Preset, error) {
	raw := make(map[string]Preset)
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse preset catalogue: %w", err)
	}

	out := make(map[string]Preset, len(raw))
	for name, p := range raw {
		key := strings.ToLower(strings.TrimSpace(name))
		p.Name = key
		out[key] = p
	}
	return out, nil
}

// Lookup returns the preset registered under name, ignoring case.
func Lookup(name string) (Preset, bool) {
	cat, err := load()
	if err != nil {
		return Preset{}, false
	}
	p, ok := cat[strings.ToLower(strings.TrimSpace(name))]
	return p, ok
}

// Names returns the catalogue keys in sorted order.
func Names() []string {
	cat, _ := load()
	names := make([]string, 0, len(cat))
	for name := range cat {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns every preset sorted by name.
func All() []Preset {
	names := Names()
	out := make([]Preset, 0, len(names))
	for _, name := range names {
		p, _ := Lookup(name)
		out = append(out, p)
	}
	return out
}

// Resolve merges defaults, the named preset and the overrides, in that order
// of increasing precedence. It never fails.
func Resolve(name string, overrides encoding.Overrides) encoding.Config {
	cfg := encoding.Defaults()
	if p, ok := Lookup(name); ok {
		cfg = p.applyTo(cfg)
	}
	return overrides.Apply(cfg)
}

func (p Preset) applyTo(cfg encoding.Config) encoding.Config {
	pick(&cfg.VideoCodec, p.VideoCodec)
	pick(&cfg.AudioCodec, p.AudioCodec)
	pick(&cfg.VideoBitrate, p.VideoBitrate)
	pick(&cfg.AudioBitrate, p.AudioBitrate)
	pick(&cfg.FrameRate, p.FrameRate)
	pick(&cfg.Preset, p.Preset)
	pick(&cfg.Profile, p.Profile)
	pick(&cfg.Level, p.Level)
	pick(&cfg.PixelFormat, p.PixelFormat)
	pick(&cfg.ContainerFlags, p.ContainerFlags)
	if p.Width > 0 {
		cfg.Width = p.Width
	}
	if p.Height > 0 {
		cfg.Height = p.Height
	}
	return cfg
}

func pick(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
