package models

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

const (
	DefaultCropID = "default"

	KeyMoistureMin   = "moisture_min"
	KeyMoistureMax   = "moisture_max"
	KeyPhMin         = "ph_min"
	KeyPhMax         = "ph_max"
	KeyTempMin       = "temp_min"
	KeyTempMax       = "temp_max"
	KeyNitrogenMin   = "nitrogen_min"
	KeyNitrogenMax   = "nitrogen_max"
	KeyPhosphorusMin = "phosphorus_min"
	KeyPhosphorusMax = "phosphorus_max"
	KeyPotassiumMin  = "potassium_min"
	KeyPotassiumMax  = "potassium_max"
	KeyHumidityMin   = "humidity_min"
	KeyHumidityMax   = "humidity_max"
)

// ThresholdKeys lists every known bound in canonical order.
var ThresholdKeys = []string{
	KeyMoistureMin, KeyMoistureMax,
	KeyPhMin, KeyPhMax,
	KeyTempMin, KeyTempMax,
	KeyNitrogenMin, KeyNitrogenMax,
	KeyPhosphorusMin, KeyPhosphorusMax,
	KeyPotassiumMin, KeyPotassiumMax,
	KeyHumidityMin, KeyHumidityMax,
}

// CoreThresholdKeys are the bounds every resolved ThresholdSet carries.
var CoreThresholdKeys = ThresholdKeys[:6]

// Thresholds is a partial record of bounds. A nil field means "not known",
// never "zero".
type Thresholds struct {
	MoistureMin   *float64 `json:"moisture_min,omitempty"`
	MoistureMax   *float64 `json:"moisture_max,omitempty"`
	PhMin         *float64 `json:"ph_min,omitempty"`
	PhMax         *float64 `json:"ph_max,omitempty"`
	TempMin       *float64 `json:"temp_min,omitempty"`
	TempMax       *float64 `json:"temp_max,omitempty"`
	NitrogenMin   *float64 `json:"nitrogen_min,omitempty"`
	NitrogenMax   *float64 `json:"nitrogen_max,omitempty"`
	PhosphorusMin *float64 `json:"phosphorus_min,omitempty"`
	PhosphorusMax *float64 `json:"phosphorus_max,omitempty"`
	PotassiumMin  *float64 `json:"potassium_min,omitempty"`
	PotassiumMax  *float64 `json:"potassium_max,omitempty"`
	HumidityMin   *float64 `json:"humidity_min,omitempty"`
	HumidityMax   *float64 `json:"humidity_max,omitempty"`
}

func (t *Thresholds) field(key string) **float64 {
	switch key {
	case KeyMoistureMin:
		return &t.MoistureMin
	case KeyMoistureMax:
		return &t.MoistureMax
	case KeyPhMin:
		return &t.PhMin
	case KeyPhMax:
		return &t.PhMax
	case KeyTempMin:
		return &t.TempMin
	case KeyTempMax:
		return &t.TempMax
	case KeyNitrogenMin:
		return &t.NitrogenMin
	case KeyNitrogenMax:
		return &t.NitrogenMax
	case KeyPhosphorusMin:
		return &t.PhosphorusMin
	case KeyPhosphorusMax:
		return &t.PhosphorusMax
	case KeyPotassiumMin:
		return &t.PotassiumMin
	case KeyPotassiumMax:
		return &t.PotassiumMax
	case KeyHumidityMin:
		return &t.HumidityMin
	case KeyHumidityMax:
		return &t.HumidityMax
	}
	return nil
}

func IsThresholdKey(key string) bool {
	var t Thresholds
	return t.field(key) != nil
}

// Get returns the bound for key and whether it is present.
func (t Thresholds) Get(key string) (float64, bool) {
	f := t.field(key)
	if f == nil || *f == nil {
		return 0, false
	}
	return **f, true
}

func (t *Thresholds) Set(key string, v float64) error {
	f := t.field(key)
	if f == nil {
		return fmt.Errorf("unknown threshold key %q", key)
	}
	*f = &v
	return nil
}

// Merge overlays the present values of other. Absent values in other never
// erase what t already holds.
func (t Thresholds) Merge(other Thresholds) Thresholds {
	merged := t
	for _, key := range ThresholdKeys {
		if v, ok := other.Get(key); ok {
			_ = merged.Set(key, v)
		}
	}
	return merged
}

func (t Thresholds) IsEmpty() bool {
	return len(t.Keys()) == 0
}

// Keys returns the present keys in canonical order.
func (t Thresholds) Keys() []string {
	keys := make([]string, 0, len(ThresholdKeys))
	for _, key := range ThresholdKeys {
		if _, ok := t.Get(key); ok {
			keys = append(keys, key)
		}
	}
	return keys
}

// Core keeps only the six moisture/ph/temp bounds.
func (t Thresholds) Core() Thresholds {
	return Thresholds{
		MoistureMin: t.MoistureMin,
		MoistureMax: t.MoistureMax,
		PhMin:       t.PhMin,
		PhMax:       t.PhMax,
		TempMin:     t.TempMin,
		TempMax:     t.TempMax,
	}
}

func (t Thresholds) ToMap() map[string]float64 {
	m := make(map[string]float64)
	for _, key := range t.Keys() {
		v, _ := t.Get(key)
		m[key] = v
	}
	return m
}

// ThresholdsFromMap keeps known keys with non-nil numeric values and drops
// everything else.
func ThresholdsFromMap(m map[string]any) Thresholds {
	var t Thresholds
	for key, raw := range m {
		if !IsThresholdKey(key) || raw == nil {
			continue
		}
		switch v := raw.(type) {
		case float64:
			_ = t.Set(key, v)
		case float32:
			_ = t.Set(key, float64(v))
		case int:
			_ = t.Set(key, float64(v))
		case int64:
			_ = t.Set(key, float64(v))
		}
	}
	return t
}

// ThresholdSet is a fully resolved set of bounds used to evaluate a reading.
type ThresholdSet struct {
	MoistureMin float64 `json:"moisture_min"`
	MoistureMax float64 `json:"moisture_max"`
	PhMin       float64 `json:"ph_min"`
	PhMax       float64 `json:"ph_max"`
	TempMin     float64 `json:"temp_min"`
	TempMax     float64 `json:"temp_max"`
	BatteryMin  float64 `json:"battery_min"`

	NitrogenMin   *float64 `json:"nitrogen_min,omitempty"`
	NitrogenMax   *float64 `json:"nitrogen_max,omitempty"`
	PhosphorusMin *float64 `json:"phosphorus_min,omitempty"`
	PhosphorusMax *float64 `json:"phosphorus_max,omitempty"`
	PotassiumMin  *float64 `json:"potassium_min,omitempty"`
	PotassiumMax  *float64 `json:"potassium_max,omitempty"`
	HumidityMin   *float64 `json:"humidity_min,omitempty"`
	HumidityMax   *float64 `json:"humidity_max,omitempty"`
}

var DefaultThresholdSet = ThresholdSet{
	MoistureMin: 30.0,
	MoistureMax: 80.0,
	PhMin:       5.5,
	PhMax:       7.5,
	TempMin:     15.0,
	TempMax:     35.0,
	BatteryMin:  20.0,
}

// ApplyCore fills each core bound from t when present, otherwise keeps the
// bound already in s.
func (s ThresholdSet) ApplyCore(t Thresholds) ThresholdSet {
	pick := func(v *float64, fallback float64) float64 {
		if v != nil {
			return *v
		}
		return fallback
	}
	s.MoistureMin = pick(t.MoistureMin, s.MoistureMin)
	s.MoistureMax = pick(t.MoistureMax, s.MoistureMax)
	s.PhMin = pick(t.PhMin, s.PhMin)
	s.PhMax = pick(t.PhMax, s.PhMax)
	s.TempMin = pick(t.TempMin, s.TempMin)
	s.TempMax = pick(t.TempMax, s.TempMax)
	return s
}

// WithExtras copies the optional NPK and humidity bounds from t.
func (s ThresholdSet) WithExtras(t Thresholds) ThresholdSet {
	s.NitrogenMin, s.NitrogenMax = t.NitrogenMin, t.NitrogenMax
	s.PhosphorusMin, s.PhosphorusMax = t.PhosphorusMin, t.PhosphorusMax
	s.PotassiumMin, s.PotassiumMax = t.PotassiumMin, t.PotassiumMax
	s.HumidityMin, s.HumidityMax = t.HumidityMin, t.HumidityMax
	return s
}

// Provenance names the tier of the resolution cascade that produced a set.
type Provenance string

const ProvenanceHardcoded Provenance = "hardcoded_fallback"

func ProvenanceProfile(cropID string) Provenance {
	return Provenance("crop_profiles/" + cropID)
}

func ProvenanceCache(cropID string) Provenance {
	return Provenance("crop_config/" + cropID)
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// NormalizeCropID is the only way a crop identifier may be derived: trimmed,
// lower-cased, inner whitespace collapsed to "_", empty meaning "default".
func NormalizeCropID(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DefaultCropID
	}
	return whitespaceRun.ReplaceAllString(s, "_")
}

// CropDisplayName title-cases a raw crop label, "sweet corn" -> "Sweet Corn".
func CropDisplayName(s string) string {
	words := strings.Fields(strings.ReplaceAll(strings.TrimSpace(s), "_", " "))
	for i, w := range words {
		r := []rune(strings.ToLower(w))
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
