package config

import (
	"sort"

	"github.com/san-kum/cycledyn/internal/dynamo"
)

// Preset overrides rider coefficients. Zero fields leave the rider as is.
type Preset struct {
	Description       string
	FrontalArea       float64
	DragCoefficient   float64
	RollingResistance float64
}

var Presets = map[string]map[string]Preset{
	"position": {
		"tops":  {Description: "upright, hands on the tops", FrontalArea: 0.565, DragCoefficient: 0.8},
		"hoods": {Description: "hands on the hoods, elbows bent", FrontalArea: 0.5, DragCoefficient: 0.7},
		"drops": {Description: "hands in the drops", FrontalArea: 0.45, DragCoefficient: 0.7},
		"aero":  {Description: "time trial bars", FrontalArea: 0.4, DragCoefficient: 0.6},
	},
	"surface": {
		"track":   {Description: "wooden velodrome", RollingResistance: 0.002},
		"asphalt": {Description: "smooth asphalt", RollingResistance: 0.004},
		"rough":   {Description: "chip seal or worn asphalt", RollingResistance: 0.008},
		"gravel":  {Description: "packed gravel", RollingResistance: 0.012},
	},
}

func (p Preset) Apply(r dynamo.Rider) dynamo.Rider {
	if p.FrontalArea > 0 {
		r.FrontalArea = p.FrontalArea
	}
	if p.DragCoefficient > 0 {
		r.DragCoefficient = p.DragCoefficient
	}
	if p.RollingResistance > 0 {
		r.RollingResistance = p.RollingResistance
	}
	return r
}

func GetPreset(category, preset string) *Preset {
	group, ok := Presets[category]
	if !ok {
		return nil
	}
	p, ok := group[preset]
	if !ok {
		return nil
	}
	return &p
}

func ListPresets(category string) []string {
	group, ok := Presets[category]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(group))
	for name := range group {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func Categories() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
