// Package geo holds the normalized shape handed to the map renderer.
package geo

import (
	"fmt"
	"math"
	"math/rand/v2"

	"crimelense/pkg/validation"
)

// LatLng is a [lat, lng] pair.
type LatLng [2]float64

func (p LatLng) Lat() float64 { return p[0] }
func (p LatLng) Lng() float64 { return p[1] }

// HeatPoint is [lat, lng, intensity] with intensity in [0, 1].
type HeatPoint [3]float64

// NewHeatPoint clamps intensity into [0, 1].
func NewHeatPoint(lat, lng, intensity float64) HeatPoint {
	return HeatPoint{lat, lng, clamp01(intensity)}
}

type Marker struct {
	Position LatLng `json:"position"`
	Title    string `json:"title"`
	Desc     string `json:"desc"`
	Risk     string `json:"risk"`
}

type Polyline struct {
	Positions []LatLng `json:"positions"`
	Color     string   `json:"color"`
	Weight    int      `json:"weight"`
	DashArray string   `json:"dashArray,omitempty"`
}

// Output is what the map surface renders. Slices are never nil once
// normalized so they encode as [] rather than null.
type Output struct {
	HeatmapPoints []HeatPoint `json:"heatmapPoints"`
	Markers       []Marker    `json:"markers"`
	Polylines     []Polyline  `json:"polylines"`
}

// Normalize clamps intensities, drops points and markers off the globe,
// drops polylines with fewer than two valid positions and replaces nil
// slices with empty ones.
func (o Output) Normalize() Output {
	out := Output{
		HeatmapPoints: make([]HeatPoint, 0, len(o.HeatmapPoints)),
		Markers:       make([]Marker, 0, len(o.Markers)),
		Polylines:     make([]Polyline, 0, len(o.Polylines)),
	}
	for _, p := range o.HeatmapPoints {
		if !validation.ValidateCoordinates(p[0], p[1]) || math.IsNaN(p[2]) {
			continue
		}
		out.HeatmapPoints = append(out.HeatmapPoints, NewHeatPoint(p[0], p[1], p[2]))
	}
	for _, m := range o.Markers {
		if !validation.ValidateCoordinates(m.Position.Lat(), m.Position.Lng()) {
			continue
		}
		out.Markers = append(out.Markers, m)
	}
	for _, pl := range o.Polylines {
		positions := make([]LatLng, 0, len(pl.Positions))
		for _, p := range pl.Positions {
			if validation.ValidateCoordinates(p.Lat(), p.Lng()) {
				positions = append(positions, p)
			}
		}
		if len(positions) < 2 {
			continue
		}
		pl.Positions = positions
		if pl.Weight <= 0 {
			pl.Weight = 1
		}
		out.Polylines = append(out.Polylines, pl)
	}
	return out
}

// FromRoute builds the map output for a route result.
func FromRoute(polylines []Polyline, markers []Marker) Output {
	return Output{Polylines: polylines, Markers: markers}.Normalize()
}

// Scatter returns n heat points spread uniformly in a square of side
// 2*radius around center with random intensity.
func Scatter(rng *rand.Rand, center LatLng, radius float64, n int) []HeatPoint {
	if n <= 0 {
		return []HeatPoint{}
	}
	points := make([]HeatPoint, n)
	for i := range points {
		points[i] = NewHeatPoint(
			center.Lat()+(rng.Float64()-0.5)*2*radius,
			center.Lng()+(rng.Float64()-0.5)*2*radius,
			rng.Float64(),
		)
	}
	return points
}

// Validate reports the first coordinate or intensity out of range.
func (o Output) Validate() error {
	for i, p := range o.HeatmapPoints {
		if !validation.ValidateCoordinates(p[0], p[1]) {
			return fmt.Errorf("heatmap point %d: invalid coordinates", i)
		}
		if p[2] < 0 || p[2] > 1 || math.IsNaN(p[2]) {
			return fmt.Errorf("heatmap point %d: intensity %v outside [0,1]", i, p[2])
		}
	}
	for i, m := range o.Markers {
		if !validation.ValidateCoordinates(m.Position.Lat(), m.Position.Lng()) {
			return fmt.Errorf("marker %d: invalid coordinates", i)
		}
	}
	for i, pl := range o.Polylines {
		if len(pl.Positions) < 2 {
			return fmt.Errorf("polyline %d: needs at least two positions", i)
		}
	}
	return nil
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
