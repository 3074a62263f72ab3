package geo

import (
	"encoding/json"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHeatPointClampsIntensity(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{-0.5, 0},
		{0, 0},
		{0.42, 0.42},
		{1, 1},
		{3, 1},
		{math.NaN(), 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NewHeatPoint(51.5, -0.09, tt.in)[2])
	}
}

func TestScatterStaysWithinRadius(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	center := LatLng{51.505, -0.09}

	points := Scatter(rng, center, 0.025, 500)

	require.Len(t, points, 500)
	for _, p := range points {
		assert.InDelta(t, center.Lat(), p[0], 0.025)
		assert.InDelta(t, center.Lng(), p[1], 0.025)
		assert.GreaterOrEqual(t, p[2], 0.0)
		assert.LessOrEqual(t, p[2], 1.0)
	}
	assert.NoError(t, Output{HeatmapPoints: points}.Validate())
	assert.Empty(t, Scatter(rng, center, 0.025, 0))
}

func TestFromRouteNormalizes(t *testing.T) {
	out := FromRoute(
		[]Polyline{
			{Positions: []LatLng{{51.505, -0.09}, {51.515, -0.12}}, Color: "#22C55E", Weight: 5},
			{Positions: []LatLng{{51.505, -0.09}, {200, 0}}, Color: "#FF4D4D"},
			{Positions: []LatLng{{51.505, -0.09}, {51.51, -0.08}}, Color: "#FF4D4D", DashArray: "10, 10"},
		},
		[]Marker{
			{Position: LatLng{51.505, -0.09}, Title: "Start Location", Risk: "Low"},
			{Position: LatLng{0, 999}, Title: "Nowhere"},
		},
	)

	require.Len(t, out.Polylines, 2)
	assert.Equal(t, 5, out.Polylines[0].Weight)
	assert.Equal(t, 1, out.Polylines[1].Weight, "zero weight defaults to 1")
	assert.Equal(t, "10, 10", out.Polylines[1].DashArray)
	require.Len(t, out.Markers, 1)
	assert.Equal(t, "Start Location", out.Markers[0].Title)
	assert.NotNil(t, out.HeatmapPoints)
	assert.NoError(t, out.Validate())
}

func TestOutputJSONShape(t *testing.T) {
	out := Output{}.Normalize()
	out.Polylines = append(out.Polylines, Polyline{Positions: []LatLng{{1, 2}, {3, 4}}, Color: "#fff", Weight: 2})

	b, err := json.Marshal(out)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"heatmapPoints": [],
		"markers": [],
		"polylines": [{"positions": [[1,2],[3,4]], "color": "#fff", "weight": 2}]
	}`, string(b))
}

func TestValidateRejectsBadOutput(t *testing.T) {
	assert.Error(t, Output{HeatmapPoints: []HeatPoint{{51, 0, 1.5}}}.Validate())
	assert.Error(t, Output{HeatmapPoints: []HeatPoint{{91, 0, 0.5}}}.Validate())
	assert.Error(t, Output{Markers: []Marker{{Position: LatLng{0, 181}}}}.Validate())
	assert.Error(t, Output{Polylines: []Polyline{{Positions: []LatLng{{1, 1}}}}}.Validate())
}
