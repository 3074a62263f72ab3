package saferoute

import "crimelense/internal/geo"

// Name labels the safe-route workflow in logs, metrics and events.
const Name = "saferoute"

// Params is the body for POST /api/safe-route/{id}/submit.
type Params struct {
	Start string `json:"start" validate:"notblank,max=200"`
	End   string `json:"end" validate:"notblank,max=200"`
}

// Result is the safest route found between two places.
type Result struct {
	SafetyScore    int            `json:"safetyScore"`
	DistanceMeters int            `json:"distanceMeters"`
	EtaSeconds     int            `json:"etaSeconds"`
	Summary        string         `json:"summary"`
	Polylines      []geo.Polyline `json:"polylines"`
	Markers        []geo.Marker   `json:"markers"`
}

// Map returns the route in the shape the map surface renders.
func (r Result) Map() geo.Output {
	return geo.FromRoute(r.Polylines, r.Markers)
}
