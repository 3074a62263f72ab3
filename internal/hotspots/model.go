package hotspots

import (
	"time"

	"crimelense/internal/geo"
)

// Hotspot is a reported trouble spot shown on the heatmap.
type Hotspot struct {
	ID        string     `json:"id"`
	Position  geo.LatLng `json:"position"`
	Title     string     `json:"title"`
	Desc      string     `json:"desc"`
	Risk      string     `json:"risk"`
	CreatedAt time.Time  `json:"created_at"`
}

// Marker renders the hotspot for the map surface.
func (h Hotspot) Marker() geo.Marker {
	return geo.Marker{Position: h.Position, Title: h.Title, Desc: h.Desc, Risk: h.Risk}
}

// CreateRequest is the body for POST /admin/hotspots.
type CreateRequest struct {
	Lat   float64 `json:"lat" validate:"latitude"`
	Lng   float64 `json:"lng" validate:"longitude"`
	Title string  `json:"title" validate:"notblank,max=100"`
	Desc  string  `json:"desc" validate:"max=500"`
	Risk  string  `json:"risk" validate:"required,oneof=Low Medium High"`
}

// HeatmapResponse is returned by GET /api/heatmap.
type HeatmapResponse struct {
	Center geo.LatLng `json:"center"`
	geo.Output
}

// Defaults are seeded into an empty store.
var Defaults = []CreateRequest{
	{Lat: 51.505, Lng: -0.09, Title: "Central Station", Desc: "Frequent pickpocketing reported", Risk: "High"},
	{Lat: 51.51, Lng: -0.1, Title: "North Market", Desc: "Late night disturbances", Risk: "Medium"},
	{Lat: 51.49, Lng: -0.08, Title: "South Park", Desc: "Safe zone monitored by police", Risk: "Low"},
}
