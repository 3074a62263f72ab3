package saferoute

import (
	"context"
	"time"

	"crimelense/internal/analysis"
	"crimelense/internal/geo"
)

// DefaultLatency matches the response time of the hosted router.
const DefaultLatency = 2 * time.Second

const (
	colorSafe   = "#22C55E"
	colorDanger = "#FF4D4D"
)

// LocalService is the in-process stand-in for the routing backend. Every
// request is answered with the same corridor through central London.
type LocalService struct {
	Latency time.Duration
}

// NewLocalService returns a LocalService with the default latency.
func NewLocalService() *LocalService {
	return &LocalService{Latency: DefaultLatency}
}

var _ analysis.Service[Params, Result] = (*LocalService)(nil)

func (s *LocalService) Request(ctx context.Context, p Params) (Result, error) {
	if err := analysis.Delay(ctx, s.Latency); err != nil {
		return Result{}, err
	}
	start := geo.LatLng{51.505, -0.09}
	end := geo.LatLng{51.515, -0.12}

	route := Result{
		SafetyScore:    92,
		DistanceMeters: 4200,
		EtaSeconds:     14 * 60,
		Summary:        "Avoided 2 high-risk zones near North Market. Route diverted via safe corridor.",
		Polylines: []geo.Polyline{
			{Positions: []geo.LatLng{start, {51.51, -0.1}, end}, Color: colorSafe, Weight: 5},
			// the detour through the risky zone, drawn dashed
			{Positions: []geo.LatLng{start, {51.51, -0.08}, end}, Color: colorDanger, Weight: 3, DashArray: "10, 10"},
		},
		Markers: []geo.Marker{
			{Position: start, Title: "Start Location", Desc: p.Start, Risk: "Low"},
			{Position: end, Title: "Destination", Desc: p.End, Risk: "Low"},
		},
	}
	out := route.Map()
	route.Polylines, route.Markers = out.Polylines, out.Markers
	return route, nil
}
