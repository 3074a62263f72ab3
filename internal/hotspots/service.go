package hotspots

import (
	"context"
	"fmt"
	"log"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"crimelense/internal/geo"
	"crimelense/pkg/validation"
)

// InvalidError lists the fields of a rejected CreateRequest.
type InvalidError struct {
	Fields []validation.FieldError
}

func (e *InvalidError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+" ("+f.Rule+")")
	}
	return "invalid hotspot: " + strings.Join(parts, ", ")
}

// Options shapes the heatmap.
type Options struct {
	Center geo.LatLng
	// Points is the number of generated heat points.
	Points int
	// Spread is the half-width in degrees of the square points fall in.
	Spread float64
	// RadiusKm bounds which hotspots are shown around the centre.
	RadiusKm float64
	// Limit caps the number of hotspot markers.
	Limit int
	Seed  uint64
}

func DefaultOptions() Options {
	return Options{
		Center:   geo.LatLng{51.505, -0.09},
		Points:   500,
		Spread:   0.025,
		RadiusKm: 25,
		Limit:    100,
		Seed:     uint64(time.Now().UnixNano()),
	}
}

// Service builds heatmaps and manages hotspots.
type Service struct {
	store Store
	opts  Options

	mu  sync.Mutex // guards rng
	rng *rand.Rand
}

func NewService(store Store, opts Options) *Service {
	return &Service{
		store: store,
		opts:  opts,
		rng:   rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15)),
	}
}

// Heatmap returns heat points around center together with the hotspots
// near it as markers.
func (s *Service) Heatmap(ctx context.Context, center geo.LatLng) (*HeatmapResponse, error) {
	spots, err := s.store.Nearby(ctx, center, s.opts.RadiusKm, s.opts.Limit)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	points := geo.Scatter(s.rng, center, s.opts.Spread, s.opts.Points)
	s.mu.Unlock()

	markers := make([]geo.Marker, 0, len(spots))
	for _, h := range spots {
		markers = append(markers, h.Marker())
	}
	out := geo.Output{HeatmapPoints: points, Markers: markers}.Normalize()
	return &HeatmapResponse{Center: center, Output: out}, nil
}

// Center returns the default heatmap centre.
func (s *Service) Center() geo.LatLng { return s.opts.Center }

// List returns the hotspots around the default centre.
func (s *Service) List(ctx context.Context) ([]Hotspot, error) {
	return s.store.Nearby(ctx, s.opts.Center, s.opts.RadiusKm, 0)
}

// Add validates req and stores a new hotspot.
func (s *Service) Add(ctx context.Context, req CreateRequest) (*Hotspot, error) {
	fields, err := validation.Struct(req)
	if err != nil {
		return nil, err
	}
	if len(fields) > 0 {
		return nil, &InvalidError{Fields: fields}
	}
	h := Hotspot{
		ID:        uuid.New().String(),
		Position:  geo.LatLng{req.Lat, req.Lng},
		Title:     strings.TrimSpace(req.Title),
		Desc:      strings.TrimSpace(req.Desc),
		Risk:      req.Risk,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	if err := s.store.Add(ctx, h); err != nil {
		return nil, fmt.Errorf("store hotspot: %w", err)
	}
	log.Printf("[hotspots] added %s (%s) at %.4f,%.4f", h.Title, h.Risk, req.Lat, req.Lng)
	return &h, nil
}

func (s *Service) Remove(ctx context.Context, id string) error {
	if err := s.store.Remove(ctx, id); err != nil {
		return err
	}
	log.Printf("[hotspots] removed %s", id)
	return nil
}

// SeedDefaults adds Defaults when no hotspot exists yet and returns how
// many were added.
func (s *Service) SeedDefaults(ctx context.Context) (int, error) {
	existing, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}
	for _, req := range Defaults {
		if _, err := s.Add(ctx, req); err != nil {
			return 0, err
		}
	}
	return len(Defaults), nil
}
