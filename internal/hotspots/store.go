package hotspots

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"sync"
	"time"

	"crimelense/internal/geo"
	rredis "crimelense/pkg/redis"
)

// ErrNotFound is returned when removing an unknown hotspot.
var ErrNotFound = errors.New("hotspot not found")

// Store keeps hotspots indexed by position.
type Store interface {
	Add(ctx context.Context, h Hotspot) error
	// Nearby returns up to limit hotspots within radiusKm of center,
	// nearest first.
	Nearby(ctx context.Context, center geo.LatLng, radiusKm float64, limit int) ([]Hotspot, error)
	Remove(ctx context.Context, id string) error
}

// MemoryStore is a Store held in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	spots map[string]Hotspot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{spots: make(map[string]Hotspot)}
}

func (s *MemoryStore) Add(_ context.Context, h Hotspot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spots[h.ID] = h
	return nil
}

func (s *MemoryStore) Nearby(_ context.Context, center geo.LatLng, radiusKm float64, limit int) ([]Hotspot, error) {
	s.mu.RLock()
	type hit struct {
		h    Hotspot
		dist float64
	}
	hits := make([]hit, 0, len(s.spots))
	for _, h := range s.spots {
		if d := distanceKm(center, h.Position); d <= radiusKm {
			hits = append(hits, hit{h, d})
		}
	}
	s.mu.RUnlock()

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].dist == hits[j].dist {
			return hits[i].h.ID < hits[j].h.ID
		}
		return hits[i].dist < hits[j].dist
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	out := make([]Hotspot, len(hits))
	for i, h := range hits {
		out[i] = h.h
	}
	return out, nil
}

func (s *MemoryStore) Remove(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.spots[id]; !ok {
		return ErrNotFound
	}
	delete(s.spots, id)
	return nil
}

// GeoIndex is the subset of the Redis client the RedisStore uses.
type GeoIndex interface {
	AddHotspot(ctx context.Context, id string, lat, lng float64, fields map[string]string) error
	NearbyHotspots(ctx context.Context, lat, lng, radiusKm float64, count int) ([]rredis.HotspotLocation, error)
	HotspotFields(ctx context.Context, id string) (map[string]string, error)
	RemoveHotspot(ctx context.Context, id string) (bool, error)
}

// RedisStore keeps positions in a Redis GEO set and attributes in a hash
// per hotspot.
type RedisStore struct {
	idx GeoIndex
}

func NewRedisStore(idx GeoIndex) *RedisStore {
	return &RedisStore{idx: idx}
}

func (s *RedisStore) Add(ctx context.Context, h Hotspot) error {
	return s.idx.AddHotspot(ctx, h.ID, h.Position.Lat(), h.Position.Lng(), map[string]string{
		"title":      h.Title,
		"desc":       h.Desc,
		"risk":       h.Risk,
		"created_at": strconv.FormatInt(h.CreatedAt.Unix(), 10),
	})
}

func (s *RedisStore) Nearby(ctx context.Context, center geo.LatLng, radiusKm float64, limit int) ([]Hotspot, error) {
	locs, err := s.idx.NearbyHotspots(ctx, center.Lat(), center.Lng(), radiusKm, limit)
	if err != nil {
		return nil, fmt.Errorf("search hotspots: %w", err)
	}
	out := make([]Hotspot, 0, len(locs))
	for _, loc := range locs {
		fields, err := s.idx.HotspotFields(ctx, loc.ID)
		if err != nil {
			return nil, fmt.Errorf("hotspot %s: %w", loc.ID, err)
		}
		h := Hotspot{
			ID:       loc.ID,
			Position: geo.LatLng{loc.Lat, loc.Lng},
			Title:    fields["title"],
			Desc:     fields["desc"],
			Risk:     fields["risk"],
		}
		if sec, err := strconv.ParseInt(fields["created_at"], 10, 64); err == nil {
			h.CreatedAt = time.Unix(sec, 0).UTC()
		}
		out = append(out, h)
	}
	return out, nil
}

func (s *RedisStore) Remove(ctx context.Context, id string) error {
	ok, err := s.idx.RemoveHotspot(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

const earthRadiusKm = 6371.0

// distanceKm is the haversine distance between two points.
func distanceKm(a, b geo.LatLng) float64 {
	lat1, lat2 := a.Lat()*math.Pi/180, b.Lat()*math.Pi/180
	dLat := lat2 - lat1
	dLng := (b.Lng() - a.Lng()) * math.Pi / 180
	h := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}
