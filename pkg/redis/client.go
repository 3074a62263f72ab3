package redis

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const hotspotGeoKey = "hotspot:locations"

// Client wraps the Redis connection.
type Client struct {
	rdb *goredis.Client
}

// NewClient connects to Redis, retrying up to attempts times.
func NewClient(addr string, attempts int) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{Addr: addr})
	for i := 1; i <= attempts; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := rdb.Ping(ctx).Err()
		cancel()
		if err == nil {
			log.Println("[redis] connected")
			return &Client{rdb: rdb}, nil
		}
		log.Printf("[redis] waiting for Redis... (%d/%d)", i, attempts)
		time.Sleep(2 * time.Second)
	}
	_ = rdb.Close()
	return nil, fmt.Errorf("redis: failed to connect after %d attempts", attempts)
}

// ---- durable records ----

// GetRecord returns the raw value under key. found is false when the key
// does not exist.
func (c *Client) GetRecord(ctx context.Context, key string) (data []byte, found bool, err error) {
	data, err = c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// SetRecord stores value under key without expiry.
func (c *Client) SetRecord(ctx context.Context, key string, value []byte) error {
	return c.rdb.Set(ctx, key, value, 0).Err()
}

// DeleteRecord removes key. Deleting a missing key is not an error.
func (c *Client) DeleteRecord(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, key).Err()
}

// ---- hotspots ----

// HotspotLocation is a member of the hotspot GEO set.
type HotspotLocation struct {
	ID  string
	Lat float64
	Lng float64
}

// AddHotspot stores a hotspot position in the GEO set and its attributes
// in a hash, atomically.
func (c *Client) AddHotspot(ctx context.Context, id string, lat, lng float64, fields map[string]string) error {
	pipe := c.rdb.TxPipeline()
	pipe.GeoAdd(ctx, hotspotGeoKey, &goredis.GeoLocation{
		Name:      id,
		Longitude: lng,
		Latitude:  lat,
	})
	pipe.HSet(ctx, "hotspot:"+id, fields)
	_, err := pipe.Exec(ctx)
	return err
}

// NearbyHotspots returns hotspots within radiusKm of (lat,lng), nearest
// first.
func (c *Client) NearbyHotspots(ctx context.Context, lat, lng, radiusKm float64, count int) ([]HotspotLocation, error) {
	res, err := c.rdb.GeoSearchLocation(ctx, hotspotGeoKey, &goredis.GeoSearchLocationQuery{
		GeoSearchQuery: goredis.GeoSearchQuery{
			Longitude:  lng,
			Latitude:   lat,
			Radius:     radiusKm,
			RadiusUnit: "km",
			Count:      count,
			Sort:       "ASC",
		},
		WithCoord: true,
	}).Result()
	if err != nil {
		return nil, err
	}
	out := make([]HotspotLocation, 0, len(res))
	for _, loc := range res {
		out = append(out, HotspotLocation{ID: loc.Name, Lat: loc.Latitude, Lng: loc.Longitude})
	}
	return out, nil
}

// HotspotFields returns the attribute hash of a hotspot.
func (c *Client) HotspotFields(ctx context.Context, id string) (map[string]string, error) {
	return c.rdb.HGetAll(ctx, "hotspot:"+id).Result()
}

// RemoveHotspot deletes a hotspot from the GEO set and drops its hash. It
// reports whether the hotspot was present.
func (c *Client) RemoveHotspot(ctx context.Context, id string) (bool, error) {
	pipe := c.rdb.TxPipeline()
	removed := pipe.ZRem(ctx, hotspotGeoKey, id)
	pipe.Del(ctx, "hotspot:"+id)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return removed.Val() > 0, nil
}

// Close tears down the Redis connection.
func (c *Client) Close() error { return c.rdb.Close() }
