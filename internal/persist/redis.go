package persist

import "context"

// RecordStore is the keyed record API of the Redis client.
type RecordStore interface {
	GetRecord(ctx context.Context, key string) ([]byte, bool, error)
	SetRecord(ctx context.Context, key string, value []byte) error
	DeleteRecord(ctx context.Context, key string) error
}

// Redis keeps the record under one Redis key.
type Redis struct {
	store RecordStore
	key   string
}

// NewRedis returns a Port storing the record under key.
func NewRedis(store RecordStore, key string) *Redis {
	return &Redis{store: store, key: key}
}

func (r *Redis) Get(ctx context.Context) ([]byte, error) {
	data, found, err := r.store.GetRecord(ctx, r.key)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotFound
	}
	return data, nil
}

func (r *Redis) Set(ctx context.Context, data []byte) error {
	return r.store.SetRecord(ctx, r.key, data)
}

func (r *Redis) Remove(ctx context.Context) error {
	return r.store.DeleteRecord(ctx, r.key)
}
