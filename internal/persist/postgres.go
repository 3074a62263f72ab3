package persist

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres keeps the record as one row of durable_records.
type Postgres struct {
	db  *pgxpool.Pool
	key string
}

// NewPostgres returns a Port storing the record in the row named key.
func NewPostgres(db *pgxpool.Pool, key string) *Postgres {
	return &Postgres{db: db, key: key}
}

func (p *Postgres) Get(ctx context.Context) ([]byte, error) {
	var data []byte
	err := p.db.QueryRow(ctx, `SELECT value FROM durable_records WHERE key=$1`, p.key).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return data, err
}

func (p *Postgres) Set(ctx context.Context, data []byte) error {
	_, err := p.db.Exec(ctx,
		`INSERT INTO durable_records (key,value,updated_at) VALUES ($1,$2,NOW())
		 ON CONFLICT (key) DO UPDATE SET value=EXCLUDED.value, updated_at=NOW()`,
		p.key, data)
	return err
}

func (p *Postgres) Remove(ctx context.Context) error {
	_, err := p.db.Exec(ctx, `DELETE FROM durable_records WHERE key=$1`, p.key)
	return err
}
