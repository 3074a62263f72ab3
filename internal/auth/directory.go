package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

// Directory verifies credentials against bcrypt hashes stored in the
// credentials table.
type Directory struct {
	db *pgxpool.Pool
}

// NewDirectory creates a directory backed by the given pool.
func NewDirectory(db *pgxpool.Pool) *Directory {
	return &Directory{db: db}
}

// Register creates a new account.
func (d *Directory) Register(ctx context.Context, req RegisterRequest) (*Identity, error) {
	if err := checkSignup(req); err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	name := strings.TrimSpace(req.Name)

	var exists bool
	if err := d.db.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM credentials WHERE email=$1)", email).Scan(&exists); err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	id := uuid.New().String()
	_, err = d.db.Exec(ctx,
		`INSERT INTO credentials (id,email,name,password_hash) VALUES ($1,$2,$3,$4)`,
		id, email, name, string(hash))
	if err != nil {
		return nil, err
	}
	return &Identity{ID: id, Email: email, Name: name}, nil
}

// Authenticate checks the password for an existing account.
func (d *Directory) Authenticate(ctx context.Context, req LoginRequest) (*Identity, error) {
	var id Identity
	var hash string
	err := d.db.QueryRow(ctx,
		`SELECT id,email,name,password_hash FROM credentials WHERE email=$1`,
		strings.ToLower(strings.TrimSpace(req.Email))).Scan(&id.ID, &id.Email, &id.Name, &hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return &id, nil
}
