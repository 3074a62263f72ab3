package auth

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crimelense/migrations"
	"crimelense/pkg/db"
)

func TestOpenAuthenticate(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name    string
		req     LoginRequest
		wantErr bool
	}{
		{"any pair", LoginRequest{Email: "alice@site.com", Password: "x"}, false},
		{"blank email", LoginRequest{Email: "  ", Password: "x"}, true},
		{"blank password", LoginRequest{Email: "alice@site.com"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := Open{}.Authenticate(ctx, tt.req)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidCredentials)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "alice@site.com", id.Email)
		})
	}
}

func TestOpenRegister(t *testing.T) {
	ctx := context.Background()
	id, err := Open{}.Register(ctx, RegisterRequest{Name: " Jane Doe ", Email: " jane@site.com ", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", id.Name)
	assert.Equal(t, "jane@site.com", id.Email)

	tests := []struct {
		name  string
		req   RegisterRequest
		field string
	}{
		{"short name", RegisterRequest{Name: "J", Email: "jane@site.com", Password: "secret1"}, "Name"},
		{"name only spaces", RegisterRequest{Name: "  J  ", Email: "jane@site.com", Password: "secret1"}, "Name"},
		{"malformed email", RegisterRequest{Name: "Jane", Email: "not-an-email", Password: "secret1"}, "Email"},
		{"missing email", RegisterRequest{Name: "Jane", Password: "secret1"}, "Email"},
		{"long email", RegisterRequest{Name: "Jane", Email: strings.Repeat("a", 195) + "@site.com", Password: "secret1"}, "Email"},
		{"short password", RegisterRequest{Name: "Jane", Email: "jane@site.com", Password: "123"}, "Password"},
		{"long password", RegisterRequest{Name: "Jane", Email: "jane@site.com", Password: strings.Repeat("p", 101)}, "Password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open{}.Register(ctx, tt.req)
			assert.ErrorIs(t, err, ErrInvalidSignup)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestDirectory(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	database, err := db.Connect(ctx, dsn, 1)
	require.NoError(t, err)
	defer database.Close()
	require.NoError(t, database.RunMigrations(ctx, migrations.FS))

	dir := NewDirectory(database.Pool)
	email := uuid.NewString()[:8] + "@example.com"

	id, err := dir.Register(ctx, RegisterRequest{Name: "Test User", Email: email, Password: "hunter22"})
	require.NoError(t, err)
	assert.NotEmpty(t, id.ID)

	_, err = dir.Register(ctx, RegisterRequest{Name: "Test User", Email: email, Password: "hunter22"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	got, err := dir.Authenticate(ctx, LoginRequest{Email: email, Password: "hunter22"})
	require.NoError(t, err)
	assert.Equal(t, id.ID, got.ID)

	_, err = dir.Authenticate(ctx, LoginRequest{Email: email, Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = dir.Authenticate(ctx, LoginRequest{Email: "nobody@example.com", Password: "hunter22"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
