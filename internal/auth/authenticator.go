// Package auth verifies credentials before a session is opened. The
// session store trusts whatever identity an Authenticator returns.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"crimelense/pkg/validation"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already exists")
	ErrInvalidSignup      = errors.New("name, valid email and a 6+ character password are required")
)

// Authenticator checks an e-mail/password pair.
type Authenticator interface {
	Authenticate(ctx context.Context, req LoginRequest) (*Identity, error)
}

// Registrar creates new accounts.
type Registrar interface {
	Register(ctx context.Context, req RegisterRequest) (*Identity, error)
}

// Open accepts any non-empty e-mail and password. It performs no real
// credential check and is meant for demos and local use.
type Open struct{}

func (Open) Authenticate(_ context.Context, req LoginRequest) (*Identity, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		return nil, ErrInvalidCredentials
	}
	return &Identity{Email: email}, nil
}

func (Open) Register(_ context.Context, req RegisterRequest) (*Identity, error) {
	if err := checkSignup(req); err != nil {
		return nil, err
	}
	return &Identity{Email: strings.TrimSpace(req.Email), Name: strings.TrimSpace(req.Name)}, nil
}

// checkSignup validates req with surrounding spaces trimmed from the
// name and e-mail.
func checkSignup(req RegisterRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	fields, err := validation.Struct(req)
	if err != nil {
		return err
	}
	if len(fields) == 0 {
		return nil
	}
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, f.Field)
	}
	return fmt.Errorf("%w: invalid %s", ErrInvalidSignup, strings.Join(names, ", "))
}
