package auth

// Identity is who an Authenticator vouched for.
type Identity struct {
	ID    string `json:"id,omitempty"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// RegisterRequest is the body for POST /api/session/signup.
type RegisterRequest struct {
	Name     string `json:"name" validate:"min=2,max=200"`
	Email    string `json:"email" validate:"required,email,max=200"`
	Password string `json:"password" validate:"min=6,max=100"`
}

// LoginRequest is the body for POST /api/session/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
