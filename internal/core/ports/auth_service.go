package ports

import (
	"context"

	"github.com/sgirs-cali/portal/internal/core/domain"
)

// RegisterInput carries a new account's details. An empty Role registers a
// citizen.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Role     string
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
	ListUsers(ctx context.Context) ([]*domain.User, error)
	ChangeRole(ctx context.Context, userID, role string) (*domain.User, error)
}
