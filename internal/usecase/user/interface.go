package user

import (
	"context"

	domain "user-directory-service/internal/domain/user"
)

// UserUsecase defines the interface for user business logic operations.
type UserUsecase interface {
	GetUser(ctx context.Context, in GetUserRequest) (*GetUserResponse, error)
	CreateUser(ctx context.Context, in CreateUserRequest) (*CreateUserResponse, error)
	UpdateUser(ctx context.Context, in UpdateUserRequest) (*UpdateUserResponse, error)
	DeleteUser(ctx context.Context, in DeleteUserRequest) error
	UpdateActivity(ctx context.Context, in UpdateActivityRequest) error
	ListUsers(ctx context.Context, in ListUsersRequest) (*ListUsersResponse, error)
}

// Repository defines the interface for user data access operations.
// Implementations report a missing user with a pkg/errors NotFoundError.
type Repository interface {
	// Create stores u and returns the identifier the store assigned.
	Create(ctx context.Context, u *domain.User) (string, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// Update merges the non-nil fields into the stored user.
	Update(ctx context.Context, id string, f domain.Fields) error
	Delete(ctx context.Context, id string) error
	// ListAll returns every user in identifier-ascending order.
	ListAll(ctx context.Context) ([]domain.User, error)
	// ListOrdered returns up to limit users ordered by field descending, then
	// identifier ascending, starting after the user afterID. An empty or
	// unknown afterID starts from the beginning.
	ListOrdered(ctx context.Context, field domain.SortField, afterID string, limit int) ([]domain.User, error)
}

var _ UserUsecase = (*Usecase)(nil)
