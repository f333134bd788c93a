package user

import domain "user-directory-service/internal/domain/user"

// GetUserRequest represents the request payload for retrieving a user.
type GetUserRequest struct {
	ID string
}

// GetUserResponse represents the response payload for user details.
type GetUserResponse struct {
	User User
}

// CreateUserRequest represents the request payload for creating a new user.
type CreateUserRequest struct {
	Name                      string  `json:"name" validate:"required,min=1,max=100"`
	Email                     string  `json:"email" validate:"required,email"`
	TotalAverageWeightRatings float64 `json:"totalAverageWeightRatings" validate:"gte=0,lte=5"`
	NumberOfRents             int64   `json:"numberOfRents" validate:"gte=0"`
}

// CreateUserResponse represents the response payload after creating a user.
type CreateUserResponse struct {
	User User
}

// UpdateUserRequest is a partial update. Nil fields are left untouched.
type UpdateUserRequest struct {
	ID                        string   `json:"-"`
	Name                      *string  `json:"name" validate:"omitnil,min=1,max=100"`
	Email                     *string  `json:"email" validate:"omitnil,email"`
	TotalAverageWeightRatings *float64 `json:"totalAverageWeightRatings" validate:"omitnil,gte=0,lte=5"`
	NumberOfRents             *int64   `json:"numberOfRents" validate:"omitnil,gte=0"`
}

// UpdateUserResponse carries the user as stored after the update.
type UpdateUserResponse struct {
	User User
}

// DeleteUserRequest represents the request payload for deleting a user.
type DeleteUserRequest struct {
	ID string
}

// UpdateActivityRequest marks a user as active now.
type UpdateActivityRequest struct {
	UserID string
}

// ListUsersRequest selects one page of the directory.
type ListUsersRequest struct {
	Limit  int
	Cursor string
	SortBy string
}

// ListUsersResponse is one page of the directory.
type ListUsersResponse struct {
	Users      []User
	HasMore    bool
	NextCursor string
}

// User represents a user DTO (Data Transfer Object) for API responses.
// PotentialScore is only set by the potential sort mode.
type User struct {
	ID                        string   `json:"id"`
	Name                      string   `json:"name"`
	Email                     string   `json:"email"`
	TotalAverageWeightRatings float64  `json:"totalAverageWeightRatings"`
	NumberOfRents             int64    `json:"numberOfRents"`
	RecentlyActive            int64    `json:"recentlyActive"`
	CreatedAt                 int64    `json:"createdAt"`
	UpdatedAt                 int64    `json:"updatedAt"`
	PotentialScore            *float64 `json:"potentialScore,omitempty"`
}

func toDTO(u domain.User) User {
	return User{
		ID:                        u.ID,
		Name:                      u.Name,
		Email:                     u.Email,
		TotalAverageWeightRatings: u.TotalAverageWeightRatings,
		NumberOfRents:             u.NumberOfRents,
		RecentlyActive:            u.RecentlyActive.Millis(),
		CreatedAt:                 u.CreatedAt.Millis(),
		UpdatedAt:                 u.UpdatedAt.Millis(),
	}
}

func toScoredDTO(s domain.ScoredUser) User {
	u := toDTO(s.User)
	score := s.PotentialScore
	u.PotentialScore = &score
	return u
}
