package user

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	domain "user-directory-service/internal/domain/user"
	apperrors "user-directory-service/pkg/errors"
	"user-directory-service/pkg/logger"
	"user-directory-service/pkg/security"
)

// Listing defaults used when no option overrides them.
const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Messages surfaced to API callers.
const (
	MsgUserIDRequired = "User ID is required"
	MsgNoUpdateData   = "No data provided for update"
	MsgUserNotFound   = "User not found"
)

// Usecase implements the business logic for user management operations.
// It provides a clean separation between the transport layer and data layer.
type Usecase struct {
	repo     Repository
	log      *zap.Logger
	validate *validator.Validate
	now      func() time.Time

	defaultLimit          int
	maxLimit              int
	exactHasMore          bool
	touchActivityOnUpdate bool
}

// Option configures a Usecase.
type Option func(*Usecase)

// WithClock replaces the wall clock used for timestamps and scoring.
func WithClock(now func() time.Time) Option {
	return func(uc *Usecase) {
		if now != nil {
			uc.now = now
		}
	}
}

// WithLimits sets the page size used when none is requested and the largest
// page size a caller may ask for.
func WithLimits(defaultLimit, maxLimit int) Option {
	return func(uc *Usecase) {
		if defaultLimit > 0 {
			uc.defaultLimit = defaultLimit
		}
		if maxLimit >= uc.defaultLimit {
			uc.maxLimit = maxLimit
		}
	}
}

// WithExactHasMore makes listings fetch one extra record to decide hasMore
// instead of comparing the page size with the limit.
func WithExactHasMore(exact bool) Option {
	return func(uc *Usecase) { uc.exactHasMore = exact }
}

// WithTouchActivityOnUpdate controls whether UpdateUser also stamps recentlyActive.
func WithTouchActivityOnUpdate(touch bool) Option {
	return func(uc *Usecase) { uc.touchActivityOnUpdate = touch }
}

// New creates a new instance of Usecase with the provided repository and logger.
func New(r Repository, log *zap.Logger, opts ...Option) *Usecase {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	uc := &Usecase{
		repo:                  r,
		log:                   log,
		validate:              v,
		now:                   time.Now,
		defaultLimit:          DefaultLimit,
		maxLimit:              MaxLimit,
		touchActivityOnUpdate: true,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// formatValidationError converts validator.ValidationErrors into a human-readable error.
func formatValidationError(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return apperrors.NewValidationError("", err.Error())
	}

	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		switch e.Tag() {
		case "required":
			messages = append(messages, fmt.Sprintf("%s is required", e.Field()))
		case "email":
			messages = append(messages, fmt.Sprintf("%s must be a valid email", e.Field()))
		case "min":
			messages = append(messages, fmt.Sprintf("%s must be at least %s characters", e.Field(), e.Param()))
		case "max":
			messages = append(messages, fmt.Sprintf("%s must be at most %s characters", e.Field(), e.Param()))
		case "gte":
			messages = append(messages, fmt.Sprintf("%s must be at least %s", e.Field(), e.Param()))
		case "lte":
			messages = append(messages, fmt.Sprintf("%s must be at most %s", e.Field(), e.Param()))
		default:
			messages = append(messages, fmt.Sprintf("%s is invalid", e.Field()))
		}
	}
	return apperrors.NewValidationError("", strings.Join(messages, ", "))
}

// checkID normalizes a user identifier or explains why it cannot be used.
func checkID(id string) (string, error) {
	if strings.TrimSpace(id) == "" {
		return "", apperrors.NewValidationError("id", MsgUserIDRequired)
	}
	clean, err := security.ValidateDocumentID(id)
	if err != nil {
		return "", apperrors.NewValidationError("id", "Invalid user ID: "+err.Error())
	}
	return clean, nil
}

// notFound rewrites a store miss into the caller-facing message.
func notFound(err error) error {
	if apperrors.IsNotFound(err) {
		return apperrors.NewNotFoundError("user", MsgUserNotFound)
	}
	return err
}

// GetUser retrieves a user by ID.
func (uc *Usecase) GetUser(ctx context.Context, in GetUserRequest) (*GetUserResponse, error) {
	log := logger.WithContext(ctx, uc.log)

	id, err := checkID(in.ID)
	if err != nil {
		log.Warn("get user validation failed", zap.String("id", in.ID), zap.Error(err))
		return nil, err
	}

	u, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		if apperrors.IsNotFound(err) {
			log.Info("user not found", zap.String("id", id))
		} else {
			log.Error("failed to get user", zap.String("id", id), zap.Error(err))
		}
		return nil, notFound(err)
	}

	return &GetUserResponse{User: toDTO(*u)}, nil
}

// CreateUser validates the request and stores a new user active as of now.
func (uc *Usecase) CreateUser(ctx context.Context, in CreateUserRequest) (*CreateUserResponse, error) {
	log := logger.WithContext(ctx, uc.log)
	log.Info("creating user", zap.String("name", in.Name), zap.String("email", in.Email))

	if err := uc.validate.Struct(in); err != nil {
		log.Warn("validate failed", zap.Error(err))
		return nil, formatValidationError(err)
	}

	now := domain.TimestampFromTime(uc.now())
	u := &domain.User{
		Name:                      in.Name,
		Email:                     in.Email,
		TotalAverageWeightRatings: in.TotalAverageWeightRatings,
		NumberOfRents:             in.NumberOfRents,
		RecentlyActive:            now,
		CreatedAt:                 now,
		UpdatedAt:                 now,
	}

	id, err := uc.repo.Create(ctx, u)
	if err != nil {
		log.Error("failed to create user", zap.Error(err))
		return nil, err
	}
	u.ID = id

	return &CreateUserResponse{User: toDTO(*u)}, nil
}

// UpdateUser merges the supplied fields into the user, stamps updatedAt and,
// unless disabled, recentlyActive. It returns the user as re-read from the store.
func (uc *Usecase) UpdateUser(ctx context.Context, in UpdateUserRequest) (*UpdateUserResponse, error) {
	log := logger.WithContext(ctx, uc.log)

	id, err := checkID(in.ID)
	if err != nil {
		log.Warn("update user validation failed", zap.String("id", in.ID), zap.Error(err))
		return nil, err
	}

	fields := domain.Fields{
		Name:                      in.Name,
		Email:                     in.Email,
		TotalAverageWeightRatings: in.TotalAverageWeightRatings,
		NumberOfRents:             in.NumberOfRents,
	}
	if fields.IsEmpty() {
		log.Warn("update user without data", zap.String("id", id))
		return nil, apperrors.NewValidationError("", MsgNoUpdateData)
	}

	if err := uc.validate.Struct(in); err != nil {
		log.Warn("validate failed", zap.String("id", id), zap.Error(err))
		return nil, formatValidationError(err)
	}

	now := domain.TimestampFromTime(uc.now())
	fields.UpdatedAt = &now
	if uc.touchActivityOnUpdate {
		fields.RecentlyActive = &now
	}

	log.Info("updating user", zap.String("id", id))

	if err := uc.repo.Update(ctx, id, fields); err != nil {
		if !apperrors.IsNotFound(err) {
			log.Error("failed to update user", zap.String("id", id), zap.Error(err))
		}
		return nil, notFound(err)
	}

	u, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		log.Error("failed to reload updated user", zap.String("id", id), zap.Error(err))
		return nil, notFound(err)
	}

	return &UpdateUserResponse{User: toDTO(*u)}, nil
}

// DeleteUser removes a user.
func (uc *Usecase) DeleteUser(ctx context.Context, in DeleteUserRequest) error {
	log := logger.WithContext(ctx, uc.log)

	id, err := checkID(in.ID)
	if err != nil {
		log.Warn("delete user validation failed", zap.String("id", in.ID), zap.Error(err))
		return err
	}

	log.Info("deleting user", zap.String("id", id))

	if err := uc.repo.Delete(ctx, id); err != nil {
		if !apperrors.IsNotFound(err) {
			log.Error("failed to delete user", zap.String("id", id), zap.Error(err))
		}
		return notFound(err)
	}
	return nil
}

// UpdateActivity sets recentlyActive of the user to the current time.
func (uc *Usecase) UpdateActivity(ctx context.Context, in UpdateActivityRequest) error {
	log := logger.WithContext(ctx, uc.log)

	id, err := checkID(in.UserID)
	if err != nil {
		log.Warn("update activity validation failed", zap.String("id", in.UserID), zap.Error(err))
		return err
	}

	now := domain.TimestampFromTime(uc.now())
	if err := uc.repo.Update(ctx, id, domain.Fields{RecentlyActive: &now}); err != nil {
		if !apperrors.IsNotFound(err) {
			log.Error("failed to update activity", zap.String("id", id), zap.Error(err))
		}
		return notFound(err)
	}

	log.Debug("activity updated", zap.String("id", id))
	return nil
}

// ListUsers returns one page of users. The potential mode ranks the full user
// set by potential score; the field modes delegate ordering to the store.
func (uc *Usecase) ListUsers(ctx context.Context, in ListUsersRequest) (*ListUsersResponse, error) {
	log := logger.WithContext(ctx, uc.log)

	mode, err := domain.ParseSortMode(in.SortBy)
	if err != nil {
		log.Warn("invalid sort mode", zap.String("sort_by", in.SortBy))
		return nil, apperrors.NewValidationError("sortBy", fmt.Sprintf("Invalid sortBy %q", in.SortBy))
	}

	limit := uc.clampLimit(in.Limit)
	fetch := limit
	if uc.exactHasMore {
		fetch = limit + 1
	}

	log.Info("listing users",
		zap.String("sort_by", string(mode)),
		zap.Int("limit", limit),
		zap.String("cursor", in.Cursor),
	)

	var users []User
	if field, ok := mode.Field(); ok {
		users, err = uc.listByField(ctx, field, in.Cursor, fetch)
	} else {
		users, err = uc.listByPotential(ctx, in.Cursor, fetch)
	}
	if err != nil {
		log.Error("failed to list users", zap.String("sort_by", string(mode)), zap.Error(err))
		return nil, err
	}

	hasMore := len(users) == limit
	if uc.exactHasMore {
		hasMore = len(users) > limit
		if hasMore {
			users = users[:limit]
		}
	}

	resp := &ListUsersResponse{Users: users, HasMore: hasMore}
	if len(users) > 0 {
		resp.NextCursor = users[len(users)-1].ID
	}
	return resp, nil
}

func (uc *Usecase) listByPotential(ctx context.Context, cursor string, limit int) ([]User, error) {
	all, err := uc.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	ranked := domain.RankByPotential(all, uc.now())
	page, _ := domain.PageAfter(ranked, cursor, limit)

	users := make([]User, len(page))
	for i, s := range page {
		users[i] = toScoredDTO(s)
	}
	return users, nil
}

func (uc *Usecase) listByField(ctx context.Context, field domain.SortField, cursor string, limit int) ([]User, error) {
	found, err := uc.repo.ListOrdered(ctx, field, cursor, limit)
	if err != nil {
		return nil, err
	}

	users := make([]User, len(found))
	for i, u := range found {
		users[i] = toDTO(u)
	}
	return users, nil
}

func (uc *Usecase) clampLimit(limit int) int {
	if limit <= 0 {
		return uc.defaultLimit
	}
	if limit > uc.maxLimit {
		return uc.maxLimit
	}
	return limit
}
