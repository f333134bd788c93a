package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"user-directory-service/internal/domain/user"
	apperrors "user-directory-service/pkg/errors"
)

// UserRepo is a thread-safe in-memory user store.
type UserRepo struct {
	mu    sync.RWMutex
	users map[string]user.User
	log   *zap.Logger
}

// NewUserRepo creates an empty in-memory store.
func NewUserRepo(log *zap.Logger) *UserRepo {
	return &UserRepo{
		users: make(map[string]user.User),
		log:   log,
	}
}

// Create stores u. A user without an ID is given a random UUID.
func (r *UserRepo) Create(ctx context.Context, u *user.User) (string, error) {
	if u == nil {
		return "", errors.New("user cannot be nil")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *u
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	if _, exists := r.users[stored.ID]; exists {
		return "", fmt.Errorf("user %s already exists", stored.ID)
	}
	r.users[stored.ID] = stored

	r.log.Debug("user created in memory", zap.String("id", stored.ID))
	return stored.ID, nil
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*user.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("user", fmt.Sprintf("user not found: id=%s", id))
	}
	return &u, nil
}

func (r *UserRepo) Update(ctx context.Context, id string, f user.Fields) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return apperrors.NewNotFoundError("user", fmt.Sprintf("user not found: id=%s", id))
	}
	f.Apply(&u)
	r.users[id] = u
	return nil
}

func (r *UserRepo) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return apperrors.NewNotFoundError("user", fmt.Sprintf("user not found: id=%s", id))
	}
	delete(r.users, id)
	return nil
}

// ListAll returns a snapshot of every user ordered by ID.
func (r *UserRepo) ListAll(ctx context.Context) ([]user.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	users := r.snapshot()
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

// ListOrdered sorts a snapshot by field descending and ID ascending, then
// resumes after afterID.
func (r *UserRepo) ListOrdered(ctx context.Context, field user.SortField, afterID string, limit int) ([]user.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	value, err := fieldValue(field)
	if err != nil {
		return nil, err
	}

	users := r.snapshot()
	sort.Slice(users, func(i, j int) bool {
		vi, vj := value(users[i]), value(users[j])
		if vi != vj {
			return vi > vj
		}
		return users[i].ID < users[j].ID
	})

	if afterID != "" {
		for i := range users {
			if users[i].ID == afterID {
				users = users[i+1:]
				break
			}
		}
	}

	if limit < 0 {
		limit = 0
	}
	if limit < len(users) {
		users = users[:limit]
	}
	return users, nil
}

func (r *UserRepo) snapshot() []user.User {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]user.User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, u)
	}
	return users
}

func fieldValue(field user.SortField) (func(user.User) float64, error) {
	switch field {
	case user.FieldRatings:
		return func(u user.User) float64 { return u.TotalAverageWeightRatings }, nil
	case user.FieldRents:
		return func(u user.User) float64 { return float64(u.NumberOfRents) }, nil
	case user.FieldActivity:
		return func(u user.User) float64 { return float64(u.RecentlyActive.Millis()) }, nil
	default:
		return nil, fmt.Errorf("unsupported sort field %q", field)
	}
}
