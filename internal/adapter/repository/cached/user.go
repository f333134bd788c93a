package cached

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"user-directory-service/internal/adapter/cache"
	domain "user-directory-service/internal/domain/user"
	"user-directory-service/internal/usecase/user"
)

// CachedUserRepository implements user.Repository with caching support.
// Single users are served cache-aside; listings always go to the store so
// ranking sees current data.
type CachedUserRepository struct {
	dbRepo user.Repository
	cache  cache.UserCache
	log    *zap.Logger
	group  singleflight.Group
	// writes counts invalidations; a fill that saw it change drops its entry.
	writes atomic.Uint64
}

// NewCachedUserRepository creates a new instance of CachedUserRepository.
func NewCachedUserRepository(dbRepo user.Repository, cache cache.UserCache, log *zap.Logger) *CachedUserRepository {
	return &CachedUserRepository{
		dbRepo: dbRepo,
		cache:  cache,
		log:    log,
	}
}

var _ user.Repository = (*CachedUserRepository)(nil)

// Create delegates to the DB repository.
func (r *CachedUserRepository) Create(ctx context.Context, u *domain.User) (string, error) {
	return r.dbRepo.Create(ctx, u)
}

// GetByID retrieves a user by ID using Cache-Aside pattern.
func (r *CachedUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if u := r.fromCache(ctx, id); u != nil {
		return u, nil
	}

	// Cache miss - use single-flight to prevent stampede
	result, err, shared := r.group.Do(cache.Key(id), func() (any, error) {
		// Another flight may have filled the cache while this one waited
		if u := r.fromCache(ctx, id); u != nil {
			return u, nil
		}

		seen := r.writes.Load()
		u, err := r.dbRepo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		if err := r.cache.Set(ctx, u); err != nil {
			r.log.Warn("failed to cache user", zap.String("id", id), zap.Error(err))
		}
		if r.writes.Load() != seen {
			// a write landed during the read; the entry may predate it
			r.invalidate(ctx, id, "stale fill")
		}
		return u, nil
	})
	if err != nil {
		return nil, err
	}

	u := result.(*domain.User)
	if shared {
		// callers must not share one mutable value
		clone := *u
		return &clone, nil
	}
	return u, nil
}

func (r *CachedUserRepository) fromCache(ctx context.Context, id string) *domain.User {
	u, err := r.cache.Get(ctx, id)
	if err != nil {
		r.log.Warn("cache get error, falling back to database", zap.String("id", id), zap.Error(err))
		return nil
	}
	return u
}

// Update updates the user in DB and invalidates the cache.
func (r *CachedUserRepository) Update(ctx context.Context, id string, f domain.Fields) error {
	if err := r.dbRepo.Update(ctx, id, f); err != nil {
		return err
	}
	r.invalidate(ctx, id, "update")
	return nil
}

// Delete deletes the user from DB and invalidates the cache.
func (r *CachedUserRepository) Delete(ctx context.Context, id string) error {
	if err := r.dbRepo.Delete(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx, id, "delete")
	return nil
}

// ListAll delegates to the DB repository.
func (r *CachedUserRepository) ListAll(ctx context.Context) ([]domain.User, error) {
	return r.dbRepo.ListAll(ctx)
}

// ListOrdered delegates to the DB repository.
func (r *CachedUserRepository) ListOrdered(ctx context.Context, field domain.SortField, afterID string, limit int) ([]domain.User, error) {
	return r.dbRepo.ListOrdered(ctx, field, afterID, limit)
}

func (r *CachedUserRepository) invalidate(ctx context.Context, id, op string) {
	r.writes.Add(1)
	r.group.Forget(cache.Key(id))
	if err := r.cache.Delete(ctx, id); err != nil {
		r.log.Warn("failed to invalidate cache", zap.String("id", id), zap.String("op", op), zap.Error(err))
	}
}
