package di

import (
	"context"
	"fmt"
	"time"

	"user-directory-service/cmd/api/infrastructure"
	"user-directory-service/internal/adapter/auth"
	"user-directory-service/internal/adapter/cache"
	"user-directory-service/internal/adapter/db/memory"
	mongorepo "user-directory-service/internal/adapter/db/mongo"
	"user-directory-service/internal/adapter/db/postgres"
	ginhandler "user-directory-service/internal/adapter/gin/handler"
	"user-directory-service/internal/adapter/gin/middleware"
	"user-directory-service/internal/adapter/repository/cached"
	"user-directory-service/internal/config"
	"user-directory-service/internal/usecase/user"
	redisclient "user-directory-service/pkg/redis"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Container holds all application dependencies
type Container struct {
	Config        *config.Config
	Logger        *zap.Logger
	DB            *gorm.DB
	Mongo         *mongo.Client
	RedisClient   *redisclient.Client
	UserUC        user.UserUsecase
	Authenticator auth.Authenticator
	RateLimiter   *middleware.RateLimiter
	GinHandler    *ginhandler.UserHandler
}

// NewContainer creates and initializes all application dependencies
func NewContainer(cfg *config.Config, l *zap.Logger) (*Container, error) {
	// Validate configuration before initializing any dependencies
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	c := &Container{Config: cfg, Logger: l}

	tokens, err := config.ParseStaticTokens(cfg.Auth.StaticTokens)
	if err != nil {
		return nil, fmt.Errorf("invalid static tokens: %w", err)
	}

	dbRepo, err := c.newStore()
	if err != nil {
		_ = c.Close()
		return nil, err
	}

	rdb, err := infrastructure.NewRedisClient(cfg, l)
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to initialize Redis: %w", err)
	}
	c.RedisClient = rdb

	var repo user.Repository = dbRepo
	var sessions auth.Authenticator
	if rdb != nil {
		userCache := cache.NewRedisUserCache(
			rdb.Client,
			time.Duration(cfg.Redis.CacheTTL)*time.Second,
			l,
		)
		repo = cached.NewCachedUserRepository(dbRepo, userCache, l)

		c.RateLimiter = middleware.NewRateLimiter(
			rdb.Client,
			middleware.RateLimiterConfig{
				RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
				BurstCapacity:     cfg.RateLimit.BurstCapacity,
				Enabled:           cfg.RateLimit.Enabled,
			},
			l,
		)

		if cfg.Auth.SessionsEnabled {
			sessions = auth.NewSessionAuthenticator(rdb.Client, cfg.Auth.SessionPrefix)
		}
	}

	var static auth.Authenticator
	if len(tokens) > 0 {
		static = auth.NewStaticAuthenticator(tokens)
	}
	c.Authenticator = auth.NewChain(l, static, sessions)

	c.UserUC = user.New(repo, l,
		user.WithLimits(cfg.Listing.DefaultLimit, cfg.Listing.MaxLimit),
		user.WithExactHasMore(cfg.Listing.ExactHasMore),
		user.WithTouchActivityOnUpdate(cfg.Listing.TouchActivityOnUpdate),
	)
	c.GinHandler = ginhandler.NewUserHandler(c.UserUC, l)

	return c, nil
}

// newStore opens the repository selected by the store driver.
func (c *Container) newStore() (user.Repository, error) {
	cfg, l := c.Config, c.Logger

	switch cfg.Store.Driver {
	case config.DriverMongo:
		client, coll, err := infrastructure.NewMongo(cfg, l)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize mongo: %w", err)
		}
		c.Mongo = client

		repo := mongorepo.NewUserRepoMongo(coll, l)
		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Mongo.ConnectTimeoutSeconds)*time.Second)
		defer cancel()
		if err := repo.EnsureIndexes(ctx); err != nil {
			return nil, fmt.Errorf("failed to create mongo indexes: %w", err)
		}
		return repo, nil

	case config.DriverPostgres, config.DriverSQLite:
		db, err := infrastructure.NewDatabase(cfg, l)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		c.DB = db
		return postgres.NewUserRepoPG(db, l), nil

	case config.DriverMemory:
		l.Warn("using in-memory user store; data is lost on restart")
		return memory.NewUserRepo(l), nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// Close closes all resources held by the container
func (c *Container) Close() error {
	var errs []error

	// Close Redis connection
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Redis: %w", err))
		}
	}

	if c.Mongo != nil {
		if err := infrastructure.CloseMongo(c.Mongo, 5*time.Second); err != nil {
			errs = append(errs, err)
		}
	}

	// Close database connection
	if c.DB != nil {
		if err := infrastructure.CloseDatabase(c.DB); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("container close errors: %v", errs)
	}

	return nil
}
