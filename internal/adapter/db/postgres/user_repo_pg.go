package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"user-directory-service/internal/domain/user"
	apperrors "user-directory-service/pkg/errors"
)

// UserRepoPG implements the Repository interface using GORM. It runs on
// PostgreSQL in production and on SQLite for local setups and tests.
type UserRepoPG struct {
	db  *gorm.DB    // GORM database connection
	log *zap.Logger // Structured logger for database operations
}

// NewUserRepoPG creates a new instance of UserRepoPG.
func NewUserRepoPG(db *gorm.DB, log *zap.Logger) *UserRepoPG {
	return &UserRepoPG{db: db, log: log}
}

// UserSchema represents the database schema for the users table.
// Timestamps are epoch milliseconds written by the application.
type UserSchema struct {
	ID                        string  `gorm:"primaryKey;size:64"`
	Name                      string  `gorm:"not null"`
	Email                     string  `gorm:"not null"`
	TotalAverageWeightRatings float64 `gorm:"not null;default:0;index"`
	NumberOfRents             int64   `gorm:"not null;default:0;index"`
	RecentlyActive            int64   `gorm:"not null;default:0;index"`
	CreatedAt                 int64   `gorm:"not null;default:0;autoCreateTime:false"`
	UpdatedAt                 int64   `gorm:"not null;default:0;autoUpdateTime:false"`
}

// TableName specifies the table name for the UserSchema model.
func (UserSchema) TableName() string {
	return "users"
}

func (m UserSchema) toDomain() user.User {
	return user.User{
		ID:                        m.ID,
		Name:                      m.Name,
		Email:                     m.Email,
		TotalAverageWeightRatings: m.TotalAverageWeightRatings,
		NumberOfRents:             m.NumberOfRents,
		RecentlyActive:            user.Timestamp(m.RecentlyActive),
		CreatedAt:                 user.Timestamp(m.CreatedAt),
		UpdatedAt:                 user.Timestamp(m.UpdatedAt),
	}
}

// columns maps sort fields onto table columns.
var columns = map[user.SortField]string{
	user.FieldRatings:  "total_average_weight_ratings",
	user.FieldRents:    "number_of_rents",
	user.FieldActivity: "recently_active",
}

// Migrate creates or updates the users table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&UserSchema{})
}

// Create inserts a new user into the database.
func (r *UserRepoPG) Create(ctx context.Context, u *user.User) (string, error) {
	if u == nil {
		return "", errors.New("user cannot be nil")
	}

	model := UserSchema{
		ID:                        u.ID,
		Name:                      u.Name,
		Email:                     u.Email,
		TotalAverageWeightRatings: u.TotalAverageWeightRatings,
		NumberOfRents:             u.NumberOfRents,
		RecentlyActive:            u.RecentlyActive.Millis(),
		CreatedAt:                 u.CreatedAt.Millis(),
		UpdatedAt:                 u.UpdatedAt.Millis(),
	}
	if model.ID == "" {
		model.ID = uuid.NewString()
	}

	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		r.log.Error("failed to create user in db", zap.Error(err), zap.String("email", u.Email))
		return "", fmt.Errorf("failed to create user: %w", err)
	}

	r.log.Info("user created in db", zap.String("id", model.ID))
	return model.ID, nil
}

// GetByID retrieves a user from the database by their unique ID.
func (r *UserRepoPG) GetByID(ctx context.Context, id string) (*user.User, error) {
	var model UserSchema
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("user", fmt.Sprintf("user not found: id=%s", id))
		}
		r.log.Error("failed to get user from db", zap.Error(err), zap.String("id", id))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	u := model.toDomain()
	return &u, nil
}

// Update writes the non-nil fields of f.
func (r *UserRepoPG) Update(ctx context.Context, id string, f user.Fields) error {
	updates := updateMap(f)
	if len(updates) == 0 {
		return nil
	}

	res := r.db.WithContext(ctx).Model(&UserSchema{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		r.log.Error("failed to update user in db", zap.Error(res.Error), zap.String("id", id))
		return fmt.Errorf("failed to update user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NewNotFoundError("user", fmt.Sprintf("user not found: id=%s", id))
	}

	r.log.Debug("user updated in db", zap.String("id", id), zap.Int("fields", len(updates)))
	return nil
}

// Delete removes a user from the database by ID.
func (r *UserRepoPG) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&UserSchema{})
	if res.Error != nil {
		r.log.Error("failed to delete user in db", zap.Error(res.Error), zap.String("id", id))
		return fmt.Errorf("failed to delete user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NewNotFoundError("user", fmt.Sprintf("user not found: id=%s", id))
	}

	r.log.Info("user deleted in db", zap.String("id", id))
	return nil
}

// ListAll returns every user ordered by ID.
func (r *UserRepoPG) ListAll(ctx context.Context) ([]user.User, error) {
	var models []UserSchema
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&models).Error; err != nil {
		r.log.Error("failed to list users from db", zap.Error(err))
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return toDomainList(models), nil
}

// ListOrdered runs a keyset query on field descending, id ascending.
func (r *UserRepoPG) ListOrdered(ctx context.Context, field user.SortField, afterID string, limit int) ([]user.User, error) {
	col, ok := columns[field]
	if !ok {
		return nil, fmt.Errorf("unsupported sort field %q", field)
	}
	if limit <= 0 {
		return []user.User{}, nil
	}

	q := r.db.WithContext(ctx).Model(&UserSchema{})

	if afterID != "" {
		var cursor UserSchema
		err := r.db.WithContext(ctx).Where("id = ?", afterID).Take(&cursor).Error
		switch {
		case err == nil:
			value := columnValue(cursor, field)
			q = q.Where(fmt.Sprintf("%s < ? OR (%s = ? AND id > ?)", col, col), value, value, cursor.ID)
		case errors.Is(err, gorm.ErrRecordNotFound):
			r.log.Debug("cursor row not found, listing from the start", zap.String("cursor", afterID))
		default:
			return nil, fmt.Errorf("failed to load cursor row: %w", err)
		}
	}

	var models []UserSchema
	err := q.Order(clause.OrderBy{Columns: []clause.OrderByColumn{
		{Column: clause.Column{Name: col}, Desc: true},
		{Column: clause.Column{Name: "id"}},
	}}).Limit(limit).Find(&models).Error
	if err != nil {
		r.log.Error("failed to list ordered users from db", zap.Error(err), zap.String("field", string(field)))
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return toDomainList(models), nil
}

func columnValue(m UserSchema, field user.SortField) any {
	switch field {
	case user.FieldRatings:
		return m.TotalAverageWeightRatings
	case user.FieldRents:
		return m.NumberOfRents
	default:
		return m.RecentlyActive
	}
}

func updateMap(f user.Fields) map[string]any {
	updates := make(map[string]any)
	if f.Name != nil {
		updates["name"] = *f.Name
	}
	if f.Email != nil {
		updates["email"] = *f.Email
	}
	if f.TotalAverageWeightRatings != nil {
		updates["total_average_weight_ratings"] = *f.TotalAverageWeightRatings
	}
	if f.NumberOfRents != nil {
		updates["number_of_rents"] = *f.NumberOfRents
	}
	if f.UpdatedAt != nil {
		updates["updated_at"] = f.UpdatedAt.Millis()
	}
	if f.RecentlyActive != nil {
		updates["recently_active"] = f.RecentlyActive.Millis()
	}
	return updates
}

func toDomainList(models []UserSchema) []user.User {
	users := make([]user.User, len(models))
	for i, m := range models {
		users[i] = m.toDomain()
	}
	return users
}
