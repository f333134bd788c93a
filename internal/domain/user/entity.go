package user

// User represents a user entity in the directory.
type User struct {
	ID                        string    `json:"id"`                        // ID is assigned by the store
	Name                      string    `json:"name"`                      // Name is the display name of the user
	Email                     string    `json:"email"`                     // Email is the contact address of the user
	TotalAverageWeightRatings float64   `json:"totalAverageWeightRatings"` // TotalAverageWeightRatings is the rating aggregate
	NumberOfRents             int64     `json:"numberOfRents"`             // NumberOfRents is the rental count
	RecentlyActive            Timestamp `json:"recentlyActive"`            // RecentlyActive is the last-activity time
	CreatedAt                 Timestamp `json:"createdAt"`
	UpdatedAt                 Timestamp `json:"updatedAt"`
}

// Fields is a partial update. Nil fields are left untouched.
type Fields struct {
	Name                      *string
	Email                     *string
	TotalAverageWeightRatings *float64
	NumberOfRents             *int64
	UpdatedAt                 *Timestamp
	RecentlyActive            *Timestamp
}

// IsEmpty reports whether the update carries no caller-supplied field.
func (f Fields) IsEmpty() bool {
	return f.Name == nil && f.Email == nil &&
		f.TotalAverageWeightRatings == nil && f.NumberOfRents == nil
}

// Apply copies the non-nil fields onto u.
func (f Fields) Apply(u *User) {
	if f.Name != nil {
		u.Name = *f.Name
	}
	if f.Email != nil {
		u.Email = *f.Email
	}
	if f.TotalAverageWeightRatings != nil {
		u.TotalAverageWeightRatings = *f.TotalAverageWeightRatings
	}
	if f.NumberOfRents != nil {
		u.NumberOfRents = *f.NumberOfRents
	}
	if f.UpdatedAt != nil {
		u.UpdatedAt = *f.UpdatedAt
	}
	if f.RecentlyActive != nil {
		u.RecentlyActive = *f.RecentlyActive
	}
}
