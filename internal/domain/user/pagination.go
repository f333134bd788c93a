package user

import "fmt"

// SortMode selects the ranking strategy of a listing.
type SortMode string

// Supported sort modes.
const (
	SortPotential SortMode = "potential"
	SortRatings   SortMode = "ratings"
	SortRents     SortMode = "rents"
	SortActivity  SortMode = "activity"
)

// SortField is the name of a persisted field a listing can be ordered by.
type SortField string

// Persisted sort fields.
const (
	FieldRatings  SortField = "totalAverageWeightRatings"
	FieldRents    SortField = "numberOfRents"
	FieldActivity SortField = "recentlyActive"
)

var sortFields = map[SortMode]SortField{
	SortRatings:  FieldRatings,
	SortRents:    FieldRents,
	SortActivity: FieldActivity,
}

// ParseSortMode converts a query value into a SortMode. Empty means potential.
func ParseSortMode(s string) (SortMode, error) {
	switch m := SortMode(s); m {
	case "":
		return SortPotential, nil
	case SortPotential, SortRatings, SortRents, SortActivity:
		return m, nil
	default:
		return "", fmt.Errorf("unsupported sort mode %q", s)
	}
}

// Field returns the persisted field a field-sort mode orders by.
// It returns false for the potential mode, which has no stored counterpart.
func (m SortMode) Field() (SortField, bool) {
	f, ok := sortFields[m]
	return f, ok
}
