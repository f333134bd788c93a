package user

import (
	"math"
	"sort"
	"time"
)

const (
	// MaxRents is the rental count at which the rents component saturates.
	MaxRents = 100
	// MaxComponent is the ceiling of each normalized component.
	MaxComponent = 5.0

	ratingWeight   = 0.6
	rentsWeight    = 0.3
	activityWeight = 0.1

	// activityDecayMillis is one week in milliseconds.
	activityDecayMillis = float64(7 * 24 * time.Hour / time.Millisecond)
)

// ScoredUser is a user carrying its computed potential score.
type ScoredUser struct {
	User
	PotentialScore float64
}

// NormalizedRents maps a rental count onto [0, MaxComponent] for non-negative counts.
func NormalizedRents(rents int64) float64 {
	return math.Min(float64(rents)/MaxRents*MaxComponent, MaxComponent)
}

// NormalizedActivity loses one point per week since the last activity, floored at 0.
// ageMillis is in milliseconds. Activity stamped in the future still scores at most MaxComponent.
func NormalizedActivity(ageMillis float64) float64 {
	weeks := ageMillis / activityDecayMillis
	return math.Min(math.Max(MaxComponent-weeks, 0), MaxComponent)
}

// PotentialScore computes the composite ranking metric for u at the given instant.
// An unset activity timestamp counts as the epoch. The age is taken in float64
// so timestamps centuries away cannot wrap around.
func PotentialScore(u User, now time.Time) float64 {
	age := float64(now.UnixMilli()) - float64(u.RecentlyActive.Millis())
	return ratingWeight*u.TotalAverageWeightRatings +
		rentsWeight*NormalizedRents(u.NumberOfRents) +
		activityWeight*NormalizedActivity(age)
}

// RankByPotential scores every user and orders them by score, highest first.
// Equal scores keep their input order.
func RankByPotential(users []User, now time.Time) []ScoredUser {
	ranked := make([]ScoredUser, len(users))
	for i, u := range users {
		ranked[i] = ScoredUser{User: u, PotentialScore: PotentialScore(u, now)}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].PotentialScore > ranked[j].PotentialScore
	})
	return ranked
}

// PageAfter drops every ranked user up to and including the one whose ID is
// cursor, then returns at most limit users plus the ID of the last one.
// An empty or unknown cursor starts from the top.
func PageAfter(ranked []ScoredUser, cursor string, limit int) ([]ScoredUser, string) {
	if cursor != "" {
		for i := range ranked {
			if ranked[i].ID == cursor {
				ranked = ranked[i+1:]
				break
			}
		}
	}

	if limit < 0 {
		limit = 0
	}
	if limit < len(ranked) {
		ranked = ranked[:limit]
	}
	if len(ranked) == 0 {
		return ranked, ""
	}
	return ranked, ranked[len(ranked)-1].ID
}
