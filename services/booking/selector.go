package booking

import "bikebooker/models"

// SelectionCriteria holds the eligibility thresholds for bike candidates.
// Values come from configuration; defaults match the historic behaviour.
type SelectionCriteria struct {
	MinBatteryPercent float64
	MaxDistanceMeters float64
}

// DefaultSelectionCriteria returns the standard thresholds.
func DefaultSelectionCriteria() SelectionCriteria {
	return SelectionCriteria{MinBatteryPercent: 25, MaxDistanceMeters: 400}
}

// qualifies reports whether a candidate meets both thresholds.
func (c SelectionCriteria) qualifies(bike models.BikeCandidate) bool {
	return bike.BatteryPercent >= c.MinBatteryPercent &&
		bike.DistanceMeters <= c.MaxDistanceMeters
}

// SelectBest returns the qualifying candidate with the minimum distance, or
// nil when no candidate qualifies. Ties are broken by input order, first
// occurrence wins, so selection is deterministic.
func SelectBest(candidates []models.BikeCandidate, criteria SelectionCriteria) *models.BikeCandidate {
	var best *models.BikeCandidate
	for i := range candidates {
		if !criteria.qualifies(candidates[i]) {
			continue
		}
		if best == nil || candidates[i].DistanceMeters < best.DistanceMeters {
			best = &candidates[i]
		}
	}
	return best
}
