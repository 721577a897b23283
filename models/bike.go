package models

// BikeCandidate is a bicycle reported by the rental network near the requested
// coordinates. Candidates are produced per search attempt and discarded after
// selection; they are never persisted.
type BikeCandidate struct {
	ID             int     `json:"id"`
	Label          string  `json:"name"`
	Address        string  `json:"address"`
	DistanceMeters float64 `json:"distance"`
	BatteryPercent float64 `json:"ebike_battery_level"`
}
