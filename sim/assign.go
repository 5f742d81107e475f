package sim

import (
	"fmt"
	"math"
)

const (
	// Walking detour factor drawn uniformly from [1.8, 2.4).
	detourFactorMin  = 1.8
	detourFactorSpan = 0.6

	// Distances below the floor are re-drawn in [300, 379].
	distanceFloor       = 300
	distanceFloorJitter = 80

	// Distances above the cap are re-drawn in [450, 499].
	distanceCap       = 550
	distanceCapBase   = 450
	distanceCapJitter = 50

	walkingMetersPerMin = 75
)

// AssignmentResult is the spot locked for a request.
type AssignmentResult struct {
	SpotName            string      `json:"spotName"`
	Category            Category    `json:"category"`
	FinalDistanceMeters int         `json:"finalDistanceMeters"`
	HubCoordinates      Coordinates `json:"hubCoordinates"`
}

// WalkMinutes is the walking time at an urban pace of 75 m/min, rounded up.
func (a AssignmentResult) WalkMinutes() int {
	return (a.FinalDistanceMeters + walkingMetersPerMin - 1) / walkingMetersPerMin
}

// Select picks a candidate from hub and synthesizes its walking distance.
// Residential and retrofit spots are preferred; when the hub has none the
// whole list is eligible. Candidates carry no coordinates of their own, so
// the result points at the hub.
func Select(hub HubRecord, rng RandSource) (AssignmentResult, error) {
	if len(hub.ParkingCandidates) == 0 {
		return AssignmentResult{}, ErrNoCandidates
	}
	pool := preferredCandidates(hub.ParkingCandidates)
	if len(pool) == 0 {
		pool = hub.ParkingCandidates
	}
	spot := pool[rng.Intn(len(pool))]
	if spot.BaseDistanceMeters <= 0 {
		return AssignmentResult{}, fmt.Errorf("candidate %q has non-positive base distance %d", spot.Name, spot.BaseDistanceMeters)
	}

	return AssignmentResult{
		SpotName:            spot.Name,
		Category:            spot.Category,
		FinalDistanceMeters: ShapeDistance(spot.BaseDistanceMeters, rng),
		HubCoordinates:      hub.Coordinates(),
	}, nil
}

func preferredCandidates(all []ParkingCandidate) []ParkingCandidate {
	var out []ParkingCandidate
	for _, c := range all {
		if c.Category == CategoryResidentialShared || c.Category == CategoryOldCommunityRetrofit {
			out = append(out, c)
		}
	}
	return out
}

// ShapeDistance turns a line-of-sight distance into a walking distance in
// [300, 550]. The raw value floor(base * factor) is kept when already in range;
// short walks are re-drawn in [300, 379] and long ones in [450, 499].
func ShapeDistance(baseMeters int, rng RandSource) int {
	factor := detourFactorMin + rng.Float64()*detourFactorSpan
	raw := int(math.Floor(float64(baseMeters) * factor))

	switch {
	case raw < distanceFloor:
		return distanceFloor + rng.Intn(distanceFloorJitter)
	case raw > distanceCap:
		return distanceCapBase + rng.Intn(distanceCapJitter)
	default:
		return raw
	}
}
