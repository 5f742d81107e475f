package trace

// TraceSummary aggregates statistics from a SessionTrace.
type TraceSummary struct {
	TotalRequests      int                `json:"total_requests"`
	ResolutionFailures int                `json:"resolution_failures"`
	UnexpectedFailures int                `json:"unexpected_failures"`
	Canceled           int                `json:"canceled"`
	Assigned           int                `json:"assigned"`
	Forecasts          int                `json:"forecasts"`
	Classifications    map[string]int     `json:"classifications"`
	ClassShares        map[string]float64 `json:"class_shares"`
	DeferralRate       float64            `json:"deferral_rate"`
	MeanWaitSeconds    float64            `json:"mean_wait_seconds"` // over deferred assignments only
	MaxWaitSeconds     float64            `json:"max_wait_seconds"`
	MinDistanceMeters  int                `json:"min_distance_meters"`
	MeanDistanceMeters float64            `json:"mean_distance_meters"`
	MaxDistanceMeters  int                `json:"max_distance_meters"`
	SpotDistribution   map[string]int     `json:"spot_distribution"` // spot name → times assigned
}

// Summarize computes aggregate statistics from a SessionTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SessionTrace) *TraceSummary {
	summary := &TraceSummary{
		Classifications:  make(map[string]int),
		ClassShares:      make(map[string]float64),
		SpotDistribution: make(map[string]int),
	}
	if st == nil {
		return summary
	}

	summary.TotalRequests = len(st.Resolutions)
	for _, r := range st.Resolutions {
		if !r.Matched {
			summary.ResolutionFailures++
		}
	}
	for _, f := range st.Failures {
		if f.Canceled {
			summary.Canceled++
		} else {
			summary.UnexpectedFailures++
		}
	}

	summary.Forecasts = len(st.Forecasts)
	deferred := 0
	for _, f := range st.Forecasts {
		summary.Classifications[f.Classification]++
		if f.Deferred {
			deferred++
		}
	}
	if summary.Forecasts > 0 {
		for class, n := range summary.Classifications {
			summary.ClassShares[class] = float64(n) / float64(summary.Forecasts)
		}
		summary.DeferralRate = float64(deferred) / float64(summary.Forecasts)
	}

	summary.Assigned = len(st.Assignments)
	if summary.Assigned > 0 {
		totalDist := 0
		totalWait := 0.0
		waited := 0
		summary.MinDistanceMeters = st.Assignments[0].DistanceMeters
		for _, a := range st.Assignments {
			summary.SpotDistribution[a.SpotName]++
			totalDist += a.DistanceMeters
			if a.DistanceMeters < summary.MinDistanceMeters {
				summary.MinDistanceMeters = a.DistanceMeters
			}
			if a.DistanceMeters > summary.MaxDistanceMeters {
				summary.MaxDistanceMeters = a.DistanceMeters
			}
			if a.WaitedSeconds > 0 {
				waited++
				totalWait += a.WaitedSeconds
				if a.WaitedSeconds > summary.MaxWaitSeconds {
					summary.MaxWaitSeconds = a.WaitedSeconds
				}
			}
		}
		summary.MeanDistanceMeters = float64(totalDist) / float64(summary.Assigned)
		if waited > 0 {
			summary.MeanWaitSeconds = totalWait / float64(waited)
		}
	}

	return summary
}
