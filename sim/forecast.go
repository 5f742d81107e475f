package sim

// Classification is the simulated demand regime for a request.
type Classification string

const (
	ClassHighDemand  Classification = "HIGH_DEMAND"
	ClassModerate    Classification = "MODERATE"
	ClassRegimeShift Classification = "REGIME_SHIFT"
)

const (
	// highDemandThreshold and moderateThreshold split [0,1) into 30/30/40.
	highDemandThreshold = 0.7
	moderateThreshold   = 0.4

	// MinDeferSeconds and MaxDeferSeconds bound the drawn wait, inclusive.
	MinDeferSeconds = 4
	MaxDeferSeconds = 8
)

// ForecastOutcome is the per-request decision: whether to commit now or defer.
type ForecastOutcome struct {
	Classification Classification `json:"classification"`
	Label          string         `json:"label"`
	ShouldDefer    bool           `json:"shouldDefer"`
	WaitSeconds    float64        `json:"waitSeconds"` // 0 unless ShouldDefer
	ReasonText     string         `json:"reasonText"`
}

// Simulate draws one integer wait w in [4,8] and one uniform r in [0,1), then
// classifies:
//
//	r > 0.7        HighDemand, commit immediately
//	0.4 < r <= 0.7 Moderate, defer w seconds
//	r <= 0.4       RegimeShift, defer w seconds
func Simulate(rng RandSource) ForecastOutcome {
	wait := float64(rng.Intn(MaxDeferSeconds-MinDeferSeconds+1) + MinDeferSeconds)
	r := rng.Float64()

	switch {
	case r > highDemandThreshold:
		return ForecastOutcome{
			Classification: ClassHighDemand,
			Label:          "Surge (High Demand)",
			ShouldDefer:    false,
			WaitSeconds:    0,
			ReasonText:     "Immediate commit to prevent loss.",
		}
	case r > moderateThreshold:
		return ForecastOutcome{
			Classification: ClassModerate,
			Label:          "Moderate Flow",
			ShouldDefer:    true,
			WaitSeconds:    wait,
			ReasonText:     "Optimization in progress...",
		}
	default:
		return ForecastOutcome{
			Classification: ClassRegimeShift,
			Label:          "Regime Shift",
			ShouldDefer:    true,
			WaitSeconds:    wait,
			ReasonText:     "Awaiting residential release...",
		}
	}
}
