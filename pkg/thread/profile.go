package thread

// Destination is the memory partition a message is routed to.
type Destination string

const (
	DestinationPrimary    Destination = "primary"
	DestinationSandbox    Destination = "sandbox"
	DestinationQuarantine Destination = "quarantine"
)

// ReliabilityTier classifies a whole thread by aggregate drift and
// routing outcomes.
type ReliabilityTier string

const (
	TierHigh       ReliabilityTier = "high"
	TierMedium     ReliabilityTier = "medium"
	TierLow        ReliabilityTier = "low"
	TierQuarantine ReliabilityTier = "quarantine"
)

// IntegrationStrategy determines how a thread's messages may be
// committed to memory.
type IntegrationStrategy string

const (
	StrategyFull        IntegrationStrategy = "full"
	StrategyFiltered    IntegrationStrategy = "filtered"
	StrategySandboxOnly IntegrationStrategy = "sandbox_only"
	StrategyReject      IntegrationStrategy = "reject"
)

// StrategyForTier maps a reliability tier to its integration strategy.
// The mapping is 1:1.
func StrategyForTier(tier ReliabilityTier) IntegrationStrategy {
	switch tier {
	case TierQuarantine:
		return StrategyReject
	case TierLow:
		return StrategySandboxOnly
	case TierMedium:
		return StrategyFiltered
	default:
		return StrategyFull
	}
}

// ThreadDriftProfile is the per-thread aggregate of all message drift
// analyses. Recomputation on reprocessing replaces the prior profile.
type ThreadDriftProfile struct {
	ThreadID          string              `json:"thread_id"`
	OverallDrift      float64             `json:"overall_drift"`
	PatternCounts     map[string]int      `json:"pattern_counts"`
	CorrectionDensity float64             `json:"correction_density"`
	Tier              ReliabilityTier     `json:"reliability_tier"`
	Strategy          IntegrationStrategy `json:"integration_strategy"`
	MessageCount      int                 `json:"message_count"`
}
