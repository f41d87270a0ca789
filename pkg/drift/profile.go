package drift

import "github.com/threadworksco/strata/pkg/thread"

// Tier thresholds. Hand-tuned defaults carried over from the source
// policy; see the configuration surface for per-run overrides of the
// routing thresholds that feed them.
const (
	quarantineTierRatio = 0.20
	lowTierDrift        = 50.0
	lowTierPrimaryRatio = 0.60
	mediumTierDrift     = 30.0
	mediumSandboxRatio  = 0.30
)

// aggregate computes the thread drift profile from the per-message
// analyses. A thread with zero messages yields drift 0 and tier high by
// convention.
func (a *Analyzer) aggregate(t *thread.Thread, analyses []Analysis, anchorCount int) *thread.ThreadDriftProfile {
	profile := &thread.ThreadDriftProfile{
		ThreadID:      t.ID,
		PatternCounts: make(map[string]int),
		MessageCount:  len(t.Messages),
		Tier:          thread.TierHigh,
		Strategy:      thread.StrategyFull,
	}

	if len(analyses) == 0 {
		return profile
	}

	var (
		total      float64
		primary    int
		sandbox    int
		quarantine int
	)

	for _, an := range analyses {
		total += an.Score

		switch an.Destination {
		case thread.DestinationPrimary:
			primary++
		case thread.DestinationSandbox:
			sandbox++
		case thread.DestinationQuarantine:
			quarantine++
		}

		// Each category counts at most once per message.
		seen := make(map[PatternCategory]bool)
		for _, o := range an.Observations {
			if seen[o.Category] {
				continue
			}
			seen[o.Category] = true
			profile.PatternCounts[string(o.Category)]++
		}
	}

	n := float64(len(analyses))
	profile.OverallDrift = total / n
	profile.CorrectionDensity = float64(anchorCount) / n

	switch {
	case float64(quarantine)/n > quarantineTierRatio:
		profile.Tier = thread.TierQuarantine
	case profile.OverallDrift > lowTierDrift || float64(primary)/n < lowTierPrimaryRatio:
		profile.Tier = thread.TierLow
	case profile.OverallDrift > mediumTierDrift || float64(sandbox)/n > mediumSandboxRatio:
		profile.Tier = thread.TierMedium
	default:
		profile.Tier = thread.TierHigh
	}

	profile.Strategy = thread.StrategyForTier(profile.Tier)
	return profile
}
