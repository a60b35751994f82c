package workout

import (
	"math"
)

const (
	// defaultTargetReps is assumed when a caller does not supply a rep target.
	defaultTargetReps = 8
	// weightStableWindowKg is how close two top-set weights must be to count
	// as training at the same weight.
	weightStableWindowKg = 5.0
	// heavyThresholdKg splits the small and large progression increments.
	heavyThresholdKg = 100.0
	heavyIncrementKg = 5.0
	lightIncrementKg = 2.5
	// decreaseFraction of the current weight is shaved off after repeated
	// failed sessions.
	decreaseFraction = 0.10
)

// EstimatedOneRepMax estimates a one-rep max with the Epley formula,
// rounded to one decimal. A single rep is already a max attempt, so the
// weight is returned as-is.
func EstimatedOneRepMax(weightKg float64, reps int) float64 {
	if reps <= 1 {
		return weightKg
	}
	return math.Round(weightKg*(1+float64(reps)/30)*10) / 10
}

// TotalVolume sums reps times weight across the given sets.
func TotalVolume(sets []SetEntry) float64 {
	var total float64
	for _, set := range sets {
		total += float64(set.Reps) * set.WeightKg
	}
	return total
}

// exercisePerformance condenses one session's work on an exercise into its
// top set's weight and reps.
type exercisePerformance struct {
	weightKg float64
	reps     int
}

// progressionAdvice inspects the two most recent performances (newest first)
// and recommends the next weight. The heuristic only trusts a pattern when
// it repeats: two sessions at a stable weight hitting the rep target earn an
// increase, two sessions well under the target earn a deload, anything else
// holds steady.
func progressionAdvice(history []exercisePerformance, targetReps int) Suggestion {
	if targetReps <= 0 {
		targetReps = defaultTargetReps
	}

	if len(history) < 2 {
		return Suggestion{
			Kind:   SuggestionInsufficient,
			Reason: "Need more data",
		}
	}

	latest := history[0]
	previous := history[1]

	weightStable := math.Abs(latest.weightKg-previous.weightKg) < weightStableWindowKg
	hittingTarget := latest.reps >= targetReps && previous.reps >= targetReps
	struggling := latest.reps < targetReps-2 && previous.reps < targetReps-2

	switch {
	case weightStable && hittingTarget:
		increment := lightIncrementKg
		if latest.weightKg > heavyThresholdKg {
			increment = heavyIncrementKg
		}
		return Suggestion{
			Kind:        SuggestionIncrease,
			NewWeightKg: latest.weightKg + increment,
			AmountKg:    increment,
			Reason:      "Hit target reps 2+ sessions at this weight",
		}
	case struggling:
		amount := math.Round(latest.weightKg * decreaseFraction)
		return Suggestion{
			Kind:        SuggestionDecrease,
			NewWeightKg: math.Max(0, latest.weightKg-amount),
			AmountKg:    amount,
			Reason:      "Under target by 3+ reps recently",
		}
	default:
		return Suggestion{
			Kind:   SuggestionMaintain,
			Reason: "Keep building consistency at this weight",
		}
	}
}
