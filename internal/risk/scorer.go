// Package risk maps raw pair activity signals to a discrete risk level.
package risk

// Level is an ordered severity band.
type Level string

const (
	LevelLow      Level = "LOW"
	LevelModerate Level = "MODERATE"
	LevelHigh     Level = "HIGH"
	LevelSevere   Level = "SEVERE"
)

// Assessment is the banded result plus a 1-5 integer score.
type Assessment struct {
	Level Level
	Score int
}

// Score combines bot activity, sandwich frequency, gas competition and pool
// liquidity into an additive point total, then bands it. Each factor is
// independent; the two liquidity thresholds stack, so a pool under 100k USD
// collects both the sub-500k and sub-100k points.
func Score(botActivityScore float64, sandwichCount int, avgGasGwei, liquidityUSD float64) Assessment {
	points := 0.0

	// Factor 1: bot activity score (0-1)
	if botActivityScore > 0.7 {
		points += 2
	} else if botActivityScore > 0.4 {
		points += 1
	}

	// Factor 2: sandwich frequency over the last 5 minutes
	if sandwichCount > 5 {
		points += 2
	} else if sandwichCount > 2 {
		points += 1
	}

	// Factor 3: gas competition
	if avgGasGwei > 100 {
		points += 1
	} else if avgGasGwei > 75 {
		points += 0.5
	}

	// Factor 4: pool liquidity, both bands additive
	if liquidityUSD < 500_000 {
		points += 1
	}
	if liquidityUSD < 100_000 {
		points += 1.5
	}

	if points < 0 {
		points = 0
	}

	// Half-open bands: a total sitting exactly on a boundary belongs to the
	// band above it.
	switch {
	case points < 1:
		return Assessment{Level: LevelLow, Score: 1}
	case points < 2:
		return Assessment{Level: LevelLow, Score: 2}
	case points < 3:
		return Assessment{Level: LevelModerate, Score: 3}
	case points < 4:
		return Assessment{Level: LevelHigh, Score: 4}
	default:
		return Assessment{Level: LevelSevere, Score: 5}
	}
}
