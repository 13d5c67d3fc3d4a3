package gamification

import (
	"math"

	"doodoologserver/internal/domain"
)

const (
	BaseXP           = 50
	BloodPenalty     = -50
	XPPerLevel       = 500
	PrestigeLevelReq = 55
	WeightRate       = 0.2 // XP per gram
)

var sizeMultipliers = map[domain.LogSize]float64{
	domain.LogSizeSmall:   1.0,
	domain.LogSizeMedium:  1.2,
	domain.LogSizeLarge:   1.5,
	domain.LogSizeMassive: 2.0,
}

// Types 3 and 4 are the healthy middle of the scale and earn the top
// multiplier; the extremes stay at baseline.
var typeMultipliers = map[domain.BristolType]float64{
	domain.BristolType1: 1.0,
	domain.BristolType2: 1.1,
	domain.BristolType3: 1.5,
	domain.BristolType4: 1.5,
	domain.BristolType5: 1.1,
	domain.BristolType6: 1.0,
	domain.BristolType7: 1.0,
}

// ComputeXP scores one log entry. The steps are order-sensitive: size and
// type multipliers round after each step, the weight bonus is additive,
// and the blood penalty lands last, after all multiplication.
func ComputeXP(entry domain.LogEntry) int {
	xp := float64(BaseXP)

	if m, ok := sizeMultipliers[entry.Size]; ok {
		xp = math.Round(xp * m)
	}

	if m, ok := typeMultipliers[entry.Type]; ok {
		xp = math.Round(xp * m)
	}

	if entry.WeightGrams != nil && *entry.WeightGrams > 0 {
		xp += math.Round(*entry.WeightGrams * WeightRate)
	}

	if entry.HasBlood {
		xp += BloodPenalty
	}

	if xp < 0 {
		return 0
	}
	return int(xp)
}
