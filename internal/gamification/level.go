package gamification

// LevelInfo is derived from total XP; it is never stored.
type LevelInfo struct {
	Level      int `json:"level"`
	Progress   int `json:"progress"`
	XPPerLevel int `json:"xp_per_level"`
}

// ComputeLevel maps cumulative XP to a 1-indexed level and the XP earned
// within the current level.
func ComputeLevel(totalXP int) LevelInfo {
	if totalXP < 0 {
		totalXP = 0
	}
	level := totalXP/XPPerLevel + 1
	return LevelInfo{
		Level:      level,
		Progress:   totalXP - (level-1)*XPPerLevel,
		XPPerLevel: XPPerLevel,
	}
}

// PrestigeEligible reports whether the user may reset XP for a prestige
// badge.
func PrestigeEligible(totalXP int) bool {
	return ComputeLevel(totalXP).Level >= PrestigeLevelReq
}
