package agent

import "time"

// Config holds the tunables of the move policy.
type Config struct {
	// VisionRange is the half side of the square window a player's
	// knowledge is kept for.
	VisionRange int
	// SolvedRadius bounds the local "is this area done" check.
	SolvedRadius int
	// NearbyRadius is how far to look for revealed cells before the cold
	// start kicks in.
	NearbyRadius    int
	ColdStartRadius int

	ExploreStride     int
	ExploreArea       int
	ExploreBonus      int
	ExploreColdChance float64

	// PaceMin and PaceMax bound the randomized delay between two actions
	// of the same player.
	PaceMin, PaceMax time.Duration
}

func DefaultConfig() Config {
	return Config{
		VisionRange:       20,
		SolvedRadius:      8,
		NearbyRadius:      5,
		ColdStartRadius:   2,
		ExploreStride:     5,
		ExploreArea:       5,
		ExploreBonus:      10,
		ExploreColdChance: 0.3,
		PaceMin:           time.Second,
		PaceMax:           5 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.VisionRange <= 0 {
		c.VisionRange = def.VisionRange
	}
	if c.SolvedRadius <= 0 {
		c.SolvedRadius = def.SolvedRadius
	}
	if c.NearbyRadius <= 0 {
		c.NearbyRadius = def.NearbyRadius
	}
	if c.ColdStartRadius <= 0 {
		c.ColdStartRadius = def.ColdStartRadius
	}
	if c.ExploreStride <= 0 {
		c.ExploreStride = def.ExploreStride
	}
	if c.ExploreArea <= 0 {
		c.ExploreArea = def.ExploreArea
	}
	if c.PaceMax < c.PaceMin {
		c.PaceMax = c.PaceMin
	}
	return c
}
