package config

import (
	"os"
	"strings"
	"time"

	"github.com/vancomm/minefield/internal/agent"
)

// Agent configures the simulated players.
type Agent struct {
	// Bots names the bots to run. nil runs every default bot, an empty
	// slice runs none.
	Bots   []string
	Tick   time.Duration
	Policy agent.Config
}

func NewAgent() (*Agent, error) {
	a := &Agent{Policy: agent.DefaultConfig()}

	if s, ok := os.LookupEnv("AGENT_BOTS"); ok {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "", "0", "none":
			a.Bots = []string{}
		case "all":
		default:
			a.Bots = splitList(s)
		}
	}

	var err error
	if a.Tick, err = lookupDuration("AGENT_TICK", 250*time.Millisecond); err != nil {
		return nil, err
	}

	p := &a.Policy
	for _, v := range []struct {
		key string
		dst *int
	}{
		{"VISION_RANGE", &p.VisionRange},
		{"AGENT_SOLVED_RADIUS", &p.SolvedRadius},
		{"AGENT_NEARBY_RADIUS", &p.NearbyRadius},
		{"AGENT_COLD_START_RADIUS", &p.ColdStartRadius},
		{"AGENT_EXPLORE_STRIDE", &p.ExploreStride},
		{"AGENT_EXPLORE_AREA", &p.ExploreArea},
		{"AGENT_EXPLORE_BONUS", &p.ExploreBonus},
	} {
		if *v.dst, err = lookupInt(v.key, *v.dst); err != nil {
			return nil, err
		}
	}
	if p.ExploreColdChance, err = lookupFloat("AGENT_EXPLORE_COLD_CHANCE", p.ExploreColdChance); err != nil {
		return nil, err
	}
	if p.PaceMin, err = lookupDuration("AGENT_PACE_MIN", p.PaceMin); err != nil {
		return nil, err
	}
	if p.PaceMax, err = lookupDuration("AGENT_PACE_MAX", p.PaceMax); err != nil {
		return nil, err
	}
	return a, nil
}

// Enabled reports whether the named bot should run.
func (a Agent) Enabled(name string) bool {
	if a.Bots == nil {
		return true
	}
	for _, b := range a.Bots {
		if strings.EqualFold(b, name) {
			return true
		}
	}
	return false
}
