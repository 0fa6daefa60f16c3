package fpl

import (
	"fmt"

	"github.com/richard-senior/fplodds/internal/logger"
)

// StrengthProfile holds a team's venue means relative to the league averages.
// 1.0 is league average. For defence a lower value is better
type StrengthProfile struct {
	TeamID      int    `json:"teamId"`
	AttackHome  Metric `json:"attackHome"`
	AttackAway  Metric `json:"attackAway"`
	DefenceHome Metric `json:"defenceHome"`
	DefenceAway Metric `json:"defenceAway"`
}

// CalculateStrengthProfiles returns one profile per team, in the order of stats.
// A ratio is undefined when the team has no games at that venue
func CalculateStrengthProfiles(stats []TeamStats, avg LeagueAverages) []StrengthProfile {
	ret := make([]StrengthProfile, 0, len(stats))
	for _, ts := range stats {
		p := StrengthProfile{
			TeamID:      ts.Team.ID,
			AttackHome:  ts.Home.ScoredPerGame.ratio(avg.HomeScored),
			AttackAway:  ts.Away.ScoredPerGame.ratio(avg.AwayScored),
			DefenceHome: ts.Home.ConcededPerGame.ratio(avg.HomeConceded),
			DefenceAway: ts.Away.ConcededPerGame.ratio(avg.AwayConceded),
		}
		if err := p.Err(); err != nil {
			logger.Warn("Strength profile incomplete for", ts.Team.ShortName, err)
		}
		ret = append(ret, p)
	}
	return ret
}

// Err reports the first undefined ratio, or nil when the profile is complete
func (p StrengthProfile) Err() error {
	ratios := []struct {
		name string
		m    Metric
	}{
		{"attack home", p.AttackHome},
		{"attack away", p.AttackAway},
		{"defence home", p.DefenceHome},
		{"defence away", p.DefenceAway},
	}
	for _, r := range ratios {
		if err := requireDefined(p.TeamID, r.name, r.m); err != nil {
			return err
		}
	}
	return nil
}

func requireDefined(teamID int, name string, m Metric) error {
	if m.Valid {
		return nil
	}
	return fmt.Errorf("%w: team %d has no %s ratio: %w", ErrUndefinedStrength, teamID, name, ErrInsufficientData)
}
