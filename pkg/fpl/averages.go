package fpl

import (
	"fmt"
)

// LeagueAverages are the league-wide means of the per-team venue means.
// HomeTeams and AwayTeams count the teams that contributed at each venue
type LeagueAverages struct {
	HomeScored   float64 `json:"homeScored"`
	HomeConceded float64 `json:"homeConceded"`
	AwayScored   float64 `json:"awayScored"`
	AwayConceded float64 `json:"awayConceded"`
	HomeTeams    int     `json:"homeTeams"`
	AwayTeams    int     `json:"awayTeams"`
}

// meanOf accumulates an unweighted mean over defined metrics only
type meanOf struct {
	sum float64
	n   int
}

func (m *meanOf) add(v Metric) {
	if f, ok := v.Get(); ok {
		m.sum += f
		m.n++
	}
}

func (m *meanOf) result(name string) (float64, error) {
	if m.n == 0 {
		return 0, fmt.Errorf("%w: no team has a defined %s mean", ErrInsufficientData, name)
	}
	return m.sum / float64(m.n), nil
}

// CalculateLeagueAverages takes the unweighted mean across teams of each team's venue means.
// Teams without games at a venue are left out of that venue's averages rather than counted as zero
func CalculateLeagueAverages(stats []TeamStats) (LeagueAverages, error) {
	var homeScored, homeConceded, awayScored, awayConceded meanOf

	// roster order keeps the floating point sums reproducible
	for _, ts := range stats {
		homeScored.add(ts.Home.ScoredPerGame)
		homeConceded.add(ts.Home.ConcededPerGame)
		awayScored.add(ts.Away.ScoredPerGame)
		awayConceded.add(ts.Away.ConcededPerGame)
	}

	var ret LeagueAverages
	var err error
	if ret.HomeScored, err = homeScored.result("home scored"); err != nil {
		return LeagueAverages{}, err
	}
	if ret.HomeConceded, err = homeConceded.result("home conceded"); err != nil {
		return LeagueAverages{}, err
	}
	if ret.AwayScored, err = awayScored.result("away scored"); err != nil {
		return LeagueAverages{}, err
	}
	if ret.AwayConceded, err = awayConceded.result("away conceded"); err != nil {
		return LeagueAverages{}, err
	}
	ret.HomeTeams = homeScored.n
	ret.AwayTeams = awayScored.n
	return ret, nil
}
