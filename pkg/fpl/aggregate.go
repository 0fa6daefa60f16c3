package fpl

import (
	"fmt"
	"sort"

	"github.com/richard-senior/fplodds/internal/logger"
)

// Venue is where a team played a fixture
type Venue string

const (
	Home Venue = "home"
	Away Venue = "away"
)

// formLength is how many results are kept in SeasonRecord.Form
const formLength = 5

// VenueStats holds a team's tallies and per-game means at one venue
type VenueStats struct {
	Venue           Venue  `json:"venue"`
	Played          int    `json:"played"`
	GoalsScored     int    `json:"goalsScored"`
	GoalsConceded   int    `json:"goalsConceded"`
	ScoredPerGame   Metric `json:"scoredPerGame"`
	ConcededPerGame Metric `json:"concededPerGame"`
	FailedToScore   int    `json:"failedToScore"`
	CleanSheets     int    `json:"cleanSheets"`
	Won             int    `json:"won"`
	Drawn           int    `json:"drawn"`
	Lost            int    `json:"lost"`
}

// SeasonRecord is a team's combined record over both venues
type SeasonRecord struct {
	Played       int    `json:"played"`
	Won          int    `json:"won"`
	Drawn        int    `json:"drawn"`
	Lost         int    `json:"lost"`
	Points       int    `json:"points"`
	GoalsFor     int    `json:"goalsFor"`
	GoalsAgainst int    `json:"goalsAgainst"`
	Form         string `json:"form"` // most recent first
}

// TeamStats is everything the aggregator derives for one team
type TeamStats struct {
	Team   Team         `json:"team"`
	Home   VenueStats   `json:"home"`
	Away   VenueStats   `json:"away"`
	Record SeasonRecord `json:"record"`
}

/////////////////////////////////////////////////////////////////////////
////// Aggregation
/////////////////////////////////////////////////////////////////////////

// Aggregate derives venue stats for every team in the roster from the finished fixtures.
// The result is in roster order. Neither input is modified
func Aggregate(teams []Team, fixtures []Fixture) ([]TeamStats, error) {
	if len(teams) == 0 {
		return nil, fmt.Errorf("%w: no teams in roster", ErrInvalidSnapshot)
	}

	known := make(map[int]bool, len(teams))
	for _, t := range teams {
		if known[t.ID] {
			return nil, fmt.Errorf("%w: duplicate team id %d", ErrInvalidSnapshot, t.ID)
		}
		known[t.ID] = true
	}

	finished, err := finishedFixtures(fixtures, known)
	if err != nil {
		return nil, err
	}

	ret := make([]TeamStats, 0, len(teams))
	for _, t := range teams {
		ret = append(ret, aggregateTeam(t, finished))
	}
	logger.Debug("Aggregated fixtures", len(finished), "for teams", len(teams))
	return ret, nil
}

// finishedFixtures validates and returns the finished fixtures sorted by event then id
// so that form is built in the order the games were played
func finishedFixtures(fixtures []Fixture, known map[int]bool) ([]Fixture, error) {
	var ret []Fixture
	for _, f := range fixtures {
		if !f.Finished {
			continue
		}
		if f.HomeScore == nil || f.AwayScore == nil {
			return nil, fmt.Errorf("%w: fixture %d is finished but has no score", ErrInvalidSnapshot, f.ID)
		}
		if *f.HomeScore < 0 || *f.AwayScore < 0 {
			return nil, fmt.Errorf("%w: fixture %d has a negative score", ErrInvalidSnapshot, f.ID)
		}
		if f.HomeTeamID == f.AwayTeamID {
			return nil, fmt.Errorf("%w: fixture %d has team %d playing itself", ErrInvalidSnapshot, f.ID, f.HomeTeamID)
		}
		if !known[f.HomeTeamID] || !known[f.AwayTeamID] {
			logger.Warn("Ignoring fixture with team outside the roster", f.ID, f.HomeTeamID, f.AwayTeamID)
			continue
		}
		ret = append(ret, f)
	}
	sort.SliceStable(ret, func(i, j int) bool {
		if ret[i].Event != ret[j].Event {
			return ret[i].Event < ret[j].Event
		}
		return ret[i].ID < ret[j].ID
	})
	return ret, nil
}

func aggregateTeam(team Team, fixtures []Fixture) TeamStats {
	stats := TeamStats{
		Team: team,
		Home: VenueStats{Venue: Home},
		Away: VenueStats{Venue: Away},
	}

	var results []byte
	for _, f := range fixtures {
		var vs *VenueStats
		var scored, conceded int
		switch team.ID {
		case f.HomeTeamID:
			vs = &stats.Home
			scored, conceded = *f.HomeScore, *f.AwayScore
		case f.AwayTeamID:
			vs = &stats.Away
			scored, conceded = *f.AwayScore, *f.HomeScore
		default:
			continue
		}

		vs.Played++
		vs.GoalsScored += scored
		vs.GoalsConceded += conceded
		if scored == 0 {
			vs.FailedToScore++
		}
		if conceded == 0 {
			vs.CleanSheets++
		}

		switch {
		case scored > conceded:
			vs.Won++
			results = append(results, 'W')
		case scored == conceded:
			vs.Drawn++
			results = append(results, 'D')
		default:
			vs.Lost++
			results = append(results, 'L')
		}
	}

	stats.Home.finalise()
	stats.Away.finalise()
	stats.Record = seasonRecord(stats.Home, stats.Away, results)
	return stats
}

// finalise calculates the per-game means, leaving them undefined when no games were played
func (vs *VenueStats) finalise() {
	if vs.Played == 0 {
		vs.ScoredPerGame = Undefined()
		vs.ConcededPerGame = Undefined()
		return
	}
	vs.ScoredPerGame = Defined(float64(vs.GoalsScored) / float64(vs.Played))
	vs.ConcededPerGame = Defined(float64(vs.GoalsConceded) / float64(vs.Played))
}

func seasonRecord(home, away VenueStats, results []byte) SeasonRecord {
	r := SeasonRecord{
		Played:       home.Played + away.Played,
		Won:          home.Won + away.Won,
		Drawn:        home.Drawn + away.Drawn,
		Lost:         home.Lost + away.Lost,
		GoalsFor:     home.GoalsScored + away.GoalsScored,
		GoalsAgainst: home.GoalsConceded + away.GoalsConceded,
	}
	r.Points = 3*r.Won + r.Drawn

	form := make([]byte, 0, formLength)
	for i := len(results) - 1; i >= 0 && len(form) < formLength; i-- {
		form = append(form, results[i])
	}
	r.Form = string(form)
	return r
}
