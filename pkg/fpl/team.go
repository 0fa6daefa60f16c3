package fpl

import (
	"time"
)

// Team is a club as listed in the bootstrap-static teams section
type Team struct {
	ID        int    `json:"id"`
	ShortName string `json:"short_name"`
	Name      string `json:"name"`
}

// Fixture is a single match from the fixtures endpoint.
// Scores are nil until the match has been played
type Fixture struct {
	ID         int  `json:"id"`
	Event      int  `json:"event"`
	HomeTeamID int  `json:"team_h"`
	AwayTeamID int  `json:"team_a"`
	HomeScore  *int `json:"team_h_score"`
	AwayScore  *int `json:"team_a_score"`
	Finished   bool `json:"finished"`
}

// Snapshot is the immutable input to one aggregation run
type Snapshot struct {
	RunID     string    `json:"runId"`
	FetchedAt time.Time `json:"fetchedAt"`
	Teams     []Team    `json:"teams"`
	Fixtures  []Fixture `json:"fixtures"`
}

// FinishedFixtures returns the number of fixtures that will take part in aggregation
func (s *Snapshot) FinishedFixtures() int {
	n := 0
	for _, f := range s.Fixtures {
		if f.Finished {
			n++
		}
	}
	return n
}
