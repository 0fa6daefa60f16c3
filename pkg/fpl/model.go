package fpl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/richard-senior/fplodds/internal/logger"
	"github.com/richard-senior/fplodds/pkg/util"
)

// maxNameDistance is how many typos a team name may carry and still resolve
const maxNameDistance = 1

// Model is the output of one aggregation run over a snapshot.
// It is never updated in place; a new snapshot means a new Model
type Model struct {
	RunID      string            `json:"runId"`
	ScoreRange int               `json:"scoreRange"`
	Stats      []TeamStats       `json:"stats"`
	Averages   LeagueAverages    `json:"averages"`
	Profiles   []StrengthProfile `json:"profiles"`
}

// Build runs aggregation, league averages and strength ratios over the snapshot.
// scoreRange is the K used by Predict
func Build(snapshot *Snapshot, scoreRange int) (*Model, error) {
	if snapshot == nil {
		return nil, fmt.Errorf("%w: nil snapshot", ErrInvalidSnapshot)
	}
	if scoreRange < 1 {
		return nil, fmt.Errorf("%w: score range must be at least 1, got %d", ErrInvalidArgument, scoreRange)
	}

	stats, err := Aggregate(snapshot.Teams, snapshot.Fixtures)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate fixtures: %w", err)
	}
	avg, err := CalculateLeagueAverages(stats)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate league averages: %w", err)
	}
	profiles := CalculateStrengthProfiles(stats, avg)

	logger.Info("Built strength model for teams", len(stats), "from finished fixtures", snapshot.FinishedFixtures())
	return &Model{
		RunID:      snapshot.RunID,
		ScoreRange: scoreRange,
		Stats:      stats,
		Averages:   avg,
		Profiles:   profiles,
	}, nil
}

// Profile returns the strength profile for a team id
func (m *Model) Profile(teamID int) (StrengthProfile, error) {
	for _, p := range m.Profiles {
		if p.TeamID == teamID {
			return p, nil
		}
	}
	return StrengthProfile{}, fmt.Errorf("%w: %d", ErrUnknownTeam, teamID)
}

// TeamStats returns the aggregated stats for a team id
func (m *Model) TeamStats(teamID int) (TeamStats, error) {
	for _, ts := range m.Stats {
		if ts.Team.ID == teamID {
			return ts, nil
		}
	}
	return TeamStats{}, fmt.Errorf("%w: %d", ErrUnknownTeam, teamID)
}

// LookupTeam resolves a numeric id or a short name (case insensitive) such as "ARS"
func (m *Model) LookupTeam(ref string) (Team, error) {
	ref = strings.TrimSpace(ref)
	if id, err := strconv.Atoi(ref); err == nil {
		ts, err := m.TeamStats(id)
		if err != nil {
			return Team{}, err
		}
		return ts.Team, nil
	}
	names := make([]string, len(m.Stats))
	for i, ts := range m.Stats {
		if strings.EqualFold(ts.Team.ShortName, ref) || strings.EqualFold(ts.Team.Name, ref) {
			return ts.Team, nil
		}
		names[i] = ts.Team.Name
	}
	if i, ok := util.ClosestMatch(ref, names, maxNameDistance); ok {
		logger.Debug("Resolved team", ref, "to", m.Stats[i].Team.Name)
		return m.Stats[i].Team, nil
	}
	return Team{}, fmt.Errorf("%w: %q", ErrUnknownTeam, ref)
}

// Predict builds the score distribution for homeID at home to awayID
func (m *Model) Predict(homeID, awayID int) (*ScoreDistribution, error) {
	if homeID == awayID {
		return nil, fmt.Errorf("%w: a team cannot play itself (%d)", ErrInvalidArgument, homeID)
	}
	home, err := m.Profile(homeID)
	if err != nil {
		return nil, err
	}
	away, err := m.Profile(awayID)
	if err != nil {
		return nil, err
	}
	return NewScoreDistribution(home, away, m.Averages, m.ScoreRange)
}
