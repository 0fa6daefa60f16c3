package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/richard-senior/fplodds/internal/logger"
	"github.com/richard-senior/fplodds/pkg/config"
	"github.com/richard-senior/fplodds/pkg/fpl"
	"github.com/richard-senior/fplodds/pkg/protocol"
	"github.com/richard-senior/fplodds/pkg/store"
	"github.com/richard-senior/fplodds/pkg/util"
)

const (
	RefreshToolName           = "fpl_refresh"
	TeamStrengthsToolName     = "fpl_team_strengths"
	ScoreDistributionToolName = "fpl_score_distribution"
)

// Fetcher downloads a fresh snapshot, see datasource.Client
type Fetcher interface {
	FetchSnapshot(ctx context.Context) (*fpl.Snapshot, error)
}

// SnapshotStore keeps the last snapshot between runs, see store.Store
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snap *fpl.Snapshot) error
	LoadSnapshot(ctx context.Context) (*fpl.Snapshot, error)
}

// Service builds models from stored or freshly fetched snapshots and answers queries on them.
// The current model is replaced wholesale on refresh, never updated in place
type Service struct {
	fetcher Fetcher
	store   SnapshotStore
	cfg     config.ModelConfig

	mu    sync.Mutex
	model *fpl.Model
}

func NewService(fetcher Fetcher, snapshots SnapshotStore, cfg config.ModelConfig) *Service {
	return &Service{fetcher: fetcher, store: snapshots, cfg: cfg}
}

// RefreshReport summarises a refresh
type RefreshReport struct {
	RunID            string `json:"runId"`
	Teams            int    `json:"teams"`
	Fixtures         int    `json:"fixtures"`
	FinishedFixtures int    `json:"finishedFixtures"`
	ModelBuilt       bool   `json:"modelBuilt"`
	ModelError       string `json:"modelError,omitempty"`
}

// TeamStrength is one team's row in a StrengthsReport
type TeamStrength struct {
	Team    fpl.Team            `json:"team"`
	Home    fpl.VenueStats      `json:"home"`
	Away    fpl.VenueStats      `json:"away"`
	Record  fpl.SeasonRecord    `json:"record"`
	Profile fpl.StrengthProfile `json:"profile"`
}

type StrengthsReport struct {
	RunID    string             `json:"runId"`
	Averages fpl.LeagueAverages `json:"averages"`
	Teams    []TeamStrength     `json:"teams"`
}

type OverGoals struct {
	Threshold   float64 `json:"threshold"`
	Probability float64 `json:"probability"`
}

type Scoreline struct {
	HomeGoals   int     `json:"homeGoals"`
	AwayGoals   int     `json:"awayGoals"`
	Probability float64 `json:"probability"`
}

type Prediction struct {
	RunID             string      `json:"runId"`
	Home              fpl.Team    `json:"home"`
	Away              fpl.Team    `json:"away"`
	HomeExpectedGoals float64     `json:"homeExpectedGoals"`
	AwayExpectedGoals float64     `json:"awayExpectedGoals"`
	HomeWin           float64     `json:"homeWin"`
	Draw              float64     `json:"draw"`
	AwayWin           float64     `json:"awayWin"`
	OverGoals         []OverGoals `json:"overGoals"`
	BothTeamsToScore  float64     `json:"bothTeamsToScore"`
	MostLikelyScore   Scoreline   `json:"mostLikelyScore"`
	CapturedMass      float64     `json:"capturedMass"` // sum of the truncated matrix, always below 1
	Matrix            [][]float64 `json:"matrix"`
}

// Refresh fetches and stores a new snapshot, then rebuilds the model from it.
// The snapshot is kept even when it does not yet hold enough results to build a model
func (s *Service) Refresh(ctx context.Context) (*RefreshReport, error) {
	snap, err := s.fetcher.FetchSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch snapshot: %w", err)
	}
	if err := s.store.SaveSnapshot(ctx, snap); err != nil {
		return nil, fmt.Errorf("failed to store snapshot: %w", err)
	}

	report := &RefreshReport{
		RunID:            snap.RunID,
		Teams:            len(snap.Teams),
		Fixtures:         len(snap.Fixtures),
		FinishedFixtures: snap.FinishedFixtures(),
	}

	model, err := fpl.Build(snap, s.cfg.ScoreRange)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		logger.Warn("Stored snapshot but could not build a model", err)
		s.model = nil
		report.ModelError = err.Error()
		return report, nil
	}
	s.model = model
	report.ModelBuilt = true
	return report, nil
}

// Model returns the current model, building it from the stored snapshot on first use.
// The lock only guards s.model, so the load and build run unlocked and concurrent first
// calls may each build. The first model installed wins
func (s *Service) Model(ctx context.Context) (*fpl.Model, error) {
	s.mu.Lock()
	model := s.model
	s.mu.Unlock()
	if model != nil {
		return model, nil
	}

	snap, err := s.store.LoadSnapshot(ctx)
	if errors.Is(err, store.ErrNoSnapshot) {
		return nil, fmt.Errorf("%w: run %s first", err, RefreshToolName)
	}
	if err != nil {
		return nil, err
	}
	model, err = fpl.Build(snap, s.cfg.ScoreRange)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// a refresh may have installed a newer model meanwhile
	if s.model != nil {
		return s.model, nil
	}
	s.model = model
	return model, nil
}

// Strengths reports every team's venue stats and strength profile
func (s *Service) Strengths(ctx context.Context) (*StrengthsReport, error) {
	model, err := s.Model(ctx)
	if err != nil {
		return nil, err
	}

	report := &StrengthsReport{RunID: model.RunID, Averages: model.Averages}
	for i, ts := range model.Stats {
		report.Teams = append(report.Teams, TeamStrength{
			Team:    ts.Team,
			Home:    ts.Home,
			Away:    ts.Away,
			Record:  ts.Record,
			Profile: model.Profiles[i],
		})
	}
	return report, nil
}

// Predict builds the score distribution for home playing at home to away.
// Teams are given by id or short name
func (s *Service) Predict(ctx context.Context, homeRef, awayRef string) (*Prediction, error) {
	model, err := s.Model(ctx)
	if err != nil {
		return nil, err
	}
	home, err := model.LookupTeam(homeRef)
	if err != nil {
		return nil, err
	}
	away, err := model.LookupTeam(awayRef)
	if err != nil {
		return nil, err
	}
	dist, err := model.Predict(home.ID, away.ID)
	if err != nil {
		return nil, err
	}

	p := &Prediction{
		RunID:             model.RunID,
		Home:              home,
		Away:              away,
		HomeExpectedGoals: dist.HomeExpectedGoals,
		AwayExpectedGoals: dist.AwayExpectedGoals,
		BothTeamsToScore:  dist.BothTeamsToScore(),
		CapturedMass:      dist.TotalMass(),
		Matrix:            dist.Matrix,
	}
	p.HomeWin, p.Draw, p.AwayWin = dist.OutcomeProbabilities()
	for _, th := range s.cfg.OverGoalsThresholds {
		p.OverGoals = append(p.OverGoals, OverGoals{Threshold: th, Probability: dist.OverGoals(th)})
	}
	h, a, prob := dist.MostLikelyScore()
	p.MostLikelyScore = Scoreline{HomeGoals: h, AwayGoals: a, Probability: prob}
	return p, nil
}

/////////////////////////////////////////////////////////////////////////
////// MCP tool definitions and handlers
/////////////////////////////////////////////////////////////////////////

// RefreshTool returns the refresh tool definition
func RefreshTool() protocol.Tool {
	return protocol.Tool{
		Name:        RefreshToolName,
		Description: "Downloads the latest Fantasy Premier League teams and fixtures, stores them and rebuilds the team strength model",
		InputSchema: protocol.InputSchema{
			Type:     "object",
			Required: []string{},
		},
	}
}

// TeamStrengthsTool returns the team strengths tool definition
func TeamStrengthsTool() protocol.Tool {
	return protocol.Tool{
		Name: TeamStrengthsToolName,
		Description: "Lists each Premier League team's home and away goals per game, league averages and attack/defence " +
			"strength ratios where 1.0 is league average. Null means the team has not played at that venue yet",
		InputSchema: protocol.InputSchema{
			Type:     "object",
			Required: []string{},
		},
	}
}

// ScoreDistributionTool returns the score distribution tool definition
func ScoreDistributionTool() protocol.Tool {
	return protocol.Tool{
		Name: ScoreDistributionToolName,
		Description: "Predicts the scoreline probabilities for a match using a Poisson model of team strengths. " +
			"Returns expected goals, win/draw/loss, over goals, both teams to score and the full score matrix",
		InputSchema: protocol.InputSchema{
			Type: "object",
			Properties: map[string]protocol.ToolProperty{
				"home": {
					Type:        "string",
					Description: "The home team as an FPL team id or short name such as ARS",
				},
				"away": {
					Type:        "string",
					Description: "The away team as an FPL team id or short name such as CHE",
				},
			},
			Required: []string{"home", "away"},
		},
	}
}

// HandleRefresh handles the refresh tool invocation
func (s *Service) HandleRefresh(ctx context.Context, params any) (any, error) {
	logger.Info("Handling refresh tool invocation")
	return s.Refresh(ctx)
}

// HandleTeamStrengths handles the team strengths tool invocation
func (s *Service) HandleTeamStrengths(ctx context.Context, params any) (any, error) {
	logger.Info("Handling team strengths tool invocation")
	return s.Strengths(ctx)
}

// HandleScoreDistribution handles the score distribution tool invocation
func (s *Service) HandleScoreDistribution(ctx context.Context, params any) (any, error) {
	logger.Info("Handling score distribution tool invocation")

	paramsMap, ok := params.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("invalid parameters format")
	}
	home, err := teamArgument(paramsMap, "home")
	if err != nil {
		return nil, err
	}
	away, err := teamArgument(paramsMap, "away")
	if err != nil {
		return nil, err
	}
	return s.Predict(ctx, home, away)
}

// teamArgument accepts a short name or a numeric id, which JSON delivers as float64
func teamArgument(params map[string]any, key string) (string, error) {
	switch params[key].(type) {
	case string, float64:
	default:
		return "", fmt.Errorf("%s parameter is required and must be a team id or short name", key)
	}
	v, err := util.GetAsString(params[key])
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(v) == "" {
		return "", fmt.Errorf("%s parameter must not be empty", key)
	}
	return v, nil
}
