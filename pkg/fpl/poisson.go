package fpl

import (
	"fmt"
	"math"
)

// DefaultScoreRange is K, the number of goal counts (0..K-1) modelled per side
const DefaultScoreRange = 6

// ScoreDistribution is the joint probability of each scoreline for one home/away pairing.
// Matrix[i][j] is the probability of the home side scoring i and the away side j.
// Scorelines of K goals or more are not represented so the matrix sums to less than 1
type ScoreDistribution struct {
	HomeTeamID        int         `json:"homeTeamId"`
	AwayTeamID        int         `json:"awayTeamId"`
	HomeExpectedGoals float64     `json:"homeExpectedGoals"`
	AwayExpectedGoals float64     `json:"awayExpectedGoals"`
	HomeGoals         []float64   `json:"homeGoals"`
	AwayGoals         []float64   `json:"awayGoals"`
	Matrix            [][]float64 `json:"matrix"`
}

// ExpectedGoals returns the Poisson means for the home and away sides.
// Each is a league average adjusted by an attack ratio and a defence ratio
func ExpectedGoals(home, away StrengthProfile, avg LeagueAverages) (lambdaHome, lambdaAway float64, err error) {
	// both profiles must be complete, not only the ratios read below
	if err := home.Err(); err != nil {
		return 0, 0, err
	}
	if err := away.Err(); err != nil {
		return 0, 0, err
	}

	lambdaHome = home.AttackHome.Float64 * away.DefenceAway.Float64 * avg.HomeScored
	lambdaAway = home.AttackAway.Float64 * away.DefenceHome.Float64 * avg.AwayScored
	return lambdaHome, lambdaAway, nil
}

// PoissonVector returns P(X = i) for i in 0..k-1 where X ~ Poisson(lambda).
// Uses P(0) = e^-lambda and P(i) = P(i-1) * lambda / i which avoids factorial overflow
func PoissonVector(lambda float64, k int) ([]float64, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w: score range must be at least 1, got %d", ErrInvalidArgument, k)
	}
	if lambda < 0 || math.IsNaN(lambda) || math.IsInf(lambda, 0) {
		return nil, fmt.Errorf("%w: expected goals must be finite and non-negative, got %f", ErrInvalidArgument, lambda)
	}

	ret := make([]float64, k)
	ret[0] = math.Exp(-lambda)
	for i := 1; i < k; i++ {
		ret[i] = ret[i-1] * lambda / float64(i)
	}
	return ret, nil
}

// OuterProduct builds the joint matrix of two independent goal distributions
func OuterProduct(homeProbs, awayProbs []float64) [][]float64 {
	matrix := make([][]float64, len(homeProbs))
	for i := range homeProbs {
		matrix[i] = make([]float64, len(awayProbs))
		for j := range awayProbs {
			matrix[i][j] = homeProbs[i] * awayProbs[j]
		}
	}
	return matrix
}

// NewScoreDistribution builds the k×k scoreline matrix for home playing away.
// It fails rather than guessing when either profile is missing a ratio it needs
func NewScoreDistribution(home, away StrengthProfile, avg LeagueAverages, k int) (*ScoreDistribution, error) {
	lambdaHome, lambdaAway, err := ExpectedGoals(home, away, avg)
	if err != nil {
		return nil, err
	}
	homeProbs, err := PoissonVector(lambdaHome, k)
	if err != nil {
		return nil, fmt.Errorf("home goal distribution: %w", err)
	}
	awayProbs, err := PoissonVector(lambdaAway, k)
	if err != nil {
		return nil, fmt.Errorf("away goal distribution: %w", err)
	}

	return &ScoreDistribution{
		HomeTeamID:        home.TeamID,
		AwayTeamID:        away.TeamID,
		HomeExpectedGoals: lambdaHome,
		AwayExpectedGoals: lambdaAway,
		HomeGoals:         homeProbs,
		AwayGoals:         awayProbs,
		Matrix:            OuterProduct(homeProbs, awayProbs),
	}, nil
}

/////////////////////////////////////////////////////////////////////////
////// Derived markets
////// These all sum over the truncated matrix, so none of them add up to exactly 1
/////////////////////////////////////////////////////////////////////////

// Size returns K
func (d *ScoreDistribution) Size() int {
	return len(d.Matrix)
}

// Probability returns the probability of the scoreline homeGoals-awayGoals, or 0 outside the matrix
func (d *ScoreDistribution) Probability(homeGoals, awayGoals int) float64 {
	if homeGoals < 0 || awayGoals < 0 || homeGoals >= len(d.Matrix) || awayGoals >= len(d.Matrix[homeGoals]) {
		return 0
	}
	return d.Matrix[homeGoals][awayGoals]
}

// TotalMass is the probability captured by the matrix
func (d *ScoreDistribution) TotalMass() float64 {
	total := 0.0
	for i := range d.Matrix {
		for j := range d.Matrix[i] {
			total += d.Matrix[i][j]
		}
	}
	return total
}

// OutcomeProbabilities splits the matrix into home win (lower triangle), draw (diagonal)
// and away win (upper triangle)
func (d *ScoreDistribution) OutcomeProbabilities() (homeWin, draw, awayWin float64) {
	for i := range d.Matrix {
		for j := range d.Matrix[i] {
			switch {
			case i > j:
				homeWin += d.Matrix[i][j]
			case i == j:
				draw += d.Matrix[i][j]
			default:
				awayWin += d.Matrix[i][j]
			}
		}
	}
	return homeWin, draw, awayWin
}

// OverGoals is the probability of more than threshold total goals
func (d *ScoreDistribution) OverGoals(threshold float64) float64 {
	over := 0.0
	for i := range d.Matrix {
		for j := range d.Matrix[i] {
			if float64(i+j) > threshold {
				over += d.Matrix[i][j]
			}
		}
	}
	return over
}

// BothTeamsToScore is the probability that neither side is held to zero
func (d *ScoreDistribution) BothTeamsToScore() float64 {
	both := 0.0
	for i := 1; i < len(d.Matrix); i++ {
		for j := 1; j < len(d.Matrix[i]); j++ {
			both += d.Matrix[i][j]
		}
	}
	return both
}

// MostLikelyScore returns the single most probable scoreline. Ties go to the lowest scores
func (d *ScoreDistribution) MostLikelyScore() (homeGoals, awayGoals int, probability float64) {
	for i := range d.Matrix {
		for j := range d.Matrix[i] {
			if d.Matrix[i][j] > probability {
				homeGoals, awayGoals, probability = i, j, d.Matrix[i][j]
			}
		}
	}
	return homeGoals, awayGoals, probability
}
