package prediction

import (
	"context"
	"math/rand/v2"
	"time"

	"crimelense/internal/analysis"
)

const (
	// DefaultLatency matches the response time of the hosted model.
	DefaultLatency = 1500 * time.Millisecond
	// ModelConfidence is reported with every local prediction.
	ModelConfidence = 89

	minScore = 20
	maxScore = 80
)

// RiskLevelFor bands a score: below 40 Low, below 70 Medium, else High.
func RiskLevelFor(score int) RiskLevel {
	switch {
	case score < 40:
		return RiskLow
	case score < 70:
		return RiskMedium
	}
	return RiskHigh
}

// RecommendationFor returns the advice shown for a risk level.
func RecommendationFor(level RiskLevel) string {
	switch level {
	case RiskLow:
		return "Area is currently safe for travel. Standard precautions advised."
	case RiskMedium:
		return "Exercise caution. Avoid unlit areas and travel in groups if possible."
	}
	return "High risk detected. Alternative routes recommended. Avoid if possible."
}

// ResultFor assembles the result for a score, clamped to [0, 100].
func ResultFor(score int) Result {
	score = max(0, min(100, score))
	level := RiskLevelFor(score)
	return Result{
		Score:          score,
		Confidence:     ModelConfidence,
		RiskLevel:      level,
		Recommendation: RecommendationFor(level),
	}
}

// LocalService is the in-process stand-in for the scoring model. It
// draws a score in [20, 80) after Latency.
type LocalService struct {
	Latency time.Duration
	// Score overrides the random draw when set.
	Score func(Params) int
}

// NewLocalService returns a LocalService with the default latency.
func NewLocalService() *LocalService {
	return &LocalService{Latency: DefaultLatency}
}

var _ analysis.Service[Params, Result] = (*LocalService)(nil)

func (s *LocalService) Request(ctx context.Context, p Params) (Result, error) {
	if err := analysis.Delay(ctx, s.Latency); err != nil {
		return Result{}, err
	}
	score := minScore + rand.IntN(maxScore-minScore)
	if s.Score != nil {
		score = s.Score(p)
	}
	return ResultFor(score), nil
}
