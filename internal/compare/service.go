package compare

import (
	"context"
	"time"

	"crimelense/internal/analysis"
)

// DefaultLatency matches the response time of the hosted comparison.
const DefaultLatency = time.Second

// LocalService answers every comparison with the reference statistics
// used by the public compare page.
type LocalService struct {
	Latency time.Duration
}

func NewLocalService() *LocalService {
	return &LocalService{Latency: DefaultLatency}
}

var _ analysis.Service[Params, Result] = (*LocalService)(nil)

func (s *LocalService) Request(ctx context.Context, p Params) (Result, error) {
	if err := analysis.Delay(ctx, s.Latency); err != nil {
		return Result{}, err
	}
	return Result{
		AreaA:      p.AreaA,
		AreaB:      p.AreaB,
		SeriesA:    CategoryCounts{Theft: 40, Assault: 30, Burglary: 20, Vandalism: 27},
		SeriesB:    CategoryCounts{Theft: 24, Assault: 13, Burglary: 58, Vandalism: 39},
		RiskScoreA: 78,
		RiskScoreB: 52,
	}, nil
}
