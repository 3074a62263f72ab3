package prediction

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crimelense/internal/analysis"
)

func validParams() Params {
	return Params{Area: "Camden Town", Date: "2026-10-18", Time: "21:30", Category: CategoryTheft}
}

func TestRiskLevelFor(t *testing.T) {
	tests := []struct {
		score int
		want  RiskLevel
	}{
		{0, RiskLow},
		{20, RiskLow},
		{35, RiskLow},
		{39, RiskLow},
		{40, RiskMedium},
		{55, RiskMedium},
		{69, RiskMedium},
		{70, RiskHigh},
		{75, RiskHigh},
		{100, RiskHigh},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RiskLevelFor(tt.score), "score %d", tt.score)
	}
}

func TestResultFor(t *testing.T) {
	r := ResultFor(55)
	assert.Equal(t, Result{
		Score:          55,
		Confidence:     89,
		RiskLevel:      RiskMedium,
		Recommendation: "Exercise caution. Avoid unlit areas and travel in groups if possible.",
	}, r)

	assert.Equal(t, 100, ResultFor(140).Score)
	assert.Equal(t, 0, ResultFor(-3).Score)
}

func TestLocalServiceScoreRange(t *testing.T) {
	svc := &LocalService{}
	for i := 0; i < 200; i++ {
		r, err := svc.Request(context.Background(), validParams())
		require.NoError(t, err)
		assert.GreaterOrEqual(t, r.Score, 20)
		assert.Less(t, r.Score, 80)
		assert.Equal(t, RiskLevelFor(r.Score), r.RiskLevel)
		assert.Equal(t, ModelConfidence, r.Confidence)
	}
}

func TestLocalServiceHonorsCancellation(t *testing.T) {
	svc := &LocalService{Latency: time.Hour}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Request(ctx, validParams())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParamsValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Params)
		field  string
	}{
		{"blank area", func(p *Params) { p.Area = "   " }, "Area"},
		{"bad date", func(p *Params) { p.Date = "18/10/2026" }, "Date"},
		{"bad time", func(p *Params) { p.Time = "9pm" }, "Time"},
		{"unknown category", func(p *Params) { p.Category = "Fraud" }, "Category"},
		{"missing category", func(p *Params) { p.Category = "" }, "Category"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validParams()
			tt.mutate(&p)
			err := analysis.ValidateStruct(p)
			var ve *analysis.ValidationError
			require.ErrorAs(t, err, &ve)
			require.Len(t, ve.Fields, 1)
			assert.Equal(t, tt.field, ve.Fields[0].Field)
		})
	}

	assert.NoError(t, analysis.ValidateStruct(validParams()))
}

func TestParamsAt(t *testing.T) {
	at, err := validParams().At(time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 10, 18, 21, 30, 0, 0, time.UTC), at)
}

// Camden Town scenario: a score of 35, 55 or 75 lands in Low, Medium or
// High respectively once the machine applies the result.
func TestPredictionScreen(t *testing.T) {
	for score, want := range map[int]RiskLevel{35: RiskLow, 55: RiskMedium, 75: RiskHigh} {
		svc := &LocalService{Score: func(Params) int { return score }}
		m := analysis.New[Params, Result](svc, analysis.Options[Params]{Name: Name, Timeout: time.Second})

		m.Submit(context.Background(), validParams())
		m.Wait()

		st := m.State()
		require.Equal(t, analysis.PhaseSucceeded, st.Phase)
		assert.Equal(t, score, st.Outcome.Payload.Score)
		assert.Equal(t, want, st.Outcome.Payload.RiskLevel)
		m.Close()
	}
}

func TestRoutesRejectInvalidCategory(t *testing.T) {
	screens := NewScreens(&LocalService{}, time.Second, 0)
	t.Cleanup(screens.CloseAll)
	router := Routes(screens, nil)

	id, _, err := screens.Mount()
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	body := `{"area":"Soho","date":"2026-10-18","time":"10:00","category":"Arson"}`
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/"+id+"/submit", strings.NewReader(body)))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), `"field":"Category"`)
}
