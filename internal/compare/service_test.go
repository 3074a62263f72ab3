package compare

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crimelense/internal/analysis"
)

func TestLocalServiceCompare(t *testing.T) {
	r, err := (&LocalService{}).Request(context.Background(), Params{AreaA: "Soho", AreaB: "Camden"})
	require.NoError(t, err)

	assert.Equal(t, "Soho", r.AreaA)
	assert.Equal(t, "Camden", r.AreaB)
	assert.Equal(t, 117, r.SeriesA.Total())
	assert.Equal(t, 134, r.SeriesB.Total())
	assert.Equal(t, 78, r.RiskScoreA)
	assert.Equal(t, 52, r.RiskScoreB)
	assert.Equal(t, "Soho", r.Riskier())

	assert.Equal(t, []Row{
		{"Theft", 40, 24},
		{"Assault", 30, 13},
		{"Burglary", 20, 58},
		{"Vandalism", 27, 39},
	}, r.Breakdown())
}

func TestRiskierTie(t *testing.T) {
	assert.Empty(t, Result{AreaA: "a", AreaB: "b", RiskScoreA: 50, RiskScoreB: 50}.Riskier())
	assert.Equal(t, "b", Result{AreaA: "a", AreaB: "b", RiskScoreA: 10, RiskScoreB: 50}.Riskier())
}

func TestCompareScreenOverHTTP(t *testing.T) {
	screens := NewScreens(&LocalService{}, time.Second, 0)
	t.Cleanup(screens.CloseAll)
	router := Routes(screens, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	require.Equal(t, http.StatusCreated, rec.Code)

	var mounted analysis.View[Result]
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&mounted))
	id := mounted.ScreenID
	m, ok := screens.Get(id)
	require.True(t, ok)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/"+id+"/submit",
		strings.NewReader(`{"areaA":"Soho","areaB":""}`)))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/"+id+"/submit",
		strings.NewReader(`{"areaA":"Soho","areaB":"Camden"}`)))
	assert.Equal(t, http.StatusAccepted, rec.Code)
	m.Wait()

	st := m.State()
	require.Equal(t, analysis.PhaseSucceeded, st.Phase)
	assert.Equal(t, uint64(1), st.Generation)
	assert.Equal(t, "Camden", st.Outcome.Payload.AreaB)
}
