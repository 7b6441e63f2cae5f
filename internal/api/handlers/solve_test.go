package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridplan/internal/api/models"
	"gridplan/internal/lp"
	"gridplan/internal/solve"
)

const testScenario = `
name: minimal
axes:
  regions: [R1]
  technologies: [plant]
  commodities: [electricity]
  timeslices: [annual]
  years: [2020, 2021]
  modes: ["1"]
parameters:
  YearSplit:
    default: 1
  OutputActivityRatio:
    default: 1
  AccumulatedAnnualDemand:
    values:
      - coords: {COMMODITY: electricity}
        value: 50
  CapitalCost:
    values:
      - coords: {TECHNOLOGY: plant}
        value: 1000
`

// stubSolver returns a canned zero solution, or failure when err is set.
type stubSolver struct {
	err error
}

func (s *stubSolver) Solve(_ context.Context, p *lp.Problem) (*solve.Result, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &solve.Result{
		Status: "Optimal",
		Primal: make([]float64, len(p.Cols)),
	}, nil
}

func requestBody(scenarioYAML string, outputs []string) (string, error) {
	b, err := json.Marshal(models.SolveRequest{ScenarioYAML: scenarioYAML, Outputs: outputs})
	return string(b), err
}

func doSolve(t *testing.T, solver solve.Solver, body string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/api/v1/solve", NewSolveHandler(solver, nil, 0).Solve)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/solve", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSolveRejectsMalformedJSON(t *testing.T) {
	w := doSolve(t, &stubSolver{}, `{"scenario_yaml": `)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_REQUEST")
}

func TestSolveRejectsBadScenario(t *testing.T) {
	body := `{"scenario_yaml": "axes:\n  regions: [R1]\n"}`
	w := doSolve(t, &stubSolver{}, body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_SCENARIO")
}

func TestSolveReportsInfeasibility(t *testing.T) {
	body, err := requestBody(testScenario, nil)
	require.NoError(t, err)
	w := doSolve(t, &stubSolver{err: solve.ErrNotOptimal}, body)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "INFEASIBLE")
}

func TestSolveReturnsRequestedSeries(t *testing.T) {
	body, err := requestBody(testScenario, []string{"NewCapacity"})
	require.NoError(t, err)
	w := doSolve(t, &stubSolver{}, body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"status":"Optimal"`)
	assert.Contains(t, w.Body.String(), `"NewCapacity"`)
	assert.Contains(t, w.Body.String(), `"TotalDiscountedCost"`)
}

func TestSolveRejectsUnknownOutput(t *testing.T) {
	body, err := requestBody(testScenario, []string{"NotASeries"})
	require.NoError(t, err)
	w := doSolve(t, &stubSolver{}, body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "UNKNOWN_OUTPUT")
}
