package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gopkg.in/yaml.v3"

	"gridplan/internal/api/models"
	"gridplan/internal/build"
	"gridplan/internal/logger"
	"gridplan/internal/scenario"
	"gridplan/internal/solution"
	"gridplan/internal/solve"
	"gridplan/internal/store"
)

// SolveHandler turns scenario documents into solved model runs.
type SolveHandler struct {
	solver  solve.Solver
	store   *store.Store
	timeout time.Duration
}

// NewSolveHandler creates the handler. The store may be nil, in which case
// runs are never persisted. A zero timeout leaves solves unbounded.
func NewSolveHandler(solver solve.Solver, st *store.Store, timeout time.Duration) *SolveHandler {
	return &SolveHandler{solver: solver, store: st, timeout: timeout}
}

// Solve handles POST /api/v1/solve.
func (h *SolveHandler) Solve(c *gin.Context) {
	var req models.SolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "INVALID_REQUEST", err.Error())
		return
	}

	var f scenario.File
	if err := yaml.Unmarshal([]byte(req.ScenarioYAML), &f); err != nil {
		badRequest(c, "INVALID_SCENARIO", err.Error())
		return
	}
	u, ds, err := scenario.Materialize(&f)
	if err != nil {
		badRequest(c, "INVALID_SCENARIO", err.Error())
		return
	}

	b, err := build.NewBuilder(u, ds, logger.L())
	if err != nil {
		badRequest(c, "INVALID_SCENARIO", err.Error())
		return
	}
	model, err := b.Build()
	if err != nil {
		internalError(c, "BUILD_FAILED", err.Error())
		return
	}
	prob, err := model.Problem()
	if err != nil {
		internalError(c, "BUILD_FAILED", err.Error())
		return
	}

	ctx := c.Request.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}
	res, err := h.solver.Solve(ctx, prob)
	if err != nil {
		if errors.Is(err, solve.ErrNotOptimal) {
			c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{
				Error: models.ErrorDetail{Code: "INFEASIBLE", Message: err.Error()},
			})
			return
		}
		internalError(c, "SOLVE_FAILED", err.Error())
		return
	}

	set, err := solution.NewExtractor(model, b.Cache()).Extract(res, req.Outputs)
	if err != nil {
		badRequest(c, "UNKNOWN_OUTPUT", err.Error())
		return
	}

	resp := models.SolveResponse{
		Status:    set.Status,
		Objective: set.Objective,
		Series:    seriesFromSet(set),
	}
	if req.Save && h.store != nil {
		id, err := h.store.SaveRun(c.Request.Context(), f.Name, set)
		if err != nil {
			internalError(c, "STORE_FAILED", err.Error())
			return
		}
		resp.RunID = id
	}
	c.JSON(http.StatusOK, resp)
}

func seriesFromSet(set *solution.Set) []models.Series {
	out := make([]models.Series, 0, len(set.Values))
	for _, name := range set.Names() {
		a := set.Values[name]
		space := a.Space()
		dims := space.Dims()
		s := models.Series{Name: name}
		for i := 0; i < space.Size(); i++ {
			v, ok := a.At(i)
			if !ok {
				continue
			}
			coord := space.Coord(i)
			cm := make(map[string]string, len(dims))
			for d, dim := range dims {
				cm[dim] = coord[d]
			}
			s.Cells = append(s.Cells, models.Cell{Coords: cm, Value: v})
		}
		out = append(out, s)
	}
	return out
}

func badRequest(c *gin.Context, code, msg string) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error: models.ErrorDetail{Code: code, Message: msg},
	})
}

func internalError(c *gin.Context, code, msg string) {
	c.JSON(http.StatusInternalServerError, models.ErrorResponse{
		Error: models.ErrorDetail{Code: code, Message: msg},
	})
}
