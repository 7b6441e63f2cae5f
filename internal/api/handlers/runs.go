package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"gridplan/internal/api/models"
	"gridplan/internal/store"
)

// RunsHandler serves previously stored runs.
type RunsHandler struct {
	store *store.Store
}

func NewRunsHandler(st *store.Store) *RunsHandler {
	return &RunsHandler{store: st}
}

// List handles GET /api/v1/runs.
func (h *RunsHandler) List(c *gin.Context) {
	runs, err := h.store.ListRuns(c.Request.Context())
	if err != nil {
		internalError(c, "STORE_FAILED", err.Error())
		return
	}
	out := make([]models.RunSummary, 0, len(runs))
	for _, r := range runs {
		out = append(out, models.RunSummary{
			ID:        r.ID,
			Scenario:  r.Scenario,
			Status:    r.Status,
			Objective: r.Objective,
			CreatedAt: r.CreatedAt.Format(time.RFC3339),
		})
	}
	c.JSON(http.StatusOK, gin.H{"runs": out})
}

// Series handles GET /api/v1/runs/:id/series/:name.
func (h *RunsHandler) Series(c *gin.Context) {
	vals, err := h.store.RunSeries(c.Request.Context(), c.Param("id"), c.Param("name"))
	if err != nil {
		internalError(c, "STORE_FAILED", err.Error())
		return
	}
	if len(vals) == 0 {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "NOT_FOUND", Message: "no values for run and series"},
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"values": vals})
}
