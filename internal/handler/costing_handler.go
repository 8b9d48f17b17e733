package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/officina/distinta/internal/service"
	"gorm.io/gorm"
)

type CostingHandler struct {
	svc *service.CostingService
}

func NewCostingHandler(svc *service.CostingService) *CostingHandler {
	return &CostingHandler{svc: svc}
}

// Rollup GET /boms/:id/rollup
func (h *CostingHandler) Rollup(c *gin.Context) {
	summary, err := h.svc.Rollup(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"code": 10002, "message": "distinta non trovata"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"code": 50001, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": summary})
}

// Simulate GET /boms/:id/simulate?qty=N
// A missing or non-numeric qty falls back to 1.
func (h *CostingHandler) Simulate(c *gin.Context) {
	qty, err := strconv.Atoi(c.DefaultQuery("qty", "1"))
	if err != nil || qty < 1 {
		qty = 1
	}
	result, err := h.svc.Simulate(c.Request.Context(), c.Param("id"), qty)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"code": 10002, "message": "distinta non trovata"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"code": 50001, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": result})
}
