package controllers

import (
	"net/http"

	"store/services"

	"github.com/gin-gonic/gin"
)

type StatisticsController struct {
	Svc *services.ProductService
}

func NewStatisticsController(svc *services.ProductService) *StatisticsController {
	return &StatisticsController{Svc: svc}
}

type monthlyBestSellingRequest struct {
	Year  int `form:"year" binding:"required"`
	Month int `form:"month" binding:"required,min=1,max=12"`
}

// GET /products/statistics/monthly?year=2026&month=8
func (sc *StatisticsController) MonthlyBestSelling(c *gin.Context) {
	var req monthlyBestSellingRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rows, err := sc.Svc.MonthlyBestSelling(c.Request.Context(), req.Year, req.Month)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": rows})
}
