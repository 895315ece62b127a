package controllers

import (
	"errors"
	"net/http"

	"store/middlewares"
	"store/services"

	"github.com/gin-gonic/gin"
)

type OrderController struct {
	Svc *services.OrderService
}

func NewOrderController(svc *services.OrderService) *OrderController {
	return &OrderController{Svc: svc}
}

type storeOrderRequest struct {
	Items []services.OrderItem `json:"items" binding:"required"`
}

// POST /orders/store
func (oc *OrderController) Store(c *gin.Context) {
	userID, ok := middlewares.UserIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req storeOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := oc.Svc.Store(c.Request.Context(), userID, req.Items)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyOrder),
			errors.Is(err, services.ErrInvalidCount),
			errors.Is(err, services.ErrUnknownProduct):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusCreated, order)
}

// GET /orders/index
func (oc *OrderController) Index(c *gin.Context) {
	userID, ok := middlewares.UserIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	orders, err := oc.Svc.ListForUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": orders})
}
