package controllers

import (
	"net/http"
	"strconv"

	"store/middlewares"
	"store/services"

	"github.com/gin-gonic/gin"
)

type ReviewController struct {
	Svc *services.ProductService
}

func NewReviewController(svc *services.ProductService) *ReviewController {
	return &ReviewController{Svc: svc}
}

type storeReviewRequest struct {
	Body   string `json:"body" binding:"required"`
	Rating *int   `json:"rating" binding:"required,min=1,max=5"`
}

// POST /products/:id/reviews
func (rc *ReviewController) Store(c *gin.Context) {
	userID, ok := middlewares.UserIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}
	product, err := rc.Svc.Find(c.Request.Context(), uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}

	var req storeReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	review, err := rc.Svc.StoreReview(c.Request.Context(), userID, product, services.StoreReviewInput{
		Body:   req.Body,
		Rating: *req.Rating,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, review)
}

type replaceReviewRequest struct {
	Body   *string `json:"body" binding:"required"`
	Rating *int    `json:"rating" binding:"required,min=1,max=5"`
}

type patchReviewRequest struct {
	Body   *string `json:"body"`
	Rating *int    `json:"rating" binding:"omitempty,min=1,max=5"`
}

// POST /reviews/update/:id — method-override duality as for products.
// Only the review's author may update it.
func (rc *ReviewController) Update(c *gin.Context) {
	userID, ok := middlewares.UserIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid review id"})
		return
	}
	review, err := rc.Svc.FindReview(c.Request.Context(), uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "review not found"})
		return
	}
	if review.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "not the review author"})
		return
	}

	in := services.UpdateReviewInput{Replace: overrideMethod(c) == http.MethodPut}
	if in.Replace {
		var req replaceReviewRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		in.Body = req.Body
		in.Rating = req.Rating
	} else {
		var req patchReviewRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		in.Body = req.Body
		in.Rating = req.Rating
	}

	updated, err := rc.Svc.UpdateReview(c.Request.Context(), review, in)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, updated)
}
