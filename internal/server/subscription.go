package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	subscriptiondomain "github.com/listora/listora/internal/subscription/domain"
)

func (s *Server) ConfirmBoostPurchase(c *gin.Context) {
	var req subscriptiondomain.ConfirmBoostPurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request"))
		return
	}

	resp, err := s.subscriptionSvc.ConfirmBoostPurchase(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) GetBoostPurchase(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	subscription, err := s.subscriptionSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": subscription})
}
