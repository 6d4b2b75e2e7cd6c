package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	businessdomain "github.com/listora/listora/internal/business/domain"
)

type createBusinessRequest struct {
	OwnerID  snowflake.ID `json:"owner_id,string"`
	Name     string       `json:"name"`
	Category string       `json:"category"`
}

func (s *Server) CreateBusiness(c *gin.Context) {
	var req createBusinessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request"))
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Category = strings.TrimSpace(req.Category)
	if req.OwnerID == 0 {
		AbortWithError(c, newValidationError("owner_id", "invalid_owner", "invalid owner"))
		return
	}
	if req.Name == "" {
		AbortWithError(c, newValidationError("name", "invalid_name", "invalid name"))
		return
	}
	if req.Category == "" {
		AbortWithError(c, newValidationError("category", "invalid_category", "invalid category"))
		return
	}

	now := s.clock.Now()
	business := &businessdomain.Business{
		ID:        s.genID.Generate(),
		OwnerID:   req.OwnerID,
		Name:      req.Name,
		Category:  req.Category,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.businessRepo.Insert(c.Request.Context(), s.db, business); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": business})
}

func (s *Server) GetBusiness(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	business, err := s.businessRepo.FindByID(c.Request.Context(), s.db, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if business == nil {
		AbortWithError(c, businessdomain.ErrNotFound)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": business})
}
