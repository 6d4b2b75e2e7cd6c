package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	boostdomain "github.com/listora/listora/internal/boost/domain"
)

type queueEntryView struct {
	ID                snowflake.ID `json:"id,string"`
	BusinessID        snowflake.ID `json:"business_id,string"`
	SubscriptionID    snowflake.ID `json:"subscription_id,string"`
	State             string       `json:"state"`
	Position          int          `json:"position,omitempty"`
	SlotStart         *time.Time   `json:"slot_start,omitempty"`
	SlotEnd           *time.Time   `json:"slot_end,omitempty"`
	EstimatedStart    *time.Time   `json:"estimated_start,omitempty"`
	EstimatedEnd      *time.Time   `json:"estimated_end,omitempty"`
	IsCurrentlyActive bool         `json:"is_currently_active"`
}

func toQueueEntryView(entry boostdomain.QueueEntry) queueEntryView {
	return queueEntryView{
		ID:                entry.ID,
		BusinessID:        entry.BusinessID,
		SubscriptionID:    entry.SubscriptionID,
		State:             string(entry.State),
		Position:          entry.Position,
		SlotStart:         entry.SlotStart,
		SlotEnd:           entry.SlotEnd,
		EstimatedStart:    entry.EstimatedStart,
		EstimatedEnd:      entry.EstimatedEnd,
		IsCurrentlyActive: entry.State == boostdomain.EntryStateActive,
	}
}

func (s *Server) GetQueueStatus(c *gin.Context) {
	category, ok := categoryParam(c)
	if !ok {
		return
	}

	status, err := s.boostSvc.QueueStatus(c.Request.Context(), category)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	pending := make([]queueEntryView, 0, len(status.Pending))
	for _, entry := range status.Pending {
		pending = append(pending, toQueueEntryView(entry))
	}
	var active *queueEntryView
	if status.Active != nil {
		view := toQueueEntryView(*status.Active)
		active = &view
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"category":     status.Category,
			"active":       active,
			"pending":      pending,
			"counts":       status.Counts,
			"last_updated": status.LastUpdated,
		},
	})
}

func (s *Server) GetEntryStatus(c *gin.Context) {
	category, ok := categoryParam(c)
	if !ok {
		return
	}
	businessID, ok := idParam(c, "businessId")
	if !ok {
		return
	}

	status, err := s.boostSvc.EntryStatus(c.Request.Context(), category, businessID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	view := toQueueEntryView(status.Entry)
	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"entry":                  view,
			"position":               status.Position,
			"estimated_start":        status.EstimatedStart,
			"estimated_end":          status.EstimatedEnd,
			"is_currently_active":    status.IsCurrentlyActive,
			"time_remaining_seconds": int64(status.TimeRemaining / time.Second),
		},
	})
}

func (s *Server) CancelQueueEntry(c *gin.Context) {
	category, ok := categoryParam(c)
	if !ok {
		return
	}
	businessID, ok := idParam(c, "businessId")
	if !ok {
		return
	}

	cancelled, err := s.boostSvc.Cancel(c.Request.Context(), category, businessID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if !cancelled {
		AbortWithError(c, boostdomain.ErrEntryNotFound)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"cancelled": true}})
}

func (s *Server) AdminExpireCurrent(c *gin.Context) {
	category, ok := categoryParam(c)
	if !ok {
		return
	}

	result, err := s.boostSvc.ExpireCurrent(c.Request.Context(), category)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var expired, promoted *queueEntryView
	if result.Expired != nil {
		view := toQueueEntryView(*result.Expired)
		expired = &view
	}
	if result.Promoted != nil {
		view := toQueueEntryView(*result.Promoted)
		promoted = &view
	}
	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"expired":  expired,
			"promoted": promoted,
		},
	})
}

func (s *Server) AdminPromoteNext(c *gin.Context) {
	category, ok := categoryParam(c)
	if !ok {
		return
	}

	entry, err := s.boostSvc.PromoteNext(c.Request.Context(), category)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var promoted *queueEntryView
	if entry != nil {
		view := toQueueEntryView(*entry)
		promoted = &view
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"promoted": promoted}})
}

func (s *Server) AdminResyncQueue(c *gin.Context) {
	category, ok := categoryParam(c)
	if !ok {
		return
	}

	if err := s.projector.ResyncQueue(c.Request.Context(), category); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"resynced": true}})
}

func categoryParam(c *gin.Context) (string, bool) {
	category := strings.TrimSpace(c.Param("category"))
	if category == "" {
		AbortWithError(c, newValidationError("category", "invalid_category", "invalid category"))
		return "", false
	}
	return category, true
}

func idParam(c *gin.Context, name string) (snowflake.ID, bool) {
	id, err := snowflake.ParseString(strings.TrimSpace(c.Param(name)))
	if err != nil || id == 0 {
		AbortWithError(c, newValidationError(name, "invalid_id", "invalid id"))
		return 0, false
	}
	return id, true
}
