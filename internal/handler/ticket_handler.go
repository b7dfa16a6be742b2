package handler

import (
	"errors"
	"net/http"
	"time"

	"reverie/internal/domain"
	"reverie/internal/middleware"
	"reverie/internal/models"
	"reverie/internal/repository"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type TicketHandler struct {
	tickets *repository.TicketRepository
}

func NewTicketHandler(tickets *repository.TicketRepository) *TicketHandler {
	return &TicketHandler{tickets: tickets}
}

// Create opens a new support ticket for the current user.
func (h *TicketHandler) Create(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req struct {
		Subject     string `json:"subject" binding:"required,max=255"`
		Description string `json:"description" binding:"required"`
		Priority    string `json:"priority" binding:"omitempty,oneof=low medium high urgent"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Priority == "" {
		req.Priority = domain.PriorityMedium
	}
	t := models.Ticket{
		UserID:      userID,
		Subject:     req.Subject,
		Description: req.Description,
		Status:      domain.TicketOpen,
		Priority:    req.Priority,
	}
	if err := h.tickets.Create(&t); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "ticket creation failed"})
		return
	}
	c.JSON(http.StatusCreated, t)
}

// ListMine returns the current user's tickets.
func (h *TicketHandler) ListMine(c *gin.Context) {
	userID := middleware.GetUserID(c)
	page, limit := parsePagination(c)
	rows, total, err := h.tickets.List(repository.TicketFilter{
		UserID: userID,
		Status: c.Query("status"),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "ticket listing failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tickets": rows, "total": total, "page": page, "limit": limit})
}

// Get returns a single ticket with its activity trail. Owners and staff only.
func (h *TicketHandler) Get(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ticket id"})
		return
	}
	t, err := h.tickets.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "ticket not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "ticket lookup failed"})
		return
	}
	if t.UserID != middleware.GetUserID(c) && middleware.GetRole(c) == domain.RoleUser {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your ticket"})
		return
	}
	activities, err := h.tickets.ListActivities(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "ticket lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ticket": t, "activities": activities})
}

// List is the staff-side listing with status/priority/assignee filters.
func (h *TicketHandler) List(c *gin.Context) {
	page, limit := parsePagination(c)
	f := repository.TicketFilter{
		Status:   c.Query("status"),
		Priority: c.Query("priority"),
		Page:     page,
		Limit:    limit,
	}
	if assignee, ok := queryUint(c, "assigned_to"); ok {
		f.AssignedToID = assignee
	}
	rows, total, err := h.tickets.List(f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "ticket listing failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tickets": rows, "total": total, "page": page, "limit": limit})
}

// Assign sets the assignee. Assigning an open ticket moves it to in_progress.
func (h *TicketHandler) Assign(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ticket id"})
		return
	}
	var req struct {
		AssigneeID uint `json:"assignee_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	t, err := h.tickets.GetByID(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "ticket not found"})
		return
	}
	actorID := middleware.GetUserID(c)
	prevStatus := t.Status
	t.AssignedToID = &req.AssigneeID
	if t.Status == domain.TicketOpen {
		t.Status = domain.TicketInProgress
	}
	if err := h.tickets.Update(t); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "assignment failed"})
		return
	}
	h.audit(t.ID, actorID, "assigned", "", "", "")
	if t.Status != prevStatus {
		h.audit(t.ID, actorID, "status_change", prevStatus, t.Status, "auto on assignment")
	}
	c.JSON(http.StatusOK, t)
}

// UpdateStatus transitions a ticket. Entering resolved stamps ResolvedAt,
// leaving it clears the stamp.
func (h *TicketHandler) UpdateStatus(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ticket id"})
		return
	}
	var req struct {
		Status string `json:"status" binding:"required,oneof=open in_progress resolved closed"`
		Note   string `json:"note" binding:"max=512"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	t, err := h.tickets.GetByID(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "ticket not found"})
		return
	}
	prev := t.Status
	t.Status = req.Status
	if req.Status == domain.TicketResolved {
		now := time.Now()
		t.ResolvedAt = &now
	} else {
		t.ResolvedAt = nil
	}
	if err := h.tickets.Update(t); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "status update failed"})
		return
	}
	h.audit(t.ID, middleware.GetUserID(c), "status_change", prev, req.Status, req.Note)
	c.JSON(http.StatusOK, t)
}

// UpdatePriority changes the triage priority.
func (h *TicketHandler) UpdatePriority(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ticket id"})
		return
	}
	var req struct {
		Priority string `json:"priority" binding:"required,oneof=low medium high urgent"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	t, err := h.tickets.GetByID(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "ticket not found"})
		return
	}
	prev := t.Priority
	t.Priority = req.Priority
	if err := h.tickets.Update(t); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "priority update failed"})
		return
	}
	h.audit(t.ID, middleware.GetUserID(c), "priority_change", prev, req.Priority, "")
	c.JSON(http.StatusOK, t)
}

// AddComment appends a comment to the activity trail. Owners and staff only.
func (h *TicketHandler) AddComment(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ticket id"})
		return
	}
	var req struct {
		Note string `json:"note" binding:"required,max=512"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	t, err := h.tickets.GetByID(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "ticket not found"})
		return
	}
	userID := middleware.GetUserID(c)
	if t.UserID != userID && middleware.GetRole(c) == domain.RoleUser {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your ticket"})
		return
	}
	a := models.TicketActivity{TicketID: t.ID, ActorID: userID, Action: "comment", Note: req.Note}
	if err := h.tickets.AddActivity(&a); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "comment failed"})
		return
	}
	c.JSON(http.StatusCreated, a)
}

// audit records an activity row. Audit failures are logged, never surfaced;
// the primary mutation already succeeded.
func (h *TicketHandler) audit(ticketID, actorID uint, action, from, to, note string) {
	err := h.tickets.AddActivity(&models.TicketActivity{
		TicketID:  ticketID,
		ActorID:   actorID,
		Action:    action,
		FromValue: from,
		ToValue:   to,
		Note:      note,
	})
	if err != nil {
		log.Warnf("[Ticket] audit %s on ticket %d: %v", action, ticketID, err)
	}
}
