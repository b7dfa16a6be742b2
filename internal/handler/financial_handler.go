package handler

import (
	"errors"
	"net/http"
	"time"

	"reverie/internal/models"
	"reverie/internal/repository"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type FinancialHandler struct {
	fin *repository.FinancialRepository
}

func NewFinancialHandler(fin *repository.FinancialRepository) *FinancialHandler {
	return &FinancialHandler{fin: fin}
}

func parseFinancialFilter(c *gin.Context) repository.FinancialFilter {
	page, limit := parsePagination(c)
	f := repository.FinancialFilter{
		Type:     c.Query("type"),
		Provider: c.Query("provider"),
		Page:     page,
		Limit:    limit,
	}
	if catID, ok := queryUint(c, "category_id"); ok {
		f.CategoryID = catID
	}
	if v := c.Query("from"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			f.From = &t
		}
	}
	if v := c.Query("to"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			f.To = &t
		}
	}
	return f
}

// List returns financial transactions filtered by type, category, provider
// and time range.
func (h *FinancialHandler) List(c *gin.Context) {
	f := parseFinancialFilter(c)
	rows, total, err := h.fin.List(f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "listing failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": rows, "total": total, "page": f.Page, "limit": f.Limit})
}

// Summary returns income/expense totals for the selected time range.
func (h *FinancialHandler) Summary(c *gin.Context) {
	s, err := h.fin.Summary(parseFinancialFilter(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "summary failed"})
		return
	}
	c.JSON(http.StatusOK, s)
}

type financialTxRequest struct {
	CategoryName string  `json:"category_name" binding:"required,max=64"`
	Type         string  `json:"type" binding:"required,oneof=income expense"`
	Amount       float64 `json:"amount" binding:"required,gt=0"`
	Currency     string  `json:"currency" binding:"omitempty,max=8"`
	Description  string  `json:"description" binding:"max=255"`
}

// Create records a manual income/expense entry. Provider-originated rows come
// only from the webhook path and carry an external id; manual rows never do.
func (h *FinancialHandler) Create(c *gin.Context) {
	var req financialTxRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Currency == "" {
		req.Currency = "USD"
	}
	var ft models.FinancialTransaction
	err := h.fin.WithTransaction(func(tx *gorm.DB) error {
		cat, err := h.fin.EnsureCategory(tx, req.CategoryName, req.Type)
		if err != nil {
			return err
		}
		ft = models.FinancialTransaction{
			CategoryID:  cat.ID,
			Type:        req.Type,
			Amount:      req.Amount,
			Currency:    req.Currency,
			Description: req.Description,
		}
		return h.fin.CreateTx(tx, &ft)
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "creation failed"})
		return
	}
	c.JSON(http.StatusCreated, ft)
}

// Update edits the mutable fields of a manual entry. Reconciled rows (those
// with an external id) are immutable.
func (h *FinancialHandler) Update(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid transaction id"})
		return
	}
	var req struct {
		Amount      *float64 `json:"amount" binding:"omitempty,gt=0"`
		Description *string  `json:"description" binding:"omitempty,max=255"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ft, err := h.fin.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "transaction not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	if ft.ExternalID != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "reconciled transactions are immutable"})
		return
	}
	if req.Amount != nil {
		ft.Amount = *req.Amount
	}
	if req.Description != nil {
		ft.Description = *req.Description
	}
	if err := h.fin.Update(ft); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, ft)
}

// Delete removes a manual entry. Reconciled rows are immutable.
func (h *FinancialHandler) Delete(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid transaction id"})
		return
	}
	ft, err := h.fin.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "transaction not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	if ft.ExternalID != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "reconciled transactions are immutable"})
		return
	}
	if err := h.fin.Delete(id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "deletion failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// ListCategories returns all categories, ordered by name.
func (h *FinancialHandler) ListCategories(c *gin.Context) {
	cats, err := h.fin.ListCategories()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "listing failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": cats})
}
