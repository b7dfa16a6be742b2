package handler

import (
	"errors"
	"net/http"

	"reverie/internal/repository"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CharacterOptionsHandler serves the taxonomy tables behind character
// creation. Every option type shares one code path keyed by the :type param.
type CharacterOptionsHandler struct {
	registry *repository.OptionRegistry
}

func NewCharacterOptionsHandler(registry *repository.OptionRegistry) *CharacterOptionsHandler {
	return &CharacterOptionsHandler{registry: registry}
}

// ListTypes returns the known option type tags.
func (h *CharacterOptionsHandler) ListTypes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"types": repository.OptionTypes()})
}

func (h *CharacterOptionsHandler) List(c *gin.Context) {
	rows, err := h.registry.List(c.Param("type"))
	if err != nil {
		if errors.Is(err, repository.ErrUnknownOptionType) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "listing failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"options": rows})
}

func (h *CharacterOptionsHandler) Create(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required,max=128"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	row, err := h.registry.Create(c.Param("type"), req.Name)
	if err != nil {
		if errors.Is(err, repository.ErrUnknownOptionType) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "creation failed"})
		return
	}
	c.JSON(http.StatusCreated, row)
}

func (h *CharacterOptionsHandler) Update(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid option id"})
		return
	}
	var req struct {
		Name     *string `json:"name" binding:"omitempty,max=128"`
		IsActive *bool   `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nothing to update"})
		return
	}
	if err := h.registry.Update(c.Param("type"), id, updates); err != nil {
		switch {
		case errors.Is(err, repository.ErrUnknownOptionType):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "option not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		}
		return
	}
	row, err := h.registry.Get(c.Param("type"), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, row)
}

func (h *CharacterOptionsHandler) Delete(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid option id"})
		return
	}
	if err := h.registry.Delete(c.Param("type"), id); err != nil {
		switch {
		case errors.Is(err, repository.ErrUnknownOptionType):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "option not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "deletion failed"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// Reorder rewrites the display order to match the supplied id list.
func (h *CharacterOptionsHandler) Reorder(c *gin.Context) {
	var req struct {
		OrderedIDs []uint `json:"ordered_ids" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.registry.Reorder(c.Param("type"), req.OrderedIDs); err != nil {
		if errors.Is(err, repository.ErrUnknownOptionType) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "reorder failed"})
		return
	}
	rows, err := h.registry.List(c.Param("type"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "listing failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"options": rows})
}
