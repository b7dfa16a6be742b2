package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"reverie/internal/models"
	"reverie/internal/repository"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type RoleHandler struct {
	roles *repository.RoleRepository
}

func NewRoleHandler(roles *repository.RoleRepository) *RoleHandler {
	return &RoleHandler{roles: roles}
}

func (h *RoleHandler) List(c *gin.Context) {
	roles, err := h.roles.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "listing failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"roles": roles})
}

type roleRequest struct {
	Name        string              `json:"name" binding:"required,max=32"`
	Description string              `json:"description" binding:"max=255"`
	Permissions map[string][]string `json:"permissions" binding:"required"`
}

func (h *RoleHandler) Create(c *gin.Context) {
	var req roleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	perms, _ := json.Marshal(req.Permissions)
	role := models.Role{Name: req.Name, Description: req.Description, Permissions: string(perms)}
	if err := h.roles.Create(&role); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "role creation failed"})
		return
	}
	c.JSON(http.StatusCreated, role)
}

func (h *RoleHandler) Update(c *gin.Context) {
	name := c.Param("name")
	role, err := h.roles.GetByName(name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "role not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	var req struct {
		Description *string             `json:"description" binding:"omitempty,max=255"`
		Permissions map[string][]string `json:"permissions"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Description != nil {
		role.Description = *req.Description
	}
	if req.Permissions != nil {
		perms, _ := json.Marshal(req.Permissions)
		role.Permissions = string(perms)
	}
	if err := h.roles.Update(role); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, role)
}

func (h *RoleHandler) Delete(c *gin.Context) {
	role, err := h.roles.GetByName(c.Param("name"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "role not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	if err := h.roles.Delete(role.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "deletion failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
