package handler

import (
	"errors"
	"net/http"

	"reverie/internal/middleware"
	"reverie/internal/models"
	"reverie/internal/repository"
	"reverie/pkg/cloudinary"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type CharacterHandler struct {
	characters *repository.CharacterRepository
	cloud      cloudinary.Client
}

func NewCharacterHandler(characters *repository.CharacterRepository, cloud cloudinary.Client) *CharacterHandler {
	return &CharacterHandler{characters: characters, cloud: cloud}
}

type characterRequest struct {
	Name        string `json:"name" binding:"required,max=128"`
	Description string `json:"description"`
	Greeting    string `json:"greeting"`
	IsPublic    bool   `json:"is_public"`

	PersonalityID  *uint `json:"personality_id"`
	OccupationID   *uint `json:"occupation_id"`
	RelationshipID *uint `json:"relationship_id"`
	BodyTypeID     *uint `json:"body_type_id"`
	EthnicityID    *uint `json:"ethnicity_id"`
	HairStyleID    *uint `json:"hair_style_id"`
	HairColorID    *uint `json:"hair_color_id"`
	EyeColorID     *uint `json:"eye_color_id"`
	AgeGroupID     *uint `json:"age_group_id"`
	VoiceID        *uint `json:"voice_id"`
	ArtStyleID     *uint `json:"art_style_id"`
}

func (r *characterRequest) apply(ch *models.Character) {
	ch.Name = r.Name
	ch.Description = r.Description
	ch.Greeting = r.Greeting
	ch.IsPublic = r.IsPublic
	ch.PersonalityID = r.PersonalityID
	ch.OccupationID = r.OccupationID
	ch.RelationshipID = r.RelationshipID
	ch.BodyTypeID = r.BodyTypeID
	ch.EthnicityID = r.EthnicityID
	ch.HairStyleID = r.HairStyleID
	ch.HairColorID = r.HairColorID
	ch.EyeColorID = r.EyeColorID
	ch.AgeGroupID = r.AgeGroupID
	ch.VoiceID = r.VoiceID
	ch.ArtStyleID = r.ArtStyleID
}

// Create builds a character from the taxonomy selections.
func (h *CharacterHandler) Create(c *gin.Context) {
	var req characterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ch := models.Character{CreatorID: middleware.GetUserID(c)}
	req.apply(&ch)
	if err := h.characters.Create(&ch); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "character creation failed"})
		return
	}
	c.JSON(http.StatusCreated, ch)
}

// List returns public characters plus the viewer's own.
func (h *CharacterHandler) List(c *gin.Context) {
	page, limit := parsePagination(c)
	rows, total, err := h.characters.ListVisible(middleware.GetUserID(c), page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "listing failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"characters": rows, "total": total, "page": page, "limit": limit})
}

// ListMine returns the current user's characters, public or not.
func (h *CharacterHandler) ListMine(c *gin.Context) {
	rows, err := h.characters.ListByCreator(middleware.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "listing failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"characters": rows})
}

// visibleTo reports whether the viewer may see the character.
func visibleTo(ch *models.Character, viewerID uint) bool {
	return ch.IsPublic || ch.CreatorID == viewerID
}

func (h *CharacterHandler) Get(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid character id"})
		return
	}
	ch, err := h.characters.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "character not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	if !visibleTo(ch, middleware.GetUserID(c)) {
		c.JSON(http.StatusNotFound, gin.H{"error": "character not found"})
		return
	}
	c.JSON(http.StatusOK, ch)
}

// Update replaces the character's editable fields. Creator only.
func (h *CharacterHandler) Update(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid character id"})
		return
	}
	ch, err := h.characters.GetByID(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "character not found"})
		return
	}
	if ch.CreatorID != middleware.GetUserID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your character"})
		return
	}
	var req characterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.apply(ch)
	if err := h.characters.Update(ch); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, ch)
}

func (h *CharacterHandler) Delete(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid character id"})
		return
	}
	ch, err := h.characters.GetByID(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "character not found"})
		return
	}
	if ch.CreatorID != middleware.GetUserID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your character"})
		return
	}
	if err := h.characters.Delete(id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "deletion failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// UploadAvatar stores a character portrait in Cloudinary and saves the URL.
func (h *CharacterHandler) UploadAvatar(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid character id"})
		return
	}
	ch, err := h.characters.GetByID(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "character not found"})
		return
	}
	if ch.CreatorID != middleware.GetUserID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your character"})
		return
	}
	file, err := c.FormFile("avatar")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "avatar file required"})
		return
	}
	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file"})
		return
	}
	defer src.Close()

	url, thumbURL, err := h.cloud.UploadImage(c.Request.Context(), src, "characters", uuid.NewString())
	if err != nil {
		log.Errorf("[Character] avatar upload for %d: %v", ch.ID, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "upload failed"})
		return
	}
	ch.AvatarURL = url
	if err := h.characters.Update(ch); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"avatar_url": url, "thumbnail_url": thumbURL})
}
