package models

import (
	"time"

	"gorm.io/gorm"
)

type Character struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	CreatorID   uint   `gorm:"not null;index" json:"creator_id"`
	Name        string `gorm:"size:128;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	Greeting    string `gorm:"type:text" json:"greeting"`
	AvatarURL   string `gorm:"size:512" json:"avatar_url"`
	IsPublic    bool   `gorm:"not null;default:false;index" json:"is_public"`

	// Taxonomy references; each points into its option table.
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

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Creator User `gorm:"foreignKey:CreatorID" json:"-"`
}

func (Character) TableName() string {
	return "characters"
}
