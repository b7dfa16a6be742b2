package models

import "time"

// OptionFields is the shape shared by every character taxonomy table.
type OptionFields struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:128;not null" json:"name"`
	SortOrder int       `gorm:"not null;default:0;index" json:"sort_order"`
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (f *OptionFields) GetID() uint           { return f.ID }
func (f *OptionFields) Fields() *OptionFields { return f }

// Option is implemented by all taxonomy models so generic CRUD can address
// them through the registry instead of a per-type switch.
type Option interface {
	GetID() uint
	Fields() *OptionFields
	TableName() string
}

type PersonalityOption struct{ OptionFields }

func (PersonalityOption) TableName() string { return "character_personalities" }

type OccupationOption struct{ OptionFields }

func (OccupationOption) TableName() string { return "character_occupations" }

type RelationshipOption struct{ OptionFields }

func (RelationshipOption) TableName() string { return "character_relationships" }

type BodyTypeOption struct{ OptionFields }

func (BodyTypeOption) TableName() string { return "character_body_types" }

type EthnicityOption struct{ OptionFields }

func (EthnicityOption) TableName() string { return "character_ethnicities" }

type HairStyleOption struct{ OptionFields }

func (HairStyleOption) TableName() string { return "character_hair_styles" }

type HairColorOption struct{ OptionFields }

func (HairColorOption) TableName() string { return "character_hair_colors" }

type EyeColorOption struct{ OptionFields }

func (EyeColorOption) TableName() string { return "character_eye_colors" }

type AgeGroupOption struct{ OptionFields }

func (AgeGroupOption) TableName() string { return "character_age_groups" }

type VoiceOption struct{ OptionFields }

func (VoiceOption) TableName() string { return "character_voices" }

type ArtStyleOption struct{ OptionFields }

func (ArtStyleOption) TableName() string { return "character_art_styles" }
