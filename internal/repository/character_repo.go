package repository

import (
	"reverie/internal/models"

	"gorm.io/gorm"
)

type CharacterRepository struct {
	db *gorm.DB
}

func NewCharacterRepository(db *gorm.DB) *CharacterRepository {
	return &CharacterRepository{db: db}
}

func (r *CharacterRepository) Create(ch *models.Character) error {
	return r.db.Create(ch).Error
}

func (r *CharacterRepository) GetByID(id uint) (*models.Character, error) {
	var ch models.Character
	if err := r.db.First(&ch, id).Error; err != nil {
		return nil, err
	}
	return &ch, nil
}

// ListVisible returns public characters plus the viewer's own, newest first.
func (r *CharacterRepository) ListVisible(viewerID uint, page, limit int) ([]models.Character, int64, error) {
	q := r.db.Model(&models.Character{}).
		Where("is_public = ? OR creator_id = ?", true, viewerID)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.Character
	err := q.Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&rows).Error
	return rows, total, err
}

func (r *CharacterRepository) ListByCreator(creatorID uint) ([]models.Character, error) {
	var rows []models.Character
	err := r.db.Where("creator_id = ?", creatorID).Order("created_at DESC").Find(&rows).Error
	return rows, err
}

func (r *CharacterRepository) Update(ch *models.Character) error {
	return r.db.Save(ch).Error
}

func (r *CharacterRepository) Delete(id uint) error {
	return r.db.Delete(&models.Character{}, id).Error
}
