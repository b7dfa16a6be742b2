package repository

import (
	"reverie/internal/models"

	"gorm.io/gorm"
)

type TicketRepository struct {
	db *gorm.DB
}

func NewTicketRepository(db *gorm.DB) *TicketRepository {
	return &TicketRepository{db: db}
}

func (r *TicketRepository) Create(t *models.Ticket) error {
	return r.db.Create(t).Error
}

func (r *TicketRepository) GetByID(id uint) (*models.Ticket, error) {
	var t models.Ticket
	if err := r.db.First(&t, id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

type TicketFilter struct {
	Status       string
	Priority     string
	AssignedToID uint
	UserID       uint
	Page         int
	Limit        int
}

func (r *TicketRepository) List(f TicketFilter) ([]models.Ticket, int64, error) {
	q := r.db.Model(&models.Ticket{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Priority != "" {
		q = q.Where("priority = ?", f.Priority)
	}
	if f.AssignedToID != 0 {
		q = q.Where("assigned_to_id = ?", f.AssignedToID)
	}
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.Ticket
	err := q.Order("created_at DESC").
		Offset((f.Page - 1) * f.Limit).Limit(f.Limit).
		Find(&rows).Error
	return rows, total, err
}

func (r *TicketRepository) Update(t *models.Ticket) error {
	return r.db.Save(t).Error
}

func (r *TicketRepository) AddActivity(a *models.TicketActivity) error {
	return r.db.Create(a).Error
}

func (r *TicketRepository) ListActivities(ticketID uint) ([]models.TicketActivity, error) {
	var rows []models.TicketActivity
	err := r.db.Where("ticket_id = ?", ticketID).Order("created_at ASC").Find(&rows).Error
	return rows, err
}
