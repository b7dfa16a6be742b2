package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"reverie/internal/domain"
	"reverie/internal/models"
	"reverie/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type ticketFixture struct {
	db     *gorm.DB
	repo   *repository.TicketRepository
	router *gin.Engine
}

// newTicketFixture wires the ticket routes behind a stub auth middleware that
// injects the given identity.
func newTicketFixture(t *testing.T, userID uint, role string) *ticketFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Ticket{}, &models.TicketActivity{}))

	repo := repository.NewTicketRepository(db)
	h := NewTicketHandler(repo)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Set("role", role)
		c.Next()
	})
	r.POST("/tickets", h.Create)
	r.GET("/tickets/:id", h.Get)
	r.POST("/tickets/:id/assign", h.Assign)
	r.PUT("/tickets/:id/status", h.UpdateStatus)
	r.PUT("/tickets/:id/priority", h.UpdatePriority)
	return &ticketFixture{db: db, repo: repo, router: r}
}

func (f *ticketFixture) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	f.router.ServeHTTP(w, req)
	return w
}

func (f *ticketFixture) seedTicket(t *testing.T, userID uint) *models.Ticket {
	t.Helper()
	ticket := &models.Ticket{
		UserID:   userID,
		Subject:  "payment stuck",
		Status:   domain.TicketOpen,
		Priority: domain.PriorityMedium,
	}
	require.NoError(t, f.repo.Create(ticket))
	return ticket
}

func TestTicketCreateDefaults(t *testing.T) {
	f := newTicketFixture(t, 5, domain.RoleUser)

	w := f.do(t, http.MethodPost, "/tickets", gin.H{
		"subject":     "cannot log in",
		"description": "password reset loops",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var got models.Ticket
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, uint(5), got.UserID)
	assert.Equal(t, domain.TicketOpen, got.Status)
	assert.Equal(t, domain.PriorityMedium, got.Priority)
}

func TestTicketAssignMovesOpenToInProgress(t *testing.T) {
	f := newTicketFixture(t, 1, domain.RoleAdmin)
	ticket := f.seedTicket(t, 5)

	w := f.do(t, http.MethodPost, fmt.Sprintf("/tickets/%d/assign", ticket.ID), gin.H{"assignee_id": 9})
	require.Equal(t, http.StatusOK, w.Code)

	got, err := f.repo.GetByID(ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketInProgress, got.Status)
	require.NotNil(t, got.AssignedToID)
	assert.Equal(t, uint(9), *got.AssignedToID)

	// Assignment plus the automatic status change each leave an audit row.
	activities, err := f.repo.ListActivities(ticket.ID)
	require.NoError(t, err)
	require.Len(t, activities, 2)
	assert.Equal(t, "assigned", activities[0].Action)
	assert.Equal(t, "status_change", activities[1].Action)
	assert.Equal(t, domain.TicketOpen, activities[1].FromValue)
	assert.Equal(t, domain.TicketInProgress, activities[1].ToValue)
}

func TestTicketResolveStampsAndReopenClears(t *testing.T) {
	f := newTicketFixture(t, 1, domain.RoleAdmin)
	ticket := f.seedTicket(t, 5)

	w := f.do(t, http.MethodPut, fmt.Sprintf("/tickets/%d/status", ticket.ID), gin.H{"status": "resolved"})
	require.Equal(t, http.StatusOK, w.Code)
	got, err := f.repo.GetByID(ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketResolved, got.Status)
	assert.NotNil(t, got.ResolvedAt)

	w = f.do(t, http.MethodPut, fmt.Sprintf("/tickets/%d/status", ticket.ID), gin.H{"status": "open"})
	require.Equal(t, http.StatusOK, w.Code)
	got, err = f.repo.GetByID(ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketOpen, got.Status)
	assert.Nil(t, got.ResolvedAt)
}

func TestTicketStatusRejectsUnknown(t *testing.T) {
	f := newTicketFixture(t, 1, domain.RoleAdmin)
	ticket := f.seedTicket(t, 5)

	w := f.do(t, http.MethodPut, fmt.Sprintf("/tickets/%d/status", ticket.ID), gin.H{"status": "parked"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTicketGetHiddenFromStrangers(t *testing.T) {
	f := newTicketFixture(t, 77, domain.RoleUser)
	ticket := f.seedTicket(t, 5)

	w := f.do(t, http.MethodGet, fmt.Sprintf("/tickets/%d", ticket.ID), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestTicketPriorityChangeAudited(t *testing.T) {
	f := newTicketFixture(t, 1, domain.RoleAdmin)
	ticket := f.seedTicket(t, 5)

	w := f.do(t, http.MethodPut, fmt.Sprintf("/tickets/%d/priority", ticket.ID), gin.H{"priority": "urgent"})
	require.Equal(t, http.StatusOK, w.Code)

	activities, err := f.repo.ListActivities(ticket.ID)
	require.NoError(t, err)
	require.Len(t, activities, 1)
	assert.Equal(t, "priority_change", activities[0].Action)
	assert.Equal(t, domain.PriorityMedium, activities[0].FromValue)
	assert.Equal(t, domain.PriorityUrgent, activities[0].ToValue)
}
