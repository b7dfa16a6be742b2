package service

import (
	"fmt"
	"testing"

	"reverie/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.TokenTransaction{},
		&models.Subscription{},
		&models.FinancialCategory{},
		&models.FinancialTransaction{},
	))
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, balance int64) *models.User {
	t.Helper()
	u := &models.User{
		Username:     fmt.Sprintf("user-%s", t.Name()),
		Email:        fmt.Sprintf("%s@test.local", t.Name()),
		Role:         "USER",
		TokenBalance: balance,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}
