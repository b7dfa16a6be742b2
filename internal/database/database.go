package database

import (
	"encoding/json"

	"reverie/config"
	"reverie/internal/domain"
	"reverie/internal/models"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return db, nil
}

// AutoMigrate runs Gorm auto-migration for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Role{},
		&models.TokenTransaction{},
		&models.Subscription{},
		&models.FinancialCategory{},
		&models.FinancialTransaction{},
		&models.Ticket{},
		&models.TicketActivity{},
		&models.Character{},
		&models.PersonalityOption{},
		&models.OccupationOption{},
		&models.RelationshipOption{},
		&models.BodyTypeOption{},
		&models.EthnicityOption{},
		&models.HairStyleOption{},
		&models.HairColorOption{},
		&models.EyeColorOption{},
		&models.AgeGroupOption{},
		&models.VoiceOption{},
		&models.ArtStyleOption{},
	)
}

// SeedAdmin creates the default admin account and roles when missing.
func SeedAdmin(db *gorm.DB) {
	adminPerms, _ := json.Marshal(map[string][]string{"*": {"*"}})
	supportPerms, _ := json.Marshal(map[string][]string{
		"tickets": {"read", "update", "assign"},
	})
	for _, r := range []models.Role{
		{Name: domain.RoleAdmin, Description: "Full access", Permissions: string(adminPerms)},
		{Name: "SUPPORT", Description: "Ticket triage", Permissions: string(supportPerms)},
	} {
		var existing models.Role
		if err := db.Where("name = ?", r.Name).First(&existing).Error; err == gorm.ErrRecordNotFound {
			if err := db.Create(&r).Error; err != nil {
				log.Warnf("[Seed] role %s: %v", r.Name, err)
			}
		}
	}

	var count int64
	db.Model(&models.User{}).Where("role = ?", domain.RoleAdmin).Count(&count)
	if count > 0 {
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte("admin-change-me"), bcrypt.DefaultCost)
	if err != nil {
		return
	}
	admin := models.User{
		Username:     "admin",
		Email:        "admin@reverie.local",
		PasswordHash: string(hash),
		Role:         domain.RoleAdmin,
	}
	if err := db.Create(&admin).Error; err != nil {
		log.Warnf("[Seed] admin user: %v", err)
		return
	}
	log.Info("[Seed] created default admin account (change the password)")
}
