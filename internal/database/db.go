package database

import (
	"stocktide-backend/internal/config"
	"stocktide-backend/internal/logging"
	"stocktide-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init(cfg *config.Config) {
	log := logging.Logger()

	var err error
	DB, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("cannot connect to database: %v", err)
	}

	err = DB.AutoMigrate(
		&models.Organization{},
		&models.Branch{},
		&models.User{},
		&models.Product{},
		&models.StockRecord{},
		&models.Transfer{},
		&models.APIKey{},
		&models.APIRequestLog{},
		&models.AuditLog{},
	)
	if err != nil {
		log.Fatalf("AutoMigrate failed: %v", err)
	}

	// Organizations created before the is_main flag existed have no main
	// branch; promote their earliest branch so the default inventory view
	// has something to fall back to.
	if DB.Migrator().HasTable(&models.Branch{}) {
		var orphanOrgs []uint
		DB.Raw(`
			SELECT o.id FROM organizations o
			WHERE NOT EXISTS (
				SELECT 1 FROM branches b
				WHERE b.organization_id = o.id AND b.is_main = true
			)
			AND EXISTS (SELECT 1 FROM branches b WHERE b.organization_id = o.id)
		`).Scan(&orphanOrgs)

		for _, orgID := range orphanOrgs {
			var first models.Branch
			if err := DB.Where("organization_id = ?", orgID).
				Order("created_at ASC, id ASC").
				First(&first).Error; err == nil {
				DB.Model(&models.Branch{}).Where("id = ?", first.ID).Update("is_main", true)
				log.Infof("promoted branch %d to main for organization %d", first.ID, orgID)
			}
		}
	}

	log.Info("database connected, migration complete")
}
