package database

import (
	"fmt"

	"github.com/yeremiapane/snooker-cafe/models"
	"github.com/yeremiapane/snooker-cafe/utils"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects with the configured driver: "mysql" for production, "sqlite" for local runs.
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "mysql":
		dialector = mysql.Open(dsn)
	case "sqlite", "":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	utils.InfoLogger.Println("AutoMigrate completed.")
	return nil
}

// Seed inserts default games and tables when the database has none.
func Seed(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Game{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		defaults := []struct {
			game   string
			tables int
			ppm    float64
			frame  float64
		}{
			{"Snooker", 4, 5, 120},
			{"Pool", 6, 3, 60},
		}
		for i, d := range defaults {
			game := models.Game{Name: d.game, SortOrder: i}
			if err := tx.Create(&game).Error; err != nil {
				return err
			}
			for n := 1; n <= d.tables; n++ {
				table := models.Table{
					GameID:         game.ID,
					Name:           fmt.Sprintf("%s %d", d.game, n),
					Status:         models.TableAvailable,
					PricePerMinute: d.ppm,
					FrameCharge:    d.frame,
				}
				if err := tx.Create(&table).Error; err != nil {
					return err
				}
			}
		}
		utils.InfoLogger.Println("Seeded default games and tables.")
		return nil
	})
}
