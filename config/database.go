package config

import (
	"time"

	"mealplanner/logging"
	"mealplanner/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var DB *gorm.DB

// InitDB opens postgres and migrates every model. It exits the process on failure.
func InitDB(s DatabaseSettings) *gorm.DB {
	zl := logging.Logger().With().Str("component", "gorm").Logger()
	gl := gormlogger.New(&zl, gormlogger.Config{
		SlowThreshold:             500 * time.Millisecond,
		LogLevel:                  gormlogger.Warn,
		IgnoreRecordNotFoundError: true,
	})

	db, err := gorm.Open(postgres.Open(s.DSN()), &gorm.Config{Logger: gl})
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to connect to database")
	}

	if err := Migrate(db); err != nil {
		logging.Fatal().Err(err).Msg("AutoMigrate failed")
	}
	logging.Info().Str("host", s.Host).Str("database", s.Name).Msg("database ready")

	DB = db
	return db
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Allergy{},
		&models.Preference{},
		&models.Recipe{},
		&models.Ingredient{},
		&models.RecipeIngredient{},
		&models.Meal{},
		&models.MealPlan{},
		&models.ShoppingList{},
		&models.ShoppingItem{},
		&models.Notification{},
		&models.UserDevice{},
	)
}
