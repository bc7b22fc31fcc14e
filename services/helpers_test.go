package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"mealplanner/config"
	"mealplanner/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=off", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func seedUser(t *testing.T, db *gorm.DB, username string) models.User {
	t.Helper()
	u := models.User{Username: username, Email: username + "@example.com", Password: "x"}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func seedRecipe(t *testing.T, db *gorm.DB, name, category string, vegetarian bool) models.Recipe {
	t.Helper()
	r := models.Recipe{Name: name, Category: category, Vegetarian: vegetarian, Description: name + " description"}
	require.NoError(t, db.Create(&r).Error)
	return r
}

// firstChooser always takes the first unused candidate.
type firstChooser struct{}

func (firstChooser) IntN(int) int { return 0 }

// lastChooser always takes the last unused candidate.
type lastChooser struct{}

func (lastChooser) IntN(n int) int { return n - 1 }

type recordedNotification struct {
	UserID  uint
	Type    string
	Message string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []recordedNotification
}

func (f *fakeNotifier) Emit(_ context.Context, userID uint, typ, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, recordedNotification{UserID: userID, Type: typ, Message: message})
}
