package testutil

import (
	"fmt"
	"strings"
	"testing"

	"billsplit-backend/database"
	"billsplit-backend/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenDB opens an isolated in-memory database, migrates the schema and swaps
// it into database.DB for the duration of the test. The DSN is keyed by test
// name so parallel packages never share state.
func OpenDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Bill{},
		&models.BillParticipant{},
		&models.Expense{},
	)
	if err != nil {
		t.Fatalf("migrate test database: %v", err)
	}

	prev := database.DB
	database.DB = db
	t.Cleanup(func() {
		database.DB = prev
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})

	return db
}

// CreateUser inserts a user with a fixed password hash.
func CreateUser(t *testing.T, db *gorm.DB, name, email string) models.User {
	t.Helper()

	user := models.User{
		Name:         name,
		Email:        email,
		PasswordHash: "not-a-real-hash",
		IsActive:     true,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return user
}

// CreateBill inserts a bill and its participant rows.
func CreateBill(t *testing.T, db *gorm.DB, title string, total float64, creator models.User, participants ...models.User) models.Bill {
	t.Helper()

	bill := models.Bill{
		Title:       title,
		TotalAmount: total,
		CreatedBy:   creator.ID,
	}
	if err := db.Create(&bill).Error; err != nil {
		t.Fatalf("create bill %s: %v", title, err)
	}

	for _, p := range participants {
		row := models.BillParticipant{BillID: bill.ID, UserID: p.ID}
		if err := db.Create(&row).Error; err != nil {
			t.Fatalf("add participant %s to bill %s: %v", p.Email, title, err)
		}
	}
	return bill
}
