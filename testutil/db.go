// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"Workshop/Models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB returns a migrated in-memory database private to the test.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// One connection keeps the in-memory database alive and serialises writers.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, Models.Migrate(db))
	return db
}

// SeedMaterial stores an unused material issued against vehicle.
func SeedMaterial(t *testing.T, db *gorm.DB, vehicle, mrnNo string, total int64) Models.IssuedMaterial {
	t.Helper()

	material := Models.IssuedMaterial{
		Date:           time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		MRNNo:          mrnNo,
		Description:    "Item " + mrnNo,
		VehicleProject: vehicle,
		Total:          decimal.NewFromInt(total),
	}
	material.Normalize(material.Date)
	require.NoError(t, db.Create(&material).Error)
	return material
}

func SeedMachine(t *testing.T, db *gorm.DB, registrationNo string) Models.Machine {
	t.Helper()

	machine := Models.Machine{
		RegistrationNo: registrationNo,
		Brand:          "CAT",
		Type:           "Excavator",
	}
	require.NoError(t, db.Create(&machine).Error)
	return machine
}

// IsUsed reloads the material flag straight from the store.
func IsUsed(t *testing.T, db *gorm.DB, id uint) bool {
	t.Helper()

	var material Models.IssuedMaterial
	require.NoError(t, db.First(&material, id).Error)
	return material.IsUsed
}
