// Package testutil opens throwaway SQLite databases with the portal schema and
// seeds the records most tests start from.
package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"opsportal/internal/database"
	"opsportal/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbSeq atomic.Int64

// NewDB returns a migrated in-memory database private to t. It uses a single
// connection, so code under test must run transactional work through the tx context.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_foreign_keys=1", name, dbSeq.Add(1))

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

// CostCenter inserts a cost center
func CostCenter(t testing.TB, db *gorm.DB, name, code string) *model.CostCenter {
	t.Helper()
	cc := &model.CostCenter{Name: name, Code: code}
	require.NoError(t, db.Create(cc).Error)
	return cc
}

// User inserts a user; costCenter may be nil
func User(t testing.TB, db *gorm.DB, username, role, department string, costCenter *model.CostCenter) *model.User {
	t.Helper()
	u := &model.User{
		Username:   username,
		Email:      username + "@example.com",
		Password:   "not-a-hash",
		Role:       role,
		Department: department,
	}
	if costCenter != nil {
		u.CostCenterID = &costCenter.ID
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

// Expense inserts an expense submitted by user
func Expense(t testing.TB, db *gorm.DB, user *model.User, name string, amount, unitPrice, vat int64) *model.ProjectExpense {
	t.Helper()
	e := &model.ProjectExpense{
		Tag:           uuid.NewString(),
		Name:          name,
		Amount:        decimal.NewFromInt(amount),
		UnitPrice:     decimal.NewFromInt(unitPrice),
		VAT:           decimal.NewFromInt(vat),
		EntryDate:     time.Now().UTC(),
		SubmittedByID: &user.ID,
	}
	require.NoError(t, db.Create(e).Error)
	return e
}

// Report inserts a report of reportType by inspector at submittedAt
func Report(t testing.TB, db *gorm.DB, inspector *model.User, reportType string, submittedAt time.Time) *model.Report {
	t.Helper()
	r := &model.Report{
		ReportType:  reportType,
		SubmittedAt: submittedAt.UTC(),
		InspectorID: inspector.ID,
		Items:       []model.ReportItem{{Position: 0, Task: "check site", Status: true}},
	}
	require.NoError(t, db.Create(r).Error)
	return r
}
