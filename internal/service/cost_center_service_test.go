package service_test

import (
	"context"
	"testing"

	"opsportal/internal/apperror"
	"opsportal/internal/model"
	"opsportal/internal/repository"
	"opsportal/internal/service"
	dbtest "opsportal/internal/testutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newCostCenterService(db *gorm.DB) service.CostCenterService {
	return service.NewCostCenterService(
		repository.NewCostCenterRepository(db),
		repository.NewLedgerRepository(db),
		repository.NewAuditRepository(db),
		repository.NewTransactionManager(db),
	)
}

func TestCostCenterLifecycle(t *testing.T) {
	db := dbtest.NewDB(t)
	svc := newCostCenterService(db)
	ctx := context.Background()
	admin := dbtest.User(t, db, "admin", model.RoleSuperAdmin, "IT", nil)

	created, err := svc.CreateCostCenter(ctx, admin.ID.String(), service.CostCenterRequest{Name: " Hanoi Port ", Code: "HN-P"})
	require.NoError(t, err)
	assert.Equal(t, "Hanoi Port", created.Name)

	_, err = svc.CreateCostCenter(ctx, admin.ID.String(), service.CostCenterRequest{Name: "Other", Code: "HN-P"})
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))

	updated, err := svc.UpdateCostCenter(ctx, admin.ID.String(), created.ID, service.CostCenterRequest{Description: "river port"})
	require.NoError(t, err)
	assert.Equal(t, "HN-P", updated.Code)
	assert.Equal(t, "river port", updated.Description)

	found, err := svc.ListCostCenters(ctx, "port")
	require.NoError(t, err)
	require.Len(t, found, 1)

	require.NoError(t, svc.DeleteCostCenter(ctx, admin.ID.String(), created.ID))
	_, err = svc.GetCostCenter(ctx, created.ID)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(svc.DeleteCostCenter(ctx, admin.ID.String(), created.ID)))
}

func TestUpdateCostCenterCodeConflict(t *testing.T) {
	db := dbtest.NewDB(t)
	svc := newCostCenterService(db)
	a := dbtest.CostCenter(t, db, "A", "A")
	dbtest.CostCenter(t, db, "B", "B")

	_, err := svc.UpdateCostCenter(context.Background(), "", a.ID.String(), service.CostCenterRequest{Code: "B"})
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))
}

func TestDeleteAssignedCostCenterConflicts(t *testing.T) {
	db := dbtest.NewDB(t)
	svc := newCostCenterService(db)
	cc := dbtest.CostCenter(t, db, "Site", "S")
	dbtest.User(t, db, "tuan", model.RoleInspector, "QA", cc)

	err := svc.DeleteCostCenter(context.Background(), "", cc.ID.String())
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))

	_, err = svc.GetCostCenter(context.Background(), cc.ID.String())
	assert.NoError(t, err)
}

func TestLedgerBalance(t *testing.T) {
	db := dbtest.NewDB(t)
	svc := newCostCenterService(db)
	ctx := context.Background()
	cc := dbtest.CostCenter(t, db, "Site", "S")
	accountant := dbtest.User(t, db, "hoa", model.RoleHeadOfAccounting, "Accounting", nil)

	_, err := svc.CreateLedgerEntry(ctx, accountant.ID.String(), cc.ID.String(), service.LedgerEntryRequest{
		EntryDate: "2024-06-01", Reference: "UNC-01", Credit: decimal.NewFromInt(5000),
	})
	require.NoError(t, err)
	debit, err := svc.CreateLedgerEntry(ctx, accountant.ID.String(), cc.ID.String(), service.LedgerEntryRequest{
		EntryDate: "02-06-2024", Reference: "UNC-02", Debit: decimal.NewFromInt(1200),
	})
	require.NoError(t, err)
	assert.Equal(t, "02-06-2024 00:00:00", debit.EntryDate)

	page, err := svc.ListLedger(ctx, cc.ID.String(), 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)
	assert.True(t, decimal.NewFromInt(3800).Equal(page.Balance), page.Balance.String())
	assert.Equal(t, "UNC-02", page.Entries[0].Reference)

	require.NoError(t, svc.DeleteLedgerEntry(ctx, accountant.ID.String(), cc.ID.String(), debit.ID))
	page, err = svc.ListLedger(ctx, cc.ID.String(), 1, 20)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(5000).Equal(page.Balance), page.Balance.String())
}

func TestLedgerEntryValidation(t *testing.T) {
	db := dbtest.NewDB(t)
	svc := newCostCenterService(db)
	ctx := context.Background()
	cc := dbtest.CostCenter(t, db, "Site", "S")
	other := dbtest.CostCenter(t, db, "Other", "O")

	for _, req := range []service.LedgerEntryRequest{
		{},
		{Debit: decimal.NewFromInt(-1)},
		{Debit: decimal.NewFromInt(1), EntryDate: "yesterday"},
	} {
		_, err := svc.CreateLedgerEntry(ctx, "", cc.ID.String(), req)
		assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
	}

	_, err := svc.CreateLedgerEntry(ctx, "", uuid.NewString(), service.LedgerEntryRequest{Debit: decimal.NewFromInt(1)})
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))

	entry, err := svc.CreateLedgerEntry(ctx, "", cc.ID.String(), service.LedgerEntryRequest{Debit: decimal.NewFromInt(1)})
	require.NoError(t, err)
	err = svc.DeleteLedgerEntry(ctx, "", other.ID.String(), entry.ID)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}
