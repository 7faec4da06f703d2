package repository_test

import (
	"context"
	"testing"
	"time"

	"opsportal/internal/model"
	"opsportal/internal/repository"
	"opsportal/internal/testutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindIDsByNameIgnoresCase(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewCostCenterRepository(db)
	ctx := context.Background()

	north := testutil.CostCenter(t, db, "Hanoi North Warehouse", "HN-N")
	testutil.CostCenter(t, db, "Saigon Port", "SG-P")

	ids, err := repo.FindIDsByName(ctx, "NORTH")
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{north.ID}, ids)

	ids, err = repo.FindIDsByName(ctx, "100%")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestFindIDsByNameMatchesWildcardsLiterally(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewCostCenterRepository(db)
	ctx := context.Background()

	dock := testutil.CostCenter(t, db, "Dock_1", "D-1")
	testutil.CostCenter(t, db, "Dock11", "D-11")
	full := testutil.CostCenter(t, db, "Storage 100% full", "S-100")
	testutil.CostCenter(t, db, "Storage 1000", "S-1000")

	ids, err := repo.FindIDsByName(ctx, "k_1")
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{dock.ID}, ids)

	ids, err = repo.FindIDsByName(ctx, "100%")
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{full.ID}, ids)

	centers, err := repo.List(ctx, "DOCK_")
	require.NoError(t, err)
	require.Len(t, centers, 1)
	assert.Equal(t, "Dock_1", centers[0].Name)
}

func TestCostCenterListSearch(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewCostCenterRepository(db)
	ctx := context.Background()

	testutil.CostCenter(t, db, "Saigon Port", "SG-P")
	testutil.CostCenter(t, db, "Hanoi Port", "HN-P")
	testutil.CostCenter(t, db, "Hanoi Office", "HN-O")

	all, err := repo.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Hanoi Office", all[0].Name)

	ports, err := repo.List(ctx, "port")
	require.NoError(t, err)
	assert.Len(t, ports, 2)
}

func TestLedgerTotals(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewLedgerRepository(db)
	ctx := context.Background()

	cc := testutil.CostCenter(t, db, "Site A", "A")
	other := testutil.CostCenter(t, db, "Site B", "B")

	totals, err := repo.Totals(ctx, cc.ID)
	require.NoError(t, err)
	assert.True(t, totals.Debit.IsZero())
	assert.True(t, totals.Credit.IsZero())

	now := time.Now().UTC()
	entries := []model.LedgerEntry{
		{CostCenterID: cc.ID, EntryDate: now, Debit: decimal.NewFromInt(150)},
		{CostCenterID: cc.ID, EntryDate: now, Credit: decimal.NewFromInt(1000)},
		{CostCenterID: cc.ID, EntryDate: now, Debit: decimal.NewFromInt(50)},
		{CostCenterID: other.ID, EntryDate: now, Debit: decimal.NewFromInt(999)},
	}
	for i := range entries {
		require.NoError(t, repo.Create(ctx, &entries[i]))
	}

	totals, err = repo.Totals(ctx, cc.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(200).Equal(totals.Debit), totals.Debit.String())
	assert.True(t, decimal.NewFromInt(1000).Equal(totals.Credit), totals.Credit.String())

	page, total, err := repo.List(ctx, cc.ID, 0, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, page, 2)
}
