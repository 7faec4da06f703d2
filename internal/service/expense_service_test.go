package service_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"opsportal/internal/apperror"
	"opsportal/internal/model"
	"opsportal/internal/repository"
	"opsportal/internal/service"
	dbtest "opsportal/internal/testutil"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type recordingNotifier struct {
	recipients []string
	expenses   []model.ProjectExpense
}

func (n *recordingNotifier) ExpenseApproved(_ context.Context, recipient string, expense model.ProjectExpense) error {
	n.recipients = append(n.recipients, recipient)
	n.expenses = append(n.expenses, expense)
	return nil
}

type expenseFixture struct {
	db       *gorm.DB
	svc      service.ExpenseService
	notifier *recordingNotifier
	imported prometheus.Counter
	staff    *model.User
	director *model.User
}

func newExpenseFixture(t *testing.T) *expenseFixture {
	t.Helper()
	db := dbtest.NewDB(t)
	notifier := &recordingNotifier{}
	imported := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_imported_rows_total"})

	svc := service.NewExpenseService(
		repository.NewExpenseRepository(db),
		repository.NewUserRepository(db),
		repository.NewAuditRepository(db),
		repository.NewTransactionManager(db),
		notifier,
		imported,
		zap.NewNop(),
	)
	return &expenseFixture{
		db:       db,
		svc:      svc,
		notifier: notifier,
		imported: imported,
		staff:    dbtest.User(t, db, "lan", model.RoleCaptainOfPurchasing, "Purchasing", nil),
		director: dbtest.User(t, db, "minh", model.RoleDirector, "Board", nil),
	}
}

func (f *expenseFixture) create(t *testing.T, name string, amount, unitPrice, vat int64) *service.ExpenseResponse {
	t.Helper()
	resp, err := f.svc.CreateExpense(context.Background(), f.staff.ID.String(), service.CreateExpenseRequest{
		Name:      name,
		Amount:    decimal.NewFromInt(amount),
		UnitPrice: decimal.NewFromInt(unitPrice),
		VAT:       decimal.NewFromInt(vat),
		Note:      "original note",
	})
	require.NoError(t, err)
	return resp
}

func patchOf(t *testing.T, fields map[string]interface{}) service.ExpensePatch {
	t.Helper()
	raw, err := json.Marshal(fields)
	require.NoError(t, err)
	var patch service.ExpensePatch
	require.NoError(t, json.Unmarshal(raw, &patch))
	return patch
}

func TestCreateExpenseDerivesTotals(t *testing.T) {
	f := newExpenseFixture(t)

	resp := f.create(t, "Cement", 10, 5, 10)

	assert.True(t, decimal.NewFromInt(50).Equal(resp.TotalPrice))
	assert.True(t, decimal.NewFromInt(5).Equal(resp.VATValue))
	assert.True(t, decimal.NewFromInt(55).Equal(resp.TotalPriceAfterVAT))
	assert.False(t, resp.ApprovalReceive)
	assert.Nil(t, resp.ApprovedReceiveBy)
	assert.Contains(t, resp.Tag, f.staff.ID.String())
	require.NotNil(t, resp.SubmittedBy)
	assert.Equal(t, "lan", resp.SubmittedBy.Username)

	tags, err := f.svc.ListTags(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []service.TagResponse{{Tag: resp.Tag}}, tags)
}

func TestUpdateExpenseKeepsEmptyFields(t *testing.T) {
	f := newExpenseFixture(t)
	ctx := context.Background()
	created := f.create(t, "Cement", 10, 5, 10)

	updated, err := f.svc.UpdateExpense(ctx, f.staff.ID.String(), patchOf(t, map[string]interface{}{
		"tag":    created.Tag,
		"note":   "",
		"amount": nil,
		"unit":   "bag",
	}))
	require.NoError(t, err)
	assert.Equal(t, "original note", updated.Note)
	assert.True(t, decimal.NewFromInt(10).Equal(updated.Amount))
	assert.Equal(t, "bag", updated.Unit)

	updated, err = f.svc.UpdateExpense(ctx, f.staff.ID.String(), patchOf(t, map[string]interface{}{
		"tag":    created.Tag,
		"note":   "new",
		"amount": "12",
	}))
	require.NoError(t, err)
	assert.Equal(t, "new", updated.Note)
	assert.True(t, decimal.NewFromInt(60).Equal(updated.TotalPrice))
}

// approvingRepo approves the record right after UpdateExpense reads it
type approvingRepo struct {
	repository.ExpenseRepository
	approver model.ApproverSnapshot
}

func (r *approvingRepo) FindByTag(ctx context.Context, tag string) (*model.ProjectExpense, error) {
	expense, err := r.ExpenseRepository.FindByTag(ctx, tag)
	if err != nil {
		return nil, err
	}
	if _, err := r.ExpenseRepository.MarkApproved(ctx, expense.ID, r.approver, time.Now().UTC()); err != nil {
		return nil, err
	}
	return expense, nil
}

func TestUpdateExpenseKeepsConcurrentApproval(t *testing.T) {
	f := newExpenseFixture(t)
	ctx := context.Background()
	created := f.create(t, "Cement", 10, 5, 10)

	svc := service.NewExpenseService(
		&approvingRepo{
			ExpenseRepository: repository.NewExpenseRepository(f.db),
			approver:          model.ApproverSnapshot{Username: "minh", Department: "Board"},
		},
		repository.NewUserRepository(f.db),
		repository.NewAuditRepository(f.db),
		repository.NewTransactionManager(f.db),
		nil,
		nil,
		zap.NewNop(),
	)

	updated, err := svc.UpdateExpense(ctx, f.staff.ID.String(), patchOf(t, map[string]interface{}{
		"tag":  created.Tag,
		"note": "new",
	}))
	require.NoError(t, err)
	assert.Equal(t, "new", updated.Note)
	assert.True(t, updated.ApprovalReceive)
	require.NotNil(t, updated.ApprovedReceiveBy)
	assert.Equal(t, "minh", updated.ApprovedReceiveBy.Username)
	assert.NotEmpty(t, updated.ApprovalReceiveDate)

	var stored model.ProjectExpense
	require.NoError(t, f.db.First(&stored, "tag = ?", created.Tag).Error)
	assert.True(t, stored.ApprovalReceive)
	assert.Equal(t, "minh Board", stored.ApprovedReceiveBy.String())
	assert.Equal(t, "new", stored.Note)
	assert.True(t, decimal.NewFromInt(10).Equal(stored.Amount))
}

func TestUpdateExpenseErrors(t *testing.T) {
	f := newExpenseFixture(t)
	ctx := context.Background()

	_, err := f.svc.UpdateExpense(ctx, f.staff.ID.String(), patchOf(t, map[string]interface{}{"note": "x"}))
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	_, err = f.svc.UpdateExpense(ctx, f.staff.ID.String(), patchOf(t, map[string]interface{}{"tag": "missing", "note": "x"}))
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestApproveExpenseOnce(t *testing.T) {
	f := newExpenseFixture(t)
	ctx := context.Background()
	created := f.create(t, "Cement", 10, 5, 10)

	approved, err := f.svc.ApproveExpense(ctx, f.director.ID.String(), created.ID)
	require.NoError(t, err)
	assert.True(t, approved.ApprovalReceive)
	require.NotNil(t, approved.ApprovedReceiveBy)
	assert.Equal(t, service.ApproverView{Username: "minh", Department: "Board"}, *approved.ApprovedReceiveBy)
	assert.NotEmpty(t, approved.ApprovalReceiveDate)

	require.Len(t, f.notifier.recipients, 1)
	assert.Equal(t, "lan@example.com", f.notifier.recipients[0])

	other := dbtest.User(t, f.db, "hoa", model.RoleDeputyDirector, "Accounting", nil)
	_, err = f.svc.ApproveExpense(ctx, other.ID.String(), created.ID)
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))

	all, err := f.svc.ListExpenses(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "minh", all[0].ApprovedReceiveBy.Username)
	assert.Equal(t, approved.ApprovalReceiveDate, all[0].ApprovalReceiveDate)
	assert.Len(t, f.notifier.recipients, 1)
}

func TestApproveExpenseUnknownOrMalformed(t *testing.T) {
	f := newExpenseFixture(t)
	ctx := context.Background()

	_, err := f.svc.ApproveExpense(ctx, f.director.ID.String(), uuid.NewString())
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))

	_, err = f.svc.ApproveExpense(ctx, f.director.ID.String(), "not-a-uuid")
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}

func TestDeleteExpenses(t *testing.T) {
	f := newExpenseFixture(t)
	ctx := context.Background()

	_, err := f.svc.DeleteExpenses(ctx, f.director.ID.String(), nil)
	require.Error(t, err)
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
	assert.EqualError(t, err, "No projectExpense IDs provided for deletion.")

	a := f.create(t, "A", 1, 1, 0)
	b := f.create(t, "B", 1, 1, 0)
	c := f.create(t, "C", 1, 1, 0)

	deleted, err := f.svc.DeleteExpenses(ctx, f.director.ID.String(), []string{a.ID, c.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 2, deleted)

	all, err := f.svc.ListExpenses(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, b.ID, all[0].ID)

	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(f.svc.DeleteExpense(ctx, f.director.ID.String(), a.ID)))
	require.NoError(t, f.svc.DeleteExpense(ctx, f.director.ID.String(), b.ID))
}

func TestExportKeepsVATIdentity(t *testing.T) {
	f := newExpenseFixture(t)
	f.create(t, "Cement", 10, 5, 10)
	f.create(t, "Steel", 3, 200, 8)

	data, err := f.svc.Export(context.Background())
	require.NoError(t, err)

	wb, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer wb.Close()

	rows, err := wb.GetRows(service.ExpenseSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Tag", rows[0][0])
	assert.Equal(t, "Approval Receive Date", rows[0][18])

	dec := func(s string) decimal.Decimal {
		d, err := decimal.NewFromString(s)
		require.NoError(t, err, s)
		return d
	}
	for _, row := range rows[1:] {
		amount, unitPrice, total := dec(row[5]), dec(row[6]), dec(row[7])
		vat, vatValue, after := dec(row[8]), dec(row[9]), dec(row[10])

		assert.True(t, amount.Mul(unitPrice).Equal(total), row[1])
		assert.True(t, total.Mul(vat).Div(decimal.NewFromInt(100)).Equal(vatValue), row[1])
		assert.True(t, total.Add(vatValue).Equal(after), row[1])
		assert.Equal(t, "Không", row[16])
		assert.Equal(t, "lan Purchasing", row[15])
	}
}

func writeImportWorkbook(t *testing.T, sheet string, rows [][]interface{}) string {
	t.Helper()
	wb := excelize.NewFile()
	defer wb.Close()
	require.NoError(t, wb.SetSheetName("Sheet1", sheet))

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, wb.SetSheetRow(sheet, cell, &row))
	}

	path := filepath.Join(t.TempDir(), "import.xlsx")
	require.NoError(t, wb.SaveAs(path))
	return path
}

func importRow(name string, amount, unitPrice, vat interface{}) []interface{} {
	// Tag, Name, Description, Package, Unit, Amount, Unit Price, Total, VAT, VAT Value, After VAT, Paid, Delivery, Note
	return []interface{}{"ignored", name, "desc", "pkg", "kg", amount, unitPrice, "", vat, "", "", "0", "next week", "note"}
}

// approvedImportRow fills the export-only columns with an approved-looking record
func approvedImportRow(name string) []interface{} {
	// ProjectExpense Date, Submitted By, Approval Receive, Approved Receive By, Approval Receive Date
	return append(importRow(name, "1", "1", "0"), "01-01-2024 08:00:00", "boss Board", "Có", "boss Board", "01-01-2024 09:00:00")
}

func TestImportInsertsRows(t *testing.T) {
	f := newExpenseFixture(t)
	ctx := context.Background()

	path := writeImportWorkbook(t, service.ExpenseSheet, [][]interface{}{
		{"Tag", "Name"},
		importRow("Cement", "10", "5", "10"),
		{},
		importRow("Sand", "1,000", "2", "0"),
		approvedImportRow("Gravel"),
	})

	result, err := f.svc.Import(ctx, f.staff.ID.String(), path)
	require.NoError(t, err)
	assert.Equal(t, &service.ImportResult{Inserted: 3, Batches: 1}, result)
	assert.NoFileExists(t, path)
	assert.InDelta(t, 3, testutil.ToFloat64(f.imported), 0)

	all, err := f.svc.ListExpenses(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)

	tags := map[string]bool{}
	byName := map[string]service.ExpenseResponse{}
	for _, e := range all {
		assert.False(t, e.ApprovalReceive, e.Name)
		assert.Nil(t, e.ApprovedReceiveBy, e.Name)
		assert.Empty(t, e.ApprovalReceiveDate, e.Name)
		require.NotNil(t, e.SubmittedBy)
		assert.Equal(t, "lan", e.SubmittedBy.Username)
		assert.NotEqual(t, "ignored", e.Tag)
		tags[e.Tag] = true
		byName[e.Name] = e
	}
	assert.Len(t, tags, 3)
	assert.True(t, decimal.NewFromInt(55).Equal(byName["Cement"].TotalPriceAfterVAT))
	assert.True(t, decimal.NewFromInt(1000).Equal(byName["Sand"].Amount))
	assert.Equal(t, "next week", byName["Sand"].DeliveryDate)
}

func TestImportRejectsBadNumber(t *testing.T) {
	f := newExpenseFixture(t)
	ctx := context.Background()

	path := writeImportWorkbook(t, service.ExpenseSheet, [][]interface{}{
		{"Tag", "Name"},
		importRow("Cement", "ten", "5", "10"),
	})

	result, err := f.svc.Import(ctx, f.staff.ID.String(), path)
	require.Error(t, err)
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
	assert.Contains(t, err.Error(), `row 2: amount "ten" is not a number`)
	assert.Equal(t, 0, result.Inserted)
	assert.NoFileExists(t, path)

	all, err := f.svc.ListExpenses(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestImportKeepsCommittedBatches(t *testing.T) {
	f := newExpenseFixture(t)
	ctx := context.Background()

	rows := [][]interface{}{{"Tag", "Name"}}
	for i := 0; i < service.ImportBatchSize; i++ {
		rows = append(rows, importRow(fmt.Sprintf("Item %d", i), "1", "2", "10"))
	}
	rows = append(rows, importRow("Broken", "ten", "2", "10"))
	path := writeImportWorkbook(t, service.ExpenseSheet, rows)

	result, err := f.svc.Import(ctx, f.staff.ID.String(), path)
	require.Error(t, err)
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
	assert.Contains(t, err.Error(), fmt.Sprintf("row %d:", service.ImportBatchSize+2))
	assert.Equal(t, &service.ImportResult{Inserted: service.ImportBatchSize, Batches: 1}, result)
	assert.InDelta(t, service.ImportBatchSize, testutil.ToFloat64(f.imported), 0)
	assert.NoFileExists(t, path)

	var stored int64
	require.NoError(t, f.db.Model(&model.ProjectExpense{}).Count(&stored).Error)
	assert.EqualValues(t, service.ImportBatchSize, stored)
	require.NoError(t, f.db.Model(&model.ProjectExpense{}).Where("name = ?", "Broken").Count(&stored).Error)
	assert.Zero(t, stored)
}

func TestImportRequiresWorksheet(t *testing.T) {
	f := newExpenseFixture(t)

	path := writeImportWorkbook(t, "Other", [][]interface{}{{"Tag"}})

	_, err := f.svc.Import(context.Background(), f.staff.ID.String(), path)
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
	assert.NoFileExists(t, path)
}

func TestImportRemovesFileForUnknownUser(t *testing.T) {
	f := newExpenseFixture(t)

	path := filepath.Join(t.TempDir(), "upload.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("junk"), 0o644))

	_, err := f.svc.Import(context.Background(), uuid.NewString(), path)
	assert.Equal(t, apperror.KindUnauthorized, apperror.KindOf(err))
	assert.NoFileExists(t, path)
}
