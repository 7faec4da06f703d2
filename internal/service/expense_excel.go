package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"opsportal/internal/apperror"
	"opsportal/internal/model"
	"opsportal/pkg/timefmt"

	"github.com/extrame/xls"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const (
	// ExpenseSheet is the worksheet both export and import use
	ExpenseSheet = "ProjectExpense"
	// ImportBatchSize bounds the rows inserted per transaction
	ImportBatchSize = 500

	approvedYes = "Có"
	approvedNo  = "Không"
)

// expenseColumns is the fixed export layout
var expenseColumns = []string{
	"Tag", "Name", "Description", "Package", "Unit", "Amount", "Unit Price", "Total Price",
	"VAT (%)", "VAT Value", "Total Price After VAT", "Paid", "Delivery Date", "Note",
	"ProjectExpense Date", "Submitted By", "Approval Receive", "Approved Receive By",
	"Approval Receive Date",
}

// 1-based import columns
const (
	colName         = 2
	colDescription  = 3
	colPackage      = 4
	colUnit         = 5
	colAmount       = 6
	colUnitPrice    = 7
	colVAT          = 9
	colPaid         = 12
	colDeliveryDate = 13
	colNote         = 14
)

// Export renders every expense into an in-memory xlsx workbook
func (s *expenseService) Export(ctx context.Context) ([]byte, error) {
	expenses, err := s.expenseRepo.ListAll(ctx)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	data, err := buildExpenseWorkbook(expenses)
	if err != nil {
		return nil, apperror.Internal(fmt.Errorf("failed to build workbook: %w", err))
	}

	s.logger.Info("Project expenses exported",
		zap.Int("rows", len(expenses)),
		zap.Int("bytes", len(data)))
	return data, nil
}

func buildExpenseWorkbook(expenses []model.ProjectExpense) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", ExpenseSheet); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(ExpenseSheet, "A", "S", 20); err != nil {
		return nil, err
	}

	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Border:    border,
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"DDEBF7"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, err
	}
	dataStyle, err := f.NewStyle(&excelize.Style{Border: border})
	if err != nil {
		return nil, err
	}

	sw, err := f.NewStreamWriter(ExpenseSheet)
	if err != nil {
		return nil, err
	}

	header := make([]interface{}, len(expenseColumns))
	for i, title := range expenseColumns {
		header[i] = excelize.Cell{StyleID: headerStyle, Value: title}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return nil, err
	}

	for n := range expenses {
		values := expenseRowValues(&expenses[n])
		row := make([]interface{}, len(values))
		for i, v := range values {
			row[i] = excelize.Cell{StyleID: dataStyle, Value: v}
		}

		cell, err := excelize.CoordinatesToCellName(1, n+2)
		if err != nil {
			return nil, err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return nil, err
		}
	}

	if err := sw.Flush(); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// expenseRowValues follows expenseColumns order; numbers are written as float64 cells
func expenseRowValues(e *model.ProjectExpense) []interface{} {
	submittedBy := ""
	if e.SubmittedBy != nil {
		submittedBy = strings.TrimSpace(e.SubmittedBy.Username + " " + e.SubmittedBy.Department)
	}
	approval := approvedNo
	if e.ApprovalReceive {
		approval = approvedYes
	}

	return []interface{}{
		e.Tag,
		e.Name,
		e.Description,
		e.Package,
		e.Unit,
		e.Amount.InexactFloat64(),
		e.UnitPrice.InexactFloat64(),
		e.TotalPrice().InexactFloat64(),
		e.VAT.InexactFloat64(),
		e.VATValue().InexactFloat64(),
		e.TotalPriceAfterVAT().InexactFloat64(),
		e.Paid.InexactFloat64(),
		e.DeliveryDate,
		e.Note,
		timefmt.Format(e.EntryDate),
		submittedBy,
		approval,
		e.ApprovedReceiveBy.String(),
		timefmt.FormatPtr(e.ApprovalReceiveDate),
	}
}

// Import reads the ProjectExpense worksheet of filePath and inserts its rows in batches.
// Each batch commits on its own, so a failing batch leaves earlier batches in place.
// filePath is removed before Import returns.
func (s *expenseService) Import(ctx context.Context, userID, filePath string) (*ImportResult, error) {
	defer func() {
		if err := os.Remove(filePath); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("Failed to remove uploaded spreadsheet", zap.String("path", filePath), zap.Error(err))
		}
	}()

	actor, err := loadActor(ctx, s.userRepo, userID)
	if err != nil {
		return nil, err
	}

	rows, err := readSheetRows(filePath, ExpenseSheet)
	if err != nil {
		return nil, apperror.Validation(err.Error())
	}

	// row 1 is the header
	var dataRows []sheetRow
	for i := 1; i < len(rows); i++ {
		if rowIsEmpty(rows[i]) {
			continue
		}
		dataRows = append(dataRows, sheetRow{number: i + 1, cells: rows[i]})
	}

	s.logger.Info("Project expense import started",
		zap.String("file", filepath.Base(filePath)),
		zap.Int("rows", len(dataRows)),
		zap.String("user", actor.Username))

	result := &ImportResult{}
	for start := 0; start < len(dataRows); start += ImportBatchSize {
		end := start + ImportBatchSize
		if end > len(dataRows) {
			end = len(dataRows)
		}

		if err := s.importBatch(ctx, actor, dataRows[start:end], result.Batches+1, filepath.Base(filePath)); err != nil {
			s.logger.Error("Project expense import batch failed",
				zap.Int("batch", result.Batches+1),
				zap.Int("committed_rows", result.Inserted),
				zap.Error(err))
			return result, err
		}

		result.Batches++
		result.Inserted += end - start
		if s.importedRows != nil {
			s.importedRows.Add(float64(end - start))
		}
	}

	s.logger.Info("Project expense import finished",
		zap.Int("inserted", result.Inserted),
		zap.Int("batches", result.Batches))
	return result, nil
}

type sheetRow struct {
	number int // 1-based sheet row
	cells  []string
}

func (s *expenseService) importBatch(ctx context.Context, actor *model.User, rows []sheetRow, batchNo int, fileName string) error {
	records := make([]model.ProjectExpense, 0, len(rows))
	for _, row := range rows {
		rec, err := expenseFromRow(row)
		if err != nil {
			return err
		}
		now := s.now()
		rec.Tag = newExpenseTag(actor, now)
		rec.EntryDate = now
		rec.SubmittedByID = userPtr(actor.ID)
		records = append(records, rec)
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.expenseRepo.CreateBatch(txCtx, records); err != nil {
			return err
		}
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     userPtr(actor.ID),
			Action:     model.ActionImportExpenses,
			EntityName: fileName,
			Details: auditDetails(map[string]interface{}{
				"batch":     batchNo,
				"rows":      len(records),
				"first_row": rows[0].number,
				"last_row":  rows[len(rows)-1].number,
			}),
		})
	})
	if err != nil {
		return apperror.Internal(fmt.Errorf("batch %d: %w", batchNo, err))
	}
	return nil
}

// expenseFromRow maps the fixed columns; approval fields keep their zero values
func expenseFromRow(row sheetRow) (model.ProjectExpense, error) {
	rec := model.ProjectExpense{
		Name:         cellAt(row.cells, colName),
		Description:  cellAt(row.cells, colDescription),
		Package:      cellAt(row.cells, colPackage),
		Unit:         cellAt(row.cells, colUnit),
		DeliveryDate: cellAt(row.cells, colDeliveryDate),
		Note:         cellAt(row.cells, colNote),
	}

	numbers := []struct {
		col  int
		name string
		dst  *decimal.Decimal
	}{
		{colAmount, "amount", &rec.Amount},
		{colUnitPrice, "unitPrice", &rec.UnitPrice},
		{colVAT, "vat", &rec.VAT},
		{colPaid, "paid", &rec.Paid},
	}
	for _, n := range numbers {
		raw := cellAt(row.cells, n.col)
		d, err := parseDecimal(raw)
		if err != nil {
			return model.ProjectExpense{}, apperror.Validation(
				fmt.Sprintf("row %d: %s %q is not a number", row.number, n.name, raw))
		}
		*n.dst = d
	}

	return rec, nil
}

func cellAt(cells []string, col int) string {
	if col-1 < len(cells) {
		return strings.TrimSpace(cells[col-1])
	}
	return ""
}

func rowIsEmpty(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// readSheetRows loads every row of the named worksheet. Legacy .xls workbooks are
// read with extrame/xls, everything else with excelize.
func readSheetRows(filePath, sheet string) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".xls":
		return readXLSRows(filePath, sheet)
	default:
		return readXLSXRows(filePath, sheet)
	}
}

func readXLSXRows(filePath, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	defer func() { _ = f.Close() }()

	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("worksheet %q not found", sheet)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read worksheet: %w", err)
	}
	return rows, nil
}

func readXLSRows(filePath, sheet string) ([][]string, error) {
	workbook, err := xls.Open(filePath, "utf-8")
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet: %w", err)
	}

	for i := 0; i < workbook.NumSheets(); i++ {
		ws := workbook.GetSheet(i)
		if ws == nil || ws.Name != sheet {
			continue
		}

		rows := make([][]string, 0, int(ws.MaxRow)+1)
		for r := 0; r <= int(ws.MaxRow); r++ {
			row := ws.Row(r)
			if row == nil {
				rows = append(rows, nil)
				continue
			}
			cells := make([]string, 0, row.LastCol())
			for c := 0; c < row.LastCol(); c++ {
				cells = append(cells, row.Col(c))
			}
			rows = append(rows, cells)
		}
		return rows, nil
	}

	return nil, fmt.Errorf("worksheet %q not found", sheet)
}
