package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"opsportal/internal/apperror"
	"opsportal/internal/model"
	"opsportal/internal/repository"
	"opsportal/pkg/timefmt"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrNoExpenseIDs is the bulk delete rejection for an empty id list
const ErrNoExpenseIDs = "No projectExpense IDs provided for deletion."

// --- DTOs ---

type CreateExpenseRequest struct {
	Name         string          `json:"name" binding:"required"`
	Description  string          `json:"description"`
	Package      string          `json:"package"`
	Unit         string          `json:"unit"`
	Amount       decimal.Decimal `json:"amount"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
	VAT          decimal.Decimal `json:"vat"`
	Paid         decimal.Decimal `json:"paid"`
	DeliveryDate string          `json:"deliveryDate"`
	Note         string          `json:"note"`
}

// ExpensePatch is the raw update body: {"tag": ..., <field>: <value>, ...}.
// Absent, null and empty-string values leave the stored field unchanged.
type ExpensePatch map[string]json.RawMessage

type SubmitterView struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	Department string `json:"department"`
}

type ApproverView struct {
	Username   string `json:"username"`
	Department string `json:"department"`
}

type ExpenseResponse struct {
	ID                  string          `json:"id"`
	Tag                 string          `json:"tag"`
	Name                string          `json:"name"`
	Description         string          `json:"description"`
	Package             string          `json:"package"`
	Unit                string          `json:"unit"`
	Amount              decimal.Decimal `json:"amount"`
	UnitPrice           decimal.Decimal `json:"unitPrice"`
	TotalPrice          decimal.Decimal `json:"totalPrice"`
	VAT                 decimal.Decimal `json:"vat"`
	VATValue            decimal.Decimal `json:"vatValue"`
	TotalPriceAfterVAT  decimal.Decimal `json:"totalPriceAfterVat"`
	Paid                decimal.Decimal `json:"paid"`
	DeliveryDate        string          `json:"deliveryDate"`
	Note                string          `json:"note"`
	EntryDate           string          `json:"entryDate"`
	SubmittedBy         *SubmitterView  `json:"submittedBy"`
	ApprovalReceive     bool            `json:"approvalReceive"`
	ApprovedReceiveBy   *ApproverView   `json:"approvedReceiveBy"`
	ApprovalReceiveDate string          `json:"approvalReceiveDate"`
}

type TagResponse struct {
	Tag string `json:"tag"`
}

// ImportResult reports what a spreadsheet import committed
type ImportResult struct {
	Inserted int `json:"inserted"`
	Batches  int `json:"batches"`
}

// ExpenseNotifier is told about approvals; delivery failures never fail the approval
type ExpenseNotifier interface {
	ExpenseApproved(ctx context.Context, recipient string, expense model.ProjectExpense) error
}

// --- Interface ---

type ExpenseService interface {
	ListExpenses(ctx context.Context) ([]ExpenseResponse, error)
	CreateExpense(ctx context.Context, userID string, req CreateExpenseRequest) (*ExpenseResponse, error)
	ListTags(ctx context.Context) ([]TagResponse, error)
	UpdateExpense(ctx context.Context, userID string, patch ExpensePatch) (*ExpenseResponse, error)
	ApproveExpense(ctx context.Context, userID, id string) (*ExpenseResponse, error)
	DeleteExpense(ctx context.Context, userID, id string) error
	DeleteExpenses(ctx context.Context, userID string, ids []string) (int64, error)
	Export(ctx context.Context) ([]byte, error)
	Import(ctx context.Context, userID, filePath string) (*ImportResult, error)
}

type expenseService struct {
	expenseRepo  repository.ExpenseRepository
	userRepo     repository.UserRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
	notifier     ExpenseNotifier
	importedRows prometheus.Counter
	logger       *zap.Logger
	now          func() time.Time
}

// NewExpenseService wires the expense pipelines. notifier and importedRows may be nil.
func NewExpenseService(
	expenseRepo repository.ExpenseRepository,
	userRepo repository.UserRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	notifier ExpenseNotifier,
	importedRows prometheus.Counter,
	logger *zap.Logger,
) ExpenseService {
	return &expenseService{
		expenseRepo:  expenseRepo,
		userRepo:     userRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
		notifier:     notifier,
		importedRows: importedRows,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// --- Implementation ---

func (s *expenseService) ListExpenses(ctx context.Context) ([]ExpenseResponse, error) {
	expenses, err := s.expenseRepo.ListAll(ctx)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	result := make([]ExpenseResponse, 0, len(expenses))
	for i := range expenses {
		result = append(result, toExpenseResponse(&expenses[i]))
	}
	return result, nil
}

func (s *expenseService) CreateExpense(ctx context.Context, userID string, req CreateExpenseRequest) (*ExpenseResponse, error) {
	actor, err := loadActor(ctx, s.userRepo, userID)
	if err != nil {
		return nil, err
	}

	expense := model.ProjectExpense{
		Tag:           newExpenseTag(actor, s.now()),
		Name:          strings.TrimSpace(req.Name),
		Description:   req.Description,
		Package:       req.Package,
		Unit:          req.Unit,
		Amount:        req.Amount,
		UnitPrice:     req.UnitPrice,
		VAT:           req.VAT,
		Paid:          req.Paid,
		DeliveryDate:  req.DeliveryDate,
		Note:          req.Note,
		EntryDate:     s.now(),
		SubmittedByID: userPtr(actor.ID),
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.expenseRepo.Create(txCtx, &expense); createErr != nil {
			return fmt.Errorf("failed to create project expense: %w", createErr)
		}
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     userPtr(actor.ID),
			Action:     model.ActionCreateExpense,
			EntityID:   expense.ID.String(),
			EntityName: expense.Tag,
			Details: auditDetails(map[string]interface{}{
				"name":      expense.Name,
				"amount":    expense.Amount.String(),
				"unitPrice": expense.UnitPrice.String(),
				"vat":       expense.VAT.String(),
			}),
		})
	})
	if err != nil {
		return nil, apperror.Internal(err)
	}

	expense.SubmittedBy = actor
	resp := toExpenseResponse(&expense)
	return &resp, nil
}

func (s *expenseService) ListTags(ctx context.Context) ([]TagResponse, error) {
	tags, err := s.expenseRepo.ListTags(ctx)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	result := make([]TagResponse, 0, len(tags))
	for _, t := range tags {
		result = append(result, TagResponse{Tag: t})
	}
	return result, nil
}

func (s *expenseService) UpdateExpense(ctx context.Context, userID string, patch ExpensePatch) (*ExpenseResponse, error) {
	tag, _, err := patchText(patch["tag"])
	if err != nil || tag == "" {
		return nil, apperror.Validation("tag is required")
	}

	expense, err := s.expenseRepo.FindByTag(ctx, tag)
	if err != nil {
		return nil, lookupError(err, "projectExpense not found")
	}

	changed, fields, err := applyExpensePatch(expense, patch)
	if err != nil {
		return nil, err
	}

	actorID, _ := uuid.Parse(userID)
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if updateErr := s.expenseRepo.UpdateFields(txCtx, expense.ID, fields); updateErr != nil {
			return fmt.Errorf("failed to update project expense: %w", updateErr)
		}
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     nilIfZero(actorID),
			Action:     model.ActionUpdateExpense,
			EntityID:   expense.ID.String(),
			EntityName: expense.Tag,
			Details:    auditDetails(map[string]interface{}{"fields": changed}),
		})
	})
	if err != nil {
		return nil, apperror.Internal(err)
	}

	updated, err := s.expenseRepo.FindByID(ctx, expense.ID)
	if err != nil {
		return nil, lookupError(err, "projectExpense not found")
	}
	resp := toExpenseResponse(updated)
	return &resp, nil
}

// ApproveExpense is a one-way transition; approving an approved record is a conflict
// and keeps the first approver snapshot.
func (s *expenseService) ApproveExpense(ctx context.Context, userID, id string) (*ExpenseResponse, error) {
	expenseID, err := parseID(id, "projectExpense id")
	if err != nil {
		return nil, err
	}

	approver, err := loadActor(ctx, s.userRepo, userID)
	if err != nil {
		return nil, err
	}
	snapshot := model.ApproverSnapshot{Username: approver.Username, Department: approver.Department}
	approvedAt := s.now()

	var approved *model.ProjectExpense
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		rows, markErr := s.expenseRepo.MarkApproved(txCtx, expenseID, snapshot, approvedAt)
		if markErr != nil {
			return apperror.Internal(markErr)
		}
		if rows == 0 {
			if _, findErr := s.expenseRepo.FindByID(txCtx, expenseID); findErr != nil {
				return lookupError(findErr, "projectExpense not found")
			}
			return apperror.Conflict("projectExpense is already approved")
		}

		var findErr error
		approved, findErr = s.expenseRepo.FindByID(txCtx, expenseID)
		if findErr != nil {
			return lookupError(findErr, "projectExpense not found")
		}

		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     userPtr(approver.ID),
			Action:     model.ActionApproveExpense,
			EntityID:   approved.ID.String(),
			EntityName: approved.Tag,
			Details: auditDetails(map[string]interface{}{
				"approvedReceiveBy":   snapshot.String(),
				"approvalReceiveDate": timefmt.Format(approvedAt),
			}),
		})
	})
	if err != nil {
		return nil, storeError(err)
	}

	s.logger.Info("Project expense approved",
		zap.String("tag", approved.Tag),
		zap.String("approver", approver.Username))
	s.notifyApproved(ctx, *approved)

	resp := toExpenseResponse(approved)
	return &resp, nil
}

func (s *expenseService) notifyApproved(ctx context.Context, expense model.ProjectExpense) {
	if s.notifier == nil || expense.SubmittedBy == nil || expense.SubmittedBy.Email == "" {
		return
	}
	if err := s.notifier.ExpenseApproved(ctx, expense.SubmittedBy.Email, expense); err != nil {
		s.logger.Warn("Failed to send approval notification",
			zap.String("tag", expense.Tag),
			zap.String("recipient", expense.SubmittedBy.Email),
			zap.Error(err))
	}
}

func (s *expenseService) DeleteExpense(ctx context.Context, userID, id string) error {
	expenseID, err := parseID(id, "projectExpense id")
	if err != nil {
		return err
	}

	actorID, _ := uuid.Parse(userID)
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		rows, delErr := s.expenseRepo.Delete(txCtx, expenseID)
		if delErr != nil {
			return apperror.Internal(delErr)
		}
		if rows == 0 {
			return apperror.NotFound("projectExpense not found")
		}
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:   nilIfZero(actorID),
			Action:   model.ActionDeleteExpense,
			EntityID: expenseID.String(),
			Details:  auditDetails(map[string]interface{}{"ids": []string{expenseID.String()}}),
		})
	})
	return storeError(err)
}

func (s *expenseService) DeleteExpenses(ctx context.Context, userID string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, apperror.Validation(ErrNoExpenseIDs)
	}

	parsed := make([]uuid.UUID, 0, len(ids))
	for _, raw := range ids {
		id, err := parseID(raw, "projectExpense id")
		if err != nil {
			return 0, err
		}
		parsed = append(parsed, id)
	}

	actorID, _ := uuid.Parse(userID)
	var deleted int64
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		rows, delErr := s.expenseRepo.DeleteMany(txCtx, parsed)
		if delErr != nil {
			return delErr
		}
		deleted = rows
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:  nilIfZero(actorID),
			Action:  model.ActionDeleteExpense,
			Details: auditDetails(map[string]interface{}{"ids": ids, "deleted": rows}),
		})
	})
	if err != nil {
		return 0, apperror.Internal(err)
	}
	return deleted, nil
}

// --- Helpers ---

func nilIfZero(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}

// newExpenseTag = 24 random hex chars + submitter id + department + unix millis
func newExpenseTag(actor *model.User, at time.Time) string {
	token := strings.ReplaceAll(uuid.NewString(), "-", "")[:24]
	department := strings.Join(strings.Fields(actor.Department), "")
	return fmt.Sprintf("%s%s%s%d", token, actor.ID.String(), department, at.UnixMilli())
}

type textField struct {
	key    string
	column string
	set    func(e *model.ProjectExpense, v string)
}

type numberField struct {
	key    string
	column string
	set    func(e *model.ProjectExpense, v decimal.Decimal)
}

var patchableText = []textField{
	{"name", "name", func(e *model.ProjectExpense, v string) { e.Name = v }},
	{"description", "description", func(e *model.ProjectExpense, v string) { e.Description = v }},
	{"package", "package", func(e *model.ProjectExpense, v string) { e.Package = v }},
	{"unit", "unit", func(e *model.ProjectExpense, v string) { e.Unit = v }},
	{"deliveryDate", "delivery_date", func(e *model.ProjectExpense, v string) { e.DeliveryDate = v }},
	{"note", "note", func(e *model.ProjectExpense, v string) { e.Note = v }},
}

var patchableNumbers = []numberField{
	{"amount", "amount", func(e *model.ProjectExpense, v decimal.Decimal) { e.Amount = v }},
	{"unitPrice", "unit_price", func(e *model.ProjectExpense, v decimal.Decimal) { e.UnitPrice = v }},
	{"vat", "vat", func(e *model.ProjectExpense, v decimal.Decimal) { e.VAT = v }},
	{"paid", "paid", func(e *model.ProjectExpense, v decimal.Decimal) { e.Paid = v }},
}

// applyExpensePatch overwrites only the fields present with a non-empty value and
// returns the changed patch keys with their column values.
// Tag, approval and submitter fields are not patchable.
func applyExpensePatch(e *model.ProjectExpense, patch ExpensePatch) ([]string, map[string]interface{}, error) {
	changed := make([]string, 0, len(patch))
	fields := make(map[string]interface{}, len(patch))

	for _, f := range patchableText {
		raw, ok := patch[f.key]
		if !ok {
			continue
		}
		v, present, err := patchText(raw)
		if err != nil {
			return nil, nil, apperror.Validation(f.key + " must be a string")
		}
		if present {
			f.set(e, v)
			changed = append(changed, f.key)
			fields[f.column] = v
		}
	}

	for _, f := range patchableNumbers {
		raw, ok := patch[f.key]
		if !ok {
			continue
		}
		v, present, err := patchNumber(raw)
		if err != nil {
			return nil, nil, apperror.Validation(f.key + " must be a number")
		}
		if present {
			f.set(e, v)
			changed = append(changed, f.key)
			fields[f.column] = v
		}
	}

	return changed, fields, nil
}

func decodePatchValue(raw json.RawMessage) (interface{}, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var v interface{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

func patchText(raw json.RawMessage) (string, bool, error) {
	v, err := decodePatchValue(raw)
	if err != nil {
		return "", false, err
	}
	switch t := v.(type) {
	case nil:
		return "", false, nil
	case string:
		if t == "" {
			return "", false, nil
		}
		return t, true, nil
	case json.Number:
		return t.String(), true, nil
	default:
		return "", false, errors.New("not a string")
	}
}

func patchNumber(raw json.RawMessage) (decimal.Decimal, bool, error) {
	v, err := decodePatchValue(raw)
	if err != nil {
		return decimal.Zero, false, err
	}
	switch t := v.(type) {
	case nil:
		return decimal.Zero, false, nil
	case string:
		if strings.TrimSpace(t) == "" {
			return decimal.Zero, false, nil
		}
		d, err := parseDecimal(t)
		return d, err == nil, err
	case json.Number:
		d, err := decimal.NewFromString(t.String())
		return d, err == nil, err
	default:
		return decimal.Zero, false, errors.New("not a number")
	}
}

// parseDecimal accepts spreadsheet-style numbers such as "1,250.5"; blank is zero
func parseDecimal(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

func toExpenseResponse(e *model.ProjectExpense) ExpenseResponse {
	resp := ExpenseResponse{
		ID:                  e.ID.String(),
		Tag:                 e.Tag,
		Name:                e.Name,
		Description:         e.Description,
		Package:             e.Package,
		Unit:                e.Unit,
		Amount:              e.Amount,
		UnitPrice:           e.UnitPrice,
		TotalPrice:          e.TotalPrice(),
		VAT:                 e.VAT,
		VATValue:            e.VATValue(),
		TotalPriceAfterVAT:  e.TotalPriceAfterVAT(),
		Paid:                e.Paid,
		DeliveryDate:        e.DeliveryDate,
		Note:                e.Note,
		EntryDate:           timefmt.Format(e.EntryDate),
		ApprovalReceive:     e.ApprovalReceive,
		ApprovalReceiveDate: timefmt.FormatPtr(e.ApprovalReceiveDate),
	}

	if e.SubmittedBy != nil {
		resp.SubmittedBy = &SubmitterView{
			ID:         e.SubmittedBy.ID.String(),
			Username:   e.SubmittedBy.Username,
			Department: e.SubmittedBy.Department,
		}
	}
	if !e.ApprovedReceiveBy.Empty() {
		resp.ApprovedReceiveBy = &ApproverView{
			Username:   e.ApprovedReceiveBy.Username,
			Department: e.ApprovedReceiveBy.Department,
		}
	}

	return resp
}
