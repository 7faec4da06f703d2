package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"opsportal/internal/apperror"
	"opsportal/internal/model"
	"opsportal/internal/repository"
	"opsportal/pkg/pagination"
	"opsportal/pkg/timefmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type CostCenterRequest struct {
	Name        string `json:"name" binding:"required"`
	Code        string `json:"code" binding:"required"`
	Description string `json:"description"`
}

type CostCenterResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Code        string `json:"code"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
}

type LedgerEntryRequest struct {
	EntryDate   string          `json:"entry_date"` // empty means now
	Description string          `json:"description"`
	Reference   string          `json:"reference"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
}

type LedgerEntryResponse struct {
	ID          string          `json:"id"`
	EntryDate   string          `json:"entry_date"`
	Description string          `json:"description"`
	Reference   string          `json:"reference"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
}

type LedgerPage struct {
	CostCenter  CostCenterResponse    `json:"cost_center"`
	Entries     []LedgerEntryResponse `json:"entries"`
	TotalDebit  decimal.Decimal       `json:"total_debit"`
	TotalCredit decimal.Decimal       `json:"total_credit"`
	Balance     decimal.Decimal       `json:"balance"` // credit - debit
	Total       int64                 `json:"total"`
	Page        int                   `json:"page"`
	Limit       int                   `json:"limit"`
	TotalPages  int                   `json:"total_pages"`
}

// --- Interface ---

type CostCenterService interface {
	ListCostCenters(ctx context.Context, search string) ([]CostCenterResponse, error)
	GetCostCenter(ctx context.Context, id string) (*CostCenterResponse, error)
	CreateCostCenter(ctx context.Context, userID string, req CostCenterRequest) (*CostCenterResponse, error)
	UpdateCostCenter(ctx context.Context, userID, id string, req CostCenterRequest) (*CostCenterResponse, error)
	DeleteCostCenter(ctx context.Context, userID, id string) error

	ListLedger(ctx context.Context, costCenterID string, page, limit int) (*LedgerPage, error)
	CreateLedgerEntry(ctx context.Context, userID, costCenterID string, req LedgerEntryRequest) (*LedgerEntryResponse, error)
	DeleteLedgerEntry(ctx context.Context, userID, costCenterID, entryID string) error
}

type costCenterService struct {
	costCenterRepo repository.CostCenterRepository
	ledgerRepo     repository.LedgerRepository
	auditRepo      repository.AuditRepository
	txManager      repository.TransactionManager
}

func NewCostCenterService(
	costCenterRepo repository.CostCenterRepository,
	ledgerRepo repository.LedgerRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) CostCenterService {
	return &costCenterService{
		costCenterRepo: costCenterRepo,
		ledgerRepo:     ledgerRepo,
		auditRepo:      auditRepo,
		txManager:      txManager,
	}
}

// --- Cost centers ---

func (s *costCenterService) ListCostCenters(ctx context.Context, search string) ([]CostCenterResponse, error) {
	centers, err := s.costCenterRepo.List(ctx, strings.TrimSpace(search))
	if err != nil {
		return nil, apperror.Internal(err)
	}

	res := make([]CostCenterResponse, 0, len(centers))
	for i := range centers {
		res = append(res, toCostCenterResponse(&centers[i]))
	}
	return res, nil
}

func (s *costCenterService) GetCostCenter(ctx context.Context, id string) (*CostCenterResponse, error) {
	cc, err := s.findCostCenter(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toCostCenterResponse(cc)
	return &resp, nil
}

func (s *costCenterService) CreateCostCenter(ctx context.Context, userID string, req CostCenterRequest) (*CostCenterResponse, error) {
	name, code := strings.TrimSpace(req.Name), strings.TrimSpace(req.Code)
	if name == "" || code == "" {
		return nil, apperror.Validation("name and code are required")
	}
	if err := s.ensureCodeFree(ctx, code, uuid.Nil); err != nil {
		return nil, err
	}

	cc := model.CostCenter{Name: name, Code: code, Description: req.Description}
	actorID, _ := uuid.Parse(userID)

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.costCenterRepo.Create(txCtx, &cc); err != nil {
			return err
		}
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     nilIfZero(actorID),
			Action:     model.ActionCreateCostCtr,
			EntityID:   cc.ID.String(),
			EntityName: cc.Name,
			Details:    auditDetails(map[string]interface{}{"code": cc.Code}),
		})
	})
	if err != nil {
		return nil, apperror.Internal(err)
	}

	resp := toCostCenterResponse(&cc)
	return &resp, nil
}

func (s *costCenterService) UpdateCostCenter(ctx context.Context, userID, id string, req CostCenterRequest) (*CostCenterResponse, error) {
	cc, err := s.findCostCenter(ctx, id)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		cc.Name = name
	}
	if code := strings.TrimSpace(req.Code); code != "" && code != cc.Code {
		if err := s.ensureCodeFree(ctx, code, cc.ID); err != nil {
			return nil, err
		}
		cc.Code = code
	}
	if req.Description != "" {
		cc.Description = req.Description
	}

	actorID, _ := uuid.Parse(userID)
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.costCenterRepo.Update(txCtx, cc); err != nil {
			return err
		}
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     nilIfZero(actorID),
			Action:     model.ActionUpdateCostCtr,
			EntityID:   cc.ID.String(),
			EntityName: cc.Name,
			Details:    auditDetails(map[string]interface{}{"code": cc.Code, "description": cc.Description}),
		})
	})
	if err != nil {
		return nil, apperror.Internal(err)
	}

	resp := toCostCenterResponse(cc)
	return &resp, nil
}

func (s *costCenterService) DeleteCostCenter(ctx context.Context, userID, id string) error {
	ccID, err := parseID(id, "cost center id")
	if err != nil {
		return err
	}

	actorID, _ := uuid.Parse(userID)
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		rows, err := s.costCenterRepo.Delete(txCtx, ccID)
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return apperror.Conflict("cost center is still assigned to users or reports")
		}
		if err != nil {
			return apperror.Internal(err)
		}
		if rows == 0 {
			return apperror.NotFound("cost center not found")
		}
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:   nilIfZero(actorID),
			Action:   model.ActionDeleteCostCtr,
			EntityID: ccID.String(),
		})
	})
	return storeError(err)
}

func (s *costCenterService) findCostCenter(ctx context.Context, id string) (*model.CostCenter, error) {
	ccID, err := parseID(id, "cost center id")
	if err != nil {
		return nil, err
	}
	cc, err := s.costCenterRepo.FindByID(ctx, ccID)
	if err != nil {
		return nil, lookupError(err, "cost center not found")
	}
	return cc, nil
}

func (s *costCenterService) ensureCodeFree(ctx context.Context, code string, owner uuid.UUID) error {
	existing, err := s.costCenterRepo.FindByCode(ctx, code)
	if err == nil && existing.ID != owner {
		return apperror.Conflict("cost center code already exists")
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.Internal(err)
	}
	return nil
}

// --- Ledger ---

func (s *costCenterService) ListLedger(ctx context.Context, costCenterID string, page, limit int) (*LedgerPage, error) {
	cc, err := s.findCostCenter(ctx, costCenterID)
	if err != nil {
		return nil, err
	}
	params := pagination.New(page, limit)

	entries, total, err := s.ledgerRepo.List(ctx, cc.ID, params.Offset, params.Limit)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	totals, err := s.ledgerRepo.Totals(ctx, cc.ID)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	res := make([]LedgerEntryResponse, 0, len(entries))
	for i := range entries {
		res = append(res, toLedgerEntryResponse(&entries[i]))
	}

	return &LedgerPage{
		CostCenter:  toCostCenterResponse(cc),
		Entries:     res,
		TotalDebit:  totals.Debit,
		TotalCredit: totals.Credit,
		Balance:     totals.Credit.Sub(totals.Debit),
		Total:       total,
		Page:        params.Page,
		Limit:       params.Limit,
		TotalPages:  pagination.TotalPages(total, params.Limit),
	}, nil
}

func (s *costCenterService) CreateLedgerEntry(ctx context.Context, userID, costCenterID string, req LedgerEntryRequest) (*LedgerEntryResponse, error) {
	cc, err := s.findCostCenter(ctx, costCenterID)
	if err != nil {
		return nil, err
	}

	if req.Debit.IsNegative() || req.Credit.IsNegative() {
		return nil, apperror.Validation("debit and credit must not be negative")
	}
	if req.Debit.IsZero() && req.Credit.IsZero() {
		return nil, apperror.Validation("either debit or credit is required")
	}

	entryDate := time.Now().UTC()
	if raw := strings.TrimSpace(req.EntryDate); raw != "" {
		start, _, err := timefmt.DayRange(raw)
		if err != nil {
			return nil, apperror.Validation("invalid entry_date: " + raw)
		}
		entryDate = start.UTC()
	}

	actorID, _ := uuid.Parse(userID)
	entry := model.LedgerEntry{
		CostCenterID: cc.ID,
		EntryDate:    entryDate,
		Description:  req.Description,
		Reference:    req.Reference,
		Debit:        req.Debit,
		Credit:       req.Credit,
		CreatedByID:  nilIfZero(actorID),
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.ledgerRepo.Create(txCtx, &entry); err != nil {
			return err
		}
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     nilIfZero(actorID),
			Action:     model.ActionCreateLedger,
			EntityID:   entry.ID.String(),
			EntityName: cc.Name,
			Details: auditDetails(map[string]interface{}{
				"debit":     entry.Debit.String(),
				"credit":    entry.Credit.String(),
				"reference": entry.Reference,
			}),
		})
	})
	if err != nil {
		return nil, apperror.Internal(err)
	}

	resp := toLedgerEntryResponse(&entry)
	return &resp, nil
}

func (s *costCenterService) DeleteLedgerEntry(ctx context.Context, userID, costCenterID, entryID string) error {
	ccID, err := parseID(costCenterID, "cost center id")
	if err != nil {
		return err
	}
	id, err := parseID(entryID, "ledger entry id")
	if err != nil {
		return err
	}

	entry, err := s.ledgerRepo.FindByID(ctx, id)
	if err != nil {
		return lookupError(err, "ledger entry not found")
	}
	if entry.CostCenterID != ccID {
		return apperror.NotFound("ledger entry not found")
	}

	actorID, _ := uuid.Parse(userID)
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.ledgerRepo.Delete(txCtx, id); err != nil {
			return err
		}
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:   nilIfZero(actorID),
			Action:   model.ActionDeleteLedger,
			EntityID: id.String(),
			Details: auditDetails(map[string]interface{}{
				"debit":  entry.Debit.String(),
				"credit": entry.Credit.String(),
			}),
		})
	})
	return storeError(err)
}

func toCostCenterResponse(cc *model.CostCenter) CostCenterResponse {
	return CostCenterResponse{
		ID:          cc.ID.String(),
		Name:        cc.Name,
		Code:        cc.Code,
		Description: cc.Description,
		CreatedAt:   timefmt.Format(cc.CreatedAt),
	}
}

func toLedgerEntryResponse(e *model.LedgerEntry) LedgerEntryResponse {
	return LedgerEntryResponse{
		ID:          e.ID.String(),
		EntryDate:   timefmt.Format(e.EntryDate),
		Description: e.Description,
		Reference:   e.Reference,
		Debit:       e.Debit,
		Credit:      e.Credit,
	}
}
