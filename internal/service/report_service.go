package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"opsportal/internal/apperror"
	"opsportal/internal/model"
	"opsportal/internal/repository"
	"opsportal/pkg/pagination"
	"opsportal/pkg/timefmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// --- DTOs ---

// ReportQuery carries the raw /reportGet query parameters
type ReportQuery struct {
	ReportType string
	CostCenter string // uuid for an exact match, otherwise a name fragment
	Date       string // YYYY-MM-DD or DD-MM-YYYY
	Inspector  string
	Page       int
	Limit      int
}

type ReportItemRequest struct {
	Task   string `json:"task"`
	Status bool   `json:"status"`
	Notes  string `json:"notes"`
}

type SubmitReportRequest struct {
	ReportType     string              `json:"reportType" binding:"required"`
	InspectionTime string              `json:"inspectionTime"`
	Items          []ReportItemRequest `json:"items"`
}

type ReportItemView struct {
	Task   string `json:"task"`
	Status bool   `json:"status"`
	Notes  string `json:"notes"`
}

type InspectorRef struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type CostCenterRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type ReportView struct {
	ID             string           `json:"id"`
	ReportType     string           `json:"reportType"`
	SubmittedAt    string           `json:"submittedAt"`
	InspectionTime string           `json:"inspectionTime"`
	Items          []ReportItemView `json:"items"`
	Inspector      *InspectorRef    `json:"inspector"`
	CostCenter     *CostCenterRef   `json:"costCenter"`
}

type ReportPage struct {
	Reports    []ReportView `json:"reports"`
	Total      int64        `json:"total"`
	Page       int          `json:"page"`
	Limit      int          `json:"limit"`
	TotalPages int          `json:"total_pages"`
}

// --- Interface ---

type ReportService interface {
	ListReports(ctx context.Context, q ReportQuery) (*ReportPage, error)
	GetReport(ctx context.Context, id string) (*ReportView, error)
	SubmitReport(ctx context.Context, userID string, req SubmitReportRequest) (*ReportView, error)
}

type reportService struct {
	reportRepo     repository.ReportRepository
	costCenterRepo repository.CostCenterRepository
	userRepo       repository.UserRepository
	auditRepo      repository.AuditRepository
	txManager      repository.TransactionManager
	logger         *zap.Logger
}

func NewReportService(
	reportRepo repository.ReportRepository,
	costCenterRepo repository.CostCenterRepository,
	userRepo repository.UserRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	logger *zap.Logger,
) ReportService {
	return &reportService{
		reportRepo:     reportRepo,
		costCenterRepo: costCenterRepo,
		userRepo:       userRepo,
		auditRepo:      auditRepo,
		txManager:      txManager,
		logger:         logger,
	}
}

// --- Implementation ---

func (s *reportService) ListReports(ctx context.Context, q ReportQuery) (*ReportPage, error) {
	params := pagination.New(q.Page, q.Limit)
	empty := &ReportPage{Reports: []ReportView{}, Page: params.Page, Limit: params.Limit}

	filter, matchable, err := s.buildFilter(ctx, q)
	if err != nil {
		return nil, err
	}
	if !matchable {
		return empty, nil
	}

	reports, total, err := s.reportRepo.List(ctx, filter, params.Offset, params.Limit)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	views := make([]ReportView, 0, len(reports))
	for i := range reports {
		views = append(views, toReportView(&reports[i]))
	}

	return &ReportPage{
		Reports:    views,
		Total:      total,
		Page:       params.Page,
		Limit:      params.Limit,
		TotalPages: pagination.TotalPages(total, params.Limit),
	}, nil
}

// buildFilter turns the query into a repository filter. matchable is false when a
// cost-center name search matched no cost center, so the main query can be skipped.
func (s *reportService) buildFilter(ctx context.Context, q ReportQuery) (repository.ReportFilter, bool, error) {
	var filter repository.ReportFilter

	if rt := strings.TrimSpace(q.ReportType); rt != "" {
		if !model.ValidReportType(rt) {
			return filter, false, apperror.Validation(model.ErrInvalidReportType.Error())
		}
		filter.ReportType = rt
	}

	if raw := strings.TrimSpace(q.Inspector); raw != "" {
		id, err := parseID(raw, "inspector id")
		if err != nil {
			return filter, false, err
		}
		filter.InspectorID = &id
	}

	if raw := strings.TrimSpace(q.Date); raw != "" {
		start, end, err := timefmt.DayRange(raw)
		if err != nil {
			return filter, false, apperror.Validation("invalid date: " + raw)
		}
		filter.From = &start
		filter.To = &end
	}

	if raw := strings.TrimSpace(q.CostCenter); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			filter.CostCenterIDs = []uuid.UUID{id}
		} else {
			ids, err := s.costCenterRepo.FindIDsByName(ctx, raw)
			if err != nil {
				return filter, false, apperror.Internal(err)
			}
			if len(ids) == 0 {
				return filter, false, nil
			}
			filter.CostCenterIDs = ids
		}
	}

	return filter, true, nil
}

func (s *reportService) GetReport(ctx context.Context, id string) (*ReportView, error) {
	reportID, err := parseID(id, "report id")
	if err != nil {
		return nil, err
	}

	report, err := s.reportRepo.FindByID(ctx, reportID)
	if err != nil {
		return nil, lookupError(err, "report not found")
	}

	view := toReportView(report)
	return &view, nil
}

// SubmitReport files a report for the authenticated inspector. The cost center is
// inherited from the inspector; an inspector without one cannot submit.
func (s *reportService) SubmitReport(ctx context.Context, userID string, req SubmitReportRequest) (*ReportView, error) {
	if !model.ValidReportType(req.ReportType) {
		return nil, apperror.Validation(model.ErrInvalidReportType.Error())
	}

	inspector, err := loadActor(ctx, s.userRepo, userID)
	if err != nil {
		return nil, err
	}
	if inspector.CostCenterID == nil {
		return nil, apperror.Validation("Inspector has no assigned cost center")
	}

	items := make([]model.ReportItem, 0, len(req.Items))
	for i, it := range req.Items {
		task := strings.TrimSpace(it.Task)
		if task == "" {
			return nil, apperror.Validation(fmt.Sprintf("items[%d].task is required", i))
		}
		items = append(items, model.ReportItem{
			Position: i,
			Task:     task,
			Status:   it.Status,
			Notes:    it.Notes,
		})
	}

	report := model.Report{
		ReportType:     req.ReportType,
		InspectionTime: req.InspectionTime,
		InspectorID:    inspector.ID,
		Items:          items,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.reportRepo.Create(txCtx, &report); createErr != nil {
			return createErr
		}
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     userPtr(inspector.ID),
			Action:     model.ActionSubmitReport,
			EntityID:   report.ID.String(),
			EntityName: report.ReportType,
			Details: auditDetails(map[string]interface{}{
				"cost_center_id": report.CostCenterID.String(),
				"items":          len(items),
			}),
		})
	})
	if err != nil {
		switch {
		case errors.Is(err, model.ErrNoCostCenter):
			return nil, apperror.Validation("Inspector has no assigned cost center")
		case errors.Is(err, model.ErrInvalidReportType):
			return nil, apperror.Validation(err.Error())
		}
		return nil, apperror.Internal(err)
	}

	s.logger.Info("Report submitted",
		zap.String("report_id", report.ID.String()),
		zap.String("type", report.ReportType),
		zap.String("inspector", inspector.Username))

	created, err := s.reportRepo.FindByID(ctx, report.ID)
	if err != nil {
		return nil, lookupError(err, "report not found")
	}
	view := toReportView(created)
	return &view, nil
}

func toReportView(r *model.Report) ReportView {
	view := ReportView{
		ID:             r.ID.String(),
		ReportType:     r.ReportType,
		SubmittedAt:    timefmt.Format(r.SubmittedAt),
		InspectionTime: r.InspectionTime,
		Items:          make([]ReportItemView, 0, len(r.Items)),
	}
	for _, it := range r.Items {
		view.Items = append(view.Items, ReportItemView{Task: it.Task, Status: it.Status, Notes: it.Notes})
	}
	if r.Inspector != nil {
		view.Inspector = &InspectorRef{ID: r.Inspector.ID.String(), Username: r.Inspector.Username}
	}
	if r.CostCenter != nil {
		view.CostCenter = &CostCenterRef{ID: r.CostCenter.ID.String(), Name: r.CostCenter.Name}
	}
	return view
}
