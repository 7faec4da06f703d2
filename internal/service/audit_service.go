package service

import (
	"context"
	"strings"

	"opsportal/internal/apperror"
	"opsportal/internal/model"
	"opsportal/internal/repository"
	"opsportal/pkg/pagination"
	"opsportal/pkg/timefmt"
)

// AuditQuery carries the raw /api/audit-logs query parameters
type AuditQuery struct {
	Action   string
	EntityID string
	User     string // user id
	Date     string // YYYY-MM-DD or DD-MM-YYYY
	Page     int
	Limit    int
}

type AuditLogResponse struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	Username   string `json:"username"`
	Action     string `json:"action"`
	EntityID   string `json:"entity_id"`
	EntityName string `json:"entity_name"`
	Details    string `json:"details"`
	CreatedAt  string `json:"created_at"`
}

type AuditPage struct {
	Logs       []AuditLogResponse `json:"logs"`
	Total      int64              `json:"total"`
	Page       int                `json:"page"`
	Limit      int                `json:"limit"`
	TotalPages int                `json:"total_pages"`
}

type AuditService interface {
	GetAuditLogs(ctx context.Context, q AuditQuery) (*AuditPage, error)
}

type auditService struct {
	repo repository.AuditRepository
}

// NewAuditService creates a new AuditService instance
func NewAuditService(repo repository.AuditRepository) AuditService {
	return &auditService{repo: repo}
}

// GetAuditLogs returns one page of audit entries, newest first, with the acting user resolved.
// Entries without a user are attributed to "System".
func (s *auditService) GetAuditLogs(ctx context.Context, q AuditQuery) (*AuditPage, error) {
	filter := repository.AuditFilter{
		Action:   strings.ToUpper(strings.TrimSpace(q.Action)),
		EntityID: strings.TrimSpace(q.EntityID),
	}
	if raw := strings.TrimSpace(q.User); raw != "" {
		id, err := parseID(raw, "user id")
		if err != nil {
			return nil, err
		}
		filter.UserID = &id
	}
	if raw := strings.TrimSpace(q.Date); raw != "" {
		start, end, err := timefmt.DayRange(raw)
		if err != nil {
			return nil, apperror.Validation("invalid date: " + raw)
		}
		filter.From, filter.To = &start, &end
	}

	params := pagination.New(q.Page, q.Limit)
	logs, total, err := s.repo.List(ctx, filter, params.Offset, params.Limit)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	res := make([]AuditLogResponse, 0, len(logs))
	for i := range logs {
		res = append(res, toAuditLogResponse(&logs[i]))
	}

	return &AuditPage{
		Logs:       res,
		Total:      total,
		Page:       params.Page,
		Limit:      params.Limit,
		TotalPages: pagination.TotalPages(total, params.Limit),
	}, nil
}

func toAuditLogResponse(l *model.AuditLog) AuditLogResponse {
	resp := AuditLogResponse{
		ID:         l.ID.String(),
		Username:   "System",
		Action:     l.Action,
		EntityID:   l.EntityID,
		EntityName: l.EntityName,
		Details:    l.Details,
		CreatedAt:  timefmt.Format(l.CreatedAt),
	}
	if l.UserID != nil {
		resp.UserID = l.UserID.String()
	}
	if l.User != nil {
		resp.Username = l.User.Username
	}
	return resp
}
