package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReportType enum constants
const (
	ReportTypeDaily  = "daily"
	ReportTypeWeekly = "weekly"
)

var (
	ErrInvalidReportType = errors.New("reportType must be daily or weekly")
	ErrInspectorRequired = errors.New("inspector is required")
	ErrNoCostCenter      = errors.New("inspector has no assigned cost center")
)

// ValidReportType reports whether t is daily or weekly
func ValidReportType(t string) bool {
	return t == ReportTypeDaily || t == ReportTypeWeekly
}

// Report is an inspection report. It is immutable once created.
type Report struct {
	ID             uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	ReportType     string       `gorm:"type:varchar(10);not null;index" json:"report_type"`
	SubmittedAt    time.Time    `gorm:"not null;index" json:"submitted_at"`
	InspectionTime string       `gorm:"type:varchar(100)" json:"inspection_time"` // free text
	InspectorID    uuid.UUID    `gorm:"type:uuid;not null;index" json:"inspector_id"`
	Inspector      *User        `gorm:"foreignKey:InspectorID" json:"inspector,omitempty"`
	CostCenterID   uuid.UUID    `gorm:"type:uuid;not null;index" json:"cost_center_id"`
	CostCenter     *CostCenter  `gorm:"foreignKey:CostCenterID" json:"cost_center,omitempty"`
	Items          []ReportItem `gorm:"foreignKey:ReportID;constraint:OnDelete:CASCADE;" json:"items"`
	CreatedAt      time.Time    `json:"created_at"`
}

// ReportItem is one checklist line of a report; Position keeps submission order
type ReportItem struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ReportID uuid.UUID `gorm:"type:uuid;not null;index" json:"report_id"`
	Position int       `gorm:"not null" json:"position"`
	Task     string    `gorm:"type:text;not null" json:"task"`
	Status   bool      `gorm:"not null;default:false" json:"status"`
	Notes    string    `gorm:"type:text" json:"notes"`
}

// BeforeCreate back-fills the cost center from the inspector's assignment.
// A report whose inspector has no cost center is refused.
func (r *Report) BeforeCreate(tx *gorm.DB) error {
	ensureID(&r.ID)

	if !ValidReportType(r.ReportType) {
		return ErrInvalidReportType
	}
	if r.InspectorID == uuid.Nil {
		return ErrInspectorRequired
	}

	if r.CostCenterID == uuid.Nil {
		var inspector User
		err := tx.Session(&gorm.Session{NewDB: true}).
			Select("id", "cost_center_id").
			First(&inspector, "id = ?", r.InspectorID).Error
		if err != nil {
			return fmt.Errorf("failed to load inspector: %w", err)
		}
		if inspector.CostCenterID == nil {
			return ErrNoCostCenter
		}
		r.CostCenterID = *inspector.CostCenterID
	}

	if r.SubmittedAt.IsZero() {
		r.SubmittedAt = time.Now().UTC()
	}
	return nil
}

func (i *ReportItem) BeforeCreate(tx *gorm.DB) error {
	ensureID(&i.ID)
	return nil
}
