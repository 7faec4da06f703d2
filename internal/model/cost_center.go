package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CostCenter is an organizational unit that users, reports and ledger entries attach to
type CostCenter struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(255);not null;index" json:"name"`
	Code        string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (c *CostCenter) BeforeCreate(tx *gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

// LedgerEntry is one bank-ledger line booked against a cost center
type LedgerEntry struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	CostCenterID uuid.UUID       `gorm:"type:uuid;not null;index" json:"cost_center_id"`
	CostCenter   *CostCenter     `gorm:"foreignKey:CostCenterID;constraint:OnDelete:CASCADE;" json:"-"`
	EntryDate    time.Time       `gorm:"not null;index" json:"entry_date"`
	Description  string          `gorm:"type:text" json:"description"`
	Reference    string          `gorm:"type:varchar(100)" json:"reference"`
	Debit        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"debit"`
	Credit       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"credit"`
	CreatedByID  *uuid.UUID      `gorm:"type:uuid" json:"created_by_id"`
	CreatedBy    *User           `gorm:"foreignKey:CreatedByID" json:"-"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (l *LedgerEntry) BeforeCreate(tx *gorm.DB) error {
	ensureID(&l.ID)
	return nil
}
