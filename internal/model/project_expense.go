package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var hundred = decimal.NewFromInt(100)

// ApproverSnapshot is the approving user's username and department copied at approval
// time. It does not follow later changes to that user.
type ApproverSnapshot struct {
	Username   string `gorm:"type:varchar(255)" json:"username"`
	Department string `gorm:"type:varchar(100)" json:"department"`
}

// Empty reports whether no approver has been captured
func (a ApproverSnapshot) Empty() bool {
	return a.Username == "" && a.Department == ""
}

// String renders the snapshot as "username department"
func (a ApproverSnapshot) String() string {
	if a.Empty() {
		return ""
	}
	if a.Department == "" {
		return a.Username
	}
	return a.Username + " " + a.Department
}

// ProjectExpense is one purchased line item of a project. Totals are derived, never stored.
type ProjectExpense struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Tag           string          `gorm:"type:varchar(255);uniqueIndex;not null" json:"tag"`
	Name          string          `gorm:"type:varchar(255)" json:"name"`
	Description   string          `gorm:"type:text" json:"description"`
	Package       string          `gorm:"type:varchar(255)" json:"package"`
	Unit          string          `gorm:"type:varchar(50)" json:"unit"`
	Amount        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"amount"`
	UnitPrice     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"unit_price"`
	VAT           decimal.Decimal `gorm:"column:vat;type:decimal(10,4);not null;default:0" json:"vat"` // percent
	Paid          decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"paid"`
	DeliveryDate  string          `gorm:"type:varchar(100)" json:"delivery_date"` // free text
	Note          string          `gorm:"type:text" json:"note"`
	EntryDate     time.Time       `gorm:"not null;index" json:"entry_date"`
	SubmittedByID *uuid.UUID      `gorm:"type:uuid;index" json:"submitted_by_id"`
	SubmittedBy   *User           `gorm:"foreignKey:SubmittedByID" json:"submitted_by,omitempty"`

	ApprovalReceive     bool             `gorm:"not null;default:false" json:"approval_receive"`
	ApprovedReceiveBy   ApproverSnapshot `gorm:"embedded;embeddedPrefix:approved_receive_by_" json:"approved_receive_by"`
	ApprovalReceiveDate *time.Time       `json:"approval_receive_date"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ProjectExpense) TableName() string {
	return "project_expenses"
}

func (e *ProjectExpense) BeforeCreate(tx *gorm.DB) error {
	ensureID(&e.ID)
	return nil
}

// TotalPrice = amount * unitPrice
func (e *ProjectExpense) TotalPrice() decimal.Decimal {
	return e.Amount.Mul(e.UnitPrice)
}

// VATValue = totalPrice * vat / 100
func (e *ProjectExpense) VATValue() decimal.Decimal {
	return e.TotalPrice().Mul(e.VAT).Div(hundred)
}

// TotalPriceAfterVAT = amount * unitPrice * (1 + vat/100)
func (e *ProjectExpense) TotalPriceAfterVAT() decimal.Decimal {
	return e.TotalPrice().Add(e.VATValue())
}
