package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ActionCreateExpense   = "CREATE_PROJECT_EXPENSE"
	ActionUpdateExpense   = "UPDATE_PROJECT_EXPENSE"
	ActionApproveExpense  = "APPROVE_PROJECT_EXPENSE"
	ActionDeleteExpense   = "DELETE_PROJECT_EXPENSE"
	ActionImportExpenses  = "IMPORT_PROJECT_EXPENSES"
	ActionSubmitReport    = "SUBMIT_REPORT"
	ActionCreateCostCtr   = "CREATE_COST_CENTER"
	ActionUpdateCostCtr   = "UPDATE_COST_CENTER"
	ActionDeleteCostCtr   = "DELETE_COST_CENTER"
	ActionCreateLedger    = "CREATE_LEDGER_ENTRY"
	ActionDeleteLedger    = "DELETE_LEDGER_ENTRY"
	ActionDeleteFile      = "DELETE_FILE"
	ActionCreateUser      = "CREATE_USER"
	ActionUpdateUser      = "UPDATE_USER"
)

// AuditLog tracks Who, What, and When for critical system changes
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // nil for automated actions
	User       *User      `gorm:"foreignKey:UserID" json:"user"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(64);index" json:"entity_id"`
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"`
	Details    string     `gorm:"type:text" json:"details"` // serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	ensureID(&a.ID)
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	return nil
}
