package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is an employee account. Reports inherit the cost center assigned here.
type User struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Username     string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"username"`
	Email        string         `gorm:"type:varchar(255);index" json:"email"`
	Password     string         `gorm:"type:varchar(255);not null" json:"-"`
	Role         string         `gorm:"type:varchar(50);not null" json:"role"`
	Department   string         `gorm:"type:varchar(100)" json:"department"`
	CostCenterID *uuid.UUID     `gorm:"type:uuid;index" json:"cost_center_id"`
	CostCenter   *CostCenter    `gorm:"foreignKey:CostCenterID" json:"cost_center,omitempty"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"` // GORM soft delete
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	ensureID(&u.ID)
	return nil
}

// ensureID assigns a fresh uuid when the caller did not set one
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
