package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SplitMethod is the allocation policy used to compute owed amounts.
type SplitMethod string

const (
	SplitEqual      SplitMethod = "equal"
	SplitExact      SplitMethod = "exact"
	SplitPercentage SplitMethod = "percentage"
)

type Expense struct {
	ID          uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	BillID      uuid.UUID   `gorm:"type:uuid;index;not null" json:"bill_id"`
	Bill        Bill        `gorm:"foreignKey:BillID" json:"-"`
	UserID      uuid.UUID   `gorm:"type:uuid;not null" json:"user_id"`
	User        User        `gorm:"foreignKey:UserID" json:"user,omitempty"`
	AmountOwed  float64     `gorm:"type:decimal(12,2);not null" json:"amount_owed"`
	AmountPaid  float64     `gorm:"type:decimal(12,2);default:0" json:"amount_paid"`
	SplitMethod SplitMethod `gorm:"not null;size:20" json:"split_method"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

func (e *Expense) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// Request structs
type CreateExpenseRequest struct {
	BillID      string  `json:"bill_id" binding:"required"`
	UserID      string  `json:"user_id" binding:"required"`
	AmountOwed  float64 `json:"amount_owed" binding:"gte=0"`
	AmountPaid  float64 `json:"amount_paid" binding:"gte=0"`
	SplitMethod string  `json:"split_method" binding:"required,oneof=equal exact percentage"`
}

// UpdateExpenseRequest uses pointers so that absent fields are left untouched
// while explicit zero values still apply.
type UpdateExpenseRequest struct {
	AmountOwed  *float64 `json:"amount_owed" binding:"omitempty,gte=0"`
	AmountPaid  *float64 `json:"amount_paid" binding:"omitempty,gte=0"`
	SplitMethod *string  `json:"split_method" binding:"omitempty,oneof=equal exact percentage"`
}

type SplitBillRequest struct {
	SplitMethod   string             `json:"split_method" binding:"omitempty,oneof=equal exact percentage"`
	CustomAmounts map[string]float64 `json:"custom_amounts"`
}

type RecordPaymentRequest struct {
	AmountPaid *float64 `json:"amount_paid" binding:"required"`
}

// Response
type ExpenseResponse struct {
	ID          uuid.UUID   `json:"id"`
	BillID      uuid.UUID   `json:"bill_id"`
	UserID      uuid.UUID   `json:"user_id"`
	UserName    string      `json:"user_name,omitempty"`
	AmountOwed  float64     `json:"amount_owed"`
	AmountPaid  float64     `json:"amount_paid"`
	SplitMethod SplitMethod `json:"split_method"`
	CreatedAt   time.Time   `json:"created_at"`
}

func (e *Expense) ToResponse() ExpenseResponse {
	return ExpenseResponse{
		ID:          e.ID,
		BillID:      e.BillID,
		UserID:      e.UserID,
		AmountOwed:  e.AmountOwed,
		AmountPaid:  e.AmountPaid,
		SplitMethod: e.SplitMethod,
		CreatedAt:   e.CreatedAt,
	}
}
