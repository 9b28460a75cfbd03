package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Bill struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string    `gorm:"not null;size:255" json:"title"`
	TotalAmount float64   `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	CreatedBy   uuid.UUID `gorm:"type:uuid" json:"created_by"`
	Creator     User      `gorm:"foreignKey:CreatedBy" json:"creator,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (b *Bill) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// BillParticipant is one (bill, user) membership row. The composite primary
// key keeps the pair unique.
type BillParticipant struct {
	BillID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"bill_id"`
	UserID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	User     User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	JoinedAt time.Time `gorm:"autoCreateTime" json:"joined_at"`
}

// Request structs
type CreateBillRequest struct {
	Title          string   `json:"title" binding:"required,min=3"`
	TotalAmount    float64  `json:"total_amount" binding:"required,gt=0"`
	CreatedBy      string   `json:"created_by" binding:"required"`
	ParticipantIDs []string `json:"participant_ids"`
}

type UpdateBillRequest struct {
	Title       string  `json:"title" binding:"omitempty,min=3"`
	TotalAmount float64 `json:"total_amount" binding:"omitempty,gt=0"`
}

type AddParticipantsRequest struct {
	ParticipantIDs []string `json:"participant_ids" binding:"required,min=1"`
}

// Response structs
type BillResponse struct {
	ID           uuid.UUID         `json:"id"`
	Title        string            `json:"title"`
	TotalAmount  float64           `json:"total_amount"`
	CreatedBy    uuid.UUID         `json:"created_by"`
	CreatorName  string            `json:"creator_name,omitempty"`
	Participants []UserResponse    `json:"participants"`
	Expenses     []ExpenseResponse `json:"expenses"`
	CreatedAt    time.Time         `json:"created_at"`
}
