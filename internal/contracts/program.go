package contracts

import (
	"time"

	"github.com/oklog/ulid/v2"
)

type ProgramCreateRequest struct {
	Name              string     `json:"name" binding:"required,max=255"`
	Description       string     `json:"description"`
	Organizer         string     `json:"organizer" binding:"required,max=255"`
	SettlementAccount string     `json:"settlement_account" binding:"required,max=100"`
	Icon              string     `json:"icon" binding:"omitempty,max=16"`
	TargetNumber      int        `json:"target_number" binding:"omitempty,min=0"`
	TargetUnit        string     `json:"target_unit" binding:"omitempty,max=50"`
	CurrentProgress   int        `json:"current_progress" binding:"omitempty,min=0"`
	TargetAmount      float64    `json:"target_amount" binding:"required,gt=0"`
	Status            string     `json:"status" binding:"omitempty,oneof=active inactive"`
	StartDate         string     `json:"start_date" binding:"required,datetime=2006-01-02"`
	EndDate           string     `json:"end_date" binding:"required,datetime=2006-01-02"`
}

type ProgramUpdateRequest struct {
	Name              *string    `json:"name" binding:"omitempty,min=1,max=255"`
	Description       *string    `json:"description"`
	Organizer         *string    `json:"organizer" binding:"omitempty,max=255"`
	SettlementAccount *string    `json:"settlement_account" binding:"omitempty,max=100"`
	Icon              *string    `json:"icon" binding:"omitempty,max=16"`
	TargetNumber      *int       `json:"target_number" binding:"omitempty,min=0"`
	TargetUnit        *string    `json:"target_unit" binding:"omitempty,max=50"`
	CurrentProgress   *int       `json:"current_progress" binding:"omitempty,min=0"`
	TargetAmount      *float64   `json:"target_amount" binding:"omitempty,gt=0"`
	Status            *string    `json:"status" binding:"omitempty,oneof=active inactive"`
	StartDate         *string    `json:"start_date" binding:"omitempty,datetime=2006-01-02"`
	EndDate           *string    `json:"end_date" binding:"omitempty,datetime=2006-01-02"`
}

type ProgramResponse struct {
	Id                 ulid.ULID  `json:"id"`
	Name               string     `json:"name"`
	Description        string     `json:"description"`
	Organizer          string     `json:"organizer"`
	SettlementAccount  string     `json:"settlement_account"`
	Icon               string     `json:"icon"`
	TargetNumber       int        `json:"target_number"`
	TargetUnit         string     `json:"target_unit"`
	CurrentProgress    int        `json:"current_progress"`
	TargetAmount       float64    `json:"target_amount"`
	TotalCollected     float64    `json:"total_collected"`
	ProgressPercentage float64    `json:"progress_percentage"`
	Status             string     `json:"status"`
	StartDate          *time.Time `json:"start_date"`
	EndDate            *time.Time `json:"end_date"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}
