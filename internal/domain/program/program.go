package program

import (
	"context"
	"math"
	"time"

	"Ecotrack/internal/pkg"

	"github.com/oklog/ulid/v2"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusInactive:
		return true
	}
	return false
}

const (
	DefaultIcon       = "🌱"
	DefaultTargetUnit = "pohon"
)

type Program struct {
	Id                ulid.ULID
	Name              string
	Description       string
	Organizer         string
	SettlementAccount string
	Icon              string
	TargetNumber      int
	TargetUnit        string
	CurrentProgress   int
	TargetAmount      float64
	TotalCollected    float64
	Status            Status
	StartDate         *time.Time
	EndDate           *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ProgressPercentage é collected/target em %, com uma casa decimal e teto de 100.
func (p *Program) ProgressPercentage() float64 {
	if p.TargetAmount <= 0 {
		return 0
	}
	pct := p.TotalCollected / p.TargetAmount * 100
	if pct > 100 {
		pct = 100
	}
	return math.Round(pct*10) / 10
}

type CreateProgram struct {
	Name              string
	Description       string
	Organizer         string
	SettlementAccount string
	Icon              string
	TargetNumber      int
	TargetUnit        string
	CurrentProgress   int
	TargetAmount      float64
	Status            Status
	StartDate         *time.Time
	EndDate           *time.Time
}

type UpdateProgram struct {
	Name              *string
	Description       *string
	Organizer         *string
	SettlementAccount *string
	Icon              *string
	TargetNumber      *int
	TargetUnit        *string
	CurrentProgress   *int
	TargetAmount      *float64
	Status            *Status
	StartDate         *time.Time
	EndDate           *time.Time
}

type Filter struct {
	Search string
	Status Status
}

type Option struct {
	Id   ulid.ULID `json:"id"`
	Name string    `json:"name"`
}

type Repository interface {
	Create(ctx context.Context, p *Program) error
	Update(ctx context.Context, p *Program) error
	Delete(ctx context.Context, id ulid.ULID) error
	GetById(ctx context.Context, id ulid.ULID) (*Program, error)
	List(ctx context.Context, filter Filter, pagination *pkg.PaginationParams) ([]*Program, int64, error)
	ListByStatus(ctx context.Context, status Status) ([]*Program, error)
	Options(ctx context.Context) ([]Option, error)
}
