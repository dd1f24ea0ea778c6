package program

import (
	"context"
	"strings"

	appErrors "Ecotrack/internal/errors"
	"Ecotrack/internal/pkg"

	"github.com/oklog/ulid/v2"
)

type Service struct {
	Repository Repository
}

func NewService(repo Repository) *Service {
	return &Service{Repository: repo}
}

func (s *Service) Create(ctx context.Context, in CreateProgram) (*Program, error) {
	now := pkg.SetTimestamps()
	p := &Program{
		Id:                pkg.GenerateULIDObject(),
		Name:              strings.TrimSpace(in.Name),
		Description:       in.Description,
		Organizer:         strings.TrimSpace(in.Organizer),
		SettlementAccount: strings.TrimSpace(in.SettlementAccount),
		Icon:              in.Icon,
		TargetNumber:      in.TargetNumber,
		TargetUnit:        in.TargetUnit,
		CurrentProgress:   in.CurrentProgress,
		TargetAmount:      in.TargetAmount,
		Status:            in.Status,
		StartDate:         in.StartDate,
		EndDate:           in.EndDate,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if p.Icon == "" {
		p.Icon = DefaultIcon
	}
	if p.TargetUnit == "" {
		p.TargetUnit = DefaultTargetUnit
	}
	if p.Status == "" {
		p.Status = StatusActive
	}

	if p.Organizer == "" {
		return nil, appErrors.NewValidationError("organizer", "organizador é obrigatório")
	}
	if p.SettlementAccount == "" {
		return nil, appErrors.NewValidationError("settlement_account", "conta de repasse é obrigatória")
	}
	if p.StartDate == nil || p.EndDate == nil {
		return nil, appErrors.NewValidationError("start_date", "datas de início e término são obrigatórias")
	}
	if err := validate(p); err != nil {
		return nil, err
	}

	if err := s.Repository.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Update(ctx context.Context, id ulid.ULID, in UpdateProgram) (*Program, error) {
	p, err := s.Repository.GetById(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Organizer != nil {
		p.Organizer = strings.TrimSpace(*in.Organizer)
	}
	if in.SettlementAccount != nil {
		p.SettlementAccount = strings.TrimSpace(*in.SettlementAccount)
	}
	if in.Icon != nil {
		p.Icon = *in.Icon
	}
	if in.TargetNumber != nil {
		p.TargetNumber = *in.TargetNumber
	}
	if in.TargetUnit != nil {
		p.TargetUnit = *in.TargetUnit
	}
	if in.CurrentProgress != nil {
		p.CurrentProgress = *in.CurrentProgress
	}
	if in.TargetAmount != nil {
		p.TargetAmount = *in.TargetAmount
	}
	if in.Status != nil {
		p.Status = *in.Status
	}
	if in.StartDate != nil {
		p.StartDate = in.StartDate
	}
	if in.EndDate != nil {
		p.EndDate = in.EndDate
	}

	if err := validate(p); err != nil {
		return nil, err
	}

	p.UpdatedAt = pkg.SetTimestamps()
	if err := s.Repository.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Delete(ctx context.Context, id ulid.ULID) error {
	return s.Repository.Delete(ctx, id)
}

func (s *Service) Get(ctx context.Context, id ulid.ULID) (*Program, error) {
	return s.Repository.GetById(ctx, id)
}

func (s *Service) List(ctx context.Context, filter Filter, pagination *pkg.PaginationParams) ([]*Program, int64, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, 0, appErrors.NewValidationError("status", "status deve ser active ou inactive")
	}
	filter.Search = strings.TrimSpace(filter.Search)
	return s.Repository.List(ctx, filter, pagination)
}

// ListActive devolve apenas os programas com status active, mais recentes primeiro.
func (s *Service) ListActive(ctx context.Context) ([]*Program, error) {
	return s.Repository.ListByStatus(ctx, StatusActive)
}

func (s *Service) ListActiveOptions(ctx context.Context) ([]Option, error) {
	return s.Repository.Options(ctx)
}

func validate(p *Program) error {
	if p.Name == "" {
		return appErrors.NewValidationError("name", "nome é obrigatório")
	}
	if p.TargetAmount <= 0 {
		return appErrors.NewValidationError("target_amount", "meta deve ser maior que zero")
	}
	if p.TargetNumber < 0 || p.CurrentProgress < 0 {
		return appErrors.NewValidationError("target_number", "metas numéricas não podem ser negativas")
	}
	if !p.Status.IsValid() {
		return appErrors.NewValidationError("status", "status deve ser active ou inactive")
	}
	if p.StartDate != nil && p.EndDate != nil && p.StartDate.After(*p.EndDate) {
		return appErrors.NewValidationError("end_date", "data de término deve ser igual ou posterior ao início")
	}
	return nil
}
