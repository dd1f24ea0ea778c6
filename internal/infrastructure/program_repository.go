package infrastructure

import (
	"context"
	"errors"
	"strings"
	"time"

	"Ecotrack/internal/domain/program"
	appErrors "Ecotrack/internal/errors"
	"Ecotrack/internal/pkg"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

type ProgramRepository struct {
	DB *gorm.DB
}

type programDB struct {
	Id                string `gorm:"type:varchar(26);primaryKey"`
	Name              string `gorm:"not null"`
	Description       string `gorm:"type:text"`
	Organizer         string
	SettlementAccount string
	Icon              string
	TargetNumber      int     `gorm:"not null;default:0"`
	TargetUnit        string
	CurrentProgress   int     `gorm:"not null;default:0"`
	TargetAmount      float64 `gorm:"not null;default:0"`
	TotalCollected    float64 `gorm:"not null;default:0"`
	Status            string  `gorm:"type:varchar(16);index;not null"`
	StartDate         *time.Time
	EndDate           *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (programDB) TableName() string { return "programs" }

func toDomainProgram(row *programDB) (*program.Program, error) {
	id, err := pkg.ParseULID(row.Id)
	if err != nil {
		return nil, appErrors.ErrInternalServer.WithError(err)
	}
	return &program.Program{
		Id:                id,
		Name:              row.Name,
		Description:       row.Description,
		Organizer:         row.Organizer,
		SettlementAccount: row.SettlementAccount,
		Icon:              row.Icon,
		TargetNumber:      row.TargetNumber,
		TargetUnit:        row.TargetUnit,
		CurrentProgress:   row.CurrentProgress,
		TargetAmount:      row.TargetAmount,
		TotalCollected:    row.TotalCollected,
		Status:            program.Status(row.Status),
		StartDate:         row.StartDate,
		EndDate:           row.EndDate,
		CreatedAt:         row.CreatedAt,
		UpdatedAt:         row.UpdatedAt,
	}, nil
}

func toDBProgram(p *program.Program) *programDB {
	return &programDB{
		Id:                p.Id.String(),
		Name:              p.Name,
		Description:       p.Description,
		Organizer:         p.Organizer,
		SettlementAccount: p.SettlementAccount,
		Icon:              p.Icon,
		TargetNumber:      p.TargetNumber,
		TargetUnit:        p.TargetUnit,
		CurrentProgress:   p.CurrentProgress,
		TargetAmount:      p.TargetAmount,
		TotalCollected:    p.TotalCollected,
		Status:            string(p.Status),
		StartDate:         p.StartDate,
		EndDate:           p.EndDate,
		CreatedAt:         p.CreatedAt.UTC(),
		UpdatedAt:         p.UpdatedAt.UTC(),
	}
}

func (r *ProgramRepository) Create(ctx context.Context, p *program.Program) error {
	if err := r.DB.WithContext(ctx).Create(toDBProgram(p)).Error; err != nil {
		return appErrors.NewDatabaseError(err)
	}
	return nil
}

// Update não toca em total_collected: esse valor só muda pelo crédito atômico do webhook.
func (r *ProgramRepository) Update(ctx context.Context, p *program.Program) error {
	result := r.DB.WithContext(ctx).Table("programs").Where("id = ?", p.Id.String()).Updates(map[string]interface{}{
		"name":               p.Name,
		"description":        p.Description,
		"organizer":          p.Organizer,
		"settlement_account": p.SettlementAccount,
		"icon":               p.Icon,
		"target_number":      p.TargetNumber,
		"target_unit":        p.TargetUnit,
		"current_progress":   p.CurrentProgress,
		"target_amount":      p.TargetAmount,
		"status":             string(p.Status),
		"start_date":         p.StartDate,
		"end_date":           p.EndDate,
		"updated_at":         p.UpdatedAt.UTC(),
	})
	if result.Error != nil {
		return appErrors.NewDatabaseError(result.Error)
	}
	if result.RowsAffected == 0 {
		return appErrors.ErrProgramNotFound
	}
	return nil
}

func (r *ProgramRepository) Delete(ctx context.Context, id ulid.ULID) error {
	result := r.DB.WithContext(ctx).Where("id = ?", id.String()).Delete(&programDB{})
	if result.Error != nil {
		return appErrors.NewDatabaseError(result.Error)
	}
	if result.RowsAffected == 0 {
		return appErrors.ErrProgramNotFound
	}
	return nil
}

func (r *ProgramRepository) GetById(ctx context.Context, id ulid.ULID) (*program.Program, error) {
	var row programDB
	if err := r.DB.WithContext(ctx).Table("programs").Where("id = ?", id.String()).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appErrors.ErrProgramNotFound.WithError(err)
		}
		return nil, appErrors.NewDatabaseError(err)
	}
	return toDomainProgram(&row)
}

func (r *ProgramRepository) List(ctx context.Context, filter program.Filter, pagination *pkg.PaginationParams) ([]*program.Program, int64, error) {
	query := r.DB.WithContext(ctx).Model(&programDB{})
	if term := strings.TrimSpace(filter.Search); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(organizer) LIKE ?", like, like)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}

	out, total, err := pkg.Paginate[program.Program, programDB](query, pagination, "created_at DESC", toDomainProgram)
	if err != nil {
		if _, ok := appErrors.AsAppError(err); ok {
			return nil, 0, err
		}
		return nil, 0, appErrors.NewDatabaseError(err)
	}
	return out, total, nil
}

func (r *ProgramRepository) ListByStatus(ctx context.Context, status program.Status) ([]*program.Program, error) {
	var rows []programDB
	if err := r.DB.WithContext(ctx).Table("programs").Where("status = ?", string(status)).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, appErrors.NewDatabaseError(err)
	}
	out := make([]*program.Program, 0, len(rows))
	for i := range rows {
		p, err := toDomainProgram(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *ProgramRepository) Options(ctx context.Context) ([]program.Option, error) {
	var rows []programDB
	err := r.DB.WithContext(ctx).Table("programs").
		Select("id", "name").
		Where("status = ?", string(program.StatusActive)).
		Order("name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, appErrors.NewDatabaseError(err)
	}
	out := make([]program.Option, 0, len(rows))
	for _, row := range rows {
		id, err := pkg.ParseULID(row.Id)
		if err != nil {
			return nil, appErrors.ErrInternalServer.WithError(err)
		}
		out = append(out, program.Option{Id: id, Name: row.Name})
	}
	return out, nil
}
