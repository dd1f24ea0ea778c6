package infrastructure

import (
	"context"
	"time"

	"Ecotrack/internal/domain/dashboard"
	"Ecotrack/internal/domain/program"
	appErrors "Ecotrack/internal/errors"
	"Ecotrack/internal/pkg"

	"gorm.io/gorm"
)

type DashboardRepository struct {
	DB *gorm.DB
}

var _ dashboard.Repository = (*DashboardRepository)(nil)

func (r *DashboardRepository) count(ctx context.Context, table string, scopes ...func(*gorm.DB) *gorm.DB) (int64, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Table(table).Scopes(scopes...).Count(&total).Error; err != nil {
		return 0, appErrors.NewDatabaseError(err)
	}
	return total, nil
}

func createdBetween(from, to time.Time) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("created_at >= ? AND created_at < ?", from.UTC(), to.UTC())
	}
}

func withStatus(status program.Status) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("status = ?", string(status))
	}
}

func (r *DashboardRepository) GetCounts(ctx context.Context, monthFrom, monthTo time.Time) (*dashboard.Counts, error) {
	var (
		counts dashboard.Counts
		err    error
	)
	month := createdBetween(monthFrom, monthTo)

	if counts.Users, err = r.count(ctx, "users"); err != nil {
		return nil, err
	}
	if counts.UsersThisMonth, err = r.count(ctx, "users", month); err != nil {
		return nil, err
	}
	if counts.News, err = r.count(ctx, "berita"); err != nil {
		return nil, err
	}
	if counts.NewsThisMonth, err = r.count(ctx, "berita", month); err != nil {
		return nil, err
	}
	if counts.Programs, err = r.count(ctx, "programs"); err != nil {
		return nil, err
	}
	if counts.ActivePrograms, err = r.count(ctx, "programs", withStatus(program.StatusActive)); err != nil {
		return nil, err
	}
	if counts.ProgramsThisMonth, err = r.count(ctx, "programs", month); err != nil {
		return nil, err
	}
	return &counts, nil
}

func (r *DashboardRepository) GetFinancialSummary(ctx context.Context) (*dashboard.FinancialSummary, error) {
	var summary dashboard.FinancialSummary
	err := r.DB.WithContext(ctx).Table("programs").
		Select("COALESCE(SUM(target_amount), 0) AS total_target, COALESCE(SUM(total_collected), 0) AS total_collected").
		Scan(&summary).Error
	if err != nil {
		return nil, appErrors.NewDatabaseError(err)
	}
	return &summary, nil
}

func (r *DashboardRepository) GetLatestNews(ctx context.Context, limit int) ([]dashboard.NewsItem, error) {
	var rows []newsDB
	err := r.DB.WithContext(ctx).Table("berita").
		Order("published_at DESC, created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, appErrors.NewDatabaseError(err)
	}

	out := make([]dashboard.NewsItem, 0, len(rows))
	for _, row := range rows {
		id, err := pkg.ParseULID(row.Id)
		if err != nil {
			return nil, appErrors.ErrInternalServer.WithError(err)
		}
		out = append(out, dashboard.NewsItem{
			Id:          id,
			Title:       row.Title,
			ImagePath:   row.ImagePath,
			PublishedAt: row.PublishedAt,
			CreatedAt:   row.CreatedAt,
		})
	}
	return out, nil
}

func (r *DashboardRepository) GetLatestPrograms(ctx context.Context, limit int) ([]dashboard.ProgramItem, error) {
	var rows []programDB
	err := r.DB.WithContext(ctx).Table("programs").
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, appErrors.NewDatabaseError(err)
	}

	out := make([]dashboard.ProgramItem, 0, len(rows))
	for _, row := range rows {
		id, err := pkg.ParseULID(row.Id)
		if err != nil {
			return nil, appErrors.ErrInternalServer.WithError(err)
		}
		out = append(out, dashboard.ProgramItem{
			Id:             id,
			Name:           row.Name,
			Organizer:      row.Organizer,
			Status:         row.Status,
			TargetAmount:   row.TargetAmount,
			TotalCollected: row.TotalCollected,
			CreatedAt:      row.CreatedAt,
		})
	}
	return out, nil
}

func (r *DashboardRepository) GetCreatedBetween(ctx context.Context, from, to time.Time) (*dashboard.MonthlyRow, error) {
	var (
		row dashboard.MonthlyRow
		err error
	)
	window := createdBetween(from, to)
	if row.NewUsers, err = r.count(ctx, "users", window); err != nil {
		return nil, err
	}
	if row.NewNews, err = r.count(ctx, "berita", window); err != nil {
		return nil, err
	}
	if row.NewPrograms, err = r.count(ctx, "programs", window); err != nil {
		return nil, err
	}
	return &row, nil
}
