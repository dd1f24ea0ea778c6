package dashboard

import (
	"context"
	"math"
	"time"

	appErrors "Ecotrack/internal/errors"
)

type Service struct {
	Repository Repository
	Clock      func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{Repository: repo, Clock: time.Now}
}

func (s *Service) currentMonth() (time.Time, time.Time) {
	now := time.Now()
	if s.Clock != nil {
		now = s.Clock()
	}
	now = now.UTC()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 1, 0)
}

func (s *Service) GetStats(ctx context.Context) (*Counts, error) {
	from, to := s.currentMonth()
	return s.Repository.GetCounts(ctx, from, to)
}

func (s *Service) GetDetailed(ctx context.Context) (*Detailed, error) {
	from, to := s.currentMonth()
	counts, err := s.Repository.GetCounts(ctx, from, to)
	if err != nil {
		return nil, err
	}

	financial, err := s.GetFinancialSummary(ctx)
	if err != nil {
		return nil, err
	}

	latestNews, err := s.Repository.GetLatestNews(ctx, 5)
	if err != nil {
		return nil, err
	}

	latestPrograms, err := s.Repository.GetLatestPrograms(ctx, 5)
	if err != nil {
		return nil, err
	}

	return &Detailed{
		Users: UserStats{Total: counts.Users, NewThisMonth: counts.UsersThisMonth},
		News: NewsStats{
			Total:     counts.News,
			ThisMonth: counts.NewsThisMonth,
			Latest:    latestNews,
		},
		Programs: ProgramStats{
			Total:          counts.Programs,
			Active:         counts.ActivePrograms,
			ThisMonth:      counts.ProgramsThisMonth,
			TotalTarget:    financial.TotalTarget,
			TotalCollected: financial.TotalCollected,
			Latest:         latestPrograms,
		},
		OverallProgress: financial.ProgressPercentage,
		Summary: Summary{
			TotalUsers:     counts.Users,
			TotalNews:      counts.News,
			TotalPrograms:  counts.Programs,
			ActivePrograms: counts.ActivePrograms,
		},
	}, nil
}

func (s *Service) GetOverview(ctx context.Context) (*Overview, error) {
	from, to := s.currentMonth()
	counts, err := s.Repository.GetCounts(ctx, from, to)
	if err != nil {
		return nil, err
	}

	recentNews, err := s.Repository.GetLatestNews(ctx, 3)
	if err != nil {
		return nil, err
	}

	recentPrograms, err := s.Repository.GetLatestPrograms(ctx, 3)
	if err != nil {
		return nil, err
	}

	financial, err := s.GetFinancialSummary(ctx)
	if err != nil {
		return nil, err
	}

	return &Overview{
		Counts: OverviewCounts{
			Users:          counts.Users,
			News:           counts.News,
			Programs:       counts.Programs,
			ActivePrograms: counts.ActivePrograms,
		},
		RecentNews:       recentNews,
		RecentPrograms:   recentPrograms,
		FinancialSummary: *financial,
	}, nil
}

// GetFinancialSummary compara metas e valores arrecadados de todos os programas.
func (s *Service) GetFinancialSummary(ctx context.Context) (*FinancialSummary, error) {
	summary, err := s.Repository.GetFinancialSummary(ctx)
	if err != nil {
		return nil, err
	}
	summary.ProgressPercentage = 0
	if summary.TotalTarget > 0 {
		summary.ProgressPercentage = math.Round(summary.TotalCollected/summary.TotalTarget*100*100) / 100
	}
	return summary, nil
}

// GetMonthly consulta cada mês do ano separadamente; qualquer falha descarta o resultado inteiro.
func (s *Service) GetMonthly(ctx context.Context, year int) (*Monthly, error) {
	if year < 2000 || year > 2100 {
		return nil, appErrors.NewValidationError("year", "ano deve estar entre 2000 e 2100")
	}

	rows := make([]MonthlyRow, 0, 12)
	for month := time.January; month <= time.December; month++ {
		from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
		row, err := s.Repository.GetCreatedBetween(ctx, from, from.AddDate(0, 1, 0))
		if err != nil {
			return nil, err
		}
		row.Month = int(month)
		row.MonthName = month.String()
		rows = append(rows, *row)
	}
	return &Monthly{Year: year, Stats: rows}, nil
}
