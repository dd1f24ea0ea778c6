package dashboard

import (
	"context"
	"time"
)

type Repository interface {
	GetCounts(ctx context.Context, monthFrom, monthTo time.Time) (*Counts, error)
	GetFinancialSummary(ctx context.Context) (*FinancialSummary, error)
	GetLatestNews(ctx context.Context, limit int) ([]NewsItem, error)
	GetLatestPrograms(ctx context.Context, limit int) ([]ProgramItem, error)
	GetCreatedBetween(ctx context.Context, from, to time.Time) (*MonthlyRow, error)
}
