package dashboard

import (
	"time"

	"github.com/oklog/ulid/v2"
)

type Counts struct {
	Users             int64 `json:"total_user"`
	UsersThisMonth    int64 `json:"-"`
	News              int64 `json:"total_berita"`
	NewsThisMonth     int64 `json:"-"`
	Programs          int64 `json:"total_penerima"`
	ActivePrograms    int64 `json:"active_penerima"`
	ProgramsThisMonth int64 `json:"-"`
}

type FinancialSummary struct {
	TotalTarget        float64 `json:"total_target"`
	TotalCollected     float64 `json:"total_collected"`
	ProgressPercentage float64 `json:"progress_percentage"`
}

type NewsItem struct {
	Id          ulid.ULID `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content,omitempty"`
	ImagePath   string    `json:"-"`
	ImageURL    string    `json:"image_url,omitempty"`
	PublishedAt time.Time `json:"published_at"`
	CreatedAt   time.Time `json:"created_at"`
}

type ProgramItem struct {
	Id             ulid.ULID `json:"id"`
	Name           string    `json:"name"`
	Organizer      string    `json:"organizer"`
	Status         string    `json:"status"`
	TargetAmount   float64   `json:"target_amount"`
	TotalCollected float64   `json:"total_collected"`
	CreatedAt      time.Time `json:"created_at"`
}

type UserStats struct {
	Total        int64 `json:"total"`
	NewThisMonth int64 `json:"new_this_month"`
}

type NewsStats struct {
	Total     int64      `json:"total"`
	ThisMonth int64      `json:"this_month"`
	Latest    []NewsItem `json:"latest"`
}

type ProgramStats struct {
	Total          int64         `json:"total"`
	Active         int64         `json:"active"`
	ThisMonth      int64         `json:"this_month"`
	TotalTarget    float64       `json:"total_target"`
	TotalCollected float64       `json:"total_collected"`
	Latest         []ProgramItem `json:"latest"`
}

type Summary struct {
	TotalUsers     int64 `json:"total_users"`
	TotalNews      int64 `json:"total_berita"`
	TotalPrograms  int64 `json:"total_programs"`
	ActivePrograms int64 `json:"active_programs"`
}

type Detailed struct {
	Users           UserStats    `json:"users"`
	News            NewsStats    `json:"berita"`
	Programs        ProgramStats `json:"program_donasi"`
	OverallProgress float64      `json:"overall_progress"`
	Summary         Summary      `json:"summary"`
}

type OverviewCounts struct {
	Users          int64 `json:"users"`
	News           int64 `json:"berita"`
	Programs       int64 `json:"programs"`
	ActivePrograms int64 `json:"active_programs"`
}

type Overview struct {
	Counts           OverviewCounts   `json:"counts"`
	RecentNews       []NewsItem       `json:"recent_berita"`
	RecentPrograms   []ProgramItem    `json:"recent_programs"`
	FinancialSummary FinancialSummary `json:"financial_summary"`
}

type MonthlyRow struct {
	Month       int    `json:"month"`
	MonthName   string `json:"month_name"`
	NewUsers    int64  `json:"new_users"`
	NewNews     int64  `json:"new_berita"`
	NewPrograms int64  `json:"new_programs"`
}

type Monthly struct {
	Year  int          `json:"year"`
	Stats []MonthlyRow `json:"monthly_stats"`
}
